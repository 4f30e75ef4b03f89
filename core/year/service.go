package year

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/school"
)

var (
	// errors
	ErrNotFound       = errors.New("academic year not found")
	ErrNameExists     = errors.New("an academic year with this name already exists")
	ErrRecordNotFound = errors.New("record not found")
)

type (
	Repository interface {
		// Atomic runs fn inside a single transaction; fn receives a
		// Repository bound to that transaction. A non-nil error from fn
		// rolls everything back.
		Atomic(ctx context.Context, fn func(tx Repository) error) error

		CreateYear(ctx context.Context, y Year) (Year, error)
		QueryAllYears(ctx context.Context) ([]Year, error)
		GetYearByID(ctx context.Context, id string) (Year, error)
		GetYearByName(ctx context.Context, name string) (Year, error)
		GetActiveYear(ctx context.Context) (Year, error)
		SetYearActive(ctx context.Context, id string, active bool) error
		DeleteYearByID(ctx context.Context, id string) error

		// DeleteScoped removes all rows of one kind referencing the year and
		// reports how many went.
		DeleteScoped(ctx context.Context, kind school.Kind, yearID string) (int, error)

		// transfer lookups & writes; Get*ByID return ErrRecordNotFound when
		// the id does not exist
		GetClassByID(ctx context.Context, id string) (school.Class, error)
		GetClassByLabel(ctx context.Context, yearID, label string) (school.Class, error)
		CreateClass(ctx context.Context, c school.Class) (school.Class, error)
		GetSubjectByID(ctx context.Context, id string) (school.Subject, error)
		CreateSubject(ctx context.Context, s school.Subject) (school.Subject, error)
		GetTeacherByID(ctx context.Context, id string) (school.Teacher, error)
		CreateTeacher(ctx context.Context, t school.Teacher) (school.Teacher, error)
		GetStaffByID(ctx context.Context, id string) (school.Staff, error)
		CreateStaff(ctx context.Context, s school.Staff) (school.Staff, error)
		GetRuleByID(ctx context.Context, id string) (promotion.Rule, error)
		RuleExists(ctx context.Context, yearID string, category promotion.Category, minAvg, maxAvg float64) (bool, error)
		CreateRule(ctx context.Context, r promotion.Rule) (promotion.Rule, error)
	}

	Service struct {
		repo Repository
	}
)

// DeletionReport counts the rows removed per entity kind by Delete.
type DeletionReport map[school.Kind]int

func (rep DeletionReport) Total() int {
	var n int
	for _, c := range rep {
		n += c
	}
	return n
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ny NewYear) (Year, error) {
	if err := ny.Validate(); err != nil {
		return Year{}, err
	}
	start, end, err := ParseName(ny.Name)
	if err != nil {
		return Year{}, core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
	}

	if _, err = svc.repo.GetYearByName(ctx, ny.Name); err == nil {
		return Year{}, core.NewValidationError(ErrNameExists, core.FieldError{Field: "name", Error: ErrNameExists.Error()})
	} else if err != ErrNotFound {
		return Year{}, pkgerrors.Wrap(err, "checking name uniqueness")
	}

	now := time.Now().UTC()
	y := Year{
		Name:      ny.Name,
		StartYear: start,
		EndYear:   end,
		Active:    false, // activation is a separate, deliberate step
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateYear(ctx, y)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Year, error) {
	return svc.repo.QueryAllYears(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Year, error) {
	if id == "" {
		return Year{}, school.ErrMissingScope
	}
	return svc.repo.GetYearByID(ctx, id)
}

func (svc *Service) GetByName(ctx context.Context, name string) (Year, error) {
	return svc.repo.GetYearByName(ctx, core.CleanString(name))
}

func (svc *Service) Active(ctx context.Context) (Year, error) {
	return svc.repo.GetActiveYear(ctx)
}

// Activate flips the single active-year flag to the target year. The current
// active year is deactivated and the target activated inside one transaction
// so that at most one year is ever marked active.
func (svc *Service) Activate(ctx context.Context, id string) (Year, error) {
	if id == "" {
		return Year{}, school.ErrMissingScope
	}

	err := svc.repo.Atomic(ctx, func(tx Repository) error {
		target, err := tx.GetYearByID(ctx, id)
		if err != nil {
			return err
		}
		cur, err := tx.GetActiveYear(ctx)
		switch err {
		case nil:
			if cur.ID == target.ID {
				return nil
			}
			if err = tx.SetYearActive(ctx, cur.ID, false); err != nil {
				return pkgerrors.Wrap(err, "deactivating current year")
			}
		case ErrNotFound: // no active year yet
		default:
			return pkgerrors.Wrap(err, "getting active year")
		}
		return pkgerrors.Wrap(tx.SetYearActive(ctx, target.ID, true), "activating year")
	})
	if err != nil {
		return Year{}, err
	}
	return svc.repo.GetYearByID(ctx, id)
}

// Delete removes the year and every record referencing it, child rows first,
// all inside one transaction. Either everything goes or nothing does.
func (svc *Service) Delete(ctx context.Context, id string) (DeletionReport, error) {
	if id == "" {
		return nil, school.ErrMissingScope
	}
	if _, err := svc.repo.GetYearByID(ctx, id); err != nil {
		return nil, err
	}

	report := make(DeletionReport, len(school.DeletionOrder()))
	err := svc.repo.Atomic(ctx, func(tx Repository) error {
		for _, kind := range school.DeletionOrder() {
			n, err := tx.DeleteScoped(ctx, kind, id)
			if err != nil {
				return pkgerrors.Wrapf(err, "deleting %s rows", kind)
			}
			report[kind] = n
		}
		return pkgerrors.Wrap(tx.DeleteYearByID(ctx, id), "deleting year")
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
