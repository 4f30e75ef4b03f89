package year

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/school"
)

var errKindNotTransferable = errors.New("this entity type cannot be transferred")

type (
	// TransferRequest asks for source records to be duplicated into the
	// destination year. Sources are never mutated.
	TransferRequest struct {
		EntityType        string   `json:"entity_type" validate:"required"`
		IDs               []string `json:"ids" validate:"required,min=1,dive,required"`
		DestinationYearID string   `json:"destination_year_id" validate:"required"`
	}

	// TransferReport counts what a transfer did. ClassesCreated reports
	// classes auto-created while transferring subjects; Skipped reports
	// promotion rules dropped because an identical band already existed in
	// the destination.
	TransferReport struct {
		Transferred    int `json:"transferred"`
		ClassesCreated int `json:"classes_created,omitempty"`
		Skipped        int `json:"skipped,omitempty"`
	}
)

func (tr *TransferRequest) Validate() error {
	tr.EntityType = core.CleanString(tr.EntityType, true)
	tr.DestinationYearID = core.CleanString(tr.DestinationYearID)
	return core.Validate.Struct(tr)
}

// Transfer duplicates the identified records into the destination year in a
// single transaction. Year-specific relations are re-resolved, not copied:
// classes get the destination year's display name, subjects are re-attached
// to a same-named class in the destination (created on demand) and lose
// their teacher (contracts are year-specific, reassignment is manual), and
// promotion rules with an identical (category, band) are skipped.
func (svc *Service) Transfer(ctx context.Context, req TransferRequest) (TransferReport, error) {
	var report TransferReport

	if err := req.Validate(); err != nil {
		return report, err
	}
	kind, err := school.ParseKind(req.EntityType)
	if err != nil {
		return report, core.NewValidationError(err, core.FieldError{Field: "entity_type", Error: err.Error()})
	}

	dest, err := svc.repo.GetYearByID(ctx, req.DestinationYearID)
	if err != nil {
		return report, err
	}

	err = svc.repo.Atomic(ctx, func(tx Repository) error {
		switch kind {
		case school.KindClass:
			return svc.transferClasses(ctx, tx, req.IDs, dest, &report)
		case school.KindSubject:
			return svc.transferSubjects(ctx, tx, req.IDs, dest, &report)
		case school.KindTeacher:
			return svc.transferTeachers(ctx, tx, req.IDs, dest, &report)
		case school.KindStaff:
			return svc.transferStaff(ctx, tx, req.IDs, dest, &report)
		case school.KindPromotionRule:
			return svc.transferRules(ctx, tx, req.IDs, dest, &report)
		default:
			return core.NewValidationError(errKindNotTransferable,
				core.FieldError{Field: "entity_type", Error: errKindNotTransferable.Error()})
		}
	})
	if err != nil {
		return TransferReport{}, err
	}
	return report, nil
}

func (svc *Service) transferClasses(ctx context.Context, tx Repository, ids []string, dest Year, report *TransferReport) error {
	now := time.Now().UTC()
	for _, id := range ids {
		src, err := tx.GetClassByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrapf(err, "getting class %s", id)
		}
		_, err = tx.CreateClass(ctx, school.Class{
			AcademicYearID: dest.ID,
			Label:          src.Label,
			Level:          src.Level,
			YearLabel:      dest.Name, // rewritten, not copied
			BoardingFee:    src.BoardingFee,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return pkgerrors.Wrapf(err, "copying class %s", id)
		}
		report.Transferred++
	}
	return nil
}

func (svc *Service) transferSubjects(ctx context.Context, tx Repository, ids []string, dest Year, report *TransferReport) error {
	now := time.Now().UTC()
	for _, id := range ids {
		src, err := tx.GetSubjectByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrapf(err, "getting subject %s", id)
		}
		srcClass, err := tx.GetClassByID(ctx, src.ClassID)
		if err != nil {
			return pkgerrors.Wrapf(err, "getting class of subject %s", id)
		}

		destClass, err := tx.GetClassByLabel(ctx, dest.ID, srcClass.Label)
		switch err {
		case nil:
		case ErrRecordNotFound:
			destClass, err = tx.CreateClass(ctx, school.Class{
				AcademicYearID: dest.ID,
				Label:          srcClass.Label,
				Level:          srcClass.Level,
				YearLabel:      dest.Name,
				BoardingFee:    srcClass.BoardingFee,
				CreatedAt:      now,
				UpdatedAt:      now,
			})
			if err != nil {
				return pkgerrors.Wrapf(err, "creating class %q in destination year", srcClass.Label)
			}
			report.ClassesCreated++
		default:
			return pkgerrors.Wrapf(err, "finding class %q in destination year", srcClass.Label)
		}

		_, err = tx.CreateSubject(ctx, school.Subject{
			AcademicYearID: dest.ID,
			ClassID:        destClass.ID,
			TeacherID:      null.String{}, // teacher contracts are year-specific; reassigned manually
			Name:           src.Name,
			Coefficient:    src.Coefficient,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return pkgerrors.Wrapf(err, "copying subject %s", id)
		}
		report.Transferred++
	}
	return nil
}

func (svc *Service) transferTeachers(ctx context.Context, tx Repository, ids []string, dest Year, report *TransferReport) error {
	now := time.Now().UTC()
	for _, id := range ids {
		src, err := tx.GetTeacherByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrapf(err, "getting teacher %s", id)
		}
		_, err = tx.CreateTeacher(ctx, school.Teacher{
			AcademicYearID: dest.ID,
			FirstName:      src.FirstName,
			LastName:       src.LastName,
			Email:          src.Email,
			Phone:          src.Phone,
			Speciality:     src.Speciality,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return pkgerrors.Wrapf(err, "copying teacher %s", id)
		}
		report.Transferred++
	}
	return nil
}

func (svc *Service) transferStaff(ctx context.Context, tx Repository, ids []string, dest Year, report *TransferReport) error {
	now := time.Now().UTC()
	for _, id := range ids {
		src, err := tx.GetStaffByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrapf(err, "getting staff %s", id)
		}
		_, err = tx.CreateStaff(ctx, school.Staff{
			AcademicYearID: dest.ID,
			FirstName:      src.FirstName,
			LastName:       src.LastName,
			Role:           src.Role,
			Email:          src.Email,
			Phone:          src.Phone,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return pkgerrors.Wrapf(err, "copying staff %s", id)
		}
		report.Transferred++
	}
	return nil
}

func (svc *Service) transferRules(ctx context.Context, tx Repository, ids []string, dest Year, report *TransferReport) error {
	now := time.Now().UTC()
	for _, id := range ids {
		src, err := tx.GetRuleByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrapf(err, "getting promotion rule %s", id)
		}
		exists, err := tx.RuleExists(ctx, dest.ID, src.Category, src.MinAverage, src.MaxAverage)
		if err != nil {
			return pkgerrors.Wrapf(err, "checking for duplicate of rule %s", id)
		}
		if exists {
			report.Skipped++ // same band already present; not an error
			continue
		}
		_, err = tx.CreateRule(ctx, promotion.Rule{
			AcademicYearID: dest.ID,
			Category:       src.Category,
			CategoryLabel:  src.CategoryLabel,
			MinAverage:     src.MinAverage,
			MaxAverage:     src.MaxAverage,
			MinAbsences:    src.MinAbsences,
			MaxAbsences:    src.MaxAbsences,
			Outcome:        src.Outcome,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return pkgerrors.Wrapf(err, "copying promotion rule %s", id)
		}
		report.Transferred++
	}
	return nil
}
