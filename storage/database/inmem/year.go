package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/year"
)

type yearRepository struct {
	db *DB
	tx bool // inside Atomic; the db mutex is already held
}

var _ year.Repository = (*yearRepository)(nil) // interface compliance check

func NewYearRepository(db *DB) *yearRepository {
	return &yearRepository{db: db}
}

func (repo *yearRepository) lock() func() {
	if repo.tx {
		return func() {}
	}
	repo.db.mu.Lock()
	return repo.db.mu.Unlock
}

func (repo *yearRepository) Atomic(ctx context.Context, fn func(tx year.Repository) error) error {
	if repo.tx {
		return fn(repo)
	}
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	snap := repo.db.snapshot()
	if err := fn(&yearRepository{db: repo.db, tx: true}); err != nil {
		repo.db.restore(snap)
		return err
	}
	return nil
}

func (repo *yearRepository) CreateYear(ctx context.Context, y year.Year) (year.Year, error) {
	defer repo.lock()()
	if err := repo.db.fail("CreateYear"); err != nil {
		return year.Year{}, err
	}
	if y.ID == "" {
		y.ID = newID()
	}
	repo.db.years[y.ID] = y
	return y, nil
}

func (repo *yearRepository) QueryAllYears(ctx context.Context) ([]year.Year, error) {
	defer repo.lock()()
	years := make([]year.Year, 0, len(repo.db.years))
	for _, y := range repo.db.years {
		years = append(years, y)
	}
	return years, nil
}

func (repo *yearRepository) GetYearByID(ctx context.Context, id string) (year.Year, error) {
	defer repo.lock()()
	if y, ok := repo.db.years[id]; ok {
		return y, nil
	}
	return year.Year{}, year.ErrNotFound
}

func (repo *yearRepository) GetYearByName(ctx context.Context, name string) (year.Year, error) {
	defer repo.lock()()
	for _, y := range repo.db.years {
		if y.Name == name {
			return y, nil
		}
	}
	return year.Year{}, year.ErrNotFound
}

func (repo *yearRepository) GetActiveYear(ctx context.Context) (year.Year, error) {
	defer repo.lock()()
	for _, y := range repo.db.years {
		if y.Active {
			return y, nil
		}
	}
	return year.Year{}, year.ErrNotFound
}

func (repo *yearRepository) SetYearActive(ctx context.Context, id string, active bool) error {
	defer repo.lock()()
	if err := repo.db.fail("SetYearActive"); err != nil {
		return err
	}
	y, ok := repo.db.years[id]
	if !ok {
		return year.ErrNotFound
	}
	y.Active = active
	y.UpdatedAt = time.Now().UTC()
	repo.db.years[id] = y
	return nil
}

func (repo *yearRepository) DeleteYearByID(ctx context.Context, id string) error {
	defer repo.lock()()
	if err := repo.db.fail("DeleteYearByID"); err != nil {
		return err
	}
	if _, ok := repo.db.years[id]; !ok {
		return year.ErrNotFound
	}
	delete(repo.db.years, id)
	return nil
}

func (repo *yearRepository) DeleteScoped(ctx context.Context, kind school.Kind, yearID string) (int, error) {
	defer repo.lock()()
	if err := repo.db.fail("DeleteScoped:" + string(kind)); err != nil {
		return 0, err
	}

	var n int
	switch kind {
	case school.KindGrade:
		for id, row := range repo.db.grades {
			if row.AcademicYearID == yearID {
				delete(repo.db.grades, id)
				n++
			}
		}
	case school.KindAttendance:
		for id, row := range repo.db.attendance {
			if row.AcademicYearID == yearID {
				delete(repo.db.attendance, id)
				n++
			}
		}
	case school.KindPayment:
		for id, row := range repo.db.payments {
			if row.AcademicYearID == yearID {
				delete(repo.db.payments, id)
				n++
			}
		}
	case school.KindExpense:
		for id, row := range repo.db.expenses {
			if row.AcademicYearID == yearID {
				delete(repo.db.expenses, id)
				n++
			}
		}
	case school.KindEvaluation:
		for id, row := range repo.db.evaluations {
			if row.AcademicYearID == yearID {
				delete(repo.db.evaluations, id)
				n++
			}
		}
	case school.KindStudent:
		for id, row := range repo.db.students {
			if row.AcademicYearID == yearID {
				delete(repo.db.students, id)
				n++
			}
		}
	case school.KindSubject:
		for id, row := range repo.db.subjects {
			if row.AcademicYearID == yearID {
				delete(repo.db.subjects, id)
				n++
			}
		}
	case school.KindClass:
		for id, row := range repo.db.classes {
			if row.AcademicYearID == yearID {
				delete(repo.db.classes, id)
				n++
			}
		}
	case school.KindStaff:
		for id, row := range repo.db.staff {
			if row.AcademicYearID == yearID {
				delete(repo.db.staff, id)
				n++
			}
		}
	case school.KindTeacher:
		for id, row := range repo.db.teachers {
			if row.AcademicYearID == yearID {
				delete(repo.db.teachers, id)
				n++
			}
		}
	case school.KindPromotionRule:
		for id, row := range repo.db.rules {
			if row.AcademicYearID == yearID {
				delete(repo.db.rules, id)
				n++
			}
		}
	default:
		return 0, school.ErrUnknownKind
	}
	return n, nil
}

func (repo *yearRepository) GetClassByID(ctx context.Context, id string) (school.Class, error) {
	defer repo.lock()()
	if c, ok := repo.db.classes[id]; ok {
		return c, nil
	}
	return school.Class{}, year.ErrRecordNotFound
}

func (repo *yearRepository) GetClassByLabel(ctx context.Context, yearID, label string) (school.Class, error) {
	defer repo.lock()()
	for _, c := range repo.db.classes {
		if c.AcademicYearID == yearID && c.Label == label {
			return c, nil
		}
	}
	return school.Class{}, year.ErrRecordNotFound
}

func (repo *yearRepository) CreateClass(ctx context.Context, c school.Class) (school.Class, error) {
	defer repo.lock()()
	if err := repo.db.fail("CreateClass"); err != nil {
		return school.Class{}, err
	}
	if c.ID == "" {
		c.ID = newID()
	}
	repo.db.classes[c.ID] = c
	return c, nil
}

func (repo *yearRepository) GetSubjectByID(ctx context.Context, id string) (school.Subject, error) {
	defer repo.lock()()
	if s, ok := repo.db.subjects[id]; ok {
		return s, nil
	}
	return school.Subject{}, year.ErrRecordNotFound
}

func (repo *yearRepository) CreateSubject(ctx context.Context, s school.Subject) (school.Subject, error) {
	defer repo.lock()()
	if err := repo.db.fail("CreateSubject"); err != nil {
		return school.Subject{}, err
	}
	if s.ID == "" {
		s.ID = newID()
	}
	repo.db.subjects[s.ID] = s
	return s, nil
}

func (repo *yearRepository) GetTeacherByID(ctx context.Context, id string) (school.Teacher, error) {
	defer repo.lock()()
	if t, ok := repo.db.teachers[id]; ok {
		return t, nil
	}
	return school.Teacher{}, year.ErrRecordNotFound
}

func (repo *yearRepository) CreateTeacher(ctx context.Context, t school.Teacher) (school.Teacher, error) {
	defer repo.lock()()
	if err := repo.db.fail("CreateTeacher"); err != nil {
		return school.Teacher{}, err
	}
	if t.ID == "" {
		t.ID = newID()
	}
	repo.db.teachers[t.ID] = t
	return t, nil
}

func (repo *yearRepository) GetStaffByID(ctx context.Context, id string) (school.Staff, error) {
	defer repo.lock()()
	if s, ok := repo.db.staff[id]; ok {
		return s, nil
	}
	return school.Staff{}, year.ErrRecordNotFound
}

func (repo *yearRepository) CreateStaff(ctx context.Context, s school.Staff) (school.Staff, error) {
	defer repo.lock()()
	if err := repo.db.fail("CreateStaff"); err != nil {
		return school.Staff{}, err
	}
	if s.ID == "" {
		s.ID = newID()
	}
	repo.db.staff[s.ID] = s
	return s, nil
}

func (repo *yearRepository) GetRuleByID(ctx context.Context, id string) (promotion.Rule, error) {
	defer repo.lock()()
	if r, ok := repo.db.rules[id]; ok {
		return r, nil
	}
	return promotion.Rule{}, year.ErrRecordNotFound
}

func (repo *yearRepository) RuleExists(ctx context.Context, yearID string, category promotion.Category, minAvg, maxAvg float64) (bool, error) {
	defer repo.lock()()
	for _, r := range repo.db.rules {
		if r.AcademicYearID == yearID && r.Category == category && r.MinAverage == minAvg && r.MaxAverage == maxAvg {
			return true, nil
		}
	}
	return false, nil
}

func (repo *yearRepository) CreateRule(ctx context.Context, r promotion.Rule) (promotion.Rule, error) {
	defer repo.lock()()
	if err := repo.db.fail("CreateRule"); err != nil {
		return promotion.Rule{}, err
	}
	if r.ID == "" {
		r.ID = newID()
	}
	repo.db.rules[r.ID] = r
	return r, nil
}
