package inmemdb

import (
	"context"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/school"
)

type promotionRepository struct {
	db *DB
}

var _ promotion.Repository = (*promotionRepository)(nil) // interface compliance check

func NewPromotionRepository(db *DB) *promotionRepository {
	return &promotionRepository{db: db}
}

func (repo *promotionRepository) CreateRule(ctx context.Context, r promotion.Rule) (promotion.Rule, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.db.fail("CreateRule"); err != nil {
		return promotion.Rule{}, err
	}
	if r.ID == "" {
		r.ID = newID()
	}
	repo.db.rules[r.ID] = r
	return r, nil
}

func (repo *promotionRepository) QueryRules(ctx context.Context, yearID string, category ...promotion.Category) ([]promotion.Rule, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var rules []promotion.Rule
	for _, r := range repo.db.rules {
		if r.AcademicYearID != yearID {
			continue
		}
		if len(category) > 0 && r.Category != category[0] {
			continue
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func (repo *promotionRepository) GetStudent(ctx context.Context, studentID, yearID string) (school.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if s, ok := repo.db.students[studentID]; ok && s.AcademicYearID == yearID {
		return s, nil
	}
	return school.Student{}, promotion.ErrStudentNotFound
}

func (repo *promotionRepository) CountAbsences(ctx context.Context, studentID, yearID string) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var n int
	for _, a := range repo.db.attendance {
		if a.AcademicYearID == yearID && a.StudentID == studentID &&
			core.FoldString(a.Status) == school.AttendanceAbsent {
			n++
		}
	}
	return n, nil
}
