package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/school"
)

type promotionRepository struct {
	db *sqlx.DB
}

var _ promotion.Repository = (*promotionRepository)(nil) // interface compliance check

func NewPromotionRepository(db *sqlx.DB) *promotionRepository {
	return &promotionRepository{db: db}
}

func (repo *promotionRepository) CreateRule(ctx context.Context, r promotion.Rule) (promotion.Rule, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO promotion_rule
			(id, academic_year_id, category, category_label, min_average, max_average,
			 min_absences, max_absences, outcome, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID, r.AcademicYearID, r.Category, r.CategoryLabel, r.MinAverage, r.MaxAverage,
		r.MinAbsences, r.MaxAbsences, r.Outcome, r.CreatedAt, r.UpdatedAt,
	)
	return r, errors.Wrap(err, "inserting promotion rule")
}

func (repo *promotionRepository) QueryRules(ctx context.Context, yearID string, category ...promotion.Category) ([]promotion.Rule, error) {
	q := `SELECT * FROM promotion_rule WHERE academic_year_id = $1`
	args := []interface{}{yearID}
	if len(category) > 0 {
		q += ` AND category = $2`
		args = append(args, category[0])
	}

	var rules []promotion.Rule
	err := repo.db.SelectContext(ctx, &rules, q, args...)
	return rules, errors.Wrap(err, "querying promotion rules")
}

func (repo *promotionRepository) GetStudent(ctx context.Context, studentID, yearID string) (school.Student, error) {
	var s school.Student
	err := repo.db.GetContext(ctx, &s,
		`SELECT * FROM student WHERE id = $1 AND academic_year_id = $2`, studentID, yearID)
	if err != nil {
		return school.Student{}, trapNoRowsErr(err, promotion.ErrStudentNotFound, "getting student")
	}
	return s, nil
}

func (repo *promotionRepository) CountAbsences(ctx context.Context, studentID, yearID string) (int, error) {
	var n int
	err := repo.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM attendance
		 WHERE academic_year_id = $1 AND student_id = $2 AND lower(status) = $3`,
		yearID, studentID, school.AttendanceAbsent,
	)
	return n, errors.Wrap(err, "counting absences")
}
