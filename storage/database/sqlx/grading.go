package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/grading"
)

type gradingRepository struct {
	db *sqlx.DB
}

var _ grading.Repository = (*gradingRepository)(nil) // interface compliance check

func NewGradingRepository(db *sqlx.DB) *gradingRepository {
	return &gradingRepository{db: db}
}

func (repo *gradingRepository) QueryGrades(ctx context.Context, f grading.Filter) ([]grading.GradeRow, error) {
	q := `SELECT g.student_id, g.subject_id, s.name AS subject_name, s.coefficient, g.period, g.value
	      FROM grade g
	      LEFT JOIN subject s ON s.id = g.subject_id`
	args := []interface{}{f.YearID}

	if len(f.ClassIDs) > 0 {
		q += ` JOIN student st ON st.id = g.student_id`
	}
	q += ` WHERE g.academic_year_id = ?`
	if f.StudentID != "" {
		q += ` AND g.student_id = ?`
		args = append(args, f.StudentID)
	}
	if len(f.ClassIDs) > 0 {
		q += ` AND st.class_id IN (?)`
		args = append(args, f.ClassIDs)
	}

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "expanding grade query")
	}

	var rows []grading.GradeRow
	err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...)
	return rows, errors.Wrap(err, "querying grades")
}
