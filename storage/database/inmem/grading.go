package inmemdb

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core/grading"
)

type gradingRepository struct {
	db *DB
}

var _ grading.Repository = (*gradingRepository)(nil) // interface compliance check

func NewGradingRepository(db *DB) *gradingRepository {
	return &gradingRepository{db: db}
}

func (repo *gradingRepository) QueryGrades(ctx context.Context, f grading.Filter) ([]grading.GradeRow, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	classIDs := make(map[string]bool, len(f.ClassIDs))
	for _, id := range f.ClassIDs {
		classIDs[id] = true
	}

	var rows []grading.GradeRow
	for _, g := range repo.db.grades {
		if g.AcademicYearID != f.YearID {
			continue
		}
		if f.StudentID != "" && g.StudentID != f.StudentID {
			continue
		}
		if len(classIDs) > 0 {
			student, ok := repo.db.students[g.StudentID]
			if !ok || !student.ClassID.Valid || !classIDs[student.ClassID.String] {
				continue
			}
		}

		row := grading.GradeRow{
			StudentID: g.StudentID,
			SubjectID: g.SubjectID,
			Period:    g.Period,
			Value:     g.Value,
		}
		if subject, ok := repo.db.subjects[g.SubjectID]; ok {
			row.SubjectName = null.StringFrom(subject.Name)
			row.Coefficient = null.IntFrom(subject.Coefficient)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
