package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/year"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
)

var initOnce sync.Once

// Logger is a no-op core.Logger for tests.
type Logger struct{}

var _ core.Logger = (*Logger)(nil)

func (Logger) Enable(bool)                        {}
func (Logger) Debug(string, ...interface{})       {}
func (Logger) Info(string, ...interface{})        {}
func (Logger) Warning(string, ...interface{})     {}
func (Logger) Error(string, ...interface{})       {}
func (Logger) Fatal(msg string, _ ...interface{}) { panic(msg) }

// InitValidators wires the app validators once for the whole test binary.
func InitValidators() {
	initOnce.Do(func() {
		core.InitValidators()
		year.InitValidators()
	})
}

// CreateYear creates an academic year through the service, failing the test
// on error.
func CreateYear(t *testing.T, svc *year.Service, name string) year.Year {
	t.Helper()
	y, err := svc.Create(context.Background(), year.NewYear{Name: name})
	if err != nil {
		t.Fatalf("CreateYear(%s): %v", name, err)
	}
	return y
}

// SeedScopedRows populates one row of every scoped entity kind in the year
// and returns the seeded student.
func SeedScopedRows(t *testing.T, db *inmemdb.DB, yearID string) school.Student {
	t.Helper()
	now := time.Now().UTC()

	class := db.SeedClass(school.Class{
		AcademicYearID: yearID,
		Label:          "6A",
		Level:          "6",
		BoardingFee:    decimal.NewFromInt(150),
		CreatedAt:      now, UpdatedAt: now,
	})
	teacher := db.SeedTeacher(school.Teacher{
		AcademicYearID: yearID,
		FirstName:      "Awa", LastName: "Diallo",
		CreatedAt: now, UpdatedAt: now,
	})
	subject := db.SeedSubject(school.Subject{
		AcademicYearID: yearID,
		ClassID:        class.ID,
		TeacherID:      null.StringFrom(teacher.ID),
		Name:           "Mathematics",
		Coefficient:    2,
		CreatedAt:      now, UpdatedAt: now,
	})
	student := db.SeedStudent(school.Student{
		AcademicYearID: yearID,
		FirstName:      "Moussa", LastName: "Traore",
		Category:  "Non-Redoublant",
		ClassID:   null.StringFrom(class.ID),
		CreatedAt: now, UpdatedAt: now,
	})
	db.SeedGrade(school.Grade{
		AcademicYearID: yearID,
		StudentID:      student.ID,
		SubjectID:      subject.ID,
		Period:         "Premier Trimestre",
		Value:          12,
		CreatedAt:      now, UpdatedAt: now,
	})
	db.SeedAttendance(school.Attendance{
		AcademicYearID: yearID,
		StudentID:      student.ID,
		Date:           now,
		Status:         school.AttendanceAbsent,
		CreatedAt:      now, UpdatedAt: now,
	})
	db.SeedPayment(school.Payment{
		AcademicYearID: yearID,
		StudentID:      student.ID,
		Amount:         decimal.NewFromInt(100),
		PaidAt:         now,
		CreatedAt:      now, UpdatedAt: now,
	})
	db.SeedEvaluation(school.Evaluation{
		AcademicYearID: yearID,
		Label:          "Premier Trimestre",
		CreatedAt:      now, UpdatedAt: now,
	})
	db.SeedStaff(school.Staff{
		AcademicYearID: yearID,
		FirstName:      "Fatou", LastName: "Ndiaye",
		Role:      "secretary",
		CreatedAt: now, UpdatedAt: now,
	})
	db.SeedExpense(school.Expense{
		AcademicYearID: yearID,
		Label:          "chalk",
		Amount:         decimal.NewFromInt(10),
		SpentAt:        now,
		CreatedAt:      now, UpdatedAt: now,
	})
	db.SeedRule(promotion.Rule{
		AcademicYearID: yearID,
		Category:       promotion.CategoryNonRepeating,
		CategoryLabel:  "Non-Redoublant",
		MinAverage:     10, MaxAverage: 20.01,
		MinAbsences: 0, MaxAbsences: 30,
		Outcome:   "Admis",
		CreatedAt: now, UpdatedAt: now,
	})
	return student
}
