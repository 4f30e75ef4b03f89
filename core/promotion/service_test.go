package promotion_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core/grading"
	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/school"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	testutil "github.com/trezcool/shule/tests"
)

func TestMain(m *testing.M) {
	testutil.InitValidators()
	m.Run()
}

func newSvc() (*promotion.Service, *inmemdb.DB) {
	db := inmemdb.Open()
	gradingSvc := grading.NewService(inmemdb.NewGradingRepository(db))
	return promotion.NewService(inmemdb.NewPromotionRepository(db), gradingSvc), db
}

func seedRule(db *inmemdb.DB, yearID string, cat promotion.Category, minAvg, maxAvg float64, minAbs, maxAbs int, outcome string) promotion.Rule {
	now := time.Now().UTC()
	return db.SeedRule(promotion.Rule{
		AcademicYearID: yearID,
		Category:       cat,
		MinAverage:     minAvg, MaxAverage: maxAvg,
		MinAbsences: minAbs, MaxAbsences: maxAbs,
		Outcome:   promotion.Outcome(outcome),
		CreatedAt: now, UpdatedAt: now,
	})
}

func TestNewCategory(t *testing.T) {
	tests := []struct {
		label string
		want  promotion.Category
	}{
		{"Redoublant", promotion.CategoryRepeating},
		{"redoublant(e)", promotion.CategoryRepeating},
		{"  Redoublant(e)  ", promotion.CategoryRepeating},
		{"Non Redoublant", promotion.CategoryNonRepeating},
		{"NON-REDOUBLANT", promotion.CategoryNonRepeating},
		{"Nouveau  Venu", promotion.Category("nouveau-venu")},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, promotion.NewCategory(tt.label))
		})
	}
}

func TestService_CreateRule(t *testing.T) {
	svc, db := newSvc()
	ctx := context.Background()
	yr := db.SeedYear("2024-2025", true)

	t.Run("canonicalizes the category and keeps the label", func(t *testing.T) {
		rule, err := svc.CreateRule(ctx, promotion.NewRule{
			AcademicYearID: yr.ID,
			Category:       "Redoublant(e)",
			MinAverage:     10, MaxAverage: 20.01,
			MinAbsences: 0, MaxAbsences: 30,
			Outcome: "Admis",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, rule.ID)
		assert.Equal(t, promotion.CategoryRepeating, rule.Category)
		assert.Equal(t, "Redoublant(e)", rule.CategoryLabel)
		assert.Equal(t, promotion.Outcome("Admis"), rule.Outcome)
	})

	t.Run("rejects inverted bands", func(t *testing.T) {
		_, err := svc.CreateRule(ctx, promotion.NewRule{
			AcademicYearID: yr.ID,
			Category:       "Redoublant",
			MinAverage:     10, MaxAverage: 8,
			MinAbsences: 0, MaxAbsences: 30,
			Outcome: "Admis",
		})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		_, err := svc.CreateRule(ctx, promotion.NewRule{})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
	})
}

func TestService_ResolveOutcome(t *testing.T) {
	svc, db := newSvc()
	ctx := context.Background()
	yr := db.SeedYear("2024-2025", true)

	seedRule(db, yr.ID, promotion.CategoryNonRepeating, 0, 8, 0, 999, "Exclu")
	seedRule(db, yr.ID, promotion.CategoryNonRepeating, 8, 10, 0, 10, "Redouble")
	seedRule(db, yr.ID, promotion.CategoryNonRepeating, 8, 10, 11, 999, "Exclu")
	seedRule(db, yr.ID, promotion.CategoryNonRepeating, 10, 20.01, 0, 999, "Admis")

	t.Run("absence band splits the result", func(t *testing.T) {
		rule, err := svc.ResolveOutcome(ctx, yr.ID, promotion.CategoryNonRepeating, 9.0, 5)
		require.NoError(t, err)
		assert.Equal(t, promotion.Outcome("Redouble"), rule.Outcome)

		rule, err = svc.ResolveOutcome(ctx, yr.ID, promotion.CategoryNonRepeating, 9.0, 12)
		require.NoError(t, err)
		assert.Equal(t, promotion.Outcome("Exclu"), rule.Outcome)
	})

	t.Run("max average is exclusive", func(t *testing.T) {
		rule, err := svc.ResolveOutcome(ctx, yr.ID, promotion.CategoryNonRepeating, 10.0, 0)
		require.NoError(t, err)
		assert.Equal(t, promotion.Outcome("Admis"), rule.Outcome, "10.0 belongs to the upper band")

		rule, err = svc.ResolveOutcome(ctx, yr.ID, promotion.CategoryNonRepeating, 20.0, 0)
		require.NoError(t, err)
		assert.Equal(t, promotion.Outcome("Admis"), rule.Outcome, "a perfect score must still classify")
	})

	t.Run("no rule matched", func(t *testing.T) {
		_, err := svc.ResolveOutcome(ctx, yr.ID, promotion.CategoryRepeating, 9.0, 5)
		assert.Equal(t, promotion.ErrNoRuleMatched, err)
	})

	t.Run("overlapping bands fail loud", func(t *testing.T) {
		overlap := seedRule(db, yr.ID, promotion.CategoryNonRepeating, 5, 12, 0, 999, "Admis")
		_, err := svc.ResolveOutcome(ctx, yr.ID, promotion.CategoryNonRepeating, 9.0, 5)
		assert.Equal(t, promotion.ErrAmbiguousRuleMatch, err)
		db.DeleteRule(overlap.ID)
	})

	t.Run("missing year scope", func(t *testing.T) {
		_, err := svc.ResolveOutcome(ctx, "", promotion.CategoryNonRepeating, 9.0, 5)
		assert.Equal(t, school.ErrMissingScope, err)
	})
}

func TestService_ComputeOutcome(t *testing.T) {
	svc, db := newSvc()
	ctx := context.Background()
	now := time.Now().UTC()

	yr := db.SeedYear("2024-2025", true)
	class := db.SeedClass(school.Class{
		AcademicYearID: yr.ID, Label: "6A", YearLabel: yr.Name,
		CreatedAt: now, UpdatedAt: now,
	})
	stu := db.SeedStudent(school.Student{
		AcademicYearID: yr.ID,
		FirstName:      "Moussa", LastName: "Traore",
		Category:  "Non-Redoublant",
		ClassID:   null.StringFrom(class.ID),
		CreatedAt: now, UpdatedAt: now,
	})
	math := db.SeedSubject(school.Subject{
		AcademicYearID: yr.ID, ClassID: class.ID, Name: "Mathematics", Coefficient: 2,
		CreatedAt: now, UpdatedAt: now,
	})
	hist := db.SeedSubject(school.Subject{
		AcademicYearID: yr.ID, ClassID: class.ID, Name: "History", Coefficient: 1,
		CreatedAt: now, UpdatedAt: now,
	})
	db.SeedGrade(school.Grade{
		AcademicYearID: yr.ID, StudentID: stu.ID, SubjectID: math.ID,
		Period: "Premier Trimestre", Value: 10,
		CreatedAt: now, UpdatedAt: now,
	})
	db.SeedGrade(school.Grade{
		AcademicYearID: yr.ID, StudentID: stu.ID, SubjectID: hist.ID,
		Period: "Premier Trimestre", Value: 16,
		CreatedAt: now, UpdatedAt: now,
	})
	for i := 0; i < 3; i++ {
		db.SeedAttendance(school.Attendance{
			AcademicYearID: yr.ID, StudentID: stu.ID,
			Status: school.AttendanceAbsent, Date: now.AddDate(0, 0, -i),
			CreatedAt: now, UpdatedAt: now,
		})
	}
	db.SeedAttendance(school.Attendance{
		AcademicYearID: yr.ID, StudentID: stu.ID,
		Status: school.AttendanceLate, Date: now,
		CreatedAt: now, UpdatedAt: now,
	})

	seedRule(db, yr.ID, promotion.CategoryNonRepeating, 10, 20.01, 0, 30, "Admis")
	seedRule(db, yr.ID, promotion.CategoryNonRepeating, 0, 10, 0, 30, "Redouble")

	res, err := svc.ComputeOutcome(ctx, stu.ID, yr.ID)
	require.NoError(t, err)
	assert.Equal(t, stu.ID, res.StudentID)
	assert.True(t, res.Graded)
	assert.InDelta(t, 12.0, res.Average, 1e-9) // (10*2 + 16*1) / 3
	assert.Equal(t, 3, res.Absences, "late entries are not absences")
	assert.Equal(t, promotion.Outcome("Admis"), res.Outcome)
	assert.NotEmpty(t, res.RuleID)

	t.Run("unknown student", func(t *testing.T) {
		_, err := svc.ComputeOutcome(ctx, "nope", yr.ID)
		assert.Equal(t, promotion.ErrStudentNotFound, err)
	})

	t.Run("student of another year is out of scope", func(t *testing.T) {
		other := db.SeedYear("2023-2024", false)
		_, err := svc.ComputeOutcome(ctx, stu.ID, other.ID)
		assert.Equal(t, promotion.ErrStudentNotFound, err)
	})

	t.Run("ungraded student still classifies on the default average", func(t *testing.T) {
		blank := db.SeedStudent(school.Student{
			AcademicYearID: yr.ID,
			FirstName:      "Awa", LastName: "Diallo",
			Category:  "Non-Redoublant",
			CreatedAt: now, UpdatedAt: now,
		})
		res, err := svc.ComputeOutcome(ctx, blank.ID, yr.ID)
		require.NoError(t, err)
		assert.False(t, res.Graded)
		assert.Zero(t, res.Average)
		assert.Equal(t, promotion.Outcome("Redouble"), res.Outcome)
	})

	t.Run("missing year scope", func(t *testing.T) {
		_, err := svc.ComputeOutcome(ctx, stu.ID, "")
		assert.Equal(t, school.ErrMissingScope, err)
	})
}
