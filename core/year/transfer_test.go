package year_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/year"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	testutil "github.com/trezcool/shule/tests"
)

func TestService_Transfer_Classes(t *testing.T) {
	svc, db := newSvc()
	ctx := context.Background()
	now := time.Now().UTC()

	src := testutil.CreateYear(t, svc, "2023-2024")
	dest := testutil.CreateYear(t, svc, "2024-2025")

	class := db.SeedClass(school.Class{
		AcademicYearID: src.ID,
		Label:          "6A",
		Level:          "6",
		YearLabel:      src.Name,
		BoardingFee:    decimal.NewFromInt(150),
		CreatedAt:      now, UpdatedAt: now,
	})

	report, err := svc.Transfer(ctx, year.TransferRequest{
		EntityType:        "class",
		IDs:               []string{class.ID},
		DestinationYearID: dest.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Transferred)

	repo := inmemdb.NewYearRepository(db)
	copied, err := repo.GetClassByLabel(ctx, dest.ID, "6A")
	require.NoError(t, err)
	assert.NotEqual(t, class.ID, copied.ID, "the copy must get a new identity")
	assert.Equal(t, dest.Name, copied.YearLabel, "the year display field is rewritten")
	assert.True(t, class.BoardingFee.Equal(copied.BoardingFee))

	// source untouched
	orig, err := repo.GetClassByID(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, src.ID, orig.AcademicYearID)
	assert.Equal(t, src.Name, orig.YearLabel)
}

func TestService_Transfer_Subjects(t *testing.T) {
	svc, db := newSvc()
	ctx := context.Background()
	now := time.Now().UTC()

	src := testutil.CreateYear(t, svc, "2023-2024")
	dest := testutil.CreateYear(t, svc, "2024-2025")

	teacher := db.SeedTeacher(school.Teacher{
		AcademicYearID: src.ID, FirstName: "Awa", LastName: "Diallo",
		CreatedAt: now, UpdatedAt: now,
	})
	class := db.SeedClass(school.Class{
		AcademicYearID: src.ID, Label: "6A", Level: "6", YearLabel: src.Name,
		CreatedAt: now, UpdatedAt: now,
	})
	subject := db.SeedSubject(school.Subject{
		AcademicYearID: src.ID,
		ClassID:        class.ID,
		TeacherID:      null.StringFrom(teacher.ID),
		Name:           "Mathematics",
		Coefficient:    4,
		CreatedAt:      now, UpdatedAt: now,
	})

	t.Run("auto-creates the destination class and drops the teacher", func(t *testing.T) {
		report, err := svc.Transfer(ctx, year.TransferRequest{
			EntityType:        "subject",
			IDs:               []string{subject.ID},
			DestinationYearID: dest.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Transferred)
		assert.Equal(t, 1, report.ClassesCreated)

		repo := inmemdb.NewYearRepository(db)
		destClass, err := repo.GetClassByLabel(ctx, dest.ID, "6A")
		require.NoError(t, err)
		assert.Equal(t, dest.Name, destClass.YearLabel)

		subjects := db.SubjectsByYear(dest.ID)
		require.Len(t, subjects, 1)
		assert.Equal(t, "Mathematics", subjects[0].Name)
		assert.Equal(t, 4, subjects[0].Coefficient)
		assert.Equal(t, destClass.ID, subjects[0].ClassID)
		assert.False(t, subjects[0].TeacherID.Valid, "teacher assignments are not carried over")
	})

	t.Run("reuses an existing same-named class", func(t *testing.T) {
		subject2 := db.SeedSubject(school.Subject{
			AcademicYearID: src.ID,
			ClassID:        class.ID,
			Name:           "History",
			Coefficient:    2,
			CreatedAt:      now, UpdatedAt: now,
		})
		report, err := svc.Transfer(ctx, year.TransferRequest{
			EntityType:        "subject",
			IDs:               []string{subject2.ID},
			DestinationYearID: dest.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Transferred)
		assert.Equal(t, 0, report.ClassesCreated, "class 6A already exists in the destination")
	})
}

func TestService_Transfer_Rules(t *testing.T) {
	svc, db := newSvc()
	ctx := context.Background()
	now := time.Now().UTC()

	src := testutil.CreateYear(t, svc, "2023-2024")
	dest := testutil.CreateYear(t, svc, "2024-2025")

	r1 := db.SeedRule(promotion.Rule{
		AcademicYearID: src.ID,
		Category:       promotion.CategoryNonRepeating,
		MinAverage:     0, MaxAverage: 8,
		MinAbsences: 0, MaxAbsences: 999,
		Outcome:   "Exclu",
		CreatedAt: now, UpdatedAt: now,
	})
	r2 := db.SeedRule(promotion.Rule{
		AcademicYearID: src.ID,
		Category:       promotion.CategoryNonRepeating,
		MinAverage:     8, MaxAverage: 10,
		MinAbsences: 0, MaxAbsences: 10,
		Outcome:   "Redouble",
		CreatedAt: now, UpdatedAt: now,
	})

	req := year.TransferRequest{
		EntityType:        "promotion_rule",
		IDs:               []string{r1.ID, r2.ID},
		DestinationYearID: dest.ID,
	}

	report, err := svc.Transfer(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Transferred)
	assert.Equal(t, 0, report.Skipped)

	// transferring again is a no-op: identical bands are skipped
	report, err = svc.Transfer(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Transferred)
	assert.Equal(t, 2, report.Skipped)

	repo := inmemdb.NewPromotionRepository(db)
	rules, err := repo.QueryRules(ctx, dest.ID)
	require.NoError(t, err)
	assert.Len(t, rules, 2, "the destination must hold exactly one copy of each band")
}

func TestService_Transfer_Validation(t *testing.T) {
	svc, db := newSvc()
	ctx := context.Background()

	dest := testutil.CreateYear(t, svc, "2024-2025")

	t.Run("unknown entity type", func(t *testing.T) {
		_, err := svc.Transfer(ctx, year.TransferRequest{
			EntityType:        "classes",
			IDs:               []string{"x"},
			DestinationYearID: dest.ID,
		})
		assertValidationErr(t, err)
	})

	t.Run("non transferable entity type", func(t *testing.T) {
		_, err := svc.Transfer(ctx, year.TransferRequest{
			EntityType:        "grade",
			IDs:               []string{"x"},
			DestinationYearID: dest.ID,
		})
		assertValidationErr(t, err)
	})

	t.Run("empty ids", func(t *testing.T) {
		_, err := svc.Transfer(ctx, year.TransferRequest{
			EntityType:        "class",
			DestinationYearID: dest.ID,
		})
		assertValidationErr(t, err)
	})

	t.Run("unknown destination year", func(t *testing.T) {
		_, err := svc.Transfer(ctx, year.TransferRequest{
			EntityType:        "class",
			IDs:               []string{"x"},
			DestinationYearID: "nope",
		})
		assert.Equal(t, year.ErrNotFound, err)
	})

	t.Run("unknown source id rolls everything back", func(t *testing.T) {
		now := time.Now().UTC()
		class := db.SeedClass(school.Class{
			AcademicYearID: dest.ID, Label: "3B", YearLabel: dest.Name,
			CreatedAt: now, UpdatedAt: now,
		})
		_, err := svc.Transfer(ctx, year.TransferRequest{
			EntityType:        "class",
			IDs:               []string{class.ID, "missing"},
			DestinationYearID: dest.ID,
		})
		require.Error(t, err)

		repo := inmemdb.NewYearRepository(db)
		_, err = repo.GetClassByLabel(ctx, dest.ID, "3B")
		assert.NoError(t, err, "pre-existing rows stay")
	})
}
