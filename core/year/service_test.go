package year_test

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/year"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	testutil "github.com/trezcool/shule/tests"
)

func TestMain(m *testing.M) {
	testutil.InitValidators()
	m.Run()
}

func newSvc() (*year.Service, *inmemdb.DB) {
	db := inmemdb.Open()
	return year.NewService(inmemdb.NewYearRepository(db)), db
}

func assertValidationErr(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected a validation error, got nil")
	}
	var vErr *core.ValidationError
	var fldErrs validator.ValidationErrors
	if !errors.As(err, &vErr) && !errors.As(err, &fldErrs) {
		t.Fatalf("unexpected error type: %v", err)
	}
}

func TestService_Create(t *testing.T) {
	svc, _ := newSvc()
	ctx := context.Background()

	tests := []struct {
		name     string
		yearName string
		wantErr  bool
	}{
		{"valid name", "2023-2024", false},
		{"another valid name", "2024-2025", false},
		{"bad format", "2023/2024", true},
		{"bad format: words", "twenty-three", true},
		{"non consecutive", "2023-2025", true},
		{"same year twice", "2023-2023", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, err := svc.Create(ctx, year.NewYear{Name: tt.yearName})
			if tt.wantErr {
				assertValidationErr(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, y.ID)
			assert.Equal(t, tt.yearName, y.Name)
			assert.False(t, y.Active, "a new year must not be active by default")
		})
	}

	t.Run("duplicate name", func(t *testing.T) {
		_, err := svc.Create(ctx, year.NewYear{Name: "2023-2024"})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "want ValidationError, got %v", err)
		assert.Equal(t, "name", vErr.Fields[0].Field)
	})

	t.Run("parsed bounds", func(t *testing.T) {
		y, err := svc.Create(ctx, year.NewYear{Name: "2025-2026"})
		require.NoError(t, err)
		assert.Equal(t, 2025, y.StartYear)
		assert.Equal(t, 2026, y.EndYear)
	})
}

func TestService_Activate(t *testing.T) {
	svc, _ := newSvc()
	ctx := context.Background()

	y1 := testutil.CreateYear(t, svc, "2023-2024")
	y2 := testutil.CreateYear(t, svc, "2024-2025")

	_, err := svc.Active(ctx)
	assert.Equal(t, year.ErrNotFound, err, "no year should be active yet")

	got, err := svc.Activate(ctx, y1.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)

	// flipping to another year deactivates the first inside the same call
	got, err = svc.Activate(ctx, y2.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, y2.ID, active.ID)

	y1Again, err := svc.GetByID(ctx, y1.ID)
	require.NoError(t, err)
	assert.False(t, y1Again.Active, "only one year may be active at a time")

	t.Run("unknown year", func(t *testing.T) {
		_, err := svc.Activate(ctx, "nope")
		assert.Equal(t, year.ErrNotFound, pkgerrors.Cause(err))
	})
	t.Run("missing scope", func(t *testing.T) {
		_, err := svc.Activate(ctx, "")
		assert.Equal(t, school.ErrMissingScope, err)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the full dependency closure", func(t *testing.T) {
		svc, db := newSvc()
		y := testutil.CreateYear(t, svc, "2023-2024")
		keep := testutil.CreateYear(t, svc, "2024-2025")
		testutil.SeedScopedRows(t, db, y.ID)
		keptStudent := testutil.SeedScopedRows(t, db, keep.ID)

		report, err := svc.Delete(ctx, y.ID)
		require.NoError(t, err)

		// one row of each kind was seeded
		for _, kind := range school.DeletionOrder() {
			assert.Equalf(t, 1, report[kind], "expected one deleted %s row", kind)
		}
		assert.Equal(t, len(school.DeletionOrder()), report.Total())

		_, err = svc.GetByID(ctx, y.ID)
		assert.Equal(t, year.ErrNotFound, err)

		// the other year is untouched
		repo := inmemdb.NewPromotionRepository(db)
		_, err = repo.GetStudent(ctx, keptStudent.ID, keep.ID)
		assert.NoError(t, err)
	})

	t.Run("unknown year", func(t *testing.T) {
		svc, _ := newSvc()
		_, err := svc.Delete(ctx, "nope")
		assert.Equal(t, year.ErrNotFound, err)
	})

	t.Run("missing scope", func(t *testing.T) {
		svc, _ := newSvc()
		_, err := svc.Delete(ctx, "")
		assert.Equal(t, school.ErrMissingScope, err)
	})

	t.Run("rolls back fully on a late failure", func(t *testing.T) {
		svc, db := newSvc()
		y := testutil.CreateYear(t, svc, "2023-2024")
		student := testutil.SeedScopedRows(t, db, y.ID)

		// fail on the very last deletion step
		boom := errors.New("connection reset")
		db.FailOn("DeleteYearByID", boom)

		_, err := svc.Delete(ctx, y.ID)
		require.Error(t, err)
		assert.Equal(t, boom, pkgerrors.Cause(err))

		// nothing was removed: the earlier steps were rolled back
		got, err := svc.GetByID(ctx, y.ID)
		require.NoError(t, err)
		assert.Equal(t, y.ID, got.ID)

		repo := inmemdb.NewPromotionRepository(db)
		_, err = repo.GetStudent(ctx, student.ID, y.ID)
		assert.NoError(t, err, "student rows must survive the rollback")
		absences, err := repo.CountAbsences(ctx, student.ID, y.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, absences, "attendance rows must survive the rollback")
	})
}
