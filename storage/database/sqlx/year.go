package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/year"
)

// scopedTables maps entity kinds to their tables; DeleteScoped only ever
// interpolates through this map.
var scopedTables = map[school.Kind]string{
	school.KindGrade:         "grade",
	school.KindAttendance:    "attendance",
	school.KindPayment:       "payment",
	school.KindExpense:       "expense",
	school.KindEvaluation:    "evaluation",
	school.KindStudent:       "student",
	school.KindSubject:       "subject",
	school.KindClass:         "class",
	school.KindStaff:         "staff",
	school.KindTeacher:       "teacher",
	school.KindPromotionRule: "promotion_rule",
}

type yearRepository struct {
	db  *sqlx.DB
	ext sqlx.ExtContext // the DB, or the transaction inside Atomic
}

var _ year.Repository = (*yearRepository)(nil) // interface compliance check

func NewYearRepository(db *sqlx.DB) *yearRepository {
	return &yearRepository{db: db, ext: db}
}

// Atomic runs fn in one transaction. Nested calls reuse the open transaction.
func (repo *yearRepository) Atomic(ctx context.Context, fn func(tx year.Repository) error) error {
	if _, ok := repo.ext.(*sqlx.Tx); ok {
		return fn(repo)
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(&yearRepository{db: repo.db, ext: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rolling back: %v", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// trapNoRowsErr maps psql "no rows" err to notFound
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}

func (repo *yearRepository) CreateYear(ctx context.Context, y year.Year) (year.Year, error) {
	if y.ID == "" {
		y.ID = uuid.New().String()
	}
	_, err := repo.ext.ExecContext(ctx,
		`INSERT INTO academic_year (id, name, start_year, end_year, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		y.ID, y.Name, y.StartYear, y.EndYear, y.Active, y.CreatedAt, y.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// lost a race with a concurrent insert of the same name; same
			// contract as the service-level uniqueness check
			return year.Year{}, core.NewValidationError(year.ErrNameExists,
				core.FieldError{Field: "name", Error: year.ErrNameExists.Error()})
		}
		return year.Year{}, errors.Wrap(err, "inserting academic year")
	}
	return y, nil
}

func (repo *yearRepository) QueryAllYears(ctx context.Context) ([]year.Year, error) {
	var years []year.Year
	err := sqlx.SelectContext(ctx, repo.ext, &years,
		`SELECT * FROM academic_year ORDER BY start_year DESC`)
	return years, errors.Wrap(err, "querying academic years")
}

func (repo *yearRepository) GetYearByID(ctx context.Context, id string) (year.Year, error) {
	var y year.Year
	err := sqlx.GetContext(ctx, repo.ext, &y, `SELECT * FROM academic_year WHERE id = $1`, id)
	if err != nil {
		return year.Year{}, trapNoRowsErr(err, year.ErrNotFound, "getting academic year by id")
	}
	return y, nil
}

func (repo *yearRepository) GetYearByName(ctx context.Context, name string) (year.Year, error) {
	var y year.Year
	err := sqlx.GetContext(ctx, repo.ext, &y, `SELECT * FROM academic_year WHERE name = $1`, name)
	if err != nil {
		return year.Year{}, trapNoRowsErr(err, year.ErrNotFound, "getting academic year by name")
	}
	return y, nil
}

func (repo *yearRepository) GetActiveYear(ctx context.Context) (year.Year, error) {
	var y year.Year
	err := sqlx.GetContext(ctx, repo.ext, &y, `SELECT * FROM academic_year WHERE active`)
	if err != nil {
		return year.Year{}, trapNoRowsErr(err, year.ErrNotFound, "getting active academic year")
	}
	return y, nil
}

func (repo *yearRepository) SetYearActive(ctx context.Context, id string, active bool) error {
	res, err := repo.ext.ExecContext(ctx,
		`UPDATE academic_year SET active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return errors.Wrap(err, "updating academic year active flag")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return year.ErrNotFound
	}
	return nil
}

func (repo *yearRepository) DeleteYearByID(ctx context.Context, id string) error {
	res, err := repo.ext.ExecContext(ctx, `DELETE FROM academic_year WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting academic year")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return year.ErrNotFound
	}
	return nil
}

func (repo *yearRepository) DeleteScoped(ctx context.Context, kind school.Kind, yearID string) (int, error) {
	table, ok := scopedTables[kind]
	if !ok {
		return 0, school.ErrUnknownKind
	}
	res, err := repo.ext.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE academic_year_id = $1`, table), yearID)
	if err != nil {
		return 0, errors.Wrapf(err, "deleting %s rows", table)
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "counting deleted rows")
}

func (repo *yearRepository) GetClassByID(ctx context.Context, id string) (school.Class, error) {
	var c school.Class
	err := sqlx.GetContext(ctx, repo.ext, &c, `SELECT * FROM class WHERE id = $1`, id)
	if err != nil {
		return school.Class{}, trapNoRowsErr(err, year.ErrRecordNotFound, "getting class by id")
	}
	return c, nil
}

func (repo *yearRepository) GetClassByLabel(ctx context.Context, yearID, label string) (school.Class, error) {
	var c school.Class
	err := sqlx.GetContext(ctx, repo.ext, &c,
		`SELECT * FROM class WHERE academic_year_id = $1 AND label = $2`, yearID, label)
	if err != nil {
		return school.Class{}, trapNoRowsErr(err, year.ErrRecordNotFound, "getting class by label")
	}
	return c, nil
}

func (repo *yearRepository) CreateClass(ctx context.Context, c school.Class) (school.Class, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := repo.ext.ExecContext(ctx,
		`INSERT INTO class (id, academic_year_id, label, level, year_label, boarding_fee, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.AcademicYearID, c.Label, c.Level, c.YearLabel, c.BoardingFee, c.CreatedAt, c.UpdatedAt,
	)
	return c, errors.Wrap(err, "inserting class")
}

func (repo *yearRepository) GetSubjectByID(ctx context.Context, id string) (school.Subject, error) {
	var s school.Subject
	err := sqlx.GetContext(ctx, repo.ext, &s, `SELECT * FROM subject WHERE id = $1`, id)
	if err != nil {
		return school.Subject{}, trapNoRowsErr(err, year.ErrRecordNotFound, "getting subject by id")
	}
	return s, nil
}

func (repo *yearRepository) CreateSubject(ctx context.Context, s school.Subject) (school.Subject, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	_, err := repo.ext.ExecContext(ctx,
		`INSERT INTO subject (id, academic_year_id, class_id, teacher_id, name, coefficient, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.AcademicYearID, s.ClassID, s.TeacherID, s.Name, s.Coefficient, s.CreatedAt, s.UpdatedAt,
	)
	return s, errors.Wrap(err, "inserting subject")
}

func (repo *yearRepository) GetTeacherByID(ctx context.Context, id string) (school.Teacher, error) {
	var t school.Teacher
	err := sqlx.GetContext(ctx, repo.ext, &t, `SELECT * FROM teacher WHERE id = $1`, id)
	if err != nil {
		return school.Teacher{}, trapNoRowsErr(err, year.ErrRecordNotFound, "getting teacher by id")
	}
	return t, nil
}

func (repo *yearRepository) CreateTeacher(ctx context.Context, t school.Teacher) (school.Teacher, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	_, err := repo.ext.ExecContext(ctx,
		`INSERT INTO teacher (id, academic_year_id, first_name, last_name, email, phone, speciality, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.AcademicYearID, t.FirstName, t.LastName, t.Email, t.Phone, t.Speciality, t.CreatedAt, t.UpdatedAt,
	)
	return t, errors.Wrap(err, "inserting teacher")
}

func (repo *yearRepository) GetStaffByID(ctx context.Context, id string) (school.Staff, error) {
	var s school.Staff
	err := sqlx.GetContext(ctx, repo.ext, &s, `SELECT * FROM staff WHERE id = $1`, id)
	if err != nil {
		return school.Staff{}, trapNoRowsErr(err, year.ErrRecordNotFound, "getting staff by id")
	}
	return s, nil
}

func (repo *yearRepository) CreateStaff(ctx context.Context, s school.Staff) (school.Staff, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	_, err := repo.ext.ExecContext(ctx,
		`INSERT INTO staff (id, academic_year_id, first_name, last_name, role, email, phone, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.AcademicYearID, s.FirstName, s.LastName, s.Role, s.Email, s.Phone, s.CreatedAt, s.UpdatedAt,
	)
	return s, errors.Wrap(err, "inserting staff")
}

func (repo *yearRepository) GetRuleByID(ctx context.Context, id string) (promotion.Rule, error) {
	var r promotion.Rule
	err := sqlx.GetContext(ctx, repo.ext, &r, `SELECT * FROM promotion_rule WHERE id = $1`, id)
	if err != nil {
		return promotion.Rule{}, trapNoRowsErr(err, year.ErrRecordNotFound, "getting promotion rule by id")
	}
	return r, nil
}

func (repo *yearRepository) RuleExists(ctx context.Context, yearID string, category promotion.Category, minAvg, maxAvg float64) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, repo.ext, &exists,
		`SELECT EXISTS (
			SELECT 1 FROM promotion_rule
			WHERE academic_year_id = $1 AND category = $2 AND min_average = $3 AND max_average = $4
		 )`,
		yearID, category, minAvg, maxAvg,
	)
	return exists, errors.Wrap(err, "checking for duplicate promotion rule")
}

func (repo *yearRepository) CreateRule(ctx context.Context, r promotion.Rule) (promotion.Rule, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	_, err := repo.ext.ExecContext(ctx,
		`INSERT INTO promotion_rule
			(id, academic_year_id, category, category_label, min_average, max_average,
			 min_absences, max_absences, outcome, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID, r.AcademicYearID, r.Category, r.CategoryLabel, r.MinAverage, r.MaxAverage,
		r.MinAbsences, r.MaxAbsences, r.Outcome, r.CreatedAt, r.UpdatedAt,
	)
	return r, errors.Wrap(err, "inserting promotion rule")
}
