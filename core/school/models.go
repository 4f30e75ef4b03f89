package school

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// Attendance statuses
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
	AttendanceExcused = "excused"
)

// Grade values are marked on a 0-20 scale.
const (
	GradeMinValue = 0
	GradeMaxValue = 20
)

// Every record below belongs to exactly one academic year and is deleted
// with it. Plain per-record CRUD lives in the (separate) admin API; only the
// year service is allowed to bulk-delete or bulk-duplicate across years.

type Student struct {
	ID             string      `db:"id" json:"id"`
	AcademicYearID string      `db:"academic_year_id" json:"academic_year_id"`
	FirstName      string      `db:"first_name" json:"first_name"`
	LastName       string      `db:"last_name" json:"last_name"`
	Gender         string      `db:"gender" json:"gender"`
	BirthDate      null.Time   `db:"birth_date" json:"birth_date"`
	Category       string      `db:"category" json:"category"` // e.g. "repeating" / "non-repeating"
	ClassID        null.String `db:"class_id" json:"class_id"`
	GuardianName   string      `db:"guardian_name" json:"guardian_name"`
	GuardianPhone  string      `db:"guardian_phone" json:"guardian_phone"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"` // UTC
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"` // UTC
}

type Teacher struct {
	ID             string    `db:"id" json:"id"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Email          string    `db:"email" json:"email"`
	Phone          string    `db:"phone" json:"phone"`
	Speciality     string    `db:"speciality" json:"speciality"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type Class struct {
	ID             string          `db:"id" json:"id"`
	AcademicYearID string          `db:"academic_year_id" json:"academic_year_id"`
	Label          string          `db:"label" json:"label"`
	Level          string          `db:"level" json:"level"`
	YearLabel      string          `db:"year_label" json:"year_label"` // display name of the owning year
	BoardingFee    decimal.Decimal `db:"boarding_fee" json:"boarding_fee"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

type Subject struct {
	ID             string      `db:"id" json:"id"`
	AcademicYearID string      `db:"academic_year_id" json:"academic_year_id"`
	ClassID        string      `db:"class_id" json:"class_id"`
	TeacherID      null.String `db:"teacher_id" json:"teacher_id"`
	Name           string      `db:"name" json:"name"`
	Coefficient    int         `db:"coefficient" json:"coefficient"` // averaging weight, >= 1
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

type Grade struct {
	ID             string    `db:"id" json:"id"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	SubjectID      string    `db:"subject_id" json:"subject_id"`
	Period         string    `db:"period" json:"period"` // free-text evaluation period label
	Value          float64   `db:"value" json:"value"`   // 0-20
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type Payment struct {
	ID             string          `db:"id" json:"id"`
	AcademicYearID string          `db:"academic_year_id" json:"academic_year_id"`
	StudentID      string          `db:"student_id" json:"student_id"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	Method         string          `db:"method" json:"method"`
	Reference      string          `db:"reference" json:"reference"`
	PaidAt         time.Time       `db:"paid_at" json:"paid_at"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

type Attendance struct {
	ID             string    `db:"id" json:"id"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	Date           time.Time `db:"date" json:"date"`
	Status         string    `db:"status" json:"status"`
	Reason         string    `db:"reason" json:"reason"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type Evaluation struct {
	ID             string    `db:"id" json:"id"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	Label          string    `db:"label" json:"label"` // e.g. "Premier Trimestre"
	StartsAt       null.Time `db:"starts_at" json:"starts_at"`
	EndsAt         null.Time `db:"ends_at" json:"ends_at"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type Staff struct {
	ID             string    `db:"id" json:"id"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Role           string    `db:"role" json:"role"`
	Email          string    `db:"email" json:"email"`
	Phone          string    `db:"phone" json:"phone"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type Expense struct {
	ID             string          `db:"id" json:"id"`
	AcademicYearID string          `db:"academic_year_id" json:"academic_year_id"`
	Label          string          `db:"label" json:"label"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	SpentAt        time.Time       `db:"spent_at" json:"spent_at"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}
