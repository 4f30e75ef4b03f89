package promotion

import (
	"strings"
	"time"

	"github.com/trezcool/shule/core"
)

// Category is the canonical form of a free-text student category.
// Operator data spells the same category several ways ("Redoublant",
// "Redoublant(e)", "redoublant "); canonicalizing on write and on match keeps
// the classification table from silently splitting.
type Category string

// Well-known categories. Free labels outside this set are allowed; they
// canonicalize through NewCategory the same way.
const (
	CategoryRepeating    Category = "redoublant"
	CategoryNonRepeating Category = "non-redoublant"
)

func NewCategory(label string) Category {
	s := core.FoldString(label)
	s = strings.ReplaceAll(s, "(e)", "")
	s = strings.Join(strings.Fields(s), "-")
	return Category(s)
}

// Outcome is the label a matching rule assigns, e.g. "Admis", "Redouble",
// "Exclu". Kept as entered for display.
type Outcome string

// Rule is one band of the classification table: students of Category whose
// average falls in [MinAverage, MaxAverage) and whose absence count falls in
// [MinAbsences, MaxAbsences] get Outcome. The table is small and re-read on
// every query; no caching.
type Rule struct {
	ID             string    `db:"id" json:"id"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	Category       Category  `db:"category" json:"category"`
	CategoryLabel  string    `db:"category_label" json:"category_label"` // as entered
	MinAverage     float64   `db:"min_average" json:"min_average"`
	MaxAverage     float64   `db:"max_average" json:"max_average"` // exclusive
	MinAbsences    int       `db:"min_absences" json:"min_absences"`
	MaxAbsences    int       `db:"max_absences" json:"max_absences"` // inclusive
	Outcome        Outcome   `db:"outcome" json:"outcome"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"` // UTC
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"` // UTC
}

func (r Rule) Matches(average float64, absences int) bool {
	return r.MinAverage <= average && average < r.MaxAverage &&
		r.MinAbsences <= absences && absences <= r.MaxAbsences
}

type NewRule struct {
	AcademicYearID string  `json:"academic_year_id" validate:"required"`
	Category       string  `json:"category" validate:"required"`
	MinAverage     float64 `json:"min_average" validate:"gte=0"`
	MaxAverage     float64 `json:"max_average" validate:"gtfield=MinAverage"`
	MinAbsences    int     `json:"min_absences" validate:"gte=0"`
	MaxAbsences    int     `json:"max_absences" validate:"gtfield=MinAbsences"`
	Outcome        string  `json:"outcome" validate:"required"`
}

func (nr *NewRule) Validate() error {
	nr.AcademicYearID = core.CleanString(nr.AcademicYearID)
	nr.Category = core.CleanString(nr.Category)
	nr.Outcome = core.CleanString(nr.Outcome)
	return core.Validate.Struct(nr)
}

// Result is what ComputeOutcome reports for one student. Graded is false
// when the student has no grades at all; the 0 average then is a default,
// not a computed value.
type Result struct {
	StudentID string  `json:"student_id"`
	Average   float64 `json:"average"`
	Graded    bool    `json:"graded"`
	Absences  int     `json:"absences"`
	Outcome   Outcome `json:"outcome"`
	RuleID    string  `json:"rule_id"`
}
