package grading

import "github.com/volatiletech/null/v8"

type (
	// Filter selects the grades an aggregation runs over. YearID is
	// mandatory; StudentID and ClassIDs narrow the selection down.
	Filter struct {
		YearID    string
		StudentID string
		ClassIDs  []string
	}

	// GradeRow is a Grade joined to its Subject. The subject side is
	// nullable: operator data does contain grades whose subject has been
	// deleted since.
	GradeRow struct {
		StudentID   string      `db:"student_id"`
		SubjectID   string      `db:"subject_id"`
		SubjectName null.String `db:"subject_name"`
		Coefficient null.Int    `db:"coefficient"`
		Period      string      `db:"period"`
		Value       float64     `db:"value"`
	}

	// PassFailStats classifies students on their weighted average:
	// >= 10 out of 20 is a pass.
	PassFailStats struct {
		Success       int     `json:"success"`
		Failure       int     `json:"failure"`
		SuccessRate   float64 `json:"success_rate"` // percentage, 2 decimals
		TotalStudents int     `json:"total_students"`
	}

	// SubjectStat is the per-subject descriptive statistic. Average is the
	// plain arithmetic mean of raw grade values; coefficients deliberately
	// do not weigh in here, unlike the per-student average.
	SubjectStat struct {
		SubjectID string  `json:"subject_id"`
		Name      string  `json:"name"`
		Average   float64 `json:"average"` // 2 decimals
		Min       float64 `json:"min"`
		Max       float64 `json:"max"`
		Count     int     `json:"count"`
	}
)
