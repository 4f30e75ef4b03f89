package grading

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

var errStudentIDRequired = errors.New("student id is required")

type (
	Repository interface {
		// QueryGrades returns all grades matching the filter, each joined to
		// its subject when the subject still exists.
		QueryGrades(ctx context.Context, f Filter) ([]GradeRow, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// WeightedAverage computes Σ(value × coefficient) / Σ(coefficient) over the
// student's grades in the year, optionally restricted to evaluation periods.
// graded is false when no grade matched; the 0 average returned in that case
// is NOT distinguishable from a genuine all-zero average on its own, so
// callers must check graded.
func (svc *Service) WeightedAverage(ctx context.Context, studentID, yearID string, periods ...string) (avg float64, graded bool, err error) {
	if yearID == "" {
		return 0, false, school.ErrMissingScope
	}
	if studentID == "" {
		return 0, false, core.NewValidationError(errStudentIDRequired,
			core.FieldError{Field: "student_id", Error: errStudentIDRequired.Error()})
	}

	rows, err := svc.repo.QueryGrades(ctx, Filter{YearID: yearID, StudentID: studentID})
	if err != nil {
		return 0, false, err
	}
	avg, graded = weightedAverage(filterPeriods(rows, periods))
	return avg, graded, nil
}

// ClassPassFailStats groups the scoped grades by student and classifies each
// on their weighted average.
func (svc *Service) ClassPassFailStats(ctx context.Context, yearID string, scope Filter) (PassFailStats, error) {
	if yearID == "" {
		return PassFailStats{}, school.ErrMissingScope
	}
	scope.YearID = yearID

	rows, err := svc.repo.QueryGrades(ctx, scope)
	if err != nil {
		return PassFailStats{}, err
	}

	byStudent := make(map[string][]GradeRow)
	for _, row := range rows {
		byStudent[row.StudentID] = append(byStudent[row.StudentID], row)
	}

	var stats PassFailStats
	for _, studentRows := range byStudent {
		avg, graded := weightedAverage(studentRows)
		if !graded {
			continue
		}
		if avg >= school.GradeMaxValue/2 {
			stats.Success++
		} else {
			stats.Failure++
		}
	}
	stats.TotalStudents = stats.Success + stats.Failure
	if stats.TotalStudents > 0 {
		stats.SuccessRate = round2(float64(stats.Success) / float64(stats.TotalStudents) * 100)
	}
	return stats, nil
}

// SubjectStatistics returns per-subject mean/min/max/count over the scoped
// grades, ordered by descending average. Grades whose subject no longer
// exists are left out.
func (svc *Service) SubjectStatistics(ctx context.Context, yearID string, scope Filter, periods ...string) ([]SubjectStat, error) {
	if yearID == "" {
		return nil, school.ErrMissingScope
	}
	scope.YearID = yearID

	rows, err := svc.repo.QueryGrades(ctx, scope)
	if err != nil {
		return nil, err
	}
	rows = filterPeriods(rows, periods)

	bySubject := make(map[string]*SubjectStat)
	counts := make(map[string]float64)
	for _, row := range rows {
		if !row.SubjectName.Valid {
			continue
		}
		stat, ok := bySubject[row.SubjectID]
		if !ok {
			stat = &SubjectStat{
				SubjectID: row.SubjectID,
				Name:      row.SubjectName.String,
				Min:       row.Value,
				Max:       row.Value,
			}
			bySubject[row.SubjectID] = stat
		}
		stat.Count++
		counts[row.SubjectID] += row.Value
		if row.Value < stat.Min {
			stat.Min = row.Value
		}
		if row.Value > stat.Max {
			stat.Max = row.Value
		}
	}

	stats := make([]SubjectStat, 0, len(bySubject))
	for id, stat := range bySubject {
		stat.Average = round2(counts[id] / float64(stat.Count))
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Average != stats[j].Average {
			return stats[i].Average > stats[j].Average
		}
		return stats[i].Name < stats[j].Name
	})
	return stats, nil
}

func weightedAverage(rows []GradeRow) (avg float64, graded bool) {
	var sum, weights float64
	for _, row := range rows {
		// subject gone: weight the grade at 1
		coeff := 1.0
		if row.Coefficient.Valid && row.Coefficient.Int >= 1 {
			coeff = float64(row.Coefficient.Int)
		}
		sum += row.Value * coeff
		weights += coeff
	}
	if weights == 0 {
		return 0, false
	}
	return sum / weights, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// periodAliases maps a trimester digit to the localized labels it is known
// under. Evaluation-period names are free text, so matching is loose by
// necessity.
var periodAliases = map[byte][]string{
	'1': {"premier", "1er", "first"},
	'2': {"deuxieme", "2eme", "2e", "second"},
	'3': {"troisieme", "3eme", "3e", "third"},
}

func filterPeriods(rows []GradeRow, periods []string) []GradeRow {
	// blank tokens (e.g. an empty query param) are not filters
	tokens := make([]string, 0, len(periods))
	for _, period := range periods {
		if period = core.FoldString(period); period != "" {
			tokens = append(tokens, period)
		}
	}
	if len(tokens) == 0 {
		return rows
	}
	matched := make([]GradeRow, 0, len(rows))
	for _, row := range rows {
		for _, token := range tokens {
			if matchesPeriod(token, row.Period) {
				matched = append(matched, row)
				break
			}
		}
	}
	return matched
}

// matchesPeriod expects a folded, non-empty filter token.
func matchesPeriod(filter, label string) bool {
	label = core.FoldString(label)
	if label != "" && (strings.Contains(label, filter) || strings.Contains(filter, label)) {
		return true
	}
	for i := 0; i < len(filter); i++ {
		c := filter[i]
		if c < '1' || c > '3' {
			continue
		}
		if strings.Contains(label, string(c)) {
			return true
		}
		for _, alias := range periodAliases[c] {
			if strings.Contains(label, alias) {
				return true
			}
		}
	}
	return false
}
