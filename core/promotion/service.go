package promotion

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/shule/core/grading"
	"github.com/trezcool/shule/core/school"
)

var (
	// errors
	ErrNoRuleMatched = errors.New("no promotion rule matched")
	// ErrAmbiguousRuleMatch flags overlapping bands. Which rule should win is
	// an unresolved product decision; until it is made the engine refuses to
	// pick one silently.
	ErrAmbiguousRuleMatch = errors.New("more than one promotion rule matched")
	ErrStudentNotFound    = errors.New("student not found")
)

type (
	Repository interface {
		CreateRule(ctx context.Context, r Rule) (Rule, error)
		// QueryRules returns the year's rules, optionally restricted to one
		// category. No ordering is guaranteed.
		QueryRules(ctx context.Context, yearID string, category ...Category) ([]Rule, error)
		GetStudent(ctx context.Context, studentID, yearID string) (school.Student, error)
		// CountAbsences counts the student's attendance rows marked absent
		// within the year.
		CountAbsences(ctx context.Context, studentID, yearID string) (int, error)
	}

	Service struct {
		repo       Repository
		gradingSvc *grading.Service
	}
)

func NewService(repo Repository, gradingSvc *grading.Service) *Service {
	return &Service{repo: repo, gradingSvc: gradingSvc}
}

func (svc *Service) CreateRule(ctx context.Context, nr NewRule) (Rule, error) {
	if err := nr.Validate(); err != nil {
		return Rule{}, err
	}

	now := time.Now().UTC()
	rule := Rule{
		AcademicYearID: nr.AcademicYearID,
		Category:       NewCategory(nr.Category),
		CategoryLabel:  nr.Category,
		MinAverage:     nr.MinAverage,
		MaxAverage:     nr.MaxAverage,
		MinAbsences:    nr.MinAbsences,
		MaxAbsences:    nr.MaxAbsences,
		Outcome:        Outcome(nr.Outcome),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	// NB: overlap with existing bands of the same category is not checked;
	// overlapping rules surface as ErrAmbiguousRuleMatch at resolution time.
	return svc.repo.CreateRule(ctx, rule)
}

func (svc *Service) Rules(ctx context.Context, yearID string) ([]Rule, error) {
	if yearID == "" {
		return nil, school.ErrMissingScope
	}
	return svc.repo.QueryRules(ctx, yearID)
}

// ResolveOutcome finds the single rule of the category whose bands contain
// (average, absences). Zero matches is ErrNoRuleMatched; more than one is
// ErrAmbiguousRuleMatch.
func (svc *Service) ResolveOutcome(ctx context.Context, yearID string, category Category, average float64, absences int) (Rule, error) {
	if yearID == "" {
		return Rule{}, school.ErrMissingScope
	}

	rules, err := svc.repo.QueryRules(ctx, yearID, category)
	if err != nil {
		return Rule{}, pkgerrors.Wrap(err, "querying promotion rules")
	}

	var matched []Rule
	for _, rule := range rules {
		if rule.Matches(average, absences) {
			matched = append(matched, rule)
		}
	}
	switch len(matched) {
	case 0:
		return Rule{}, ErrNoRuleMatched
	case 1:
		return matched[0], nil
	default:
		return Rule{}, ErrAmbiguousRuleMatch
	}
}

// ComputeOutcome classifies one student: weighted average + absence count,
// resolved against the rules of the student's category.
func (svc *Service) ComputeOutcome(ctx context.Context, studentID, yearID string) (Result, error) {
	if yearID == "" {
		return Result{}, school.ErrMissingScope
	}

	student, err := svc.repo.GetStudent(ctx, studentID, yearID)
	if err != nil {
		return Result{}, err
	}

	average, graded, err := svc.gradingSvc.WeightedAverage(ctx, studentID, yearID)
	if err != nil {
		return Result{}, pkgerrors.Wrap(err, "computing weighted average")
	}
	absences, err := svc.repo.CountAbsences(ctx, studentID, yearID)
	if err != nil {
		return Result{}, pkgerrors.Wrap(err, "counting absences")
	}

	rule, err := svc.ResolveOutcome(ctx, yearID, NewCategory(student.Category), average, absences)
	if err != nil {
		return Result{}, err
	}
	return Result{
		StudentID: studentID,
		Average:   average,
		Graded:    graded,
		Absences:  absences,
		Outcome:   rule.Outcome,
		RuleID:    rule.ID,
	}, nil
}
