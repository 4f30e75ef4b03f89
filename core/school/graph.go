package school

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingScope is returned by scoped operations called without an
	// academic year identifier.
	ErrMissingScope = errors.New("academic year scope is required")

	ErrUnknownKind = errors.New("unknown entity type")
)

// Kind identifies a scoped entity type. Values double as table names.
type Kind string

const (
	KindGrade         Kind = "grade"
	KindAttendance    Kind = "attendance"
	KindPayment       Kind = "payment"
	KindExpense       Kind = "expense"
	KindEvaluation    Kind = "evaluation"
	KindStudent       Kind = "student"
	KindSubject       Kind = "subject"
	KindClass         Kind = "class"
	KindStaff         Kind = "staff"
	KindTeacher       Kind = "teacher"
	KindPromotionRule Kind = "promotion_rule"
)

// kinds in registration order; ties in the deletion order are broken by this
// order so the result is deterministic.
var kinds = []Kind{
	KindGrade,
	KindAttendance,
	KindPayment,
	KindExpense,
	KindEvaluation,
	KindStudent,
	KindSubject,
	KindClass,
	KindStaff,
	KindTeacher,
	KindPromotionRule,
}

// references maps each kind to the kinds it holds foreign keys to
// (besides the academic year itself). Register new scoped entity types here;
// the cascading deletion order is derived from this graph, not maintained by
// hand.
var references = map[Kind][]Kind{
	KindGrade:      {KindStudent, KindSubject},
	KindAttendance: {KindStudent},
	KindPayment:    {KindStudent},
	KindStudent:    {KindClass},
	KindSubject:    {KindClass, KindTeacher},
}

var deletionOrder = mustDeletionOrder()

// DeletionOrder returns all scoped entity kinds, referencing rows first, so
// that deleting per-kind in this order never violates a foreign key.
func DeletionOrder() []Kind {
	order := make([]Kind, len(deletionOrder))
	copy(order, deletionOrder)
	return order
}

// ParseKind maps an API entity-type string to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	for _, known := range kinds {
		if k == known {
			return k, nil
		}
	}
	return "", ErrUnknownKind
}

// mustDeletionOrder topologically sorts the reference graph child-first.
// Panics on a reference cycle; that is a programming error caught at startup.
func mustDeletionOrder() []Kind {
	// invert: who references me?
	referencedBy := make(map[Kind][]Kind, len(kinds))
	for child, parents := range references {
		for _, parent := range parents {
			referencedBy[parent] = append(referencedBy[parent], child)
		}
	}

	order := make([]Kind, 0, len(kinds))
	done := make(map[Kind]bool, len(kinds))
	for len(order) < len(kinds) {
		progressed := false
		for _, k := range kinds {
			if done[k] {
				continue
			}
			ready := true
			for _, child := range referencedBy[k] {
				if !done[child] {
					ready = false
					break
				}
			}
			if ready {
				order = append(order, k)
				done[k] = true
				progressed = true
			}
		}
		if !progressed {
			panic(fmt.Sprintf("school: reference cycle among entity kinds: %v", kinds))
		}
	}
	return order
}
