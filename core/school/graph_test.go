package school

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeletionOrder(t *testing.T) {
	order := DeletionOrder()

	assert.Len(t, order, len(kinds))

	// a kind must never be deleted before the kinds referencing it
	pos := make(map[Kind]int, len(order))
	for i, k := range order {
		pos[k] = i
	}
	for child, parents := range references {
		for _, parent := range parents {
			if pos[child] > pos[parent] {
				t.Errorf("DeletionOrder() deletes %s before its referencing %s", parent, child)
			}
		}
	}

	// the derived order must stay stable for a fixed registration order
	want := []Kind{
		KindGrade, KindAttendance, KindPayment, KindExpense, KindEvaluation,
		KindStudent, KindSubject, KindClass, KindStaff, KindTeacher, KindPromotionRule,
	}
	assert.Equal(t, want, order)
}

func TestDeletionOrderCopy(t *testing.T) {
	order := DeletionOrder()
	order[0] = KindTeacher
	assert.Equal(t, KindGrade, DeletionOrder()[0], "DeletionOrder() must return a copy")
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"class", KindClass, false},
		{"subject", KindSubject, false},
		{"promotion_rule", KindPromotionRule, false},
		{"classes", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				assert.Equal(t, ErrUnknownKind, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
