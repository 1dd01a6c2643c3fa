package todo

import (
	"errors"
	"testing"
)

func TestFilterAndDoesNotAlias(t *testing.T) {
	base := NewFilter(Where(ColumnStatus, OpEq, string(StatusTodo))).OrderBy(Asc(ColumnPriority))
	left := base.And(Where(ColumnDueDate, OpLt, "2026-02-01"))
	right := base.And(Where(ColumnDueDate, OpGt, "2026-02-01"))

	if len(base.Conditions) != 1 {
		t.Fatalf("expected base to keep one condition, got %d", len(base.Conditions))
	}
	if left.Conditions[1].Op != OpLt || right.Conditions[1].Op != OpGt {
		t.Fatalf("expected independent copies, got %+v and %+v", left.Conditions, right.Conditions)
	}
	if len(left.Order) != 1 || left.Order[0].Column != ColumnPriority {
		t.Fatalf("expected ordering to carry over, got %+v", left.Order)
	}
}

func TestFilterValidate(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		ok     bool
	}{
		{"known column", NewFilter(Where(ColumnDueDate, OpLte, "2026-02-03")), true},
		{"unknown column", NewFilter(Where("secret", OpEq, "x")), false},
		{"unknown operator", NewFilter(Where(ColumnID, Op("like"), "x")), false},
		{"unknown order", NewFilter().OrderBy(Desc("nope")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	if err := NewFilter(Where("secret", OpEq, "x")).Validate(); !errors.Is(err, ErrInvalidColumn) {
		t.Fatalf("expected ErrInvalidColumn, got %v", err)
	}
}

func TestFilterOwner(t *testing.T) {
	if _, ok := NewFilter(Where(ColumnStatus, OpEq, "Todo")).Owner(); ok {
		t.Fatalf("expected no owner")
	}
	owner, ok := NewFilter(Where(ColumnUserID, OpEq, "42")).Owner()
	if !ok || owner != "42" {
		t.Fatalf("expected owner 42, got %q (%v)", owner, ok)
	}
}
