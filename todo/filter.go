package todo

import "fmt"

// Column names shared by every backend.
const (
	ColumnID        = "id"
	ColumnTitle     = "title"
	ColumnDueDate   = "due_date"
	ColumnPriority  = "priority"
	ColumnStatus    = "status"
	ColumnParentID  = "parent_id"
	ColumnUserID    = "user_id"
	ColumnCreatedAt = "created_at"
)

// Columns returns every filterable column.
func Columns() []string {
	return []string{ColumnID, ColumnTitle, ColumnDueDate, ColumnPriority, ColumnStatus, ColumnParentID, ColumnUserID, ColumnCreatedAt}
}

// ValidColumn reports whether column is a known task column.
func ValidColumn(column string) bool {
	for _, known := range Columns() {
		if column == known {
			return true
		}
	}
	return false
}

// Op is a comparison operator, spelled the way PostgREST spells it.
type Op string

const (
	OpEq  Op = "eq"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpGt  Op = "gt"
	OpGte Op = "gte"
)

// ValidOps returns the supported operators.
func ValidOps() []Op {
	return []Op{OpEq, OpLt, OpLte, OpGt, OpGte}
}

// IsValid returns true if the operator is supported.
func (op Op) IsValid() bool {
	for _, valid := range ValidOps() {
		if op == valid {
			return true
		}
	}
	return false
}

// Condition compares one column against a literal value.
type Condition struct {
	Column string
	Op     Op
	Value  string
}

// Where builds a condition.
func Where(column string, op Op, value string) Condition {
	return Condition{Column: column, Op: op, Value: value}
}

// Order sorts by one column.
type Order struct {
	Column string
	Desc   bool
}

// Asc orders by column ascending.
func Asc(column string) Order {
	return Order{Column: column}
}

// Desc orders by column descending.
func Desc(column string) Order {
	return Order{Column: column, Desc: true}
}

// Filter is a conjunction of conditions plus an ordering.
type Filter struct {
	Conditions []Condition
	Order      []Order
}

// NewFilter builds a filter from conditions.
func NewFilter(conditions ...Condition) Filter {
	return Filter{Conditions: append([]Condition(nil), conditions...)}
}

// And returns a copy of the filter with extra conditions.
func (f Filter) And(conditions ...Condition) Filter {
	next := Filter{
		Conditions: make([]Condition, 0, len(f.Conditions)+len(conditions)),
		Order:      append([]Order(nil), f.Order...),
	}
	next.Conditions = append(next.Conditions, f.Conditions...)
	next.Conditions = append(next.Conditions, conditions...)
	return next
}

// OrderBy returns a copy of the filter with the given ordering.
func (f Filter) OrderBy(order ...Order) Filter {
	return Filter{
		Conditions: append([]Condition(nil), f.Conditions...),
		Order:      append([]Order(nil), order...),
	}
}

// Validate checks columns and operators.
func (f Filter) Validate() error {
	for _, cond := range f.Conditions {
		if !ValidColumn(cond.Column) {
			return fmt.Errorf("%w: %q", ErrInvalidColumn, cond.Column)
		}
		if !cond.Op.IsValid() {
			return fmt.Errorf("invalid operator %q for column %s", cond.Op, cond.Column)
		}
	}
	for _, order := range f.Order {
		if !ValidColumn(order.Column) {
			return fmt.Errorf("%w: %q", ErrInvalidColumn, order.Column)
		}
	}
	return nil
}

// Owner returns the value of the user_id equality condition, if any.
func (f Filter) Owner() (string, bool) {
	for _, cond := range f.Conditions {
		if cond.Column == ColumnUserID && cond.Op == OpEq {
			return cond.Value, true
		}
	}
	return "", false
}

// Patch lists the columns an update may change.
type Patch struct {
	Status  *Status
	DueDate *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Status == nil && p.DueDate == nil
}
