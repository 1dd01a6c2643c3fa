// Package todo implements a personal task tracker backed by a remote store.
//
// Tasks belong to a single owner (a chat id or CLI user) and are never
// deleted: they are created, completed, or snoozed. The public API mirrors
// the commands both front ends expose:
//   - ParseDirective turns free text into a title, priority, and due date
//   - Gateway.Create, CreateChild for adding tasks and subtasks
//   - Gateway.ListPending, Find for querying
//   - Gateway.Complete, Reschedule for the lifecycle
package todo

import "github.com/amonks/tracker/internal/dates"

// Status represents the state of a task.
type Status string

const (
	// StatusTodo indicates the task is pending.
	StatusTodo Status = "Todo"

	// StatusDone indicates the task has been completed.
	StatusDone Status = "Done"
)

// ValidStatuses returns all valid status values.
func ValidStatuses() []Status {
	return []Status{StatusTodo, StatusDone}
}

// IsValid returns true if the status is a known valid value.
func (s Status) IsValid() bool {
	for _, valid := range ValidStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// Priority is a P0..P4 label. P0 is the most urgent; labels sort in rank order.
type Priority string

const (
	PriorityCritical Priority = "P0"
	PriorityHigh     Priority = "P1" // default
	PriorityMedium   Priority = "P2"
	PriorityLow      Priority = "P3"
	PriorityBacklog  Priority = "P4"

	PriorityDefault = PriorityHigh
)

// ValidPriorities returns all valid priorities, most urgent first.
func ValidPriorities() []Priority {
	return []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow, PriorityBacklog}
}

// IsValid returns true if the priority is a known valid value.
func (p Priority) IsValid() bool {
	for _, valid := range ValidPriorities() {
		if p == valid {
			return true
		}
	}
	return false
}

// PriorityName returns a human-readable name for the priority level.
func PriorityName(p Priority) string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	case PriorityBacklog:
		return "backlog"
	default:
		return "unknown"
	}
}

// MaxTitleLength is the maximum allowed length for a task title.
const MaxTitleLength = 500

// Task is a single to-do item.
type Task struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	DueDate   string          `json:"due_date"`
	Priority  Priority        `json:"priority"`
	Status    Status          `json:"status"`
	ParentID  *int64          `json:"parent_id"`
	UserID    string          `json:"user_id"`
	CreatedAt dates.Timestamp `json:"created_at"`
}

// IsOverdue reports whether the task was due before today.
func (t Task) IsOverdue(today string) bool {
	return t.DueDate < today
}

// IsDueToday reports whether the task is due today.
func (t Task) IsDueToday(today string) bool {
	return t.DueDate == today
}

// Directive is the structured result of parsing free-text task input.
type Directive struct {
	Title    string
	Priority Priority
	DueDate  string

	// PriorityExplicit is set when the text carried a [Pn] tag.
	PriorityExplicit bool

	// DueExplicit is set when the text ended with a date keyword or literal.
	DueExplicit bool
}
