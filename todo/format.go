package todo

import (
	"fmt"
	"strings"
)

// ListLimit is how many pending tasks a listing shows.
const ListLimit = 15

// Truncate returns at most limit tasks and how many were left out.
func Truncate(tasks []Task, limit int) ([]Task, int) {
	if limit < 0 || len(tasks) <= limit {
		return tasks, 0
	}
	return tasks[:limit], len(tasks) - limit
}

// MoreLine is the trailer shown under a truncated listing.
func MoreLine(hidden int) string {
	return fmt.Sprintf("...and %d more", hidden)
}

// DueLabel describes a task's due date relative to today.
func DueLabel(task Task, today string) string {
	if task.IsDueToday(today) {
		return " (today)"
	}
	label := " — due " + task.DueDate
	if task.IsOverdue(today) {
		label += " ⚠️ overdue"
	}
	return label
}

// Line renders a task as one listing line.
func Line(task Task, today string) string {
	return fmt.Sprintf("[id:%d] [%s] %s%s", task.ID, task.Priority, task.Title, DueLabel(task, today))
}

// FormatPending renders a pending-task listing, truncated to ListLimit.
func FormatPending(tasks []Task, today string) string {
	if len(tasks) == 0 {
		return "🎉 No pending tasks!"
	}
	shown, hidden := Truncate(tasks, ListLimit)

	var b strings.Builder
	b.WriteString("📋 All pending tasks:\n\n")
	for _, task := range shown {
		b.WriteString(Line(task, today))
		b.WriteByte('\n')
	}
	if hidden > 0 {
		b.WriteString(MoreLine(hidden))
		b.WriteByte('\n')
	}
	return b.String()
}
