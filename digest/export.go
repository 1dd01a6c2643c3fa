package digest

import (
	"fmt"
	"strings"

	"github.com/amonks/tracker/todo"
)

// Markdown renders tasks as a checklist grouped into Overdue, Today, and
// Upcoming sections. Tasks keep their input order within a section.
func Markdown(tasks []todo.Task, today string) string {
	var overdue, dueToday, upcoming []todo.Task
	for _, task := range tasks {
		switch {
		case task.IsOverdue(today):
			overdue = append(overdue, task)
		case task.IsDueToday(today):
			dueToday = append(dueToday, task)
		default:
			upcoming = append(upcoming, task)
		}
	}

	var b strings.Builder
	b.WriteString("# TODO List\n\n")
	writeChecklist(&b, "Overdue", overdue)
	writeChecklist(&b, "Today", dueToday)
	writeChecklist(&b, "Upcoming", upcoming)
	if len(tasks) == 0 {
		b.WriteString("No pending tasks! 🎉\n")
	}
	return b.String()
}

// ChecklistItem renders one task as "- [ ] title — P1 — id:5 — due:2026-02-02".
func ChecklistItem(task todo.Task) string {
	box := "- [ ]"
	if task.Status == todo.StatusDone {
		box = "- [x]"
	}
	return fmt.Sprintf("%s %s — %s — id:%d — due:%s", box, task.Title, task.Priority, task.ID, task.DueDate)
}

func writeChecklist(b *strings.Builder, heading string, tasks []todo.Task) {
	if len(tasks) == 0 {
		return
	}
	b.WriteString("## " + heading + "\n")
	for _, task := range tasks {
		b.WriteString(ChecklistItem(task))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
}
