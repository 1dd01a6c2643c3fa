package digest

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/amonks/tracker/todo"
)

// NoTasksMessage replaces the daily digest when every section is empty.
const NoTasksMessage = "🎉 No pending tasks! Enjoy your day."

// DailyReport is the data behind the morning digest.
type DailyReport struct {
	Today              string
	Overdue            []todo.Task
	DueToday           []todo.Task
	Upcoming           []todo.Task
	CompletedYesterday []todo.Task
}

// IsEmpty reports whether no section has tasks.
func (r DailyReport) IsEmpty() bool {
	return len(r.Overdue) == 0 && len(r.DueToday) == 0 && len(r.Upcoming) == 0 && len(r.CompletedYesterday) == 0
}

// String renders the digest message.
func (r DailyReport) String() string {
	if r.IsEmpty() {
		return NoTasksMessage
	}

	var b strings.Builder
	b.WriteString("☀️ Good morning! Here's your task overview:\n")
	writeSection(&b, "🔴 OVERDUE", "", r.Overdue, func(t todo.Task) string {
		return fmt.Sprintf("• [%s] %s — was due %s", t.Priority, t.Title, t.DueDate)
	})
	writeSection(&b, "📅 TODAY", "", r.DueToday, func(t todo.Task) string {
		return fmt.Sprintf("• [%s] %s", t.Priority, t.Title)
	})
	writeSection(&b, "📆 NEXT 2 DAYS", "", r.Upcoming, func(t todo.Task) string {
		return fmt.Sprintf("• [%s] %s — due %s", t.Priority, t.Title, t.DueDate)
	})
	writeSection(&b, "✅ COMPLETED YESTERDAY", "Great job! You finished:\n", r.CompletedYesterday, func(t todo.Task) string {
		return "• " + t.Title
	})
	b.WriteString("\nHave a productive day! 💪")
	return b.String()
}

// WeeklyReport is the data behind the weekly review.
type WeeklyReport struct {
	Today string
	// Start and End bound the header's date range.
	Start     time.Time
	End       time.Time
	Completed []todo.Task
	Pending   []todo.Task
	Upcoming  []todo.Task
	Added     int
}

// CompletionRate is the share of this week's finished tasks among finished
// and pending ones, as a rounded percentage.
func (r WeeklyReport) CompletionRate() int {
	total := len(r.Completed) + len(r.Pending)
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(len(r.Completed)) / float64(total) * 100))
}

// String renders the review message.
func (r WeeklyReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Weekly Review — Week of %s - %s\n", r.Start.Format("Jan 2"), r.End.Format("Jan 2"))

	writeSection(&b, "✅ COMPLETED THIS WEEK", "", r.Completed, func(t todo.Task) string {
		return "• " + t.Title
	})
	writeSection(&b, "📋 STILL PENDING", "", r.Pending, func(t todo.Task) string {
		due := " — due " + t.DueDate
		if t.IsOverdue(r.Today) {
			due = " — was due " + t.DueDate
		}
		return fmt.Sprintf("• [%s] %s%s", t.Priority, t.Title, due)
	})

	b.WriteString("\n📈 STATS\n")
	fmt.Fprintf(&b, "• Completion rate: %d%%\n", r.CompletionRate())
	fmt.Fprintf(&b, "• Tasks completed: %d\n", len(r.Completed))
	fmt.Fprintf(&b, "• Tasks added: %d\n", r.Added)

	writeSection(&b, "🎯 UPCOMING NEXT WEEK", "", r.Upcoming, func(t todo.Task) string {
		return fmt.Sprintf("• [%s] %s — due %s", t.Priority, t.Title, t.DueDate)
	})
	b.WriteString("\nHave a great week ahead! 🚀")
	return b.String()
}

// writeSection writes a titled, truncated list. Empty sections are omitted.
func writeSection(b *strings.Builder, title, intro string, tasks []todo.Task, line func(todo.Task) string) {
	if len(tasks) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s (%d)\n", title, len(tasks))
	b.WriteString(intro)
	shown, hidden := todo.Truncate(tasks, SectionLimit)
	for _, task := range shown {
		b.WriteString(line(task))
		b.WriteByte('\n')
	}
	if hidden > 0 {
		b.WriteString(todo.MoreLine(hidden))
		b.WriteByte('\n')
	}
}
