// Package digest builds the scheduled daily digest and weekly review, and
// the markdown export of pending tasks.
//
// Reports are plain text meant for a chat message. Generating a report
// only reads tasks; delivery is a separate best-effort step whose result
// the caller decides how to log.
package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/amonks/tracker/internal/dates"
	"github.com/amonks/tracker/todo"
)

// SectionLimit is how many tasks a report section lists.
const SectionLimit = 10

// Finder runs owner-scoped task queries.
type Finder interface {
	Find(ctx context.Context, owner string, filter todo.Filter) ([]todo.Task, error)
}

// Options configures a Generator.
type Options struct {
	// Now returns the current time; its location decides day boundaries.
	// Defaults to time.Now.
	Now func() time.Time
}

// Generator queries tasks and assembles reports.
type Generator struct {
	tasks Finder
	now   func() time.Time
}

// NewGenerator creates a generator over a task finder.
func NewGenerator(tasks Finder, opts Options) *Generator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Generator{tasks: tasks, now: now}
}

// Daily gathers the daily digest for owner.
func (g *Generator) Daily(ctx context.Context, owner string) (DailyReport, error) {
	now := g.now()
	today := dates.Day(now)
	todayStart := dates.StartOfDay(now)
	yesterdayStart := dates.StartOfDay(now.AddDate(0, 0, -1))

	report := DailyReport{Today: today}
	pending := todo.NewFilter(todo.Where(todo.ColumnStatus, todo.OpEq, string(todo.StatusTodo)))
	queries := []struct {
		name   string
		filter todo.Filter
		dest   *[]todo.Task
	}{
		{
			name: "overdue",
			dest: &report.Overdue,
			filter: pending.And(todo.Where(todo.ColumnDueDate, todo.OpLt, today)).
				OrderBy(todo.Asc(todo.ColumnPriority), todo.Asc(todo.ColumnDueDate)),
		},
		{
			name: "today",
			dest: &report.DueToday,
			filter: pending.And(todo.Where(todo.ColumnDueDate, todo.OpEq, today)).
				OrderBy(todo.Asc(todo.ColumnPriority)),
		},
		{
			name: "upcoming",
			dest: &report.Upcoming,
			filter: pending.And(
				todo.Where(todo.ColumnDueDate, todo.OpGt, today),
				todo.Where(todo.ColumnDueDate, todo.OpLte, dates.AddDays(now, 2)),
			).OrderBy(todo.Asc(todo.ColumnPriority), todo.Asc(todo.ColumnDueDate)),
		},
		{
			name: "completed",
			dest: &report.CompletedYesterday,
			filter: todo.NewFilter(
				todo.Where(todo.ColumnStatus, todo.OpEq, string(todo.StatusDone)),
				todo.Where(todo.ColumnCreatedAt, todo.OpGte, dates.NewTimestamp(yesterdayStart).String()),
				todo.Where(todo.ColumnCreatedAt, todo.OpLt, dates.NewTimestamp(todayStart).String()),
			),
		},
	}

	for _, query := range queries {
		tasks, err := g.tasks.Find(ctx, owner, query.filter)
		if err != nil {
			return DailyReport{}, fmt.Errorf("daily digest %s: %w", query.name, err)
		}
		*query.dest = tasks
	}
	return report, nil
}

// Weekly gathers the weekly review for owner.
func (g *Generator) Weekly(ctx context.Context, owner string) (WeeklyReport, error) {
	now := g.now()
	today := dates.Day(now)
	weekAgo := dates.NewTimestamp(dates.StartOfDay(now.AddDate(0, 0, -7))).String()

	report := WeeklyReport{
		Today: today,
		Start: now.AddDate(0, 0, -6),
		End:   now,
	}

	completed, err := g.tasks.Find(ctx, owner, todo.NewFilter(
		todo.Where(todo.ColumnStatus, todo.OpEq, string(todo.StatusDone)),
		todo.Where(todo.ColumnCreatedAt, todo.OpGte, weekAgo),
	).OrderBy(todo.Desc(todo.ColumnCreatedAt)))
	if err != nil {
		return WeeklyReport{}, fmt.Errorf("weekly report completed: %w", err)
	}
	report.Completed = completed

	pending, err := g.tasks.Find(ctx, owner, todo.NewFilter(
		todo.Where(todo.ColumnStatus, todo.OpEq, string(todo.StatusTodo)),
	).OrderBy(todo.Asc(todo.ColumnPriority), todo.Asc(todo.ColumnDueDate)))
	if err != nil {
		return WeeklyReport{}, fmt.Errorf("weekly report pending: %w", err)
	}
	report.Pending = pending

	added, err := g.tasks.Find(ctx, owner, todo.NewFilter(
		todo.Where(todo.ColumnCreatedAt, todo.OpGte, weekAgo),
	))
	if err != nil {
		return WeeklyReport{}, fmt.Errorf("weekly report added: %w", err)
	}
	report.Added = len(added)

	upcoming, err := g.tasks.Find(ctx, owner, todo.NewFilter(
		todo.Where(todo.ColumnStatus, todo.OpEq, string(todo.StatusTodo)),
		todo.Where(todo.ColumnDueDate, todo.OpGt, today),
		todo.Where(todo.ColumnDueDate, todo.OpLte, dates.AddDays(now, 7)),
	).OrderBy(todo.Asc(todo.ColumnDueDate), todo.Asc(todo.ColumnPriority)))
	if err != nil {
		return WeeklyReport{}, fmt.Errorf("weekly report upcoming: %w", err)
	}
	report.Upcoming = upcoming

	return report, nil
}
