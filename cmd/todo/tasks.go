package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amonks/tracker/internal/age"
	"github.com/amonks/tracker/internal/dates"
	"github.com/amonks/tracker/internal/failure"
	"github.com/amonks/tracker/internal/ui"
	"github.com/amonks/tracker/todo"
	"github.com/spf13/cobra"
)

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <task>",
		Short: "Add a task",
		Long: `Add a task.

Example: todo add Buy milk [P0] tomorrow`,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			args, help, err := a.textArgs(args)
			if err != nil || help {
				return helpOr(cmd, err)
			}
			if len(args) == 0 {
				return report(todo.ErrEmptyTitle, "Missing task title. Usage: todo add <task>")
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				directive := todo.ParseDirective(args, s.tasks.Now())
				task, err := s.tasks.Create(ctx, s.owner, directive)
				if err != nil {
					return addFailure(err, "Failed to add task")
				}
				fmt.Fprintf(a.stdout, "✅ Task added: %s — due %s [%s]\n", task.Title, task.DueDate, task.Priority)
				return nil
			})
		},
	}
}

// textArgs takes the options that may precede task text off args. Task
// text is passed through untouched, so words like -v or --help stay in the
// title. A "--" ends the options explicitly.
func (a *app) textArgs(args []string) (rest []string, help bool, err error) {
	for len(args) > 0 {
		arg := args[0]
		switch {
		case arg == "--":
			return args[1:], false, nil
		case arg == "-h" || arg == "--help":
			return nil, true, nil
		case arg == "--config" || arg == "--config-file":
			if len(args) < 2 {
				return nil, false, failure.Usage("flag needs an argument: %s", arg)
			}
			a.configPath = args[1]
			args = args[2:]
		case strings.HasPrefix(arg, "--config="):
			a.configPath = strings.TrimPrefix(arg, "--config=")
			args = args[1:]
		case strings.HasPrefix(arg, "--config-file="):
			a.configPath = strings.TrimPrefix(arg, "--config-file=")
			args = args[1:]
		default:
			return args, false, nil
		}
	}
	return nil, false, nil
}

func helpOr(cmd *cobra.Command, err error) error {
	if err != nil {
		return err
	}
	return cmd.Help()
}

func addFailure(err error, upstream string) error {
	switch {
	case errors.Is(err, todo.ErrEmptyTitle):
		return report(err, "Missing task title. Usage: todo add <task>")
	case errors.Is(err, todo.ErrTitleTooLong):
		return report(err, "Task title is too long")
	default:
		return reportf(err, "%s: %v", upstream, err)
	}
}

func newListCmd(a *app) *cobra.Command {
	var table bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List pending tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				tasks, err := s.tasks.ListPending(ctx, s.owner)
				if err != nil {
					return reportf(err, "Failed to fetch tasks: %v", err)
				}
				today := s.tasks.Today()
				if table {
					fmt.Fprint(a.stdout, formatTaskTable(tasks, s.tasks.Now(), ui.NewPalette(a.stdout)))
					return nil
				}
				fmt.Fprint(a.stdout, formatTaskList(tasks, today, ui.NewPalette(a.stdout)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&table, "table", false, "show tasks as a table")
	return cmd
}

// formatTaskList renders the pending listing, coloring overdue lines red
// and lines due today yellow.
func formatTaskList(tasks []todo.Task, today string, palette *ui.Palette) string {
	if len(tasks) == 0 {
		return todo.FormatPending(nil, today) + "\n"
	}
	shown, hidden := todo.Truncate(tasks, todo.ListLimit)

	var b strings.Builder
	b.WriteString("📋 All pending tasks:\n\n")
	for _, task := range shown {
		b.WriteString(colorLine(todo.Line(task, today), task, today, palette))
		b.WriteByte('\n')
	}
	if hidden > 0 {
		b.WriteString(todo.MoreLine(hidden))
		b.WriteByte('\n')
	}
	return b.String()
}

func formatTaskTable(tasks []todo.Task, now time.Time, palette *ui.Palette) string {
	today := dates.Day(now)
	if len(tasks) == 0 {
		return todo.FormatPending(nil, today) + "\n"
	}
	shown, hidden := todo.Truncate(tasks, todo.ListLimit)

	table := ui.NewTable("ID", "PRIORITY", "DUE", "AGE", "TITLE")
	table.StyleHeader(palette.Header)
	for _, task := range shown {
		due := task.DueDate
		switch {
		case task.IsOverdue(today):
			due = palette.Overdue(due + " overdue")
		case task.IsDueToday(today):
			due = palette.Today("today")
		}
		table.AddRow(strconv.FormatInt(task.ID, 10), string(task.Priority), due, age.Label(task.CreatedAt.Time, now), task.Title)
	}
	out := table.String()
	if hidden > 0 {
		out += todo.MoreLine(hidden) + "\n"
	}
	return out
}

func colorLine(line string, task todo.Task, today string, palette *ui.Palette) string {
	switch {
	case task.IsOverdue(today):
		return palette.Overdue(line)
	case task.IsDueToday(today):
		return palette.Today(line)
	default:
		return line
	}
}

func newDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "done <id>",
		Aliases: []string{"rm"},
		Short:   "Mark a task as done",
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := taskIDArg(args, "Missing task ID. Usage: todo done <id>")
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				task, err := s.tasks.Complete(ctx, s.owner, id)
				if err != nil {
					return taskFailure(err, "Failed to complete task")
				}
				fmt.Fprintf(a.stdout, "✅ Marked as done: %s\n", task.Title)
				return nil
			})
		},
	}
}

func newSnoozeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "snooze <id>",
		Short: "Push a task's due date to tomorrow",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := taskIDArg(args, "Missing task ID. Usage: todo snooze <id>")
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				task, err := s.tasks.Reschedule(ctx, s.owner, id)
				if err != nil {
					return taskFailure(err, "Failed to snooze task")
				}
				fmt.Fprintf(a.stdout, "✅ Snoozed: %s — now due %s\n", task.Title, task.DueDate)
				return nil
			})
		},
	}
}

func newSubtaskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "subtask <parent_id> <task>",
		Short:              "Add a task under a parent task",
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			args, help, err := a.textArgs(args)
			if err != nil || help {
				return helpOr(cmd, err)
			}
			if len(args) < 2 {
				return report(todo.ErrEmptyTitle, "Usage: todo subtask <parent_id> <task>")
			}
			parentID, err := todo.ParseID(args[0])
			if err != nil {
				return report(err, "Invalid parent ID")
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				directive := todo.ParseDirective(args[1:], s.tasks.Now())
				child, parent, err := s.tasks.CreateChild(ctx, s.owner, parentID, directive)
				if errors.Is(err, todo.ErrParentNotFound) {
					return report(err, "Parent task not found")
				}
				if err != nil {
					return addFailure(err, "Failed to add subtask")
				}
				fmt.Fprintf(a.stdout, "✅ Subtask added to \"%s\": %s\n", parent.Title, child.Title)
				return nil
			})
		},
	}
}

func taskIDArg(args []string, missing string) (int64, error) {
	if len(args) == 0 {
		return 0, report(todo.ErrInvalidID, missing)
	}
	id, err := todo.ParseID(args[0])
	if err != nil {
		return 0, report(err, "Invalid task ID")
	}
	return id, nil
}

func taskFailure(err error, upstream string) error {
	if errors.Is(err, todo.ErrTaskNotFound) {
		return report(err, "Task not found")
	}
	if errors.Is(err, todo.ErrInvalidID) {
		return report(err, "Invalid task ID")
	}
	return reportf(err, "%s: %v", upstream, err)
}
