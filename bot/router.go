// Package bot routes chat-bot messages to task and token operations.
//
// Each incoming message yields exactly one reply. Commands may be written
// with or without a leading slash, and a trailing @botname on the command
// word is ignored.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/amonks/tracker/auth"
	"github.com/amonks/tracker/internal/dates"
	"github.com/amonks/tracker/todo"
)

// Tasks is the task store the router drives.
type Tasks interface {
	Now() time.Time
	Today() string
	Create(ctx context.Context, owner string, directive todo.Directive) (todo.Task, error)
	ListPending(ctx context.Context, owner string) ([]todo.Task, error)
	Complete(ctx context.Context, owner string, id int64) (todo.Task, error)
	Reschedule(ctx context.Context, owner string, id int64) (todo.Task, error)
	CreateChild(ctx context.Context, owner string, parentID int64, directive todo.Directive) (todo.Task, todo.Task, error)
}

// Tokens issues and revokes API tokens.
type Tokens interface {
	Issue(ctx context.Context, owner, name string) (auth.Issued, error)
	List(ctx context.Context, owner string) ([]auth.Token, error)
	Revoke(ctx context.Context, owner string, id int64) (auth.Token, error)
}

// Reply is the single response to a message.
type Reply struct {
	Text string
	// Markdown marks text that must be sent with Markdown parsing.
	Markdown bool
}

// Options configures a Router.
type Options struct {
	// Tokens enables the token and revoke commands when set.
	Tokens Tokens
	// Logger receives store failures. Defaults to discarding.
	Logger *log.Logger
}

// Router maps command words to handlers.
type Router struct {
	tasks  Tasks
	tokens Tokens
	logger *log.Logger
}

// NewRouter creates a router over a task store.
func NewRouter(tasks Tasks, opts Options) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Router{tasks: tasks, tokens: opts.Tokens, logger: logger}
}

// Welcome lists the commands the bot understands.
const Welcome = "👋 Welcome to TODO Tracker!\n\n" +
	"Commands:\n" +
	"add <task> - Add task\n" +
	"list, ls - Show tasks\n" +
	"done, rm <id> - Complete task\n" +
	"snooze <id> - Postpone to tomorrow\n" +
	"subtask <id> <task> - Add subtask\n" +
	"token [name] - Generate API token for CLI\n" +
	"revoke [id] - List or revoke API tokens\n\n" +
	"(Slash prefix is optional)"

const unknownCommand = "❌ Unknown command. Use add, list (ls), done (rm), snooze, subtask, token, or revoke"

// Command splits message text into a lowercased command word and its
// arguments. The leading slash and any @botname suffix are removed.
func Command(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), fields[1:]
}

// Handle runs the command in text on behalf of owner.
func (r *Router) Handle(ctx context.Context, owner, text string) Reply {
	name, args := Command(text)
	switch name {
	case "add":
		return r.add(ctx, owner, args)
	case "list", "ls":
		return r.list(ctx, owner)
	case "done", "rm":
		return r.done(ctx, owner, args)
	case "snooze":
		return r.snooze(ctx, owner, args)
	case "subtask":
		return r.subtask(ctx, owner, args)
	case "token":
		if r.tokens != nil {
			return r.token(ctx, owner, args)
		}
	case "revoke":
		if r.tokens != nil {
			return r.revoke(ctx, owner, args)
		}
	case "start", "help":
		return Reply{Text: Welcome}
	}
	return Reply{Text: unknownCommand}
}

func (r *Router) add(ctx context.Context, owner string, args []string) Reply {
	const usage = "❌ Missing task title. Usage: /add <task>"
	if len(args) == 0 {
		return Reply{Text: usage}
	}
	task, err := r.tasks.Create(ctx, owner, todo.ParseDirective(args, r.tasks.Now()))
	switch {
	case errors.Is(err, todo.ErrEmptyTitle):
		return Reply{Text: usage}
	case errors.Is(err, todo.ErrTitleTooLong):
		return Reply{Text: "❌ " + err.Error()}
	case err != nil:
		r.logf("add for %s: %v", owner, err)
		return Reply{Text: "❌ Failed to add task: " + err.Error()}
	}
	return Reply{Text: fmt.Sprintf("✅ Task added: %s — due %s [%s]", task.Title, task.DueDate, task.Priority)}
}

func (r *Router) list(ctx context.Context, owner string) Reply {
	tasks, err := r.tasks.ListPending(ctx, owner)
	if err != nil {
		r.logf("list for %s: %v", owner, err)
		return Reply{Text: "❌ Failed to fetch tasks: " + err.Error()}
	}
	return Reply{Text: todo.FormatPending(tasks, r.tasks.Today())}
}

func (r *Router) done(ctx context.Context, owner string, args []string) Reply {
	id, ok := firstID(args)
	if !ok {
		return Reply{Text: "❌ Invalid task ID. Usage: /done <id>"}
	}
	task, err := r.tasks.Complete(ctx, owner, id)
	switch {
	case errors.Is(err, todo.ErrTaskNotFound):
		return Reply{Text: "❌ Task not found"}
	case err != nil:
		r.logf("done %d for %s: %v", id, owner, err)
		return Reply{Text: "❌ Failed to update task"}
	}
	return Reply{Text: "✅ Marked as done: " + task.Title}
}

func (r *Router) snooze(ctx context.Context, owner string, args []string) Reply {
	id, ok := firstID(args)
	if !ok {
		return Reply{Text: "❌ Invalid task ID. Usage: /snooze <id>"}
	}
	task, err := r.tasks.Reschedule(ctx, owner, id)
	switch {
	case errors.Is(err, todo.ErrTaskNotFound):
		return Reply{Text: "❌ Task not found"}
	case err != nil:
		r.logf("snooze %d for %s: %v", id, owner, err)
		return Reply{Text: "❌ Failed to snooze task"}
	}
	return Reply{Text: "✅ Snoozed: " + task.Title + " — now due tomorrow"}
}

func (r *Router) subtask(ctx context.Context, owner string, args []string) Reply {
	if len(args) < 2 {
		return Reply{Text: "❌ Usage: /subtask <parent_id> <task title>"}
	}
	parentID, err := todo.ParseID(args[0])
	if err != nil {
		return Reply{Text: "❌ Invalid parent ID"}
	}
	child, parent, err := r.tasks.CreateChild(ctx, owner, parentID, todo.ParseDirective(args[1:], r.tasks.Now()))
	switch {
	case errors.Is(err, todo.ErrParentNotFound):
		return Reply{Text: "❌ Parent task not found"}
	case errors.Is(err, todo.ErrEmptyTitle):
		return Reply{Text: "❌ Usage: /subtask <parent_id> <task title>"}
	case err != nil:
		r.logf("subtask under %d for %s: %v", parentID, owner, err)
		return Reply{Text: "❌ Failed to add subtask"}
	}
	return Reply{Text: fmt.Sprintf("✅ Subtask added to '%s': %s", parent.Title, child.Title)}
}

func (r *Router) token(ctx context.Context, owner string, args []string) Reply {
	issued, err := r.tokens.Issue(ctx, owner, strings.Join(args, " "))
	if err != nil {
		r.logf("issue token for %s: %v", owner, err)
		return Reply{Text: "❌ Failed to create token: " + err.Error()}
	}
	text := "🔑 API Token created: " + escapeMarkdown(issued.Token.Name) + "\n\n" +
		"Token: `" + issued.Secret + "`\n\n" +
		"⚠️ Save this token now! It won't be shown again.\n\n" +
		"Use in CLI: Add to ~/.todo-cli-token or set TODO_CLI_TOKEN env var."
	return Reply{Text: text, Markdown: true}
}

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "[", `\[`, "`", "\\`")

// escapeMarkdown makes user text literal inside a Markdown reply.
func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

func (r *Router) revoke(ctx context.Context, owner string, args []string) Reply {
	if len(args) == 0 {
		tokens, err := r.tokens.List(ctx, owner)
		if err != nil {
			r.logf("list tokens for %s: %v", owner, err)
			return Reply{Text: "❌ Failed to fetch tokens: " + err.Error()}
		}
		return Reply{Text: FormatTokens(tokens)}
	}

	id, err := todo.ParseID(args[0])
	if err != nil {
		return Reply{Text: "❌ Invalid token ID. Usage: /revoke <id>"}
	}
	token, err := r.tokens.Revoke(ctx, owner, id)
	switch {
	case errors.Is(err, auth.ErrTokenNotFound):
		return Reply{Text: "❌ Token not found"}
	case err != nil:
		r.logf("revoke token %d for %s: %v", id, owner, err)
		return Reply{Text: "❌ Failed to revoke token"}
	}
	return Reply{Text: "✅ Token revoked: " + token.Name}
}

// FormatTokens renders a token listing for the revoke command.
func FormatTokens(tokens []auth.Token) string {
	if len(tokens) == 0 {
		return "No API tokens found. Use /token to create one."
	}
	var b strings.Builder
	b.WriteString("🔑 Your API tokens:\n\n")
	for _, token := range tokens {
		fmt.Fprintf(&b, "[id:%d] %s\n  Created: %s, Expires: %s\n\n",
			token.ID, token.Name, tokenDay(token.CreatedAt), tokenDay(token.ExpiresAt))
	}
	b.WriteString("To revoke: /revoke <id>")
	return b.String()
}

func tokenDay(ts dates.Timestamp) string {
	if ts.IsZero() {
		return "never"
	}
	return dates.Day(ts.UTC())
}

func firstID(args []string) (int64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	id, err := todo.ParseID(args[0])
	return id, err == nil
}

func (r *Router) logf(format string, args ...any) {
	r.logger.Printf(format, args...)
}
