package todo_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amonks/tracker/internal/backend"
	"github.com/amonks/tracker/todo"
)

var gatewayNow = time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)

func newTestGateway(t *testing.T) *todo.Gateway {
	t.Helper()

	now := func() time.Time { return gatewayNow }
	store, err := backend.OpenSQL(context.Background(), backend.DialectSQLite, filepath.Join(t.TempDir(), "tasks.db"), backend.SQLOptions{Now: now})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return todo.NewGateway(store, todo.GatewayOptions{Now: now})
}

func parse(text string) todo.Directive {
	return todo.ParseDirective(strings.Fields(text), gatewayNow)
}

func TestCreateReturnsStoredRow(t *testing.T) {
	gateway := newTestGateway(t)
	ctx := context.Background()

	task, err := gateway.Create(ctx, "alice", parse("[P2] Write report today"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.ID == 0 {
		t.Fatalf("expected store-assigned id")
	}
	if task.Title != "Write report" || task.Priority != todo.PriorityMedium || task.DueDate != "2026-02-01" {
		t.Fatalf("unexpected task %+v", task)
	}
	if task.Status != todo.StatusTodo {
		t.Fatalf("expected status Todo, got %q", task.Status)
	}
	if task.UserID != "alice" {
		t.Fatalf("expected owner alice, got %q", task.UserID)
	}
	if task.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}
}

func TestCreateRejectsEmptyTitleAndOwner(t *testing.T) {
	gateway := newTestGateway(t)
	ctx := context.Background()

	if _, err := gateway.Create(ctx, "alice", parse("[P1]")); !errors.Is(err, todo.ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if _, err := gateway.Create(ctx, " ", parse("title")); !errors.Is(err, todo.ErrMissingOwner) {
		t.Fatalf("expected ErrMissingOwner, got %v", err)
	}
}

func TestListPendingOrdersAndScopes(t *testing.T) {
	gateway := newTestGateway(t)
	ctx := context.Background()

	for _, text := range []string{
		"[P2] b 2026-02-03",
		"[P0] a 2026-02-05",
		"[P2] c 2026-02-02",
		"[P0] d 2026-02-01",
	} {
		if _, err := gateway.Create(ctx, "alice", parse(text)); err != nil {
			t.Fatalf("create %q: %v", text, err)
		}
	}
	if _, err := gateway.Create(ctx, "bob", parse("[P0] bob task")); err != nil {
		t.Fatalf("create bob task: %v", err)
	}
	done, err := gateway.Create(ctx, "alice", parse("[P0] finished"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := gateway.Complete(ctx, "alice", done.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	tasks, err := gateway.ListPending(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var titles []string
	for _, task := range tasks {
		titles = append(titles, task.Title)
		if task.UserID != "alice" || task.Status != todo.StatusTodo {
			t.Fatalf("unexpected task in listing: %+v", task)
		}
	}
	want := []string{"d", "a", "c", "b"}
	if len(titles) != len(want) {
		t.Fatalf("expected %v, got %v", want, titles)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, titles)
		}
	}
}

func TestCompleteIsOwnerScopedAndIdempotent(t *testing.T) {
	gateway := newTestGateway(t)
	ctx := context.Background()

	task, err := gateway.Create(ctx, "alice", parse("Buy milk"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := gateway.Complete(ctx, "bob", task.ID); !errors.Is(err, todo.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound for another owner, got %v", err)
	}
	unchanged, err := gateway.Get(ctx, "alice", task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if unchanged.Status != todo.StatusTodo {
		t.Fatalf("expected task untouched, got %q", unchanged.Status)
	}

	for i := 0; i < 2; i++ {
		done, err := gateway.Complete(ctx, "alice", task.ID)
		if err != nil {
			t.Fatalf("complete #%d: %v", i+1, err)
		}
		if done.Status != todo.StatusDone || done.Title != "Buy milk" {
			t.Fatalf("unexpected completed task %+v", done)
		}
	}

	if _, err := gateway.Complete(ctx, "alice", 9999); !errors.Is(err, todo.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestRescheduleMovesToTomorrow(t *testing.T) {
	gateway := newTestGateway(t)
	ctx := context.Background()

	task, err := gateway.Create(ctx, "alice", parse("Pay rent 2026-01-15"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	snoozed, err := gateway.Reschedule(ctx, "alice", task.ID)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if snoozed.DueDate != "2026-02-02" {
		t.Fatalf("expected due 2026-02-02, got %q", snoozed.DueDate)
	}
	if _, err := gateway.Reschedule(ctx, "bob", task.ID); !errors.Is(err, todo.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestCreateChildInheritsFromParent(t *testing.T) {
	gateway := newTestGateway(t)
	ctx := context.Background()

	parent, err := gateway.Create(ctx, "alice", parse("[P0] Launch 2026-03-01"))
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}

	child, gotParent, err := gateway.CreateChild(ctx, "alice", parent.ID, parse("Write docs"))
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if gotParent.ID != parent.ID {
		t.Fatalf("expected parent %d, got %d", parent.ID, gotParent.ID)
	}
	if child.ParentID == nil || *child.ParentID != parent.ID {
		t.Fatalf("expected parent id %d, got %v", parent.ID, child.ParentID)
	}
	if child.Priority != todo.PriorityCritical || child.DueDate != "2026-03-01" {
		t.Fatalf("expected inherited P0/2026-03-01, got %s/%s", child.Priority, child.DueDate)
	}

	explicit, _, err := gateway.CreateChild(ctx, "alice", parent.ID, parse("[P3] Tweet today"))
	if err != nil {
		t.Fatalf("create explicit child: %v", err)
	}
	if explicit.Priority != todo.PriorityLow || explicit.DueDate != "2026-02-01" {
		t.Fatalf("expected explicit P3/2026-02-01, got %s/%s", explicit.Priority, explicit.DueDate)
	}
}

func TestCreateChildRequiresOwnedParent(t *testing.T) {
	gateway := newTestGateway(t)
	ctx := context.Background()

	parent, err := gateway.Create(ctx, "alice", parse("Parent"))
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}

	if _, _, err := gateway.CreateChild(ctx, "bob", parent.ID, parse("Sneaky")); !errors.Is(err, todo.ErrParentNotFound) {
		t.Fatalf("expected ErrParentNotFound, got %v", err)
	}
	if _, _, err := gateway.CreateChild(ctx, "alice", 4242, parse("Orphan")); !errors.Is(err, todo.ErrParentNotFound) {
		t.Fatalf("expected ErrParentNotFound, got %v", err)
	}

	tasks, err := gateway.Find(ctx, "bob", todo.NewFilter())
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected no rows for bob, got %d", len(tasks))
	}
}

func TestFindRejectsUnknownColumns(t *testing.T) {
	gateway := newTestGateway(t)

	_, err := gateway.Find(context.Background(), "alice", todo.NewFilter(todo.Where("title; drop table tasks", todo.OpEq, "x")))
	if !errors.Is(err, todo.ErrInvalidColumn) {
		t.Fatalf("expected ErrInvalidColumn, got %v", err)
	}
}
