package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/amonks/tracker/auth"
	"github.com/amonks/tracker/internal/dates"
	"github.com/amonks/tracker/todo"
)

var fixedNow = time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)

func openTestSQL(t *testing.T) *SQL {
	t.Helper()
	store, err := OpenSQL(context.Background(), DialectSQLite, filepath.Join(t.TempDir(), "tasks.db"), SQLOptions{
		Now: func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRebind(t *testing.T) {
	postgres := &SQL{dialect: DialectPostgres}
	if got := postgres.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Fatalf("unexpected postgres rebind %q", got)
	}
	sqlite := &SQL{dialect: DialectSQLite}
	if got := sqlite.rebind("a = ?"); got != "a = ?" {
		t.Fatalf("unexpected sqlite rebind %q", got)
	}
}

func TestOpenSQLRejectsUnknownDialect(t *testing.T) {
	if _, err := OpenSQL(context.Background(), Dialect("mysql"), "dsn", SQLOptions{}); err == nil {
		t.Fatalf("expected error for unknown dialect")
	}
	if _, err := OpenSQL(context.Background(), DialectSQLite, " ", SQLOptions{}); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestSQLTaskRoundTrip(t *testing.T) {
	store := openTestSQL(t)
	ctx := context.Background()

	parent, err := store.InsertTask(ctx, todo.Task{Title: "Plan trip", DueDate: "2026-02-03", Priority: todo.PriorityMedium, Status: todo.StatusTodo, UserID: "42"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if parent.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if !parent.CreatedAt.Equal(fixedNow) {
		t.Fatalf("expected created_at %v, got %v", fixedNow, parent.CreatedAt)
	}
	child, err := store.InsertTask(ctx, todo.Task{Title: "Book hotel", DueDate: "2026-02-02", Priority: todo.PriorityCritical, Status: todo.StatusTodo, ParentID: &parent.ID, UserID: "42"})
	if err != nil {
		t.Fatalf("insert child: %v", err)
	}
	if child.ParentID == nil || *child.ParentID != parent.ID {
		t.Fatalf("expected parent link, got %v", child.ParentID)
	}
	if _, err := store.InsertTask(ctx, todo.Task{Title: "Other", DueDate: "2026-02-02", Priority: todo.PriorityHigh, Status: todo.StatusTodo, UserID: "7"}); err != nil {
		t.Fatalf("insert other: %v", err)
	}

	filter := todo.NewFilter(todo.Where(todo.ColumnUserID, todo.OpEq, "42")).OrderBy(todo.Asc(todo.ColumnPriority))
	tasks, err := store.SelectTasks(ctx, filter)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Title != "Book hotel" || tasks[1].Title != "Plan trip" {
		t.Fatalf("unexpected tasks %+v", tasks)
	}

	due := todo.NewFilter(
		todo.Where(todo.ColumnUserID, todo.OpEq, "42"),
		todo.Where(todo.ColumnDueDate, todo.OpGt, "2026-02-02"),
	)
	tasks, err = store.SelectTasks(ctx, due)
	if err != nil {
		t.Fatalf("select due: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != parent.ID {
		t.Fatalf("expected only the parent, got %+v", tasks)
	}

	created := todo.NewFilter(
		todo.Where(todo.ColumnUserID, todo.OpEq, "42"),
		todo.Where(todo.ColumnCreatedAt, todo.OpGte, "2026-02-01T00:00:00Z"),
	)
	tasks, err = store.SelectTasks(ctx, created)
	if err != nil {
		t.Fatalf("select created: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected both tasks created today, got %d", len(tasks))
	}
}

func TestSQLUpdateTasks(t *testing.T) {
	store := openTestSQL(t)
	ctx := context.Background()

	task, err := store.InsertTask(ctx, todo.Task{Title: "Water plants", DueDate: "2026-02-01", Priority: todo.PriorityHigh, Status: todo.StatusTodo, UserID: "42"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	done := todo.StatusDone
	byID := todo.NewFilter(todo.Where(todo.ColumnID, todo.OpEq, "1"))
	if _, err := store.UpdateTasks(ctx, byID, todo.Patch{Status: &done}); !errors.Is(err, errUnscoped) {
		t.Fatalf("expected unscoped update to be refused, got %v", err)
	}

	wrongOwner := byID.And(todo.Where(todo.ColumnUserID, todo.OpEq, "7"))
	updated, err := store.UpdateTasks(ctx, wrongOwner, todo.Patch{Status: &done})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated) != 0 {
		t.Fatalf("expected no rows for another owner, got %+v", updated)
	}

	tomorrow := "2026-02-02"
	owned := byID.And(todo.Where(todo.ColumnUserID, todo.OpEq, "42"))
	updated, err = store.UpdateTasks(ctx, owned, todo.Patch{Status: &done, DueDate: &tomorrow})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated) != 1 || updated[0].ID != task.ID || updated[0].Status != todo.StatusDone || updated[0].DueDate != tomorrow {
		t.Fatalf("unexpected update result %+v", updated)
	}
}

func TestSQLRejectsUnknownColumn(t *testing.T) {
	store := openTestSQL(t)
	filter := todo.NewFilter(todo.Where("title; DROP TABLE tasks", todo.OpEq, "x"))
	if _, err := store.SelectTasks(context.Background(), filter); !errors.Is(err, todo.ErrInvalidColumn) {
		t.Fatalf("expected ErrInvalidColumn, got %v", err)
	}
}

func TestSQLTokens(t *testing.T) {
	store := openTestSQL(t)
	ctx := context.Background()

	first, err := store.InsertToken(ctx, auth.Token{
		UserID:    "42",
		TokenHash: auth.HashToken("one"),
		Name:      "laptop",
		CreatedAt: dates.NewTimestamp(fixedNow),
		ExpiresAt: dates.NewTimestamp(fixedNow.Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("insert token: %v", err)
	}
	second, err := store.InsertToken(ctx, auth.Token{
		UserID:    "42",
		TokenHash: auth.HashToken("two"),
		Name:      "desktop",
		CreatedAt: dates.NewTimestamp(fixedNow.Add(time.Minute)),
		ExpiresAt: dates.NewTimestamp(fixedNow.Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("insert token: %v", err)
	}

	found, err := store.FindTokenByHash(ctx, auth.HashToken("one"))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.ID != first.ID || !found.ExpiresAt.Equal(fixedNow.Add(time.Hour)) {
		t.Fatalf("unexpected token %+v", found)
	}
	if _, err := store.FindTokenByHash(ctx, auth.HashToken("missing")); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	tokens, err := store.ListTokens(ctx, "42")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tokens) != 2 || tokens[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", tokens)
	}

	if _, err := store.DeleteToken(ctx, "7", first.ID); !errors.Is(err, auth.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound for another owner, got %v", err)
	}
	deleted, err := store.DeleteToken(ctx, "42", first.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.Name != "laptop" {
		t.Fatalf("expected laptop deleted, got %+v", deleted)
	}
	if _, err := store.FindTokenByHash(ctx, auth.HashToken("one")); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected deleted token to be gone, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, OpenOptions{Kind: KindSQLite, DSN: filepath.Join(t.TempDir(), "open.db")})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if _, ok := store.(*SQL); !ok {
		t.Fatalf("expected *SQL, got %T", store)
	}

	rest, err := Open(ctx, OpenOptions{Kind: KindREST, URL: "https://example.supabase.co", APIKey: "key"})
	if err != nil {
		t.Fatalf("open rest: %v", err)
	}
	if _, ok := rest.(*REST); !ok {
		t.Fatalf("expected *REST, got %T", rest)
	}

	if _, err := Open(ctx, OpenOptions{Kind: KindREST}); err == nil {
		t.Fatal("expected error without a url")
	}
	if _, err := Open(ctx, OpenOptions{Kind: "mongo"}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
