package backend

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amonks/tracker/auth"
	"github.com/amonks/tracker/internal/dates"
	"github.com/amonks/tracker/todo"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Dialect selects the SQL driver and schema.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ValidDialects returns the supported dialects.
func ValidDialects() []Dialect {
	return []Dialect{DialectPostgres, DialectSQLite}
}

// SQLOptions configures a SQL store.
type SQLOptions struct {
	// Now stamps created_at. Defaults to time.Now.
	Now func() time.Time
}

// SQL stores rows in a database/sql database.
type SQL struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// OpenSQL connects to dsn and applies the embedded schema.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string, opts SQLOptions) (*SQL, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	var driver string
	switch dialect {
	case DialectPostgres:
		driver = "postgres"
	case DialectSQLite:
		driver = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// Each sqlite connection to :memory: is its own database.
		db.SetMaxOpenConns(1)
	}

	store := &SQL{db: db, dialect: dialect, now: opts.Now}
	if store.now == nil {
		store.now = time.Now
	}
	if err := store.applySchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database.
func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) applySchema(ctx context.Context) error {
	schema, err := schemaFS.ReadFile("schema/" + string(s.dialect) + ".sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders for the dialect.
func (s *SQL) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const taskColumns = "id, title, due_date, priority, status, parent_id, user_id, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (todo.Task, error) {
	var (
		task     todo.Task
		priority string
		status   string
		parentID sql.NullInt64
	)
	if err := row.Scan(&task.ID, &task.Title, &task.DueDate, &priority, &status, &parentID, &task.UserID, &task.CreatedAt); err != nil {
		return todo.Task{}, err
	}
	task.Priority = todo.Priority(priority)
	task.Status = todo.Status(status)
	if parentID.Valid {
		id := parentID.Int64
		task.ParentID = &id
	}
	return task, nil
}

func scanTasks(rows *sql.Rows) ([]todo.Task, error) {
	defer rows.Close()
	var tasks []todo.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// InsertTask creates a task and returns the stored row.
func (s *SQL) InsertTask(ctx context.Context, task todo.Task) (todo.Task, error) {
	var parentID sql.NullInt64
	if task.ParentID != nil {
		parentID = sql.NullInt64{Int64: *task.ParentID, Valid: true}
	}
	query := s.rebind("INSERT INTO tasks (title, due_date, priority, status, parent_id, user_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING " + taskColumns)
	row := s.db.QueryRowContext(ctx, query,
		task.Title, task.DueDate, string(task.Priority), string(task.Status), parentID, task.UserID,
		dates.NewTimestamp(s.now()).String(),
	)
	created, err := scanTask(row)
	if err != nil {
		return todo.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return created, nil
}

// SelectTasks returns the rows matching filter.
func (s *SQL) SelectTasks(ctx context.Context, filter todo.Filter) ([]todo.Task, error) {
	where, args, err := whereClause(filter)
	if err != nil {
		return nil, err
	}
	query := "SELECT " + taskColumns + " FROM tasks" + where + orderClause(filter)
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	return scanTasks(rows)
}

// UpdateTasks patches the rows matching filter and returns them.
func (s *SQL) UpdateTasks(ctx context.Context, filter todo.Filter, patch todo.Patch) ([]todo.Task, error) {
	if _, ok := filter.Owner(); !ok {
		return nil, errUnscoped
	}
	if patch.IsEmpty() {
		return s.SelectTasks(ctx, filter)
	}

	var sets []string
	var args []any
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, *patch.DueDate)
	}
	where, whereArgs, err := whereClause(filter)
	if err != nil {
		return nil, err
	}
	args = append(args, whereArgs...)

	query := "UPDATE tasks SET " + strings.Join(sets, ", ") + where + " RETURNING " + taskColumns
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("update tasks: %w", err)
	}
	return scanTasks(rows)
}

var sqlOps = map[todo.Op]string{
	todo.OpEq:  "=",
	todo.OpLt:  "<",
	todo.OpLte: "<=",
	todo.OpGt:  ">",
	todo.OpGte: ">=",
}

func whereClause(filter todo.Filter) (string, []any, error) {
	if err := filter.Validate(); err != nil {
		return "", nil, err
	}
	if len(filter.Conditions) == 0 {
		return "", nil, nil
	}
	clauses := make([]string, 0, len(filter.Conditions))
	args := make([]any, 0, len(filter.Conditions))
	for _, cond := range filter.Conditions {
		value, err := columnValue(cond.Column, cond.Value)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, cond.Column+" "+sqlOps[cond.Op]+" ?")
		args = append(args, value)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// columnValue converts a filter literal to the column's stored form.
func columnValue(column, value string) (any, error) {
	switch column {
	case todo.ColumnID, todo.ColumnParentID:
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", todo.ErrInvalidID, value)
		}
		return id, nil
	case todo.ColumnCreatedAt:
		parsed, err := dates.ParseTimestamp(value)
		if err != nil {
			return nil, err
		}
		return dates.NewTimestamp(parsed).String(), nil
	default:
		return value, nil
	}
}

func orderClause(filter todo.Filter) string {
	terms := make([]string, 0, len(filter.Order)+1)
	for _, order := range filter.Order {
		direction := "ASC"
		if order.Desc {
			direction = "DESC"
		}
		terms = append(terms, order.Column+" "+direction)
	}
	terms = append(terms, "id ASC")
	return " ORDER BY " + strings.Join(terms, ", ")
}

const tokenColumns = "id, user_id, token_hash, name, created_at, expires_at"

func scanToken(row rowScanner) (auth.Token, error) {
	var token auth.Token
	if err := row.Scan(&token.ID, &token.UserID, &token.TokenHash, &token.Name, &token.CreatedAt, &token.ExpiresAt); err != nil {
		return auth.Token{}, err
	}
	return token, nil
}

// InsertToken stores a token record.
func (s *SQL) InsertToken(ctx context.Context, token auth.Token) (auth.Token, error) {
	created := token.CreatedAt
	if created.IsZero() {
		created = dates.NewTimestamp(s.now())
	}
	query := s.rebind("INSERT INTO api_tokens (user_id, token_hash, name, created_at, expires_at) VALUES (?, ?, ?, ?, ?) RETURNING " + tokenColumns)
	row := s.db.QueryRowContext(ctx, query, token.UserID, token.TokenHash, token.Name, created, token.ExpiresAt)
	stored, err := scanToken(row)
	if err != nil {
		return auth.Token{}, fmt.Errorf("insert token: %w", err)
	}
	return stored, nil
}

// FindTokenByHash returns the token with the given digest.
func (s *SQL) FindTokenByHash(ctx context.Context, hash string) (auth.Token, error) {
	query := s.rebind("SELECT " + tokenColumns + " FROM api_tokens WHERE token_hash = ? LIMIT 1")
	token, err := scanToken(s.db.QueryRowContext(ctx, query, hash))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Token{}, auth.ErrInvalidToken
	}
	if err != nil {
		return auth.Token{}, fmt.Errorf("find token: %w", err)
	}
	return token, nil
}

// ListTokens returns the owner's tokens, newest first.
func (s *SQL) ListTokens(ctx context.Context, owner string) ([]auth.Token, error) {
	query := s.rebind("SELECT " + tokenColumns + " FROM api_tokens WHERE user_id = ? ORDER BY created_at DESC, id DESC")
	rows, err := s.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()
	var tokens []auth.Token
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// DeleteToken removes one of the owner's tokens.
func (s *SQL) DeleteToken(ctx context.Context, owner string, id int64) (auth.Token, error) {
	if owner == "" {
		return auth.Token{}, errUnscoped
	}
	query := s.rebind("DELETE FROM api_tokens WHERE id = ? AND user_id = ? RETURNING " + tokenColumns)
	token, err := scanToken(s.db.QueryRowContext(ctx, query, id, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Token{}, auth.ErrTokenNotFound
	}
	if err != nil {
		return auth.Token{}, fmt.Errorf("delete token: %w", err)
	}
	return token, nil
}
