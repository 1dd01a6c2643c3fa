// Package backend stores tasks and tokens for the todo and auth packages.
//
// REST talks to a hosted PostgREST API; SQL talks to Postgres or SQLite
// directly. Both implement todo.Backend and auth.Backend.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/amonks/tracker/auth"
	"github.com/amonks/tracker/internal/dates"
	"github.com/amonks/tracker/internal/postgrest"
	"github.com/amonks/tracker/todo"
)

// Table names.
const (
	TasksTable  = "tasks"
	TokensTable = "api_tokens"
)

// errUnscoped is returned for writes that do not name an owner.
var errUnscoped = errors.New("refusing to write without an owner condition")

// REST stores rows through a PostgREST API.
type REST struct {
	client *postgrest.Client
}

// NewREST wraps a PostgREST client.
func NewREST(client *postgrest.Client) *REST {
	return &REST{client: client}
}

type taskInsert struct {
	Title    string        `json:"title"`
	DueDate  string        `json:"due_date"`
	Priority todo.Priority `json:"priority"`
	Status   todo.Status   `json:"status"`
	ParentID *int64        `json:"parent_id,omitempty"`
	UserID   string        `json:"user_id"`
}

// InsertTask creates a task and returns the stored row.
func (r *REST) InsertTask(ctx context.Context, task todo.Task) (todo.Task, error) {
	var rows []todo.Task
	err := r.client.Insert(ctx, TasksTable, taskInsert{
		Title:    task.Title,
		DueDate:  task.DueDate,
		Priority: task.Priority,
		Status:   task.Status,
		ParentID: task.ParentID,
		UserID:   task.UserID,
	}, &rows)
	if err != nil {
		return todo.Task{}, err
	}
	if len(rows) == 0 {
		return todo.Task{}, fmt.Errorf("insert %s: no row returned", TasksTable)
	}
	return rows[0], nil
}

// SelectTasks returns the rows matching filter.
func (r *REST) SelectTasks(ctx context.Context, filter todo.Filter) ([]todo.Task, error) {
	var rows []todo.Task
	if err := r.client.Select(ctx, TasksTable, filterQuery(filter), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateTasks patches the rows matching filter and returns them.
func (r *REST) UpdateTasks(ctx context.Context, filter todo.Filter, patch todo.Patch) ([]todo.Task, error) {
	if _, ok := filter.Owner(); !ok {
		return nil, errUnscoped
	}
	if patch.IsEmpty() {
		return r.SelectTasks(ctx, filter)
	}
	body := map[string]any{}
	if patch.Status != nil {
		body[todo.ColumnStatus] = *patch.Status
	}
	if patch.DueDate != nil {
		body[todo.ColumnDueDate] = *patch.DueDate
	}
	var rows []todo.Task
	if err := r.client.Update(ctx, TasksTable, filterQuery(filter), body, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func filterQuery(filter todo.Filter) *postgrest.Query {
	query := postgrest.NewQuery()
	for _, cond := range filter.Conditions {
		query.Filter(cond.Column, string(cond.Op), cond.Value)
	}
	for _, order := range filter.Order {
		query.Order(order.Column, order.Desc)
	}
	return query
}

type tokenInsert struct {
	UserID    string          `json:"user_id"`
	TokenHash string          `json:"token_hash"`
	Name      string          `json:"name"`
	ExpiresAt dates.Timestamp `json:"expires_at"`
}

// InsertToken stores a token record; created_at is assigned by the store.
func (r *REST) InsertToken(ctx context.Context, token auth.Token) (auth.Token, error) {
	var rows []auth.Token
	err := r.client.Insert(ctx, TokensTable, tokenInsert{
		UserID:    token.UserID,
		TokenHash: token.TokenHash,
		Name:      token.Name,
		ExpiresAt: token.ExpiresAt,
	}, &rows)
	if err != nil {
		return auth.Token{}, err
	}
	if len(rows) == 0 {
		return auth.Token{}, fmt.Errorf("insert %s: no row returned", TokensTable)
	}
	return rows[0], nil
}

// FindTokenByHash returns the token with the given digest.
func (r *REST) FindTokenByHash(ctx context.Context, hash string) (auth.Token, error) {
	var rows []auth.Token
	query := postgrest.NewQuery().Eq("token_hash", hash).Limit(1)
	if err := r.client.Select(ctx, TokensTable, query, &rows); err != nil {
		return auth.Token{}, err
	}
	if len(rows) == 0 {
		return auth.Token{}, auth.ErrInvalidToken
	}
	return rows[0], nil
}

// ListTokens returns the owner's tokens, newest first.
func (r *REST) ListTokens(ctx context.Context, owner string) ([]auth.Token, error) {
	var rows []auth.Token
	query := postgrest.NewQuery().Eq("user_id", owner).Order("created_at", true)
	if err := r.client.Select(ctx, TokensTable, query, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteToken removes one of the owner's tokens.
func (r *REST) DeleteToken(ctx context.Context, owner string, id int64) (auth.Token, error) {
	if owner == "" {
		return auth.Token{}, errUnscoped
	}
	var rows []auth.Token
	query := postgrest.NewQuery().Eq("id", strconv.FormatInt(id, 10)).Eq("user_id", owner)
	if err := r.client.Delete(ctx, TokensTable, query, &rows); err != nil {
		return auth.Token{}, err
	}
	if len(rows) == 0 {
		return auth.Token{}, auth.ErrTokenNotFound
	}
	return rows[0], nil
}
