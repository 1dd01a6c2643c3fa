package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/amonks/tracker/auth"
	"github.com/amonks/tracker/internal/backend"
	"github.com/amonks/tracker/internal/dates"
	"github.com/amonks/tracker/internal/postgrest"
	"github.com/amonks/tracker/server"
	"github.com/amonks/tracker/todo"
)

// FakeRESTOptions configures a FakeREST.
type FakeRESTOptions struct {
	// Now stamps created_at and decides token expiry. Defaults to time.Now.
	Now func() time.Time
	// Dir holds the SQLite database. Defaults to t.TempDir().
	Dir string
}

// FakeREST serves the subset of PostgREST and the token verify function
// that the tracker uses, backed by a SQLite store.
type FakeREST struct {
	Store  *backend.SQL
	Tokens *auth.Manager

	server *httptest.Server

	mu      sync.Mutex
	headers []http.Header
}

// NewFakeREST starts a fake and registers cleanup with t.
func NewFakeREST(t testing.TB, opts FakeRESTOptions) *FakeREST {
	t.Helper()
	dir := opts.Dir
	if dir == "" {
		dir = t.TempDir()
	}
	fake, err := StartFakeREST(dir, opts.Now)
	if err != nil {
		t.Fatalf("start fake rest: %v", err)
	}
	t.Cleanup(fake.Close)
	return fake
}

// StartFakeREST starts a fake storing its database under dir.
func StartFakeREST(dir string, now func() time.Time) (*FakeREST, error) {
	if now == nil {
		now = time.Now
	}
	if dir == "" {
		return nil, errors.New("fake rest needs a directory")
	}
	store, err := backend.OpenSQL(context.Background(), backend.DialectSQLite, filepath.Join(dir, "fake-rest.db"), backend.SQLOptions{Now: now})
	if err != nil {
		return nil, err
	}
	fake := &FakeREST{
		Store:  store,
		Tokens: auth.NewManager(store, auth.Options{Now: now}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/v1/"+backend.TasksTable, fake.handleTasks)
	mux.HandleFunc("/rest/v1/"+backend.TokensTable, fake.handleTokens)
	mux.Handle("/functions/v1/auth-verify", server.VerifyHandler(fake.Tokens))
	fake.server = httptest.NewServer(fake.record(mux))
	return fake, nil
}

// URL is the project URL to configure clients with.
func (f *FakeREST) URL() string {
	return f.server.URL
}

// VerifyURL is the token verify endpoint.
func (f *FakeREST) VerifyURL() string {
	return f.server.URL + "/functions/v1/auth-verify"
}

// Close stops the server and closes the store.
func (f *FakeREST) Close() {
	f.server.Close()
	_ = f.Store.Close()
}

// Headers returns the headers of every request served so far.
func (f *FakeREST) Headers() []http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]http.Header(nil), f.headers...)
}

func (f *FakeREST) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.headers = append(f.headers, r.Header.Clone())
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeREST) handleTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeRESTError(w, http.StatusBadRequest, err)
		return
	}
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		tasks, err := f.Store.SelectTasks(ctx, filter)
		respond(w, http.StatusOK, nonNil(tasks), err)
	case http.MethodPost:
		var task todo.Task
		if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
			writeRESTError(w, http.StatusBadRequest, err)
			return
		}
		created, err := f.Store.InsertTask(ctx, task)
		respond(w, http.StatusCreated, []todo.Task{created}, err)
	case http.MethodPatch:
		var body struct {
			Status  *todo.Status `json:"status"`
			DueDate *string      `json:"due_date"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeRESTError(w, http.StatusBadRequest, err)
			return
		}
		tasks, err := f.Store.UpdateTasks(ctx, filter, todo.Patch{Status: body.Status, DueDate: body.DueDate})
		respond(w, http.StatusOK, nonNil(tasks), err)
	default:
		writeRESTError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

func (f *FakeREST) handleTokens(w http.ResponseWriter, r *http.Request) {
	parsed, err := postgrest.ParseQuery(r.URL.Query())
	if err != nil {
		writeRESTError(w, http.StatusBadRequest, err)
		return
	}
	eq := map[string]string{}
	for _, filter := range parsed.Filters {
		if filter.Op == "eq" {
			eq[filter.Column] = filter.Value
		}
	}
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		if hash, ok := eq["token_hash"]; ok {
			token, err := f.Store.FindTokenByHash(ctx, hash)
			if errors.Is(err, auth.ErrInvalidToken) {
				respond(w, http.StatusOK, []auth.Token{}, nil)
				return
			}
			respond(w, http.StatusOK, []auth.Token{token}, err)
			return
		}
		tokens, err := f.Store.ListTokens(ctx, eq["user_id"])
		respond(w, http.StatusOK, nonNil(tokens), err)
	case http.MethodPost:
		var token auth.Token
		if err := json.NewDecoder(r.Body).Decode(&token); err != nil {
			writeRESTError(w, http.StatusBadRequest, err)
			return
		}
		created, err := f.Store.InsertToken(ctx, token)
		respond(w, http.StatusCreated, []auth.Token{created}, err)
	case http.MethodDelete:
		id, err := strconv.ParseInt(eq["id"], 10, 64)
		if err != nil {
			writeRESTError(w, http.StatusBadRequest, err)
			return
		}
		token, err := f.Store.DeleteToken(ctx, eq["user_id"], id)
		if errors.Is(err, auth.ErrTokenNotFound) {
			respond(w, http.StatusOK, []auth.Token{}, nil)
			return
		}
		respond(w, http.StatusOK, []auth.Token{token}, err)
	default:
		writeRESTError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

// IssueToken stores a token for owner that expires after ttl and returns its secret.
func (f *FakeREST) IssueToken(ctx context.Context, owner string, ttl time.Duration) (string, error) {
	secret, err := auth.GenerateSecret()
	if err != nil {
		return "", err
	}
	now := time.Now()
	_, err = f.Store.InsertToken(ctx, auth.Token{
		UserID:    owner,
		TokenHash: auth.HashToken(secret),
		Name:      auth.DefaultTokenName,
		CreatedAt: dates.NewTimestamp(now),
		ExpiresAt: dates.NewTimestamp(now.Add(ttl)),
	})
	if err != nil {
		return "", err
	}
	return secret, nil
}

func parseFilter(r *http.Request) (todo.Filter, error) {
	parsed, err := postgrest.ParseQuery(r.URL.Query())
	if err != nil {
		return todo.Filter{}, err
	}
	var filter todo.Filter
	for _, term := range parsed.Filters {
		filter.Conditions = append(filter.Conditions, todo.Where(term.Column, todo.Op(term.Op), term.Value))
	}
	for _, order := range parsed.Order {
		filter.Order = append(filter.Order, todo.Order{Column: order.Column, Desc: order.Desc})
	}
	return filter, filter.Validate()
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}

func respond(w http.ResponseWriter, status int, payload any, err error) {
	if err != nil {
		writeRESTError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, status, payload)
}

func writeRESTError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"code": "PGRST000", "message": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
