package todo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amonks/tracker/internal/dates"
)

// Backend persists tasks. Implementations must return the rows as stored,
// including store-assigned ids and timestamps.
type Backend interface {
	InsertTask(ctx context.Context, task Task) (Task, error)
	SelectTasks(ctx context.Context, filter Filter) ([]Task, error)
	UpdateTasks(ctx context.Context, filter Filter, patch Patch) ([]Task, error)
}

// GatewayOptions configures a Gateway.
type GatewayOptions struct {
	// Now returns the current time; its location decides "today".
	// Defaults to time.Now.
	Now func() time.Time
}

// Gateway runs task operations scoped to a single owner.
type Gateway struct {
	backend Backend
	now     func() time.Time
}

// NewGateway wraps a backend.
func NewGateway(backend Backend, opts GatewayOptions) *Gateway {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Gateway{backend: backend, now: now}
}

// Now returns the gateway's current time.
func (g *Gateway) Now() time.Time {
	return g.now()
}

// Today returns the gateway's current calendar day.
func (g *Gateway) Today() string {
	return dates.Day(g.now())
}

// Create inserts a new pending task from a parsed directive.
func (g *Gateway) Create(ctx context.Context, owner string, directive Directive) (Task, error) {
	return g.insert(ctx, owner, directive, nil)
}

// ListPending returns the owner's pending tasks, most urgent first.
func (g *Gateway) ListPending(ctx context.Context, owner string) ([]Task, error) {
	filter := NewFilter(Where(ColumnStatus, OpEq, string(StatusTodo))).
		OrderBy(Asc(ColumnPriority), Asc(ColumnDueDate))
	return g.Find(ctx, owner, filter)
}

// Complete marks a task done. Completing a done task again succeeds.
func (g *Gateway) Complete(ctx context.Context, owner string, id int64) (Task, error) {
	status := StatusDone
	return g.updateOne(ctx, owner, id, Patch{Status: &status})
}

// Reschedule moves a task's due date to tomorrow.
func (g *Gateway) Reschedule(ctx context.Context, owner string, id int64) (Task, error) {
	tomorrow := dates.AddDays(g.now(), 1)
	return g.updateOne(ctx, owner, id, Patch{DueDate: &tomorrow})
}

// CreateChild inserts a subtask under an owned parent. The child inherits
// the parent's due date and priority unless the directive set them.
// A new row has no descendants, so it cannot close a cycle.
func (g *Gateway) CreateChild(ctx context.Context, owner string, parentID int64, directive Directive) (child Task, parent Task, err error) {
	parent, err = g.Get(ctx, owner, parentID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return Task{}, Task{}, fmt.Errorf("%w: %d", ErrParentNotFound, parentID)
		}
		return Task{}, Task{}, err
	}

	if !directive.PriorityExplicit && parent.Priority.IsValid() {
		directive.Priority = parent.Priority
	}
	if !directive.DueExplicit && parent.DueDate != "" {
		directive.DueDate = parent.DueDate
	}

	child, err = g.insert(ctx, owner, directive, &parent.ID)
	if err != nil {
		return Task{}, Task{}, err
	}
	return child, parent, nil
}

// Get returns one owned task.
func (g *Gateway) Get(ctx context.Context, owner string, id int64) (Task, error) {
	if id <= 0 {
		return Task{}, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	tasks, err := g.Find(ctx, owner, NewFilter(Where(ColumnID, OpEq, strconv.FormatInt(id, 10))))
	if err != nil {
		return Task{}, err
	}
	if len(tasks) == 0 {
		return Task{}, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	return tasks[0], nil
}

// Find returns the owner's tasks matching filter.
func (g *Gateway) Find(ctx context.Context, owner string, filter Filter) ([]Task, error) {
	scoped, err := scope(owner, filter)
	if err != nil {
		return nil, err
	}
	tasks, err := g.backend.SelectTasks(ctx, scoped)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	return tasks, nil
}

func (g *Gateway) insert(ctx context.Context, owner string, directive Directive, parentID *int64) (Task, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return Task{}, ErrMissingOwner
	}
	if err := ValidateTitle(directive.Title); err != nil {
		return Task{}, err
	}
	priority := directive.Priority
	if priority == "" {
		priority = PriorityDefault
	}
	if err := ValidatePriority(priority); err != nil {
		return Task{}, err
	}
	due := directive.DueDate
	if due == "" {
		due = dates.AddDays(g.now(), 1)
	}

	created, err := g.backend.InsertTask(ctx, Task{
		Title:    directive.Title,
		DueDate:  due,
		Priority: priority,
		Status:   StatusTodo,
		ParentID: parentID,
		UserID:   owner,
	})
	if err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return created, nil
}

func (g *Gateway) updateOne(ctx context.Context, owner string, id int64, patch Patch) (Task, error) {
	if id <= 0 {
		return Task{}, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	filter, err := scope(owner, NewFilter(Where(ColumnID, OpEq, strconv.FormatInt(id, 10))))
	if err != nil {
		return Task{}, err
	}
	updated, err := g.backend.UpdateTasks(ctx, filter, patch)
	if err != nil {
		return Task{}, fmt.Errorf("update task %d: %w", id, err)
	}
	if len(updated) == 0 {
		return Task{}, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	return updated[0], nil
}

// scope prepends the owner condition every read and write must carry.
func scope(owner string, filter Filter) (Filter, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return Filter{}, ErrMissingOwner
	}
	if err := filter.Validate(); err != nil {
		return Filter{}, err
	}
	scoped := NewFilter(Where(ColumnUserID, OpEq, owner)).And(filter.Conditions...)
	return scoped.OrderBy(filter.Order...), nil
}
