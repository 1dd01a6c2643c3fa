// Package failure sorts errors into the kinds the CLI and server report
// differently.
package failure

import (
	"errors"
	"fmt"

	"github.com/amonks/tracker/auth"
	"github.com/amonks/tracker/internal/config"
	"github.com/amonks/tracker/todo"
)

// Kind is a category of failure.
type Kind int

const (
	// Upstream covers transport and store errors, and anything unrecognized.
	Upstream Kind = iota
	// Validation is bad user input.
	Validation
	// Auth is a missing, invalid, or expired credential.
	Auth
	// NotFound is a task or token the owner does not have.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Auth:
		return "auth"
	case NotFound:
		return "not found"
	default:
		return "upstream"
	}
}

// ErrUsage marks a malformed command invocation.
var ErrUsage = errors.New("usage")

// Usage returns a validation error carrying a usage message.
func Usage(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func (e *usageError) Is(target error) bool { return target == ErrUsage }

var kinds = []struct {
	kind Kind
	errs []error
}{
	{Validation, []error{
		ErrUsage,
		todo.ErrEmptyTitle,
		todo.ErrTitleTooLong,
		todo.ErrInvalidPriority,
		todo.ErrInvalidID,
		todo.ErrMissingOwner,
		todo.ErrInvalidColumn,
		auth.ErrMissingOwner,
	}},
	{Auth, []error{
		auth.ErrInvalidToken,
		auth.ErrTokenExpired,
		auth.ErrMissingToken,
		config.ErrMissingCredentials,
	}},
	{NotFound, []error{
		todo.ErrTaskNotFound,
		todo.ErrParentNotFound,
		auth.ErrTokenNotFound,
	}},
}

// Classify returns the kind of err. A nil error is Upstream.
func Classify(err error) Kind {
	if err == nil {
		return Upstream
	}
	for _, group := range kinds {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.kind
			}
		}
	}
	return Upstream
}

// ExitCode is the process exit status for err. Not-found is reported
// but is not fatal.
func ExitCode(err error) int {
	if err == nil || Classify(err) == NotFound {
		return 0
	}
	return 1
}
