package todo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/amonks/tracker/internal/validation"
)

var (
	// ErrEmptyTitle is returned when a task title is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrTitleTooLong is returned when a task title exceeds MaxTitleLength.
	ErrTitleTooLong = errors.New("title exceeds maximum length")

	// ErrInvalidPriority is returned when a priority is not P0..P4.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrInvalidID is returned when a task id is not a positive integer.
	ErrInvalidID = errors.New("invalid task id")

	// ErrMissingOwner is returned when an operation is not scoped to an owner.
	ErrMissingOwner = errors.New("owner is required")

	// ErrTaskNotFound is returned when no owned task matches the given id.
	ErrTaskNotFound = errors.New("task not found")

	// ErrParentNotFound is returned when a subtask's parent is missing or not owned.
	ErrParentNotFound = errors.New("parent task not found")

	// ErrInvalidColumn is returned when a filter names an unknown column.
	ErrInvalidColumn = errors.New("invalid column")
)

// ValidateTitle checks if the title is valid.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if length := utf8.RuneCountInString(title); length > MaxTitleLength {
		return fmt.Errorf("%w: %d > %d", ErrTitleTooLong, length, MaxTitleLength)
	}
	return nil
}

// ValidatePriority checks if the priority is valid.
func ValidatePriority(priority Priority) error {
	if !priority.IsValid() {
		return validation.FormatInvalidValueError(ErrInvalidPriority, priority, ValidPriorities())
	}
	return nil
}

// ParseID parses a user-supplied task id.
func ParseID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, value)
	}
	return id, nil
}
