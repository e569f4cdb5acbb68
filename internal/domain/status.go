package domain

import (
	"fmt"
	"strings"
)

// Status represents the board column a task sits in.
// The string values are the wire values used by the persistence API.
type Status string

const (
	StatusTodo       Status = "To Do"       // Not started
	StatusInProgress Status = "In Progress" // Being worked on
	StatusDone       Status = "Done"        // Finished
)

// AllStatuses returns the board columns in display order.
func AllStatuses() []Status {
	return []Status{
		StatusTodo,
		StatusInProgress,
		StatusDone,
	}
}

// IsValid returns true if the status is one of the three board columns.
func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

// Index returns the column position of the status, or -1 if unknown.
func (s Status) Index() int {
	for i, st := range AllStatuses() {
		if st == s {
			return i
		}
	}
	return -1
}

// Display returns a human-readable representation of the status.
func (s Status) Display() string {
	if s == "" {
		return "(none)"
	}
	return string(s)
}

// ParseStatus resolves user input such as "todo", "in-progress" or "Done"
// to a board status.
func ParseStatus(input string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(input))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	switch key {
	case "todo":
		return StatusTodo, nil
	case "inprogress", "doing":
		return StatusInProgress, nil
	case "done":
		return StatusDone, nil
	}
	return "", fmt.Errorf("%q: %w", input, ErrInvalidStatus)
}

// Priority is the optional urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// IsValid returns true for the three known priorities.
// The empty priority is not valid; callers treat it as "unset".
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// ParsePriority resolves case-insensitive input to a priority.
func ParsePriority(input string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("%q: %w", input, ErrInvalidPriority)
}
