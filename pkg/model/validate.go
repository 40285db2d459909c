package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTitleRequired        = errors.New("task title is required")
	ErrInvalidBlockDuration = errors.New("block duration must be 30 or 60 minutes")
	ErrInvalidStatus        = errors.New("invalid task status")
	ErrInvalidPriority      = errors.New("invalid task priority")
)

// ValidateInput checks the fields the store expects callers to have validated.
func ValidateInput(in TaskInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrTitleRequired
	}
	if in.ScheduledAt != nil {
		if err := ValidateBlockDuration(in.DurationMinutes); err != nil {
			return err
		}
	}
	return nil
}

func ValidateBlockDuration(minutes int) error {
	if minutes != 30 && minutes != 60 {
		return fmt.Errorf("%w: got %d", ErrInvalidBlockDuration, minutes)
	}
	return nil
}

func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusTodo:
		return StatusTodo, nil
	case StatusInProgress, "inprogress", "doing":
		return StatusInProgress, nil
	case StatusCompleted, "done":
		return StatusCompleted, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func ParsePriority(s string) (Priority, error) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow, "l":
		return PriorityLow, nil
	case PriorityMedium, "m":
		return PriorityMedium, nil
	case PriorityHigh, "h":
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusCompleted
}

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}
