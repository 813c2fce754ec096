package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Status enumerates the order lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusActive     Status = "active"
	StatusInProgress Status = "in_progress"
	StatusDelivered  Status = "delivered"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusDisputed   Status = "disputed"
)

var (
	ErrInvalidStatus     = errors.New("order status is invalid")
	ErrInvalidTransition = errors.New("order status transition is not allowed")
)

// InvalidTransitionError carries the statuses of a rejected transition.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidTransition).
func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// transitions is the only source of truth for legal status changes.
// Terminal statuses map to an empty set.
var transitions = map[Status]map[Status]struct{}{
	StatusPending:    {StatusActive: {}, StatusCancelled: {}},
	StatusActive:     {StatusInProgress: {}, StatusDelivered: {}, StatusCancelled: {}},
	StatusInProgress: {StatusDelivered: {}, StatusCancelled: {}},
	StatusDelivered:  {StatusCompleted: {}},
	StatusCompleted:  {},
	StatusCancelled:  {},
	StatusDisputed:   {StatusCancelled: {}, StatusCompleted: {}},
}

var orderedStatuses = []Status{
	StatusPending,
	StatusActive,
	StatusInProgress,
	StatusDelivered,
	StatusCompleted,
	StatusCancelled,
	StatusDisputed,
}

// Statuses returns every known status in lifecycle order.
func Statuses() []Status {
	return append([]Status(nil), orderedStatuses...)
}

// ParseStatus converts raw input to a known Status.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

func (s Status) String() string {
	return string(s)
}

// CanTransition reports whether the table allows from -> to.
func CanTransition(from, to Status) bool {
	_, ok := transitions[from][to]
	return ok
}

// AllowedTargets lists the legal next statuses of from, in lifecycle order.
func AllowedTargets(from Status) []Status {
	next := transitions[from]
	targets := make([]Status, 0, len(next))
	for _, status := range orderedStatuses {
		if _, ok := next[status]; ok {
			targets = append(targets, status)
		}
	}
	return targets
}
