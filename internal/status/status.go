// Package status defines the order fulfillment state machine: which
// transitions are legal and which roles may trigger them. The machine
// itself is stateless; callers pass the current status and the requested
// target.
package status

import (
	"errors"
	"fmt"

	"github.com/beanbar-pos/client/internal/enum"
)

// Errors returned by transition checks.
var (
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrRoleNotAllowed    = errors.New("role may not change order status")
)

// IsValid reports whether s is part of the known status taxonomy.
// Inbound events carrying anything else must be dropped, not applied.
func IsValid(s string) bool {
	switch s {
	case enum.OrderStatusPending,
		enum.OrderStatusPreparing,
		enum.OrderStatusReady,
		enum.OrderStatusPaid,
		enum.OrderStatusCancelled,
		enum.OrderStatusCompleted:
		return true
	}
	return false
}

// allowedTransitions defines valid status transitions.
// Key is current status, value is the set of statuses it can transition to.
// paid and cancelled are in the taxonomy but no workflow drives them yet.
var allowedTransitions = map[string][]string{
	enum.OrderStatusPending:   {enum.OrderStatusPreparing},
	enum.OrderStatusPreparing: {enum.OrderStatusReady},
	enum.OrderStatusReady:     {enum.OrderStatusCompleted},
}

// ValidateTransition checks if the transition from current to next is allowed.
func ValidateTransition(current, next string) error {
	if !IsValid(next) {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, next)
	}
	allowed, ok := allowedTransitions[current]
	if !ok {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, current)
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current, next)
}

// CanTrigger checks that the role is allowed to drive the pipeline and
// that the requested transition is legal from the current status.
func CanTrigger(role, current, next string) error {
	if role != enum.RoleBarista {
		return fmt.Errorf("%w: %q", ErrRoleNotAllowed, role)
	}
	return ValidateTransition(current, next)
}

// actionLabels holds the display label for the single forward action a
// queue view offers for each non-terminal status.
var actionLabels = map[string]string{
	enum.OrderStatusPending:   "Start Preparing",
	enum.OrderStatusPreparing: "Mark as Ready",
	enum.OrderStatusReady:     "Complete Order",
}

// NextAction returns the next status in the pipeline and the action label
// for it. ok is false when the current status has no forward action.
func NextAction(current string) (next string, label string, ok bool) {
	allowed, found := allowedTransitions[current]
	if !found || len(allowed) == 0 {
		return "", "", false
	}
	return allowed[0], actionLabels[current], true
}
