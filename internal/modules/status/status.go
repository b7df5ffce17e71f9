// README: Role status vocabularies and transition tables for the job lifecycle.
package status

import (
	"errors"
	"fmt"
	"strings"
)

type Role string

const (
	RoleDispatcher Role = "dispatcher"
	RoleDriver     Role = "driver"
	RoleRep        Role = "rep"
	RoleSupplier   Role = "supplier"
)

type Status string

const (
	StatusNone       Status = "none"
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// Each role evolves its own column on the shared job/assignment record, so each
// role gets its own transition table. Terminal states have no entry.
var transitions = map[Role]map[Status][]Status{
	RoleDispatcher: {
		StatusPending:    {StatusAssigned, StatusCancelled},
		StatusAssigned:   {StatusInProgress},
		StatusInProgress: {StatusCompleted, StatusCancelled, StatusNoShow},
	},
	RoleDriver: {
		StatusPending:    {StatusInProgress, StatusCompleted, StatusCancelled},
		StatusInProgress: {StatusCompleted, StatusCancelled},
	},
	RoleRep: {
		StatusPending: {StatusCompleted, StatusCancelled},
	},
	RoleSupplier: {
		StatusPending:    {StatusInProgress, StatusCompleted},
		StatusInProgress: {StatusCompleted},
	},
}

var vocabularies = map[Role][]Status{
	RoleDispatcher: {StatusPending, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow},
	RoleDriver:     {StatusPending, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow},
	RoleRep:        {StatusPending, StatusCompleted, StatusCancelled, StatusNoShow},
	RoleSupplier:   {StatusPending, StatusInProgress, StatusCompleted},
}

// States from which a role may still record a no-show. NoShow itself is never
// reached through the transition tables, only through evidence submission.
var noShowEligible = map[Role][]Status{
	RoleDriver: {StatusPending, StatusInProgress},
	RoleRep:    {StatusPending},
}

var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionError reports the attempted move together with the allowed set so
// portal clients can reconcile their view of the job.
type TransitionError struct {
	Role      Role
	Current   Status
	Attempted Status
}

func (e *TransitionError) Error() string {
	allowed := "none"
	if next := AllowedNext(e.Role, e.Current); len(next) > 0 {
		parts := make([]string, len(next))
		for i, s := range next {
			parts[i] = string(s)
		}
		allowed = strings.Join(parts, ", ")
	}
	return fmt.Sprintf("%s status %s cannot move to %s (allowed: %s)", e.Role, e.Current, e.Attempted, allowed)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// AllowedNext returns the states reachable from the current one, or nil for
// terminal states.
func AllowedNext(r Role, from Status) []Status {
	return transitions[r][from]
}

func CanTransition(r Role, from, to Status) bool {
	for _, s := range transitions[r][from] {
		if s == to {
			return true
		}
	}
	return false
}

// Check validates a move against the role's table and returns a
// *TransitionError (matching ErrInvalidTransition) when it is rejected.
func Check(r Role, from, to Status) error {
	if !CanTransition(r, from, to) {
		return &TransitionError{Role: r, Current: from, Attempted: to}
	}
	return nil
}

// IsTerminal reports whether the state has no outgoing transitions for the role.
func IsTerminal(r Role, s Status) bool {
	return InVocabulary(r, s) && len(transitions[r][s]) == 0
}

// InVocabulary reports whether the state exists at all for the role; used to
// reject unknown statuses before table lookup.
func InVocabulary(r Role, s Status) bool {
	for _, v := range vocabularies[r] {
		if v == s {
			return true
		}
	}
	return false
}

// NoShowEligible reports whether the role may record a no-show from the state.
func NoShowEligible(r Role, s Status) bool {
	for _, v := range noShowEligible[r] {
		if v == s {
			return true
		}
	}
	return false
}
