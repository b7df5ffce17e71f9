// README: Transition-table tests for all four role machines.
package status

import (
	"errors"
	"strings"
	"testing"
)

func TestDispatcherTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// forward chain
		{StatusPending, StatusAssigned, true},
		{StatusAssigned, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusInProgress, StatusNoShow, true},
		// early cancel
		{StatusPending, StatusCancelled, true},
		// invalid: skipping states
		{StatusPending, StatusInProgress, false},
		{StatusPending, StatusCompleted, false},
		{StatusAssigned, StatusCompleted, false},
		{StatusAssigned, StatusCancelled, false},
		// invalid: terminal states have no outgoing transitions
		{StatusCompleted, StatusPending, false},
		{StatusCancelled, StatusAssigned, false},
		{StatusNoShow, StatusInProgress, false},
		// invalid: backwards
		{StatusInProgress, StatusAssigned, false},
		{StatusAssigned, StatusPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(RoleDispatcher, tc.from, tc.to); got != tc.want {
			t.Errorf("dispatcher CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestDriverTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusCancelled, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusInProgress, StatusPending, false},
		{StatusCompleted, StatusPending, false},
		{StatusCancelled, StatusInProgress, false},
		{StatusNoShow, StatusPending, false},
		// dispatcher-only state is not in the driver vocabulary
		{StatusPending, StatusAssigned, false},
	}
	for _, tc := range cases {
		if got := CanTransition(RoleDriver, tc.from, tc.to); got != tc.want {
			t.Errorf("driver CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestRepTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusCancelled, true},
		// reps have no intermediate in_progress state
		{StatusPending, StatusInProgress, false},
		{StatusInProgress, StatusCompleted, false},
		{StatusCompleted, StatusPending, false},
		{StatusNoShow, StatusCompleted, false},
	}
	for _, tc := range cases {
		if got := CanTransition(RoleRep, tc.from, tc.to); got != tc.want {
			t.Errorf("rep CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestSupplierTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusCompleted, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusPending, StatusCancelled, false},
		{StatusInProgress, StatusCancelled, false},
		{StatusCompleted, StatusPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(RoleSupplier, tc.from, tc.to); got != tc.want {
			t.Errorf("supplier CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCheckEnumeratesAllowedSet(t *testing.T) {
	err := Check(RoleDriver, StatusInProgress, StatusPending)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "in_progress") || !strings.Contains(msg, "completed, cancelled") {
		t.Fatalf("error should name current status and allowed set, got %q", msg)
	}
}

func TestCheckTerminalSaysNone(t *testing.T) {
	err := Check(RoleRep, StatusCompleted, StatusPending)
	if err == nil {
		t.Fatal("expected error for terminal state")
	}
	if !strings.Contains(err.Error(), "allowed: none") {
		t.Fatalf("terminal rejection should state none, got %q", err.Error())
	}
}

func TestIsTerminal(t *testing.T) {
	for _, r := range []Role{RoleDriver, RoleRep} {
		for _, s := range []Status{StatusCompleted, StatusCancelled, StatusNoShow} {
			if !IsTerminal(r, s) {
				t.Errorf("%s %s should be terminal", r, s)
			}
		}
		if IsTerminal(r, StatusPending) {
			t.Errorf("%s pending should not be terminal", r)
		}
	}
	if !IsTerminal(RoleSupplier, StatusCompleted) {
		t.Error("supplier completed should be terminal")
	}
}

func TestNoShowEligibility(t *testing.T) {
	if !NoShowEligible(RoleDriver, StatusPending) || !NoShowEligible(RoleDriver, StatusInProgress) {
		t.Error("driver should be no-show eligible from pending and in_progress")
	}
	if NoShowEligible(RoleDriver, StatusCompleted) {
		t.Error("driver completed should not be no-show eligible")
	}
	if !NoShowEligible(RoleRep, StatusPending) {
		t.Error("rep should be no-show eligible from pending")
	}
	if NoShowEligible(RoleRep, StatusCancelled) || NoShowEligible(RoleSupplier, StatusPending) {
		t.Error("rep terminal / supplier states should not be no-show eligible")
	}
}
