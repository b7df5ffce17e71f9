// README: Time-lock gate restricting field-role status edits to a window after the service date.
package timelock

import (
	"errors"
	"time"
)

// DefaultWindow is how long after the service date field roles may still edit
// their status.
const DefaultWindow = 48 * time.Hour

// ErrLocked is deliberately worded unlike a transition rejection so portal UIs
// can tell "window closed" apart from "bad sequence".
var ErrLocked = errors.New("status edit window for this job has closed")

// Gate is a pure read-check with no side effects. Now is overridable for tests.
type Gate struct {
	Window time.Duration
	Now    func() time.Time
}

func NewGate(window time.Duration) Gate {
	if window <= 0 {
		window = DefaultWindow
	}
	return Gate{Window: window, Now: time.Now}
}

// Allowed reports whether a field role may still mutate its status. Any
// non-nil unlock marker bypasses the window permanently for that job/role.
func (g Gate) Allowed(serviceDate time.Time, unlockedAt *time.Time) bool {
	if unlockedAt != nil {
		return true
	}
	return !g.Now().After(serviceDate.Add(g.Window))
}

// Check returns ErrLocked when the window has closed and no unlock is present.
func (g Gate) Check(serviceDate time.Time, unlockedAt *time.Time) error {
	if !g.Allowed(serviceDate, unlockedAt) {
		return ErrLocked
	}
	return nil
}
