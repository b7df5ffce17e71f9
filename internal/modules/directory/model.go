// README: User/permission directory consumed at the core's boundary.
package directory

import (
	"errors"
	"time"

	"trafficdesk/internal/types"
)

// ErrNoIdentity means the user has no linked record for the role they claim.
var ErrNoIdentity = errors.New("no role identity linked to user")

type User struct {
	ID               types.ID
	Name             string
	Email            string
	Role             string
	NotifyJobUpdates bool
	Active           bool
	DeletedAt        *time.Time
}

// Driver and Rep carry the configured flat fee used by fee posting.
type Driver struct {
	ID      types.ID
	UserID  types.ID
	Name    string
	FlatFee types.Money
}

type Rep struct {
	ID      types.ID
	UserID  types.ID
	Name    string
	FlatFee types.Money
}

type Supplier struct {
	ID     types.ID
	UserID types.ID
	Name   string
}

// Recipient is one eligible target of the job-update fan-out.
type Recipient struct {
	UserID types.ID
	Email  string
}
