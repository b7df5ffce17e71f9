// README: Fee entries payable to field roles for completed work.
package fees

import (
	"time"

	"trafficdesk/internal/modules/status"
	"trafficdesk/internal/types"
)

// Fee is a monetary record owed to one role identity for one job. The storage
// layer enforces at most one entry per (role, identity, job).
type Fee struct {
	ID         int64
	Role       status.Role
	IdentityID types.ID
	JobID      types.ID
	Amount     types.Money
	CreatedAt  time.Time
}
