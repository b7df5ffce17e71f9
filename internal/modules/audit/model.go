// README: Append-only audit records for status transitions and no-show evidence.
package audit

import (
	"time"

	"trafficdesk/internal/modules/status"
	"trafficdesk/internal/types"
)

// ChangeEntry records one accepted status transition. Entries are written
// exactly once inside the mutating transaction and never updated or deleted.
type ChangeEntry struct {
	ID           int64
	AssignmentID types.ID
	Role         status.Role
	ActorID      types.ID
	FromStatus   status.Status
	ToStatus     status.Status
	Position     *types.Point
	MapLink      string
	// Great-circle distance from the job origin at the moment of the report,
	// when the origin has coordinates.
	OriginDistanceKm *float64
	CreatedAt        time.Time
}

// NoShowEvidence ties the two mandatory photos and the reporting position to a
// job when a role records a no-show.
type NoShowEvidence struct {
	ID        int64
	JobID     types.ID
	Photo1    string
	Photo2    string
	Position  types.Point
	Role      status.Role
	ActorID   types.ID
	CreatedAt time.Time
}
