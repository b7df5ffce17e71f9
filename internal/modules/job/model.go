// README: Job aggregate and its single active assignment.
package job

import (
	"time"

	"trafficdesk/internal/modules/status"
	"trafficdesk/internal/types"
)

type ServiceType string

const (
	ServiceArrival   ServiceType = "arrival"
	ServiceDeparture ServiceType = "departure"
	ServiceOther     ServiceType = "other"
)

type Job struct {
	ID            types.ID
	RefCode       string
	ServiceDate   time.Time
	ServiceType   ServiceType
	PaxAdults     int
	PaxChildren   int
	OriginID      types.ID
	DestinationID types.ID
	Status        status.Status

	// Guard inputs for the driver completion rule.
	CollectionRequired  bool
	CollectionCollected bool

	CustomerName string
	FlightNumber string

	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Assignment binds a job to a vehicle and at most one driver and one rep.
// Rows are append-only: a reassignment supersedes the old version instead of
// mutating it, so the status-change log keeps pointing at real history.
type Assignment struct {
	ID        types.ID
	JobID     types.ID
	VehicleID types.ID
	DriverID  *types.ID
	RepID     *types.ID

	DriverStatus   status.Status
	RepStatus      status.Status
	SupplierStatus status.Status
	SupplierNotes  *string

	CreatedAt    time.Time
	SupersededAt *time.Time
}

// RoleUnlock is the persisted admin override for the time-lock gate.
type RoleUnlock struct {
	JobID      types.ID
	Role       status.Role
	UnlockedAt time.Time
	UnlockedBy types.ID
}
