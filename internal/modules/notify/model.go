// README: Fan-out artifacts derived from job-update events.
package notify

import (
	"time"

	"trafficdesk/internal/types"
)

// Notification is the in-app record created per recipient. Purely derived
// state; re-creatable from the job and its audit trail.
type Notification struct {
	ID            int64
	UserID        types.ID
	JobID         types.ID
	ChangedFields []string
	CreatedAt     time.Time
	ReadAt        *time.Time
}

// JobView is the display-friendly reload of a job used to render messages.
type JobView struct {
	JobID           types.ID
	RefCode         string
	ServiceDate     time.Time
	ServiceType     string
	Status          string
	PaxAdults       int
	PaxChildren     int
	OriginName      string
	DestinationName string
	CustomerName    string
	FlightNumber    string
}
