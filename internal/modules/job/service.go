// README: Dispatcher-side job lifecycle: status machine, assignment, locking, fee side effect.
package job

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"trafficdesk/internal/modules/audit"
	"trafficdesk/internal/modules/directory"
	"trafficdesk/internal/modules/fees"
	"trafficdesk/internal/modules/status"
	"trafficdesk/internal/types"
)

var (
	ErrNotFound   = errors.New("job not found")
	ErrConflict   = errors.New("job state conflict")
	ErrBadRequest = errors.New("bad request")
)

// Notifier receives the post-commit job-update hook. Implementations must not
// fail the caller; delivery problems are theirs to log.
type Notifier interface {
	JobUpdated(ctx context.Context, jobID, actorUserID types.ID, changedFields []string)
}

type Service struct {
	pool     *pgxpool.Pool
	store    *Store
	fees     *fees.Store
	audit    *audit.Store
	dir      *directory.Store
	notifier Notifier
}

func NewService(pool *pgxpool.Pool, store *Store, feeStore *fees.Store, auditStore *audit.Store, dir *directory.Store, notifier Notifier) *Service {
	return &Service{pool: pool, store: store, fees: feeStore, audit: auditStore, dir: dir, notifier: notifier}
}

type CreateCommand struct {
	RefCode            string
	ServiceDate        time.Time
	ServiceType        ServiceType
	PaxAdults          int
	PaxChildren        int
	OriginID           types.ID
	DestinationID      types.ID
	CollectionRequired bool
	CustomerName       string
	FlightNumber       string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.RefCode == "" || cmd.ServiceType == "" || cmd.ServiceDate.IsZero() {
		return "", ErrBadRequest
	}
	j := &Job{
		ID:                 newID(),
		RefCode:            cmd.RefCode,
		ServiceDate:        cmd.ServiceDate,
		ServiceType:        cmd.ServiceType,
		PaxAdults:          cmd.PaxAdults,
		PaxChildren:        cmd.PaxChildren,
		OriginID:           cmd.OriginID,
		DestinationID:      cmd.DestinationID,
		Status:             status.StatusPending,
		CollectionRequired: cmd.CollectionRequired,
		CustomerName:       cmd.CustomerName,
		FlightNumber:       cmd.FlightNumber,
		CreatedAt:          time.Now(),
	}
	if err := s.store.CreateJob(ctx, j); err != nil {
		return "", err
	}
	return j.ID, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Job, error) {
	return s.store.GetJob(ctx, id)
}

type SetStatusCommand struct {
	JobID       types.ID
	ActorUserID types.ID
	NewStatus   status.Status
}

// SetStatus runs the dispatcher machine. On completion of an arrival job with
// a rep on the active assignment it also posts the rep's flat fee, inside the
// same transaction and idempotently.
func (s *Service) SetStatus(ctx context.Context, cmd SetStatusCommand) error {
	j, err := s.store.GetJob(ctx, cmd.JobID)
	if err != nil {
		return err
	}
	if err := status.Check(status.RoleDispatcher, j.Status, cmd.NewStatus); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ts := s.store.WithTx(tx)
	ok, err := ts.UpdateJobStatus(ctx, j.ID, j.Status, cmd.NewStatus)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}

	a, err := ts.ActiveAssignment(ctx, j.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if a != nil {
		if err := s.audit.WithTx(tx).AppendChange(ctx, &audit.ChangeEntry{
			AssignmentID: a.ID,
			Role:         status.RoleDispatcher,
			ActorID:      cmd.ActorUserID,
			FromStatus:   j.Status,
			ToStatus:     cmd.NewStatus,
		}); err != nil {
			return err
		}
	}

	if cmd.NewStatus == status.StatusCompleted && j.ServiceType == ServiceArrival && a != nil && a.RepID != nil {
		rep, err := s.dir.WithTx(tx).RepByID(ctx, *a.RepID)
		if err != nil {
			return err
		}
		if _, err := s.fees.WithTx(tx).Post(ctx, &fees.Fee{
			Role:       status.RoleRep,
			IdentityID: rep.ID,
			JobID:      j.ID,
			Amount:     rep.FlatFee,
		}); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.JobUpdated(ctx, j.ID, cmd.ActorUserID, []string{"job_status"})
	}
	return nil
}

type AssignCommand struct {
	JobID     types.ID
	VehicleID types.ID
	DriverID  *types.ID
	RepID     *types.ID
}

// Assign creates the active assignment and moves the job to assigned. All role
// statuses start at pending.
func (s *Service) Assign(ctx context.Context, cmd AssignCommand) (types.ID, error) {
	if cmd.VehicleID == "" {
		return "", ErrBadRequest
	}
	j, err := s.store.GetJob(ctx, cmd.JobID)
	if err != nil {
		return "", err
	}
	if err := status.Check(status.RoleDispatcher, j.Status, status.StatusAssigned); err != nil {
		return "", err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ts := s.store.WithTx(tx)
	a := &Assignment{
		ID:             newID(),
		JobID:          j.ID,
		VehicleID:      cmd.VehicleID,
		DriverID:       cmd.DriverID,
		RepID:          cmd.RepID,
		DriverStatus:   status.StatusPending,
		RepStatus:      status.StatusPending,
		SupplierStatus: status.StatusPending,
		CreatedAt:      time.Now(),
	}
	if err := ts.CreateAssignment(ctx, a); err != nil {
		return "", err
	}
	ok, err := ts.UpdateJobStatus(ctx, j.ID, j.Status, status.StatusAssigned)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrConflict
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return a.ID, nil
}

// Reassign supersedes the active assignment and opens a fresh version, keeping
// the old row for the audit chain.
func (s *Service) Reassign(ctx context.Context, cmd AssignCommand) (types.ID, error) {
	if cmd.VehicleID == "" {
		return "", ErrBadRequest
	}
	j, err := s.store.GetJob(ctx, cmd.JobID)
	if err != nil {
		return "", err
	}
	if status.IsTerminal(status.RoleDispatcher, j.Status) {
		return "", &status.TransitionError{Role: status.RoleDispatcher, Current: j.Status, Attempted: status.StatusAssigned}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ts := s.store.WithTx(tx)
	superseded, err := ts.SupersedeAssignment(ctx, j.ID)
	if err != nil {
		return "", err
	}
	if !superseded {
		return "", ErrNotFound
	}
	a := &Assignment{
		ID:             newID(),
		JobID:          j.ID,
		VehicleID:      cmd.VehicleID,
		DriverID:       cmd.DriverID,
		RepID:          cmd.RepID,
		DriverStatus:   status.StatusPending,
		RepStatus:      status.StatusPending,
		SupplierStatus: status.StatusPending,
		CreatedAt:      time.Now(),
	}
	if err := ts.CreateAssignment(ctx, a); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return a.ID, nil
}

// Lock clears the per-role unlock marker; Unlock sets it, recording the admin.
func (s *Service) Lock(ctx context.Context, jobID types.ID, role status.Role) error {
	if !fieldRole(role) {
		return ErrBadRequest
	}
	if _, err := s.store.GetJob(ctx, jobID); err != nil {
		return err
	}
	return s.store.Lock(ctx, jobID, role)
}

func (s *Service) Unlock(ctx context.Context, jobID types.ID, role status.Role, adminUserID types.ID) error {
	if !fieldRole(role) {
		return ErrBadRequest
	}
	if _, err := s.store.GetJob(ctx, jobID); err != nil {
		return err
	}
	return s.store.Unlock(ctx, jobID, role, adminUserID, time.Now())
}

// MarkCollectionCollected releases the driver completion guard.
func (s *Service) MarkCollectionCollected(ctx context.Context, jobID types.ID) error {
	return s.store.SetCollectionCollected(ctx, jobID)
}

type UpdateDetailsCommand struct {
	JobID       types.ID
	ActorUserID types.ID

	ServiceDate        *time.Time
	ServiceType        *ServiceType
	PaxAdults          *int
	PaxChildren        *int
	OriginID           *types.ID
	DestinationID      *types.ID
	CustomerName       *string
	FlightNumber       *string
	CollectionRequired *bool
}

// UpdateDetails applies a dispatcher field edit and triggers the update
// fan-out with the names of the fields that actually changed. The fan-out runs
// after the commit; its failures never surface here.
func (s *Service) UpdateDetails(ctx context.Context, cmd UpdateDetailsCommand) ([]string, error) {
	j, err := s.store.GetJob(ctx, cmd.JobID)
	if err != nil {
		return nil, err
	}

	var changed []string
	if cmd.ServiceDate != nil && !cmd.ServiceDate.Equal(j.ServiceDate) {
		j.ServiceDate = *cmd.ServiceDate
		changed = append(changed, "service_date")
	}
	if cmd.ServiceType != nil && *cmd.ServiceType != j.ServiceType {
		j.ServiceType = *cmd.ServiceType
		changed = append(changed, "service_type")
	}
	if cmd.PaxAdults != nil && *cmd.PaxAdults != j.PaxAdults {
		j.PaxAdults = *cmd.PaxAdults
		changed = append(changed, "pax_adults")
	}
	if cmd.PaxChildren != nil && *cmd.PaxChildren != j.PaxChildren {
		j.PaxChildren = *cmd.PaxChildren
		changed = append(changed, "pax_children")
	}
	if cmd.OriginID != nil && *cmd.OriginID != j.OriginID {
		j.OriginID = *cmd.OriginID
		changed = append(changed, "origin")
	}
	if cmd.DestinationID != nil && *cmd.DestinationID != j.DestinationID {
		j.DestinationID = *cmd.DestinationID
		changed = append(changed, "destination")
	}
	if cmd.CustomerName != nil && *cmd.CustomerName != j.CustomerName {
		j.CustomerName = *cmd.CustomerName
		changed = append(changed, "customer_name")
	}
	if cmd.FlightNumber != nil && *cmd.FlightNumber != j.FlightNumber {
		j.FlightNumber = *cmd.FlightNumber
		changed = append(changed, "flight_number")
	}
	if cmd.CollectionRequired != nil && *cmd.CollectionRequired != j.CollectionRequired {
		j.CollectionRequired = *cmd.CollectionRequired
		changed = append(changed, "collection_required")
	}
	if len(changed) == 0 {
		return nil, nil
	}

	if err := s.store.UpdateDetails(ctx, j); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.JobUpdated(ctx, j.ID, cmd.ActorUserID, changed)
	}
	return changed, nil
}

func fieldRole(r status.Role) bool {
	return r == status.RoleDriver || r == status.RoleRep || r == status.RoleSupplier
}

func newID() types.ID {
	return types.ID(uuid.NewString())
}
