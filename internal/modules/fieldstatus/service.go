// README: Field-role status machines: driver/rep updates, no-show evidence, supplier completion.
package fieldstatus

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"trafficdesk/internal/modules/audit"
	"trafficdesk/internal/modules/directory"
	"trafficdesk/internal/modules/fees"
	"trafficdesk/internal/modules/job"
	"trafficdesk/internal/modules/status"
	"trafficdesk/internal/modules/timelock"
	"trafficdesk/internal/types"
)

var (
	// ErrForbidden covers the no-role-link case; a closed edit window surfaces
	// as timelock.ErrLocked so the two rejections stay textually distinct.
	ErrForbidden    = errors.New("user has no linked role identity")
	ErrBadRequest   = errors.New("bad request")
	ErrInvalidState = errors.New("job state does not allow this action")
)

type Service struct {
	pool      *pgxpool.Pool
	jobs      *job.Store
	audit     *audit.Store
	fees      *fees.Store
	dir       *directory.Store
	gate      timelock.Gate
	positions *audit.PositionStore
	log       *zap.Logger
}

func NewService(pool *pgxpool.Pool, jobs *job.Store, auditStore *audit.Store, feeStore *fees.Store, dir *directory.Store, gate timelock.Gate, positions *audit.PositionStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{pool: pool, jobs: jobs, audit: auditStore, fees: feeStore, dir: dir, gate: gate, positions: positions, log: log}
}

type UpdateStatusCommand struct {
	ActorUserID types.ID
	JobID       types.ID
	Role        status.Role // driver or rep
	NewStatus   status.Status
	Position    types.Point
}

// UpdateStatus runs the driver/rep machine. Check order is fixed: identity,
// assignment, time-lock, collection guard, transition table, so callers can
// tell a closed window from a bad sequence.
func (s *Service) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) error {
	if cmd.Role != status.RoleDriver && cmd.Role != status.RoleRep {
		return fmt.Errorf("%w: role %q cannot use this endpoint", ErrBadRequest, cmd.Role)
	}
	if !audit.ValidPoint(cmd.Position) {
		return fmt.Errorf("%w: gps coordinates must be finite", ErrBadRequest)
	}
	if !status.InVocabulary(cmd.Role, cmd.NewStatus) {
		return fmt.Errorf("%w: unknown status %q for role %s", ErrBadRequest, cmd.NewStatus, cmd.Role)
	}

	actorID, a, jb, err := s.resolve(ctx, cmd.Role, cmd.ActorUserID, cmd.JobID)
	if err != nil {
		return err
	}

	unlockedAt, err := s.jobs.UnlockedAt(ctx, jb.ID, cmd.Role)
	if err != nil {
		return err
	}
	if err := s.gate.Check(jb.ServiceDate, unlockedAt); err != nil {
		return err
	}

	current := roleStatus(a, cmd.Role)
	if cmd.Role == status.RoleDriver && cmd.NewStatus == status.StatusCompleted &&
		jb.CollectionRequired && !jb.CollectionCollected {
		return fmt.Errorf("%w: collection has not been marked collected", ErrInvalidState)
	}
	if err := status.Check(cmd.Role, current, cmd.NewStatus); err != nil {
		return err
	}

	entry := &audit.ChangeEntry{
		AssignmentID: a.ID,
		Role:         cmd.Role,
		ActorID:      actorID,
		FromStatus:   current,
		ToStatus:     cmd.NewStatus,
		Position:     &cmd.Position,
		MapLink:      audit.MapLink(cmd.Position),
	}
	if origin, err := s.audit.OriginPoint(ctx, jb.ID); err == nil && origin != nil {
		d := audit.DistanceKm(*origin, cmd.Position)
		entry.OriginDistanceKm = &d
	}

	err = s.inTx(ctx, func(txJobs *job.Store, txAudit *audit.Store, txFees *fees.Store) error {
		ok, err := txJobs.UpdateRoleStatus(ctx, a.ID, cmd.Role, current, cmd.NewStatus, nil)
		if err != nil {
			return err
		}
		if !ok {
			return job.ErrConflict
		}
		if err := txAudit.AppendChange(ctx, entry); err != nil {
			return err
		}
		// Drivers with a configured flat fee earn it on completion, mirroring
		// the rep fee on arrival-job completion. The unique index keeps
		// repeated transitions from double-posting.
		if cmd.Role == status.RoleDriver && cmd.NewStatus == status.StatusCompleted {
			drv, err := s.dir.DriverByID(ctx, actorID)
			if err != nil {
				return err
			}
			if drv.FlatFee.Amount > 0 {
				if _, err := txFees.Post(ctx, &fees.Fee{
					Role:       status.RoleDriver,
					IdentityID: drv.ID,
					JobID:      jb.ID,
					Amount:     drv.FlatFee,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.recordPosition(ctx, cmd.Role, actorID, cmd.Position)
	return nil
}

type NoShowCommand struct {
	ActorUserID types.ID
	JobID       types.ID
	Role        status.Role // driver or rep
	Photo1      string
	Photo2      string
	Position    types.Point
}

// SubmitNoShow moves the role to no_show with mandatory two-photo evidence.
func (s *Service) SubmitNoShow(ctx context.Context, cmd NoShowCommand) error {
	if cmd.Role != status.RoleDriver && cmd.Role != status.RoleRep {
		return fmt.Errorf("%w: role %q cannot report a no-show", ErrBadRequest, cmd.Role)
	}
	if cmd.Photo1 == "" || cmd.Photo2 == "" {
		return fmt.Errorf("%w: two evidence photos are required", ErrBadRequest)
	}
	if !audit.ValidPoint(cmd.Position) {
		return fmt.Errorf("%w: gps coordinates must be finite", ErrBadRequest)
	}

	actorID, a, jb, err := s.resolve(ctx, cmd.Role, cmd.ActorUserID, cmd.JobID)
	if err != nil {
		return err
	}

	unlockedAt, err := s.jobs.UnlockedAt(ctx, jb.ID, cmd.Role)
	if err != nil {
		return err
	}
	if err := s.gate.Check(jb.ServiceDate, unlockedAt); err != nil {
		return err
	}

	current := roleStatus(a, cmd.Role)
	if status.IsTerminal(cmd.Role, current) {
		return fmt.Errorf("%w: %s status is already terminal (%s)", ErrInvalidState, cmd.Role, current)
	}
	if !status.NoShowEligible(cmd.Role, current) {
		return fmt.Errorf("%w: no-show cannot be reported from %s status %s", ErrInvalidState, cmd.Role, current)
	}

	entry := &audit.ChangeEntry{
		AssignmentID: a.ID,
		Role:         cmd.Role,
		ActorID:      actorID,
		FromStatus:   current,
		ToStatus:     status.StatusNoShow,
		Position:     &cmd.Position,
		MapLink:      audit.MapLink(cmd.Position),
	}
	if origin, err := s.audit.OriginPoint(ctx, jb.ID); err == nil && origin != nil {
		d := audit.DistanceKm(*origin, cmd.Position)
		entry.OriginDistanceKm = &d
	}

	err = s.inTx(ctx, func(txJobs *job.Store, txAudit *audit.Store, _ *fees.Store) error {
		ok, err := txJobs.UpdateRoleStatus(ctx, a.ID, cmd.Role, current, status.StatusNoShow, nil)
		if err != nil {
			return err
		}
		if !ok {
			return job.ErrConflict
		}
		if err := txAudit.RecordNoShow(ctx, &audit.NoShowEvidence{
			JobID:    jb.ID,
			Photo1:   cmd.Photo1,
			Photo2:   cmd.Photo2,
			Position: cmd.Position,
			Role:     cmd.Role,
			ActorID:  actorID,
		}); err != nil {
			return err
		}
		return txAudit.AppendChange(ctx, entry)
	})
	if err != nil {
		return err
	}

	s.recordPosition(ctx, cmd.Role, actorID, cmd.Position)
	return nil
}

type SupplierCommand struct {
	ActorUserID types.ID
	JobID       types.ID
	NewStatus   status.Status
	Notes       *string
}

// UpdateSupplierStatus runs the simpler supplier flow: free-text completion
// notes, no GPS requirement, same time-lock.
func (s *Service) UpdateSupplierStatus(ctx context.Context, cmd SupplierCommand) error {
	if !status.InVocabulary(status.RoleSupplier, cmd.NewStatus) {
		return fmt.Errorf("%w: unknown status %q for supplier", ErrBadRequest, cmd.NewStatus)
	}
	sup, err := s.dir.SupplierByUser(ctx, cmd.ActorUserID)
	if err != nil {
		if errors.Is(err, directory.ErrNoIdentity) {
			return ErrForbidden
		}
		return err
	}
	jb, err := s.jobs.GetJob(ctx, cmd.JobID)
	if err != nil {
		return err
	}
	a, err := s.jobs.ActiveAssignmentForSupplier(ctx, jb.ID, sup.ID)
	if err != nil {
		return err
	}

	unlockedAt, err := s.jobs.UnlockedAt(ctx, jb.ID, status.RoleSupplier)
	if err != nil {
		return err
	}
	if err := s.gate.Check(jb.ServiceDate, unlockedAt); err != nil {
		return err
	}

	current := a.SupplierStatus
	if err := status.Check(status.RoleSupplier, current, cmd.NewStatus); err != nil {
		return err
	}

	return s.inTx(ctx, func(txJobs *job.Store, txAudit *audit.Store, _ *fees.Store) error {
		ok, err := txJobs.UpdateRoleStatus(ctx, a.ID, status.RoleSupplier, current, cmd.NewStatus, cmd.Notes)
		if err != nil {
			return err
		}
		if !ok {
			return job.ErrConflict
		}
		return txAudit.AppendChange(ctx, &audit.ChangeEntry{
			AssignmentID: a.ID,
			Role:         status.RoleSupplier,
			ActorID:      sup.ID,
			FromStatus:   current,
			ToStatus:     cmd.NewStatus,
		})
	})
}

// resolve maps the portal user to their role identity and that identity's
// active assignment on the job.
func (s *Service) resolve(ctx context.Context, role status.Role, actorUserID, jobID types.ID) (types.ID, *job.Assignment, *job.Job, error) {
	var actorID types.ID
	switch role {
	case status.RoleDriver:
		d, err := s.dir.DriverByUser(ctx, actorUserID)
		if err != nil {
			if errors.Is(err, directory.ErrNoIdentity) {
				return "", nil, nil, ErrForbidden
			}
			return "", nil, nil, err
		}
		actorID = d.ID
	case status.RoleRep:
		r, err := s.dir.RepByUser(ctx, actorUserID)
		if err != nil {
			if errors.Is(err, directory.ErrNoIdentity) {
				return "", nil, nil, ErrForbidden
			}
			return "", nil, nil, err
		}
		actorID = r.ID
	}

	jb, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return "", nil, nil, err
	}

	var a *job.Assignment
	if role == status.RoleDriver {
		a, err = s.jobs.ActiveAssignmentForDriver(ctx, jobID, actorID)
	} else {
		a, err = s.jobs.ActiveAssignmentForRep(ctx, jobID, actorID)
	}
	if err != nil {
		return "", nil, nil, err
	}
	return actorID, a, jb, nil
}

func (s *Service) inTx(ctx context.Context, fn func(*job.Store, *audit.Store, *fees.Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(s.jobs.WithTx(tx), s.audit.WithTx(tx), s.fees.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// recordPosition refreshes the Redis last-seen fix; advisory only, never fails
// the call.
func (s *Service) recordPosition(ctx context.Context, role status.Role, id types.ID, p types.Point) {
	if s.positions == nil {
		return
	}
	if err := s.positions.Record(ctx, role, id, p); err != nil {
		s.log.Warn("record last position", zap.String("role", string(role)), zap.Error(err))
	}
}

func roleStatus(a *job.Assignment, r status.Role) status.Status {
	switch r {
	case status.RoleDriver:
		return a.DriverStatus
	case status.RoleRep:
		return a.RepStatus
	default:
		return a.SupplierStatus
	}
}
