// README: Job and assignment store backed by PostgreSQL.
package job

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trafficdesk/internal/infra"
	"trafficdesk/internal/modules/status"
	"trafficdesk/internal/types"
)

type Store struct {
	db infra.DBTX
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// WithTx returns a store view bound to an open transaction.
func (s *Store) WithTx(tx pgx.Tx) *Store {
	return &Store{db: tx}
}

func (s *Store) CreateJob(ctx context.Context, j *Job) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO jobs (
			id, ref_code, service_date, service_type, pax_adults, pax_children,
			origin_id, destination_id, job_status,
			collection_required, collection_collected,
			customer_name, flight_number, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$14)`,
		string(j.ID), j.RefCode, j.ServiceDate, string(j.ServiceType),
		j.PaxAdults, j.PaxChildren,
		string(j.OriginID), string(j.DestinationID), string(j.Status),
		j.CollectionRequired, j.CollectionCollected,
		j.CustomerName, j.FlightNumber, j.CreatedAt,
	)
	return err
}

func (s *Store) GetJob(ctx context.Context, id types.ID) (*Job, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, ref_code, service_date, service_type, pax_adults, pax_children,
		       origin_id, destination_id, job_status,
		       collection_required, collection_collected,
		       customer_name, flight_number, created_at, updated_at
		FROM jobs
		WHERE id = $1 AND deleted_at IS NULL`, string(id),
	)

	var j Job
	err := row.Scan(
		&j.ID, &j.RefCode, &j.ServiceDate, &j.ServiceType, &j.PaxAdults, &j.PaxChildren,
		&j.OriginID, &j.DestinationID, &j.Status,
		&j.CollectionRequired, &j.CollectionCollected,
		&j.CustomerName, &j.FlightNumber, &j.CreatedAt, &j.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// UpdateJobStatus moves the dispatcher status conditionally; a false return
// means another writer got there first.
func (s *Store) UpdateJobStatus(ctx context.Context, id types.ID, from, to status.Status) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE jobs
		SET job_status = $1, updated_at = NOW()
		WHERE id = $2 AND job_status = $3 AND deleted_at IS NULL`,
		string(to), string(id), string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateDetails writes the dispatcher-editable fields.
func (s *Store) UpdateDetails(ctx context.Context, j *Job) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE jobs
		SET service_date = $1, service_type = $2, pax_adults = $3, pax_children = $4,
		    origin_id = $5, destination_id = $6, customer_name = $7, flight_number = $8,
		    collection_required = $9, updated_at = NOW()
		WHERE id = $10 AND deleted_at IS NULL`,
		j.ServiceDate, string(j.ServiceType), j.PaxAdults, j.PaxChildren,
		string(j.OriginID), string(j.DestinationID), j.CustomerName, j.FlightNumber,
		j.CollectionRequired, string(j.ID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetCollectionCollected(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE jobs SET collection_collected = TRUE, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const assignmentColumns = `
	id, job_id, vehicle_id, driver_id, rep_id,
	driver_status, rep_status, supplier_status, supplier_notes,
	created_at, superseded_at`

func (s *Store) CreateAssignment(ctx context.Context, a *Assignment) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO assignments (
			id, job_id, vehicle_id, driver_id, rep_id,
			driver_status, rep_status, supplier_status, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		string(a.ID), string(a.JobID), string(a.VehicleID),
		idPtr(a.DriverID), idPtr(a.RepID),
		string(a.DriverStatus), string(a.RepStatus), string(a.SupplierStatus),
		a.CreatedAt,
	)
	return err
}

// SupersedeAssignment closes the active version; a false return means there was
// no active assignment to supersede.
func (s *Store) SupersedeAssignment(ctx context.Context, jobID types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE assignments SET superseded_at = NOW()
		WHERE job_id = $1 AND superseded_at IS NULL`, string(jobID),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() >= 1, nil
}

func (s *Store) ActiveAssignment(ctx context.Context, jobID types.ID) (*Assignment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+assignmentColumns+`
		FROM assignments
		WHERE job_id = $1 AND superseded_at IS NULL`, string(jobID),
	)
	return scanAssignment(row)
}

// ActiveAssignmentForDriver loads the active assignment only when it belongs to
// the given driver, so callers get NotFound rather than someone else's job.
func (s *Store) ActiveAssignmentForDriver(ctx context.Context, jobID, driverID types.ID) (*Assignment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+assignmentColumns+`
		FROM assignments
		WHERE job_id = $1 AND driver_id = $2 AND superseded_at IS NULL`,
		string(jobID), string(driverID),
	)
	return scanAssignment(row)
}

func (s *Store) ActiveAssignmentForRep(ctx context.Context, jobID, repID types.ID) (*Assignment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+assignmentColumns+`
		FROM assignments
		WHERE job_id = $1 AND rep_id = $2 AND superseded_at IS NULL`,
		string(jobID), string(repID),
	)
	return scanAssignment(row)
}

// ActiveAssignmentForSupplier resolves the supplier through the vehicle owner.
func (s *Store) ActiveAssignmentForSupplier(ctx context.Context, jobID, supplierID types.ID) (*Assignment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT a.id, a.job_id, a.vehicle_id, a.driver_id, a.rep_id,
		       a.driver_status, a.rep_status, a.supplier_status, a.supplier_notes,
		       a.created_at, a.superseded_at
		FROM assignments a
		JOIN vehicles v ON v.id = a.vehicle_id
		WHERE a.job_id = $1 AND v.supplier_id = $2 AND a.superseded_at IS NULL`,
		string(jobID), string(supplierID),
	)
	return scanAssignment(row)
}

// UpdateRoleStatus moves one role's status column conditionally. The three
// role columns are disjoint, so concurrent updates from different roles only
// serialize on the row lock. notes is only written for the supplier column.
func (s *Store) UpdateRoleStatus(ctx context.Context, assignmentID types.ID, role status.Role, from, to status.Status, notes *string) (bool, error) {
	var sqlText string
	switch role {
	case status.RoleDriver:
		sqlText = `UPDATE assignments SET driver_status = $1
			WHERE id = $2 AND driver_status = $3 AND superseded_at IS NULL`
	case status.RoleRep:
		sqlText = `UPDATE assignments SET rep_status = $1
			WHERE id = $2 AND rep_status = $3 AND superseded_at IS NULL`
	case status.RoleSupplier:
		tag, err := s.db.Exec(ctx, `
			UPDATE assignments SET supplier_status = $1, supplier_notes = COALESCE($4, supplier_notes)
			WHERE id = $2 AND supplier_status = $3 AND superseded_at IS NULL`,
			string(to), string(assignmentID), string(from), notes,
		)
		if err != nil {
			return false, err
		}
		return tag.RowsAffected() == 1, nil
	default:
		return false, errors.New("role has no assignment status column")
	}
	tag, err := s.db.Exec(ctx, sqlText, string(to), string(assignmentID), string(from))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Unlock upserts the per-role override marker, recording the admin who set it.
func (s *Store) Unlock(ctx context.Context, jobID types.ID, role status.Role, adminID types.ID, at time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO job_role_unlocks (job_id, role, unlocked_at, unlocked_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (job_id, role) DO UPDATE
		SET unlocked_at = EXCLUDED.unlocked_at, unlocked_by = EXCLUDED.unlocked_by`,
		string(jobID), string(role), at, string(adminID),
	)
	return err
}

func (s *Store) Lock(ctx context.Context, jobID types.ID, role status.Role) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM job_role_unlocks WHERE job_id = $1 AND role = $2`,
		string(jobID), string(role),
	)
	return err
}

// UnlockedAt returns the override timestamp for (job, role), or nil when locked.
func (s *Store) UnlockedAt(ctx context.Context, jobID types.ID, role status.Role) (*time.Time, error) {
	row := s.db.QueryRow(ctx, `
		SELECT unlocked_at FROM job_role_unlocks WHERE job_id = $1 AND role = $2`,
		string(jobID), string(role),
	)
	var at time.Time
	err := row.Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &at, nil
}

func scanAssignment(row pgx.Row) (*Assignment, error) {
	var a Assignment
	var driverID, repID, notes sql.NullString
	var superseded sql.NullTime

	err := row.Scan(
		&a.ID, &a.JobID, &a.VehicleID, &driverID, &repID,
		&a.DriverStatus, &a.RepStatus, &a.SupplierStatus, &notes,
		&a.CreatedAt, &superseded,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if driverID.Valid {
		d := types.ID(driverID.String)
		a.DriverID = &d
	}
	if repID.Valid {
		r := types.ID(repID.String)
		a.RepID = &r
	}
	if notes.Valid {
		a.SupplierNotes = &notes.String
	}
	if superseded.Valid {
		t := superseded.Time
		a.SupersededAt = &t
	}
	return &a, nil
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
