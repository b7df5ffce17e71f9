// README: Audit store: transition log and no-show evidence, PostgreSQL backed.
package audit

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trafficdesk/internal/infra"
	"trafficdesk/internal/types"
)

type Store struct {
	db infra.DBTX
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) WithTx(tx pgx.Tx) *Store {
	return &Store{db: tx}
}

// AppendChange inserts one log entry; callers run it inside the same
// transaction as the status update so neither can exist without the other.
func (s *Store) AppendChange(ctx context.Context, e *ChangeEntry) error {
	var lat, lng *float64
	if e.Position != nil {
		lat, lng = &e.Position.Lat, &e.Position.Lng
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO status_change_log (
			assignment_id, actor_role, actor_id, from_status, to_status,
			lat, lng, map_link, origin_distance_km, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())`,
		string(e.AssignmentID), string(e.Role), string(e.ActorID),
		string(e.FromStatus), string(e.ToStatus),
		lat, lng, e.MapLink, e.OriginDistanceKm,
	)
	return err
}

func (s *Store) RecordNoShow(ctx context.Context, ev *NoShowEvidence) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO no_show_evidence (
			job_id, photo1, photo2, lat, lng, actor_role, actor_id, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())`,
		string(ev.JobID), ev.Photo1, ev.Photo2,
		ev.Position.Lat, ev.Position.Lng,
		string(ev.Role), string(ev.ActorID),
	)
	return err
}

func (s *Store) ChangesByAssignment(ctx context.Context, assignmentID types.ID) ([]ChangeEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, assignment_id, actor_role, actor_id, from_status, to_status,
		       lat, lng, map_link, origin_distance_km, created_at
		FROM status_change_log
		WHERE assignment_id = $1
		ORDER BY id`, string(assignmentID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChangeEntry
	for rows.Next() {
		var e ChangeEntry
		var lat, lng sql.NullFloat64
		var dist sql.NullFloat64
		if err := rows.Scan(
			&e.ID, &e.AssignmentID, &e.Role, &e.ActorID, &e.FromStatus, &e.ToStatus,
			&lat, &lng, &e.MapLink, &dist, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		if lat.Valid && lng.Valid {
			e.Position = &types.Point{Lat: lat.Float64, Lng: lng.Float64}
		}
		if dist.Valid {
			d := dist.Float64
			e.OriginDistanceKm = &d
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) EvidenceByJob(ctx context.Context, jobID types.ID) ([]NoShowEvidence, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, job_id, photo1, photo2, lat, lng, actor_role, actor_id, created_at
		FROM no_show_evidence
		WHERE job_id = $1
		ORDER BY id`, string(jobID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NoShowEvidence
	for rows.Next() {
		var ev NoShowEvidence
		if err := rows.Scan(
			&ev.ID, &ev.JobID, &ev.Photo1, &ev.Photo2,
			&ev.Position.Lat, &ev.Position.Lng,
			&ev.Role, &ev.ActorID, &ev.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// OriginPoint looks up the job origin coordinates for distance derivation.
// Locations without coordinates return nil.
func (s *Store) OriginPoint(ctx context.Context, jobID types.ID) (*types.Point, error) {
	row := s.db.QueryRow(ctx, `
		SELECT l.lat, l.lng
		FROM jobs j
		JOIN locations l ON l.id = j.origin_id
		WHERE j.id = $1`, string(jobID),
	)
	var lat, lng sql.NullFloat64
	err := row.Scan(&lat, &lng)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !lat.Valid || !lng.Valid {
		return nil, nil
	}
	return &types.Point{Lat: lat.Float64, Lng: lng.Float64}, nil
}
