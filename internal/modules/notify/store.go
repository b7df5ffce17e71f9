// README: Notification store: display reload and bulk in-app inserts.
package notify

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trafficdesk/internal/infra"
	"trafficdesk/internal/types"
)

var ErrNotFound = errors.New("job not found")

type Store struct {
	db infra.DBTX
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// LoadJobView reloads the job with the joins the message body needs.
func (s *Store) LoadJobView(ctx context.Context, jobID types.ID) (*JobView, error) {
	row := s.db.QueryRow(ctx, `
		SELECT j.id, j.ref_code, j.service_date, j.service_type, j.job_status,
		       j.pax_adults, j.pax_children,
		       o.name, d.name,
		       j.customer_name, j.flight_number
		FROM jobs j
		JOIN locations o ON o.id = j.origin_id
		JOIN locations d ON d.id = j.destination_id
		WHERE j.id = $1 AND j.deleted_at IS NULL`, string(jobID),
	)
	var v JobView
	err := row.Scan(
		&v.JobID, &v.RefCode, &v.ServiceDate, &v.ServiceType, &v.Status,
		&v.PaxAdults, &v.PaxChildren,
		&v.OriginName, &v.DestinationName,
		&v.CustomerName, &v.FlightNumber,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// InsertBulk creates one in-app notification per recipient user in a single
// round trip.
func (s *Store) InsertBulk(ctx context.Context, jobID types.ID, changedFields []string, userIDs []types.ID) error {
	if len(userIDs) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, uid := range userIDs {
		b.Queue(`
			INSERT INTO notifications (user_id, job_id, changed_fields, created_at)
			VALUES ($1, $2, $3, NOW())`,
			string(uid), string(jobID), changedFields,
		)
	}
	br := s.db.SendBatch(ctx, b)
	defer br.Close()
	for range userIDs {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID types.ID, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, job_id, changed_fields, created_at, read_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2`, string(userID), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.JobID, &n.ChangedFields, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) MarkRead(ctx context.Context, userID types.ID, notificationID int64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET read_at = NOW()
		WHERE id = $1 AND user_id = $2 AND read_at IS NULL`,
		notificationID, string(userID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
