// README: Directory store: identity resolution and notification recipients.
package directory

import (
	"context"
	"errors"

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

func (s *Store) DriverByUser(ctx context.Context, userID types.ID) (*Driver, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, name, flat_fee, currency FROM drivers WHERE user_id = $1`,
		string(userID),
	)
	var d Driver
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.FlatFee.Amount, &d.FlatFee.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoIdentity
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) RepByUser(ctx context.Context, userID types.ID) (*Rep, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, name, flat_fee, currency FROM reps WHERE user_id = $1`,
		string(userID),
	)
	var r Rep
	err := row.Scan(&r.ID, &r.UserID, &r.Name, &r.FlatFee.Amount, &r.FlatFee.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoIdentity
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) SupplierByUser(ctx context.Context, userID types.ID) (*Supplier, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, name FROM suppliers WHERE user_id = $1`,
		string(userID),
	)
	var sp Supplier
	err := row.Scan(&sp.ID, &sp.UserID, &sp.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoIdentity
	}
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (s *Store) RepByID(ctx context.Context, id types.ID) (*Rep, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, name, flat_fee, currency FROM reps WHERE id = $1`,
		string(id),
	)
	var r Rep
	err := row.Scan(&r.ID, &r.UserID, &r.Name, &r.FlatFee.Amount, &r.FlatFee.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoIdentity
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) DriverByID(ctx context.Context, id types.ID) (*Driver, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, name, flat_fee, currency FROM drivers WHERE id = $1`,
		string(id),
	)
	var d Driver
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.FlatFee.Amount, &d.FlatFee.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoIdentity
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateRecipients returns every active, non-deleted user who should hear about
// a job update: holders of the job-update permission plus legacy admins, never
// the user who made the change.
func (s *Store) UpdateRecipients(ctx context.Context, excludeUserID types.ID) ([]Recipient, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, email
		FROM users
		WHERE active = TRUE
		  AND deleted_at IS NULL
		  AND (notify_job_updates = TRUE OR role = 'admin')
		  AND id <> $1
		ORDER BY id`, string(excludeUserID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Recipient
	for rows.Next() {
		var r Recipient
		if err := rows.Scan(&r.UserID, &r.Email); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
