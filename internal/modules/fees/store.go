// README: Idempotent fee posting backed by a unique (role, identity, job) index.
package fees

import (
	"context"

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

// Post inserts a fee entry unless one already exists for (role, identity, job).
// ON CONFLICT DO NOTHING makes retried and duplicated transitions no-ops even
// when two transactions race on the insert. Returns whether a row was created.
func (s *Store) Post(ctx context.Context, f *Fee) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO fees (role, identity_id, job_id, amount, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (role, identity_id, job_id) DO NOTHING`,
		string(f.Role), string(f.IdentityID), string(f.JobID),
		f.Amount.Amount, f.Amount.Currency,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ListByJob(ctx context.Context, jobID types.ID) ([]Fee, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, role, identity_id, job_id, amount, currency, created_at
		FROM fees
		WHERE job_id = $1
		ORDER BY id`, string(jobID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Fee
	for rows.Next() {
		var f Fee
		if err := rows.Scan(&f.ID, &f.Role, &f.IdentityID, &f.JobID, &f.Amount.Amount, &f.Amount.Currency, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
