// README: Fan-out tests: recipient resolution, in-app inserts, best-effort sends.
package notify

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"trafficdesk/internal/modules/directory"
	"trafficdesk/internal/types"
)

type sentMessage struct {
	to      string
	subject string
	body    string
}

type stubMailer struct {
	sent []sentMessage
	err  error
}

func (m *stubMailer) Send(_ context.Context, to, subject, body string) error {
	m.sent = append(m.sent, sentMessage{to: to, subject: subject, body: body})
	return m.err
}

func TestJobUpdatedFansOutToRecipients(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	seedUsers(t, pool, `
		INSERT INTO users (id, name, email, role, notify_job_updates, active) VALUES
			('u_actor', 'Actor', 'actor@example.com', 'staff', TRUE, TRUE),
			('u_admin', 'Admin', 'admin@example.com', 'admin', FALSE, TRUE),
			('u_watch', 'Watcher', 'watch@example.com', 'staff', TRUE, TRUE),
			('u_quiet', 'Quiet', 'quiet@example.com', 'staff', FALSE, TRUE),
			('u_gone', 'Gone', 'gone@example.com', 'admin', TRUE, FALSE)`)
	jobID := seedJob(t, pool, "TD-6001")

	mailer := &stubMailer{}
	store := NewStore(pool)
	svc := NewService(store, directory.NewStore(pool), mailer, nil, []string{"ops@example.com", "Admin@Example.com"}, zap.NewNop())

	svc.JobUpdated(ctx, jobID, "u_actor", []string{"flight_number"})

	// In-app rows: admins always, permission holders always, never the actor,
	// never inactive users.
	for _, uid := range []types.ID{"u_admin", "u_watch"} {
		items, err := store.ListByUser(ctx, uid, 10)
		if err != nil {
			t.Fatalf("list for %s: %v", uid, err)
		}
		if len(items) != 1 {
			t.Fatalf("expected 1 notification for %s, got %d", uid, len(items))
		}
		if len(items[0].ChangedFields) != 1 || items[0].ChangedFields[0] != "flight_number" {
			t.Fatalf("unexpected change set for %s: %v", uid, items[0].ChangedFields)
		}
	}
	for _, uid := range []types.ID{"u_actor", "u_quiet", "u_gone"} {
		items, err := store.ListByUser(ctx, uid, 10)
		if err != nil {
			t.Fatalf("list for %s: %v", uid, err)
		}
		if len(items) != 0 {
			t.Fatalf("expected no notifications for %s, got %d", uid, len(items))
		}
	}

	// Outbound: recipients plus departments, deduplicated (admin@example.com
	// appears both as a user and a department mailbox).
	if len(mailer.sent) != 3 {
		t.Fatalf("expected 3 outbound messages, got %d: %+v", len(mailer.sent), mailer.sent)
	}
	addrs := map[string]bool{}
	for _, m := range mailer.sent {
		addrs[m.to] = true
		if m.subject != "Job TD-6001 updated" {
			t.Fatalf("unexpected subject: %s", m.subject)
		}
		if !strings.Contains(m.body, "(updated)") {
			t.Fatalf("body missing highlight: %s", m.body)
		}
	}
	for _, want := range []string{"admin@example.com", "watch@example.com", "ops@example.com"} {
		if !addrs[want] {
			t.Fatalf("missing outbound recipient %s in %v", want, addrs)
		}
	}
}

func TestJobUpdatedEmptyRecipientSetIsSilent(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	seedUsers(t, pool, `
		INSERT INTO users (id, name, email, role, notify_job_updates, active) VALUES
			('u_actor', 'Actor', 'actor@example.com', 'staff', TRUE, TRUE)`)
	jobID := seedJob(t, pool, "TD-6002")

	mailer := &stubMailer{}
	store := NewStore(pool)
	svc := NewService(store, directory.NewStore(pool), mailer, nil, nil, zap.NewNop())

	svc.JobUpdated(ctx, jobID, "u_actor", []string{"flight_number"})

	if len(mailer.sent) != 0 {
		t.Fatalf("expected no send attempts, got %d", len(mailer.sent))
	}
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM notifications").Scan(&count); err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected zero in-app inserts, got %d", count)
	}
}

func TestJobUpdatedDeliveryFailureKeepsInAppRows(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	seedUsers(t, pool, `
		INSERT INTO users (id, name, email, role, notify_job_updates, active) VALUES
			('u_actor', 'Actor', 'actor@example.com', 'staff', TRUE, TRUE),
			('u_admin', 'Admin', 'admin@example.com', 'admin', FALSE, TRUE)`)
	jobID := seedJob(t, pool, "TD-6003")

	mailer := &stubMailer{err: errors.New("gateway down")}
	store := NewStore(pool)
	svc := NewService(store, directory.NewStore(pool), mailer, nil, nil, zap.NewNop())

	// Must not panic or surface the delivery error.
	svc.JobUpdated(ctx, jobID, "u_actor", []string{"service_date"})

	items, err := store.ListByUser(ctx, "u_admin", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("in-app notification lost to a delivery failure, got %d rows", len(items))
	}
}

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TRAFFICDESK_TEST_DSN")
	if dsn == "" {
		t.Skip("TRAFFICDESK_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := applyMigration(ctx, pool); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	if _, err := pool.Exec(ctx, `
		TRUNCATE TABLE notifications, fees, no_show_evidence, status_change_log,
			job_role_unlocks, assignments, jobs,
			vehicles, suppliers, drivers, reps, users, locations CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	if _, err := pool.Exec(ctx, `
		INSERT INTO locations (id, name, lat, lng) VALUES
			('loc_airport', 'Cairo International Airport', 30.1219, 31.4056),
			('loc_hotel', 'Nile View Hotel', 30.0444, 31.2357)`); err != nil {
		t.Fatalf("seed locations: %v", err)
	}
	return pool
}

func seedUsers(t *testing.T, pool *pgxpool.Pool, stmt string) {
	t.Helper()
	if _, err := pool.Exec(context.Background(), stmt); err != nil {
		t.Fatalf("seed users: %v", err)
	}
}

func seedJob(t *testing.T, pool *pgxpool.Pool, refCode string) types.ID {
	t.Helper()
	id := types.ID("job_" + refCode)
	_, err := pool.Exec(context.Background(), `
		INSERT INTO jobs (id, ref_code, service_date, service_type, origin_id, destination_id,
			job_status, customer_name, flight_number, created_at, updated_at)
		VALUES ($1, $2, $3, 'arrival', 'loc_airport', 'loc_hotel', 'assigned', 'J. Smith', 'MS912', NOW(), NOW())`,
		string(id), refCode, time.Now().Add(24*time.Hour),
	)
	if err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return id
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	content, err := os.ReadFile(filepath.Join(root, "migrations", "0001_init.sql"))
	if err != nil {
		return err
	}
	cleaned := stripSQLComments(string(content))
	for _, stmt := range splitSQL(cleaned) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
