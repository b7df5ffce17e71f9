// README: Concurrency tests for the dispatcher status machine (run with -race).
package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trafficdesk/internal/modules/status"
)

func TestConcurrentCompleteOnlyOneWins(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	jobID := mustCreateJob(t, env.svc, "TD-2001", ServiceArrival, time.Now().Add(24*time.Hour), false)
	if _, err := env.svc.Assign(ctx, AssignCommand{JobID: jobID, VehicleID: "v1", RepID: idRef("r1")}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := env.svc.SetStatus(ctx, SetStatusCommand{JobID: jobID, ActorUserID: "u_admin", NewStatus: status.StatusInProgress}); err != nil {
		t.Fatalf("in_progress: %v", err)
	}

	const attempts = 6
	var wg sync.WaitGroup
	errs := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- env.svc.SetStatus(ctx, SetStatusCommand{JobID: jobID, ActorUserID: "u_admin", NewStatus: status.StatusCompleted})
		}()
	}

	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrConflict) && !errors.Is(err, status.ErrInvalidTransition) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 successful completion, got %d", success)
	}

	assertJobStatus(t, env.svc, jobID, status.StatusCompleted)

	// The losers must not have double-posted the rep fee.
	posted, err := env.fees.ListByJob(ctx, jobID)
	if err != nil {
		t.Fatalf("list fees: %v", err)
	}
	if len(posted) != 1 {
		t.Fatalf("expected exactly 1 fee despite racing completions, got %d", len(posted))
	}
}

func TestConcurrentCompleteVsCancel(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	jobID := mustCreateJob(t, env.svc, "TD-2002", ServiceArrival, time.Now().Add(24*time.Hour), false)
	if _, err := env.svc.Assign(ctx, AssignCommand{JobID: jobID, VehicleID: "v1"}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := env.svc.SetStatus(ctx, SetStatusCommand{JobID: jobID, ActorUserID: "u_admin", NewStatus: status.StatusInProgress}); err != nil {
		t.Fatalf("in_progress: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- env.svc.SetStatus(ctx, SetStatusCommand{JobID: jobID, ActorUserID: "u_admin", NewStatus: status.StatusCompleted})
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- env.svc.SetStatus(ctx, SetStatusCommand{JobID: jobID, ActorUserID: "u_admin", NewStatus: status.StatusCancelled})
	}()

	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrConflict) && !errors.Is(err, status.ErrInvalidTransition) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", success)
	}

	j, err := env.svc.Get(ctx, jobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if j.Status != status.StatusCompleted && j.Status != status.StatusCancelled {
		t.Fatalf("unexpected final status: %s", j.Status)
	}
}
