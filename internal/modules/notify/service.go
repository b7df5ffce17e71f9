// README: Update fan-out: recipients, in-app inserts, best-effort outbound send.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"trafficdesk/internal/modules/directory"
	"trafficdesk/internal/types"
)

// Mailer delivers one outbound message; implementations are best-effort.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// TravelEstimator optionally enriches the message with a transfer estimate.
type TravelEstimator interface {
	Estimate(ctx context.Context, origin, destination string) (time.Duration, string, error)
}

type Service struct {
	store       *Store
	dir         *directory.Store
	mailer      Mailer
	estimator   TravelEstimator
	departments []string
	log         *zap.Logger
}

func NewService(store *Store, dir *directory.Store, mailer Mailer, estimator TravelEstimator, departments []string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, dir: dir, mailer: mailer, estimator: estimator, departments: departments, log: log}
}

// JobUpdated is the post-commit hook behind every dispatcher-level job
// mutation. The triggering transaction has already committed, so nothing here
// may fail the caller: every error is logged and swallowed.
func (s *Service) JobUpdated(ctx context.Context, jobID, actorUserID types.ID, changedFields []string) {
	view, err := s.store.LoadJobView(ctx, jobID)
	if err != nil {
		s.log.Error("notify: reload job", zap.String("job_id", string(jobID)), zap.Error(err))
		return
	}

	recipients, err := s.dir.UpdateRecipients(ctx, actorUserID)
	if err != nil {
		s.log.Error("notify: resolve recipients", zap.String("job_id", string(jobID)), zap.Error(err))
		return
	}
	if len(recipients) == 0 && len(s.departments) == 0 {
		// Nobody to tell; this is a normal outcome, not an error.
		return
	}

	userIDs := make([]types.ID, 0, len(recipients))
	addresses := make([]string, 0, len(recipients)+len(s.departments))
	for _, r := range recipients {
		userIDs = append(userIDs, r.UserID)
		addresses = append(addresses, r.Email)
	}
	addresses = append(addresses, s.departments...)
	addresses = DedupeAddresses(addresses)

	if err := s.store.InsertBulk(ctx, jobID, changedFields, userIDs); err != nil {
		s.log.Error("notify: insert in-app notifications", zap.String("job_id", string(jobID)), zap.Error(err))
		// Keep going; the outbound message is independent of the in-app rows.
	}

	var travelNote string
	if s.estimator != nil {
		if dur, dist, err := s.estimator.Estimate(ctx, view.OriginName, view.DestinationName); err == nil {
			travelNote = dist + ", about " + dur.Round(time.Minute).String()
		}
	}

	subject := RenderSubject(view)
	body := RenderBody(view, changedFields, travelNote)

	if s.mailer == nil {
		return
	}
	for _, addr := range addresses {
		if err := s.mailer.Send(ctx, addr, subject, body); err != nil {
			s.log.Warn("notify: outbound delivery failed",
				zap.String("job_id", string(jobID)),
				zap.String("to", addr),
				zap.Error(err))
		}
	}
}
