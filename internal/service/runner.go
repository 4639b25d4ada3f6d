package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	contracts "campusdigest/contracts/mq"
	"campusdigest/internal/model"
	"campusdigest/internal/repository"
	"campusdigest/pkg/mq"
)

// Runner drives build cycles for both the scheduler and the HTTP surface,
// and fans the finished digest out to history storage and the event bus.
// History and event publishing are best-effort; the digest stands without
// them.
type Runner struct {
	digests   *DigestService
	repo      *repository.DigestRepository
	publisher *mq.Publisher
	logger    *zap.Logger

	mu     sync.Mutex
	latest *model.Digest
}

func NewRunner(digests *DigestService, repo *repository.DigestRepository, publisher *mq.Publisher, logger *zap.Logger) *Runner {
	return &Runner{
		digests:   digests,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// RunNow builds a digest, pushes it, records it, and announces it.
func (r *Runner) RunNow(ctx context.Context) (*model.NotifyResult, error) {
	result, err := r.digests.BuildAndNotify(ctx)
	if err != nil {
		return nil, err
	}
	d := result.Digest

	r.mu.Lock()
	r.latest = d
	r.mu.Unlock()

	if r.repo != nil {
		if err := r.repo.Insert(ctx, d); err != nil {
			r.logger.Warn("digest history insert failed", zap.String("digest_id", d.ID), zap.Error(err))
		}
	}
	if r.publisher != nil {
		event := contracts.DigestGeneratedPayload{
			DigestID:    d.ID,
			DateLabel:   d.DateLabel,
			GeneratedAt: d.GeneratedAt,
			TaskCount:   len(d.Tasks),
			MailCount:   d.Buckets.Total(),
			PushUrgency: d.PushUrgency,
			PushSent:    result.PushSent,
		}
		if err := r.publisher.Publish(ctx, mq.RoutingKeyDigestGenerated, event); err != nil {
			r.logger.Warn("digest.generated publish failed", zap.String("digest_id", d.ID), zap.Error(err))
		}
	}

	return result, nil
}

// Today returns the digest for the dashboard: the last one built this
// process, then stored history, then a fresh build.
func (r *Runner) Today(ctx context.Context) (*model.Digest, error) {
	r.mu.Lock()
	latest := r.latest
	r.mu.Unlock()
	if latest != nil {
		return latest, nil
	}

	if r.repo != nil {
		if d, err := r.repo.Latest(ctx); err == nil {
			r.mu.Lock()
			r.latest = d
			r.mu.Unlock()
			return d, nil
		}
	}

	d, err := r.digests.Build(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.latest = d
	r.mu.Unlock()
	return d, nil
}

// History proxies stored digests for the dashboard.
func (r *Runner) History(ctx context.Context, limit int) ([]model.Digest, error) {
	if r.repo == nil {
		return nil, nil
	}
	return r.repo.History(ctx, limit)
}
