// Package triage assigns every mail of a build to exactly one urgency
// bucket, resolving each mail through an ordered chain: cached label,
// budget- and breaker-guarded remote classifier, deterministic fallback.
package triage

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"campusdigest/internal/cachestore"
	"campusdigest/internal/model"
	"campusdigest/pkg/circuitbreaker"
	"campusdigest/pkg/metrics"
)

// Classifier is the remote free-text classifier boundary. It must answer
// with one label from model.BucketLabels; anything else, and any error or
// timeout, counts as a soft failure.
type Classifier interface {
	ClassifyMail(ctx context.Context, mail model.Mail, dueAt *time.Time, now time.Time) (string, error)
}

// Options carry the per-process triage policy.
type Options struct {
	Loc               *time.Location
	ImportantKeywords []string
	ActionKeywords    []string
	NoiseKeywords     []string
	RemoteEnabled     bool
	Parallelism       int
	CallBudget        int
	BreakerThreshold  int
	RemoteTimeout     time.Duration
}

type Engine struct {
	opts       Options
	classifier Classifier
	cache      *cachestore.Cache
	logger     *zap.Logger
}

func NewEngine(opts Options, classifier Classifier, cache *cachestore.Cache, logger *zap.Logger) *Engine {
	if opts.Parallelism <= 0 {
		opts.Parallelism = 4
	}
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = 12 * time.Second
	}
	return &Engine{opts: opts, classifier: classifier, cache: cache, logger: logger}
}

// Triage buckets every mail. Inputs are never mutated; the result is the
// bucket partition plus the label assignment keyed by content hash.
func (e *Engine) Triage(ctx context.Context, mails []model.Mail, dueByHash map[string]*time.Time, now time.Time) (model.MailBuckets, map[string]string) {
	assigned := make(map[string]string, len(mails))

	guard := circuitbreaker.NewGuard(circuitbreaker.Config{
		FailureThreshold: e.opts.BreakerThreshold,
		CallBudget:       e.opts.CallBudget,
	})

	// Cache hits resolve synchronously; only misses go to the workers.
	var pending []model.Mail
	for _, mail := range mails {
		hash := mail.ContentHash()
		if label, ok := e.cache.Lookup(hash, now); ok {
			assigned[hash] = label
			metrics.RecordTriageDecision("cache")
			continue
		}
		pending = append(pending, mail)
	}

	if len(pending) > 0 {
		results := make([]string, len(pending))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.opts.Parallelism)
		for i, mail := range pending {
			g.Go(func() error {
				results[i] = e.resolve(gctx, guard, mail, dueByHash[mail.ContentHash()], now)
				return nil
			})
		}
		// Workers never return errors; a failed remote attempt resolves to
		// the fallback label instead of failing the build.
		_ = g.Wait()
		for i, mail := range pending {
			assigned[mail.ContentHash()] = results[i]
		}
	}

	buckets := model.MailBuckets{}
	for _, mail := range mails {
		switch assigned[mail.ContentHash()] {
		case model.BucketImmediate:
			buckets.Immediate = append(buckets.Immediate, mail)
		case model.BucketWeekly:
			buckets.Weekly = append(buckets.Weekly, mail)
		default:
			buckets.Reference = append(buckets.Reference, mail)
		}
	}
	sortByReceivedDesc(buckets.Immediate)
	sortByReceivedDesc(buckets.Weekly)
	sortByReceivedDesc(buckets.Reference)

	return buckets, assigned
}

// resolve runs the remote and fallback stages for one cache-missed mail.
func (e *Engine) resolve(ctx context.Context, guard *circuitbreaker.Guard, mail model.Mail, dueAt *time.Time, now time.Time) string {
	if label, ok := e.classifyRemote(ctx, guard, mail, dueAt, now); ok {
		metrics.RecordTriageDecision("remote")
		return label
	}
	metrics.RecordTriageDecision("fallback")
	return e.fallbackBucket(mail, dueAt, now)
}

// classifyRemote attempts one guarded remote classification. The budget unit
// is consumed whether the call succeeds or not.
func (e *Engine) classifyRemote(ctx context.Context, guard *circuitbreaker.Guard, mail model.Mail, dueAt *time.Time, now time.Time) (string, bool) {
	if !e.opts.RemoteEnabled || e.classifier == nil {
		return "", false
	}
	if err := guard.Allow(); err != nil {
		return "", false
	}

	callCtx, cancel := context.WithTimeout(ctx, e.opts.RemoteTimeout)
	defer cancel()

	start := time.Now()
	label, err := e.classifier.ClassifyMail(callCtx, mail, dueAt, now)
	if err != nil {
		metrics.RecordClassifierCall("triage", "error", time.Since(start))
		guard.OnFailure()
		e.logger.Warn("remote classification failed, falling back",
			zap.String("subject", mail.Subject),
			zap.Error(err),
		)
		return "", false
	}
	if !validLabel(label) {
		metrics.RecordClassifierCall("triage", "invalid", time.Since(start))
		guard.OnFailure()
		e.logger.Warn("remote classifier returned out-of-vocabulary label",
			zap.String("subject", mail.Subject),
			zap.String("label", label),
		)
		return "", false
	}

	metrics.RecordClassifierCall("triage", "ok", time.Since(start))
	guard.OnSuccess()
	e.cache.Put(mail.ContentHash(), label, now)
	return label, true
}

func validLabel(label string) bool {
	for _, l := range model.BucketLabels {
		if label == l {
			return true
		}
	}
	return false
}

func sortByReceivedDesc(mails []model.Mail) {
	sort.SliceStable(mails, func(i, j int) bool {
		return mails[i].ReceivedAt.After(mails[j].ReceivedAt)
	})
}
