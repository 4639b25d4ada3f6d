// Package app assembles the digest pipeline from configuration. Both the
// server and the CLI build the same object graph through here.
package app

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"campusdigest/config"
	"campusdigest/internal/cachestore"
	"campusdigest/internal/client"
	"campusdigest/internal/repository"
	"campusdigest/internal/scanner"
	"campusdigest/internal/service"
	"campusdigest/internal/triage"
	"campusdigest/pkg/db"
	"campusdigest/pkg/mq"
)

// App is the assembled pipeline plus the handles the callers need.
type App struct {
	Cfg    *config.Config
	Loc    *time.Location
	Runner *service.Runner
	Pool   *pgxpool.Pool

	closers []func()
}

// Options toggle the optional outer attachments.
type Options struct {
	// WithHistory opens the digest-history DB when configured.
	WithHistory bool
	// WithEvents opens the MQ publisher when configured.
	WithEvents bool
	// WithPush enables the notification sink when configured.
	WithPush bool
}

// New wires the pipeline. Optional attachments (history DB, event bus, push
// sink) are skipped silently when their configuration is absent.
func New(cfg *config.Config, opts Options, log *zap.Logger) (*App, error) {
	loc, err := time.LoadLocation(cfg.Digest.Timezone)
	if err != nil {
		return nil, err
	}

	a := &App{Cfg: cfg, Loc: loc}

	var cacheStore cachestore.Store
	switch cfg.Cache.Backend {
	case "redis":
		store := cachestore.NewRedisStore(cfg.Redis)
		a.closers = append(a.closers, func() { _ = store.Close() })
		cacheStore = store
	default:
		cacheStore = cachestore.NewFileStore(cfg.Cache.Path)
	}
	cache := cachestore.NewCache(time.Duration(cfg.Cache.TTLSec) * time.Second)

	actionKeywords := config.SplitKeywords(cfg.Digest.ActionKeywords)
	noiseKeywords := config.SplitKeywords(cfg.Digest.NoiseKeywords)
	importantKeywords := config.SplitKeywords(cfg.Digest.ImportantKeywords)

	sc := scanner.New(scanner.Options{
		Loc:            loc,
		TaskMode:       cfg.Digest.TaskMode,
		ActionKeywords: actionKeywords,
		NoiseKeywords:  noiseKeywords,
		RequireDue:     cfg.Digest.RequireDue,
	}, log)

	llm := client.NewLLMClient(cfg.LLM, log)
	remoteEnabled := cfg.LLM.Enabled && llm.IsConfigured()

	engine := triage.NewEngine(triage.Options{
		Loc:               loc,
		ImportantKeywords: importantKeywords,
		ActionKeywords:    actionKeywords,
		NoiseKeywords:     noiseKeywords,
		RemoteEnabled:     remoteEnabled,
		Parallelism:       cfg.LLM.Parallelism,
		CallBudget:        cfg.LLM.CallBudget,
		BreakerThreshold:  cfg.LLM.BreakerThreshold,
		RemoteTimeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
	}, llm, cache, log)

	taskSources := []service.TaskSource{client.NewCanvasClient(cfg.Canvas, log)}
	if cfg.Canvas.FeedURL != "" {
		taskSources = append(taskSources, client.NewCanvasFeedClient(cfg.Canvas.FeedURL, loc, log))
	}

	var notifier service.Notifier
	if opts.WithPush && cfg.Push.AppToken != "" && cfg.Push.UserKey != "" {
		push, err := client.NewPushoverClient(cfg.Push, log)
		if err != nil {
			return nil, err
		}
		notifier = push
	} else if opts.WithPush {
		log.Warn("push credentials missing, notifications disabled")
	}

	var extractor service.TaskExtractor
	if remoteEnabled {
		extractor = llm
	}

	digests := service.NewDigestService(
		service.DigestOptions{
			Loc:                loc,
			TimezoneName:       cfg.Digest.Timezone,
			LookaheadDays:      cfg.Digest.LookaheadDays,
			RequireDue:         cfg.Digest.RequireDue,
			MailLimit:          cfg.Outlook.MailLimit,
			ImportantKeywords:  importantKeywords,
			RemoteExtract:      remoteEnabled,
			MaxRemoteMails:     cfg.LLM.MaxMails,
			RemoteParallelism:  cfg.LLM.Parallelism,
			PushDueWithinHours: cfg.Digest.PushDueWithinHours,
			PushUrgentHours:    cfg.Digest.PushUrgentWithinHours,
			Persona:            cfg.Digest.Persona,
		},
		sc, engine, cache, cacheStore,
		taskSources,
		client.NewOutlookClient(cfg.Outlook, log),
		extractor,
		notifier,
		log,
	)

	var digestRepo *repository.DigestRepository
	if opts.WithHistory && cfg.DB.Host != "" {
		pool, err := db.NewConnection(cfg.DB, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Pool = pool
		a.closers = append(a.closers, pool.Close)
		digestRepo = repository.NewDigestRepository(pool)
	} else if opts.WithHistory {
		log.Warn("db host missing, digest history disabled")
	}

	var publisher *mq.Publisher
	if opts.WithEvents && cfg.MQ.URL != "" {
		publisher, err = mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, publisher.Close)
	} else if opts.WithEvents {
		log.Warn("mq url missing, digest events disabled")
	}

	a.Runner = service.NewRunner(digests, digestRepo, publisher, log)
	return a, nil
}

// Close releases every attachment in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
