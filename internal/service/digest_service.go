// Package service holds the business services behind the HTTP and CLI
// surfaces: digest composition, push rendering, and login.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"campusdigest/internal/cachestore"
	"campusdigest/internal/digest"
	"campusdigest/internal/model"
	"campusdigest/internal/scanner"
	"campusdigest/internal/triage"
	"campusdigest/pkg/metrics"
)

// TaskSource yields tasks from one upstream system (Canvas todo API, the
// published ICS feed). A failed fetch degrades to an empty list.
type TaskSource interface {
	Name() string
	FetchTasks(ctx context.Context) ([]model.Task, error)
}

// MailSource yields recent inbox messages, newest first.
type MailSource interface {
	FetchRecentMail(ctx context.Context, limit int) ([]model.Mail, error)
}

// TaskExtractor is the remote free-text task extractor applied to mails the
// heuristics find promising.
type TaskExtractor interface {
	ExtractTasks(ctx context.Context, mail model.Mail, tzName string) ([]model.Task, error)
}

// Notifier delivers the rendered push text. A send failure is reported, not
// raised; the digest stands either way.
type Notifier interface {
	Send(ctx context.Context, title, body string) error
}

// DigestOptions is the composition policy, loaded once at startup.
type DigestOptions struct {
	Loc                *time.Location
	TimezoneName       string
	LookaheadDays      int
	RequireDue         bool
	MailLimit          int
	ImportantKeywords  []string
	RemoteExtract      bool
	MaxRemoteMails     int
	RemoteParallelism  int
	PushDueWithinHours int
	PushUrgentHours    int
	Persona            string
}

// DigestService is the top-level orchestrator of one build cycle.
type DigestService struct {
	opts       DigestOptions
	scanner    *scanner.Scanner
	triager    *triage.Engine
	cache      *cachestore.Cache
	cacheStore cachestore.Store

	taskSources []TaskSource
	mailSource  MailSource
	extractor   TaskExtractor
	notifier    Notifier

	logger *zap.Logger
}

func NewDigestService(
	opts DigestOptions,
	sc *scanner.Scanner,
	triager *triage.Engine,
	cache *cachestore.Cache,
	cacheStore cachestore.Store,
	taskSources []TaskSource,
	mailSource MailSource,
	extractor TaskExtractor,
	notifier Notifier,
	logger *zap.Logger,
) *DigestService {
	if opts.MailLimit <= 0 {
		opts.MailLimit = 30
	}
	if opts.MaxRemoteMails <= 0 {
		opts.MaxRemoteMails = 20
	}
	if opts.RemoteParallelism <= 0 {
		opts.RemoteParallelism = 4
	}
	if opts.PushDueWithinHours <= 0 {
		opts.PushDueWithinHours = 48
	}
	if opts.PushUrgentHours <= 0 {
		opts.PushUrgentHours = 18
	}
	return &DigestService{
		opts:        opts,
		scanner:     sc,
		triager:     triager,
		cache:       cache,
		cacheStore:  cacheStore,
		taskSources: taskSources,
		mailSource:  mailSource,
		extractor:   extractor,
		notifier:    notifier,
		logger:      logger,
	}
}

// Build runs one full digest cycle at the current time.
func (s *DigestService) Build(ctx context.Context) (*model.Digest, error) {
	return s.buildAt(ctx, time.Now().In(s.opts.Loc))
}

func (s *DigestService) buildAt(ctx context.Context, now time.Time) (*model.Digest, error) {
	started := time.Now()
	defer func() {
		metrics.DigestBuildDuration.Observe(time.Since(started).Seconds())
	}()

	mails, sourceTasks := s.fetchInputs(ctx)

	// Heuristic scan per mail. The earliest due found for a mail feeds
	// triage even when every candidate task was filtered out.
	var mailTasks []model.Task
	dueByHash := make(map[string]*time.Time)
	for _, mail := range mails {
		res := s.scanner.Scan(mail, now)
		mailTasks = append(mailTasks, res.Tasks...)
		if res.EarliestDue != nil {
			dueByHash[mail.ContentHash()] = res.EarliestDue
		}
	}
	for range mailTasks {
		metrics.RecordTaskExtracted("mail")
	}

	llmTasks := s.extractRemoteTasks(ctx, mails, now)

	tasks := digest.MergeTasks(mailTasks, llmTasks, sourceTasks)
	dueTasks := s.filterDueSoon(tasks, now)
	sort.SliceStable(dueTasks, func(i, j int) bool {
		a, b := dueTasks[i].DueAt, dueTasks[j].DueAt
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.Before(*b)
	})

	importantMails := s.importantMails(mails)
	sort.SliceStable(importantMails, func(i, j int) bool {
		return importantMails[i].ReceivedAt.After(importantMails[j].ReceivedAt)
	})

	// Fresh cache snapshot in, triage, one bulk persist out.
	if err := s.cache.LoadFrom(ctx, s.cacheStore); err != nil {
		s.logger.Warn("classification cache unreadable, starting empty", zap.Error(err))
	}
	buckets, assigned := s.triager.Triage(ctx, mails, dueByHash, now)
	if err := s.cache.Persist(ctx, s.cacheStore); err != nil {
		s.logger.Warn("classification cache persist failed", zap.Error(err))
	}

	summary := fmt.Sprintf(
		"今天有 %d 个待办（邮件解析+Canvas可选），立刻处理 %d 封，本周待办 %d 封。",
		len(dueTasks), len(buckets.Immediate), len(buckets.Weekly),
	)

	d := &model.Digest{
		ID:             uuid.NewString(),
		GeneratedAt:    now,
		DateLabel:      now.In(s.opts.Loc).Format("2006-01-02"),
		Tasks:          dueTasks,
		ImportantMails: importantMails,
		Buckets:        buckets,
		CategoryByHash: assigned,
		SummaryText:    summary,
	}
	s.renderPush(d)

	s.logger.Info("digest built",
		zap.String("digest_id", d.ID),
		zap.Int("tasks", len(d.Tasks)),
		zap.Int("mails", len(mails)),
		zap.Int("immediate", len(buckets.Immediate)),
		zap.String("push_urgency", d.PushUrgency),
	)
	return d, nil
}

// BuildAndNotify builds a digest and attempts the push. A failed push is
// reported in the result, never as an error: the digest already exists.
func (s *DigestService) BuildAndNotify(ctx context.Context) (*model.NotifyResult, error) {
	d, err := s.Build(ctx)
	if err != nil {
		return nil, err
	}
	result := &model.NotifyResult{Digest: d}
	if s.notifier == nil {
		metrics.RecordPushSend("skipped")
		return result, nil
	}
	if err := s.notifier.Send(ctx, "校园日报 "+d.DateLabel, d.PushText); err != nil {
		metrics.RecordPushSend("failed")
		s.logger.Warn("push send failed", zap.String("digest_id", d.ID), zap.Error(err))
		result.PushError = err.Error()
		return result, nil
	}
	metrics.RecordPushSend("sent")
	result.PushSent = true
	return result, nil
}

// fetchInputs pulls mail and upstream tasks concurrently. Either side's
// failure degrades to an empty collection; a build never dies upstream.
func (s *DigestService) fetchInputs(ctx context.Context) ([]model.Mail, []model.Task) {
	var (
		mails       []model.Mail
		sourceTasks = make([][]model.Task, len(s.taskSources))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if s.mailSource == nil {
			return nil
		}
		fetched, err := s.mailSource.FetchRecentMail(gctx, s.opts.MailLimit)
		if err != nil {
			metrics.SourceFetchFailureCount.WithLabelValues("outlook").Inc()
			s.logger.Warn("mail fetch failed, continuing without mail", zap.Error(err))
			return nil
		}
		mails = fetched
		return nil
	})
	for i, src := range s.taskSources {
		g.Go(func() error {
			fetched, err := src.FetchTasks(gctx)
			if err != nil {
				metrics.SourceFetchFailureCount.WithLabelValues(src.Name()).Inc()
				s.logger.Warn("task source fetch failed, continuing without it",
					zap.String("source", src.Name()),
					zap.Error(err),
				)
				return nil
			}
			sourceTasks[i] = fetched
			return nil
		})
	}
	_ = g.Wait()

	var flat []model.Task
	for _, list := range sourceTasks {
		for _, task := range list {
			metrics.RecordTaskExtracted(task.Source)
		}
		flat = append(flat, list...)
	}
	return mails, flat
}

// extractRemoteTasks runs the remote extractor over promising mails, capped
// at MaxRemoteMails, and gates the candidates through the scanner's policy.
func (s *DigestService) extractRemoteTasks(ctx context.Context, mails []model.Mail, now time.Time) []model.Task {
	if !s.opts.RemoteExtract || s.extractor == nil {
		return nil
	}

	var candidates []model.Mail
	for _, mail := range mails {
		if s.scanner.LooksLikeCanvasMail(mail) && !s.scanner.IsNoiseMail(mail) {
			candidates = append(candidates, mail)
		}
	}
	if len(candidates) > s.opts.MaxRemoteMails {
		candidates = candidates[:s.opts.MaxRemoteMails]
	}

	// Per-mail calls are independent, so they run concurrently under the
	// same parallelism limit as triage. Results land in a slice indexed by
	// candidate to keep the output order stable.
	extractedByMail := make([][]model.Task, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.RemoteParallelism)
	for i, mail := range candidates {
		g.Go(func() error {
			start := time.Now()
			extracted, err := s.extractor.ExtractTasks(gctx, mail, s.opts.TimezoneName)
			if err != nil {
				metrics.RecordClassifierCall("extract", "error", time.Since(start))
				s.logger.Warn("remote task extraction failed, skipping mail",
					zap.String("subject", mail.Subject),
					zap.Error(err),
				)
				return nil
			}
			metrics.RecordClassifierCall("extract", "ok", time.Since(start))
			extractedByMail[i] = extracted
			return nil
		})
	}
	_ = g.Wait()

	var kept []model.Task
	for _, extracted := range extractedByMail {
		for _, task := range s.scanner.FilterRemoteTasks(extracted) {
			if !s.isDueSoon(task, now) {
				continue
			}
			metrics.RecordTaskExtracted("llm")
			kept = append(kept, task)
		}
	}
	return kept
}

// isDueSoon keeps a task inside the active window: due no later than
// now+lookahead and no earlier than the start of the current local day, so
// stale overdue items do not resurface. Undated tasks stay only when the
// require-due flag is off.
func (s *DigestService) isDueSoon(task model.Task, now time.Time) bool {
	if task.DueAt == nil {
		return !s.opts.RequireDue
	}
	local := now.In(s.opts.Loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.opts.Loc)
	dueLocal := task.DueAt.In(s.opts.Loc)
	if dueLocal.Before(dayStart) {
		return false
	}
	return !dueLocal.After(now.AddDate(0, 0, s.opts.LookaheadDays))
}

func (s *DigestService) filterDueSoon(tasks []model.Task, now time.Time) []model.Task {
	var kept []model.Task
	for _, task := range tasks {
		if s.isDueSoon(task, now) {
			kept = append(kept, task)
		}
	}
	return kept
}

// importantMails keeps the flagged ones plus keyword matches over
// subject/preview/body head.
func (s *DigestService) importantMails(mails []model.Mail) []model.Mail {
	var kept []model.Mail
	for _, mail := range mails {
		if mail.IsImportant {
			kept = append(kept, mail)
			continue
		}
		text := strings.ToLower(mail.Subject + " " + mail.Preview + " " + headBytes(mail.BodyText, 1200))
		for _, kw := range s.opts.ImportantKeywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				kept = append(kept, mail)
				break
			}
		}
	}
	return kept
}

func headBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}
