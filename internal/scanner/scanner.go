// Package scanner decides whether a mail represents actionable coursework
// and extracts task candidates with due dates from it.
package scanner

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"campusdigest/internal/deadline"
	"campusdigest/internal/digest"
	"campusdigest/internal/model"
)

// canvasIndicators gate the scanner: a mail must look like it originates
// from or references the academic task system before any extraction runs.
var canvasIndicators = []string{
	"canvas",
	"instructure",
	"submission",
	"assignment",
	"quiz",
	"discussion",
	"course announcement",
	"due",
	"deadline",
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	inlineTailRe = regexp.MustCompile(`(?:am|pm|AM|PM|central time|ct)\b`)

	subjectTitleRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Assignment|作业)\s*[:\-]\s*(.+)`),
		regexp.MustCompile(`(?i)(?:Due|截止)\s*[:\-]\s*(.+)`),
		regexp.MustCompile(`(?i)(.+?)\s+(?:is due|due\s+on)`),
		regexp.MustCompile(`(?i)Submission Reminder\s*[:\-]\s*(.+)`),
	}
	previewTitleRe = regexp.MustCompile(`(?i)(?:Assignment|作业)\s*[:\-]\s*(.+?)(?:\.|$)`)
)

// Options carry the per-process scan policy. Loaded once at startup and
// injected; the scanner itself holds no mutable state.
type Options struct {
	Loc            *time.Location
	TaskMode       string // action_only keeps only keyword-matching candidates
	ActionKeywords []string
	NoiseKeywords  []string
	RequireDue     bool
}

type Scanner struct {
	opts   Options
	logger *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Scanner {
	if opts.TaskMode == "" {
		opts.TaskMode = "action_only"
	}
	return &Scanner{opts: opts, logger: logger}
}

// Result is the outcome of scanning one mail. EarliestDue is reported even
// when every task candidate was filtered out, so triage can still use it.
type Result struct {
	Tasks       []model.Task
	EarliestDue *time.Time
}

// LooksLikeCanvasMail reports whether subject/preview/sender reference the
// academic task system.
func (s *Scanner) LooksLikeCanvasMail(mail model.Mail) bool {
	text := strings.ToLower(mail.Subject + " " + mail.Preview + " " + mail.Sender)
	for _, word := range canvasIndicators {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

// IsNoiseMail checks the configured noise keywords against the subject only;
// previews quote too much boilerplate to be trusted here.
func (s *Scanner) IsNoiseMail(mail model.Mail) bool {
	subject := strings.ToLower(mail.Subject)
	for _, k := range s.opts.NoiseKeywords {
		if strings.Contains(subject, k) {
			return true
		}
	}
	return false
}

func (s *Scanner) isActionable(mail model.Mail, due *time.Time) bool {
	if due != nil {
		return true
	}
	text := strings.ToLower(mail.Subject + " " + mail.Preview + " " + prefix(mail.BodyText, 1200))
	for _, k := range s.opts.ActionKeywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func hasActionKeyword(text string, keywords []string) bool {
	low := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(low, k) {
			return true
		}
	}
	return false
}

// isActionLine filters follow-up lines under a due marker down to plausible
// task titles: long enough, not a greeting or boilerplate.
func isActionLine(line string) bool {
	l := strings.TrimSpace(line)
	if len(l) < 4 {
		return false
	}
	low := strings.ToLower(l)
	for _, weak := range []string{"questions?", "cheers", "have a great", "view announcement", "update your notification"} {
		if strings.HasPrefix(low, weak) {
			return false
		}
	}
	for _, frag := range []string{"links to an external site", "syllabus", "piazza q&a"} {
		if strings.Contains(low, frag) {
			return false
		}
	}
	return true
}

func hasDueMarker(line string) bool {
	low := strings.ToLower(line)
	return strings.Contains(low, "due") || strings.Contains(low, "deadline") ||
		strings.Contains(low, "tonight") || strings.Contains(low, "tomorrow")
}

// bodyHasDueMarker reports whether any body line carries both a due marker
// and a parseable deadline.
func (s *Scanner) bodyHasDueMarker(body string, now time.Time) bool {
	for _, line := range strings.Split(body, "\n") {
		ln := strings.TrimSpace(line)
		if ln == "" || !hasDueMarker(ln) {
			continue
		}
		if deadline.ParseText(ln, now, s.opts.Loc) != nil {
			return true
		}
	}
	return false
}

// extractDueBlocks walks the body for due-marker lines and collects up to 3
// action lines after each, plus an inline same-line tail candidate.
func (s *Scanner) extractDueBlocks(mail model.Mail, now time.Time) []model.Task {
	text := strings.TrimSpace(mail.BodyText)
	if text == "" {
		return nil
	}

	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.Trim(whitespaceRe.ReplaceAllString(ln, " "), " -\t")
		if ln != "" {
			lines = append(lines, ln)
		}
	}

	var tasks []model.Task
	for idx, line := range lines {
		if !hasDueMarker(line) {
			continue
		}
		dueAt := deadline.ParseText(line, now, s.opts.Loc)
		if dueAt == nil {
			continue
		}

		var candidates []string
		// Some announcements put the task name on the same line after the
		// due timestamp.
		if parts := inlineTailRe.Split(line, 2); len(parts) > 1 {
			tail := strings.Trim(parts[1], " -:|")
			if tail != "" && isActionLine(tail) {
				candidates = append(candidates, tail)
			}
		}
		for j := idx + 1; j < idx+6 && j < len(lines); j++ {
			nxt := lines[j]
			if deadline.ParseText(nxt, now, s.opts.Loc) != nil {
				break
			}
			if isActionLine(nxt) {
				candidates = append(candidates, nxt)
			}
		}

		if len(candidates) > 3 {
			candidates = candidates[:3]
		}
		for _, cand := range candidates {
			if s.opts.TaskMode == "action_only" && !hasActionKeyword(cand, s.opts.ActionKeywords) {
				continue
			}
			tasks = append(tasks, model.Task{
				Source:   "outlook_canvas_mail",
				Title:    digest.CleanTaskTitle(cand),
				DueAt:    dueAt,
				URL:      mail.URL,
				Priority: 2,
			})
		}
	}
	return tasks
}

// Scan runs the full heuristic pipeline over one mail.
func (s *Scanner) Scan(mail model.Mail, now time.Time) Result {
	if !s.LooksLikeCanvasMail(mail) || s.IsNoiseMail(mail) {
		return Result{}
	}

	if blockTasks := s.extractDueBlocks(mail, now); len(blockTasks) > 0 {
		return Result{Tasks: blockTasks, EarliestDue: earliestDue(blockTasks)}
	}
	// A due marker the block extractor could not resolve means the mail was
	// processed but yielded nothing; falling through to subject extraction
	// here would produce false positives from malformed deadline lines.
	if s.bodyHasDueMarker(mail.BodyText, now) {
		return Result{}
	}

	subject := strings.TrimSpace(mail.Subject)
	preview := strings.TrimSpace(mail.Preview)
	combined := subject + " " + preview + " " + prefix(mail.BodyText, 1600)
	dueAt := deadline.ParseText(combined, now, s.opts.Loc)

	if s.opts.TaskMode == "action_only" && !s.isActionable(mail, dueAt) {
		return Result{EarliestDue: dueAt}
	}
	if s.opts.RequireDue && dueAt == nil {
		return Result{}
	}

	title := subject
	for _, re := range subjectTitleRes {
		if m := re.FindStringSubmatch(subject); m != nil {
			title = m[1]
			break
		}
	}
	if title == subject && preview != "" {
		if m := previewTitleRe.FindStringSubmatch(preview); m != nil {
			title = m[1]
		}
	}

	priority := 1
	if dueAt != nil {
		priority = 2
	}
	task := model.Task{
		Source:   "outlook_canvas_mail",
		Title:    digest.CleanTaskTitle(title),
		DueAt:    dueAt,
		URL:      mail.URL,
		Priority: priority,
	}
	return Result{Tasks: []model.Task{task}, EarliestDue: dueAt}
}

// FilterRemoteTasks applies the same gates to remotely extracted candidates
// that heuristic candidates pass through: generic-title denylist, noise and
// action keywords, and the require-due flag. One policy for both paths.
func (s *Scanner) FilterRemoteTasks(tasks []model.Task) []model.Task {
	var kept []model.Task
	for _, task := range tasks {
		if digest.IsGenericTaskTitle(task.Title) {
			continue
		}
		if s.opts.TaskMode == "action_only" {
			low := strings.ToLower(task.Title)
			if !hasActionKeyword(low, s.opts.ActionKeywords) {
				continue
			}
			if hasActionKeyword(low, s.opts.NoiseKeywords) {
				continue
			}
		}
		if s.opts.RequireDue && task.DueAt == nil {
			continue
		}
		kept = append(kept, task)
	}
	return kept
}

func earliestDue(tasks []model.Task) *time.Time {
	var earliest *time.Time
	for _, t := range tasks {
		if t.DueAt == nil {
			continue
		}
		if earliest == nil || t.DueAt.Before(*earliest) {
			earliest = t.DueAt
		}
	}
	return earliest
}

// prefix bounds keyword scans to the head of long bodies.
func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
