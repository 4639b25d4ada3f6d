package triage

import (
	"strings"
	"time"

	"campusdigest/internal/deadline"
	"campusdigest/internal/model"
)

// urgentPhrases escalate a mail to the immediate bucket even without a
// parsed due time.
var urgentPhrases = []string{
	"urgent", "asap", "immediately", "final notice",
	"最后提醒", "立即", "马上", "截止",
}

const (
	immediateWindow = 48 * time.Hour
	weeklyWindow    = 7 * 24 * time.Hour
)

// fallbackBucket is the deterministic classifier used when neither the cache
// nor the remote classifier produced a label. Noise demotion runs before any
// urgency rule: a graded/comment notification stays in info_reference no
// matter how soon its due marker reads.
func (e *Engine) fallbackBucket(mail model.Mail, dueAt *time.Time, now time.Time) string {
	subjectLower := strings.ToLower(mail.Subject)
	for _, kw := range e.opts.NoiseKeywords {
		if kw != "" && strings.Contains(subjectLower, strings.ToLower(kw)) {
			return model.BucketReference
		}
	}

	text := strings.ToLower(mail.Subject + " " + mail.Preview + " " + head(mail.BodyText, 600))

	due := dueAt
	if due == nil {
		due = deadline.ParseText(text, now, e.opts.Loc)
	}

	if due != nil && !due.After(now.Add(immediateWindow)) {
		return model.BucketImmediate
	}
	for _, phrase := range urgentPhrases {
		if strings.Contains(text, phrase) {
			return model.BucketImmediate
		}
	}
	if due != nil && !due.After(now.Add(weeklyWindow)) {
		return model.BucketWeekly
	}
	if e.isActionable(text, due) || e.isImportant(mail, text) {
		return model.BucketWeekly
	}
	return model.BucketReference
}

func (e *Engine) isActionable(text string, due *time.Time) bool {
	if due != nil {
		return true
	}
	for _, kw := range e.opts.ActionKeywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func (e *Engine) isImportant(mail model.Mail, text string) bool {
	if mail.IsImportant {
		return true
	}
	for _, kw := range e.opts.ImportantKeywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// head returns at most n bytes of s, cutting on a rune boundary.
func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}
