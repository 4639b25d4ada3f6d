package digest

import (
	"regexp"
	"strings"

	"campusdigest/internal/model"
)

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	accessCodeRe   = regexp.MustCompile(`access code.*$`)
	parentheticRe  = regexp.MustCompile(`\([^)]*\)`)
	nonAlphaNumRe  = regexp.MustCompile(`[^a-z0-9\s]`)
)

// genericTitlePhrases are digest-of-digests titles that never describe a
// concrete task. Matching tasks are discarded before dedup, not merged.
var genericTitlePhrases = []string{
	"recent canvas notifications",
	"this week's deadlines",
	"weekly deadlines",
	"canvas announcement",
	"course announcement",
	"check out upcoming deadlines",
}

// CleanTaskTitle collapses whitespace and strips list punctuation from a raw
// candidate title.
func CleanTaskTitle(raw string) string {
	text := strings.Trim(whitespaceRe.ReplaceAllString(raw, " "), " -:|")
	if text == "" {
		return "Canvas task"
	}
	return text
}

// normalizeTitleForKey reduces a title to its dedup form: lowercase, no
// parenthetical asides, no "access code..." tail, alphanumerics only.
func normalizeTitleForKey(title string) string {
	t := strings.ToLower(title)
	t = accessCodeRe.ReplaceAllString(t, " ")
	t = parentheticRe.ReplaceAllString(t, " ")
	t = nonAlphaNumRe.ReplaceAllString(t, " ")
	t = strings.TrimSpace(whitespaceRe.ReplaceAllString(t, " "))
	return t
}

// IsGenericTaskTitle reports whether the title matches the denylist of
// generic digest phrases.
func IsGenericTaskTitle(title string) bool {
	t := strings.TrimSpace(strings.ToLower(title))
	for _, p := range genericTitlePhrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}

func dedupKey(task model.Task) string {
	dueKey := "none"
	if task.DueAt != nil {
		dueKey = task.DueAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return normalizeTitleForKey(task.Title) + "|" + dueKey
}

// MergeTasks merges ordered task lists into one deduplicated list. The first
// list contributing a key wins; later duplicates are dropped, so order within
// the earliest contributing list is preserved.
func MergeTasks(lists ...[]model.Task) []model.Task {
	seen := make(map[string]struct{})
	var merged []model.Task
	for _, list := range lists {
		for _, task := range list {
			if IsGenericTaskTitle(task.Title) {
				continue
			}
			key := dedupKey(task)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, task)
		}
	}
	return merged
}
