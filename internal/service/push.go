package service

import (
	"fmt"
	"math"
	"strings"
	"time"

	"campusdigest/internal/model"
)

// Push personas. The senior persona nags harder; auto-selection picks it
// when the nearest deadline is close.
const (
	PersonaSenior = "学姐风"
	PersonaCute   = "可爱风"
	PersonaAuto   = "auto"
)

// Urgency tiers derived from hours remaining on the nearest push task.
const (
	UrgencyNone     = "none"
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

var urgencyLabels = map[string]string{
	UrgencyNone:     "无紧急任务",
	UrgencyLow:      "低",
	UrgencyMedium:   "一般",
	UrgencyHigh:     "较紧急",
	UrgencyCritical: "紧急",
}

// renderPush fills the push fields of a built digest: summary line, persona
// nudge, up to 5 task lines, up to 3 headline mails.
func (s *DigestService) renderPush(d *model.Digest) {
	now := d.GeneratedAt
	pushTasks := s.pushWindowTasks(d.Tasks, now)

	first, hoursLeft, urgency := s.pushContext(pushTasks, now)
	persona := s.selectPersona(hoursLeft, urgency)

	lines := []string{
		d.SummaryText,
		fmt.Sprintf("[推送] 风格 %s | 紧急度 %s", persona, urgencyLabels[urgency]),
		nudgeLine(persona, first, hoursLeft, urgency),
	}

	for i, task := range pushTasks {
		if i == 5 {
			break
		}
		due := "无截止时间"
		if task.DueAt != nil {
			due = task.DueAt.In(s.opts.Loc).Format("01-02 15:04")
		}
		lines = append(lines, fmt.Sprintf("[任务] %s | %s", task.Title, due))
	}

	focus := d.Buckets.Immediate
	if len(focus) == 0 {
		focus = d.ImportantMails
	}
	for i, mail := range focus {
		if i == 3 {
			break
		}
		lines = append(lines, fmt.Sprintf("[邮件] %s | %s", mail.Subject, mail.Sender))
	}

	d.PushText = strings.Join(lines, "\n")
	d.PushPersona = persona
	d.PushUrgency = urgency
}

// pushWindowTasks keeps dated tasks whose due time falls between 24 hours
// ago and the configured due-within horizon.
func (s *DigestService) pushWindowTasks(tasks []model.Task, now time.Time) []model.Task {
	floor := now.Add(-24 * time.Hour)
	limit := now.Add(time.Duration(s.opts.PushDueWithinHours) * time.Hour)

	var kept []model.Task
	for _, task := range tasks {
		if task.DueAt == nil {
			continue
		}
		due := task.DueAt.In(s.opts.Loc)
		if !due.Before(floor) && !due.After(limit) {
			kept = append(kept, task)
		}
	}
	return kept
}

// pushContext finds the nearest-due push task and its urgency tier.
func (s *DigestService) pushContext(pushTasks []model.Task, now time.Time) (*model.Task, int, string) {
	if len(pushTasks) == 0 {
		return nil, -1, UrgencyNone
	}

	first := pushTasks[0]
	for _, task := range pushTasks[1:] {
		if task.DueAt.Before(*first.DueAt) {
			first = task
		}
	}

	secondsLeft := math.Max(first.DueAt.Sub(now).Seconds(), 0)
	hoursLeft := int(math.Ceil(secondsLeft / 3600))

	switch {
	case hoursLeft <= 6:
		return &first, hoursLeft, UrgencyCritical
	case hoursLeft <= 24:
		return &first, hoursLeft, UrgencyHigh
	case hoursLeft <= 48:
		return &first, hoursLeft, UrgencyMedium
	default:
		return &first, hoursLeft, UrgencyLow
	}
}

// selectPersona honors a fixed configuration, otherwise picks the stricter
// persona when the nearest deadline falls inside the urgency threshold.
func (s *DigestService) selectPersona(hoursLeft int, urgency string) string {
	p := strings.TrimSpace(s.opts.Persona)
	if p != "" && !strings.EqualFold(p, PersonaAuto) {
		return p
	}
	if urgency != UrgencyNone && hoursLeft <= s.opts.PushUrgentHours {
		return PersonaSenior
	}
	return PersonaCute
}

func nudgeLine(persona string, first *model.Task, hoursLeft int, urgency string) string {
	cute := strings.Contains(persona, "可爱")

	if first == nil {
		if cute {
			return "可爱提醒: 今天节奏很稳，记得抽 15 分钟整理下本周任务喔。"
		}
		return "学姐提醒: 今天没有紧急截止，建议现在把本周任务先排进日程。"
	}

	if cute {
		switch urgency {
		case UrgencyCritical:
			return fmt.Sprintf("可爱催促: %s 只剩约 %d 小时啦，先交掉再奖励自己。", first.Title, hoursLeft)
		case UrgencyHigh:
			return fmt.Sprintf("可爱提醒: %s 还剩约 %d 小时，今天优先把它拿下喔。", first.Title, hoursLeft)
		default:
			return fmt.Sprintf("可爱提醒: %s 还剩大约 %d 小时截止啦，现在动手最轻松，冲呀。", first.Title, hoursLeft)
		}
	}

	switch urgency {
	case UrgencyCritical:
		return fmt.Sprintf("学姐催办: %s 距离截止约 %d 小时，先做完这一项。", first.Title, hoursLeft)
	case UrgencyHigh:
		return fmt.Sprintf("学姐提醒: %s 还剩约 %d 小时，建议今天优先清掉。", first.Title, hoursLeft)
	default:
		return fmt.Sprintf("学姐提醒: %s 距离截止约 %d 小时，先把这件事做完，今天就稳了。", first.Title, hoursLeft)
	}
}
