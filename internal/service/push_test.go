package service

import (
	"strings"
	"testing"
	"time"

	"campusdigest/internal/model"
)

func pushTestService(t *testing.T, persona string) *DigestService {
	t.Helper()
	svc := newTestService(t, time.UTC, nil, nil, nil)
	svc.opts.Loc = time.UTC
	svc.opts.Persona = persona
	return svc
}

func TestRenderPush_OnlyTasksInsideWindowAppear(t *testing.T) {
	now := time.Date(2026, 2, 25, 9, 0, 0, 0, time.UTC)
	near := time.Date(2026, 2, 26, 0, 0, 0, 0, time.UTC)
	far := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	d := &model.Digest{
		GeneratedAt: now,
		SummaryText: "今天有 2 个待办（邮件解析+Canvas可选），立刻处理 0 封，本周待办 0 封。",
		Tasks: []model.Task{
			{Title: "HW 3", DueAt: &near},
			{Title: "Final project", DueAt: &far},
		},
	}

	pushTestService(t, PersonaAuto).renderPush(d)

	if !strings.Contains(d.PushText, "HW 3") {
		t.Errorf("task inside the 48h window missing from push text:\n%s", d.PushText)
	}
	if strings.Contains(d.PushText, "Final project") {
		t.Errorf("task outside the window leaked into push text:\n%s", d.PushText)
	}
}

func TestRenderPush_AutoPersonaFollowsUrgency(t *testing.T) {
	now := time.Date(2026, 2, 25, 9, 0, 0, 0, time.UTC)

	soon := now.Add(10 * time.Hour)
	d := &model.Digest{GeneratedAt: now, Tasks: []model.Task{{Title: "HW 3", DueAt: &soon}}}
	pushTestService(t, PersonaAuto).renderPush(d)
	if d.PushPersona != PersonaSenior {
		t.Errorf("10h out: persona = %q, want %q", d.PushPersona, PersonaSenior)
	}
	if d.PushUrgency != UrgencyHigh {
		t.Errorf("10h out: urgency = %q, want %q", d.PushUrgency, UrgencyHigh)
	}

	later := now.Add(40 * time.Hour)
	d = &model.Digest{GeneratedAt: now, Tasks: []model.Task{{Title: "HW 3", DueAt: &later}}}
	pushTestService(t, PersonaAuto).renderPush(d)
	if d.PushPersona != PersonaCute {
		t.Errorf("40h out: persona = %q, want %q", d.PushPersona, PersonaCute)
	}
	if d.PushUrgency != UrgencyMedium {
		t.Errorf("40h out: urgency = %q, want %q", d.PushUrgency, UrgencyMedium)
	}
}

func TestRenderPush_FixedPersonaIsHonored(t *testing.T) {
	now := time.Date(2026, 2, 25, 9, 0, 0, 0, time.UTC)
	soon := now.Add(2 * time.Hour)
	d := &model.Digest{GeneratedAt: now, Tasks: []model.Task{{Title: "HW 3", DueAt: &soon}}}

	pushTestService(t, PersonaCute).renderPush(d)
	if d.PushPersona != PersonaCute {
		t.Errorf("persona = %q, want the configured %q", d.PushPersona, PersonaCute)
	}
	if !strings.Contains(d.PushText, "可爱催促") {
		t.Errorf("critical cute nudge missing:\n%s", d.PushText)
	}
}

func TestRenderPush_EmptyWindowStillNudges(t *testing.T) {
	now := time.Date(2026, 2, 25, 9, 0, 0, 0, time.UTC)
	d := &model.Digest{GeneratedAt: now, SummaryText: "今天有 0 个待办（邮件解析+Canvas可选），立刻处理 0 封，本周待办 0 封。"}

	pushTestService(t, PersonaAuto).renderPush(d)

	if d.PushUrgency != UrgencyNone {
		t.Errorf("urgency = %q, want %q", d.PushUrgency, UrgencyNone)
	}
	if !strings.Contains(d.PushText, "无紧急任务") {
		t.Errorf("urgency label missing:\n%s", d.PushText)
	}
	if !strings.Contains(d.PushText, "提醒") {
		t.Errorf("nudge line missing:\n%s", d.PushText)
	}
}

func TestRenderPush_CapsTaskAndMailLines(t *testing.T) {
	now := time.Date(2026, 2, 25, 9, 0, 0, 0, time.UTC)
	var tasks []model.Task
	for i := 0; i < 8; i++ {
		due := now.Add(time.Duration(20+i) * time.Hour)
		tasks = append(tasks, model.Task{Title: "Task", DueAt: &due})
	}
	var mails []model.Mail
	for i := 0; i < 5; i++ {
		mails = append(mails, model.Mail{Subject: "Urgent notice", Sender: "registrar@campus.edu"})
	}
	d := &model.Digest{
		GeneratedAt: now,
		Tasks:       tasks,
		Buckets:     model.MailBuckets{Immediate: mails},
	}

	pushTestService(t, PersonaAuto).renderPush(d)

	if got := strings.Count(d.PushText, "[任务]"); got != 5 {
		t.Errorf("task lines = %d, want 5", got)
	}
	if got := strings.Count(d.PushText, "[邮件]"); got != 3 {
		t.Errorf("mail lines = %d, want 3", got)
	}
}

func TestPushContext_UrgencyTiers(t *testing.T) {
	now := time.Date(2026, 2, 25, 9, 0, 0, 0, time.UTC)
	svc := pushTestService(t, PersonaAuto)

	cases := []struct {
		hours int
		want  string
	}{
		{4, UrgencyCritical},
		{6, UrgencyCritical},
		{20, UrgencyHigh},
		{36, UrgencyMedium},
		{60, UrgencyLow},
	}
	for _, tc := range cases {
		due := now.Add(time.Duration(tc.hours) * time.Hour)
		_, hoursLeft, urgency := svc.pushContext([]model.Task{{Title: "x", DueAt: &due}}, now)
		if urgency != tc.want {
			t.Errorf("%dh out: urgency = %q, want %q", tc.hours, urgency, tc.want)
		}
		if hoursLeft != tc.hours {
			t.Errorf("%dh out: hoursLeft = %d", tc.hours, hoursLeft)
		}
	}
}
