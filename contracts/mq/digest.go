package mq

import "time"

// DigestGeneratedPayload is emitted once per completed digest build.
type DigestGeneratedPayload struct {
	DigestID    string    `json:"digest_id"`
	DateLabel   string    `json:"date_label"`
	GeneratedAt time.Time `json:"generated_at"`
	TaskCount   int       `json:"task_count"`
	MailCount   int       `json:"mail_count"`
	PushUrgency string    `json:"push_urgency"`
	PushSent    bool      `json:"push_sent"`
}
