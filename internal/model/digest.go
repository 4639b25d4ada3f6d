package model

import "time"

// Digest is the immutable output of one build cycle. The composer fills it
// in; everything downstream (dashboard, push, history repo) reads only.
type Digest struct {
	ID             string            `json:"id"`
	GeneratedAt    time.Time         `json:"generated_at"`
	DateLabel      string            `json:"date_label"`
	Tasks          []Task            `json:"tasks"`
	ImportantMails []Mail            `json:"important_mails"`
	Buckets        MailBuckets       `json:"mail_buckets"`
	CategoryByHash map[string]string `json:"category_by_hash"`
	SummaryText    string            `json:"summary_text"`
	PushText       string            `json:"push_text"`
	PushPersona    string            `json:"push_persona"`
	PushUrgency    string            `json:"push_urgency"`
}

// NotifyResult reports the outcome of a build-and-push cycle. A failed push
// does not invalidate the digest that was already produced.
type NotifyResult struct {
	Digest    *Digest `json:"digest"`
	PushSent  bool    `json:"push_sent"`
	PushError string  `json:"push_error,omitempty"`
}
