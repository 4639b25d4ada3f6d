package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Triage bucket labels. Every mail in a digest lands in exactly one.
const (
	BucketImmediate = "immediate_action"
	BucketWeekly    = "week_todo"
	BucketReference = "info_reference"
)

// BucketLabels is the closed label set the remote classifier must answer
// from; anything outside it is treated as a non-answer.
var BucketLabels = []string{BucketImmediate, BucketWeekly, BucketReference}

// Mail is one inbox message as fetched from the mail provider. It is never
// mutated by the pipeline; triage results are keyed by ContentHash instead.
type Mail struct {
	Source      string    `json:"source"`
	Subject     string    `json:"subject"`
	Sender      string    `json:"sender"`
	ReceivedAt  time.Time `json:"received_at"`
	Preview     string    `json:"preview"`
	BodyText    string    `json:"body_text"`
	IsImportant bool      `json:"is_important"`
	URL         string    `json:"url,omitempty"`
}

// ContentHash is the stable identity used for triage assignment and the
// classification cache. Same subject/sender/timestamp/preview hash the same
// across builds, so cached labels survive restarts.
func (m Mail) ContentHash() string {
	h := sha256.New()
	h.Write([]byte(m.Subject))
	h.Write([]byte{'|'})
	h.Write([]byte(m.Sender))
	h.Write([]byte{'|'})
	h.Write([]byte(m.ReceivedAt.UTC().Format(time.RFC3339)))
	h.Write([]byte{'|'})
	h.Write([]byte(m.Preview))
	return hex.EncodeToString(h.Sum(nil))
}

// MailBuckets partitions a mail set by urgency. Union of the three slices
// equals the triaged input, each mail appearing once.
type MailBuckets struct {
	Immediate []Mail `json:"immediate_action"`
	Weekly    []Mail `json:"week_todo"`
	Reference []Mail `json:"info_reference"`
}

// Total returns the number of bucketed mails.
func (b MailBuckets) Total() int {
	return len(b.Immediate) + len(b.Weekly) + len(b.Reference)
}
