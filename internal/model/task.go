package model

import "time"

// Task is one actionable item surfaced in a digest. Tasks come either from
// the Canvas todo/feed endpoints or from deadline extraction over mail
// bodies; after a digest is assembled they are read-only.
type Task struct {
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Course      string     `json:"course,omitempty"`
	Details     string     `json:"details,omitempty"`
	URL         string     `json:"url,omitempty"`
	Priority    int        `json:"priority"`
}
