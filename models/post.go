package models

import (
	"strings"
	"time"
)

// Candidate is one AI-generated post version: caption, hashtags and an
// image locator. Candidates are immutable once produced; a new generation
// batch replaces the previous one wholesale.
type Candidate struct {
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
	ImageURL string   `json:"image_url"`
}

// Body composes the text body used for publishing and sharing:
// the caption, a blank line, then hashtags joined by spaces.
func (c Candidate) Body() string {
	return c.Caption + "\n\n" + strings.Join(c.Hashtags, " ")
}

// PublishStatus is the outcome recorded for a completed publish attempt.
type PublishStatus string

const (
	PublishStatusSuccess PublishStatus = "success"
	PublishStatusFailed  PublishStatus = "failed"
)

// PublishedRecord is an append-only history entry created when a publish
// attempt received a success response from the platform. Never mutated.
type PublishedRecord struct {
	RemoteID    string        `json:"remote_id"`
	Candidate   Candidate     `json:"candidate"`
	PublishedAt time.Time     `json:"published_at"`
	Status      PublishStatus `json:"status"`
}

// ScheduledPostStatus is the lifecycle state of a scheduled post.
// Transitions only move forward: scheduled -> posted or failed.
type ScheduledPostStatus string

const (
	ScheduledPostStatusScheduled ScheduledPostStatus = "scheduled"
	ScheduledPostStatusPosted    ScheduledPostStatus = "posted"
	ScheduledPostStatusFailed    ScheduledPostStatus = "failed"
)

// Terminal reports whether the status can no longer change.
func (s ScheduledPostStatus) Terminal() bool {
	return s == ScheduledPostStatusPosted || s == ScheduledPostStatusFailed
}

// ScheduledPost is a publish intent for a future time. It snapshots the
// chosen candidate so later edits to the batch cannot affect it.
type ScheduledPost struct {
	ID          string              `json:"id"`
	Candidate   Candidate           `json:"candidate"`
	ScheduledAt time.Time           `json:"scheduled_at"`
	Status      ScheduledPostStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
}
