package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"postpilot/internal/logger"
	"postpilot/internal/platform"
	"postpilot/internal/store"
	"postpilot/models"
)

var (
	ErrEmptyPrompt      = errors.New("prompt must not be empty")
	ErrNoBatch          = errors.New("no generated batch available")
	ErrNoSelection      = errors.New("no candidate selected")
	ErrInvalidSelection = errors.New("selection index out of range")
)

// CandidateGenerator produces one full batch of candidates for a prompt.
type CandidateGenerator interface {
	Generate(ctx context.Context, prompt string) ([]models.Candidate, error)
}

// Orchestrator ties the pipeline together: it owns the current batch and
// the single selection within it, and routes the selected candidate to the
// publish gateway or the schedule store on user action. Every failure
// leaves it in a stable, retryable state.
type Orchestrator struct {
	generator   CandidateGenerator
	gateway     *platform.FacebookClient
	connections *store.ConnectionStore
	schedule    *store.ScheduleStore
	history     *store.HistoryStore

	mu       sync.Mutex
	versions []models.Candidate
	selected int
}

func NewOrchestrator(generator CandidateGenerator, gateway *platform.FacebookClient, connections *store.ConnectionStore, schedule *store.ScheduleStore, history *store.HistoryStore) *Orchestrator {
	return &Orchestrator{
		generator:   generator,
		gateway:     gateway,
		connections: connections,
		schedule:    schedule,
		history:     history,
		selected:    -1,
	}
}

// Generate requests a new batch. On success the previous batch is
// discarded and the selection cleared; on failure the previous batch stays
// as-is (displayed but stale) so the user can retry.
func (o *Orchestrator) Generate(ctx context.Context, prompt string) ([]models.Candidate, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	versions, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.versions = versions
	o.selected = -1
	o.mu.Unlock()

	return o.Versions(), nil
}

// Versions returns a copy of the current batch.
func (o *Orchestrator) Versions() []models.Candidate {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.Candidate, len(o.versions))
	copy(out, o.versions)
	return out
}

// Select marks one candidate of the current batch as chosen.
func (o *Orchestrator) Select(index int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.versions) == 0 {
		return ErrNoBatch
	}
	if index < 0 || index >= len(o.versions) {
		return ErrInvalidSelection
	}
	o.selected = index
	return nil
}

// Selected returns the chosen candidate, if any.
func (o *Orchestrator) Selected() (models.Candidate, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.selected < 0 || o.selected >= len(o.versions) {
		return models.Candidate{}, false
	}
	return o.versions[o.selected], true
}

// PublishSelected publishes the chosen candidate through the active
// connection and appends the result to history.
func (o *Orchestrator) PublishSelected(ctx context.Context) (*models.PublishedRecord, error) {
	candidate, ok := o.Selected()
	if !ok {
		return nil, ErrNoSelection
	}

	conn, err := o.connections.Get(ctx, models.PlatformFacebook)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, &platform.AuthError{Message: "no facebook connection"}
	}

	record, err := o.gateway.Publish(ctx, conn, candidate)
	if err != nil {
		return nil, err
	}

	if err := o.history.Append(ctx, *record); err != nil {
		logger.Error("failed to append publish history", "error", err)
	}
	return record, nil
}

// ShareSelected builds the public share link for the chosen candidate.
// Requires no connection and cannot fail remotely.
func (o *Orchestrator) ShareSelected() (string, error) {
	candidate, ok := o.Selected()
	if !ok {
		return "", ErrNoSelection
	}
	return platform.ShareURL(candidate), nil
}

// ScheduleSelected stores a publish intent for the chosen candidate.
func (o *Orchestrator) ScheduleSelected(ctx context.Context, date, timeOfDay string) (*models.ScheduledPost, error) {
	candidate, ok := o.Selected()
	if !ok {
		return nil, ErrNoSelection
	}
	return o.schedule.Schedule(ctx, candidate, date, timeOfDay)
}

// PostScheduledNow realizes a scheduled post immediately on user request,
// regardless of its scheduled time. Terminal posts are left untouched.
func (o *Orchestrator) PostScheduledNow(ctx context.Context, id string) (*models.ScheduledPost, error) {
	post, err := o.schedule.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Status != models.ScheduledPostStatusScheduled {
		return post, nil
	}

	conn, err := o.connections.Get(ctx, models.PlatformFacebook)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, &platform.AuthError{Message: "no facebook connection"}
	}

	record, err := o.gateway.Publish(ctx, conn, post.Candidate)
	if err != nil {
		if markErr := o.schedule.MarkFailed(ctx, post.ID); markErr != nil {
			logger.Error("failed to mark scheduled post failed", "id", post.ID, "error", markErr)
		}
		return nil, err
	}

	if err := o.history.Append(ctx, *record); err != nil {
		logger.Error("failed to append publish history", "id", post.ID, "error", err)
	}
	if err := o.schedule.MarkPosted(ctx, post.ID); err != nil {
		return nil, err
	}
	return o.schedule.Find(ctx, id)
}
