package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"postpilot/internal/logger"
	"postpilot/models"
)

var (
	// ErrMissingDate rejects a schedule request before any state mutation.
	ErrMissingDate = errors.New("scheduled date is required")
	ErrNotFound    = errors.New("scheduled post not found")
)

// DefaultScheduleTime is used when the request carries a date but no time.
const DefaultScheduleTime = "12:00"

const scheduleLayout = "2006-01-02 15:04"

// ScheduleStore keeps the durable list of scheduled posts. Every operation
// is a full read-modify-write of the serialized list; the mutex serializes
// writers within this process only.
type ScheduleStore struct {
	mu sync.Mutex
	kv KV
}

func NewScheduleStore(kv KV) *ScheduleStore {
	return &ScheduleStore{kv: kv}
}

// Schedule validates the date, creates a scheduled post with a fresh id
// and status "scheduled", and appends it to the durable list. Times are
// interpreted in the local zone, no normalization.
func (s *ScheduleStore) Schedule(ctx context.Context, candidate models.Candidate, date, timeOfDay string) (*models.ScheduledPost, error) {
	if date == "" {
		return nil, ErrMissingDate
	}
	if timeOfDay == "" {
		timeOfDay = DefaultScheduleTime
	}

	at, err := time.ParseInLocation(scheduleLayout, date+" "+timeOfDay, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule time %q %q: %w", date, timeOfDay, err)
	}

	post := models.ScheduledPost{
		ID:          uuid.NewString(),
		Candidate:   candidate,
		ScheduledAt: at,
		Status:      models.ScheduledPostStatusScheduled,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	posts = append(posts, post)
	if err := s.save(ctx, posts); err != nil {
		return nil, err
	}

	logger.Info("post scheduled", "id", post.ID, "scheduled_at", post.ScheduledAt)
	return &post, nil
}

// List returns all scheduled posts ordered by scheduled time ascending.
// Items with identical times keep their insertion order.
func (s *ScheduleStore) List(ctx context.Context) ([]models.ScheduledPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].ScheduledAt.Before(posts[j].ScheduledAt)
	})
	return posts, nil
}

// Find returns one scheduled post by id.
func (s *ScheduleStore) Find(ctx context.Context, id string) (*models.ScheduledPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].ID == id {
			post := posts[i]
			return &post, nil
		}
	}
	return nil, ErrNotFound
}

// Delete removes the post regardless of its status.
func (s *ScheduleStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := posts[:0]
	found := false
	for _, post := range posts {
		if post.ID == id {
			found = true
			continue
		}
		kept = append(kept, post)
	}
	if !found {
		return ErrNotFound
	}
	return s.save(ctx, kept)
}

// MarkPosted records a successful realization of the intent. No-op when
// the post is already in a terminal status.
func (s *ScheduleStore) MarkPosted(ctx context.Context, id string) error {
	return s.mark(ctx, id, models.ScheduledPostStatusPosted)
}

// MarkFailed records a failed realization. No-op on terminal posts.
func (s *ScheduleStore) MarkFailed(ctx context.Context, id string) error {
	return s.mark(ctx, id, models.ScheduledPostStatusFailed)
}

func (s *ScheduleStore) mark(ctx context.Context, id string, status models.ScheduledPostStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.load(ctx)
	if err != nil {
		return err
	}

	for i := range posts {
		if posts[i].ID != id {
			continue
		}
		// Terminal statuses never regress.
		if posts[i].Status.Terminal() {
			return nil
		}
		posts[i].Status = status
		return s.save(ctx, posts)
	}
	return ErrNotFound
}

func (s *ScheduleStore) load(ctx context.Context) ([]models.ScheduledPost, error) {
	raw, err := s.kv.Load(ctx, KeyScheduledPosts)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var posts []models.ScheduledPost
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, fmt.Errorf("corrupt scheduled post list: %w", err)
	}
	return posts, nil
}

func (s *ScheduleStore) save(ctx context.Context, posts []models.ScheduledPost) error {
	raw, err := json.Marshal(posts)
	if err != nil {
		return err
	}
	return s.kv.Save(ctx, KeyScheduledPosts, raw)
}

// IsOverdue reports whether a still-scheduled post's time has passed.
// Purely derived; it never changes the stored status.
func IsOverdue(post models.ScheduledPost, now time.Time) bool {
	return post.Status == models.ScheduledPostStatusScheduled && !post.ScheduledAt.After(now)
}

// TimeUntil formats the countdown to the scheduled time for display.
func TimeUntil(post models.ScheduledPost, now time.Time) string {
	diff := post.ScheduledAt.Sub(now)
	if diff <= 0 {
		return "Overdue"
	}

	days := int(diff.Hours()) / 24
	hours := int(diff.Hours()) % 24
	minutes := int(diff.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
