package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"postpilot/models"
)

func testCandidate(caption string) models.Candidate {
	return models.Candidate{
		Caption:  caption,
		Hashtags: []string{"#test"},
		ImageURL: "https://img.example/1.png",
	}
}

func TestScheduleRequiresDate(t *testing.T) {
	s := NewScheduleStore(NewMemoryKV())
	ctx := context.Background()

	if _, err := s.Schedule(ctx, testCandidate("a"), "", "12:00"); !errors.Is(err, ErrMissingDate) {
		t.Fatalf("err = %v, want ErrMissingDate", err)
	}

	// Rejected before any state mutation.
	posts, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("store mutated by rejected schedule: %d posts", len(posts))
	}
}

func TestScheduleDefaultsTime(t *testing.T) {
	s := NewScheduleStore(NewMemoryKV())

	post, err := s.Schedule(context.Background(), testCandidate("a"), "2031-06-01", "")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if post.ScheduledAt.Hour() != 12 || post.ScheduledAt.Minute() != 0 {
		t.Fatalf("scheduled at %v, want 12:00", post.ScheduledAt)
	}
	if post.Status != models.ScheduledPostStatusScheduled {
		t.Fatalf("status = %s", post.Status)
	}
	if post.ID == "" {
		t.Fatal("missing id")
	}
}

func TestListSortsAscendingEarliestFirst(t *testing.T) {
	s := NewScheduleStore(NewMemoryKV())
	ctx := context.Background()

	if _, err := s.Schedule(ctx, testCandidate("late"), "2031-06-03", "09:00"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Schedule(ctx, testCandidate("mid"), "2031-06-02", "09:00"); err != nil {
		t.Fatal(err)
	}
	// Earlier than everything already present: must come out first.
	if _, err := s.Schedule(ctx, testCandidate("early"), "2031-06-01", "09:00"); err != nil {
		t.Fatal(err)
	}

	posts, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := []string{posts[0].Candidate.Caption, posts[1].Candidate.Caption, posts[2].Candidate.Caption}
	want := []string{"early", "mid", "late"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestListStableOnEqualTimes(t *testing.T) {
	s := NewScheduleStore(NewMemoryKV())
	ctx := context.Background()

	first, _ := s.Schedule(ctx, testCandidate("first"), "2031-06-01", "09:00")
	second, _ := s.Schedule(ctx, testCandidate("second"), "2031-06-01", "09:00")

	posts, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if posts[0].ID != first.ID || posts[1].ID != second.ID {
		t.Fatalf("equal-time posts reordered: %s, %s", posts[0].Candidate.Caption, posts[1].Candidate.Caption)
	}
}

func TestOverdueScenario(t *testing.T) {
	s := NewScheduleStore(NewMemoryKV())
	ctx := context.Background()

	// Scheduled an hour in the past.
	past := time.Now().Add(-time.Hour)
	post, err := s.Schedule(ctx, testCandidate("late"), past.Format("2006-01-02"), past.Format("15:04"))
	if err != nil {
		t.Fatal(err)
	}

	posts, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !IsOverdue(posts[0], time.Now()) {
		t.Fatal("expected post to be overdue")
	}

	if err := s.MarkPosted(ctx, post.ID); err != nil {
		t.Fatal(err)
	}
	updated, err := s.Find(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if IsOverdue(*updated, time.Now()) {
		t.Fatal("posted post must not be overdue even with past time")
	}
}

func TestMarkIsForwardOnlyAndIdempotent(t *testing.T) {
	s := NewScheduleStore(NewMemoryKV())
	ctx := context.Background()

	post, _ := s.Schedule(ctx, testCandidate("a"), "2031-06-01", "09:00")

	if err := s.MarkPosted(ctx, post.ID); err != nil {
		t.Fatal(err)
	}
	// Terminal status never regresses, later marks are no-ops.
	if err := s.MarkFailed(ctx, post.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkPosted(ctx, post.ID); err != nil {
		t.Fatal(err)
	}

	got, _ := s.Find(ctx, post.ID)
	if got.Status != models.ScheduledPostStatusPosted {
		t.Fatalf("status = %s, want posted", got.Status)
	}
}

func TestMarkMissingPost(t *testing.T) {
	s := NewScheduleStore(NewMemoryKV())
	if err := s.MarkPosted(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteRegardlessOfStatus(t *testing.T) {
	s := NewScheduleStore(NewMemoryKV())
	ctx := context.Background()

	post, _ := s.Schedule(ctx, testCandidate("a"), "2031-06-01", "09:00")
	if err := s.MarkFailed(ctx, post.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, post.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Find(ctx, post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("find after delete = %v, want ErrNotFound", err)
	}

	if err := s.Delete(ctx, post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete = %v, want ErrNotFound", err)
	}
}

func TestTimeUntilFormatting(t *testing.T) {
	now := time.Date(2031, 6, 1, 12, 0, 0, 0, time.Local)
	cases := []struct {
		at   time.Time
		want string
	}{
		{now.Add(-time.Minute), "Overdue"},
		{now.Add(45 * time.Minute), "45m"},
		{now.Add(90 * time.Minute), "1h 30m"},
		{now.Add(51 * time.Hour), "2d 3h"},
	}
	for _, tc := range cases {
		post := models.ScheduledPost{ScheduledAt: tc.at, Status: models.ScheduledPostStatusScheduled}
		if got := TimeUntil(post, now); got != tc.want {
			t.Errorf("TimeUntil(%v) = %q, want %q", tc.at, got, tc.want)
		}
	}
}
