package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"postpilot/internal/platform"
	"postpilot/internal/store"
	"postpilot/models"
)

type fakeGenerator struct {
	batch []models.Candidate
	err   error
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) ([]models.Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.batch, nil
}

func newTestStores() (*store.ConnectionStore, *store.ScheduleStore, *store.HistoryStore) {
	kv := store.NewMemoryKV()
	return store.NewConnectionStore(kv), store.NewScheduleStore(kv), store.NewHistoryStore(kv)
}

func testBatch() []models.Candidate {
	return []models.Candidate{
		{Caption: "one", Hashtags: []string{"#1"}, ImageURL: "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("a"))},
		{Caption: "two", Hashtags: []string{"#2"}, ImageURL: "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("b"))},
		{Caption: "three", Hashtags: []string{"#3"}, ImageURL: "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("c"))},
	}
}

func graphStub(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me/photos":
			json.NewEncoder(w).Encode(map[string]string{"id": "media-1"})
		case "/me/feed":
			json.NewEncoder(w).Encode(map[string]string{"id": "post-1"})
		default:
			json.NewEncoder(w).Encode(map[string]string{"id": "acct"})
		}
	}))
}

func TestGenerateReplacesBatchAndClearsSelection(t *testing.T) {
	gen := &fakeGenerator{batch: testBatch()}
	connections, schedule, history := newTestStores()
	orch := NewOrchestrator(gen, platform.NewFacebookClient("http://unused.invalid"), connections, schedule, history)

	if _, err := orch.Generate(context.Background(), "prompt"); err != nil {
		t.Fatal(err)
	}
	if err := orch.Select(1); err != nil {
		t.Fatal(err)
	}
	if _, ok := orch.Selected(); !ok {
		t.Fatal("selection missing after Select")
	}

	// A fresh batch supersedes the old one and drops the selection.
	if _, err := orch.Generate(context.Background(), "another prompt"); err != nil {
		t.Fatal(err)
	}
	if _, ok := orch.Selected(); ok {
		t.Fatal("selection must be cleared by a new batch")
	}
}

func TestGenerateFailureKeepsPriorBatch(t *testing.T) {
	gen := &fakeGenerator{batch: testBatch()}
	connections, schedule, history := newTestStores()
	orch := NewOrchestrator(gen, platform.NewFacebookClient("http://unused.invalid"), connections, schedule, history)

	if _, err := orch.Generate(context.Background(), "prompt"); err != nil {
		t.Fatal(err)
	}

	gen.err = errors.New("upstream down")
	if _, err := orch.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error")
	}
	if got := len(orch.Versions()); got != 3 {
		t.Fatalf("prior batch lost on failure: %d versions", got)
	}
}

func TestGenerateEmptyPrompt(t *testing.T) {
	connections, schedule, history := newTestStores()
	orch := NewOrchestrator(&fakeGenerator{}, platform.NewFacebookClient("http://unused.invalid"), connections, schedule, history)

	if _, err := orch.Generate(context.Background(), "   "); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("err = %v, want ErrEmptyPrompt", err)
	}
}

func TestSelectValidation(t *testing.T) {
	connections, schedule, history := newTestStores()
	orch := NewOrchestrator(&fakeGenerator{batch: testBatch()}, platform.NewFacebookClient("http://unused.invalid"), connections, schedule, history)

	if err := orch.Select(0); !errors.Is(err, ErrNoBatch) {
		t.Fatalf("err = %v, want ErrNoBatch", err)
	}

	orch.Generate(context.Background(), "prompt")
	if err := orch.Select(3); !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("err = %v, want ErrInvalidSelection", err)
	}
}

func TestPublishSelectedAppendsHistory(t *testing.T) {
	server := graphStub(t)
	defer server.Close()

	connections, schedule, history := newTestStores()
	ctx := context.Background()
	connections.Set(ctx, models.Connection{Platform: models.PlatformFacebook, AccessToken: "tok"})

	orch := NewOrchestrator(&fakeGenerator{batch: testBatch()}, platform.NewFacebookClient(server.URL), connections, schedule, history)
	orch.Generate(ctx, "prompt")
	orch.Select(0)

	record, err := orch.PublishSelected(ctx)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if record.RemoteID != "post-1" {
		t.Errorf("remote id = %q", record.RemoteID)
	}

	records, err := history.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].RemoteID != "post-1" {
		t.Fatalf("history = %+v", records)
	}
}

func TestPublishSelectedWithoutConnection(t *testing.T) {
	connections, schedule, history := newTestStores()
	orch := NewOrchestrator(&fakeGenerator{batch: testBatch()}, platform.NewFacebookClient("http://unused.invalid"), connections, schedule, history)
	ctx := context.Background()
	orch.Generate(ctx, "prompt")
	orch.Select(0)

	var authErr *platform.AuthError
	if _, err := orch.PublishSelected(ctx); !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want AuthError", err)
	}

	records, _ := history.List(ctx)
	if len(records) != 0 {
		t.Fatal("history must stay empty after failed publish")
	}
}

func TestShareSelectedNeedsNoConnection(t *testing.T) {
	connections, schedule, history := newTestStores()
	orch := NewOrchestrator(&fakeGenerator{batch: testBatch()}, platform.NewFacebookClient("http://unused.invalid"), connections, schedule, history)
	ctx := context.Background()

	if _, err := orch.ShareSelected(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v, want ErrNoSelection", err)
	}

	orch.Generate(ctx, "prompt")
	orch.Select(2)
	shareURL, err := orch.ShareSelected()
	if err != nil {
		t.Fatal(err)
	}
	if shareURL == "" {
		t.Fatal("empty share URL")
	}
}

func TestScheduleSelected(t *testing.T) {
	connections, schedule, history := newTestStores()
	orch := NewOrchestrator(&fakeGenerator{batch: testBatch()}, platform.NewFacebookClient("http://unused.invalid"), connections, schedule, history)
	ctx := context.Background()
	orch.Generate(ctx, "prompt")
	orch.Select(1)

	post, err := orch.ScheduleSelected(ctx, "2031-06-01", "18:30")
	if err != nil {
		t.Fatal(err)
	}
	if post.Candidate.Caption != "two" {
		t.Fatalf("scheduled wrong candidate: %q", post.Candidate.Caption)
	}

	posts, _ := schedule.List(ctx)
	if len(posts) != 1 {
		t.Fatalf("schedule list = %d entries", len(posts))
	}
}

func TestPostScheduledNowMarksFailedOnPublishError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"denied"}}`))
	}))
	defer server.Close()

	connections, schedule, history := newTestStores()
	ctx := context.Background()
	connections.Set(ctx, models.Connection{Platform: models.PlatformFacebook, AccessToken: "tok"})

	orch := NewOrchestrator(&fakeGenerator{batch: testBatch()}, platform.NewFacebookClient(server.URL), connections, schedule, history)
	orch.Generate(ctx, "prompt")
	orch.Select(0)
	post, err := orch.ScheduleSelected(ctx, "2020-01-01", "00:00")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := orch.PostScheduledNow(ctx, post.ID); err == nil {
		t.Fatal("expected publish error")
	}

	updated, _ := schedule.Find(ctx, post.ID)
	if updated.Status != models.ScheduledPostStatusFailed {
		t.Fatalf("status = %s, want failed", updated.Status)
	}
}

func TestPostScheduledNowSuccess(t *testing.T) {
	server := graphStub(t)
	defer server.Close()

	connections, schedule, history := newTestStores()
	ctx := context.Background()
	connections.Set(ctx, models.Connection{Platform: models.PlatformFacebook, AccessToken: "tok"})

	orch := NewOrchestrator(&fakeGenerator{batch: testBatch()}, platform.NewFacebookClient(server.URL), connections, schedule, history)
	orch.Generate(ctx, "prompt")
	orch.Select(0)
	post, _ := orch.ScheduleSelected(ctx, "2020-01-01", "00:00")

	updated, err := orch.PostScheduledNow(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != models.ScheduledPostStatusPosted {
		t.Fatalf("status = %s, want posted", updated.Status)
	}

	records, _ := history.List(ctx)
	if len(records) != 1 {
		t.Fatalf("history = %d records, want 1", len(records))
	}

	// Terminal: posting again is a no-op.
	again, err := orch.PostScheduledNow(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Status != models.ScheduledPostStatusPosted {
		t.Fatalf("status regressed to %s", again.Status)
	}
	records, _ = history.List(ctx)
	if len(records) != 1 {
		t.Fatal("repeat post-now must not publish again")
	}
}
