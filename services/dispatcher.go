package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/hibiken/asynq"

	"postpilot/internal/logger"
	"postpilot/internal/queue"
	"postpilot/internal/store"
)

// Dispatcher periodically scans the schedule for due posts and enqueues
// publish tasks for the worker. Enqueueing is idempotent per post (task id
// collision), so overlapping scans are harmless.
type Dispatcher struct {
	scheduler *gocron.Scheduler
	schedule  *store.ScheduleStore
	client    *asynq.Client
	interval  time.Duration
}

func NewDispatcher(schedule *store.ScheduleStore, client *asynq.Client, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = time.Minute
	}
	s := gocron.NewScheduler(time.Local)
	s.TagsUnique()

	return &Dispatcher{
		scheduler: s,
		schedule:  schedule,
		client:    client,
		interval:  interval,
	}
}

// Start begins the due-scan loop in the background.
func (d *Dispatcher) Start() error {
	if _, err := d.scheduler.Every(d.interval).Tag("due-scan").Do(d.scanDue); err != nil {
		return err
	}
	d.scheduler.StartAsync()
	logger.Info("scheduled post dispatcher started", "interval", d.interval.String())
	return nil
}

// Stop halts the scan loop.
func (d *Dispatcher) Stop() {
	d.scheduler.Stop()
}

func (d *Dispatcher) scanDue() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	posts, err := d.schedule.List(ctx)
	if err != nil {
		logger.Error("due-scan failed to list scheduled posts", "error", err)
		return
	}

	now := time.Now()
	for _, post := range posts {
		if !store.IsOverdue(post, now) {
			continue
		}

		task, err := queue.NewPublishScheduledTask(post.ID)
		if err != nil {
			logger.Error("failed to build publish task", "id", post.ID, "error", err)
			continue
		}
		if _, err := d.client.EnqueueContext(ctx, task); err != nil {
			if errors.Is(err, asynq.ErrTaskIDConflict) {
				continue
			}
			logger.Error("failed to enqueue publish task", "id", post.ID, "error", err)
			continue
		}
		logger.Info("due post enqueued for publish", "id", post.ID, "scheduled_at", post.ScheduledAt)
	}
}
