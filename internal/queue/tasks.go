package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"postpilot/internal/logger"
	"postpilot/internal/platform"
	"postpilot/internal/store"
	"postpilot/models"
)

const TaskPublishScheduled = "post:publish_scheduled"

type PublishScheduledPayload struct {
	PostID string `json:"post_id"`
}

// NewPublishScheduledTask enqueues the realization of one scheduled post.
// MaxRetry is zero: a publish gets exactly one attempt, failures are
// recorded on the post itself. The task id keys on the post id so repeated
// due-scans cannot enqueue duplicates.
func NewPublishScheduledTask(postID string) (*asynq.Task, error) {
	payload, err := json.Marshal(PublishScheduledPayload{PostID: postID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskPublishScheduled,
		payload,
		asynq.MaxRetry(0),
		asynq.Timeout(2*time.Minute),
		asynq.Queue("default"),
		asynq.TaskID("scheduled:"+postID),
	), nil
}

// TaskProcessor realizes scheduled posts in the worker process.
type TaskProcessor struct {
	schedule    *store.ScheduleStore
	connections *store.ConnectionStore
	history     *store.HistoryStore
	gateway     *platform.FacebookClient
}

func NewTaskProcessor(schedule *store.ScheduleStore, connections *store.ConnectionStore, history *store.HistoryStore, gateway *platform.FacebookClient) *TaskProcessor {
	return &TaskProcessor{
		schedule:    schedule,
		connections: connections,
		history:     history,
		gateway:     gateway,
	}
}

// HandlePublishScheduled publishes one due post through the gateway and
// moves its status forward. Business failures mark the post failed and
// complete the task; only infrastructure failures surface as task errors.
func (p *TaskProcessor) HandlePublishScheduled(ctx context.Context, t *asynq.Task) error {
	var payload PublishScheduledPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	post, err := p.schedule.Find(ctx, payload.PostID)
	if err != nil {
		if err == store.ErrNotFound {
			// Deleted between enqueue and dispatch.
			return nil
		}
		return err
	}
	if post.Status != models.ScheduledPostStatusScheduled {
		return nil
	}

	conn, err := p.connections.Get(ctx, models.PlatformFacebook)
	if err != nil {
		return err
	}
	if conn == nil {
		logger.Warn("scheduled post has no connection to publish through", "id", post.ID)
		return p.schedule.MarkFailed(ctx, post.ID)
	}

	record, err := p.gateway.Publish(ctx, conn, post.Candidate)
	if err != nil {
		logger.Error("scheduled publish failed", "id", post.ID, "error", err)
		return p.schedule.MarkFailed(ctx, post.ID)
	}

	if err := p.history.Append(ctx, *record); err != nil {
		logger.Error("failed to append publish history", "id", post.ID, "error", err)
	}

	logger.Info("scheduled post published", "id", post.ID, "remote_id", record.RemoteID)
	return p.schedule.MarkPosted(ctx, post.ID)
}
