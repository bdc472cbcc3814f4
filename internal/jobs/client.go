package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"captionsync/internal/config"
	"captionsync/internal/services"
)

// RedisOpt converts queue settings into asynq connection options.
func RedisOpt(q config.Queue) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     q.RedisAddr,
		Password: q.RedisPassword,
		DB:       q.RedisDB,
	}
}

// Client submits rating jobs.
type Client struct {
	client   *asynq.Client
	queue    string
	maxRetry int
	timeout  time.Duration
}

// NewClient connects to the queue described by q.
func NewClient(q config.Queue, jobTimeout time.Duration) *Client {
	return &Client{
		client:   asynq.NewClient(RedisOpt(q)),
		queue:    q.Name,
		maxRetry: q.MaxRetry,
		timeout:  jobTimeout,
	}
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Enqueue submits payload and returns the stored payload with its job ID.
// Re-submitting a job ID that is still queued is a validation error.
func (c *Client) Enqueue(ctx context.Context, payload Payload) (Payload, error) {
	task, payload, err := NewRateTask(payload)
	if err != nil {
		return payload, services.Wrap(services.ErrValidation, "enqueue", "build task", payload.Input(), err)
	}
	opts := []asynq.Option{
		asynq.Queue(c.queue),
		asynq.MaxRetry(c.maxRetry),
		asynq.TaskID(payload.JobID),
	}
	if c.timeout > 0 {
		opts = append(opts, asynq.Timeout(c.timeout))
	}
	if _, err := c.client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return payload, services.Wrap(services.ErrValidation, "enqueue", "submit", fmt.Sprintf("job %s already queued", payload.JobID), err)
		}
		return payload, services.Wrap(services.ErrTransient, "enqueue", "submit", payload.Input(), err)
	}
	return payload, nil
}
