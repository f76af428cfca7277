package tasks

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/hugh/hostel-hunter/internal/mail"
)

// Enqueuer is the part of *asynq.Client the sender needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueSender hands messages to the worker instead of talking SMTP from the
// request. Send returns once Redis has accepted the task.
type QueueSender struct {
	client Enqueuer
}

func NewQueueSender(client Enqueuer) *QueueSender {
	return &QueueSender{client: client}
}

var _ mail.Sender = (*QueueSender)(nil)

func (q *QueueSender) Send(ctx context.Context, msg mail.Message) error {
	task, err := NewSendEmailTask(msg)
	if err != nil {
		return fmt.Errorf("building send task: %w", err)
	}
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueueing email to %s: %w", msg.To, err)
	}
	return nil
}
