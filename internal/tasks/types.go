package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/hostel-hunter/internal/mail"
)

// Task type names
const (
	TypeSendEmail         = "mail:send"
	TypePurgeEmailChanges = "maintenance:purge_email_changes"
)

// Queue names, weighted by pkg/queue.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

const (
	sendEmailMaxRetry      = 8
	sendEmailTimeout       = 30 * time.Second
	purgeEmailChangesRetry = 1
)

// SendEmailPayload carries an already rendered message, so the worker needs
// no templates.
type SendEmailPayload struct {
	Message mail.Message `json:"message"`
}

func NewSendEmailTask(msg mail.Message) (*asynq.Task, error) {
	data, err := json.Marshal(SendEmailPayload{Message: msg})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSendEmail, data,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(sendEmailMaxRetry),
		asynq.Timeout(sendEmailTimeout),
	), nil
}

// NewPurgeEmailChangesTask is enqueued by the worker's scheduler.
func NewPurgeEmailChangesTask() *asynq.Task {
	return asynq.NewTask(TypePurgeEmailChanges, nil,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(purgeEmailChangesRetry),
	)
}
