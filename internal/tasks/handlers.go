package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/hugh/hostel-hunter/internal/mail"
)

// Purger removes email-change requests whose links have expired.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type Handler struct {
	sender mail.Sender
	purger Purger
	logger *slog.Logger
}

// NewHandler wires the worker's task handlers. sender must deliver directly
// (SMTP or log); handing a queued message back to the queue would loop.
func NewHandler(sender mail.Sender, purger Purger, logger *slog.Logger) *Handler {
	return &Handler{
		sender: sender,
		purger: purger,
		logger: logger,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeSendEmail, h.HandleSendEmail)
	mux.HandleFunc(TypePurgeEmailChanges, h.HandlePurgeEmailChanges)
}

func (h *Handler) HandleSendEmail(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Message.To == "" {
		return fmt.Errorf("email task without recipient: %w", asynq.SkipRetry)
	}

	if err := h.sender.Send(ctx, payload.Message); err != nil {
		h.logger.Warn("email delivery failed, will retry",
			"to", payload.Message.To,
			"subject", payload.Message.Subject,
			"error", err,
		)
		return err
	}

	h.logger.Info("email delivered", "to", payload.Message.To, "subject", payload.Message.Subject)
	return nil
}

func (h *Handler) HandlePurgeEmailChanges(ctx context.Context, t *asynq.Task) error {
	// The purger logs the count itself.
	if _, err := h.purger.PurgeExpired(ctx); err != nil {
		h.logger.Error("purging expired email changes failed", "error", err)
		return err
	}
	return nil
}
