package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"github.com/hugh/hostel-hunter/internal/mail"
	"github.com/hugh/hostel-hunter/internal/testutil"
	"github.com/hugh/hostel-hunter/internal/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

type fakePurger struct {
	n   int64
	err error
}

func (f *fakePurger) PurgeExpired(ctx context.Context) (int64, error) {
	return f.n, f.err
}

func TestNewSendEmailTask(t *testing.T) {
	msg := mail.Message{To: "a@example.com", Subject: "Hi", Text: "Body"}
	task, err := NewSendEmailTask(msg)
	require.NoError(t, err)
	assert.Equal(t, TypeSendEmail, task.Type())

	var payload SendEmailPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, msg, payload.Message)
}

func TestQueueSender_EnqueuesRenderedMessage(t *testing.T) {
	q := &fakeEnqueuer{}
	sender := NewQueueSender(q)

	err := sender.Send(context.Background(), mail.Message{To: "a@example.com", Subject: "Verify"})
	require.NoError(t, err)
	require.Len(t, q.tasks, 1)
	assert.Equal(t, TypeSendEmail, q.tasks[0].Type())
}

func TestQueueSender_EnqueueFailure(t *testing.T) {
	q := &fakeEnqueuer{err: errors.New("redis: connection refused")}
	sender := NewQueueSender(q)

	err := sender.Send(context.Background(), mail.Message{To: "a@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a@example.com")
}

func TestHandleSendEmail(t *testing.T) {
	rec := &mail.Recorder{}
	h := NewHandler(rec, &fakePurger{}, testLogger())

	task, err := NewSendEmailTask(mail.Message{To: "a@example.com", Subject: "Hi", Text: "Body"})
	require.NoError(t, err)

	require.NoError(t, h.HandleSendEmail(context.Background(), task))
	sent := rec.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Hi", sent[0].Subject)
}

func TestHandleSendEmail_InvalidPayloadSkipsRetry(t *testing.T) {
	h := NewHandler(&mail.Recorder{}, &fakePurger{}, testLogger())

	err := h.HandleSendEmail(context.Background(), asynq.NewTask(TypeSendEmail, []byte("invalid json")))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Contains(t, err.Error(), "unmarshal payload")

	err = h.HandleSendEmail(context.Background(), asynq.NewTask(TypeSendEmail, []byte(`{"message":{}}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleSendEmail_SenderFailureRetries(t *testing.T) {
	rec := &mail.Recorder{Err: errors.New("smtp: 421 try later")}
	h := NewHandler(rec, &fakePurger{}, testLogger())

	task, err := NewSendEmailTask(mail.Message{To: "a@example.com"})
	require.NoError(t, err)

	err = h.HandleSendEmail(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandlePurgeEmailChanges(t *testing.T) {
	h := NewHandler(&mail.Recorder{}, &fakePurger{n: 3}, testLogger())
	assert.NoError(t, h.HandlePurgeEmailChanges(context.Background(), NewPurgeEmailChangesTask()))

	h = NewHandler(&mail.Recorder{}, &fakePurger{err: errors.New("db down")}, testLogger())
	assert.Error(t, h.HandlePurgeEmailChanges(context.Background(), NewPurgeEmailChangesTask()))
}

func TestHandlePurgeEmailChanges_DeletesExpiredRequests(t *testing.T) {
	s, db := testutil.SetupTestStore(t)
	user := testutil.CreateTestUser(t, db)

	expired := &models.EmailChangeRequest{
		UserID:    user.ID,
		NewEmail:  "old@example.com",
		Token:     "expired-token",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	live := &models.EmailChangeRequest{
		UserID:    user.ID,
		NewEmail:  "new@example.com",
		Token:     "live-token",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, db.Create(expired).Error)
	require.NoError(t, db.Create(live).Error)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	emails := tokens.NewEmailChanges(s, mail.NewMailer(mail.MustRenderer(), &mail.Recorder{}), "https://hostels.example.com", logger)
	h := NewHandler(&mail.Recorder{}, emails, logger)

	require.NoError(t, h.HandlePurgeEmailChanges(testutil.TestContext(t), NewPurgeEmailChangesTask()))
	assert.Equal(t, 1, strings.Count(logs.String(), "count=1"), "the purge count is logged once")

	var remaining []models.EmailChangeRequest
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "live-token", remaining[0].Token)
}

func TestRegisterHandlers(t *testing.T) {
	mux := asynq.NewServeMux()
	NewHandler(&mail.Recorder{}, &fakePurger{}, testLogger()).RegisterHandlers(mux)

	h, pattern := mux.Handler(asynq.NewTask(TypeSendEmail, nil))
	assert.NotNil(t, h)
	assert.Equal(t, TypeSendEmail, pattern)
}
