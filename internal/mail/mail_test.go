package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_ReviewInvitation(t *testing.T) {
	r := MustRenderer()

	msg, err := r.Render(KindReviewInvitation, "guest@example.com", Data{
		Recipient:  "Amina",
		Link:       "https://hostels.example.com/reviews/abc123",
		HostelName: "Sunset Hostel",
	})
	require.NoError(t, err)

	assert.Equal(t, "guest@example.com", msg.To)
	assert.Equal(t, "You're invited to review Sunset Hostel", msg.Subject)
	assert.Contains(t, msg.Text, "Hi Amina,")
	assert.Contains(t, msg.Text, "https://hostels.example.com/reviews/abc123")
	assert.Contains(t, msg.HTML, `href="https://hostels.example.com/reviews/abc123"`)
}

func TestRenderer_EmailChange(t *testing.T) {
	r := MustRenderer()
	expiry := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)

	msg, err := r.Render(KindEmailChange, "new@example.com", Data{
		Link:   "https://hostels.example.com/account/email/verify/tok",
		Expiry: expiry,
	})
	require.NoError(t, err)

	assert.Equal(t, "Confirm your new email address", msg.Subject)
	assert.Contains(t, msg.Text, "Hi there,")
	assert.Contains(t, msg.Text, "4 Mar 2026 10:30 UTC")
}

func TestRenderer_EscapesHTML(t *testing.T) {
	msg, err := MustRenderer().Render(KindReviewInvitation, "x@example.com", Data{
		HostelName: "<b>Bad</b>",
		Link:       "https://example.com/r/1",
	})
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<b>Bad</b>")
	assert.Contains(t, msg.HTML, "&lt;b&gt;Bad&lt;/b&gt;")
}

func TestRenderer_UnknownKind(t *testing.T) {
	_, err := MustRenderer().Render(Kind("nope"), "x@example.com", Data{})
	assert.Error(t, err)
}

func TestSMTPSender_Send(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "user", "pass", "Hostel Hunter <no-reply@example.com>")

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
	)
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	err := s.Send(context.Background(), Message{To: "a@example.com", Subject: "Hello", Text: "plain", HTML: "<p>rich</p>"})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "no-reply@example.com", gotFrom)
	assert.Equal(t, []string{"a@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Hello\r\n")
	assert.Contains(t, gotMsg, "multipart/alternative")
	assert.Contains(t, gotMsg, "<p>rich</p>")
}

func TestSMTPSender_Failure(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 25, "", "", "no-reply@example.com")
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := s.Send(context.Background(), Message{To: "a@example.com", Subject: "x", Text: "y"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "connection refused"))
}

func TestMailer_Deliver(t *testing.T) {
	rec := &Recorder{}
	m := NewMailer(MustRenderer(), rec)

	require.NoError(t, m.Deliver(context.Background(), KindReviewInvitation, "g@example.com", Data{HostelName: "Gate A Rooms", Link: "https://x/r/1"}))
	require.Len(t, rec.Sent(), 1)
	assert.Equal(t, "g@example.com", rec.Sent()[0].To)

	rec.Err = errors.New("down")
	assert.Error(t, m.Deliver(context.Background(), KindReviewInvitation, "g@example.com", Data{}))
}
