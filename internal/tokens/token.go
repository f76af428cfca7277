// Package tokens implements the single-use link flows: review invitations
// and email-change verification.
package tokens

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hugh/hostel-hunter/internal/mail"
)

// tokenBytes gives 128 bits of entropy.
const tokenBytes = 16

// NewToken returns 32 hex characters from crypto/rand.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

type State string

const (
	StatePending  State = "pending"
	StateConsumed State = "consumed"
	StateExpired  State = "expired"
)

// StateOf derives a token's state. A consumed token stays consumed after its
// expiry passes; a nil expiry never expires.
func StateOf(consumed bool, expiresAt *time.Time, now time.Time) State {
	switch {
	case consumed:
		return StateConsumed
	case expiresAt != nil && now.After(*expiresAt):
		return StateExpired
	default:
		return StatePending
	}
}

// Deliverer renders and sends one templated email.
type Deliverer interface {
	Deliver(ctx context.Context, kind mail.Kind, to string, data mail.Data) error
}

// maxTokenAttempts bounds regeneration after a token collides with the
// unique index.
const maxTokenAttempts = 2
