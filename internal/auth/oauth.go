package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var ErrInvalidState = errors.New("oauth state missing or already used")

const stateTTL = 10 * time.Minute

// StateStore keeps the anti-forgery nonces issued at the start of a
// redirect login. Consume must succeed at most once per state.
type StateStore interface {
	Save(ctx context.Context, state string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (bool, error)
}

type RedisStateStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client, prefix: "oauth:state:"}
}

func (s *RedisStateStore) Save(ctx context.Context, state string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+state, "1", ttl).Err()
}

func (s *RedisStateStore) Consume(ctx context.Context, state string) (bool, error) {
	n, err := s.client.Del(ctx, s.prefix+state).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MemoryStateStore is a single-process StateStore for development and tests.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]time.Time)}
}

// Save also drops states whose sign-in was abandoned.
func (s *MemoryStateStore) Save(_ context.Context, state string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, expires := range s.states {
		if !now.Before(expires) {
			delete(s.states, k)
		}
	}
	s.states[state] = now.Add(ttl)
	return nil
}

func (s *MemoryStateStore) Consume(_ context.Context, state string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expires, ok := s.states[state]
	delete(s.states, state)
	return ok && time.Now().Before(expires), nil
}

// Len reports how many states are held, expired ones included.
func (s *MemoryStateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// ClaimVerifier turns a signed identity assertion into verified claims.
type ClaimVerifier interface {
	Verify(ctx context.Context, credential string) (*VerifiedClaims, error)
}

// OAuthFlow drives the browser redirect login. The provider handshake
// itself is delegated to oauth2; this type only issues and checks state and
// hands the returned ID token to the verifier.
type OAuthFlow struct {
	config   *oauth2.Config
	states   StateStore
	verifier ClaimVerifier
}

func NewGoogleOAuthFlow(clientID, clientSecret, redirectURL string, states StateStore, verifier ClaimVerifier) *OAuthFlow {
	return &OAuthFlow{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		states:   states,
		verifier: verifier,
	}
}

// NewOAuthFlow builds a flow against an arbitrary endpoint.
func NewOAuthFlow(config *oauth2.Config, states StateStore, verifier ClaimVerifier) *OAuthFlow {
	return &OAuthFlow{config: config, states: states, verifier: verifier}
}

// Start returns the provider URL to redirect the browser to.
func (f *OAuthFlow) Start(ctx context.Context) (string, error) {
	state, err := randomState()
	if err != nil {
		return "", err
	}
	if err := f.states.Save(ctx, state, stateTTL); err != nil {
		return "", fmt.Errorf("saving oauth state: %w", err)
	}
	return f.config.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Finish validates state, exchanges code and verifies the returned ID token.
func (f *OAuthFlow) Finish(ctx context.Context, state, code string) (*VerifiedClaims, error) {
	ok, err := f.states.Consume(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("checking oauth state: %w", err)
	}
	if !ok {
		return nil, ErrInvalidState
	}

	tok, err := f.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging oauth code: %w", err)
	}

	rawID, _ := tok.Extra("id_token").(string)
	if rawID == "" {
		return nil, ErrInvalidToken
	}
	return f.verifier.Verify(ctx, rawID)
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
