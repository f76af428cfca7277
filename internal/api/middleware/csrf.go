package middleware

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	csrfTokenLength = 32
	csrfCookieName  = "csrf_token"
	csrfHeaderName  = "X-CSRF-Token"
	csrfFormField   = "csrf_token"
	csrfTokenExpiry = 24 * time.Hour
)

// CSRFStore hands out one token per browser session.
type CSRFStore interface {
	Token(ctx context.Context, sessionID string) (string, error)
	Valid(ctx context.Context, sessionID, token string) (bool, error)
}

type csrfEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryCSRFStore keeps tokens in process memory.
type MemoryCSRFStore struct {
	tokens map[string]csrfEntry
	mu     sync.Mutex
	now    func() time.Time
}

func NewMemoryCSRFStore() *MemoryCSRFStore {
	s := &MemoryCSRFStore{tokens: make(map[string]csrfEntry), now: time.Now}
	go s.cleanup(time.NewTicker(time.Hour))
	return s
}

func (s *MemoryCSRFStore) cleanup(ticker *time.Ticker) {
	for range ticker.C {
		s.mu.Lock()
		now := s.now()
		for id, e := range s.tokens {
			if now.After(e.expiresAt) {
				delete(s.tokens, id)
			}
		}
		s.mu.Unlock()
	}
}

func (s *MemoryCSRFStore) Token(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.tokens[sessionID]; ok && s.now().Before(e.expiresAt) {
		return e.token, nil
	}
	token, err := newCSRFToken()
	if err != nil {
		return "", err
	}
	s.tokens[sessionID] = csrfEntry{token: token, expiresAt: s.now().Add(csrfTokenExpiry)}
	return token, nil
}

func (s *MemoryCSRFStore) Valid(_ context.Context, sessionID, token string) (bool, error) {
	s.mu.Lock()
	e, ok := s.tokens[sessionID]
	s.mu.Unlock()

	if !ok || s.now().After(e.expiresAt) {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(e.token), []byte(token)) == 1, nil
}

// RedisCSRFStore shares tokens between server instances.
type RedisCSRFStore struct {
	client *redis.Client
	prefix string
}

func NewRedisCSRFStore(client *redis.Client) *RedisCSRFStore {
	return &RedisCSRFStore{client: client, prefix: "csrf:"}
}

func (s *RedisCSRFStore) Token(ctx context.Context, sessionID string) (string, error) {
	token, err := newCSRFToken()
	if err != nil {
		return "", err
	}
	key := s.prefix + sessionID
	// Keep an existing token so concurrent tabs agree.
	if _, err := s.client.SetNX(ctx, key, token, csrfTokenExpiry).Result(); err != nil {
		return "", err
	}
	return s.client.Get(ctx, key).Result()
}

func (s *RedisCSRFStore) Valid(ctx context.Context, sessionID, token string) (bool, error) {
	stored, err := s.client.Get(ctx, s.prefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(token)) == 1, nil
}

func newCSRFToken() (string, error) {
	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating csrf token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// CSRF guards cookie-authenticated writes. Requests carrying an
// Authorization header are not exposed to CSRF and pass through.
func CSRF(store CSRFStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
				ensureCSRFCookie(w, r, store, logger)
				next.ServeHTTP(w, r)
				return
			}

			if r.Header.Get("Authorization") != "" {
				next.ServeHTTP(w, r)
				return
			}

			sessionID := sessionID(r)
			if sessionID == "" {
				writeError(w, http.StatusForbidden, "Session required")
				return
			}

			token := r.Header.Get(csrfHeaderName)
			if token == "" {
				token = r.FormValue(csrfFormField)
			}
			if token == "" {
				writeError(w, http.StatusForbidden, "CSRF token missing")
				return
			}

			ok, err := store.Valid(r.Context(), sessionID, token)
			if err != nil {
				logger.Error("csrf store unavailable", "error", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !ok {
				writeError(w, http.StatusForbidden, "Invalid CSRF token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ensureCSRFCookie(w http.ResponseWriter, r *http.Request, store CSRFStore, logger *slog.Logger) {
	sessionID := sessionID(r)
	if sessionID == "" {
		return
	}
	if _, err := r.Cookie(csrfCookieName); err == nil {
		return
	}

	token, err := store.Token(r.Context(), sessionID)
	if err != nil {
		logger.Warn("csrf token not issued", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false, // read by scripts and echoed in X-CSRF-Token
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(csrfTokenExpiry.Seconds()),
	})
}

// sessionID derives a stable identifier from the session cookie without
// storing the JWT itself.
func sessionID(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(cookie.Value))
	return hex.EncodeToString(sum[:16])
}
