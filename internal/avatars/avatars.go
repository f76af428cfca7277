// Package avatars stores profile pictures in object storage and hands back
// the public URL.
package avatars

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hugh/hostel-hunter/pkg/config"
)

var ErrNotConfigured = errors.New("avatar storage is not configured")

// Store persists avatar images. Put returns the URL browsers should load.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// Key builds the object key for a new avatar of userID.
func Key(userID uuid.UUID, ext string) string {
	return path.Join("avatars", userID.String(), uuid.NewString()+ext)
}

// New returns the Store selected by cfg.Backend. The "none" backend yields
// a nil Store and no error; callers treat uploads as unavailable.
func New(ctx context.Context, cfg *config.AvatarConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "none":
		return nil, nil
	case "s3":
		return NewS3Store(ctx, cfg)
	case "gcs":
		return NewGCSStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown avatar backend %q", cfg.Backend)
	}
}

func publicURL(base, bucket, key, fallbackHost string) string {
	if base != "" {
		return base + "/" + key
	}
	return "https://" + bucket + "." + fallbackHost + "/" + key
}

// MemoryStore keeps objects in memory. Err, when set, fails every Put.
type MemoryStore struct {
	Err error

	mu      sync.Mutex
	objects map[string]Object
}

type Object struct {
	ContentType string
	Data        []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object)}
}

func (m *MemoryStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{ContentType: contentType, Data: append([]byte(nil), data...)}
	return "memory://" + key, nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) Get(key string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	return obj, ok
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
