package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

// RedisStateRepository stores console session state in Redis.
type RedisStateRepository struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisStateRepository constructs a Redis backed state repository.
func NewRedisStateRepository(client *redis.Client, prefix string, logger *zap.Logger) *RedisStateRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStateRepository{client: client, prefix: prefix, logger: logger}
}

func (r *RedisStateRepository) key(id string) string {
	return r.prefix + id
}

// Get loads and unmarshals the state stored for id into dest.
func (r *RedisStateRepository) Get(ctx context.Context, id string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrSessionMiss
	}

	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrSessionMiss
		}
		return fmt.Errorf("redis get %s: %w", r.key(id), err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal session state for %s: %w", id, err)
	}
	return nil
}

// Set marshals value and stores it for id with the given TTL.
func (r *RedisStateRepository) Set(ctx context.Context, id string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal session state for %s: %w", id, err)
	}

	if err := r.client.Set(ctx, r.key(id), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key(id), err)
	}
	return nil
}

// Delete removes the state stored for id.
func (r *RedisStateRepository) Delete(ctx context.Context, id string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", r.key(id), err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *RedisStateRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStateRepository keeps session state in process. Entries are stored as
// JSON so callers never share mutable state.
type MemoryStateRepository struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	maxEntries int
	evicted    uint64
	now        func() time.Time
}

// MemoryOption configures a MemoryStateRepository.
type MemoryOption func(*MemoryStateRepository)

// WithMaxEntries caps the number of stored sessions. Storing a new session in
// a full store first drops expired entries, then the entry closest to expiry.
func WithMaxEntries(n int) MemoryOption {
	return func(r *MemoryStateRepository) {
		if n > 0 {
			r.maxEntries = n
		}
	}
}

// NewMemoryStateRepository constructs an in-memory state repository.
func NewMemoryStateRepository(opts ...MemoryOption) *MemoryStateRepository {
	r := &MemoryStateRepository{entries: map[string]memoryEntry{}, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get loads the state stored for id into dest.
func (r *MemoryStateRepository) Get(_ context.Context, id string, dest interface{}) error {
	r.mu.Lock()
	entry, ok := r.entries[id]
	if ok && !entry.expiresAt.IsZero() && !r.now().Before(entry.expiresAt) {
		delete(r.entries, id)
		ok = false
	}
	r.mu.Unlock()
	if !ok {
		return appErrors.ErrSessionMiss
	}
	if err := json.Unmarshal(entry.payload, dest); err != nil {
		return fmt.Errorf("unmarshal session state for %s: %w", id, err)
	}
	return nil
}

// Set stores value for id. A non-positive ttl never expires.
func (r *MemoryStateRepository) Set(_ context.Context, id string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal session state for %s: %w", id, err)
	}
	entry := memoryEntry{payload: payload}
	if ttl > 0 {
		entry.expiresAt = r.now().Add(ttl)
	}
	r.mu.Lock()
	if _, exists := r.entries[id]; !exists && r.maxEntries > 0 && len(r.entries) >= r.maxEntries {
		r.makeRoomLocked()
	}
	r.entries[id] = entry
	r.mu.Unlock()
	return nil
}

func (r *MemoryStateRepository) makeRoomLocked() {
	if r.sweepLocked() > 0 && len(r.entries) < r.maxEntries {
		return
	}
	var (
		victim string
		oldest time.Time
		found  bool
	)
	for id, entry := range r.entries {
		switch {
		case !found:
		case entry.expiresAt.IsZero():
			continue
		case !oldest.IsZero() && !entry.expiresAt.Before(oldest):
			continue
		}
		victim, oldest, found = id, entry.expiresAt, true
	}
	if found {
		delete(r.entries, victim)
		r.evicted++
	}
}

// Delete removes the state stored for id.
func (r *MemoryStateRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (r *MemoryStateRepository) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked()
}

func (r *MemoryStateRepository) sweepLocked() int {
	now := r.now()
	removed := 0
	for id, entry := range r.entries {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored sessions, expired ones included.
func (r *MemoryStateRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Evicted reports how many live sessions were dropped to respect the cap.
func (r *MemoryStateRepository) Evicted() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evicted
}
