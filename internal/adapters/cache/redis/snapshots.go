// Package redis stores analysis snapshots as per-key Redis lists.
//
// Each key tuple maps to one list; Insert pushes to the head so LINDEX 0 is
// always the newest record. Lists are trimmed to a bounded history.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/okian/leaguelearn/internal/adapters/repository"
	"github.com/okian/leaguelearn/internal/domain/model"
)

const (
	// DefaultPrefix namespaces every key the store writes.
	DefaultPrefix = "leaguelearn:snap"
	// DefaultHistory is how many records each list keeps.
	DefaultHistory = 8

	noContext = "~"
)

// SnapshotStore implements repository.SnapshotStore on Redis.
type SnapshotStore struct {
	client  *redis.Client
	prefix  string
	history int64
	ttl     time.Duration
	timeout time.Duration
}

var _ repository.SnapshotStore = (*SnapshotStore)(nil)

// Option configures a SnapshotStore.
type Option func(*SnapshotStore)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(p string) Option {
	return func(s *SnapshotStore) {
		if p = strings.TrimSpace(p); p != "" {
			s.prefix = p
		}
	}
}

// WithHistory bounds each list to n records.
func WithHistory(n int) Option {
	return func(s *SnapshotStore) {
		if n > 0 {
			s.history = int64(n)
		}
	}
}

// WithTTL expires idle lists after d. Zero keeps them forever.
func WithTTL(d time.Duration) Option {
	return func(s *SnapshotStore) {
		if d >= 0 {
			s.ttl = d
		}
	}
}

// WithTimeout bounds each command.
func WithTimeout(d time.Duration) Option {
	return func(s *SnapshotStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New wraps an existing client.
func New(client *redis.Client, opts ...Option) *SnapshotStore {
	s := &SnapshotStore{
		client:  client,
		prefix:  DefaultPrefix,
		history: DefaultHistory,
		timeout: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr string, opts ...Option) (*SnapshotStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return New(rdb, opts...), nil
}

// Close releases the client.
func (s *SnapshotStore) Close() error {
	return s.client.Close()
}

// Ping checks the connection.
func (s *SnapshotStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

// Key returns the list key for a tuple. Components are query-escaped so
// separators inside IDs cannot collide; an absent context key uses a
// marker no escaped value can produce.
func (s *SnapshotStore) Key(k model.SnapshotKey) string {
	ctxPart := noContext
	if k.ContextKey != nil {
		ctxPart = "=" + url.QueryEscape(*k.ContextKey)
	}
	return strings.Join([]string{
		s.prefix,
		url.QueryEscape(k.LeagueID),
		url.QueryEscape(k.Username),
		url.QueryEscape(string(k.Type)),
		ctxPart,
	}, ":")
}

// Latest returns the head of the tuple's list.
func (s *SnapshotStore) Latest(ctx context.Context, key model.SnapshotKey) (model.SnapshotRecord, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	val, err := s.client.LIndex(ctx, s.Key(key), 0).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.SnapshotRecord{}, false, nil
		}
		return model.SnapshotRecord{}, false, fmt.Errorf("redis lindex: %w", err)
	}

	var rec model.SnapshotRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return model.SnapshotRecord{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	if !key.Matches(rec) {
		return model.SnapshotRecord{}, false, nil
	}
	return rec, true, nil
}

// Insert pushes rec onto its list, trims old entries and refreshes the TTL
// in one MULTI/EXEC.
func (s *SnapshotStore) Insert(ctx context.Context, rec model.SnapshotRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := s.Key(rec.Key())
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, s.history-1)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis insert: %w", err)
	}
	return nil
}
