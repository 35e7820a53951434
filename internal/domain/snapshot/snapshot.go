// Package snapshot caches expensive analysis payloads as an append-only log.
//
// Reads return the newest record for the exact (league, user, type,
// context key) tuple. Writes always insert; there is no update or eviction.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/leaguelearn/internal/domain/model"
	"github.com/okian/leaguelearn/pkg/logger"
	"github.com/okian/leaguelearn/pkg/metrics"
)

// Store persists snapshot records.
type Store interface {
	// Latest returns the newest record matching key exactly.
	Latest(ctx context.Context, key model.SnapshotKey) (model.SnapshotRecord, bool, error)
	// Insert appends rec.
	Insert(ctx context.Context, rec model.SnapshotRecord) error
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock injects the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIDGenerator injects the record ID generator.
func WithIDGenerator(gen func() string) Option {
	return func(c *Cache) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// WithLogger sets the logger used for degraded lookups.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// Cache reads and writes snapshots through a Store.
type Cache struct {
	store  Store
	now    func() time.Time
	newID  func() string
	logger logger.Logger
}

// NewCache creates a Cache over store.
func NewCache(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeKey trims the key, lower-cases the username and turns a blank
// context key into none. ok is false when a required field is missing or
// the type is unknown.
func NormalizeKey(key model.SnapshotKey) (model.SnapshotKey, bool) {
	out := model.SnapshotKey{
		LeagueID: strings.TrimSpace(key.LeagueID),
		Username: strings.ToLower(strings.TrimSpace(key.Username)),
		Type:     model.SnapshotType(strings.TrimSpace(string(key.Type))),
	}
	if key.ContextKey != nil {
		if ck := strings.TrimSpace(*key.ContextKey); ck != "" {
			out.ContextKey = &ck
		}
	}
	if out.LeagueID == "" || out.Username == "" || !out.Type.Valid() {
		return model.SnapshotKey{}, false
	}
	return out, true
}

// Read returns the newest record for key. Invalid keys miss without
// touching the store; store errors are logged and reported as a miss.
func (c *Cache) Read(ctx context.Context, key model.SnapshotKey) (model.SnapshotRecord, bool) {
	norm, ok := NormalizeKey(key)
	if !ok {
		metrics.RecordSnapshotLookup(string(key.Type), "invalid")
		return model.SnapshotRecord{}, false
	}

	rec, found, err := c.store.Latest(ctx, norm)
	if err != nil {
		metrics.RecordSnapshotStoreError("read")
		c.logger.Warn(ctx, "snapshot lookup failed",
			logger.String("league_id", norm.LeagueID),
			logger.String("type", string(norm.Type)),
			logger.Error(err))
		found = false
	}
	if !found {
		metrics.RecordSnapshotLookup(string(norm.Type), "miss")
		return model.SnapshotRecord{}, false
	}
	metrics.RecordSnapshotLookup(string(norm.Type), "hit")
	return rec, true
}

// Write appends a new record for key.
func (c *Cache) Write(ctx context.Context, key model.SnapshotKey, season int, payload json.RawMessage) (model.SnapshotRecord, error) {
	norm, ok := NormalizeKey(key)
	if !ok {
		return model.SnapshotRecord{}, ErrInvalidKey
	}
	if !json.Valid(payload) {
		return model.SnapshotRecord{}, ErrInvalidPayload
	}

	rec := model.SnapshotRecord{
		ID:           c.newID(),
		LeagueID:     norm.LeagueID,
		Username:     norm.Username,
		SnapshotType: norm.Type,
		ContextKey:   norm.ContextKey,
		Season:       season,
		Payload:      append(json.RawMessage(nil), payload...),
		CreatedAt:    c.now(),
	}
	if err := c.store.Insert(ctx, rec); err != nil {
		metrics.RecordSnapshotStoreError("write")
		return model.SnapshotRecord{}, fmt.Errorf("insert snapshot: %w", err)
	}
	metrics.RecordSnapshotWrite(string(norm.Type))
	return rec, nil
}

// ComputeFunc produces the payload for a cache miss.
type ComputeFunc func(ctx context.Context) (json.RawMessage, error)

// GetOrCompute returns the cached record for key or computes, stores and
// returns a new one. cached reports which happened. A failed store write
// is logged and the fresh record is still returned. Concurrent misses may
// both compute; the later write simply becomes the newest record.
func (c *Cache) GetOrCompute(ctx context.Context, key model.SnapshotKey, season int, compute ComputeFunc) (rec model.SnapshotRecord, cached bool, err error) {
	if hit, ok := c.Read(ctx, key); ok {
		return hit, true, nil
	}

	payload, err := compute(ctx)
	if err != nil {
		return model.SnapshotRecord{}, false, err
	}

	rec, err = c.Write(ctx, key, season, payload)
	switch {
	case err == nil:
		return rec, false, nil
	case errors.Is(err, ErrInvalidKey), errors.Is(err, ErrInvalidPayload):
		return model.SnapshotRecord{}, false, err
	default:
		c.logger.Warn(ctx, "snapshot write failed, serving uncached result", logger.Error(err))
		norm, _ := NormalizeKey(key)
		return model.SnapshotRecord{
			LeagueID:     norm.LeagueID,
			Username:     norm.Username,
			SnapshotType: norm.Type,
			ContextKey:   norm.ContextKey,
			Season:       season,
			Payload:      payload,
			CreatedAt:    c.now(),
		}, false, nil
	}
}
