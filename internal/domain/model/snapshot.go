package model

import (
	"encoding/json"
	"time"
)

// SnapshotType names a cached analysis kind.
type SnapshotType string

const (
	SnapshotLeagueAnalyze   SnapshotType = "league_analyze"
	SnapshotRankingsAnalyze SnapshotType = "rankings_analyze"
	SnapshotOTBPackages     SnapshotType = "otb_packages"
)

// Valid reports whether t is a known snapshot type.
func (t SnapshotType) Valid() bool {
	switch t {
	case SnapshotLeagueAnalyze, SnapshotRankingsAnalyze, SnapshotOTBPackages:
		return true
	default:
		return false
	}
}

// SnapshotKey identifies one cache line. ContextKey is part of the key: a
// nil ContextKey only matches records stored without one.
type SnapshotKey struct {
	LeagueID   string
	Username   string
	Type       SnapshotType
	ContextKey *string
}

// Matches reports whether r belongs to the exact key tuple.
func (k SnapshotKey) Matches(r SnapshotRecord) bool {
	if r.LeagueID != k.LeagueID || r.Username != k.Username || r.SnapshotType != k.Type {
		return false
	}
	switch {
	case k.ContextKey == nil && r.ContextKey == nil:
		return true
	case k.ContextKey == nil || r.ContextKey == nil:
		return false
	default:
		return *k.ContextKey == *r.ContextKey
	}
}

// SnapshotRecord is an immutable cached analysis payload.
type SnapshotRecord struct {
	ID           string          `json:"id"`
	LeagueID     string          `json:"league_id"`
	Username     string          `json:"username"`
	SnapshotType SnapshotType    `json:"snapshot_type"`
	ContextKey   *string         `json:"context_key,omitempty"`
	Season       int             `json:"season"`
	Payload      json.RawMessage `json:"payload"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Key returns the record's key tuple.
func (r SnapshotRecord) Key() SnapshotKey {
	return SnapshotKey{LeagueID: r.LeagueID, Username: r.Username, Type: r.SnapshotType, ContextKey: r.ContextKey}
}
