// Package repository defines the persistence contracts the engine consumes
// and an in-memory implementation of all of them.
package repository

import (
	"context"

	"github.com/okian/leaguelearn/internal/domain/model"
)

// WeightStore holds per-class weight history. Records are append-only and
// returned oldest first.
type WeightStore interface {
	Evolution(ctx context.Context, class model.LeagueClass) ([]model.WeightEvolutionRecord, error)
	AppendEvolution(ctx context.Context, rec model.WeightEvolutionRecord) error
}

// FeedbackStore holds observed outcomes used by recalibration.
type FeedbackStore interface {
	Feedback(ctx context.Context, class model.LeagueClass, season int) ([]model.Feedback, error)
	AddFeedback(ctx context.Context, fb model.Feedback) error
}

// SnapshotStore is an append-only log of cached analyses.
type SnapshotStore interface {
	// Latest returns the newest record matching key exactly.
	Latest(ctx context.Context, key model.SnapshotKey) (model.SnapshotRecord, bool, error)
	Insert(ctx context.Context, rec model.SnapshotRecord) error
}

// TendencyStore reads and updates manager tendencies.
type TendencyStore interface {
	// Tendency returns ErrNotFound for unknown managers.
	Tendency(ctx context.Context, managerID string) (model.ManagerTendency, error)
	SaveTendency(ctx context.Context, t model.ManagerTendency) error
}

// ListingStore holds on-the-block listings.
type ListingStore interface {
	Listings(ctx context.Context, leagueID string) ([]model.OTBListing, error)
	SaveListing(ctx context.Context, l model.OTBListing) error
}
