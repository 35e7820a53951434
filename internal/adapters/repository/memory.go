package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/okian/leaguelearn/internal/domain/model"
)

type feedbackKey struct {
	class  model.LeagueClass
	season int
}

// MemoryStore implements every repository contract in process memory. It
// is safe for concurrent use; readers get copies.
type MemoryStore struct {
	mu        sync.RWMutex
	evolution map[model.LeagueClass][]model.WeightEvolutionRecord
	feedback  map[feedbackKey][]model.Feedback
	snapshots []model.SnapshotRecord
	tendency  map[string]model.ManagerTendency
	listings  map[string]map[string]model.OTBListing

	// feedbackIDs mirrors the unique id column of the SQL store.
	feedbackIDs map[string]struct{}
}

var (
	_ WeightStore   = (*MemoryStore)(nil)
	_ FeedbackStore = (*MemoryStore)(nil)
	_ SnapshotStore = (*MemoryStore)(nil)
	_ TendencyStore = (*MemoryStore)(nil)
	_ ListingStore  = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		evolution:   make(map[model.LeagueClass][]model.WeightEvolutionRecord),
		feedback:    make(map[feedbackKey][]model.Feedback),
		tendency:    make(map[string]model.ManagerTendency),
		listings:    make(map[string]map[string]model.OTBListing),
		feedbackIDs: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evolution returns the class history ordered by season then creation time.
func (s *MemoryStore) Evolution(_ context.Context, class model.LeagueClass) ([]model.WeightEvolutionRecord, error) {
	s.mu.RLock()
	recs := s.evolution[class]
	out := make([]model.WeightEvolutionRecord, len(recs))
	for i, r := range recs {
		r.Weights = r.Weights.Clone()
		out[i] = r
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// AppendEvolution appends rec.
func (s *MemoryStore) AppendEvolution(_ context.Context, rec model.WeightEvolutionRecord) error {
	if rec.LeagueClass == "" || rec.Season <= 0 {
		return fmt.Errorf("%w: evolution needs class and season", ErrInvalidRecord)
	}
	if err := rec.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	rec.Weights = rec.Weights.Clone()

	s.mu.Lock()
	s.evolution[rec.LeagueClass] = append(s.evolution[rec.LeagueClass], rec)
	s.mu.Unlock()
	return nil
}

// Feedback returns outcomes for class and season in insertion order.
func (s *MemoryStore) Feedback(_ context.Context, class model.LeagueClass, season int) ([]model.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.feedback[feedbackKey{class: class, season: season}]
	return append([]model.Feedback(nil), items...), nil
}

// AddFeedback records one outcome. A repeated ID is ignored, so retried
// posts count once.
func (s *MemoryStore) AddFeedback(_ context.Context, fb model.Feedback) error {
	if fb.ID == "" || fb.LeagueClass == "" || fb.Season <= 0 {
		return fmt.Errorf("%w: feedback needs id, class and season", ErrInvalidRecord)
	}
	k := feedbackKey{class: fb.LeagueClass, season: fb.Season}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.feedbackIDs[fb.ID]; seen {
		return nil
	}
	s.feedbackIDs[fb.ID] = struct{}{}
	s.feedback[k] = append(s.feedback[k], fb)
	return nil
}

// Latest returns the newest snapshot for the exact key. Ties on CreatedAt
// go to the later insert.
func (s *MemoryStore) Latest(_ context.Context, key model.SnapshotKey) (model.SnapshotRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best model.SnapshotRecord
	found := false
	for _, r := range s.snapshots {
		if key.Matches(r) && (!found || !r.CreatedAt.Before(best.CreatedAt)) {
			best, found = r, true
		}
	}
	return best, found, nil
}

// Insert appends a snapshot.
func (s *MemoryStore) Insert(_ context.Context, rec model.SnapshotRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: snapshot needs an id", ErrInvalidRecord)
	}
	s.mu.Lock()
	s.snapshots = append(s.snapshots, rec)
	s.mu.Unlock()
	return nil
}

// Tendency returns the stored tendency for managerID.
func (s *MemoryStore) Tendency(_ context.Context, managerID string) (model.ManagerTendency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tendency[managerID]
	if !ok {
		return model.ManagerTendency{}, ErrNotFound
	}
	return t, nil
}

// SaveTendency upserts t.
func (s *MemoryStore) SaveTendency(_ context.Context, t model.ManagerTendency) error {
	if strings.TrimSpace(t.ManagerID) == "" {
		return fmt.Errorf("%w: tendency needs a manager id", ErrInvalidRecord)
	}
	s.mu.Lock()
	s.tendency[t.ManagerID] = t
	s.mu.Unlock()
	return nil
}

// Listings returns a league's listings ordered by roster then player.
func (s *MemoryStore) Listings(_ context.Context, leagueID string) ([]model.OTBListing, error) {
	s.mu.RLock()
	out := make([]model.OTBListing, 0, len(s.listings[leagueID]))
	for _, l := range s.listings[leagueID] {
		out = append(out, l)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].RosterID != out[j].RosterID {
			return out[i].RosterID < out[j].RosterID
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out, nil
}

// SaveListing upserts a listing keyed by league, roster and player.
func (s *MemoryStore) SaveListing(_ context.Context, l model.OTBListing) error {
	if l.LeagueID == "" || l.PlayerID == "" {
		return fmt.Errorf("%w: listing needs league and player", ErrInvalidRecord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listings[l.LeagueID] == nil {
		s.listings[l.LeagueID] = make(map[string]model.OTBListing)
	}
	s.listings[l.LeagueID][fmt.Sprintf("%d/%s", l.RosterID, l.PlayerID)] = l
	return nil
}
