package repository

import "github.com/okian/leaguelearn/internal/domain/model"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithEvolution seeds weight history.
func WithEvolution(records ...model.WeightEvolutionRecord) Option {
	return func(s *MemoryStore) {
		for _, rec := range records {
			s.evolution[rec.LeagueClass] = append(s.evolution[rec.LeagueClass], rec)
		}
	}
}

// WithFeedback seeds observed outcomes.
func WithFeedback(items ...model.Feedback) Option {
	return func(s *MemoryStore) {
		for _, fb := range items {
			k := feedbackKey{class: fb.LeagueClass, season: fb.Season}
			s.feedback[k] = append(s.feedback[k], fb)
		}
	}
}
