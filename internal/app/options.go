package service

import (
	"time"

	"github.com/okian/leaguelearn/internal/adapters/repository"
	"github.com/okian/leaguelearn/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWeightStore overrides the weight history backend.
func WithWeightStore(st repository.WeightStore) Option {
	return func(s *Service) {
		if st != nil {
			s.weightStore = st
		}
	}
}

// WithFeedbackStore overrides the feedback backend.
func WithFeedbackStore(st repository.FeedbackStore) Option {
	return func(s *Service) {
		if st != nil {
			s.feedbackStore = st
		}
	}
}

// WithSnapshotStore overrides the snapshot backend.
func WithSnapshotStore(st repository.SnapshotStore) Option {
	return func(s *Service) {
		if st != nil {
			s.snapshotStore = st
		}
	}
}

// WithTendencyStore overrides the manager tendency backend.
func WithTendencyStore(st repository.TendencyStore) Option {
	return func(s *Service) {
		if st != nil {
			s.tendencyStore = st
		}
	}
}

// WithListingStore overrides the OTB listing backend.
func WithListingStore(st repository.ListingStore) Option {
	return func(s *Service) {
		if st != nil {
			s.listingStore = st
		}
	}
}

// WithActivitySource sets the league activity feed.
func WithActivitySource(src ActivitySource) Option {
	return func(s *Service) {
		if src != nil {
			s.activity = src
		}
	}
}

// WithClock overrides time.Now for every component the service builds.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCloser registers a function run by Stop, e.g. a database pool close.
func WithCloser(fn func() error) Option {
	return func(s *Service) {
		if fn != nil {
			s.closers = append(s.closers, fn)
		}
	}
}
