package weights

import (
	"context"

	"github.com/okian/leaguelearn/internal/domain/model"
	"github.com/okian/leaguelearn/pkg/logger"
	"github.com/okian/leaguelearn/pkg/metrics"
)

// EvolutionReader reads a class's weight history, oldest first.
type EvolutionReader interface {
	Evolution(ctx context.Context, class model.LeagueClass) ([]model.WeightEvolutionRecord, error)
}

// Source describes where effective weights came from.
type Source string

const (
	SourceBlended  Source = "blended"
	SourceBaseline Source = "baseline"
	// SourceFallback means history could not be read or blended.
	SourceFallback Source = "fallback"
)

// Resolution is an effective weight vector plus its provenance.
type Resolution struct {
	Class   model.LeagueClass  `json:"league_class"`
	Weights model.WeightVector `json:"weights"`
	Source  Source             `json:"source"`
	Seasons int                `json:"seasons"`
}

// Resolver applies the effective-weight policy: blend when history exists,
// otherwise use the baseline.
type Resolver struct {
	store  EvolutionReader
	window int
	mode   Mode
	logger logger.Logger
}

// NewResolver creates a Resolver reading history from store.
func NewResolver(store EvolutionReader, opts ...Option) *Resolver {
	r := &Resolver{
		store:  store,
		window: DefaultWindow,
		mode:   ModeLinear,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Window returns the configured blend window.
func (r *Resolver) Window() int { return r.window }

// Effective returns the weights to use for class.
func (r *Resolver) Effective(ctx context.Context, class model.LeagueClass) model.WeightVector {
	return r.Resolve(ctx, class).Weights
}

// Resolve returns the effective weights with provenance. It never fails:
// store and blend errors degrade to the baseline.
func (r *Resolver) Resolve(ctx context.Context, class model.LeagueClass) Resolution {
	res := r.resolve(ctx, class)
	metrics.RecordWeightResolution(string(res.Source))
	return res
}

func (r *Resolver) resolve(ctx context.Context, class model.LeagueClass) Resolution {
	fallback := Resolution{Class: class, Weights: Baseline(class), Source: SourceFallback}

	if r.store == nil {
		fallback.Source = SourceBaseline
		return fallback
	}

	evolution, err := r.store.Evolution(ctx, class)
	if err != nil {
		r.logger.Warn(ctx, "weight evolution unavailable, using baseline",
			logger.String("class", string(class)), logger.Error(err))
		return fallback
	}
	if len(evolution) == 0 {
		fallback.Source = SourceBaseline
		return fallback
	}

	blended, err := Blend(evolution, r.window, r.mode)
	if err != nil {
		metrics.RecordBlendError()
		r.logger.Error(ctx, "weight blend failed, using baseline",
			logger.String("class", string(class)), logger.Error(err))
		return fallback
	}

	seasons := len(latestPerSeason(evolution))
	if seasons > r.window {
		seasons = r.window
	}
	return Resolution{Class: class, Weights: blended, Source: SourceBlended, Seasons: seasons}
}
