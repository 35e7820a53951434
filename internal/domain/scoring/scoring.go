// Package scoring values tradeable assets under a weight vector.
package scoring

import (
	"math"

	"github.com/okian/leaguelearn/internal/domain/model"
)

// Default scoring configuration constants.
const (
	defaultPickMultiplier   = 1.0
	defaultPlayerMultiplier = 1.0
)

// Option applies a configuration option to the WeightedScorer.
type Option func(*WeightedScorer)

// WithKindMultiplier scales every asset of kind. Non-positive multipliers
// are ignored.
func WithKindMultiplier(kind model.AssetKind, multiplier float64) Option {
	return func(s *WeightedScorer) {
		if multiplier > 0 {
			s.kindMultipliers[kind] = multiplier
		}
	}
}

// WithMaxValue caps a single asset's value. Zero leaves values uncapped.
func WithMaxValue(maxValue float64) Option {
	return func(s *WeightedScorer) {
		if maxValue >= 0 {
			s.maxValue = maxValue
		}
	}
}

// Scorer values assets.
type Scorer interface {
	// Value returns an asset's value under weights.
	Value(asset model.Asset, weights model.WeightVector) float64
}

// WeightedScorer values an asset as Σ weight·factor over the weight
// vector's factors. Factors the asset lacks contribute nothing.
type WeightedScorer struct {
	kindMultipliers map[model.AssetKind]float64
	maxValue        float64
}

// NewWeightedScorer creates a scorer with configuration options.
func NewWeightedScorer(opts ...Option) *WeightedScorer {
	s := &WeightedScorer{
		kindMultipliers: map[model.AssetKind]float64{
			model.AssetPlayer: defaultPlayerMultiplier,
			model.AssetPick:   defaultPickMultiplier,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Value computes the asset's value. Non-finite factor scores are skipped
// and negative totals floor at zero.
func (s *WeightedScorer) Value(asset model.Asset, weights model.WeightVector) float64 {
	var sum float64
	for _, f := range weights.Factors() {
		x, ok := asset.Factors[f]
		if !ok || math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		sum += weights[f] * x
	}

	mult, ok := s.kindMultipliers[asset.Kind]
	if !ok {
		mult = defaultPlayerMultiplier
	}
	value := math.Max(0, sum*mult)
	if s.maxValue > 0 {
		value = math.Min(s.maxValue, value)
	}
	return value
}

// Total sums the value of assets.
func Total(s Scorer, assets []model.Asset, weights model.WeightVector) float64 {
	var total float64
	for _, a := range assets {
		total += s.Value(a, weights)
	}
	return total
}
