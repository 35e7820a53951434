package weights

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/leaguelearn/internal/domain/model"
)

// Mode selects the recency bias applied when blending seasons.
type Mode string

const (
	// ModeLinear weights the i-th oldest season of n by i+1.
	ModeLinear Mode = "linear"
	// ModeExponential halves the weight for every season of age.
	ModeExponential Mode = "exponential"
)

// DefaultWindow is the number of seasons blended when not configured.
const DefaultWindow = 3

// ParseMode maps a configuration string to a Mode, defaulting to linear.
func ParseMode(s string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(s))) == ModeExponential {
		return ModeExponential
	}
	return ModeLinear
}

// Blend combines the most recent window seasons of evolution into one
// vector. Records are collapsed to the newest per season first, so a rerun
// for a season replaces its predecessor instead of double counting.
//
// The result depends only on the input: factors are visited in sorted
// order and no clock or randomness is involved.
func Blend(evolution []model.WeightEvolutionRecord, window int, mode Mode) (model.WeightVector, error) {
	if len(evolution) == 0 {
		return nil, ErrEmptyEvolution
	}
	if window < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, window)
	}

	seasons := latestPerSeason(evolution)
	if len(seasons) > window {
		seasons = seasons[len(seasons)-window:]
	}

	for _, rec := range seasons {
		if err := rec.Weights.Validate(); err != nil {
			return nil, fmt.Errorf("season %d: %w", rec.Season, err)
		}
	}

	recency := recencyWeights(len(seasons), mode)

	factorSet := make(map[string]struct{})
	for _, rec := range seasons {
		for f := range rec.Weights {
			factorSet[f] = struct{}{}
		}
	}
	factors := make([]string, 0, len(factorSet))
	for f := range factorSet {
		factors = append(factors, f)
	}
	sort.Strings(factors)

	out := make(model.WeightVector, len(factors))
	for _, f := range factors {
		var sum, norm float64
		for i, rec := range seasons {
			v, ok := rec.Weights[f]
			if !ok {
				continue
			}
			sum += recency[i] * v
			norm += recency[i]
		}
		out[f] = sum / norm
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// latestPerSeason returns one record per season, oldest season first. Within
// a season the newest CreatedAt wins, then the greatest ID.
func latestPerSeason(evolution []model.WeightEvolutionRecord) []model.WeightEvolutionRecord {
	sorted := make([]model.WeightEvolutionRecord, len(evolution))
	copy(sorted, evolution)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	out := sorted[:0:0]
	for i, rec := range sorted {
		if i+1 < len(sorted) && sorted[i+1].Season == rec.Season {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func recencyWeights(n int, mode Mode) []float64 {
	w := make([]float64, n)
	for i := range w {
		if mode == ModeExponential {
			w[i] = math.Pow(0.5, float64(n-1-i))
		} else {
			w[i] = float64(i + 1)
		}
	}
	return w
}
