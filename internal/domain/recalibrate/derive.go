package recalibrate

import (
	"math"
	"sort"

	"github.com/okian/leaguelearn/internal/domain/model"
)

// Params bound the per-run weight update.
type Params struct {
	LearningRate float64
	MinWeight    float64
	MaxWeight    float64
}

// DefaultParams returns the default update parameters.
func DefaultParams() Params {
	return Params{LearningRate: 0.25, MinWeight: 0.05, MaxWeight: 5}
}

// Derive computes the next weight vector from prior and observed feedback.
//
// For each factor f the signal is the outcome-weighted mean of the factor
// scores, Σ outcome·x_f / Σ |x_f|, which lies in [-1, 1]. The weight moves
// by prior·learningRate·signal and is clamped to [MinWeight, MaxWeight].
// Feedback is visited in ID order so the floating point sums are
// reproducible.
func Derive(prior model.WeightVector, feedback []model.Feedback, p Params) (model.WeightVector, error) {
	if err := prior.Validate(); err != nil {
		return nil, err
	}

	sorted := make([]model.Feedback, len(feedback))
	copy(sorted, feedback)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	next := make(model.WeightVector, len(prior))
	for _, f := range prior.Factors() {
		signal := factorSignal(f, sorted)
		next[f] = clamp(prior[f]*(1+p.LearningRate*signal), p.MinWeight, p.MaxWeight)
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}

func factorSignal(factor string, feedback []model.Feedback) float64 {
	var num, den float64
	for _, fb := range feedback {
		x, ok := fb.Factors[factor]
		if !ok || !finite(x) || !finite(fb.Outcome) {
			continue
		}
		num += clamp(fb.Outcome, -1, 1) * x
		den += math.Abs(x)
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
