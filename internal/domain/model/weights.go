// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// LeagueClass is the discrete bucket a league is classified into. Learned
// weights are shared by every league in the same class.
type LeagueClass string

// WeightVector maps scoring factor names to relative weights.
type WeightVector map[string]float64

// Clone returns an independent copy.
func (w WeightVector) Clone() WeightVector {
	out := make(WeightVector, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Factors returns factor names in sorted order.
func (w WeightVector) Factors() []string {
	names := make([]string, 0, len(w))
	for k := range w {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Validate rejects NaN and infinite weights.
func (w WeightVector) Validate() error {
	for _, name := range w.Factors() {
		v := w[name]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: factor %q", ErrNonFiniteWeight, name)
		}
	}
	return nil
}

// WeightEvolutionRecord is one learned weight vector for a class and season.
// Records are append-only; a rerun for the same season adds a newer record.
type WeightEvolutionRecord struct {
	ID            string       `json:"id"`
	LeagueClass   LeagueClass  `json:"league_class"`
	Season        int          `json:"season"`
	Weights       WeightVector `json:"weights"`
	SchemaVersion string       `json:"schema_version"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Feedback is one observed outcome for a factor profile. Outcome is in
// [-1, 1]; positive means the profile was validated (trade accepted,
// ranking hit).
type Feedback struct {
	ID          string             `json:"id"`
	LeagueClass LeagueClass        `json:"league_class"`
	Season      int                `json:"season"`
	Factors     map[string]float64 `json:"factors"`
	Outcome     float64            `json:"outcome"`
	ObservedAt  time.Time          `json:"observed_at"`
}
