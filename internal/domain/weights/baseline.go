// Package weights owns baseline weight vectors, multi-season blending and
// the effective-weight policy used on the request path.
package weights

import (
	"github.com/okian/leaguelearn/internal/domain/classify"
	"github.com/okian/leaguelearn/internal/domain/model"
)

// SchemaVersion is the factor schema every stored vector uses.
const SchemaVersion = "v1"

// Factor names in schema v1.
const (
	FactorProduction         = "production"
	FactorAgeCurve           = "age_curve"
	FactorPositionalScarcity = "positional_scarcity"
	FactorDurability         = "durability"
	FactorUpside             = "upside"
	FactorQBPremium          = "qb_premium"
)

// Factors lists schema v1 factor names in sorted order.
func Factors() []string {
	return []string{
		FactorAgeCurve,
		FactorDurability,
		FactorPositionalScarcity,
		FactorProduction,
		FactorQBPremium,
		FactorUpside,
	}
}

// baselines is seeded once at package init and never written afterwards.
var baselines = seedBaselines()

func seedBaselines() map[model.LeagueClass]model.WeightVector {
	out := make(map[model.LeagueClass]model.WeightVector)
	for _, class := range classify.AllClasses() {
		lt, sf, sp, _ := classify.Parts(class)
		out[class] = seed(lt, sf, sp)
	}
	return out
}

func seed(leagueType string, superflex bool, specialty string) model.WeightVector {
	w := model.WeightVector{
		FactorProduction:         1.0,
		FactorAgeCurve:           0.5,
		FactorPositionalScarcity: 0.6,
		FactorDurability:         0.4,
		FactorUpside:             0.5,
		FactorQBPremium:          0.3,
	}

	switch leagueType {
	case classify.TypeDynasty:
		w[FactorProduction] = 0.8
		w[FactorAgeCurve] = 1.0
		w[FactorUpside] = 0.8
	case classify.TypeKeeper:
		w[FactorAgeCurve] = 0.75
		w[FactorUpside] = 0.65
	case classify.TypeBestBall:
		w[FactorProduction] = 1.1
		w[FactorDurability] = 0.25
		w[FactorUpside] = 0.9
	}

	if superflex {
		w[FactorQBPremium] = 1.0
	}

	switch specialty {
	case classify.SpecialtyIDP:
		w[FactorPositionalScarcity] = 0.8
	case classify.SpecialtyTEPremium:
		w[FactorPositionalScarcity] = 0.9
	case classify.SpecialtyDevy:
		w[FactorAgeCurve] += 0.2
		w[FactorUpside] += 0.3
	}
	return w
}

// Baseline returns a copy of the seed vector for class. Unknown classes get
// the default class's baseline, so the result is never empty.
func Baseline(class model.LeagueClass) model.WeightVector {
	if w, ok := baselines[class]; ok {
		return w.Clone()
	}
	return baselines[classify.DefaultClass].Clone()
}
