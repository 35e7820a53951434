package valuation

import (
	"sort"

	"github.com/okian/leaguelearn/internal/domain/model"
)

// BuildPackages proposes offers for each target: every single asset and
// every pair from the user's pool. Only the highest-valued pool assets (see
// WithMaxPool) are combined. Results are ranked and truncated to limit;
// limit <= 0 returns all of them.
func (v *Valuator) BuildPackages(targets, pool []model.Asset, weights model.WeightVector, limit int) []model.TradeCandidate {
	offers := v.topPool(pool, weights)

	var candidates []model.TradeCandidate
	for _, target := range targets {
		receive := []model.Asset{target}
		usable := make([]model.Asset, 0, len(offers))
		for _, a := range offers {
			if a.Kind == target.Kind && a.ID == target.ID {
				continue
			}
			usable = append(usable, a)
		}
		for i := range usable {
			candidates = append(candidates, v.Evaluate([]model.Asset{usable[i]}, receive, weights))
			for j := i + 1; j < len(usable); j++ {
				candidates = append(candidates, v.Evaluate([]model.Asset{usable[i], usable[j]}, receive, weights))
			}
		}
	}

	ranked := Rank(candidates)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func (v *Valuator) topPool(pool []model.Asset, weights model.WeightVector) []model.Asset {
	type valued struct {
		asset model.Asset
		value float64
	}
	vs := make([]valued, len(pool))
	for i, a := range pool {
		vs[i] = valued{asset: a, value: v.scorer.Value(a, weights)}
	}
	sort.SliceStable(vs, func(i, j int) bool {
		if vs[i].value != vs[j].value {
			return vs[i].value > vs[j].value
		}
		if vs[i].asset.Kind != vs[j].asset.Kind {
			return vs[i].asset.Kind < vs[j].asset.Kind
		}
		return vs[i].asset.ID < vs[j].asset.ID
	})
	if len(vs) > v.maxPool {
		vs = vs[:v.maxPool]
	}
	out := make([]model.Asset, len(vs))
	for i, x := range vs {
		out[i] = x.asset
	}
	return out
}
