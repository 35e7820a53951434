// Package otb annotates roster assets that their managers put on the block.
package otb

import "github.com/okian/leaguelearn/internal/domain/model"

// Tag is the tag added to listed players.
const Tag = "OTB"

// ApplyTags returns a copy of assetsByRoster where every PLAYER asset with
// an active listing in leagueID carries the OTB tag. Picks are never
// tagged and an existing tag in any case is not duplicated. Neither input
// is modified.
func ApplyTags(leagueID string, listings []model.OTBListing, assetsByRoster map[int][]model.Asset) map[int][]model.Asset {
	listed := make(map[int]map[string]struct{})
	for _, l := range listings {
		if !l.Active || l.LeagueID != leagueID || l.PlayerID == "" {
			continue
		}
		if listed[l.RosterID] == nil {
			listed[l.RosterID] = make(map[string]struct{})
		}
		listed[l.RosterID][l.PlayerID] = struct{}{}
	}

	out := make(map[int][]model.Asset, len(assetsByRoster))
	for roster, assets := range assetsByRoster {
		if assets == nil {
			out[roster] = nil
			continue
		}
		tagged := make([]model.Asset, len(assets))
		for i, a := range assets {
			a = a.Clone()
			if _, ok := listed[roster][a.ID]; ok && a.Kind == model.AssetPlayer && !a.HasTag(Tag) {
				a.Tags = append(a.Tags, Tag)
			}
			tagged[i] = a
		}
		out[roster] = tagged
	}
	return out
}
