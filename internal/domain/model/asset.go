package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AssetKind discriminates tradeable assets.
type AssetKind string

const (
	AssetPlayer AssetKind = "PLAYER"
	AssetPick   AssetKind = "PICK"
)

// ParseAssetKind accepts a kind in any case.
func ParseAssetKind(s string) (AssetKind, error) {
	switch AssetKind(strings.ToUpper(strings.TrimSpace(s))) {
	case AssetPlayer:
		return AssetPlayer, nil
	case AssetPick:
		return AssetPick, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAssetKind, s)
	}
}

// UnmarshalJSON validates the kind so payloads with unknown kinds are
// rejected at decode time.
func (k *AssetKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseAssetKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Asset is a player or draft pick. Factors holds the asset's normalized
// factor scores keyed by the same names as WeightVector.
type Asset struct {
	Kind     AssetKind          `json:"kind"`
	ID       string             `json:"id"`
	Name     string             `json:"name,omitempty"`
	Position string             `json:"position,omitempty"`
	Factors  map[string]float64 `json:"factors,omitempty"`
	Tags     []string           `json:"tags,omitempty"`
}

// Validate checks the discriminator and identifier.
func (a Asset) Validate() error {
	if _, err := ParseAssetKind(string(a.Kind)); err != nil {
		return err
	}
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidAsset)
	}
	return nil
}

// HasTag reports whether tag is present, ignoring case.
func (a Asset) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices or maps with a.
func (a Asset) Clone() Asset {
	out := a
	if a.Tags != nil {
		out.Tags = append([]string(nil), a.Tags...)
	}
	if a.Factors != nil {
		out.Factors = make(map[string]float64, len(a.Factors))
		for k, v := range a.Factors {
			out.Factors[k] = v
		}
	}
	return out
}

// OTBListing marks a player as on the block for a roster.
type OTBListing struct {
	LeagueID string `json:"league_id"`
	RosterID int    `json:"roster_id"`
	PlayerID string `json:"player_id"`
	Active   bool   `json:"active"`
}
