// Package classify maps raw league attributes to a LeagueClass.
//
// Classification is deliberately coarse: every league lands in one of a
// small, fixed set of classes so learned weights accumulate enough samples.
package classify

import (
	"strings"

	"github.com/okian/leaguelearn/internal/domain/model"
)

// League types.
const (
	TypeRedraft  = "redraft"
	TypeDynasty  = "dynasty"
	TypeKeeper   = "keeper"
	TypeBestBall = "best_ball"
)

// Specialty formats.
const (
	SpecialtyIDP       = "idp"
	SpecialtyTEPremium = "te_premium"
	SpecialtyDevy      = "devy"
)

// DefaultClass is where unknown input lands.
const DefaultClass model.LeagueClass = "redraft_1qb"

var (
	leagueTypes = []string{TypeRedraft, TypeDynasty, TypeKeeper, TypeBestBall}
	specialties = []string{"", SpecialtyIDP, SpecialtyTEPremium, SpecialtyDevy}

	typeAliases = map[string]string{
		TypeRedraft:  TypeRedraft,
		TypeDynasty:  TypeDynasty,
		TypeKeeper:   TypeKeeper,
		TypeBestBall: TypeBestBall,
		"bestball":   TypeBestBall,
		"best-ball":  TypeBestBall,
	}
	specialtyAliases = map[string]string{
		SpecialtyIDP:       SpecialtyIDP,
		SpecialtyTEPremium: SpecialtyTEPremium,
		"te-premium":       SpecialtyTEPremium,
		"tep":              SpecialtyTEPremium,
		SpecialtyDevy:      SpecialtyDevy,
	}
)

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Classify returns the class for a league. It never fails: unknown league
// types fall back to redraft and unknown specialty formats are dropped.
func Classify(leagueType, specialtyFormat string, isSuperflex bool) model.LeagueClass {
	lt, ok := typeAliases[normalize(leagueType)]
	if !ok {
		lt = TypeRedraft
	}
	return build(lt, specialtyAliases[normalize(specialtyFormat)], isSuperflex)
}

func build(leagueType, specialty string, superflex bool) model.LeagueClass {
	qb := "1qb"
	if superflex {
		qb = "sf"
	}
	parts := []string{leagueType, qb}
	if specialty != "" {
		parts = append(parts, specialty)
	}
	return model.LeagueClass(strings.Join(parts, "_"))
}

// AllClasses enumerates every class Classify can return, in a stable order.
func AllClasses() []model.LeagueClass {
	out := make([]model.LeagueClass, 0, len(leagueTypes)*2*len(specialties))
	for _, lt := range leagueTypes {
		for _, sf := range []bool{false, true} {
			for _, sp := range specialties {
				out = append(out, build(lt, sp, sf))
			}
		}
	}
	return out
}

// Parts splits a class back into its league type, superflex flag and
// specialty. ok is false for strings Classify never produces.
func Parts(class model.LeagueClass) (leagueType string, superflex bool, specialty string, ok bool) {
	for _, lt := range leagueTypes {
		rest, found := strings.CutPrefix(string(class), lt+"_")
		if !found {
			continue
		}
		qb, sp, _ := strings.Cut(rest, "_")
		switch qb {
		case "sf":
			superflex = true
		case "1qb":
		default:
			return "", false, "", false
		}
		if sp != "" {
			if _, known := specialtyAliases[sp]; !known || specialtyAliases[sp] != sp {
				return "", false, "", false
			}
		}
		return lt, superflex, sp, true
	}
	return "", false, "", false
}
