package model

import "time"

// AcceptanceLabel is a coarse estimate of how likely a trade is accepted.
type AcceptanceLabel string

const (
	LabelStrong      AcceptanceLabel = "Strong"
	LabelAggressive  AcceptanceLabel = "Aggressive"
	LabelSpeculative AcceptanceLabel = "Speculative"
	LabelLongShot    AcceptanceLabel = "Long Shot"
	LabelNone        AcceptanceLabel = ""
)

// Rank orders labels; unlabeled candidates rank 0.
func (l AcceptanceLabel) Rank() int {
	switch l {
	case LabelStrong:
		return 4
	case LabelAggressive:
		return 3
	case LabelSpeculative:
		return 2
	case LabelLongShot:
		return 1
	default:
		return 0
	}
}

// TradeCandidate is a valued trade proposal. It is never mutated after
// creation; re-evaluation produces a new candidate.
type TradeCandidate struct {
	Give            []Asset         `json:"give"`
	Receive         []Asset         `json:"receive"`
	GiveValue       float64         `json:"give_value"`
	ReceiveValue    float64         `json:"receive_value"`
	FairnessScore   float64         `json:"fairness_score"`
	AcceptanceLabel AcceptanceLabel `json:"acceptance_label"`
}

// PackageQuery asks for offers RosterID could send for other rosters'
// on-the-block players. Rosters maps roster ID to its assets.
type PackageQuery struct {
	LeagueID string          `json:"league_id"`
	Username string          `json:"username"`
	Season   int             `json:"season"`
	Class    LeagueClass     `json:"league_class"`
	RosterID int             `json:"roster_id"`
	Rosters  map[int][]Asset `json:"rosters"`
	Limit    int             `json:"limit"`
}

// PackageResult is a ranked offer list and where it came from.
type PackageResult struct {
	Packages    []TradeCandidate `json:"packages"`
	Cached      bool             `json:"cached"`
	SnapshotID  string           `json:"snapshot_id,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
}
