// Package tendency classifies a manager's trading behaviour.
package tendency

import (
	"time"

	"github.com/okian/leaguelearn/internal/domain/model"
)

// Level is a coarse low/medium/high classification.
type Level string

const (
	Low    Level = "low"
	Medium Level = "medium"
	High   Level = "high"
)

// Thresholds configures the classification cut-offs.
type Thresholds struct {
	// HighTrades alone makes a manager highly aggressive.
	HighTrades int
	// AltHighTrades combined with an acceptance ratio above AltAcceptRatio
	// also counts as high.
	AltHighTrades  int
	AltAcceptRatio float64
	MediumTrades   int
	// Overpay ratios bounding medium risk tolerance (exclusive).
	RiskHigh float64
	RiskLow  float64
}

// DefaultThresholds returns the stock cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighTrades:     8,
		AltHighTrades:  5,
		AltAcceptRatio: 0.6,
		MediumTrades:   3,
		RiskHigh:       1.12,
		RiskLow:        0.95,
	}
}

// Inferencer classifies tendencies. It holds no mutable state.
type Inferencer struct {
	th Thresholds
}

// New creates an Inferencer with th.
func New(th Thresholds) Inferencer {
	return Inferencer{th: th}
}

// Thresholds returns the configured cut-offs.
func (in Inferencer) Thresholds() Thresholds { return in.th }

// InferAggression classifies how readily a manager sends trades.
func (in Inferencer) InferAggression(t model.ManagerTendency) Level {
	switch {
	case t.TradesSent >= in.th.HighTrades:
		return High
	case t.TradesSent >= in.th.AltHighTrades && acceptRatio(t) > in.th.AltAcceptRatio:
		return High
	case t.TradesSent >= in.th.MediumTrades:
		return Medium
	default:
		return Low
	}
}

// InferRiskTolerance classifies how much a manager overpays.
func (in Inferencer) InferRiskTolerance(t model.ManagerTendency) Level {
	switch {
	case t.AvgOverpayRatio > in.th.RiskHigh:
		return High
	case t.AvgOverpayRatio < in.th.RiskLow:
		return Low
	default:
		return Medium
	}
}

// Profile is both classifications together.
type Profile struct {
	ManagerID     string `json:"manager_id"`
	Aggression    Level  `json:"aggression"`
	RiskTolerance Level  `json:"risk_tolerance"`
}

// Infer returns the full profile for t.
func (in Inferencer) Infer(t model.ManagerTendency) Profile {
	return Profile{
		ManagerID:     t.ManagerID,
		Aggression:    in.InferAggression(t),
		RiskTolerance: in.InferRiskTolerance(t),
	}
}

func acceptRatio(t model.ManagerTendency) float64 {
	if t.TradesSent <= 0 {
		return 0
	}
	return float64(t.TradesAccepted) / float64(t.TradesSent)
}

// Outcome is one trade a manager sent.
type Outcome struct {
	Accepted bool
	// OverpayRatio is value sent over value received. Values <= 0 are
	// treated as unknown and leave the running mean untouched.
	OverpayRatio float64
}

// Observe returns t updated with one more sent trade, folding a known
// overpay ratio into the running mean over trades sent. t is not modified.
func Observe(t model.ManagerTendency, o Outcome, now time.Time) model.ManagerTendency {
	next := t
	next.TradesSent++
	if o.Accepted {
		next.TradesAccepted++
	}
	if o.OverpayRatio > 0 {
		if t.TradesSent <= 0 || t.AvgOverpayRatio <= 0 {
			next.AvgOverpayRatio = o.OverpayRatio
		} else {
			n := float64(t.TradesSent)
			next.AvgOverpayRatio = (t.AvgOverpayRatio*n + o.OverpayRatio) / (n + 1)
		}
	}
	next.UpdatedAt = now
	return next
}
