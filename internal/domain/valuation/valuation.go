// Package valuation scores trades for fairness and ranks candidates.
package valuation

import (
	"math"
	"sort"
	"strings"

	"github.com/okian/leaguelearn/internal/domain/model"
	"github.com/okian/leaguelearn/internal/domain/scoring"
	"github.com/okian/leaguelearn/internal/domain/tendency"
)

// LabelThresholds are the minimum fairness scores per label.
type LabelThresholds struct {
	Strong      float64
	Aggressive  float64
	Speculative float64
}

// DefaultLabelThresholds returns 0.90 / 0.75 / 0.55.
func DefaultLabelThresholds() LabelThresholds {
	return LabelThresholds{Strong: 0.90, Aggressive: 0.75, Speculative: 0.55}
}

// Label maps a fairness score to an acceptance label.
func (th LabelThresholds) Label(fairness float64) model.AcceptanceLabel {
	switch {
	case fairness >= th.Strong:
		return model.LabelStrong
	case fairness >= th.Aggressive:
		return model.LabelAggressive
	case fairness >= th.Speculative:
		return model.LabelSpeculative
	default:
		return model.LabelLongShot
	}
}

// Fairness is 1 - |give-receive| / max(give, receive), in [0, 1]. Two
// worthless sides score 0.
func Fairness(give, receive float64) float64 {
	hi := math.Max(give, receive)
	if hi <= 0 || math.IsNaN(hi) || math.IsInf(hi, 0) {
		return 0
	}
	return 1 - math.Abs(give-receive)/hi
}

// Option configures a Valuator.
type Option func(*Valuator)

// WithLabelThresholds overrides the label cut-offs.
func WithLabelThresholds(th LabelThresholds) Option {
	return func(v *Valuator) {
		v.labels = th
	}
}

// WithMaxPool caps how many of the user's assets BuildPackages combines.
func WithMaxPool(n int) Option {
	return func(v *Valuator) {
		if n > 0 {
			v.maxPool = n
		}
	}
}

// Valuator evaluates trades. It holds no mutable state.
type Valuator struct {
	scorer  scoring.Scorer
	labels  LabelThresholds
	maxPool int
}

// NewValuator creates a Valuator valuing assets with scorer.
func NewValuator(scorer scoring.Scorer, opts ...Option) *Valuator {
	v := &Valuator{
		scorer:  scorer,
		labels:  DefaultLabelThresholds(),
		maxPool: 12,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Evaluate values both sides and labels the trade.
func (v *Valuator) Evaluate(give, receive []model.Asset, weights model.WeightVector) model.TradeCandidate {
	return v.EvaluateAgainst(give, receive, weights, nil)
}

// EvaluateAgainst is Evaluate with an optional counterparty profile. A highly
// aggressive counterparty moves the label up one tier; a risk-averse one
// moves it down one tier.
func (v *Valuator) EvaluateAgainst(give, receive []model.Asset, weights model.WeightVector, counterparty *tendency.Profile) model.TradeCandidate {
	g := scoring.Total(v.scorer, give, weights)
	r := scoring.Total(v.scorer, receive, weights)
	fairness := Fairness(g, r)

	label := v.labels.Label(fairness)
	if counterparty != nil {
		shift := 0
		if counterparty.Aggression == tendency.High {
			shift++
		}
		if counterparty.RiskTolerance == tendency.Low {
			shift--
		}
		label = shiftLabel(label, shift)
	}

	return model.TradeCandidate{
		Give:            cloneAssets(give),
		Receive:         cloneAssets(receive),
		GiveValue:       g,
		ReceiveValue:    r,
		FairnessScore:   fairness,
		AcceptanceLabel: label,
	}
}

var labelsByRank = []model.AcceptanceLabel{
	model.LabelLongShot,
	model.LabelSpeculative,
	model.LabelAggressive,
	model.LabelStrong,
}

func shiftLabel(l model.AcceptanceLabel, shift int) model.AcceptanceLabel {
	rank := l.Rank()
	if rank == 0 || shift == 0 {
		return l
	}
	idx := rank - 1 + shift
	idx = max(0, min(len(labelsByRank)-1, idx))
	return labelsByRank[idx]
}

func cloneAssets(in []model.Asset) []model.Asset {
	if in == nil {
		return nil
	}
	out := make([]model.Asset, len(in))
	for i, a := range in {
		out[i] = a.Clone()
	}
	return out
}

// Less reports whether a ranks ahead of b: higher label rank, then higher
// fairness, then the smaller canonical asset signature.
func Less(a, b model.TradeCandidate) bool {
	if ra, rb := a.AcceptanceLabel.Rank(), b.AcceptanceLabel.Rank(); ra != rb {
		return ra > rb
	}
	if a.FairnessScore != b.FairnessScore {
		return a.FairnessScore > b.FairnessScore
	}
	return Signature(a) < Signature(b)
}

// Signature is a canonical, order-independent rendering of a candidate's assets.
func Signature(c model.TradeCandidate) string {
	return side(c.Give) + "|" + side(c.Receive)
}

func side(assets []model.Asset) string {
	keys := make([]string, len(assets))
	for i, a := range assets {
		keys[i] = string(a.Kind) + ":" + a.ID
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// Rank returns candidates in ranking order without modifying the input.
func Rank(candidates []model.TradeCandidate) []model.TradeCandidate {
	out := make([]model.TradeCandidate, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// SelectTopCandidate returns the best candidate. The pick depends only on
// the set of candidates, never their order. ok is false for no candidates.
func SelectTopCandidate(candidates []model.TradeCandidate) (model.TradeCandidate, bool) {
	if len(candidates) == 0 {
		return model.TradeCandidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if Less(c, best) {
			best = c
		}
	}
	return best, true
}

const headlineNames = 2

// FormatHeadline renders "Send: X, Y → Get: A, B" using at most two names
// per side.
func FormatHeadline(c model.TradeCandidate) string {
	return "Send: " + names(c.Give) + " → Get: " + names(c.Receive)
}

func names(assets []model.Asset) string {
	out := make([]string, 0, headlineNames)
	for _, a := range assets {
		if len(out) == headlineNames {
			break
		}
		if n := strings.TrimSpace(a.Name); n != "" {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return "assets"
	}
	return strings.Join(out, ", ")
}
