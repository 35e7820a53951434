// Package liquidity scores how active a league's trade market is.
package liquidity

import (
	"math"
	"time"

	"github.com/okian/leaguelearn/internal/domain/model"
	"github.com/okian/leaguelearn/pkg/metrics"
)

// Confidence expresses how reliable a score is, not how high it is.
type Confidence string

const (
	Learning Confidence = "LEARNING"
	Moderate Confidence = "MODERATE"
)

// NeutralScore is returned when no metrics are available.
const NeutralScore = 50

// Liquidity is a 0..100 score with its confidence tier.
type Liquidity struct {
	Score      int        `json:"score"`
	Confidence Confidence `json:"confidence"`
}

// Neutral is the result for missing metrics.
func Neutral() Liquidity {
	return Liquidity{Score: NeutralScore, Confidence: Learning}
}

// Settings holds the weighting triple, saturation points and confidence cut-off.
type Settings struct {
	TradeWeight         float64
	ParticipationWeight float64
	AssetsWeight        float64
	// TradeSaturation is the 30-day trade count at which the trade component maxes out.
	TradeSaturation float64
	// AssetsSaturation is the average assets per trade at which that component maxes out.
	AssetsSaturation float64
	// ConfidenceTrades is the 30-day trade count required for MODERATE.
	ConfidenceTrades int
	// Window is the activity look-back used by FromActivity.
	Window time.Duration
}

// DefaultSettings returns 0.4/0.3/0.3 weights saturating at 20 trades and 5 assets.
func DefaultSettings() Settings {
	return Settings{
		TradeWeight:         0.4,
		ParticipationWeight: 0.3,
		AssetsWeight:        0.3,
		TradeSaturation:     20,
		AssetsSaturation:    5,
		ConfidenceTrades:    10,
		Window:              30 * 24 * time.Hour,
	}
}

// Scorer computes liquidity. It is safe for concurrent use.
type Scorer struct {
	s Settings
}

// New creates a Scorer.
func New(s Settings) Scorer {
	if s.Window <= 0 {
		s.Window = DefaultSettings().Window
	}
	return Scorer{s: s}
}

// Compute scores m. A nil m yields the neutral {50, LEARNING}.
func (sc Scorer) Compute(m *model.LiquidityMetrics) Liquidity {
	out := sc.compute(m)
	metrics.RecordLiquidity(string(out.Confidence))
	return out
}

func (sc Scorer) compute(m *model.LiquidityMetrics) Liquidity {
	if m == nil {
		return Neutral()
	}

	participation := 0.5
	if m.TotalManagers > 0 {
		participation = clamp(float64(m.ActiveManagers)/float64(m.TotalManagers), 0, 1)
	}

	raw := sc.s.TradeWeight*saturate(float64(m.TradesLast30), sc.s.TradeSaturation) +
		sc.s.ParticipationWeight*participation +
		sc.s.AssetsWeight*saturate(m.AvgAssetsPerTrade, sc.s.AssetsSaturation)

	score := int(clamp(math.Round(100*raw), 0, 100))

	confidence := Learning
	if m.TradesLast30 >= sc.s.ConfidenceTrades && m.TotalManagers > 0 {
		confidence = Moderate
	}
	return Liquidity{Score: score, Confidence: confidence}
}

// FromActivity derives metrics from completed trades inside the look-back
// window ending at now. Managers are active if they took part in any of
// those trades.
func (sc Scorer) FromActivity(trades []model.TradeActivity, totalManagers int, now time.Time) model.LiquidityMetrics {
	since := now.Add(-sc.s.Window)
	active := make(map[string]struct{})
	var count, assets int
	for _, tr := range trades {
		if !tr.CompletedAt.After(since) || tr.CompletedAt.After(now) {
			continue
		}
		count++
		assets += tr.AssetCount
		for _, id := range tr.ManagerIDs {
			if id != "" {
				active[id] = struct{}{}
			}
		}
	}

	m := model.LiquidityMetrics{
		TradesLast30:   count,
		ActiveManagers: len(active),
		TotalManagers:  totalManagers,
	}
	if m.TotalManagers < m.ActiveManagers {
		m.TotalManagers = m.ActiveManagers
	}
	if count > 0 {
		m.AvgAssetsPerTrade = float64(assets) / float64(count)
	}
	return m
}

func saturate(v, at float64) float64 {
	if at <= 0 {
		return 0
	}
	return math.Min(1, v/at)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
