// Package config defines engine configuration and its loading layers.
//
// Conventions:
//   - Every tunable the engine exposes lives here with its default.
//   - New(...) returns defaults; Load(ctx) layers files and env on top.
//   - Validation errors wrap ErrInvalidConfig.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// BlendWindow is the number of most recent seasons blended into effective weights.
	BlendWindow int `koanf:"blend_window"`
	// BlendMode is the recency bias: linear or exponential.
	BlendMode string `koanf:"blend_mode"`

	// Liquidity score weighting triple and saturation points.
	LiquidityTradeWeight         float64 `koanf:"liquidity_trade_weight"`
	LiquidityParticipationWeight float64 `koanf:"liquidity_participation_weight"`
	LiquidityAssetsWeight        float64 `koanf:"liquidity_assets_weight"`
	LiquidityTradeSaturation     float64 `koanf:"liquidity_trade_saturation"`
	LiquidityAssetsSaturation    float64 `koanf:"liquidity_assets_saturation"`
	// LiquidityConfidenceTrades is the 30-day trade count required for MODERATE confidence.
	LiquidityConfidenceTrades int `koanf:"liquidity_confidence_trades"`

	// Aggression thresholds on trades sent.
	AggressionHighTrades     int     `koanf:"aggression_high_trades"`
	AggressionAltHighTrades  int     `koanf:"aggression_alt_high_trades"`
	AggressionAltAcceptRatio float64 `koanf:"aggression_alt_accept_ratio"`
	AggressionMediumTrades   int     `koanf:"aggression_medium_trades"`
	RiskHighOverpayRatio     float64 `koanf:"risk_high_overpay_ratio"`
	RiskLowOverpayRatio      float64 `koanf:"risk_low_overpay_ratio"`

	// Recalibration.
	MinFeedback            int           `koanf:"min_feedback"`
	LearningRate           float64       `koanf:"learning_rate"`
	MinWeight              float64       `koanf:"min_weight"`
	MaxWeight              float64       `koanf:"max_weight"`
	RecalibrationTimeout   time.Duration `koanf:"recalibration_timeout"`
	RecalibrationInterval  time.Duration `koanf:"recalibration_interval"`
	RecalibrationQueueSize int           `koanf:"recalibration_queue_size"`
	RecalibrationWorkers   int           `koanf:"recalibration_workers"`
	JobStatusTTL           time.Duration `koanf:"job_status_ttl"`
	// SeasonStartMonth is the calendar month a new season begins, used by the scheduler.
	SeasonStartMonth int `koanf:"season_start_month"`

	// Storage.
	StorageBackend  string        `koanf:"storage_backend"`
	SnapshotBackend string        `koanf:"snapshot_backend"`
	PostgresDSN     string        `koanf:"postgres_dsn"`
	QueryTimeout    time.Duration `koanf:"query_timeout"`
	RedisAddr       string        `koanf:"redis_addr"`
	RedisTimeout    time.Duration `koanf:"redis_timeout"`

	// League import.
	ImportBaseURL string        `koanf:"import_base_url"`
	ImportTimeout time.Duration `koanf:"import_timeout"`
	ImportRPS     float64       `koanf:"import_rps"`
	ImportBurst   int           `koanf:"import_burst"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Addr:      ":9080",

		BlendWindow: 3,
		BlendMode:   "linear",

		LiquidityTradeWeight:         0.4,
		LiquidityParticipationWeight: 0.3,
		LiquidityAssetsWeight:        0.3,
		LiquidityTradeSaturation:     20,
		LiquidityAssetsSaturation:    5,
		LiquidityConfidenceTrades:    10,

		AggressionHighTrades:     8,
		AggressionAltHighTrades:  5,
		AggressionAltAcceptRatio: 0.6,
		AggressionMediumTrades:   3,
		RiskHighOverpayRatio:     1.12,
		RiskLowOverpayRatio:      0.95,

		MinFeedback:            25,
		LearningRate:           0.25,
		MinWeight:              0.05,
		MaxWeight:              5,
		RecalibrationTimeout:   10 * time.Minute,
		RecalibrationInterval:  7 * 24 * time.Hour,
		RecalibrationQueueSize: 16,
		RecalibrationWorkers:   1,
		JobStatusTTL:           24 * time.Hour,
		SeasonStartMonth:       9,

		StorageBackend:  "memory",
		SnapshotBackend: "memory",
		QueryTimeout:    5 * time.Second,
		RedisTimeout:    500 * time.Millisecond,

		ImportTimeout: 3 * time.Second,
		ImportRPS:     5,
		ImportBurst:   10,
	}
}
