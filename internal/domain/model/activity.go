package model

import "time"

// ManagerTendency summarizes a manager's trading history.
type ManagerTendency struct {
	ManagerID       string    `json:"manager_id"`
	LeaguesPlayed   int       `json:"leagues_played"`
	TradesSent      int       `json:"trades_sent"`
	TradesAccepted  int       `json:"trades_accepted"`
	AvgOverpayRatio float64   `json:"avg_overpay_ratio"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// LiquidityMetrics is league trade activity feeding the liquidity score.
type LiquidityMetrics struct {
	TradesLast30      int     `json:"trades_last_30"`
	ActiveManagers    int     `json:"active_managers"`
	TotalManagers     int     `json:"total_managers"`
	AvgAssetsPerTrade float64 `json:"avg_assets_per_trade"`
}

// TradeActivity is one completed trade as reported by the league feed.
type TradeActivity struct {
	ID          string    `json:"id"`
	ManagerIDs  []string  `json:"manager_ids"`
	AssetCount  int       `json:"asset_count"`
	CompletedAt time.Time `json:"completed_at"`
}
