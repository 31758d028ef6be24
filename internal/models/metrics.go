package models

import (
	"encoding/json"
	"math"
)

// Metrics are the values derived from a trade's source fields. They are
// recomputed on every edit and never set independently.
type Metrics struct {
	AverageEntryPrice float64 `json:"average_entry_price"`
	AverageExitPrice  float64 `json:"average_exit_price"`
	TotalQuantity     float64 `json:"total_quantity"`
	OpenQuantity      float64 `json:"open_quantity"`
	ExitedQuantity    float64 `json:"exited_quantity"`
	PositionSize      float64 `json:"position_size"`
	AllocationPercent float64 `json:"allocation_percent"`
	StopLossPercent   float64 `json:"stop_loss_percent"`
	StockMovePercent  float64 `json:"stock_move_percent"`

	HoldingDays       int `json:"holding_days"`
	OpenHoldingDays   int `json:"open_holding_days"`
	ClosedHoldingDays int `json:"closed_holding_days"`

	RewardRisk      RewardRisk `json:"reward_risk"`
	IsRiskyPosition bool       `json:"is_risky_position"`

	RealizedAmount   float64 `json:"realized_amount"`
	RealizedPL       float64 `json:"realized_pl"`
	UnrealizedPL     float64 `json:"unrealized_pl"`
	PortfolioImpact  float64 `json:"portfolio_impact"`
	CumulativeImpact float64 `json:"cumulative_impact"`
}

// RewardRisk holds both trade-level reward:risk ratios plus the per-lot detail.
type RewardRisk struct {
	// Weighted is the quantity-weighted mean of per-lot ratios, risk-free lots excluded.
	Weighted Ratio `json:"weighted"`
	// Effective is total weighted reward over total weighted risk of risky lots.
	Effective Ratio `json:"effective"`
	// RiskFree is true when every lot with a stop has zero risk.
	RiskFree bool            `json:"risk_free"`
	Lots     []LotRewardRisk `json:"lots,omitempty"`
}

// LotRewardRisk is the reward:risk of a single entry lot.
type LotRewardRisk struct {
	Ordinal  int     `json:"ordinal"`
	Quantity float64 `json:"quantity"`
	Stop     float64 `json:"stop"`
	Risk     float64 `json:"risk"`
	Reward   float64 `json:"reward"`
	Ratio    Ratio   `json:"ratio"`
	RiskFree bool    `json:"risk_free"`
}

// Ratio is a reward:risk value that may be +Inf for risk-free lots.
type Ratio float64

// RiskFreeRatio is the sentinel reported when risk is zero.
var RiskFreeRatio = Ratio(math.Inf(1))

// IsRiskFree reports whether the ratio is the risk-free sentinel.
func (r Ratio) IsRiskFree() bool {
	return math.IsInf(float64(r), 1)
}

// MarshalJSON encodes the risk-free sentinel as the string "inf".
func (r Ratio) MarshalJSON() ([]byte, error) {
	if r.IsRiskFree() {
		return []byte(`"inf"`), nil
	}
	if math.IsNaN(float64(r)) || math.IsInf(float64(r), -1) {
		return []byte("0"), nil
	}
	return json.Marshal(float64(r))
}

// UnmarshalJSON accepts a number or "inf".
func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == `"inf"` {
		*r = RiskFreeRatio
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}
