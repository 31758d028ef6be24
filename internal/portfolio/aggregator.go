package portfolio

import (
	"sort"

	"trade-journal/internal/accounting"
	"trade-journal/internal/basis"
	"trade-journal/internal/models"
	"trade-journal/pkg/utils"
)

// HeatContribution is one open position's share of open heat.
type HeatContribution struct {
	TradeID string  `json:"trade_id"`
	Symbol  string  `json:"symbol"`
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
	// Share is the fraction of total open heat, 0..1.
	Share float64 `json:"share"`
}

// Summary is the portfolio-level roll-up of one accounting view.
type Summary struct {
	Basis         basis.Basis `json:"basis"`
	PortfolioSize float64     `json:"portfolio_size"`

	TotalOpenHeat float64            `json:"total_open_heat"`
	HeatByTrade   []HeatContribution `json:"heat_by_trade,omitempty"`
	MaxHeatShare  float64            `json:"max_heat_share"`
	RiskFreeOpen  int                `json:"risk_free_open"`

	TotalInvested   float64 `json:"total_invested"`
	PercentInvested float64 `json:"percent_invested"`

	RealizedPL         float64 `json:"realized_pl"`
	UnrealizedPL       float64 `json:"unrealized_pl"`
	NetPL              float64 `json:"net_pl"`
	NetPortfolioImpact float64 `json:"net_portfolio_impact"`

	WinRate float64 `json:"win_rate"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`

	TradeCount   int `json:"trade_count"`
	OpenCount    int `json:"open_count"`
	PartialCount int `json:"partial_count"`
	ClosedCount  int `json:"closed_count"`
}

// Aggregate rolls a view into a Summary. records must come from
// basis.View with open trades included and impacts already applied;
// portfolioSize is the current portfolio size.
//
// Counts, exposure and unrealized P&L are taken over the deduplicated
// original trades so a trade with several exits counts once.
func Aggregate(records []basis.Record, portfolioSize float64, b basis.Basis) Summary {
	s := Summary{Basis: b, PortfolioSize: portfolioSize}

	var realizedImpact float64
	for _, r := range records {
		if !r.Realized() {
			continue
		}
		s.RealizedPL += r.PL
		realizedImpact += r.PortfolioImpact
	}

	for _, r := range basis.Deduplicate(records) {
		t := r.Trade
		s.TradeCount++
		switch t.Status {
		case models.StatusOpen:
			s.OpenCount++
		case models.StatusPartial:
			s.PartialCount++
		case models.StatusClosed:
			s.ClosedCount++
			continue
		}

		s.UnrealizedPL += t.Metrics.UnrealizedPL
		s.TotalInvested += InvestedAmount(t)
		if !t.Metrics.IsRiskyPosition {
			s.RiskFreeOpen++
		}

		if heat := HeatAmount(t); heat > 0 {
			s.TotalOpenHeat += heat
			s.HeatByTrade = append(s.HeatByTrade, HeatContribution{
				TradeID: t.ID,
				Symbol:  t.Symbol,
				Amount:  heat,
				Percent: utils.PercentOf(heat, portfolioSize),
			})
		}
	}

	applyConcentration(&s)
	s.TotalOpenHeat = utils.PercentOf(s.TotalOpenHeat, portfolioSize)
	s.PercentInvested = utils.PercentOf(s.TotalInvested, portfolioSize)
	s.NetPL = s.RealizedPL + s.UnrealizedPL
	s.NetPortfolioImpact = realizedImpact + utils.PercentOf(s.UnrealizedPL, portfolioSize)

	s.Wins, s.Losses = winLoss(records, b)
	if n := s.Wins + s.Losses; n > 0 {
		s.WinRate = float64(s.Wins) / float64(n) * 100
	}
	return s
}

// HeatAmount is the amount at risk on a trade's open quantity, measured from
// average entry to the heat stop. It is 0 without a stop or when the stop is
// on the wrong side of entry.
func HeatAmount(t *models.Trade) float64 {
	if t.Status == models.StatusClosed {
		return 0
	}
	stop := accounting.HeatStop(t.StopLoss, t.TrailingStop)
	return t.Metrics.OpenQuantity * accounting.RiskPerUnit(t.Direction, t.Metrics.AverageEntryPrice, stop)
}

// InvestedAmount is the capital still deployed in a trade: the full position
// size while open, the open quantity at average entry while partial.
func InvestedAmount(t *models.Trade) float64 {
	switch t.Status {
	case models.StatusOpen:
		return t.Metrics.PositionSize
	case models.StatusPartial:
		return t.Metrics.OpenQuantity * t.Metrics.AverageEntryPrice
	}
	return 0
}

func applyConcentration(s *Summary) {
	if s.TotalOpenHeat <= 0 {
		return
	}
	for i := range s.HeatByTrade {
		share := s.HeatByTrade[i].Amount / s.TotalOpenHeat
		s.HeatByTrade[i].Share = share
		if share > s.MaxHeatShare {
			s.MaxHeatShare = share
		}
	}
	sort.SliceStable(s.HeatByTrade, func(i, j int) bool {
		return s.HeatByTrade[i].Amount > s.HeatByTrade[j].Amount
	})
}

// winLoss counts winning and losing trades. Under accrual only closed trades
// are decided. Under cash each original trade with realized legs is decided
// once on the sum of its legs.
func winLoss(records []basis.Record, b basis.Basis) (wins, losses int) {
	if b == basis.Cash {
		var realized []basis.Record
		for _, r := range records {
			if r.Split != nil {
				realized = append(realized, r)
			}
		}
		for _, g := range basis.GroupByTrade(realized) {
			if g.PL > 0 {
				wins++
			} else {
				losses++
			}
		}
		return wins, losses
	}

	for _, r := range basis.Deduplicate(records) {
		if r.Trade.Status != models.StatusClosed {
			continue
		}
		if r.PL > 0 {
			wins++
		} else {
			losses++
		}
	}
	return wins, losses
}
