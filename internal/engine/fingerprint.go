package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"trade-journal/internal/basis"
	"trade-journal/internal/errors"
	"trade-journal/internal/models"
	"trade-journal/internal/sizing"
)

type fingerprintInput struct {
	Trades            []tradeInput `json:"trades"`
	Basis             basis.Basis  `json:"basis"`
	PortfolioSize     float64      `json:"portfolio_size"`
	UseLatestExitSize bool         `json:"use_latest_exit_size"`
	Sizes             []monthSize  `json:"sizes"`
	AsOf              monthSize    `json:"as_of"`
}

// tradeInput is a trade without its derived metrics, except the ones the
// user pinned.
type tradeInput struct {
	models.Trade
	Metrics *models.Metrics `json:"metrics,omitempty"`
}

type monthSize struct {
	Key  sizing.MonthKey `json:"key"`
	Size float64         `json:"size"`
}

// Fingerprint hashes everything a pass depends on apart from the day: the
// trades' source fields, the options, the resolved sizes of the months the
// trades touch and of the current month. Equal fingerprints mean Run returns
// equal results for the same day, so callers can memoize on it.
//
// Non-finite numbers cannot be hashed canonically and return ErrInvalidTrade.
func Fingerprint(trades []models.Trade, opts Options) (string, error) {
	opts = New(opts).opts
	sizes := sizing.NewResolver(opts.Sizes, opts.PortfolioSize)
	asOf := opts.Now()

	in := fingerprintInput{
		Basis:             opts.Basis,
		PortfolioSize:     opts.PortfolioSize,
		UseLatestExitSize: opts.UseLatestExitSize,
		AsOf:              monthSize{Key: sizing.KeyFor(asOf), Size: sizes.SizeAt(asOf)},
	}

	seen := make(map[sizing.MonthKey]bool)
	for _, t := range trades {
		ti := tradeInput{Trade: t}
		if len(t.Edited) > 0 {
			m := t.Metrics
			ti.Metrics = &models.Metrics{
				StopLossPercent:  m.StopLossPercent,
				HoldingDays:      m.HoldingDays,
				StockMovePercent: m.StockMovePercent,
			}
		}
		in.Trades = append(in.Trades, ti)

		dates := append([]models.Lot{{Date: t.Date}}, t.ExitLots()...)
		for _, l := range dates {
			if l.Date.IsZero() {
				continue
			}
			key := sizing.KeyFor(l.Date)
			if seen[key] {
				continue
			}
			seen[key] = true
			in.Sizes = append(in.Sizes, monthSize{Key: key, Size: sizes.SizeAt(l.Date)})
		}
	}

	data, err := json.Marshal(in)
	if err != nil {
		return "", errors.Wrapf(errors.ErrInvalidTrade, "fingerprint: %v", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
