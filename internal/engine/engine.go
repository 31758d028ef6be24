// Package engine runs the accounting pipeline over a snapshot of trades:
// per-trade metrics, the accounting-basis view, portfolio impact, the
// cumulative curve and the portfolio summary.
//
// A pass is synchronous and pure. It never mutates its input and never
// panics; a trade whose derivation fails gets zero-valued metrics and is
// reported in Result.Failures.
package engine

import (
	"time"

	"github.com/rs/zerolog"

	"trade-journal/internal/accounting"
	"trade-journal/internal/basis"
	"trade-journal/internal/logging"
	"trade-journal/internal/models"
	"trade-journal/internal/portfolio"
	"trade-journal/internal/sizing"
)

// Options configure a pass.
type Options struct {
	Basis basis.Basis
	// PortfolioSize is the fallback size for months the lookup does not know.
	PortfolioSize float64
	// Sizes resolves monthly portfolio sizes. Nil means PortfolioSize everywhere.
	Sizes             sizing.Lookup
	UseLatestExitSize bool
	// Now supplies "today" for open holding days. Defaults to time.Now.
	Now    func() time.Time
	Logger zerolog.Logger
}

// Engine computes passes with fixed options.
type Engine struct {
	opts Options
}

// Result is the output of one pass.
type Result struct {
	// Trades are copies of the input trades, in input order, with status and
	// metrics filled in.
	Trades []models.Trade
	// Records is the accounting view, open trades included.
	Records []basis.Record
	Summary portfolio.Summary
	// Failures lists per-trade compute errors, at most one per trade. Each is
	// a *errors.ComputeError.
	Failures []error
}

// New creates an engine. An empty basis means accrual.
func New(opts Options) *Engine {
	if opts.Basis == "" {
		opts.Basis = basis.Accrual
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sizes == nil {
		opts.Sizes = sizing.Constant(opts.PortfolioSize)
	}
	return &Engine{opts: opts}
}

// Run computes every trade and the portfolio roll-up.
func (e *Engine) Run(trades []models.Trade) Result {
	start := time.Now()
	logger := logging.WithOperation(e.opts.Logger, "engine_run")
	asOf := e.opts.Now()
	sizes := sizing.NewResolver(e.opts.Sizes, e.opts.PortfolioSize)
	bopts := basis.Options{UseLatestExitSize: e.opts.UseLatestExitSize}

	res := Result{Trades: make([]models.Trade, len(trades))}
	failed := make([]bool, len(trades))
	for i := range trades {
		t := trades[i].Clone()
		t.Status = accounting.ResolveStatus(&t)
		m, err := accounting.SafeMetrics(logger, &t, sizes.SizeAt(t.Date), asOf)
		if err != nil {
			res.Failures = append(res.Failures, err)
			failed[i] = true
		}
		t.Metrics = m
		res.Trades[i] = t
	}

	for i := range res.Trades {
		t := &res.Trades[i]
		recs, err := accounting.Guard(logger, t.ID, "basis", []basis.Record(nil), func() []basis.Record {
			return basis.Expand(t, e.opts.Basis, bopts, true)
		})
		if err != nil {
			// One failure per trade, whichever stage hit it first.
			if !failed[i] {
				res.Failures = append(res.Failures, err)
				failed[i] = true
			}
			continue
		}
		res.Records = append(res.Records, recs...)
	}

	basis.ApplyImpact(res.Records, sizes)
	portfolio.ApplyCumulative(res.Records)
	writeBack(res.Records, e.opts.Basis)

	res.Summary = portfolio.Aggregate(res.Records, sizes.SizeAt(asOf), e.opts.Basis)

	logging.LogPass(logger, string(e.opts.Basis), len(trades), len(res.Failures), time.Since(start))
	return res
}

// Compute is a one-shot Run with the given options.
func Compute(trades []models.Trade, opts Options) Result {
	return New(opts).Run(trades)
}

// writeBack copies view-level figures onto the trades. Under cash a trade's
// impact is the sum of its exit impacts. Every trade carries the cumulative
// figure of its chronologically last record.
func writeBack(records []basis.Record, b basis.Basis) {
	if b == basis.Cash {
		impact := make(map[*models.Trade]float64)
		for _, r := range records {
			if r.Split != nil {
				impact[r.Trade] += r.PortfolioImpact
			}
		}
		for t, v := range impact {
			t.Metrics.PortfolioImpact = v
		}
	} else {
		for _, r := range records {
			r.Trade.Metrics.PortfolioImpact = r.PortfolioImpact
		}
	}

	ordered := make([]basis.Record, len(records))
	copy(ordered, records)
	portfolio.SortRecords(ordered)
	for _, r := range ordered {
		r.Trade.Metrics.CumulativeImpact = r.CumulativeImpact
	}
}
