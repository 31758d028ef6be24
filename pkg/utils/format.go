// Package utils provides shared numeric, calendar and formatting helpers.
package utils

import (
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no currency code is configured.
const DefaultCurrency = "USD"

// FormatMoney formats an amount in the given ISO currency, e.g. "$1,150.00".
func FormatMoney(amount float64, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "-"
	}
	// money.New never returns a nil currency, unknown codes get a generic formatter.
	cur := money.New(0, currency).Currency()
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, currency).Display()
}

// FormatPnL formats P&L with an explicit sign for gains.
func FormatPnL(pnl float64, currency string) string {
	formatted := FormatMoney(pnl, currency)
	if pnl > 0 {
		return "+" + formatted
	}
	return formatted
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatQuantity formats a quantity, dropping the fraction for whole numbers.
func FormatQuantity(qty float64) string {
	if qty == math.Trunc(qty) {
		return groupThousands(fmt.Sprintf("%.0f", qty))
	}
	return fmt.Sprintf("%.4f", qty)
}

// FormatRatio formats a reward:risk ratio, rendering risk-free ratios as "∞".
func FormatRatio(r float64) string {
	if math.IsInf(r, 1) {
		return "∞"
	}
	if math.IsNaN(r) {
		return "-"
	}
	return fmt.Sprintf("%.2fR", r)
}

// groupThousands inserts comma separators into an integer string.
func groupThousands(s string) string {
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	n := len(s)
	if n <= 3 {
		if negative {
			return "-" + s
		}
		return s
	}

	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if negative {
		return "-" + b.String()
	}
	return b.String()
}
