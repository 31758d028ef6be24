package models

import "time"

// Entry lot ordinals, in FIFO queue order.
const (
	EntryInitial = iota
	EntryPyramid1
	EntryPyramid2
)

// MaxLots is the number of entry and of exit lots a trade can carry.
const MaxLots = 3

// Trade is a journal trade record: source fields entered by the user plus
// the metrics derived from them.
type Trade struct {
	ID        string    `json:"id"`
	TradeNo   int       `json:"trade_no"`
	Date      time.Time `json:"date"`
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`

	// Entry is the initial fill; its date is the trade date.
	EntryPrice    float64 `json:"entry_price"`
	EntryQuantity float64 `json:"entry_quantity"`
	Pyramid1      Lot     `json:"pyramid1"`
	Pyramid2      Lot     `json:"pyramid2"`

	Exit1 Lot `json:"exit1"`
	Exit2 Lot `json:"exit2"`
	Exit3 Lot `json:"exit3"`

	StopLoss     float64 `json:"stop_loss"`
	TrailingStop float64 `json:"trailing_stop"`
	CurrentPrice float64 `json:"current_price"`

	Status PositionStatus `json:"status"`
	Edited FieldSet       `json:"edited_fields"`
	Notes  string         `json:"notes,omitempty"`

	Metrics Metrics `json:"metrics"`
}

// EntryLots returns the three entry lots in queue order: initial, pyramid 1,
// pyramid 2. Absent lots are returned zero-valued so ordinals stay stable.
// A pyramid without its own date is dated on the trade date.
func (t *Trade) EntryLots() []Lot {
	lots := []Lot{
		{Price: t.EntryPrice, Quantity: t.EntryQuantity, Date: t.Date},
		t.Pyramid1,
		t.Pyramid2,
	}
	for i := range lots {
		if lots[i].Date.IsZero() {
			lots[i].Date = t.Date
		}
	}
	return lots
}

// ExitLots returns the three exit lots in ordinal order.
func (t *Trade) ExitLots() []Lot {
	return []Lot{t.Exit1, t.Exit2, t.Exit3}
}

// TotalEntryQuantity sums valid entry lot quantities.
func (t *Trade) TotalEntryQuantity() float64 {
	return TotalQuantity(t.EntryLots())
}

// TotalExitQuantity sums valid exit lot quantities as entered, without clamping.
func (t *Trade) TotalExitQuantity() float64 {
	return TotalQuantity(t.ExitLots())
}

// LatestExitDate returns the most recent date among valid exits.
func (t *Trade) LatestExitDate() time.Time {
	var latest time.Time
	for _, l := range t.ExitLots() {
		if l.Valid() && l.Date.After(latest) {
			latest = l.Date
		}
	}
	return latest
}

// IsOpen reports whether the trade has no realized exits.
func (t *Trade) IsOpen() bool {
	return t.Status == StatusOpen
}

// Clone returns a deep copy of the trade.
func (t Trade) Clone() Trade {
	t.Edited = t.Edited.Clone()
	t.Metrics.RewardRisk.Lots = append([]LotRewardRisk(nil), t.Metrics.RewardRisk.Lots...)
	return t
}
