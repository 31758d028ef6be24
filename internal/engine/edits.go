package engine

import (
	"time"

	"trade-journal/internal/errors"
	"trade-journal/internal/models"
)

// Edit sets one source field of a trade. Only the value matching the
// field's kind is read.
type Edit struct {
	Field     models.Field
	Number    float64
	Text      string
	Date      time.Time
	Status    models.PositionStatus
	Direction models.Direction
}

// NumberEdit edits a numeric field.
func NumberEdit(f models.Field, v float64) Edit { return Edit{Field: f, Number: v} }

// DateEdit edits a date field.
func DateEdit(f models.Field, d time.Time) Edit { return Edit{Field: f, Date: d} }

// StatusEdit pins the position status.
func StatusEdit(s models.PositionStatus) Edit {
	return Edit{Field: models.FieldPositionStatus, Status: s}
}

// ApplyEdits applies edits to t in order and records each edited field in
// t.Edited. It is the only place source fields and the edited set change.
// Edits are applied to a copy first, so t is untouched when one fails.
func ApplyEdits(t *models.Trade, edits ...Edit) error {
	next := t.Clone()
	if next.Edited == nil {
		next.Edited = models.NewFieldSet()
	}
	for _, e := range edits {
		if err := applyEdit(&next, e); err != nil {
			return err
		}
		next.Edited[e.Field] = struct{}{}
	}
	*t = next
	return nil
}

func applyEdit(t *models.Trade, e Edit) error {
	if num := numberField(t, e.Field); num != nil {
		*num = e.Number
		return nil
	}
	if date := dateField(t, e.Field); date != nil {
		*date = e.Date
		return nil
	}

	switch e.Field {
	case models.FieldSymbol:
		t.Symbol = e.Text
	case models.FieldDirection:
		if !e.Direction.Valid() {
			return errors.NewValidationError(string(e.Field), e.Direction, "must be LONG or SHORT")
		}
		t.Direction = e.Direction
	case models.FieldPositionStatus:
		if !e.Status.Valid() {
			return errors.NewValidationError(string(e.Field), e.Status, "must be Open, Partial or Closed")
		}
		t.Status = e.Status
	case models.FieldStopLossPercent:
		t.Metrics.StopLossPercent = e.Number
	case models.FieldHoldingDays:
		t.Metrics.HoldingDays = int(e.Number)
	case models.FieldStockMove:
		t.Metrics.StockMovePercent = e.Number
	default:
		return errors.Wrapf(errors.ErrUnknownField, "%q", e.Field)
	}
	return nil
}

func numberField(t *models.Trade, f models.Field) *float64 {
	switch f {
	case models.FieldEntryPrice:
		return &t.EntryPrice
	case models.FieldEntryQuantity:
		return &t.EntryQuantity
	case models.FieldPyramid1Price:
		return &t.Pyramid1.Price
	case models.FieldPyramid1Qty:
		return &t.Pyramid1.Quantity
	case models.FieldPyramid2Price:
		return &t.Pyramid2.Price
	case models.FieldPyramid2Qty:
		return &t.Pyramid2.Quantity
	case models.FieldExit1Price:
		return &t.Exit1.Price
	case models.FieldExit1Qty:
		return &t.Exit1.Quantity
	case models.FieldExit2Price:
		return &t.Exit2.Price
	case models.FieldExit2Qty:
		return &t.Exit2.Quantity
	case models.FieldExit3Price:
		return &t.Exit3.Price
	case models.FieldExit3Qty:
		return &t.Exit3.Quantity
	case models.FieldStopLoss:
		return &t.StopLoss
	case models.FieldTrailingStop:
		return &t.TrailingStop
	case models.FieldCurrentPrice:
		return &t.CurrentPrice
	}
	return nil
}

func dateField(t *models.Trade, f models.Field) *time.Time {
	switch f {
	case models.FieldDate:
		return &t.Date
	case models.FieldPyramid1Date:
		return &t.Pyramid1.Date
	case models.FieldPyramid2Date:
		return &t.Pyramid2.Date
	case models.FieldExit1Date:
		return &t.Exit1.Date
	case models.FieldExit2Date:
		return &t.Exit2.Date
	case models.FieldExit3Date:
		return &t.Exit3.Date
	}
	return nil
}

// UnpinStatus drops a manual status so it is derived again from quantities.
func UnpinStatus(t *models.Trade) {
	delete(t.Edited, models.FieldPositionStatus)
}
