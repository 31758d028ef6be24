package engine

import (
	"trade-journal/internal/errors"
	"trade-journal/internal/models"
	"trade-journal/pkg/utils"
)

// Validate checks a trade before it is persisted. The engine itself accepts
// malformed trades and degrades their metrics; Validate is for callers that
// want to reject bad input up front.
func Validate(t *models.Trade) error {
	var errs []error

	if t.Symbol == "" {
		errs = append(errs, errors.NewValidationError("symbol", t.Symbol, "required"))
	}
	if !t.Direction.Valid() {
		errs = append(errs, errors.NewValidationError("direction", t.Direction, "must be LONG or SHORT"))
	}
	if t.Date.IsZero() {
		errs = append(errs, errors.NewValidationError("date", t.Date, "required"))
	}
	if t.EntryPrice <= 0 || t.EntryQuantity <= 0 {
		errs = append(errs, errors.NewValidationError("entry", t.EntryPrice, "initial entry needs a positive price and quantity"))
	}
	if t.Status != "" && !t.Status.Valid() {
		errs = append(errs, errors.NewValidationError("status", t.Status, "unknown position status"))
	}

	for i, l := range append(t.EntryLots()[1:], t.ExitLots()...) {
		if l.Price < 0 || l.Quantity < 0 {
			errs = append(errs, errors.NewValidationError("lot", i+1, "negative price or quantity"))
		}
	}
	stops := []struct {
		field models.Field
		value float64
	}{
		{models.FieldStopLoss, t.StopLoss},
		{models.FieldTrailingStop, t.TrailingStop},
		{models.FieldCurrentPrice, t.CurrentPrice},
	}
	for _, s := range stops {
		if s.value < 0 {
			errs = append(errs, errors.NewValidationError(string(s.field), s.value, "must not be negative"))
		}
	}

	entered, exited := t.TotalEntryQuantity(), t.TotalExitQuantity()
	if exited > entered+utils.Epsilon {
		errs = append(errs, errors.Wrapf(errors.ErrOverExit, "exited %s of %s",
			utils.FormatQuantity(exited), utils.FormatQuantity(entered)))
	}

	return errors.Join(errs...)
}
