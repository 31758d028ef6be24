package accounting

import (
	"trade-journal/internal/models"
	"trade-journal/pkg/utils"
)

// DeriveStatus classifies a position from its entered and exited quantities.
func DeriveStatus(entered, exited float64) models.PositionStatus {
	switch {
	case exited <= utils.Epsilon:
		return models.StatusOpen
	case entered > 0 && exited >= entered-utils.Epsilon:
		return models.StatusClosed
	default:
		return models.StatusPartial
	}
}

// ResolveStatus returns the status the metrics should use: the user's pinned
// status when positionStatus was edited by hand, otherwise the derived one.
func ResolveStatus(t *models.Trade) models.PositionStatus {
	if t.Edited.Has(models.FieldPositionStatus) && t.Status.Valid() {
		return t.Status
	}
	entered := t.TotalEntryQuantity()
	exited := t.TotalExitQuantity()
	if exited > entered {
		exited = entered
	}
	return DeriveStatus(entered, exited)
}
