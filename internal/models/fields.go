package models

import (
	"encoding/json"
	"sort"
)

// Field names a trade field the user can edit.
type Field string

const (
	FieldDate           Field = "date"
	FieldSymbol         Field = "symbol"
	FieldDirection      Field = "direction"
	FieldEntryPrice     Field = "entryPrice"
	FieldEntryQuantity  Field = "entryQuantity"
	FieldPyramid1Price  Field = "pyramid1Price"
	FieldPyramid1Qty    Field = "pyramid1Quantity"
	FieldPyramid1Date   Field = "pyramid1Date"
	FieldPyramid2Price  Field = "pyramid2Price"
	FieldPyramid2Qty    Field = "pyramid2Quantity"
	FieldPyramid2Date   Field = "pyramid2Date"
	FieldExit1Price     Field = "exit1Price"
	FieldExit1Qty       Field = "exit1Quantity"
	FieldExit1Date      Field = "exit1Date"
	FieldExit2Price     Field = "exit2Price"
	FieldExit2Qty       Field = "exit2Quantity"
	FieldExit2Date      Field = "exit2Date"
	FieldExit3Price     Field = "exit3Price"
	FieldExit3Qty       Field = "exit3Quantity"
	FieldExit3Date      Field = "exit3Date"
	FieldStopLoss       Field = "stopLoss"
	FieldTrailingStop   Field = "trailingStop"
	FieldCurrentPrice   Field = "currentPrice"
	FieldPositionStatus Field = "positionStatus"

	// Derived fields the user may pin to a manual value.
	FieldStopLossPercent Field = "stopLossPercent"
	FieldHoldingDays     Field = "holdingDays"
	FieldStockMove       Field = "stockMove"
)

// FieldSet is the set of fields the user has edited by hand. Recalculation
// never overwrites a field in this set.
type FieldSet map[Field]struct{}

// Has reports whether f was edited by the user.
func (s FieldSet) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

// Clone copies the set.
func (s FieldSet) Clone() FieldSet {
	if s == nil {
		return nil
	}
	out := make(FieldSet, len(s))
	for f := range s {
		out[f] = struct{}{}
	}
	return out
}

// Sorted returns the field names in lexical order.
func (s FieldSet) Sorted() []Field {
	out := make([]Field, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON encodes the set as a sorted list.
func (s FieldSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a list of field names.
func (s *FieldSet) UnmarshalJSON(data []byte) error {
	var fields []Field
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	set := make(FieldSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	*s = set
	return nil
}

// NewFieldSet builds a set from field names.
func NewFieldSet(fields ...Field) FieldSet {
	set := make(FieldSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
