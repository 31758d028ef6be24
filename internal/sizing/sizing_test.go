package sizing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolver_FallsBackForUnknownMonths(t *testing.T) {
	lookup := FromMap(map[MonthKey]float64{
		{Month: "Jan", Year: 2024}: 20000,
		{Month: "Feb", Year: 2024}: -1,
	})
	r := NewResolver(lookup, 10000)

	assert.Equal(t, 20000.0, r.SizeAt(time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 10000.0, r.SizeAt(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 10000.0, r.SizeAt(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 10000.0, r.SizeAt(time.Time{}))
	assert.Equal(t, 10000.0, NewResolver(nil, 10000).SizeAt(time.Now()))
}

func TestResolver_MemoizesWithinAPass(t *testing.T) {
	calls := 0
	r := NewResolver(func(month string, year int) float64 {
		calls++
		return 5000
	}, 1)

	d := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	r.SizeAt(d)
	r.SizeAt(d.AddDate(0, 0, 10))
	assert.Equal(t, 1, calls)

	r.SizeAt(d.AddDate(0, 1, 0))
	assert.Equal(t, 2, calls)
}

func TestConstant(t *testing.T) {
	assert.Equal(t, 7.0, Constant(7)("Dec", 1999))
}
