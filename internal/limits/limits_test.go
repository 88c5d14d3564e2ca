package limits

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInclusionClampIdempotent(t *testing.T) {
	l := New(0, 10, true, nil)
	assert.Equal(t, 10.0, l.Limit(15))
	assert.Equal(t, 10.0, l.Limit(l.Limit(15)))
	assert.Equal(t, 0.0, l.Limit(-5))
	assert.Equal(t, 5.0, l.Limit(5))
}

func TestInclusionNaNBoundsDisabled(t *testing.T) {
	l := New(math.NaN(), 10, true, nil)
	assert.Equal(t, -1000.0, l.Limit(-1000))
	assert.Equal(t, 10.0, l.Limit(1000))
}

func TestExclusionChoosesCloserBound(t *testing.T) {
	l := New(-1, 1, false, nil)
	assert.Equal(t, -1.0, l.Limit(-0.9))
	assert.Equal(t, 1.0, l.Limit(0.9))
	// tie -> min
	assert.Equal(t, -1.0, l.Limit(0))
	assert.Equal(t, 5.0, l.Limit(5)) // outside exclusion band, unchanged
}

func TestSublimitIsConjunctive(t *testing.T) {
	outer := New(-100, 100, true, nil)
	outer.SetSublimit(New(-10, -5, false, nil))
	assert.Equal(t, -5.0, outer.Limit(-7))
	assert.Equal(t, 100.0, outer.Limit(1000))
}

func TestLimitIntSaturates(t *testing.T) {
	l := New(0, 1e15, true, nil)
	assert.EqualValues(t, math.MaxInt32, l.LimitInt(1<<40))
}

func TestRegionMapCurrentLimitUnion(t *testing.T) {
	rm := NewRegionMap(nil, New(-1e-6, 1e-6, false, nil))
	rm.AddRegion(1, -10, -1, 0, 1)
	rm.AddRegion(2, 0, -0.5, 10, 0.5)

	lim := rm.GetCurrentLimit(0)
	assert.Equal(t, -1.0, lim.GetMin())
	assert.Equal(t, 1.0, lim.GetMax())
}

func TestRegionMapFindRegion(t *testing.T) {
	rm := NewRegionMap(nil, Default())
	rm.AddRegion(7, 0, 0, 10, 1)
	assert.EqualValues(t, 7, rm.FindRegion(5, 0.5))
	assert.EqualValues(t, -1, rm.FindRegion(50, 50))
}
