package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntClamp(t *testing.T) {
	p := NewInt("measure_count", 100000)
	p.Clamp(1, 60000)
	assert.EqualValues(t, 60000, p.Value)

	p.Value = -5
	p.Clamp(1, 60000)
	assert.EqualValues(t, 1, p.Value)

	p.Value = 42
	p.Clamp(1, 60000)
	assert.EqualValues(t, 42, p.Value)
}

func TestFloatClampIdempotent(t *testing.T) {
	f := NewFloat("nplc", 1000, "")
	f.Clamp(1e-3, 25)
	first := f.Value
	f.Clamp(1e-3, 25)
	assert.Equal(t, first, f.Value)
	assert.InDelta(t, 25, f.Value, 1e-12)
}

func TestFloatUnit(t *testing.T) {
	f := NewFloat("start", 0, "")
	require.Empty(t, f.UnitOrEmpty())
	f.SetUnit("V")
	assert.Equal(t, "V", f.UnitOrEmpty())
}

func TestStringInRange(t *testing.T) {
	s := NewString("source_meas.rangev")
	s.Range = []string{"AUTO", "60 V"}
	s.Value = "60 V"
	assert.True(t, s.InRange())
	s.Value = "600 V"
	assert.False(t, s.InRange())
}
