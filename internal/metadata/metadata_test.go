package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()

	smu, ok := r.Lookup("MSMU60-2")
	require.True(t, ok)
	assert.Equal(t, KindSMU, smu.Kind())

	min, max, ok := smu.Range("source.levelv")
	require.True(t, ok)
	assert.Equal(t, -60.0, min)
	assert.Equal(t, 60.0, max)

	def, ok := smu.Default("source_meas.range.defaultv")
	require.True(t, ok)
	assert.Equal(t, "AUTO", def)

	_, ok = r.Lookup("unknown")
	assert.False(t, ok)
}

func TestModelKind(t *testing.T) {
	assert.Equal(t, KindMainframe, ModelKind("MP5103"))
	assert.Equal(t, KindSMU, ModelKind("MSMU60-2"))
	assert.Equal(t, KindPSU, ModelKind("MPSU50-2ST"))
	assert.Equal(t, KindUnknown, ModelKind("nope"))
}

func TestPSURanges(t *testing.T) {
	r := NewRegistry()
	psu, ok := r.Lookup("MPSU50-2ST")
	require.True(t, ok)

	opts, ok := psu.Option("source_meas.rangev")
	require.True(t, ok)
	assert.Equal(t, []string{"AUTO", "50 V"}, opts)
}
