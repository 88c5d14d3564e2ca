package timing

import (
	"testing"

	"github.com/jihwankim/scriptgend/internal/metadata"
	"github.com/stretchr/testify/assert"
)

func TestValidateClampsExtremeValues(t *testing.T) {
	c := New()
	reg := metadata.NewRegistry()
	meta, _ := reg.Lookup("MSMU60-2")
	c.SetDefaults(meta)

	c.NPLC.Value = 1000
	c.MeasureCount.Value = 100000
	c.MeasureFilterEnable.Value = metadata.On
	c.MeasureFilterCount.Value = 5000

	c.Validate(0.0, 0.0, 60)

	assert.Equal(t, 25.0, c.NPLC.Value)
	assert.EqualValues(t, 60000, c.MeasureCount.Value)
	assert.EqualValues(t, 100, c.MeasureFilterCount.Value)
}

func TestMeasureFilterCountForcedToOneWhenDisabled(t *testing.T) {
	c := New()
	reg := metadata.NewRegistry()
	meta, _ := reg.Lookup("MSMU60-2")
	c.SetDefaults(meta)

	c.MeasureFilterEnable.Value = metadata.Off
	c.MeasureFilterCount.Value = 42

	c.Validate(0.0, 0.0, 60)

	assert.EqualValues(t, 1, c.MeasureFilterCount.Value)
}

func TestSourceDelayZeroedWhenNotUserDefined(t *testing.T) {
	c := New()
	reg := metadata.NewRegistry()
	meta, _ := reg.Lookup("MSMU60-2")
	c.SetDefaults(meta)

	c.SourceDelayType.Value = metadata.Auto
	c.SourceDelay.Value = 1.5

	c.Validate(0.0, 0.0, 60)

	assert.Equal(t, 0.0, c.SourceDelay.Value)
}

func TestCoupleTimingRaisesSweepTimePerPoint(t *testing.T) {
	c := New()
	reg := metadata.NewRegistry()
	meta, _ := reg.Lookup("MSMU60-2")
	c.SetDefaults(meta)

	c.NPLC.Value = 1.0
	c.MeasureCount.Value = 10

	sweepTime := c.Validate(0.0, 0.001, 60)
	assert.Greater(t, sweepTime, 0.0)
}
