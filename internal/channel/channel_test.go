package channel

import (
	"testing"

	"github.com/jihwankim/scriptgend/internal/device"
	"github.com/jihwankim/scriptgend/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smuDevice(t *testing.T) *device.Device {
	t.Helper()
	reg := metadata.NewRegistry()
	inv := device.NewInventory(reg)
	inv.CreateDeviceList(device.SystemInfo{Systems: []device.System{{
		IsActive: true, LocalNode: "MP5103",
		Slots: []device.Slot{{SlotID: "slot[1]", Module: "MSMU60-2"}},
	}}})
	require.NotEmpty(t, inv.Devices)
	return inv.Devices[0]
}

func TestStepChannelClampsOutOfRangeStart(t *testing.T) {
	d := smuDevice(t)
	ch := NewStep("step1", d, 10)
	ch.Common.SourceFunction.Value = metadata.FunctionVoltage
	ch.Common.Evaluate()

	ch.StartStop.Start.Value = 9999
	ch.StartStop.Start.SetUnit(metadata.UnitVolts)
	ch.Evaluate()

	assert.Equal(t, 60.0, ch.StartStop.Start.Value)
	assert.Equal(t, metadata.UnitVolts, ch.StartStop.Start.UnitOrEmpty())
}

func TestLogStyleSameSidedFlip(t *testing.T) {
	d := smuDevice(t)
	ch := NewStep("step1", d, 10)
	ch.Common.SourceFunction.Value = metadata.FunctionVoltage
	ch.Common.Evaluate()

	ch.StartStop.Style.Value = metadata.StyleLog
	ch.StartStop.Start.Value = 0.001
	ch.StartStop.Start.SetUnit(metadata.UnitVolts)
	ch.StartStop.Stop.Value = -10
	ch.StartStop.Stop.SetUnit(metadata.UnitVolts)

	ch.Evaluate()

	assert.Greater(t, ch.StartStop.Stop.Value, 0.0)
	assert.Greater(t, ch.StartStop.Start.Value*ch.StartStop.Stop.Value, 0.0)
}

func TestSetPointsRegeneratesList(t *testing.T) {
	d := smuDevice(t)
	ch := NewSweep("sweep1", d, 3)
	require.Len(t, ch.StartStop.List, 3)
	assert.Equal(t, "list_0", ch.StartStop.List[0].ID)
	assert.Equal(t, "list_2", ch.StartStop.List[2].ID)

	ch.SetPoints(5)
	assert.Len(t, ch.StartStop.List, 5)
}

func TestBiasUnitMismatchResetsToZero(t *testing.T) {
	d := smuDevice(t)
	ch := NewBias("bias1", d)
	ch.Common.SourceFunction.Value = metadata.FunctionCurrent
	ch.Bias.Value = 5.0 // stale voltage-unit value

	ch.Evaluate()

	assert.Equal(t, metadata.UnitAmperes, ch.Bias.UnitOrEmpty())
	assert.Equal(t, 0.0, ch.Bias.Value)
}
