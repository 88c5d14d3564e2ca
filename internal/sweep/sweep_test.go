package sweep

import (
	"testing"

	"github.com/jihwankim/scriptgend/internal/channel"
	"github.com/jihwankim/scriptgend/internal/device"
	"github.com/jihwankim/scriptgend/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func s1Info() device.SystemInfo {
	return device.SystemInfo{Systems: []device.System{{
		IsActive: true, LocalNode: "MP5103",
		Slots: []device.Slot{
			{SlotID: "slot[1]", Module: "MSMU60-2"},
			{SlotID: "slot[2]", Module: "MSMU60-2"},
			{SlotID: "slot[3]", Module: "MPSU50-2ST"},
		},
	}}}
}

func TestIngestSystemInfoAutoConfigures(t *testing.T) {
	cfg := New(metadata.NewRegistry())
	cfg.IngestSystemInfo(s1Info())

	require.Len(t, cfg.StepChannels, 1)
	require.Len(t, cfg.SweepChannels, 1)
	require.Len(t, cfg.BiasChannels, 1)
	assert.Equal(t, "step1", cfg.StepChannels[0].Common.ChanName)
	assert.Equal(t, "sweep1", cfg.SweepChannels[0].Common.ChanName)
	assert.Equal(t, "bias1", cfg.BiasChannels[0].Common.ChanName)

	inUse := 0
	for _, d := range cfg.Inventory.Devices {
		if d.InUse {
			inUse++
		}
	}
	assert.Equal(t, 3, inUse)
}

func TestAddChannelWarnsWhenNoFreeDevice(t *testing.T) {
	cfg := New(metadata.NewRegistry())
	cfg.Inventory.CreateDeviceList(device.SystemInfo{Systems: []device.System{{
		IsActive: true, LocalNode: "MP5103",
		Slots: []device.Slot{{SlotID: "slot[1]", Module: "MPSU50-2ST"}},
	}}})

	cfg.AddChannel(channel.Bias)
	cfg.AddChannel(channel.Bias)
	cfg.AddChannel(channel.Bias) // exhausts the 2 devices

	require.NotNil(t, cfg.Status)
	assert.Equal(t, StatusWarning, cfg.Status.Kind)
}

func TestRemoveChannelRetainsChannelReference(t *testing.T) {
	cfg := New(metadata.NewRegistry())
	cfg.IngestSystemInfo(s1Info())

	biasDeviceID := cfg.BiasChannels[0].Common.DeviceID
	cfg.RemoveChannel(biasDeviceID)

	require.Len(t, cfg.BiasChannels, 1, "channel is retained by reference after remove")
	d := cfg.Inventory.ByID(biasDeviceID)
	require.NotNil(t, d)
	assert.False(t, d.InUse)
}

func TestUpdateChannelPreservesUUIDAndName(t *testing.T) {
	cfg := New(metadata.NewRegistry())
	cfg.IngestSystemInfo(s1Info())

	oldID := cfg.BiasChannels[0].Common.DeviceID
	oldUUID := cfg.BiasChannels[0].Common.UUID
	oldName := cfg.BiasChannels[0].Common.ChanName

	newDevice := cfg.Inventory.FirstFree()
	require.NotNil(t, newDevice)

	cfg.UpdateChannel(channel.Bias, oldID, newDevice.ID)

	assert.Equal(t, newDevice.ID, cfg.BiasChannels[0].Common.DeviceID)
	assert.Equal(t, oldUUID, cfg.BiasChannels[0].Common.UUID)
	assert.Equal(t, oldName, cfg.BiasChannels[0].Common.ChanName)
	assert.True(t, newDevice.InUse)
}

func TestEvaluateClampsGlobalPoints(t *testing.T) {
	cfg := New(metadata.NewRegistry())
	cfg.IngestSystemInfo(s1Info())

	cfg.StepGlobalParameters.StepPoints.Value = 999999
	cfg.SweepGlobalParameters.SweepPoints.Value = 0
	cfg.GlobalParameters.TimingConfig.MeasureCount.Value = -5

	cfg.Evaluate()

	assert.EqualValues(t, 60000, cfg.StepGlobalParameters.StepPoints.Value)
	assert.EqualValues(t, 1, cfg.SweepGlobalParameters.SweepPoints.Value)
	assert.EqualValues(t, 1, cfg.GlobalParameters.TimingConfig.MeasureCount.Value)
}
