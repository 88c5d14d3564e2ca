package device

import (
	"testing"

	"github.com/jihwankim/scriptgend/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func s1Info() SystemInfo {
	return SystemInfo{Systems: []System{{
		Name: "local", IsActive: true, LocalNode: "MP5103",
		Slots: []Slot{
			{SlotID: "slot[1]", Module: "MSMU60-2"},
			{SlotID: "slot[2]", Module: "MSMU60-2"},
			{SlotID: "slot[3]", Module: "MPSU50-2ST"},
		},
	}}}
}

func TestCreateDeviceListS1(t *testing.T) {
	inv := NewInventory(metadata.NewRegistry())
	inv.CreateDeviceList(s1Info())
	require.Len(t, inv.Devices, 6)
	for _, d := range inv.Devices {
		assert.True(t, d.IsValid)
		assert.False(t, d.InUse)
	}
}

func TestUpdateForSlotChangeInvalidatesEmptiedSlot(t *testing.T) {
	inv := NewInventory(metadata.NewRegistry())
	inv.CreateDeviceList(s1Info())

	// mark a slot[2] device in-use so the error path is exercised
	for _, d := range inv.Devices {
		if d.SlotID == "slot[2]" && d.ChannelIdx == 1 {
			d.InUse = true
		}
	}

	changed := s1Info()
	changed.Systems[0].Slots[1].Module = "" // slot[2] goes empty

	result := inv.UpdateForSlotChange(changed)
	assert.Equal(t, StatusError, result.Status)

	for _, d := range inv.Devices {
		if d.SlotID == "slot[2]" {
			assert.False(t, d.IsValid)
		}
	}
}

func TestUpdateForSlotChangeRemovesUnusedInvalid(t *testing.T) {
	inv := NewInventory(metadata.NewRegistry())
	inv.CreateDeviceList(s1Info())

	changed := s1Info()
	changed.Systems[0].Slots[1].Module = ""
	inv.UpdateForSlotChange(changed)

	for _, d := range inv.Devices {
		assert.NotEqual(t, "slot[2]", d.SlotID)
	}
	assert.Len(t, inv.Devices, 4)
}
