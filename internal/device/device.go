// Package device implements the device inventory: canonical device
// identities derived from an inbound system-info document, reconciled
// against slot/module changes across re-ingestion.
package device

import (
	"fmt"

	"github.com/jihwankim/scriptgend/internal/metadata"
)

// SystemInfo is the wire shape of the system-info document (spec.md §6,
// camelCase on the wire).
type SystemInfo struct {
	Systems []System `json:"systems"`
}

// System describes one active (or inactive) system: its own local slots,
// plus optionally a set of remote nodes each with their own slots.
type System struct {
	Name      string  `json:"name"`
	IsActive  bool    `json:"isActive"`
	LocalNode string  `json:"localNode"`
	Slots     []Slot  `json:"slots,omitempty"`
	Nodes     []Node  `json:"nodes,omitempty"`
}

// Slot is one physical module slot: its id and the module model installed.
type Slot struct {
	SlotID string `json:"slotId"`
	Module string `json:"module"`
}

// Node is a remote mainframe: its node id, mainframe model, and slots.
type Node struct {
	NodeID    string `json:"nodeId"`
	Mainframe string `json:"mainframe"`
	Slots     []Slot `json:"slots,omitempty"`
}

// Device is one physical SMU/PSU channel: `<nodeId>.slot[<n>].ch<k>`.
type Device struct {
	ID          string          `json:"id"`
	NodeID      string          `json:"node_id"`
	Mainframe   string          `json:"mainframe"`
	SlotID      string          `json:"slot_id"`
	Module      string          `json:"module"`
	ChannelIdx  int             `json:"channel_idx"`
	IsValid     bool            `json:"is_valid"`
	InUse       bool            `json:"in_use"`
	metadataRef *metadata.Entry `json:"-"`
}

// Metadata returns the catalog entry matching this device's module, or nil
// if the module is not in the registry (KindUnknown).
func (d *Device) Metadata() *metadata.Entry { return d.metadataRef }

func deviceID(nodeID, slotID string, channel int) string {
	return fmt.Sprintf("%s.%s.ch%d", nodeID, slotID, channel)
}

// Inventory is the reconciled set of devices for one sweep configuration.
type Inventory struct {
	registry *metadata.Registry
	Devices  []*Device `json:"devices"`
}

// NewInventory constructs an empty inventory bound to the metadata registry.
func NewInventory(registry *metadata.Registry) *Inventory {
	return &Inventory{registry: registry}
}

// flatSlots collects (nodeID, mainframe, slots) triples for every local and
// remote node in an active system, skipping inactive systems. It does not
// filter by mainframe model: CreateDeviceList and UpdateForSlotChange skip
// non-MP5103 groups themselves when creating devices.
func flatSlots(info SystemInfo) []struct {
	nodeID    string
	mainframe string
	slots     []Slot
} {
	var out []struct {
		nodeID    string
		mainframe string
		slots     []Slot
	}
	for _, sys := range info.Systems {
		if !sys.IsActive {
			continue
		}
		if len(sys.Slots) > 0 {
			out = append(out, struct {
				nodeID    string
				mainframe string
				slots     []Slot
			}{nodeID: sys.LocalNode, mainframe: sys.LocalNode, slots: sys.Slots})
		}
		for _, n := range sys.Nodes {
			out = append(out, struct {
				nodeID    string
				mainframe string
				slots     []Slot
			}{nodeID: n.NodeID, mainframe: n.Mainframe, slots: n.Slots})
		}
	}
	return out
}

// CreateDeviceList ingests a system-info document for the first time,
// creating two channel devices (ch1, ch2) per non-empty slot of an MP5103
// mainframe.
func (inv *Inventory) CreateDeviceList(info SystemInfo) {
	inv.Devices = nil
	for _, group := range flatSlots(info) {
		if metadata.ModelKind(group.mainframe) != metadata.KindMainframe {
			continue
		}
		for _, slot := range group.slots {
			if slot.Module == "" {
				continue
			}
			for ch := 1; ch <= 2; ch++ {
				d := &Device{
					ID:         deviceID(group.nodeID, slot.SlotID, ch),
					NodeID:     group.nodeID,
					Mainframe:  group.mainframe,
					SlotID:     slot.SlotID,
					Module:     slot.Module,
					ChannelIdx: ch,
					IsValid:    true,
					InUse:      false,
				}
				d.metadataRef, _ = inv.registry.Lookup(slot.Module)
				inv.Devices = append(inv.Devices, d)
			}
		}
	}
}

// StatusLevel mirrors spec.md §3's status message kind.
type StatusLevel int

const (
	StatusNone StatusLevel = iota
	StatusInfo
	StatusWarning
	StatusError
)

// UpdateResult carries the reconciliation outcome of UpdateForSlotChange:
// the status level to surface, and any device whose id was rewritten
// (old id -> new id), which channels must follow.
type UpdateResult struct {
	Status     StatusLevel
	Message    string
	Renamed    map[string]string // old device id -> new device id
}

// UpdateForSlotChange reconciles the inventory against a freshly ingested
// system-info document, per spec.md §4.D.
func (inv *Inventory) UpdateForSlotChange(info SystemInfo) UpdateResult {
	result := UpdateResult{Renamed: map[string]string{}}
	groups := flatSlots(info)

	// Step 1: mark IsValid on existing devices by comparing to the new slot set.
	slotModule := map[string]string{} // nodeID|slotID -> module
	for _, g := range groups {
		for _, s := range g.slots {
			slotModule[g.nodeID+"|"+s.SlotID] = s.Module
		}
	}
	for _, d := range inv.Devices {
		module, present := slotModule[d.NodeID+"|"+d.SlotID]
		d.IsValid = present && module == d.Module
	}

	// Step 2: ensure exactly one valid device per channel for every present slot.
	for _, g := range groups {
		if metadata.ModelKind(g.mainframe) != metadata.KindMainframe {
			continue
		}
		for _, slot := range g.slots {
			if slot.Module == "" {
				continue
			}
			for ch := 1; ch <= 2; ch++ {
				if inv.findValid(g.nodeID, slot.SlotID, ch) != nil {
					continue
				}
				// Step 3: a node-id rename with matching slot+model rewrites in place.
				if renamed := inv.findRenameCandidate(slot.SlotID, slot.Module, ch, g.nodeID); renamed != nil {
					oldID := renamed.ID
					renamed.NodeID = g.nodeID
					renamed.ID = deviceID(g.nodeID, slot.SlotID, ch)
					renamed.IsValid = true
					result.Renamed[oldID] = renamed.ID
					continue
				}
				d := &Device{
					ID:         deviceID(g.nodeID, slot.SlotID, ch),
					NodeID:     g.nodeID,
					Mainframe:  g.mainframe,
					SlotID:     slot.SlotID,
					Module:     slot.Module,
					ChannelIdx: ch,
					IsValid:    true,
					InUse:      false,
				}
				d.metadataRef, _ = inv.registry.Lookup(slot.Module)
				inv.Devices = append(inv.Devices, d)
			}
		}
	}

	// Step 4: remove devices that are neither valid nor in use.
	kept := inv.Devices[:0]
	for _, d := range inv.Devices {
		if !d.IsValid && !d.InUse {
			continue
		}
		kept = append(kept, d)
	}
	inv.Devices = kept

	// Step 5: any in-use-but-invalid device needs user reassignment.
	for _, d := range inv.Devices {
		if d.InUse && !d.IsValid {
			result.Status = StatusError
			result.Message = "a device in use is no longer valid; reassign its channel"
			break
		}
	}

	return result
}

func (inv *Inventory) findValid(nodeID, slotID string, ch int) *Device {
	for _, d := range inv.Devices {
		if d.NodeID == nodeID && d.SlotID == slotID && d.ChannelIdx == ch && d.IsValid {
			return d
		}
	}
	return nil
}

// findRenameCandidate finds an existing device whose slot+model+channel
// match but whose node id differs — a node-id rename rather than a genuine
// slot-content change.
func (inv *Inventory) findRenameCandidate(slotID, module string, ch int, newNodeID string) *Device {
	for _, d := range inv.Devices {
		if d.SlotID == slotID && d.Module == module && d.ChannelIdx == ch && d.NodeID != newNodeID {
			return d
		}
	}
	return nil
}

// ByID returns the device with the given id, or nil.
func (inv *Inventory) ByID(id string) *Device {
	for _, d := range inv.Devices {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// FirstFree returns the first valid, unused device, or nil.
func (inv *Inventory) FirstFree() *Device {
	for _, d := range inv.Devices {
		if d.IsValid && !d.InUse {
			return d
		}
	}
	return nil
}
