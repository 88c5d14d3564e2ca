// Package sweep implements the root sweep configuration: global parameters,
// the bias/step/sweep channel sets, the device inventory, and the
// add/remove/update/auto-configure channel-management operations.
package sweep

import (
	"fmt"

	"github.com/jihwankim/scriptgend/internal/channel"
	"github.com/jihwankim/scriptgend/internal/device"
	"github.com/jihwankim/scriptgend/internal/metadata"
	"github.com/jihwankim/scriptgend/internal/param"
	"github.com/jihwankim/scriptgend/internal/timing"
)

// lineFrequency and minBufferTime are instrument-wide constants the original
// timing correction pipeline consumes; no device-specific override exists in
// this catalog, so they are fixed here.
const (
	lineFrequency = 60
	minBufferTime = 0.0
)

// StepGlobalParameters holds the step-axis global settings (spec.md §3).
type StepGlobalParameters struct {
	StepPoints       *param.Int   `json:"step_points"`
	StepToSweepDelay *param.Float `json:"step_to_sweep_delay"`
	ListStep         bool         `json:"list_step"`
}

// NewStepGlobalParameters returns the fixed initial step-axis settings.
func NewStepGlobalParameters() *StepGlobalParameters {
	return &StepGlobalParameters{
		StepPoints:       param.NewInt("step_points", 10),
		StepToSweepDelay: param.NewFloat("step_to_sweep_delay", 0.0, metadata.UnitSeconds),
	}
}

// SweepGlobalParameters holds the sweep-axis global settings.
type SweepGlobalParameters struct {
	SweepPoints *param.Int `json:"sweep_points"`
	ListSweep   bool       `json:"list_sweep"`
}

// NewSweepGlobalParameters returns the fixed initial sweep-axis settings.
func NewSweepGlobalParameters() *SweepGlobalParameters {
	return &SweepGlobalParameters{SweepPoints: param.NewInt("sweep_points", 10)}
}

// GlobalParameters aggregates the one shared timing configuration for the
// whole sweep.
type GlobalParameters struct {
	TimingConfig *timing.Config `json:"timing_config"`
}

// NewGlobalParameters constructs a GlobalParameters with defaults seeded
// against meta.
func NewGlobalParameters(meta *metadata.Entry) *GlobalParameters {
	tc := timing.New()
	tc.SetDefaults(meta)
	return &GlobalParameters{TimingConfig: tc}
}

// StatusKind mirrors spec.md §3's status message kind.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusWarning
	StatusError
)

// StatusMessage is the single, wholesale-replaced status slot carried by the
// root configuration (spec.md's "Supplemented from original_source/" note:
// one field, not a list).
type StatusMessage struct {
	Kind      StatusKind `json:"status_type"`
	Message   string     `json:"message"`
	Timestamp string     `json:"time_stamp"`
}

// Config is the sweep configuration root (spec.md §3 "Sweep configuration").
type Config struct {
	GlobalParameters      *GlobalParameters
	BiasChannels          []*channel.Channel
	StepChannels          []*channel.Channel
	SweepChannels         []*channel.Channel
	StepGlobalParameters  *StepGlobalParameters
	SweepGlobalParameters *SweepGlobalParameters
	Inventory             *device.Inventory
	Status                *StatusMessage

	registry *metadata.Registry
}

// New constructs an empty Config bound to registry.
func New(registry *metadata.Registry) *Config {
	return &Config{
		GlobalParameters:      NewGlobalParameters(nil),
		StepGlobalParameters:  NewStepGlobalParameters(),
		SweepGlobalParameters: NewSweepGlobalParameters(),
		Inventory:             device.NewInventory(registry),
		registry:              registry,
	}
}

// Evaluate runs the request-level `evaluate()` contract of spec.md §4.G.
func (c *Config) Evaluate() {
	c.refreshChannelDevices()
	c.GlobalParameters.TimingConfig.Evaluate(nil)

	c.StepGlobalParameters.StepPoints.Clamp(1, 60000)
	c.SweepGlobalParameters.SweepPoints.Clamp(1, 60000)
	c.GlobalParameters.TimingConfig.MeasureCount.Clamp(1, 60000)

	for _, ch := range c.BiasChannels {
		ch.Evaluate()
	}
	for _, ch := range c.StepChannels {
		ch.SetPoints(int(c.StepGlobalParameters.StepPoints.Value))
		ch.Evaluate()
	}
	for _, ch := range c.SweepChannels {
		ch.SetPoints(int(c.SweepGlobalParameters.SweepPoints.Value))
		ch.Evaluate()
	}
}

// refreshChannelDevices re-links every channel's cached device clone to the
// current inventory entry for its device id (spec.md §4.G step 1).
func (c *Config) refreshChannelDevices() {
	for _, ch := range c.BiasChannels {
		if d := c.Inventory.ByID(ch.Common.DeviceID); d != nil {
			ch.Common.RefreshDevice(d)
		}
	}
	for _, ch := range c.StepChannels {
		if d := c.Inventory.ByID(ch.Common.DeviceID); d != nil {
			ch.Common.RefreshDevice(d)
		}
	}
	for _, ch := range c.SweepChannels {
		if d := c.Inventory.ByID(ch.Common.DeviceID); d != nil {
			ch.Common.RefreshDevice(d)
		}
	}
}

// ValidateTiming runs the §4.F correction pipeline for the single shared
// timing configuration, returning the resulting sweep-time-per-point bound.
func (c *Config) ValidateTiming() float64 {
	return c.GlobalParameters.TimingConfig.Validate(0.0, minBufferTime, lineFrequency)
}

// AutoConfigure creates one channel of each kind (step, sweep, bias, in that
// order) if a free valid device exists for each, per spec.md's Lifecycle
// section and sweep_config.rs's auto_configure.
func (c *Config) AutoConfigure() {
	if d := c.Inventory.FirstFree(); d != nil {
		d.InUse = true
		c.StepChannels = append(c.StepChannels, channel.NewStep("step1", d, int(c.StepGlobalParameters.StepPoints.Value)))
	}
	if d := c.Inventory.FirstFree(); d != nil {
		d.InUse = true
		c.SweepChannels = append(c.SweepChannels, channel.NewSweep("sweep1", d, int(c.SweepGlobalParameters.SweepPoints.Value)))
	}
	if d := c.Inventory.FirstFree(); d != nil {
		d.InUse = true
		c.BiasChannels = append(c.BiasChannels, channel.NewBias("bias1", d))
	}
}

func (c *Config) channels(kind channel.Kind) *[]*channel.Channel {
	switch kind {
	case channel.Bias:
		return &c.BiasChannels
	case channel.Step:
		return &c.StepChannels
	case channel.Sweep:
		return &c.SweepChannels
	default:
		return nil
	}
}

// AddChannel implements the `add` operation of spec.md §4.G: find the first
// `is_valid && !in_use` device, mark it in use, and create a channel named
// `{kind}{N+1}`. If none is free, sets a Warning status.
func (c *Config) AddChannel(kind channel.Kind) {
	d := c.Inventory.FirstFree()
	if d == nil {
		c.Status = &StatusMessage{Kind: StatusWarning, Message: "no valid or free device found to add a new channel"}
		return
	}
	d.InUse = true

	list := c.channels(kind)
	name := fmt.Sprintf("%s%d", kind, len(*list)+1)
	switch kind {
	case channel.Bias:
		*list = append(*list, channel.NewBias(name, d))
	case channel.Step:
		*list = append(*list, channel.NewStep(name, d, int(c.StepGlobalParameters.StepPoints.Value)))
	case channel.Sweep:
		*list = append(*list, channel.NewSweep(name, d, int(c.SweepGlobalParameters.SweepPoints.Value)))
	}
}

// RemoveChannel implements the `remove` operation: flip `in_use=false` on
// the device whose id equals chanID. The channel itself is retained by
// reference, a deliberate inconsistency with invariant 2 that lets the user
// reassign without losing the channel's configuration (spec.md §8).
func (c *Config) RemoveChannel(chanID string) {
	if d := c.Inventory.ByID(chanID); d != nil {
		d.InUse = false
	}
}

// UpdateChannel implements the `update` operation: if the new device is
// valid, unmark the old device, mark the new one, and construct a
// replacement channel that preserves the original's uuid and name.
func (c *Config) UpdateChannel(kind channel.Kind, oldID, newID string) {
	newDevice := c.Inventory.ByID(newID)
	if newDevice == nil || !newDevice.IsValid {
		return
	}

	list := c.channels(kind)
	if list == nil {
		return
	}
	for i, ch := range *list {
		if ch.Common.DeviceID != oldID {
			continue
		}
		if oldDevice := c.Inventory.ByID(oldID); oldDevice != nil {
			oldDevice.InUse = false
		}
		newDevice.InUse = true

		name := ch.Common.ChanName
		uuid := ch.Common.UUID
		var replacement *channel.Channel
		switch kind {
		case channel.Bias:
			replacement = channel.NewBias(name, newDevice)
		case channel.Step:
			replacement = channel.NewStep(name, newDevice, int(c.StepGlobalParameters.StepPoints.Value))
		case channel.Sweep:
			replacement = channel.NewSweep(name, newDevice, int(c.SweepGlobalParameters.SweepPoints.Value))
		}
		replacement.Common.UUID = uuid
		(*list)[i] = replacement
		return
	}
}

// IngestSystemInfo (re)builds the device inventory from a freshly ingested
// system-info document, auto-configuring channels on first ingest (an empty
// inventory before this call) per spec.md §4.J "system_info".
func (c *Config) IngestSystemInfo(info device.SystemInfo) {
	firstIngest := len(c.Inventory.Devices) == 0
	if firstIngest {
		c.Inventory.CreateDeviceList(info)
		c.AutoConfigure()
		return
	}

	result := c.Inventory.UpdateForSlotChange(info)
	for old, renamed := range result.Renamed {
		c.renameChannelDevice(old, renamed)
	}
	if result.Status == device.StatusError {
		c.Status = &StatusMessage{Kind: StatusError, Message: result.Message}
	}
}

func (c *Config) renameChannelDevice(oldID, newID string) {
	rename := func(list []*channel.Channel) {
		for _, ch := range list {
			if ch.Common.DeviceID == oldID {
				ch.Common.DeviceID = newID
			}
		}
	}
	rename(c.BiasChannels)
	rename(c.StepChannels)
	rename(c.SweepChannels)
}
