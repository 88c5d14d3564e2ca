package channel

import (
	"github.com/jihwankim/scriptgend/internal/device"
	"github.com/jihwankim/scriptgend/internal/metadata"
	"github.com/jihwankim/scriptgend/internal/param"
)

// StartStop holds the fields StartStop-style channels (Step, Sweep) add on
// top of Common: start/stop endpoints, sweep style, the point list, and the
// LOG-style asymptote.
type StartStop struct {
	Start     *param.Float   `json:"start"`
	Stop      *param.Float   `json:"stop"`
	Style     *param.String  `json:"style"`
	List      []*param.Float `json:"list"`
	Asymptote float64        `json:"asymptote"`
}

// Channel is the tagged sum type over Bias/Step/Sweep (spec.md §9 design
// note: a single record with a shared Common, not per-kind dynamic dispatch).
type Channel struct {
	Kind      Kind       `json:"kind"`
	Common    *Common    `json:"common_chan_attributes"`
	Bias      *param.Float `json:"bias,omitempty"`
	StartStop *StartStop   `json:"start_stop,omitempty"`
}

// NewBias constructs a Bias channel bound to d, with defaults applied.
func NewBias(name string, d *device.Device) *Channel {
	c := &Channel{Kind: Bias, Common: newCommon(name, d)}
	c.Common.SetDefaults()
	c.Bias = param.NewFloat("bias", 0.0, metadata.UnitVolts)
	return c
}

// NewStep constructs a Step channel bound to d with stepPoints list entries.
func NewStep(name string, d *device.Device, stepPoints int) *Channel {
	return newStartStop(Step, name, d, stepPoints)
}

// NewSweep constructs a Sweep channel bound to d with sweepPoints list entries.
func NewSweep(name string, d *device.Device, sweepPoints int) *Channel {
	return newStartStop(Sweep, name, d, sweepPoints)
}

func newStartStop(kind Kind, name string, d *device.Device, points int) *Channel {
	c := &Channel{Kind: kind, Common: newCommon(name, d)}
	c.Common.SetDefaults()
	ss := &StartStop{
		Start: param.NewFloat("start", 0.0, metadata.UnitVolts),
		Stop:  param.NewFloat("stop", 1.0, metadata.UnitVolts),
		Style: param.NewString("style"),
	}
	ss.Style.Range = []string{metadata.StyleLin, metadata.StyleLog}
	ss.Style.Value = metadata.StyleLin
	c.StartStop = ss
	c.StartStop.setList(points, c.Common.SourceRange.Unit)
	return c
}

// setList populates n list points named list_0..list_{n-1} with the range's
// current unit, per spec.md §4.E "set_points(n)".
func (ss *StartStop) setList(n int, unit string) {
	ss.List = make([]*param.Float, 0, n)
	for i := 0; i < n; i++ {
		ss.List = append(ss.List, param.NewFloat(listName(i), 0.0, unit))
	}
}

func listName(i int) string {
	return "list_" + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}

// Evaluate runs the per-kind evaluation pass: the common source/measure
// coupling, then bias- or start/stop-specific resolution.
func (c *Channel) Evaluate() {
	c.Common.Evaluate()
	switch c.Kind {
	case Bias:
		c.evaluateBias()
	case Step, Sweep:
		c.evaluateStartStop()
	}
}

func (c *Channel) evaluateBias() {
	if c.Bias.Unit == nil {
		return
	}
	if c.Bias.UnitOrEmpty() == c.Common.SourceRange.Unit {
		c.Bias.Value = c.Common.SourceRange.Limit(c.Bias.Value)
		return
	}
	c.Bias.Value = c.Common.SourceRange.Limit(0.0)
	c.Bias.SetUnit(c.Common.SourceRange.Unit)
}

func (c *Channel) evaluateStartStop() {
	ss := c.StartStop

	c.determineStart()
	c.determineStop()

	worstCase := worstCaseSigned(ss.Start.Value, ss.Stop.Value)
	c.Common.ReduceSourceLimitsByRegion(worstCase)
}

// worstCaseSigned returns max(|start|,|stop|) with the sign of start,
// matching spec.md §4.E "L = max(|start|,|stop|) · sign(start)".
func worstCaseSigned(start, stop float64) float64 {
	sign := 1.0
	if start < 0 {
		sign = -1.0
	}
	mag := abs(start)
	if abs(stop) > mag {
		mag = abs(stop)
	}
	return mag * sign
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func (c *Channel) determineStart() {
	ss := c.StartStop
	if ss.Start.UnitOrEmpty() == c.Common.SourceRange.Unit {
		ss.Start.Value = c.Common.SourceRange.Limit(ss.Start.Value)
	} else {
		ss.Start.Value = c.Common.SourceRange.Limit(0.0)
		ss.Start.SetUnit(c.Common.SourceRange.Unit)
	}

	if ss.Style.Value != metadata.StyleLog {
		return
	}
	switch {
	case ss.Start.Value >= metadata.MinLogValue:
		if ss.Stop.Value < 0.0 {
			ss.Stop.Value = -ss.Stop.Value
		}
	case ss.Start.Value <= -metadata.MinLogValue:
		if ss.Stop.Value > 0.0 {
			ss.Stop.Value = -ss.Stop.Value
		}
	default:
		if ss.Stop.Value > 0.0 {
			ss.Start.Value = metadata.MinLogValue
		} else {
			ss.Start.Value = -metadata.MinLogValue
		}
	}
}

func (c *Channel) determineStop() {
	ss := c.StartStop
	if ss.Stop.UnitOrEmpty() == c.Common.SourceRange.Unit {
		ss.Stop.Value = c.Common.SourceRange.Limit(ss.Stop.Value)
	} else {
		ss.Stop.Value = c.Common.SourceRange.Limit(1.0)
		ss.Stop.SetUnit(c.Common.SourceRange.Unit)
	}

	if ss.Style.Value != metadata.StyleLog {
		return
	}
	switch {
	case ss.Stop.Value >= metadata.MinLogValue:
		if ss.Start.Value < 0.0 {
			ss.Start.Value = -ss.Start.Value
		}
	case ss.Stop.Value <= -metadata.MinLogValue:
		if ss.Start.Value > 0.0 {
			ss.Start.Value = -ss.Start.Value
		}
	default:
		if ss.Start.Value > 0.0 {
			ss.Stop.Value = metadata.MinLogValue
		} else {
			ss.Stop.Value = -metadata.MinLogValue
		}
	}
}

// SetPoints regenerates the point list for the current global step/sweep
// point count, called ahead of Evaluate by the owning sweep configuration.
func (c *Channel) SetPoints(n int) {
	if c.StartStop != nil {
		c.StartStop.setList(n, c.Common.SourceRange.Unit)
	}
}
