// Package channel implements the Bias/Step/Sweep channel entity: source and
// measure function coupling, range derivation, start/stop evaluation with
// log-style asymptote handling, and source-limit reduction via the device's
// region map.
package channel

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jihwankim/scriptgend/internal/device"
	"github.com/jihwankim/scriptgend/internal/limits"
	"github.com/jihwankim/scriptgend/internal/metadata"
	"github.com/jihwankim/scriptgend/internal/param"
)

// Kind tags which of the three channel roles a Channel plays.
type Kind int

const (
	Bias Kind = iota
	Step
	Sweep
)

func (k Kind) String() string {
	switch k {
	case Bias:
		return "bias"
	case Step:
		return "step"
	case Sweep:
		return "sweep"
	default:
		return "unknown"
	}
}

// Range is a source or measure range cell: the enumerated option list, the
// active selection, and the numeric envelope that selection resolves to.
type Range struct {
	RangeList      []string `json:"range"`
	Value          string   `json:"value"`
	Unit           string   `json:"unit,omitempty"`
	Min            float64  `json:"-"`
	Max            float64  `json:"-"`
	OverrangeScale float64  `json:"-"`
}

// Limit applies this range's envelope to value: clamp to [Min,Max] when the
// range is "AUTO", else parse the active range string into a scaled bound
// and clamp to ±(scaled * OverrangeScale).
func (r *Range) Limit(value float64) float64 {
	if r.Value == metadata.Auto {
		if value < r.Min {
			return r.Min
		}
		if value > r.Max {
			return r.Max
		}
		return value
	}

	scaled, ok := r.scaledValue()
	if !ok {
		return value
	}
	bound := scaled * r.OverrangeScale
	if value < -bound {
		return -bound
	}
	if value > bound {
		return bound
	}
	return value
}

// scaledValue parses Value (e.g. "60 V", "100 mA") into a numeric magnitude,
// recognizing SI prefixes f p n µ m (none) k M. A non-empty tail after the
// numeric part must end in the active unit; otherwise no bound is derived and
// Limit leaves the value unchanged.
func (r *Range) scaledValue() (float64, bool) {
	var numeric, suffix strings.Builder
	for _, c := range r.Value {
		if (c >= '0' && c <= '9') || c == '.' || c == '-' {
			numeric.WriteRune(c)
		} else {
			suffix.WriteRune(c)
		}
	}
	n, err := strconv.ParseFloat(numeric.String(), 64)
	if err != nil {
		return 0, false
	}

	tail := strings.TrimSpace(suffix.String())
	prefix, ok := extractPrefix(tail, r.Unit)
	if !ok {
		return 0, false
	}
	scale, ok := prefixScale(prefix)
	if !ok {
		return 0, false
	}
	return n * scale, true
}

func extractPrefix(tail, unit string) (string, bool) {
	if tail == "" || unit == "" {
		if tail == unit {
			return "", true
		}
		return tail, true
	}
	if !strings.HasSuffix(tail, unit) {
		return "", false // tail names another unit, causing no-limit
	}
	return tail[:len(tail)-len(unit)], true
}

func prefixScale(prefix string) (float64, bool) {
	switch prefix {
	case "f":
		return 1e-15, true
	case "p":
		return 1e-12, true
	case "n":
		return 1e-9, true
	case "µ", "u":
		return 1e-6, true
	case "m":
		return 1e-3, true
	case "":
		return 1.0, true
	case "k":
		return 1e3, true
	case "M":
		return 1e6, true
	default:
		return 0, false
	}
}

// Common holds the attributes shared by every channel kind (spec.md §3).
type Common struct {
	UUID           uuid.UUID    `json:"uuid"`
	ChanName       string       `json:"chan_name"`
	SourceFunction *param.String `json:"source_function"`
	MeasFunction   *param.String `json:"meas_function"`
	SourceRange    *Range        `json:"source_range"`
	MeasRange      *Range        `json:"meas_range"`
	SourceLimitI   *param.Float  `json:"source_limiti,omitempty"`
	SourceLimitV   *param.Float  `json:"source_limitv,omitempty"`
	SenseMode      *param.String `json:"sense_mode,omitempty"`
	DeviceID       string        `json:"device_id"`

	dev *device.Device
}

// Device returns the cached device record last rehydrated by RefreshDevice.
func (c *Common) Device() *device.Device { return c.dev }

// RefreshDevice re-links the cached device clone to the current inventory
// entry matching DeviceID (spec.md §9: reconciliation re-links before
// evaluation since the channel holds only an opaque id on the wire).
func (c *Common) RefreshDevice(d *device.Device) { c.dev = d }

func newCommon(name string, d *device.Device) *Common {
	return &Common{
		UUID:           uuid.New(),
		ChanName:       name,
		SourceFunction: param.NewString("source_function"),
		MeasFunction:   param.NewString("meas_function"),
		SourceRange:    &Range{},
		MeasRange:      &Range{},
		DeviceID:       d.ID,
		dev:            d,
	}
}

// SetDefaults seeds the per-device-type source/measure vocabulary and
// default ranges (spec.md §4.E "Derivation").
func (c *Common) SetDefaults() {
	meta := c.dev.Metadata()
	switch metadata.ModelKind(c.dev.Module) {
	case metadata.KindSMU:
		c.SourceFunction.Range = []string{metadata.FunctionVoltage, metadata.FunctionCurrent}
		c.SenseMode = param.NewString("sense_mode")
		c.SenseMode.Range = []string{metadata.TwoWire, metadata.FourWire}
		c.SenseMode.Value = metadata.TwoWire
		c.SourceLimitV = param.NewFloat("source_limitv", 20.0, metadata.UnitVolts)
		c.SourceLimitI = param.NewFloat("source_limiti", 1e-1, metadata.UnitAmperes)
	case metadata.KindPSU:
		c.SourceFunction.Range = []string{metadata.FunctionVoltage}
		c.SourceLimitI = param.NewFloat("source_limiti", 0.5, metadata.UnitAmperes)
	}
	c.SourceFunction.Value = metadata.FunctionVoltage

	c.MeasFunction.Range = []string{metadata.FunctionVoltage, metadata.FunctionCurrent, metadata.FunctionIV}
	c.MeasFunction.Value = metadata.FunctionCurrent

	c.setSourceRange(meta)
	c.setMeasRange(meta)
	c.setSourceRangeValue(meta)
	c.setMeasRangeValue(meta)
}

// Evaluate runs the common source/measure function coupling pass
// (spec.md §4.E "evaluate()").
func (c *Common) Evaluate() {
	meta := c.dev.Metadata()
	c.evaluateSourceFunction(meta)
	c.evaluateMeasureFunction(meta)
}

func determineUnit(function string) string {
	if function == metadata.FunctionVoltage {
		return metadata.UnitVolts
	}
	return metadata.UnitAmperes
}

func rangeOptionKey(function string) string {
	if function == metadata.FunctionVoltage {
		return "source_meas.rangev"
	}
	return "source_meas.rangei"
}

func rangeDefaultKey(function string) string {
	if function == metadata.FunctionVoltage {
		return "source_meas.range.defaultv"
	}
	return "source_meas.range.defaulti"
}

func levelKey(function string) string {
	if function == metadata.FunctionVoltage {
		return "source.levelv"
	}
	return "source.leveli"
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func (c *Common) setSourceRange(meta *metadata.Entry) {
	c.SourceRange.Unit = determineUnit(c.SourceFunction.Value)
	if meta == nil {
		return
	}
	if opts, ok := meta.Option(rangeOptionKey(c.SourceFunction.Value)); ok {
		c.SourceRange.RangeList = opts
	}
	if min, max, ok := meta.Range(levelKey(c.SourceFunction.Value)); ok {
		c.SourceRange.Min, c.SourceRange.Max = min, max
	}
	c.SourceRange.OverrangeScale = meta.OverrangeScale()
}

func (c *Common) setSourceRangeValue(meta *metadata.Entry) {
	if meta == nil || contains(c.SourceRange.RangeList, c.SourceRange.Value) {
		return
	}
	if def, ok := meta.Default(rangeDefaultKey(c.SourceFunction.Value)); ok {
		c.SourceRange.Value = def
	}
}

func (c *Common) setMeasRange(meta *metadata.Entry) {
	c.MeasRange.Unit = determineUnit(c.MeasFunction.Value)
	if meta == nil {
		return
	}
	if opts, ok := meta.Option(rangeOptionKey(c.MeasFunction.Value)); ok {
		c.MeasRange.RangeList = opts
	}
}

func (c *Common) setMeasRangeValue(meta *metadata.Entry) {
	if meta == nil || contains(c.MeasRange.RangeList, c.MeasRange.Value) {
		return
	}
	if def, ok := meta.Default(rangeDefaultKey(c.MeasFunction.Value)); ok {
		c.MeasRange.Value = def
	}
}

func (c *Common) evaluateSourceFunction(meta *metadata.Entry) {
	c.setSourceRange(meta)
	c.setSourceRangeValue(meta)
	c.validateSourceLimits(meta)
}

func (c *Common) evaluateMeasureFunction(meta *metadata.Entry) {
	if c.MeasFunction.Value == c.SourceFunction.Value {
		c.MeasRange.Unit = c.SourceRange.Unit
		c.MeasRange.RangeList = c.SourceRange.RangeList
		c.MeasRange.Value = c.SourceRange.Value
		return
	}
	c.setMeasRange(meta)
	c.setMeasRangeValue(meta)
}

// validateSourceLimits clamps SourceLimitI/V to the fixed source.limiti /
// source.limitv envelope (spec.md §4.E step 3).
func (c *Common) validateSourceLimits(meta *metadata.Entry) {
	if meta == nil {
		return
	}
	if min, max, ok := meta.Range("source.limiti"); ok && c.SourceLimitI != nil {
		c.SourceLimitI.Clamp(min, max)
	}
	if min, max, ok := meta.Range("source.limitv"); ok && c.SourceLimitV != nil {
		c.SourceLimitV.Clamp(min, max)
	}
}

// ReduceSourceLimitsByRegion narrows SourceLimitI (if sourcing Voltage) or
// SourceLimitV (if sourcing Current) to the envelope the device's region map
// permits at the worst-case operating point L (spec.md §4.E, final step of
// "Start/Stop evaluation").
func (c *Common) ReduceSourceLimitsByRegion(worstCase float64) {
	meta := c.dev.Metadata()
	if meta == nil {
		return
	}
	rm, ok := meta.RegionMap(levelKey(c.SourceFunction.Value))
	if !ok {
		return
	}
	switch c.SourceFunction.Value {
	case metadata.FunctionVoltage:
		if c.SourceLimitI == nil {
			return
		}
		env := rm.GetCurrentLimit(worstCase)
		c.SourceLimitI.Value = clampTo(c.SourceLimitI.Value, env.GetMin(), env.GetMax())
	case metadata.FunctionCurrent:
		if c.SourceLimitV == nil {
			return
		}
		env := rm.GetVoltageLimit(worstCase)
		c.SourceLimitV.Value = clampTo(c.SourceLimitV.Value, env.GetMin(), env.GetMax())
	}
}

func clampTo(v, min, max float64) float64 {
	switch {
	case v < min:
		return min
	case v > max:
		return max
	default:
		return v
	}
}

// regionEnvelope returns the raw region-map NumberLimit (with its exclusion
// sublimit) at worstCase on the active source function's axis.
func (c *Common) regionEnvelope(worstCase float64) (*limits.NumberLimit, bool) {
	meta := c.dev.Metadata()
	if meta == nil {
		return nil, false
	}
	rm, ok := meta.RegionMap(levelKey(c.SourceFunction.Value))
	if !ok {
		return nil, false
	}
	if c.SourceFunction.Value == metadata.FunctionVoltage {
		return rm.GetCurrentLimit(worstCase), true
	}
	return rm.GetVoltageLimit(worstCase), true
}
