// Package metadata is the per-module-model registry: option lists, numeric
// ranges, defaults, and safe-operating-area region maps, keyed by model id.
// Registry entries are immutable after construction.
package metadata

import "github.com/jihwankim/scriptgend/internal/limits"

// Shared enum vocabulary (spec.md §4.A).
const (
	Off             = "OFF"
	On              = "ON"
	Once            = "ONCE"
	Auto            = "AUTO"
	UserDefined     = "USER DEFINED"
	MovingAvg       = "MOVING AVG"
	RepeatAvg       = "REPEAT AVG"
	StyleLin        = "LIN"
	StyleLog        = "LOG"
	FunctionVoltage = "Voltage"
	FunctionCurrent = "Current"
	FunctionIV      = "Current,Voltage"
	TwoWire         = "two-wire"
	FourWire        = "four-wire"
	Normal          = "NORMAL"
	Fast            = "FAST"

	UnitVolts   = "V"
	UnitAmperes = "A"
	UnitSeconds = "s"

	// MinLogValue is the nonzero floor substituted for a LOG-style endpoint
	// that would otherwise straddle or touch the asymptote.
	MinLogValue = 1e-12
)

// Kind tags the module family a catalog Entry describes.
type Kind int

const (
	KindUnknown Kind = iota
	KindMainframe
	KindSMU
	KindPSU
)

// ModelKind maps a model id to its Kind, mirroring the source's MODEL_MAP.
func ModelKind(model string) Kind {
	switch model {
	case "MP5103":
		return KindMainframe
	case "MSMU60-2":
		return KindSMU
	case "MPSU50-2ST":
		return KindPSU
	default:
		return KindUnknown
	}
}

// Entry is one immutable catalog entry: option sets, a range table, a
// default map, and an optional region map per range-key axis.
type Entry struct {
	model          string
	kind           Kind
	options        map[string][]string
	ranges         map[string][2]float64
	defaults       map[string]string
	names          map[string]string
	regionMaps     map[string]*limits.RegionMap
	overrangeScale float64
}

// newBase seeds an Entry with the vocabulary common to every Trebuchet-style
// instrument (spec.md §4.A "A base entry provides the shared enum vocabulary").
func newBase(model string, kind Kind) *Entry {
	e := &Entry{
		model:          model,
		kind:           kind,
		options:        map[string][]string{},
		ranges:         map[string][2]float64{},
		defaults:       map[string]string{},
		names:          map[string]string{},
		regionMaps:     map[string]*limits.RegionMap{},
		overrangeScale: 1.05,
	}
	e.options["timing.delay.type"] = []string{Off, Auto, UserDefined}
	return e
}

// Option returns the ordered enumerated values for key, if any.
func (e *Entry) Option(key string) ([]string, bool) {
	v, ok := e.options[key]
	return v, ok
}

// Range returns the (min,max) bound for key, if any.
func (e *Entry) Range(key string) (min, max float64, ok bool) {
	v, present := e.ranges[key]
	if !present {
		return 0, 0, false
	}
	return v[0], v[1], true
}

// Default returns the default value string for key, if any.
func (e *Entry) Default(key string) (string, bool) {
	v, ok := e.defaults[key]
	return v, ok
}

// Name returns a human-readable label for key, if any.
func (e *Entry) Name(key string) (string, bool) {
	v, ok := e.names[key]
	return v, ok
}

// OverrangeScale is the factor (>=1) by which a fixed range may be exceeded
// without switching ranges.
func (e *Entry) OverrangeScale() float64 {
	return e.overrangeScale
}

// RegionMap returns the safe-operating-area map for a range axis
// ("source.levelv" or "source.leveli"), if defined.
func (e *Entry) RegionMap(rangeKey string) (*limits.RegionMap, bool) {
	rm, ok := e.regionMaps[rangeKey]
	return rm, ok
}

// Model returns the catalog entry's model id.
func (e *Entry) Model() string { return e.model }

// Kind returns the entry's module family.
func (e *Entry) Kind() Kind { return e.kind }

func (e *Entry) addOption(key string, values []string)   { e.options[key] = values }
func (e *Entry) addRange(key string, min, max float64)   { e.ranges[key] = [2]float64{min, max} }
func (e *Entry) addDefault(key, value string)            { e.defaults[key] = value }
func (e *Entry) addRegionMap(key string, rm *limits.RegionMap) { e.regionMaps[key] = rm }

// NewMSMU60 builds the MSMU60-2 SMU catalog entry.
func NewMSMU60() *Entry {
	e := newBase("MSMU60-2", KindSMU)
	e.addOption("source_meas.rangev", []string{"AUTO", "200 mV", "2 V", "6 V", "20 V", "60 V"})
	e.addOption("source_meas.rangei", []string{
		"AUTO", "100 nA", "1 uA", "10 uA", "100 uA", "1 mA", "10 mA", "100 mA", "1 A", "1.5 A",
	})
	e.addDefault("source_meas.range.defaultv", "AUTO")
	e.addDefault("source_meas.range.defaulti", "100 mA")

	e.addRange("source.levelv", -60.0, 60.0)
	e.addRange("source.leveli", -1.5, 1.5)
	// The source doesn't carry separate source.limit{v,i} ranges; the limit
	// envelope is reasonably the same physical range as the level it bounds.
	e.addRange("source.limitv", -60.0, 60.0)
	e.addRange("source.limiti", -1.5, 1.5)

	rmV := limits.NewRegionMap(nil, limits.Default())
	rmV.AddRegion(1, -60, -1.5, 60, 1.5)
	e.addRegionMap("source.levelv", rmV)

	rmI := limits.NewRegionMap(nil, limits.Default())
	rmI.AddRegion(1, -1.5, -60, 1.5, 60)
	e.addRegionMap("source.leveli", rmI)

	return e
}

// NewMPSU50 builds the MPSU50-2ST PSU catalog entry.
func NewMPSU50() *Entry {
	e := newBase("MPSU50-2ST", KindPSU)
	e.addOption("source_meas.rangev", []string{"AUTO", "50 V"})
	e.addOption("source_meas.rangei", []string{"AUTO", "5 A"})
	e.addDefault("source_meas.range.defaultv", "50 V")
	e.addDefault("source_meas.range.defaulti", "5 A")

	e.addRange("source.levelv", -50.0, 50.0)
	e.addRange("source.leveli", -5.0, 5.0)
	e.addRange("source.limitv", -50.0, 50.0)
	e.addRange("source.limiti", -5.0, 5.0)

	rmV := limits.NewRegionMap(nil, limits.Default())
	rmV.AddRegion(1, -50, -5, 50, 5)
	e.addRegionMap("source.levelv", rmV)

	rmI := limits.NewRegionMap(nil, limits.Default())
	rmI.AddRegion(1, -5, -50, 5, 50)
	e.addRegionMap("source.leveli", rmI)

	return e
}

// Registry is the immutable collection of catalog entries keyed by model id.
type Registry struct {
	entries map[string]*Entry
}

// NewRegistry builds the standard registry with the two concrete catalog
// entries the spec requires (MSMU60 and MPSU50).
func NewRegistry() *Registry {
	r := &Registry{entries: map[string]*Entry{}}
	msmu := NewMSMU60()
	mpsu := NewMPSU50()
	r.entries[msmu.Model()] = msmu
	r.entries[mpsu.Model()] = mpsu
	return r
}

// Lookup returns the catalog entry for a model id.
func (r *Registry) Lookup(model string) (*Entry, bool) {
	e, ok := r.entries[model]
	return e, ok
}
