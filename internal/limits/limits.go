// Package limits implements numeric interval constraints (inclusion and
// exclusion, with recursive sublimits) and region-map lookups yielding
// voltage/current envelopes for a given operating point.
package limits

import "math"

// NumberLimit is either an inclusion interval ([min,max], bounds optional)
// or an exclusion interval (outside (min,max), bounds required), optionally
// composed with a sublimit applied recursively to the result.
type NumberLimit struct {
	min       float64
	max       float64
	inclusion bool
	sublimit  *NumberLimit
}

// New constructs a NumberLimit. Use NaN for an unset inclusion bound.
func New(min, max float64, inclusion bool, sublimit *NumberLimit) *NumberLimit {
	return &NumberLimit{min: min, max: max, inclusion: inclusion, sublimit: sublimit}
}

// Default returns an inclusion limit with both bounds disabled (NaN) and no
// sublimit — i.e. limit() is the identity until Set* is called.
func Default() *NumberLimit {
	return &NumberLimit{min: math.NaN(), max: math.NaN(), inclusion: true}
}

func (n *NumberLimit) SetMin(v float64) { n.min = v }
func (n *NumberLimit) GetMin() float64  { return n.min }
func (n *NumberLimit) SetMax(v float64) { n.max = v }
func (n *NumberLimit) GetMax() float64  { return n.max }

func (n *NumberLimit) SetInclusion(v bool) { n.inclusion = v }
func (n *NumberLimit) IsInclusion() bool   { return n.inclusion }

func (n *NumberLimit) SetSublimit(v *NumberLimit) { n.sublimit = v }
func (n *NumberLimit) GetSublimit() *NumberLimit  { return n.sublimit }

// Limit applies this NumberLimit (and recursively any sublimit, an "and"
// composition) to value and returns the constrained result.
func (n *NumberLimit) Limit(value float64) float64 {
	result := value

	if n.inclusion {
		if !math.IsNaN(n.min) && result < n.min {
			result = n.min
		}
		if !math.IsNaN(n.max) && result > n.max {
			result = n.max
		}
	} else {
		if n.min < result && result < n.max {
			if value-n.min <= n.max-value {
				result = n.min
			} else {
				result = n.max
			}
		}
	}

	if n.sublimit != nil {
		return n.sublimit.Limit(result)
	}
	return result
}

// LimitInt applies Limit and saturates the result into the signed-32-bit range.
func (n *NumberLimit) LimitInt(value int64) int32 {
	result := n.Limit(float64(value))
	switch {
	case result >= math.MaxInt32:
		return math.MaxInt32
	case result <= math.MinInt32:
		return math.MinInt32
	default:
		return int32(result)
	}
}

// TimingLimit is the fixed inclusion-limit table bound to a timing configuration.
type TimingLimit struct {
	NPLCLimits               *NumberLimit
	SourceDelayLimits        *NumberLimit
	MeasureCountLimits       *NumberLimit
	MeasureFilterCountLimits *NumberLimit
	MeasureDelayLimits       *NumberLimit
	MeasureDelayFactorLimits *NumberLimit
	SamplingIntervalLimits   *NumberLimit
	SamplingCountLimits      *NumberLimit
	SamplingDelayLimits      *NumberLimit
}

// NewTimingLimit returns a TimingLimit with all bounds disabled; call
// UpdateTimingLimits to install the fixed SMU timing bounds (spec §3
// invariants 5-6).
func NewTimingLimit() *TimingLimit {
	return &TimingLimit{
		NPLCLimits:               Default(),
		SourceDelayLimits:        Default(),
		MeasureCountLimits:       Default(),
		MeasureFilterCountLimits: Default(),
		MeasureDelayLimits:       Default(),
		MeasureDelayFactorLimits: Default(),
		SamplingIntervalLimits:   Default(),
		SamplingCountLimits:      Default(),
		SamplingDelayLimits:      Default(),
	}
}

// UpdateTimingLimits installs the fixed bounds from spec.md §3 invariants 5-6.
func (t *TimingLimit) UpdateTimingLimits() {
	t.NPLCLimits.SetMin(1e-3)
	t.NPLCLimits.SetMax(25.0)

	t.SourceDelayLimits.SetMin(0.0)
	t.SourceDelayLimits.SetMax(4294.0)

	t.MeasureCountLimits.SetMin(1.0)
	t.MeasureCountLimits.SetMax(60000.0)

	t.MeasureFilterCountLimits.SetMin(1.0)
	t.MeasureFilterCountLimits.SetMax(100.0)

	t.MeasureDelayLimits.SetMin(0.0)
	t.MeasureDelayLimits.SetMax(4294.0)

	t.MeasureDelayFactorLimits.SetMin(0.0)
	t.MeasureDelayFactorLimits.SetMax(1000.0)
}
