// Package timing implements the per-device timing model: NPLC, source and
// measure delay, measurement count and filtering, and the optional
// high-speed-sampling block, coupled together through a fixed correction
// pipeline that threads a running sweep-time-per-point bound.
package timing

import (
	"math"

	"github.com/jihwankim/scriptgend/internal/limits"
	"github.com/jihwankim/scriptgend/internal/metadata"
	"github.com/jihwankim/scriptgend/internal/param"
)

// Config is the timing configuration shared by every channel of one sweep
// configuration (spec.md §4.F).
type Config struct {
	NPLC                *param.Float  `json:"nplc"`
	AutoZero            *param.String `json:"auto_zero"`
	SourceDelayType     *param.String `json:"source_delay_type"`
	SourceDelay         *param.Float  `json:"source_delay"`
	MeasureCount        *param.Int    `json:"measure_count"`
	MeasureDelayType    *param.String `json:"measure_delay_type"`
	MeasureDelay        *param.Float  `json:"measure_delay"`
	MeasureDelayFactor  *param.Float  `json:"measure_delay_factor"`
	MeasureFilterEnable *param.String `json:"measure_filter_enable"`
	MeasureFilterType   *param.String `json:"measure_filter_type"`
	MeasureFilterCount  *param.Int    `json:"measure_filter_count"`
	MeasureAnalogFilter *param.String `json:"measure_analog_filter"`

	HighSpeedSampling  bool          `json:"high_speed_sampling"`
	SamplingInterval   *param.Float  `json:"sampling_interval"`
	SamplingCount      *param.Int    `json:"sampling_count"`
	SamplingDelayType  *param.String `json:"sampling_delay_type"`
	SamplingDelay      *param.Float  `json:"sampling_delay"`
	SamplingAnalogFilter *param.String `json:"sampling_analog_filter"`

	limits *limits.TimingLimit
}

// New constructs a Config with the fixed initial values (spec.md §4.F
// "new()").
func New() *Config {
	return &Config{
		NPLC:                param.NewFloat("nplc", 0.1, ""),
		AutoZero:            param.NewString("autoZero"),
		SourceDelayType:     param.NewString("sourceDelayType"),
		SourceDelay:         param.NewFloat("sourceDelay", 0.0, metadata.UnitSeconds),
		MeasureCount:        param.NewInt("measureCount", 1),
		MeasureDelayType:    param.NewString("measureDelayType"),
		MeasureDelay:        param.NewFloat("measureDelay", 0.0, metadata.UnitSeconds),
		MeasureDelayFactor:  param.NewFloat("measureDelayFactor", 1.0, ""),
		MeasureFilterEnable: param.NewString("measureFilterEnable"),
		MeasureFilterType:   param.NewString("measureFilterType"),
		MeasureFilterCount:  param.NewInt("measureFilterCount", 1),
		MeasureAnalogFilter: param.NewString("measureAnalogFilter"),

		HighSpeedSampling:    false,
		SamplingInterval:     param.NewFloat("samplingInterval", 1.0e-6, metadata.UnitSeconds),
		SamplingCount:        param.NewInt("samplingCount", 1000),
		SamplingDelayType:    param.NewString("samplingDelayType"),
		SamplingDelay:        param.NewFloat("samplingDelay", 0.0, metadata.UnitSeconds),
		SamplingAnalogFilter: param.NewString("samplingAnalogFilter"),

		limits: limits.NewTimingLimit(),
	}
}

// SetDefaults seeds the enumerated ranges and default selections
// (spec.md §4.F "set_defaults()").
func (c *Config) SetDefaults(meta *metadata.Entry) {
	c.limits.UpdateTimingLimits()

	c.AutoZero.Range = []string{metadata.Off, metadata.Once, metadata.Auto}
	c.AutoZero.Value = metadata.Once

	delayTypes := delayTypeOptions(meta)
	c.SourceDelayType.Range = delayTypes
	c.SourceDelayType.Value = metadata.Off
	c.MeasureDelayType.Range = delayTypes
	c.MeasureDelayType.Value = metadata.Off

	c.MeasureFilterEnable.Range = []string{metadata.Off, metadata.On}
	c.MeasureFilterEnable.Value = metadata.Off

	c.MeasureFilterType.Range = []string{metadata.MovingAvg, metadata.RepeatAvg}
	c.MeasureFilterType.Value = metadata.MovingAvg

	c.MeasureAnalogFilter.Range = []string{metadata.Off, metadata.On}
	c.MeasureAnalogFilter.Value = metadata.Off

	c.SamplingDelayType.Range = []string{metadata.Off, metadata.UserDefined}
	c.SamplingDelayType.Value = metadata.Off

	c.SamplingAnalogFilter.Range = []string{metadata.Off, metadata.On}
	c.SamplingAnalogFilter.Value = metadata.Off
}

// Evaluate resets the source and measure delay-type option lists to the fixed
// timing.delay.type vocabulary; meta is not consulted (see
// delayTypeVocabulary), and no value correction runs here (see Validate).
func (c *Config) Evaluate(meta *metadata.Entry) {
	delayTypes := delayTypeOptions(meta)
	c.SourceDelayType.Range = delayTypes
	c.MeasureDelayType.Range = delayTypes
}

// delayTypeVocabulary is the fixed timing.delay.type option list (OFF, AUTO,
// USER DEFINED). Every metadata.Entry seeds this same vocabulary regardless
// of device model, so Config carries it as its own base vocabulary — mirroring
// the embedded BaseMetadata the timing configuration self-seeds from — rather
// than depending on an externally-injected *metadata.Entry that the one real
// caller (the shared GlobalParameters.TimingConfig) never has one of.
var delayTypeVocabulary = []string{metadata.Off, metadata.Auto, metadata.UserDefined}

func delayTypeOptions(meta *metadata.Entry) []string {
	out := make([]string, len(delayTypeVocabulary))
	copy(out, delayTypeVocabulary)
	return out
}

// Validate runs the fixed correction pipeline (spec.md §4.F "couple_timing")
// against the given minimum per-measurement buffer overhead and line
// frequency, threading sweepTimePerPoint through as a running-max
// accumulator, and returns the updated bound for the caller to carry into
// the next channel's timing validation.
func (c *Config) Validate(sweepTimePerPoint, minBufferTime float64, lineFrequency int) float64 {
	c.correctNPLC(minBufferTime, lineFrequency)
	c.correctAutoZero()
	c.correctSourceDelay(minBufferTime, lineFrequency)
	c.correctMeasureCount(minBufferTime, lineFrequency)
	c.correctMeasureDelay(minBufferTime, lineFrequency)
	c.correctMeasureDelayFactor()
	c.correctMeasureFilter(minBufferTime, lineFrequency)
	c.correctMeasureAnalogFilter()

	sweepTimePerPoint = c.correctHighSpeedSampling(sweepTimePerPoint, minBufferTime, lineFrequency)

	sweepTimePerPoint = c.correctSamplingInterval(minBufferTime, lineFrequency, sweepTimePerPoint)
	sweepTimePerPoint = c.correctSamplingCount(minBufferTime, lineFrequency, sweepTimePerPoint)
	sweepTimePerPoint = c.correctSamplingDelay(minBufferTime, lineFrequency, sweepTimePerPoint)
	c.correctSamplingAnalogFilter()

	return sweepTimePerPoint
}

// tMax stands in for the instrument's soft timing ceiling. The pulsing
// feature that would narrow this to (pulse_width - epsilon) is not
// supported, so it stays at its unconstrained maximum.
const tMax = math.MaxFloat64

// getNonHSSValue returns the supplied value unchanged unless sampling is
// off the fast path AND the current configuration already exceeds tMax, in
// which case it recomputes the value via cb.
func (c *Config) getNonHSSValue(minBufferTime float64, lineFrequency int, value float64, cb func() float64) float64 {
	if !c.HighSpeedSampling && c.computeT(minBufferTime, lineFrequency) > tMax {
		return cb()
	}
	return value
}

func f64ToI32(value float64) int32 {
	switch {
	case value > math.MaxInt32:
		return math.MaxInt32
	case value < math.MinInt32:
		return math.MinInt32
	default:
		return int32(math.Floor(value))
	}
}

func (c *Config) correctNPLC(minBufferTime float64, lineFrequency int) {
	c.NPLC.Value = c.getNonHSSValue(minBufferTime, lineFrequency, c.NPLC.Value, func() float64 {
		return ((tMax-c.computeEffectiveDelay())/
			(float64(c.computeEffectiveFilterCount())*float64(c.MeasureCount.Value)) -
			minBufferTime) * float64(lineFrequency)
	})
	c.NPLC.Value = math.Floor(c.NPLC.Value/0.001) * 0.001
	c.NPLC.Value = c.limits.NPLCLimits.Limit(c.NPLC.Value)
}

func (c *Config) correctAutoZero() {
	// No validation or coupling: auto_zero is a free enum selection.
}

func (c *Config) computeMeasurementTimePerPoint(minBufferTime float64, lineFrequency int) float64 {
	return float64(c.computeEffectiveFilterCount()) * float64(c.MeasureCount.Value) *
		(minBufferTime + c.NPLC.Value/float64(lineFrequency))
}

func (c *Config) computeMinimumTimePerPoint(minBufferTime float64, lineFrequency int) float64 {
	return c.computeEffectiveDelay() + c.computeMeasurementTimePerPoint(minBufferTime, lineFrequency)
}

// computeDeadTime is a placeholder for an inter-measurement overhead that
// has no known value for this instrument family yet.
func (c *Config) computeDeadTime() float64 {
	return 0.0
}

func (c *Config) computeEffectiveDelay() float64 {
	delay := 0.0
	if c.HighSpeedSampling {
		if c.SamplingDelayType.Value == metadata.UserDefined {
			delay += c.SamplingDelay.Value
		}
		return delay
	}
	if c.MeasureDelayType.Value == metadata.UserDefined {
		delay += c.MeasureDelay.Value
	}
	if c.SourceDelayType.Value == metadata.UserDefined {
		delay += c.SourceDelay.Value
	}
	return delay
}

func (c *Config) computeT(minBufferTime float64, lineFrequency int) float64 {
	measTimePerCount := minBufferTime + c.NPLC.Value/float64(lineFrequency)
	if !c.HighSpeedSampling {
		return c.computeEffectiveDelay() +
			float64(c.computeEffectiveFilterCount())*float64(c.MeasureCount.Value)*measTimePerCount
	}

	measTimePerCount = c.SamplingInterval.Value + c.computeDeadTime()
	samplingCountContribution := 0.0
	if c.SamplingCount.Value < 45 {
		samplingCountContribution = float64(45-c.SamplingCount.Value) * 2.0e-6
	}
	return c.computeEffectiveDelay() +
		float64(c.computeEffectiveFilterCount())*float64(c.SamplingCount.Value)*measTimePerCount +
		samplingCountContribution
}

func (c *Config) correctSourceDelay(minBufferTime float64, lineFrequency int) {
	if c.SourceDelayType.Value != metadata.UserDefined {
		c.SourceDelay.Value = 0.0
		return
	}
	c.SourceDelay.Value = c.getNonHSSValue(minBufferTime, lineFrequency, c.SourceDelay.Value, func() float64 {
		measurementDelay := 0.0
		if c.MeasureDelayType.Value == metadata.UserDefined {
			measurementDelay = c.MeasureDelay.Value
		}
		return tMax - measurementDelay -
			float64(c.computeEffectiveFilterCount())*float64(c.MeasureCount.Value)*
				(minBufferTime+c.NPLC.Value/float64(lineFrequency))
	})
	c.SourceDelay.Value = math.Floor(c.SourceDelay.Value/1.0e-6) * 1.0e-6
	c.SourceDelay.Value = c.limits.SourceDelayLimits.Limit(c.SourceDelay.Value)
}

func (c *Config) correctMeasureCount(minBufferTime float64, lineFrequency int) {
	const epsilon = 1e-9
	next := c.getNonHSSValue(minBufferTime, lineFrequency, float64(c.MeasureCount.Value), func() float64 {
		return float64(f64ToI32(
			((tMax-c.computeEffectiveDelay())/float64(c.computeEffectiveFilterCount()))/
				(minBufferTime+c.NPLC.Value/float64(lineFrequency)) + epsilon,
		))
	})
	c.MeasureCount.Value = c.limits.MeasureCountLimits.LimitInt(int64(next))
}

func (c *Config) correctMeasureDelay(minBufferTime float64, lineFrequency int) {
	if c.MeasureDelayType.Value != metadata.UserDefined {
		c.MeasureDelay.Value = 0.0
		return
	}
	c.MeasureDelay.Value = c.getNonHSSValue(minBufferTime, lineFrequency, c.MeasureDelay.Value, func() float64 {
		sourceDelay := 0.0
		if c.SourceDelayType.Value == metadata.UserDefined {
			sourceDelay = c.SourceDelay.Value
		}
		return tMax - sourceDelay -
			float64(c.computeEffectiveFilterCount())*float64(c.MeasureCount.Value)*
				(minBufferTime+c.NPLC.Value/float64(lineFrequency))
	})
	c.MeasureDelay.Value = math.Floor(c.MeasureDelay.Value/1.0e-6) * 1.0e-6
	c.MeasureDelay.Value = c.limits.MeasureDelayLimits.Limit(c.MeasureDelay.Value)
}

func (c *Config) correctMeasureDelayFactor() {
	c.MeasureDelayFactor.Value = c.limits.MeasureDelayFactorLimits.Limit(c.MeasureDelayFactor.Value)
}

func (c *Config) correctMeasureFilter(minBufferTime float64, lineFrequency int) {
	if c.MeasureFilterEnable.Value != metadata.On {
		c.MeasureFilterCount.Value = 1
		return
	}
	const epsilon = 1e-9
	next := c.getNonHSSValue(minBufferTime, lineFrequency, float64(c.MeasureFilterCount.Value), func() float64 {
		temp := ((tMax-c.computeEffectiveDelay())/float64(c.MeasureCount.Value))/
			((minBufferTime+c.NPLC.Value)/float64(lineFrequency)) + epsilon
		return float64(f64ToI32(temp))
	})
	c.MeasureFilterCount.Value = c.limits.MeasureFilterCountLimits.LimitInt(int64(next))
}

func (c *Config) correctMeasureAnalogFilter() {
	// No validation or coupling.
}

func (c *Config) correctHighSpeedSampling(sweepTimePerPoint, minBufferTime float64, lineFrequency int) float64 {
	effectiveDelay := 0.0
	if c.MeasureDelayType.Value == metadata.UserDefined {
		effectiveDelay += c.MeasureDelay.Value
	}
	if c.SourceDelayType.Value == metadata.UserDefined {
		effectiveDelay += c.SourceDelay.Value
	}
	// AUTO-type delays are not predictable ahead of time and contribute 0.

	effectiveFilterCount := int32(1)
	if c.MeasureFilterEnable.Value == metadata.On {
		effectiveFilterCount = c.MeasureFilterCount.Value
	}
	measurementTimePerCount := minBufferTime + c.NPLC.Value/float64(lineFrequency)
	measurementTimePerPoint := float64(effectiveFilterCount) * float64(c.MeasureCount.Value) * measurementTimePerCount

	tMin := effectiveDelay + measurementTimePerPoint
	if tMin > sweepTimePerPoint {
		return tMin
	}
	return sweepTimePerPoint
}

// coupleTiming folds this channel's own minimum time per point into the
// running sweepTimePerPoint bound.
func (c *Config) coupleTiming(minBufferTime float64, lineFrequency int, sweepTimePerPoint float64) float64 {
	min := c.computeMinimumTimePerPoint(minBufferTime, lineFrequency)
	if min > sweepTimePerPoint {
		return min
	}
	return sweepTimePerPoint
}

func (c *Config) correctSamplingInterval(minBufferTime float64, lineFrequency int, sweepTimePerPoint float64) float64 {
	c.SamplingInterval.Value = math.Floor(c.SamplingInterval.Value/1.0e-6) * 1.0e-6
	c.SamplingInterval.Value = c.limits.SamplingIntervalLimits.Limit(c.SamplingInterval.Value)
	return c.coupleTiming(minBufferTime, lineFrequency, sweepTimePerPoint)
}

func (c *Config) correctSamplingCount(minBufferTime float64, lineFrequency int, sweepTimePerPoint float64) float64 {
	c.SamplingCount.Value = c.limits.SamplingCountLimits.LimitInt(int64(c.SamplingCount.Value))
	return c.coupleTiming(minBufferTime, lineFrequency, sweepTimePerPoint)
}

func (c *Config) correctSamplingDelay(minBufferTime float64, lineFrequency int, sweepTimePerPoint float64) float64 {
	c.SamplingDelay.Value = math.Floor(c.SamplingDelay.Value/1.0e-6) * 1.0e-6
	c.SamplingDelay.Value = c.limits.SamplingDelayLimits.Limit(c.SamplingDelay.Value)
	return c.coupleTiming(minBufferTime, lineFrequency, sweepTimePerPoint)
}

func (c *Config) correctSamplingAnalogFilter() {
	// No validation or coupling.
}

func (c *Config) computeEffectiveFilterCount() int32 {
	if !c.HighSpeedSampling && c.MeasureFilterEnable.Value == metadata.On {
		return c.MeasureFilterCount.Value
	}
	return 1
}
