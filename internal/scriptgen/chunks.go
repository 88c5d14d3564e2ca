package scriptgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jihwankim/scriptgend/internal/channel"
	"github.com/jihwankim/scriptgend/internal/sweep"
	"github.com/jihwankim/scriptgend/internal/xmltemplate"
)

// InitializeChunk emits the product-setup preamble: the fixed maximum node
// count (64), buffer append/timestamp/source-value flags, and a deduplicated
// per-node module setup table.
type InitializeChunk struct {
	Chunk
}

// NewInitializeChunk loads the catalog's INITIALIZE_XML group and derives its
// substitution map from the live inventory.
func NewInitializeChunk(loader *xmltemplate.Loader, cfg *sweep.Config) (*InitializeChunk, error) {
	g, err := loader.LoadResource(xmltemplate.InitializeXML)
	if err != nil {
		return nil, err
	}
	nodes := map[string]string{}
	for _, d := range cfg.Inventory.Devices {
		if d.InUse {
			nodes[d.NodeID] = d.Module
		}
	}
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	setup := make([]string, 0, len(ids))
	for _, id := range ids {
		setup = append(setup, fmt.Sprintf("%s=%q", id, nodes[id]))
	}
	return &InitializeChunk{Chunk{
		FuncType:    "Initialize",
		Description: "initializes node buffers and product setup before any sweep runs",
		Metadata:    g,
		ValMap: map[string]string{
			"MAX-NODES":          "64",
			"APPEND-MODE":        "false",
			"INCLUDE-TIMESTAMPS": "true",
			"INCLUDE-SRCVALS":    "true",
			"PRODUCT-SETUP":      "{" + strings.Join(setup, ", ") + "}",
		},
	}}, nil
}

// ToScript runs the standard chunk-build algorithm against buf.
func (c *InitializeChunk) ToScript(buf *ScriptBuffer) { c.Build(buf) }

// FinalizeChunk emits the teardown block: node reset and smu.reset().
type FinalizeChunk struct {
	Chunk
}

// NewFinalizeChunk loads the catalog's FINALIZE_XML group.
func NewFinalizeChunk(loader *xmltemplate.Loader) (*FinalizeChunk, error) {
	g, err := loader.LoadResource(xmltemplate.FinalizeXML)
	if err != nil {
		return nil, err
	}
	return &FinalizeChunk{Chunk{
		FuncType:    "Finalize",
		Description: "resets every connected node and the local smu after the run completes",
		Metadata:    g,
		ValMap:      map[string]string{},
	}}, nil
}

// ToScript runs the standard chunk-build algorithm against buf.
func (c *FinalizeChunk) ToScript(buf *ScriptBuffer) { c.Build(buf) }

// SweepChunk emits the timing configuration and channel source/measure
// commands for every bias, step, and sweep channel. Unlike the stubbed
// upstream model this chunk actually builds — a no-channel configuration
// degrades to a postamble comment instead of silently emitting nothing.
type SweepChunk struct {
	Chunk
	cfg *sweep.Config
}

// NewSweepChunk loads the catalog's SWEEP_XML group and derives its
// substitution map from the live sweep configuration's channels.
func NewSweepChunk(loader *xmltemplate.Loader, cfg *sweep.Config) (*SweepChunk, error) {
	g, err := loader.LoadResource(xmltemplate.SweepXML)
	if err != nil {
		return nil, err
	}
	return &SweepChunk{
		Chunk: Chunk{
			FuncType:    "Sweep",
			Description: "configures per-channel timing and source/measure commands for this run",
			Metadata:    g,
			ValMap: map[string]string{
				"TIMING-COMMANDS":  timingCommands(cfg),
				"CHANNEL-COMMANDS": channelCommands(cfg),
			},
		},
		cfg: cfg,
	}
}

// ToScript builds the sweep body, or appends an explanatory postamble
// comment when the configuration has no step or sweep channel to drive it.
func (c *SweepChunk) ToScript(buf *ScriptBuffer) {
	if len(c.cfg.StepChannels) == 0 && len(c.cfg.SweepChannels) == 0 {
		buf.Postpend("-- no sweep generated ... requires at least 1 step channel or 1 sweep channel")
		return
	}
	c.Build(buf)
}

func timingCommands(cfg *sweep.Config) string {
	t := cfg.GlobalParameters.TimingConfig
	lines := []string{
		fmt.Sprintf("nplc = %s", Format(t.NPLC.Value)),
		fmt.Sprintf("measureCount = %d", t.MeasureCount.Value),
		fmt.Sprintf("measureDelay = %s", Format(t.MeasureDelay.Value)),
		fmt.Sprintf("highSpeedSampling = %t", t.HighSpeedSampling),
	}
	if t.HighSpeedSampling {
		lines = append(lines,
			fmt.Sprintf("samplingInterval = %s", Format(t.SamplingInterval.Value)),
			fmt.Sprintf("samplingCount = %d", t.SamplingCount.Value))
	}
	return strings.Join(lines, "\n")
}

func channelCommands(cfg *sweep.Config) string {
	var lines []string
	for _, ch := range cfg.BiasChannels {
		lines = append(lines, biasCommand(ch))
	}
	for _, ch := range cfg.StepChannels {
		lines = append(lines, startStopCommand(ch))
	}
	for _, ch := range cfg.SweepChannels {
		lines = append(lines, startStopCommand(ch))
	}
	return strings.Join(lines, "\n")
}

func biasCommand(ch *channel.Channel) string {
	return fmt.Sprintf("-- %s: source.func=%s, level=%s", ch.Common.ChanName,
		ch.Common.SourceFunction.Value, Format(ch.Bias.Value))
}

func startStopCommand(ch *channel.Channel) string {
	ss := ch.StartStop
	return fmt.Sprintf("-- %s: source.func=%s, start=%s, stop=%s, style=%s, points=%d",
		ch.Common.ChanName, ch.Common.SourceFunction.Value,
		Format(ss.Start.Value), Format(ss.Stop.Value), ss.Style.Value, len(ss.List))
}

// DataReportChunk emits the tag vocabulary and reading-buffer tables the
// collector side keys off of when parsing streamed sweep output.
type DataReportChunk struct {
	Chunk
}

// NewDataReportChunk loads the catalog's DATA_REPORT_XML group and derives
// its substitution map — including the reading-buffer tables the upstream
// model left as an unpopulated TODO — from the live sweep configuration.
func NewDataReportChunk(loader *xmltemplate.Loader, cfg *sweep.Config) (*DataReportChunk, error) {
	g, err := loader.LoadResource(xmltemplate.DataReportXML)
	if err != nil {
		return nil, err
	}

	var names, smuNames []string
	for _, chans := range [][]*channel.Channel{cfg.StepChannels, cfg.SweepChannels, cfg.BiasChannels} {
		for _, ch := range chans {
			name := ch.Common.ChanName
			names = append(names, fmt.Sprintf("%q", name+"buffer"))
			smuNames = append(smuNames, fmt.Sprintf("%q", name))
		}
	}

	maxReadings := cfg.GlobalParameters.TimingConfig.MeasureCount.Value
	if cfg.GlobalParameters.TimingConfig.HighSpeedSampling {
		maxReadings = cfg.GlobalParameters.TimingConfig.SamplingCount.Value
	}

	return &DataReportChunk{Chunk{
		FuncType:    "DataReport",
		Description: "streams sweep data back as tagged records the collector can parse incrementally",
		Metadata:    g,
		ValMap: map[string]string{
			"READING-BUFFERS":           strings.Join(names, ", "),
			"READING-BUFFER-NAMES":      strings.Join(names, ", "),
			"READING-BUFFER-SMU-NAMES":  strings.Join(smuNames, ", "),
			"WAIT-INTERVAL":             "0.01",
			"MAX-READINGS-TO-RETURN":    fmt.Sprintf("%d", maxReadings),
			"TAG-DATA-REPORT":           "DATA_REPORT",
			"TAG-SWEEP-START":           "SWEEP_START",
			"TAG-START":                 "START",
			"TAG-EXPECTED-COUNT":        "EXPECTED_COUNT",
			"TAG-NAME":                  "NAME",
			"TAG-PTS-IN-BUFF":           "PTS_IN_BUFF",
			"TAG-PTS-RETURNED":          "PTS_RETURNED",
			"TAG-BASE-TIME-STAMP":       "BASE_TIME_STAMP",
			"TAG-READINGS":              "READINGS",
			"TAG-TIMESTAMPS":            "TIMESTAMPS",
			"TAG-SRCVALS":               "SRCVALS",
			"TAG-END":                   "END",
			"TAG-COMPLETE":              "COMPLETE",
		},
	}}, nil
}

// ToScript runs the standard chunk-build algorithm against buf.
func (c *DataReportChunk) ToScript(buf *ScriptBuffer) { c.Build(buf) }
