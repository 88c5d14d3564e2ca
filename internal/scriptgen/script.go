package scriptgen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jihwankim/scriptgend/internal/sweep"
	"github.com/jihwankim/scriptgend/internal/xmltemplate"
)

// chunk is anything that can append itself to a ScriptBuffer.
type chunk interface {
	ToScript(buf *ScriptBuffer)
}

// Emitter assembles the fixed chunk sequence — Initialize, Sweep,
// DataReport, Finalize — into one generated script (spec.md §4.I
// "ScriptModel"). The upstream chunk ordering comes from seeding
// [Initialize, Finalize] and always inserting new chunks before the last
// entry, which always yields this order for exactly four chunks.
type Emitter struct {
	chunks []chunk
}

// NewEmitter builds the fixed four-chunk pipeline against the live sweep
// configuration, loading each chunk's template from loader.
func NewEmitter(loader *xmltemplate.Loader, cfg *sweep.Config) (*Emitter, error) {
	initialize, err := NewInitializeChunk(loader, cfg)
	if err != nil {
		return nil, fmt.Errorf("scriptgen: initialize chunk: %w", err)
	}
	sweepChunk, err := NewSweepChunk(loader, cfg)
	if err != nil {
		return nil, fmt.Errorf("scriptgen: sweep chunk: %w", err)
	}
	dataReport, err := NewDataReportChunk(loader, cfg)
	if err != nil {
		return nil, fmt.Errorf("scriptgen: data report chunk: %w", err)
	}
	finalize, err := NewFinalizeChunk(loader)
	if err != nil {
		return nil, fmt.Errorf("scriptgen: finalize chunk: %w", err)
	}
	return &Emitter{chunks: []chunk{initialize, sweepChunk, dataReport, finalize}}, nil
}

// ToScript runs every chunk against one fresh ScriptBuffer and returns the
// assembled preamble+body+postamble text.
func (e *Emitter) ToScript() string {
	buf := NewScriptBuffer()
	for _, c := range e.chunks {
		c.ToScript(buf)
	}
	return buf.String()
}

// Emit renders the script and writes it to path, creating parent
// directories as needed.
func (e *Emitter) Emit(path string) error {
	text := e.ToScript()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("scriptgen: create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("scriptgen: write %s: %w", path, err)
	}
	return nil
}
