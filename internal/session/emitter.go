package session

import (
	"github.com/jihwankim/scriptgend/internal/evaluator"
	"github.com/jihwankim/scriptgend/internal/observability"
	"github.com/jihwankim/scriptgend/internal/scriptgen"
	"github.com/jihwankim/scriptgend/internal/sweep"
	"github.com/jihwankim/scriptgend/internal/xmltemplate"
)

// EmissionListener is the dedicated task that drains the script-trigger
// broadcast channel, re-reads the current sweep configuration under the
// dispatcher's guard, and writes the generated script (spec.md §5 task 2).
// It owns the output path exclusively — no other task writes to it.
type EmissionListener struct {
	dispatcher *evaluator.Dispatcher
	trigger    <-chan struct{}
	loader     *xmltemplate.Loader
	scriptPath string
	metrics    *observability.Metrics
	logger     *observability.Logger
}

// NewEmissionListener constructs an EmissionListener.
func NewEmissionListener(dispatcher *evaluator.Dispatcher, trigger <-chan struct{}, loader *xmltemplate.Loader, scriptPath string, metrics *observability.Metrics, logger *observability.Logger) *EmissionListener {
	return &EmissionListener{
		dispatcher: dispatcher,
		trigger:    trigger,
		loader:     loader,
		scriptPath: scriptPath,
		metrics:    metrics,
		logger:     logger,
	}
}

// Run drains triggers until done fires. A dropped tick under channel
// overflow is not fatal: the next tick re-reads the latest configuration
// regardless of how many mutations coalesced into it.
func (l *EmissionListener) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-l.trigger:
			l.emitOnce()
		}
	}
}

func (l *EmissionListener) emitOnce() {
	var emitErr error
	l.dispatcher.WithConfig(func(cfg *sweep.Config) {
		emitter, err := scriptgen.NewEmitter(l.loader, cfg)
		if err != nil {
			emitErr = err
			return
		}
		emitErr = emitter.Emit(l.scriptPath)
	})

	if emitErr != nil {
		if l.metrics != nil {
			l.metrics.ScriptEmitErrorTotal.Inc()
		}
		if l.logger != nil {
			l.logger.Error("script emission failed", "error", emitErr.Error(), "path", l.scriptPath)
		}
		return
	}
	if l.metrics != nil {
		l.metrics.ScriptsEmittedTotal.Inc()
	}
	if l.logger != nil {
		l.logger.Info("script emitted", "path", l.scriptPath)
	}
}
