package evaluator

import (
	"sync"

	"github.com/jihwankim/scriptgend/internal/observability"
	"github.com/jihwankim/scriptgend/internal/sweep"
)

// Dispatcher runs the §4.J request paths against one sweep configuration,
// serialized by a single mutual-exclusion guard, and signals the
// script-trigger broadcaster on every successful mutation.
type Dispatcher struct {
	mu      sync.Mutex
	config  *sweep.Config
	trigger chan struct{}
	metrics *observability.Metrics
	logger  *observability.Logger
}

// NewDispatcher constructs a Dispatcher around an already-initialized sweep
// configuration. trigger is a capacity-100 broadcast channel a dedicated
// listener task drains to walk §4.I and write the script artifact; a full
// channel drops the tick rather than blocking, since the listener always
// re-reads the latest configuration on its next wake.
func NewDispatcher(config *sweep.Config, trigger chan struct{}, metrics *observability.Metrics, logger *observability.Logger) *Dispatcher {
	return &Dispatcher{config: config, trigger: trigger, metrics: metrics, logger: logger}
}

// Config returns the guarded sweep configuration. Callers outside Dispatch
// (e.g. the script-emission listener) must not mutate it without holding
// the same lock Dispatch uses internally; use WithConfig for that.
func (d *Dispatcher) Config() *sweep.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.config
}

// WithConfig runs fn with the data-model guard held, for callers (the
// script-emission listener) that need a consistent read of the current
// configuration.
func (d *Dispatcher) WithConfig(fn func(*sweep.Config)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.config)
}

func (d *Dispatcher) signalEmission() {
	select {
	case d.trigger <- struct{}{}:
	default:
	}
}

// Dispatch runs the request path named by req.RequestType and returns the
// response envelope. Unknown types are logged and ignored, returning a
// zero-value response with an empty RequestType so callers can detect and
// skip sending anything back.
func (d *Dispatcher) Dispatch(req Envelope) Envelope {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.metrics != nil {
		d.metrics.RequestsTotal.WithLabelValues(req.RequestType).Inc()
	}

	switch req.RequestType {
	case TypeGetData:
		return d.handleGetData()
	case TypeSystemInfo:
		return d.handleSystemInfo(req)
	case TypeEvaluateData:
		return d.handleEvaluateData(req)
	case TypeReallocation:
		return d.handleReallocation(req)
	default:
		if d.logger != nil {
			d.logger.Warn("unknown request type", "request_type", req.RequestType)
		}
		return Envelope{}
	}
}

func (d *Dispatcher) handleGetData() Envelope {
	if len(d.config.Inventory.Devices) == 0 {
		d.config.AutoConfigure()
	}
	return Envelope{RequestType: TypeInitialResp, JSONValue: mustEncode(d.config)}
}

func (d *Dispatcher) handleSystemInfo(req Envelope) Envelope {
	info, err := decodeSystemInfo(req.JSONValue)
	if err != nil {
		return errorEnvelope(err.Error())
	}
	d.config.IngestSystemInfo(info)
	d.signalEmission()
	return Envelope{RequestType: TypeInitialResp, JSONValue: mustEncode(d.config)}
}

func (d *Dispatcher) handleEvaluateData(req Envelope) Envelope {
	wire, err := decodeSweepModel(req.JSONValue)
	if err != nil {
		return errorEnvelope(err.Error())
	}
	wire.applyTo(d.config)
	d.config.Evaluate()
	if d.metrics != nil {
		d.metrics.EvaluationsTotal.Inc()
	}
	d.signalEmission()
	return Envelope{RequestType: TypeEvaluatedResp, JSONValue: mustEncode(d.config)}
}

func (d *Dispatcher) handleReallocation(req Envelope) Envelope {
	wire, err := decodeSweepModel(req.JSONValue)
	if err != nil {
		return errorEnvelope(err.Error())
	}
	wire.applyTo(d.config)

	op, args, err := parseReallocation(req.AdditionalInfo)
	if err != nil {
		return errorEnvelope(err.Error())
	}

	switch op {
	case "add":
		if len(args) < 1 {
			return errorEnvelope("evaluator: add requires a channel kind")
		}
		kind, ok := parseKind(args[0])
		if !ok {
			return errorEnvelope("evaluator: unknown channel kind " + args[0])
		}
		d.config.AddChannel(kind)
	case "remove":
		if len(args) < 1 {
			return errorEnvelope("evaluator: remove requires a device id")
		}
		d.config.RemoveChannel(args[0])
	case "update":
		if len(args) < 3 {
			return errorEnvelope("evaluator: update requires kind,oldId,newId")
		}
		kind, ok := parseKind(args[0])
		if !ok {
			return errorEnvelope("evaluator: unknown channel kind " + args[0])
		}
		d.config.UpdateChannel(kind, args[1], args[2])
	default:
		return errorEnvelope("evaluator: unknown reallocation op " + op)
	}

	d.config.Evaluate()
	d.signalEmission()
	return Envelope{RequestType: TypeEvaluatedResp, JSONValue: mustEncode(d.config)}
}
