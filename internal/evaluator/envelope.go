// Package evaluator implements the request dispatch seam between the
// transport layer and the sweep configuration: envelope decoding, the
// get_data/system_info/evaluate_data/reallocation request paths, and the
// callback hook that triggers script emission on a successful mutation.
package evaluator

import (
	"encoding/json"
	"fmt"

	"github.com/jihwankim/scriptgend/internal/channel"
	"github.com/jihwankim/scriptgend/internal/device"
	"github.com/jihwankim/scriptgend/internal/sweep"
)

// Request type taxonomy (spec.md §4.J / §6).
const (
	TypeGetData       = "get_data"
	TypeSystemInfo    = "system_info"
	TypeEvaluateData  = "evaluate_data"
	TypeReallocation  = "reallocation"
	TypeInitialResp   = "initial_response"
	TypeEvaluatedResp = "evaluated_response"
	TypeError         = "error"
)

// Envelope is the wire message shape shared by every request and response
// (spec.md §6 "JSON message envelope").
type Envelope struct {
	RequestType    string `json:"request_type"`
	AdditionalInfo string `json:"additional_info"`
	JSONValue      string `json:"json_value"`
}

func errorEnvelope(msg string) Envelope {
	return Envelope{RequestType: TypeError, AdditionalInfo: msg}
}

func mustEncode(v interface{}) string {
	body, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(body)
}

// parseReallocation splits "add|remove|update,arg1[,arg2[,arg3]]" into its
// operation and positional arguments.
func parseReallocation(additionalInfo string) (op string, args []string, err error) {
	var fields []string
	start := 0
	for i, r := range additionalInfo {
		if r == ',' {
			fields = append(fields, additionalInfo[start:i])
			start = i + 1
		}
	}
	fields = append(fields, additionalInfo[start:])
	if len(fields) == 0 || fields[0] == "" {
		return "", nil, fmt.Errorf("evaluator: empty reallocation operation")
	}
	return fields[0], fields[1:], nil
}

func parseKind(s string) (channel.Kind, bool) {
	switch s {
	case "bias":
		return channel.Bias, true
	case "step":
		return channel.Step, true
	case "sweep":
		return channel.Sweep, true
	default:
		return 0, false
	}
}

func decodeSystemInfo(raw string) (device.SystemInfo, error) {
	var info device.SystemInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return device.SystemInfo{}, err
	}
	return info, nil
}

func decodeSweepModel(raw string) (*wireConfig, error) {
	var w wireConfig
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// wireConfig is the subset of sweep.Config's shape a client is allowed to
// push through evaluate_data: the mutable global/channel fields, not the
// server-owned device inventory or status slot.
type wireConfig struct {
	GlobalParameters      *sweep.GlobalParameters      `json:"GlobalParameters"`
	BiasChannels          []*channel.Channel            `json:"BiasChannels"`
	StepChannels          []*channel.Channel            `json:"StepChannels"`
	SweepChannels         []*channel.Channel            `json:"SweepChannels"`
	StepGlobalParameters  *sweep.StepGlobalParameters  `json:"StepGlobalParameters"`
	SweepGlobalParameters *sweep.SweepGlobalParameters `json:"SweepGlobalParameters"`
}

func (w *wireConfig) applyTo(cfg *sweep.Config) {
	if w.GlobalParameters != nil {
		cfg.GlobalParameters = w.GlobalParameters
	}
	if w.BiasChannels != nil {
		cfg.BiasChannels = w.BiasChannels
	}
	if w.StepChannels != nil {
		cfg.StepChannels = w.StepChannels
	}
	if w.SweepChannels != nil {
		cfg.SweepChannels = w.SweepChannels
	}
	if w.StepGlobalParameters != nil {
		cfg.StepGlobalParameters = w.StepGlobalParameters
	}
	if w.SweepGlobalParameters != nil {
		cfg.SweepGlobalParameters = w.SweepGlobalParameters
	}
}
