package evaluator

import (
	"encoding/json"
	"testing"

	"github.com/jihwankim/scriptgend/internal/device"
	"github.com/jihwankim/scriptgend/internal/metadata"
	"github.com/jihwankim/scriptgend/internal/sweep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatcher() *Dispatcher {
	cfg := sweep.New(metadata.NewRegistry())
	return NewDispatcher(cfg, make(chan struct{}, 100), nil, nil)
}

func s1InfoJSON(t *testing.T) string {
	info := device.SystemInfo{Systems: []device.System{{
		IsActive: true, LocalNode: "MP5103",
		Slots: []device.Slot{
			{SlotID: "slot[1]", Module: "MSMU60-2"},
			{SlotID: "slot[2]", Module: "MSMU60-2"},
			{SlotID: "slot[3]", Module: "MPSU50-2ST"},
		},
	}}}
	body, err := json.Marshal(info)
	require.NoError(t, err)
	return string(body)
}

func TestGetDataAutoConfiguresWhenEmpty(t *testing.T) {
	d := newDispatcher()
	resp := d.Dispatch(Envelope{RequestType: TypeGetData})
	assert.Equal(t, TypeInitialResp, resp.RequestType)
	assert.NotEmpty(t, resp.JSONValue)
}

func TestSystemInfoBuildsInventoryAndSignalsEmission(t *testing.T) {
	d := newDispatcher()
	resp := d.Dispatch(Envelope{RequestType: TypeSystemInfo, JSONValue: s1InfoJSON(t)})
	assert.Equal(t, TypeInitialResp, resp.RequestType)

	select {
	case <-d.trigger:
	default:
		t.Fatal("expected an emission trigger signal")
	}

	assert.Len(t, d.config.Inventory.Devices, 6)
	assert.Len(t, d.config.StepChannels, 1)
}

func TestReallocationAddCreatesChannel(t *testing.T) {
	d := newDispatcher()
	d.Dispatch(Envelope{RequestType: TypeSystemInfo, JSONValue: s1InfoJSON(t)})
	<-d.trigger

	before := len(d.config.BiasChannels)
	resp := d.Dispatch(Envelope{RequestType: TypeReallocation, AdditionalInfo: "add,bias", JSONValue: "{}"})
	assert.Equal(t, TypeEvaluatedResp, resp.RequestType)
	assert.Len(t, d.config.BiasChannels, before+1) // 3 of the 6 devices are still free after auto-configure
}

func TestReallocationUnknownOpErrors(t *testing.T) {
	d := newDispatcher()
	resp := d.Dispatch(Envelope{RequestType: TypeReallocation, AdditionalInfo: "bogus", JSONValue: "{}"})
	assert.Equal(t, TypeError, resp.RequestType)
}

func TestUnknownRequestTypeIgnored(t *testing.T) {
	d := newDispatcher()
	resp := d.Dispatch(Envelope{RequestType: "made_up"})
	assert.Equal(t, "", resp.RequestType)
}

func TestEvaluateDataMalformedJSONReturnsError(t *testing.T) {
	d := newDispatcher()
	resp := d.Dispatch(Envelope{RequestType: TypeEvaluateData, JSONValue: "not json"})
	assert.Equal(t, TypeError, resp.RequestType)
}
