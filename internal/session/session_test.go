package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jihwankim/scriptgend/internal/evaluator"
	"github.com/jihwankim/scriptgend/internal/metadata"
	"github.com/jihwankim/scriptgend/internal/sweep"
	"github.com/jihwankim/scriptgend/internal/xmltemplate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalWatchStopIsIdempotentAndClosesOnce(t *testing.T) {
	w := NewSignalWatch()
	w.Stop()
	w.Stop() // must not panic on double-close
	select {
	case <-w.Done():
	default:
		t.Fatal("expected Done() to be closed")
	}
}

func TestStdinControllerShutdownTokenStopsWatch(t *testing.T) {
	cfg := sweep.New(metadata.NewRegistry())
	d := evaluator.NewDispatcher(cfg, make(chan struct{}, 100), nil, nil)
	w := NewSignalWatch()
	c := NewStdinController(d, w, "", nil)

	c.Run(strings.NewReader("shutdown\n"))
	select {
	case <-w.Done():
	default:
		t.Fatal("expected shutdown token to trigger the signal watch")
	}
}

func TestStdinControllerReloadInjectsSystemInfo(t *testing.T) {
	cfg := sweep.New(metadata.NewRegistry())
	trigger := make(chan struct{}, 100)
	d := evaluator.NewDispatcher(cfg, trigger, nil, nil)
	w := NewSignalWatch()

	path := filepath.Join(t.TempDir(), "reload.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"systems":[{"isActive":true,"localNode":"MP5103","slots":[{"slotId":"slot[1]","module":"MSMU60-2"}]}]}`), 0o644))

	c := NewStdinController(d, w, path, nil)
	c.Run(strings.NewReader("reload\n"))

	assert.Len(t, cfg.Inventory.Devices, 2)
	select {
	case <-trigger:
	default:
		t.Fatal("expected reload to signal emission")
	}
}

func TestEmissionListenerWritesScriptOnTrigger(t *testing.T) {
	cfg := sweep.New(metadata.NewRegistry())
	info := `{"systems":[{"isActive":true,"localNode":"MP5103","slots":[{"slotId":"slot[1]","module":"MSMU60-2"},{"slotId":"slot[2]","module":"MSMU60-2"},{"slotId":"slot[3]","module":"MPSU50-2ST"}]}]}`
	trigger := make(chan struct{}, 100)
	d := evaluator.NewDispatcher(cfg, trigger, nil, nil)
	d.Dispatch(evaluator.Envelope{RequestType: evaluator.TypeSystemInfo, JSONValue: info})
	<-trigger // drain the signal the system_info dispatch produced

	loader := xmltemplate.NewLoader(xmltemplate.DefaultResources(), "1.0.0")
	path := filepath.Join(t.TempDir(), "Snippet.txt")
	listener := NewEmissionListener(d, trigger, loader, path, nil, nil)

	done := make(chan struct{})
	go func() {
		listener.Run(done)
	}()

	trigger <- struct{}{}
	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 10*time.Millisecond)
	close(done)
}

func TestTransportRoundTripsGetData(t *testing.T) {
	cfg := sweep.New(metadata.NewRegistry())
	d := evaluator.NewDispatcher(cfg, make(chan struct{}, 100), nil, nil)
	transport := NewTransport(d, nil)

	srv := httptest.NewServer(http.HandlerFunc(transport.ServeHTTP))
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	req, err := json.Marshal(evaluator.Envelope{RequestType: evaluator.TypeGetData})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, req))

	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var resp evaluator.Envelope
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, evaluator.TypeInitialResp, resp.RequestType)
}
