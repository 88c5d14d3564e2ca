package session

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/jihwankim/scriptgend/internal/evaluator"
	"github.com/jihwankim/scriptgend/internal/observability"
)

// upgrader accepts connections from any origin; the generator is a
// localhost-scoped instrument-control companion process, not a
// multi-tenant public service.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Transport is the duplex-channel task of spec.md §5: it upgrades one HTTP
// connection to a websocket, reads framed JSON envelopes, dispatches each
// one through the guarded evaluator, and writes the response back in the
// same order requests arrived — a single reader goroutine per connection
// serializes that ordering for free.
type Transport struct {
	dispatcher *evaluator.Dispatcher
	logger     *observability.Logger
}

// NewTransport constructs a Transport bound to dispatcher.
func NewTransport(dispatcher *evaluator.Dispatcher, logger *observability.Logger) *Transport {
	return &Transport{dispatcher: dispatcher, logger: logger}
}

// ServeHTTP upgrades the connection and runs the read-dispatch-write loop
// until the client closes the socket or an unrecoverable read error occurs.
func (t *Transport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if t.logger != nil {
			t.logger.Error("websocket upgrade failed", "error", err.Error())
		}
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if _, ok := err.(*websocket.CloseError); !ok && t.logger != nil {
				t.logger.Warn("websocket read error", "error", err.Error())
			}
			return
		}

		var req evaluator.Envelope
		if jsonErr := json.Unmarshal(raw, &req); jsonErr != nil {
			resp := evaluator.Envelope{RequestType: evaluator.TypeError, AdditionalInfo: jsonErr.Error()}
			t.write(conn, &writeMu, resp)
			continue
		}

		resp := t.dispatcher.Dispatch(req)
		if resp.RequestType == "" {
			continue // unknown request type: logged by the dispatcher, nothing to send back
		}
		t.write(conn, &writeMu, resp)
	}
}

func (t *Transport) write(conn *websocket.Conn, mu *sync.Mutex, resp evaluator.Envelope) {
	body, err := json.Marshal(resp)
	if err != nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, body); err != nil && t.logger != nil {
		t.logger.Warn("websocket write error", "error", err.Error())
	}
}
