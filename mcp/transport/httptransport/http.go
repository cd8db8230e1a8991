// Package httptransport carries MCP messages over HTTP POST at one fixed
// path, one request/response exchange per tool invocation. A liveness path
// returns static identifying information.
package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"

	"github.com/xrpl-agent/gateway/mcp/transport"
)

var logger = xlog.NewPackageLogger("github.com/xrpl-agent/gateway", "httptransport")

// HTTPTransport is a stateless HTTP transport for MCP.
type HTTPTransport struct {
	server         *http.Server
	endpoint       string
	addr           string
	healthPath     string
	healthBody     []byte
	messageHandler func(ctx context.Context, message *transport.BaseJsonRpcMessage)
	errorHandler   func(error)
	closeHandler   func()
	mu             sync.RWMutex
	responseMap    map[int64]chan *transport.BaseJsonRpcMessage
	atomicCounter  int64
}

// NewHTTPTransport creates a transport listening for POSTs at endpoint.
func NewHTTPTransport(endpoint string) *HTTPTransport {
	return &HTTPTransport{
		endpoint:    endpoint,
		responseMap: make(map[int64]chan *transport.BaseJsonRpcMessage),
		addr:        ":8080",
	}
}

// WithAddr sets the listen address.
func (t *HTTPTransport) WithAddr(addr string) *HTTPTransport {
	t.addr = addr
	return t
}

// WithHealth serves a static identity body at the given path.
func (t *HTTPTransport) WithHealth(path string, body []byte) *HTTPTransport {
	t.healthPath = path
	t.healthBody = body
	return t
}

// Start implements Transport.Start; blocks serving HTTP.
func (t *HTTPTransport) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc(t.endpoint, t.handleRequest)
	if t.healthPath != "" {
		mux.HandleFunc(t.healthPath, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(t.healthBody)
		})
	}

	t.server = &http.Server{
		Addr:    t.addr,
		Handler: mux,
	}
	logger.KV(xlog.INFO, "addr", t.addr, "endpoint", t.endpoint)
	return t.server.ListenAndServe()
}

// Send implements Transport.Send.
func (t *HTTPTransport) Send(ctx context.Context, message *transport.BaseJsonRpcMessage) error {
	if message.Type == transport.BaseMessageTypeJSONRPCNotificationType {
		// Notifications have no waiting HTTP exchange.
		return nil
	}
	key := int64(message.MessageID())

	t.mu.RLock()
	responseChannel := t.responseMap[key]
	t.mu.RUnlock()
	if responseChannel == nil {
		return errors.Errorf("no response channel found for key: %d", key)
	}
	responseChannel <- message
	return nil
}

// Close implements Transport.Close.
func (t *HTTPTransport) Close() error {
	if t.server != nil {
		if err := t.server.Close(); err != nil {
			return err
		}
	}
	if t.closeHandler != nil {
		t.closeHandler()
	}
	return nil
}

// SetCloseHandler implements Transport.SetCloseHandler.
func (t *HTTPTransport) SetCloseHandler(handler func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeHandler = handler
}

// SetErrorHandler implements Transport.SetErrorHandler.
func (t *HTTPTransport) SetErrorHandler(handler func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errorHandler = handler
}

// SetMessageHandler implements Transport.SetMessageHandler.
func (t *HTTPTransport) SetMessageHandler(handler func(ctx context.Context, message *transport.BaseJsonRpcMessage)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messageHandler = handler
}

func (t *HTTPTransport) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Only POST method is supported", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.reportError(errors.Wrap(err, "failed to read request body"))
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	response, err := t.handleMessage(r.Context(), body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	jsonData, err := json.Marshal(response)
	if err != nil {
		t.reportError(errors.Wrap(err, "failed to marshal response"))
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(jsonData)
}

// handleMessage hands one wire message to the protocol layer and blocks
// until the correlated response arrives. Request ids are remapped to a
// process-unique key while in flight, so concurrent HTTP exchanges with
// colliding caller ids do not cross wires.
func (t *HTTPTransport) handleMessage(ctx context.Context, body []byte) (*transport.BaseJsonRpcMessage, error) {
	key := atomic.AddInt64(&t.atomicCounter, 1)
	ch := make(chan *transport.BaseJsonRpcMessage, 1)
	t.mu.Lock()
	t.responseMap[key] = ch
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.responseMap, key)
		t.mu.Unlock()
	}()

	t.mu.RLock()
	handler := t.messageHandler
	t.mu.RUnlock()
	if handler == nil {
		return nil, errors.New("no message handler set")
	}

	var request transport.BaseJSONRPCRequest
	if err := json.Unmarshal(body, &request); err == nil {
		prevID := request.Id
		request.Id = transport.RequestId(key)
		handler(ctx, transport.NewBaseMessageRequest(&request))

		response := <-ch
		if response.JsonRpcResponse != nil {
			response.JsonRpcResponse.Id = prevID
		}
		if response.JsonRpcError != nil {
			response.JsonRpcError.Id = prevID
		}
		return response, nil
	}

	var notification transport.BaseJSONRPCNotification
	if err := json.Unmarshal(body, &notification); err == nil {
		handler(ctx, transport.NewBaseMessageNotification(&notification))
		// Notifications get an empty ack body.
		return &transport.BaseJsonRpcMessage{
			Type: transport.BaseMessageTypeJSONRPCResponseType,
			JsonRpcResponse: &transport.BaseJSONRPCResponse{
				Jsonrpc: "2.0",
				Result:  json.RawMessage("null"),
			},
		}, nil
	}

	return nil, errors.New("unrecognized message shape")
}

func (t *HTTPTransport) reportError(err error) {
	t.mu.RLock()
	handler := t.errorHandler
	t.mu.RUnlock()
	if handler != nil {
		handler(err)
	}
}
