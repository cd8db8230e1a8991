// Package localtransport is an in-process transport: callers hand a raw
// message to HandleMessage and block until the server's response. Used by
// tests and by embedding the gateway in another process.
package localtransport

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"

	"github.com/xrpl-agent/gateway/mcp/transport"
)

type Transport struct {
	mu             sync.RWMutex
	messageHandler func(ctx context.Context, message *transport.BaseJsonRpcMessage)
	errorHandler   func(error)
	closeHandler   func()
	responseMap    map[int64]chan *transport.BaseJsonRpcMessage
	atomicCounter  int64
}

func New() *Transport {
	return &Transport{
		responseMap: make(map[int64]chan *transport.BaseJsonRpcMessage),
	}
}

// Start does nothing for the in-process transport.
func (s *Transport) Start(ctx context.Context) error {
	return nil
}

// Close closes the connection.
func (s *Transport) Close() error {
	if s.closeHandler != nil {
		s.closeHandler()
	}
	return nil
}

// SetCloseHandler implements Transport.SetCloseHandler.
func (s *Transport) SetCloseHandler(handler func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeHandler = handler
}

// SetErrorHandler implements Transport.SetErrorHandler.
func (s *Transport) SetErrorHandler(handler func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorHandler = handler
}

// SetMessageHandler implements Transport.SetMessageHandler.
func (s *Transport) SetMessageHandler(handler func(ctx context.Context, message *transport.BaseJsonRpcMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messageHandler = handler
}

// Send routes a response back to the blocked HandleMessage call.
func (s *Transport) Send(ctx context.Context, message *transport.BaseJsonRpcMessage) error {
	if message.Type == transport.BaseMessageTypeJSONRPCNotificationType {
		return nil
	}
	key := int64(message.MessageID())

	s.mu.RLock()
	responseChannel := s.responseMap[key]
	s.mu.RUnlock()
	if responseChannel == nil {
		return errors.Errorf("no response channel found for key: %d", key)
	}
	responseChannel <- message
	return nil
}

// HandleMessage processes one incoming message and returns the response.
func (s *Transport) HandleMessage(ctx context.Context, body []byte) (*transport.BaseJsonRpcMessage, error) {
	key := atomic.AddInt64(&s.atomicCounter, 1)
	ch := make(chan *transport.BaseJsonRpcMessage, 1)
	s.mu.Lock()
	s.responseMap[key] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.responseMap, key)
		s.mu.Unlock()
	}()

	s.mu.RLock()
	handler := s.messageHandler
	s.mu.RUnlock()
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
