// Package transport defines the wire-message union and the Transport
// interface shared by the stdio and HTTP transports.
package transport

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// RequestId is a JSON-RPC request identifier.
type RequestId int64

// JsonRpcBody is any JSON-serializable response body.
type JsonRpcBody any

// BaseJSONRPCRequest is an incoming request expecting a response.
type BaseJSONRPCRequest struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	Id      RequestId       `json:"id"`
}

type baseJSONRPCRequestAlias BaseJSONRPCRequest

// UnmarshalJSON enforces the request shape: jsonrpc, method and id must all
// be present, so notifications and responses do not decode as requests.
func (m *BaseJSONRPCRequest) UnmarshalJSON(data []byte) error {
	var probe struct {
		Jsonrpc *string    `json:"jsonrpc"`
		Method  *string    `json:"method"`
		Id      *RequestId `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Jsonrpc == nil || probe.Method == nil || probe.Id == nil {
		return errors.New("not a jsonrpc request")
	}
	return json.Unmarshal(data, (*baseJSONRPCRequestAlias)(m))
}

// BaseJSONRPCNotification is a one-way message carrying no id.
type BaseJSONRPCNotification struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type baseJSONRPCNotificationAlias BaseJSONRPCNotification

func (m *BaseJSONRPCNotification) UnmarshalJSON(data []byte) error {
	var probe struct {
		Method *string         `json:"method"`
		Id     json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Method == nil || probe.Id != nil {
		return errors.New("not a jsonrpc notification")
	}
	return json.Unmarshal(data, (*baseJSONRPCNotificationAlias)(m))
}

// BaseJSONRPCResponse is a success response.
type BaseJSONRPCResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Id      RequestId       `json:"id"`
}

type baseJSONRPCResponseAlias BaseJSONRPCResponse

func (m *BaseJSONRPCResponse) UnmarshalJSON(data []byte) error {
	var probe struct {
		Result json.RawMessage `json:"result"`
		Id     *RequestId      `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Result == nil || probe.Id == nil {
		return errors.New("not a jsonrpc response")
	}
	return json.Unmarshal(data, (*baseJSONRPCResponseAlias)(m))
}

// BaseJSONRPCErrorInner is the error member of an error response.
type BaseJSONRPCErrorInner struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// BaseJSONRPCError is an error response.
type BaseJSONRPCError struct {
	Jsonrpc string                `json:"jsonrpc"`
	Id      RequestId             `json:"id"`
	Error   BaseJSONRPCErrorInner `json:"error"`
}

// MessageType discriminates the union below.
type MessageType string

const (
	BaseMessageTypeJSONRPCRequestType      MessageType = "request"
	BaseMessageTypeJSONRPCNotificationType MessageType = "notification"
	BaseMessageTypeJSONRPCResponseType     MessageType = "response"
	BaseMessageTypeJSONRPCErrorType        MessageType = "error"
)

// BaseJsonRpcMessage is the partially-deserialized wire message handed to
// the protocol layer.
type BaseJsonRpcMessage struct {
	Type                MessageType
	JsonRpcRequest      *BaseJSONRPCRequest
	JsonRpcNotification *BaseJSONRPCNotification
	JsonRpcResponse     *BaseJSONRPCResponse
	JsonRpcError        *BaseJSONRPCError
}

func NewBaseMessageRequest(request *BaseJSONRPCRequest) *BaseJsonRpcMessage {
	return &BaseJsonRpcMessage{Type: BaseMessageTypeJSONRPCRequestType, JsonRpcRequest: request}
}

func NewBaseMessageNotification(notification *BaseJSONRPCNotification) *BaseJsonRpcMessage {
	return &BaseJsonRpcMessage{Type: BaseMessageTypeJSONRPCNotificationType, JsonRpcNotification: notification}
}

func NewBaseMessageResponse(response *BaseJSONRPCResponse) *BaseJsonRpcMessage {
	return &BaseJsonRpcMessage{Type: BaseMessageTypeJSONRPCResponseType, JsonRpcResponse: response}
}

func NewBaseMessageError(err *BaseJSONRPCError) *BaseJsonRpcMessage {
	return &BaseJsonRpcMessage{Type: BaseMessageTypeJSONRPCErrorType, JsonRpcError: err}
}

// MessageID returns the id of the inner message, or -1 for notifications.
func (m *BaseJsonRpcMessage) MessageID() RequestId {
	switch m.Type {
	case BaseMessageTypeJSONRPCRequestType:
		return m.JsonRpcRequest.Id
	case BaseMessageTypeJSONRPCResponseType:
		return m.JsonRpcResponse.Id
	case BaseMessageTypeJSONRPCErrorType:
		return m.JsonRpcError.Id
	default:
		return -1
	}
}

// MarshalJSON serializes the active member of the union.
func (m *BaseJsonRpcMessage) MarshalJSON() ([]byte, error) {
	switch m.Type {
	case BaseMessageTypeJSONRPCRequestType:
		return json.Marshal(m.JsonRpcRequest)
	case BaseMessageTypeJSONRPCNotificationType:
		return json.Marshal(m.JsonRpcNotification)
	case BaseMessageTypeJSONRPCResponseType:
		return json.Marshal(m.JsonRpcResponse)
	case BaseMessageTypeJSONRPCErrorType:
		return json.Marshal(m.JsonRpcError)
	default:
		return nil, errors.Errorf("unknown message type: %s", m.Type)
	}
}

// Transport is a bidirectional JSON-RPC message carrier. Implementations:
// stdiotransport (persistent local stream) and httptransport (request/response
// at one fixed path).
type Transport interface {
	// Start begins processing messages, blocking for listener transports.
	Start(ctx context.Context) error
	// Send transmits a message to the remote side.
	Send(ctx context.Context, message *BaseJsonRpcMessage) error
	// Close terminates the connection.
	Close() error
	// SetCloseHandler registers the callback invoked when the connection closes.
	SetCloseHandler(handler func())
	// SetErrorHandler registers the callback for out-of-band errors.
	SetErrorHandler(handler func(error))
	// SetMessageHandler registers the callback for received messages.
	SetMessageHandler(handler func(ctx context.Context, message *BaseJsonRpcMessage))
}
