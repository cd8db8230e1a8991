// Package stdiotransport carries MCP messages over a persistent local
// stream: newline-delimited JSON-RPC messages read from an input reader and
// written to an output writer, stdin/stdout by default.
package stdiotransport

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/xrpl-agent/gateway/mcp/transport"
)

// StdioTransport implements transport.Transport over an in/out stream pair.
type StdioTransport struct {
	in  io.Reader
	out io.Writer

	mu             sync.RWMutex
	writeMu        sync.Mutex
	messageHandler func(ctx context.Context, message *transport.BaseJsonRpcMessage)
	errorHandler   func(error)
	closeHandler   func()
	done           chan struct{}
}

// NewStdioTransport returns a transport over stdin/stdout.
func NewStdioTransport() *StdioTransport {
	return NewPipeTransport(os.Stdin, os.Stdout)
}

// NewPipeTransport returns a transport over arbitrary streams; used by tests.
func NewPipeTransport(in io.Reader, out io.Writer) *StdioTransport {
	return &StdioTransport{
		in:   in,
		out:  out,
		done: make(chan struct{}),
	}
}

// Start reads newline-delimited messages until EOF or Close. Blocks.
func (t *StdioTransport) Start(ctx context.Context) error {
	scanner := bufio.NewScanner(t.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		select {
		case <-t.done:
			return nil
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		msg, err := deserializeMessage(line)
		if err != nil {
			t.reportError(err)
			continue
		}

		t.mu.RLock()
		handler := t.messageHandler
		t.mu.RUnlock()
		if handler != nil {
			handler(ctx, msg)
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "stdio read failed")
	}
	if t.closeHandler != nil {
		t.closeHandler()
	}
	return nil
}

// Send writes one message followed by a newline.
func (t *StdioTransport) Send(_ context.Context, message *transport.BaseJsonRpcMessage) error {
	bs, err := json.Marshal(message)
	if err != nil {
		return errors.Wrap(err, "failed to marshal message")
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := t.out.Write(append(bs, '\n')); err != nil {
		return errors.Wrap(err, "failed to write message")
	}
	return nil
}

// Close stops the read loop.
func (t *StdioTransport) Close() error {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
	if t.closeHandler != nil {
		t.closeHandler()
	}
	return nil
}

// SetCloseHandler implements Transport.SetCloseHandler.
func (t *StdioTransport) SetCloseHandler(handler func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeHandler = handler
}

// SetErrorHandler implements Transport.SetErrorHandler.
func (t *StdioTransport) SetErrorHandler(handler func(error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errorHandler = handler
}

// SetMessageHandler implements Transport.SetMessageHandler.
func (t *StdioTransport) SetMessageHandler(handler func(ctx context.Context, message *transport.BaseJsonRpcMessage)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messageHandler = handler
}

func (t *StdioTransport) reportError(err error) {
	t.mu.RLock()
	handler := t.errorHandler
	t.mu.RUnlock()
	if handler != nil {
		handler(err)
	}
}

// deserializeMessage partially decodes a wire message, trying the request
// shape first, then notification, response and error.
func deserializeMessage(line []byte) (*transport.BaseJsonRpcMessage, error) {
	var request transport.BaseJSONRPCRequest
	if err := json.Unmarshal(line, &request); err == nil {
		return transport.NewBaseMessageRequest(&request), nil
	}
	var notification transport.BaseJSONRPCNotification
	if err := json.Unmarshal(line, &notification); err == nil {
		return transport.NewBaseMessageNotification(&notification), nil
	}
	var response transport.BaseJSONRPCResponse
	if err := json.Unmarshal(line, &response); err == nil {
		return transport.NewBaseMessageResponse(&response), nil
	}
	var errorResponse transport.BaseJSONRPCError
	if err := json.Unmarshal(line, &errorResponse); err == nil {
		return transport.NewBaseMessageError(&errorResponse), nil
	}
	return nil, errors.New("unrecognized message shape")
}
