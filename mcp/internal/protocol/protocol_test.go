package protocol_test

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xrpl-agent/gateway/mcp/internal/protocol"
	"github.com/xrpl-agent/gateway/mcp/transport"
	"github.com/xrpl-agent/gateway/mcp/transport/stdiotransport"
)

// newConnectedPair wires two protocol instances together with crossed pipes,
// so whatever one side sends the other side receives.
func newConnectedPair(t *testing.T) (client, server *protocol.Protocol) {
	t.Helper()

	clientIn, serverOut := io.Pipe()
	serverIn, clientOut := io.Pipe()

	client = protocol.NewProtocol()
	server = protocol.NewProtocol()

	go func() { _ = client.Connect(stdiotransport.NewPipeTransport(clientIn, clientOut)) }()
	go func() { _ = server.Connect(stdiotransport.NewPipeTransport(serverIn, serverOut)) }()

	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
		_ = clientIn.Close()
		_ = serverIn.Close()
	})

	// Connect installs the transport before blocking in the read loop; the
	// pause lets both goroutines reach that point.
	time.Sleep(20 * time.Millisecond)
	return client, server
}

func Test_RequestRoundTrip(t *testing.T) {
	client, server := newConnectedPair(t)

	var gotParams json.RawMessage
	server.SetRequestHandler("status/get", func(_ context.Context, req *transport.BaseJSONRPCRequest, _ protocol.RequestHandlerExtra) (transport.JsonRpcBody, error) {
		gotParams = req.Params
		return map[string]any{"state": "ok"}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := client.Request(ctx, "status/get", map[string]any{"verbose": true}, nil)
	require.NoError(t, err)

	raw, ok := result.(json.RawMessage)
	require.True(t, ok)
	assert.JSONEq(t, `{"state":"ok"}`, string(raw))
	assert.JSONEq(t, `{"verbose":true}`, string(gotParams))
}

func Test_RequestUnknownMethod(t *testing.T) {
	client, _ := newConnectedPair(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Request(ctx, "no/such/method", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RPC error -32000")
	assert.Contains(t, err.Error(), "method not found: no/such/method")
}

func Test_RequestHandlerError(t *testing.T) {
	client, server := newConnectedPair(t)

	server.SetRequestHandler("status/get", func(context.Context, *transport.BaseJSONRPCRequest, protocol.RequestHandlerExtra) (transport.JsonRpcBody, error) {
		return nil, io.ErrUnexpectedEOF
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Request(ctx, "status/get", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected EOF")
}

func Test_NotificationDelivery(t *testing.T) {
	client, server := newConnectedPair(t)

	received := make(chan json.RawMessage, 1)
	server.SetNotificationHandler("notifications/tools/list_changed", func(n *transport.BaseJSONRPCNotification) error {
		received <- n.Params
		return nil
	})

	require.NoError(t, client.Notification("notifications/tools/list_changed", nil))

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("notification was not delivered")
	}
}

func Test_RequestTimeout(t *testing.T) {
	client, server := newConnectedPair(t)

	server.SetRequestHandler("status/get", func(ctx context.Context, _ *transport.BaseJSONRPCRequest, _ protocol.RequestHandlerExtra) (transport.JsonRpcBody, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	_, err := client.Request(context.Background(), "status/get", nil, &protocol.RequestOptions{
		Timeout: 50 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request timeout")
}

func Test_NotConnected(t *testing.T) {
	p := protocol.NewProtocol()

	_, err := p.Request(context.Background(), "status/get", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")

	err = p.Notification("notifications/tools/list_changed", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}
