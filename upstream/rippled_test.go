package upstream_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xrpl-agent/gateway/upstream"
)

func newFakeRippled(t *testing.T, results map[string]string) (*upstream.Rippled, func()) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			Params []any  `json:"params"`
			ID     int64  `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		result, ok := results[req.Method]
		if !ok {
			result = `{"status":"error","error":"unknownCmd","error_message":"Unknown method."}`
		}
		_, _ = w.Write([]byte(`{"result":` + result + `}`))
	}))
	return upstream.NewRippled(upstream.New(server.URL, server.Client())), server.Close
}

func Test_Rippled_Call(t *testing.T) {
	node, closeFn := newFakeRippled(t, map[string]string{
		"server_info": `{"status":"success","info":{"validated_ledger":{"seq":82000123}}}`,
	})
	defer closeFn()

	doc, err := node.Call(context.Background(), "server_info", nil)
	require.NoError(t, err)
	seq, ok := doc.Int64("info.validated_ledger.seq")
	require.True(t, ok)
	assert.Equal(t, int64(82000123), seq)
}

func Test_Rippled_Call_Error(t *testing.T) {
	node, closeFn := newFakeRippled(t, nil)
	defer closeFn()

	_, err := node.Call(context.Background(), "bogus_method", map[string]any{"x": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown method")

	_, ok := node.TryCall(context.Background(), "bogus_method", nil)
	assert.False(t, ok)
}
