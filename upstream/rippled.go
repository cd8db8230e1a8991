package upstream

import (
	"context"
	"sync/atomic"

	"github.com/cockroachdb/errors"

	"github.com/xrpl-agent/gateway/jsondoc"
)

// Rippled calls a ledger node's JSON-RPC endpoint. rippled accepts a single
// POST at the base path with `{method, params, id}` and wraps every result
// in a `result` object carrying its own `status` field.
type Rippled struct {
	client *Client
	nextID int64
}

// NewRippled wraps a client for a rippled JSON-RPC endpoint.
func NewRippled(c *Client) *Rippled {
	return &Rippled{client: c}
}

type rpcRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
	ID     int64  `json:"id"`
}

// Call invokes one JSON-RPC method. params may be nil for parameterless
// methods. The returned document is the inner `result` object.
func (r *Rippled) Call(ctx context.Context, method string, params map[string]any) (jsondoc.Doc, error) {
	req := rpcRequest{
		Method: method,
		ID:     atomic.AddInt64(&r.nextID, 1),
	}
	if params != nil {
		req.Params = []any{params}
	} else {
		req.Params = []any{}
	}

	doc, err := r.client.FetchWithBody(ctx, "/", "POST", req)
	if err != nil {
		return jsondoc.Doc{}, err
	}

	result := doc.Get("result")
	if !result.Exists() {
		return jsondoc.Doc{}, errors.Errorf("rippled %s: malformed response, no result", method)
	}
	inner := jsondoc.FromBytes([]byte(result.Raw))
	if inner.Str("status") == "error" {
		msg := inner.Str("error_message")
		if msg == "" {
			msg = inner.Str("error")
		}
		return jsondoc.Doc{}, errors.Errorf("rippled %s: %s", method, msg)
	}
	return inner, nil
}

// TryCall is Call with soft-fetch semantics: any failure becomes absence.
func (r *Rippled) TryCall(ctx context.Context, method string, params map[string]any) (jsondoc.Doc, bool) {
	doc, err := r.Call(ctx, method, params)
	if err != nil {
		return jsondoc.Doc{}, false
	}
	return doc, true
}
