package upstream

import (
	"context"

	"github.com/effective-security/xlog"

	"github.com/xrpl-agent/gateway/jsondoc"
)

// TryFetch performs a GET and converts any failure into an absence marker.
// Used wherever an enrichment is optional: the caller proceeds with degraded
// information and records a warning instead of failing the whole tool.
func TryFetch(ctx context.Context, c *Client, path string, query map[string]any) (jsondoc.Doc, bool) {
	doc, err := c.Fetch(ctx, path, query)
	if err != nil {
		logger.ContextKV(ctx, xlog.DEBUG, "path", path, "err", err.Error())
		return jsondoc.Doc{}, false
	}
	return doc, true
}

// TryFetchWithBody is TryFetch for body-carrying requests.
func TryFetchWithBody(ctx context.Context, c *Client, path, method string, body any) (jsondoc.Doc, bool) {
	doc, err := c.FetchWithBody(ctx, path, method, body)
	if err != nil {
		logger.ContextKV(ctx, xlog.DEBUG, "path", path, "err", err.Error())
		return jsondoc.Doc{}, false
	}
	return doc, true
}
