// Package upstream implements the adapters for the four ledger-data services
// the gateway aggregates: the transaction-indexing service (LOS), the
// validator-reporting service (VHS), a rippled JSON-RPC node, and the
// XRPLMeta metadata service.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"

	"github.com/xrpl-agent/gateway/jsondoc"
)

var logger = xlog.NewPackageLogger("github.com/xrpl-agent/gateway", "upstream")

// Doer performs a HTTP request.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Failure is the structured error for a non-2xx upstream response.
// Local and network failures are plain errors carrying no status.
type Failure struct {
	Status     int
	StatusText string
	Body       string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("upstream status %d %s: %s", f.Status, f.StatusText, f.Body)
}

// IsUpstreamFailure reports whether err carries an upstream HTTP status.
func IsUpstreamFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Client performs JSON requests against one upstream base address.
// No retries, no circuit breaking; timeouts are the transport's own.
type Client struct {
	baseURL    string
	httpClient Doer
}

// New returns a client for the given base address. A trailing separator on
// the base address is trimmed once here.
func New(baseURL string, httpClient Doer) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the configured base address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch performs a GET against path with the given query parameters and
// returns the parsed body.
func (c *Client) Fetch(ctx context.Context, path string, query map[string]any) (jsondoc.Doc, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path, query), nil)
	if err != nil {
		return jsondoc.Doc{}, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

// FetchWithBody performs a request with a JSON body and returns the parsed
// response body.
func (c *Client) FetchWithBody(ctx context.Context, path, method string, body any) (jsondoc.Doc, error) {
	bs, err := json.Marshal(body)
	if err != nil {
		return jsondoc.Doc{}, errors.Wrap(err, "failed to marshal request body")
	}
	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path, nil), bytes.NewReader(bs))
	if err != nil {
		return jsondoc.Doc{}, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (jsondoc.Doc, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return jsondoc.Doc{}, errors.Wrap(err, "upstream request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return jsondoc.Doc{}, errors.Wrap(err, "failed to read response body")
	}

	doc := parseBody(resp.Header.Get("Content-Type"), raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.KV(xlog.DEBUG,
			"url", req.URL.String(),
			"status", resp.StatusCode,
		)
		return jsondoc.Doc{}, &Failure{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       doc.Text(),
		}
	}
	return doc, nil
}

// parseBody attempts a JSON parse when the declared content type contains
// "json" or the raw body looks like JSON; otherwise, or on parse failure,
// the raw text is returned.
func parseBody(contentType string, raw []byte) jsondoc.Doc {
	trimmed := bytes.TrimSpace(raw)
	looksJSON := len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
	if strings.Contains(contentType, "json") || looksJSON {
		if json.Valid(raw) {
			return jsondoc.FromBytes(raw)
		}
	}
	return jsondoc.FromText(string(raw))
}

// buildURL joins the base address and path, then appends query parameters.
// Scalars are stringified; list values are appended once per element under
// the same key; object values are JSON-stringified into a single parameter;
// nil and empty-string values are omitted entirely.
func (c *Client) buildURL(path string, query map[string]any) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target := c.baseURL + path
	if len(query) == 0 {
		return target
	}

	vals := url.Values{}
	for key, v := range query {
		switch tv := v.(type) {
		case nil:
			continue
		case string:
			if tv == "" {
				continue
			}
			vals.Add(key, tv)
		case []string:
			for _, item := range tv {
				vals.Add(key, item)
			}
		case []any:
			for _, item := range tv {
				vals.Add(key, stringify(item))
			}
		case map[string]any:
			bs, err := json.Marshal(tv)
			if err != nil {
				continue
			}
			vals.Add(key, string(bs))
		default:
			vals.Add(key, stringify(v))
		}
	}
	if encoded := vals.Encode(); encoded != "" {
		target += "?" + encoded
	}
	return target
}

func stringify(v any) string {
	switch tv := v.(type) {
	case string:
		return tv
	case json.Number:
		return tv.String()
	case float64:
		// JSON numbers decode as float64; render integers without exponent.
		if tv == float64(int64(tv)) {
			return fmt.Sprintf("%d", int64(tv))
		}
		return fmt.Sprintf("%v", tv)
	default:
		return fmt.Sprintf("%v", v)
	}
}
