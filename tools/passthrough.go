package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/xrpl-agent/gateway/mcp"
	"github.com/xrpl-agent/gateway/upstream"
	"github.com/xrpl-agent/gateway/utils"
)

// FieldKind is the declared JSON type of a pass-through tool field.
type FieldKind string

const (
	// KindAny skips type checks and leaves the schema type open.
	KindAny     FieldKind = ""
	KindString  FieldKind = "string"
	KindNumber  FieldKind = "number"
	KindInteger FieldKind = "integer"
	KindBoolean FieldKind = "boolean"
	KindObject  FieldKind = "object"
	KindArray   FieldKind = "array"
)

// Field declares one named input field of a pass-through tool.
type Field struct {
	Name        string
	Kind        FieldKind
	Description string
	Required    bool
}

// ForwardFunc forwards validated arguments to one upstream method and
// returns the raw result.
type ForwardFunc func(ctx context.Context, svc *upstream.Services, args map[string]any) (any, error)

// PassthroughSpec declares one pass-through tool: input shape and the
// upstream forward. Unknown extra fields on the argument object are
// preserved and forwarded untouched.
type PassthroughSpec struct {
	Name        string
	Description string
	Fields      []Field
	Forward     ForwardFunc
}

type passthroughTool struct {
	spec   PassthroughSpec
	svc    *upstream.Services
	params any
}

// NewPassthrough binds a pass-through spec to the upstream services.
func NewPassthrough(svc *upstream.Services, spec PassthroughSpec) ITool {
	return &passthroughTool{
		spec:   spec,
		svc:    svc,
		params: buildObjectSchema(spec.Fields),
	}
}

func (t *passthroughTool) Name() string {
	return t.spec.Name
}

func (t *passthroughTool) Description() string {
	return t.spec.Description
}

func (t *passthroughTool) Parameters() any {
	return t.params
}

func (t *passthroughTool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	parsed := map[string]any{}
	if len(args) > 0 {
		if err := json.Unmarshal(utils.CleanJSON(args), &parsed); err != nil {
			return nil, errors.WithMessagef(mcp.ErrInvalidParams, "failed to unmarshal input: %v", err)
		}
	}
	if err := validateFields(t.spec.Fields, parsed); err != nil {
		return nil, err
	}
	return t.spec.Forward(ctx, t.svc, parsed)
}

func validateFields(fields []Field, args map[string]any) error {
	for _, f := range fields {
		v, present := args[f.Name]
		if !present {
			if f.Required {
				return errors.WithMessagef(mcp.ErrInvalidParams, "missing required field: %s", f.Name)
			}
			continue
		}
		if !kindMatches(f.Kind, v) {
			return errors.WithMessagef(mcp.ErrInvalidParams, "field %s: expected %s", f.Name, f.Kind)
		}
	}
	return nil
}

func kindMatches(kind FieldKind, v any) bool {
	switch kind {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindNumber, KindInteger:
		switch v.(type) {
		case float64, json.Number:
			return true
		}
		return false
	case KindBoolean:
		_, ok := v.(bool)
		return ok
	case KindObject:
		_, ok := v.(map[string]any)
		return ok
	case KindArray:
		_, ok := v.([]any)
		return ok
	default:
		return true
	}
}

func buildObjectSchema(fields []Field) map[string]any {
	props := map[string]any{}
	var required []string
	for _, f := range fields {
		prop := map[string]any{
			"description": f.Description,
		}
		if f.Kind != KindAny {
			prop["type"] = string(f.Kind)
		}
		props[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}
	sort.Strings(required)

	sc := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		sc["required"] = required
	}
	return sc
}

// forwardRippled forwards the whole argument object as the single params
// object of one fixed JSON-RPC method.
func forwardRippled(method string) ForwardFunc {
	return func(ctx context.Context, svc *upstream.Services, args map[string]any) (any, error) {
		doc, err := svc.Node.Call(ctx, method, args)
		if err != nil {
			return nil, err
		}
		return doc.Value(), nil
	}
}

// forwardRippledRPC is the open-ended method passthrough.
func forwardRippledRPC() ForwardFunc {
	return func(ctx context.Context, svc *upstream.Services, args map[string]any) (any, error) {
		method, _ := args["method"].(string)
		params, _ := args["params"].(map[string]any)
		doc, err := svc.Node.Call(ctx, method, params)
		if err != nil {
			return nil, err
		}
		return doc.Value(), nil
	}
}

type clientSelector func(svc *upstream.Services) *upstream.Client

func losClient(svc *upstream.Services) *upstream.Client  { return svc.LOS }
func vhsClient(svc *upstream.Services) *upstream.Client  { return svc.VHS }
func metaClient(svc *upstream.Services) *upstream.Client { return svc.Meta }

// forwardGet substitutes {name} placeholders in the path template from the
// arguments and sends everything left over as query parameters.
func forwardGet(sel clientSelector, pathTemplate string) ForwardFunc {
	return func(ctx context.Context, svc *upstream.Services, args map[string]any) (any, error) {
		path := pathTemplate
		query := map[string]any{}
		for key, v := range args {
			placeholder := "{" + key + "}"
			if strings.Contains(path, placeholder) {
				path = strings.ReplaceAll(path, placeholder, stringifyArg(v))
				continue
			}
			query[key] = v
		}
		doc, err := sel(svc).Fetch(ctx, path, query)
		if err != nil {
			return nil, err
		}
		return doc.Value(), nil
	}
}

// forwardPost sends the whole argument object as the JSON request body.
func forwardPost(sel clientSelector, path string) ForwardFunc {
	return func(ctx context.Context, svc *upstream.Services, args map[string]any) (any, error) {
		doc, err := sel(svc).FetchWithBody(ctx, path, "POST", args)
		if err != nil {
			return nil, err
		}
		return doc.Value(), nil
	}
}

// forwardMetaGet is the metadata service's generic path + query passthrough.
func forwardMetaGet() ForwardFunc {
	return func(ctx context.Context, svc *upstream.Services, args map[string]any) (any, error) {
		path, _ := args["path"].(string)
		query, _ := args["query"].(map[string]any)
		doc, err := metaClient(svc).Fetch(ctx, path, query)
		if err != nil {
			return nil, err
		}
		return doc.Value(), nil
	}
}

func stringifyArg(v any) string {
	switch tv := v.(type) {
	case string:
		return tv
	case float64:
		if tv == float64(int64(tv)) {
			return fmt.Sprintf("%d", int64(tv))
		}
		return fmt.Sprintf("%v", tv)
	default:
		return fmt.Sprintf("%v", v)
	}
}
