// Package tools defines the tool abstraction served over MCP and the
// generic machinery shared by the composite and pass-through handlers.
package tools

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/xrpl-agent/gateway/mcp"
	"github.com/xrpl-agent/gateway/schema"
	"github.com/xrpl-agent/gateway/utils"
)

// ITool is one callable tool: a name, a description the agent reads to
// decide when to use it, an input schema, and the execution entry point.
type ITool interface {
	// Name returns the name of the tool.
	Name() string
	// Description returns the description of the tool.
	Description() string
	// Parameters returns the input schema advertised to the agent.
	Parameters() any
	// Call executes the tool; the result must be JSON-serializable.
	Call(ctx context.Context, args json.RawMessage) (any, error)
}

// McpServerRegistrator is the part of the MCP server tools register against.
type McpServerRegistrator interface {
	RegisterTool(name, description string, inputSchema any, handler mcp.ToolHandler) error
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// UnmarshalInput parses tool arguments into a typed input and validates it.
// Failures are marked as schema errors so they never reach a handler.
func UnmarshalInput[I any](args json.RawMessage) (*I, error) {
	in := new(I)
	if len(args) > 0 {
		if err := json.Unmarshal(utils.CleanJSON(args), in); err != nil {
			return nil, errors.WithMessagef(mcp.ErrInvalidParams, "failed to unmarshal input: %v", err)
		}
	}
	if err := validate.Struct(in); err != nil {
		return nil, errors.WithMessagef(mcp.ErrInvalidParams, "invalid input: %v", err)
	}
	return in, nil
}

// Tool is a typed tool implementation: input parsing and schema reflection
// are shared, only the run function differs per tool.
type Tool[I any] struct {
	name        string
	description string
	params      any
	run         func(ctx context.Context, in *I) (any, error)
}

// New builds a typed tool; the input schema is reflected from I.
func New[I any](name, description string, run func(ctx context.Context, in *I) (any, error)) (*Tool[I], error) {
	sc, err := schema.New(reflect.TypeOf(*new(I)))
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to reflect schema for tool %s", name)
	}
	return &Tool[I]{
		name:        name,
		description: description,
		params:      sc.Parameters,
		run:         run,
	}, nil
}

// MustNew is New for statically-defined tools with known-good input types.
func MustNew[I any](name, description string, run func(ctx context.Context, in *I) (any, error)) *Tool[I] {
	t, err := New(name, description, run)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Tool[I]) Name() string {
	return t.name
}

func (t *Tool[I]) Description() string {
	return t.description
}

func (t *Tool[I]) Parameters() any {
	return t.params
}

// Call parses and validates the arguments, then runs the tool.
func (t *Tool[I]) Call(ctx context.Context, args json.RawMessage) (any, error) {
	in, err := UnmarshalInput[I](args)
	if err != nil {
		return nil, err
	}
	return t.run(ctx, in)
}

// Run executes the tool with an already-typed input.
func (t *Tool[I]) Run(ctx context.Context, in *I) (any, error) {
	return t.run(ctx, in)
}
