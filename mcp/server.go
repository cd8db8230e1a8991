// Package mcp implements the tool-serving side of the Model Context
// Protocol: tool registration, tools/list, and tools/call over a pluggable
// transport.
package mcp

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"

	"github.com/xrpl-agent/gateway/mcp/internal/protocol"
	"github.com/xrpl-agent/gateway/mcp/transport"
)

var logger = xlog.NewPackageLogger("github.com/xrpl-agent/gateway", "mcp")

const protocolVersion = "2024-11-05"

// ErrInvalidParams marks argument-validation failures. Handlers wrap it so
// the server surfaces a protocol-level schema error instead of a tool error
// result; such calls never reach upstream services.
var ErrInvalidParams = errors.New("invalid params")

// ToolHandler executes one tool call. Returned errors become tool error
// results (isError), not protocol errors; the handler is reached only after
// the arguments passed schema validation at the tool layer.
type ToolHandler func(ctx context.Context, arguments json.RawMessage) (*ToolResponse, error)

type registeredTool struct {
	name        string
	description string
	inputSchema any
	handler     ToolHandler
}

// Server serves registered tools over one transport.
type Server struct {
	protocol  *protocol.Protocol
	transport transport.Transport

	name    string
	version string

	mu    sync.RWMutex
	tools map[string]*registeredTool
}

// Option configures a Server.
type Option func(*Server)

// WithName sets the server name advertised in initialize.
func WithName(name string) Option {
	return func(s *Server) { s.name = name }
}

// WithVersion sets the server version advertised in initialize.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// NewServer creates a server bound to the given transport.
func NewServer(tr transport.Transport, opts ...Option) *Server {
	s := &Server{
		protocol:  protocol.NewProtocol(),
		transport: tr,
		name:      "mcp-server",
		version:   "0.0.1",
		tools:     make(map[string]*registeredTool),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.protocol.SetRequestHandler("initialize", s.handleInitialize)
	s.protocol.SetRequestHandler("ping", s.handlePing)
	s.protocol.SetRequestHandler("tools/list", s.handleListTools)
	s.protocol.SetRequestHandler("tools/call", s.handleToolCall)
	return s
}

// RegisterTool adds a tool under a unique name. The input schema is the JSON
// Schema object advertised in tools/list.
func (s *Server) RegisterTool(name, description string, inputSchema any, handler ToolHandler) error {
	if name == "" {
		return errors.New("tool name is required")
	}
	if handler == nil {
		return errors.Errorf("tool %s: handler is required", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tools[name]; exists {
		return errors.Errorf("tool %s: already registered", name)
	}
	s.tools[name] = &registeredTool{
		name:        name,
		description: description,
		inputSchema: inputSchema,
		handler:     handler,
	}

	// Tools registered before Serve have no transport yet; the list_changed
	// notification only reaches clients of a live connection.
	if err := s.protocol.Notification("notifications/tools/list_changed", nil); err != nil {
		logger.KV(xlog.DEBUG, "notification", "tools/list_changed", "err", err.Error())
	}
	return nil
}

// ToolNames returns the registered tool names, sorted.
func (s *Server) ToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Serve connects the protocol to the transport and starts it. Blocks for
// listener transports.
func (s *Server) Serve() error {
	logger.KV(xlog.INFO, "server", s.name, "version", s.version, "tools", len(s.tools))
	return s.protocol.Connect(s.transport)
}

// Close shuts the transport down.
func (s *Server) Close() error {
	return s.protocol.Close()
}

func (s *Server) handleInitialize(_ context.Context, _ *transport.BaseJSONRPCRequest, _ protocol.RequestHandlerExtra) (transport.JsonRpcBody, error) {
	return initializeResult{
		ProtocolVersion: protocolVersion,
		ServerInfo: serverInfo{
			Name:    s.name,
			Version: s.version,
		},
	}, nil
}

func (s *Server) handlePing(_ context.Context, _ *transport.BaseJSONRPCRequest, _ protocol.RequestHandlerExtra) (transport.JsonRpcBody, error) {
	return struct{}{}, nil
}

func (s *Server) handleListTools(_ context.Context, _ *transport.BaseJSONRPCRequest, _ protocol.RequestHandlerExtra) (transport.JsonRpcBody, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	tools := make([]toolMeta, 0, len(names))
	for _, name := range names {
		tool := s.tools[name]
		tools = append(tools, toolMeta{
			Name:        tool.name,
			Description: tool.description,
			InputSchema: tool.inputSchema,
		})
	}
	return toolsListResult{Tools: tools}, nil
}

func (s *Server) handleToolCall(ctx context.Context, request *transport.BaseJSONRPCRequest, _ protocol.RequestHandlerExtra) (transport.JsonRpcBody, error) {
	var params callToolParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal tool call params")
	}

	s.mu.RLock()
	tool := s.tools[params.Name]
	s.mu.RUnlock()
	if tool == nil {
		return nil, errors.Errorf("unknown tool: %s", params.Name)
	}

	logger.ContextKV(ctx, xlog.DEBUG, "tool", params.Name)

	resp, err := tool.handler(ctx, params.Arguments)
	if err != nil {
		if errors.Is(err, ErrInvalidParams) {
			return nil, err
		}
		// Tool execution failures are error results, not protocol errors.
		return NewToolErrorResponse(err.Error()), nil
	}
	return resp, nil
}
