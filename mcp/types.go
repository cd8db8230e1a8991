package mcp

import "encoding/json"

// Content is one item of a tool response. Only text content is produced by
// this server; structured results are serialized JSON text.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResponse is the result of one tool call. IsError marks a tool-level
// error result, distinct from protocol errors.
type ToolResponse struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// NewToolResponse builds a success response from text content.
func NewToolResponse(content ...Content) *ToolResponse {
	if content == nil {
		content = []Content{}
	}
	return &ToolResponse{Content: content}
}

// NewTextContent wraps text as tool-response content.
func NewTextContent(text string) Content {
	return Content{Type: "text", Text: text}
}

// NewToolErrorResponse builds an error result carrying a human-readable
// message.
func NewToolErrorResponse(message string) *ToolResponse {
	return &ToolResponse{
		Content: []Content{NewTextContent(message)},
		IsError: true,
	}
}

type toolMeta struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"inputSchema"`
}

type toolsListResult struct {
	Tools []toolMeta `json:"tools"`
}

type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type serverCapabilities struct {
	Tools struct {
		ListChanged bool `json:"listChanged"`
	} `json:"tools"`
}

type initializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    serverCapabilities `json:"capabilities"`
	ServerInfo      serverInfo         `json:"serverInfo"`
}
