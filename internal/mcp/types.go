package mcp

import (
	"encoding/json"
	"fmt"
)

const (
	JSONRPCVersion = "2.0"

	// Supported MCP protocol revisions. Initialize negotiates between them.
	ProtocolVersion     = "2024-11-05"
	ProtocolVersion2025 = "2025-06-18"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request represents a standard JSON-RPC 2.0 request or notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id,omitempty"` // string, number, or null
}

// Response represents a standard JSON-RPC 2.0 response.
// Result and Error are mutually exclusive.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      interface{}     `json:"id"`
}

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

func ParseError() *Error {
	return &Error{Code: CodeParseError, Message: "Parse error"}
}

func InvalidRequest() *Error {
	return &Error{Code: CodeInvalidRequest, Message: "Invalid request"}
}

func MethodNotFound(method string) *Error {
	return &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("Method not found: %s", method)}
}

func InvalidParams(message string) *Error {
	return &Error{Code: CodeInvalidParams, Message: message}
}

func InternalError(message string) *Error {
	return &Error{Code: CodeInternalError, Message: message}
}

// NewResponse builds a success response. result must marshal cleanly.
func NewResponse(id interface{}, result interface{}) (*Response, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &Response{JSONRPC: JSONRPCVersion, Result: raw, ID: id}, nil
}

// NewErrorResponse builds an error response.
func NewErrorResponse(id interface{}, rpcErr *Error) *Response {
	return &Response{JSONRPC: JSONRPCVersion, Error: rpcErr, ID: id}
}

// --- Payload Types ---

type InitializeParams struct {
	ProtocolVersion string          `json:"protocolVersion"`
	Capabilities    json.RawMessage `json:"capabilities,omitempty"`
	ClientInfo      json.RawMessage `json:"clientInfo,omitempty"`
}

type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
}

// ServerCapabilities is deliberately minimal: an empty tools object and an
// empty experimental set, not computed from the registry.
type ServerCapabilities struct {
	Tools        map[string]interface{} `json:"tools"`
	Experimental map[string]interface{} `json:"experimental"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Tool describes a registered tool and its input schema.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Property describes a single input-schema property. Type is either a
// single type name (string) or a union of type names ([]string).
type Property struct {
	Type        interface{}   `json:"type"`
	Description string        `json:"description,omitempty"`
	Default     interface{}   `json:"default,omitempty"`
	Enum        []interface{} `json:"enum,omitempty"`
}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

type CallToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

type CallToolResult struct {
	Content []Content `json:"content"`
}

// Content is a single tools/call content item. Type is "text" or "image";
// the image variant is defined for wire compatibility but unused by the
// current handlers.
type Content struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// TextContent wraps a string as a single text content item.
func TextContent(text string) []Content {
	return []Content{{Type: "text", Text: text}}
}
