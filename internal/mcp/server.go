package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
)

// ToolService is what the router needs from the tool layer. The registry in
// internal/tools implements it.
type ToolService interface {
	ListTools() []Tool
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*CallToolResult, error)
}

// Server routes JSON-RPC messages to protocol handlers and owns the
// handshake state. The initialized flag is written once, on the
// initialized notification, and read by every dispatch-eligible method;
// the RWMutex keeps concurrent readers safe if an embedder dispatches
// requests from separate goroutines.
type Server struct {
	tools  ToolService
	logger *slog.Logger
	info   ServerInfo

	mu          sync.RWMutex
	initialized bool
}

func NewServer(tools ToolService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		tools:  tools,
		logger: logger.With("component", "mcp_server"),
		info:   ServerInfo{Name: "mcp-atlassian", Version: "0.1.0"},
	}
}

// HandleMessage processes one line. A nil response means the message was a
// notification and nothing should be written back.
func (s *Server) HandleMessage(ctx context.Context, line []byte) (*Response, error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.logger.Warn("Failed to parse request", "error", err)
		return NewErrorResponse(nil, ParseError()), nil
	}

	if req.JSONRPC != JSONRPCVersion {
		return NewErrorResponse(req.ID, InvalidRequest()), nil
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "initialized", "notifications/initialized":
		return s.handleInitialized(req)
	case "tools/list":
		return s.handleListTools(req)
	case "tools/call":
		return s.handleCallTool(ctx, req)
	case "prompts/list":
		return s.handleListPrompts(req)
	case "resources/list":
		return s.handleListResources(req)
	default:
		s.logger.Warn("Unknown method", "method", req.Method)
		return NewErrorResponse(req.ID, MethodNotFound(req.Method)), nil
	}
}

// handleInitialize negotiates the protocol version and advertises
// capabilities. It does not change the handshake state; only the
// initialized notification does that.
func (s *Server) handleInitialize(req Request) (*Response, error) {
	version := ProtocolVersion2025
	if len(req.Params) > 0 {
		var params InitializeParams
		if err := json.Unmarshal(req.Params, &params); err == nil && params.ProtocolVersion != "" {
			if strings.HasPrefix(params.ProtocolVersion, "2025") {
				version = ProtocolVersion2025
			} else {
				version = ProtocolVersion
			}
		}
	}

	result := InitializeResult{
		ProtocolVersion: version,
		Capabilities: ServerCapabilities{
			Tools:        map[string]interface{}{},
			Experimental: map[string]interface{}{},
		},
		ServerInfo: s.info,
	}
	return NewResponse(req.ID, result)
}

// handleInitialized flips the handshake flag. Setting it again is a no-op.
// A notification gets no response; a request form (unexpected, but seen in
// the wild) gets an empty success.
func (s *Server) handleInitialized(req Request) (*Response, error) {
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()

	if req.ID == nil {
		return nil, nil
	}
	return NewResponse(req.ID, nil)
}

func (s *Server) isInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *Server) handleListTools(req Request) (*Response, error) {
	if !s.isInitialized() {
		return NewErrorResponse(req.ID, InternalError("Server not initialized")), nil
	}
	return NewResponse(req.ID, ListToolsResult{Tools: s.tools.ListTools()})
}

func (s *Server) handleCallTool(ctx context.Context, req Request) (*Response, error) {
	if !s.isInitialized() {
		return NewErrorResponse(req.ID, InternalError("Server not initialized")), nil
	}

	if len(req.Params) == 0 {
		return NewErrorResponse(req.ID, InvalidParams("Missing params")), nil
	}
	var params CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, InvalidParams("Invalid params")), nil
	}

	s.logger.Debug("Executing tool", "tool", params.Name)

	result, err := s.tools.CallTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Error("Tool execution failed", "tool", params.Name, "error", err)
		return NewErrorResponse(req.ID, InternalError(err.Error())), nil
	}
	return NewResponse(req.ID, result)
}

// No prompts are modeled; the list is always empty.
func (s *Server) handleListPrompts(req Request) (*Response, error) {
	if !s.isInitialized() {
		return NewErrorResponse(req.ID, InternalError("Server not initialized")), nil
	}
	return NewResponse(req.ID, map[string]interface{}{"prompts": []interface{}{}})
}

// No resources are modeled; the list is always empty.
func (s *Server) handleListResources(req Request) (*Response, error) {
	if !s.isInitialized() {
		return NewErrorResponse(req.ID, InternalError("Server not initialized")), nil
	}
	return NewResponse(req.ID, map[string]interface{}{"resources": []interface{}{}})
}
