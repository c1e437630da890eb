// Package mcp serves the planner's tools over the Model Context Protocol:
// newline-delimited JSON-RPC 2.0 on a byte stream, normally stdio.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rsned/artifactsmmo-crafting-planner/internal/crafting/engine"
	"github.com/rsned/artifactsmmo-crafting-planner/internal/logger"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "artifactsmmo-crafting"

	// maxMessageBytes bounds one JSON-RPC line.
	maxMessageBytes = 4 << 20
)

// JSON-RPC error codes.
const (
	ErrCodeParse          = -32700
	ErrCodeInvalidReq     = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
)

// Request is an incoming JSON-RPC message. A request without an ID is a
// notification and never gets a response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is an outgoing JSON-RPC message.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id,omitempty"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string { return e.Message }

func rpcError(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

type methodFunc func(ctx context.Context, params json.RawMessage) (any, error)

// Server dispatches MCP requests to the planning engine.
type Server struct {
	logger  *slog.Logger
	version string
	tools   *registry
	methods map[string]methodFunc
}

// NewServer creates a Server exposing eng's tools. A nil log discards
// server logs.
func NewServer(eng *engine.Engine, log *slog.Logger, version string) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if version == "" {
		version = "dev"
	}

	s := &Server{
		logger:  log,
		version: version,
		tools:   newRegistry(eng),
	}
	s.methods = map[string]methodFunc{
		"initialize": s.initialize,
		"ping":       func(context.Context, json.RawMessage) (any, error) { return struct{}{}, nil },
		"tools/list": s.listTools,
		"tools/call": s.callTool,
	}
	return s
}

// Run serves requests from r until EOF or cancellation, writing one
// response line per request to w.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageBytes)
	enc := json.NewEncoder(w)

	s.logger.Info("MCP server starting", "version", s.version, "tools", len(s.tools.order))

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp := s.handle(ctx, line)
		if resp == nil {
			continue
		}
		if err := enc.Encode(resp); err != nil {
			s.logger.Error("failed to write response", "error", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// handle answers one raw message. It returns nil for notifications.
func (s *Server) handle(ctx context.Context, raw []byte) *Response {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return &Response{JSONRPC: "2.0", Error: &Error{Code: ErrCodeParse, Message: "Parse error", Data: err.Error()}}
	}
	if req.Method == "" {
		return &Response{JSONRPC: "2.0", ID: req.ID, Error: rpcError(ErrCodeInvalidReq, "Invalid request")}
	}

	ctx = logger.WithRunID(ctx, logger.NewRunID())
	logger.FromContext(ctx).Debug("received request", "method", req.Method, "id", req.ID)

	method, ok := s.methods[req.Method]
	if !ok {
		if req.ID == nil {
			return nil
		}
		return &Response{JSONRPC: "2.0", ID: req.ID, Error: rpcError(ErrCodeMethodNotFound, "Method not found: %s", req.Method)}
	}

	result, err := method(ctx, req.Params)
	if req.ID == nil {
		return nil
	}
	if err != nil {
		var rerr *Error
		if !errors.As(err, &rerr) {
			rerr = rpcError(ErrCodeInternal, "%s", err.Error())
		}
		return &Response{JSONRPC: "2.0", ID: req.ID, Error: rerr}
	}
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

// InitializeResult is the response for initialize.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	Capabilities    Capabilities `json:"capabilities"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Capabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

func (s *Server) initialize(context.Context, json.RawMessage) (any, error) {
	return InitializeResult{
		ProtocolVersion: protocolVersion,
		ServerInfo:      ServerInfo{Name: serverName, Version: s.version},
		Capabilities:    Capabilities{Tools: &ToolsCapability{}},
	}, nil
}

// ToolsListResult is the response for tools/list.
type ToolsListResult struct {
	Tools []ToolDefinition `json:"tools"`
}

func (s *Server) listTools(context.Context, json.RawMessage) (any, error) {
	return ToolsListResult{Tools: s.tools.definitions()}, nil
}

// ToolCallParams are the parameters for tools/call.
type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolCallResult is the response for tools/call. Tool failures are
// reported in-band with IsError set.
type ToolCallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func textResult(text string, isErr bool) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: isErr}
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (any, error) {
	var p ToolCallParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, rpcError(ErrCodeInvalidParams, "invalid params: %v", err)
	}
	if len(p.Arguments) == 0 {
		p.Arguments = json.RawMessage("{}")
	}

	logger.FromContext(ctx).Debug("calling tool", "name", p.Name)

	result, err := s.tools.call(ctx, p.Name, p.Arguments)
	if err != nil {
		return textResult(err.Error(), true), nil
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return textResult(string(out), false), nil
}
