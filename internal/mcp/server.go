// Package mcp implements the JSON-RPC 2.0 / MCP protocol handler described
// in spec.md §4.E: method dispatch over newline-delimited stdio, tool
// execution against the tool registry, resource serving, and
// server-initiated list_changed notifications gated on the client's
// notifications/initialized handshake.
//
// Adapted from the teacher's internal/mcp/server.go dispatch-table and
// scanner/encoder stdio loop; the registry, prompts, and resources are now
// backed by this module's own internal/registry and internal/resources
// packages instead of the teacher's generic plugin registry.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/justmcp/justmcp/internal/admin"
	"github.com/justmcp/justmcp/internal/registry"
	"github.com/justmcp/justmcp/internal/resources"
)

// preferredProtocolVersion is echoed back to a client whose requested
// protocolVersion is not in supportedProtocolVersions.
const preferredProtocolVersion = "2024-11-05"

// supportedProtocolVersions are the MCP protocol versions this server can
// speak. negotiateProtocolVersion echoes the client's version when it is in
// this set, per spec.md §4.E, else falls back to preferredProtocolVersion.
var supportedProtocolVersions = []string{"2024-11-05", "2025-03-26"}

func negotiateProtocolVersion(requested string) string {
	for _, v := range supportedProtocolVersions {
		if v == requested {
			return requested
		}
	}
	return preferredProtocolVersion
}

// ToolExecutor invokes one registered tool by tool_id with validated
// arguments and returns its MCP result.
type ToolExecutor interface {
	Execute(ctx context.Context, toolID string, arguments json.RawMessage) (*ToolsCallResult, error)
}

// Server implements the MCP protocol over stdio.
type Server struct {
	registry  *registry.Registry
	executor  ToolExecutor
	resources *resources.Provider
	admin     *admin.Tools
	info      ServerInfo
	logger    *slog.Logger

	validators *schemaCache
	initialized atomic.Bool
}

// NewServer creates an MCP server wired to reg for tool listing, executor
// for dispatching tools/call, and res for resources/list and
// resources/read. adm, if non-nil, contributes additional admin tools
// (list_tools, refresh_tools, search_tools, parser_doctor) alongside the
// registry's recipe-derived tools.
func NewServer(reg *registry.Registry, executor ToolExecutor, res *resources.Provider, adm *admin.Tools, info ServerInfo, logger *slog.Logger) *Server {
	return &Server{
		registry:   reg,
		executor:   executor,
		resources:  res,
		admin:      adm,
		info:       info,
		logger:     logger,
		validators: newSchemaCache(),
	}
}

// Run reads JSON-RPC requests from stdin and writes responses to stdout.
// It blocks until stdin is closed or the context is cancelled. Whenever
// the registry's revision changes, a notifications/tools/list_changed
// message is pushed to the client, but only once notifications/initialized
// has been received.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)
	// MCP messages can carry a full tools/list payload for a large justfile tree.
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)
	encoder := json.NewEncoder(os.Stdout)

	s.logger.Info("justmcp server started", "name", s.info.Name, "version", s.info.Version)

	go s.pushListChangedOnRevisionBump(ctx, encoder)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp := s.HandleMessage(ctx, line)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to write response", "error", err)
				return fmt.Errorf("writing response: %w", err)
			}
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("reading stdin: %w", err)
	}

	s.logger.Info("justmcp server stopped (stdin closed)")
	return nil
}

// pushListChangedOnRevisionBump watches the registry's change stream and
// emits notifications/tools/list_changed whenever a mutation lands, but
// only after the client has completed the initialize handshake.
func (s *Server) pushListChangedOnRevisionBump(ctx context.Context, encoder *json.Encoder) {
	for {
		ch := s.registry.Subscribe()
		select {
		case <-ctx.Done():
			return
		case <-ch:
			if !s.initialized.Load() {
				continue
			}
			note := Request{JSONRPC: "2.0", Method: "notifications/tools/list_changed"}
			if err := encoder.Encode(note); err != nil {
				s.logger.Error("failed to push list_changed", "error", err)
			}
		}
	}
}

// HandleMessage parses a single JSON-RPC message and dispatches it,
// returning nil for notifications (which never get a response).
func (s *Server) HandleMessage(ctx context.Context, data []byte) *Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		s.logger.Error("failed to parse request", "error", err)
		return &Response{
			JSONRPC: "2.0",
			Error: &RPCError{
				Code:    ErrCodeParse,
				Message: "Parse error",
				Data:    err.Error(),
			},
		}
	}

	if req.ID == nil {
		if req.Method == "notifications/initialized" {
			s.initialized.Store(true)
			s.logger.Info("client initialized")
		} else {
			s.logger.Debug("received notification", "method", req.Method)
		}
		return nil
	}

	s.logger.Debug("handling request", "method", req.Method, "id", string(req.ID))

	if req.Method != "initialize" && !s.initialized.Load() {
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &RPCError{
				Code:    ErrCodeNotInitialized,
				Message: "Server not initialized: call initialize first",
			},
		}
	}

	result, rpcErr := s.dispatch(ctx, &req)
	resp := &Response{JSONRPC: "2.0", ID: req.ID}
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}
	return resp
}

func (s *Server) dispatch(ctx context.Context, req *Request) (any, *RPCError) {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req.Params)
	case "tools/list":
		return s.handleToolsList()
	case "tools/call":
		return s.handleToolsCall(ctx, req.Params)
	case "prompts/list":
		return &PromptsListResult{Prompts: []PromptDefinition{}}, nil
	case "prompts/get":
		return nil, &RPCError{Code: ErrCodeMethodNotFound, Message: "no prompts are registered"}
	case "resources/list":
		return s.handleResourcesList(req.Params)
	case "resources/read":
		return s.handleResourcesRead(req.Params)
	default:
		return nil, &RPCError{
			Code:    ErrCodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", req.Method),
		}
	}
}

func (s *Server) handleInitialize(params json.RawMessage) (any, *RPCError) {
	var initParams InitializeParams
	if params != nil {
		if err := json.Unmarshal(params, &initParams); err != nil {
			return nil, &RPCError{
				Code:    ErrCodeInvalidParams,
				Message: "Invalid initialize params",
				Data:    err.Error(),
			}
		}
	}

	s.logger.Info("client connecting",
		"client", initParams.ClientInfo.Name,
		"client_version", initParams.ClientInfo.Version,
		"protocol_version", initParams.ProtocolVersion,
	)

	caps := ServerCapability{
		Tools:     &ToolsCapability{ListChanged: true},
		Resources: &ResourcesCapability{ListChanged: true},
	}

	return &InitializeResult{
		ProtocolVersion: negotiateProtocolVersion(initParams.ProtocolVersion),
		Capabilities:    caps,
		ServerInfo:      s.info,
	}, nil
}

func (s *Server) handleToolsList() (any, *RPCError) {
	descriptors := s.registry.List()
	tools := make([]ToolDefinition, 0, len(descriptors)+4)
	for _, d := range descriptors {
		tools = append(tools, descriptorToDefinition(d))
	}
	if s.admin != nil {
		for _, d := range s.admin.Definitions() {
			tools = append(tools, ToolDefinition{
				Name:        d.Name,
				Description: d.Description,
				InputSchema: d.InputSchema,
			})
		}
	}
	return &ToolsListResult{Tools: tools}, nil
}

func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var callParams ToolsCallParams
	if err := json.Unmarshal(params, &callParams); err != nil {
		return nil, &RPCError{
			Code:    ErrCodeInvalidParams,
			Message: "Invalid tools/call params",
			Data:    err.Error(),
		}
	}

	if s.admin != nil && s.admin.Handles(callParams.Name) {
		result, err := s.admin.Call(ctx, callParams.Name, callParams.Arguments)
		if err != nil {
			return ErrorResult(err.Error()), nil
		}
		return &ToolsCallResult{Content: []ContentBlock{TextContent(result.Text)}, IsError: result.IsError}, nil
	}

	desc, err := s.registry.Get(callParams.Name)
	if err != nil {
		return nil, &RPCError{
			Code:    ErrCodeMethodNotFound,
			Message: fmt.Sprintf("tool not found: %s", callParams.Name),
		}
	}

	if verr := s.validators.validate(desc.ToolID, desc.InputSchema, callParams.Arguments); verr != nil {
		return ErrorResult(fmt.Sprintf("invalid arguments: %v", verr)), nil
	}

	s.logger.Info("calling tool", "tool", callParams.Name)

	result, err := s.executor.Execute(ctx, callParams.Name, callParams.Arguments)
	if err != nil {
		s.logger.Error("tool execution failed", "tool", callParams.Name, "error", err)
		return ErrorResult(fmt.Sprintf("tool execution failed: %v", err)), nil
	}

	return result, nil
}

func (s *Server) handleResourcesList(params json.RawMessage) (any, *RPCError) {
	var listParams ResourcesListParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &listParams); err != nil {
			return nil, &RPCError{
				Code:    ErrCodeInvalidParams,
				Message: "Invalid resources/list params",
				Data:    err.Error(),
			}
		}
	}

	defs, next := s.resources.List(listParams.Cursor)
	out := make([]ResourceDefinition, 0, len(defs))
	for _, d := range defs {
		out = append(out, ResourceDefinition{
			URI:         d.URI,
			Name:        d.Name,
			Description: d.Description,
			MimeType:    d.MimeType,
		})
	}
	return &ResourcesListResult{Resources: out, NextCursor: next}, nil
}

func (s *Server) handleResourcesRead(params json.RawMessage) (any, *RPCError) {
	var readParams ResourcesReadParams
	if err := json.Unmarshal(params, &readParams); err != nil {
		return nil, &RPCError{
			Code:    ErrCodeInvalidParams,
			Message: "Invalid resources/read params",
			Data:    err.Error(),
		}
	}

	content, err := s.resources.Read(readParams.URI)
	if err != nil {
		return nil, &RPCError{
			Code:    ErrCodeInternal,
			Message: fmt.Sprintf("resource read error: %v", err),
		}
	}

	return &ResourcesReadResult{Contents: []ResourceContent{{
		URI:      content.URI,
		MimeType: content.MimeType,
		Text:     content.Text,
	}}}, nil
}
