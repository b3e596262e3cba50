// Package server exposes the analyzers as tools over JSON-RPC 2.0 on
// stdin/stdout. Each tool call is stateless: it connects, builds a fresh
// snapshot, analyzes, and disconnects, so concurrent callers never share
// state.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/analyze"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/config"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/engine"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/report"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "mysql-analyzer"
	serverVersion   = "1.0.0"
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInternalError  = -32603
)

// Request is one incoming JSON-RPC message.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  Params          `json:"params,omitempty"`
}

// Params carries tool-call parameters.
type Params struct {
	Name      string         `json:"name,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Response is one outgoing JSON-RPC message.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Tool describes one callable tool.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Server reads JSON-RPC requests line by line and writes one response line
// per request.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	in     io.Reader
	out    io.Writer
}

// New creates a server reading from in and writing to out.
func New(cfg *config.Config, logger *slog.Logger, in io.Reader, out io.Writer) *Server {
	return &Server{cfg: cfg, logger: logger, in: in, out: out}
}

// Run serves until the input stream ends or the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	enc := json.NewEncoder(s.out)

	s.logger.Info("tool server started", "protocol", protocolVersion)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Error("invalid request", "error", err)
			if err := enc.Encode(errorResponse(nil, codeParseError, "parse error: "+err.Error())); err != nil {
				return err
			}
			continue
		}

		resp := s.Handle(ctx, &req)
		if resp == nil {
			continue // notification
		}
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Handle dispatches one request. Notifications (no id) return nil.
func (s *Server) Handle(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: map[string]any{
				"protocolVersion": protocolVersion,
				"capabilities":    map[string]any{"tools": map[string]any{}},
				"serverInfo":      map[string]any{"name": serverName, "version": serverVersion},
			},
		}
	case "tools/list":
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]any{"tools": Tools()},
		}
	case "tools/call":
		text, err := s.callTool(ctx, req.Params.Name, req.Params.Arguments)
		if err != nil {
			s.logger.Error("tool call failed", "tool", req.Params.Name, "error", err)
			return errorResponse(req.ID, codeInternalError, err.Error())
		}
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: map[string]any{
				"content": []map[string]any{{"type": "text", "text": text}},
			},
		}
	default:
		if req.ID == nil {
			return nil // ignore notifications such as notifications/initialized
		}
		return errorResponse(req.ID, codeMethodNotFound, "method not found: "+req.Method)
	}
}

// Tools lists the exposed tools.
func Tools() []Tool {
	conn := map[string]any{
		"DB_HOST":     map[string]any{"type": "string", "description": "Database host (optional)"},
		"DB_USER":     map[string]any{"type": "string", "description": "Database username (optional)"},
		"DB_PASSWORD": map[string]any{"type": "string", "description": "Database password (optional)"},
		"DB_DATABASE": map[string]any{"type": "string", "description": "Database name (optional)"},
	}
	obj := func(props map[string]any) map[string]any {
		return map[string]any{"type": "object", "properties": props}
	}
	withConn := func(extra map[string]any) map[string]any {
		props := make(map[string]any, len(conn)+len(extra))
		for k, v := range conn {
			props[k] = v
		}
		for k, v := range extra {
			props[k] = v
		}
		return obj(props)
	}

	return []Tool{
		{
			Name:        "analyze_naming_conventions",
			Description: "Analyze table, column, and index names against the enforced naming conventions",
			InputSchema: withConn(nil),
		},
		{
			Name:        "analyze_database_indexes",
			Description: "Analyze indexes for redundancy, missing foreign-key coverage, and low selectivity",
			InputSchema: withConn(nil),
		},
		{
			Name:        "analyze_table_schemas",
			Description: "Analyze table settings against MySQL 8.0 recommendations (engine, charset, primary keys)",
			InputSchema: withConn(nil),
		},
		{
			Name:        "generate_sql_patches",
			Description: "Generate an ordered, reviewable SQL patch fixing naming and index findings",
			InputSchema: withConn(nil),
		},
		{
			Name:        "comprehensive_analysis",
			Description: "Run all analyzers and optionally generate the SQL patch",
			InputSchema: withConn(map[string]any{
				"generate_patches": map[string]any{"type": "boolean", "description": "Include the SQL patch", "default": true},
			}),
		},
	}
}

func (s *Server) callTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "analyze_naming_conventions", "analyze_database_indexes", "analyze_table_schemas",
		"generate_sql_patches", "comprehensive_analysis":
	default:
		return "", fmt.Errorf("unknown tool %q", name)
	}

	cfg := s.configFor(args)
	eng := engine.New(cfg, s.logger)

	snap, err := eng.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	a := eng.Analyze(snap)
	min := analyze.ParseSeverity(cfg.Analysis.MinSeverity)

	switch name {
	case "analyze_naming_conventions":
		sub := *a
		sub.Indexes, sub.Schema = nil, nil
		return report.Markdown(&sub, min), nil
	case "analyze_database_indexes":
		sub := *a
		sub.Naming, sub.Schema = nil, nil
		return report.Markdown(&sub, min), nil
	case "analyze_table_schemas":
		sub := *a
		sub.Naming, sub.Indexes = nil, nil
		return report.Markdown(&sub, min), nil
	case "generate_sql_patches":
		script, err := eng.GeneratePatch(a)
		if err != nil {
			return "", err
		}
		return script.Render(), nil
	case "comprehensive_analysis":
		text := report.Markdown(a, min)
		if v, ok := args["generate_patches"].(bool); ok && !v {
			return text, nil
		}
		script, err := eng.GeneratePatch(a)
		if err != nil {
			return text + "\n\n> patch generation failed: " + err.Error(), nil
		}
		return text + "\n\n## SQL Patch\n\n```sql\n" + script.Render() + "```\n", nil
	}
	return "", fmt.Errorf("unknown tool %q", name)
}

// configFor copies the server config and applies per-call connection
// overrides, keeping concurrent calls isolated.
func (s *Server) configFor(args map[string]any) *config.Config {
	cfg := *s.cfg
	if v, ok := args["DB_HOST"].(string); ok && v != "" {
		cfg.Database.Host = v
	}
	if v, ok := args["DB_USER"].(string); ok && v != "" {
		cfg.Database.User = v
	}
	if v, ok := args["DB_PASSWORD"].(string); ok && v != "" {
		cfg.Database.Password = v
	}
	if v, ok := args["DB_DATABASE"].(string); ok && v != "" {
		cfg.Database.Database = v
	}
	return &cfg
}

func errorResponse(id json.RawMessage, code int, msg string) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: msg},
	}
}
