package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/config"
)

func testServer(in io.Reader, out io.Writer) *Server {
	cfg := &config.Config{Version: config.CurrentVersion}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, logger, in, out)
}

func TestInitialize(t *testing.T) {
	s := testServer(nil, io.Discard)
	resp := s.Handle(context.Background(), &Request{
		JSONRPC: "2.0", ID: json.RawMessage("1"), Method: "initialize",
	})
	if resp == nil || resp.Error != nil {
		t.Fatalf("initialize failed: %+v", resp)
	}

	result, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatalf("result type %T", resp.Result)
	}
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("protocolVersion = %v", result["protocolVersion"])
	}
	info, ok := result["serverInfo"].(map[string]any)
	if !ok || info["name"] != "mysql-analyzer" {
		t.Errorf("serverInfo = %v", result["serverInfo"])
	}
}

func TestToolsList(t *testing.T) {
	s := testServer(nil, io.Discard)
	resp := s.Handle(context.Background(), &Request{
		JSONRPC: "2.0", ID: json.RawMessage("2"), Method: "tools/list",
	})
	if resp == nil || resp.Error != nil {
		t.Fatalf("tools/list failed: %+v", resp)
	}

	tools := resp.Result.(map[string]any)["tools"].([]Tool)
	names := map[string]bool{}
	for _, tool := range tools {
		names[tool.Name] = true
		if tool.InputSchema["type"] != "object" {
			t.Errorf("tool %s schema type = %v", tool.Name, tool.InputSchema["type"])
		}
	}
	for _, want := range []string{
		"analyze_naming_conventions",
		"analyze_database_indexes",
		"analyze_table_schemas",
		"generate_sql_patches",
		"comprehensive_analysis",
	} {
		if !names[want] {
			t.Errorf("tool %s not listed", want)
		}
	}
}

func TestMethodNotFound(t *testing.T) {
	s := testServer(nil, io.Discard)
	resp := s.Handle(context.Background(), &Request{
		JSONRPC: "2.0", ID: json.RawMessage("3"), Method: "resources/list",
	})
	if resp == nil || resp.Error == nil {
		t.Fatalf("expected an error response, got %+v", resp)
	}
	if resp.Error.Code != codeMethodNotFound {
		t.Errorf("code = %d, want %d", resp.Error.Code, codeMethodNotFound)
	}
}

func TestNotificationGetsNoResponse(t *testing.T) {
	s := testServer(nil, io.Discard)
	resp := s.Handle(context.Background(), &Request{
		JSONRPC: "2.0", Method: "notifications/initialized",
	})
	if resp != nil {
		t.Errorf("notification should not be answered: %+v", resp)
	}
}

func TestUnknownToolIsInternalError(t *testing.T) {
	s := testServer(nil, io.Discard)
	resp := s.Handle(context.Background(), &Request{
		JSONRPC: "2.0", ID: json.RawMessage("4"), Method: "tools/call",
		Params: Params{Name: "no_such_tool"},
	})
	if resp == nil || resp.Error == nil {
		t.Fatalf("expected an error response, got %+v", resp)
	}
	if resp.Error.Code != codeInternalError {
		t.Errorf("code = %d, want %d", resp.Error.Code, codeInternalError)
	}
}

func TestRunHandlesParseErrors(t *testing.T) {
	in := strings.NewReader("this is not json\n")
	var out bytes.Buffer
	s := testServer(in, &out)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var resp Response
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("output not JSON: %v\n%s", err, out.String())
	}
	if resp.Error == nil || resp.Error.Code != codeParseError {
		t.Errorf("expected parse error, got %+v", resp)
	}
}

func TestRunLineProtocol(t *testing.T) {
	lines := `{"jsonrpc":"2.0","id":1,"method":"initialize"}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n"
	var out bytes.Buffer
	s := testServer(strings.NewReader(lines), &out)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	responses := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(responses) != 2 {
		t.Fatalf("expected 2 response lines, got %d:\n%s", len(responses), out.String())
	}
	for i, line := range responses {
		var resp Response
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("response %d not JSON: %v", i, err)
		}
		if resp.Error != nil {
			t.Errorf("response %d is an error: %+v", i, resp.Error)
		}
	}
}

func TestConfigForDoesNotMutateServerConfig(t *testing.T) {
	s := testServer(nil, io.Discard)
	s.cfg.Database.Host = "original"

	cfg := s.configFor(map[string]any{"DB_HOST": "other", "DB_DATABASE": "shop"})
	if cfg.Database.Host != "other" || cfg.Database.Database != "shop" {
		t.Errorf("overrides not applied: %+v", cfg.Database)
	}
	if s.cfg.Database.Host != "original" || s.cfg.Database.Database != "" {
		t.Errorf("server config mutated: %+v", s.cfg.Database)
	}
}
