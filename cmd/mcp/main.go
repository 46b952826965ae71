package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/AnishMulay/sandtrap/internal/analytics"
	"github.com/AnishMulay/sandtrap/internal/event_log/jsonl"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"
)

type MCPConfig struct {
	LogDir     string `yaml:"log_dir"`
	DefaultTop int    `yaml:"default_top"`
}

func LoadConfig(path string) (*MCPConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		defaultConfig := &MCPConfig{LogDir: "./data/logs", DefaultTop: 10}

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}

		data, err := yaml.Marshal(defaultConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}

		return defaultConfig, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := MCPConfig{DefaultTop: 10}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if config.LogDir == "" {
		return nil, fmt.Errorf("log_dir is required")
	}

	return &config, nil
}

// reportTool renders one section of a fresh report. The event file is re-read
// on every call so results follow the running honeypot.
func reportTool(cfg *MCPConfig, render func(io.Writer, analytics.Report)) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		top := request.GetInt("top", cfg.DefaultTop)
		if top <= 0 {
			return mcp.NewToolResultError("top must be positive"), nil
		}

		events, skipped, err := analytics.LoadFile(filepath.Join(cfg.LogDir, jsonl.FileName))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to load events: %v", err)), nil
		}

		var b strings.Builder
		render(&b, analytics.Analyze(events, top))
		if skipped > 0 {
			fmt.Fprintf(&b, "\n(%d malformed lines skipped)\n", skipped)
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func addTools(s *server.MCPServer, cfg *MCPConfig) {
	topParam := mcp.WithNumber("top",
		mcp.Description("Number of rows per ranking"),
	)

	s.AddTool(mcp.NewTool("summary",
		mcp.WithDescription("Connection, IP and session statistics from the honeypot event log"),
		topParam,
	), reportTool(cfg, analytics.RenderSummary))

	s.AddTool(mcp.NewTool("top_credentials",
		mcp.WithDescription("Most tried usernames, passwords and username/password pairs"),
		topParam,
	), reportTool(cfg, analytics.RenderCredentials))

	s.AddTool(mcp.NewTool("top_commands",
		mcp.WithDescription("Most common shell commands and exec requests"),
		topParam,
	), reportTool(cfg, analytics.RenderCommands))
}

func main() {
	configPath := flag.String("config", "./data/mcp.yaml", "Path to the MCP config (created with defaults if missing)")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"sandtrap",
		"1.0.0",
		server.WithToolCapabilities(false),
	)
	addTools(s, cfg)

	if err := server.ServeStdio(s); err != nil {
		fmt.Printf("Server error: %v\n", err)
	}
}
