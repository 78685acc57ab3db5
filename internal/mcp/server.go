// Package mcp exposes the ground-command and telemetry-query surface as
// Model Context Protocol tools, grounded directly on the teacher's
// internal/mcp/server.go and handlers.go (mark3labs/mcp-go), transplanted
// from host performance diagnostics onto the FDIR panel fleet: the tool
// set becomes get_panel_status, list_panels, post_ground_command, and
// explain_trip in place of get_health/collect_metrics/explain_anomaly/
// list_anomalies.
package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/orbitwatch/eps-fdir/internal/runtime"
)

// Server wraps the panel fleet's MCP tool surface.
type Server struct {
	mcpServer *server.MCPServer
	sys       *runtime.System
}

// NewServer creates a Server for sys, named and versioned as the root
// MCP server identity.
func NewServer(sys *runtime.System, version string) *Server {
	s := &Server{
		sys: sys,
		mcpServer: server.NewMCPServer("eps-fdir", version, server.WithLogging()),
	}
	s.registerTools()
	return s
}

// Start runs the server over stdio until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_panel_status",
		mcp.WithDescription("Return the protection state and counters for one panel."),
		mcp.WithNumber("panel", mcp.Required(), mcp.Description("Panel id, 0-based.")),
	), s.handleGetPanelStatus)

	s.mcpServer.AddTool(mcp.NewTool("list_panels",
		mcp.WithDescription("Return a fleet-wide narrative summary and per-panel state."),
	), s.handleListPanels)

	s.mcpServer.AddTool(mcp.NewTool("post_ground_command",
		mcp.WithDescription("Post a ground command to one panel's protection FSM."),
		mcp.WithNumber("panel", mcp.Required(), mcp.Description("Panel id, 0-based.")),
		mcp.WithString("command", mcp.Required(),
			mcp.Enum("REENABLE", "PERMANENT_DISABLE", "RESET_STATS"),
			mcp.Description("Ground command to post.")),
	), s.handlePostGroundCommand)

	s.mcpServer.AddTool(mcp.NewTool("explain_trip",
		mcp.WithDescription("Explain why a panel tripped, in plain language."),
		mcp.WithNumber("panel", mcp.Required(), mcp.Description("Panel id, 0-based.")),
	), s.handleExplainTrip)
}
