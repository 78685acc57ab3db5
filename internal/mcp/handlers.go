package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/orbitwatch/eps-fdir/internal/protection"
	"github.com/orbitwatch/eps-fdir/internal/telemetry"
)

func (s *Server) handleGetPanelStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	panelID, err := panelArg(request)
	if err != nil {
		return errResult(err.Error()), nil
	}
	p := s.sys.Panel(panelID)
	if p == nil {
		return errResult(fmt.Sprintf("panel %d out of range (fleet has %d panels)", panelID, s.sys.NumPanels())), nil
	}

	enable, trip, falseAlarm := p.Counters()
	summary := map[string]interface{}{
		"panel":             panelID,
		"state":             p.State().String(),
		"enable_count":      enable,
		"trip_count":        trip,
		"false_alarm_count": falseAlarm,
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(data)), nil
}

func (s *Server) handleListPanels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fleet := s.sys.Fleet()
	narrative := telemetry.NarrativeSummary(fleet, 0)

	summary := map[string]interface{}{
		"narrative": narrative,
		"panels":    fleet,
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(data)), nil
}

func (s *Server) handlePostGroundCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	panelID, err := panelArg(request)
	if err != nil {
		return errResult(err.Error()), nil
	}
	if s.sys.Panel(panelID) == nil {
		return errResult(fmt.Sprintf("panel %d out of range (fleet has %d panels)", panelID, s.sys.NumPanels())), nil
	}

	cmdStr := stringArg(getArgs(request), "command", "")
	cmd, ok := parseCommand(cmdStr)
	if !ok {
		return errResult(fmt.Sprintf("unknown command %q", cmdStr)), nil
	}

	s.sys.PostCommand(panelID, cmd)
	return newTextResult(fmt.Sprintf("posted %s to panel %d", cmdStr, panelID)), nil
}

func (s *Server) handleExplainTrip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	panelID, err := panelArg(request)
	if err != nil {
		return errResult(err.Error()), nil
	}
	p := s.sys.Panel(panelID)
	if p == nil {
		return errResult(fmt.Sprintf("panel %d out of range (fleet has %d panels)", panelID, s.sys.NumPanels())), nil
	}

	if p.State() != protection.Tripped && p.State() != protection.Recovery {
		return newTextResult(fmt.Sprintf("panel %d is currently %s; no active trip to explain.", panelID, p.State())), nil
	}

	_, trip, falseAlarm := p.Counters()
	return newTextResult(fmt.Sprintf(
		"Panel %d is %s. Lifetime trips: %d, false alarms auto-cleared: %d. "+
			"A trip follows two or more of: predicted power above nominal*1.2, voltage below prediction by 0.5V, "+
			"high joint dP/dV dynamics, or a residual beyond 3 sigma, sustained through hardware confirmation.",
		panelID, p.State(), trip, falseAlarm,
	)), nil
}

func panelArg(request mcp.CallToolRequest) (int, error) {
	args := getArgs(request)
	val, ok := args["panel"]
	if !ok || val == nil {
		return 0, fmt.Errorf("panel is required")
	}
	f, ok := val.(float64)
	if !ok {
		return 0, fmt.Errorf("panel must be a number")
	}
	return int(f), nil
}

func parseCommand(s string) (protection.Command, bool) {
	switch s {
	case "REENABLE":
		return protection.CmdReenable, true
	case "PERMANENT_DISABLE":
		return protection.CmdPermanentDisable, true
	case "RESET_STATS":
		return protection.CmdResetStats, true
	default:
		return protection.CmdNone, false
	}
}

func getArgs(request mcp.CallToolRequest) map[string]interface{} {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

func stringArg(args map[string]interface{}, key, defaultVal string) string {
	val, ok := args[key]
	if !ok || val == nil {
		return defaultVal
	}
	s, ok := val.(string)
	if !ok || s == "" {
		return defaultVal
	}
	return s
}

func newTextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
	}
}
