package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mggger/ews-mcp/ews"
)

// GetOOFHandler creates a handler for reading out-of-office settings.
func GetOOFHandler(svc OOFService) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		settings, err := svc.GetOOF(ctx)
		if err != nil {
			return errorResult("get out-of-office settings", err), nil
		}
		return jsonResult(settings), nil
	}
}

// SetOOFHandler creates a handler for updating out-of-office settings.
func SetOOFHandler(svc OOFService) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		state, ok := args["state"].(string)
		if !ok || state == "" {
			return mcp.NewToolResultError("state parameter is required"), nil
		}
		switch state {
		case "Disabled", "Enabled", "Scheduled":
		default:
			return mcp.NewToolResultError("state must be one of Disabled, Enabled, Scheduled"), nil
		}

		settings := ews.OOFSettings{State: state}
		if v, ok := args["internal_reply"].(string); ok {
			settings.InternalReply = v
		}
		if v, ok := args["external_reply"].(string); ok {
			settings.ExternalReply = v
		}
		if v, ok := args["external_audience"].(string); ok && v != "" {
			switch v {
			case "None", "Known", "All":
				settings.ExternalAudience = v
			default:
				return mcp.NewToolResultError("external_audience must be one of None, Known, All"), nil
			}
		}
		if s, ok := args["start"].(string); ok && s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid start format: %v (use ISO 8601 format like '2024-01-15T14:30:00Z')", err)), nil
			}
			settings.Start = &t
		}
		if s, ok := args["end"].(string); ok && s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid end format: %v (use ISO 8601 format like '2024-01-15T14:30:00Z')", err)), nil
			}
			settings.End = &t
		}
		if state == "Scheduled" && (settings.Start == nil || settings.End == nil) {
			return mcp.NewToolResultError("Scheduled state requires both start and end"), nil
		}

		if err := svc.SetOOF(ctx, settings); err != nil {
			return errorResult("set out-of-office settings", err), nil
		}

		response := map[string]interface{}{
			"success": true,
			"state":   state,
			"message": fmt.Sprintf("Out-of-office state set to %s", state),
		}
		return jsonResult(response), nil
	}
}
