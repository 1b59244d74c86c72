package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// DeleteEmailHandler creates a handler for deleting an email.
func DeleteEmailHandler(svc MailService) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		emailID, ok := args["email_id"].(string)
		if !ok || emailID == "" {
			return mcp.NewToolResultError("email_id parameter is required"), nil
		}

		permanent := false
		if p, ok := args["permanent"].(bool); ok {
			permanent = p
		}

		if err := svc.DeleteMessage(ctx, emailID, permanent); err != nil {
			return errorResult("delete email", err), nil
		}

		action := "moved to trash"
		if permanent {
			action = "permanently deleted"
		}
		response := map[string]interface{}{
			"success":   true,
			"email_id":  emailID,
			"permanent": permanent,
			"message":   fmt.Sprintf("Email %s", action),
		}
		return jsonResult(response), nil
	}
}
