package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// GetEmailHandler creates a handler for fetching a single email by id.
func GetEmailHandler(svc MailService) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		emailID, ok := args["email_id"].(string)
		if !ok || emailID == "" {
			return mcp.NewToolResultError("email_id parameter is required"), nil
		}

		email, err := svc.GetMessage(ctx, emailID)
		if err != nil {
			return errorResult("get email", err), nil
		}

		return jsonResult(email), nil
	}
}
