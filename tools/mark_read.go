package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// MarkReadHandler creates a handler for marking an email read or unread.
func MarkReadHandler(svc MailService) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		emailID, ok := args["email_id"].(string)
		if !ok || emailID == "" {
			return mcp.NewToolResultError("email_id parameter is required"), nil
		}

		read := true
		if r, ok := args["read"].(bool); ok {
			read = r
		}

		if err := svc.MarkRead(ctx, emailID, read); err != nil {
			return errorResult("mark email", err), nil
		}

		state := "read"
		if !read {
			state = "unread"
		}
		response := map[string]interface{}{
			"success":  true,
			"email_id": emailID,
			"read":     read,
			"message":  fmt.Sprintf("Email marked as %s", state),
		}
		return jsonResult(response), nil
	}
}
