package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// MoveEmailHandler creates a handler for moving an email to another folder.
func MoveEmailHandler(svc MailService, folders FolderResolver) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		emailID, ok := args["email_id"].(string)
		if !ok || emailID == "" {
			return mcp.NewToolResultError("email_id parameter is required"), nil
		}
		destination, ok := args["to_folder"].(string)
		if !ok || destination == "" {
			return mcp.NewToolResultError("to_folder parameter is required"), nil
		}

		ref, err := folders.Resolve(ctx, destination)
		if err != nil {
			return errorResult("resolve destination folder", err), nil
		}

		moved, err := svc.MoveMessage(ctx, emailID, ref)
		if err != nil {
			return errorResult("move email", err), nil
		}

		response := map[string]interface{}{
			"success":   true,
			"email_id":  emailID,
			"to_folder": destination,
			"message":   fmt.Sprintf("Email moved to '%s'", destination),
		}
		// the backend assigns a new id on move
		if moved.ID != "" {
			response["new_email_id"] = moved.ID
		}
		return jsonResult(response), nil
	}
}
