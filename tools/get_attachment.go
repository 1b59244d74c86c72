package tools

import (
	"context"
	"encoding/base64"

	"github.com/mark3labs/mcp-go/mcp"
)

// GetAttachmentHandler creates a handler for downloading a file attachment
// by the id reported in a fetched email's attachment list.
func GetAttachmentHandler(svc MailService) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		attachmentID, ok := args["attachment_id"].(string)
		if !ok || attachmentID == "" {
			return mcp.NewToolResultError("attachment_id parameter is required"), nil
		}

		attachment, err := svc.GetAttachment(ctx, attachmentID)
		if err != nil {
			return errorResult("get attachment", err), nil
		}

		response := map[string]interface{}{
			"name":           attachment.Name,
			"content_type":   attachment.ContentType,
			"size":           len(attachment.Content),
			"content_base64": base64.StdEncoding.EncodeToString(attachment.Content),
		}
		return jsonResult(response), nil
	}
}
