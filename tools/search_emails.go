package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mggger/ews-mcp/ews"
)

// SearchEmailsHandler creates a handler for searching emails in a folder.
func SearchEmailsHandler(svc MailService, folders FolderResolver) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		// Folder accepts a well-known name, path or id (default: inbox)
		folder, _ := args["folder"].(string)
		if folder == "" {
			folder = "inbox"
		}

		opts := ews.SearchOptions{
			Limit: 50,
		}

		if subject, ok := args["subject"].(string); ok {
			opts.Subject = subject
		}

		if limit, ok := args["limit"].(float64); ok && limit > 0 {
			opts.Limit = int(limit)
			if opts.Limit > 200 {
				opts.Limit = 200
			}
		}

		if offset, ok := args["offset"].(float64); ok && offset > 0 {
			opts.Offset = int(offset)
		}

		if unreadOnly, ok := args["unread_only"].(bool); ok {
			opts.UnreadOnly = unreadOnly
		}

		if sinceStr, ok := args["since"].(string); ok && sinceStr != "" {
			t, err := time.Parse(time.RFC3339, sinceStr)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid since format: %v (use ISO 8601 format like '2024-01-15T14:30:00Z')", err)), nil
			}
			opts.Since = &t
		}

		if beforeStr, ok := args["before"].(string); ok && beforeStr != "" {
			t, err := time.Parse(time.RFC3339, beforeStr)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid before format: %v (use ISO 8601 format like '2024-01-15T14:30:00Z')", err)), nil
			}
			opts.Before = &t
		}

		ref, err := folders.Resolve(ctx, folder)
		if err != nil {
			return errorResult("resolve folder", err), nil
		}

		emails, total, err := svc.SearchMessages(ctx, ref, opts)
		if err != nil {
			return errorResult("search emails", err), nil
		}

		response := map[string]interface{}{
			"folder": folder,
			"count":  len(emails),
			"total":  total,
			"emails": emails,
		}
		if opts.Subject != "" {
			response["subject"] = opts.Subject
		}
		return jsonResult(response), nil
	}
}
