package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// ListFoldersHandler creates a handler for listing mail folders.
func ListFoldersHandler(svc FolderService, folders FolderResolver) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		// Parent folder to list under (default: mailbox root)
		parent, _ := args["parent"].(string)
		if parent == "" {
			parent = "root"
		}

		ref, err := folders.Resolve(ctx, parent)
		if err != nil {
			return errorResult("resolve folder", err), nil
		}

		children, err := svc.ListChildFolders(ctx, ref)
		if err != nil {
			return errorResult("list folders", err), nil
		}

		response := map[string]interface{}{
			"parent":  parent,
			"count":   len(children),
			"folders": children,
		}
		return jsonResult(response), nil
	}
}
