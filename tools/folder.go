package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// CreateFolderHandler creates a handler for creating a new folder.
func CreateFolderHandler(svc FolderService, folders FolderResolver) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		name, ok := args["name"].(string)
		if !ok || name == "" {
			return mcp.NewToolResultError("name parameter is required"), nil
		}

		// Parent folder (default: mailbox root)
		parent, _ := args["parent"].(string)
		if parent == "" {
			parent = "root"
		}

		parentRef, err := folders.Resolve(ctx, parent)
		if err != nil {
			return errorResult("resolve parent folder", err), nil
		}

		folder, err := svc.CreateFolder(ctx, parentRef, name)
		if err != nil {
			return errorResult("create folder", err), nil
		}

		response := map[string]interface{}{
			"success": true,
			"folder":  folder,
			"message": fmt.Sprintf("Folder '%s' created under '%s'", name, parent),
		}
		return jsonResult(response), nil
	}
}

// DeleteFolderHandler creates a handler for deleting a folder.
func DeleteFolderHandler(svc FolderService, folders FolderResolver) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		identifier, ok := args["folder"].(string)
		if !ok || identifier == "" {
			return mcp.NewToolResultError("folder parameter is required"), nil
		}

		permanent := false
		if p, ok := args["permanent"].(bool); ok {
			permanent = p
		}

		ref, err := folders.Resolve(ctx, identifier)
		if err != nil {
			return errorResult("resolve folder", err), nil
		}

		if err := svc.DeleteFolder(ctx, ref, permanent); err != nil {
			return errorResult("delete folder", err), nil
		}

		response := map[string]interface{}{
			"success":   true,
			"folder":    identifier,
			"permanent": permanent,
			"message":   fmt.Sprintf("Folder '%s' deleted", identifier),
		}
		return jsonResult(response), nil
	}
}

// RenameFolderHandler creates a handler for renaming a folder.
func RenameFolderHandler(svc FolderService, folders FolderResolver) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		identifier, ok := args["folder"].(string)
		if !ok || identifier == "" {
			return mcp.NewToolResultError("folder parameter is required"), nil
		}
		newName, ok := args["new_name"].(string)
		if !ok || newName == "" {
			return mcp.NewToolResultError("new_name parameter is required"), nil
		}

		ref, err := folders.Resolve(ctx, identifier)
		if err != nil {
			return errorResult("resolve folder", err), nil
		}

		if err := svc.RenameFolder(ctx, ref, newName); err != nil {
			return errorResult("rename folder", err), nil
		}

		response := map[string]interface{}{
			"success":  true,
			"folder":   identifier,
			"new_name": newName,
			"message":  fmt.Sprintf("Folder '%s' renamed to '%s'", identifier, newName),
		}
		return jsonResult(response), nil
	}
}
