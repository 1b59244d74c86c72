package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mggger/ews-mcp/ews"
)

// GetTasksHandler creates a handler for listing tasks.
func GetTasksHandler(svc TaskService, folders FolderResolver) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		folder, _ := args["folder"].(string)
		if folder == "" {
			folder = "tasks"
		}
		ref, err := folders.Resolve(ctx, folder)
		if err != nil {
			return errorResult("resolve tasks folder", err), nil
		}

		tasks, err := svc.ListTasks(ctx, ref)
		if err != nil {
			return errorResult("list tasks", err), nil
		}

		// Optional status filter (NotStarted, InProgress, Completed, ...)
		if status, ok := args["status"].(string); ok && status != "" {
			filtered := tasks[:0]
			for _, task := range tasks {
				if task.Status == status {
					filtered = append(filtered, task)
				}
			}
			tasks = filtered
		}

		response := map[string]interface{}{
			"count": len(tasks),
			"tasks": tasks,
		}
		return jsonResult(response), nil
	}
}

// CreateTaskHandler creates a handler for adding a task.
func CreateTaskHandler(svc TaskService) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		subject, ok := args["subject"].(string)
		if !ok || subject == "" {
			return mcp.NewToolResultError("subject parameter is required"), nil
		}

		task := ews.Task{Subject: subject}
		if v, ok := args["body"].(string); ok {
			task.BodyText = v
		}
		if s, ok := args["due_date"].(string); ok && s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid due_date format: %v (use ISO 8601 format like '2024-01-15T14:30:00Z')", err)), nil
			}
			task.DueDate = &t
		}

		ref, err := svc.CreateTask(ctx, task)
		if err != nil {
			return errorResult("create task", err), nil
		}

		response := map[string]interface{}{
			"success": true,
			"task_id": ref.ID,
			"subject": subject,
		}
		return jsonResult(response), nil
	}
}

// CompleteTaskHandler creates a handler for marking a task as done.
func CompleteTaskHandler(svc TaskService) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		taskID, ok := args["task_id"].(string)
		if !ok || taskID == "" {
			return mcp.NewToolResultError("task_id parameter is required"), nil
		}

		if err := svc.CompleteTask(ctx, taskID); err != nil {
			return errorResult("complete task", err), nil
		}

		response := map[string]interface{}{
			"success": true,
			"task_id": taskID,
			"message": "Task marked as completed",
		}
		return jsonResult(response), nil
	}
}

// DeleteTaskHandler creates a handler for deleting a task.
func DeleteTaskHandler(svc TaskService) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		taskID, ok := args["task_id"].(string)
		if !ok || taskID == "" {
			return mcp.NewToolResultError("task_id parameter is required"), nil
		}

		if err := svc.DeleteTask(ctx, taskID); err != nil {
			return errorResult("delete task", err), nil
		}

		response := map[string]interface{}{
			"success": true,
			"task_id": taskID,
			"message": "Task deleted",
		}
		return jsonResult(response), nil
	}
}
