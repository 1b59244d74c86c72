package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mggger/ews-mcp/config"
	"github.com/mggger/ews-mcp/ews"
	"github.com/mggger/ews-mcp/ratelimit"
	"github.com/mggger/ews-mcp/resolve"
	"github.com/mggger/ews-mcp/tools"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	// Initialize structured logging
	logLevel := new(slog.LevelVar)
	logLevel.Set(slog.LevelInfo)
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		switch strings.ToUpper(lvl) {
		case "DEBUG":
			logLevel.Set(slog.LevelDebug)
		case "WARN":
			logLevel.Set(slog.LevelWarn)
		case "ERROR":
			logLevel.Set(slog.LevelError)
		}
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// Every backend call flows through the limiter and the retry policy
	limiter := ratelimit.New(cfg.RateLimitPerMinute, time.Minute, cfg.RateLimitWait)
	executor := ews.NewExecutor(limiter, ews.RetryPolicy{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    cfg.RetryMaxDelay,
	})

	client, err := ews.NewClient(cfg.ServerURL, cfg.Email, cfg.Username, cfg.Password, executor, ews.Options{
		Timeout:            cfg.RequestTimeout,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	})
	if err != nil {
		slog.Error("failed to create EWS client", "error", err)
		os.Exit(1)
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	// Test the connection by fetching the inbox
	if _, err := client.GetFolder(ctx, ews.FolderRef{Distinguished: ews.DistinguishedInbox}); err != nil {
		slog.Error("failed to connect to Exchange (check EWS_SERVER_URL and credentials)", "error", err)
		os.Exit(1)
	}

	folderResolver := resolve.NewFolderResolver(client, cfg.FolderSearchDepth)
	contactFinder := resolve.NewContactFinder(client)

	// Create MCP server with middleware (applied in reverse: logging wraps timeout wraps handler)
	s := server.NewMCPServer(
		"Exchange Mailbox Server",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(timeoutMiddleware(90*time.Second)),
		server.WithToolHandlerMiddleware(loggingMiddleware()),
	)

	registerFolderTools(s, client, folderResolver)
	registerMailTools(s, client, folderResolver)
	registerContactTools(s, client, contactFinder)
	registerCalendarTools(s, client, folderResolver, contactFinder)
	registerTaskTools(s, client, folderResolver)
	registerOOFTools(s, client)

	slog.Info("server starting",
		"version", version,
		"mailbox", cfg.Email,
		"endpoint", cfg.ServerURL,
		"rate_limit_per_minute", cfg.RateLimitPerMinute,
	)

	stdioServer := server.NewStdioServer(s)
	if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

// folderParam describes the loose folder identifier accepted everywhere a
// folder is addressed.
const folderParamHint = "Accepts a well-known name (inbox, sent, drafts, trash, junk, ...), a path like 'Inbox/Projects', a folder id, or a plain folder name to search for."

func registerFolderTools(s *server.MCPServer, client *ews.Client, resolver tools.FolderResolver) {
	listFoldersTool := mcp.NewTool("list_folders",
		mcp.WithDescription("List mail folders under a parent folder. Returns each folder's id, name, unread count and child count. Call this to discover folder names for other tools."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("parent",
			mcp.Description("Folder to list under. "+folderParamHint),
			mcp.DefaultString("root"),
		),
	)
	s.AddTool(listFoldersTool, tools.ListFoldersHandler(client, resolver))

	createFolderTool := mcp.NewTool("create_folder",
		mcp.WithDescription("Create a new mail folder under a parent folder. Calling twice with the same name fails because the folder already exists."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("name",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Name of the new folder."),
		),
		mcp.WithString("parent",
			mcp.Description("Parent folder. "+folderParamHint),
			mcp.DefaultString("root"),
		),
	)
	s.AddTool(createFolderTool, tools.CreateFolderHandler(client, resolver))

	deleteFolderTool := mcp.NewTool("delete_folder",
		mcp.WithDescription("Delete a mail folder and its contents. By default the folder is moved to trash; set permanent=true to remove it immediately."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("folder",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Folder to delete. "+folderParamHint),
		),
		mcp.WithBoolean("permanent",
			mcp.Description("Permanently delete instead of moving to trash. This cannot be undone."),
			mcp.DefaultBool(false),
		),
	)
	s.AddTool(deleteFolderTool, tools.DeleteFolderHandler(client, resolver))

	renameFolderTool := mcp.NewTool("rename_folder",
		mcp.WithDescription("Rename a mail folder without moving it."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("folder",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Folder to rename. "+folderParamHint),
		),
		mcp.WithString("new_name",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("New display name."),
		),
	)
	s.AddTool(renameFolderTool, tools.RenameFolderHandler(client, resolver))
}

func registerMailTools(s *server.MCPServer, client *ews.Client, resolver tools.FolderResolver) {
	sendEmailTool := mcp.NewTool("send_email",
		mcp.WithDescription("Compose and send an email, saving a copy to sent items. Returns the new message id. Calling twice sends duplicate emails."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("to",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Recipient email address (string) or JSON array of addresses."),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Email subject line."),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Email body content. Plain text by default; set html=true for HTML."),
		),
		mcp.WithString("cc",
			mcp.Description("CC email address (string) or JSON array of addresses."),
		),
		mcp.WithString("bcc",
			mcp.Description("BCC email address (string) or JSON array of addresses."),
		),
		mcp.WithBoolean("html",
			mcp.Description("Set true if body contains HTML."),
			mcp.DefaultBool(false),
		),
		mcp.WithString("importance",
			mcp.Enum("Low", "Normal", "High"),
			mcp.Description("Message importance."),
		),
		mcp.WithArray("attachments",
			mcp.Description("Attachments as objects with name, content_base64 and optional content_type."),
		),
	)
	s.AddTool(sendEmailTool, tools.SendEmailHandler(client))

	searchEmailsTool := mcp.NewTool("search_emails",
		mcp.WithDescription("Search and list emails in a folder, most recent first. Returns each email's id (use with get_email), from, subject, date and unread status, plus the total match count for paging."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("folder",
			mcp.Description("Folder to search in. "+folderParamHint),
			mcp.DefaultString("inbox"),
		),
		mcp.WithString("subject",
			mcp.Description("Substring to match in the subject line (case-insensitive)."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of emails to return."),
			mcp.DefaultNumber(50),
			mcp.Min(1),
			mcp.Max(200),
		),
		mcp.WithNumber("offset",
			mcp.Description("Number of most-recent matching emails to skip (for pagination)."),
			mcp.DefaultNumber(0),
			mcp.Min(0),
		),
		mcp.WithBoolean("unread_only",
			mcp.Description("Only return unread emails."),
			mcp.DefaultBool(false),
		),
		mcp.WithString("since",
			mcp.Description("Start date filter in RFC 3339 format (e.g., '2024-01-15T14:30:00Z')."),
		),
		mcp.WithString("before",
			mcp.Description("End date filter in RFC 3339 format (e.g., '2024-01-15T14:30:00Z')."),
		),
	)
	s.AddTool(searchEmailsTool, tools.SearchEmailsHandler(client, resolver))

	getEmailTool := mcp.NewTool("get_email",
		mcp.WithDescription("Fetch full email content by id. Use search_emails first to find ids. Returns from, to, cc, subject, date, body and attachment metadata."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("email_id",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Email id from search_emails results."),
		),
	)
	s.AddTool(getEmailTool, tools.GetEmailHandler(client))

	getAttachmentTool := mcp.NewTool("get_attachment",
		mcp.WithDescription("Download a file attachment by id. Use get_email first; each attachment in its metadata carries an id. Returns the content base64-encoded."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("attachment_id",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Attachment id from get_email attachment metadata."),
		),
	)
	s.AddTool(getAttachmentTool, tools.GetAttachmentHandler(client))

	deleteEmailTool := mcp.NewTool("delete_email",
		mcp.WithDescription("Delete an email. By default it is moved to trash; set permanent=true for immediate removal."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("email_id",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Email id to delete (from search_emails)."),
		),
		mcp.WithBoolean("permanent",
			mcp.Description("Permanently delete instead of moving to trash. This cannot be undone."),
			mcp.DefaultBool(false),
		),
	)
	s.AddTool(deleteEmailTool, tools.DeleteEmailHandler(client))

	moveEmailTool := mcp.NewTool("move_email",
		mcp.WithDescription("Move an email to another folder. The backend assigns a new id, returned as new_email_id."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("email_id",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Email id to move (from search_emails)."),
		),
		mcp.WithString("to_folder",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Destination folder. "+folderParamHint),
		),
	)
	s.AddTool(moveEmailTool, tools.MoveEmailHandler(client, resolver))

	markReadTool := mcp.NewTool("mark_read",
		mcp.WithDescription("Mark an email as read or unread."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("email_id",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Email id to mark (from search_emails)."),
		),
		mcp.WithBoolean("read",
			mcp.Description("true to mark as read, false to mark as unread."),
			mcp.DefaultBool(true),
		),
	)
	s.AddTool(markReadTool, tools.MarkReadHandler(client))
}

func registerContactTools(s *server.MCPServer, client *ews.Client, finder tools.ContactFinder) {
	findContactsTool := mcp.NewTool("find_contacts",
		mcp.WithDescription("Search for people by name or email fragment. Combines directory resolution, address-book substring search and wildcard matching; each match reports which strategy found it. An empty result is not an error."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("query",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Name or email fragment to search for."),
		),
		mcp.WithString("scope",
			mcp.Enum("directory", "contacts", "all"),
			mcp.Description("Where to search: the organization directory, personal contacts, or both."),
			mcp.DefaultString("all"),
		),
	)
	s.AddTool(findContactsTool, tools.FindContactsHandler(finder))

	createContactTool := mcp.NewTool("create_contact",
		mcp.WithDescription("Add a contact to the personal address book. Calling twice creates duplicate contacts."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("name",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Display name."),
		),
		mcp.WithString("email",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Primary email address."),
		),
		mcp.WithString("given_name", mcp.Description("First name.")),
		mcp.WithString("surname", mcp.Description("Last name.")),
		mcp.WithString("company", mcp.Description("Company name.")),
		mcp.WithString("job_title", mcp.Description("Job title.")),
		mcp.WithString("phone", mcp.Description("Business phone number.")),
	)
	s.AddTool(createContactTool, tools.CreateContactHandler(client))
}

func registerCalendarTools(s *server.MCPServer, client *ews.Client, resolver tools.FolderResolver, finder tools.ContactFinder) {
	getCalendarTool := mcp.NewTool("get_calendar",
		mcp.WithDescription("List calendar events in a date range, with recurring series expanded into individual occurrences. Defaults to the coming 7 days."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("start",
			mcp.Description("Range start in RFC 3339 format. Defaults to now."),
		),
		mcp.WithString("end",
			mcp.Description("Range end in RFC 3339 format. Defaults to 7 days after start."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of events to return."),
			mcp.Min(1),
		),
		mcp.WithString("calendar",
			mcp.Description("Calendar folder to read. "+folderParamHint),
			mcp.DefaultString("calendar"),
		),
	)
	s.AddTool(getCalendarTool, tools.GetCalendarHandler(client, resolver))

	createAppointmentTool := mcp.NewTool("create_appointment",
		mcp.WithDescription("Create a calendar event. Attendees may be email addresses or names; names are resolved through the contact search. Invitations are sent when attendees are present. Calling twice creates duplicate events."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Event subject."),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Event start in RFC 3339 format."),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("Event end in RFC 3339 format."),
		),
		mcp.WithString("location", mcp.Description("Event location.")),
		mcp.WithString("body", mcp.Description("Event description.")),
		mcp.WithBoolean("all_day",
			mcp.Description("Create as an all-day event."),
			mcp.DefaultBool(false),
		),
		mcp.WithArray("attendees",
			mcp.Description("Attendee email addresses or names."),
		),
	)
	s.AddTool(createAppointmentTool, tools.CreateAppointmentHandler(client, finder))

	updateAppointmentTool := mcp.NewTool("update_appointment",
		mcp.WithDescription("Modify an existing calendar event. Only the provided fields change; attendees are notified of the update."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("appointment_id",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Event id (from get_calendar)."),
		),
		mcp.WithString("subject", mcp.Description("New subject.")),
		mcp.WithString("start", mcp.Description("New start in RFC 3339 format.")),
		mcp.WithString("end", mcp.Description("New end in RFC 3339 format.")),
		mcp.WithString("location", mcp.Description("New location.")),
		mcp.WithString("body", mcp.Description("New description.")),
	)
	s.AddTool(updateAppointmentTool, tools.UpdateAppointmentHandler(client))

	deleteAppointmentTool := mcp.NewTool("delete_appointment",
		mcp.WithDescription("Cancel and delete a calendar event, notifying attendees."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("appointment_id",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Event id (from get_calendar)."),
		),
	)
	s.AddTool(deleteAppointmentTool, tools.DeleteAppointmentHandler(client))

	respondToMeetingTool := mcp.NewTool("respond_to_meeting",
		mcp.WithDescription("Accept, tentatively accept or decline a meeting invitation. The organizer is notified."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("appointment_id",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Event id of the invitation (from get_calendar)."),
		),
		mcp.WithString("response",
			mcp.Required(),
			mcp.Enum("accept", "tentative", "decline"),
			mcp.Description("The answer to send."),
		),
	)
	s.AddTool(respondToMeetingTool, tools.RespondToMeetingHandler(client))
}

func registerTaskTools(s *server.MCPServer, client *ews.Client, resolver tools.FolderResolver) {
	getTasksTool := mcp.NewTool("get_tasks",
		mcp.WithDescription("List tasks ordered by due date, optionally filtered by status."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("folder",
			mcp.Description("Tasks folder to read. "+folderParamHint),
			mcp.DefaultString("tasks"),
		),
		mcp.WithString("status",
			mcp.Enum("NotStarted", "InProgress", "Completed", "WaitingOnOthers", "Deferred"),
			mcp.Description("Only return tasks with this status."),
		),
	)
	s.AddTool(getTasksTool, tools.GetTasksHandler(client, resolver))

	createTaskTool := mcp.NewTool("create_task",
		mcp.WithDescription("Add a task to the default tasks folder. Calling twice creates duplicate tasks."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Task subject."),
		),
		mcp.WithString("body", mcp.Description("Task description.")),
		mcp.WithString("due_date", mcp.Description("Due date in RFC 3339 format.")),
	)
	s.AddTool(createTaskTool, tools.CreateTaskHandler(client))

	completeTaskTool := mcp.NewTool("complete_task",
		mcp.WithDescription("Mark a task as completed."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Task id (from get_tasks)."),
		),
	)
	s.AddTool(completeTaskTool, tools.CompleteTaskHandler(client))

	deleteTaskTool := mcp.NewTool("delete_task",
		mcp.WithDescription("Permanently delete a task."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.MinLength(1),
			mcp.Description("Task id (from get_tasks)."),
		),
	)
	s.AddTool(deleteTaskTool, tools.DeleteTaskHandler(client))
}

func registerOOFTools(s *server.MCPServer, client *ews.Client) {
	getOOFTool := mcp.NewTool("get_oof_settings",
		mcp.WithDescription("Read the mailbox's out-of-office (automatic reply) settings."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
	)
	s.AddTool(getOOFTool, tools.GetOOFHandler(client))

	setOOFTool := mcp.NewTool("set_oof_settings",
		mcp.WithDescription("Update the mailbox's out-of-office (automatic reply) settings."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("state",
			mcp.Required(),
			mcp.Enum("Disabled", "Enabled", "Scheduled"),
			mcp.Description("Automatic reply state."),
		),
		mcp.WithString("internal_reply", mcp.Description("Reply sent to people in the organization.")),
		mcp.WithString("external_reply", mcp.Description("Reply sent to external senders.")),
		mcp.WithString("external_audience",
			mcp.Enum("None", "Known", "All"),
			mcp.Description("Which external senders receive the external reply."),
		),
		mcp.WithString("start", mcp.Description("Schedule start in RFC 3339 format (Scheduled state only).")),
		mcp.WithString("end", mcp.Description("Schedule end in RFC 3339 format (Scheduled state only).")),
	)
	s.AddTool(setOOFTool, tools.SetOOFHandler(client))
}

// timeoutMiddleware bounds each tool call with a deadline. An overrun is
// reported as a retryable tool error, worded the way the ews layer reports
// its own timeouts, so orchestrators see one consistent retry signal.
func timeoutMiddleware(timeout time.Duration) server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			result, err := next(ctx, req)
			if err != nil && errors.Is(err, context.DeadlineExceeded) {
				msg := fmt.Sprintf("%s timed out after %s; the outcome is unknown and the call can be retried", req.Params.Name, timeout)
				return mcp.NewToolResultError(msg), nil
			}
			return result, err
		}
	}
}

// loggingMiddleware tags every tool call with a request id and logs its
// duration and outcome. Tool errors carry their detail text so rate-limit
// and backend-unavailable outcomes are visible without raising the level.
func loggingMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			logger := slog.With("request_id", uuid.New().String(), "tool", req.Params.Name)
			logger.Debug("tool call started")
			start := time.Now()

			result, err := next(ctx, req)
			durationMS := time.Since(start).Milliseconds()

			switch {
			case err != nil:
				logger.Error("tool call failed", "duration_ms", durationMS, "error", err)
			case result != nil && result.IsError:
				logger.Warn("tool call returned error", "duration_ms", durationMS, "detail", resultText(result))
			default:
				logger.Info("tool call completed", "duration_ms", durationMS)
			}
			return result, err
		}
	}
}

// resultText extracts the first text block of a tool result for logging.
func resultText(result *mcp.CallToolResult) string {
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}
