package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mggger/ews-mcp/ews"
)

// GetCalendarHandler creates a handler for listing calendar events in a
// date range.
func GetCalendarHandler(svc CalendarService, folders FolderResolver) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		// Default window: the coming 7 days
		start := time.Now()
		end := start.AddDate(0, 0, 7)

		if s, ok := args["start"].(string); ok && s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid start format: %v (use ISO 8601 format like '2024-01-15T14:30:00Z')", err)), nil
			}
			start = t
			end = start.AddDate(0, 0, 7)
		}
		if s, ok := args["end"].(string); ok && s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid end format: %v (use ISO 8601 format like '2024-01-15T14:30:00Z')", err)), nil
			}
			end = t
		}
		if !end.After(start) {
			return mcp.NewToolResultError("end must be after start"), nil
		}

		max := 0
		if limit, ok := args["limit"].(float64); ok && limit > 0 {
			max = int(limit)
		}

		calendar, _ := args["calendar"].(string)
		if calendar == "" {
			calendar = "calendar"
		}
		ref, err := folders.Resolve(ctx, calendar)
		if err != nil {
			return errorResult("resolve calendar folder", err), nil
		}

		events, err := svc.ListEvents(ctx, ref, start, end, max)
		if err != nil {
			return errorResult("list calendar events", err), nil
		}

		response := map[string]interface{}{
			"start":  start.Format(time.RFC3339),
			"end":    end.Format(time.RFC3339),
			"count":  len(events),
			"events": events,
		}
		return jsonResult(response), nil
	}
}

// CreateAppointmentHandler creates a handler for creating a calendar event.
// Attendee entries may be email addresses or names, names are resolved
// through the contact finder.
func CreateAppointmentHandler(svc CalendarService, finder ContactFinder) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		subject, ok := args["subject"].(string)
		if !ok || subject == "" {
			return mcp.NewToolResultError("subject parameter is required"), nil
		}
		startStr, ok := args["start"].(string)
		if !ok || startStr == "" {
			return mcp.NewToolResultError("start parameter is required"), nil
		}
		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid start format: %v (use ISO 8601 format like '2024-01-15T14:30:00Z')", err)), nil
		}
		endStr, ok := args["end"].(string)
		if !ok || endStr == "" {
			return mcp.NewToolResultError("end parameter is required"), nil
		}
		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid end format: %v (use ISO 8601 format like '2024-01-15T14:30:00Z')", err)), nil
		}
		if !end.After(start) {
			return mcp.NewToolResultError("end must be after start"), nil
		}

		event := ews.Event{
			Subject: subject,
			Start:   start,
			End:     end,
		}
		if v, ok := args["location"].(string); ok {
			event.Location = v
		}
		if v, ok := args["body"].(string); ok {
			event.BodyText = v
		}
		if v, ok := args["all_day"].(bool); ok {
			event.AllDay = v
		}

		if raw, ok := args["attendees"].([]interface{}); ok {
			for _, entry := range raw {
				name, ok := entry.(string)
				if !ok || name == "" {
					continue
				}
				address, err := resolveAttendee(ctx, finder, name)
				if err != nil {
					return errorResult("resolve attendee", err), nil
				}
				if address == "" {
					return mcp.NewToolResultError(fmt.Sprintf("could not resolve attendee '%s' to an email address", name)), nil
				}
				event.Attendees = append(event.Attendees, address)
			}
		}

		ref, err := svc.CreateEvent(ctx, event)
		if err != nil {
			return errorResult("create appointment", err), nil
		}

		response := map[string]interface{}{
			"success":        true,
			"appointment_id": ref.ID,
			"subject":        subject,
			"start":          start.Format(time.RFC3339),
			"end":            end.Format(time.RFC3339),
		}
		if len(event.Attendees) > 0 {
			response["attendees"] = event.Attendees
		}
		return jsonResult(response), nil
	}
}

// resolveAttendee accepts an email address as-is and resolves anything else
// through the contact finder, taking the first match.
func resolveAttendee(ctx context.Context, finder ContactFinder, name string) (string, error) {
	if strings.Contains(name, "@") {
		return name, nil
	}
	result, err := finder.Find(ctx, name, ews.ScopeActiveDirectoryContacts)
	if err != nil {
		return "", err
	}
	for _, match := range result.Matches {
		if match.EmailAddress != "" {
			return match.EmailAddress, nil
		}
	}
	return "", nil
}

// UpdateAppointmentHandler creates a handler for modifying an existing
// calendar event.
func UpdateAppointmentHandler(svc CalendarService) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		appointmentID, ok := args["appointment_id"].(string)
		if !ok || appointmentID == "" {
			return mcp.NewToolResultError("appointment_id parameter is required"), nil
		}

		var changes ews.EventChanges
		if v, ok := args["subject"].(string); ok && v != "" {
			changes.Subject = &v
		}
		if s, ok := args["start"].(string); ok && s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid start format: %v (use ISO 8601 format like '2024-01-15T14:30:00Z')", err)), nil
			}
			changes.Start = &t
		}
		if s, ok := args["end"].(string); ok && s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid end format: %v (use ISO 8601 format like '2024-01-15T14:30:00Z')", err)), nil
			}
			changes.End = &t
		}
		if v, ok := args["location"].(string); ok && v != "" {
			changes.Location = &v
		}
		if v, ok := args["body"].(string); ok && v != "" {
			changes.Body = &v
		}
		if changes == (ews.EventChanges{}) {
			return mcp.NewToolResultError("nothing to update: provide at least one of subject, start, end, location, body"), nil
		}

		if err := svc.UpdateEvent(ctx, appointmentID, changes); err != nil {
			return errorResult("update appointment", err), nil
		}

		response := map[string]interface{}{
			"success":        true,
			"appointment_id": appointmentID,
			"message":        "Appointment updated",
		}
		return jsonResult(response), nil
	}
}

// RespondToMeetingHandler creates a handler for answering a meeting
// invitation.
func RespondToMeetingHandler(svc CalendarService) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		appointmentID, ok := args["appointment_id"].(string)
		if !ok || appointmentID == "" {
			return mcp.NewToolResultError("appointment_id parameter is required"), nil
		}

		var response string
		switch args["response"] {
		case "accept":
			response = ews.MeetingAccept
		case "tentative":
			response = ews.MeetingTentative
		case "decline":
			response = ews.MeetingDecline
		default:
			return mcp.NewToolResultError("response must be one of accept, tentative, decline"), nil
		}

		if err := svc.RespondToMeeting(ctx, appointmentID, response); err != nil {
			return errorResult("respond to meeting", err), nil
		}

		result := map[string]interface{}{
			"success":        true,
			"appointment_id": appointmentID,
			"response":       response,
			"message":        "Response sent to the organizer",
		}
		return jsonResult(result), nil
	}
}

// DeleteAppointmentHandler creates a handler for cancelling a calendar
// event.
func DeleteAppointmentHandler(svc CalendarService) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		appointmentID, ok := args["appointment_id"].(string)
		if !ok || appointmentID == "" {
			return mcp.NewToolResultError("appointment_id parameter is required"), nil
		}

		if err := svc.DeleteEvent(ctx, appointmentID); err != nil {
			return errorResult("delete appointment", err), nil
		}

		response := map[string]interface{}{
			"success":        true,
			"appointment_id": appointmentID,
			"message":        "Appointment deleted, attendees were notified",
		}
		return jsonResult(response), nil
	}
}
