package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mggger/ews-mcp/ews"
	"github.com/mggger/ews-mcp/ratelimit"
	"github.com/mggger/ews-mcp/resolve"
)

// req builds a mcp.CallToolRequest with the given arguments.
func req(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// resultJSON unmarshals the text content of a successful result.
func resultJSON(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success but got error: %+v", result.Content)
	}
	if len(result.Content) == 0 {
		t.Fatal("expected content but got none")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(text.Text), &m); err != nil {
		t.Fatalf("failed to unmarshal result JSON: %v", err)
	}
	return m
}

// resultErrText extracts the error message from an error result.
func resultErrText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if !result.IsError {
		t.Fatalf("expected error result but got success: %+v", result.Content)
	}
	if len(result.Content) == 0 {
		return ""
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return text.Text
}

// --- ListFolders ---

func TestListFoldersHandler(t *testing.T) {
	tests := []struct {
		name    string
		mock    *MockMailbox
		args    map[string]interface{}
		wantErr bool
	}{
		{
			name: "happy path",
			mock: &MockMailbox{
				Folders: []ews.Folder{
					{ID: "f1", DisplayName: "Projects"},
					{ID: "f2", DisplayName: "Receipts"},
				},
			},
		},
		{
			name:    "backend error",
			mock:    newErrMock("connection lost"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &MockResolver{Ref: ews.FolderRef{Distinguished: ews.DistinguishedRoot}}
			handler := ListFoldersHandler(tt.mock, resolver)
			result, err := handler(context.Background(), req(tt.args))
			if err != nil {
				t.Fatalf("unexpected Go error: %v", err)
			}
			if tt.wantErr {
				if !result.IsError {
					t.Fatal("expected error result")
				}
				return
			}
			m := resultJSON(t, result)
			if m["count"].(float64) != 2 {
				t.Errorf("count = %v, want 2", m["count"])
			}
			if resolver.LastIdentifier != "root" {
				t.Errorf("resolved %q, want default root", resolver.LastIdentifier)
			}
		})
	}
}

func TestCreateFolderHandler(t *testing.T) {
	mock := &MockMailbox{Folder: &ews.Folder{ID: "new", DisplayName: "Archive 2026"}}
	resolver := &MockResolver{Ref: ews.FolderRef{Distinguished: ews.DistinguishedInbox}}
	handler := CreateFolderHandler(mock, resolver)

	result, err := handler(context.Background(), req(map[string]interface{}{
		"name":   "Archive 2026",
		"parent": "inbox",
	}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	m := resultJSON(t, result)
	if m["success"] != true {
		t.Error("expected success")
	}
	if mock.LastName != "Archive 2026" {
		t.Errorf("created %q, want Archive 2026", mock.LastName)
	}

	result, _ = handler(context.Background(), req(nil))
	if got := resultErrText(t, result); !strings.Contains(got, "name") {
		t.Errorf("error %q should mention the missing name", got)
	}
}

func TestDeleteFolderHandler(t *testing.T) {
	mock := &MockMailbox{}
	resolver := &MockResolver{Ref: ews.FolderRef{ID: "f9"}}
	handler := DeleteFolderHandler(mock, resolver)

	result, err := handler(context.Background(), req(map[string]interface{}{
		"folder":    "Inbox/Old",
		"permanent": true,
	}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	resultJSON(t, result)
	if !mock.LastPermanent {
		t.Error("permanent flag not passed through")
	}
	if resolver.LastIdentifier != "Inbox/Old" {
		t.Errorf("resolved %q, want Inbox/Old", resolver.LastIdentifier)
	}
}

func TestRenameFolderHandler(t *testing.T) {
	mock := &MockMailbox{}
	resolver := &MockResolver{Ref: ews.FolderRef{ID: "f9"}}
	handler := RenameFolderHandler(mock, resolver)

	result, err := handler(context.Background(), req(map[string]interface{}{
		"folder":   "Projects",
		"new_name": "Projects 2026",
	}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	resultJSON(t, result)
	if mock.LastName != "Projects 2026" {
		t.Errorf("renamed to %q, want Projects 2026", mock.LastName)
	}
}

// --- SendEmail ---

func TestSendEmailHandler(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]interface{}
		wantErr string
	}{
		{
			name: "happy path",
			args: map[string]interface{}{
				"to":      "alice@example.com",
				"subject": "Status",
				"body":    "All green.",
			},
		},
		{
			name: "missing recipient",
			args: map[string]interface{}{
				"subject": "Status",
				"body":    "All green.",
			},
			wantErr: "to is required",
		},
		{
			name: "invalid address",
			args: map[string]interface{}{
				"to":      "not-an-address",
				"subject": "Status",
				"body":    "All green.",
			},
			wantErr: "invalid to email address",
		},
		{
			name: "bad importance",
			args: map[string]interface{}{
				"to":         "alice@example.com",
				"subject":    "Status",
				"body":       "All green.",
				"importance": "Urgent",
			},
			wantErr: "importance must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockMailbox{Ref: ews.ItemRef{ID: "msg-1"}}
			handler := SendEmailHandler(mock)
			result, err := handler(context.Background(), req(tt.args))
			if err != nil {
				t.Fatalf("unexpected Go error: %v", err)
			}
			if tt.wantErr != "" {
				if got := resultErrText(t, result); !strings.Contains(got, tt.wantErr) {
					t.Errorf("error %q, want it to contain %q", got, tt.wantErr)
				}
				return
			}
			m := resultJSON(t, result)
			if m["message_id"] != "msg-1" {
				t.Errorf("message_id = %v, want msg-1", m["message_id"])
			}
			if mock.LastMsg.Subject != "Status" {
				t.Errorf("subject = %q, want Status", mock.LastMsg.Subject)
			}
		})
	}
}

func TestSendEmailHandlerAttachments(t *testing.T) {
	mock := &MockMailbox{Ref: ews.ItemRef{ID: "msg-2"}}
	handler := SendEmailHandler(mock)

	result, err := handler(context.Background(), req(map[string]interface{}{
		"to":      "alice@example.com",
		"subject": "Report",
		"body":    "Attached.",
		"attachments": []interface{}{
			map[string]interface{}{
				"name":           "report.txt",
				"content_base64": "aGVsbG8=",
				"content_type":   "text/plain",
			},
		},
	}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	resultJSON(t, result)
	if len(mock.LastMsg.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(mock.LastMsg.Attachments))
	}
	if string(mock.LastMsg.Attachments[0].Content) != "hello" {
		t.Errorf("attachment content = %q, want hello", mock.LastMsg.Attachments[0].Content)
	}

	result, _ = handler(context.Background(), req(map[string]interface{}{
		"to":      "alice@example.com",
		"subject": "Report",
		"body":    "Attached.",
		"attachments": []interface{}{
			map[string]interface{}{"name": "bad.bin", "content_base64": "%%%"},
		},
	}))
	if got := resultErrText(t, result); !strings.Contains(got, "base64") {
		t.Errorf("error %q should mention base64", got)
	}
}

// --- SearchEmails ---

func TestSearchEmailsHandler(t *testing.T) {
	mock := &MockMailbox{
		Messages: []ews.Message{{ID: "m1", Subject: "invoice"}},
		Total:    7,
	}
	resolver := &MockResolver{Ref: ews.FolderRef{Distinguished: ews.DistinguishedInbox}}
	handler := SearchEmailsHandler(mock, resolver)

	result, err := handler(context.Background(), req(map[string]interface{}{
		"subject":     "invoice",
		"limit":       float64(10),
		"unread_only": true,
		"since":       "2026-01-01T00:00:00Z",
	}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	m := resultJSON(t, result)
	if m["total"].(float64) != 7 {
		t.Errorf("total = %v, want 7", m["total"])
	}
	if mock.LastOpts.Subject != "invoice" || !mock.LastOpts.UnreadOnly {
		t.Errorf("options not passed through: %+v", mock.LastOpts)
	}
	if mock.LastOpts.Since == nil || mock.LastOpts.Since.Year() != 2026 {
		t.Errorf("since not parsed: %+v", mock.LastOpts.Since)
	}

	result, _ = handler(context.Background(), req(map[string]interface{}{"since": "yesterday"}))
	if got := resultErrText(t, result); !strings.Contains(got, "invalid since format") {
		t.Errorf("error %q should mention the since format", got)
	}
}

func TestSearchEmailsHandlerLimitCap(t *testing.T) {
	mock := &MockMailbox{}
	resolver := &MockResolver{Ref: ews.FolderRef{Distinguished: ews.DistinguishedInbox}}
	handler := SearchEmailsHandler(mock, resolver)

	if _, err := handler(context.Background(), req(map[string]interface{}{"limit": float64(5000)})); err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if mock.LastOpts.Limit != 200 {
		t.Errorf("limit = %d, want capped at 200", mock.LastOpts.Limit)
	}
}

// --- GetEmail / DeleteEmail / MoveEmail / MarkRead ---

func TestGetEmailHandler(t *testing.T) {
	mock := &MockMailbox{Message: &ews.Message{ID: "m1", Subject: "hi"}}
	handler := GetEmailHandler(mock)

	result, err := handler(context.Background(), req(map[string]interface{}{"email_id": "m1"}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	m := resultJSON(t, result)
	if m["subject"] != "hi" {
		t.Errorf("subject = %v, want hi", m["subject"])
	}

	result, _ = handler(context.Background(), req(nil))
	if got := resultErrText(t, result); !strings.Contains(got, "email_id") {
		t.Errorf("error %q should mention email_id", got)
	}
}

func TestDeleteEmailHandler(t *testing.T) {
	mock := &MockMailbox{}
	handler := DeleteEmailHandler(mock)

	result, err := handler(context.Background(), req(map[string]interface{}{
		"email_id":  "m1",
		"permanent": true,
	}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	resultJSON(t, result)
	if mock.LastItemID != "m1" || !mock.LastPermanent {
		t.Errorf("delete call = (%q, %v), want (m1, true)", mock.LastItemID, mock.LastPermanent)
	}
}

func TestMoveEmailHandler(t *testing.T) {
	mock := &MockMailbox{Ref: ews.ItemRef{ID: "m1-moved"}}
	resolver := &MockResolver{Ref: ews.FolderRef{ID: "dest"}}
	handler := MoveEmailHandler(mock, resolver)

	result, err := handler(context.Background(), req(map[string]interface{}{
		"email_id":  "m1",
		"to_folder": "Inbox/Done",
	}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	m := resultJSON(t, result)
	if m["new_email_id"] != "m1-moved" {
		t.Errorf("new_email_id = %v, want m1-moved", m["new_email_id"])
	}
	if mock.LastFolderRef.ID != "dest" {
		t.Errorf("destination = %+v, want resolved ref", mock.LastFolderRef)
	}
}

func TestMarkReadHandler(t *testing.T) {
	mock := &MockMailbox{}
	handler := MarkReadHandler(mock)

	result, err := handler(context.Background(), req(map[string]interface{}{
		"email_id": "m1",
		"read":     false,
	}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	resultJSON(t, result)
	if mock.LastRead {
		t.Error("read flag should be false")
	}
}

// --- Contacts ---

func TestFindContactsHandler(t *testing.T) {
	finder := &MockFinder{Result: resolve.ContactResult{
		Matches: []resolve.ContactMatch{
			{Contact: ews.Contact{DisplayName: "John Doe", EmailAddress: "john@example.com"}, Strategy: resolve.StrategyAddressBook},
		},
	}}
	handler := FindContactsHandler(finder)

	result, err := handler(context.Background(), req(map[string]interface{}{"query": "John"}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	m := resultJSON(t, result)
	if m["count"].(float64) != 1 {
		t.Errorf("count = %v, want 1", m["count"])
	}
	if finder.LastScope != ews.ScopeActiveDirectoryContacts {
		t.Errorf("scope = %v, want default ActiveDirectoryContacts", finder.LastScope)
	}

	result, _ = handler(context.Background(), req(map[string]interface{}{"query": "x", "scope": "everything"}))
	if got := resultErrText(t, result); !strings.Contains(got, "scope must be") {
		t.Errorf("error %q should reject bad scope", got)
	}
}

func TestFindContactsHandlerEmptyIsNotError(t *testing.T) {
	finder := &MockFinder{Result: resolve.ContactResult{Hint: "try searching by email address"}}
	handler := FindContactsHandler(finder)

	result, err := handler(context.Background(), req(map[string]interface{}{"query": "Zoë"}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	m := resultJSON(t, result)
	if m["count"].(float64) != 0 {
		t.Errorf("count = %v, want 0", m["count"])
	}
	if hint, _ := m["hint"].(string); hint == "" {
		t.Error("expected hint in empty result")
	}
}

func TestCreateContactHandler(t *testing.T) {
	mock := &MockMailbox{Ref: ews.ItemRef{ID: "c1"}}
	handler := CreateContactHandler(mock)

	result, err := handler(context.Background(), req(map[string]interface{}{
		"name":  "John Doe",
		"email": "john@example.com",
		"phone": "+1 555 0100",
	}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	m := resultJSON(t, result)
	if m["contact_id"] != "c1" {
		t.Errorf("contact_id = %v, want c1", m["contact_id"])
	}
	if mock.LastContact.Phone != "+1 555 0100" {
		t.Errorf("phone = %q, not passed through", mock.LastContact.Phone)
	}

	result, _ = handler(context.Background(), req(map[string]interface{}{
		"name":  "John Doe",
		"email": "nope",
	}))
	if got := resultErrText(t, result); !strings.Contains(got, "invalid email address") {
		t.Errorf("error %q should reject the address", got)
	}
}

// --- Calendar ---

func TestGetCalendarHandler(t *testing.T) {
	mock := &MockMailbox{Events: []ews.Event{{ID: "e1", Subject: "Standup"}}}
	resolver := &MockResolver{Ref: ews.FolderRef{Distinguished: ews.DistinguishedCalendar}}
	handler := GetCalendarHandler(mock, resolver)

	result, err := handler(context.Background(), req(map[string]interface{}{
		"start": "2026-09-01T00:00:00Z",
		"end":   "2026-09-08T00:00:00Z",
	}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	m := resultJSON(t, result)
	if m["count"].(float64) != 1 {
		t.Errorf("count = %v, want 1", m["count"])
	}
	if mock.LastStart.Day() != 1 || mock.LastEnd.Day() != 8 {
		t.Errorf("window = %v..%v, not passed through", mock.LastStart, mock.LastEnd)
	}

	result, _ = handler(context.Background(), req(map[string]interface{}{
		"start": "2026-09-08T00:00:00Z",
		"end":   "2026-09-01T00:00:00Z",
	}))
	if got := resultErrText(t, result); !strings.Contains(got, "end must be after start") {
		t.Errorf("error %q should reject inverted window", got)
	}
}

func TestCreateAppointmentHandler(t *testing.T) {
	mock := &MockMailbox{Ref: ews.ItemRef{ID: "e1"}}
	finder := &MockFinder{Result: resolve.ContactResult{
		Matches: []resolve.ContactMatch{
			{Contact: ews.Contact{DisplayName: "John Doe", EmailAddress: "john@example.com"}, Strategy: resolve.StrategyDirectory},
		},
	}}
	handler := CreateAppointmentHandler(mock, finder)

	result, err := handler(context.Background(), req(map[string]interface{}{
		"subject":   "Planning",
		"start":     "2026-09-01T09:00:00Z",
		"end":       "2026-09-01T10:00:00Z",
		"attendees": []interface{}{"John", "alice@example.com"},
	}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	resultJSON(t, result)
	if len(mock.LastEvent.Attendees) != 2 {
		t.Fatalf("attendees = %v, want 2", mock.LastEvent.Attendees)
	}
	if mock.LastEvent.Attendees[0] != "john@example.com" {
		t.Errorf("attendee[0] = %q, want resolved address", mock.LastEvent.Attendees[0])
	}
	if mock.LastEvent.Attendees[1] != "alice@example.com" {
		t.Errorf("attendee[1] = %q, want literal address", mock.LastEvent.Attendees[1])
	}
	if finder.Calls != 1 {
		t.Errorf("finder calls = %d, want 1 (addresses are not resolved)", finder.Calls)
	}
}

func TestCreateAppointmentHandlerUnresolvedAttendee(t *testing.T) {
	mock := &MockMailbox{}
	finder := &MockFinder{}
	handler := CreateAppointmentHandler(mock, finder)

	result, _ := handler(context.Background(), req(map[string]interface{}{
		"subject":   "Planning",
		"start":     "2026-09-01T09:00:00Z",
		"end":       "2026-09-01T10:00:00Z",
		"attendees": []interface{}{"Nobody"},
	}))
	if got := resultErrText(t, result); !strings.Contains(got, "could not resolve attendee") {
		t.Errorf("error %q should name the unresolved attendee", got)
	}
	if mock.CallCount != 0 {
		t.Error("no event should be created when an attendee cannot be resolved")
	}
}

func TestUpdateAppointmentHandler(t *testing.T) {
	mock := &MockMailbox{}
	handler := UpdateAppointmentHandler(mock)

	result, err := handler(context.Background(), req(map[string]interface{}{
		"appointment_id": "e1",
		"location":       "Room 4",
	}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	resultJSON(t, result)
	if mock.LastChanges.Location == nil || *mock.LastChanges.Location != "Room 4" {
		t.Errorf("location change not passed through: %+v", mock.LastChanges)
	}
	if mock.LastChanges.Subject != nil {
		t.Error("subject should be untouched")
	}

	result, _ = handler(context.Background(), req(map[string]interface{}{"appointment_id": "e1"}))
	if got := resultErrText(t, result); !strings.Contains(got, "nothing to update") {
		t.Errorf("error %q should reject empty change set", got)
	}
}

func TestDeleteAppointmentHandler(t *testing.T) {
	mock := &MockMailbox{}
	handler := DeleteAppointmentHandler(mock)

	result, err := handler(context.Background(), req(map[string]interface{}{"appointment_id": "e1"}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	resultJSON(t, result)
	if mock.LastItemID != "e1" {
		t.Errorf("deleted %q, want e1", mock.LastItemID)
	}
}

// --- Tasks ---

func TestGetTasksHandler(t *testing.T) {
	mock := &MockMailbox{Tasks: []ews.Task{
		{ID: "t1", Subject: "Ship it", Status: "InProgress"},
		{ID: "t2", Subject: "Write docs", Status: "Completed"},
	}}
	resolver := &MockResolver{Ref: ews.FolderRef{Distinguished: ews.DistinguishedTasks}}
	handler := GetTasksHandler(mock, resolver)

	result, err := handler(context.Background(), req(map[string]interface{}{"status": "Completed"}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	m := resultJSON(t, result)
	if m["count"].(float64) != 1 {
		t.Errorf("count = %v, want 1 after status filter", m["count"])
	}
}

func TestCreateTaskHandler(t *testing.T) {
	mock := &MockMailbox{Ref: ews.ItemRef{ID: "t1"}}
	handler := CreateTaskHandler(mock)

	result, err := handler(context.Background(), req(map[string]interface{}{
		"subject":  "Ship it",
		"due_date": "2026-09-15T00:00:00Z",
	}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	m := resultJSON(t, result)
	if m["task_id"] != "t1" {
		t.Errorf("task_id = %v, want t1", m["task_id"])
	}
	if mock.LastTask.DueDate == nil || mock.LastTask.DueDate.Month() != time.September {
		t.Errorf("due date not passed through: %+v", mock.LastTask.DueDate)
	}
}

func TestCompleteTaskHandler(t *testing.T) {
	mock := &MockMailbox{}
	handler := CompleteTaskHandler(mock)

	result, err := handler(context.Background(), req(map[string]interface{}{"task_id": "t1"}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	resultJSON(t, result)
	if mock.LastMethod != "CompleteTask" || mock.LastItemID != "t1" {
		t.Errorf("call = %s(%q), want CompleteTask(t1)", mock.LastMethod, mock.LastItemID)
	}
}

func TestDeleteTaskHandler(t *testing.T) {
	mock := &MockMailbox{}
	handler := DeleteTaskHandler(mock)

	result, err := handler(context.Background(), req(map[string]interface{}{"task_id": "t1"}))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	resultJSON(t, result)
	if mock.LastItemID != "t1" {
		t.Errorf("deleted %q, want t1", mock.LastItemID)
	}
}

// --- Out of office ---

func TestGetOOFHandler(t *testing.T) {
	mock := &MockMailbox{OOF: &ews.OOFSettings{State: "Enabled", InternalReply: "away"}}
	handler := GetOOFHandler(mock)

	result, err := handler(context.Background(), req(nil))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	m := resultJSON(t, result)
	if m["state"] != "Enabled" {
		t.Errorf("state = %v, want Enabled", m["state"])
	}
}

func TestSetOOFHandler(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]interface{}
		wantErr string
	}{
		{
			name: "enable",
			args: map[string]interface{}{
				"state":          "Enabled",
				"internal_reply": "Back next week",
			},
		},
		{
			name:    "bad state",
			args:    map[string]interface{}{"state": "Maybe"},
			wantErr: "state must be one of",
		},
		{
			name:    "scheduled without window",
			args:    map[string]interface{}{"state": "Scheduled"},
			wantErr: "requires both start and end",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockMailbox{}
			handler := SetOOFHandler(mock)
			result, err := handler(context.Background(), req(tt.args))
			if err != nil {
				t.Fatalf("unexpected Go error: %v", err)
			}
			if tt.wantErr != "" {
				if got := resultErrText(t, result); !strings.Contains(got, tt.wantErr) {
					t.Errorf("error %q, want it to contain %q", got, tt.wantErr)
				}
				return
			}
			resultJSON(t, result)
			if mock.LastOOF.State != "Enabled" {
				t.Errorf("state = %q, want Enabled", mock.LastOOF.State)
			}
		})
	}
}

// --- Error surface ---

func TestErrorResultRetryability(t *testing.T) {
	mock := &MockMailbox{}
	handler := GetEmailHandler(mock)

	mock.Err = &ews.TransientError{Op: "GetItem", Attempts: 4, Err: context.DeadlineExceeded}
	result, _ := handler(context.Background(), req(map[string]interface{}{"email_id": "m1"}))
	if got := resultErrText(t, result); !strings.Contains(got, "retried") {
		t.Errorf("transient error %q should state retryability", got)
	}

	mock.Err = &ratelimit.Error{Limit: 25, Window: time.Minute}
	result, _ = handler(context.Background(), req(map[string]interface{}{"email_id": "m1"}))
	if got := resultErrText(t, result); !strings.Contains(got, "rate limit exceeded") {
		t.Errorf("rate limit error %q should name the limit", got)
	}

	mock.Err = &ews.TimeoutError{Op: "GetItem"}
	result, _ = handler(context.Background(), req(map[string]interface{}{"email_id": "m1"}))
	if got := resultErrText(t, result); !strings.Contains(got, "outcome is unknown") {
		t.Errorf("timeout error %q should flag the unknown outcome", got)
	}
}

func TestFolderNotFoundSurface(t *testing.T) {
	resolver := &MockResolver{Err: &resolve.FolderNotFoundError{
		Identifier: "Stuff",
		Known:      []string{"inbox", "sent", "drafts"},
	}}
	handler := SearchEmailsHandler(&MockMailbox{}, resolver)

	result, _ := handler(context.Background(), req(map[string]interface{}{"folder": "Stuff"}))
	got := resultErrText(t, result)
	if !strings.Contains(got, "Stuff") || !strings.Contains(got, "inbox") {
		t.Errorf("error %q should name the identifier and suggest well-known folders", got)
	}
}

// --- GetAttachment ---

func TestGetAttachmentHandler(t *testing.T) {
	mock := &MockMailbox{File: &ews.Attachment{
		Name:        "report.pdf",
		ContentType: "application/pdf",
		Content:     []byte("hello"),
	}}
	handler := GetAttachmentHandler(mock)

	result, err := handler(context.Background(), req(map[string]interface{}{
		"attachment_id": "att-1",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := resultJSON(t, result)
	if resp["name"] != "report.pdf" {
		t.Errorf("name = %v", resp["name"])
	}
	if resp["content_type"] != "application/pdf" {
		t.Errorf("content_type = %v", resp["content_type"])
	}
	decoded, decErr := base64.StdEncoding.DecodeString(resp["content_base64"].(string))
	if decErr != nil || string(decoded) != "hello" {
		t.Errorf("content_base64 did not round-trip, got %v (%v)", resp["content_base64"], decErr)
	}
	if mock.LastItemID != "att-1" {
		t.Errorf("LastItemID = %q", mock.LastItemID)
	}
}

func TestGetAttachmentHandlerMissingID(t *testing.T) {
	mock := &MockMailbox{}
	handler := GetAttachmentHandler(mock)

	result, err := handler(context.Background(), req(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if text := resultErrText(t, result); !strings.Contains(text, "attachment_id") {
		t.Errorf("error = %q", text)
	}
	if mock.CallCount != 0 {
		t.Errorf("CallCount = %d, want 0", mock.CallCount)
	}
}

// --- RespondToMeeting ---

func TestRespondToMeetingHandler(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]interface{}
		wantErr  string
		wantSent string
	}{
		{
			name:     "accept",
			args:     map[string]interface{}{"appointment_id": "ev-1", "response": "accept"},
			wantSent: ews.MeetingAccept,
		},
		{
			name:     "decline",
			args:     map[string]interface{}{"appointment_id": "ev-1", "response": "decline"},
			wantSent: ews.MeetingDecline,
		},
		{
			name:     "tentative",
			args:     map[string]interface{}{"appointment_id": "ev-1", "response": "tentative"},
			wantSent: ews.MeetingTentative,
		},
		{
			name:    "missing id",
			args:    map[string]interface{}{"response": "accept"},
			wantErr: "appointment_id",
		},
		{
			name:    "bad response",
			args:    map[string]interface{}{"appointment_id": "ev-1", "response": "maybe"},
			wantErr: "accept, tentative, decline",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockMailbox{}
			handler := RespondToMeetingHandler(mock)

			result, err := handler(context.Background(), req(tt.args))
			if err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if tt.wantErr != "" {
				if text := resultErrText(t, result); !strings.Contains(text, tt.wantErr) {
					t.Errorf("error = %q, want mention of %q", text, tt.wantErr)
				}
				if mock.CallCount != 0 {
					t.Errorf("CallCount = %d, want 0", mock.CallCount)
				}
				return
			}
			resp := resultJSON(t, result)
			if resp["success"] != true {
				t.Errorf("success = %v", resp["success"])
			}
			if mock.LastResponse != tt.wantSent {
				t.Errorf("LastResponse = %q, want %q", mock.LastResponse, tt.wantSent)
			}
			if mock.LastItemID != "ev-1" {
				t.Errorf("LastItemID = %q", mock.LastItemID)
			}
		})
	}
}
