package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mggger/ews-mcp/ews"
	"github.com/mggger/ews-mcp/resolve"
)

// MockMailbox implements MailboxService for testing.
type MockMailbox struct {
	// Return values
	Folder   *ews.Folder
	Folders  []ews.Folder
	Messages []ews.Message
	Total    int
	Message  *ews.Message
	Contacts []ews.Contact
	Events   []ews.Event
	Tasks    []ews.Task
	OOF      *ews.OOFSettings
	Ref      ews.ItemRef
	File     *ews.Attachment

	// Error injection
	Err error

	// Call tracking
	LastMethod    string
	LastFolderRef ews.FolderRef
	LastItemID    string
	LastName      string
	LastPermanent bool
	LastRead      bool
	LastMsg       ews.OutgoingMessage
	LastOpts      ews.SearchOptions
	LastContact   ews.Contact
	LastEvent     ews.Event
	LastChanges   ews.EventChanges
	LastTask      ews.Task
	LastOOF       ews.OOFSettings
	LastStart     time.Time
	LastEnd       time.Time
	LastResponse  string
	CallCount     int
}

func (m *MockMailbox) GetFolder(ctx context.Context, ref ews.FolderRef) (*ews.Folder, error) {
	m.LastMethod = "GetFolder"
	m.LastFolderRef = ref
	m.CallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Folder, nil
}

func (m *MockMailbox) ListChildFolders(ctx context.Context, parent ews.FolderRef) ([]ews.Folder, error) {
	m.LastMethod = "ListChildFolders"
	m.LastFolderRef = parent
	m.CallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Folders, nil
}

func (m *MockMailbox) CreateFolder(ctx context.Context, parent ews.FolderRef, name string) (*ews.Folder, error) {
	m.LastMethod = "CreateFolder"
	m.LastFolderRef = parent
	m.LastName = name
	m.CallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Folder, nil
}

func (m *MockMailbox) DeleteFolder(ctx context.Context, ref ews.FolderRef, hard bool) error {
	m.LastMethod = "DeleteFolder"
	m.LastFolderRef = ref
	m.LastPermanent = hard
	m.CallCount++
	return m.Err
}

func (m *MockMailbox) RenameFolder(ctx context.Context, ref ews.FolderRef, newName string) error {
	m.LastMethod = "RenameFolder"
	m.LastFolderRef = ref
	m.LastName = newName
	m.CallCount++
	return m.Err
}

func (m *MockMailbox) SendMessage(ctx context.Context, msg ews.OutgoingMessage) (ews.ItemRef, error) {
	m.LastMethod = "SendMessage"
	m.LastMsg = msg
	m.CallCount++
	if m.Err != nil {
		return ews.ItemRef{}, m.Err
	}
	return m.Ref, nil
}

func (m *MockMailbox) SearchMessages(ctx context.Context, folder ews.FolderRef, opts ews.SearchOptions) ([]ews.Message, int, error) {
	m.LastMethod = "SearchMessages"
	m.LastFolderRef = folder
	m.LastOpts = opts
	m.CallCount++
	if m.Err != nil {
		return nil, 0, m.Err
	}
	return m.Messages, m.Total, nil
}

func (m *MockMailbox) GetMessage(ctx context.Context, id string) (*ews.Message, error) {
	m.LastMethod = "GetMessage"
	m.LastItemID = id
	m.CallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Message, nil
}

func (m *MockMailbox) DeleteMessage(ctx context.Context, id string, permanent bool) error {
	m.LastMethod = "DeleteMessage"
	m.LastItemID = id
	m.LastPermanent = permanent
	m.CallCount++
	return m.Err
}

func (m *MockMailbox) MoveMessage(ctx context.Context, id string, to ews.FolderRef) (ews.ItemRef, error) {
	m.LastMethod = "MoveMessage"
	m.LastItemID = id
	m.LastFolderRef = to
	m.CallCount++
	if m.Err != nil {
		return ews.ItemRef{}, m.Err
	}
	return m.Ref, nil
}

func (m *MockMailbox) MarkRead(ctx context.Context, id string, read bool) error {
	m.LastMethod = "MarkRead"
	m.LastItemID = id
	m.LastRead = read
	m.CallCount++
	return m.Err
}

func (m *MockMailbox) GetAttachment(ctx context.Context, id string) (*ews.Attachment, error) {
	m.LastMethod = "GetAttachment"
	m.LastItemID = id
	m.CallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.File, nil
}

func (m *MockMailbox) CreateContact(ctx context.Context, contact ews.Contact) (ews.ItemRef, error) {
	m.LastMethod = "CreateContact"
	m.LastContact = contact
	m.CallCount++
	if m.Err != nil {
		return ews.ItemRef{}, m.Err
	}
	return m.Ref, nil
}

func (m *MockMailbox) ListEvents(ctx context.Context, folder ews.FolderRef, start, end time.Time, max int) ([]ews.Event, error) {
	m.LastMethod = "ListEvents"
	m.LastFolderRef = folder
	m.LastStart = start
	m.LastEnd = end
	m.CallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Events, nil
}

func (m *MockMailbox) CreateEvent(ctx context.Context, ev ews.Event) (ews.ItemRef, error) {
	m.LastMethod = "CreateEvent"
	m.LastEvent = ev
	m.CallCount++
	if m.Err != nil {
		return ews.ItemRef{}, m.Err
	}
	return m.Ref, nil
}

func (m *MockMailbox) UpdateEvent(ctx context.Context, id string, changes ews.EventChanges) error {
	m.LastMethod = "UpdateEvent"
	m.LastItemID = id
	m.LastChanges = changes
	m.CallCount++
	return m.Err
}

func (m *MockMailbox) RespondToMeeting(ctx context.Context, eventID, response string) error {
	m.LastMethod = "RespondToMeeting"
	m.LastItemID = eventID
	m.LastResponse = response
	m.CallCount++
	return m.Err
}

func (m *MockMailbox) DeleteEvent(ctx context.Context, id string) error {
	m.LastMethod = "DeleteEvent"
	m.LastItemID = id
	m.CallCount++
	return m.Err
}

func (m *MockMailbox) ListTasks(ctx context.Context, folder ews.FolderRef) ([]ews.Task, error) {
	m.LastMethod = "ListTasks"
	m.LastFolderRef = folder
	m.CallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Tasks, nil
}

func (m *MockMailbox) CreateTask(ctx context.Context, task ews.Task) (ews.ItemRef, error) {
	m.LastMethod = "CreateTask"
	m.LastTask = task
	m.CallCount++
	if m.Err != nil {
		return ews.ItemRef{}, m.Err
	}
	return m.Ref, nil
}

func (m *MockMailbox) CompleteTask(ctx context.Context, id string) error {
	m.LastMethod = "CompleteTask"
	m.LastItemID = id
	m.CallCount++
	return m.Err
}

func (m *MockMailbox) DeleteTask(ctx context.Context, id string) error {
	m.LastMethod = "DeleteTask"
	m.LastItemID = id
	m.CallCount++
	return m.Err
}

func (m *MockMailbox) GetOOF(ctx context.Context) (*ews.OOFSettings, error) {
	m.LastMethod = "GetOOF"
	m.CallCount++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.OOF, nil
}

func (m *MockMailbox) SetOOF(ctx context.Context, settings ews.OOFSettings) error {
	m.LastMethod = "SetOOF"
	m.LastOOF = settings
	m.CallCount++
	return m.Err
}

// newErrMock returns a mock whose every call fails.
func newErrMock(msg string) *MockMailbox {
	return &MockMailbox{Err: fmt.Errorf("%s", msg)}
}

// MockResolver implements FolderResolver with a fixed answer.
type MockResolver struct {
	Ref            ews.FolderRef
	Err            error
	LastIdentifier string
	Calls          int
}

func (m *MockResolver) Resolve(ctx context.Context, identifier string) (ews.FolderRef, error) {
	m.LastIdentifier = identifier
	m.Calls++
	if m.Err != nil {
		return ews.FolderRef{}, m.Err
	}
	return m.Ref, nil
}

// MockFinder implements ContactFinder with a fixed result.
type MockFinder struct {
	Result    resolve.ContactResult
	Err       error
	LastQuery string
	LastScope ews.ResolveScope
	Calls     int
}

func (m *MockFinder) Find(ctx context.Context, query string, scope ews.ResolveScope) (resolve.ContactResult, error) {
	m.LastQuery = query
	m.LastScope = scope
	m.Calls++
	if m.Err != nil {
		return resolve.ContactResult{}, m.Err
	}
	return m.Result, nil
}
