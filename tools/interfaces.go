package tools

import (
	"context"
	"time"

	"github.com/mggger/ews-mcp/ews"
	"github.com/mggger/ews-mcp/resolve"
)

// FolderResolver maps loose folder identifiers to canonical handles.
type FolderResolver interface {
	Resolve(ctx context.Context, identifier string) (ews.FolderRef, error)
}

// ContactFinder searches for people by name or address fragment.
type ContactFinder interface {
	Find(ctx context.Context, query string, scope ews.ResolveScope) (resolve.ContactResult, error)
}

// FolderService defines folder operations against the mailbox.
type FolderService interface {
	GetFolder(ctx context.Context, ref ews.FolderRef) (*ews.Folder, error)
	ListChildFolders(ctx context.Context, parent ews.FolderRef) ([]ews.Folder, error)
	CreateFolder(ctx context.Context, parent ews.FolderRef, name string) (*ews.Folder, error)
	DeleteFolder(ctx context.Context, ref ews.FolderRef, hard bool) error
	RenameFolder(ctx context.Context, ref ews.FolderRef, newName string) error
}

// MailService defines message operations.
type MailService interface {
	SendMessage(ctx context.Context, msg ews.OutgoingMessage) (ews.ItemRef, error)
	SearchMessages(ctx context.Context, folder ews.FolderRef, opts ews.SearchOptions) ([]ews.Message, int, error)
	GetMessage(ctx context.Context, id string) (*ews.Message, error)
	DeleteMessage(ctx context.Context, id string, permanent bool) error
	MoveMessage(ctx context.Context, id string, to ews.FolderRef) (ews.ItemRef, error)
	MarkRead(ctx context.Context, id string, read bool) error
	GetAttachment(ctx context.Context, id string) (*ews.Attachment, error)
}

// ContactService defines contact mutations beyond search.
type ContactService interface {
	CreateContact(ctx context.Context, contact ews.Contact) (ews.ItemRef, error)
}

// CalendarService defines calendar operations.
type CalendarService interface {
	ListEvents(ctx context.Context, folder ews.FolderRef, start, end time.Time, max int) ([]ews.Event, error)
	CreateEvent(ctx context.Context, ev ews.Event) (ews.ItemRef, error)
	UpdateEvent(ctx context.Context, id string, changes ews.EventChanges) error
	DeleteEvent(ctx context.Context, id string) error
	RespondToMeeting(ctx context.Context, eventID, response string) error
}

// TaskService defines task operations.
type TaskService interface {
	ListTasks(ctx context.Context, folder ews.FolderRef) ([]ews.Task, error)
	CreateTask(ctx context.Context, task ews.Task) (ews.ItemRef, error)
	CompleteTask(ctx context.Context, id string) error
	DeleteTask(ctx context.Context, id string) error
}

// OOFService defines out-of-office operations.
type OOFService interface {
	GetOOF(ctx context.Context) (*ews.OOFSettings, error)
	SetOOF(ctx context.Context, settings ews.OOFSettings) error
}

// MailboxService combines everything the gateway exposes. The concrete
// *ews.Client satisfies this.
type MailboxService interface {
	FolderService
	MailService
	ContactService
	CalendarService
	TaskService
	OOFService
}
