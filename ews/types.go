package ews

import "time"

// Distinguished folder names understood by Exchange. A FolderRef carrying one
// of these addresses the folder without a prior lookup.
const (
	DistinguishedInbox        = "inbox"
	DistinguishedSentItems    = "sentitems"
	DistinguishedDrafts       = "drafts"
	DistinguishedDeletedItems = "deleteditems"
	DistinguishedJunk         = "junkemail"
	DistinguishedOutbox       = "outbox"
	DistinguishedCalendar     = "calendar"
	DistinguishedContacts     = "contacts"
	DistinguishedTasks        = "tasks"
	DistinguishedNotes        = "notes"
	DistinguishedArchive      = "archivemsgfolderroot"
	DistinguishedRoot         = "msgfolderroot"
)

// FolderRef addresses a folder either by its opaque Exchange id or by a
// distinguished name. Exactly one of ID and Distinguished should be set.
type FolderRef struct {
	ID            string
	ChangeKey     string
	Distinguished string
}

// Folder is a canonical folder handle as returned by Exchange.
type Folder struct {
	ID            string    `json:"id"`
	ChangeKey     string    `json:"-"`
	Distinguished string    `json:"wellKnown,omitempty"`
	DisplayName   string    `json:"name"`
	ParentID      string    `json:"parentId,omitempty"`
	ChildCount    int       `json:"childFolderCount"`
	TotalCount    int       `json:"totalCount"`
	UnreadCount   int       `json:"unreadCount"`
}

// Ref returns a reference addressing this folder.
func (f *Folder) Ref() FolderRef {
	return FolderRef{ID: f.ID, ChangeKey: f.ChangeKey, Distinguished: f.Distinguished}
}

// ItemRef addresses a single item (message, event, task). ChangeKey is
// required for updates and is refreshed by GetItem-style calls.
type ItemRef struct {
	ID        string
	ChangeKey string
}

// Contact is a directory or address-book entry.
type Contact struct {
	DisplayName  string `json:"name"`
	GivenName    string `json:"givenName,omitempty"`
	Surname      string `json:"surname,omitempty"`
	EmailAddress string `json:"email"`
	RoutingType  string `json:"routingType,omitempty"`
	Company      string `json:"company,omitempty"`
	JobTitle     string `json:"jobTitle,omitempty"`
	Department   string `json:"department,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// ResolveScope selects which address spaces ResolveNames consults.
type ResolveScope string

const (
	ScopeActiveDirectory         ResolveScope = "ActiveDirectory"
	ScopeContactsOnly            ResolveScope = "Contacts"
	ScopeActiveDirectoryContacts ResolveScope = "ActiveDirectoryContacts"
)

// Message is an email item. Body fields are populated only by GetMessage.
type Message struct {
	ID          string           `json:"id"`
	ChangeKey   string           `json:"-"`
	From        string           `json:"from,omitempty"`
	To          []string         `json:"to,omitempty"`
	Cc          []string         `json:"cc,omitempty"`
	Subject     string           `json:"subject"`
	Received    time.Time        `json:"received,omitempty"`
	IsRead      bool             `json:"read"`
	HasAttach   bool             `json:"hasAttachments,omitempty"`
	BodyText    string           `json:"bodyText,omitempty"`
	BodyHTML    string           `json:"bodyHTML,omitempty"`
	Importance  string           `json:"importance,omitempty"`
	Attachments []AttachmentInfo `json:"attachments,omitempty"`
}

// AttachmentInfo is attachment metadata attached to a fetched message. The
// ID feeds GetAttachment to download the content.
type AttachmentInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size"`
}

// Attachment is an outgoing file attachment.
type Attachment struct {
	Name        string
	ContentType string
	Content     []byte
}

// OutgoingMessage is the input to SendMessage.
type OutgoingMessage struct {
	To          []string
	Cc          []string
	Bcc         []string
	Subject     string
	Body        string
	HTML        bool
	Importance  string // Low, Normal, High
	Attachments []Attachment
}

// SearchOptions filter a FindItem call over messages.
type SearchOptions struct {
	Subject    string // substring match on the subject line
	Since      *time.Time
	Before     *time.Time
	UnreadOnly bool
	Limit      int
	Offset     int
}

// Event is a calendar item.
type Event struct {
	ID        string    `json:"id"`
	ChangeKey string    `json:"-"`
	Subject   string    `json:"subject"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Location  string    `json:"location,omitempty"`
	AllDay    bool      `json:"allDay,omitempty"`
	Organizer string    `json:"organizer,omitempty"`
	Attendees []string  `json:"attendees,omitempty"`
	BodyText  string    `json:"bodyText,omitempty"`
}

// EventChanges carries the fields UpdateEvent should modify. Nil fields are
// left untouched.
type EventChanges struct {
	Subject  *string
	Start    *time.Time
	End      *time.Time
	Location *string
	Body     *string
}

// Task is a task item.
type Task struct {
	ID        string     `json:"id"`
	ChangeKey string     `json:"-"`
	Subject   string     `json:"subject"`
	Status    string     `json:"status,omitempty"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
	BodyText  string     `json:"bodyText,omitempty"`
}

// Meeting invitation responses accepted by RespondToMeeting.
const (
	MeetingAccept    = "Accept"
	MeetingTentative = "Tentative"
	MeetingDecline   = "Decline"
)

// OOFSettings mirrors the Exchange out-of-office configuration.
type OOFSettings struct {
	State            string     `json:"state"` // Disabled, Enabled, Scheduled
	ExternalAudience string     `json:"externalAudience,omitempty"`
	Start            *time.Time `json:"start,omitempty"`
	End              *time.Time `json:"end,omitempty"`
	InternalReply    string     `json:"internalReply,omitempty"`
	ExternalReply    string     `json:"externalReply,omitempty"`
}
