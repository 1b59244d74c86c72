package ews

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
)

type mailboxXML struct {
	XMLName      xml.Name `xml:"t:Mailbox"`
	EmailAddress string   `xml:"t:EmailAddress"`
}

type recipientsXML struct {
	Mailboxes []mailboxXML
}

type bodyXML struct {
	XMLName  xml.Name `xml:"t:Body"`
	BodyType string   `xml:"BodyType,attr"`
	Content  string   `xml:",chardata"`
}

// messageXML fields follow the MessageType schema sequence; Importance is an
// item field and precedes the recipient lists.
type messageXML struct {
	XMLName     xml.Name `xml:"t:Message"`
	MimeContent *mimeContentXML
	Subject     string `xml:"t:Subject,omitempty"`
	Body        *bodyXML
	Importance  string         `xml:"t:Importance,omitempty"`
	To          *recipientsXML `xml:"t:ToRecipients"`
	Cc          *recipientsXML `xml:"t:CcRecipients"`
	Bcc         *recipientsXML `xml:"t:BccRecipients"`
}

type mimeContentXML struct {
	XMLName      xml.Name `xml:"t:MimeContent"`
	CharacterSet string   `xml:"CharacterSet,attr"`
	Content      string   `xml:",chardata"`
}

type sendMessageRequest struct {
	XMLName     xml.Name `xml:"m:CreateItem"`
	Disposition string   `xml:"MessageDisposition,attr"`
	Saved       idList   `xml:"m:SavedItemFolderId"`
	Items       struct {
		Message messageXML
	} `xml:"m:Items"`
}

func toRecipients(addrs []string) *recipientsXML {
	if len(addrs) == 0 {
		return nil
	}
	out := &recipientsXML{}
	for _, a := range addrs {
		out.Mailboxes = append(out.Mailboxes, mailboxXML{EmailAddress: a})
	}
	return out
}

// SendMessage sends msg and saves a copy to sent items. When attachments are
// present the full message is built as MIME and submitted via MimeContent;
// otherwise the typed item fields are used.
func (c *Client) SendMessage(ctx context.Context, msg OutgoingMessage) (ItemRef, error) {
	const op = "CreateItem"
	req := sendMessageRequest{
		Disposition: "SendAndSaveCopy",
		Saved:       idList{Items: []any{distinguishedFolderIDXML{ID: DistinguishedSentItems}}},
	}
	if len(msg.Attachments) > 0 {
		raw, err := buildMIME(c.address, msg)
		if err != nil {
			return ItemRef{}, fmt.Errorf("build mime message: %w", err)
		}
		req.Items.Message = messageXML{
			MimeContent: &mimeContentXML{
				CharacterSet: "UTF-8",
				Content:      base64.StdEncoding.EncodeToString(raw),
			},
			To:  toRecipients(msg.To),
			Cc:  toRecipients(msg.Cc),
			Bcc: toRecipients(msg.Bcc),
		}
	} else {
		bodyType := "Text"
		if msg.HTML {
			bodyType = "HTML"
		}
		req.Items.Message = messageXML{
			Subject:    msg.Subject,
			Body:       &bodyXML{BodyType: bodyType, Content: msg.Body},
			To:         toRecipients(msg.To),
			Cc:         toRecipients(msg.Cc),
			Bcc:        toRecipients(msg.Bcc),
			Importance: msg.Importance,
		}
	}
	var resp createItemResponse
	if err := c.call(ctx, op, req, &resp); err != nil {
		return ItemRef{}, err
	}
	return resp.firstID(op)
}

// buildMIME renders an outgoing message with attachments as a full MIME
// document.
func buildMIME(from string, msg OutgoingMessage) ([]byte, error) {
	var buf bytes.Buffer

	var header mail.Header
	header.SetDate(time.Now())
	header.SetAddressList("From", []*mail.Address{{Address: from}})
	header.SetAddressList("To", addressList(msg.To))
	if len(msg.Cc) > 0 {
		header.SetAddressList("Cc", addressList(msg.Cc))
	}
	header.SetSubject(msg.Subject)

	writer, err := mail.CreateWriter(&buf, header)
	if err != nil {
		return nil, err
	}

	var inlineHeader mail.InlineHeader
	if msg.HTML {
		inlineHeader.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	} else {
		inlineHeader.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	}
	part, err := writer.CreateSingleInline(inlineHeader)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, msg.Body); err != nil {
		return nil, err
	}
	if err := part.Close(); err != nil {
		return nil, err
	}

	for _, att := range msg.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		var attHeader mail.AttachmentHeader
		attHeader.SetContentType(contentType, nil)
		attHeader.SetFilename(att.Name)
		attWriter, err := writer.CreateAttachment(attHeader)
		if err != nil {
			return nil, err
		}
		if _, err := attWriter.Write(att.Content); err != nil {
			return nil, err
		}
		if err := attWriter.Close(); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addressList(addrs []string) []*mail.Address {
	out := make([]*mail.Address, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, &mail.Address{Address: a})
	}
	return out
}

type findMessagesRequest struct {
	XMLName     xml.Name        `xml:"m:FindItem"`
	Traversal   string          `xml:"Traversal,attr"`
	Shape       itemShape       `xml:"m:ItemShape"`
	Paging      *pageViewXML
	Restriction *restrictionXML `xml:"m:Restriction"`
	Sort        sortOrderXML    `xml:"m:SortOrder"`
	Parents     idList          `xml:"m:ParentFolderIds"`
}

type pageViewXML struct {
	XMLName xml.Name `xml:"m:IndexedPageItemView"`
	MaxRows int      `xml:"MaxEntriesReturned,attr"`
	Offset  int      `xml:"Offset,attr"`
	Base    string   `xml:"BasePoint,attr"`
}

// restrictionXML holds exactly one search expression. And is a multi-operand
// expression, so a lone term goes in directly.
type restrictionXML struct {
	Term any
}

type andXML struct {
	XMLName xml.Name `xml:"t:And"`
	Terms   []any
}

type isEqualToXML struct {
	XMLName xml.Name    `xml:"t:IsEqualTo"`
	Field   fieldURIXML `xml:"t:FieldURI"`
	Value   struct {
		Constant constantXML `xml:"t:Constant"`
	} `xml:"t:FieldURIOrConstant"`
}

type isGreaterThanOrEqualToXML struct {
	XMLName xml.Name    `xml:"t:IsGreaterThanOrEqualTo"`
	Field   fieldURIXML `xml:"t:FieldURI"`
	Value   struct {
		Constant constantXML `xml:"t:Constant"`
	} `xml:"t:FieldURIOrConstant"`
}

type isLessThanOrEqualToXML struct {
	XMLName xml.Name    `xml:"t:IsLessThanOrEqualTo"`
	Field   fieldURIXML `xml:"t:FieldURI"`
	Value   struct {
		Constant constantXML `xml:"t:Constant"`
	} `xml:"t:FieldURIOrConstant"`
}

type sortOrderXML struct {
	Field fieldOrderXML `xml:"t:FieldOrder"`
}

type fieldOrderXML struct {
	Order string      `xml:"Order,attr"`
	Field fieldURIXML `xml:"t:FieldURI"`
}

type messageItemXML struct {
	ItemID struct {
		ID        string `xml:"Id,attr"`
		ChangeKey string `xml:"ChangeKey,attr"`
	} `xml:"ItemId"`
	Subject string `xml:"Subject"`
	From    struct {
		Mailbox struct {
			Name         string `xml:"Name"`
			EmailAddress string `xml:"EmailAddress"`
		} `xml:"Mailbox"`
	} `xml:"From"`
	ToRecipients struct {
		Mailboxes []struct {
			EmailAddress string `xml:"EmailAddress"`
		} `xml:"Mailbox"`
	} `xml:"ToRecipients"`
	CcRecipients struct {
		Mailboxes []struct {
			EmailAddress string `xml:"EmailAddress"`
		} `xml:"Mailbox"`
	} `xml:"CcRecipients"`
	Received       string `xml:"DateTimeReceived"`
	IsRead         bool   `xml:"IsRead"`
	HasAttachments bool   `xml:"HasAttachments"`
	Importance     string `xml:"Importance"`
	Body           struct {
		BodyType string `xml:"BodyType,attr"`
		Content  string `xml:",chardata"`
	} `xml:"Body"`
	Attachments struct {
		Files []struct {
			AttachmentID struct {
				ID string `xml:"Id,attr"`
			} `xml:"AttachmentId"`
			Name        string `xml:"Name"`
			ContentType string `xml:"ContentType"`
			Size        int64  `xml:"Size"`
		} `xml:"FileAttachment"`
	} `xml:"Attachments"`
}

func (m *messageItemXML) message() Message {
	out := Message{
		ID:         m.ItemID.ID,
		ChangeKey:  m.ItemID.ChangeKey,
		Subject:    m.Subject,
		From:       m.From.Mailbox.EmailAddress,
		IsRead:     m.IsRead,
		HasAttach:  m.HasAttachments,
		Importance: m.Importance,
	}
	if out.From == "" {
		out.From = m.From.Mailbox.Name
	}
	for _, r := range m.ToRecipients.Mailboxes {
		out.To = append(out.To, r.EmailAddress)
	}
	for _, r := range m.CcRecipients.Mailboxes {
		out.Cc = append(out.Cc, r.EmailAddress)
	}
	if ts, err := time.Parse(time.RFC3339, m.Received); err == nil {
		out.Received = ts
	}
	switch m.Body.BodyType {
	case "HTML":
		out.BodyHTML = m.Body.Content
	default:
		if m.Body.Content != "" {
			out.BodyText = m.Body.Content
		}
	}
	for _, f := range m.Attachments.Files {
		out.Attachments = append(out.Attachments, AttachmentInfo{
			ID:          f.AttachmentID.ID,
			Name:        f.Name,
			ContentType: f.ContentType,
			Size:        f.Size,
		})
	}
	return out
}

type findItemResponse struct {
	Messages []struct {
		responseStatus
		RootFolder struct {
			Total int `xml:"TotalItemsInView,attr"`
			Items struct {
				Messages []messageItemXML `xml:"Message"`
			} `xml:"Items"`
		} `xml:"RootFolder"`
	} `xml:"Body>FindItemResponse>ResponseMessages>FindItemResponseMessage"`
}

const ewsTimeFormat = "2006-01-02T15:04:05Z07:00"

// buildSearchRequest assembles the FindItem payload for opts.
func buildSearchRequest(folder FolderRef, opts SearchOptions) findMessagesRequest {
	req := findMessagesRequest{
		Traversal: "Shallow",
		Shape:     itemShape{BaseShape: baseShapeXML{Shape: "AllProperties"}},
		Sort: sortOrderXML{Field: fieldOrderXML{
			Order: "Descending",
			Field: fieldURIXML{FieldURI: "item:DateTimeReceived"},
		}},
		Parents: idList{Items: []any{folderRefXML(folder)}},
	}
	if opts.Limit > 0 || opts.Offset > 0 {
		maxRows := opts.Limit
		if maxRows <= 0 {
			maxRows = 50
		}
		req.Paging = &pageViewXML{MaxRows: maxRows, Offset: opts.Offset, Base: "Beginning"}
	}

	var terms []any
	if opts.Subject != "" {
		terms = append(terms, containsXML{
			Mode:       "Substring",
			Comparison: "IgnoreCase",
			Field:      &fieldURIXML{FieldURI: "item:Subject"},
			Constant:   constantXML{Value: opts.Subject},
		})
	}
	if opts.Since != nil {
		term := isGreaterThanOrEqualToXML{Field: fieldURIXML{FieldURI: "item:DateTimeReceived"}}
		term.Value.Constant = constantXML{Value: opts.Since.UTC().Format(ewsTimeFormat)}
		terms = append(terms, term)
	}
	if opts.Before != nil {
		term := isLessThanOrEqualToXML{Field: fieldURIXML{FieldURI: "item:DateTimeReceived"}}
		term.Value.Constant = constantXML{Value: opts.Before.UTC().Format(ewsTimeFormat)}
		terms = append(terms, term)
	}
	if opts.UnreadOnly {
		term := isEqualToXML{Field: fieldURIXML{FieldURI: "message:IsRead"}}
		term.Value.Constant = constantXML{Value: "false"}
		terms = append(terms, term)
	}
	switch len(terms) {
	case 0:
	case 1:
		req.Restriction = &restrictionXML{Term: terms[0]}
	default:
		req.Restriction = &restrictionXML{Term: &andXML{Terms: terms}}
	}
	return req
}

// SearchMessages lists messages in folder matching opts, most recent first.
// The returned total is the full match count before paging.
func (c *Client) SearchMessages(ctx context.Context, folder FolderRef, opts SearchOptions) ([]Message, int, error) {
	const op = "FindItem"
	req := buildSearchRequest(folder, opts)

	var resp findItemResponse
	if err := c.call(ctx, op, req, &resp); err != nil {
		return nil, 0, err
	}
	if len(resp.Messages) == 0 {
		return nil, 0, nil
	}
	msg := resp.Messages[0]
	if err := msg.err(op); err != nil {
		return nil, 0, err
	}
	out := make([]Message, 0, len(msg.RootFolder.Items.Messages))
	for i := range msg.RootFolder.Items.Messages {
		out = append(out, msg.RootFolder.Items.Messages[i].message())
	}
	total := msg.RootFolder.Total
	if total == 0 {
		total = len(out)
	}
	return out, total, nil
}

type getItemRequest struct {
	XMLName xml.Name  `xml:"m:GetItem"`
	Shape   itemShape `xml:"m:ItemShape"`
	IDs     idList    `xml:"m:ItemIds"`
}

type getItemResponse struct {
	Messages []struct {
		responseStatus
		Items struct {
			Messages []messageItemXML `xml:"Message"`
		} `xml:"Items"`
	} `xml:"Body>GetItemResponse>ResponseMessages>GetItemResponseMessage"`
}

// GetMessage fetches one message with its body and attachment metadata.
func (c *Client) GetMessage(ctx context.Context, id string) (*Message, error) {
	const op = "GetItem"
	req := getItemRequest{
		Shape: itemShape{BaseShape: baseShapeXML{Shape: "AllProperties"}},
		IDs:   idList{Items: []any{itemIDXML{ID: id}}},
	}
	var resp getItemResponse
	if err := c.call(ctx, op, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Messages) == 0 {
		return nil, &FaultError{Op: op, Code: "ErrorInvalidResponse", Msg: "empty response"}
	}
	msg := resp.Messages[0]
	if err := msg.err(op); err != nil {
		return nil, err
	}
	if len(msg.Items.Messages) == 0 {
		return nil, &FaultError{Op: op, Code: codeItemNotFound, Msg: "no item in response"}
	}
	out := msg.Items.Messages[0].message()
	return &out, nil
}

type deleteItemRequest struct {
	XMLName     xml.Name `xml:"m:DeleteItem"`
	DeleteType  string   `xml:"DeleteType,attr"`
	Occurrences string   `xml:"SendMeetingCancellations,attr,omitempty"`
	IDs         idList   `xml:"m:ItemIds"`
}

// DeleteMessage removes a message, to trash by default or permanently.
func (c *Client) DeleteMessage(ctx context.Context, id string, permanent bool) error {
	const op = "DeleteItem"
	deleteType := "MoveToDeletedItems"
	if permanent {
		deleteType = "HardDelete"
	}
	req := deleteItemRequest{
		DeleteType: deleteType,
		IDs:        idList{Items: []any{itemIDXML{ID: id}}},
	}
	return c.simpleCall(ctx, op, req, "DeleteItemResponseMessage")
}

type moveItemRequest struct {
	XMLName xml.Name `xml:"m:MoveItem"`
	To      idList   `xml:"m:ToFolderId"`
	IDs     idList   `xml:"m:ItemIds"`
}

// MoveMessage moves a message into the given folder and returns its new id.
func (c *Client) MoveMessage(ctx context.Context, id string, to FolderRef) (ItemRef, error) {
	const op = "MoveItem"
	req := moveItemRequest{
		To:  idList{Items: []any{folderRefXML(to)}},
		IDs: idList{Items: []any{itemIDXML{ID: id}}},
	}
	var resp moveItemResponse
	if err := c.call(ctx, op, req, &resp); err != nil {
		return ItemRef{}, err
	}
	if len(resp.Messages) == 0 {
		return ItemRef{}, &FaultError{Op: op, Code: "ErrorInvalidResponse", Msg: "empty response"}
	}
	msg := resp.Messages[0]
	if err := msg.err(op); err != nil {
		return ItemRef{}, err
	}
	if len(msg.Items.Created) == 0 {
		return ItemRef{}, nil
	}
	first := msg.Items.Created[0]
	return ItemRef{ID: first.ItemID.ID, ChangeKey: first.ItemID.ChangeKey}, nil
}

type moveItemResponse struct {
	Messages []struct {
		responseStatus
		Items struct {
			Created []struct {
				ItemID struct {
					ID        string `xml:"Id,attr"`
					ChangeKey string `xml:"ChangeKey,attr"`
				} `xml:"ItemId"`
			} `xml:",any"`
		} `xml:"Items"`
	} `xml:"Body>MoveItemResponse>ResponseMessages>MoveItemResponseMessage"`
}

type updateItemRequest struct {
	XMLName            xml.Name `xml:"m:UpdateItem"`
	ConflictResolution string   `xml:"ConflictResolution,attr"`
	Disposition        string   `xml:"MessageDisposition,attr,omitempty"`
	Invitations        string   `xml:"SendMeetingInvitationsOrCancellations,attr,omitempty"`
	Changes            struct {
		Change itemChangeXML
	} `xml:"m:ItemChanges"`
}

type itemChangeXML struct {
	XMLName xml.Name `xml:"t:ItemChange"`
	ID      itemIDXML
	Updates struct {
		Sets []setItemFieldXML
	} `xml:"t:Updates"`
}

type setItemFieldXML struct {
	XMLName xml.Name `xml:"t:SetItemField"`
	Field   any      `xml:"t:FieldURI"`
	Item    any
}

type messageFieldXML struct {
	XMLName xml.Name `xml:"t:Message"`
	IsRead  *bool    `xml:"t:IsRead,omitempty"`
	Subject string   `xml:"t:Subject,omitempty"`
}

// MarkRead flips the read flag on a message. UpdateItem requires a fresh
// change key, so the item is re-fetched first.
func (c *Client) MarkRead(ctx context.Context, id string, read bool) error {
	const op = "UpdateItem"
	current, err := c.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	req := updateItemRequest{
		ConflictResolution: "AutoResolve",
		Disposition:        "SaveOnly",
	}
	req.Changes.Change.ID = itemIDXML{ID: current.ID, ChangeKey: current.ChangeKey}
	req.Changes.Change.Updates.Sets = []setItemFieldXML{{
		Field: fieldURIXML{FieldURI: "message:IsRead"},
		Item:  messageFieldXML{IsRead: &read},
	}}
	return c.simpleCall(ctx, op, req, "UpdateItemResponseMessage")
}
