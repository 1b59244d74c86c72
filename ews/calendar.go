package ews

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"
)

type calendarViewRequest struct {
	XMLName   xml.Name  `xml:"m:FindItem"`
	Traversal string    `xml:"Traversal,attr"`
	Shape     itemShape `xml:"m:ItemShape"`
	View      struct {
		Start string `xml:"StartDate,attr"`
		End   string `xml:"EndDate,attr"`
		Max   int    `xml:"MaxEntriesReturned,attr,omitempty"`
	} `xml:"m:CalendarView"`
	Parents idList `xml:"m:ParentFolderIds"`
}

type calendarItemXML struct {
	ItemID struct {
		ID        string `xml:"Id,attr"`
		ChangeKey string `xml:"ChangeKey,attr"`
	} `xml:"ItemId"`
	Subject  string `xml:"Subject"`
	Start    string `xml:"Start"`
	End      string `xml:"End"`
	Location string `xml:"Location"`
	IsAllDay bool   `xml:"IsAllDayEvent"`
	Organizer struct {
		Mailbox struct {
			Name         string `xml:"Name"`
			EmailAddress string `xml:"EmailAddress"`
		} `xml:"Mailbox"`
	} `xml:"Organizer"`
	RequiredAttendees struct {
		Attendees []struct {
			Mailbox struct {
				EmailAddress string `xml:"EmailAddress"`
			} `xml:"Mailbox"`
		} `xml:"Attendee"`
	} `xml:"RequiredAttendees"`
	Body struct {
		Content string `xml:",chardata"`
	} `xml:"Body"`
}

func (ci *calendarItemXML) event() Event {
	out := Event{
		ID:        ci.ItemID.ID,
		ChangeKey: ci.ItemID.ChangeKey,
		Subject:   ci.Subject,
		Location:  ci.Location,
		AllDay:    ci.IsAllDay,
		Organizer: ci.Organizer.Mailbox.EmailAddress,
		BodyText:  ci.Body.Content,
	}
	if out.Organizer == "" {
		out.Organizer = ci.Organizer.Mailbox.Name
	}
	if ts, err := time.Parse(time.RFC3339, ci.Start); err == nil {
		out.Start = ts
	}
	if ts, err := time.Parse(time.RFC3339, ci.End); err == nil {
		out.End = ts
	}
	for _, a := range ci.RequiredAttendees.Attendees {
		out.Attendees = append(out.Attendees, a.Mailbox.EmailAddress)
	}
	return out
}

type calendarViewResponse struct {
	Messages []struct {
		responseStatus
		RootFolder struct {
			Items struct {
				Events []calendarItemXML `xml:"CalendarItem"`
			} `xml:"Items"`
		} `xml:"RootFolder"`
	} `xml:"Body>FindItemResponse>ResponseMessages>FindItemResponseMessage"`
}

// ListEvents returns calendar items between start and end, expanded so
// recurring series appear as their individual occurrences.
func (c *Client) ListEvents(ctx context.Context, folder FolderRef, start, end time.Time, max int) ([]Event, error) {
	const op = "FindItem"
	req := calendarViewRequest{
		Traversal: "Shallow",
		Shape:     itemShape{BaseShape: baseShapeXML{Shape: "AllProperties"}},
		Parents:   idList{Items: []any{folderRefXML(folder)}},
	}
	req.View.Start = start.UTC().Format(ewsTimeFormat)
	req.View.End = end.UTC().Format(ewsTimeFormat)
	req.View.Max = max

	var resp calendarViewResponse
	if err := c.call(ctx, op, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Messages) == 0 {
		return nil, nil
	}
	msg := resp.Messages[0]
	if err := msg.err(op); err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(msg.RootFolder.Items.Events))
	for i := range msg.RootFolder.Items.Events {
		out = append(out, msg.RootFolder.Items.Events[i].event())
	}
	return out, nil
}

type attendeeXML struct {
	XMLName xml.Name   `xml:"t:Attendee"`
	Mailbox mailboxXML `xml:"t:Mailbox"`
}

type attendeesXML struct {
	Attendees []attendeeXML
}

type newCalendarItemXML struct {
	XMLName  xml.Name `xml:"t:CalendarItem"`
	Subject  string   `xml:"t:Subject"`
	Body     *bodyXML
	Start    string        `xml:"t:Start"`
	End      string        `xml:"t:End"`
	IsAllDay bool          `xml:"t:IsAllDayEvent"`
	Location string        `xml:"t:Location,omitempty"`
	Required *attendeesXML `xml:"t:RequiredAttendees"`
}

type createEventRequest struct {
	XMLName     xml.Name `xml:"m:CreateItem"`
	Invitations string   `xml:"SendMeetingInvitations,attr"`
	Saved       idList   `xml:"m:SavedItemFolderId"`
	Items       struct {
		Event newCalendarItemXML
	} `xml:"m:Items"`
}

// CreateEvent creates a calendar item. Invitations are sent when the event
// has attendees.
func (c *Client) CreateEvent(ctx context.Context, ev Event) (ItemRef, error) {
	const op = "CreateItem"
	invitations := "SendToNone"
	if len(ev.Attendees) > 0 {
		invitations = "SendToAllAndSaveCopy"
	}
	req := createEventRequest{
		Invitations: invitations,
		Saved:       idList{Items: []any{distinguishedFolderIDXML{ID: DistinguishedCalendar}}},
	}
	item := newCalendarItemXML{
		Subject:  ev.Subject,
		Start:    ev.Start.UTC().Format(ewsTimeFormat),
		End:      ev.End.UTC().Format(ewsTimeFormat),
		IsAllDay: ev.AllDay,
		Location: ev.Location,
	}
	if ev.BodyText != "" {
		item.Body = &bodyXML{BodyType: "Text", Content: ev.BodyText}
	}
	if len(ev.Attendees) > 0 {
		item.Required = &attendeesXML{}
		for _, a := range ev.Attendees {
			item.Required.Attendees = append(item.Required.Attendees, attendeeXML{
				Mailbox: mailboxXML{EmailAddress: a},
			})
		}
	}
	req.Items.Event = item

	var resp createItemResponse
	if err := c.call(ctx, op, req, &resp); err != nil {
		return ItemRef{}, err
	}
	return resp.firstID(op)
}

type calendarFieldXML struct {
	XMLName  xml.Name `xml:"t:CalendarItem"`
	Subject  string   `xml:"t:Subject,omitempty"`
	Start    string   `xml:"t:Start,omitempty"`
	End      string   `xml:"t:End,omitempty"`
	Location string   `xml:"t:Location,omitempty"`
	Body     *bodyXML
}

type getEventResponse struct {
	Messages []struct {
		responseStatus
		Items struct {
			Events []calendarItemXML `xml:"CalendarItem"`
		} `xml:"Items"`
	} `xml:"Body>GetItemResponse>ResponseMessages>GetItemResponseMessage"`
}

// currentEventRef fetches a fresh ChangeKey; UpdateItem rejects stale ones.
func (c *Client) currentEventRef(ctx context.Context, id string) (ItemRef, error) {
	const op = "GetItem"
	req := getItemRequest{
		Shape: itemShape{BaseShape: baseShapeXML{Shape: "IdOnly"}},
		IDs:   idList{Items: []any{itemIDXML{ID: id}}},
	}
	var resp getEventResponse
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
	if len(msg.Items.Events) == 0 {
		return ItemRef{}, &FaultError{Op: op, Code: codeItemNotFound, Msg: "no item in response"}
	}
	ev := msg.Items.Events[0]
	return ItemRef{ID: ev.ItemID.ID, ChangeKey: ev.ItemID.ChangeKey}, nil
}

// UpdateEvent applies the non-nil fields of changes to an existing event.
// Attendees are notified of the update.
func (c *Client) UpdateEvent(ctx context.Context, id string, changes EventChanges) error {
	const op = "UpdateItem"
	var sets []setItemFieldXML
	if changes.Subject != nil {
		sets = append(sets, setItemFieldXML{
			Field: fieldURIXML{FieldURI: "item:Subject"},
			Item:  calendarFieldXML{Subject: *changes.Subject},
		})
	}
	if changes.Start != nil {
		sets = append(sets, setItemFieldXML{
			Field: fieldURIXML{FieldURI: "calendar:Start"},
			Item:  calendarFieldXML{Start: changes.Start.UTC().Format(ewsTimeFormat)},
		})
	}
	if changes.End != nil {
		sets = append(sets, setItemFieldXML{
			Field: fieldURIXML{FieldURI: "calendar:End"},
			Item:  calendarFieldXML{End: changes.End.UTC().Format(ewsTimeFormat)},
		})
	}
	if changes.Location != nil {
		sets = append(sets, setItemFieldXML{
			Field: fieldURIXML{FieldURI: "calendar:Location"},
			Item:  calendarFieldXML{Location: *changes.Location},
		})
	}
	if changes.Body != nil {
		sets = append(sets, setItemFieldXML{
			Field: fieldURIXML{FieldURI: "item:Body"},
			Item:  calendarFieldXML{Body: &bodyXML{BodyType: "Text", Content: *changes.Body}},
		})
	}
	if len(sets) == 0 {
		return nil
	}
	ref, err := c.currentEventRef(ctx, id)
	if err != nil {
		return err
	}
	req := updateItemRequest{
		ConflictResolution: "AutoResolve",
		Invitations:        "SendToAllAndSaveCopy",
	}
	req.Changes.Change.ID = itemIDXML{ID: ref.ID, ChangeKey: ref.ChangeKey}
	req.Changes.Change.Updates.Sets = sets
	return c.simpleCall(ctx, op, req, "UpdateItemResponseMessage")
}

type referenceItemIDXML struct {
	XMLName xml.Name `xml:"t:ReferenceItemId"`
	ID      string   `xml:"Id,attr"`
}

// meetingReplyXML is one of AcceptItem, TentativelyAcceptItem or DeclineItem;
// the element name carries the verdict.
type meetingReplyXML struct {
	XMLName   xml.Name
	Reference referenceItemIDXML
}

type respondMeetingRequest struct {
	XMLName     xml.Name `xml:"m:CreateItem"`
	Disposition string   `xml:"MessageDisposition,attr"`
	Items       struct {
		Reply meetingReplyXML
	} `xml:"m:Items"`
}

// RespondToMeeting answers a meeting invitation; the organizer is notified.
// response is one of MeetingAccept, MeetingTentative, MeetingDecline.
func (c *Client) RespondToMeeting(ctx context.Context, eventID, response string) error {
	const op = "CreateItem"
	var element string
	switch response {
	case MeetingAccept:
		element = "t:AcceptItem"
	case MeetingTentative:
		element = "t:TentativelyAcceptItem"
	case MeetingDecline:
		element = "t:DeclineItem"
	default:
		return fmt.Errorf("%s: unknown meeting response %q", op, response)
	}
	req := respondMeetingRequest{Disposition: "SendAndSaveCopy"}
	req.Items.Reply = meetingReplyXML{
		XMLName:   xml.Name{Local: element},
		Reference: referenceItemIDXML{ID: eventID},
	}
	return c.simpleCall(ctx, op, req, "CreateItemResponseMessage")
}

// DeleteEvent cancels and removes a calendar item, notifying attendees.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	const op = "DeleteItem"
	req := deleteItemRequest{
		DeleteType:  "MoveToDeletedItems",
		Occurrences: "SendToAllAndSaveCopy",
		IDs:         idList{Items: []any{itemIDXML{ID: id}}},
	}
	return c.simpleCall(ctx, op, req, "DeleteItemResponseMessage")
}
