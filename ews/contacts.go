package ews

import (
	"context"
	"encoding/xml"
	"errors"
)

type resolveNamesRequest struct {
	XMLName         xml.Name `xml:"m:ResolveNames"`
	FullContactData bool     `xml:"ReturnFullContactData,attr"`
	SearchScope     string   `xml:"SearchScope,attr"`
	UnresolvedEntry string   `xml:"m:UnresolvedEntry"`
}

type resolveNamesResponse struct {
	Messages []struct {
		responseStatus
		Resolutions []struct {
			Mailbox struct {
				Name         string `xml:"Name"`
				EmailAddress string `xml:"EmailAddress"`
				RoutingType  string `xml:"RoutingType"`
			} `xml:"Mailbox"`
			Contact struct {
				GivenName   string `xml:"GivenName"`
				Surname     string `xml:"Surname"`
				CompanyName string `xml:"CompanyName"`
				JobTitle    string `xml:"JobTitle"`
				Department  string `xml:"Department"`
			} `xml:"Contact"`
		} `xml:"ResolutionSet>Resolution"`
	} `xml:"Body>ResolveNamesResponse>ResponseMessages>ResolveNamesResponseMessage"`
}

// ResolveNames runs the directory name-resolution primitive. It matches
// exact and prefix forms only. A no-results response is an empty slice, not
// an error.
func (c *Client) ResolveNames(ctx context.Context, name string, scope ResolveScope, fullData bool) ([]Contact, error) {
	const op = "ResolveNames"
	req := resolveNamesRequest{
		FullContactData: fullData,
		SearchScope:     string(scope),
		UnresolvedEntry: name,
	}
	var resp resolveNamesResponse
	if err := c.call(ctx, op, req, &resp); err != nil {
		var fault *FaultError
		if errors.As(err, &fault) &&
			(fault.Code == codeNameResolutionEmpty || fault.Code == codeNameResolutionNoMbox) {
			return nil, nil
		}
		return nil, err
	}
	if len(resp.Messages) == 0 {
		return nil, nil
	}
	msg := resp.Messages[0]
	if err := msg.err(op); err != nil {
		var fault *FaultError
		if errors.As(err, &fault) &&
			(fault.Code == codeNameResolutionEmpty || fault.Code == codeNameResolutionNoMbox) {
			return nil, nil
		}
		return nil, err
	}
	contacts := make([]Contact, 0, len(msg.Resolutions))
	for _, r := range msg.Resolutions {
		contacts = append(contacts, Contact{
			DisplayName:  r.Mailbox.Name,
			EmailAddress: r.Mailbox.EmailAddress,
			RoutingType:  r.Mailbox.RoutingType,
			GivenName:    r.Contact.GivenName,
			Surname:      r.Contact.Surname,
			Company:      r.Contact.CompanyName,
			JobTitle:     r.Contact.JobTitle,
			Department:   r.Contact.Department,
		})
	}
	return contacts, nil
}

type containsXML struct {
	XMLName    xml.Name     `xml:"t:Contains"`
	Mode       string       `xml:"ContainmentMode,attr"`
	Comparison string       `xml:"ContainmentComparison,attr"`
	Field      *fieldURIXML `xml:"t:FieldURI,omitempty"`
	Indexed    *indexedFieldURIXML
	Constant   constantXML  `xml:"t:Constant"`
}

type indexedFieldURIXML struct {
	XMLName    xml.Name `xml:"t:IndexedFieldURI"`
	FieldURI   string   `xml:"FieldURI,attr"`
	FieldIndex string   `xml:"FieldIndex,attr"`
}

type constantXML struct {
	Value string `xml:"Value,attr"`
}

type findContactsRequest struct {
	XMLName   xml.Name  `xml:"m:FindItem"`
	Traversal string    `xml:"Traversal,attr"`
	Shape     itemShape `xml:"m:ItemShape"`
	Restriction struct {
		Or struct {
			Terms []containsXML
		} `xml:"t:Or"`
	} `xml:"m:Restriction"`
	Parents idList `xml:"m:ParentFolderIds"`
}

type itemShape struct {
	BaseShape baseShapeXML
}

type findContactsResponse struct {
	Messages []struct {
		responseStatus
		RootFolder struct {
			Contacts []struct {
				ItemID struct {
					ID        string `xml:"Id,attr"`
					ChangeKey string `xml:"ChangeKey,attr"`
				} `xml:"ItemId"`
				DisplayName string `xml:"DisplayName"`
				GivenName   string `xml:"GivenName"`
				Surname     string `xml:"Surname"`
				CompanyName string `xml:"CompanyName"`
				JobTitle    string `xml:"JobTitle"`
				Department  string `xml:"Department"`
				EmailAddresses struct {
					Entries []struct {
						Key   string `xml:"Key,attr"`
						Value string `xml:",chardata"`
					} `xml:"Entry"`
				} `xml:"EmailAddresses"`
			} `xml:"Items>Contact"`
		} `xml:"RootFolder"`
	} `xml:"Body>FindItemResponse>ResponseMessages>FindItemResponseMessage"`
}

// QueryContacts performs a case-insensitive substring search across display
// name, given name, surname and primary email address in the local contacts
// folder. This is the mechanism for partial matches the directory primitive
// cannot find.
func (c *Client) QueryContacts(ctx context.Context, substring string) ([]Contact, error) {
	const op = "FindItem"
	contains := func(field string) containsXML {
		return containsXML{
			Mode:       "Substring",
			Comparison: "IgnoreCase",
			Field:      &fieldURIXML{FieldURI: field},
			Constant:   constantXML{Value: substring},
		}
	}
	req := findContactsRequest{
		Traversal: "Shallow",
		Shape:     itemShape{BaseShape: baseShapeXML{Shape: "AllProperties"}},
		Parents:   idList{Items: []any{distinguishedFolderIDXML{ID: DistinguishedContacts}}},
	}
	req.Restriction.Or.Terms = []containsXML{
		contains("contacts:DisplayName"),
		contains("contacts:GivenName"),
		contains("contacts:Surname"),
		{
			Mode:       "Substring",
			Comparison: "IgnoreCase",
			Indexed:    &indexedFieldURIXML{FieldURI: "contacts:EmailAddress", FieldIndex: "EmailAddress1"},
			Constant:   constantXML{Value: substring},
		},
	}
	var resp findContactsResponse
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
	contacts := make([]Contact, 0, len(msg.RootFolder.Contacts))
	for _, item := range msg.RootFolder.Contacts {
		contact := Contact{
			DisplayName: item.DisplayName,
			GivenName:   item.GivenName,
			Surname:     item.Surname,
			Company:     item.CompanyName,
			JobTitle:    item.JobTitle,
			Department:  item.Department,
		}
		for _, entry := range item.EmailAddresses.Entries {
			if contact.EmailAddress == "" || entry.Key == "EmailAddress1" {
				contact.EmailAddress = entry.Value
			}
		}
		contacts = append(contacts, contact)
	}
	return contacts, nil
}

type createContactRequest struct {
	XMLName xml.Name `xml:"m:CreateItem"`
	Saved   idList   `xml:"m:SavedItemFolderId"`
	Items   struct {
		Contact contactXML
	} `xml:"m:Items"`
}

// contactXML fields follow the ContactItemType schema sequence; the server
// rejects out-of-order elements.
type contactXML struct {
	XMLName     xml.Name `xml:"t:Contact"`
	DisplayName string   `xml:"t:DisplayName,omitempty"`
	GivenName   string   `xml:"t:GivenName,omitempty"`
	CompanyName string   `xml:"t:CompanyName,omitempty"`
	Emails      *emailAddressesXML
	Phones      *phoneNumbersXML
	Department  string `xml:"t:Department,omitempty"`
	JobTitle    string `xml:"t:JobTitle,omitempty"`
	Surname     string `xml:"t:Surname,omitempty"`
}

type emailAddressesXML struct {
	XMLName xml.Name       `xml:"t:EmailAddresses"`
	Entries []dictEntryXML `xml:"t:Entry"`
}

type phoneNumbersXML struct {
	XMLName xml.Name       `xml:"t:PhoneNumbers"`
	Entries []dictEntryXML `xml:"t:Entry"`
}

type dictEntryXML struct {
	Key   string `xml:"Key,attr"`
	Value string `xml:",chardata"`
}

type createItemResponse struct {
	Messages []struct {
		responseStatus
		Items struct {
			// one entry per created item, whatever its concrete element name
			Created []struct {
				ItemID struct {
					ID        string `xml:"Id,attr"`
					ChangeKey string `xml:"ChangeKey,attr"`
				} `xml:"ItemId"`
			} `xml:",any"`
		} `xml:"Items"`
	} `xml:"Body>CreateItemResponse>ResponseMessages>CreateItemResponseMessage"`
}

func (r *createItemResponse) firstID(op string) (ItemRef, error) {
	if len(r.Messages) == 0 {
		return ItemRef{}, &FaultError{Op: op, Code: "ErrorInvalidResponse", Msg: "empty response"}
	}
	msg := r.Messages[0]
	if err := msg.err(op); err != nil {
		return ItemRef{}, err
	}
	if len(msg.Items.Created) == 0 {
		return ItemRef{}, nil
	}
	first := msg.Items.Created[0]
	return ItemRef{ID: first.ItemID.ID, ChangeKey: first.ItemID.ChangeKey}, nil
}

// CreateContact stores a new contact in the local contacts folder.
func (c *Client) CreateContact(ctx context.Context, contact Contact) (ItemRef, error) {
	const op = "CreateItem"
	req := createContactRequest{
		Saved: idList{Items: []any{distinguishedFolderIDXML{ID: DistinguishedContacts}}},
	}
	req.Items.Contact = contactXML{
		DisplayName: contact.DisplayName,
		GivenName:   contact.GivenName,
		CompanyName: contact.Company,
		Department:  contact.Department,
		JobTitle:    contact.JobTitle,
		Surname:     contact.Surname,
	}
	if contact.EmailAddress != "" {
		req.Items.Contact.Emails = &emailAddressesXML{
			Entries: []dictEntryXML{{Key: "EmailAddress1", Value: contact.EmailAddress}},
		}
	}
	if contact.Phone != "" {
		req.Items.Contact.Phones = &phoneNumbersXML{
			Entries: []dictEntryXML{{Key: "BusinessPhone", Value: contact.Phone}},
		}
	}
	var resp createItemResponse
	if err := c.call(ctx, op, req, &resp); err != nil {
		return ItemRef{}, err
	}
	return resp.firstID(op)
}
