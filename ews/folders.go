package ews

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
)

type getFolderRequest struct {
	XMLName xml.Name    `xml:"m:GetFolder"`
	Shape   folderShape `xml:"m:FolderShape"`
	IDs     idList      `xml:"m:FolderIds"`
}

type folderShape struct {
	BaseShape baseShapeXML
}

type findFolderRequest struct {
	XMLName   xml.Name    `xml:"m:FindFolder"`
	Traversal string      `xml:"Traversal,attr"`
	Shape     folderShape `xml:"m:FolderShape"`
	Parents   idList      `xml:"m:ParentFolderIds"`
}

type createFolderRequest struct {
	XMLName xml.Name `xml:"m:CreateFolder"`
	Parent  idList   `xml:"m:ParentFolderId"`
	Folders struct {
		Folder newFolderXML
	} `xml:"m:Folders"`
}

type newFolderXML struct {
	XMLName     xml.Name `xml:"t:Folder"`
	DisplayName string   `xml:"t:DisplayName"`
}

type deleteFolderRequest struct {
	XMLName    xml.Name `xml:"m:DeleteFolder"`
	DeleteType string   `xml:"DeleteType,attr"`
	IDs        idList   `xml:"m:FolderIds"`
}

type updateFolderRequest struct {
	XMLName xml.Name `xml:"m:UpdateFolder"`
	Changes struct {
		Change folderChangeXML
	} `xml:"m:FolderChanges"`
}

type folderChangeXML struct {
	XMLName xml.Name `xml:"t:FolderChange"`
	ID      any
	Updates struct {
		Set setFolderFieldXML
	} `xml:"t:Updates"`
}

type setFolderFieldXML struct {
	XMLName xml.Name     `xml:"t:SetFolderField"`
	Field   fieldURIXML  `xml:"t:FieldURI"`
	Folder  newFolderXML `xml:"t:Folder"`
}

type fieldURIXML struct {
	FieldURI string `xml:"FieldURI,attr"`
}

// folderXML matches any of the concrete folder element variants
// (t:Folder, t:CalendarFolder, t:ContactsFolder, t:TasksFolder).
type folderXML struct {
	FolderID struct {
		ID        string `xml:"Id,attr"`
		ChangeKey string `xml:"ChangeKey,attr"`
	} `xml:"FolderId"`
	ParentFolderID struct {
		ID string `xml:"Id,attr"`
	} `xml:"ParentFolderId"`
	DisplayName      string `xml:"DisplayName"`
	TotalCount       int    `xml:"TotalCount"`
	ChildFolderCount int    `xml:"ChildFolderCount"`
	UnreadCount      int    `xml:"UnreadCount"`
}

func (f *folderXML) folder() Folder {
	return Folder{
		ID:          f.FolderID.ID,
		ChangeKey:   f.FolderID.ChangeKey,
		DisplayName: f.DisplayName,
		ParentID:    f.ParentFolderID.ID,
		ChildCount:  f.ChildFolderCount,
		TotalCount:  f.TotalCount,
		UnreadCount: f.UnreadCount,
	}
}

type getFolderResponse struct {
	Messages []struct {
		responseStatus
		Folders struct {
			Items []folderXML `xml:",any"`
		} `xml:"Folders"`
	} `xml:"Body>GetFolderResponse>ResponseMessages>GetFolderResponseMessage"`
}

type findFolderResponse struct {
	Messages []struct {
		responseStatus
		RootFolder struct {
			Folders struct {
				Items []folderXML `xml:",any"`
			} `xml:"Folders"`
		} `xml:"RootFolder"`
	} `xml:"Body>FindFolderResponse>ResponseMessages>FindFolderResponseMessage"`
}

type createFolderResponse struct {
	Messages []struct {
		responseStatus
		Folders struct {
			Items []folderXML `xml:",any"`
		} `xml:"Folders"`
	} `xml:"Body>CreateFolderResponse>ResponseMessages>CreateFolderResponseMessage"`
}

// GetFolder dereferences a folder by opaque or distinguished id.
func (c *Client) GetFolder(ctx context.Context, ref FolderRef) (*Folder, error) {
	const op = "GetFolder"
	req := getFolderRequest{
		Shape: folderShape{BaseShape: baseShapeXML{Shape: "AllProperties"}},
		IDs:   idList{Items: []any{folderRefXML(ref)}},
	}
	var resp getFolderResponse
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
	if len(msg.Folders.Items) == 0 {
		return nil, &FaultError{Op: op, Code: codeFolderNotFound, Msg: "no folder in response"}
	}
	folder := msg.Folders.Items[0].folder()
	folder.Distinguished = ref.Distinguished
	return &folder, nil
}

// ListChildFolders returns the direct children of parent, in server order.
func (c *Client) ListChildFolders(ctx context.Context, parent FolderRef) ([]Folder, error) {
	const op = "FindFolder"
	req := findFolderRequest{
		Traversal: "Shallow",
		Shape:     folderShape{BaseShape: baseShapeXML{Shape: "AllProperties"}},
		Parents:   idList{Items: []any{folderRefXML(parent)}},
	}
	var resp findFolderResponse
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
	folders := make([]Folder, 0, len(msg.RootFolder.Folders.Items))
	for i := range msg.RootFolder.Folders.Items {
		folders = append(folders, msg.RootFolder.Folders.Items[i].folder())
	}
	return folders, nil
}

// CreateFolder creates a child folder under parent.
func (c *Client) CreateFolder(ctx context.Context, parent FolderRef, name string) (*Folder, error) {
	const op = "CreateFolder"
	req := createFolderRequest{Parent: idList{Items: []any{folderRefXML(parent)}}}
	req.Folders.Folder = newFolderXML{DisplayName: name}
	var resp createFolderResponse
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
	if len(msg.Folders.Items) == 0 {
		return nil, &FaultError{Op: op, Code: "ErrorInvalidResponse", Msg: "no folder in response"}
	}
	folder := msg.Folders.Items[0].folder()
	if folder.DisplayName == "" {
		folder.DisplayName = name
	}
	return &folder, nil
}

// DeleteFolder deletes a folder. hard skips the deleted-items folder.
func (c *Client) DeleteFolder(ctx context.Context, ref FolderRef, hard bool) error {
	const op = "DeleteFolder"
	deleteType := "MoveToDeletedItems"
	if hard {
		deleteType = "HardDelete"
	}
	req := deleteFolderRequest{
		DeleteType: deleteType,
		IDs:        idList{Items: []any{folderRefXML(ref)}},
	}
	return c.simpleCall(ctx, op, req, "DeleteFolderResponseMessage")
}

// RenameFolder changes a folder's display name.
func (c *Client) RenameFolder(ctx context.Context, ref FolderRef, newName string) error {
	const op = "UpdateFolder"
	var req updateFolderRequest
	req.Changes.Change.ID = folderRefXML(ref)
	req.Changes.Change.Updates.Set = setFolderFieldXML{
		Field:  fieldURIXML{FieldURI: "folder:DisplayName"},
		Folder: newFolderXML{DisplayName: newName},
	}
	return c.simpleCall(ctx, op, req, "UpdateFolderResponseMessage")
}

// simpleCall issues an operation whose response carries only status messages.
func (c *Client) simpleCall(ctx context.Context, op string, req any, msgElem string) error {
	var raw rawEnvelope
	if err := c.call(ctx, op, req, &raw); err != nil {
		return err
	}
	return firstStatus(raw.Body.Inner, op, msgElem)
}

// rawEnvelope captures the response body unparsed. The response-message
// element name varies per operation, so status-only responses are scanned
// rather than mapped to dedicated structs.
type rawEnvelope struct {
	Body struct {
		Inner []byte `xml:",innerxml"`
	} `xml:"Body"`
}

func firstStatus(inner []byte, op, msgElem string) error {
	dec := xml.NewDecoder(bytes.NewReader(inner))
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != msgElem {
			continue
		}
		var status responseStatus
		if err := dec.DecodeElement(&status, &start); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
		return status.err(op)
	}
}
