package ews

import (
	"context"
	"encoding/xml"
	"time"
)

type findTasksRequest struct {
	XMLName   xml.Name     `xml:"m:FindItem"`
	Traversal string       `xml:"Traversal,attr"`
	Shape     itemShape    `xml:"m:ItemShape"`
	Sort      sortOrderXML `xml:"m:SortOrder"`
	Parents   idList       `xml:"m:ParentFolderIds"`
}

type taskItemXML struct {
	ItemID struct {
		ID        string `xml:"Id,attr"`
		ChangeKey string `xml:"ChangeKey,attr"`
	} `xml:"ItemId"`
	Subject string `xml:"Subject"`
	Status  string `xml:"Status"`
	DueDate string `xml:"DueDate"`
	Body    struct {
		Content string `xml:",chardata"`
	} `xml:"Body"`
}

func (t *taskItemXML) task() Task {
	out := Task{
		ID:        t.ItemID.ID,
		ChangeKey: t.ItemID.ChangeKey,
		Subject:   t.Subject,
		Status:    t.Status,
		BodyText:  t.Body.Content,
	}
	if ts, err := time.Parse(time.RFC3339, t.DueDate); err == nil {
		out.DueDate = &ts
	}
	return out
}

type findTasksResponse struct {
	Messages []struct {
		responseStatus
		RootFolder struct {
			Items struct {
				Tasks []taskItemXML `xml:"Task"`
			} `xml:"Items"`
		} `xml:"RootFolder"`
	} `xml:"Body>FindItemResponse>ResponseMessages>FindItemResponseMessage"`
}

// ListTasks returns the tasks in folder ordered by due date.
func (c *Client) ListTasks(ctx context.Context, folder FolderRef) ([]Task, error) {
	const op = "FindItem"
	req := findTasksRequest{
		Traversal: "Shallow",
		Shape:     itemShape{BaseShape: baseShapeXML{Shape: "AllProperties"}},
		Sort: sortOrderXML{Field: fieldOrderXML{
			Order: "Ascending",
			Field: fieldURIXML{FieldURI: "task:DueDate"},
		}},
		Parents: idList{Items: []any{folderRefXML(folder)}},
	}
	var resp findTasksResponse
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
	out := make([]Task, 0, len(msg.RootFolder.Items.Tasks))
	for i := range msg.RootFolder.Items.Tasks {
		out = append(out, msg.RootFolder.Items.Tasks[i].task())
	}
	return out, nil
}

type newTaskXML struct {
	XMLName xml.Name `xml:"t:Task"`
	Subject string   `xml:"t:Subject"`
	Body    *bodyXML
	DueDate string `xml:"t:DueDate,omitempty"`
}

type createTaskRequest struct {
	XMLName xml.Name `xml:"m:CreateItem"`
	Saved   idList   `xml:"m:SavedItemFolderId"`
	Items   struct {
		Task newTaskXML
	} `xml:"m:Items"`
}

// CreateTask adds a task to the default tasks folder.
func (c *Client) CreateTask(ctx context.Context, task Task) (ItemRef, error) {
	const op = "CreateItem"
	req := createTaskRequest{
		Saved: idList{Items: []any{distinguishedFolderIDXML{ID: DistinguishedTasks}}},
	}
	req.Items.Task = newTaskXML{Subject: task.Subject}
	if task.BodyText != "" {
		req.Items.Task.Body = &bodyXML{BodyType: "Text", Content: task.BodyText}
	}
	if task.DueDate != nil {
		req.Items.Task.DueDate = task.DueDate.UTC().Format(ewsTimeFormat)
	}
	var resp createItemResponse
	if err := c.call(ctx, op, req, &resp); err != nil {
		return ItemRef{}, err
	}
	return resp.firstID(op)
}

type taskFieldXML struct {
	XMLName         xml.Name `xml:"t:Task"`
	PercentComplete int      `xml:"t:PercentComplete"`
}

// CompleteTask marks a task as done. A fresh change key is fetched first
// because UpdateItem rejects stale ones.
func (c *Client) CompleteTask(ctx context.Context, id string) error {
	const op = "UpdateItem"
	ref, err := c.currentTaskRef(ctx, id)
	if err != nil {
		return err
	}
	req := updateItemRequest{ConflictResolution: "AutoResolve"}
	req.Changes.Change.ID = itemIDXML{ID: ref.ID, ChangeKey: ref.ChangeKey}
	req.Changes.Change.Updates.Sets = []setItemFieldXML{{
		Field: fieldURIXML{FieldURI: "task:PercentComplete"},
		Item:  taskFieldXML{PercentComplete: 100},
	}}
	return c.simpleCall(ctx, op, req, "UpdateItemResponseMessage")
}

type getTaskResponse struct {
	Messages []struct {
		responseStatus
		Items struct {
			Tasks []taskItemXML `xml:"Task"`
		} `xml:"Items"`
	} `xml:"Body>GetItemResponse>ResponseMessages>GetItemResponseMessage"`
}

func (c *Client) currentTaskRef(ctx context.Context, id string) (ItemRef, error) {
	const op = "GetItem"
	req := getItemRequest{
		Shape: itemShape{BaseShape: baseShapeXML{Shape: "IdOnly"}},
		IDs:   idList{Items: []any{itemIDXML{ID: id}}},
	}
	var resp getTaskResponse
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
	if len(msg.Items.Tasks) == 0 {
		return ItemRef{}, &FaultError{Op: op, Code: codeItemNotFound, Msg: "no item in response"}
	}
	t := msg.Items.Tasks[0]
	return ItemRef{ID: t.ItemID.ID, ChangeKey: t.ItemID.ChangeKey}, nil
}

// DeleteTask removes a task permanently.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	const op = "DeleteItem"
	req := deleteItemRequest{
		DeleteType: "HardDelete",
		IDs:        idList{Items: []any{itemIDXML{ID: id}}},
	}
	return c.simpleCall(ctx, op, req, "DeleteItemResponseMessage")
}
