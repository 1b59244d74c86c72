package ews

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"
)

type getAttachmentRequest struct {
	XMLName xml.Name `xml:"m:GetAttachment"`
	IDs     struct {
		Items []attachmentIDXML
	} `xml:"m:AttachmentIds"`
}

type attachmentIDXML struct {
	XMLName xml.Name `xml:"t:AttachmentId"`
	ID      string   `xml:"Id,attr"`
}

type getAttachmentResponse struct {
	Messages []struct {
		responseStatus
		Attachments struct {
			Files []struct {
				Name        string `xml:"Name"`
				ContentType string `xml:"ContentType"`
				Content     string `xml:"Content"`
			} `xml:"FileAttachment"`
		} `xml:"Attachments"`
	} `xml:"Body>GetAttachmentResponse>ResponseMessages>GetAttachmentResponseMessage"`
}

// GetAttachment downloads one file attachment by the id reported in a
// message's attachment metadata. Content arrives base64-encoded on the wire
// and is returned decoded.
func (c *Client) GetAttachment(ctx context.Context, id string) (*Attachment, error) {
	const op = "GetAttachment"
	req := getAttachmentRequest{}
	req.IDs.Items = []attachmentIDXML{{ID: id}}

	var resp getAttachmentResponse
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
	if len(msg.Attachments.Files) == 0 {
		return nil, &FaultError{Op: op, Code: codeItemNotFound, Msg: "no attachment in response"}
	}
	file := msg.Attachments.Files[0]
	content, err := base64.StdEncoding.DecodeString(strings.TrimSpace(file.Content))
	if err != nil {
		return nil, fmt.Errorf("%s: decode attachment content: %w", op, err)
	}
	return &Attachment{
		Name:        file.Name,
		ContentType: file.ContentType,
		Content:     content,
	}, nil
}
