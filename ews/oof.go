package ews

import (
	"context"
	"encoding/xml"
	"time"
)

type oofMailboxXML struct {
	XMLName xml.Name `xml:"t:Mailbox"`
	Address string   `xml:"t:Address"`
}

type getOOFRequest struct {
	XMLName xml.Name      `xml:"m:GetUserOofSettingsRequest"`
	Mailbox oofMailboxXML `xml:"t:Mailbox"`
}

type oofSettingsXML struct {
	State            string `xml:"OofState"`
	ExternalAudience string `xml:"ExternalAudience"`
	Duration         struct {
		Start string `xml:"StartTime"`
		End   string `xml:"EndTime"`
	} `xml:"Duration"`
	InternalReply struct {
		Message string `xml:"Message"`
	} `xml:"InternalReply"`
	ExternalReply struct {
		Message string `xml:"Message"`
	} `xml:"ExternalReply"`
}

type getOOFResponse struct {
	Status struct {
		responseStatus
	} `xml:"Body>GetUserOofSettingsResponse>ResponseMessage"`
	Settings oofSettingsXML `xml:"Body>GetUserOofSettingsResponse>OofSettings"`
}

// GetOOF reads the out-of-office configuration for the gateway mailbox.
func (c *Client) GetOOF(ctx context.Context) (*OOFSettings, error) {
	const op = "GetUserOofSettings"
	req := getOOFRequest{Mailbox: oofMailboxXML{Address: c.address}}
	var resp getOOFResponse
	if err := c.call(ctx, op, req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Status.err(op); err != nil {
		return nil, err
	}
	out := &OOFSettings{
		State:            resp.Settings.State,
		ExternalAudience: resp.Settings.ExternalAudience,
		InternalReply:    resp.Settings.InternalReply.Message,
		ExternalReply:    resp.Settings.ExternalReply.Message,
	}
	if ts, err := time.Parse(time.RFC3339, resp.Settings.Duration.Start); err == nil {
		out.Start = &ts
	}
	if ts, err := time.Parse(time.RFC3339, resp.Settings.Duration.End); err == nil {
		out.End = &ts
	}
	return out, nil
}

type oofDurationXML struct {
	XMLName xml.Name `xml:"t:Duration"`
	Start   string   `xml:"t:StartTime"`
	End     string   `xml:"t:EndTime"`
}

type oofReplyXML struct {
	Message string `xml:"t:Message"`
}

type setOOFRequest struct {
	XMLName  xml.Name      `xml:"m:SetUserOofSettingsRequest"`
	Mailbox  oofMailboxXML `xml:"t:Mailbox"`
	Settings struct {
		State            string          `xml:"t:OofState"`
		ExternalAudience string          `xml:"t:ExternalAudience"`
		Duration         *oofDurationXML
		InternalReply    *oofReplyXML `xml:"t:InternalReply"`
		ExternalReply    *oofReplyXML `xml:"t:ExternalReply"`
	} `xml:"t:UserOofSettings"`
}

type setOOFResponse struct {
	Status struct {
		responseStatus
	} `xml:"Body>SetUserOofSettingsResponse>ResponseMessage"`
}

// SetOOF writes the out-of-office configuration. A Scheduled state requires
// both start and end times.
func (c *Client) SetOOF(ctx context.Context, settings OOFSettings) error {
	const op = "SetUserOofSettings"
	req := setOOFRequest{Mailbox: oofMailboxXML{Address: c.address}}
	req.Settings.State = settings.State
	audience := settings.ExternalAudience
	if audience == "" {
		audience = "All"
	}
	req.Settings.ExternalAudience = audience
	if settings.Start != nil && settings.End != nil {
		req.Settings.Duration = &oofDurationXML{
			Start: settings.Start.UTC().Format(ewsTimeFormat),
			End:   settings.End.UTC().Format(ewsTimeFormat),
		}
	}
	if settings.InternalReply != "" {
		req.Settings.InternalReply = &oofReplyXML{Message: settings.InternalReply}
	}
	if settings.ExternalReply != "" {
		req.Settings.ExternalReply = &oofReplyXML{Message: settings.ExternalReply}
	}
	var resp setOOFResponse
	if err := c.call(ctx, op, req, &resp); err != nil {
		return err
	}
	return resp.Status.err(op)
}
