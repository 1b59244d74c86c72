// Package ews is a client for Exchange Web Services built directly on the
// SOAP wire protocol. Every operation runs through the Executor, so admission
// control and retry apply uniformly.
package ews

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	nsSoap     = "http://schemas.xmlsoap.org/soap/envelope/"
	nsTypes    = "http://schemas.microsoft.com/exchange/services/2006/types"
	nsMessages = "http://schemas.microsoft.com/exchange/services/2006/messages"

	serverVersion = "Exchange2013_SP1"

	// maxResponseSize caps how much of a response body is read. Attachment
	// fetches are the largest payloads this client handles.
	maxResponseSize = 64 << 20
)

// Options tune the HTTP transport beneath the client.
type Options struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Client talks to one EWS endpoint with basic auth on behalf of one mailbox.
// It is safe for concurrent use.
type Client struct {
	endpoint string
	address  string // primary SMTP address of the mailbox
	username string
	password string
	http     *http.Client
	exec     *Executor
}

// NewClient builds a client for the given endpoint (the /EWS/Exchange.asmx
// URL). All calls are admitted and retried by exec.
func NewClient(endpoint, address, username, password string, exec *Executor, opts Options) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint URL %q: %w", endpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint URL %q: expected an http(s) URL like https://mail.example.com/EWS/Exchange.asmx", endpoint)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		endpoint: endpoint,
		address:  address,
		username: username,
		password: password,
		http:     &http.Client{Transport: transport, Timeout: opts.Timeout},
		exec:     exec,
	}, nil
}

// Address returns the mailbox primary SMTP address the client was built for.
func (c *Client) Address() string { return c.address }

// soapEnvelope is the outer request document. Request payloads carry their
// own prefixed XMLName (m: / t:), with the prefixes declared here.
type soapEnvelope struct {
	XMLName xml.Name   `xml:"soap:Envelope"`
	NSSoap  string     `xml:"xmlns:soap,attr"`
	NST     string     `xml:"xmlns:t,attr"`
	NSM     string     `xml:"xmlns:m,attr"`
	Header  soapHeader `xml:"soap:Header"`
	Body    soapBody   `xml:"soap:Body"`
}

type soapHeader struct {
	Version requestServerVersion `xml:"t:RequestServerVersion"`
}

type requestServerVersion struct {
	Version string `xml:"Version,attr"`
}

type soapBody struct {
	Content any
}

// faultEnvelope extracts a SOAP fault, if present, from any response.
type faultEnvelope struct {
	Fault *soapFault `xml:"Body>Fault"`
}

type soapFault struct {
	Code         string `xml:"faultcode"`
	Text         string `xml:"faultstring"`
	ResponseCode string `xml:"detail>ResponseCode"`
}

// responseStatus is embedded in every EWS response message.
type responseStatus struct {
	Class       string `xml:"ResponseClass,attr"`
	Code        string `xml:"ResponseCode"`
	MessageText string `xml:"MessageText"`
}

func (s *responseStatus) err(op string) error {
	if s.Class == "" || s.Class == "Success" || s.Class == "Warning" {
		return nil
	}
	return &FaultError{Op: op, Code: s.Code, Msg: s.MessageText}
}

// call runs one EWS operation through the executor and decodes the response
// envelope into out.
func (c *Client) call(ctx context.Context, op string, payload, out any) error {
	return c.exec.Do(ctx, op, func(ctx context.Context) error {
		return c.roundTrip(ctx, op, payload, out)
	})
}

// roundTrip performs exactly one HTTP exchange.
func (c *Client) roundTrip(ctx context.Context, op string, payload, out any) error {
	env := soapEnvelope{
		NSSoap: nsSoap,
		NST:    nsTypes,
		NSM:    nsMessages,
		Header: soapHeader{Version: requestServerVersion{Version: serverVersion}},
		Body:   soapBody{Content: payload},
	}
	body, err := xml.Marshal(env)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(append([]byte(xml.Header), body...)))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &TimeoutError{Op: op, Err: err}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	// 500 carries a SOAP fault body worth parsing; other failures only have
	// their status.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusInternalServerError {
		return &FaultError{Op: op, Status: resp.StatusCode, Msg: http.StatusText(resp.StatusCode)}
	}

	var fault faultEnvelope
	if err := xml.Unmarshal(data, &fault); err == nil && fault.Fault != nil {
		code := fault.Fault.ResponseCode
		if code == "" {
			code = fault.Fault.Code
		}
		return &FaultError{Op: op, Status: resp.StatusCode, Code: code, Msg: fault.Fault.Text}
	}
	if resp.StatusCode != http.StatusOK {
		return &FaultError{Op: op, Status: resp.StatusCode, Msg: http.StatusText(resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	if err := xml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// folderIDXML and friends are the shared t: identifier elements.
type folderIDXML struct {
	XMLName   xml.Name `xml:"t:FolderId"`
	ID        string   `xml:"Id,attr"`
	ChangeKey string   `xml:"ChangeKey,attr,omitempty"`
}

type distinguishedFolderIDXML struct {
	XMLName xml.Name `xml:"t:DistinguishedFolderId"`
	ID      string   `xml:"Id,attr"`
}

type itemIDXML struct {
	XMLName   xml.Name `xml:"t:ItemId"`
	ID        string   `xml:"Id,attr"`
	ChangeKey string   `xml:"ChangeKey,attr,omitempty"`
}

// folderRefXML converts a FolderRef into the matching identifier element.
func folderRefXML(ref FolderRef) any {
	if ref.Distinguished != "" {
		return distinguishedFolderIDXML{ID: ref.Distinguished}
	}
	return folderIDXML{ID: ref.ID, ChangeKey: ref.ChangeKey}
}

// idList wraps a heterogeneous list of identifier elements.
type idList struct {
	Items []any
}

type baseShapeXML struct {
	XMLName xml.Name `xml:"t:BaseShape"`
	Shape   string   `xml:",chardata"`
}
