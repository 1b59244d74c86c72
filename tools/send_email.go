package tools

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mggger/ews-mcp/ews"
)

// SendEmailHandler creates a handler for sending an email.
func SendEmailHandler(svc MailService) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		to, err := requireAddressList(args, "to")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		cc, err := parseAddressList(args, "cc")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		bcc, err := parseAddressList(args, "bcc")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		subject, ok := args["subject"].(string)
		if !ok || subject == "" {
			return mcp.NewToolResultError("subject parameter is required"), nil
		}
		body, ok := args["body"].(string)
		if !ok || body == "" {
			return mcp.NewToolResultError("body parameter is required"), nil
		}

		msg := ews.OutgoingMessage{
			To:      to,
			Cc:      cc,
			Bcc:     bcc,
			Subject: subject,
			Body:    body,
		}

		if html, ok := args["html"].(bool); ok {
			msg.HTML = html
		}
		if importance, ok := args["importance"].(string); ok && importance != "" {
			switch importance {
			case "Low", "Normal", "High":
				msg.Importance = importance
			default:
				return mcp.NewToolResultError("importance must be one of Low, Normal, High"), nil
			}
		}

		// Attachments arrive as [{name, content_base64, content_type}]
		if raw, ok := args["attachments"].([]interface{}); ok {
			for i, entry := range raw {
				att, ok := entry.(map[string]interface{})
				if !ok {
					return mcp.NewToolResultError(fmt.Sprintf("attachment %d must be an object", i)), nil
				}
				name, _ := att["name"].(string)
				if name == "" {
					return mcp.NewToolResultError(fmt.Sprintf("attachment %d is missing a name", i)), nil
				}
				encoded, _ := att["content_base64"].(string)
				content, err := base64.StdEncoding.DecodeString(encoded)
				if err != nil {
					return mcp.NewToolResultError(fmt.Sprintf("attachment '%s' content is not valid base64: %v", name, err)), nil
				}
				contentType, _ := att["content_type"].(string)
				msg.Attachments = append(msg.Attachments, ews.Attachment{
					Name:        name,
					ContentType: contentType,
					Content:     content,
				})
			}
		}

		ref, err := svc.SendMessage(ctx, msg)
		if err != nil {
			return errorResult("send email", err), nil
		}

		response := map[string]interface{}{
			"success":    true,
			"message_id": ref.ID,
			"to":         to,
			"subject":    subject,
		}
		return jsonResult(response), nil
	}
}
