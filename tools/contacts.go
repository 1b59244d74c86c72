package tools

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mggger/ews-mcp/ews"
)

// FindContactsHandler creates a handler for searching people by name or
// address fragment.
func FindContactsHandler(finder ContactFinder) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		query, ok := args["query"].(string)
		if !ok || query == "" {
			return mcp.NewToolResultError("query parameter is required"), nil
		}

		scope := ews.ScopeActiveDirectoryContacts
		if s, ok := args["scope"].(string); ok && s != "" {
			switch s {
			case "directory":
				scope = ews.ScopeActiveDirectory
			case "contacts":
				scope = ews.ScopeContactsOnly
			case "all":
				scope = ews.ScopeActiveDirectoryContacts
			default:
				return mcp.NewToolResultError("scope must be one of directory, contacts, all"), nil
			}
		}

		result, err := finder.Find(ctx, query, scope)
		if err != nil {
			return errorResult("find contacts", err), nil
		}

		response := map[string]interface{}{
			"query":    query,
			"count":    len(result.Matches),
			"contacts": result.Matches,
		}
		if result.Hint != "" {
			response["hint"] = result.Hint
		}
		return jsonResult(response), nil
	}
}

// CreateContactHandler creates a handler for adding a contact to the
// address book.
func CreateContactHandler(svc ContactService) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		name, ok := args["name"].(string)
		if !ok || name == "" {
			return mcp.NewToolResultError("name parameter is required"), nil
		}
		email, ok := args["email"].(string)
		if !ok || email == "" {
			return mcp.NewToolResultError("email parameter is required"), nil
		}
		if _, err := mail.ParseAddress(email); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid email address '%s': %v", email, err)), nil
		}

		contact := ews.Contact{
			DisplayName:  name,
			EmailAddress: email,
		}
		if v, ok := args["given_name"].(string); ok {
			contact.GivenName = v
		}
		if v, ok := args["surname"].(string); ok {
			contact.Surname = v
		}
		if v, ok := args["company"].(string); ok {
			contact.Company = v
		}
		if v, ok := args["job_title"].(string); ok {
			contact.JobTitle = v
		}
		if v, ok := args["phone"].(string); ok {
			contact.Phone = v
		}

		ref, err := svc.CreateContact(ctx, contact)
		if err != nil {
			return errorResult("create contact", err), nil
		}

		response := map[string]interface{}{
			"success":    true,
			"contact_id": ref.ID,
			"name":       name,
			"email":      email,
		}
		return jsonResult(response), nil
	}
}
