package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mggger/ews-mcp/ews"
	"github.com/mggger/ews-mcp/ratelimit"
	"github.com/mggger/ews-mcp/resolve"
)

// parseAddressList extracts a string or []interface{} argument into a
// validated email address list. Returns a non-nil error if the value is
// present but invalid.
func parseAddressList(args map[string]interface{}, key string) ([]string, error) {
	val, ok := args[key]
	if !ok || val == nil {
		return nil, nil
	}

	var raw []string
	switch v := val.(type) {
	case string:
		if v != "" {
			raw = []string{v}
		}
	case []interface{}:
		for _, item := range v {
			if str, ok := item.(string); ok && str != "" {
				raw = append(raw, str)
			}
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", key)
	}

	for _, addr := range raw {
		if _, err := mail.ParseAddress(addr); err != nil {
			return nil, fmt.Errorf("invalid %s email address '%s': %v", key, addr, err)
		}
	}

	return raw, nil
}

// requireAddressList is like parseAddressList but returns an error if the result is empty.
func requireAddressList(args map[string]interface{}, key string) ([]string, error) {
	addrs, err := parseAddressList(args, key)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%s is required", key)
	}
	return addrs, nil
}

// jsonResult marshals v as an indented JSON tool result.
func jsonResult(v interface{}) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to format response: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// errorResult turns a backend or resolver failure into a tool error whose
// message tells the caller whether retrying the whole call can help.
func errorResult(action string, err error) *mcp.CallToolResult {
	var notFound *resolve.FolderNotFoundError
	var limited *ratelimit.Error
	var transient *ews.TransientError
	var timeout *ews.TimeoutError

	switch {
	case errors.As(err, &notFound):
		return mcp.NewToolResultError(notFound.Error())
	case errors.As(err, &limited):
		return mcp.NewToolResultError(fmt.Sprintf(
			"rate limit exceeded (%d requests per %s); wait and retry this call", limited.Limit, limited.Window))
	case errors.As(err, &timeout):
		return mcp.NewToolResultError(fmt.Sprintf(
			"failed to %s: request timed out, the outcome is unknown; the call can be retried", action))
	case errors.As(err, &transient):
		return mcp.NewToolResultError(fmt.Sprintf(
			"failed to %s: backend unavailable after %d attempts; the call can be retried later", action, transient.Attempts))
	default:
		return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", action, err))
	}
}
