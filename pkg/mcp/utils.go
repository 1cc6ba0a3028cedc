package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func jsonResult(v any, what string) (*mcp.CallToolResult, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize %s to JSON: %v", what, err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func stringArg(request mcp.CallToolRequest, name string) string {
	s, _ := request.Params.Arguments[name].(string)
	return strings.TrimSpace(s)
}

// numberArg reports whether the argument was given. JSON numbers arrive as
// float64; numeric strings are accepted too.
func numberArg(request mcp.CallToolRequest, name string) (float64, bool, error) {
	switch v := request.Params.Arguments[name].(type) {
	case nil:
		return 0, false, nil
	case float64:
		return v, true, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, false, nil
		}
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err != nil {
			return 0, false, fmt.Errorf("'%s' must be a number", name)
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("'%s' must be a number", name)
	}
}

// parseList splits a comma-separated argument.
func parseList(s string) []string {
	var list []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			list = append(list, p)
		}
	}
	return list
}
