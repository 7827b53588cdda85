package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"sitebuilder/internal/domain"
)

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// parseJSON parses a JSON string into the target type.
func parseJSON(data string, target any) error {
	return json.Unmarshal([]byte(data), target)
}

// commandResult reports whether a command changed the document. Commands that
// do not apply are not errors: they leave the state alone and say so.
type commandResult struct {
	Changed bool   `json:"changed"`
	BlockID string `json:"blockId,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func changed(ok bool, blockID, reason string) (*mcp.CallToolResult, error) {
	r := commandResult{Changed: ok, BlockID: blockID}
	if !ok {
		r.Reason = reason
	}
	return jsonResult(r)
}

// dropPositionArg reads targetId/relation. No target means "append to the root".
func dropPositionArg(args map[string]any) (domain.DropPosition, error) {
	target, _ := args["targetId"].(string)
	relation, _ := args["relation"].(string)
	pos := domain.DropPosition{TargetID: target, Relation: domain.Relation(relation)}
	if target == "" {
		return domain.DropPosition{}, nil
	}
	if pos.Relation == "" {
		pos.Relation = domain.RelationAfter
	}
	if !pos.Relation.Valid() {
		return pos, fmt.Errorf("relation must be before, after or inside, got %q", relation)
	}
	return pos, nil
}

func requireString(args map[string]any, key string) (string, error) {
	v, _ := args[key].(string)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}
