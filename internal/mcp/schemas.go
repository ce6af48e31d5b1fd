package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func resolvePincodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "resolve_pincode",
		Description: "Look up a 6-digit Indian postal code and return its locality with coordinates when known",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"code": map[string]interface{}{
					"type":        "string",
					"description": "Six-digit pincode, e.g. 680001",
					"pattern":     "^[0-9]{6}$",
				},
			},
			Required: []string{"code"},
		},
	}
}

func searchLocalityTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_locality",
		Description: "Resolve a free-text locality name (misspellings allowed) or a pincode to the best matching location",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Locality name or pincode",
				},
			},
			Required: []string{"query"},
		},
	}
}

func searchCollegeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_college",
		Description: "Find the college whose name best matches the query",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "College name or part of it",
				},
			},
			Required: []string{"query"},
		},
	}
}
