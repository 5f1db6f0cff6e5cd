package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func statsProperties() map[string]interface{} {
	return map[string]interface{}{
		"package": map[string]interface{}{
			"type":        "string",
			"description": "Package name such as apertium-kaz or kaz-tat (the apertium- prefix is optional)",
		},
		"kind": map[string]interface{}{
			"type":        "string",
			"description": "Restrict to one file kind",
			"enum":        fileKindNames(),
		},
		"recursive": map[string]interface{}{
			"type":        "boolean",
			"description": "If true, list the package trunk recursively",
			"default":     false,
		},
		"async": map[string]interface{}{
			"type":        "boolean",
			"description": "If true, return immediately with the tasks in progress instead of waiting",
			"default":     false,
		},
	}
}

// getStatsTool returns the tool definition for get_stats
func getStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_stats",
		Description: "Get stored statistics for an Apertium package, computing them when none exist",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: statsProperties(),
			Required:   []string{"package"},
		},
	}
}

// calculateStatsTool returns the tool definition for calculate_stats
func calculateStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "calculate_stats",
		Description: "Recompute statistics for every recognized file of an Apertium package",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: statsProperties(),
			Required:   []string{"package"},
		},
	}
}

// getInProgressTool returns the tool definition for get_in_progress
func getInProgressTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_in_progress",
		Description: "List the files of a package whose statistics are currently being computed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"package": map[string]interface{}{
					"type":        "string",
					"description": "Package name such as apertium-kaz",
				},
			},
			Required: []string{"package"},
		},
	}
}
