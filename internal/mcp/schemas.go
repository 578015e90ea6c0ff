package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchChmTool returns the tool definition for search_chm
func searchChmTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_chm",
		Description: "Full-text search across the configured CHM documentation",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search terms; partial words match by prefix",
				},
				"app": map[string]interface{}{
					"type":        "string",
					"description": "Restrict the search to one application",
				},
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Restrict the search to one source (requires app)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// readChmPageTool returns the tool definition for read_chm_page
func readChmPageTool() mcp.Tool {
	return mcp.Tool{
		Name:        "read_chm_page",
		Description: "Read one converted documentation page as Markdown",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"app": map[string]interface{}{
					"type":        "string",
					"description": "Application name",
				},
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Source name within the application",
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Page path as returned by search_chm or list_chm_pages",
				},
			},
			Required: []string{"app", "source", "path"},
		},
	}
}

// listChmPagesTool returns the tool definition for list_chm_pages
func listChmPagesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_chm_pages",
		Description: "List the pages of one documentation source",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"app": map[string]interface{}{
					"type":        "string",
					"description": "Application name",
				},
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Source name within the application",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of pages to return (1-500)",
					"default":     50,
					"minimum":     1,
					"maximum":     500,
				},
				"offset": map[string]interface{}{
					"type":        "integer",
					"description": "Number of pages to skip",
					"default":     0,
					"minimum":     0,
				},
			},
			Required: []string{"app", "source"},
		},
	}
}

// listChmAppsTool returns the tool definition for list_chm_apps
func listChmAppsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_chm_apps",
		Description: "List the configured application names",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// listChmSourcesTool returns the tool definition for list_chm_sources
func listChmSourcesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_chm_sources",
		Description: "List an application's documentation sources",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"app": map[string]interface{}{
					"type":        "string",
					"description": "Application name",
				},
			},
			Required: []string{"app"},
		},
	}
}

// indexChmTool returns the tool definition for index_chm
func indexChmTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_chm",
		Description: "Extract, convert, and index CHM sources ahead of first use",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"app": map[string]interface{}{
					"type":        "string",
					"description": "Restrict indexing to one application",
				},
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Restrict indexing to one source (requires app)",
				},
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, rerun every pipeline stage even when already built",
					"default":     false,
				},
			},
		},
	}
}

// chmStatusTool returns the tool definition for chm_status
func chmStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "chm_status",
		Description: "Report cache location, build info, and per-source index state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
