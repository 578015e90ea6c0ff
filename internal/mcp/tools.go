package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/chmdocs-mcp/internal/extractor"
	"github.com/dshills/chmdocs-mcp/internal/searcher"
	"github.com/dshills/chmdocs-mcp/internal/storage"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeUnknownApp         = -32001 // App is not configured
	ErrorCodeUnknownSource      = -32002 // App has no such source
	ErrorCodePageNotFound       = -32003 // Converted page does not exist
	ErrorCodeIndexingInProgress = -32004 // Another indexing operation is running
)

// handleSearchChm handles the search_chm tool invocation
func (s *Server) handleSearchChm(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	app := getStringDefault(args, "app", "")
	source := getStringDefault(args, "source", "")

	limit := getIntDefault(args, "limit", searcher.DefaultLimit)
	if limit < 1 || limit > searcher.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", searcher.MaxLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	response, err := s.searcher.Search(ctx, searcher.SearchRequest{
		Query:    query,
		App:      app,
		Source:   source,
		Limit:    limit,
		UseCache: true,
	})
	if err != nil {
		return nil, mapDomainError(err, "search failed")
	}

	if len(response.Results) == 0 {
		return mcp.NewToolResultText(formatJSON(map[string]interface{}{
			"message": "No results found.",
		})), nil
	}

	return mcp.NewToolResultText(formatJSON(response.Results)), nil
}

// handleReadChmPage handles the read_chm_page tool invocation
func (s *Server) handleReadChmPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	app, source, err := requireAppSource(args)
	if err != nil {
		return nil, err
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	content, err := s.extractor.ReadPage(ctx, app, source, path)
	if err != nil {
		return nil, mapDomainError(err, "failed to read page")
	}

	return mcp.NewToolResultText(content), nil
}

// handleListChmPages handles the list_chm_pages tool invocation
func (s *Server) handleListChmPages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	app, source, err := requireAppSource(args)
	if err != nil {
		return nil, err
	}

	limit := getIntDefault(args, "limit", 50)
	if limit < 1 || limit > 500 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 500", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}
	offset := getIntDefault(args, "offset", 0)

	pages, err := s.extractor.ListPages(ctx, app, source, limit, offset)
	if err != nil {
		return nil, mapDomainError(err, "failed to list pages")
	}

	if len(pages) == 0 {
		return mcp.NewToolResultText(formatJSON(map[string]interface{}{
			"message": "No pages found.",
		})), nil
	}

	return mcp.NewToolResultText(formatJSON(pages)), nil
}

// handleListChmApps handles the list_chm_apps tool invocation
func (s *Server) handleListChmApps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	apps := s.extractor.ListApps()

	if len(apps) == 0 {
		return mcp.NewToolResultText(formatJSON(map[string]interface{}{
			"message": "No apps configured. Set the CHMDOCS_FILES environment variable.",
		})), nil
	}

	return mcp.NewToolResultText(formatJSON(apps)), nil
}

// handleListChmSources handles the list_chm_sources tool invocation
func (s *Server) handleListChmSources(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	app, ok := args["app"].(string)
	if !ok || app == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "app parameter is required", map[string]interface{}{
			"param":  "app",
			"reason": "missing or empty",
		})
	}

	sources, err := s.extractor.ListSources(app)
	if err != nil {
		return nil, mapDomainError(err, "failed to list sources")
	}

	if len(sources) == 0 {
		return mcp.NewToolResultText(formatJSON(map[string]interface{}{
			"message": fmt.Sprintf("No sources found for app '%s'.", app),
		})), nil
	}

	return mcp.NewToolResultText(formatJSON(sources)), nil
}

// handleIndexChm handles the index_chm tool invocation
func (s *Server) handleIndexChm(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	app := getStringDefault(args, "app", "")
	source := getStringDefault(args, "source", "")
	force := getBoolDefault(args, "force", false)

	stats, err := s.extractor.Index(ctx, app, source, force)
	if err != nil {
		return nil, mapDomainError(err, "indexing failed")
	}

	// A forced rebuild may change any cached result set
	if force {
		s.searcher.InvalidateCache()
	}

	response := map[string]interface{}{
		"indexed":         true,
		"sources_indexed": stats.SourcesIndexed,
		"sources_skipped": stats.SourcesSkipped,
		"sources_failed":  stats.SourcesFailed,
		"pages_indexed":   stats.PagesIndexed,
		"duration_ms":     stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleChmStatus handles the chm_status tool invocation
func (s *Server) handleChmStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	statuses, err := s.extractor.Status(ctx)
	if err != nil {
		return nil, mapDomainError(err, "failed to get status")
	}

	sourceCount := 0
	for _, appSources := range s.config.Apps {
		sourceCount += len(appSources)
	}

	response := map[string]interface{}{
		"cache_dir":     s.config.CacheDir,
		"build_mode":    storage.BuildMode,
		"sqlite_driver": storage.DriverName,
		"app_count":     len(s.config.Apps),
		"source_count":  sourceCount,
		"sources":       statuses,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// requireAppSource extracts the mandatory app and source string arguments
func requireAppSource(args map[string]interface{}) (string, string, error) {
	app, ok := args["app"].(string)
	if !ok || app == "" {
		return "", "", newMCPError(ErrorCodeInvalidParams, "app parameter is required", map[string]interface{}{
			"param":  "app",
			"reason": "missing or empty",
		})
	}

	source, ok := args["source"].(string)
	if !ok || source == "" {
		return "", "", newMCPError(ErrorCodeInvalidParams, "source parameter is required", map[string]interface{}{
			"param":  "source",
			"reason": "missing or empty",
		})
	}

	return app, source, nil
}

// mapDomainError converts extractor sentinel errors into MCP errors
// with the matching protocol code
func mapDomainError(err error, fallback string) error {
	data := map[string]interface{}{"error": err.Error()}

	switch {
	case errors.Is(err, extractor.ErrUnknownApp):
		return newMCPError(ErrorCodeUnknownApp, err.Error(), nil)
	case errors.Is(err, extractor.ErrUnknownSource):
		return newMCPError(ErrorCodeUnknownSource, err.Error(), nil)
	case errors.Is(err, extractor.ErrPageNotFound):
		return newMCPError(ErrorCodePageNotFound, err.Error(), nil)
	case errors.Is(err, extractor.ErrIndexingInProgress):
		return newMCPError(ErrorCodeIndexingInProgress, err.Error(), nil)
	case errors.Is(err, extractor.ErrInvalidPath), errors.Is(err, extractor.ErrSourceWithoutApp):
		return newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
	default:
		return newMCPError(ErrorCodeInternalError, fallback, data)
	}
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a value as indented JSON
func formatJSON(data interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value.
// JSON numbers arrive as float64.
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
