package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/chmdocs-mcp/internal/config"
	"github.com/dshills/chmdocs-mcp/pkg/types"
)

// newTestServer builds a server over a temp cache where one source's
// html stage is pre-populated, so no 7z binary is needed.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	cacheDir := t.TempDir()

	cfg := &config.Config{
		Apps: map[string]map[string]string{
			"myapp": {"manual": filepath.Join(cacheDir, "manual.chm")},
		},
		CacheDir: cacheDir,
	}

	htmlDir := filepath.Join(cacheDir, "myapp", "manual", "html")
	require.NoError(t, os.MkdirAll(htmlDir, 0755))
	pages := map[string]string{
		"intro.html": `<html><body><h1>Introduction</h1><p>Welcome to the manual.</p></body></html>`,
		"setup.html": `<html><body><h1>Configuration Guide</h1><p>How to configure the app.</p></body></html>`,
	}
	for name, content := range pages {
		require.NoError(t, os.WriteFile(filepath.Join(htmlDir, name), []byte(content), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(htmlDir, ".extracted"), nil, 0644))

	server, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })
	return server
}

// callRequest builds a CallToolRequest with the given arguments
func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the text payload from a tool result
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

// requireMCPError asserts that err is an MCPError with the given code
func requireMCPError(t *testing.T, err error, code int) *MCPError {
	t.Helper()
	require.Error(t, err)
	mcpErr, ok := err.(*MCPError)
	require.True(t, ok, "expected *MCPError, got %T: %v", err, err)
	assert.Equal(t, code, mcpErr.Code)
	return mcpErr
}

func TestHandleSearchChm(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	t.Run("returns matching pages as JSON", func(t *testing.T) {
		result, err := s.handleSearchChm(ctx, callRequest("search_chm", map[string]interface{}{
			"query": "welcome",
		}))
		require.NoError(t, err)

		var results []types.SearchResult
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &results))
		require.Len(t, results, 1)
		assert.Equal(t, "myapp", results[0].App)
		assert.Equal(t, "manual", results[0].Source)
		assert.Equal(t, "intro.md", results[0].Path)
		assert.Equal(t, "Introduction", results[0].Title)
		assert.GreaterOrEqual(t, results[0].Score, 0.0)
	})

	t.Run("partial terms match by prefix", func(t *testing.T) {
		result, err := s.handleSearchChm(ctx, callRequest("search_chm", map[string]interface{}{
			"query": "configur",
		}))
		require.NoError(t, err)

		var results []types.SearchResult
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &results))
		require.Len(t, results, 1)
		assert.Equal(t, "setup.md", results[0].Path)
	})

	t.Run("no matches yields a message", func(t *testing.T) {
		result, err := s.handleSearchChm(ctx, callRequest("search_chm", map[string]interface{}{
			"query": "xyzzyplugh",
		}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"message": "No results found."}`, resultText(t, result))
	})

	t.Run("missing query is invalid params", func(t *testing.T) {
		_, err := s.handleSearchChm(ctx, callRequest("search_chm", map[string]interface{}{}))
		requireMCPError(t, err, ErrorCodeInvalidParams)
	})

	t.Run("out of range limit is invalid params", func(t *testing.T) {
		_, err := s.handleSearchChm(ctx, callRequest("search_chm", map[string]interface{}{
			"query": "welcome",
			"limit": float64(1000),
		}))
		requireMCPError(t, err, ErrorCodeInvalidParams)
	})

	t.Run("source without app is invalid params", func(t *testing.T) {
		_, err := s.handleSearchChm(ctx, callRequest("search_chm", map[string]interface{}{
			"query":  "welcome",
			"source": "manual",
		}))
		requireMCPError(t, err, ErrorCodeInvalidParams)
	})

	t.Run("unknown app maps to its own code", func(t *testing.T) {
		_, err := s.handleSearchChm(ctx, callRequest("search_chm", map[string]interface{}{
			"query": "welcome",
			"app":   "ghost",
		}))
		mcpErr := requireMCPError(t, err, ErrorCodeUnknownApp)
		assert.Contains(t, mcpErr.Message, "Available: myapp")
	})
}

func TestHandleReadChmPage(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	t.Run("returns raw markdown", func(t *testing.T) {
		result, err := s.handleReadChmPage(ctx, callRequest("read_chm_page", map[string]interface{}{
			"app":    "myapp",
			"source": "manual",
			"path":   "intro.md",
		}))
		require.NoError(t, err)

		content := resultText(t, result)
		assert.Contains(t, content, "Introduction")
		assert.Contains(t, content, "Welcome to the manual.")
	})

	t.Run("missing page maps to page not found", func(t *testing.T) {
		_, err := s.handleReadChmPage(ctx, callRequest("read_chm_page", map[string]interface{}{
			"app":    "myapp",
			"source": "manual",
			"path":   "ghost.md",
		}))
		mcpErr := requireMCPError(t, err, ErrorCodePageNotFound)
		assert.Contains(t, mcpErr.Message, "ghost.md")
	})

	t.Run("path traversal is invalid params", func(t *testing.T) {
		_, err := s.handleReadChmPage(ctx, callRequest("read_chm_page", map[string]interface{}{
			"app":    "myapp",
			"source": "manual",
			"path":   "../../etc/passwd",
		}))
		requireMCPError(t, err, ErrorCodeInvalidParams)
	})

	t.Run("unknown source maps to its own code", func(t *testing.T) {
		_, err := s.handleReadChmPage(ctx, callRequest("read_chm_page", map[string]interface{}{
			"app":    "myapp",
			"source": "ghost",
			"path":   "intro.md",
		}))
		requireMCPError(t, err, ErrorCodeUnknownSource)
	})

	t.Run("missing arguments are invalid params", func(t *testing.T) {
		_, err := s.handleReadChmPage(ctx, callRequest("read_chm_page", map[string]interface{}{
			"app": "myapp",
		}))
		requireMCPError(t, err, ErrorCodeInvalidParams)
	})
}

func TestHandleListChmPages(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	t.Run("lists pages sorted by path", func(t *testing.T) {
		result, err := s.handleListChmPages(ctx, callRequest("list_chm_pages", map[string]interface{}{
			"app":    "myapp",
			"source": "manual",
		}))
		require.NoError(t, err)

		var pages []types.PageInfo
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &pages))
		require.Len(t, pages, 2)
		assert.Equal(t, "intro.md", pages[0].Path)
		assert.Equal(t, "setup.md", pages[1].Path)
	})

	t.Run("pagination windows are distinct", func(t *testing.T) {
		first, err := s.handleListChmPages(ctx, callRequest("list_chm_pages", map[string]interface{}{
			"app":    "myapp",
			"source": "manual",
			"limit":  float64(1),
		}))
		require.NoError(t, err)
		second, err := s.handleListChmPages(ctx, callRequest("list_chm_pages", map[string]interface{}{
			"app":    "myapp",
			"source": "manual",
			"limit":  float64(1),
			"offset": float64(1),
		}))
		require.NoError(t, err)

		assert.NotEqual(t, resultText(t, first), resultText(t, second))
	})

	t.Run("windows beyond the end yield a message", func(t *testing.T) {
		result, err := s.handleListChmPages(ctx, callRequest("list_chm_pages", map[string]interface{}{
			"app":    "myapp",
			"source": "manual",
			"offset": float64(100),
		}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"message": "No pages found."}`, resultText(t, result))
	})

	t.Run("out of range limit is invalid params", func(t *testing.T) {
		_, err := s.handleListChmPages(ctx, callRequest("list_chm_pages", map[string]interface{}{
			"app":    "myapp",
			"source": "manual",
			"limit":  float64(0),
		}))
		requireMCPError(t, err, ErrorCodeInvalidParams)
	})
}

func TestHandleListChmApps(t *testing.T) {
	ctx := context.Background()

	t.Run("lists configured apps", func(t *testing.T) {
		s := newTestServer(t)
		result, err := s.handleListChmApps(ctx, callRequest("list_chm_apps", nil))
		require.NoError(t, err)
		assert.JSONEq(t, `["myapp"]`, resultText(t, result))
	})

	t.Run("empty configuration yields a message", func(t *testing.T) {
		cfg := &config.Config{Apps: map[string]map[string]string{}, CacheDir: t.TempDir()}
		s, err := NewServer(cfg)
		require.NoError(t, err)
		defer func() { _ = s.Close() }()

		result, err := s.handleListChmApps(ctx, callRequest("list_chm_apps", nil))
		require.NoError(t, err)
		assert.JSONEq(t, `{"message": "No apps configured. Set the CHMDOCS_FILES environment variable."}`, resultText(t, result))
	})
}

func TestHandleListChmSources(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	t.Run("lists an app's sources", func(t *testing.T) {
		result, err := s.handleListChmSources(ctx, callRequest("list_chm_sources", map[string]interface{}{
			"app": "myapp",
		}))
		require.NoError(t, err)
		assert.JSONEq(t, `["manual"]`, resultText(t, result))
	})

	t.Run("unknown app maps to its own code", func(t *testing.T) {
		_, err := s.handleListChmSources(ctx, callRequest("list_chm_sources", map[string]interface{}{
			"app": "ghost",
		}))
		requireMCPError(t, err, ErrorCodeUnknownApp)
	})

	t.Run("missing app is invalid params", func(t *testing.T) {
		_, err := s.handleListChmSources(ctx, callRequest("list_chm_sources", map[string]interface{}{}))
		requireMCPError(t, err, ErrorCodeInvalidParams)
	})
}

func TestHandleIndexChm(t *testing.T) {
	ctx := context.Background()

	t.Run("builds the scoped sources", func(t *testing.T) {
		s := newTestServer(t)
		result, err := s.handleIndexChm(ctx, callRequest("index_chm", map[string]interface{}{
			"app": "myapp",
		}))
		require.NoError(t, err)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &response))
		assert.Equal(t, true, response["indexed"])
		assert.EqualValues(t, 1, response["sources_indexed"])
		assert.EqualValues(t, 0, response["sources_failed"])
		assert.EqualValues(t, 2, response["pages_indexed"])
	})

	t.Run("already built sources are skipped", func(t *testing.T) {
		s := newTestServer(t)
		_, err := s.handleIndexChm(ctx, callRequest("index_chm", map[string]interface{}{}))
		require.NoError(t, err)

		result, err := s.handleIndexChm(ctx, callRequest("index_chm", map[string]interface{}{}))
		require.NoError(t, err)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &response))
		assert.EqualValues(t, 0, response["sources_indexed"])
		assert.EqualValues(t, 1, response["sources_skipped"])
	})

	t.Run("force rebuilds and searches still work", func(t *testing.T) {
		s := newTestServer(t)
		_, err := s.handleIndexChm(ctx, callRequest("index_chm", map[string]interface{}{}))
		require.NoError(t, err)

		result, err := s.handleIndexChm(ctx, callRequest("index_chm", map[string]interface{}{
			"force": true,
		}))
		require.NoError(t, err)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &response))
		assert.EqualValues(t, 1, response["sources_indexed"])

		search, err := s.handleSearchChm(ctx, callRequest("search_chm", map[string]interface{}{
			"query": "welcome",
		}))
		require.NoError(t, err)
		assert.Contains(t, resultText(t, search), "intro.md")
	})
}

func TestHandleChmStatus(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	t.Run("reports unbuilt sources as not ready", func(t *testing.T) {
		result, err := s.handleChmStatus(ctx, callRequest("chm_status", nil))
		require.NoError(t, err)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &response))
		assert.Equal(t, s.config.CacheDir, response["cache_dir"])
		assert.EqualValues(t, 1, response["app_count"])
		assert.EqualValues(t, 1, response["source_count"])

		sources, ok := response["sources"].([]interface{})
		require.True(t, ok)
		require.Len(t, sources, 1)
		entry := sources[0].(map[string]interface{})
		assert.Equal(t, "myapp", entry["app"])
		assert.Equal(t, false, entry["ready"])
	})

	t.Run("reports built sources with page counts", func(t *testing.T) {
		_, err := s.handleIndexChm(ctx, callRequest("index_chm", map[string]interface{}{}))
		require.NoError(t, err)

		result, err := s.handleChmStatus(ctx, callRequest("chm_status", nil))
		require.NoError(t, err)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &response))
		entry := response["sources"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, true, entry["ready"])
		assert.EqualValues(t, 2, entry["pages"])
	})
}

func TestHandleAppsResource(t *testing.T) {
	s := newTestServer(t)

	contents, err := s.handleAppsResource(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, appsResourceURI, text.URI)
	assert.Equal(t, "application/json", text.MIMEType)
	assert.JSONEq(t, `{"myapp": ["manual"]}`, text.Text)
}

func TestHandlePageResource(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	t.Run("serves page content", func(t *testing.T) {
		request := mcp.ReadResourceRequest{}
		request.Params.URI = "chm://myapp/manual/intro.md"

		contents, err := s.handlePageResource(ctx, request)
		require.NoError(t, err)
		require.Len(t, contents, 1)

		text := contents[0].(mcp.TextResourceContents)
		assert.Equal(t, "text/markdown", text.MIMEType)
		assert.Contains(t, text.Text, "Introduction")
	})

	t.Run("rejects malformed URIs", func(t *testing.T) {
		request := mcp.ReadResourceRequest{}
		request.Params.URI = "chm://myapp"

		_, err := s.handlePageResource(ctx, request)
		requireMCPError(t, err, ErrorCodeInvalidParams)
	})
}

func TestParsePageURI(t *testing.T) {
	tests := []struct {
		uri     string
		app     string
		source  string
		path    string
		wantErr bool
	}{
		{"chm://myapp/manual/intro.md", "myapp", "manual", "intro.md", false},
		{"chm://myapp/manual/sub/dir/page.md", "myapp", "manual", "sub/dir/page.md", false},
		{"chm://myapp/manual", "", "", "", true},
		{"chm://myapp//intro.md", "", "", "", true},
		{"file:///etc/passwd", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			app, source, path, err := parsePageURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.app, app)
			assert.Equal(t, tt.source, source)
			assert.Equal(t, tt.path, path)
		})
	}
}

func TestHandleResearchPrompt(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	t.Run("includes topic and app scope", func(t *testing.T) {
		request := mcp.GetPromptRequest{}
		request.Params.Arguments = map[string]string{"topic": "connection pooling", "app": "myapp"}

		result, err := s.handleResearchPrompt(ctx, request)
		require.NoError(t, err)
		require.Len(t, result.Messages, 1)

		text, ok := result.Messages[0].Content.(mcp.TextContent)
		require.True(t, ok)
		assert.Contains(t, text.Text, "connection pooling")
		assert.Contains(t, text.Text, `"myapp"`)
		assert.Contains(t, text.Text, "search_chm")
		assert.Contains(t, text.Text, "read_chm_page")
	})

	t.Run("missing topic is invalid params", func(t *testing.T) {
		request := mcp.GetPromptRequest{}
		request.Params.Arguments = map[string]string{}

		_, err := s.handleResearchPrompt(ctx, request)
		requireMCPError(t, err, ErrorCodeInvalidParams)
	})
}
