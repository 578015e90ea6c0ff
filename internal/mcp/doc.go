// Package mcp implements the Model Context Protocol (MCP) server for
// chmdocs.
//
// The server exposes CHM (Compiled HTML Help) documentation to AI
// agents. CHM archives are configured through the CHMDOCS_FILES
// environment variable and prepared lazily: on first access a source is
// extracted with 7z, converted to Markdown, and indexed into a SQLite
// FTS5 database under the cache directory.
//
// # Tools
//
//   - search_chm: full-text search across one source, one app, or everything
//   - read_chm_page: return one converted page as Markdown
//   - list_chm_pages: paginated listing of a source's pages
//   - list_chm_apps: configured application names
//   - list_chm_sources: an app's source names
//   - index_chm: build (or force-rebuild) indexes ahead of first use
//   - chm_status: cache location, build info, and per-source index state
//
// # Resources
//
// The configured catalog is exposed as a static resource and individual
// pages through a URI template:
//
//	chm://apps                    application/json catalog
//	chm://{app}/{source}/{+path}  text/markdown page content
//
// # Prompts
//
//   - research_chm_topic: guides the agent through search-then-read
//     research over the configured documentation
//
// # Transports
//
// Stdio is the default and suits local agent integrations; Streamable
// HTTP is available for remote clients:
//
//	chmdocs                          # stdio
//	chmdocs -transport http -listen 127.0.0.1:8173
//
// # Client Configuration
//
// Configure in an MCP client's settings:
//
//	{
//	  "mcpServers": {
//	    "chmdocs": {
//	      "command": "/usr/local/bin/chmdocs",
//	      "env": {
//	        "CHMDOCS_FILES": "{\"myapp\": {\"manual\": \"/docs/manual.chm\"}}"
//	      }
//	    }
//	  }
//	}
//
// # Error Handling
//
// Tool handlers return JSON-RPC errors with these codes:
//
//   - -32602: Invalid params (missing/invalid arguments, bad paths)
//   - -32603: Internal error (extraction, conversion, database)
//   - -32001: Unknown app
//   - -32002: Unknown source
//   - -32003: Page not found
//   - -32004: Indexing already in progress
//
// Validation errors name the available alternatives so agents can
// self-correct without a separate listing call.
//
// # Logging
//
// The server logs to stderr; stdout is reserved for the MCP protocol
// when the stdio transport is active.
package mcp
