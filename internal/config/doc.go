// Package config loads server configuration from the environment.
//
// Two variables drive the server. CHMDOCS_FILES is a JSON object
// mapping app names to their sources and CHM file paths:
//
//	{"myapp": {"manual": "/docs/myapp/manual.chm"}}
//
// CHMDOCS_CACHE_DIR overrides where extracted and indexed artifacts are
// kept (default ~/.chmdocs/cache). A .env file in the working directory
// is loaded when present, which suits running the server outside an MCP
// client; variables already set in the environment take precedence.
package config
