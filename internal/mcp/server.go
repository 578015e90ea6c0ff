package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/chmdocs-mcp/internal/config"
	"github.com/dshills/chmdocs-mcp/internal/extractor"
	"github.com/dshills/chmdocs-mcp/internal/searcher"
)

const (
	// ServerName is the MCP server name
	ServerName = "chmdocs-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp       *server.MCPServer
	config    *config.Config
	extractor *extractor.Extractor
	searcher  *searcher.Searcher
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config) (*Server, error) {
	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	ext := extractor.New(cfg.Apps, cfg.CacheDir)
	srch := searcher.NewSearcher(ext)

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
	)

	s := &Server{
		mcp:       mcpServer,
		config:    cfg,
		extractor: ext,
		searcher:  srch,
	}

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	return s, nil
}

// Close releases the open source indexes
func (s *Server) Close() error {
	return s.extractor.Close()
}

// Serve runs the MCP server over stdin/stdout until ctx is cancelled.
// This is the standard transport for local agent integrations.
func (s *Server) Serve(ctx context.Context) error {
	srv := server.NewStdioServer(s.mcp)
	log.Println("MCP server listening on stdio")
	if err := srv.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("mcp stdio server error: %w", err)
	}
	return nil
}

// ServeHTTP runs the MCP server as a Streamable HTTP server on addr
// until ctx is cancelled. addr is a host:port string such as
// "127.0.0.1:8173".
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	httpSrv := &http.Server{Addr: addr}
	streamSrv := server.NewStreamableHTTPServer(s.mcp,
		server.WithStreamableHTTPServer(httpSrv),
	)

	log.Printf("MCP server listening on http addr=%s", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := streamSrv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("mcp http server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Println("MCP server shutting down")
		if err := streamSrv.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("mcp http server shutdown error: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchChmTool(), s.handleSearchChm)
	s.mcp.AddTool(readChmPageTool(), s.handleReadChmPage)
	s.mcp.AddTool(listChmPagesTool(), s.handleListChmPages)
	s.mcp.AddTool(listChmAppsTool(), s.handleListChmApps)
	s.mcp.AddTool(listChmSourcesTool(), s.handleListChmSources)
	s.mcp.AddTool(indexChmTool(), s.handleIndexChm)
	s.mcp.AddTool(chmStatusTool(), s.handleChmStatus)
}
