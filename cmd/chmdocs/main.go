package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/chmdocs-mcp/internal/config"
	"github.com/dshills/chmdocs-mcp/internal/mcp"
	"github.com/dshills/chmdocs-mcp/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version information and exit")
	transport := flag.String("transport", "stdio", `MCP transport: "stdio" or "http"`)
	listenAddr := flag.String("listen", "127.0.0.1:8173", "address to listen on when -transport=http")
	flag.Parse()

	if *showVersion {
		fmt.Printf("chmdocs MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		os.Exit(0)
	}

	// Log to stderr; stdout is reserved for the MCP protocol
	log.SetOutput(os.Stderr)
	log.Printf("chmdocs MCP Server v%s starting...", version)
	log.Printf("Build Mode: %s, Driver: %s", storage.BuildMode, storage.DriverName)

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Configured apps: %d, cache dir: %s", len(cfg.Apps), cfg.CacheDir)

	server, err := mcp.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}
	defer func() { _ = server.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		switch *transport {
		case "stdio":
			errChan <- server.Serve(ctx)
		case "http":
			errChan <- server.ServeHTTP(ctx, *listenAddr)
		default:
			errChan <- fmt.Errorf("unknown transport %q, must be \"stdio\" or \"http\"", *transport)
		}
	}()

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
		<-errChan
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}

	log.Println("Server stopped")
}
