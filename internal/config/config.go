package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// EnvFiles names the variable holding the app -> source -> CHM path map
	EnvFiles = "CHMDOCS_FILES"

	// EnvCacheDir names the variable overriding the cache location
	EnvCacheDir = "CHMDOCS_CACHE_DIR"

	// DefaultCacheDir is used when EnvCacheDir is unset
	DefaultCacheDir = "~/.chmdocs/cache"
)

// Config holds the server configuration
type Config struct {
	// Apps maps app name -> source name -> CHM file path
	Apps map[string]map[string]string

	// CacheDir is the root for extracted, converted, and indexed artifacts
	CacheDir string
}

// NewFromEnv builds the configuration from the environment. A .env file
// in the working directory is honored when present; values already set
// in the environment always win.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	apps := make(map[string]map[string]string)
	if raw := os.Getenv(EnvFiles); raw != "" {
		if err := json.Unmarshal([]byte(raw), &apps); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", EnvFiles, err)
		}
	}

	cacheDir := os.Getenv(EnvCacheDir)
	if cacheDir == "" {
		cacheDir = DefaultCacheDir
	}
	expanded, err := ExpandHome(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache dir: %w", err)
	}

	return &Config{Apps: apps, CacheDir: expanded}, nil
}

// ExpandHome resolves a leading ~ to the user's home directory
func ExpandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
