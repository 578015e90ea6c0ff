package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	appsResourceURI = "chm://apps"
	pageResourceURI = "chm://{app}/{source}/{+path}"
)

// registerResources registers the static catalog resource and the page
// resource template
func (s *Server) registerResources() {
	s.mcp.AddResource(mcp.NewResource(
		appsResourceURI,
		"Configured CHM applications",
		mcp.WithResourceDescription("Catalog of configured applications and their documentation sources"),
		mcp.WithMIMEType("application/json"),
	), s.handleAppsResource)

	s.mcp.AddResourceTemplate(mcp.NewResourceTemplate(
		pageResourceURI,
		"CHM documentation page",
		mcp.WithTemplateDescription("One converted documentation page as Markdown"),
		mcp.WithTemplateMIMEType("text/markdown"),
	), s.handlePageResource)
}

// handleAppsResource serves the configured catalog as JSON
func (s *Server) handleAppsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	catalog := make(map[string][]string, len(s.config.Apps))
	for app, sources := range s.config.Apps {
		names := make([]string, 0, len(sources))
		for source := range sources {
			names = append(names, source)
		}
		sort.Strings(names)
		catalog[app] = names
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      appsResourceURI,
			MIMEType: "application/json",
			Text:     formatJSON(catalog),
		},
	}, nil
}

// handlePageResource serves one converted page addressed as
// chm://<app>/<source>/<path>
func (s *Server) handlePageResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	app, source, path, err := parsePageURI(request.Params.URI)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
	}

	content, err := s.extractor.ReadPage(ctx, app, source, path)
	if err != nil {
		return nil, mapDomainError(err, "failed to read page")
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/markdown",
			Text:     content,
		},
	}, nil
}

// parsePageURI splits a chm:// page URI into app, source, and page path
func parsePageURI(uri string) (app, source, path string, err error) {
	rest, ok := strings.CutPrefix(uri, "chm://")
	if !ok {
		return "", "", "", fmt.Errorf("unsupported resource URI %q", uri)
	}

	parts := strings.SplitN(rest, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("resource URI %q must have the form chm://<app>/<source>/<path>", uri)
	}
	return parts[0], parts[1], parts[2], nil
}
