package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerPrompts registers the reusable prompt templates
func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt(
		"research_chm_topic",
		mcp.WithPromptDescription("Research a topic in the configured CHM documentation"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("The topic to research"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("app",
			mcp.ArgumentDescription("Restrict the research to one application"),
		),
	), s.handleResearchPrompt)
}

// handleResearchPrompt builds the research_chm_topic prompt
func (s *Server) handleResearchPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := request.Params.Arguments["topic"]
	if topic == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "topic argument is required", nil)
	}
	app := request.Params.Arguments["app"]

	scope := "all configured applications"
	searchHint := fmt.Sprintf("search_chm with query %q", topic)
	if app != "" {
		scope = fmt.Sprintf("the %q application", app)
		searchHint = fmt.Sprintf("search_chm with query %q and app %q", topic, app)
	}

	text := fmt.Sprintf(`Research %q in %s using the CHM documentation tools.

1. Run %s to find relevant pages.
2. Read the top results with read_chm_page; follow up with further
   searches if the first pages only mention the topic in passing.
3. Summarize what the documentation says about %q, citing every claim
   with the app, source, and page path it came from.
4. If the documentation does not cover the topic, say so explicitly
   instead of guessing.`, topic, scope, searchHint, topic)

	return mcp.NewGetPromptResult(
		fmt.Sprintf("Research %q in the CHM documentation", topic),
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		},
	), nil
}
