package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/crawldash/internal/model"
	"github.com/kalambet/crawldash/internal/session"
)

// DashboardURI is the resource the dashboard summary is published under.
const DashboardURI = "crawldash://dashboard"

const defaultResultLimit = 20

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Controller *session.Controller
	Version    string
	Now        func() time.Time
}

// NewMCPServer creates an MCP server exposing the mirrored collections as
// tools and the dashboard as a resource.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	s := server.NewMCPServer(
		"crawldash",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("crawldash: sites, keywords and crawl tasks of a crawl monitoring account, plus the results they produced."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("list_sites",
			mcp.WithDescription("List the monitored sites."),
		),
		mcpList(deps, deps.Controller.Sites),
	)
	s.AddTool(
		mcp.NewTool("add_site",
			mcp.WithDescription("Add a site to monitor."),
			mcp.WithString("name", mcp.Description("Display name"), mcp.Required()),
			mcp.WithString("url", mcp.Description("Site URL"), mcp.Required()),
			mcp.WithString("site_type", mcp.Description("One of news, forum, blog, general"),
				mcp.Enum("news", "forum", "blog", "general")),
		),
		mcpAddSite(deps),
	)

	s.AddTool(
		mcp.NewTool("list_keywords",
			mcp.WithDescription("List the monitored keywords."),
		),
		mcpList(deps, deps.Controller.Keywords),
	)
	s.AddTool(
		mcp.NewTool("add_keyword",
			mcp.WithDescription("Add a keyword to monitor."),
			mcp.WithString("keyword", mcp.Description("Search term"), mcp.Required()),
			mcp.WithString("category", mcp.Description("One of general, business, technology, health"),
				mcp.Enum("general", "business", "technology", "health")),
			mcp.WithNumber("priority", mcp.Description("Priority from 1 to 5")),
		),
		mcpAddKeyword(deps),
	)

	s.AddTool(
		mcp.NewTool("list_tasks",
			mcp.WithDescription("List the crawl tasks."),
		),
		mcpList(deps, deps.Controller.Tasks),
	)
	s.AddTool(
		mcp.NewTool("add_task",
			mcp.WithDescription("Create a crawl task over existing sites and keywords."),
			mcp.WithString("name", mcp.Description("Task name"), mcp.Required()),
			mcp.WithString("description", mcp.Description("Optional description")),
			mcp.WithString("frequency", mcp.Description("ISO 8601 duration: PT1H, PT6H, P1D or P7D"), mcp.Required()),
			mcp.WithArray("site_ids", mcp.Description("Site ids to crawl"), mcp.Required(),
				mcp.Items(map[string]any{"type": "integer"})),
			mcp.WithArray("keyword_ids", mcp.Description("Keyword ids to match"), mcp.Required(),
				mcp.Items(map[string]any{"type": "integer"})),
		),
		mcpAddTask(deps),
	)

	s.AddTool(
		mcp.NewTool("list_results",
			mcp.WithDescription("List crawl results in server order."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
		),
		mcpListResults(deps),
	)
	s.AddTool(
		mcp.NewTool("refresh",
			mcp.WithDescription("Refetch every collection from the backend."),
		),
		mcpRefresh(deps),
	)

	s.AddResource(
		mcp.NewResource(
			DashboardURI,
			"Dashboard",
			mcp.WithResourceDescription("Task and result totals with the most recent results"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceDashboard(deps),
	)

	return s
}

func mcpList[T any](deps MCPDeps, snapshot func() []T) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !deps.Controller.Authenticated() {
			return mcpError(session.MsgNotAuthenticated), nil
		}
		return mcpJSON(snapshot())
	}
}

func mcpAddSite(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		site := model.NewSite{
			Name:     req.GetString("name", ""),
			URL:      req.GetString("url", ""),
			SiteType: model.SiteType(req.GetString("site_type", "")),
		}
		if err := deps.Controller.CreateSite(ctx, site); err != nil {
			return mcpError(createFailure(err, session.Sites)), nil
		}
		return mcpText(fmt.Sprintf("Added site %s (%d sites)", site.Name, len(deps.Controller.Sites()))), nil
	}
}

func mcpAddKeyword(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kw := model.NewKeyword{
			Keyword:  req.GetString("keyword", ""),
			Category: model.Category(req.GetString("category", "")),
			Priority: req.GetInt("priority", 0),
		}
		if err := deps.Controller.CreateKeyword(ctx, kw); err != nil {
			return mcpError(createFailure(err, session.Keywords)), nil
		}
		return mcpText(fmt.Sprintf("Added keyword %q (%d keywords)", kw.Keyword, len(deps.Controller.Keywords()))), nil
	}
}

func mcpAddTask(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		siteIDs, err := intSlice(args, "site_ids")
		if err != nil {
			return mcpError(err.Error()), nil
		}
		keywordIDs, err := intSlice(args, "keyword_ids")
		if err != nil {
			return mcpError(err.Error()), nil
		}
		task := model.NewTask{
			Name:        req.GetString("name", ""),
			Description: req.GetString("description", ""),
			Frequency:   model.Frequency(req.GetString("frequency", "")),
			SiteIDs:     siteIDs,
			KeywordIDs:  keywordIDs,
		}
		if err := deps.Controller.CreateTask(ctx, task); err != nil {
			return mcpError(createFailure(err, session.Tasks)), nil
		}
		return mcpText(fmt.Sprintf("Added task %s running %s (%d tasks)",
			task.Name, task.Frequency.Label(), len(deps.Controller.Tasks()))), nil
	}
}

func mcpListResults(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !deps.Controller.Authenticated() {
			return mcpError(session.MsgNotAuthenticated), nil
		}
		limit := req.GetInt("limit", defaultResultLimit)
		if limit <= 0 {
			limit = defaultResultLimit
		}
		results := deps.Controller.Results()
		if len(results) > limit {
			results = results[:limit]
		}
		return mcpJSON(results)
	}
}

func mcpRefresh(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		report, err := deps.Controller.RefreshAll(ctx)
		if err != nil {
			return mcpError(session.MsgNotAuthenticated), nil
		}
		counts := deps.Controller.Counts()
		summary := fmt.Sprintf("sites=%d keywords=%d tasks=%d results=%d",
			counts[session.Sites], counts[session.Keywords], counts[session.Tasks], counts[session.Results])
		if failed := report.Failed(); len(failed) > 0 {
			return mcpError(fmt.Sprintf("refresh failed for %v; %s", failed, summary)), nil
		}
		return mcpText("Refreshed: " + summary), nil
	}
}

func mcpResourceDashboard(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		if !deps.Controller.Authenticated() {
			return nil, session.ErrNoSession
		}
		b, err := json.Marshal(deps.Controller.Dashboard(deps.Now()))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal dashboard: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

// createFailure explains a rejected create. Validation problems are shown
// as-is; everything else collapses to the usual failure message.
func createFailure(err error, coll session.Collection) string {
	var valErr *model.ValidationError
	switch {
	case errors.As(err, &valErr):
		return valErr.Error()
	case errors.Is(err, session.ErrNoSession):
		return session.MsgNotAuthenticated
	default:
		return "failed to add " + coll.Singular()
	}
}

// intSlice reads a JSON array of ids. Numbers arrive as float64; numeric
// strings are tolerated.
func intSlice(args map[string]any, key string) ([]int64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an array of ids", key)
	}
	out := make([]int64, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case float64:
			if v != float64(int64(v)) {
				return nil, fmt.Errorf("%s: %v is not an integer", key, v)
			}
			out = append(out, int64(v))
		case string:
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %q is not an integer", key, v)
			}
			out = append(out, id)
		default:
			return nil, fmt.Errorf("%s: unexpected %T", key, item)
		}
	}
	return out, nil
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
