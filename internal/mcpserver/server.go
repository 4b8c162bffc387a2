// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the atelier content tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/atelier/internal/content"
	"github.com/starford/atelier/internal/index"
	"github.com/starford/atelier/internal/projectlog"
	"github.com/starford/atelier/internal/storage"
)

const (
	logFormatURI       = "atelier://log-format"
	defaultSearchLimit = 20
)

// Site is the part of the site service the tools drive.
type Site interface {
	Projects(ctx context.Context, tag string) ([]projectlog.Annotated, error)
	LatestProjectSlug(ctx context.Context) (string, error)
	Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error)
	CreateLog(ctx context.Context, slug, title string, date time.Time, body string) (string, error)
	RetitleLog(ctx context.Context, path, title string) (string, error)
	DeleteLog(ctx context.Context, path string) error
}

// Server wraps the MCP server with atelier tools.
type Server struct {
	mcp   *server.MCPServer
	site  Site
	store storage.Provider
	now   func() time.Time
	fetch func(ctx context.Context, rawURL string) ([]byte, string, error)
}

// New creates a new MCP server with all tools registered.
func New(site Site, store storage.Provider, version string) *Server {
	s := &Server{site: site, store: store, now: time.Now, fetch: fetchHTTP}

	s.mcp = server.NewMCPServer(
		"Atelier",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List portfolio projects, most recently active first. "+
			"The first project with a dated log is flagged live."),
		mcp.WithString("tag", mcp.Description("Optional tag filter (case-insensitive)")),
	), s.listProjects)

	s.mcp.AddTool(mcp.NewTool("latest_project",
		mcp.WithDescription("Slug of the project with the most recent log, or \"none\"."),
	), s.latestProject)

	s.mcp.AddTool(mcp.NewTool("read_entry",
		mcp.WithDescription("Read the raw Markdown of a project, log or blog post."),
		mcp.WithString("path", mcp.Required(),
			mcp.Description("Path relative to the content root, e.g. projects/lathe/index.md")),
	), s.readEntry)

	s.mcp.AddTool(mcp.NewTool("search_content",
		mcp.WithDescription("Full-text search through projects, logs and published posts."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	), s.searchContent)

	s.mcp.AddTool(mcp.NewTool("create_log",
		mcp.WithDescription("Create a dated log entry for an existing project. "+
			"Read the contract first via get_log_contract or the "+logFormatURI+" resource."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project slug, e.g. lathe")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Log title; also used for the file name")),
		mcp.WithString("body", mcp.Description("Markdown body")),
		mcp.WithString("date", mcp.Description("YYYY-MM-DD, defaults to today")),
	), s.createLog)

	s.mcp.AddTool(mcp.NewTool("retitle_log",
		mcp.WithDescription("Give an existing log a new title. The file is renamed to match and keeps its date."),
		mcp.WithString("path", mcp.Required(),
			mcp.Description("Log path relative to the content root, e.g. projects/lathe/logs/2025-01-10-spindle.md")),
		mcp.WithString("title", mcp.Required(), mcp.Description("New title")),
	), s.retitleLog)

	s.mcp.AddTool(mcp.NewTool("delete_log",
		mcp.WithDescription("Delete a project log entry."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Log path relative to the content root")),
	), s.deleteLog)

	s.mcp.AddTool(mcp.NewTool("upload_asset",
		mcp.WithDescription("Store an image under assets/ from a base64 data URI or an http(s) URL. "+
			"Returns a markdownImage snippet to paste into a log or post."),
		mcp.WithString("url", mcp.Required(), mcp.Description("data:<mime>;base64,... or http(s) URL")),
		mcp.WithString("filename", mcp.Description("Optional file name; derived from the URL when empty")),
	), s.uploadAsset)

	s.mcp.AddTool(mcp.NewTool("get_log_contract",
		mcp.WithDescription("Returns the project log format contract. "+
			"Call this before creating logs to ensure correct structure."),
	), s.getLogContract)

	s.mcp.AddResource(
		mcp.NewResource(logFormatURI, "Log Format Contract",
			mcp.WithResourceDescription("Layout and frontmatter of project logs and posts."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLogFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type projectSummary struct {
	Slug          string `json:"slug"`
	Title         string `json:"title"`
	Status        string `json:"status,omitempty"`
	Live          bool   `json:"live"`
	LatestLogDate string `json:"latestLogDate,omitempty"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.site.Projects(ctx, req.GetString("tag", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := make([]projectSummary, 0, len(projects))
	for _, p := range projects {
		sum := projectSummary{
			Slug:   projectlog.ProjectSlug(p.ID),
			Title:  p.Title,
			Status: p.Status,
			Live:   p.Live,
		}
		if p.LatestLogDate != nil {
			sum.LatestLogDate = p.LatestLogDate.Format(time.DateOnly)
		}
		out = append(out, sum)
	}
	return jsonResult(out)
}

func (s *Server) latestProject(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := s.site.LatestProjectSlug(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(slug), nil
}

func (s *Server) readEntry(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, _, ok := content.Classify(path); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not a content entry: %s", path)), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) searchContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.site.Search(ctx, query, req.GetInt("limit", defaultSearchLimit))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) createLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	date := s.now()
	if raw := req.GetString("date", ""); raw != "" {
		date, err = time.Parse(time.DateOnly, raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid date %q: want YYYY-MM-DD", raw)), nil
		}
	}

	path, err := s.site.CreateLog(ctx, slug, title, date, req.GetString("body", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", path)), nil
}

func (s *Server) retitleLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dest, err := s.site.RetitleLog(ctx, path, title)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("moved: %s", dest)), nil
}

func (s *Server) deleteLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.site.DeleteLog(ctx, path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", path)), nil
}

func (s *Server) getLogContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LogFormatContract), nil
}

func (s *Server) readLogFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      logFormatURI,
			MIMEType: "text/markdown",
			Text:     LogFormatContract,
		},
	}, nil
}
