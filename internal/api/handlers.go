package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/atelier/internal/index"
	"github.com/starford/atelier/internal/models"
	"github.com/starford/atelier/internal/projectlog"
	"github.com/starford/atelier/internal/siteservice"
)

// SiteService is the read side of the site the handlers depend on.
type SiteService interface {
	Projects(ctx context.Context, tag string) ([]projectlog.Annotated, error)
	LatestProjectSlug(ctx context.Context) (string, error)
	Project(ctx context.Context, slug string) (*siteservice.ProjectDetail, error)
	Posts(ctx context.Context, tag string) ([]siteservice.PostSummary, error)
	Post(ctx context.Context, slug string) (*siteservice.PostDetail, error)
	Socials(ctx context.Context) ([]models.Social, error)
	Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error)
	Entries(ctx context.Context, collection, tag string, limit, offset int) ([]index.EntryRow, int, error)
	Ready(ctx context.Context) error
}

var _ SiteService = (*siteservice.Service)(nil)

// Handler holds API route handlers.
type Handler struct {
	svc  SiteService
	info models.SiteInfo
}

// NewHandler creates a new Handler.
func NewHandler(svc SiteService, info models.SiteInfo) *Handler {
	return &Handler{svc: svc, info: info}
}

// SiteInfo handles GET /api/site.
func (h *Handler) SiteInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.info)
}

// ListProjects handles GET /api/projects.
//
//	@Summary		List projects, most recently active first
//	@Tags			projects
//	@Produce		json
//	@Param			tag	query		string	false	"Filter by tag"
//	@Success		200	{object}	ProjectListResponse
//	@Router			/projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.Projects(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProjectListResponse{Projects: projects, Total: len(projects)})
}

// LatestProject handles GET /api/projects/latest.
//
//	@Summary		Slug of the most recently active project
//	@Tags			projects
//	@Produce		json
//	@Success		200	{object}	LatestProjectResponse
//	@Router			/projects/latest [get]
func (h *Handler) LatestProject(w http.ResponseWriter, r *http.Request) {
	slug, err := h.svc.LatestProjectSlug(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LatestProjectResponse{Slug: slug})
}

// GetProject handles GET /api/projects/{slug}.
//
//	@Summary		Project page with rendered body and logs
//	@Tags			projects
//	@Produce		json
//	@Param			slug	path		string	true	"Project slug"
//	@Success		200		{object}	siteservice.ProjectDetail
//	@Failure		404		{object}	errResponse
//	@Router			/projects/{slug} [get]
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.svc.Project(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// ListPosts handles GET /api/posts.
//
//	@Summary		List published posts, newest first
//	@Tags			posts
//	@Produce		json
//	@Param			tag	query		string	false	"Filter by tag"
//	@Success		200	{object}	PostListResponse
//	@Router			/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.Posts(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PostListResponse{Posts: posts, Total: len(posts)})
}

// GetPost handles GET /api/posts/{slug}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.Post(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Socials handles GET /api/socials.
func (h *Handler) Socials(w http.ResponseWriter, r *http.Request) {
	socials, err := h.svc.Socials(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SocialsResponse{Socials: socials})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across projects, logs and posts
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// ListEntries handles GET /api/entries.
//
//	@Summary		Page through indexed entries
//	@Tags			entries
//	@Produce		json
//	@Param			collection	query		string	false	"projects, logs or posts"
//	@Param			tag			query		string	false	"Filter by tag"
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Success		200			{object}	EntryListResponse
//	@Failure		400			{object}	errResponse
//	@Router			/entries [get]
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	rows, total, err := h.svc.Entries(r.Context(), q.Get("collection"), q.Get("tag"), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EntryListResponse{Entries: rows, Total: total})
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /health/ready.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.svc.Ready(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
