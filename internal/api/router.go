package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/atelier/internal/decor"
	"github.com/starford/atelier/internal/models"
)

// Deps is what the router needs from the rest of the application.
type Deps struct {
	Site SiteService
	Info models.SiteInfo
	// Events, if non-nil, is mounted at GET /api/events.
	Events      http.Handler
	Presets     decor.Presets
	ContentRoot string
	Logger      *slog.Logger
}

// NewRouter creates the chi router for the whole site API.
func NewRouter(d Deps) chi.Router {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := NewHandler(d.Site, d.Info)
	sh := NewSVGHandler(d.Presets)
	ah := NewAssetHandler(d.ContentRoot)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)

	r.Route("/api", func(r chi.Router) {
		r.Get("/site", h.SiteInfo)
		r.Get("/projects", h.ListProjects)
		r.Get("/projects/latest", h.LatestProject)
		r.Get("/projects/{slug}", h.GetProject)
		r.Get("/posts", h.ListPosts)
		r.Get("/posts/{slug}", h.GetPost)
		r.Get("/socials", h.Socials)
		r.Get("/search", h.Search)
		r.Get("/entries", h.ListEntries)
		if d.Events != nil {
			r.Get("/events", d.Events.ServeHTTP)
		}
	})

	r.Get("/svg/{file}", sh.Serve)
	r.Head("/svg/{file}", sh.Serve)
	r.Get("/assets/{filename}", ah.ServeFile)

	return r
}
