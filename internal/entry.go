// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/atelier/internal/api"
	"github.com/starford/atelier/internal/index"
	"github.com/starford/atelier/internal/mcpserver"
	"github.com/starford/atelier/internal/siteservice"
	"github.com/starford/atelier/internal/sse"
	"github.com/starford/atelier/internal/storage"
	"github.com/starford/atelier/internal/svg"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{logOut: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logger == nil {
		app.logger = slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
	}
	return app, nil
}

// workspace holds the opened content root and its synced index.
type workspace struct {
	store *storage.FS
	db    *index.DB
	site  *siteservice.Service
}

func (c *workspace) Close() error {
	return c.db.Close()
}

func (a *application) openContent() (*workspace, error) {
	cfg := a.config
	if err := os.MkdirAll(cfg.Content.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Content.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	if err := index.Sync(db, store, a.logger); err != nil {
		a.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return &workspace{
		store: store,
		db:    db,
		site:  siteservice.NewService(store, db, a.logger),
	}, nil
}

// watch keeps the index current and reports every change to onChange.
// It returns when ctx is done.
func (a *application) watch(ctx context.Context, c *workspace, onChange func(sse.ContentChange)) {
	err := index.Watch(ctx, c.db, c.store, a.config.Content.Path, a.logger, func(kind, path string) {
		c.site.Invalidate()
		change := sse.ContentChange{Kind: kind, Path: path}
		change.Collection, change.Slug, _ = index.Describe(path)
		if onChange != nil {
			onChange(change)
		}
	})
	if err != nil {
		a.logger.Error("watcher stopped", slog.String("error", err.Error()))
	}
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_path", cfg.Content.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c, err := app.openContent()
	if err != nil {
		return err
	}
	defer c.Close()

	broker := sse.NewBroker(cfg.Events.Throttle, sse.WithHeartbeat(cfg.Events.Heartbeat))

	router := api.NewRouter(api.Deps{
		Site:        c.site,
		Info:        cfg.Site.SiteInfo,
		Events:      broker,
		Presets:     cfg.Decor,
		ContentRoot: cfg.Content.Path,
		Logger:      logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher; every change drops the site cache and is pushed to SSE clients.
	g.Go(func() error {
		app.watch(gCtx, c, broker.PublishChange)
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Open event streams never finish on their own.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}

	c, err := app.openContent()
	if err != nil {
		return err
	}
	defer c.Close()

	srv := mcpserver.New(c.site, c.store, app.version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		app.logger.Info("MCP server starting", slog.String("version", app.version))
		return srv.ServeStdio()
	})
	g.Go(func() error {
		app.watch(gCtx, c, nil)
		return nil
	})

	return g.Wait()
}

// ExportSVG writes the named scene, built from the configured presets, to w.
func ExportSVG(w io.Writer, scene string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	s, err := app.config.Decor.Normalize().Build(scene)
	if err != nil {
		return err
	}
	return svg.Write(w, s, svg.DefaultOptions())
}

// NewLog creates a dated log entry for project and returns its path
// relative to the content root.
func NewLog(ctx context.Context, project, title string, date time.Time, body string, opts ...Option) (string, error) {
	app, err := newApplication(opts)
	if err != nil {
		return "", err
	}
	c, err := app.openContent()
	if err != nil {
		return "", err
	}
	defer c.Close()
	return c.site.CreateLog(ctx, project, title, date, body)
}
