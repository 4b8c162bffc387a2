// Package siteservice assembles the site's pages from the content loader
// and the index: ranked projects, project detail with logs, posts, socials
// and search.
package siteservice

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/singleflight"

	"github.com/starford/atelier/internal/apperr"
	"github.com/starford/atelier/internal/content"
	"github.com/starford/atelier/internal/index"
	"github.com/starford/atelier/internal/models"
	"github.com/starford/atelier/internal/projectlog"
	"github.com/starford/atelier/internal/storage"
)

const maxPageSize = 100

// ProjectDetail is a project page: rendered body, logs newest first and
// the entries linking to it.
type ProjectDetail struct {
	projectlog.Annotated
	Slug      string      `json:"slug"`
	HTML      string      `json:"html"`
	Logs      []LogDetail `json:"logs"`
	Backlinks []string    `json:"backlinks"`
}

// LogDetail is a rendered project log.
type LogDetail struct {
	models.ProjectLog
	Date *time.Time `json:"date,omitempty"`
	HTML string     `json:"html"`
}

// PostDetail is a rendered blog post.
type PostDetail struct {
	models.Post
	Slug string `json:"slug"`
	HTML string `json:"html"`
}

// PostSummary is a post without its body.
type PostSummary struct {
	models.Post
	Slug string `json:"slug"`
}

// snapshot is one consistent load of every collection.
type snapshot struct {
	projects []models.Project
	logs     []models.ProjectLog
	posts    []models.Post
	socials  []models.Social
}

// Service serves site content. Collections are loaded once and reused
// until Invalidate is called.
type Service struct {
	store  storage.Provider
	idx    index.EntryIndex
	loader *content.Loader
	logger *slog.Logger

	group singleflight.Group
	mu    sync.Mutex
	snap  *snapshot
	gen   uint64
}

// NewService creates a site service.
func NewService(store storage.Provider, idx index.EntryIndex, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:  store,
		idx:    idx,
		loader: content.NewLoader(store, logger),
		logger: logger,
	}
}

// Invalidate drops the cached collections; the next call reloads them.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.snap = nil
	s.gen++
	s.mu.Unlock()
}

func (s *Service) load(ctx context.Context) (*snapshot, error) {
	s.mu.Lock()
	if s.snap != nil {
		snap := s.snap
		s.mu.Unlock()
		return snap, nil
	}
	gen := s.gen
	s.mu.Unlock()

	v, err, _ := s.group.Do(fmt.Sprint(gen), func() (any, error) {
		return s.readAll()
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := v.(*snapshot)

	s.mu.Lock()
	// A change that landed while loading invalidates this result.
	if s.gen == gen {
		s.snap = snap
	}
	s.mu.Unlock()
	return snap, nil
}

func (s *Service) readAll() (*snapshot, error) {
	projects, err := s.loader.Projects()
	if err != nil {
		return nil, err
	}
	logs, err := s.loader.ProjectLogs()
	if err != nil {
		return nil, err
	}
	posts, err := s.loader.Posts()
	if err != nil {
		return nil, err
	}
	socials, err := s.loader.Socials()
	if err != nil {
		return nil, err
	}
	s.logger.Debug("site: collections loaded",
		slog.Int("projects", len(projects)),
		slog.Int("logs", len(logs)),
		slog.Int("posts", len(posts)))
	return &snapshot{projects: projects, logs: logs, posts: posts, socials: socials}, nil
}

// rank orders projects by latest log with the most recent one flagged live.
// Projects without logs keep their frontmatter order.
func rank(snap *snapshot) []projectlog.Annotated {
	ordered := content.ProjectsByOrder(snap.projects)
	marked := projectlog.MarkLatestLive(ordered, snap.logs)
	return projectlog.SortByLatestLog(marked, snap.logs)
}

// Projects returns every project ranked by recent activity, optionally
// filtered by tag.
func (s *Service) Projects(ctx context.Context, tag string) ([]projectlog.Annotated, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return content.FilterByTag(rank(snap), tag), nil
}

// LatestProjectSlug returns the slug of the most recently active project,
// or projectlog.NoneSlug.
func (s *Service) LatestProjectSlug(ctx context.Context) (string, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	// Same input order as rank so ties on the latest date resolve to the
	// project flagged live.
	return projectlog.LatestActiveSlug(content.ProjectsByOrder(snap.projects), snap.logs), nil
}

// Project returns one project with its rendered body and logs.
func (s *Service) Project(ctx context.Context, slug string) (*ProjectDetail, error) {
	if !content.ValidSlug(slug) {
		return nil, apperr.ErrNotFound
	}
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var found *projectlog.Annotated
	ranked := rank(snap)
	for i := range ranked {
		if projectlog.ProjectSlug(ranked[i].ID) == slug {
			found = &ranked[i]
			break
		}
	}
	if found == nil {
		return nil, apperr.ErrNotFound
	}

	html, err := content.RenderMarkdown(found.Body)
	if err != nil {
		return nil, err
	}

	logs := content.LogsFor(slug, snap.logs)
	details := make([]LogDetail, 0, len(logs))
	for _, l := range logs {
		h, err := content.RenderMarkdown(l.Body)
		if err != nil {
			return nil, err
		}
		d := LogDetail{ProjectLog: l, HTML: h}
		if date, ok := projectlog.LogDate(l.ID); ok {
			d.Date = &date
		}
		details = append(details, d)
	}

	backlinks, err := s.idx.Backlinks(slug)
	if err != nil {
		return nil, err
	}

	return &ProjectDetail{
		Annotated: *found,
		Slug:      slug,
		HTML:      html,
		Logs:      details,
		Backlinks: nonNilSlice(backlinks),
	}, nil
}

// Posts returns published posts, newest first, optionally filtered by tag.
func (s *Service) Posts(ctx context.Context, tag string) ([]PostSummary, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	var out []PostSummary
	for _, p := range content.PublishedPosts(snap.posts) {
		if tag != "" && !content.HasTag(p.Tags, tag) {
			continue
		}
		out = append(out, PostSummary{Post: p, Slug: content.PostSlug(p.ID)})
	}
	return nonNilSlice(out), nil
}

// Post returns one published post. Drafts are not found.
func (s *Service) Post(ctx context.Context, slug string) (*PostDetail, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range snap.posts {
		if p.Draft || content.PostSlug(p.ID) != slug {
			continue
		}
		html, err := content.RenderMarkdown(p.Body)
		if err != nil {
			return nil, err
		}
		return &PostDetail{Post: p, Slug: slug, HTML: html}, nil
	}
	return nil, apperr.ErrNotFound
}

// Socials returns the social links.
func (s *Service) Socials(ctx context.Context) ([]models.Social, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(snap.socials), nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", apperr.ErrInvalidInput)
	}
	res, err := s.idx.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(res), nil
}

// Entries pages through the index, newest first. collection is one of the
// content collections or empty for all of them.
func (s *Service) Entries(_ context.Context, collection, tag string, limit, offset int) ([]index.EntryRow, int, error) {
	if err := validation.Validate(collection, validation.In(
		content.CollectionProjects, content.CollectionLogs, content.CollectionPosts)); err != nil {
		return nil, 0, fmt.Errorf("%w: collection %w", apperr.ErrInvalidInput, err)
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	rows, total, err := s.idx.ListEntries(collection, limit, offset, tag)
	if err != nil {
		return nil, 0, err
	}
	return nonNilSlice(rows), total, nil
}

// CreateLog writes a new log entry for slug, indexes it and drops the
// cache. It returns the root-relative path of the new file.
func (s *Service) CreateLog(_ context.Context, slug, title string, date time.Time, body string) (string, error) {
	path, err := content.CreateLog(s.store, slug, title, date, body)
	if err != nil {
		return "", err
	}
	if err := index.IndexPath(s.idx, s.store, path); err != nil {
		// The file exists; the watcher or next sync will index it.
		s.logger.Warn("site: index new log failed", slog.String("path", path), slog.String("error", err.Error()))
	}
	s.Invalidate()
	return path, nil
}

// DeleteLog removes the log at path from disk and the index and drops the
// cache.
func (s *Service) DeleteLog(_ context.Context, path string) error {
	if err := content.DeleteLog(s.store, path); err != nil {
		return err
	}
	if err := s.idx.DeleteEntry(path); err != nil {
		s.logger.Warn("site: unindex log failed", slog.String("path", path), slog.String("error", err.Error()))
	}
	s.Invalidate()
	return nil
}

// RetitleLog renames the log at path for a new title and returns its new
// path.
func (s *Service) RetitleLog(_ context.Context, path, title string) (string, error) {
	dest, err := content.RetitleLog(s.store, path, title)
	if err != nil {
		return "", err
	}
	if dest != path {
		if err := s.idx.DeleteEntry(path); err != nil {
			s.logger.Warn("site: unindex log failed", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
	if err := index.IndexPath(s.idx, s.store, dest); err != nil {
		s.logger.Warn("site: index log failed", slog.String("path", dest), slog.String("error", err.Error()))
	}
	s.Invalidate()
	return dest, nil
}

// Ready reports whether the index answers and the content root is present.
func (s *Service) Ready(_ context.Context) error {
	if err := s.idx.Ping(); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	info, err := os.Stat(s.store.Root())
	if err != nil {
		return fmt.Errorf("content: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("content: %s is not a directory", s.store.Root())
	}
	return nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
