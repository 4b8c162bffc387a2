// Package content loads the site's collections (projects, project logs,
// blog posts, socials) from a storage provider and prepares them for
// rendering.
package content

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/atelier/internal/apperr"
	"github.com/starford/atelier/internal/models"
	"github.com/starford/atelier/internal/parser"
	"github.com/starford/atelier/internal/storage"
)

// Collection directories and files relative to the content root.
const (
	ProjectsDir = "projects"
	BlogDir     = "blog"
	AssetsDir   = "assets"
	SocialsFile = "socials.yaml"
)

// Collection names used by the index.
const (
	CollectionProjects = "projects"
	CollectionLogs     = "logs"
	CollectionPosts    = "posts"
)

// Loader reads collections from a storage provider. Entries that fail to
// parse or validate are skipped and logged; one bad file never hides the
// rest of a collection.
type Loader struct {
	store  storage.Provider
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger discards warnings.
func NewLoader(store storage.Provider, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{store: store, logger: logger}
}

// Classify maps a root-relative path to its collection and collection id.
// ok is false for files outside every collection.
func Classify(path string) (collection, id string, ok bool) {
	if !strings.HasSuffix(path, ".md") {
		return "", "", false
	}
	if rest, found := strings.CutPrefix(path, ProjectsDir+"/"); found {
		switch {
		case strings.Contains(rest, "/logs/"):
			return CollectionLogs, rest, true
		case strings.HasSuffix(rest, "/index.md") && strings.Count(rest, "/") == 1:
			return CollectionProjects, rest, true
		}
		return "", "", false
	}
	if rest, found := strings.CutPrefix(path, BlogDir+"/"); found {
		return CollectionPosts, rest, true
	}
	return "", "", false
}

type projectFrontmatter struct {
	Description string `yaml:"description"`
	Status      string `yaml:"status"`
	Live        bool   `yaml:"live"`
	Order       int    `yaml:"order"`
	Repo        string `yaml:"repo"`
	Image       string `yaml:"image"`
}

var httpURLRe = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)

func (f *projectFrontmatter) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Status, validation.In(
			models.StatusActive, models.StatusPaused, models.StatusArchived, models.StatusIdea)),
		validation.Field(&f.Repo, validation.Match(httpURLRe)),
		validation.Field(&f.Order, validation.Min(0)),
	)
}

type postFrontmatter struct {
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	PubDate     time.Time  `yaml:"pubDate"`
	UpdatedDate *time.Time `yaml:"updatedDate"`
	Draft       bool       `yaml:"draft"`
}

func (f *postFrontmatter) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Title, validation.Required),
		validation.Field(&f.PubDate, validation.Required),
	)
}

// Projects loads every projects/<slug>/index.md.
func (l *Loader) Projects() ([]models.Project, error) {
	var out []models.Project
	err := l.walk(CollectionProjects, func(id string, res *parser.Result) error {
		var fm projectFrontmatter
		if err := res.Decode(&fm); err != nil {
			return err
		}
		if err := fm.Validate(); err != nil {
			return err
		}
		if fm.Status == "" {
			fm.Status = models.StatusActive
		}
		title := res.Title
		if title == "" {
			title = strings.TrimSuffix(id, "/index.md")
		}
		out = append(out, models.Project{
			ID:          id,
			Title:       title,
			Description: fm.Description,
			Status:      fm.Status,
			Live:        fm.Live,
			Order:       fm.Order,
			Tags:        res.Tags,
			Repo:        fm.Repo,
			Image:       fm.Image,
			Body:        res.Body,
		})
		return nil
	})
	return out, err
}

// ProjectLogs loads every projects/<slug>/logs/*.md.
func (l *Loader) ProjectLogs() ([]models.ProjectLog, error) {
	var out []models.ProjectLog
	err := l.walk(CollectionLogs, func(id string, res *parser.Result) error {
		out = append(out, models.ProjectLog{
			ID:    id,
			Title: res.Title,
			Tags:  res.Tags,
			Body:  res.Body,
		})
		return nil
	})
	return out, err
}

// Posts loads every blog/*.md, drafts included.
func (l *Loader) Posts() ([]models.Post, error) {
	var out []models.Post
	err := l.walk(CollectionPosts, func(id string, res *parser.Result) error {
		var fm postFrontmatter
		if err := res.Decode(&fm); err != nil {
			return err
		}
		if fm.Title == "" {
			fm.Title = res.Title
		}
		if err := fm.Validate(); err != nil {
			return err
		}
		out = append(out, models.Post{
			ID:          id,
			Title:       fm.Title,
			Description: fm.Description,
			PubDate:     fm.PubDate,
			UpdatedDate: fm.UpdatedDate,
			Draft:       fm.Draft,
			Tags:        res.Tags,
			Body:        res.Body,
		})
		return nil
	})
	return out, err
}

// Social links may also be mailto: or similar schemes.
var socialURLRe = regexp.MustCompile(`^[a-z][a-z0-9+.-]*:\S+$`)

// Socials loads socials.yaml. A missing file yields an empty list.
func (l *Loader) Socials() ([]models.Social, error) {
	data, err := l.store.Read(SocialsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []models.Social
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("content: parse %s: %w", SocialsFile, err)
	}
	valid := out[:0]
	for _, s := range out {
		if err := validation.ValidateStruct(&s,
			validation.Field(&s.Name, validation.Required),
			validation.Field(&s.URL, validation.Required, validation.Match(socialURLRe)),
		); err != nil {
			l.logger.Warn("content: skipping social", slog.String("name", s.Name), slog.String("error", err.Error()))
			continue
		}
		valid = append(valid, s)
	}
	return valid, nil
}

// Project loads a single project by slug.
func (l *Loader) Project(slug string) (models.Project, error) {
	path := ProjectsDir + "/" + slug + "/index.md"
	if strings.Contains(slug, "..") || !l.store.Exists(path) {
		return models.Project{}, apperr.ErrNotFound
	}
	projects, err := l.Projects()
	if err != nil {
		return models.Project{}, err
	}
	for _, p := range projects {
		if p.ID == slug+"/index.md" {
			return p, nil
		}
	}
	// Present on disk but rejected by validation.
	return models.Project{}, apperr.ErrNotFound
}

// walk parses every Markdown file of a collection and hands it to fn in
// storage order. Parse and fn errors are logged and the entry skipped.
func (l *Loader) walk(collection string, fn func(id string, res *parser.Result) error) error {
	dir := ProjectsDir
	if collection == CollectionPosts {
		dir = BlogDir
	}
	metas, err := l.store.List(dir)
	if err != nil {
		return fmt.Errorf("content: list %s: %w", collection, err)
	}
	for _, m := range metas {
		c, id, ok := Classify(m.Path)
		if !ok || c != collection {
			continue
		}
		data, err := l.store.Read(m.Path)
		if err != nil {
			l.logger.Warn("content: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		res, err := parser.Parse(data)
		if err == nil {
			err = fn(id, res)
		}
		if err != nil {
			l.logger.Warn("content: skipping entry",
				slog.String("collection", collection),
				slog.String("path", m.Path),
				slog.String("error", err.Error()))
		}
	}
	return nil
}
