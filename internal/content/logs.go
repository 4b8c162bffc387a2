package content

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/starford/atelier/internal/apperr"
	"github.com/starford/atelier/internal/parser"
	"github.com/starford/atelier/internal/projectlog"
	"github.com/starford/atelier/internal/storage"
)

const logDateLayout = "2006-01-02"

// Slugify lower-cases title, folds accented letters to their base form and
// joins the remaining alphanumeric runs with single hyphens.
func Slugify(title string) string {
	// Transformers carry state; build one per call.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// ValidSlug reports whether s is a single, non-empty path segment safe to
// use as a project slug.
func ValidSlug(s string) bool {
	return s != "" && s == Slugify(s)
}

// NewLogID returns the collection id for a log entry:
// "<slug>/logs/<YYYY-MM-DD>-<title-slug>.md".
func NewLogID(slug string, date time.Time, title string) string {
	name := Slugify(title)
	if name == "" {
		name = "entry"
	}
	return slug + "/logs/" + date.Format(logDateLayout) + "-" + name + ".md"
}

// NewLogPath is NewLogID relative to the content root.
func NewLogPath(slug string, date time.Time, title string) string {
	return ProjectsDir + "/" + NewLogID(slug, date, title)
}

type logFrontmatter struct {
	Title string `yaml:"title"`
	Date  string `yaml:"date"`
}

// NewLogDocument renders a log file with YAML frontmatter.
func NewLogDocument(title string, date time.Time, body string) ([]byte, error) {
	fm, err := yaml.Marshal(logFrontmatter{Title: title, Date: date.Format(logDateLayout)})
	if err != nil {
		return nil, fmt.Errorf("content: marshal log frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	buf.WriteString(strings.TrimSpace(body))
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// CreateLog writes a new log entry for an existing project and returns its
// root-relative path.
func CreateLog(store storage.Provider, slug, title string, date time.Time, body string) (string, error) {
	if !ValidSlug(slug) {
		return "", fmt.Errorf("%w: project slug %q", apperr.ErrInvalidInput, slug)
	}
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("%w: title is required", apperr.ErrInvalidInput)
	}
	if !store.Exists(ProjectsDir + "/" + slug + "/index.md") {
		return "", fmt.Errorf("project %q: %w", slug, apperr.ErrNotFound)
	}
	path := NewLogPath(slug, date, title)
	if store.Exists(path) {
		return "", fmt.Errorf("%s: %w", path, apperr.ErrAlreadyExists)
	}
	doc, err := NewLogDocument(title, date, body)
	if err != nil {
		return "", err
	}
	if err := store.Write(path, doc); err != nil {
		return "", err
	}
	return path, nil
}

// logRef splits a root-relative log path into its project slug and date.
func logRef(path string) (string, time.Time, error) {
	c, id, ok := Classify(path)
	if !ok || c != CollectionLogs {
		return "", time.Time{}, fmt.Errorf("%w: not a log path: %s", apperr.ErrInvalidInput, path)
	}
	date, ok := projectlog.LogDate(id)
	if !ok {
		return "", time.Time{}, fmt.Errorf("%w: log name has no date prefix: %s", apperr.ErrInvalidInput, path)
	}
	return projectlog.LogSlug(id), date, nil
}

// DeleteLog removes the log entry at path.
func DeleteLog(store storage.Provider, path string) error {
	if _, _, err := logRef(path); err != nil {
		return err
	}
	if !store.Exists(path) {
		return fmt.Errorf("%s: %w", path, apperr.ErrNotFound)
	}
	return store.Delete(path)
}

// RetitleLog gives the log at path a new title. The file moves to the name
// NewLogPath derives for the title, keeping its date, and the frontmatter
// title is rewritten. It returns the new root-relative path.
func RetitleLog(store storage.Provider, path, title string) (string, error) {
	slug, date, err := logRef(path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("%w: title is required", apperr.ErrInvalidInput)
	}
	data, err := store.Read(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, apperr.ErrNotFound)
	}

	dest := NewLogPath(slug, date, title)
	if dest != path {
		if store.Exists(dest) {
			return "", fmt.Errorf("%s: %w", dest, apperr.ErrAlreadyExists)
		}
		if err := store.Move(path, dest); err != nil {
			return "", err
		}
	}

	res, err := parser.Parse(data)
	if err != nil {
		return "", err
	}
	doc, err := res.SetField("title", title)
	if err != nil {
		return "", err
	}
	if err := store.Write(dest, doc); err != nil {
		return "", err
	}
	return dest, nil
}
