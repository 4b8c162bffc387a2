package index

import (
	"log/slog"
	"time"

	"github.com/starford/atelier/internal/checksum"
	"github.com/starford/atelier/internal/content"
	"github.com/starford/atelier/internal/parser"
	"github.com/starford/atelier/internal/projectlog"
	"github.com/starford/atelier/internal/storage"
)

const dateLayout = "2006-01-02"

// Sync walks the content tree and brings the index up to date:
//   - new/changed entries are parsed and upserted
//   - entries removed from disk are deleted from the index
//
// Markdown files outside every collection are ignored.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		if !Indexable(m.Path) {
			continue
		}
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteEntry(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// Indexable reports whether path belongs to a content collection.
func Indexable(path string) bool {
	_, _, ok := content.Classify(path)
	return ok
}

// Describe returns the collection and slug of a content path. ok is false
// for paths outside every collection.
func Describe(path string) (collection, slug string, ok bool) {
	collection, id, ok := content.Classify(path)
	if !ok {
		return "", "", false
	}
	return collection, slugFor(collection, id), true
}

func slugFor(collection, id string) string {
	switch collection {
	case content.CollectionProjects:
		return projectlog.ProjectSlug(id)
	case content.CollectionLogs:
		return projectlog.LogSlug(id)
	default:
		return content.PostSlug(id)
	}
}

type postMeta struct {
	PubDate time.Time `yaml:"pubDate"`
	Draft   bool      `yaml:"draft"`
}

// IndexPath reads one file from store and indexes it. Paths outside every
// collection are ignored.
func IndexPath(idx EntryIndex, store storage.Provider, path string) error {
	if !Indexable(path) {
		return nil
	}
	data, err := store.Read(path)
	if err != nil {
		return err
	}
	return indexFile(idx, path, data)
}

// indexFile parses data and upserts it into the index.
func indexFile(db EntryIndex, path string, data []byte) error {
	collection, id, ok := content.Classify(path)
	if !ok {
		return nil
	}
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}

	row := EntryRow{
		Path:       path,
		Collection: collection,
		ID:         id,
		Title:      res.Title,
		Checksum:   checksum.Sum(data),
		Slug:       slugFor(collection, id),
		Tags:       res.Tags,
	}
	switch collection {
	case content.CollectionLogs:
		if d, ok := projectlog.LogDate(id); ok {
			row.Date = d.Format(dateLayout)
		}
	case content.CollectionPosts:
		var meta postMeta
		if err := res.Decode(&meta); err != nil {
			return err
		}
		if !meta.PubDate.IsZero() {
			row.Date = meta.PubDate.Format(dateLayout)
		}
		row.Draft = meta.Draft
	}
	if row.Title == "" {
		row.Title = row.Slug
	}
	return db.UpsertEntry(row, res.Body, res.Links)
}
