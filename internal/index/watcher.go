package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/atelier/internal/content"
	"github.com/starford/atelier/internal/storage"
)

// Change kinds passed to an EventCallback.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// reconcileDelay lets a burst of renames settle before the index is
// compared with the disk.
const reconcileDelay = 200 * time.Millisecond

// EventCallback is called after a watcher-driven index change, and when
// the socials file changes. kind is one of KindCreated, KindUpdated or
// KindDeleted; path is relative to the content root.
type EventCallback func(kind string, path string)

type watcher struct {
	fsw    *fsnotify.Watcher
	db     *DB
	store  storage.Provider
	root   string
	logger *slog.Logger
	cb     EventCallback
}

// Watch keeps the index in step with the content root until ctx is
// cancelled. Directories created at runtime are watched too. fsnotify only
// reports the old side of a rename, so renames schedule a reconcile pass
// against the disk.
func Watch(ctx context.Context, db *DB, store storage.Provider, contentRoot string, logger *slog.Logger, cb EventCallback) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if cb == nil {
		cb = func(string, string) {}
	}
	w := &watcher{fsw: fsw, db: db, store: store, root: contentRoot, logger: logger, cb: cb}
	if err := w.addTree(contentRoot); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", contentRoot))

	reconcile := time.NewTimer(reconcileDelay)
	reconcile.Stop()
	defer reconcile.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil
		case <-reconcile.C:
			w.reconcile()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(ev) {
				reconcile.Reset(reconcileDelay)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", err.Error()))
		}
	}
}

// handle applies one fsnotify event and reports whether a reconcile pass
// is needed.
func (w *watcher) handle(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.newDir(ev.Name, info.Name())
			return false
		}
	}

	rel, ok := w.rel(ev.Name)
	if !ok {
		return false
	}
	if rel == content.SocialsFile {
		// Not indexed, but pages still have to hear about it.
		if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
			w.cb(kindOf(ev.Op), rel)
		}
		return false
	}
	if !Indexable(rel) {
		return false
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.index(rel, kindOf(ev.Op))
	case ev.Has(fsnotify.Remove):
		w.forget(rel)
	case ev.Has(fsnotify.Rename):
		w.forget(rel)
		return true
	}
	return false
}

func (w *watcher) rel(abs string) (string, bool) {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *watcher) index(rel, kind string) {
	data, err := w.store.Read(rel)
	if err != nil {
		w.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if err := indexFile(w.db, rel, data); err != nil {
		w.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("kind", kind))
	w.cb(kind, rel)
}

func (w *watcher) forget(rel string) {
	if err := w.db.DeleteEntry(rel); err != nil {
		w.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: deleted", slog.String("path", rel))
	w.cb(KindDeleted, rel)
}

// newDir starts watching a directory created at runtime and indexes any
// entries already written into it.
func (w *watcher) newDir(abs, name string) {
	if strings.HasPrefix(name, ".") {
		return
	}
	if err := w.addTree(abs); err != nil {
		w.logger.Warn("watcher: add dir failed", slog.String("path", abs), slog.String("error", err.Error()))
	}
	_ = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if rel, ok := w.rel(p); ok && Indexable(rel) {
			w.index(rel, KindCreated)
		}
		return nil
	})
}

// reconcile drops index rows whose file is gone and indexes files whose
// checksum differs from the stored one.
func (w *watcher) reconcile() {
	indexed, err := w.db.AllChecksums()
	if err != nil {
		w.logger.Warn("watcher: reconcile checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := w.store.List("")
	if err != nil {
		w.logger.Warn("watcher: reconcile list failed", slog.String("error", err.Error()))
		return
	}

	onDisk := make(map[string]string, len(metas))
	for _, m := range metas {
		if Indexable(m.Path) {
			onDisk[m.Path] = m.Checksum
		}
	}
	for p := range indexed {
		if _, ok := onDisk[p]; !ok {
			w.forget(p)
		}
	}
	for p, sum := range onDisk {
		if prev, ok := indexed[p]; !ok {
			w.index(p, KindCreated)
		} else if prev != sum {
			w.index(p, KindUpdated)
		}
	}
}

// addTree watches root and every non-hidden directory below it.
func (w *watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

func kindOf(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return KindCreated
	case op&(fsnotify.Remove|fsnotify.Rename) != 0:
		return KindDeleted
	default:
		return KindUpdated
	}
}
