package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const defaultLimit = 20

// EntryRow is one indexed content file.
type EntryRow struct {
	// Path is relative to the content root, e.g. "projects/lathe/index.md".
	Path       string `json:"path"`
	Collection string `json:"collection"`
	// ID is the path relative to the collection directory.
	ID       string   `json:"id"`
	Slug     string   `json:"slug"`
	Title    string   `json:"title"`
	Checksum string   `json:"checksum"`
	Tags     []string `json:"tags"`
	// Date is YYYY-MM-DD or empty: the file-name date for logs, the
	// publication date for posts.
	Date      string    `json:"date,omitempty"`
	Draft     bool      `json:"draft,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path       string `json:"path"`
	Collection string `json:"collection"`
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	Snippet    string `json:"snippet"`
}

// UpsertEntry inserts or replaces an entry, its FTS row and its outgoing
// links within a transaction.
func (db *DB) UpsertEntry(e EntryRow, body string, links []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if e.Tags == nil {
		e.Tags = []string{}
	}
	tagsJSON, _ := json.Marshal(e.Tags)
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}

	_, err = tx.Exec(`
		INSERT INTO entries (path, collection, entry_id, slug, title, checksum, tags, body, date, draft, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			collection = excluded.collection,
			entry_id   = excluded.entry_id,
			slug       = excluded.slug,
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			body       = excluded.body,
			date       = excluded.date,
			draft      = excluded.draft,
			updated_at = excluded.updated_at
	`, e.Path, e.Collection, e.ID, e.Slug, e.Title, e.Checksum, string(tagsJSON), body, e.Date, e.Draft, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert entry: %w", err)
	}

	// No-op unless built with FTS5.
	if err := ftsUpsert(tx, e.Path, e.Title, body, e.Tags); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, e.Path); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range links {
			if _, err := stmt.Exec(e.Path, target); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteEntry removes an entry, its FTS row and outgoing links.
func (db *DB) DeleteEntry(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, path); err != nil {
		return fmt.Errorf("index: delete links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM entries WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete entry: %w", err)
	}

	return tx.Commit()
}

// GetChecksum returns the stored checksum for path, or "" if it is not
// indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM entries WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

const entryColumns = `path, collection, entry_id, slug, title, checksum, tags, date, draft, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (EntryRow, error) {
	var (
		e    EntryRow
		tags string
	)
	if err := s.Scan(&e.Path, &e.Collection, &e.ID, &e.Slug, &e.Title, &e.Checksum, &tags, &e.Date, &e.Draft, &e.UpdatedAt); err != nil {
		return EntryRow{}, err
	}
	if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
		return EntryRow{}, fmt.Errorf("index: decode tags of %s: %w", e.Path, err)
	}
	return e, nil
}

// GetEntry returns the entry at path, or nil if it is not indexed.
func (db *DB) GetEntry(path string) (*EntryRow, error) {
	e, err := scanEntry(db.conn.QueryRow(`SELECT `+entryColumns+` FROM entries WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: get entry: %w", err)
	}
	return &e, nil
}

// ListEntries pages through published entries, newest date first, and
// returns the total match count. An empty collection or tag matches all.
func (db *DB) ListEntries(collection string, limit, offset int, tag string) ([]EntryRow, int, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	where := []string{"draft = 0"}
	var args []any
	if collection != "" {
		where = append(where, "collection = ?")
		args = append(args, collection)
	}
	if tag != "" {
		// Tags are stored as a JSON array of strings.
		tagJSON, _ := json.Marshal(strings.ToLower(tag))
		where = append(where, "lower(tags) LIKE ?")
		args = append(args, "%"+string(tagJSON)+"%")
	}
	cond := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM entries`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count entries: %w", err)
	}

	rows, err := db.conn.Query(
		`SELECT `+entryColumns+` FROM entries`+cond+` ORDER BY date DESC, path LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list entries: %w", err)
	}
	defer rows.Close()

	var out []EntryRow
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// AllChecksums maps every indexed path to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Backlinks returns the paths of all entries linking to target.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM links WHERE target = ? ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
