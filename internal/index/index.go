package index

// EntryIndex is the read/write surface of the index. Consumers depend on it
// rather than on *DB.
type EntryIndex interface {
	UpsertEntry(e EntryRow, body string, links []string) error
	DeleteEntry(path string) error
	GetChecksum(path string) (string, error)
	GetEntry(path string) (*EntryRow, error)
	ListEntries(collection string, limit, offset int, tag string) ([]EntryRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Backlinks(target string) ([]string, error)
	AllChecksums() (map[string]string, error)
	Ping() error
	Close() error
}

var _ EntryIndex = (*DB)(nil)
