// Package storage defines the content-root file-system abstraction.
package storage

import "github.com/starford/atelier/internal/models"

// Provider is the interface for content file operations. All paths are
// slash-separated and relative to the content root.
type Provider interface {
	// List returns metadata for every Markdown file under dir.
	List(dir string) ([]models.EntryMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Exists reports whether a regular file exists at path.
	Exists(path string) bool
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
	// Root returns the absolute content root.
	Root() string
}
