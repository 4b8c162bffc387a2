package content

import (
	"bytes"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/starford/atelier/internal/apperr"
)

// MaxAssetBytes caps a single uploaded asset.
const MaxAssetBytes = 20 << 20

// AssetPath validates a plain asset file name and returns its path relative
// to the content root. Names with separators, traversal or a leading dot
// are rejected.
func AssetPath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: asset name is required", apperr.ErrInvalidInput)
	}
	if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") || path.Clean(name) != name {
		return "", fmt.Errorf("%w: invalid asset name %q", apperr.ErrInvalidInput, name)
	}
	return AssetsDir + "/" + name, nil
}

// AssetURL is the public URL an asset is served at.
func AssetURL(name string) string {
	return "/" + AssetsDir + "/" + name
}

type imageKind struct {
	ext  string
	mime string
}

// imageKinds lists the accepted asset types. The first entry for a MIME type
// is its canonical extension.
var imageKinds = []imageKind{
	{".png", "image/png"},
	{".jpg", "image/jpeg"},
	{".jpeg", "image/jpeg"},
	{".gif", "image/gif"},
	{".webp", "image/webp"},
	{".svg", "image/svg+xml"},
}

// ImageExt returns the canonical extension for an image MIME type. Parameters
// after ';' are ignored.
func ImageExt(mime string) (string, bool) {
	mime, _, _ = strings.Cut(mime, ";")
	mime = strings.TrimSpace(mime)
	for _, k := range imageKinds {
		if k.mime == mime {
			return k.ext, true
		}
	}
	return "", false
}

// ImageMIME returns the MIME type for an asset extension.
func ImageMIME(ext string) (string, bool) {
	ext = strings.ToLower(ext)
	for _, k := range imageKinds {
		if k.ext == ext {
			return k.mime, true
		}
	}
	return "", false
}

// CheckImage verifies that data is an accepted image whose content matches
// the extension of name.
func CheckImage(name string, data []byte) error {
	ext := strings.ToLower(path.Ext(name))
	want, ok := ImageMIME(ext)
	if !ok {
		return fmt.Errorf("%w: unsupported file extension %q (allowed: png, jpg, jpeg, gif, webp, svg)", apperr.ErrInvalidInput, ext)
	}
	if len(data) > MaxAssetBytes {
		return fmt.Errorf("%w: file too large: %d bytes (max %d)", apperr.ErrInvalidInput, len(data), MaxAssetBytes)
	}
	if ext == ".svg" {
		// DetectContentType reports text/xml or text/plain for SVG.
		head := data[:min(len(data), 1024)]
		if !bytes.Contains(head, []byte("<svg")) {
			return fmt.Errorf("%w: content is not an SVG document", apperr.ErrInvalidInput)
		}
		return nil
	}
	got, _, _ := strings.Cut(http.DetectContentType(data), ";")
	if got != want {
		return fmt.Errorf("%w: content does not match %s (detected %s)", apperr.ErrInvalidInput, ext, got)
	}
	return nil
}
