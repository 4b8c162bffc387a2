package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/atelier/internal/content"
)

const (
	fetchTimeout = 30 * time.Second
	maxRedirects = 5
	fallbackExt  = ".bin"
)

var (
	unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

	metadataIP = net.ParseIP("169.254.169.254")
)

type uploadResult struct {
	SavedPath     string `json:"savedPath"`
	MarkdownImage string `json:"markdownImage"`
}

func (s *Server) uploadAsset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var (
		data []byte
		ext  string
	)
	if isDataURI(src) {
		data, ext, err = decodeDataURI(src)
	} else {
		data, ext, err = s.fetch(ctx, src)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name := req.GetString("filename", "")
	if name == "" {
		name = nameFromSource(src, ext)
	}
	name = sanitizeFilename(name)

	if err := content.CheckImage(name, data); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rel, err := content.AssetPath(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.store.Exists(rel) {
		return mcp.NewToolResultError(fmt.Sprintf("asset already exists: %s", rel)), nil
	}
	if err := s.store.Write(rel, data); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save asset: %v", err)), nil
	}

	u := content.AssetURL(name)
	alt := strings.TrimSuffix(name, filepath.Ext(name))
	out, err := json.Marshal(uploadResult{SavedPath: u, MarkdownImage: "![" + alt + "](" + u + ")"})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func isDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// decodeDataURI reads a base64 data URI and returns its bytes and the
// extension implied by its media type.
func decodeDataURI(uri string) ([]byte, string, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, "", errors.New("data URI: missing ','")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", errors.New("data URI: only base64 payloads are accepted")
	}
	ext, ok := content.ImageExt(mime)
	if !ok {
		return nil, "", fmt.Errorf("data URI: unsupported media type %q", mime)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some clients drop the padding.
		if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return nil, "", fmt.Errorf("data URI: %w", err)
		}
	}
	return data, ext, nil
}

// fetchHTTP downloads an image over http(s). Loopback and cloud metadata
// hosts are refused, including as redirect targets.
func fetchHTTP(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, "", fmt.Errorf("unsupported scheme %q: use http or https", u.Scheme)
	}
	if err := guardHost(u.Hostname()); err != nil {
		return nil, "", err
	}

	client := &http.Client{
		Timeout: fetchTimeout,
		CheckRedirect: func(r *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return guardHost(r.URL.Hostname())
		},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, content.MaxAssetBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("download: %w", err)
	}
	if len(data) > content.MaxAssetBytes {
		return nil, "", fmt.Errorf("download: larger than %d bytes", content.MaxAssetBytes)
	}
	ext, _ := content.ImageExt(resp.Header.Get("Content-Type"))
	return data, ext, nil
}

func guardHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("blocked host %s", host)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := net.LookupIP(host)
		if err != nil || len(ips) == 0 {
			// DNS failures surface from the client itself.
			return nil
		}
		ip = ips[0]
	}
	if ip.IsLoopback() || ip.Equal(metadataIP) {
		return fmt.Errorf("blocked host %s", host)
	}
	return nil
}

// nameFromSource takes the last path element of an http(s) URL. Data URIs
// and extensionless URLs get a random name.
func nameFromSource(src, ext string) string {
	if !isDataURI(src) {
		if u, err := url.Parse(src); err == nil {
			if base := path.Base(u.Path); strings.Contains(base, ".") && base != "." {
				return base
			}
		}
	}
	if ext == "" {
		ext = fallbackExt
	}
	return uuid.NewString() + ext
}

// sanitizeFilename keeps the base name and replaces anything outside
// [a-zA-Z0-9._-] with '_'.
func sanitizeFilename(name string) string {
	name = unsafeNameRe.ReplaceAllString(filepath.Base(name), "_")
	if name == "" || name == "." {
		return uuid.NewString()
	}
	return name
}
