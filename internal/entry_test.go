package internal

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Content.Path = t.TempDir()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "atelier.db")
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRunRequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Error("expected error without config")
	}
}

func TestExportSVG(t *testing.T) {
	cfg := testConfig(t)
	cfg.Decor.PowerGrid.Width = 400

	var buf bytes.Buffer
	if err := ExportSVG(&buf, "power-grid", WithConfig(cfg), quiet()); err != nil {
		t.Fatalf("ExportSVG: %v", err)
	}
	if !strings.Contains(buf.String(), `width="400"`) {
		t.Errorf("configured width not used: %.200s", buf.String())
	}

	if err := ExportSVG(io.Discard, "plaid", WithConfig(cfg), quiet()); err == nil {
		t.Error("unknown scene should fail")
	}
}

func TestNewLog(t *testing.T) {
	cfg := testConfig(t)
	project := filepath.Join(cfg.Content.Path, "projects", "lathe")
	if err := os.MkdirAll(project, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(project, "index.md"), []byte("---\ntitle: Lathe\n---\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	date := time.Date(2025, 5, 4, 0, 0, 0, 0, time.UTC)
	path, err := NewLog(context.Background(), "lathe", "Cross slide", date, "Gibs adjusted.", WithConfig(cfg), quiet())
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}
	if path != "projects/lathe/logs/2025-05-04-cross-slide.md" {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(filepath.Join(cfg.Content.Path, filepath.FromSlash(path)))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "title: Cross slide") || !strings.Contains(string(data), "Gibs adjusted.") {
		t.Errorf("log file = %q", data)
	}
}
