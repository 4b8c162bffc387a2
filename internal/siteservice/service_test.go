package siteservice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/atelier/internal/apperr"
	"github.com/starford/atelier/internal/projectlog"
	"github.com/starford/atelier/internal/testutil"
)

var siteFiles = map[string]string{
	"projects/lathe/index.md":                     "---\ntitle: Lathe\norder: 2\ntags: [metal]\n---\nA **lathe**.",
	"projects/lathe/logs/2025-01-10-spindle.md":   "---\ntitle: Spindle\n---\nTrued it.",
	"projects/lathe/logs/2025-03-02-tailstock.md": "---\ntitle: Tailstock\n---\nAligned it.",
	"projects/loom/index.md":                      "---\ntitle: Loom\norder: 1\ntags: [wood]\n---\nA loom.",
	"projects/loom/logs/2025-02-01-warp.md":       "---\ntitle: Warp\n---\nWarped.",
	"projects/kiln/index.md":                      "---\ntitle: Kiln\norder: 3\n---\nNo logs yet. See [[lathe]].",
	"blog/hello.md":                               "---\ntitle: Hello\npubDate: 2024-05-01\ntags: [Meta]\n---\n# Hello\n\nFirst post.",
	"blog/older.md":                               "---\ntitle: Older\npubDate: 2023-01-01\n---\nOld.",
	"blog/wip.md":                                 "---\ntitle: WIP\npubDate: 2024-06-01\ndraft: true\n---\nwip",
	"socials.yaml":                                "- name: GitHub\n  url: https://github.com/example\n",
}

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	root, store, db := testutil.SyncedContent(t, siteFiles)
	return NewService(store, db, nil), root
}

func slugs(ps []projectlog.Annotated) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = projectlog.ProjectSlug(p.ID)
	}
	return out
}

func TestProjects_RankedAndLive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ps, err := svc.Projects(ctx, "")
	if err != nil {
		t.Fatalf("Projects: %v", err)
	}
	if diff := cmp.Diff([]string{"lathe", "loom", "kiln"}, slugs(ps)); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	if !ps[0].Live || ps[1].Live || ps[2].Live {
		t.Errorf("only lathe should be live: %v %v %v", ps[0].Live, ps[1].Live, ps[2].Live)
	}
	if ps[0].LatestLogDate == nil || ps[0].LatestLogDate.Format("2006-01-02") != "2025-03-02" {
		t.Errorf("lathe latest = %v", ps[0].LatestLogDate)
	}
	if ps[2].LatestLogDate != nil {
		t.Errorf("kiln should be undated")
	}

	wood, _ := svc.Projects(ctx, "WOOD")
	if diff := cmp.Diff([]string{"loom"}, slugs(wood)); diff != "" {
		t.Errorf("tag filter (-want +got):\n%s", diff)
	}

	slug, err := svc.LatestProjectSlug(ctx)
	if err != nil || slug != "lathe" {
		t.Errorf("LatestProjectSlug = %q, %v", slug, err)
	}
}

func TestLatestProjectSlug_TieMatchesLive(t *testing.T) {
	_, store, db := testutil.SyncedContent(t, map[string]string{
		"projects/alpha/index.md":                 "---\ntitle: Alpha\norder: 2\n---\nA.",
		"projects/alpha/logs/2025-01-10-first.md": "---\ntitle: First\n---\nx",
		"projects/beta/index.md":                  "---\ntitle: Beta\norder: 1\n---\nB.",
		"projects/beta/logs/2025-01-10-first.md":  "---\ntitle: First\n---\ny",
	})
	svc := NewService(store, db, nil)
	ctx := context.Background()

	latest, err := svc.LatestProjectSlug(ctx)
	if err != nil {
		t.Fatalf("LatestProjectSlug: %v", err)
	}
	ps, err := svc.Projects(ctx, "")
	if err != nil {
		t.Fatalf("Projects: %v", err)
	}
	var live []string
	for _, p := range ps {
		if p.Live {
			live = append(live, projectlog.ProjectSlug(p.ID))
		}
	}
	if diff := cmp.Diff([]string{latest}, live); diff != "" {
		t.Errorf("live projects vs latest %q (-want +got):\n%s", latest, diff)
	}
	if latest != "beta" {
		t.Errorf("latest = %q, want beta (lower order wins a tie)", latest)
	}
	if got := slugs(ps)[0]; got != latest {
		t.Errorf("first ranked = %q, latest = %q", got, latest)
	}
}

func TestProject_Detail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	d, err := svc.Project(ctx, "lathe")
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if d.Slug != "lathe" || d.Title != "Lathe" || !d.Live {
		t.Errorf("detail header = %+v", d.Annotated)
	}
	if d.HTML != "<p>A <strong>lathe</strong>.</p>\n" {
		t.Errorf("html = %q", d.HTML)
	}
	if len(d.Logs) != 2 || d.Logs[0].Title != "Tailstock" || d.Logs[1].Title != "Spindle" {
		t.Errorf("logs = %+v", d.Logs)
	}
	if d.Logs[0].Date == nil || d.Logs[0].Date.Day() != 2 {
		t.Errorf("log date = %v", d.Logs[0].Date)
	}
	if diff := cmp.Diff([]string{"projects/kiln/index.md"}, d.Backlinks); diff != "" {
		t.Errorf("backlinks (-want +got):\n%s", diff)
	}

	kiln, err := svc.Project(ctx, "kiln")
	if err != nil {
		t.Fatalf("Project(kiln): %v", err)
	}
	if kiln.Logs == nil || len(kiln.Logs) != 0 || kiln.Backlinks == nil {
		t.Errorf("empty slices should be non-nil: %+v", kiln)
	}

	for _, slug := range []string{"missing", "../etc", ""} {
		if _, err := svc.Project(ctx, slug); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("Project(%q) err = %v, want ErrNotFound", slug, err)
		}
	}
}

func TestPosts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	posts, err := svc.Posts(ctx, "")
	if err != nil {
		t.Fatalf("Posts: %v", err)
	}
	var got []string
	for _, p := range posts {
		got = append(got, p.Slug)
	}
	if diff := cmp.Diff([]string{"hello", "older"}, got); diff != "" {
		t.Errorf("posts (-want +got):\n%s", diff)
	}

	meta, _ := svc.Posts(ctx, "meta")
	if len(meta) != 1 || meta[0].Slug != "hello" {
		t.Errorf("tag filter = %+v", meta)
	}
	none, _ := svc.Posts(ctx, "nothing")
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", none)
	}

	p, err := svc.Post(ctx, "hello")
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if p.HTML == "" || p.Title != "Hello" {
		t.Errorf("post = %+v", p)
	}
	if _, err := svc.Post(ctx, "wip"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("draft should be hidden, got %v", err)
	}
}

func TestSocials(t *testing.T) {
	svc, _ := newTestService(t)
	got, err := svc.Socials(context.Background())
	if err != nil {
		t.Fatalf("Socials: %v", err)
	}
	if len(got) != 1 || got[0].Name != "GitHub" {
		t.Errorf("socials = %+v", got)
	}
}

func TestSearch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Search(ctx, "Aligned", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 1 || res[0].Slug != "lathe" || res[0].Collection != "logs" {
		t.Errorf("results = %+v", res)
	}

	if _, err := svc.Search(ctx, "  ", 10); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("blank query err = %v", err)
	}
}

func TestCreateLog_InvalidatesCache(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Prime the cache.
	if slug, _ := svc.LatestProjectSlug(ctx); slug != "lathe" {
		t.Fatalf("precondition: latest = %q", slug)
	}

	path, err := svc.CreateLog(ctx, "kiln", "First Firing", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), "Cone 6.")
	if err != nil {
		t.Fatalf("CreateLog: %v", err)
	}
	if path != "projects/kiln/logs/2025-04-01-first-firing.md" {
		t.Errorf("path = %q", path)
	}

	slug, _ := svc.LatestProjectSlug(ctx)
	if slug != "kiln" {
		t.Errorf("latest after new log = %q, want kiln", slug)
	}
	res, _ := svc.Search(ctx, "Cone", 10)
	if len(res) != 1 {
		t.Errorf("new log not indexed: %+v", res)
	}

	if _, err := svc.CreateLog(ctx, "kiln", "First Firing", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), "again"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate err = %v", err)
	}
	if _, err := svc.CreateLog(ctx, "nope", "x", time.Now(), ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown project err = %v", err)
	}
}

func TestDeleteAndRetitleLog(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	dest, err := svc.RetitleLog(ctx, "projects/lathe/logs/2025-03-02-tailstock.md", "Tailstock quill")
	if err != nil {
		t.Fatalf("RetitleLog: %v", err)
	}
	if dest != "projects/lathe/logs/2025-03-02-tailstock-quill.md" {
		t.Errorf("dest = %q", dest)
	}
	d, err := svc.Project(ctx, "lathe")
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Logs) != 2 || d.Logs[0].Title != "Tailstock quill" {
		t.Errorf("logs after retitle = %+v", d.Logs)
	}
	if res, _ := svc.Search(ctx, "Aligned", 10); len(res) != 1 || res[0].Path != dest {
		t.Errorf("search after retitle = %+v", res)
	}

	if err := svc.DeleteLog(ctx, dest); err != nil {
		t.Fatalf("DeleteLog: %v", err)
	}
	if res, _ := svc.Search(ctx, "Aligned", 10); len(res) != 0 {
		t.Errorf("deleted log still searchable: %+v", res)
	}
	latest, err := svc.LatestProjectSlug(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest != "loom" {
		t.Errorf("latest after delete = %q, want loom", latest)
	}
	if err := svc.DeleteLog(ctx, dest); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestInvalidate_PicksUpDiskChanges(t *testing.T) {
	svc, root := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Socials(ctx); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "socials.yaml"), []byte("- name: A\n  url: https://a.test\n- name: B\n  url: mailto:b@b.test\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, _ := svc.Socials(ctx)
	if len(got) != 1 {
		t.Fatalf("cache should still hold the old list, got %d", len(got))
	}
	svc.Invalidate()
	got, _ = svc.Socials(ctx)
	if len(got) != 2 {
		t.Errorf("after Invalidate got %d socials, want 2", len(got))
	}
}

func TestReady(t *testing.T) {
	svc, root := newTestService(t)
	if err := svc.Ready(context.Background()); err != nil {
		t.Fatalf("Ready: %v", err)
	}
	if err := os.RemoveAll(root); err != nil {
		t.Fatal(err)
	}
	if err := svc.Ready(context.Background()); err == nil {
		t.Error("expected error once the content root is gone")
	}
}

func TestEntries(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rows, total, err := svc.Entries(ctx, "logs", "", 10, 0)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if total != 3 || len(rows) != 3 {
		t.Fatalf("logs: total=%d len=%d", total, len(rows))
	}
	if rows[0].Date != "2025-03-02" {
		t.Errorf("newest log first, got %s", rows[0].Date)
	}

	posts, total, _ := svc.Entries(ctx, "posts", "", 10, 0)
	if total != 2 || len(posts) != 2 {
		t.Errorf("posts should exclude drafts: total=%d", total)
	}

	if _, _, err := svc.Entries(ctx, "recipes", "", 10, 0); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("unknown collection err = %v", err)
	}
}
