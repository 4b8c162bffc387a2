package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/atelier/internal/index"
	"github.com/starford/atelier/internal/siteservice"
	"github.com/starford/atelier/internal/storage"
	"github.com/starford/atelier/internal/testutil"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	_, store, db := testutil.SyncedContent(t, map[string]string{
		"projects/lathe/index.md":                   "---\ntitle: Lathe\norder: 1\n---\nA lathe.",
		"projects/lathe/logs/2025-01-10-spindle.md": "---\ntitle: Spindle\n---\nTrued the spindle.",
		"projects/kiln/index.md":                    "---\ntitle: Kiln\norder: 2\nstatus: idea\n---\nA kiln.",
	})

	srv := New(siteservice.NewService(store, db, nil), store, "test")
	srv.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return srv, store
}

// callTool invokes a tool handler directly; mcp-go has no in-process call helper.
func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_projects":    srv.listProjects,
		"latest_project":   srv.latestProject,
		"read_entry":       srv.readEntry,
		"search_content":   srv.searchContent,
		"create_log":       srv.createLog,
		"retitle_log":      srv.retitleLog,
		"delete_log":       srv.deleteLog,
		"upload_asset":     srv.uploadAsset,
		"get_log_contract": srv.getLogContract,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListProjects(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_projects", map[string]any{})
	if r.IsError {
		t.Fatalf("list_projects: %s", resultText(r))
	}
	var got []projectSummary
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatal(err)
	}
	want := []projectSummary{
		{Slug: "lathe", Title: "Lathe", Status: "active", Live: true, LatestLogDate: "2025-01-10"},
		{Slug: "kiln", Title: "Kiln", Status: "idea"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("projects (-want +got):\n%s", diff)
	}
}

func TestCreateLogAndLatest(t *testing.T) {
	srv, store := testServer(t)

	if got := resultText(callTool(t, srv, "latest_project", nil)); got != "lathe" {
		t.Fatalf("latest = %q", got)
	}

	r := callTool(t, srv, "create_log", map[string]any{
		"project": "kiln",
		"title":   "Bisque firing",
		"body":    "Cone 04.",
	})
	if r.IsError {
		t.Fatalf("create_log: %s", resultText(r))
	}
	const path = "projects/kiln/logs/2025-06-01-bisque-firing.md"
	if got := resultText(r); got != "created: "+path {
		t.Errorf("result = %q", got)
	}
	if !store.Exists(path) {
		t.Errorf("%s not written", path)
	}
	if got := resultText(callTool(t, srv, "latest_project", nil)); got != "kiln" {
		t.Errorf("latest after create = %q", got)
	}

	r = callTool(t, srv, "create_log", map[string]any{"project": "kiln", "title": "Bisque firing"})
	if !r.IsError {
		t.Error("duplicate log should fail")
	}
	r = callTool(t, srv, "create_log", map[string]any{"project": "kiln", "title": "x", "date": "June 1"})
	if !r.IsError || !strings.Contains(resultText(r), "YYYY-MM-DD") {
		t.Errorf("bad date result = %q", resultText(r))
	}
	r = callTool(t, srv, "create_log", map[string]any{"project": "forge", "title": "x", "date": "2025-01-01"})
	if !r.IsError {
		t.Error("unknown project should fail")
	}
}

func TestRetitleAndDeleteLog(t *testing.T) {
	srv, store := testServer(t)
	const old = "projects/lathe/logs/2025-01-10-spindle.md"
	const moved = "projects/lathe/logs/2025-01-10-spindle-runout.md"

	r := callTool(t, srv, "retitle_log", map[string]any{"path": old, "title": "Spindle runout"})
	if r.IsError {
		t.Fatalf("retitle_log: %s", resultText(r))
	}
	if got := resultText(r); got != "moved: "+moved {
		t.Errorf("result = %q", got)
	}
	if store.Exists(old) || !store.Exists(moved) {
		t.Errorf("old exists %v, moved exists %v", store.Exists(old), store.Exists(moved))
	}

	r = callTool(t, srv, "delete_log", map[string]any{"path": moved})
	if r.IsError {
		t.Fatalf("delete_log: %s", resultText(r))
	}
	if store.Exists(moved) {
		t.Error("log not deleted")
	}
	if got := resultText(callTool(t, srv, "latest_project", nil)); got != "none" {
		t.Errorf("latest after delete = %q", got)
	}

	for _, p := range []string{moved, "projects/lathe/index.md", "../x.md"} {
		if r := callTool(t, srv, "delete_log", map[string]any{"path": p}); !r.IsError {
			t.Errorf("delete_log(%s) should fail", p)
		}
	}
	if r := callTool(t, srv, "retitle_log", map[string]any{"path": old}); !r.IsError {
		t.Error("retitle_log without title should fail")
	}
}

func TestReadEntry(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "read_entry", map[string]any{"path": "projects/lathe/index.md"})
	if r.IsError || !strings.Contains(resultText(r), "title: Lathe") {
		t.Errorf("read = %q", resultText(r))
	}

	for _, p := range []string{"projects/nope/index.md", "socials.yaml", "../etc/passwd"} {
		if r := callTool(t, srv, "read_entry", map[string]any{"path": p}); !r.IsError {
			t.Errorf("read_entry(%s) should fail", p)
		}
	}
}

func TestSearchContent(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "search_content", map[string]any{"query": "spindle", "limit": 5})
	if r.IsError {
		t.Fatalf("search: %s", resultText(r))
	}
	var got []index.SearchResult
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Slug != "lathe" {
		t.Errorf("results = %+v", got)
	}

	if r := callTool(t, srv, "search_content", map[string]any{}); !r.IsError {
		t.Error("missing query should fail")
	}
}

func TestUploadAsset_DataURI(t *testing.T) {
	srv, store := testServer(t)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)

	r := callTool(t, srv, "upload_asset", map[string]any{"url": uri, "filename": "dial.png"})
	if r.IsError {
		t.Fatalf("upload: %s", resultText(r))
	}
	var res uploadResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	want := uploadResult{SavedPath: "/assets/dial.png", MarkdownImage: "![dial](/assets/dial.png)"}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("result (-want +got):\n%s", diff)
	}
	if !store.Exists("assets/dial.png") {
		t.Error("asset not written")
	}

	if r := callTool(t, srv, "upload_asset", map[string]any{"url": uri, "filename": "dial.png"}); !r.IsError {
		t.Error("overwrite should fail")
	}
}

func TestUploadAsset_GeneratedName(t *testing.T) {
	srv, _ := testServer(t)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)

	r := callTool(t, srv, "upload_asset", map[string]any{"url": uri})
	if r.IsError {
		t.Fatalf("upload: %s", resultText(r))
	}
	var res uploadResult
	_ = json.Unmarshal([]byte(resultText(r)), &res)
	if !regexp.MustCompile(`^/assets/[0-9a-f-]{36}\.png$`).MatchString(res.SavedPath) {
		t.Errorf("saved path = %q", res.SavedPath)
	}
}

func TestUploadAsset_Rejects(t *testing.T) {
	srv, _ := testServer(t)
	png := base64.StdEncoding.EncodeToString(pngBytes)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"wrong magic", map[string]any{"url": "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not a png")), "filename": "x.png"}},
		{"bad extension", map[string]any{"url": "data:image/png;base64," + png, "filename": "x.exe"}},
		{"pdf mime", map[string]any{"url": "data:application/pdf;base64," + png}},
		{"not base64", map[string]any{"url": "data:image/png,raw"}},
		{"ftp", map[string]any{"url": "ftp://example.com/x.png"}},
		{"missing url", map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if r := callTool(t, srv, "upload_asset", tt.args); !r.IsError {
				t.Errorf("expected error, got %q", resultText(r))
			}
		})
	}
}

func TestUploadAsset_URL(t *testing.T) {
	srv, store := testServer(t)
	var fetched string
	srv.fetch = func(_ context.Context, rawURL string) ([]byte, string, error) {
		fetched = rawURL
		return pngBytes, ".png", nil
	}

	r := callTool(t, srv, "upload_asset", map[string]any{"url": "https://example.com/img/bench%20top.png"})
	if r.IsError {
		t.Fatalf("upload: %s", resultText(r))
	}
	if fetched != "https://example.com/img/bench%20top.png" {
		t.Errorf("fetched %q", fetched)
	}
	if !store.Exists("assets/bench_top.png") {
		t.Errorf("expected sanitized name, got %s", resultText(r))
	}
}

func TestLogContract(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_log_contract", nil))
	if text != LogFormatContract {
		t.Error("tool should return the contract verbatim")
	}

	res, err := srv.readLogFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := res[0].(mcp.TextResourceContents)
	if !ok || tc.URI != "atelier://log-format" || tc.Text != LogFormatContract {
		t.Errorf("resource = %+v", res)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"a b.png":        "a_b.png",
		"../../etc.png":  "etc.png",
		"ünïcode.jpg":    "_n_code.jpg",
		"plain-name.gif": "plain-name.gif",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
