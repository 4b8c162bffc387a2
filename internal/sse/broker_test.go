package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// lockedRecorder lets the test read the body while the handler is writing.
type lockedRecorder struct {
	mu  sync.Mutex
	rec *httptest.ResponseRecorder
}

func (l *lockedRecorder) Header() http.Header { return l.rec.Header() }

func (l *lockedRecorder) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rec.Write(p)
}

func (l *lockedRecorder) WriteHeader(code int) { l.rec.WriteHeader(code) }

func (l *lockedRecorder) Flush() {}

func (l *lockedRecorder) body() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rec.Body.String()
}

func TestSubscribeClose(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	sub := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	sub.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}
	// Second close is a no-op.
	sub.Close()

	if _, ok := <-sub.C(); ok {
		t.Fatal("expected subscription channel to be closed")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	sub := b.Subscribe()
	defer sub.Close()

	b.Publish(Event{Type: "custom", Data: map[string]string{"path": "a.md"}})

	select {
	case msg := <-sub.C():
		s := string(msg)
		if !strings.HasPrefix(s, "event: custom\n") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `data: {"path":"a.md"}`) {
			t.Errorf("missing data in %q", s)
		}
		if !strings.HasSuffix(s, "\n\n") {
			t.Errorf("frame not terminated: %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func drain(sub *Subscription) []string {
	var out []string
	for {
		select {
		case msg := <-sub.C():
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestPublishChange_SiteThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	sub := b.Subscribe()
	defer sub.Close()

	b.PublishChange(ContentChange{Kind: "created", Path: "blog/a.md", Collection: "posts", Slug: "a"})
	b.PublishChange(ContentChange{Kind: "updated", Path: "blog/b.md"})

	time.Sleep(50 * time.Millisecond)
	var site, created, updated int
	for _, s := range drain(sub) {
		switch {
		case strings.Contains(s, "event: "+TypeSiteChanged):
			site++
		case strings.Contains(s, "event: "+TypeContentCreated):
			created++
			if !strings.Contains(s, `"slug":"a"`) || strings.Contains(s, "Kind") {
				t.Errorf("unexpected payload %q", s)
			}
		case strings.Contains(s, "event: "+TypeContentUpdated):
			updated++
		}
	}

	if created != 1 || updated != 1 {
		t.Errorf("content events = %d created, %d updated", created, updated)
	}
	if site != 1 {
		t.Errorf("site events = %d, want 1 (throttled)", site)
	}
}

func TestPublishChange_UnknownKindIgnored(t *testing.T) {
	b := NewBroker(time.Millisecond)
	defer b.Close()
	sub := b.Subscribe()
	defer sub.Close()

	b.PublishChange(ContentChange{Kind: "renamed", Path: "x.md"})
	time.Sleep(50 * time.Millisecond)
	if got := drain(sub); len(got) != 0 {
		t.Errorf("expected no events, got %q", got)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100*time.Millisecond, WithHeartbeat(30*time.Millisecond))
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := &lockedRecorder{rec: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishChange(ContentChange{Kind: "updated", Path: "blog/x.md"})
	time.Sleep(80 * time.Millisecond)

	cancel()
	<-done

	body := w.body()
	if !strings.Contains(body, "event: "+TypeContentUpdated) {
		t.Errorf("handler output missing event: %q", body)
	}
	if !strings.Contains(body, ": ping") {
		t.Errorf("handler output missing heartbeat: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content-type = %q", ct)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	sub := b.Subscribe()
	defer sub.Close()

	// One more than the client buffer must not block the loop.
	for range clientBuffer + 6 {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	if b.ClientCount() != 1 {
		t.Fatal("broker loop stalled")
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	sub := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-sub.C():
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Safe no-ops after close.
	b.Publish(Event{Type: "x", Data: map[string]string{}})
	b.PublishChange(ContentChange{Kind: "updated", Path: "x.md"})
	sub.Close()
	late := b.Subscribe()
	if _, ok := <-late.C(); ok {
		t.Fatal("subscription after close should be closed")
	}
}
