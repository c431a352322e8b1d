package hubx_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bluescreen10/hubx"
	"github.com/bluescreen10/hubx/memstore"
)

func TestLiveSessionInjectsScript(t *testing.T) {
	sess := newSession(t)
	live := hubx.NewLiveSession(sess)

	h := live.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>hi</body></html>"))
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	body := w.Body.String()
	if !strings.Contains(body, "EventSource(\"/_session\")") {
		t.Fatalf("expected script in body got '%s'", body)
	}
	if !strings.HasSuffix(body, "</body></html>") {
		t.Fatalf("expected script before </body> got '%s'", body)
	}
}

func TestLiveSessionSkipsNonHTML(t *testing.T) {
	live := hubx.NewLiveSession(newSession(t), hubx.WithLivePath("/_events"))

	h := live.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"body":"</body>"}`))
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Body.String() != `{"body":"</body>"}` {
		t.Fatalf("expected body untouched got '%s'", w.Body.String())
	}
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status 202 got %d", w.Code)
	}
}

func TestLiveSessionPushesTransitions(t *testing.T) {
	sess := newSession(t)
	live := hubx.NewLiveSession(sess)
	srv := httptest.NewServer(live.Middleware(http.NotFoundHandler()))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, "GET", srv.URL+hubx.DefaultLiveSessionPath, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected 'text/event-stream' got '%s'", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		for lines.Scan() {
			if l := lines.Text(); strings.HasPrefix(l, "data: ") {
				return l
			}
		}
		t.Fatalf("stream ended: %v", lines.Err())
		return ""
	}

	if first := next(); first != "data: v=0" {
		t.Fatalf("expected 'data: v=0' got '%s'", first)
	}

	if err := sess.Login("abc"); err != nil {
		t.Fatal(err)
	}

	if second := next(); second != "data: v=1" {
		t.Fatalf("expected 'data: v=1' got '%s'", second)
	}
}

func TestLiveSessionCloseEndsStreams(t *testing.T) {
	live := hubx.NewLiveSession(newSession(t))
	srv := httptest.NewServer(live.Middleware(http.NotFoundHandler()))
	defer srv.Close()
	srv.Config.RegisterOnShutdown(live.Close)

	resp, err := http.Get(srv.URL + hubx.DefaultLiveSessionPath)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	lines := bufio.NewScanner(resp.Body)
	if !lines.Scan() || lines.Text() != "data: v=0" {
		t.Fatalf("expected 'data: v=0' got '%s'", lines.Text())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Config.Shutdown(ctx); err != nil {
		t.Fatalf("expected shutdown with an open stream to finish got %v", err)
	}

	for lines.Scan() {
	}
	if err := lines.Err(); err != nil {
		t.Fatalf("expected stream to end cleanly got %v", err)
	}
}

func TestLiveSessionStreamAfterClose(t *testing.T) {
	live := hubx.NewLiveSession(newSession(t))
	live.Close()
	live.Close()

	done := make(chan struct{})
	w := httptest.NewRecorder()
	go func() {
		live.Middleware(http.NotFoundHandler()).ServeHTTP(w, httptest.NewRequest("GET", hubx.DefaultLiveSessionPath, nil))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected stream to return after Close")
	}
	if w.Body.String() != "data: v=0\n\n" {
		t.Fatalf("expected only the current version got '%s'", w.Body.String())
	}
}

func newSession(t *testing.T) *hubx.Session {
	t.Helper()
	sess, err := hubx.NewSession(hubx.NewTokenStore(memstore.New(), ""))
	if err != nil {
		t.Fatal(err)
	}
	return sess
}
