package hubx

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// script is injected before </body> of every HTML view. It listens on
// the session event stream and reloads the page when the session
// changes, so the view is gated again.
//
//go:embed live.js
var script []byte

// DefaultLiveSessionPath is the event stream endpoint.
const DefaultLiveSessionPath = "/_session"

// LiveSession pushes Session transitions to open browser views over
// Server-Sent Events. A view displayed while the user logs out (from
// another view or from the command line) reloads and is redirected by the
// Router.
type LiveSession struct {
	path    string
	js      []byte
	mu      sync.Mutex
	version uint64
	clients map[chan uint64]struct{}

	done      chan struct{}
	closeOnce sync.Once
}

type liveConfig func(*LiveSession)

// WithLivePath sets the event stream path. (default "/_session".)
func WithLivePath(path string) liveConfig {
	return liveConfig(func(l *LiveSession) {
		l.path = path
	})
}

// NewLiveSession creates a LiveSession subscribed to session.
func NewLiveSession(session *Session, cfgs ...liveConfig) *LiveSession {
	l := &LiveSession{
		path:    DefaultLiveSessionPath,
		clients: make(map[chan uint64]struct{}),
		done:    make(chan struct{}),
	}

	for _, cfg := range cfgs {
		cfg(l)
	}

	l.js = bytes.ReplaceAll(script, []byte(DefaultLiveSessionPath), []byte(l.path))
	session.Subscribe(func(State) {
		l.Notify()
	})
	return l
}

// Notify tells every connected view that the session changed.
func (l *LiveSession) Notify() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.version++
	for ch := range l.clients {
		select {
		case ch <- l.version:
		default:
		}
	}
}

// Close ends every open event stream. Streams requested after Close
// return immediately. It is safe to call more than once and is meant to
// be registered with http.Server.RegisterOnShutdown.
func (l *LiveSession) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
}

// Middleware serves the event stream on the configured path and injects
// the listening script into HTML responses that have a closing </body>
// tag. Other responses pass through unmodified.
func (l *LiveSession) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == l.path {
			l.serveEvents(w, r)
			return
		}

		buf := &bytes.Buffer{}
		rw := newResponseWriter(buf, w.Header(), nil)
		next.ServeHTTP(rw, r)

		body := buf.Bytes()
		closingBodyAt := bytes.Index(body, []byte("</body>"))
		contentType := rw.Header().Get("Content-Type")
		isHTML := contentType == "" || strings.Contains(contentType, "text/html")

		if isHTML && closingBodyAt != -1 {
			w.Header().Set("Content-Length", strconv.Itoa(len(body)+len(l.js)))
			if rw.status != 0 {
				w.WriteHeader(rw.status)
			}
			w.Write(body[:closingBodyAt])
			w.Write(l.js)
			w.Write(body[closingBodyAt:])
			return
		}

		if rw.status != 0 {
			w.WriteHeader(rw.status)
		}
		w.Write(body)
	})
}

func (l *LiveSession) serveEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan uint64, 1)
	l.mu.Lock()
	l.clients[ch] = struct{}{}
	version := l.version
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.clients, ch)
		l.mu.Unlock()
	}()

	// the first event only tells the client the current version, it
	// reloads when a later one differs
	sendVersion(w, version)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-l.done:
			return
		case v := <-ch:
			sendVersion(w, v)
		}
	}
}

func sendVersion(w http.ResponseWriter, version uint64) {
	fmt.Fprintf(w, "data: v=%d\n\n", version)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
