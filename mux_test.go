package hubx_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bluescreen10/hubx"
)

func TestGroup(t *testing.T) {
	mux := hubx.NewServeMux()
	listings := mux.Group("/listings")
	var count int
	listings.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		count++
	})

	r := httptest.NewRequest("GET", "/listings/new", &bytes.Buffer{})
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	if count != 1 {
		t.Fatalf("expected to be called '1' got '%d'", count)
	}
}

func TestRootGroupKeepsPath(t *testing.T) {
	mux := hubx.NewServeMux()
	views := mux.Group("/")
	var path string
	views.HandleFunc("/listings/new", func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
	})

	r := httptest.NewRequest("GET", "/listings/new", &bytes.Buffer{})
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	if path != "/listings/new" {
		t.Fatalf("expected path '/listings/new' got '%s'", path)
	}
}

func TestUseMiddleware(t *testing.T) {
	mw1 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Test-1", "test")
			next.ServeHTTP(w, r)
		})
	}

	mw2 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Test-2", "test")
			next.ServeHTTP(w, r)
		})
	}

	mux := hubx.NewServeMux()
	mux.Use(mw1)
	mux.Use(mw2)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello world"))
	})

	r := httptest.NewRequest("GET", "/", &bytes.Buffer{})
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, r)

	body, err := io.ReadAll(w.Body)
	if err != nil || string(body) != "hello world" {
		t.Fatalf("expected 'hello world' got '%s'", body)
	}

	if h := w.Result().Header.Get("Test-1"); h != "test" {
		t.Fatalf("expected header value to be 'test' got '%s'", h)
	}

	if h := w.Result().Header.Get("Test-2"); h != "test" {
		t.Fatalf("expected header value to be 'test' got '%s'", h)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) hubx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := hubx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mw("outer"), mw("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if got := len(order); got != 3 || order[0] != "outer" || order[1] != "inner" || order[2] != "handler" {
		t.Fatalf("expected [outer inner handler] got %v", order)
	}
}

func TestGroupWithMiddlewares(t *testing.T) {
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Test", "test")
			next.ServeHTTP(w, r)
		})
	}

	mux := hubx.NewServeMux()
	listings := mux.Group("/listings", mw)
	listings.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello world"))
	})

	r := httptest.NewRequest("GET", "/listings/new", &bytes.Buffer{})
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, r)

	body, err := io.ReadAll(w.Body)
	if err != nil || string(body) != "hello world" {
		t.Fatalf("expected 'hello world' got '%s'", body)
	}

	if h := w.Result().Header.Get("Test"); h != "test" {
		t.Fatalf("expected header value to be 'test' got '%s'", h)
	}
}
