package hubx_test

import (
	"bytes"
	"fmt"
	"hash/crc64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bluescreen10/hubx"
)

func expectedETag(body []byte) string {
	crc := crc64.Checksum(body, crc64.MakeTable(crc64.ECMA))
	return fmt.Sprintf("%q", fmt.Sprintf("%x", crc))
}

func TestGenerateETag(t *testing.T) {
	body := []byte("hello world")
	expected := expectedETag(body)

	helloHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	})

	handler := hubx.ETag(false)(helloHandler)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", &bytes.Buffer{})
	handler.ServeHTTP(w, r)

	if etag := w.Header().Get("ETag"); etag != expected {
		t.Fatalf("ETag expected '%s' header but got '%s'", expected, etag)
	}
	if w.Body.String() != "hello world" {
		t.Fatalf("expected body 'hello world' got '%s'", w.Body.String())
	}
}

func TestNotModified(t *testing.T) {
	body := []byte("hello world")

	helloHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	})

	handler := hubx.ETag(false)(helloHandler)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", &bytes.Buffer{})
	r.Header.Set("If-None-Match", expectedETag(body))

	handler.ServeHTTP(w, r)
	if w.Result().StatusCode != http.StatusNotModified {
		t.Fatalf("expected status 304 Not modifed but got %d", w.Result().StatusCode)
	}
}

func TestETagFollowsBody(t *testing.T) {
	body := []byte("first")
	handler := hubx.ETag(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("If-None-Match", expectedETag([]byte("first")))

	body = []byte("second")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK || w.Body.String() != "second" {
		t.Fatalf("expected fresh body 'second' got %d '%s'", w.Code, w.Body.String())
	}
}

func TestGenerateWeakETag(t *testing.T) {
	body := []byte("hello world")
	expected := "W/" + expectedETag(body)

	helloHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	})

	handler := hubx.ETag(true)(helloHandler)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", &bytes.Buffer{})
	handler.ServeHTTP(w, r)

	if etag := w.Header().Get("ETag"); etag != expected {
		t.Fatalf("ETag expected '%s' header but got '%s'", expected, etag)
	}
}

func TestGenerateSkipETag(t *testing.T) {
	body := []byte("hello world")

	helloHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write(body)
	})

	handler := hubx.ETag(false)(helloHandler)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", &bytes.Buffer{})
	handler.ServeHTTP(w, r)

	if etag := w.Header().Get("ETag"); etag != "" {
		t.Fatalf("ETag expected '' header but got '%s'", etag)
	}
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", w.Code)
	}
}

func TestGenerateSkipETagOnMethod(t *testing.T) {
	body := []byte("hello world")

	helloHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	})

	handler := hubx.ETag(false)(helloHandler)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", &bytes.Buffer{})
	handler.ServeHTTP(w, r)

	if etag := w.Header().Get("ETag"); etag != "" {
		t.Fatalf("ETag expected '' header but got '%s'", etag)
	}
}
