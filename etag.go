package hubx

import (
	"bytes"
	"fmt"
	"hash/crc64"
	"net/http"
)

var crcTable = crc64.MakeTable(crc64.ECMA)

// etagResponseWriter buffers the body of a view while computing its
// CRC64 checksum, which becomes the ETag.
type etagResponseWriter struct {
	http.ResponseWriter
	buffer     *bytes.Buffer
	checksum   uint64
	statusCode int
}

func (w *etagResponseWriter) Write(b []byte) (int, error) {
	w.checksum = crc64.Update(w.checksum, crcTable, b)
	return w.buffer.Write(b)
}

func (w *etagResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
}

// ETag returns a middleware that tags successful GET responses with a
// checksum of their body and answers 304 Not Modified when the client
// already holds that version. Listing views change whenever the source
// set or the filters change, so the tag is always computed from the
// rendered body and never cached. With weak set, tags are prefixed W/.
func ETag(weak bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			rw := &etagResponseWriter{ResponseWriter: w, buffer: &bytes.Buffer{}}
			next.ServeHTTP(rw, r)

			etag := fmt.Sprintf("%q", fmt.Sprintf("%x", rw.checksum))
			if weak {
				etag = "W/" + etag
			}

			ok := rw.statusCode == 0 || rw.statusCode == http.StatusOK
			if ok && w.Header().Get("ETag") == "" {
				if r.Header.Get("If-None-Match") == etag {
					w.WriteHeader(http.StatusNotModified)
					return
				}
				w.Header().Set("ETag", etag)
			}

			if rw.statusCode != 0 {
				w.WriteHeader(rw.statusCode)
			}
			w.Write(rw.buffer.Bytes())
		})
	}
}
