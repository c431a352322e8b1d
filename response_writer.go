package hubx

import (
	"io"
	"net/http"
)

// responseWriter records the status code and body size written by a
// handler. Writes go to writer, which is either the real response (for
// RequestLogger) or a buffer (for LiveSession, which rewrites the body).
type responseWriter struct {
	header      http.Header
	status      int
	size        int
	writer      io.Writer
	writeHeader func(int)
}

var _ http.ResponseWriter = &responseWriter{}

func newResponseWriter(buf io.Writer, header http.Header, writeHeader func(int)) *responseWriter {
	return &responseWriter{
		header:      header,
		writer:      buf,
		writeHeader: writeHeader,
	}
}

func (rw *responseWriter) Write(data []byte) (int, error) {
	n, err := rw.writer.Write(data)
	rw.size += n
	return n, err
}

func (rw *responseWriter) WriteHeader(status int) {
	if rw.status != 0 {
		return
	}
	rw.status = status
	if rw.writeHeader != nil {
		rw.writeHeader(status)
	}
}

func (rw *responseWriter) Header() http.Header {
	return rw.header
}

// Flush lets streaming handlers behind RequestLogger flush when the
// underlying writer supports it.
func (rw *responseWriter) Flush() {
	if f, ok := rw.writer.(http.Flusher); ok {
		f.Flush()
	}
}

// statusOrOK returns the recorded status, defaulting to 200 when the
// handler never called WriteHeader.
func (rw *responseWriter) statusOrOK() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}
