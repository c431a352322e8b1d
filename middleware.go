package hubx

import "net/http"

// Middleware wraps an http.Handler. It is the shape accepted by
// ServeMux.Use and ServeMux.Group.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares to h so that the first one is the outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
