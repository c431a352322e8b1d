package hubx

import (
	"net/http"
	"strings"
)

// ServeMux is a wrapper around http.ServeMux that adds route grouping
// and middlewares. The local UI registers its public views on the root
// mux and its gated views on a group wrapped by Router.Middleware.
//
// Usage:
//
//	mux := hubx.NewServeMux()
//	mux.Use(hubx.RequestLogger(log))
//
//	views := mux.Group("/", router.Middleware)
//	views.HandleFunc("GET /{$}", listingsHandler)
//	views.HandleFunc("GET /login", loginHandler)
//
//	http.ListenAndServe("127.0.0.1:3000", mux)
type ServeMux struct {
	*http.ServeMux
	middlewares []Middleware
}

// NewServeMux creates a new ServeMux instance.
func NewServeMux() *ServeMux {
	return &ServeMux{
		ServeMux: http.NewServeMux(),
	}
}

// Group creates a sub-router mounted at prefix, wrapped by middlewares.
// Handlers registered on the group see paths with prefix stripped; a
// group mounted at "/" sees paths unchanged.
func (mux *ServeMux) Group(prefix string, middlewares ...Middleware) *ServeMux {
	prefix = strings.TrimSuffix(prefix, "/")
	subMux := NewServeMux()

	wrapped := Chain(subMux, middlewares...)
	if prefix == "" {
		mux.Handle("/", wrapped)
		return subMux
	}

	mux.Handle(prefix+"/", http.StripPrefix(prefix, wrapped))
	return subMux
}

// Use adds a middleware applied to every route of this mux.
func (mux *ServeMux) Use(mw Middleware) {
	mux.middlewares = append(mux.middlewares, mw)
}

// ServeHTTP implements http.Handler and applies the mux middlewares
// before dispatching to the underlying http.ServeMux.
func (mux *ServeMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	Chain(mux.ServeMux, mux.middlewares...).ServeHTTP(w, r)
}
