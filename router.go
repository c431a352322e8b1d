package hubx

import (
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// Navigator accepts "go to path" intents. It does not manipulate any
// history itself.
type Navigator interface {
	Go(path string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Go(path string) { f(path) }

// Router tracks the client's current location and applies the Gate to
// every navigation. It re-evaluates the current location on every Session
// transition, so logging out while a protected view is displayed moves
// the client to the login view immediately.
type Router struct {
	gate     *Gate
	log      *zap.Logger
	mu       sync.Mutex
	current  string
	onChange []func(path string)
}

type routerConfig func(*Router)

// WithRouterLogger sets the logger used for navigation events.
func WithRouterLogger(log *zap.Logger) routerConfig {
	return routerConfig(func(r *Router) {
		r.log = log
	})
}

// OnNavigate registers fn to be called with the resolved location after
// every navigation.
func OnNavigate(fn func(path string)) routerConfig {
	return routerConfig(func(r *Router) {
		r.onChange = append(r.onChange, fn)
	})
}

// NewRouter creates a Router starting at DefaultPath (gated) and
// subscribes it to session.
func NewRouter(gate *Gate, session *Session, cfgs ...routerConfig) *Router {
	r := &Router{
		gate: gate,
		log:  zap.NewNop(),
	}

	for _, cfg := range cfgs {
		cfg(r)
	}

	r.current = r.resolve(DefaultPath)
	session.Subscribe(func(State) {
		r.Go(r.Current())
	})
	return r
}

// Current returns the current location.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Go navigates to path, following the Gate's redirects. Use Navigate to
// learn the location actually reached.
func (r *Router) Go(path string) {
	r.Navigate(path)
}

// Navigate is Go returning the resolved location.
func (r *Router) Navigate(path string) string {
	resolved := r.resolve(path)

	r.mu.Lock()
	changed := resolved != r.current
	r.current = resolved
	listeners := r.onChange
	r.mu.Unlock()

	if resolved != path {
		r.log.Debug("navigation redirected", zap.String("requested", path), zap.String("location", resolved))
	}
	if changed {
		for _, fn := range listeners {
			fn(resolved)
		}
	}
	return resolved
}

// resolve follows Gate redirects. The gate never redirects more than
// twice (protected -> login -> default), the bound guards misconfigured
// protected sets.
func (r *Router) resolve(path string) string {
	for range 3 {
		d := r.gate.Decide(path)
		if d.Render() {
			return path
		}
		path = d.Redirect
	}
	return path
}

// Middleware gates HTTP requests for views. A request for a path the Gate
// redirects is answered with 303 See Other to the resolved location, and
// the request moves the Router's current location either way.
func (r *Router) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path
		resolved := r.Navigate(path)
		if resolved != path {
			http.Redirect(w, req, resolved, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, req)
	})
}
