package hubx

import "strings"

const (
	// LoginPath is where unauthenticated users are sent.
	LoginPath = "/login"

	// DefaultPath is the default view for authenticated users.
	DefaultPath = "/"
)

// DefaultProtected lists the views that require a credential.
var DefaultProtected = []string{"/", "/listings/new", "/productInfo"}

// Decision is the outcome of gating a navigation. An empty Redirect means
// the requested view may be rendered.
type Decision struct {
	Redirect string
}

// Render reports whether the requested view should be rendered as is.
func (d Decision) Render() bool {
	return d.Redirect == ""
}

// Gate decides, per navigation, whether a view may be rendered given the
// current Session. It has no side effects; see Router for the navigation
// effect.
type Gate struct {
	session   *Session
	protected map[string]bool
	prefixes  []string
}

type gateConfig func(*Gate)

// WithProtected replaces the set of protected paths. A path ending in
// "/*" protects every path under that prefix.
func WithProtected(paths ...string) gateConfig {
	return gateConfig(func(g *Gate) {
		g.protected = make(map[string]bool)
		g.prefixes = nil
		for _, p := range paths {
			if strings.HasSuffix(p, "/*") {
				g.prefixes = append(g.prefixes, strings.TrimSuffix(p, "*"))
				continue
			}
			g.protected[p] = true
		}
	})
}

// NewGate returns a Gate reading session. By default DefaultProtected
// paths are protected.
func NewGate(session *Session, cfgs ...gateConfig) *Gate {
	g := &Gate{session: session}
	WithProtected(DefaultProtected...)(g)

	for _, cfg := range cfgs {
		cfg(g)
	}
	return g
}

// Decide gates a navigation to path. Protected views redirect to
// LoginPath while unauthenticated, and the login view redirects to
// DefaultPath while authenticated so a logged-in user never sees the
// login form.
func (g *Gate) Decide(path string) Decision {
	authenticated := g.session.IsAuthenticated()

	if path == LoginPath {
		if authenticated {
			return Decision{Redirect: DefaultPath}
		}
		return Decision{}
	}

	if !authenticated && g.Protected(path) {
		return Decision{Redirect: LoginPath}
	}
	return Decision{}
}

// Protected reports whether path requires a credential.
func (g *Gate) Protected(path string) bool {
	if g.protected[path] {
		return true
	}
	for _, p := range g.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
