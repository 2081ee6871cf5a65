package module

import (
	"net/http"
	"strings"
)

// Router dispatches by the first path segment: a mounted module owns every
// route under its prefix, and anything unclaimed falls through to a plain
// ServeMux for unclaimed endpoints like the health checks.
type Router struct {
	modules map[string]*Module
	native  *http.ServeMux
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{
		modules: make(map[string]*Module),
		native:  http.NewServeMux(),
	}
}

// Mount claims a module's prefix. Mounting a second module with the same
// prefix replaces the first.
func (r *Router) Mount(m *Module) {
	r.modules[m.prefix] = m
}

// HandleNative registers a handler on the fallback mux.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.native.HandleFunc(pattern, handler)
}

// ServeHTTP strips any trailing slash, then routes to the module owning the
// leading segment or to the fallback mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := req.URL.Path
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
		req.URL.Path = path
	}

	if m, ok := r.modules[firstSegment(path)]; ok {
		m.Serve(w, req)
		return
	}

	r.native.ServeHTTP(w, req)
}

// firstSegment returns the leading path segment with its slash, so
// "/documents/123/process" resolves to the module mounted at "/documents".
func firstSegment(path string) string {
	rest := strings.TrimPrefix(path, "/")
	if i := strings.Index(rest, "/"); i >= 0 {
		return "/" + rest[:i]
	}
	return "/" + rest
}
