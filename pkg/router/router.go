package router

import (
	"errors"
	"strings"
	"sync"

	"weblite/pkg/http"
)

// Resolution errors.
var (
	// ErrNotFound means no route matches the path under any method.
	ErrNotFound = errors.New("router: no matching route")

	// ErrMethodNotAllowed means the path is routed, but not for this method.
	ErrMethodNotAllowed = errors.New("router: method not allowed")
)

// Route is one registered (method, pattern) entry.
type Route struct {
	Method  string
	Pattern string
	Handler http.Handler

	segments []segment
}

// segment is one slash-delimited piece of a pattern: either a literal or a
// {name} capture.
type segment struct {
	literal string
	param   string
}

// Router holds the route table. Registration happens during startup; the
// table is treated as immutable while requests are being served, so
// concurrent resolution needs no coordination beyond the registration mutex.
type Router struct {
	mu sync.RWMutex

	// exact holds literal patterns: method -> path -> handler.
	exact map[string]map[string]http.Handler

	// templated holds patterns containing {name} segments, per method, in
	// registration order.
	templated map[string][]*Route
}

// New creates an empty Router.
func New() *Router {
	return &Router{
		exact:     make(map[string]map[string]http.Handler),
		templated: make(map[string][]*Route),
	}
}

// Register adds a route. Registering the same (method, pattern) pair again
// replaces the earlier handler: last registration wins. The method is
// normalized to upper case; the pattern is matched case-sensitively.
func (r *Router) Register(method, pattern string, handler http.Handler) {
	method = strings.ToUpper(method)

	r.mu.Lock()
	defer r.mu.Unlock()

	segments, isTemplate := compilePattern(pattern)
	if !isTemplate {
		if r.exact[method] == nil {
			r.exact[method] = make(map[string]http.Handler)
		}
		r.exact[method][pattern] = handler
		return
	}
	for _, existing := range r.templated[method] {
		if existing.Pattern == pattern {
			existing.Handler = handler
			return
		}
	}
	r.templated[method] = append(r.templated[method], &Route{
		Method:   method,
		Pattern:  pattern,
		Handler:  handler,
		segments: segments,
	})
}

// GET is a shortcut for registering a route with the GET method.
func (r *Router) GET(pattern string, handler http.Handler) {
	r.Register(http.MethodGet, pattern, handler)
}

// POST is a shortcut for registering a route with the POST method.
func (r *Router) POST(pattern string, handler http.Handler) {
	r.Register(http.MethodPost, pattern, handler)
}

// PUT is a shortcut for registering a route with the PUT method.
func (r *Router) PUT(pattern string, handler http.Handler) {
	r.Register(http.MethodPut, pattern, handler)
}

// PATCH is a shortcut for registering a route with the PATCH method.
func (r *Router) PATCH(pattern string, handler http.Handler) {
	r.Register(http.MethodPatch, pattern, handler)
}

// DELETE is a shortcut for registering a route with the DELETE method.
func (r *Router) DELETE(pattern string, handler http.Handler) {
	r.Register(http.MethodDelete, pattern, handler)
}

// HEAD is a shortcut for registering a route with the HEAD method.
func (r *Router) HEAD(pattern string, handler http.Handler) {
	r.Register(http.MethodHead, pattern, handler)
}

// OPTIONS is a shortcut for registering a route with the OPTIONS method.
func (r *Router) OPTIONS(pattern string, handler http.Handler) {
	r.Register(http.MethodOptions, pattern, handler)
}

// Resolve finds the handler for (method, path) and the values captured by
// {name} segments. Literal routes take precedence over templated ones. When
// the path is routed only under other methods, Resolve returns
// ErrMethodNotAllowed; when it is not routed at all, ErrNotFound.
func (r *Router) Resolve(method, path string) (http.Handler, map[string]string, error) {
	method = strings.ToUpper(method)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if h, ok := r.exact[method][path]; ok {
		return h, nil, nil
	}
	for _, route := range r.templated[method] {
		if params, ok := route.match(path); ok {
			return route.Handler, params, nil
		}
	}

	if r.pathRoutedElsewhere(method, path) {
		return nil, nil, ErrMethodNotAllowed
	}
	return nil, nil, ErrNotFound
}

// pathRoutedElsewhere reports whether any other method routes the path.
func (r *Router) pathRoutedElsewhere(method, path string) bool {
	for m, paths := range r.exact {
		if m == method {
			continue
		}
		if _, ok := paths[path]; ok {
			return true
		}
	}
	for m, routes := range r.templated {
		if m == method {
			continue
		}
		for _, route := range routes {
			if _, ok := route.match(path); ok {
				return true
			}
		}
	}
	return false
}

// Routes returns a copy of all registered routes.
func (r *Router) Routes() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var routes []Route
	for method, paths := range r.exact {
		for pattern, handler := range paths {
			routes = append(routes, Route{Method: method, Pattern: pattern, Handler: handler})
		}
	}
	for _, methodRoutes := range r.templated {
		for _, route := range methodRoutes {
			routes = append(routes, *route)
		}
	}
	return routes
}

// compilePattern splits a pattern into segments and reports whether it
// contains any {name} captures.
func compilePattern(pattern string) ([]segment, bool) {
	if !strings.Contains(pattern, "{") {
		return nil, false
	}
	parts := strings.Split(pattern, "/")
	segments := make([]segment, len(parts))
	isTemplate := false
	for i, part := range parts {
		if len(part) > 2 && part[0] == '{' && part[len(part)-1] == '}' {
			segments[i] = segment{param: part[1 : len(part)-1]}
			isTemplate = true
		} else {
			segments[i] = segment{literal: part}
		}
	}
	return segments, isTemplate
}

// match checks the path against the route's segments, returning captured
// parameters on success. A {name} segment matches exactly one non-empty path
// segment.
func (route *Route) match(path string) (map[string]string, bool) {
	parts := strings.Split(path, "/")
	if len(parts) != len(route.segments) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range route.segments {
		if seg.param != "" {
			if parts[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[seg.param] = parts[i]
			continue
		}
		if parts[i] != seg.literal {
			return nil, false
		}
	}
	return params, true
}
