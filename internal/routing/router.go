package routing

import (
	"log"
	"net/http"
	"runtime/debug"
)

type Router struct {
	classifier *Classifier
	routes     map[string]map[string]routeEntry
	patterns   []patternRoutes
}

type routeEntry struct {
	rc      RouteClass
	handler http.Handler
}

type patternRoutes struct {
	pattern PathPattern
	methods map[string]routeEntry
}

func NewRouter(classifier *Classifier) *Router {
	return &Router{
		classifier: classifier,
		routes:     make(map[string]map[string]routeEntry),
	}
}

// Handle registers h for method and path. A path with {name} segments is
// matched after all exact paths; its values are available through
// Request.PathValue.
func (r *Router) Handle(rc RouteClass, method string, path string, h http.Handler) {
	entry := routeEntry{
		rc: rc,
		handler: http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Printf("routing: panic serving %s %s: %v\n%s", req.Method, req.URL.Path, rec, debug.Stack())
					WriteError(w, req, rc, http.StatusInternalServerError, "internal_error", "internal error")
				}
			}()
			h.ServeHTTP(w, req)
		}),
	}

	if p, ok := parsePathPattern(path); ok {
		for i := range r.patterns {
			if r.patterns[i].pattern.raw == p.raw {
				r.patterns[i].methods[method] = entry
				return
			}
		}
		r.patterns = append(r.patterns, patternRoutes{pattern: p, methods: map[string]routeEntry{method: entry}})
		return
	}

	if r.routes[path] == nil {
		r.routes[path] = make(map[string]routeEntry)
	}
	r.routes[path][method] = entry
}

// Registered reports whether a handler was registered for method and the
// route template path, compared as written.
func (r *Router) Registered(method string, path string) bool {
	if methods, ok := r.routes[path]; ok {
		_, ok := methods[method]
		return ok
	}
	for _, pr := range r.patterns {
		if pr.pattern.raw == path {
			_, ok := pr.methods[method]
			return ok
		}
	}
	return false
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	methods, params, ok := r.lookup(req.URL.Path)
	if !ok {
		WriteError(w, req, r.classifier.Classify(req.URL.Path), http.StatusNotFound, "not_found", "not found")
		return
	}
	entry, ok := methods[req.Method]
	if !ok {
		WriteError(w, req, entrypointClass(methods, r.classifier.Classify(req.URL.Path)), http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	for name, value := range params {
		req.SetPathValue(name, value)
	}
	entry.handler.ServeHTTP(w, req)
}

func (r *Router) lookup(path string) (map[string]routeEntry, map[string]string, bool) {
	if methods, ok := r.routes[path]; ok {
		return methods, nil, true
	}
	for _, pr := range r.patterns {
		if params, ok := pr.pattern.Extract(path); ok {
			return pr.methods, params, true
		}
	}
	return nil, nil, false
}

func entrypointClass(methods map[string]routeEntry, fallback RouteClass) RouteClass {
	for _, e := range methods {
		return e.rc
	}
	return fallback
}
