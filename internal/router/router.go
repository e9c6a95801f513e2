package router

import (
	"net/http"
	"slices"
	"strings"
)

// Router wraps http.ServeMux with middleware chaining
type Router struct {
	mux   *http.ServeMux
	chain []Middleware
}

// Middleware is a function that wraps an http.Handler
type Middleware func(http.Handler) http.Handler

// New creates a new Router with optional global middleware
func New(middleware ...Middleware) *Router {
	return &Router{
		mux:   http.NewServeMux(),
		chain: middleware,
	}
}

// ServeHTTP implements http.Handler. Requests no route matches get the API's
// JSON error body with the mux's 404 or 405 status.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h, pattern := r.mux.Handler(req)
	if pattern == "" {
		h.ServeHTTP(&unmatchedWriter{ResponseWriter: w}, req)
		return
	}
	r.mux.ServeHTTP(w, req)
}

// Get registers a GET route
func (r *Router) Get(pattern string, handler http.HandlerFunc, middleware ...Middleware) {
	r.Handle(http.MethodGet, pattern, handler, middleware...)
}

// Post registers a POST route
func (r *Router) Post(pattern string, handler http.HandlerFunc, middleware ...Middleware) {
	r.Handle(http.MethodPost, pattern, handler, middleware...)
}

// Handle registers a route with explicit method
func (r *Router) Handle(method, pattern string, handler http.Handler, middleware ...Middleware) {
	r.mux.Handle(method+" "+pattern, r.wrap(handler, middleware))
}

// unmatchedWriter replaces the mux's plain-text 404 and 405 bodies.
type unmatchedWriter struct {
	http.ResponseWriter
	replaced bool
}

func (w *unmatchedWriter) WriteHeader(code int) {
	var body string
	switch code {
	case http.StatusNotFound:
		body = `{"error":{"code":"not_found","message":"Route not found"}}`
	case http.StatusMethodNotAllowed:
		body = `{"error":{"code":"method_not_allowed","message":"Method not allowed"}}`
	default:
		w.ResponseWriter.WriteHeader(code)
		return
	}

	w.replaced = true
	w.Header().Set("Content-Type", "application/json")
	w.ResponseWriter.WriteHeader(code)
	w.ResponseWriter.Write([]byte(body))
}

func (w *unmatchedWriter) Write(b []byte) (int, error) {
	if w.replaced {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	(&unmatchedWriter{ResponseWriter: w}).WriteHeader(http.StatusNotFound)
}

// wrap applies middleware to a handler in reverse order
func (r *Router) wrap(handler http.Handler, middleware []Middleware) http.Handler {
	combined := append(slices.Clone(r.chain), middleware...)

	// Apply middleware in reverse order so they execute in the order defined
	slices.Reverse(combined)

	result := handler
	for _, m := range combined {
		result = m(result)
	}

	return result
}

// Group creates a sub-router with additional middleware
func (r *Router) Group(middleware ...Middleware) *Router {
	return &Router{
		mux:   r.mux,
		chain: append(slices.Clone(r.chain), middleware...),
	}
}

// Static serves the files in dir under prefix. Directory listings are not
// served, so archived invoices are reachable only by exact name.
func (r *Router) Static(prefix, dir string, middleware ...Middleware) {
	cleanPrefix := strings.TrimSuffix(prefix, "/")
	fileServer := http.StripPrefix(cleanPrefix, http.FileServer(http.Dir(dir)))

	handler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.PathValue("file") == "" || strings.HasSuffix(req.URL.Path, "/") {
			notFound(w, req)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		fileServer.ServeHTTP(w, req)
	})

	r.mux.Handle("GET "+cleanPrefix+"/{file...}", r.wrap(handler, middleware))
}
