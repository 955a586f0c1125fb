package server

import (
	"net/http"
	"slices"
	"time"
)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Routes are [http.ServeMux] patterns, so a method mismatch is answered with 405 and an Allow header.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	patterns    []string
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use adds [Middleware] to the stack, applied in the order it's added.
// Only handlers registered afterwards are wrapped.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for method and path, wrapped with the registered middleware.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.register(method+" "+path, r.Apply(handler))
}

// Handler registers every route returned by [Handler.Routes] for any method.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.Apply(handler)
	for _, route := range handler.Routes() {
		r.register(route, wrapped)
	}
}

func (r *BasicRouter) register(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
	r.patterns = append(r.patterns, pattern)
}

// Routes returns the registered patterns in registration order.
func (r *BasicRouter) Routes() []string {
	return slices.Clone(r.patterns)
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware, the first added outermost.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler
	for _, mw := range slices.Backward(r.middlewares) {
		wrapped = mw(wrapped)
	}
	return wrapped
}

// NewServer returns an [http.Server] serving handler on addr with header read limits set.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
