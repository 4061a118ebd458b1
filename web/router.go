package web

import (
	"log"
	"net/http"
	"runtime/debug"
)

// HandlerWrapper wraps an http.Handler with pre/post logic, middleware style.
// Wrappers nest: the first wrapper passed runs outermost.
type HandlerWrapper interface {
	Wrap(http.Handler) http.Handler
}

// WrapperFunc adapts a plain function to HandlerWrapper.
type WrapperFunc func(http.Handler) http.Handler

func (f WrapperFunc) Wrap(inner http.Handler) http.Handler { return f(inner) }

// Router is a thin layer over http.ServeMux that applies handler wrappers
// at registration time.
type Router struct {
	*http.ServeMux
}

func NewRouter() *Router {
	return &Router{ServeMux: http.NewServeMux()}
}

// Handle registers a pattern with its wrappers applied outside-in.
func (r *Router) Handle(pattern string, handler http.Handler, wrappers ...HandlerWrapper) {
	wrapped := handler
	for i := len(wrappers) - 1; i >= 0; i-- {
		wrapped = wrappers[i].Wrap(wrapped)
	}
	r.ServeMux.Handle(pattern, wrapped)
}

func (r *Router) HandleFunc(pattern string, fn func(http.ResponseWriter, *http.Request), wrappers ...HandlerWrapper) {
	r.Handle(pattern, http.HandlerFunc(fn), wrappers...)
}

// RecoverWrapper converts handler panics into 500 responses.
func RecoverWrapper(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[PANIC] recovered: %v\n%s", rec, debug.Stack())
				WriteSimpleErrorJSON(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		inner.ServeHTTP(w, r)
	})
}
