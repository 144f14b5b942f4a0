package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"weblite/pkg/http"
	"weblite/pkg/router"
)

// Middleware wraps a handler to add processing before or after it runs.
type Middleware func(http.Handler) http.Handler

// App owns the route table and performs request dispatch. Routes and
// middleware are registered during an initialization phase, strictly before
// the server starts serving; after that the App is read-only and safe for
// concurrent dispatch.
type App struct {
	router     *router.Router
	middleware []Middleware
	log        zerolog.Logger
}

// New creates an App with an empty route table and a no-op logger.
func New() *App {
	return &App{
		router: router.New(),
		log:    zerolog.Nop(),
	}
}

// SetLogger sets the logger used for dispatch events and handler failures.
func (a *App) SetLogger(log zerolog.Logger) {
	a.log = log
}

// Router exposes the underlying route table.
func (a *App) Router() *router.Router {
	return a.router
}

// Use appends middleware to the global chain. Middleware runs in the order
// given, outermost first.
func (a *App) Use(middleware ...Middleware) {
	a.middleware = append(a.middleware, middleware...)
}

// Handle registers a handler for (method, pattern). Re-registering the same
// pair replaces the earlier handler.
func (a *App) Handle(method, pattern string, handler http.Handler) {
	a.router.Register(method, pattern, handler)
	a.log.Debug().Str("method", method).Str("pattern", pattern).Msg("route registered")
}

// Get registers a GET handler for the pattern.
func (a *App) Get(pattern string, handler http.Handler) {
	a.Handle(http.MethodGet, pattern, handler)
}

// Post registers a POST handler for the pattern.
func (a *App) Post(pattern string, handler http.Handler) {
	a.Handle(http.MethodPost, pattern, handler)
}

// Put registers a PUT handler for the pattern.
func (a *App) Put(pattern string, handler http.Handler) {
	a.Handle(http.MethodPut, pattern, handler)
}

// Patch registers a PATCH handler for the pattern.
func (a *App) Patch(pattern string, handler http.Handler) {
	a.Handle(http.MethodPatch, pattern, handler)
}

// Delete registers a DELETE handler for the pattern.
func (a *App) Delete(pattern string, handler http.Handler) {
	a.Handle(http.MethodDelete, pattern, handler)
}

// Head registers a HEAD handler for the pattern.
func (a *App) Head(pattern string, handler http.Handler) {
	a.Handle(http.MethodHead, pattern, handler)
}

// Options registers an OPTIONS handler for the pattern.
func (a *App) Options(pattern string, handler http.Handler) {
	a.Handle(http.MethodOptions, pattern, handler)
}

// Dispatch resolves the request and runs the matching handler through the
// middleware chain. It always returns a response: ErrNotFound maps to 404,
// ErrMethodNotAllowed to 405, and a handler error or panic to a 500 whose
// body carries only a generic message while the full detail goes to the log.
func (a *App) Dispatch(ctx context.Context, req *http.Request) *http.Response {
	handler, params, err := a.router.Resolve(req.Method, req.Path)
	switch {
	case errors.Is(err, router.ErrNotFound):
		a.log.Debug().Str("method", req.Method).Str("path", req.Path).Msg("no route")
		return http.JSON(http.StatusNotFound, map[string]string{"detail": "not found"})
	case errors.Is(err, router.ErrMethodNotAllowed):
		return http.JSON(http.StatusMethodNotAllowed, map[string]string{"detail": "method not allowed"})
	}
	req.PathParams = params

	for i := len(a.middleware) - 1; i >= 0; i-- {
		handler = a.middleware[i](handler)
	}

	resp, err := a.invoke(ctx, handler, req)
	if err != nil {
		a.log.Error().Err(err).
			Str("method", req.Method).
			Str("path", req.Path).
			Msg("handler failed")
		return http.JSON(http.StatusInternalServerError, map[string]string{"detail": "internal server error"})
	}
	if resp == nil {
		resp = http.NewResponse(nil)
	}
	return resp
}

// invoke runs the handler, converting a panic into an error so a failing
// handler can never take the connection down.
func (a *App) invoke(ctx context.Context, handler http.Handler, req *http.Request) (resp *http.Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return handler(ctx, req)
}

// Logging returns middleware that logs every dispatched request with its
// resulting status code.
func Logging(log zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return func(ctx context.Context, req *http.Request) (*http.Response, error) {
			resp, err := next(ctx, req)
			event := log.Info().Str("method", req.Method).Str("path", req.Path)
			if resp != nil {
				status := resp.StatusCode
				if status == 0 {
					status = http.StatusOK
				}
				event = event.Int("status", status)
			}
			event.Msg("request")
			return resp, err
		}
	}
}
