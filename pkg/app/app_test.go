package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"weblite/pkg/http"
)

func get(path string) *http.Request {
	return &http.Request{Method: http.MethodGet, Path: path, Proto: http.ProtocolHTTP11, Header: make(http.Header)}
}

// TestDispatchRoutes tests that registered handlers receive matching
// requests.
func TestDispatchRoutes(t *testing.T) {
	a := New()
	a.Get("/hello", func(ctx context.Context, r *http.Request) (*http.Response, error) {
		return http.Text(http.StatusOK, "hi"), nil
	})

	resp := a.Dispatch(context.Background(), get("/hello"))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Body.(string) != "hi" {
		t.Errorf("body = %v, want hi", resp.Body)
	}
}

// TestDispatchNotFound tests the 404 mapping.
func TestDispatchNotFound(t *testing.T) {
	a := New()
	a.Get("/x", func(ctx context.Context, r *http.Request) (*http.Response, error) {
		return http.NewResponse(nil), nil
	})

	resp := a.Dispatch(context.Background(), get("/missing"))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if resp.Body == nil {
		t.Error("404 response must carry a body")
	}
}

// TestDispatchMethodNotAllowed tests the 405 mapping.
func TestDispatchMethodNotAllowed(t *testing.T) {
	a := New()
	a.Get("/x", func(ctx context.Context, r *http.Request) (*http.Response, error) {
		return http.NewResponse(nil), nil
	})

	req := get("/x")
	req.Method = http.MethodPost
	resp := a.Dispatch(context.Background(), req)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

// TestDispatchHandlerError tests that a failing handler becomes a generic
// 500 without leaking the error detail.
func TestDispatchHandlerError(t *testing.T) {
	a := New()
	a.Get("/boom", func(ctx context.Context, r *http.Request) (*http.Response, error) {
		return nil, errors.New("secret database password rejected")
	})

	resp := a.Dispatch(context.Background(), get("/boom"))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	body := resp.Body.(map[string]string)
	if strings.Contains(body["detail"], "secret") {
		t.Errorf("error detail leaked to client: %v", body)
	}
}

// TestDispatchHandlerPanic tests that a panicking handler is recovered into
// a 500.
func TestDispatchHandlerPanic(t *testing.T) {
	a := New()
	a.Get("/panic", func(ctx context.Context, r *http.Request) (*http.Response, error) {
		panic("boom")
	})

	resp := a.Dispatch(context.Background(), get("/panic"))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

// TestDispatchPathParams tests that captured segments reach the handler.
func TestDispatchPathParams(t *testing.T) {
	a := New()
	a.Get("/users/{user_id}", func(ctx context.Context, r *http.Request) (*http.Response, error) {
		return http.Text(http.StatusOK, r.PathParams["user_id"]), nil
	})

	resp := a.Dispatch(context.Background(), get("/users/42"))
	if resp.Body.(string) != "42" {
		t.Errorf("body = %v, want 42", resp.Body)
	}
}

// TestMiddlewareOrder tests that middleware wraps handlers outermost-first.
func TestMiddlewareOrder(t *testing.T) {
	a := New()
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return func(ctx context.Context, r *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next(ctx, r)
			}
		}
	}
	a.Use(mark("outer"), mark("inner"))
	a.Get("/x", func(ctx context.Context, r *http.Request) (*http.Response, error) {
		order = append(order, "handler")
		return http.NewResponse(nil), nil
	})

	a.Dispatch(context.Background(), get("/x"))
	want := []string{"outer", "inner", "handler"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

// TestMiddlewareSkippedForUnroutedRequests tests that 404s do not run the
// handler chain.
func TestMiddlewareSkippedForUnroutedRequests(t *testing.T) {
	a := New()
	called := false
	a.Use(func(next http.Handler) http.Handler {
		return func(ctx context.Context, r *http.Request) (*http.Response, error) {
			called = true
			return next(ctx, r)
		}
	})

	resp := a.Dispatch(context.Background(), get("/nope"))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if called {
		t.Error("middleware ran for an unrouted request")
	}
}

// TestDispatchNilResponse tests that a handler returning (nil, nil) still
// yields a complete response.
func TestDispatchNilResponse(t *testing.T) {
	a := New()
	a.Get("/nil", func(ctx context.Context, r *http.Request) (*http.Response, error) {
		return nil, nil
	})

	resp := a.Dispatch(context.Background(), get("/nil"))
	if resp == nil {
		t.Fatal("Dispatch returned nil response")
	}
	if resp.StatusCode != 0 && resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want default 200", resp.StatusCode)
	}
}
