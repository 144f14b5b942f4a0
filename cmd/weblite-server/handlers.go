package main

import (
	"context"

	"weblite/pkg/app"
	"weblite/pkg/http"
)

// registerRoutes wires the users REST API onto the app.
func registerRoutes(a *app.App, store *userStore) {
	a.Get("/", func(ctx context.Context, r *http.Request) (*http.Response, error) {
		return http.JSON(http.StatusOK, map[string]string{"message": "welcome to the simple REST API!"}), nil
	})

	a.Get("/users", func(ctx context.Context, r *http.Request) (*http.Response, error) {
		return http.JSON(http.StatusOK, store.List(r.Query.Get("name"))), nil
	})

	a.Get("/users/{user_id}", func(ctx context.Context, r *http.Request) (*http.Response, error) {
		user, ok := store.Get(r.PathParams["user_id"])
		if !ok {
			return userNotFound(), nil
		}
		return http.JSON(http.StatusOK, user), nil
	})

	a.Post("/users", func(ctx context.Context, r *http.Request) (*http.Response, error) {
		var payload userPayload
		if err := r.JSON(&payload); err != nil {
			return invalidBody(), nil
		}
		return http.JSON(http.StatusCreated, store.Create(payload)), nil
	})

	a.Put("/users/{user_id}", func(ctx context.Context, r *http.Request) (*http.Response, error) {
		var payload userPayload
		if err := r.JSON(&payload); err != nil {
			return invalidBody(), nil
		}
		user, ok := store.Update(r.PathParams["user_id"], payload)
		if !ok {
			return userNotFound(), nil
		}
		return http.JSON(http.StatusOK, user), nil
	})

	a.Patch("/users/{user_id}", func(ctx context.Context, r *http.Request) (*http.Response, error) {
		var payload map[string]string
		if err := r.JSON(&payload); err != nil {
			return invalidBody(), nil
		}
		user, ok := store.Patch(r.PathParams["user_id"], payload)
		if !ok {
			return userNotFound(), nil
		}
		return http.JSON(http.StatusOK, user), nil
	})

	a.Delete("/users/{user_id}", func(ctx context.Context, r *http.Request) (*http.Response, error) {
		if !store.Delete(r.PathParams["user_id"]) {
			return userNotFound(), nil
		}
		return http.JSON(http.StatusOK, map[string]string{"message": "user deleted successfully"}), nil
	})
}

func userNotFound() *http.Response {
	return http.JSON(http.StatusNotFound, map[string]string{"detail": "user not found"})
}

func invalidBody() *http.Response {
	return http.JSON(http.StatusBadRequest, map[string]string{"detail": "invalid JSON body"})
}
