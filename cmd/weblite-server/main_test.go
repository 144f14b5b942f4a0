package main

import (
	"bytes"
	"context"
	"net/url"
	"testing"

	"weblite/pkg/app"
	"weblite/pkg/http"
)

func newTestApp() (*app.App, *userStore) {
	a := app.New()
	store := newUserStore()
	registerRoutes(a, store)
	return a, store
}

func dispatch(t *testing.T, a *app.App, method, path string, query url.Values, body []byte) *http.Response {
	t.Helper()
	req := &http.Request{
		Method: method,
		Path:   path,
		Proto:  http.ProtocolHTTP11,
		Query:  query,
		Header: make(http.Header),
		Body:   body,
	}
	resp := a.Dispatch(context.Background(), req)
	if resp == nil {
		t.Fatal("Dispatch returned nil")
	}
	return resp
}

// wireBody serializes a response and returns the bytes after the header
// block, i.e. exactly what a client would read as the body.
func wireBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	var buf bytes.Buffer
	if _, err := resp.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo error: %v", err)
	}
	_, body, found := bytes.Cut(buf.Bytes(), []byte("\r\n\r\n"))
	if !found {
		t.Fatalf("no header terminator in %q", buf.Bytes())
	}
	return body
}

// TestListUsersFiltered tests the name query filter and the exact JSON shape
// on the wire.
func TestListUsersFiltered(t *testing.T) {
	a, _ := newTestApp()

	resp := dispatch(t, a, "GET", "/users", url.Values{"name": {"mayur"}}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	want := `[{"id":"1","name":"mayur","email":"mayur@example.com"}]`
	if got := wireBody(t, resp); string(got) != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

// TestListUsersEmptyFilterResult tests that no matches serialize as an empty
// JSON array, not null.
func TestListUsersEmptyFilterResult(t *testing.T) {
	a, _ := newTestApp()

	resp := dispatch(t, a, "GET", "/users", url.Values{"name": {"nobody"}}, nil)
	if got := wireBody(t, resp); string(got) != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}

// TestGetUser tests lookup by path parameter.
func TestGetUser(t *testing.T) {
	a, _ := newTestApp()

	resp := dispatch(t, a, "GET", "/users/2", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if u := resp.Body.(User); u.Name != "admin" {
		t.Errorf("user = %+v, want admin", u)
	}

	resp = dispatch(t, a, "GET", "/users/99", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing user status = %d, want 404", resp.StatusCode)
	}
}

// TestCreateUser tests POST with a JSON body and ID assignment.
func TestCreateUser(t *testing.T) {
	a, store := newTestApp()

	body := []byte(`{"name":"carol","email":"carol@example.com"}`)
	resp := dispatch(t, a, "POST", "/users", nil, body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	created := resp.Body.(User)
	if created.ID != "3" || created.Name != "carol" {
		t.Errorf("created = %+v", created)
	}
	if _, ok := store.Get("3"); !ok {
		t.Error("created user not in store")
	}
}

// TestCreateUserInvalidBody tests that a broken JSON body is a 400, not a
// handler failure.
func TestCreateUserInvalidBody(t *testing.T) {
	a, _ := newTestApp()

	resp := dispatch(t, a, "POST", "/users", nil, []byte(`{"name":`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

// TestUpdateUser tests full replacement via PUT.
func TestUpdateUser(t *testing.T) {
	a, store := newTestApp()

	body := []byte(`{"name":"renamed","email":"renamed@example.com"}`)
	resp := dispatch(t, a, "PUT", "/users/1", nil, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if u, _ := store.Get("1"); u.Name != "renamed" {
		t.Errorf("store user = %+v, want renamed", u)
	}

	resp = dispatch(t, a, "PUT", "/users/99", nil, body)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing user status = %d, want 404", resp.StatusCode)
	}
}

// TestPatchUser tests partial update semantics.
func TestPatchUser(t *testing.T) {
	a, store := newTestApp()

	resp := dispatch(t, a, "PATCH", "/users/2", nil, []byte(`{"email":"root@example.com"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	u, _ := store.Get("2")
	if u.Email != "root@example.com" {
		t.Errorf("email = %q, want root@example.com", u.Email)
	}
	if u.Name != "admin" {
		t.Errorf("name = %q, untouched field must survive a patch", u.Name)
	}
}

// TestDeleteUser tests removal and the double-delete 404.
func TestDeleteUser(t *testing.T) {
	a, store := newTestApp()

	resp := dispatch(t, a, "DELETE", "/users/1", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if _, ok := store.Get("1"); ok {
		t.Error("user still in store after delete")
	}

	resp = dispatch(t, a, "DELETE", "/users/1", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}

// TestUnknownPath tests the app-level 404 body.
func TestUnknownPath(t *testing.T) {
	a, _ := newTestApp()

	resp := dispatch(t, a, "GET", "/missing", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if got := wireBody(t, resp); len(got) == 0 {
		t.Error("404 body must be non-empty")
	}
}

// TestStoreListSorted tests that listing is ordered by ID regardless of map
// iteration order.
func TestStoreListSorted(t *testing.T) {
	store := newUserStore()
	store.Create(userPayload{Name: "zed", Email: "zed@example.com"})

	users := store.List("")
	if len(users) != 3 {
		t.Fatalf("len = %d, want 3", len(users))
	}
	for i := 1; i < len(users); i++ {
		if users[i-1].ID >= users[i].ID {
			t.Fatalf("unsorted list: %+v", users)
		}
	}
}
