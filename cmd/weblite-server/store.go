package main

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// User is one record in the demo store.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// userPayload is the request body accepted by the write endpoints.
type userPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// userStore is an in-memory user database. Handlers run concurrently, so
// the store guards itself with a mutex; the framework core holds no shared
// mutable state of its own.
type userStore struct {
	mu     sync.Mutex
	users  map[string]User
	nextID int
}

func newUserStore() *userStore {
	return &userStore{
		users: map[string]User{
			"1": {ID: "1", Name: "mayur", Email: "mayur@example.com"},
			"2": {ID: "2", Name: "admin", Email: "admin@example.com"},
		},
		nextID: 3,
	}
}

// List returns users sorted by ID. A non-empty filter keeps users whose name
// contains it, case-insensitively.
func (s *userStore) List(filter string) []User {
	s.mu.Lock()
	defer s.mu.Unlock()

	filter = strings.ToLower(filter)
	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		if filter != "" && !strings.Contains(strings.ToLower(u.Name), filter) {
			continue
		}
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (s *userStore) Get(id string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *userStore) Create(p userPayload) User {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strconv.Itoa(s.nextID)
	s.nextID++
	u := User{ID: id, Name: p.Name, Email: p.Email}
	s.users[id] = u
	return u
}

// Update replaces a user's fields wholesale.
func (s *userStore) Update(id string, p userPayload) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, false
	}
	u.Name = p.Name
	u.Email = p.Email
	s.users[id] = u
	return u, true
}

// Patch applies only the fields present in the payload.
func (s *userStore) Patch(id string, p map[string]string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, false
	}
	if name, ok := p["name"]; ok {
		u.Name = name
	}
	if email, ok := p["email"]; ok {
		u.Email = email
	}
	s.users[id] = u
	return u, true
}

func (s *userStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return false
	}
	delete(s.users, id)
	return true
}
