// Package router maps (method, path) pairs to handlers. Literal paths match
// exactly and case-sensitively; {name} segments capture one path segment.
// Resolution distinguishes an unknown path (ErrNotFound) from a known path
// under a different method (ErrMethodNotAllowed) so the server can answer
// 404 versus 405 correctly.
package router
