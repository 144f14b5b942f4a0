package http

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Method constants for HTTP requests.
const (
	MethodGet     = "GET"
	MethodHead    = "HEAD"
	MethodPost    = "POST"
	MethodPut     = "PUT"
	MethodDelete  = "DELETE"
	MethodOptions = "OPTIONS"
	MethodPatch   = "PATCH"
)

// Common HTTP status codes.
const (
	StatusOK                    = 200
	StatusCreated               = 201
	StatusAccepted              = 202
	StatusNoContent             = 204
	StatusMovedPermanently      = 301
	StatusFound                 = 302
	StatusNotModified           = 304
	StatusBadRequest            = 400
	StatusUnauthorized          = 401
	StatusForbidden             = 403
	StatusNotFound              = 404
	StatusMethodNotAllowed      = 405
	StatusRequestEntityTooLarge = 413
	StatusInternalServerError   = 500
	StatusNotImplemented        = 501
	StatusServiceUnavailable    = 503
)

// Protocol versions.
const (
	ProtocolHTTP10 = "HTTP/1.0"
	ProtocolHTTP11 = "HTTP/1.1"
)

// Header names (canonicalized).
const (
	HeaderAllow         = "Allow"
	HeaderConnection    = "Connection"
	HeaderContentLength = "Content-Length"
	HeaderContentType   = "Content-Type"
	HeaderDate          = "Date"
	HeaderHost          = "Host"
	HeaderServer        = "Server"
)

// Connection header options.
const (
	ConnectionKeepAlive = "keep-alive"
	ConnectionClose     = "close"
)

// Content types used by the framework.
const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeJSON = "application/json"
)

// Handler is the contract application handlers conform to. A handler receives
// a fully parsed Request and produces a Response; a non-nil error (or a
// panic) is converted into a generic 500 response by the dispatch layer.
type Handler func(ctx context.Context, r *Request) (*Response, error)

// MalformedRequestError reports a request that is syntactically invalid HTTP.
// The connection layer answers it with a 400 and closes the connection.
type MalformedRequestError struct {
	Reason string
}

func (e *MalformedRequestError) Error() string {
	return "malformed request: " + e.Reason
}

func malformed(format string, args ...any) error {
	return &MalformedRequestError{Reason: fmt.Sprintf(format, args...)}
}

// TruncatedRequestError reports input that ended before the message was
// complete. It is not a protocol violation; it means the peer went away (or
// more bytes are needed), so no error response is written for it.
type TruncatedRequestError struct {
	What string
}

func (e *TruncatedRequestError) Error() string {
	return "truncated request: " + e.What
}

// Header represents HTTP headers as a case-insensitive key-value map.
// All occurrences of a repeated header are retained in arrival order.
type Header map[string][]string

// Get returns the value for the given key, case-insensitive. When the header
// line occurred more than once the last occurrence wins. Returns the empty
// string if the key is absent.
func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	if values, ok := h[CanonicalHeaderKey(key)]; ok && len(values) > 0 {
		return values[len(values)-1]
	}
	return ""
}

// Values returns all values recorded for the given key, in arrival order.
func (h Header) Values(key string) []string {
	if h == nil {
		return nil
	}
	return h[CanonicalHeaderKey(key)]
}

// Set sets the header value, replacing any existing values.
func (h Header) Set(key, value string) {
	h[CanonicalHeaderKey(key)] = []string{value}
}

// Add appends a value to the key, keeping prior occurrences.
func (h Header) Add(key, value string) {
	canonical := CanonicalHeaderKey(key)
	h[canonical] = append(h[canonical], value)
}

// Del removes all values for the given key.
func (h Header) Del(key string) {
	delete(h, CanonicalHeaderKey(key))
}

// Clone returns a deep copy of the header.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	clone := make(Header, len(h))
	for k, vv := range h {
		clone[k] = append([]string(nil), vv...)
	}
	return clone
}

// WriteTo writes the headers to w in wire format, one "Key: value" line per
// recorded occurrence, each terminated by CRLF.
func (h Header) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for k, vv := range h {
		for _, v := range vv {
			cnt, err := io.WriteString(w, k+": "+v+"\r\n")
			n += int64(cnt)
			if err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

// CanonicalHeaderKey returns the canonical format of the header key: the
// first character and any character following a hyphen are uppercased, the
// rest lowercased. Example: "content-type" -> "Content-Type".
func CanonicalHeaderKey(s string) string {
	if s == "" {
		return s
	}
	result := make([]byte, len(s))
	upperNext := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case upperNext && c >= 'a' && c <= 'z':
			result[i] = c - 'a' + 'A'
		case !upperNext && c >= 'A' && c <= 'Z':
			result[i] = c + 'a' - 'A'
		default:
			result[i] = c
		}
		upperNext = c == '-'
	}
	return string(result)
}

// ParseQuery parses a raw query string into name -> ordered values. A name
// may repeat; every occurrence is preserved in order. An invalid percent
// escape in a key or value yields a *MalformedRequestError.
func ParseQuery(query string) (url.Values, error) {
	values := make(url.Values)
	if query == "" {
		return values, nil
	}
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, malformed("invalid query escape in %q", rawKey)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, malformed("invalid query escape in %q", rawValue)
		}
		values.Add(key, value)
	}
	return values, nil
}

// isTokenChar returns true if the byte is a valid HTTP token character.
func isTokenChar(c byte) bool {
	return c < 0x80 && tokenChars[c]
}

// tokenChars is a lookup table for valid HTTP token characters.
var tokenChars = [256]bool{
	'!': true, '#': true, '$': true, '%': true, '&': true,
	'\'': true, '*': true, '+': true, '-': true, '.': true,
	'^': true, '_': true, '`': true, '|': true, '~': true,
	'0': true, '1': true, '2': true, '3': true, '4': true,
	'5': true, '6': true, '7': true, '8': true, '9': true,
	'A': true, 'B': true, 'C': true, 'D': true, 'E': true,
	'F': true, 'G': true, 'H': true, 'I': true, 'J': true,
	'K': true, 'L': true, 'M': true, 'N': true, 'O': true,
	'P': true, 'Q': true, 'R': true, 'S': true, 'T': true,
	'U': true, 'V': true, 'W': true, 'X': true, 'Y': true,
	'Z': true, 'a': true, 'b': true, 'c': true, 'd': true,
	'e': true, 'f': true, 'g': true, 'h': true, 'i': true,
	'j': true, 'k': true, 'l': true, 'm': true, 'n': true,
	'o': true, 'p': true, 'q': true, 'r': true, 's': true,
	't': true, 'u': true, 'v': true, 'w': true, 'x': true,
	'y': true, 'z': true,
}

// isValidMethod checks if the method is a valid HTTP method token.
func isValidMethod(method string) bool {
	if method == "" {
		return false
	}
	for i := 0; i < len(method); i++ {
		if !isTokenChar(method[i]) {
			return false
		}
	}
	return true
}
