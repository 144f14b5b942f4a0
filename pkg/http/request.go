package http

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/url"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Request represents a single parsed HTTP request. A Request is only ever
// constructed from a syntactically complete message: request line, header
// block, and (when declared) exactly Content-Length body bytes. It is not
// modified after construction, except for PathParams which the router fills
// in during resolution.
type Request struct {
	Method string
	Path   string
	Proto  string

	// Query maps parameter names to their values in arrival order.
	Query url.Values

	Header Header
	Body   []byte

	// PathParams holds values captured by {name} route segments.
	PathParams map[string]string
}

// Host returns the Host header value.
func (r *Request) Host() string {
	return r.Header.Get(HeaderHost)
}

// ContentLength returns the parsed Content-Length header value, or -1 when
// the header is absent or not a non-negative integer.
func (r *Request) ContentLength() int64 {
	n, ok := parseContentLength(r.Header.Get(HeaderContentLength))
	if !ok {
		return -1
	}
	return n
}

// JSON decodes the request body into v. It fails when the body is empty or
// not valid JSON.
func (r *Request) JSON(v any) error {
	if len(r.Body) == 0 {
		return errors.New("http: empty request body")
	}
	return json.Unmarshal(r.Body, v)
}

// ParseRequestLine parses "METHOD SP TARGET SP HTTP-VERSION" into its three
// parts. The method is validated as an HTTP token and normalized to upper
// case.
func ParseRequestLine(line string) (method, target, proto string, err error) {
	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		return "", "", "", malformed("request line %q", line)
	}
	method, target, proto = parts[0], parts[1], parts[2]
	if !isValidMethod(method) {
		return "", "", "", malformed("invalid method %q", method)
	}
	if target == "" || !strings.HasPrefix(proto, "HTTP/") {
		return "", "", "", malformed("request line %q", line)
	}
	return strings.ToUpper(method), target, proto, nil
}

// ReadRequest reads one complete HTTP request from r. maxBody caps the
// declared Content-Length; zero means no cap.
//
// Error classes:
//   - io.EOF: the stream ended cleanly before any byte of a new request
//   - *TruncatedRequestError: the stream ended mid-message
//   - *MalformedRequestError: the bytes are not valid HTTP
//
// Any other error comes from the underlying reader. The parse works on
// whatever chunk sizes the reader delivers; a request split across many
// reads parses identically to one delivered whole.
func ReadRequest(r *bufio.Reader, maxBody int64) (*Request, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if line == "" {
		return nil, malformed("empty request line")
	}
	method, target, proto, err := ParseRequestLine(line)
	if err != nil {
		return nil, err
	}

	// Split the target into path and query at the first '?'.
	rawPath, rawQuery, _ := strings.Cut(target, "?")
	path, err := url.PathUnescape(rawPath)
	if err != nil {
		return nil, malformed("invalid path escape in %q", rawPath)
	}
	query, err := ParseQuery(rawQuery)
	if err != nil {
		return nil, err
	}

	header, err := readHeaderBlock(r)
	if err != nil {
		return nil, err
	}

	var body []byte
	if cl := header.Get(HeaderContentLength); cl != "" {
		n, ok := parseContentLength(cl)
		if !ok {
			return nil, malformed("content length %q", cl)
		}
		if maxBody > 0 && n > maxBody {
			return nil, malformed("content length %d exceeds limit %d", n, maxBody)
		}
		if n > 0 {
			body = make([]byte, n)
			if _, err := io.ReadFull(r, body); err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					return nil, &TruncatedRequestError{What: "body"}
				}
				return nil, err
			}
		}
	}

	return &Request{
		Method: method,
		Path:   path,
		Proto:  proto,
		Query:  query,
		Header: header,
		Body:   body,
	}, nil
}

// readLine reads one CRLF-terminated line. io.EOF is returned only when the
// stream ends exactly on a line boundary; EOF mid-line is reported as a
// truncated request.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return "", &TruncatedRequestError{What: "line"}
		}
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

// readHeaderBlock reads header lines up to the blank-line terminator.
func readHeaderBlock(r *bufio.Reader) (Header, error) {
	header := make(Header)
	for {
		line, err := readLine(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// The block was cut off before its blank line.
				return nil, &TruncatedRequestError{What: "headers"}
			}
			return nil, err
		}
		if line == "" {
			return header, nil
		}
		key, value, found := strings.Cut(line, ":")
		if !found || key == "" {
			return nil, malformed("header line %q", line)
		}
		value = strings.TrimSpace(value)
		if !httpguts.ValidHeaderFieldName(key) {
			return nil, malformed("header name %q", key)
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return nil, malformed("header value for %q", key)
		}
		header.Add(key, value)
	}
}

// parseContentLength parses a Content-Length value, accepting decimal digits
// only. A value that does not fit in an int64 is rejected; otherwise it would
// wrap negative and bypass the body length checks.
func parseContentLength(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	var n int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		if n > (math.MaxInt64-int64(c-'0'))/10 {
			return 0, false
		}
		n = n*10 + int64(c-'0')
	}
	return n, true
}

// Dump renders the request in wire format, mainly for tests and debugging.
func (r *Request) Dump() []byte {
	var buf bytes.Buffer
	target := r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}
	buf.WriteString(r.Method + " " + target + " " + r.Proto + "\r\n")
	r.Header.WriteTo(&buf)
	buf.WriteString("\r\n")
	buf.Write(r.Body)
	return buf.Bytes()
}
