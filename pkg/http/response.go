package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Response represents an outgoing HTTP response. Handlers construct one, the
// connection layer serializes it exactly once and discards it. Construction
// never fails: unset fields fall back to defaults when the response is
// written (status 200, text/plain content type).
type Response struct {
	// StatusCode defaults to 200 when zero.
	StatusCode int

	// ContentType defaults to text/plain for string and byte bodies, and to
	// application/json for structured bodies.
	ContentType string

	// Header holds additional response headers. Content-Length and
	// Content-Type are computed by the serializer; caller-set values for
	// those two keys are ignored.
	Header Header

	// Body is serialized according to the content type: for JSON media types
	// a structured value is marshaled, strings and byte slices pass through
	// unchanged.
	Body any
}

// NewResponse creates a response with the given body and default status and
// content type.
func NewResponse(body any) *Response {
	return &Response{Body: body, Header: make(Header)}
}

// Text creates a plain text response.
func Text(statusCode int, body string) *Response {
	return &Response{
		StatusCode:  statusCode,
		ContentType: ContentTypeText,
		Header:      make(Header),
		Body:        body,
	}
}

// JSON creates a response whose body is marshaled as JSON.
func JSON(statusCode int, body any) *Response {
	return &Response{
		StatusCode:  statusCode,
		ContentType: ContentTypeJSON,
		Header:      make(Header),
		Body:        body,
	}
}

// status returns the effective status code.
func (r *Response) status() int {
	if r.StatusCode == 0 {
		return StatusOK
	}
	return r.StatusCode
}

// contentType returns the effective content type, defaulting structured
// bodies to JSON the way the framework's JSON helper does.
func (r *Response) contentType() string {
	if r.ContentType != "" {
		return r.ContentType
	}
	switch r.Body.(type) {
	case nil, string, []byte:
		return ContentTypeText
	default:
		return ContentTypeJSON
	}
}

// encodeBody converts the body value to bytes according to the content type.
func (r *Response) encodeBody(contentType string) ([]byte, error) {
	switch b := r.Body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		if isJSONType(contentType) {
			return json.Marshal(b)
		}
		return []byte(fmt.Sprint(b)), nil
	}
}

// isJSONType reports whether the media type carries JSON.
func isJSONType(contentType string) bool {
	return strings.Contains(contentType, "json")
}

// WriteTo serializes the response to w: status line, headers with computed
// Content-Length and Content-Type, CRLF separator, body. Serialization
// always produces a complete, well-formed message; if the body value cannot
// be marshaled the response degrades to a generic 500.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	status := r.status()
	contentType := r.contentType()
	body, err := r.encodeBody(contentType)
	if err != nil {
		status = StatusInternalServerError
		contentType = ContentTypeText
		body = []byte(StatusText(StatusInternalServerError))
	}

	header := r.Header.Clone()
	if header == nil {
		header = make(Header)
	}
	header.Set(HeaderContentType, contentType)
	header.Set(HeaderContentLength, strconv.Itoa(len(body)))

	var buf bytes.Buffer
	buf.WriteString(ProtocolHTTP11 + " " + strconv.Itoa(status) + " " + StatusText(status) + "\r\n")
	header.WriteTo(&buf)
	buf.WriteString("\r\n")
	buf.Write(body)

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// StatusText returns the standard reason phrase for the given status code.
func StatusText(code int) string {
	switch code {
	case StatusOK:
		return "OK"
	case StatusCreated:
		return "Created"
	case StatusAccepted:
		return "Accepted"
	case StatusNoContent:
		return "No Content"
	case StatusMovedPermanently:
		return "Moved Permanently"
	case StatusFound:
		return "Found"
	case StatusNotModified:
		return "Not Modified"
	case StatusBadRequest:
		return "Bad Request"
	case StatusUnauthorized:
		return "Unauthorized"
	case StatusForbidden:
		return "Forbidden"
	case StatusNotFound:
		return "Not Found"
	case StatusMethodNotAllowed:
		return "Method Not Allowed"
	case StatusRequestEntityTooLarge:
		return "Request Entity Too Large"
	case StatusInternalServerError:
		return "Internal Server Error"
	case StatusNotImplemented:
		return "Not Implemented"
	case StatusServiceUnavailable:
		return "Service Unavailable"
	default:
		return "Unknown"
	}
}
