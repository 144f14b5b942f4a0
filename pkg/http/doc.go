/*
Package http implements the HTTP/1.1 wire model used by the weblite server
and framework: parsing raw byte streams into Request values and serializing
Response values back to bytes.

This package is built from scratch on top of bufio readers; it does not use
net/http. It covers:

  - Request line, header, and Content-Length body parsing
  - Case-insensitive multi-value headers with canonical keys
  - Ordered multi-value query string parsing with strict percent-decoding
  - Response framing with computed Content-Length and Content-Type
  - JSON body encoding driven by the response content type

Parsing failures are classified so the connection layer can react correctly:
a *MalformedRequestError means the client sent invalid HTTP and deserves a
400, while a *TruncatedRequestError means the input ended before the message
was complete and the connection should simply be abandoned.

Handlers are plain functions:

	func(ctx context.Context, r *http.Request) (*http.Response, error)

A returned error is translated into a generic 500 by the dispatch layer.
*/
package http
