/*
Package server implements the TCP side of weblite: it owns the listening
socket, accepts connections, and drives one connection handler per accepted
socket until that connection closes.

Each connection is served by its own goroutine. Goroutines here are
cooperative units multiplexed by the runtime over non-blocking sockets: a
read or write that would block parks the goroutine until the kernel reports
the socket ready. All steps on one connection are strictly sequential —
exactly one goroutine ever touches a connection's buffers — while different
connections interleave freely.

The connection handler is a small state machine: read the request line, read
headers, read the declared body, dispatch, write the response, then either
loop for the next keep-alive request or close. Malformed input produces a
400 and closes the connection; truncated input or a socket failure abandons
the connection without writing.

Shutdown stops the accept loop, closes idle connections, and waits for
active ones to drain, bounded by the caller's context.
*/
package server
