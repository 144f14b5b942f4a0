package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"weblite/pkg/http"
)

// readBufferSize bounds how many bytes one socket read can deliver, so a
// request arriving in many small chunks and one arriving whole take the same
// parse path.
const readBufferSize = 4 << 10

// connState tracks where a connection is in its lifecycle, so shutdown can
// tell connections it may close now (new, idle) from ones it must drain
// (active).
type connState int32

const (
	// stateNew: accepted, no byte of a request seen yet.
	stateNew connState = iota

	// stateActive: a request is being read, dispatched, or answered.
	stateActive

	// stateIdle: between keep-alive requests.
	stateIdle

	// stateClosed: the connection is done.
	stateClosed
)

// conn drives one accepted TCP connection through its lifecycle: parse a
// request, dispatch it, write the response, then loop for the next
// keep-alive request or close. Exactly one goroutine owns a conn; its
// buffers are never shared.
type conn struct {
	srv   *Server
	rwc   net.Conn
	br    *bufio.Reader
	bw    *bufio.Writer
	state atomic.Int32
	log   zerolog.Logger

	// numRequests counts requests served on this connection, used to switch
	// from the read timeout to the keep-alive idle timeout.
	numRequests int
}

func (s *Server) newConn(rwc net.Conn) *conn {
	return &conn{
		srv: s,
		rwc: rwc,
		br:  bufio.NewReaderSize(rwc, readBufferSize),
		bw:  bufio.NewWriter(rwc),
		log: s.log.With().Str("remote", rwc.RemoteAddr().String()).Logger(),
	}
}

func (c *conn) setState(state connState) {
	c.state.Store(int32(state))
}

func (c *conn) getState() connState {
	return connState(c.state.Load())
}

// serve runs the connection state machine to completion. Each iteration
// moves through reading the request line, headers, and body (inside
// ReadRequest), dispatching, and writing the response; the loop continues
// only while keep-alive applies.
func (c *conn) serve(ctx context.Context) {
	defer func() {
		c.setState(stateClosed)
		c.rwc.Close()
		c.srv.trackConn(c, false)
		c.log.Debug().Msg("connection closed")
	}()

	c.log.Debug().Msg("client connected")

	maxBody := c.srv.cfg.MaxBodyBytes
	if maxBody < 0 {
		maxBody = 0
	}

	for {
		if c.srv.shuttingDown() {
			return
		}

		c.setReadDeadline()
		req, err := http.ReadRequest(c.br, maxBody)
		if err != nil {
			c.handleReadError(err)
			return
		}
		c.setState(stateActive)
		c.numRequests++

		resp := c.srv.dispatcher.Dispatch(ctx, req)

		keepAlive := shouldKeepAlive(req) && !c.srv.shuttingDown()
		if !keepAlive {
			if resp.Header == nil {
				resp.Header = make(http.Header)
			}
			resp.Header.Set(http.HeaderConnection, http.ConnectionClose)
		}

		if c.srv.cfg.WriteTimeout > 0 {
			c.rwc.SetWriteDeadline(time.Now().Add(c.srv.cfg.WriteTimeout))
		}
		if _, err := resp.WriteTo(c.bw); err != nil {
			c.log.Debug().Err(err).Msg("write failed")
			return
		}
		if err := c.bw.Flush(); err != nil {
			c.log.Debug().Err(err).Msg("write failed")
			return
		}

		if !keepAlive {
			return
		}
		c.setState(stateIdle)
	}
}

// setReadDeadline applies the read timeout for the first request and the
// idle timeout while waiting on a keep-alive connection.
func (c *conn) setReadDeadline() {
	d := c.srv.cfg.ReadTimeout
	if c.numRequests > 0 && c.srv.cfg.IdleTimeout > 0 {
		d = c.srv.cfg.IdleTimeout
	}
	if d > 0 {
		c.rwc.SetReadDeadline(time.Now().Add(d))
	}
}

// handleReadError reacts to a failed request read. Malformed input gets a
// complete 400 response before the connection closes; everything else —
// clean EOF, truncated input, socket errors — abandons the connection
// without writing another byte.
func (c *conn) handleReadError(err error) {
	var malformedErr *http.MalformedRequestError
	var truncatedErr *http.TruncatedRequestError
	switch {
	case errors.Is(err, io.EOF):
		// Peer finished between requests.
	case errors.As(err, &malformedErr):
		c.log.Debug().Err(err).Msg("malformed request")
		resp := http.JSON(http.StatusBadRequest, map[string]string{"detail": "bad request"})
		resp.Header.Set(http.HeaderConnection, http.ConnectionClose)
		if c.srv.cfg.WriteTimeout > 0 {
			c.rwc.SetWriteDeadline(time.Now().Add(c.srv.cfg.WriteTimeout))
		}
		if _, werr := resp.WriteTo(c.bw); werr == nil {
			c.bw.Flush()
		}
	case errors.As(err, &truncatedErr):
		c.log.Debug().Err(err).Msg("request truncated, abandoning connection")
	default:
		c.log.Debug().Err(err).Msg("read failed")
	}
}

// shouldKeepAlive decides whether the connection outlives this exchange:
// only HTTP/1.1 defaults to persistent connections, and an explicit
// "Connection: close" always wins.
func shouldKeepAlive(req *http.Request) bool {
	if req.Proto != http.ProtocolHTTP11 {
		return false
	}
	return !strings.EqualFold(req.Header.Get(http.HeaderConnection), http.ConnectionClose)
}
