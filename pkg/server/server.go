package server

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"weblite/pkg/http"
)

// ErrServerClosed is returned by Serve and ListenAndServe after Shutdown or
// Close.
var ErrServerClosed = errors.New("server: closed")

// Default configuration values.
const (
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 120 * time.Second
	DefaultMaxBodyBytes = 1 << 20 // 1 MiB

	shutdownPollInterval = 10 * time.Millisecond
)

// Dispatcher turns a parsed request into a response. It must always return a
// response; *app.App satisfies this.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *http.Request) *http.Response
}

// Config holds server configuration. Host and Port are the only required
// inputs; zero timeouts and limits fall back to the defaults above.
type Config struct {
	Host string
	Port int

	// ReadTimeout bounds reading one complete request.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing one response.
	WriteTimeout time.Duration

	// IdleTimeout bounds the wait for the next request on a keep-alive
	// connection.
	IdleTimeout time.Duration

	// MaxBodyBytes caps the declared Content-Length of a request. Negative
	// disables the cap.
	MaxBodyBytes int64

	// Logger receives lifecycle and connection events. Nil silences them.
	Logger *zerolog.Logger
}

// Server accepts TCP connections and serves HTTP/1.1 requests on them.
type Server struct {
	cfg        Config
	dispatcher Dispatcher
	log        zerolog.Logger

	inShutdown atomic.Bool

	mu       sync.Mutex
	listener net.Listener
	conns    map[*conn]struct{}
}

// New creates a Server for the given configuration and dispatcher.
func New(cfg Config, dispatcher Dispatcher) *Server {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		log:        log,
		conns:      make(map[*conn]struct{}),
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// ListenAndServe binds the configured host and port and serves until
// Shutdown or a fatal listener error. The listening socket is opened with
// SO_REUSEADDR so restarts do not trip over sockets in TIME_WAIT.
func (s *Server) ListenAndServe() error {
	lc := net.ListenConfig{Control: reuseAddr}
	ln, err := lc.Listen(context.Background(), "tcp", s.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln and spawns a handler goroutine per
// connection. Transient accept errors are logged and retried with
// exponential backoff; any other accept error is fatal and propagates.
// Serve returns ErrServerClosed once shutdown begins.
func (s *Server) Serve(ln net.Listener) error {
	ln = &onceCloseListener{Listener: ln}
	defer ln.Close()

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("server listening")

	var tempDelay time.Duration
	for {
		rwc, err := ln.Accept()
		if err != nil {
			if s.shuttingDown() {
				return ErrServerClosed
			}
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				if tempDelay == 0 {
					tempDelay = 5 * time.Millisecond
				} else {
					tempDelay *= 2
				}
				if tempDelay > time.Second {
					tempDelay = time.Second
				}
				s.log.Warn().Err(err).Dur("retry_in", tempDelay).Msg("transient accept error")
				time.Sleep(tempDelay)
				continue
			}
			return err
		}
		tempDelay = 0

		c := s.newConn(rwc)
		s.trackConn(c, true)
		go c.serve(context.Background())
	}
}

// Shutdown stops accepting new connections, closes idle connections, and
// waits for active ones to finish. The drain is best-effort: when ctx
// expires the remaining connections are left to Close.
func (s *Server) Shutdown(ctx context.Context) error {
	s.inShutdown.Store(true)
	s.closeListener()
	s.log.Info().Msg("server draining")

	ticker := time.NewTicker(shutdownPollInterval)
	defer ticker.Stop()
	for {
		if s.closeIdleConns() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close force-closes the listener and every tracked connection.
func (s *Server) Close() error {
	s.inShutdown.Store(true)
	err := s.closeListener()

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		c.rwc.Close()
		delete(s.conns, c)
	}
	return err
}

func (s *Server) closeListener() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) shuttingDown() bool {
	return s.inShutdown.Load()
}

// closeIdleConns closes connections sitting between requests and reports
// whether no connections remain at all.
func (s *Server) closeIdleConns() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		state := c.getState()
		if state == stateNew || state == stateIdle {
			c.rwc.Close()
			delete(s.conns, c)
		}
	}
	return len(s.conns) == 0
}

func (s *Server) trackConn(c *conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
}

// onceCloseListener wraps a listener so double Close calls from Serve and
// Shutdown are harmless.
type onceCloseListener struct {
	net.Listener
	once     sync.Once
	closeErr error
}

func (ln *onceCloseListener) Close() error {
	ln.once.Do(func() { ln.closeErr = ln.Listener.Close() })
	return ln.closeErr
}
