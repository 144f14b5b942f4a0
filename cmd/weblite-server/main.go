// Command weblite-server runs a small REST API for an in-memory user store,
// demonstrating the weblite server and framework.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"

	"weblite/pkg/app"
	"weblite/pkg/server"
)

var (
	host  = flag.String("host", "127.0.0.1", "bind address")
	port  = flag.Int("port", 8080, "listen port")
	debug = flag.Bool("debug", false, "enable debug logging")
)

func main() {
	flag.Parse()

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	a := app.New()
	a.SetLogger(logger)
	a.Use(app.Logging(logger))
	registerRoutes(a, newUserStore())

	srv := server.New(server.Config{
		Host:   *host,
		Port:   *port,
		Logger: &logger,
	}, a)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Warn().Msg("server shutting down")
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(drainCtx); err != nil {
			logger.Warn().Err(err).Msg("drain incomplete, forcing close")
			srv.Close()
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, server.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
