package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bertrandmartel/sessionbridge/sp/logutil"
)

// ShutdownTimeout bounds how long in-flight handshakes get once the context is done.
const ShutdownTimeout = 10 * time.Second

// Listen opens the TCP listener for bind. Opening it before Serve lets the caller report
// bind failures, and the resolved address, before any request is handled.
func Listen(bind string) (net.Listener, error) {
	l, err := net.Listen("tcp", bind)
	if err != nil {
		return nil, fmt.Errorf("unable to bind %v: %w", bind, err)
	}
	return l, nil
}

func newServer(handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

// Serve handles requests on l until ctx is done, then shuts down gracefully. The listener
// is closed when Serve returns. A nil error means the server stopped because ctx was done.
func Serve(ctx context.Context, l net.Listener, handler http.Handler) error {
	log := logutil.GetOrDefault(ctx).With().Str("server.addr", l.Addr().String()).Logger()
	server := newServer(handler)

	served := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting HTTP server")
		served <- server.Serve(l)
	}()

	select {
	case err := <-served:
		log.Error().Err(err).Msg("HTTP server stopped")
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Initiating shutdown process")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	err := server.Shutdown(shutdownCtx)
	if serveErr := <-served; err == nil && !errors.Is(serveErr, http.ErrServerClosed) {
		err = serveErr
	}
	log.Info().Err(err).Msg("Shutdown completed")
	return err
}

// ListenAndServe is Listen followed by Serve.
func ListenAndServe(ctx context.Context, bind string, handler http.Handler) error {
	l, err := Listen(bind)
	if err != nil {
		return err
	}
	return Serve(ctx, l, handler)
}
