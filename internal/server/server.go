package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-mongo-skeleton/internal/config"
)

// shutdownGrace bounds the drain on context cancellation.
const shutdownGrace = 10 * time.Second

// setMaxProcs is a seam for tests.
var setMaxProcs = runtime.GOMAXPROCS

// Server serves an http.Handler on an acquired listener.
type Server struct {
	Network config.Network
	HTTP    config.HTTPConfig
	Handler http.Handler
	Logger  zerolog.Logger

	// Sources default to Inherited{Unset: true} and FreshBind{Network.Addr}.
	Inherited SocketSource
	Fresh     SocketSource

	// OnListening, when set, is called once the listener is acquired and
	// before serving starts.
	OnListening func(ln net.Listener, from State)
}

// New returns a Server with default socket sources.
func New(netCfg config.Network, httpCfg config.HTTPConfig, h http.Handler, logger zerolog.Logger) *Server {
	return &Server{
		Network:   netCfg,
		HTTP:      httpCfg,
		Handler:   h,
		Logger:    logger,
		Inherited: Inherited{Unset: true},
		Fresh:     FreshBind{Addr: netCfg.Addr},
	}
}

// Run applies worker concurrency, acquires the listener and serves until ctx
// is cancelled or the server fails. A bind failure is returned immediately.
// Cancellation triggers a graceful shutdown and a nil return.
func (s *Server) Run(ctx context.Context) error {
	if s.Network.Threads > 0 {
		prev := setMaxProcs(s.Network.Threads)
		s.Logger.Info().Int("threads", s.Network.Threads).Int("previous", prev).Msg("worker concurrency set")
	}

	inherited, fresh := s.Inherited, s.Fresh
	if inherited == nil {
		inherited = Inherited{Unset: true}
	}
	if fresh == nil {
		fresh = FreshBind{Addr: s.Network.Addr}
	}

	ln, from, err := Acquire(inherited, fresh)
	if err != nil {
		s.Logger.Error().Err(err).Str("state", from.String()).Msg("listener acquisition failed")
		return err
	}

	ev := s.Logger.Info().Str("addr", ln.Addr().String())
	if from == CheckInherited {
		ev.Bool("inherited", true).Msg("listening on inherited socket")
	} else {
		ev.Bool("inherited", false).Msg("listening")
	}
	if s.OnListening != nil {
		s.OnListening(ln, from)
	}

	return s.Serve(ctx, ln)
}

// Serve runs an http.Server on ln until ctx is done. It owns ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler,
		ReadHeaderTimeout: s.HTTP.ReadHeaderTimeout,
		ReadTimeout:       s.HTTP.ReadTimeout,
		WriteTimeout:      s.HTTP.WriteTimeout,
		IdleTimeout:       s.HTTP.IdleTimeout,
		MaxHeaderBytes:    s.HTTP.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	s.Logger.Info().Msg("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
