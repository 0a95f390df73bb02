package ops

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"
)

// Server hosts the operational endpoints on a separate listener so the
// Discord gateway connection and the ops surface fail independently.
type Server struct {
	srv *http.Server
	log *slog.Logger
}

func NewServer(addr string, provider StatusProvider, log *slog.Logger) *Server {
	mux := chi.NewMux()

	config := huma.DefaultConfig("Racebot Ops API", "1.0.0")
	api := humachi.New(mux, config)

	middlewares := huma.Middlewares{requestLogger(log)}
	handler := NewHandler(provider, log, middlewares)
	handler.SetupRoutes(api)

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log.With(slog.String("component", "ops_server")),
	}
}

// Start blocks serving until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.log.Info("ops server listening", slog.String("address", s.srv.Addr))

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func requestLogger(log *slog.Logger) func(huma.Context, func(huma.Context)) {
	log = log.With(slog.String("component", "http_logger"))

	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()

		method := ctx.Method()
		path := ctx.URL().Path
		remoteAddr := ctx.RemoteAddr()

		next(ctx)

		log.Info("HTTP request",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", ctx.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote_addr", remoteAddr),
		)
	}
}
