package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/abhisek/inkling/internal/config"
)

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg config.ServerConfig, deps Deps) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      NewRouter(cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // AI-backed endpoints are slow
	}

	errCh := make(chan error, 1)
	go func() {
		deps.Log.Info("http server listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
