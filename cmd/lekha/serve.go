package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"lekha/internal/domain"
	"lekha/internal/handler"
	"lekha/internal/router"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the review API server",
	Long: `Start the review API server.

The most recently opened project is resumed on startup. The server provides:
  - /healthz        - liveness check
  - /readyz         - readiness check (includes database)
  - /api/v1/...     - review API`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.session.Resume(ctx); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if a.cfg.Server.Environment == "production" {
			gin.SetMode(gin.ReleaseMode)
		}
		r := router.Setup(router.Handlers{
			Session: handler.NewSessionHandler(a.session),
			Segment: handler.NewSegmentHandler(a.session),
			Project: handler.NewProjectHandler(a.projects, a.session),
			Health:  handler.NewHealthHandler(a.db),
		}, a.cfg.CORS.AllowedOrigins, a.logger)

		srv := &http.Server{
			Addr:         a.cfg.Server.Port,
			Handler:      r,
			ReadTimeout:  a.cfg.Server.ReadTimeout,
			WriteTimeout: a.cfg.Server.WriteTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("starting HTTP server", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case <-ctx.Done():
			a.logger.Info("shutdown signal received")
		case err := <-errCh:
			if err != nil {
				return err
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("HTTP server shutdown error", "error", err)
		}
		a.logger.Info("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
