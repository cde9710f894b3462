package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"agileflow/internal/server"
)

func newServeCmd(c *cli) *cobra.Command {
	var addr, staticDir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and serve the frontend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				c.cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("static") {
				c.cfg.Server.StaticDir = staticDir
			}
			return c.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default from config, :8080)")
	cmd.Flags().StringVar(&staticDir, "static", "", "directory with the built frontend")
	return cmd
}

func (c *cli) serve(ctx context.Context) error {
	logger := c.logger
	logger.Info("agileflow starting",
		slog.String("driver", c.cfg.Database.Driver),
		slog.Bool("require_token", c.cfg.Auth.RequireToken),
	)

	if c.cfg.Auth.JWTSecret == "" {
		logger.Warn("no jwt secret configured; tokens will not survive a restart")
	}

	a, err := c.open(ctx)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		return err
	}
	defer a.Close()

	srv := server.New(server.Services{
		Tasks:    a.tasks,
		Projects: a.projects,
		Users:    a.users,
		Tokens:   a.tokens,
		Store:    a.store,
	}, logger, server.Options{
		StaticDir:    c.cfg.Server.StaticDir,
		CORSOrigin:   c.cfg.Server.CORSOrigin,
		RequireToken: c.cfg.Auth.RequireToken,
	})

	httpServer := &http.Server{
		Addr:              c.cfg.Server.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err, ok := <-serveErr:
		if ok {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
	return nil
}
