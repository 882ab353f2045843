package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/studyhelper/studyhelper/internal/api"
	"github.com/studyhelper/studyhelper/internal/config"
	"github.com/studyhelper/studyhelper/internal/domain"
	"github.com/studyhelper/studyhelper/internal/platform/remote"
	"github.com/studyhelper/studyhelper/internal/service"
	"github.com/studyhelper/studyhelper/internal/store"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, c.config, c.logger)
		},
	}
}

// serve runs the server until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	st, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error("failed to close store", slog.String("error", err.Error()))
		}
	}()

	if cfg.Database.SeedStarterData {
		if _, err := service.SeedStarterData(ctx, st, log); err != nil {
			return err
		}
	}

	router, err := buildRouter(ctx, cfg, st, log)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("server shutdown completed")
	return nil
}

// buildRouter wires the controllers and handlers over st.
func buildRouter(ctx context.Context, cfg *config.Config, st store.Store, log *slog.Logger) (http.Handler, error) {
	order, err := domain.ParseSortMode(cfg.Study.SubjectOrder)
	if err != nil {
		return nil, err
	}

	list, err := service.NewSubjectList(st, order, log)
	if err != nil {
		return nil, err
	}
	if err := list.Load(ctx, order); err != nil {
		return nil, err
	}

	source, err := newRemoteClient(cfg.Import, log)
	if err != nil {
		return nil, err
	}
	importer, err := service.NewImporter(st, source, service.ImporterConfig{Workers: cfg.Import.Workers}, log)
	if err != nil {
		return nil, err
	}

	subjects := api.NewSubjectHandler(list, log)
	return api.NewRouter(api.Handlers{
		Subjects: subjects,
		Sessions: api.NewSessionHandler(st, cfg.Study.DefaultQuestionText, log,
			api.WithIdleTimeout(cfg.Server.SessionIdleTimeout),
			api.WithMaxSessions(cfg.Server.MaxSessions)),
		Import:   api.NewImportHandler(source, importer, subjects.Reload, log),
	}, log), nil
}

func newRemoteClient(cfg config.ImportConfig, log *slog.Logger) (*remote.Client, error) {
	return remote.NewClient(remote.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Retries: cfg.Retries,
	}, log)
}
