package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/kotoba-study/kotoba/internal/ai"
	"github.com/kotoba-study/kotoba/internal/api"
	"github.com/kotoba-study/kotoba/internal/auth"
	"github.com/kotoba-study/kotoba/internal/config"
	"github.com/kotoba-study/kotoba/internal/core"
	"github.com/kotoba-study/kotoba/internal/db"
	"github.com/kotoba-study/kotoba/internal/japanese"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load("kotoba-web", args)
	if err != nil {
		return err
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	if cfg.Auth.Secret == "" {
		return errors.New("auth.secret must be set for the web server (KOTOBA_AUTH__SECRET)")
	}

	database, err := db.NewDatabase(cfg.Database.Path)
	if err != nil {
		return errors.Wrap(err, "initializing database")
	}
	defer database.Close()

	aiClient, err := ai.New(cfg.AI.ClientConfig(), logger)
	if err != nil {
		return errors.Wrap(err, "initializing AI client")
	}

	analyzer, err := japanese.NewAnalyzer()
	if err != nil {
		logger.Warn("morphological analyzer unavailable, readings will not be filled", "error", err)
		analyzer = nil
	}

	svc := core.NewService(database, aiClient, analyzer, core.OptionsFromConfig(cfg), logger)
	authSvc, err := auth.NewService(database, cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if err != nil {
		return errors.Wrap(err, "initializing auth")
	}

	sessions := api.NewSessions(cfg.Server.SessionTTL)
	handler := api.NewHandler(svc, authSvc, sessions,
		api.NewRateLimiter(cfg.Server.SentenceRate, cfg.Server.SentenceBurst), logger)

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: api.Chain(handler.Routes(),
			api.RecoverMiddleware(logger),
			api.LoggingMiddleware(logger),
			api.CorsMiddleware(cfg.Server.AllowedOrigins),
		),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting kotoba web server",
			"addr", cfg.Server.Addr,
			"database", cfg.Database.Path,
			"ai_provider", cfg.AI.Provider,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server error")
		}
		return nil
	})
	g.Go(func() error {
		return sessions.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
