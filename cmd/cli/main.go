package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/kotoba-study/kotoba/internal/ai"
	"github.com/kotoba-study/kotoba/internal/config"
	"github.com/kotoba-study/kotoba/internal/core"
	"github.com/kotoba-study/kotoba/internal/db"
	"github.com/kotoba-study/kotoba/internal/japanese"
)

// The terminal client studies as a single local profile.
const (
	profileID    = "local"
	profileEmail = "local@kotoba.invalid"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load("kotoba", args)
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs only go to a file in debug mode.
	logger := cfg.Log.NewLogger(io.Discard)
	if cfg.Log.Level == "debug" {
		f, err := tea.LogToFile("kotoba-cli.log", "kotoba")
		if err != nil {
			return errors.Wrap(err, "opening log file")
		}
		defer f.Close()
		logger = cfg.Log.NewLogger(f)
	}

	database, err := db.NewDatabase(cfg.Database.Path)
	if err != nil {
		return errors.Wrap(err, "initializing database")
	}
	defer database.Close()

	if err := ensureProfile(context.Background(), database); err != nil {
		return errors.Wrap(err, "preparing local profile")
	}

	aiClient, err := ai.New(cfg.AI.ClientConfig(), logger)
	if err != nil {
		return errors.Wrap(err, "initializing AI client")
	}

	analyzer, err := japanese.NewAnalyzer()
	if err != nil {
		logger.Warn("morphological analyzer unavailable", "error", err)
		analyzer = nil
	}

	svc := core.NewService(database, aiClient, analyzer, core.OptionsFromConfig(cfg), logger)
	p := tea.NewProgram(newModel(svc, profileID), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// ensureProfile creates the local profile user on first run.
func ensureProfile(ctx context.Context, database *db.Database) error {
	_, err := database.GetUser(ctx, profileID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return err
	}
	_, err = database.CreateUser(ctx, db.User{ID: profileID, Name: "Local profile", Email: profileEmail})
	if errors.Is(err, db.ErrEmailTaken) {
		return nil
	}
	return err
}
