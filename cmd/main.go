package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/spear/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{
		ConfigPath: "config.toml",
		Logger:     logger,
	})

	err := newApp(runner).Run(context.Background(), os.Args)
	runner.Close()

	switch {
	case err == nil:
	case errors.Is(err, shared.ErrToolOutdated):
		logger.Error("yt-dlp needs an update; restart after updating", "error", err)
		os.Exit(shared.ExitToolUpdate)
	default:
		logger.Fatalf("application error: %v", err)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spear",
		Usage:   "Keep a local music library in sync with YouTube downloads, playlists and listening history",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level (debug, info, warn, error)",
			},
		},
		Before:   r.Before,
		Commands: r.register(),
	}
}
