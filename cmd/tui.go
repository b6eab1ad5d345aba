package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spear/internal/matcher"
	"github.com/desertthunder/spear/internal/shared"
	"github.com/desertthunder/spear/internal/tasks"
	"github.com/desertthunder/spear/internal/ui"
)

// pick launches the interactive picker and re-runs req for the chosen candidate.
//
// Returns a nil result when the user cancels.
func (r *Runner) pick(ctx context.Context, req tasks.Request, candidates []matcher.Candidate) (*tasks.Result, error) {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/spear-tui.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}
	engine := tasks.NewSyncEngine(r.tracks, r.playlists, r.timeline, r.downloader, r.matcher, fileLogger)

	model := ui.NewModel(ctx, engine, req, candidates)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("error running TUI: %w", err)
	}

	if model.Chosen() == nil {
		return nil, nil
	}
	return model.Result()
}
