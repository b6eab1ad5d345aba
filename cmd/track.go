package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spear/internal/shared"
	"github.com/urfave/cli/v3"
)

// TrackList prints library tracks in insertion order.
func (r *Runner) TrackList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	criteria := map[string]any{}
	if artist := cmd.String("artist"); artist != "" {
		criteria["artist"] = artist
	}
	tracks, err := r.tracks.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		type row struct {
			ID        string `json:"id"`
			Title     string `json:"title"`
			Artist    string `json:"artist,omitempty"`
			SourceURL string `json:"source_url,omitempty"`
			Path      string `json:"path,omitempty"`
			Duration  int    `json:"duration"`
		}
		rows := make([]row, len(tracks))
		for i, t := range tracks {
			rows[i] = row{t.ID(), t.Title(), t.Artist(), t.SourceURL(), t.Path(), t.Duration()}
		}
		return r.writeJSON(rows, true)
	}

	if len(tracks) == 0 {
		return r.writePlain("Library is empty\n")
	}
	for _, t := range tracks {
		r.writePlain("%s  %s (%s)\n", t.ID(), t.Label(), shared.FormatDuration(t.Duration()))
	}
	return nil
}

// TrackMedia prints what a player needs to start a track.
func (r *Runner) TrackMedia(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	media, err := r.tracks.Media(ctx, cmd.StringArg("id"))
	if err != nil {
		return err
	}
	return r.writePlain("%s\t%d\n", media.Path, media.Duration)
}

// TrackDelete removes a track from the library and from every playlist.
func (r *Runner) TrackDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: track ID", shared.ErrMissingArgument)
	}
	track, err := r.tracks.Get(id)
	if err != nil {
		return err
	}
	if err := r.tracks.Delete(id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %s\n", track.Label())
}
