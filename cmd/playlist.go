package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/spear/internal/formatter"
	"github.com/desertthunder/spear/internal/models"
	"github.com/desertthunder/spear/internal/shared"
	"github.com/urfave/cli/v3"
)

func parsePosition(name, value string) (int, error) {
	if value == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", shared.ErrInvalidArgument, name, value)
	}
	return n, nil
}

// PlaylistCreate creates an empty playlist.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	playlist := models.NewPlaylist(cmd.StringArg("name"), cmd.String("description"))
	if err := r.playlists.Create(playlist); err != nil {
		return err
	}
	r.logger.Info("playlist created", "id", playlist.ID(), "name", playlist.Name())
	return r.writePlain("✓ Created %s (%s)\n", playlist.Name(), playlist.ID())
}

// PlaylistList prints every playlist with its entry count.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	criteria := map[string]any{}
	if name := cmd.String("name"); name != "" {
		criteria["name"] = name
	}
	playlists, err := r.playlists.List(criteria)
	if err != nil {
		return err
	}

	if len(playlists) == 0 {
		return r.writePlain("No playlists\n")
	}
	for _, p := range playlists {
		entries, err := r.playlists.Entries(ctx, p.ID())
		if err != nil {
			return err
		}
		r.writePlain("%s  %s (%d tracks)\n", p.ID(), p.Name(), len(entries))
	}
	return nil
}

// playlistExport loads a playlist's tracks in entry order.
func (r *Runner) playlistExport(ctx context.Context, playlist *models.Playlist) (*formatter.PlaylistExport, error) {
	entries, err := r.playlists.Entries(ctx, playlist.ID())
	if err != nil {
		return nil, err
	}

	export := &formatter.PlaylistExport{Playlist: playlist, Tracks: make([]*models.Track, 0, len(entries))}
	for _, entry := range entries {
		track, err := r.tracks.Get(entry.TrackID)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", entry.Position, err)
		}
		export.Tracks = append(export.Tracks, track)
	}
	return export, nil
}

// PlaylistShow renders a playlist as text, Markdown or JSON.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	playlist, err := r.findPlaylist(cmd.StringArg("playlist"))
	if err != nil {
		return err
	}
	export, err := r.playlistExport(ctx, playlist)
	if err != nil {
		return err
	}

	data, err := formatter.Render(export, cmd.String("format"))
	if err != nil {
		return err
	}

	if out := cmd.String("output"); out != "" {
		if err := os.WriteFile(out, data, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return r.writePlain("✓ Written to %s\n", out)
	}
	_, err = r.output.Write(data)
	return err
}

// PlaylistRemove removes one entry by position, or every entry of --track.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	playlist, err := r.findPlaylist(cmd.StringArg("playlist"))
	if err != nil {
		return err
	}

	if trackID := cmd.String("track"); trackID != "" {
		n, err := r.playlists.RemoveTrack(ctx, playlist.ID(), trackID)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Removed %d entries from %s\n", n, playlist.Name())
	}

	position, err := parsePosition("position", cmd.StringArg("position"))
	if err != nil {
		return err
	}
	if err := r.playlists.Remove(ctx, playlist.ID(), position); err != nil {
		return err
	}
	return r.writePlain("✓ Removed position %d from %s\n", position, playlist.Name())
}

// PlaylistMove moves an entry between positions.
func (r *Runner) PlaylistMove(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	playlist, err := r.findPlaylist(cmd.StringArg("playlist"))
	if err != nil {
		return err
	}
	from, err := parsePosition("from", cmd.StringArg("from"))
	if err != nil {
		return err
	}
	to, err := parsePosition("to", cmd.StringArg("to"))
	if err != nil {
		return err
	}

	if err := r.playlists.Move(ctx, playlist.ID(), from, to); err != nil {
		return err
	}
	return r.writePlain("✓ Moved %d → %d in %s\n", from, to, playlist.Name())
}

// PlaylistInsert places a track at a position.
func (r *Runner) PlaylistInsert(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	playlist, err := r.findPlaylist(cmd.StringArg("playlist"))
	if err != nil {
		return err
	}
	position, err := parsePosition("position", cmd.StringArg("position"))
	if err != nil {
		return err
	}
	trackID := cmd.StringArg("track")
	if trackID == "" {
		return fmt.Errorf("%w: track ID", shared.ErrMissingArgument)
	}

	entry, err := r.playlists.Insert(ctx, playlist.ID(), trackID, position)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Inserted at position %d in %s\n", entry.Position, playlist.Name())
}

// PlaylistClear removes every entry of a playlist.
func (r *Runner) PlaylistClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	playlist, err := r.findPlaylist(cmd.StringArg("playlist"))
	if err != nil {
		return err
	}
	n, err := r.playlists.Clear(ctx, playlist.ID())
	if err != nil {
		return err
	}
	return r.writePlain("✓ Cleared %d entries from %s\n", n, playlist.Name())
}

// PlaylistShuffle reorders a playlist randomly.
func (r *Runner) PlaylistShuffle(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	playlist, err := r.findPlaylist(cmd.StringArg("playlist"))
	if err != nil {
		return err
	}
	if err := r.playlists.Shuffle(ctx, playlist.ID()); err != nil {
		return err
	}
	return r.writePlain("✓ Shuffled %s\n", playlist.Name())
}

// PlaylistDuplicate copies a playlist. Without a name the copy is called "<name> (n)".
func (r *Runner) PlaylistDuplicate(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	playlist, err := r.findPlaylist(cmd.StringArg("playlist"))
	if err != nil {
		return err
	}
	copied, err := r.playlists.Duplicate(ctx, playlist.ID(), cmd.StringArg("name"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Copied %s to %s (%s)\n", playlist.Name(), copied.Name(), copied.ID())
}

// PlaylistDelete deletes a playlist with its entries.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	playlist, err := r.findPlaylist(cmd.StringArg("playlist"))
	if err != nil {
		return err
	}
	if err := r.playlists.Delete(playlist.ID()); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %s\n", playlist.Name())
}
