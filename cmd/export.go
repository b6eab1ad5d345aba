package main

import (
	"context"
	"time"

	"github.com/desertthunder/spear/internal/formatter"
	"github.com/urfave/cli/v3"
)

// ExportCSV writes a CSV snapshot of every table.
func (r *Runner) ExportCSV(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	snapshot := formatter.LibrarySnapshot{}
	var err error
	if snapshot.Tracks, err = r.tracks.List(nil); err != nil {
		return err
	}
	if snapshot.Playlists, err = r.playlists.List(nil); err != nil {
		return err
	}
	for _, p := range snapshot.Playlists {
		entries, err := r.playlists.Entries(ctx, p.ID())
		if err != nil {
			return err
		}
		snapshot.Entries = append(snapshot.Entries, entries...)
	}
	if snapshot.Events, err = r.timeline.List(ctx); err != nil {
		return err
	}

	result, err := formatter.WriteCSVExport(snapshot, cmd.String("dir"), time.Now())
	if err != nil {
		return err
	}

	r.logger.Info("export complete", "dir", result.Directory)
	r.writePlain("✓ Exported to %s\n", result.Directory)
	for _, table := range []string{"tracks", "playlists", "playlist_entries", "timeline_events"} {
		r.writePlain("  %s\n", result.Files[table])
	}
	return nil
}
