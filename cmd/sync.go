package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/spear/internal/models"
	"github.com/desertthunder/spear/internal/shared"
	"github.com/desertthunder/spear/internal/tasks"
	"github.com/desertthunder/spear/internal/ui"
	"github.com/urfave/cli/v3"
)

// parsePlayback builds the listen to record. A bare --elapsed implies a partial listen.
func parsePlayback(kind string, elapsed time.Duration) (*models.PlaybackOutcome, error) {
	if kind == "" && elapsed == 0 {
		return nil, nil
	}
	if kind == "" {
		kind = string(models.PlaybackPartial)
	}

	k, err := models.ParsePlaybackKind(kind)
	if err != nil {
		return nil, err
	}
	outcome := &models.PlaybackOutcome{Kind: k, Elapsed: elapsed}
	if err := outcome.Validate(); err != nil {
		return nil, err
	}
	return outcome, nil
}

// Add resolves the input to a track and applies --playlist and --listen.
func (r *Runner) Add(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	req := tasks.Request{Input: cmd.StringArg("input"), TrackID: cmd.String("track")}
	if req.Input == "" && req.TrackID == "" {
		return fmt.Errorf("%w: a URL, a search query or --track", shared.ErrMissingArgument)
	}

	if ref := cmd.String("playlist"); ref != "" {
		playlist, err := r.findPlaylist(ref)
		if err != nil {
			return err
		}
		req.PlaylistID = playlist.ID()
	}

	playback, err := parsePlayback(cmd.String("listen"), cmd.Duration("elapsed"))
	if err != nil {
		return err
	}
	req.Playback = playback

	r.logger.Debug("sync requested", "input", req.Input, "track", req.TrackID, "playlist", req.PlaylistID)

	progress, stop := r.drainProgress()
	res, err := r.engine.Sync(ctx, req, progress)
	stop()
	if err != nil {
		return err
	}

	if res.State == tasks.StateResolving && cmd.Bool("pick") && len(res.Candidates) > 0 {
		picked, err := r.pick(ctx, req, res.Candidates)
		if err != nil {
			return err
		}
		if picked == nil {
			return r.writePlain("Cancelled\n")
		}
		res = picked
	}

	return r.writeResult(res)
}

// writeResult renders a sync result. Failed results are returned as errors.
func (r *Runner) writeResult(res *tasks.Result) error {
	switch res.State {
	case tasks.StateDone:
		r.writePlain("%s\n", ui.Success("✓ "+res.Track.Label()))
		if res.Outcome != nil {
			switch res.Outcome.Kind {
			case models.DownloadFetched:
				if res.Created {
					r.writePlain("  downloaded to %s\n", res.Track.Path())
				} else {
					r.writePlain("  refreshed %s\n", res.Track.Path())
				}
			case models.DownloadAlreadyPresent:
				r.writePlain("  already in library at %s\n", res.Track.Path())
			}
		}
		if res.Entry != nil {
			r.writePlain("  added to playlist at position %d\n", res.Entry.Position)
		}
		if res.Event != nil {
			r.writePlain("  recorded %s listen\n", res.Event.Outcome)
		}
		r.writePlain("  id: %s\n", res.Track.ID())
		return nil

	case tasks.StateResolving:
		if len(res.Candidates) == 0 {
			r.writePlain("%s\n", ui.Warning("No track in the library matches"))
			return nil
		}
		r.writePlain("%s\n", ui.Warning(fmt.Sprintf("%d tracks match; choose one with --track <id> or --pick", len(res.Candidates))))
		for i, c := range res.Candidates {
			r.writePlain("  %2d. [%.2f] %s  %s\n", i+1, c.Score, c.Track.ID(), c.Track.Label())
		}
		return nil

	default:
		r.writePlain("%s\n", ui.Failure("✗ "+res.Reason()))
		if pf, ok := res.Partial(); ok && res.Track != nil {
			r.writePlain("  %s is in the library (id %s); the %s update was not applied\n",
				res.Track.Label(), res.Track.ID(), pf.Subsystem)
		}
		if res.Outcome != nil && res.Outcome.Kind == models.DownloadFailed && res.Outcome.Retryable {
			r.writePlain("  %s\n", ui.Hint("this looks temporary; try again later"))
		}
		return fmt.Errorf("sync %s: %w", res.State, res.Err)
	}
}

// Search ranks library tracks against the query.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	tracks, err := r.tracks.List(nil)
	if err != nil {
		return err
	}
	candidates := r.matcher.Rank(query, tracks)

	if cmd.Bool("json") {
		type hit struct {
			ID     string  `json:"id"`
			Title  string  `json:"title"`
			Artist string  `json:"artist"`
			Score  float64 `json:"score"`
		}
		hits := make([]hit, len(candidates))
		for i, c := range candidates {
			hits[i] = hit{c.Track.ID(), c.Track.Title(), c.Track.Artist(), c.Score}
		}
		return r.writeJSON(hits, true)
	}

	if len(candidates) == 0 {
		return r.writePlain("No matches for %q\n", query)
	}
	for i, c := range candidates {
		r.writePlain("%2d. [%.2f] %s  %s (%s)\n", i+1, c.Score, c.Track.ID(), c.Track.Label(), shared.FormatDuration(c.Track.Duration()))
	}
	return nil
}

// Import downloads a YouTube playlist into a new local playlist.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	url := cmd.StringArg("url")
	if url == "" {
		return fmt.Errorf("%w: playlist URL", shared.ErrMissingArgument)
	}

	r.logger.Info("starting import", "url", url)

	progress, stop := r.drainProgress()
	res, err := r.engine.SyncPlaylist(ctx, url, progress)
	stop()

	if res.Playlist != nil {
		r.writePlainHeader("Import " + res.State.String())
		r.writePlain("Playlist: %s\n", res.Playlist.Name())
		if res.Resumed {
			r.writePlain("Resumed an earlier import of %s\n", url)
		}
		r.writePlain("Added: %d/%d\n", res.Added(), len(res.Remote.Entries))

		if failed := res.Failed(); len(failed) > 0 {
			r.writePlain("\nFailed %d tracks:\n", len(failed))
			for _, item := range failed {
				r.writePlain("  - %s\n", item.Summary())
			}
		}
	}

	if err != nil {
		return err
	}
	if res.State == tasks.StateFailed {
		return fmt.Errorf("import failed: %w", res.Err)
	}
	return nil
}

// UpdateTool exits with the update status so the wrapper script updates yt-dlp.
func (r *Runner) UpdateTool(ctx context.Context, cmd *cli.Command) error {
	return fmt.Errorf("%w: update requested", shared.ErrToolOutdated)
}
