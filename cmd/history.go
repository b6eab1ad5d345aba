package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/spear/internal/shared"
	"github.com/desertthunder/spear/internal/tasks"
	"github.com/urfave/cli/v3"
)

// HistoryRecord records a listen of a library track through the sync engine.
func (r *Runner) HistoryRecord(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	trackID := cmd.StringArg("track")
	if trackID == "" {
		return fmt.Errorf("%w: track ID", shared.ErrMissingArgument)
	}

	outcome := cmd.String("outcome")
	if outcome == "" && cmd.Duration("elapsed") == 0 {
		outcome = "completed"
	}
	playback, err := parsePlayback(outcome, cmd.Duration("elapsed"))
	if err != nil {
		return err
	}

	res, err := r.engine.Sync(ctx, tasks.Request{TrackID: trackID, Playback: playback}, nil)
	if err != nil {
		return err
	}
	return r.writeResult(res)
}

// HistoryRecent prints the latest listens of a track, newest first.
func (r *Runner) HistoryRecent(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	trackID := cmd.StringArg("track")
	track, err := r.tracks.Get(trackID)
	if err != nil {
		return err
	}

	events, err := r.timeline.RecentFor(ctx, trackID, cmd.Int("limit"))
	if err != nil {
		return err
	}

	r.writePlainHeader(track.Label())
	if len(events) == 0 {
		return r.writePlain("No listens recorded\n")
	}
	for _, e := range events {
		line := fmt.Sprintf("%s  %s", e.OccurredAt.Local().Format("2006-01-02 15:04"), e.Outcome)
		if e.Elapsed > 0 {
			line += fmt.Sprintf(" at %s", e.Elapsed.Round(time.Second))
		}
		r.writePlain("%s\n", line)
	}
	return nil
}

// HistoryTop prints the most completed tracks, optionally within --since.
func (r *Runner) HistoryTop(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	var since time.Time
	if d := cmd.Duration("since"); d > 0 {
		since = time.Now().UTC().Add(-d)
	}

	top, err := r.timeline.TopTracks(ctx, since, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if len(top) == 0 {
		return r.writePlain("No completed listens\n")
	}
	for i, plays := range top {
		label := plays.TrackID
		if track, err := r.tracks.Get(plays.TrackID); err == nil {
			label = track.Label()
		}
		r.writePlain("%2d. %s  (%d plays, last %s)\n", i+1, label, plays.Plays, plays.LastPlayed.Local().Format("2006-01-02"))
	}
	return nil
}
