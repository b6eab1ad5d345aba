package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spear/internal/matcher"
	"github.com/desertthunder/spear/internal/models"
	"github.com/desertthunder/spear/internal/services"
	"github.com/desertthunder/spear/internal/shared"
)

// State is the position of a sync in its state machine.
type State int

const (
	StateResolving State = iota
	StateFetching
	StatePersisting
	StateDone
	StateFailed
	StateNeedsToolUpdate
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "Resolving"
	case StateFetching:
		return "Fetching"
	case StatePersisting:
		return "Persisting"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	case StateNeedsToolUpdate:
		return "NeedsToolUpdate"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further step follows s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateNeedsToolUpdate
}

// Subsystem names the store a persisting sub-update was written to.
type Subsystem string

const (
	SubsystemPlaylist Subsystem = "playlist"
	SubsystemTimeline Subsystem = "timeline"
)

// PartialFailure reports a sub-update that failed after the track was already stored.
type PartialFailure struct {
	Subsystem Subsystem
	Cause     error
}

func (p *PartialFailure) Error() string {
	return fmt.Sprintf("%s update failed: %v", p.Subsystem, p.Cause)
}

func (p *PartialFailure) Unwrap() error { return p.Cause }

// Request describes one user action.
//
// Input is a URL or a free-text query. TrackID, when set, skips resolution; it is how a caller
// answers a sync that stopped in [StateResolving].
type Request struct {
	Input      string
	TrackID    string
	PlaylistID string                  // append the track to this playlist
	SkipListed bool                    // leave the playlist alone if it already lists the track
	Playback   *models.PlaybackOutcome // record a listen
}

// Result is the final state of a sync and everything it produced.
type Result struct {
	State      State
	Track      *models.Track
	Created    bool                    // Track was inserted by this sync
	Outcome    *models.DownloadOutcome // nil when no download was attempted
	Candidates []matcher.Candidate     // ranked matches for free-text input
	Entry      *models.PlaylistEntry
	Event      *models.TimelineEvent
	Err        error
}

// Reason explains a result that is not Done.
func (r *Result) Reason() string {
	switch {
	case r.State == StateDone:
		return ""
	case r.Err != nil:
		return r.Err.Error()
	case r.State == StateResolving && len(r.Candidates) == 0:
		return "no track in the library matches"
	case r.State == StateResolving:
		return fmt.Sprintf("%d candidates need a choice", len(r.Candidates))
	default:
		return r.State.String()
	}
}

// Partial returns the failed sub-update, if any.
func (r *Result) Partial() (*PartialFailure, bool) {
	var pf *PartialFailure
	if errors.As(r.Err, &pf) {
		return pf, true
	}
	return nil, false
}

// Summary is a one-line description for progress output.
func (r *Result) Summary() string {
	if r.Track != nil && r.State == StateDone {
		return r.Track.Label()
	}
	if r.Track != nil {
		return fmt.Sprintf("%s (%s)", r.Track.Label(), r.Reason())
	}
	return r.Reason()
}

// TrackStore is the part of the track repository the engine needs.
type TrackStore interface {
	Get(id string) (*models.Track, error)
	List(criteria map[string]any) ([]*models.Track, error)
	GetBySource(ctx context.Context, sourceURL string) (*models.Track, error)
	UpsertBySource(ctx context.Context, sourceURL string, fields models.TrackFields) (*models.Track, bool, error)
}

// PlaylistStore is the part of the playlist repository the engine needs.
type PlaylistStore interface {
	Create(playlist *models.Playlist) error
	GetBySource(ctx context.Context, sourceURL string) (*models.Playlist, error)
	UniqueName(ctx context.Context, base string) (string, error)
	Contains(ctx context.Context, playlistID, trackID string) (bool, error)
	Append(ctx context.Context, playlistID, trackID string) (*models.PlaylistEntry, error)
}

// TimelineStore records listens.
type TimelineStore interface {
	Record(ctx context.Context, trackID string, outcome models.PlaybackOutcome) (*models.TimelineEvent, error)
}

// SyncEngine resolves inputs to tracks and applies library updates.
type SyncEngine struct {
	tracks     TrackStore
	playlists  PlaylistStore
	timeline   TimelineStore
	downloader services.Downloader
	matcher    *matcher.Matcher
	logger     *log.Logger
	fileExists func(path string) bool
}

// NewSyncEngine creates a SyncEngine over the given stores and downloader.
func NewSyncEngine(
	tracks TrackStore,
	playlists PlaylistStore,
	timeline TimelineStore,
	downloader services.Downloader,
	m *matcher.Matcher,
	logger *log.Logger,
) *SyncEngine {
	if m == nil {
		m = matcher.New(matcher.DefaultOptions())
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SyncEngine{
		tracks:     tracks,
		playlists:  playlists,
		timeline:   timeline,
		downloader: downloader,
		matcher:    m,
		logger:     shared.WithLogger(logger, "component", "sync"),
		fileExists: fileExists,
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// sendProgress sends a progress update through the channel without blocking.
func (e *SyncEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Sync runs one action through Resolving, Fetching and Persisting.
//
// The returned error is non-nil only when the download tool must be updated; it wraps
// [shared.ErrToolOutdated]. Every other outcome, including failures, is described by the Result.
func (e *SyncEngine) Sync(ctx context.Context, req Request, progress chan<- ProgressUpdate) (*Result, error) {
	res := &Result{State: StateResolving}
	input := strings.TrimSpace(req.Input)

	switch {
	case req.TrackID != "":
		track, err := e.tracks.Get(req.TrackID)
		if err != nil {
			return e.fail(res, err), nil
		}
		res.Track = track
	case input == "":
		return e.fail(res, fmt.Errorf("%w: nothing to resolve", shared.ErrInvalidInput)), nil
	case services.LooksLikeURL(input):
		src := services.DetectSource(input)
		switch src.Kind {
		case services.SourceVideo:
			if err := e.fetch(ctx, src, res, progress); err != nil {
				return res, err
			}
			if res.State.Terminal() {
				return res, nil
			}
		case services.SourcePlaylist:
			return e.fail(res, fmt.Errorf("%w: playlist URLs are imported, not added", shared.ErrUnsupportedSource)), nil
		default:
			outcome := models.Unsupported()
			res.Outcome = &outcome
			return e.fail(res, fmt.Errorf("%w: %s", shared.ErrUnsupportedSource, input)), nil
		}
	default:
		if !e.resolve(input, res, progress) {
			return res, nil
		}
	}

	e.persist(ctx, req, res, progress)
	return res, nil
}

// resolve ranks the library against a free-text query and reports whether a single
// track was accepted.
func (e *SyncEngine) resolve(query string, res *Result, progress chan<- ProgressUpdate) bool {
	e.sendProgress(progress, resolvingUpdate(query))

	snapshot, err := e.tracks.List(nil)
	if err != nil {
		e.fail(res, err)
		return false
	}

	res.Candidates = e.matcher.Rank(query, snapshot)
	e.sendProgress(progress, candidatesUpdate(len(res.Candidates)))

	best, ok := e.matcher.AutoAccepted(res.Candidates)
	if !ok {
		e.logger.Debug("awaiting disambiguation", "query", query, "candidates", len(res.Candidates))
		return false
	}
	e.logger.Debug("auto-accepted", "query", query, "track", best.Track.ID(), "score", best.Score)
	res.Track = best.Track
	return true
}

// fetch moves res through Fetching. A non-nil error means the tool is outdated.
func (e *SyncEngine) fetch(ctx context.Context, src services.Source, res *Result, progress chan<- ProgressUpdate) error {
	res.State = StateFetching

	existing, err := e.tracks.GetBySource(ctx, src.URL)
	switch {
	case err == nil && e.fileExists(existing.Path()):
		outcome := models.AlreadyPresent(existing)
		res.Outcome = &outcome
		res.Track = existing
		e.sendProgress(progress, alreadyPresentUpdate(existing))
		return nil
	case err == nil:
		e.logger.Info("file missing, downloading again", "track", existing.ID(), "path", existing.Path())
	case !errors.Is(err, shared.ErrNotFound):
		e.fail(res, err)
		return nil
	}

	e.sendProgress(progress, fetchingUpdate(src.URL))
	outcome := e.downloader.Fetch(ctx, src.URL)
	res.Outcome = &outcome

	switch outcome.Kind {
	case models.DownloadFetched:
		sourceURL := outcome.Media.SourceURL
		if sourceURL == "" {
			sourceURL = src.URL
		}
		track, created, err := e.tracks.UpsertBySource(ctx, sourceURL, outcome.Media.Fields())
		if err != nil {
			e.fail(res, err)
			return nil
		}
		res.Track = track
		res.Created = created
		e.logger.Info("fetched", "track", track.ID(), "created", created, "path", track.Path())
		return nil
	case models.DownloadAlreadyPresent:
		res.Track = outcome.Existing
		return nil
	case models.DownloadToolOutdated:
		res.State = StateNeedsToolUpdate
		res.Err = fmt.Errorf("%w: %s", shared.ErrToolOutdated, outcome.Reason)
		e.logger.Error("download tool is out of date", "reason", outcome.Reason)
		return res.Err
	case models.DownloadUnsupported:
		e.fail(res, fmt.Errorf("%w: %s", shared.ErrUnsupportedSource, src.URL))
		return nil
	default:
		e.fail(res, fmt.Errorf("%w: %s", shared.ErrFetchFailed, outcome.Reason))
		return nil
	}
}

// persist applies the requested sub-updates in order, stopping at the first failure.
func (e *SyncEngine) persist(ctx context.Context, req Request, res *Result, progress chan<- ProgressUpdate) {
	res.State = StatePersisting

	total := 0
	if req.PlaylistID != "" {
		total++
	}
	if req.Playback != nil {
		total++
	}
	step := 0

	if req.PlaylistID != "" {
		step++
		e.sendProgress(progress, persistingUpdate(step, total, "Adding to playlist"))
		if err := e.appendTo(ctx, req, res); err != nil {
			e.fail(res, &PartialFailure{Subsystem: SubsystemPlaylist, Cause: err})
			return
		}
	}

	if req.Playback != nil {
		step++
		e.sendProgress(progress, persistingUpdate(step, total, "Recording listen"))
		event, err := e.timeline.Record(ctx, res.Track.ID(), *req.Playback)
		if err != nil {
			e.fail(res, &PartialFailure{Subsystem: SubsystemTimeline, Cause: err})
			return
		}
		res.Event = event
	}

	res.State = StateDone
}

func (e *SyncEngine) appendTo(ctx context.Context, req Request, res *Result) error {
	if req.SkipListed {
		listed, err := e.playlists.Contains(ctx, req.PlaylistID, res.Track.ID())
		if err != nil {
			return err
		}
		if listed {
			e.logger.Debug("already listed", "playlist", req.PlaylistID, "track", res.Track.ID())
			return nil
		}
	}

	entry, err := e.playlists.Append(ctx, req.PlaylistID, res.Track.ID())
	if err != nil {
		return err
	}
	res.Entry = entry
	return nil
}

func (e *SyncEngine) fail(res *Result, err error) *Result {
	res.State = StateFailed
	res.Err = err
	e.logger.Warn("sync failed", "error", err)
	return res
}

// PlaylistResult is the outcome of a playlist import.
type PlaylistResult struct {
	State    State
	Remote   *services.RemotePlaylist
	Playlist *models.Playlist
	Resumed  bool // Playlist came from an earlier import of the same URL
	Items    []*Result
	Outcome  models.DownloadOutcome
	Err      error
}

// Added counts the entries that ended in Done.
func (r *PlaylistResult) Added() int {
	n := 0
	for _, item := range r.Items {
		if item.State == StateDone {
			n++
		}
	}
	return n
}

// Failed returns the entries that did not end in Done.
func (r *PlaylistResult) Failed() []*Result {
	var failed []*Result
	for _, item := range r.Items {
		if item.State != StateDone {
			failed = append(failed, item)
		}
	}
	return failed
}

// SyncPlaylist imports a remote playlist into a local playlist.
//
// The first import of a URL creates a playlist named after the remote title. Later imports of the
// same URL resume into that playlist: tracks it already lists are not appended again. Each entry
// goes through [SyncEngine.Sync]; entries that fail are reported and skipped. An outdated tool
// aborts the import and is returned as an error, and re-running the import picks up from there.
func (e *SyncEngine) SyncPlaylist(ctx context.Context, url string, progress chan<- ProgressUpdate) (*PlaylistResult, error) {
	res := &PlaylistResult{State: StateFetching}

	src := services.DetectSource(url)
	if src.Kind != services.SourcePlaylist {
		res.Outcome = models.Unsupported()
		res.State = StateFailed
		res.Err = fmt.Errorf("%w: not a playlist URL: %s", shared.ErrUnsupportedSource, url)
		return res, nil
	}

	e.sendProgress(progress, fetchingUpdate(src.URL))
	remote, outcome := e.downloader.FetchPlaylist(ctx, src.URL)
	res.Outcome = outcome
	switch outcome.Kind {
	case models.DownloadFetched:
	case models.DownloadToolOutdated:
		res.State = StateNeedsToolUpdate
		res.Err = fmt.Errorf("%w: %s", shared.ErrToolOutdated, outcome.Reason)
		return res, res.Err
	case models.DownloadUnsupported:
		res.State = StateFailed
		res.Err = fmt.Errorf("%w: %s", shared.ErrUnsupportedSource, url)
		return res, nil
	default:
		res.State = StateFailed
		res.Err = fmt.Errorf("%w: %s", shared.ErrFetchFailed, outcome.Reason)
		return res, nil
	}
	res.Remote = remote
	e.sendProgress(progress, importListedUpdate(remote))

	playlist, resumed, err := e.importTarget(ctx, src.URL, remote)
	if err != nil {
		res.State = StateFailed
		res.Err = err
		return res, nil
	}
	res.Playlist = playlist
	res.Resumed = resumed
	res.State = StatePersisting
	e.logger.Info("importing playlist", "name", playlist.Name(), "entries", len(remote.Entries), "resumed", resumed)

	total := len(remote.Entries)
	for i, entry := range remote.Entries {
		e.sendProgress(progress, importEntryUpdate(i+1, total, entry))

		item, err := e.Sync(ctx, Request{Input: entry.URL, PlaylistID: playlist.ID(), SkipListed: resumed}, nil)
		res.Items = append(res.Items, item)
		if err != nil {
			res.State = StateNeedsToolUpdate
			res.Err = err
			return res, err
		}
		e.sendProgress(progress, importEntryDoneUpdate(i+1, total, item))
	}

	res.State = StateDone
	return res, nil
}

// importTarget returns the playlist an earlier import of sourceURL created, or creates one.
func (e *SyncEngine) importTarget(ctx context.Context, sourceURL string, remote *services.RemotePlaylist) (*models.Playlist, bool, error) {
	existing, err := e.playlists.GetBySource(ctx, sourceURL)
	switch {
	case err == nil:
		return existing, true, nil
	case !errors.Is(err, shared.ErrNotFound):
		return nil, false, err
	}

	title := remote.Title
	if strings.TrimSpace(title) == "" {
		title = "Playlist " + remote.ID
	}
	name, err := e.playlists.UniqueName(ctx, title)
	if err != nil {
		return nil, false, err
	}

	playlist := models.NewPlaylist(name, "Downloaded from YouTube: "+sourceURL)
	playlist.SetSourceURL(sourceURL)
	if err := e.playlists.Create(playlist); err != nil {
		return nil, false, err
	}
	return playlist, false, nil
}
