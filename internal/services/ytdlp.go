package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dhowden/tag"
	"github.com/gosimple/slug"
	"golang.org/x/time/rate"

	"github.com/desertthunder/spear/internal/models"
	"github.com/desertthunder/spear/internal/shared"
)

const (
	defaultCommand     = "yt-dlp"
	defaultAudioFormat = "vorbis"
	fallbackStem       = "track"
)

// audioExtensions maps yt-dlp --audio-format names to the extension of the file it writes.
var audioExtensions = map[string]string{
	"vorbis": "ogg",
	"opus":   "opus",
	"mp3":    "mp3",
	"m4a":    "m4a",
	"aac":    "m4a",
	"flac":   "flac",
	"wav":    "wav",
	"alac":   "m4a",
}

// YTDLPOptions configures [NewYTDLP].
type YTDLPOptions struct {
	Command           string   // executable, defaults to yt-dlp
	Args              []string // extra arguments placed before every invocation
	AudioFormat       string   // --audio-format value, defaults to vorbis
	Dir               string   // library directory
	RequestsPerMinute int      // 0 disables rate limiting
	Executor          Executor // defaults to [ExecRunner]
	Logger            *log.Logger
}

// YTDLP implements [Downloader] with the yt-dlp command line tool.
//
// Only one fetch runs at a time, and every tool invocation waits on the rate limiter.
type YTDLP struct {
	command string
	args    []string
	format  string
	dir     string
	exec    Executor
	limiter *rate.Limiter
	logger  *log.Logger
	mu      sync.Mutex
}

// NewYTDLP creates a yt-dlp backed downloader.
func NewYTDLP(opts YTDLPOptions) *YTDLP {
	if opts.Command == "" {
		opts.Command = defaultCommand
	}
	if opts.AudioFormat == "" {
		opts.AudioFormat = defaultAudioFormat
	}
	if opts.Executor == nil {
		opts.Executor = ExecRunner{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
	}

	return &YTDLP{
		command: opts.Command,
		args:    opts.Args,
		format:  opts.AudioFormat,
		dir:     opts.Dir,
		exec:    opts.Executor,
		limiter: rate.NewLimiter(limit, 1),
		logger:  shared.WithLogger(opts.Logger, "component", "downloader"),
	}
}

// videoInfo is the subset of yt-dlp's --dump-json output we use.
type videoInfo struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Track    string  `json:"track"`
	Artist   string  `json:"artist"`
	Creator  string  `json:"creator"`
	Duration float64 `json:"duration"`
}

type playlistInfo struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Entries []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"entries"`
}

// Fetch downloads the audio of url. See the package documentation for failure classes.
func (y *YTDLP) Fetch(ctx context.Context, url string) models.DownloadOutcome {
	src := DetectSource(url)
	if src.Kind != SourceVideo {
		y.logger.Debug("rejecting input", "url", url, "kind", src.Kind)
		return models.Unsupported()
	}

	y.mu.Lock()
	defer y.mu.Unlock()

	logger := y.logger.With("video", src.ID)

	stdout, outcome, ok := y.invoke(ctx, "--dump-json", "--no-playlist", src.URL)
	if !ok {
		logger.Warn("metadata lookup failed", "kind", outcome.Kind, "reason", outcome.Reason)
		return outcome
	}

	var info videoInfo
	if err := json.Unmarshal(stdout, &info); err != nil {
		return models.Failed(fmt.Sprintf("unreadable metadata from %s: %v", y.command, err), false)
	}

	media := &models.FetchedMedia{
		VideoID:   src.ID,
		SourceURL: src.URL,
		Title:     firstNonEmpty(info.Track, info.Title),
		Artist:    firstNonEmpty(info.Artist, info.Creator),
		Duration:  int(math.Round(info.Duration)),
	}
	if media.Title == "" {
		media.Title = src.ID
	}

	if err := os.MkdirAll(y.dir, 0755); err != nil {
		return models.Failed(fmt.Sprintf("failed to create library directory: %v", err), false)
	}

	stem, err := y.freeStem(media.Title, src.ID)
	if err != nil {
		return models.Failed(err.Error(), false)
	}

	template := filepath.Join(y.dir, stem+".%(ext)s")
	if _, outcome, ok := y.invoke(ctx,
		"-x", "--audio-format", y.format,
		"--no-playlist", "--no-overwrites",
		"-o", template,
		src.URL,
	); !ok {
		logger.Warn("download failed", "kind", outcome.Kind, "reason", outcome.Reason)
		return outcome
	}

	path, err := y.written(stem)
	if err != nil {
		return models.Failed(err.Error(), false)
	}
	media.Path = path

	if media.Artist == "" {
		media.Artist = embeddedArtist(path)
	}

	logger.Info("fetched", "title", media.Title, "path", media.Path)
	return models.Fetched(media)
}

// FetchPlaylist lists the entries of a playlist URL without downloading them.
func (y *YTDLP) FetchPlaylist(ctx context.Context, url string) (*RemotePlaylist, models.DownloadOutcome) {
	src := DetectSource(url)
	if src.Kind != SourcePlaylist {
		return nil, models.Unsupported()
	}

	y.mu.Lock()
	defer y.mu.Unlock()

	stdout, outcome, ok := y.invoke(ctx, "--flat-playlist", "--dump-single-json", src.URL)
	if !ok {
		y.logger.Warn("playlist listing failed", "playlist", src.ID, "kind", outcome.Kind, "reason", outcome.Reason)
		return nil, outcome
	}

	var info playlistInfo
	if err := json.Unmarshal(stdout, &info); err != nil {
		return nil, models.Failed(fmt.Sprintf("unreadable playlist from %s: %v", y.command, err), false)
	}

	playlist := &RemotePlaylist{
		ID:    firstNonEmpty(info.ID, src.ID),
		Title: firstNonEmpty(info.Title, src.ID),
		URL:   src.URL,
	}
	for _, e := range info.Entries {
		if e.ID == "" {
			continue
		}
		playlist.Entries = append(playlist.Entries, RemoteEntry{VideoID: e.ID, Title: e.Title, URL: watchURL + e.ID})
	}

	return playlist, models.Fetched(nil)
}

// invoke runs the tool once. ok is false when the outcome should be returned as is.
func (y *YTDLP) invoke(ctx context.Context, args ...string) ([]byte, models.DownloadOutcome, bool) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, models.Failed(fmt.Sprintf("interrupted: %v", err), true), false
	}

	full := append(append([]string{}, y.args...), args...)
	y.logger.Debug("running", "command", y.command, "args", full)

	stdout, stderr, err := y.exec.Run(ctx, y.command, full...)
	if err != nil {
		return nil, classify(err, stderr), false
	}
	return stdout, models.DownloadOutcome{}, true
}

// freeStem returns "<slug>-<id>", or "<slug>-<id>-<n>" when a file with that stem already exists.
func (y *YTDLP) freeStem(title, id string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = fallbackStem
	}
	base += "-" + id

	stem := base
	for n := 2; ; n++ {
		taken, err := y.stemTaken(stem)
		if err != nil {
			return "", err
		}
		if !taken {
			return stem, nil
		}
		stem = base + "-" + strconv.Itoa(n)
	}
}

func (y *YTDLP) stemTaken(stem string) (bool, error) {
	matches, err := filepath.Glob(filepath.Join(y.dir, stem+".*"))
	if err != nil {
		return false, fmt.Errorf("failed to inspect library directory: %w", err)
	}
	return len(matches) > 0, nil
}

// written locates the file the tool produced for stem, preferring the configured format's extension.
func (y *YTDLP) written(stem string) (string, error) {
	if ext, ok := audioExtensions[y.format]; ok {
		path := filepath.Join(y.dir, stem+"."+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	matches, err := filepath.Glob(filepath.Join(y.dir, stem+".*"))
	if err != nil {
		return "", fmt.Errorf("failed to inspect library directory: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%s reported success but wrote no file for %s", y.command, stem)
	}
	return matches[0], nil
}

// embeddedArtist reads the artist tag of a downloaded file, or "" when there is none.
func embeddedArtist(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return ""
	}
	return firstNonEmpty(m.Artist(), m.AlbumArtist())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
