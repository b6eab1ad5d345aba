package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spear/internal/models"
	"github.com/desertthunder/spear/internal/services"
	"github.com/desertthunder/spear/internal/shared"
	tu "github.com/desertthunder/spear/internal/testing"
)

type fakeDownloader struct {
	outcome func(url string) models.DownloadOutcome
	calls   int
}

func (f *fakeDownloader) Fetch(ctx context.Context, url string) models.DownloadOutcome {
	f.calls++
	return f.outcome(url)
}

func (f *fakeDownloader) FetchPlaylist(ctx context.Context, url string) (*services.RemotePlaylist, models.DownloadOutcome) {
	return nil, models.Failed("playlists are not faked", false)
}

type harness struct {
	runner *Runner
	output *bytes.Buffer
	fake   *fakeDownloader
	dir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h := &harness{output: &bytes.Buffer{}, fake: &fakeDownloader{}, dir: t.TempDir()}
	config := shared.DefaultConfig()
	config.Library.Path = h.dir

	h.runner = NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: filepath.Join(h.dir, "config.toml"),
		Logger:     log.New(io.Discard),
		Output:     h.output,
		DB:         db,
		Downloader: h.fake,
	})
	if err := h.runner.open(); err != nil {
		t.Fatalf("open() error = %v", err)
	}
	return h
}

func (h *harness) run(args ...string) error {
	h.output.Reset()
	return newApp(h.runner).Run(context.Background(), append([]string{"spear"}, args...))
}

func (h *harness) track(t *testing.T, title, artist string) *models.Track {
	t.Helper()
	track := models.NewTrack(models.TrackFields{Title: title, Artist: artist, Duration: 200})
	if err := h.runner.tracks.Create(track); err != nil {
		t.Fatalf("failed to create track: %v", err)
	}
	return track
}

func (h *harness) fetches(t *testing.T, id, title, artist string) {
	h.fake.outcome = func(string) models.DownloadOutcome {
		path := filepath.Join(h.dir, id+".ogg")
		tu.MustWriteFile(t, path, "OggS")
		return models.Fetched(&models.FetchedMedia{
			VideoID:   id,
			SourceURL: "https://www.youtube.com/watch?v=" + id,
			Title:     title,
			Artist:    artist,
			Path:      path,
			Duration:  354,
		})
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			downloader := &fakeDownloader{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				Downloader: downloader,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.downloader != downloader {
				t.Error("expected downloader to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "add", "search", "import", "playlist", "history", "track", "export", "update-tool"} {
			if !names[want] {
				t.Errorf("command %q not registered", want)
			}
		}
	})
}

func TestParsePlayback(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		elapsed time.Duration
		want    *models.PlaybackOutcome
		wantErr bool
	}{
		{"nothing", "", 0, nil, false},
		{"completed", "completed", 0, &models.PlaybackOutcome{Kind: models.PlaybackCompleted}, false},
		{"bare elapsed is partial", "", 90 * time.Second, &models.PlaybackOutcome{Kind: models.PlaybackPartial, Elapsed: 90 * time.Second}, false},
		{"unknown kind", "paused", 0, nil, true},
		{"negative elapsed", "partial", -time.Second, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePlayback(tt.kind, tt.elapsed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePlayback() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.want == nil {
				if got != nil {
					t.Errorf("parsePlayback() = %+v, want nil", got)
				}
				return
			}
			if got == nil || *got != *tt.want {
				t.Errorf("parsePlayback() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCommands(t *testing.T) {
	t.Run("add by query appends to a playlist", func(t *testing.T) {
		h := newHarness(t)
		h.track(t, "Bohemian Rhapsody", "Queen")
		h.track(t, "Hotel California", "Eagles")

		if err := h.run("playlist", "create", "Mix"); err != nil {
			t.Fatalf("playlist create error = %v", err)
		}
		if err := h.run("add", "--playlist", "Mix", "--listen", "completed", "bohemian rhap"); err != nil {
			t.Fatalf("add error = %v", err)
		}

		out := h.output.String()
		for _, want := range []string{"Queen - Bohemian Rhapsody", "position 0", "recorded completed listen"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		if h.fake.calls != 0 {
			t.Errorf("downloader called %d times, want 0", h.fake.calls)
		}

		if err := h.run("playlist", "show", "Mix"); err != nil {
			t.Fatalf("playlist show error = %v", err)
		}
		if !strings.Contains(h.output.String(), "1. Queen - Bohemian Rhapsody") {
			t.Errorf("show output = %s", h.output.String())
		}
	})

	t.Run("add by url downloads", func(t *testing.T) {
		h := newHarness(t)
		h.fetches(t, "fJ9rUzIMcZQ", "Bohemian Rhapsody", "Queen")

		if err := h.run("add", "https://youtu.be/fJ9rUzIMcZQ"); err != nil {
			t.Fatalf("add error = %v", err)
		}
		if !strings.Contains(h.output.String(), "downloaded to") {
			t.Errorf("output = %s", h.output.String())
		}

		if err := h.run("add", "https://youtu.be/fJ9rUzIMcZQ"); err != nil {
			t.Fatalf("second add error = %v", err)
		}
		if !strings.Contains(h.output.String(), "already in library") || h.fake.calls != 1 {
			t.Errorf("second add output = %s, calls = %d", h.output.String(), h.fake.calls)
		}
	})

	t.Run("ambiguous query lists candidates", func(t *testing.T) {
		h := newHarness(t)
		first := h.track(t, "Intro", "The xx")
		h.track(t, "Intro", "M83")

		if err := h.run("add", "intro"); err != nil {
			t.Fatalf("add error = %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, "2 tracks match") || !strings.Contains(out, first.ID()) {
			t.Errorf("output = %s", out)
		}

		if err := h.run("add", "--track", first.ID(), "--listen", "skipped"); err != nil {
			t.Fatalf("add --track error = %v", err)
		}
		if !strings.Contains(h.output.String(), "recorded skipped listen") {
			t.Errorf("output = %s", h.output.String())
		}
	})

	t.Run("outdated tool propagates", func(t *testing.T) {
		h := newHarness(t)
		h.fake.outcome = func(string) models.DownloadOutcome {
			return models.ToolOutdated("nsig extraction failed")
		}

		err := h.run("add", "https://youtu.be/fJ9rUzIMcZQ")
		if !errors.Is(err, shared.ErrToolOutdated) {
			t.Errorf("add error = %v, want ErrToolOutdated", err)
		}
		if err := h.run("update-tool"); !errors.Is(err, shared.ErrToolOutdated) {
			t.Errorf("update-tool error = %v, want ErrToolOutdated", err)
		}
	})

	t.Run("failed fetch is an error with a reason", func(t *testing.T) {
		h := newHarness(t)
		h.fake.outcome = func(string) models.DownloadOutcome {
			return models.Failed("HTTP Error 503", true)
		}

		err := h.run("add", "https://youtu.be/fJ9rUzIMcZQ")
		if !errors.Is(err, shared.ErrFetchFailed) {
			t.Errorf("add error = %v, want ErrFetchFailed", err)
		}
		if !strings.Contains(h.output.String(), "503") {
			t.Errorf("output = %s", h.output.String())
		}
	})

	t.Run("playlist editing", func(t *testing.T) {
		h := newHarness(t)
		a := h.track(t, "Alpha", "")
		b := h.track(t, "Beta", "")
		c := h.track(t, "Gamma", "")

		if err := h.run("playlist", "create", "Edit"); err != nil {
			t.Fatalf("create error = %v", err)
		}
		for _, track := range []*models.Track{a, b, c, a} {
			if err := h.run("add", "--playlist", "Edit", "--track", track.ID()); err != nil {
				t.Fatalf("add error = %v", err)
			}
		}

		if err := h.run("playlist", "move", "Edit", "2", "0"); err != nil {
			t.Fatalf("move error = %v", err)
		}
		if err := h.run("playlist", "remove", "--track", a.ID(), "Edit"); err != nil {
			t.Fatalf("remove --track error = %v", err)
		}
		if !strings.Contains(h.output.String(), "Removed 2 entries") {
			t.Errorf("output = %s", h.output.String())
		}

		if err := h.run("playlist", "show", "--format", "txt", "Edit"); err != nil {
			t.Fatalf("show error = %v", err)
		}
		if out := h.output.String(); !strings.Contains(out, "1. Gamma\n2. Beta") {
			t.Errorf("show output = %s", out)
		}

		if err := h.run("playlist", "move", "Edit", "0", "9"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("out of range move error = %v", err)
		}
		if err := h.run("playlist", "remove", "Edit", "first"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("non-numeric position error = %v", err)
		}

		if err := h.run("playlist", "delete", "Edit"); err != nil {
			t.Fatalf("delete error = %v", err)
		}
		if err := h.run("playlist", "show", "Edit"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("show after delete error = %v", err)
		}
	})

	t.Run("playlist insert clear shuffle duplicate", func(t *testing.T) {
		h := newHarness(t)
		a := h.track(t, "Alpha", "")
		b := h.track(t, "Beta", "")
		c := h.track(t, "Gamma", "")

		if err := h.run("playlist", "create", "Set"); err != nil {
			t.Fatalf("create error = %v", err)
		}
		for _, track := range []*models.Track{a, c} {
			if err := h.run("add", "--playlist", "Set", "--track", track.ID()); err != nil {
				t.Fatalf("add error = %v", err)
			}
		}

		if err := h.run("playlist", "insert", "Set", "1", b.ID()); err != nil {
			t.Fatalf("insert error = %v", err)
		}
		if err := h.run("playlist", "show", "Set"); err != nil {
			t.Fatalf("show error = %v", err)
		}
		if out := h.output.String(); !strings.Contains(out, "1. Alpha\n2. Beta\n3. Gamma") {
			t.Errorf("show after insert = %s", out)
		}
		if err := h.run("playlist", "insert", "Set", "7", b.ID()); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("out of range insert error = %v", err)
		}

		if err := h.run("playlist", "duplicate", "Set"); err != nil {
			t.Fatalf("duplicate error = %v", err)
		}
		if !strings.Contains(h.output.String(), "to Set (1)") {
			t.Errorf("duplicate output = %s", h.output.String())
		}

		if err := h.run("playlist", "shuffle", "Set (1)"); err != nil {
			t.Fatalf("shuffle error = %v", err)
		}
		if err := h.run("playlist", "show", "Set (1)"); err != nil {
			t.Fatalf("show copy error = %v", err)
		}
		if !strings.Contains(h.output.String(), "Tracks: 3") {
			t.Errorf("shuffled copy = %s", h.output.String())
		}

		if err := h.run("playlist", "clear", "Set (1)"); err != nil {
			t.Fatalf("clear error = %v", err)
		}
		if !strings.Contains(h.output.String(), "Cleared 3 entries") {
			t.Errorf("clear output = %s", h.output.String())
		}

		if err := h.run("track", "delete", b.ID()); err != nil {
			t.Fatalf("track delete error = %v", err)
		}
		if err := h.run("playlist", "show", "Set"); err != nil {
			t.Fatalf("show after delete error = %v", err)
		}
		if out := h.output.String(); !strings.Contains(out, "1. Alpha\n2. Gamma") || strings.Contains(out, "Beta") {
			t.Errorf("deleted track still listed: %s", out)
		}
	})

	t.Run("history", func(t *testing.T) {
		h := newHarness(t)
		track := h.track(t, "Hey Jude", "The Beatles")

		for range 2 {
			if err := h.run("history", "record", track.ID()); err != nil {
				t.Fatalf("record error = %v", err)
			}
		}
		if err := h.run("history", "record", "--outcome", "partial", "--elapsed", "1m", track.ID()); err != nil {
			t.Fatalf("record partial error = %v", err)
		}

		if err := h.run("history", "recent", "--limit", "5", track.ID()); err != nil {
			t.Fatalf("recent error = %v", err)
		}
		if out := h.output.String(); strings.Count(out, "completed") != 2 || !strings.Contains(out, "partial at 1m0s") {
			t.Errorf("recent output = %s", out)
		}

		if err := h.run("history", "top"); err != nil {
			t.Fatalf("top error = %v", err)
		}
		if !strings.Contains(h.output.String(), "The Beatles - Hey Jude  (2 plays") {
			t.Errorf("top output = %s", h.output.String())
		}
	})

	t.Run("track media and export", func(t *testing.T) {
		h := newHarness(t)
		h.fetches(t, "fJ9rUzIMcZQ", "Bohemian Rhapsody", "Queen")
		if err := h.run("add", "https://youtu.be/fJ9rUzIMcZQ"); err != nil {
			t.Fatalf("add error = %v", err)
		}

		tracks, err := h.runner.tracks.List(nil)
		if err != nil || len(tracks) != 1 {
			t.Fatalf("List() = %d, %v", len(tracks), err)
		}
		if err := h.run("track", "media", tracks[0].ID()); err != nil {
			t.Fatalf("media error = %v", err)
		}
		want := filepath.Join(h.dir, "fJ9rUzIMcZQ.ogg") + "\t354\n"
		if h.output.String() != want {
			t.Errorf("media output = %q, want %q", h.output.String(), want)
		}

		exportDir := filepath.Join(h.dir, "exports")
		if err := h.run("export", "csv", "--dir", exportDir); err != nil {
			t.Fatalf("export error = %v", err)
		}
		matches, _ := filepath.Glob(filepath.Join(exportDir, "tracks_*.csv"))
		if len(matches) != 1 {
			t.Fatalf("expected one tracks export, got %v", matches)
		}
		if content := tu.MustReadFile(t, matches[0]); !strings.Contains(content, "Bohemian Rhapsody") {
			t.Errorf("tracks export = %s", content)
		}
	})

	t.Run("setup config", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("setup", "config"); err != nil {
			t.Fatalf("setup config error = %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(h.dir, "config.toml"))

		if err := h.run("setup", "config"); err == nil {
			t.Error("expected an error when the config already exists")
		}
	})
}
