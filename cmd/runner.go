package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spear/internal/matcher"
	"github.com/desertthunder/spear/internal/models"
	"github.com/desertthunder/spear/internal/repositories"
	"github.com/desertthunder/spear/internal/services"
	"github.com/desertthunder/spear/internal/shared"
	"github.com/desertthunder/spear/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	db         *sql.DB
	ownsDB     bool
	downloader services.Downloader
	tracks     *repositories.TrackRepository
	playlists  *repositories.PlaylistRepository
	timeline   *repositories.TimelineRepository
	matcher    *matcher.Matcher
	engine     *tasks.SyncEngine
}

// RunnerOpts contains configuration options for creating a Runner.
//
// DB and Downloader are opened from the configuration on first use when nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB
	Downloader services.Downloader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
		downloader: opts.Downloader,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, addCommand, searchCommand, importCommand, playlistCommand,
		historyCommand, trackCommand, exportCommand, updateToolCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by --config unless one was injected, and applies the log level.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.config == nil {
		path := cmd.String("config")
		if path == "" {
			path = r.configPath
		}

		r.config = shared.DefaultConfig()
		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return ctx, err
			}
			r.config = config
		} else {
			r.logger.Debug("config file not found, using defaults", "path", path)
		}
		r.configPath = path
	}

	if level := cmd.String("log-level"); level != "" {
		r.config.Log.Level = level
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(r.config.Log.Level))
	return ctx, nil
}

// open lazily connects the stores, downloader and engine.
func (r *Runner) open() error {
	if r.engine != nil {
		return nil
	}
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}

	if r.db == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return err
		}
		r.db = db
		r.ownsDB = true
	}

	if r.downloader == nil {
		r.downloader = services.NewYTDLP(services.YTDLPOptions{
			Command:           r.config.Downloader.Command,
			Args:              r.config.Downloader.Args,
			AudioFormat:       r.config.Downloader.AudioFormat,
			Dir:               r.config.Library.Path,
			RequestsPerMinute: r.config.Downloader.RequestsPerMinute,
			Logger:            r.logger,
		})
	}

	r.tracks = repositories.NewTrackRepository(r.db)
	r.playlists = repositories.NewPlaylistRepository(r.db)
	r.timeline = repositories.NewTimelineRepository(r.db)
	r.matcher = matcher.New(matcher.Options{
		MinScore:   r.config.Matching.MinScore,
		AutoAccept: r.config.Matching.AutoAccept,
		Limit:      r.config.Matching.Limit,
	})
	r.engine = tasks.NewSyncEngine(r.tracks, r.playlists, r.timeline, r.downloader, r.matcher, r.logger)
	return nil
}

// Close releases the database if the runner opened it.
func (r *Runner) Close() error {
	if r.db != nil && r.ownsDB {
		return r.db.Close()
	}
	return nil
}

// SetLogger replaces the logger used by the runner and everything it opens afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// findPlaylist resolves a playlist by exact name, then by ID.
func (r *Runner) findPlaylist(ref string) (*models.Playlist, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: playlist name or ID", shared.ErrMissingArgument)
	}
	if p, err := r.playlists.GetByName(ref); err == nil {
		return p, nil
	}
	return r.playlists.Get(ref)
}

// drainProgress logs progress updates until the returned stop function is called.
func (r *Runner) drainProgress() (chan tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase)
		}
	}()
	return progress, func() {
		close(progress)
		<-done
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
