// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// playbackFlags describe a listen to record alongside a sync.
func playbackFlags(outcomeName string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  outcomeName,
			Usage: "Record a listen with this outcome: completed, skipped or partial",
		},
		&cli.DurationFlag{
			Name:  "elapsed",
			Usage: "Elapsed playback time for partial listens, e.g. 1m30s",
		},
	}
}

// setupCommand handles setup operations for the database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write a config.toml populated with defaults",
				Action: r.SetupConfig,
			},
			{
				Name:   "status",
				Usage:  "Show applied database migrations",
				Action: r.SetupStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent database migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// addCommand resolves a URL or query to a track and applies the requested updates.
func addCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Download a YouTube URL or find a library track, then add it to a playlist and/or record a listen",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "input",
			},
		},
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Append the track to this playlist (name or ID)",
			},
			&cli.StringFlag{
				Name:  "track",
				Usage: "Use this track ID instead of resolving the input",
			},
			&cli.BoolFlag{
				Name:  "pick",
				Usage: "Choose interactively when a query matches several tracks",
			},
		}, playbackFlags("listen")...),
		Action: r.Add,
	}
}

// searchCommand ranks library tracks against a query without changing anything.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Fuzzy search the library",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// importCommand imports a YouTube playlist.
func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Download every video of a YouTube playlist into a new local playlist",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "url",
			},
		},
		Action: r.Import,
	}
}

// playlistCommand manages local playlists.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Local playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create an empty playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "name",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "description",
						Usage: "Playlist description",
					},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:  "list",
				Usage: "List playlists",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Only playlists whose name contains this text",
					},
				},
				Action: r.PlaylistList,
			},
			{
				Name:  "show",
				Usage: "Show the tracks of a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "playlist",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: txt, markdown or json",
						Value:   "txt",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to this file instead of stdout",
					},
				},
				Action: r.PlaylistShow,
			},
			{
				Name:  "remove",
				Usage: "Remove the entry at a position, or every entry of --track",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "playlist",
					},
					&cli.StringArg{
						Name: "position",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "track",
						Usage: "Remove every entry of this track ID",
					},
				},
				Action: r.PlaylistRemove,
			},
			{
				Name:  "move",
				Usage: "Move the entry at one position to another",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "playlist",
					},
					&cli.StringArg{
						Name: "from",
					},
					&cli.StringArg{
						Name: "to",
					},
				},
				Action: r.PlaylistMove,
			},
			{
				Name:  "insert",
				Usage: "Insert a track at a position, shifting later entries down",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "playlist",
					},
					&cli.StringArg{
						Name: "position",
					},
					&cli.StringArg{
						Name: "track",
					},
				},
				Action: r.PlaylistInsert,
			},
			{
				Name:  "clear",
				Usage: "Remove every entry of a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "playlist",
					},
				},
				Action: r.PlaylistClear,
			},
			{
				Name:  "shuffle",
				Usage: "Put the entries of a playlist in random order",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "playlist",
					},
				},
				Action: r.PlaylistShuffle,
			},
			{
				Name:  "duplicate",
				Usage: "Copy a playlist with its entries",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "playlist",
					},
					&cli.StringArg{
						Name: "name",
					},
				},
				Action: r.PlaylistDuplicate,
			},
			{
				Name:  "delete",
				Usage: "Delete a playlist and its entries",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "playlist",
					},
				},
				Action: r.PlaylistDelete,
			},
		},
	}
}

// historyCommand reads and appends to the listening timeline.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Listening history",
		Commands: []*cli.Command{
			{
				Name:  "record",
				Usage: "Record a listen of a track",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "track",
					},
				},
				Flags:  playbackFlags("outcome"),
				Action: r.HistoryRecord,
			},
			{
				Name:  "recent",
				Usage: "Most recent listens of a track",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "track",
					},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of events",
						Value: 10,
					},
				},
				Action: r.HistoryRecent,
			},
			{
				Name:  "top",
				Usage: "Most completed tracks over a period",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "since",
						Usage: "Only count listens within this period, e.g. 720h",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of tracks",
						Value: 10,
					},
				},
				Action: r.HistoryTop,
			},
		},
	}
}

// trackCommand inspects library tracks.
func trackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "track",
		Usage: "Library track operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List library tracks",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Only tracks by this artist",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.TrackList,
			},
			{
				Name:  "media",
				Usage: "Print the file path and duration a player needs",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.TrackMedia,
			},
			{
				Name:  "delete",
				Usage: "Delete a track and remove it from every playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.TrackDelete,
			},
		},
	}
}

// exportCommand writes read-only snapshots of the library.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export library data",
		Commands: []*cli.Command{
			{
				Name:  "csv",
				Usage: "Write one timestamped CSV file per table",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Output directory",
						Value:   "data/exports",
					},
				},
				Action: r.ExportCSV,
			},
		},
	}
}

// updateToolCommand asks the wrapper script to update yt-dlp.
func updateToolCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "update-tool",
		Usage:  "Exit with the status that makes scripts/spear.sh update yt-dlp and restart",
		Action: r.UpdateTool,
	}
}
