// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/sortify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// organizeCommand runs the classify-and-file session over the liked songs
func organizeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "organize",
		Aliases: []string{"run"},
		Usage:   "Classify liked songs in batches and file them into genre playlists",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Index of the first liked song to process",
				Value: 0,
			},
			&cli.IntFlag{
				Name:    "batch-size",
				Aliases: []string{"n"},
				Usage:   "Songs per batch (default from [session].batch_size)",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Keep fetching batches without asking",
			},
			&cli.IntFlag{
				Name:  "max-batches",
				Usage: "Stop after this many batches (0 = no limit)",
			},
			&cli.BoolFlag{
				Name:  "record",
				Usage: "Store the session in the history database",
			},
			&cli.BoolFlag{
				Name:  "reuse",
				Usage: "Reuse earlier classifications from the history database",
			},
			&cli.StringFlag{
				Name:    "report",
				Aliases: []string{"o"},
				Usage:   "Write the assignments to a .csv, .md, .json or .txt file",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Show progress in a full-screen terminal UI",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the session result as JSON",
			},
		},
		Action: r.Organize,
	}
}

// classifyCommand runs a one-off classification
func classifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "classify",
		Usage: "Ask the model for the genres of a single song",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "title",
				Aliases:  []string{"t"},
				Usage:    "Song title",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "artist",
				Aliases:  []string{"a"},
				Usage:    "Song artist",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Classify,
	}
}

// genresCommand prints the genre vocabulary
func genresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "genres",
		Usage:  "List the genres songs can be sorted into",
		Action: r.Genres,
	}
}

// spotifyCommand handles Spotify operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify account operations",
		Commands: []*cli.Command{
			{
				Name:   "auth",
				Usage:  "Authenticate with Spotify using OAuth2",
				Action: r.SpotifyAuth,
			},
			{
				Name:  "liked",
				Usage: "List liked songs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Index of the first liked song",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of songs to fetch",
						Value: tasks.DefaultBatchSize,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SpotifyLiked,
			},
			{
				Name:  "playlists",
				Usage: "List your playlists, marking the genre playlists",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "genres-only",
						Usage: "Only show playlists named after a genre",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SpotifyPlaylists,
			},
		},
	}
}

// historyCommand inspects recorded sessions
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect recorded organize sessions",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of sessions to list",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.HistoryList,
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the assignments and filings of one session",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryShow,
			},
			{
				Name:  "delete",
				Usage: "Delete a recorded session",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.HistoryDelete,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage: "Initialize the history database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Undo the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}
