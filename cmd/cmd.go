// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// jsonFlags returns fresh --json/--pretty flags; flag values live on the flag itself.
func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

func withJSON(flags ...cli.Flag) []cli.Flag {
	return append(flags, jsonFlags()...)
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write config.toml from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "status",
				Usage:  "Show applied and pending migrations",
				Action: r.SetupStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles account and session operations
func authCommand(r *Runner) *cli.Command {
	credentials := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account email",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password (prompted for when omitted)",
				Sources: cli.EnvVars("MAESTRO_PASSWORD"),
			},
		}
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your Maestro account",
		Commands: []*cli.Command{
			{
				Name:  "signup",
				Usage: "Create an account and sign in",
				Flags: append(credentials(), &cli.StringFlag{
					Name:  "name",
					Usage: "Display name",
				}),
				Action: r.AuthSignup,
			},
			{
				Name:   "login",
				Usage:  "Sign in with email and password",
				Flags:  credentials(),
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:   "whoami",
				Usage:  "Show the signed-in account",
				Flags:  jsonFlags(),
				Action: r.AuthWhoami,
			},
			{
				Name:  "token",
				Usage: "Issue an API token for the signed-in account",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "Token lifetime (defaults to server.token_ttl)",
					},
				},
				Action: r.AuthToken,
			},
		},
	}
}

// playlistsCommand handles the dashboard operations on saved mixtapes
func playlistsCommand(r *Runner) *cli.Command {
	idArg := func() []cli.Argument {
		return []cli.Argument{&cli.StringArg{Name: "id", UsageText: "<playlist-id>"}}
	}

	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl", "mixtapes"},
		Usage:   "List and manage saved mixtapes",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List active and archived mixtapes",
				Flags: withJSON(
					&cli.BoolFlag{
						Name:  "archived",
						Usage: "Only show archived mixtapes",
					},
				),
				Action: r.PlaylistsList,
			},
			{
				Name:      "show",
				Usage:     "Show one mixtape with its songs",
				Arguments: idArg(),
				Flags:     jsonFlags(),
				Action:    r.PlaylistsShow,
			},
			{
				Name:      "archive",
				Usage:     "Move a mixtape to the archive",
				Arguments: idArg(),
				Action:    r.PlaylistsArchive,
			},
			{
				Name:      "unarchive",
				Usage:     "Restore an archived mixtape",
				Arguments: idArg(),
				Action:    r.PlaylistsUnarchive,
			},
			{
				Name:      "delete",
				Usage:     "Delete a mixtape permanently",
				Arguments: idArg(),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
				Action: r.PlaylistsDelete,
			},
			{
				Name:   "watch",
				Usage:  "Print the mixtape list whenever it changes",
				Flags:  jsonFlags(),
				Action: r.PlaylistsWatch,
			},
		},
	}
}

// ideasCommand handles one-shot generative calls
func ideasCommand(r *Runner) *cli.Command {
	idFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:     "id",
			Usage:    "Saved mixtape to work from",
			Required: true,
		}
	}

	return &cli.Command{
		Name:  "ideas",
		Usage: "Ask the AI for songs, titles, liner notes and next themes",
		Commands: []*cli.Command{
			{
				Name:  "songs",
				Usage: "Suggest songs for a theme",
				Flags: withJSON(
					&cli.StringFlag{Name: "theme", Aliases: []string{"t"}, Usage: "Mixtape theme"},
					&cli.StringSliceFlag{Name: "seed", Usage: `Seed song as "Title by Artist" (repeatable)`},
					&cli.StringSliceFlag{Name: "fusion", Usage: "Fusion genre (repeatable, at most 3)"},
					&cli.IntFlag{Name: "start-year", Usage: "Earliest release year"},
					&cli.IntFlag{Name: "end-year", Usage: "Latest release year"},
					&cli.StringFlag{Name: "language", Usage: "Language preferences"},
					&cli.BoolFlag{Name: "hidden-gems", Usage: "Prefer lesser-known tracks"},
					&cli.StringFlag{Name: "exclude", Usage: "Keywords to avoid"},
					&cli.StringFlag{Name: "ratio", Usage: "balanced, mostly_instrumental or mostly_vocal", Value: "balanced"},
					&cli.StringFlag{Name: "story", Usage: "Story the mixtape should tell"},
					&cli.StringFlag{Name: "vibe", Usage: "How the energy should move"},
					&cli.StringFlag{Name: "id", Usage: "Suggest additions to a saved mixtape instead"},
				),
				Action: r.IdeasSongs,
			},
			{
				Name:  "titles",
				Usage: "Suggest three titles for a theme",
				Flags: withJSON(
					&cli.StringFlag{Name: "theme", Aliases: []string{"t"}, Usage: "Theme to title"},
					&cli.StringFlag{Name: "id", Usage: "Title a saved mixtape instead"},
				),
				Action: r.IdeasTitles,
			},
			{
				Name:  "liner-notes",
				Usage: "Write liner notes for a saved mixtape",
				Flags: []cli.Flag{
					idFlag(),
					&cli.BoolFlag{Name: "save", Usage: "Store the notes on the mixtape"},
				},
				Action: r.IdeasLinerNotes,
			},
			{
				Name:   "next-themes",
				Usage:  "Suggest themes for a follow-up mixtape",
				Flags:  withJSON(idFlag()),
				Action: r.IdeasNextThemes,
			},
		},
	}
}

// spotifyCommand handles Spotify operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify account and publishing",
		Commands: []*cli.Command{
			{
				Name:   "connect",
				Usage:  "Authorize Maestro with Spotify using OAuth2",
				Action: r.SpotifyConnect,
			},
			{
				Name:      "publish",
				Usage:     "Save a mixtape to Spotify",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.SpotifyPublish,
			},
			{
				Name:      "search",
				Usage:     "Look up a song on Spotify through the track cache",
				UsageText: `maestro spotify search "Title by Artist"`,
				Arguments: []cli.Argument{&cli.StringArg{Name: "song"}},
				Flags:     jsonFlags(),
				Action:    r.SpotifySearch,
			},
		},
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the dashboard API and websocket feed",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for the interactive dashboard and wizard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive dashboard and mixtape wizard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI owns the terminal",
				Value: "./tmp/maestro-tui.log",
			},
		},
		Action: r.TUI,
	}
}
