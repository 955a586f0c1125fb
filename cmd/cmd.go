// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (txt, csv, md, json)",
		Value:   "txt",
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the credential database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.SetupDatabase,
	}
}

// authCommand handles signing in and out
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the service session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in through the browser",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the sign-in URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and remove the stored credential",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show service health, account and quota",
				Action: r.AuthStatus,
			},
			{
				Name:  "import",
				Usage: "Import a credential from a browser \"Copy as cURL\" command",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command string",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to a file containing the cURL command",
					},
				},
				Action: r.AuthImport,
			},
		},
	}
}

// songsCommand handles catalogue lookups
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "songs",
		Usage: "Search and inspect songs",
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search songs",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringFlag{
						Name:    "platform",
						Aliases: []string{"p"},
						Usage:   "Restrict results to a platform",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write results to a file instead of stdout",
					},
				},
				Action: r.SongsSearch,
			},
			{
				Name:      "show",
				Usage:     "Show one song",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{formatFlag()},
				Action:    r.SongsShow,
			},
		},
	}
}

func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "download",
		Aliases:   []string{"dl"},
		Usage:     "Download songs by id",
		ArgsUsage: "<id> [id...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   "Directory to save songs to (defaults to downloads.output_dir)",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Parallel downloads for a batch (defaults to downloads.concurrency)",
			},
			&cli.StringFlag{
				Name:  "manifest",
				Usage: "Write a batch manifest to this path",
			},
			formatFlag(),
		},
		Action: r.Download,
	}
}

func quotaCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "quota",
		Usage:  "Show the remaining daily downloads",
		Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
		Action: r.Quota,
	}
}

func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Open a song in the embeddable player",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the player URL instead of opening it",
			},
		},
		Action: r.Play,
	}
}

// apiCommand handles direct backend calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Call backend endpoints directly",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "GET a backend path",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output compact JSON"},
				},
				Action: r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "POST JSON to a backend path",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON request body",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Launch the interactive search and download interface",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "platform",
				Aliases: []string{"p"},
				Usage:   "Restrict searches to a platform",
			},
		},
		Action: r.TUI,
	}
}
