// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func apiFlags(app bool) []cli.Flag {
	flags := append(outputFlags(), &cli.StringFlag{
		Name:  "market",
		Usage: "ISO 3166-1 alpha-2 country code, or from_token",
	})
	if app {
		flags = append(flags, &cli.BoolFlag{
			Name:  "app",
			Usage: "Authorize as the application (client credentials) instead of a user",
		})
	}
	return flags
}

// deviceFlags are the flags shared by player controls.
func deviceFlags() []cli.Flag {
	return append(apiFlags(false), &cli.StringFlag{
		Name:  "device",
		Usage: "Target device ID (the active device when empty)",
	})
}

// setupCommand initializes local state
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the configuration file or credential database",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config.toml from the built-in template",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Create the SQLite credential database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Revert the newest migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles the token lifecycle
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Obtain, inspect and discard Spotify tokens",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize as a user (authorization code) and cache the token",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Discard any cached token and authorize again",
					},
					&cli.StringFlag{
						Name:  "state",
						Usage: "State value to send with the authorization request (random when empty)",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "client",
				Usage: "Authorize as the application (client credentials)",
				Flags: append(outputFlags(), &cli.BoolFlag{
					Name:  "print",
					Usage: "Print only the access token",
				}),
				Action: r.AuthClient,
			},
			{
				Name:   "status",
				Usage:  "Show the cached user token",
				Flags:  outputFlags(),
				Action: r.AuthStatus,
			},
			{
				Name:   "refresh",
				Usage:  "Exchange the cached refresh token for a new access token",
				Action: r.AuthRefresh,
			},
			{
				Name:  "url",
				Usage: "Print the authorization URL without waiting for the redirect",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "state",
						Usage: "State value to embed (random when empty)",
					},
				},
				Action: r.AuthURL,
			},
			{
				Name:   "logout",
				Usage:  "Remove the cached user token",
				Action: r.AuthLogout,
			},
		},
	}
}

// apiCommand calls the Spotify Web API with a cached or freshly issued token
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Spotify Web API calls",
		Commands: []*cli.Command{
			{
				Name:   "me",
				Usage:  "Show the current user's profile",
				Flags:  apiFlags(false),
				Action: r.APIMe,
			},
			{
				Name:  "track",
				Usage: "Show a track",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags:  apiFlags(true),
				Action: r.APITrack,
			},
			{
				Name:  "search",
				Usage: "Search the catalog",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "query",
					},
				},
				Flags: append(apiFlags(true),
					&cli.StringFlag{
						Name:  "type",
						Usage: "Comma-separated item types: track, artist, album, playlist",
						Value: "track",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum results per type (1-50)",
						Value: 20,
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Index of the first result",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: text, csv (tracks only) or json",
						Value: "text",
					},
				),
				Action: r.APISearch,
			},
			{
				Name:  "playlist",
				Usage: "Show a playlist and its first page of tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: append(apiFlags(true), &cli.StringFlag{
					Name:  "format",
					Usage: "Output format: text, csv or json",
					Value: "text",
				}),
				Action: r.APIPlaylist,
			},
			{
				Name:      "add",
				Usage:     "Add tracks to a playlist",
				ArgsUsage: "<playlist-id> <track-uri>...",
				Flags: append(apiFlags(false), &cli.IntFlag{
					Name:  "position",
					Usage: "Zero-based insert position (appends when negative)",
					Value: -1,
				}),
				Action: r.APIAdd,
			},
			{
				Name:   "devices",
				Usage:  "List available playback devices",
				Flags:  apiFlags(false),
				Action: r.APIDevices,
			},
			{
				Name:   "pause",
				Usage:  "Pause playback",
				Flags:  deviceFlags(),
				Action: r.APIPause,
			},
			{
				Name:      "play",
				Usage:     "Start or resume playback",
				ArgsUsage: "[track-uri]...",
				Flags: append(deviceFlags(), &cli.StringFlag{
					Name:  "context",
					Usage: "Album, artist or playlist URI to play",
				}),
				Action: r.APIPlay,
			},
			{
				Name:   "next",
				Usage:  "Skip to the next track",
				Flags:  deviceFlags(),
				Action: r.APINext,
			},
			{
				Name:   "previous",
				Usage:  "Skip to the previous track",
				Flags:  deviceFlags(),
				Action: r.APIPrevious,
			},
			{
				Name:      "seek",
				Usage:     "Seek to a position in the current track",
				ArgsUsage: "<seconds>",
				Flags:     deviceFlags(),
				Action:    r.APISeek,
			},
			{
				Name:      "features",
				Usage:     "Show audio features for tracks",
				ArgsUsage: "<track-id>...",
				Flags:     apiFlags(false),
				Action:    r.APIFeatures,
			},
		},
	}
}
