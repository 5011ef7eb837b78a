// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, registerCommand, resetPasswordCommand, logoutCommand, whoamiCommand,
		bookingsCommand, archiveCommand, watchCommand, tuiCommand, serveCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// bookingFlags are shared by add and edit.
func bookingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "date",
			Usage: "Event date (YYYY-MM-DD)",
		},
		&cli.StringFlag{
			Name:    "location",
			Aliases: []string{"l"},
			Usage:   "Venue",
		},
		&cli.StringFlag{
			Name:  "phone",
			Usage: "Contact phone number",
		},
		&cli.StringFlag{
			Name:  "bride-zaffa",
			Usage: "Bride zaffa",
		},
		&cli.StringFlag{
			Name:  "groom-zaffa",
			Usage: "Groom zaffa",
		},
		&cli.StringSliceFlag{
			Name:    "song",
			Aliases: []string{"s"},
			Usage:   "Song to play, repeat for several",
		},
		&cli.StringFlag{
			Name:    "notes",
			Aliases: []string{"n"},
			Usage:   "Free-text notes",
		},
	}
}

func credentialFlags(confirm bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "username",
			Aliases:  []string{"u"},
			Usage:    "Account username",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "password",
			Aliases:  []string{"p"},
			Usage:    "Account password",
			Required: true,
		},
	}
	if confirm {
		flags = append(flags, &cli.StringFlag{
			Name:     "confirm",
			Usage:    "Repeat the password",
			Required: true,
		})
	}
	return flags
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config file from the built-in template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path of the config file to create",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the local database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "login",
		Usage:  "Log in and remember the identity",
		Flags:  credentialFlags(false),
		Action: r.Login,
	}
}

func registerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "register",
		Usage:  "Create an account and log in",
		Flags:  credentialFlags(true),
		Action: r.Register,
	}
}

func resetPasswordCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "reset-password",
		Usage:  "Set a new password for an account",
		Flags:  credentialFlags(true),
		Action: r.ResetPassword,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Forget the identity and every cached list",
		Action: r.Logout,
	}
}

func whoamiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the logged-in identity",
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.WhoAmI,
	}
}

// bookingsCommand handles the current bookings list and its mutations.
func bookingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "bookings",
		Aliases: []string{"b"},
		Usage:   "Current bookings",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Sync and print current bookings",
				Flags: []cli.Flag{
					jsonFlag(),
					&cli.BoolFlag{
						Name:  "cached",
						Usage: "Print the cached list without contacting the sheet",
					},
				},
				Action: r.BookingsList,
			},
			{
				Name:   "add",
				Usage:  "Add a booking",
				Flags:  bookingFlags(),
				Action: r.BookingsAdd,
			},
			{
				Name:  "edit",
				Usage: "Edit a booking; only the given fields change",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Booking ID",
						Required: true,
					},
				}, bookingFlags()...),
				Action: r.BookingsEdit,
			},
			{
				Name:    "delete",
				Aliases: []string{"rm"},
				Usage:   "Delete a booking",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Booking ID",
						Required: true,
					},
				},
				Action: r.BookingsDelete,
			},
			{
				Name:  "check-date",
				Usage: "Check whether a date can still be booked",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "date",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "editing",
						Usage: "ID of the booking being edited, ignored in the check",
					},
				},
				Action: r.BookingsCheckDate,
			},
		},
	}
}

// archiveCommand handles bookings whose day has passed.
func archiveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "archive",
		Usage: "Past bookings",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "Print archived bookings",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ArchiveList,
			},
			{
				Name:  "export",
				Usage: "Export archived bookings to files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv, markdown, text or json",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (directory for markdown)",
					},
				},
				Action: r.ArchiveExport,
			},
			{
				Name:   "push",
				Usage:  "Report archived booking ids to the sheet",
				Action: r.ArchivePush,
			},
		},
	}
}

func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Poll the sheet and print every change",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Poll interval (defaults to sync.interval_ms)",
			},
		},
		Action: r.Watch,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive bookings TUI",
		Action:  r.TUI,
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the development sheet server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (defaults to server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (defaults to server.port)",
			},
			&cli.StringFlag{
				Name:  "database",
				Usage: "Sheet database path (defaults to server.database_path)",
			},
		},
		Action: r.Serve,
	}
}

// apiCommand handles direct endpoint calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the sheet endpoint",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the raw response",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with a JSON command body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}
