// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/narrate/internal/formatter"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output JSON"}
}

func detachFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "detach",
		Usage: "Return once the job is submitted; follow it later with `status`",
	}
}

// setupCommand handles first-run configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write config.toml, create the database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupInit,
			},
			{
				Name:   "migrations",
				Usage:  "Show applied and pending database migrations",
				Action: r.SetupMigrations,
			},
			{
				Name:  "rollback",
				Usage: "Roll back the most recent database migration",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"},
				},
				Action: r.SetupRollback,
			},
			{
				Name:      "consent",
				Usage:     "Record your cookie consent choice (accept or decline)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "choice"}},
				Before:    r.before,
				Action:    r.SetupConsent,
			},
		},
	}
}

// authCommand handles sign-in and the session.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Sign in, sign out and inspect the session",
		Before: r.before,
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
					&cli.StringFlag{Name: "first-name", Usage: "First name"},
					&cli.StringFlag{Name: "last-name", Usage: "Last name"},
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "google",
				Usage: "Sign in with Google in the browser",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "register", Usage: "Create a new account with this Google identity"},
					&cli.BoolFlag{Name: "no-browser", Usage: "Print the sign-in URL instead of opening it"},
				},
				Action: r.AuthGoogle,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget the session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show whether you are signed in and when the token expires",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthStatus,
			},
			{
				Name:   "token",
				Usage:  "Print a valid access token, refreshing it if needed",
				Action: r.AuthToken,
			},
			{
				Name:  "import",
				Usage: "Import a signed-in browser session from a \"Copy as cURL\" command",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "curl", Usage: "cURL command copied from the browser DevTools"},
					&cli.StringFlag{Name: "curl-file", Usage: "Path to a file containing the cURL command"},
				},
				Action: r.AuthImport,
			},
		},
	}
}

// scriptCommand handles format jobs.
func scriptCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "script",
		Usage:  "Upload and format scripts",
		Before: r.before,
		Commands: []*cli.Command{
			{
				Name:      "upload",
				Usage:     "Upload a script (txt, pdf, docx) and wait for it to be formatted",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags:     []cli.Flag{detachFlag()},
				Action:    r.ScriptUpload,
			},
			{
				Name:   "status",
				Usage:  "Follow a pending format job, or show the last formatted script",
				Action: r.ScriptStatus,
			},
			{
				Name:   "cancel",
				Usage:  "Cancel the pending format job",
				Action: r.ScriptCancel,
			},
			{
				Name:   "show",
				Usage:  "Show the last formatted script and its speakers",
				Flags:  []cli.Flag{jsonFlag(), &cli.BoolFlag{Name: "text", Usage: "Include the full script text"}},
				Action: r.ScriptShow,
			},
			{
				Name:  "export",
				Usage: "Export the script and voice casting",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "txt, md, json or csv", Value: formatter.FormatMarkdown},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file path"},
				},
				Action: r.ScriptExport,
			},
		},
	}
}

// voicesCommand handles voice casting.
func voicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "voices",
		Usage:  "Browse voices and assign them to speakers",
		Before: r.before,
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List available voices",
				Flags: []cli.Flag{
					jsonFlag(),
					&cli.StringFlag{Name: "gender", Usage: "Only show voices with this label"},
				},
				Action: r.VoicesList,
			},
			{
				Name:      "preview",
				Usage:     "Synthesize a short sample with a voice",
				Arguments: []cli.Argument{&cli.StringArg{Name: "voice"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "text", Usage: "Sample text", Value: "Hello, this is how I sound reading your script."},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Where to save the sample (default: preview-<voice>.mp3)"},
					&cli.BoolFlag{Name: "no-open", Usage: "Do not open the sample after saving it"},
				},
				Action: r.VoicesPreview,
			},
			{
				Name:  "assign",
				Usage: "Assign a voice to a speaker",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "speaker"},
					&cli.StringArg{Name: "voice"},
				},
				Action: r.VoicesAssign,
			},
			{
				Name:   "auto",
				Usage:  "Assign distinct voices to every speaker by gender",
				Action: r.VoicesAuto,
			},
			{
				Name:   "show",
				Usage:  "Show the current speaker to voice assignment",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.VoicesShow,
			},
			{
				Name:      "narrator",
				Usage:     "Set the narrator voice used for unattributed lines (\"none\" clears it)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "voice"}},
				Action:    r.VoicesNarrator,
			},
		},
	}
}

// accountCommand manages the account profile and password.
func accountCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "account",
		Usage:  "View and manage your account",
		Before: r.before,
		Commands: []*cli.Command{
			{
				Name:   "profile",
				Usage:  "Show your account details",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AccountProfile,
			},
			{
				Name:  "update",
				Usage: "Change your name or email",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "first-name", Usage: "New first name"},
					&cli.StringFlag{Name: "last-name", Usage: "New last name"},
					&cli.StringFlag{Name: "email", Usage: "New email"},
				},
				Action: r.AccountUpdate,
			},
			{
				Name:  "forgot-password",
				Usage: "Email yourself a password reset link",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
				},
				Action: r.AccountForgotPassword,
			},
			{
				Name:  "reset-password",
				Usage: "Set a new password with the token from the reset email",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "token", Usage: "Reset token from the email link"},
				},
				Action: r.AccountResetPassword,
			},
			{
				Name:  "delete",
				Usage: "Permanently delete your account",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"},
				},
				Action: r.AccountDelete,
			},
		},
	}
}

// audioCommand handles audio jobs and results.
func audioCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "audio",
		Usage:  "Generate, play and download audio",
		Before: r.before,
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Generate audio for the current script and voice assignment",
				Flags: []cli.Flag{
					detachFlag(),
					&cli.BoolFlag{Name: "allow-unassigned", Usage: "Generate even when some speakers have no voice"},
				},
				Action: r.AudioGenerate,
			},
			{
				Name:   "status",
				Usage:  "Follow a pending audio job, or show the last generated audio",
				Action: r.AudioStatus,
			},
			{
				Name:   "cancel",
				Usage:  "Cancel the pending audio job",
				Action: r.AudioCancel,
			},
			{
				Name:   "show",
				Usage:  "Show the last generated audio",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AudioShow,
			},
			{
				Name:   "play",
				Usage:  "Open the last generated audio in the browser or default player",
				Action: r.AudioPlay,
			},
			{
				Name:  "download",
				Usage: "Download the last generated audio",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file path (default: <audio name>.mp3)"},
				},
				Action: r.AudioDownload,
			},
			{
				Name:      "delete",
				Usage:     "Delete a generated audio file from your library",
				Arguments: []cli.Argument{&cli.StringArg{Name: "file-name"}},
				Action:    r.AudioDelete,
			},
		},
	}
}

// subscriptionCommand handles plan and quota.
func subscriptionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "subscription",
		Aliases: []string{"sub"},
		Usage:   "Show or cancel your subscription",
		Before:  r.before,
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show plan and remaining quota",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.SubscriptionStatus,
			},
			{
				Name:  "cancel",
				Usage: "Cancel your subscription",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"},
				},
				Action: r.SubscriptionCancel,
			},
		},
	}
}

// historyCommand lists finished jobs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "history",
		Usage:  "List finished jobs recorded on this machine",
		Before: r.before,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Usage: "format or audio"},
			&cli.StringFlag{Name: "status", Usage: "succeeded, failed or cancelled"},
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of jobs", Value: 20},
			jsonFlag(),
		},
		Action: r.History,
	}
}

// dashboardCommand launches the TUI.
func dashboardCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "dashboard",
		Aliases: []string{"ui"},
		Usage:   "Interactive dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-file", Usage: "Where to write logs while the dashboard runs (default: log.file from config)"},
		},
		Action: r.Dashboard,
	}
}
