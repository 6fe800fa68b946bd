package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/narrate/internal/shared"
	"github.com/desertthunder/narrate/internal/store"
)

// SetupInit writes config.toml when missing, then creates the database and runs migrations.
func (r *Runner) SetupInit(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			return fmt.Errorf("failed to load %s: %w", configPath, err)
		}
		r.logger.Info("using existing config", "path", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		if config, err = shared.LoadConfig(configPath); err != nil {
			return fmt.Errorf("failed to load created config: %w", err)
		}
	}
	config.ApplyEnv()

	r.logger.Info("initializing database", "path", config.Database.Path)
	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	r.writePlain("✓ Setup complete\n")
	r.writePlain("  Config:   %s\n", configPath)
	r.writePlain("  Database: %s\n", config.Database.Path)
	r.writePlain("  Backend:  %s\n", config.API.BaseURL)
	r.writePlainln("Next steps:")
	r.writePlain("1. Run `narrate auth login` (or `narrate auth google`) to sign in\n")
	r.writePlain("2. Run `narrate script upload <file>` to format your first script\n")
	return nil
}

// SetupMigrations lists the migrations recorded in the database without applying new ones.
func (r *Runner) SetupMigrations(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	applied, pending, err := shared.MigrationStatus(db)
	if err != nil {
		return err
	}

	r.writePlainHeader("Migrations: " + r.config.Database.Path)
	for _, m := range applied {
		r.writePlain("  %04d  %-28s applied %s\n", m.Version, m.Name, m.AppliedAt.Local().Format(time.DateTime))
	}
	if pending > 0 {
		return r.writePlain("%d pending, run `narrate setup init` to apply\n", pending)
	}
	return r.writePlain("Up to date\n")
}

// SetupRollback undoes the newest migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") && !r.confirm("Roll back the newest migration? Data in the affected tables is lost.") {
		return r.writePlain("Database unchanged.\n")
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); errors.Is(err, shared.ErrNoMigrations) {
		return r.writePlain("Nothing to roll back.\n")
	} else if err != nil {
		return err
	}
	r.logger.Info("migration rolled back", "path", r.config.Database.Path)
	return r.writePlain("✓ Rolled back the newest migration\n")
}

// SetupConsent records the cookie consent choice.
func (r *Runner) SetupConsent(ctx context.Context, cmd *cli.Command) error {
	choice := strings.ToLower(cmd.StringArg("choice"))
	switch choice {
	case "accept", "accepted", "yes":
		choice = "accepted"
	case "decline", "declined", "no":
		choice = "declined"
	case "":
		current := store.GetString(ctx, r.store, store.KeyCookieConsent)
		if current == "" {
			current = "not recorded"
		}
		return r.writePlain("Cookie consent: %s\n", current)
	default:
		return fmt.Errorf("%w: choice must be accept or decline", shared.ErrInvalidArgument)
	}

	if err := r.store.Set(ctx, store.KeyCookieConsent, choice); err != nil {
		return err
	}
	return r.writePlain("✓ Cookie consent %s\n", choice)
}

// showOnboarding prints the welcome text once per database.
func (r *Runner) showOnboarding(ctx context.Context) {
	if store.GetString(ctx, r.store, store.KeyHasSeenOnboarding) != "" {
		return
	}

	r.writePlainHeader("Welcome to narrate")
	r.writePlain("1. Upload a script: the server finds every speaker and formats the text\n")
	r.writePlain("2. Cast voices: `narrate voices auto` picks one per speaker by gender\n")
	r.writePlain("3. Generate audio and download or play it\n\n")

	if err := r.store.Set(ctx, store.KeyHasSeenOnboarding, "true"); err != nil {
		r.logger.Warn("failed to record onboarding", "error", err)
	}
}
