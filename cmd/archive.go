package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/setlist/internal/formatter"
)

// ArchiveList prints the archive visible to the logged-in identity.
func (r *Runner) ArchiveList(ctx context.Context, cmd *cli.Command) error {
	identity, err := r.session()
	if err != nil {
		return err
	}

	archived, err := r.engine.Archived()
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(archived, true)
	}

	r.writePlainHeader(fmt.Sprintf("Archive (%d)", len(archived)))
	if len(archived) == 0 {
		return r.writePlain("No archived bookings\n")
	}
	return r.writePlain("%s", formatter.FormatCards(archived, formatter.CardOptions{ShowOwner: identity.IsAdmin(), ShowID: true}))
}

// ArchiveExport writes the archive to files in the requested format.
func (r *Runner) ArchiveExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	identity, err := r.session()
	if err != nil {
		return err
	}
	archived, err := r.engine.Archived()
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	export := &formatter.Export{
		Title:       "Archived bookings",
		Scope:       identity.CacheScope(),
		GeneratedAt: r.now().UTC(),
		Bookings:    archived,
	}

	files, err := formatter.WriteExport(export, format, cmd.String("output"))
	if err != nil {
		return fmt.Errorf("failed to export archive: %w", err)
	}

	r.logger.Info("archive exported", "format", format, "count", len(archived))
	r.writePlain("✓ Exported %d bookings\n", len(archived))
	for _, f := range files {
		r.writePlain("  %s\n", f)
	}
	return nil
}

// ArchivePush reports archived ids to the sheet.
func (r *Runner) ArchivePush(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.session(); err != nil {
		return err
	}

	n, err := r.engine.PushArchive(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return r.writePlain("Nothing to push\n")
	}
	return r.writePlain("✓ Reported %d archived bookings\n", n)
}
