package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/setlist/internal/server"
	"github.com/desertthunder/setlist/internal/shared"
)

// Serve runs the development sheet server until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}
	if cmd.IsSet("database") {
		cfg.DatabasePath = cmd.String("database")
	}

	db, err := shared.NewDatabase(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.Migrate(db, shared.ServerSchema); err != nil {
		return fmt.Errorf("failed to migrate sheet database: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := shared.WithLogger(r.logger, "component", "server")
	router := server.NewRouter(logger, server.NewSheetHandler(db, server.SheetOptions{Logger: r.logger}))

	r.writePlain("Sheet endpoint: http://%s/\n", cfg.Addr())
	return server.ListenAndServe(ctx, cfg.Addr(), router, logger)
}
