package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// Login checks credentials, persists the identity and prefetches the bookings list.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	identity, err := r.accounts.Login(ctx, cmd.String("username"), cmd.String("password"))
	if err != nil {
		if errors.Is(err, shared.ErrTooManyAttempts) {
			return fmt.Errorf("%w\nRun 'setlist reset-password' to choose a new password", err)
		}
		return err
	}

	r.writePlain("✓ Logged in as %s (%s)\n", identity.Username, identity.Role)
	r.prefetch(ctx)
	return nil
}

// Register creates an account and logs in.
func (r *Runner) Register(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	identity, err := r.accounts.Register(ctx, cmd.String("username"), cmd.String("password"), cmd.String("confirm"))
	if err != nil {
		return err
	}

	r.writePlain("✓ Account created, logged in as %s\n", identity.Username)
	r.prefetch(ctx)
	return nil
}

// ResetPassword sets a new password for an account.
func (r *Runner) ResetPassword(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	username := cmd.String("username")
	if err := r.accounts.ResetPassword(ctx, username, cmd.String("password"), cmd.String("confirm")); err != nil {
		return err
	}
	return r.writePlain("✓ Password updated for %s\n", username)
}

// Logout forgets the identity and every cached list.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	if err := r.accounts.Logout(); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}

// WhoAmI prints the persisted identity.
func (r *Runner) WhoAmI(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	identity, ok, err := r.accounts.Current()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if !ok {
			return r.writeJSON(models.Identity{}, false)
		}
		return r.writeJSON(identity, false)
	}
	if !ok {
		return r.writePlain("Not logged in\n")
	}
	return r.writePlain("%s (%s)\n", identity.Username, identity.Role)
}

// prefetch warms the cache right after login. Failures only warn.
func (r *Runner) prefetch(ctx context.Context) {
	result, err := r.engine.Sync(ctx)
	if err != nil {
		r.logger.Warn("prefetch failed", "error", err)
		return
	}
	r.writePlain("%d current bookings\n", len(result.Current))
}
