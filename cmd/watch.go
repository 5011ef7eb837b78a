package main

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/tasks"
)

// Watch runs the poll loop and prints every change until interrupted.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	identity, err := r.session()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval := cmd.Duration("interval")
	if interval <= 0 {
		interval = r.config.Sync.Interval()
	}

	events, unsubscribe := r.engine.Notifier().Subscribe(16)
	defer unsubscribe()

	scheduler := tasks.NewScheduler(r.engine, interval, r.logger)
	r.engine.SetPauser(scheduler)

	if _, err := r.engine.Load(); err != nil {
		r.logger.Warn("failed to load cached bookings", "error", err)
	}

	r.logger.Info("watching bookings", "username", identity.Username, "interval", interval)
	scheduler.Start(ctx)
	defer func() {
		scheduler.Stop()
		scheduler.Wait()
	}()

	r.printEvents(ctx, events, formatter.CardOptions{ShowOwner: identity.IsAdmin(), ShowID: true})
	return nil
}

// printEvents writes the list every time it changes until ctx ends or the channel closes.
func (r *Runner) printEvents(ctx context.Context, events <-chan tasks.Event, opts formatter.CardOptions) {
	var last []models.Booking
	printed := false
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Kind == tasks.EventRolledBack {
				r.writePlain("✗ %s\n", ev.Message)
			}
			if printed && slices.EqualFunc(last, ev.Bookings, models.Booking.Equal) {
				continue
			}
			last, printed = ev.Bookings, true
			r.writePlainHeader(ev.Message)
			r.writePlain("%s", formatter.FormatCards(ev.Bookings, opts))
		}
	}
}
