package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
)

// BookingsList syncs and prints the current bookings.
func (r *Runner) BookingsList(ctx context.Context, cmd *cli.Command) error {
	var bookings []models.Booking
	if cmd.Bool("cached") {
		if _, err := r.session(); err != nil {
			return err
		}
		cached, err := r.engine.Load()
		if err != nil {
			return err
		}
		bookings = cached
	} else {
		result, err := r.sync(ctx)
		if err != nil {
			return err
		}
		bookings = result.Current
		r.logger.Debug("synced", "fetched", result.Fetched, "archived", result.Archived, "dropped", result.Dropped)
	}

	if cmd.Bool("json") {
		return r.writeJSON(bookings, true)
	}

	identity := r.engine.Identity()
	r.writePlainHeader(fmt.Sprintf("Bookings for %s (%d)", identity.Username, len(bookings)))
	if len(bookings) == 0 {
		return r.writePlain("No current bookings\n")
	}
	return r.writePlain("%s", formatter.FormatCards(bookings, formatter.CardOptions{ShowOwner: identity.IsAdmin(), ShowID: true}))
}

// BookingsAdd creates a booking and prints the welcome link for a first booking.
func (r *Runner) BookingsAdd(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.sync(ctx); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			return err
		}
		r.logger.Warn("adding without a fresh sync", "error", err)
	}

	draft := draftFromFlags(models.Draft{}, cmd)
	if draft.Date != "" {
		if err := r.checkDate(draft.Date, ""); err != nil {
			return err
		}
	}

	b, err := r.engine.Add(ctx, draft)
	if err != nil {
		return mutationErr(err)
	}

	r.writePlain("✓ Booking added\n%s", formatter.FormatCard(*b, formatter.CardOptions{ShowID: true}))
	if msg, ok := r.engine.WelcomeMessage(); ok {
		r.writePlainln("%s\n%s", msg.Text, msg.Link)
	}
	return nil
}

// BookingsEdit changes the given fields of a booking.
func (r *Runner) BookingsEdit(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.sync(ctx); err != nil {
		return err
	}

	id := cmd.String("id")
	current := r.engine.Current()
	i := models.IndexByID(current, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", shared.ErrBookingNotFound, id)
	}

	draft := draftFromFlags(models.DraftOf(current[i]), cmd)
	if cmd.IsSet("date") {
		if err := r.checkDate(draft.Date, id); err != nil {
			return err
		}
	}

	result, err := r.engine.Edit(ctx, id, draft)
	if err != nil {
		return mutationErr(err)
	}
	if result.Skipped {
		return r.writePlain("Nothing changed\n")
	}

	r.writePlain("✓ Booking updated (%v)\n", result.Changes.Fields())
	return r.writePlain("%s", formatter.FormatCard(result.Booking, formatter.CardOptions{ShowID: true}))
}

// BookingsDelete removes a booking.
func (r *Runner) BookingsDelete(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.sync(ctx); err != nil {
		return err
	}

	id := cmd.String("id")
	if err := r.engine.Delete(ctx, id); err != nil {
		return mutationErr(err)
	}
	return r.writePlain("✓ Booking %s deleted\n", id)
}

// BookingsCheckDate reports whether a date is free.
func (r *Runner) BookingsCheckDate(ctx context.Context, cmd *cli.Command) error {
	date := cmd.StringArg("date")
	if date == "" {
		return fmt.Errorf("%w: date", shared.ErrMissingArgument)
	}
	if _, err := r.sync(ctx); err != nil {
		return err
	}

	availability, err := r.engine.Availability(date, cmd.String("editing"))
	if err != nil {
		return err
	}

	switch availability {
	case tasks.AvailabilityPast:
		return r.writePlain("✗ %s is in the past\n", date)
	case tasks.AvailabilityBooked:
		return r.writePlain("✗ %s is already booked\n", date)
	default:
		return r.writePlain("✓ %s is available\n", date)
	}
}

// checkDate rejects dates that are already taken before anything is sent.
func (r *Runner) checkDate(date, editingID string) error {
	availability, err := r.engine.Availability(date, editingID)
	if err != nil {
		return nil // malformed dates fail draft validation
	}
	if availability == tasks.AvailabilityBooked {
		return fmt.Errorf("%w: %s", shared.ErrDateTaken, date)
	}
	return nil
}

// draftFromFlags overrides the fields of base whose flags were given.
func draftFromFlags(base models.Draft, cmd *cli.Command) models.Draft {
	d := base
	if cmd.IsSet("date") {
		d.Date = cmd.String("date")
	}
	if cmd.IsSet("location") {
		d.Location = cmd.String("location")
	}
	if cmd.IsSet("phone") {
		d.PhoneNumber = cmd.String("phone")
	}
	if cmd.IsSet("bride-zaffa") {
		d.BrideZaffa = cmd.String("bride-zaffa")
	}
	if cmd.IsSet("groom-zaffa") {
		d.GroomZaffa = cmd.String("groom-zaffa")
	}
	if cmd.IsSet("song") {
		d.Songs = cmd.StringSlice("song")
	}
	if cmd.IsSet("notes") {
		d.Notes = cmd.String("notes")
	}
	return d
}

// mutationErr surfaces the display message of a failed mutation.
func mutationErr(err error) error {
	var me *tasks.MutationError
	if errors.As(err, &me) && me.UserMessage != "" {
		return fmt.Errorf("%s: %w", me.UserMessage, err)
	}
	return err
}
