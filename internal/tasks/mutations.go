package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// MutationError is returned by [Engine.Add], [Engine.Edit] and [Engine.Delete].
//
// Err wraps [shared.ErrValidation] when nothing was changed, or [shared.ErrMutationFailed] when the optimistic change
// was rolled back. UserMessage is suitable for display.
type MutationError struct {
	Action      models.Action
	ID          string
	UserMessage string
	Err         error
}

func (e *MutationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Action, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Action, e.ID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// EditResult describes a completed edit.
type EditResult struct {
	Booking models.Booking
	Changes models.Changes
	Skipped bool // nothing changed and no command was sent
}

func validationError(action models.Action, id string, err error) *MutationError {
	msg := "Please check the booking details."
	switch {
	case errors.Is(err, shared.ErrPastDate):
		msg = "The event date cannot be in the past. Pick today or a later date."
	case errors.Is(err, shared.ErrAdminCannotCreate):
		msg = "Admins cannot create new bookings."
	case errors.Is(err, shared.ErrBookingNotFound):
		msg = "That booking could not be found. Try refreshing."
	case errors.Is(err, shared.ErrNotAuthenticated):
		msg = "Please log in first."
	case errors.Is(err, shared.ErrValidation):
		msg = validationDetail(err)
	}
	return &MutationError{Action: action, ID: id, UserMessage: msg, Err: err}
}

// validationDetail strips the sentinel prefix so the field message can be shown as is.
func validationDetail(err error) string {
	msg := err.Error()
	prefix := shared.ErrValidation.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}

func failedError(action models.Action, id string, cause error) *MutationError {
	var msg string
	switch action {
	case models.ActionAdd:
		msg = "The booking could not be added. Your changes were reverted."
	case models.ActionEdit:
		msg = "The booking could not be updated. Your changes were reverted."
	case models.ActionDelete:
		msg = "The booking could not be deleted. It has been restored."
	default:
		msg = "The change could not be saved."
	}
	return &MutationError{
		Action:      action,
		ID:          id,
		UserMessage: msg,
		Err:         fmt.Errorf("%w: %w", shared.ErrMutationFailed, cause),
	}
}

// begin issues a mutation version and snapshots the current list. Callers hold the engine mutex.
func (s *Session) begin() (uint64, []models.Booking) {
	s.version++
	return s.version, models.CloneBookings(s.current)
}

// rollback undoes a failed mutation. Callers hold the engine mutex.
//
// With no newer mutation the full snapshot is restored. Otherwise only the record is reverted, unless a newer
// mutation of the same record has already succeeded. Reports whether anything changed.
func (s *Session) rollback(v uint64, id string, snapshot []models.Booking, revert func([]models.Booking) []models.Booking) bool {
	if s.mark.id == id {
		s.mark = optimisticMark{}
	}
	if s.version == v {
		s.current = snapshot
		return true
	}
	if s.settled[id] > v {
		return false
	}
	s.current = revert(s.current)
	return true
}

func (s *Session) settle(v uint64, id string) {
	if s.settled[id] < v {
		s.settled[id] = v
	}
}

// rename moves every reference of a temporary id to the server id.
func (s *Session) rename(from, to string) {
	s.idMap[from] = to
	if i := models.IndexByID(s.current, from); i >= 0 {
		s.current[i].ID = to
	}
	if s.mark.id == from {
		s.mark.id = to
	}
	if v, ok := s.settled[from]; ok {
		delete(s.settled, from)
		s.settle(v, to)
	}
}

func withoutID(id string) func([]models.Booking) []models.Booking {
	return func(list []models.Booking) []models.Booking {
		out := make([]models.Booking, 0, len(list))
		for _, b := range list {
			if b.ID != id {
				out = append(out, b)
			}
		}
		return out
	}
}

func restoring(original models.Booking) func([]models.Booking) []models.Booking {
	return func(list []models.Booking) []models.Booking {
		if i := models.IndexByID(list, original.ID); i >= 0 {
			list[i] = original.Clone()
			return list
		}
		list = append(list, original.Clone())
		models.SortByDay(list)
		return list
	}
}

// Add creates a booking for the logged-in user.
//
// The booking appears immediately under a temporary id. When the sheet assigns its own id the local entry is renamed.
func (e *Engine) Add(ctx context.Context, draft models.Draft) (*models.Booking, error) {
	e.mu.Lock()
	s := e.session
	identity := s.identity

	if identity.IsZero() {
		e.mu.Unlock()
		return nil, validationError(models.ActionAdd, "", shared.ErrNotAuthenticated)
	}
	if identity.IsAdmin() {
		e.mu.Unlock()
		return nil, validationError(models.ActionAdd, "", fmt.Errorf("%w: %w", shared.ErrValidation, shared.ErrAdminCannotCreate))
	}

	draft = draft.Normalize()
	if err := draft.Validate(e.Today(), e.rules); err != nil {
		e.mu.Unlock()
		return nil, validationError(models.ActionAdd, "", err)
	}

	b := draft.Booking(e.ids.Next(), identity.Username)
	first := len(s.current) == 0

	v, snapshot := s.begin()
	s.current = append(s.current, b.Clone())
	models.SortByDay(s.current)
	s.pendingAdds[b.ID] = b.Clone()
	s.mark = optimisticMark{id: b.ID, at: e.now()}
	e.notifier.Publish(optimisticEvent(s.current, models.ActionAdd, b.ID))
	e.mu.Unlock()

	if first && e.welcome != nil {
		e.welcome.Begin(b)
	}

	result, err := e.store.Send(ctx, models.AddCommand(b, e.cfg.ForceNotesAsText))

	e.mu.Lock()
	defer e.mu.Unlock()

	delete(s.pendingAdds, b.ID)
	if err != nil {
		me := failedError(models.ActionAdd, b.ID, err)
		if e.session == s && s.rollback(v, b.ID, snapshot, withoutID(b.ID)) {
			e.persist(s)
			e.notifier.Publish(rolledBackEvent(s.current, me))
		}
		if first && e.welcome != nil {
			e.welcome.Abort()
		}
		e.logger.Warn("add failed, reverted", "id", b.ID, "error", err)
		return nil, me
	}

	s.settle(v, b.ID)
	if result != nil && result.ID != "" && result.ID != b.ID {
		s.rename(b.ID, result.ID)
		b.ID = result.ID
	}
	if first && e.welcome != nil {
		e.welcome.Confirm()
	}
	if e.session == s {
		e.persist(s)
	}

	e.logger.Info("booking added", "id", b.ID, "date", b.Date)
	return &b, nil
}

// Edit replaces the editable fields of booking id.
//
// The owner is preserved and a regular user can only edit their own bookings. The scheduler is paused while the command is in flight and resumed after the configured
// delay. With send_only_changed an edit that changes nothing returns a skipped result without a network call.
func (e *Engine) Edit(ctx context.Context, id string, draft models.Draft) (*EditResult, error) {
	e.mu.Lock()
	s := e.session

	if s.identity.IsZero() {
		e.mu.Unlock()
		return nil, validationError(models.ActionEdit, id, shared.ErrNotAuthenticated)
	}

	original, ok := lookup(id, s.sheet, s.current)
	if !ok || !s.identity.Owns(original) {
		e.mu.Unlock()
		return nil, validationError(models.ActionEdit, id, fmt.Errorf("%w: %s", shared.ErrBookingNotFound, id))
	}

	draft = draft.Normalize()
	if err := draft.Validate(e.Today(), e.rules); err != nil {
		e.mu.Unlock()
		return nil, validationError(models.ActionEdit, id, err)
	}

	updated := draft.Booking(original.ID, original.Username)
	changes := models.Diff(original, updated)
	if e.cfg.SendOnlyChanged && changes.Empty() {
		e.mu.Unlock()
		e.logger.Debug("edit skipped, nothing changed", "id", id)
		return &EditResult{Booking: original, Changes: changes, Skipped: true}, nil
	}

	v, snapshot := s.begin()
	if i := models.IndexByID(s.current, id); i >= 0 {
		s.current[i] = updated.Clone()
		models.SortByDay(s.current)
	}
	s.mark = optimisticMark{id: id, at: e.now()}
	sole := !s.identity.IsAdmin() && len(s.current) == 1 && s.current[0].ID == id
	pauser := e.pauser
	e.notifier.Publish(optimisticEvent(s.current, models.ActionEdit, id))
	e.mu.Unlock()

	if pauser != nil {
		pauser.Pause()
		defer pauser.Resume(e.cfg.ResumeDelay())
	}

	_, err := e.store.Send(ctx, models.EditCommand(updated, changes, e.cfg.ForceNotesAsText))

	e.mu.Lock()
	if err != nil {
		me := failedError(models.ActionEdit, id, err)
		if e.session == s && s.rollback(v, id, snapshot, restoring(original)) {
			e.persist(s)
			e.notifier.Publish(rolledBackEvent(s.current, me))
		}
		e.mu.Unlock()
		e.logger.Warn("edit failed, reverted", "id", id, "error", err)
		return nil, me
	}

	s.settle(v, id)
	if i := models.IndexByID(s.sheet, id); i >= 0 {
		s.sheet[i] = updated.Clone()
	}
	if e.session == s {
		e.persist(s)
	}
	e.mu.Unlock()

	if sole && e.welcome != nil {
		e.welcome.Refresh(updated)
	}
	e.logger.Info("booking updated", "id", id, "fields", changes.Fields())

	if e.cfg.ResyncAfterEdit {
		if _, err := e.sync(ctx, true); err != nil && !IsSkipped(err) {
			e.logger.Warn("resync after edit failed", "error", err)
		}
	}
	return &EditResult{Booking: updated, Changes: changes}, nil
}

// Delete removes booking id.
//
// The booking disappears immediately and stays hidden from syncs until the command settles.
func (e *Engine) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	s := e.session

	if s.identity.IsZero() {
		e.mu.Unlock()
		return validationError(models.ActionDelete, id, shared.ErrNotAuthenticated)
	}

	i := models.IndexByID(s.current, id)
	if i < 0 {
		e.mu.Unlock()
		return validationError(models.ActionDelete, id, fmt.Errorf("%w: %s", shared.ErrBookingNotFound, id))
	}
	original := s.current[i].Clone()

	v, snapshot := s.begin()
	s.current = withoutID(id)(s.current)
	s.pendingDeletes[id] = original
	remaining := len(s.current)
	e.notifier.Publish(optimisticEvent(s.current, models.ActionDelete, id))
	e.mu.Unlock()

	_, err := e.store.Send(ctx, models.DeleteCommand(id))

	e.mu.Lock()
	defer e.mu.Unlock()

	delete(s.pendingDeletes, id)
	if err != nil {
		me := failedError(models.ActionDelete, id, err)
		if e.session == s && s.rollback(v, id, snapshot, restoring(original)) {
			e.persist(s)
			e.notifier.Publish(rolledBackEvent(s.current, me))
		}
		e.logger.Warn("delete failed, restored", "id", id, "error", err)
		return me
	}

	s.settle(v, id)
	s.sheet = withoutID(id)(s.sheet)
	if e.session == s {
		e.persist(s)
	}
	if remaining == 0 && e.welcome != nil && !s.identity.IsAdmin() {
		e.welcome.Cleared()
	}

	e.logger.Info("booking deleted", "id", id)
	return nil
}

// lookup finds id in the first list that contains it.
func lookup(id string, lists ...[]models.Booking) (models.Booking, bool) {
	for _, list := range lists {
		if i := models.IndexByID(list, id); i >= 0 {
			return list[i].Clone(), true
		}
	}
	return models.Booking{}, false
}
