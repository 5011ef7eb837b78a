// package tasks implements the booking reconciliation engine.
//
// The core abstraction is [Engine], which merges the remote sheet into local state, applies optimistic mutations
// and publishes every change through a [Notifier].
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
)

// BookingCache persists the current bookings list per identity scope.
type BookingCache interface {
	Load(scope string) ([]models.Booking, error)
	Save(scope string, bookings []models.Booking) error
	ClearAll() error
}

// Archive persists bookings whose day has passed.
type Archive interface {
	List() ([]models.Booking, error)
	ListByOwner(username string) ([]models.Booking, error)
	IDs() (map[string]bool, error)
	Append(bookings []models.Booking) (int, error)
	Prune(keep map[string]bool) (int, error)
}

// Availability is the result of checking a date against the known bookings.
type Availability string

const (
	AvailabilityPast      Availability = "past"
	AvailabilityBooked    Availability = "booked"
	AvailabilityAvailable Availability = "available"
)

// SyncResult summarizes one reconciliation pass.
type SyncResult struct {
	Fetched     int              // Rows returned by the sheet
	SkippedRows int              // Rows that could not be decoded
	Current     []models.Booking // Current bookings after the pass
	Archived    int              // Bookings newly moved to the archive
	Pruned      int              // Archive entries removed
	Dropped     int              // Visible rows without a usable date
}

// EngineOptions configures an [Engine].
type EngineOptions struct {
	Store    services.Store
	Cache    BookingCache
	Archive  Archive
	Notifier *Notifier
	Welcome  *Welcome
	Logger   *log.Logger
	Sync     shared.SyncConfig
	Rules    models.Rules
	Now      func() time.Time
}

// Pauser is implemented by the poll scheduler. The engine pauses it around edits.
type Pauser interface {
	Pause()
	Resume(delay time.Duration)
}

// optimisticMark records the last locally applied change for the grace window.
type optimisticMark struct {
	id string
	at time.Time
}

// Session is the mutable state of one logged-in identity.
//
// All fields are guarded by the owning engine's mutex.
type Session struct {
	identity models.Identity

	current []models.Booking // reconciled list shown to the user
	sheet   []models.Booking // every decoded row from the last fetch

	mark           optimisticMark
	pendingAdds    map[string]models.Booking
	pendingDeletes map[string]models.Booking
	idMap          map[string]string // temporary id to server id

	version uint64            // last mutation version issued
	settled map[string]uint64 // latest succeeded mutation version per record
}

// NewSession creates empty state for identity.
func NewSession(identity models.Identity) *Session {
	return &Session{
		identity:       identity,
		current:        []models.Booking{},
		pendingAdds:    make(map[string]models.Booking),
		pendingDeletes: make(map[string]models.Booking),
		idMap:          make(map[string]string),
		settled:        make(map[string]uint64),
	}
}

// Engine reconciles the remote sheet with local state.
type Engine struct {
	mu      sync.Mutex
	session *Session

	store    services.Store
	cache    BookingCache
	archive  Archive
	notifier *Notifier
	welcome  *Welcome
	pauser   Pauser
	logger   *log.Logger
	limiter  *rate.Limiter
	ids      *shared.TempIDs
	cfg      shared.SyncConfig
	rules    models.Rules
	now      func() time.Time
}

// NewEngine creates an [Engine] with no identity.
func NewEngine(opts EngineOptions) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NewNotifier()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	rules := opts.Rules
	if rules == (models.Rules{}) {
		rules = models.DefaultRules()
	}

	return &Engine{
		session:  NewSession(models.Identity{}),
		store:    opts.Store,
		cache:    opts.Cache,
		archive:  opts.Archive,
		notifier: notifier,
		welcome:  opts.Welcome,
		logger:   shared.WithLogger(logger, "component", "engine"),
		limiter:  rate.NewLimiter(rate.Every(opts.Sync.MinInterval()), 1),
		ids:      shared.NewTempIDs(now),
		cfg:      opts.Sync,
		rules:    rules,
		now:      now,
	}
}

// Notifier returns the notifier events are published on.
func (e *Engine) Notifier() *Notifier { return e.notifier }

// SetPauser registers the scheduler paused around edits.
func (e *Engine) SetPauser(p Pauser) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauser = p
}

// SetIdentity starts a fresh session for identity. A zero identity logs out.
func (e *Engine) SetIdentity(identity models.Identity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = NewSession(identity)
}

// Identity returns the identity of the current session.
func (e *Engine) Identity() models.Identity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.identity
}

// Current returns a copy of the current bookings list.
func (e *Engine) Current() []models.Booking {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.CloneBookings(e.session.current)
}

// Sheet returns a copy of every row decoded by the last fetch.
func (e *Engine) Sheet() []models.Booking {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.CloneBookings(e.session.sheet)
}

// Today returns the application calendar day.
func (e *Engine) Today() models.Day {
	return models.AppToday(e.now(), e.cfg.UTCOffsetHours)
}

// Load seeds the current list from the cache for instant display.
func (e *Engine) Load() ([]models.Booking, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.session
	if s.identity.IsZero() {
		return nil, shared.ErrNotAuthenticated
	}
	if e.cache == nil {
		return models.CloneBookings(s.current), nil
	}

	cached, err := e.cache.Load(s.identity.CacheScope())
	if err != nil {
		return nil, fmt.Errorf("failed to load cached bookings: %w", err)
	}

	s.current = cached
	e.notifier.Publish(syncedEvent(s.current, true))
	return models.CloneBookings(s.current), nil
}

// Sync fetches the sheet and reconciles it with local state.
//
// The pass is skipped with [shared.ErrSyncSkipped] when nobody is logged in or the previous pass was too recent.
// On failure local state is left untouched and nothing is published.
func (e *Engine) Sync(ctx context.Context) (*SyncResult, error) {
	return e.sync(ctx, false)
}

func (e *Engine) sync(ctx context.Context, force bool) (*SyncResult, error) {
	e.mu.Lock()
	s := e.session
	e.mu.Unlock()

	if s.identity.IsZero() {
		return nil, fmt.Errorf("%w: not logged in", shared.ErrSyncSkipped)
	}
	if !force && !e.limiter.Allow() {
		return nil, fmt.Errorf("%w: last sync was less than %s ago", shared.ErrSyncSkipped, e.cfg.MinInterval())
	}

	rows, err := e.store.FetchAll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			e.logger.Debug("sync canceled", "error", err)
		} else {
			e.logger.Warn("sync failed", "error", err)
		}
		return nil, err
	}

	all, skipped := models.DecodeRows(rows)
	if skipped > 0 {
		e.logger.Warn("skipped rows without id", "count", skipped)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != s {
		return nil, fmt.Errorf("%w: identity changed during fetch", shared.ErrSyncSkipped)
	}

	result := e.reconcile(s, all)
	result.Fetched = len(rows)
	result.SkippedRows = skipped

	e.persist(s)
	e.notifier.Publish(syncedEvent(s.current, false))

	e.logger.Debug("sync completed",
		"role", s.identity.Role, "current", len(s.current), "archived", result.Archived, "pruned", result.Pruned,
	)
	return result, nil
}

// reconcile merges decoded rows into the session. Callers hold the engine mutex.
func (e *Engine) reconcile(s *Session, all []models.Booking) *SyncResult {
	result := &SyncResult{}
	now := e.now()
	today := models.AppToday(now, e.cfg.UTCOffsetHours)

	s.sheet = all

	visible := make([]models.Booking, 0, len(all))
	for _, b := range all {
		if s.identity.Owns(b) {
			visible = append(visible, b)
		}
	}

	for i, b := range s.current {
		if to, ok := s.idMap[b.ID]; ok {
			s.current[i].ID = to
		}
	}

	merged := make([]models.Booking, 0, len(visible)+len(s.pendingAdds))
	seen := make(map[string]bool, len(visible))
	for _, b := range visible {
		if _, deleting := s.pendingDeletes[b.ID]; deleting {
			continue
		}
		merged = append(merged, b)
		seen[b.ID] = true
	}
	for _, b := range s.current {
		if _, adding := s.pendingAdds[b.ID]; adding && !seen[b.ID] {
			merged = append(merged, b.Clone())
			seen[b.ID] = true
		}
	}

	if s.mark.id != "" && now.Sub(s.mark.at) < e.cfg.GracePeriod() {
		if li := models.IndexByID(s.current, s.mark.id); li >= 0 {
			if si := models.IndexByID(merged, s.mark.id); si >= 0 {
				merged[si] = s.current[li].Clone()
			}
		}
	} else {
		s.mark = optimisticMark{}
	}

	current := make([]models.Booking, 0, len(merged))
	var toArchive []models.Booking
	for _, b := range merged {
		day, ok := b.Day()
		switch {
		case !ok:
			result.Dropped++
		case day.Before(today):
			if !s.identity.IsAdmin() {
				toArchive = append(toArchive, b)
			}
		default:
			current = append(current, b)
		}
	}
	if result.Dropped > 0 {
		e.logger.Debug("dropped bookings without a valid date", "count", result.Dropped)
	}

	current = dedupe(current)
	models.SortByDay(current)

	if !s.identity.IsAdmin() {
		result.Archived, result.Pruned = e.mergeArchive(all, toArchive, current)
	}

	s.current = current
	result.Current = models.CloneBookings(current)
	return result
}

// mergeArchive appends newly past bookings, then prunes entries that left the sheet or are current again.
func (e *Engine) mergeArchive(all, toArchive, current []models.Booking) (int, int) {
	if e.archive == nil {
		return 0, 0
	}

	archived, err := e.archive.IDs()
	if err != nil {
		e.logger.Warn("failed to read archive", "error", err)
		return 0, 0
	}

	var fresh []models.Booking
	for _, b := range toArchive {
		if !archived[b.ID] {
			fresh = append(fresh, b)
		}
	}

	added, err := e.archive.Append(fresh)
	if err != nil {
		e.logger.Warn("failed to archive bookings", "error", err)
	}

	keep := make(map[string]bool, len(all))
	for _, b := range all {
		keep[b.ID] = true
	}
	for _, b := range current {
		delete(keep, b.ID)
	}

	pruned, err := e.archive.Prune(keep)
	if err != nil {
		e.logger.Warn("failed to prune archive", "error", err)
	}
	return added, pruned
}

// persist writes the current list to the cache. Callers hold the engine mutex.
func (e *Engine) persist(s *Session) {
	if e.cache == nil || s.identity.IsZero() {
		return
	}
	if err := e.cache.Save(s.identity.CacheScope(), s.current); err != nil {
		e.logger.Warn("failed to cache bookings", "error", err)
	}
}

// Availability reports whether date can be booked. editingID excludes the booking being edited.
func (e *Engine) Availability(date, editingID string) (Availability, error) {
	day, ok := models.ParseDay(date)
	if !ok {
		return "", fmt.Errorf("%w: invalid date %q", shared.ErrValidation, date)
	}
	if day.Before(e.Today()) {
		return AvailabilityPast, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.session
	for _, list := range [][]models.Booking{s.sheet, s.current} {
		for _, b := range list {
			if b.ID == editingID {
				continue
			}
			if _, deleting := s.pendingDeletes[b.ID]; deleting {
				continue
			}
			if d, ok := b.Day(); ok && d.Equal(day) {
				return AvailabilityBooked, nil
			}
		}
	}
	return AvailabilityAvailable, nil
}

// Archived returns the archive visible to the current identity: everything for admins, own bookings otherwise.
func (e *Engine) Archived() ([]models.Booking, error) {
	identity := e.Identity()
	if identity.IsZero() {
		return nil, shared.ErrNotAuthenticated
	}
	if e.archive == nil {
		return []models.Booking{}, nil
	}
	if identity.IsAdmin() {
		return e.archive.List()
	}
	return e.archive.ListByOwner(identity.Username)
}

// WelcomeMessage returns the first-booking notice when it should be shown for the current identity.
func (e *Engine) WelcomeMessage() (*WelcomeMessage, bool) {
	if e.welcome == nil {
		return nil, false
	}
	e.mu.Lock()
	identity, count := e.session.identity, len(e.session.current)
	e.mu.Unlock()
	return e.welcome.Message(identity, count)
}

// PushArchive reports the identity's archived bookings to the sheet and returns how many ids were sent.
func (e *Engine) PushArchive(ctx context.Context) (int, error) {
	archived, err := e.Archived()
	if err != nil {
		return 0, err
	}
	if len(archived) == 0 {
		return 0, nil
	}

	ids := make([]string, len(archived))
	for i, b := range archived {
		ids[i] = b.ID
	}

	if _, err := e.store.Send(ctx, models.ArchiveCommand(ids)); err != nil {
		return 0, fmt.Errorf("failed to push archive: %w", err)
	}
	return len(ids), nil
}

// IsSkipped reports whether err only means a sync pass did not run.
func IsSkipped(err error) bool {
	return errors.Is(err, shared.ErrSyncSkipped)
}

// dedupe keeps the first booking for every id.
func dedupe(bookings []models.Booking) []models.Booking {
	seen := make(map[string]bool, len(bookings))
	out := bookings[:0]
	for _, b := range bookings {
		if seen[b.ID] {
			continue
		}
		seen[b.ID] = true
		out = append(out, b)
	}
	return out
}
