package tasks

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/repositories"
	"github.com/desertthunder/setlist/internal/shared"
)

const whatsAppSendURL = "https://api.whatsapp.com/send"

// Preferences stores string markers by key.
type Preferences interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(keys ...string) error
	DeletePrefix(prefix string) error
}

// WelcomeMessage is the notice shown after a user's first booking.
type WelcomeMessage struct {
	Text      string
	Link      string
	ExpiresAt time.Time
}

// Welcome tracks the first-booking message and its contact link.
//
// The message is shown for a configured number of minutes after the first booking is confirmed, then never again.
type Welcome struct {
	prefs  Preferences
	cfg    shared.WelcomeConfig
	logger *log.Logger
	now    func() time.Time
}

// NewWelcome creates a [Welcome] over prefs. A nil now defaults to [time.Now].
func NewWelcome(prefs Preferences, cfg shared.WelcomeConfig, logger *log.Logger, now func() time.Time) *Welcome {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Welcome{prefs: prefs, cfg: cfg, logger: shared.WithLogger(logger, "component", "welcome"), now: now}
}

// Link builds the contact link for b from the configured number and template.
func (w *Welcome) Link(b models.Booking) string {
	text := strings.NewReplacer(
		"{date}", b.Date,
		"{location}", b.Location,
		"{brideZaffa}", b.BrideZaffa,
		"{groomZaffa}", b.GroomZaffa,
	).Replace(w.cfg.Template)

	q := url.Values{}
	q.Set("phone", w.cfg.WhatsAppNumber)
	q.Set("text", text)
	return whatsAppSendURL + "?" + q.Encode()
}

// Begin records the creation time and link of a first booking that is about to be sent.
func (w *Welcome) Begin(b models.Booking) {
	if !w.cfg.Enabled {
		return
	}
	w.set(repositories.PrefWelcomeCreatedAt, strconv.FormatInt(w.now().UnixMilli(), 10))
	w.set(repositories.PrefWelcomeLink, w.Link(b))
	w.del(repositories.PrefWelcomeShown)
}

// Confirm marks the first booking as saved.
func (w *Welcome) Confirm() {
	if !w.cfg.Enabled {
		return
	}
	w.set(repositories.PrefWelcomeCreated, "true")
}

// Abort forgets a first booking that failed to save.
func (w *Welcome) Abort() {
	if w.get(repositories.PrefWelcomeCreated) == "true" {
		return
	}
	w.del(repositories.PrefWelcomeCreatedAt, repositories.PrefWelcomeLink)
}

// Refresh rebuilds the link after the sole booking was edited, while the message is still pending.
func (w *Welcome) Refresh(b models.Booking) {
	if !w.cfg.Enabled || w.get(repositories.PrefWelcomeCreatedAt) == "" || w.get(repositories.PrefWelcomeShown) == "true" {
		return
	}
	w.set(repositories.PrefWelcomeLink, w.Link(b))
}

// Cleared is called after the last booking was deleted.
func (w *Welcome) Cleared() {
	if !w.cfg.RemoveOnLastDelete {
		return
	}
	if err := w.prefs.DeletePrefix("welcome."); err != nil {
		w.logger.Warn("failed to clear welcome state", "error", err)
	}
}

// Message returns the welcome notice when it should be visible for identity with count current bookings.
//
// Once the display window has passed the message is marked shown and never returned again.
func (w *Welcome) Message(identity models.Identity, count int) (*WelcomeMessage, bool) {
	if !w.cfg.Enabled || count == 0 || identity.IsZero() {
		return nil, false
	}
	if identity.IsAdmin() && !w.cfg.ShowForAdmin {
		return nil, false
	}

	createdAt := w.get(repositories.PrefWelcomeCreatedAt)
	link := w.get(repositories.PrefWelcomeLink)
	if createdAt == "" || link == "" || w.get(repositories.PrefWelcomeCreated) != "true" || w.get(repositories.PrefWelcomeShown) == "true" {
		return nil, false
	}

	ms, err := strconv.ParseInt(createdAt, 10, 64)
	if err != nil {
		return nil, false
	}

	expires := time.UnixMilli(ms).Add(w.cfg.Duration())
	if !w.now().Before(expires) {
		w.set(repositories.PrefWelcomeShown, "true")
		return nil, false
	}
	return &WelcomeMessage{Text: w.cfg.Message, Link: link, ExpiresAt: expires}, true
}

func (w *Welcome) get(key string) string {
	value, _, err := w.prefs.Get(key)
	if err != nil {
		w.logger.Warn("failed to read preference", "key", key, "error", err)
		return ""
	}
	return value
}

func (w *Welcome) set(key, value string) {
	if err := w.prefs.Set(key, value); err != nil {
		w.logger.Warn("failed to write preference", "key", key, "error", err)
	}
}

func (w *Welcome) del(keys ...string) {
	if err := w.prefs.Delete(keys...); err != nil {
		w.logger.Warn("failed to delete preferences", "keys", keys, "error", err)
	}
}
