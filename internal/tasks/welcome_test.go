package tasks

import (
	"net/url"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/repositories"
	"github.com/desertthunder/setlist/internal/shared"
)

func newWelcome(t *testing.T, cfg shared.WelcomeConfig) (*Welcome, *repositories.PreferenceRepository, *fakeClock) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	require.NoError(t, err)
	require.NoError(t, shared.RunMigrations(db))
	t.Cleanup(func() { db.Close() })

	prefs := repositories.NewPreferenceRepository(db)
	clock := newFakeClock()
	return NewWelcome(prefs, cfg, log.New(discard{}), clock.Now), prefs, clock
}

func TestWelcomeLink(t *testing.T) {
	w, _, _ := newWelcome(t, testWelcomeConfig())

	link := w.Link(bk("1", "2030-07-01", "sara"))
	u, err := url.Parse(link)
	require.NoError(t, err)

	assert.Equal(t, "api.whatsapp.com", u.Host)
	assert.Equal(t, "/send", u.Path)
	assert.Equal(t, "96899383859", u.Query().Get("phone"))
	assert.Equal(t, "Date: 2030-07-01\nPlace: Muscat\nBride: classic\nGroom: drums", u.Query().Get("text"))
}

func TestWelcomeMessage(t *testing.T) {
	t.Run("Visible After Confirm Until Window Ends", func(t *testing.T) {
		w, prefs, clock := newWelcome(t, testWelcomeConfig())

		w.Begin(bk("1", "2030-07-01", "sara"))
		_, ok := w.Message(sara, 1)
		assert.False(t, ok, "hidden until confirmed")

		w.Confirm()
		msg, ok := w.Message(sara, 1)
		require.True(t, ok)
		assert.Equal(t, "Your first booking is saved.", msg.Text)
		assert.Equal(t, clock.Now().Add(10*time.Minute).UnixMilli(), msg.ExpiresAt.UnixMilli())

		clock.Advance(10 * time.Minute)
		_, ok = w.Message(sara, 1)
		assert.False(t, ok)

		shown, _, err := prefs.Get(repositories.PrefWelcomeShown)
		require.NoError(t, err)
		assert.Equal(t, "true", shown)

		clock.Advance(-5 * time.Minute)
		_, ok = w.Message(sara, 1)
		assert.False(t, ok, "never shown again")
	})

	t.Run("Hidden Without Bookings Or Identity", func(t *testing.T) {
		w, _, _ := newWelcome(t, testWelcomeConfig())
		w.Begin(bk("1", "2030-07-01", "sara"))
		w.Confirm()

		_, ok := w.Message(sara, 0)
		assert.False(t, ok)
		_, ok = w.Message(models.Identity{}, 1)
		assert.False(t, ok)
	})

	t.Run("Admin Only When Enabled", func(t *testing.T) {
		cfg := testWelcomeConfig()
		w, _, _ := newWelcome(t, cfg)
		w.Begin(bk("1", "2030-07-01", "sara"))
		w.Confirm()

		_, ok := w.Message(admin, 1)
		assert.False(t, ok)

		cfg.ShowForAdmin = true
		w.cfg = cfg
		_, ok = w.Message(admin, 1)
		assert.True(t, ok)
	})

	t.Run("Disabled", func(t *testing.T) {
		cfg := testWelcomeConfig()
		cfg.Enabled = false
		w, prefs, _ := newWelcome(t, cfg)

		w.Begin(bk("1", "2030-07-01", "sara"))
		w.Confirm()
		_, ok := w.Message(sara, 1)
		assert.False(t, ok)

		_, found, err := prefs.Get(repositories.PrefWelcomeLink)
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestWelcomeLifecycle(t *testing.T) {
	t.Run("Abort Forgets Unconfirmed Booking", func(t *testing.T) {
		w, prefs, _ := newWelcome(t, testWelcomeConfig())
		w.Begin(bk("1", "2030-07-01", "sara"))
		w.Abort()

		_, found, _ := prefs.Get(repositories.PrefWelcomeCreatedAt)
		assert.False(t, found)
		_, found, _ = prefs.Get(repositories.PrefWelcomeLink)
		assert.False(t, found)
	})

	t.Run("Abort Keeps Confirmed Booking", func(t *testing.T) {
		w, prefs, _ := newWelcome(t, testWelcomeConfig())
		w.Begin(bk("1", "2030-07-01", "sara"))
		w.Confirm()
		w.Abort()

		_, found, _ := prefs.Get(repositories.PrefWelcomeLink)
		assert.True(t, found)
	})

	t.Run("Refresh Rebuilds Pending Link", func(t *testing.T) {
		w, _, _ := newWelcome(t, testWelcomeConfig())
		w.Begin(bk("1", "2030-07-01", "sara"))
		w.Confirm()

		edited := bk("1", "2030-07-01", "sara")
		edited.Location = "Sohar"
		w.Refresh(edited)

		msg, ok := w.Message(sara, 1)
		require.True(t, ok)
		assert.Contains(t, msg.Link, "Sohar")
	})

	t.Run("Refresh Ignored Once Shown", func(t *testing.T) {
		w, prefs, _ := newWelcome(t, testWelcomeConfig())
		w.Begin(bk("1", "2030-07-01", "sara"))
		w.Confirm()
		require.NoError(t, prefs.Set(repositories.PrefWelcomeShown, "true"))

		edited := bk("1", "2030-07-01", "sara")
		edited.Location = "Sohar"
		w.Refresh(edited)

		link, _, _ := prefs.Get(repositories.PrefWelcomeLink)
		assert.NotContains(t, link, "Sohar")
	})

	t.Run("Cleared Removes Every Marker", func(t *testing.T) {
		w, prefs, _ := newWelcome(t, testWelcomeConfig())
		w.Begin(bk("1", "2030-07-01", "sara"))
		w.Confirm()
		require.NoError(t, prefs.Set(repositories.PrefCurrentUser, "sara"))

		w.Cleared()

		for _, key := range []string{
			repositories.PrefWelcomeCreatedAt,
			repositories.PrefWelcomeLink,
			repositories.PrefWelcomeCreated,
		} {
			_, found, _ := prefs.Get(key)
			assert.False(t, found, key)
		}

		user, _, _ := prefs.Get(repositories.PrefCurrentUser)
		assert.Equal(t, "sara", user)
	})

	t.Run("Cleared Is A No-Op When Disabled", func(t *testing.T) {
		cfg := testWelcomeConfig()
		cfg.RemoveOnLastDelete = false
		w, prefs, _ := newWelcome(t, cfg)
		w.Begin(bk("1", "2030-07-01", "sara"))
		w.Confirm()

		w.Cleared()

		_, found, _ := prefs.Get(repositories.PrefWelcomeLink)
		assert.True(t, found)
	})
}
