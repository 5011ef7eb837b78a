package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/repositories"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
	tu "github.com/desertthunder/setlist/internal/testing"
)

func booking(id, date string) models.Booking {
	return models.Booking{ID: id, Date: date, Location: "Muscat", Songs: []string{"Song " + id}, Username: "sara"}
}

func newTestModel(t *testing.T, bookings ...models.Booking) (*Model, *tu.FakeStore, *tasks.Engine) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := tu.NewFakeStore(bookings...)
	logger := log.New(io.Discard)
	engine := tasks.NewEngine(tasks.EngineOptions{
		Store:   store,
		Cache:   repositories.NewBookingCache(db),
		Archive: repositories.NewArchiveRepository(db),
		Logger:  logger,
		Sync:    shared.SyncConfig{UTCOffsetHours: 4},
		Now:     func() time.Time { return time.Date(2030, time.June, 15, 8, 0, 0, 0, time.UTC) },
	})
	engine.SetIdentity(models.Identity{Username: "sara", Role: models.RoleUser})

	scheduler := tasks.NewScheduler(engine, time.Hour, logger)
	t.Cleanup(scheduler.Stop)

	m := NewModel(context.Background(), engine, scheduler)
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, store, engine
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// nextEvent feeds the next pending notification into the model.
func nextEvent(t *testing.T, m *Model) {
	t.Helper()
	msg := m.waitForEvent()()
	if msg.(Msg).kind != MsgEvent {
		t.Fatalf("expected an event message, got %+v", msg)
	}
	m.Update(msg)
}

func TestBookingItem(t *testing.T) {
	b := booking("1", "2030-07-01")
	b.BrideZaffa = "classic"
	b.Notes = "lights"

	item := bookingItem{booking: b, showOwner: true}
	if got := item.Title(); got != "Mon, 01 Jul 2030 @ Muscat" {
		t.Errorf("unexpected title %q", got)
	}
	if got := item.Description(); got != "sara • zaffa classic / - • 1 song • lights" {
		t.Errorf("unexpected description %q", got)
	}

	item.showOwner = false
	if strings.Contains(item.Description(), "sara") {
		t.Errorf("owner should be hidden")
	}
}

func TestModelEvents(t *testing.T) {
	t.Run("Sync Fills List", func(t *testing.T) {
		m, _, engine := newTestModel(t, booking("1", "2030-07-01"), booking("2", "2030-07-02"))

		if _, err := engine.Sync(context.Background()); err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		nextEvent(t, m)

		if n := len(m.current.Items()); n != 2 {
			t.Errorf("expected 2 items, got %d", n)
		}
		if m.status.isErr || !strings.Contains(m.status.text, "2 current bookings") {
			t.Errorf("unexpected status %+v", m.status)
		}
	})

	t.Run("Unchanged Bookings Are Not Re-rendered", func(t *testing.T) {
		m, store, engine := newTestModel(t, booking("1", "2030-07-01"))
		ctx := context.Background()

		engine.Sync(ctx)
		nextEvent(t, m)
		engine.Sync(ctx)
		nextEvent(t, m)
		if m.renders != 1 {
			t.Errorf("expected 1 render, got %d", m.renders)
		}

		store.SetBookings(booking("1", "2030-07-01"), booking("3", "2030-07-03"))
		engine.Sync(ctx)
		nextEvent(t, m)
		if m.renders != 2 {
			t.Errorf("expected 2 renders, got %d", m.renders)
		}
	})

	t.Run("Rollback Shows Error", func(t *testing.T) {
		m, _, _ := newTestModel(t)

		m.applyEvent(tasks.Event{Kind: tasks.EventRolledBack, Bookings: []models.Booking{}, Message: "The booking could not be added."})
		if !m.status.isErr || m.status.text != "The booking could not be added." {
			t.Errorf("unexpected status %+v", m.status)
		}
	})

	t.Run("Skipped Sync Is Silent", func(t *testing.T) {
		m, _, _ := newTestModel(t)

		m.Update(syncDoneMsg(shared.ErrSyncSkipped, true))
		if m.status.text != "" {
			t.Errorf("expected no status, got %+v", m.status)
		}

		m.Update(syncDoneMsg(errors.New("offline"), true))
		if !m.status.isErr {
			t.Errorf("expected error status, got %+v", m.status)
		}
	})

	t.Run("Background Sync Failure Is Silent", func(t *testing.T) {
		m, store, _ := newTestModel(t, booking("1", "2030-07-01"))
		store.FailFetch(errors.New("network down"))

		_, cmd := m.Update(tea.FocusMsg{})
		m.Update(cmd())
		if m.status.text != "" {
			t.Errorf("expected no status after a focus refresh, got %+v", m.status)
		}
		if store.Fetches() != 1 {
			t.Errorf("expected 1 fetch, got %d", store.Fetches())
		}

		select {
		case ev := <-m.events:
			t.Errorf("unexpected event %+v", ev)
		default:
		}

		_, cmd = m.Update(keyPress("r"))
		m.Update(cmd())
		if !m.status.isErr || !strings.Contains(m.status.text, "network down") {
			t.Errorf("expected manual refresh to report the failure, got %+v", m.status)
		}
	})
}

func TestModelKeys(t *testing.T) {
	t.Run("Delete With Confirmation", func(t *testing.T) {
		m, store, engine := newTestModel(t, booking("1", "2030-07-01"), booking("2", "2030-07-02"))
		engine.Sync(context.Background())
		nextEvent(t, m)

		m.Update(keyPress("d"))
		if m.view != ConfirmDeleteView || m.pending == nil || m.pending.ID != "1" {
			t.Fatalf("expected confirm view for booking 1, got view %d pending %+v", m.view, m.pending)
		}
		if !strings.Contains(m.View(), "Delete this booking?") {
			t.Errorf("confirm view missing prompt")
		}

		_, cmd := m.Update(keyPress("y"))
		if m.view != CurrentView {
			t.Errorf("expected current view after confirm")
		}
		if cmd == nil {
			t.Fatal("expected delete command")
		}
		m.Update(cmd())

		if actions := store.SentActions(); len(actions) != 1 || actions[0] != models.ActionDelete {
			t.Errorf("expected one delete command, got %v", actions)
		}
		if m.status.text != "Booking deleted" {
			t.Errorf("unexpected status %+v", m.status)
		}
	})

	t.Run("Cancel Delete", func(t *testing.T) {
		m, store, engine := newTestModel(t, booking("1", "2030-07-01"))
		engine.Sync(context.Background())
		nextEvent(t, m)

		m.Update(keyPress("d"))
		_, cmd := m.Update(keyPress("n"))
		if cmd != nil || m.view != CurrentView || m.pending != nil {
			t.Errorf("expected cancel to return to the list")
		}
		if len(store.Sent()) != 0 {
			t.Errorf("nothing should be sent")
		}
	})

	t.Run("Failed Delete Shows User Message", func(t *testing.T) {
		m, _, _ := newTestModel(t)

		m.Update(deleteDoneMsg(&tasks.MutationError{Action: models.ActionDelete, UserMessage: "It has been restored.", Err: errors.New("x")}))
		if !m.status.isErr || m.status.text != "It has been restored." {
			t.Errorf("unexpected status %+v", m.status)
		}
	})

	t.Run("Archive Toggle", func(t *testing.T) {
		m, _, _ := newTestModel(t)

		_, cmd := m.Update(keyPress("a"))
		if m.view != ArchiveView {
			t.Fatalf("expected archive view")
		}
		m.Update(cmd())
		if m.archive.Title != "Archive (0)" {
			t.Errorf("unexpected archive title %q", m.archive.Title)
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != CurrentView {
			t.Errorf("expected esc to return to the list")
		}
	})

	t.Run("Open Welcome Link", func(t *testing.T) {
		m, _, _ := newTestModel(t)
		var opened string
		m.openURL = func(link string) error {
			opened = link
			return nil
		}

		_, cmd := m.Update(keyPress("o"))
		if cmd != nil {
			t.Errorf("no link to open without a welcome message")
		}

		m.welcome = &tasks.WelcomeMessage{Text: "Thanks!", Link: "https://api.whatsapp.com/send?phone=1"}
		if !strings.Contains(m.View(), "Thanks!") {
			t.Errorf("view should show the welcome message")
		}
		_, cmd = m.Update(keyPress("o"))
		m.Update(cmd())
		if opened != m.welcome.Link {
			t.Errorf("expected link to be opened, got %q", opened)
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m, _, _ := newTestModel(t)

		_, cmd := m.Update(keyPress("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("expected tea.QuitMsg")
		}
	})
}
