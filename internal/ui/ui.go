package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CurrentView ViewState = iota
	ArchiveView
	ConfirmDeleteView
)

// status is the one-line message under the list.
type status struct {
	text  string
	isErr bool
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	engine      *tasks.Engine
	scheduler   *tasks.Scheduler
	events      <-chan tasks.Event
	unsubscribe func()
	openURL     func(string) error

	width    int
	height   int
	current  list.Model
	archive  list.Model
	rendered []models.Booking
	renders  int
	pending  *models.Booking
	welcome  *tasks.WelcomeMessage
	status   status
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model and subscribes it to the engine's notifications.
func NewModel(ctx context.Context, engine *tasks.Engine, scheduler *tasks.Scheduler) *Model {
	events, unsubscribe := engine.Notifier().Subscribe(32)

	current := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	current.Title = "Bookings"
	current.SetShowHelp(false)

	archive := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	archive.Title = "Archive"
	archive.SetShowHelp(false)

	return &Model{
		ctx:         ctx,
		view:        CurrentView,
		engine:      engine,
		scheduler:   scheduler,
		events:      events,
		unsubscribe: unsubscribe,
		openURL:     shared.OpenBrowser,
		current:     current,
		archive:     archive,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Close releases the notifier subscription.
func (m *Model) Close() {
	m.unsubscribe()
}

// Init shows the cached bookings, starts listening for notifications and starts the poll loop.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadCached(), m.waitForEvent(), m.startPolling())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.current.SetSize(msg.Width-4, msg.Height-10)
		m.archive.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case tea.FocusMsg:
		m.scheduler.SetVisible(true)
		return m, m.refresh(false)

	case tea.BlurMsg:
		m.scheduler.SetVisible(false)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case CurrentView:
			return m.handleCurrentKeys(msg)
		case ArchiveView:
			return m.handleArchiveKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgEvent:
		cmd := m.applyEvent(msg.data.(tasks.Event))
		return m, tea.Batch(cmd, m.waitForEvent())

	case MsgEventsClosed:
		return m, nil

	case MsgSyncDone:
		data := msg.data.(syncData)
		if data.report && data.err != nil && !tasks.IsSkipped(data.err) {
			m.setError(fmt.Sprintf("Sync failed: %v", data.err))
		}
		return m, nil

	case MsgDeleteDone:
		if err := msg.errOf(); err != nil {
			m.setError(userMessage(err))
			return m, nil
		}
		m.setInfo("Booking deleted")
		return m, nil

	case MsgArchiveLoaded:
		data := msg.data.(archiveData)
		if data.err != nil {
			m.setError(fmt.Sprintf("Could not load the archive: %v", data.err))
			m.view = CurrentView
			return m, nil
		}
		m.archive.Title = fmt.Sprintf("Archive (%d)", len(data.bookings))
		return m, m.archive.SetItems(bookingItems(data.bookings, m.engine.Identity().IsAdmin()))

	case MsgLinkOpened:
		if err := msg.errOf(); err != nil {
			m.setError(fmt.Sprintf("Could not open the link: %v", err))
		}
		return m, nil
	}
	return m, nil
}

// applyEvent updates the list and status line from a notification.
func (m *Model) applyEvent(ev tasks.Event) tea.Cmd {
	var cmd tea.Cmd
	switch ev.Kind {
	case tasks.EventSynced, tasks.EventOptimistic:
		cmd = m.setCurrent(ev.Bookings)
		if ev.Kind == tasks.EventSynced {
			m.setInfo(ev.Message)
		}
	case tasks.EventRolledBack:
		cmd = m.setCurrent(ev.Bookings)
		m.setError(ev.Message)
	}

	m.welcome, _ = m.engine.WelcomeMessage()
	return cmd
}

// setCurrent replaces the list items only when the bookings changed.
func (m *Model) setCurrent(bookings []models.Booking) tea.Cmd {
	if m.renders > 0 && sameBookings(m.rendered, bookings) {
		return nil
	}
	m.rendered = models.CloneBookings(bookings)
	m.renders++
	m.current.Title = fmt.Sprintf("Bookings (%d)", len(bookings))
	return m.current.SetItems(bookingItems(bookings, m.engine.Identity().IsAdmin()))
}

func (m *Model) setInfo(text string) { m.status = status{text: text} }
func (m *Model) setError(text string) { m.status = status{text: text, isErr: true} }

func (m *Model) handleCurrentKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.current.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		m.setInfo("Refreshing...")
		return m, m.refresh(true)
	case key.Matches(msg, m.keys.archive):
		m.view = ArchiveView
		return m, m.loadArchive()
	case key.Matches(msg, m.keys.remove):
		if item, ok := m.current.SelectedItem().(bookingItem); ok {
			b := item.booking
			m.pending = &b
			m.view = ConfirmDeleteView
		}
		return m, nil
	case key.Matches(msg, m.keys.open):
		if m.welcome != nil {
			return m, m.openLink(m.welcome.Link)
		}
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleArchiveKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.archive):
		m.view = CurrentView
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		pending := m.pending
		m.pending = nil
		m.view = CurrentView
		if pending == nil {
			return m, nil
		}
		return m, m.deleteBooking(pending.ID)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.pending = nil
		m.view = CurrentView
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case CurrentView:
		m.current, cmd = m.current.Update(msg)
	case ArchiveView:
		m.archive, cmd = m.archive.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadCached() tea.Cmd {
	return func() tea.Msg {
		if _, err := m.engine.Load(); err != nil {
			return syncDoneMsg(err, true)
		}
		return nil
	}
}

func (m *Model) startPolling() tea.Cmd {
	return func() tea.Msg {
		m.scheduler.Start(m.ctx)
		return nil
	}
}

// refresh runs one sync pass. Only a refresh the user asked for reports failures.
func (m *Model) refresh(manual bool) tea.Cmd {
	return func() tea.Msg {
		_, err := m.scheduler.Trigger(m.ctx)
		return syncDoneMsg(err, manual)
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev, ok := <-m.events:
			if !ok {
				return eventsClosedMsg()
			}
			return eventMsg(ev)
		case <-m.ctx.Done():
			return eventsClosedMsg()
		}
	}
}

func (m *Model) loadArchive() tea.Cmd {
	return func() tea.Msg {
		bookings, err := m.engine.Archived()
		return archiveLoadedMsg(bookings, err)
	}
}

func (m *Model) deleteBooking(id string) tea.Cmd {
	return func() tea.Msg {
		return deleteDoneMsg(m.engine.Delete(m.ctx, id))
	}
}

func (m *Model) openLink(link string) tea.Cmd {
	return func() tea.Msg {
		return linkOpenedMsg(m.openURL(link))
	}
}

// userMessage prefers the display message of a [*tasks.MutationError].
func userMessage(err error) string {
	var me *tasks.MutationError
	if errors.As(err, &me) && me.UserMessage != "" {
		return me.UserMessage
	}
	return err.Error()
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ArchiveView:
		return m.renderArchive()
	case ConfirmDeleteView:
		return m.renderConfirm()
	default:
		return m.renderCurrent()
	}
}

func (m *Model) renderCurrent() string {
	var b strings.Builder

	if identity := m.engine.Identity(); !identity.IsZero() {
		b.WriteString(styles.help.Render(fmt.Sprintf("Logged in as %s (%s)", identity.Username, identity.Role)))
		b.WriteString("\n")
	}
	b.WriteString(m.current.View())

	if m.welcome != nil {
		text := fmt.Sprintf("%s\nPress o to send your booking details.", m.welcome.Text)
		b.WriteString("\n" + styles.welcome.Render(text))
	}

	b.WriteString("\n" + m.renderStatus())

	helpKeys := []key.Binding{m.keys.refresh, m.keys.archive, m.keys.remove, m.keys.quit}
	if m.welcome != nil {
		helpKeys = append(helpKeys, m.keys.open)
	}
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderArchive() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s", m.archive.View(), m.renderStatus(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderConfirm() string {
	if m.pending == nil {
		return ""
	}
	title := styles.title.Render("Delete this booking?")
	info := bookingItem{booking: *m.pending, showOwner: true}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, info.Title(), info.Description(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderStatus() string {
	switch {
	case m.status.text == "":
		return ""
	case m.status.isErr:
		return styles.err.Render(m.status.text)
	default:
		return styles.ok.Render(m.status.text)
	}
}
