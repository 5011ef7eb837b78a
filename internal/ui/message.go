package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgEvent MsgKind = iota
	MsgEventsClosed
	MsgSyncDone
	MsgDeleteDone
	MsgArchiveLoaded
	MsgLinkOpened
)

type syncData struct {
	err    error
	report bool
}

type archiveData struct {
	bookings []models.Booking
	err      error
}

// eventMsg is the constructor for [MsgEvent]
func eventMsg(ev tasks.Event) Msg {
	return Msg{kind: MsgEvent, data: ev}
}

// eventsClosedMsg is the constructor for [MsgEventsClosed]
func eventsClosedMsg() Msg {
	return Msg{kind: MsgEventsClosed}
}

// syncDoneMsg is the constructor for [MsgSyncDone]. A failure is shown only when report is set.
func syncDoneMsg(err error, report bool) Msg {
	return Msg{kind: MsgSyncDone, data: syncData{err, report}}
}

// deleteDoneMsg is the constructor for [MsgDeleteDone]
func deleteDoneMsg(err error) Msg {
	return Msg{kind: MsgDeleteDone, data: err}
}

// archiveLoadedMsg is the constructor for [MsgArchiveLoaded]
func archiveLoadedMsg(bookings []models.Booking, err error) Msg {
	return Msg{kind: MsgArchiveLoaded, data: archiveData{bookings, err}}
}

// linkOpenedMsg is the constructor for [MsgLinkOpened]
func linkOpenedMsg(err error) Msg {
	return Msg{kind: MsgLinkOpened, data: err}
}

// errOf returns the error carried by messages whose data is an error.
func (m Msg) errOf() error {
	err, _ := m.data.(error)
	return err
}
