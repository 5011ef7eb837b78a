package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/desertthunder/setlist/internal/models"
)

var _ list.Item = bookingItem{}

// bookingItem wraps [models.Booking] to implement [list.Item].
type bookingItem struct {
	booking   models.Booking
	showOwner bool
}

func (i bookingItem) FilterValue() string { return i.booking.Date + " " + i.booking.Location }

func (i bookingItem) Title() string {
	title := formatter.DayLabel(i.booking)
	if i.booking.Location != "" {
		title = fmt.Sprintf("%s @ %s", title, i.booking.Location)
	}
	return title
}

func (i bookingItem) Description() string {
	var parts []string
	if i.showOwner && i.booking.Username != "" {
		parts = append(parts, i.booking.Username)
	}
	if i.booking.BrideZaffa != "" || i.booking.GroomZaffa != "" {
		parts = append(parts, fmt.Sprintf("zaffa %s / %s", orDash(i.booking.BrideZaffa), orDash(i.booking.GroomZaffa)))
	}
	switch n := len(i.booking.Songs); n {
	case 0:
	case 1:
		parts = append(parts, "1 song")
	default:
		parts = append(parts, fmt.Sprintf("%d songs", n))
	}
	if i.booking.Notes != "" {
		parts = append(parts, i.booking.Notes)
	}
	return strings.Join(parts, " • ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func bookingItems(bookings []models.Booking, showOwner bool) []list.Item {
	items := make([]list.Item, len(bookings))
	for i, b := range bookings {
		items[i] = bookingItem{booking: b, showOwner: showOwner}
	}
	return items
}

// sameBookings reports whether two lists would render identically.
func sameBookings(a, b []models.Booking) bool {
	return slices.EqualFunc(a, b, models.Booking.Equal)
}
