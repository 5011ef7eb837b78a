// package models defines the data model for the booking sync client
package models

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// DayLayout is the canonical calendar-day format used on the wire and in the cache.
const DayLayout = "2006-01-02"

var dayLayouts = []string{DayLayout, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}

// Booking is one event booking.
//
// Date is kept as the raw string the sheet returned so that it round-trips untouched; use [Booking.Day] to compare.
type Booking struct {
	ID          string   `json:"id"`
	Date        string   `json:"date"`
	Location    string   `json:"location"`
	PhoneNumber string   `json:"phoneNumber"`
	BrideZaffa  string   `json:"brideZaffa"`
	GroomZaffa  string   `json:"groomZaffa"`
	Songs       []string `json:"songs"`
	Notes       string   `json:"notes"`
	Username    string   `json:"username"`
}

// Day parses the booking date. The second return value is false for empty or unparseable dates.
func (b Booking) Day() (Day, bool) {
	return ParseDay(b.Date)
}

// Clone returns a deep copy of the booking.
func (b Booking) Clone() Booking {
	c := b
	if b.Songs != nil {
		c.Songs = slices.Clone(b.Songs)
	}
	return c
}

// CreatedAt derives the creation time from a client-generated millisecond id.
func (b Booking) CreatedAt() (time.Time, bool) {
	if b.ID == "" || strings.HasPrefix(b.ID, "user_") {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(b.ID, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// Equal reports whether two bookings hold the same values, songs compared in order.
func (b Booking) Equal(o Booking) bool {
	return b.ID == o.ID &&
		b.Date == o.Date &&
		b.Location == o.Location &&
		b.PhoneNumber == o.PhoneNumber &&
		b.BrideZaffa == o.BrideZaffa &&
		b.GroomZaffa == o.GroomZaffa &&
		b.Notes == o.Notes &&
		b.Username == o.Username &&
		slices.Equal(b.Songs, o.Songs)
}

// CloneBookings deep-copies a list of bookings. A nil list stays nil.
func CloneBookings(bookings []Booking) []Booking {
	if bookings == nil {
		return nil
	}
	out := make([]Booking, len(bookings))
	for i, b := range bookings {
		out[i] = b.Clone()
	}
	return out
}

// SortByDay sorts bookings ascending by event day, ties broken by id.
//
// Undated bookings sort last.
func SortByDay(bookings []Booking) {
	slices.SortStableFunc(bookings, func(a, b Booking) int {
		da, okA := a.Day()
		db, okB := b.Day()
		switch {
		case okA && !okB:
			return -1
		case !okA && okB:
			return 1
		case okA && okB:
			if c := da.Compare(db); c != 0 {
				return c
			}
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// IndexByID returns the position of the booking with the given id, or -1.
func IndexByID(bookings []Booking, id string) int {
	return slices.IndexFunc(bookings, func(b Booking) bool { return b.ID == id })
}

// Day is a calendar day. The zero value is not a valid day.
type Day struct {
	t time.Time
}

// NewDay returns the day for the given year, month and day of month.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf returns the calendar day of t using its UTC components.
func DayOf(t time.Time) Day {
	u := t.UTC()
	return NewDay(u.Year(), u.Month(), u.Day())
}

// ParseDay parses a date string and takes the UTC calendar day.
//
// Accepts plain dates ("2025-01-10") and timestamps as the sheet serializes them ("2025-01-09T20:00:00.000Z").
func ParseDay(s string) (Day, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Day{}, false
	}
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DayOf(t), true
		}
	}
	return Day{}, false
}

// AppToday returns the current calendar day in the fixed UTC offset used for booking cut-offs.
func AppToday(now time.Time, offsetHours int) Day {
	local := now.In(time.FixedZone("app", offsetHours*60*60))
	return NewDay(local.Year(), local.Month(), local.Day())
}

func (d Day) IsZero() bool { return d.t.IsZero() }
func (d Day) Before(o Day) bool { return d.t.Before(o.t) }
func (d Day) Equal(o Day) bool { return d.t.Equal(o.t) }
func (d Day) Compare(o Day) int { return d.t.Compare(o.t) }
func (d Day) Time() time.Time { return d.t }
func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }
func (d Day) Format(l string) string { return d.t.Format(l) }

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DayLayout)
}
