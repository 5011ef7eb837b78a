package models

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/desertthunder/setlist/internal/shared"
)

// Rules holds the input limits applied before any booking or account command is sent.
type Rules struct {
	MaxSongs          int
	PhoneLength       int
	MinPasswordLength int
}

// DefaultRules returns the stock limits: ten songs, eight-digit phone numbers and six-character passwords.
func DefaultRules() Rules {
	return Rules{MaxSongs: 10, PhoneLength: 8, MinPasswordLength: 6}
}

// Draft is user input for a new or edited booking.
type Draft struct {
	Date        string
	Location    string
	PhoneNumber string
	BrideZaffa  string
	GroomZaffa  string
	Songs       []string
	Notes       string
}

// DraftOf returns the editable fields of an existing booking.
func DraftOf(b Booking) Draft {
	c := b.Clone()
	return Draft{
		Date:        c.Date,
		Location:    c.Location,
		PhoneNumber: c.PhoneNumber,
		BrideZaffa:  c.BrideZaffa,
		GroomZaffa:  c.GroomZaffa,
		Songs:       c.Songs,
		Notes:       c.Notes,
	}
}

// Normalize trims whitespace and drops blank song entries.
func (d Draft) Normalize() Draft {
	songs := make([]string, 0, len(d.Songs))
	for _, s := range d.Songs {
		if s = strings.TrimSpace(s); s != "" {
			songs = append(songs, s)
		}
	}
	d.Songs = songs
	d.Date = strings.TrimSpace(d.Date)
	d.PhoneNumber = strings.TrimSpace(d.PhoneNumber)
	return d
}

// Validate checks the draft against today and the given rules. Call [Draft.Normalize] first.
func (d Draft) Validate(today Day, rules Rules) error {
	if d.Date == "" {
		return fmt.Errorf("%w: event date is required", shared.ErrValidation)
	}
	day, ok := ParseDay(d.Date)
	if !ok {
		return fmt.Errorf("%w: invalid event date %q", shared.ErrValidation, d.Date)
	}
	if day.Before(today) {
		return fmt.Errorf("%w: %w: %s is before %s", shared.ErrValidation, shared.ErrPastDate, day, today)
	}
	if rules.MaxSongs > 0 && len(d.Songs) > rules.MaxSongs {
		return fmt.Errorf("%w: at most %d songs allowed, got %d", shared.ErrValidation, rules.MaxSongs, len(d.Songs))
	}
	if d.PhoneNumber != "" {
		if strings.IndexFunc(d.PhoneNumber, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0 {
			return fmt.Errorf("%w: phone number must contain digits only", shared.ErrValidation)
		}
		if rules.PhoneLength > 0 && len(d.PhoneNumber) != rules.PhoneLength {
			return fmt.Errorf("%w: phone number must be %d digits", shared.ErrValidation, rules.PhoneLength)
		}
	}
	return nil
}

// Booking builds a booking from the draft.
func (d Draft) Booking(id, username string) Booking {
	songs := d.Songs
	if songs == nil {
		songs = []string{}
	}
	return Booking{
		ID:          id,
		Date:        d.Date,
		Location:    d.Location,
		PhoneNumber: d.PhoneNumber,
		BrideZaffa:  d.BrideZaffa,
		GroomZaffa:  d.GroomZaffa,
		Songs:       slices.Clone(songs),
		Notes:       d.Notes,
		Username:    username,
	}
}

// ValidateLogin requires both a username and a password.
func ValidateLogin(username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", shared.ErrValidation)
	}
	return nil
}

// ValidatePassword enforces the minimum password length used by registration and reset.
func ValidatePassword(password string, rules Rules) error {
	if len(password) < rules.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", shared.ErrValidation, rules.MinPasswordLength)
	}
	return nil
}

// ValidateRegistration checks a new account request, including the confirmation field.
func ValidateRegistration(username, password, confirm string, rules Rules) error {
	if err := ValidateLogin(username, password); err != nil {
		return err
	}
	if err := ValidatePassword(password, rules); err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("%w: passwords do not match", shared.ErrValidation)
	}
	return nil
}
