package models

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
)

// Changes maps wire field names to their updated values.
type Changes map[string]any

// Empty reports whether no field differs.
func (c Changes) Empty() bool { return len(c) == 0 }

// Fields returns the changed field names in sorted order.
func (c Changes) Fields() []string {
	return slices.Sorted(maps.Keys(c))
}

// Map returns the changes as a plain map, or nil when empty.
func (c Changes) Map() map[string]any {
	if c.Empty() {
		return nil
	}
	return map[string]any(c)
}

// Diff compares the editable fields of two bookings.
//
// Songs are compared structurally through their JSON encoding, so reordering counts as a change.
func Diff(original, updated Booking) Changes {
	changes := Changes{}
	fields := []struct {
		name     string
		old, new string
	}{
		{"date", original.Date, updated.Date},
		{"location", original.Location, updated.Location},
		{"phoneNumber", original.PhoneNumber, updated.PhoneNumber},
		{"brideZaffa", original.BrideZaffa, updated.BrideZaffa},
		{"groomZaffa", original.GroomZaffa, updated.GroomZaffa},
		{"notes", original.Notes, updated.Notes},
	}
	for _, f := range fields {
		if f.old != f.new {
			changes[f.name] = f.new
		}
	}

	if !sameSongs(original.Songs, updated.Songs) {
		songs := updated.Songs
		if songs == nil {
			songs = []string{}
		}
		changes["songs"] = songs
	}
	return changes
}

func sameSongs(a, b []string) bool {
	if a == nil {
		a = []string{}
	}
	if b == nil {
		b = []string{}
	}
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return slices.Equal(a, b)
	}
	return bytes.Equal(ja, jb)
}
