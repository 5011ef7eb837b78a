package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// TextMarker is prefixed to notes on write so the spreadsheet keeps them as literal text.
const TextMarker = "'"

// RawBooking mirrors one spreadsheet row as the endpoint returns it.
//
// Every field is kept raw because the sheet emits numbers, strings, arrays and nulls interchangeably.
// Unknown columns (including credentials) are ignored.
type RawBooking struct {
	ID          json.RawMessage `json:"id"`
	Date        json.RawMessage `json:"date"`
	Location    json.RawMessage `json:"location"`
	PhoneNumber json.RawMessage `json:"phoneNumber"`
	BrideZaffa  json.RawMessage `json:"brideZaffa"`
	GroomZaffa  json.RawMessage `json:"groomZaffa"`
	Songs       json.RawMessage `json:"songs"`
	Notes       json.RawMessage `json:"notes"`
	Username    json.RawMessage `json:"username"`
}

// Decode converts a raw row into a [Booking].
//
// A row without an id is rejected. Malformed songs degrade to an empty list and one leading [TextMarker] is stripped from notes.
func (r RawBooking) Decode() (Booking, error) {
	id := rawText(r.ID)
	if id == "" {
		return Booking{}, fmt.Errorf("row has no id")
	}

	return Booking{
		ID:          id,
		Date:        rawText(r.Date),
		Location:    rawText(r.Location),
		PhoneNumber: rawText(r.PhoneNumber),
		BrideZaffa:  rawText(r.BrideZaffa),
		GroomZaffa:  rawText(r.GroomZaffa),
		Songs:       rawSongs(r.Songs),
		Notes:       strings.TrimPrefix(rawText(r.Notes), TextMarker),
		Username:    rawText(r.Username),
	}, nil
}

// DecodeRows decodes every row, returning the bookings and the number of rows that were skipped.
func DecodeRows(rows []RawBooking) ([]Booking, int) {
	bookings := make([]Booking, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		b, err := row.Decode()
		if err != nil {
			skipped++
			continue
		}
		bookings = append(bookings, b)
	}
	return bookings, skipped
}

// DecodeSongs parses the wire form of a song list. Anything that is not a JSON array of strings yields an empty list.
func DecodeSongs(s string) []string {
	songs := []string{}
	s = strings.TrimSpace(s)
	if s == "" {
		return songs
	}
	if err := json.Unmarshal([]byte(s), &songs); err != nil || songs == nil {
		return []string{}
	}
	return songs
}

// EncodeSongs serializes a song list to its wire form.
func EncodeSongs(songs []string) string {
	if songs == nil {
		songs = []string{}
	}
	data, err := json.Marshal(songs)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// rawSongs accepts either a JSON string holding an array or an array directly.
func rawSongs(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []string{}
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return []string{}
		}
		return DecodeSongs(s)
	case '[':
		return DecodeSongs(string(raw))
	default:
		return []string{}
	}
}

// rawText renders a scalar JSON value as text. Null, objects and arrays become "".
func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case 'n', '{', '[':
		return ""
	default:
		return string(raw)
	}
}
