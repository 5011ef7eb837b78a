package models

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/desertthunder/setlist/internal/shared"
)

func TestDay(t *testing.T) {
	t.Run("ParseDay", func(t *testing.T) {
		tc := []struct {
			name  string
			input string
			want  string
			ok    bool
		}{
			{name: "plain date", input: "2025-01-10", want: "2025-01-10", ok: true},
			{name: "utc timestamp", input: "2025-01-09T20:00:00.000Z", want: "2025-01-09", ok: true},
			{name: "offset timestamp uses utc components", input: "2025-01-10T01:00:00+04:00", want: "2025-01-09", ok: true},
			{name: "naive timestamp", input: "2025-03-01T10:30:00", want: "2025-03-01", ok: true},
			{name: "surrounding whitespace", input: "  2025-01-10 ", want: "2025-01-10", ok: true},
			{name: "empty", input: "", ok: false},
			{name: "garbage", input: "next tuesday", ok: false},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				got, ok := ParseDay(tt.input)
				if ok != tt.ok {
					t.Fatalf("ParseDay(%q) ok = %v, want %v", tt.input, ok, tt.ok)
				}
				if ok && got.String() != tt.want {
					t.Errorf("ParseDay(%q) = %s, want %s", tt.input, got, tt.want)
				}
			})
		}
	})

	t.Run("AppToday", func(t *testing.T) {
		tc := []struct {
			name string
			now  time.Time
			want string
		}{
			{name: "before local midnight", now: time.Date(2025, 1, 9, 19, 59, 0, 0, time.UTC), want: "2025-01-09"},
			{name: "after local midnight", now: time.Date(2025, 1, 9, 20, 0, 0, 0, time.UTC), want: "2025-01-10"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if got := AppToday(tt.now, 4); got.String() != tt.want {
					t.Errorf("AppToday() = %s, want %s", got, tt.want)
				}
			})
		}
	})

	t.Run("Compare", func(t *testing.T) {
		a := NewDay(2025, 1, 5)
		b := NewDay(2025, 1, 10)
		if !a.Before(b) || b.Before(a) {
			t.Error("expected 2025-01-05 before 2025-01-10")
		}
		if !a.AddDays(5).Equal(b) {
			t.Error("expected AddDays to move forward five days")
		}
	})
}

func TestBooking(t *testing.T) {
	t.Run("CreatedAt", func(t *testing.T) {
		b := Booking{ID: "1736500000000"}
		got, ok := b.CreatedAt()
		if !ok {
			t.Fatal("expected numeric id to carry a timestamp")
		}
		if got.UnixMilli() != 1736500000000 {
			t.Errorf("expected 1736500000000, got %d", got.UnixMilli())
		}

		for _, id := range []string{"", "user_123", "abc"} {
			if _, ok := (Booking{ID: id}).CreatedAt(); ok {
				t.Errorf("expected no timestamp for id %q", id)
			}
		}
	})

	t.Run("Clone is deep", func(t *testing.T) {
		b := Booking{ID: "1", Songs: []string{"a", "b"}}
		c := b.Clone()
		c.Songs[0] = "changed"
		if b.Songs[0] != "a" {
			t.Error("expected original songs to be untouched")
		}
	})

	t.Run("SortByDay", func(t *testing.T) {
		bookings := []Booking{
			{ID: "3", Date: "2025-03-01"},
			{ID: "x", Date: ""},
			{ID: "2", Date: "2025-01-10"},
			{ID: "1", Date: "2025-01-10"},
		}
		SortByDay(bookings)

		var ids []string
		for _, b := range bookings {
			ids = append(ids, b.ID)
		}
		if want := []string{"1", "2", "3", "x"}; !slices.Equal(ids, want) {
			t.Errorf("expected order %v, got %v", want, ids)
		}
	})
}

func TestDecode(t *testing.T) {
	t.Run("DecodeSongs", func(t *testing.T) {
		tc := []struct {
			name  string
			input string
			want  []string
		}{
			{name: "array", input: `["One","Two"]`, want: []string{"One", "Two"}},
			{name: "empty string", input: "", want: []string{}},
			{name: "not json", input: "One, Two", want: []string{}},
			{name: "object", input: `{"a":1}`, want: []string{}},
			{name: "number elements", input: `[1,2]`, want: []string{}},
			{name: "null", input: "null", want: []string{}},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				got := DecodeSongs(tt.input)
				if got == nil {
					t.Fatal("expected non-nil list")
				}
				if !slices.Equal(got, tt.want) {
					t.Errorf("DecodeSongs(%q) = %v, want %v", tt.input, got, tt.want)
				}
			})
		}
	})

	t.Run("RawBooking", func(t *testing.T) {
		input := `[
			{"id": 1736500000000, "date": "2025-01-09T20:00:00.000Z", "location": "Hall", "phoneNumber": 91234567,
			 "songs": "[\"Song A\",\"Song B\"]", "notes": "'0012", "username": "sara", "password": "secret"},
			{"id": "", "date": "2025-01-10"},
			{"id": "abc", "songs": ["Direct"], "notes": null, "username": "sara"},
			{"id": "bad", "songs": "not json"}
		]`

		var rows []RawBooking
		if err := json.Unmarshal([]byte(input), &rows); err != nil {
			t.Fatalf("failed to unmarshal rows: %v", err)
		}

		bookings, skipped := DecodeRows(rows)
		if skipped != 1 {
			t.Errorf("expected 1 skipped row, got %d", skipped)
		}
		if len(bookings) != 3 {
			t.Fatalf("expected 3 bookings, got %d", len(bookings))
		}

		first := bookings[0]
		if first.ID != "1736500000000" {
			t.Errorf("expected numeric id rendered as text, got %s", first.ID)
		}
		if first.PhoneNumber != "91234567" {
			t.Errorf("expected phone number 91234567, got %s", first.PhoneNumber)
		}
		if first.Notes != "0012" {
			t.Errorf("expected text marker stripped, got %q", first.Notes)
		}
		if !slices.Equal(first.Songs, []string{"Song A", "Song B"}) {
			t.Errorf("unexpected songs %v", first.Songs)
		}
		if day, ok := first.Day(); !ok || day.String() != "2025-01-09" {
			t.Errorf("expected day 2025-01-09, got %s", day)
		}

		if !slices.Equal(bookings[1].Songs, []string{"Direct"}) {
			t.Errorf("expected array songs to decode, got %v", bookings[1].Songs)
		}
		if bookings[1].Notes != "" {
			t.Errorf("expected null notes to decode empty, got %q", bookings[1].Notes)
		}
		if len(bookings[2].Songs) != 0 {
			t.Errorf("expected malformed songs to decode empty, got %v", bookings[2].Songs)
		}
	})

	t.Run("EncodeSongs", func(t *testing.T) {
		if got := EncodeSongs(nil); got != "[]" {
			t.Errorf("expected [], got %s", got)
		}
		if got := EncodeSongs([]string{"a"}); got != `["a"]` {
			t.Errorf(`expected ["a"], got %s`, got)
		}
	})
}

func TestDiff(t *testing.T) {
	original := Booking{ID: "1", Date: "2025-01-10", Location: "Hall", Songs: []string{"A", "B"}, Notes: "n"}

	t.Run("no changes", func(t *testing.T) {
		if changes := Diff(original, original.Clone()); !changes.Empty() {
			t.Errorf("expected empty diff, got %v", changes)
		}
	})

	t.Run("nil and empty songs are equal", func(t *testing.T) {
		a := Booking{ID: "1"}
		b := Booking{ID: "1", Songs: []string{}}
		if changes := Diff(a, b); !changes.Empty() {
			t.Errorf("expected empty diff, got %v", changes)
		}
	})

	t.Run("song order matters", func(t *testing.T) {
		updated := original.Clone()
		updated.Songs = []string{"B", "A"}
		changes := Diff(original, updated)
		if _, ok := changes["songs"]; !ok {
			t.Fatal("expected reordered songs to be a change")
		}
		if len(changes) != 1 {
			t.Errorf("expected only songs to change, got %v", changes.Fields())
		}
	})

	t.Run("field changes", func(t *testing.T) {
		updated := original.Clone()
		updated.Location = "Garden"
		updated.Notes = ""
		changes := Diff(original, updated)
		if want := []string{"location", "notes"}; !slices.Equal(changes.Fields(), want) {
			t.Errorf("expected %v, got %v", want, changes.Fields())
		}
		if changes["location"] != "Garden" {
			t.Errorf("expected new location, got %v", changes["location"])
		}
	})
}

func TestValidate(t *testing.T) {
	today := NewDay(2025, 1, 10)
	rules := DefaultRules()

	tc := []struct {
		name    string
		draft   Draft
		wantErr error
	}{
		{name: "valid future", draft: Draft{Date: "2099-01-01", PhoneNumber: "91234567"}},
		{name: "today is allowed", draft: Draft{Date: "2025-01-10"}},
		{name: "past date", draft: Draft{Date: "2025-01-05"}, wantErr: shared.ErrPastDate},
		{name: "missing date", draft: Draft{}, wantErr: shared.ErrValidation},
		{name: "bad date", draft: Draft{Date: "soon"}, wantErr: shared.ErrValidation},
		{name: "phone letters", draft: Draft{Date: "2099-01-01", PhoneNumber: "9123abcd"}, wantErr: shared.ErrValidation},
		{name: "phone length", draft: Draft{Date: "2099-01-01", PhoneNumber: "9123"}, wantErr: shared.ErrValidation},
		{
			name:    "too many songs",
			draft:   Draft{Date: "2099-01-01", Songs: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"}},
			wantErr: shared.ErrValidation,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Normalize().Validate(today, rules)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}

	t.Run("Normalize drops blank songs", func(t *testing.T) {
		d := Draft{Songs: []string{" A ", "", "   ", "B"}}.Normalize()
		if !slices.Equal(d.Songs, []string{"A", "B"}) {
			t.Errorf("expected [A B], got %v", d.Songs)
		}
	})

	t.Run("Registration", func(t *testing.T) {
		if err := ValidateRegistration("sara", "12345", "12345", rules); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected short password to fail, got %v", err)
		}
		if err := ValidateRegistration("sara", "123456", "654321", rules); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected mismatched confirmation to fail, got %v", err)
		}
		if err := ValidateRegistration("sara", "123456", "123456", rules); err != nil {
			t.Errorf("expected valid registration, got %v", err)
		}
	})
}
