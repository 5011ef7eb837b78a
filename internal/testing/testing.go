// package testing contains shared testing utilities
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/setlist/internal/models"
)

// FakeStore is an in-memory stand-in for the remote booking sheet.
//
// Rows are returned as the sheet would emit them (songs as a JSON string). Commands are recorded in order.
// OnSend, when set, decides the result of every command; otherwise each command succeeds.
type FakeStore struct {
	mu       sync.Mutex
	rows     []models.RawBooking
	fetchErr error
	fetches  int
	sent     []models.Command

	OnSend func(cmd models.Command) (*models.CommandResult, error)
}

// NewFakeStore creates a [FakeStore] serving the given bookings.
func NewFakeStore(bookings ...models.Booking) *FakeStore {
	s := &FakeStore{}
	s.SetBookings(bookings...)
	return s
}

// SetBookings replaces the rows served by FetchAll.
func (s *FakeStore) SetBookings(bookings ...models.Booking) {
	rows := make([]models.RawBooking, len(bookings))
	for i, b := range bookings {
		rows[i] = RawRow(b)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
}

// SetRows replaces the rows served by FetchAll with raw rows.
func (s *FakeStore) SetRows(rows ...models.RawBooking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
}

// FailFetch makes every FetchAll return err until cleared with nil.
func (s *FakeStore) FailFetch(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErr = err
}

func (s *FakeStore) FetchAll(ctx context.Context) ([]models.RawBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetches++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return append([]models.RawBooking(nil), s.rows...), nil
}

func (s *FakeStore) Send(ctx context.Context, cmd models.Command) (*models.CommandResult, error) {
	s.mu.Lock()
	s.sent = append(s.sent, cmd)
	onSend := s.OnSend
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if onSend != nil {
		return onSend(cmd)
	}
	return &models.CommandResult{Status: models.StatusSuccess}, nil
}

// Fetches reports how many times FetchAll was called.
func (s *FakeStore) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// Sent returns a copy of the recorded commands.
func (s *FakeStore) Sent() []models.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Command(nil), s.sent...)
}

// SentActions returns the action of each recorded command.
func (s *FakeStore) SentActions() []models.Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	actions := make([]models.Action, len(s.sent))
	for i, cmd := range s.sent {
		actions[i] = cmd.Action
	}
	return actions
}

// RawRow encodes a booking the way the sheet returns it.
func RawRow(b models.Booking) models.RawBooking {
	text := func(s string) json.RawMessage {
		data, _ := json.Marshal(s)
		return data
	}
	return models.RawBooking{
		ID:          text(b.ID),
		Date:        text(b.Date),
		Location:    text(b.Location),
		PhoneNumber: text(b.PhoneNumber),
		BrideZaffa:  text(b.BrideZaffa),
		GroomZaffa:  text(b.GroomZaffa),
		Songs:       text(models.EncodeSongs(b.Songs)),
		Notes:       text(b.Notes),
		Username:    text(b.Username),
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
