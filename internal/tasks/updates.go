package tasks

import (
	"fmt"
	"sync"

	"github.com/desertthunder/setlist/internal/models"
)

// EventKind enumerates the notifications published by the engine.
type EventKind int

const (
	EventSynced EventKind = iota
	EventOptimistic
	EventRolledBack
)

func (k EventKind) String() string {
	switch k {
	case EventSynced:
		return "synced"
	case EventOptimistic:
		return "optimistic"
	case EventRolledBack:
		return "rolled_back"
	default:
		return ""
	}
}

// Event is published whenever the current bookings list changes or a mutation fails.
//
// Bookings is a private copy of the list at publish time.
type Event struct {
	Kind      EventKind
	Bookings  []models.Booking
	FromCache bool
	Message   string
	Err       error
}

// Notifier fans events out to subscribers.
//
// Sends never block: a subscriber whose buffer is full misses the event.
type Notifier struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewNotifier creates an empty [Notifier].
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber with the given buffer size.
// The returned function unsubscribes and closes the channel.
func (n *Notifier) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, ch)
			n.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber that has room for it.
func (n *Notifier) Publish(ev Event) {
	if n == nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	for ch := range n.subs {
		sendEvent(ch, ev)
	}
}

// sendEvent sends an event through the channel without blocking.
func sendEvent(ch chan<- Event, ev Event) {
	select {
	case ch <- ev:
		// Sent successfully
	default:
		// Subscriber is behind, skip this event
	}
}

func syncedEvent(bookings []models.Booking, fromCache bool) Event {
	msg := fmt.Sprintf("%d current bookings", len(bookings))
	if fromCache {
		msg += " (cached)"
	}
	return Event{Kind: EventSynced, Bookings: models.CloneBookings(bookings), FromCache: fromCache, Message: msg}
}

func optimisticEvent(bookings []models.Booking, action models.Action, id string) Event {
	return Event{
		Kind:     EventOptimistic,
		Bookings: models.CloneBookings(bookings),
		Message:  fmt.Sprintf("%s %s pending", action, id),
	}
}

func rolledBackEvent(bookings []models.Booking, err *MutationError) Event {
	return Event{
		Kind:     EventRolledBack,
		Bookings: models.CloneBookings(bookings),
		Message:  err.UserMessage,
		Err:      err,
	}
}
