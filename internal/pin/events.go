package pin

import (
	"context"
	"sync"
	"time"
)

// EventKind identifies a store mutation.
type EventKind string

// Event kinds broadcast by the Store.
const (
	EventPinAdded       EventKind = "pin.added"
	EventPinVerified    EventKind = "pin.verified"
	EventPinDismissed   EventKind = "pin.dismissed"
	EventPinDeleted     EventKind = "pin.deleted"
	EventPinExpired     EventKind = "pin.expired"
	EventHazardAdded    EventKind = "hazard.added"
	EventWrongTurnAdded EventKind = "wrongturn.added"
)

// Event describes one completed mutation. Pin holds the location as it was
// after the mutation (or just before removal). TrailName is empty for detail
// records whose location is unknown to the store.
type Event struct {
	Kind      EventKind
	At        time.Time
	TrailName string
	Pin       *PinLocation
	Hazard    *HazardPin
	WrongTurn *WrongTurnPin
}

// clone deep-copies the payload so each subscriber owns its event.
func (e Event) clone() Event {
	if e.Pin != nil {
		p := e.Pin.clone()
		e.Pin = &p
	}
	if e.Hazard != nil {
		h := e.Hazard.clone()
		e.Hazard = &h
	}
	if e.WrongTurn != nil {
		w := e.WrongTurn.clone()
		e.WrongTurn = &w
	}
	return e
}

// broker fans events out to subscribers, each receiving its own copy. Sends
// never block; a subscriber
// whose buffer is full misses the event.
type broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

func newBroker() *broker {
	return &broker{subs: make(map[int]chan Event)}
}

func (b *broker) subscribe(ctx context.Context, buffer int) <-chan Event {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}()

	return ch
}

func (b *broker) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- e.clone():
		default:
		}
	}
}

func (b *broker) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
