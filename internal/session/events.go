package session

import (
	"log/slog"
	"sync"
	"time"
)

// EventKind identifies what happened to the session.
type EventKind int

const (
	// SessionEstablished fires when a token becomes present.
	SessionEstablished EventKind = iota + 1
	// SessionEnded fires on logout.
	SessionEnded
	// CollectionRefreshed fires after each single-collection fetch; Err is
	// set when the fetch failed.
	CollectionRefreshed
	// RefreshCompleted fires once all fetches of a RefreshAll have settled.
	RefreshCompleted
)

func (k EventKind) String() string {
	switch k {
	case SessionEstablished:
		return "session_established"
	case SessionEnded:
		return "session_ended"
	case CollectionRefreshed:
		return "collection_refreshed"
	case RefreshCompleted:
		return "refresh_completed"
	default:
		return "unknown"
	}
}

// Event is published on a Bus.
type Event struct {
	Kind       EventKind
	Collection Collection
	Err        error
	At         time.Time
}

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses the event.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]*subscription
	next   int
	logger *slog.Logger
}

type subscription struct {
	ch    chan Event
	kinds map[EventKind]bool
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]*subscription), logger: slog.Default()}
}

// Subscribe returns a channel receiving events of the given kinds (all kinds
// when none are given) and a function that cancels the subscription and
// closes the channel.
func (b *Bus) Subscribe(buffer int, kinds ...EventKind) (<-chan Event, func()) {
	sub := &subscription{ch: make(chan Event, buffer)}
	if len(kinds) > 0 {
		sub.kinds = make(map[EventKind]bool, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = true
		}
	}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
}

// Publish delivers e to every interested subscriber.
func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if sub.kinds != nil && !sub.kinds[e.Kind] {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			b.logger.Warn("dropping session event for slow subscriber", "event", e.Kind.String())
		}
	}
}
