// Package realtime delivers change notifications for log entries.
//
// The hub is an in-process publish/subscribe fan-out. A subscriber
// registers interest in one user's rows (or all rows) and receives an
// event whenever a matching entry is written. Events carry no row data —
// they only tell the subscriber "something you care about changed, go
// re-fetch" — so dropping a duplicate event while the subscriber is busy
// is always safe.
//
// Every subscription has an explicit stop: the returned unsubscribe
// function removes the subscriber and closes its channel. The SSE handler
// ties this to the request context, so a disconnected client is cleaned
// up immediately and a slow one can never block a publisher.
package realtime

import "sync"

// Event describes one change to the logs table.
type Event struct {
	// UserID is the owner of the affected row.
	UserID string
}

// Hub fans out change events to subscribers.
// The zero value is not usable; call NewHub.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[int]*subscriber
}

type subscriber struct {
	// filterUserID scopes delivery: "" receives every event (admin
	// scope), otherwise only events for that user's rows.
	filterUserID string
	ch           chan Event
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscriber)}
}

// Subscribe registers interest in changes to one user's rows
// (filterUserID == "" means all rows). It returns the event channel and
// an unsubscribe function.
//
// The unsubscribe function is idempotent and closes the channel, so a
// range loop over the channel terminates naturally. Callers must always
// invoke it — typically via defer — or the subscriber leaks.
func (h *Hub) Subscribe(filterUserID string) (<-chan Event, func()) {
	// Buffer one event: publishes are non-blocking, and a single pending
	// event is all a re-fetch trigger needs — ten queued notifications
	// collapse into the same fetch anyway.
	sub := &subscriber{
		filterUserID: filterUserID,
		ch:           make(chan Event, 1),
	}

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = sub
	h.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(sub.ch)
		})
	}

	return sub.ch, unsubscribe
}

// Publish notifies every subscriber whose filter matches the event.
//
// Delivery is non-blocking: if a subscriber's buffer is already full, the
// event is dropped — that subscriber already has a pending notification
// and will see the new row on its next re-fetch.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		if sub.filterUserID != "" && sub.filterUserID != ev.UserID {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			// buffer full — a notification is already pending
		}
	}
}

// SubscriberCount returns the number of active subscriptions. Used by
// tests and the metrics gauge.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
