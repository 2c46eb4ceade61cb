// Package notifier implements the change notifier (spec §4.7): a
// per-session, in-memory, best-effort fan-out of "something changed"
// events. It carries no session state in the event itself; subscribers
// re-read.
package notifier

import "sync"

// Event is the payload delivered to subscribers. It carries no session
// state; it only tells a subscriber which session changed.
type Event struct {
	SessionID string
}

type subscriber struct {
	ch        chan Event
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Notifier tracks subscriber handles per session id and publishes change
// events to them. The zero value is not usable; use New.
type Notifier struct {
	mu         sync.Mutex
	subs       map[string]map[*subscriber]struct{}
	bufferSize int
}

// New returns an empty Notifier. bufferSize sizes each subscriber's
// channel buffer; a slow consumer that falls bufferSize events behind is
// dropped rather than allowed to block Publish. Values less than 1 are
// treated as 1.
func New(bufferSize int) *Notifier {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Notifier{subs: make(map[string]map[*subscriber]struct{}), bufferSize: bufferSize}
}

// Subscribe registers interest in sessionID. The returned channel is
// buffered per the Notifier's configured size; a slow consumer that never
// drains it is dropped on a later publish rather than blocking the
// publisher. Callers must call the returned unsubscribe func when done.
func (n *Notifier) Subscribe(sessionID string) (<-chan Event, func()) {
	n.mu.Lock()
	set := n.subs[sessionID]
	if set == nil {
		set = make(map[*subscriber]struct{})
		n.subs[sessionID] = set
	}
	sub := &subscriber{ch: make(chan Event, n.bufferSize)}
	set[sub] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			n.mu.Lock()
			if set, ok := n.subs[sessionID]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(n.subs, sessionID)
				}
			}
			n.mu.Unlock()
			sub.close()
		})
	}
	return sub.ch, unsubscribe
}

// Publish emits a change event for sessionID to every current subscriber.
// Delivery is best-effort: a subscriber whose buffer is full is dropped
// rather than blocking the commit path that calls Publish.
func (n *Notifier) Publish(sessionID string) {
	n.mu.Lock()
	set := n.subs[sessionID]
	subs := make([]*subscriber, 0, len(set))
	for s := range set {
		subs = append(subs, s)
	}
	n.mu.Unlock()

	event := Event{SessionID: sessionID}
	var drop []*subscriber
	for _, sub := range subs {
		select {
		case sub.ch <- event:
		default:
			sub.close()
			drop = append(drop, sub)
		}
	}
	if len(drop) == 0 {
		return
	}
	n.mu.Lock()
	if set, ok := n.subs[sessionID]; ok {
		for _, sub := range drop {
			delete(set, sub)
		}
		if len(set) == 0 {
			delete(n.subs, sessionID)
		}
	}
	n.mu.Unlock()
}
