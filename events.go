package main

import "sync"

// EventKind is the closed set of notifications the session can emit.
type EventKind string

const (
	EventStateChange     EventKind = "stateChange"
	EventPlayerWon       EventKind = "playerWon"
	EventPlayerGaveUp    EventKind = "playerGaveUp"
	EventPlayerExhausted EventKind = "playerExhausted"
	EventGameOver        EventKind = "gameOver"
)

// Event carries a session notification. PlayerNum is set for the per-player
// kinds, Result only for gameOver, State only for stateChange.
type Event struct {
	Kind      EventKind    `json:"event"`
	PlayerNum int          `json:"playerNum,omitempty"`
	Result    *MatchResult `json:"result,omitempty"`
	State     *PublicState `json:"state,omitempty"`
}

// EventHandler receives events synchronously, in emission order, on the
// goroutine that triggered the transition. Handlers must not block.
type EventHandler func(Event)

// Notifier is the publish side of the session's observer channel. Handlers
// are invoked in subscription order.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn EventHandler
}

// NewNotifier returns an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers a handler and returns a token for Unsubscribe.
func (n *Notifier) Subscribe(fn EventHandler) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.subs = append(n.subs, subscription{id: n.nextID, fn: fn})
	return n.nextID
}

// Unsubscribe removes a previously registered handler. Unknown tokens are
// ignored.
func (n *Notifier) Unsubscribe(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, sub := range n.subs {
		if sub.id == id {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers an event to every subscriber before returning.
func (n *Notifier) Publish(e Event) {
	n.mu.Lock()
	handlers := make([]EventHandler, len(n.subs))
	for i, sub := range n.subs {
		handlers[i] = sub.fn
	}
	n.mu.Unlock()

	for _, fn := range handlers {
		fn(e)
	}
}
