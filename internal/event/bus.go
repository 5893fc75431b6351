// Package event delivers document change notifications. The engine publishes
// every persisted change; subscribers follow one document or all of them.
// Delivery is synchronous and in publish order, so a subscriber always sees a
// document's versions ascending.
package event

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/docforge/internal/transaction"
)

var (
	// ErrBusClosed indicates an operation on a closed bus.
	ErrBusClosed = errors.New("event bus closed")

	// ErrNilHandler rejects a subscription without a handler.
	ErrNilHandler = errors.New("nil handler")
)

// ChangeEvent is one committed change of a document.
type ChangeEvent struct {
	DocID   string
	Version int
	Change  transaction.Change
	Time    time.Time
}

// Handler receives change events. Handlers run on the publisher's goroutine
// and must not block.
type Handler func(ChangeEvent)

// AllDocuments subscribes to every document on the bus.
const AllDocuments = ""

// Bus fans out change events to subscribers. Safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]*Subscription
	nextID uint64
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[uint64]*Subscription)}
}

// Subscribe registers a handler for one document's changes, or for every
// document when docID is AllDocuments.
func (b *Bus) Subscribe(docID string, h Handler) (*Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	b.nextID++
	sub := &Subscription{id: b.nextID, docID: docID, handler: h, bus: b}
	sub.active.Store(true)
	if b.subs[docID] == nil {
		b.subs[docID] = make(map[uint64]*Subscription)
	}
	b.subs[docID][sub.id] = sub
	return sub, nil
}

// Publish delivers an event to the document's subscribers and to the
// all-documents subscribers. Publishing on a closed bus is a no-op.
func (b *Bus) Publish(ev ChangeEvent) {
	b.mu.RLock()
	targets := make([]*Subscription, 0, len(b.subs[ev.DocID])+len(b.subs[AllDocuments]))
	for _, sub := range b.subs[ev.DocID] {
		targets = append(targets, sub)
	}
	if ev.DocID != AllDocuments {
		for _, sub := range b.subs[AllDocuments] {
			targets = append(targets, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		if sub.active.Load() {
			sub.handler(ev)
		}
	}
}

// Close cancels every subscription. Further subscriptions fail with
// ErrBusClosed.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}
	b.closed = true
	for _, group := range b.subs {
		for _, sub := range group {
			sub.active.Store(false)
		}
	}
	b.subs = make(map[string]map[uint64]*Subscription)
	return nil
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if group, ok := b.subs[sub.docID]; ok {
		delete(group, sub.id)
		if len(group) == 0 {
			delete(b.subs, sub.docID)
		}
	}
}

// Subscription is an active registration on the bus.
type Subscription struct {
	id      uint64
	docID   string
	handler Handler
	bus     *Bus
	active  atomic.Bool
}

// DocID returns the subscribed document id (AllDocuments for a wildcard).
func (s *Subscription) DocID() string { return s.docID }

// Active reports whether the subscription still receives events.
func (s *Subscription) Active() bool { return s.active.Load() }

// Cancel permanently stops delivery. Safe to call more than once.
func (s *Subscription) Cancel() {
	if s.active.Swap(false) {
		s.bus.remove(s)
	}
}
