// Package pointer models the document-level pointer listeners a gesture
// holds while it runs.
//
// A gesture captures the Bus when it starts and receives every move, up and
// cancel event until it releases its Subscription. Only one Subscription may
// be live at a time, which is what keeps gestures mutually exclusive across
// the whole editor.
package pointer

import (
	"errors"

	"marker-mind/core"
)

// ErrCaptured is returned when a gesture starts while another one holds the bus.
var ErrCaptured = errors.New("pointer already captured by another gesture")

// Button identifies the pressed pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
	ButtonMiddle
)

// Modifiers reports the keyboard modifiers held during an event.
type Modifiers struct {
	Shift bool `json:"shift,omitempty"`
	Alt   bool `json:"alt,omitempty"`
	Ctrl  bool `json:"ctrl,omitempty"`
}

// Event is one pointer sample in screen coordinates.
type Event struct {
	ID        int        `json:"id"`
	Screen    core.Point `json:"screen"`
	Button    Button     `json:"button"`
	Modifiers Modifiers  `json:"modifiers"`
}

// Handlers are the callbacks of one gesture. Nil handlers are skipped.
type Handlers struct {
	Move   func(Event)
	Up     func(Event)
	Cancel func(Event)
}

// Bus fans document-level pointer events out to the capturing gesture.
type Bus struct {
	active *Subscription
	nextID uint64
}

// NewBus returns an idle bus.
func NewBus() *Bus {
	return &Bus{}
}

// Capture registers h as the global listener set. It fails with ErrCaptured
// while another subscription is live.
func (b *Bus) Capture(h Handlers) (*Subscription, error) {
	if b.active != nil {
		return nil, ErrCaptured
	}
	b.nextID++
	sub := &Subscription{id: b.nextID, bus: b, handlers: h}
	b.active = sub
	return sub, nil
}

// Captured reports whether a gesture currently holds the bus.
func (b *Bus) Captured() bool {
	return b.active != nil
}

// Listeners returns how many listener sets are registered (zero or one).
func (b *Bus) Listeners() int {
	if b.active == nil {
		return 0
	}
	return 1
}

// Move dispatches a pointer move. It reports whether a gesture consumed it.
func (b *Bus) Move(ev Event) bool {
	return b.dispatch(ev, func(h Handlers) func(Event) { return h.Move })
}

// Up dispatches a pointer release.
func (b *Bus) Up(ev Event) bool {
	return b.dispatch(ev, func(h Handlers) func(Event) { return h.Up })
}

// Cancel dispatches a pointer cancellation.
func (b *Bus) Cancel(ev Event) bool {
	return b.dispatch(ev, func(h Handlers) func(Event) { return h.Cancel })
}

func (b *Bus) dispatch(ev Event, pick func(Handlers) func(Event)) bool {
	sub := b.active
	if sub == nil {
		return false
	}
	if fn := pick(sub.handlers); fn != nil {
		fn(ev)
	}
	return true
}

// Subscription is the scoped handle a gesture owns for its lifetime.
type Subscription struct {
	id       uint64
	bus      *Bus
	handlers Handlers
}

// Release unregisters the listeners. It is idempotent and safe on nil.
func (s *Subscription) Release() {
	if s == nil || s.bus == nil {
		return
	}
	if s.bus.active == s {
		s.bus.active = nil
	}
	s.bus = nil
}

// Live reports whether the subscription still receives events.
func (s *Subscription) Live() bool {
	return s != nil && s.bus != nil && s.bus.active == s
}
