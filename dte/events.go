package dte

import "sync"

// EventID names the asynchronous notifications this driver publishes.
type EventID int

const (
	// UnknownLine is published when a Command-mode line arrives with no
	// HandleLine registered, or when HandleLine returns an error for a
	// Command-mode line or for CMUX channel text — the text is the payload.
	// Framing errors and CMUX frames no handler takes are logged, not
	// published.
	UnknownLine EventID = iota
	// PPPStart is published when StartPPP completes entry into PPP mode.
	PPPStart
	// PPPStop is published when StopPPP has returned to Command mode.
	PPPStop
)

// String renders an EventID for logging.
func (e EventID) String() string {
	switch e {
	case UnknownLine:
		return "unknown_line"
	case PPPStart:
		return "ppp_start"
	case PPPStop:
		return "ppp_stop"
	default:
		return "unknown_event"
	}
}

// EventHandler receives a published event; ctx is the opaque value it was
// registered with.
type EventHandler func(ctx any, id EventID, payload string)

type subscription struct {
	handler EventHandler
	ctx     any
}

// EventSink is the asynchronous notification surface: subscribers
// register by (event ID, handler, opaque context) and Publish fans an
// event out to every matching subscriber. Publishing queues the event;
// delivery happens on the next tick the reader goroutine runs, mirroring
// the event-loop-tick draining the source performs once per reader
// iteration rather than dispatching handlers inline off the reader's own
// stack.
type EventSink struct {
	mu    sync.Mutex
	subs  map[EventID][]subscription
	queue []queuedEvent
}

type queuedEvent struct {
	id      EventID
	payload string
}

// NewEventSink constructs an empty EventSink.
func NewEventSink() *EventSink {
	return &EventSink{subs: make(map[EventID][]subscription)}
}

// Subscribe registers handler to receive future events with the given ID.
func (s *EventSink) Subscribe(id EventID, handler EventHandler, ctx any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[id] = append(s.subs[id], subscription{handler: handler, ctx: ctx})
}

// Unsubscribe removes every subscription registered for id. The reference
// driver keys removal by (event-id, handler, ctx); this core only ever
// has one or two subscribers per event in practice, so removing the whole
// bucket is sufficient and matches esp_modem_remove_event_handler's
// "detach everything for this event" granularity when no finer handle is
// kept by the caller.
func (s *EventSink) Unsubscribe(id EventID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// Publish queues an event for delivery on the next Tick.
func (s *EventSink) Publish(id EventID, payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, queuedEvent{id: id, payload: payload})
}

// Tick delivers every event queued since the last Tick to its
// subscribers, in publish order. Called once per reader-loop iteration.
func (s *EventSink) Tick() {
	s.mu.Lock()
	pending := s.queue
	s.queue = nil
	subsCopy := make(map[EventID][]subscription, len(s.subs))
	for id, subs := range s.subs {
		subsCopy[id] = append([]subscription{}, subs...)
	}
	s.mu.Unlock()

	for _, evt := range pending {
		for _, sub := range subsCopy[evt.id] {
			sub.handler(sub.ctx, evt.id, evt.payload)
		}
	}
}
