package dte

import (
	"context"
	"time"
)

// UARTEventType enumerates the event kinds the UART driver delivers on its
// event queue, matching the surface a real serial driver's event queue
// exposes around buffered reads (pattern-detect interrupts, overflow,
// line errors).
type UARTEventType int

const (
	EventData UARTEventType = iota
	EventPatternDetected
	EventFIFOOverflow
	EventBufferFull
	EventBreak
	EventParityErr
	EventFrameErr
)

// String renders a UARTEventType for logging.
func (t UARTEventType) String() string {
	switch t {
	case EventData:
		return "data"
	case EventPatternDetected:
		return "pattern_detected"
	case EventFIFOOverflow:
		return "fifo_overflow"
	case EventBufferFull:
		return "buffer_full"
	case EventBreak:
		return "break"
	case EventParityErr:
		return "parity_err"
	case EventFrameErr:
		return "frame_err"
	default:
		return "unknown"
	}
}

// UARTEvent is one item off the UART driver's event queue.
type UARTEvent struct {
	Type UARTEventType
	// Size is the number of bytes immediately available to Read, valid
	// for EventData.
	Size int
}

// UART is the transport this driver consumes: a serial port already
// opened and configured, plus the event-queue/pattern-detect surface the
// reader goroutine depends on. Real hardware UART drivers deliver pattern
// detection via an interrupt; SerialUART emulates it in software by
// scanning bytes as they're read, since go.bug.st/serial (and the
// underlying OS tty layer) has no equivalent interrupt to bind to.
type UART interface {
	// Events returns the channel the reader goroutine blocks on. It must
	// be valid for the lifetime of the UART and closed by Close.
	Events() <-chan UARTEvent

	// Read reads up to len(p) bytes already known available (per the
	// most recent EventData.Size) without blocking past ctx.
	Read(ctx context.Context, p []byte) (int, error)

	// ReadExact blocks, subject to ctx, until exactly len(p) bytes have
	// been read or an error/timeout occurs. Used by SendWait.
	ReadExact(ctx context.Context, p []byte) (int, error)

	// Write writes bytes to the wire.
	Write(p []byte) (int, error)

	// EnablePatternDetection switches the reader to Command-mode
	// line-pattern events (pattern byte '\n'); DisablePatternDetection
	// switches it off (CMUX/PPP mode, or the temporary window SendWait
	// needs around its prompt read).
	EnablePatternDetection() error
	DisablePatternDetection() error

	// PopPatternPosition returns the buffer offset of the most recently
	// detected pattern byte, and false if none is queued (the
	// "pattern-pop returns none" transient error spec'd for PATTERN_DETECTED
	// handling).
	PopPatternPosition() (pos int, ok bool)

	// Flush discards any buffered input (FIFO_OVF/BUFFER_FULL recovery).
	// Events already queued on the Events channel are not discarded.
	Flush() error

	// Close releases the UART. After Close, Events' channel is closed;
	// whether the other methods fail afterward depends on the
	// implementation (FakeUART's keep succeeding).
	Close() error
}

// FakeUART is a scripted, channel-backed UART double for reader-task
// concurrency tests: it lets a test drive the exact event sequence a real
// UART would deliver without depending on OS tty timing.
type FakeUART struct {
	events chan UARTEvent
	inbox  chan []byte
	writes chan []byte

	buf       []byte
	patternAt int
	hasPatt   bool
	patternOn bool
	closed    bool
}

// NewFakeUART constructs a FakeUART ready for Push/PushPattern calls.
func NewFakeUART() *FakeUART {
	return &FakeUART{
		events:    make(chan UARTEvent, 32),
		inbox:     make(chan []byte, 32),
		writes:    make(chan []byte, 32),
		patternOn: true,
	}
}

// Push queues bytes as though they arrived on the wire and emits a DATA
// event for them.
func (f *FakeUART) Push(p []byte) {
	f.inbox <- append([]byte{}, p...)
	f.events <- UARTEvent{Type: EventData, Size: len(p)}
}

// PushPattern queues bytes ending in a pattern byte and emits a
// PATTERN_DETECTED event with the pattern offset recorded for
// PopPatternPosition.
func (f *FakeUART) PushPattern(p []byte, patternOffset int) {
	f.inbox <- append([]byte{}, p...)
	f.patternAt = patternOffset
	f.hasPatt = true
	f.events <- UARTEvent{Type: EventPatternDetected}
}

// PushRaw emits an arbitrary event with no bytes queued (FIFO_OVF,
// BUFFER_FULL, BREAK, PARITY_ERR, FRAME_ERR).
func (f *FakeUART) PushRaw(evt UARTEventType) {
	f.events <- UARTEvent{Type: evt}
}

// Written returns the channel of byte slices handed to Write, for tests
// to assert on outbound wire traffic.
func (f *FakeUART) Written() <-chan []byte {
	return f.writes
}

func (f *FakeUART) Events() <-chan UARTEvent {
	return f.events
}

func (f *FakeUART) Read(ctx context.Context, p []byte) (int, error) {
	select {
	case chunk := <-f.inbox:
		return copy(p, chunk), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (f *FakeUART) ReadExact(ctx context.Context, p []byte) (int, error) {
	got := 0
	for got < len(p) {
		select {
		case chunk := <-f.inbox:
			got += copy(p[got:], chunk)
		case <-ctx.Done():
			return got, ctx.Err()
		}
	}
	return got, nil
}

func (f *FakeUART) Write(p []byte) (int, error) {
	cp := append([]byte{}, p...)
	select {
	case f.writes <- cp:
	default:
	}
	return len(p), nil
}

func (f *FakeUART) EnablePatternDetection() error {
	f.patternOn = true
	return nil
}

func (f *FakeUART) DisablePatternDetection() error {
	f.patternOn = false
	return nil
}

func (f *FakeUART) PopPatternPosition() (int, bool) {
	if !f.hasPatt {
		return 0, false
	}
	f.hasPatt = false
	return f.patternAt, true
}

func (f *FakeUART) Flush() error {
	for {
		select {
		case <-f.inbox:
		default:
			return nil
		}
	}
}

func (f *FakeUART) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	close(f.events)
	return nil
}

// eventWaitTimeout is how long the reader blocks on the event queue before
// looping again to service the event-sink tick, matching the 100ms cap.
const eventWaitTimeout = 100 * time.Millisecond

// eventTickTimeout is a 50ms per-iteration budget for draining published
// events. Nothing reads it: EventSink.Tick delivers every queued event to
// its subscribers with no time bound.
const eventTickTimeout = 50 * time.Millisecond
