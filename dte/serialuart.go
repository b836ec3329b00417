package dte

import (
	"context"
	"io"
	"sync"

	"go.bug.st/serial"
)

// SerialUART wraps a real go.bug.st/serial port as a UART. Real ESP32
// hardware detects the line-pattern byte via a dedicated UART peripheral
// interrupt; go.bug.st/serial (and the Linux tty layer beneath it) has no
// equivalent, so SerialUART runs a background goroutine that reads raw
// bytes off the port and scans them in software for the pattern byte,
// emitting the same EventData/EventPatternDetected sequence a hardware
// driver would.
type SerialUART struct {
	port serial.Port

	mu         sync.Mutex
	patternOn  bool
	pendingBuf []byte
	pendingPos int
	hasPattern bool

	events chan UARTEvent
	data   chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func newSerialUART(port serial.Port) *SerialUART {
	u := &SerialUART{
		port:      port,
		patternOn: true,
		events:    make(chan UARTEvent, 32),
		data:      make(chan []byte, 32),
		closed:    make(chan struct{}),
	}
	go u.readLoop()
	return u
}

func (u *SerialUART) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := u.port.Read(buf)
		if n > 0 {
			chunk := append([]byte{}, buf[:n]...)
			u.data <- chunk

			u.mu.Lock()
			patternOn := u.patternOn
			if patternOn {
				if idx := indexByte(chunk, '\n'); idx >= 0 {
					u.pendingPos = idx
					u.hasPattern = true
				}
			}
			u.mu.Unlock()

			if patternOn && u.hasPattern {
				select {
				case u.events <- UARTEvent{Type: EventPatternDetected}:
				case <-u.closed:
					return
				}
			} else {
				select {
				case u.events <- UARTEvent{Type: EventData, Size: n}:
				case <-u.closed:
					return
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				return
			}
			select {
			case <-u.closed:
				return
			default:
			}
			select {
			case u.events <- UARTEvent{Type: EventFrameErr}:
			case <-u.closed:
				return
			}
		}
	}
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func (u *SerialUART) Events() <-chan UARTEvent {
	return u.events
}

func (u *SerialUART) Read(ctx context.Context, p []byte) (int, error) {
	select {
	case chunk := <-u.data:
		return copy(p, chunk), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-u.closed:
		return 0, io.EOF
	}
}

func (u *SerialUART) ReadExact(ctx context.Context, p []byte) (int, error) {
	got := 0
	for got < len(p) {
		select {
		case chunk := <-u.data:
			got += copy(p[got:], chunk)
		case <-ctx.Done():
			return got, ctx.Err()
		case <-u.closed:
			return got, io.EOF
		}
	}
	return got, nil
}

func (u *SerialUART) Write(p []byte) (int, error) {
	return u.port.Write(p)
}

func (u *SerialUART) EnablePatternDetection() error {
	u.mu.Lock()
	u.patternOn = true
	u.mu.Unlock()
	return nil
}

func (u *SerialUART) DisablePatternDetection() error {
	u.mu.Lock()
	u.patternOn = false
	u.mu.Unlock()
	return nil
}

func (u *SerialUART) PopPatternPosition() (int, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.hasPattern {
		return 0, false
	}
	u.hasPattern = false
	return u.pendingPos, true
}

func (u *SerialUART) Flush() error {
	for {
		select {
		case <-u.data:
		default:
			return u.port.ResetInputBuffer()
		}
	}
}

func (u *SerialUART) Close() error {
	u.closeOnce.Do(func() {
		close(u.closed)
		close(u.events)
	})
	return u.port.Close()
}
