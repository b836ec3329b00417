package dte

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"i4.energy/across/cmuxdte/cmux"
)

// DTE is the byte-oriented ingress/egress engine: it owns the UART, the
// reassembly buffer, the reader goroutine, the rendezvous, and the event
// sink, and dispatches to a bound DCE. Exactly one reader goroutine exists
// per DTE for its entire lifetime; it is spawned in New and torn down
// only in Close.
type DTE struct {
	uart   UART
	cfg    Config
	logger *slog.Logger
	events *EventSink
	rv     *rendezvous

	dceMu sync.Mutex
	dce   *DCE

	// sendMu serializes the command-issuing sends (SendCmd, SendCMUXCmd,
	// SendSABM): only one may hold the rendezvous at a time.
	sendMu sync.Mutex

	modeMu sync.Mutex
	mode   Mode

	// buf/bufLen form the reassembly buffer; touched only by the reader
	// goroutine (invariant: callers never access it directly).
	buf    []byte
	bufLen int

	recvMu   sync.Mutex
	recvFunc func(ctx any, p []byte)
	recvCtx  any

	closeMu sync.Mutex
	done    chan struct{}
	closed  bool
}

// New dials the configured transport, allocates the reassembly buffer,
// registers pattern-detection, emits the teardown escape+CLD sequence so
// a previously-muxed modem returns to raw AT, and spawns the reader
// goroutine. The returned DTE starts in Command mode with no DCE bound.
func New(ctx context.Context, cfg Config) (*DTE, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	uart, err := cfg.Dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dte: dial transport: %w", err)
	}

	d := &DTE{
		uart:   uart,
		cfg:    cfg,
		logger: cfg.Logger,
		events: NewEventSink(),
		rv:     newRendezvous(),
		mode:   ModeCommand,
		buf:    make([]byte, cfg.LineBufferSize),
		done:   make(chan struct{}),
	}

	if err := uart.EnablePatternDetection(); err != nil {
		uart.Close()
		return nil, fmt.Errorf("dte: enable pattern detection: %w", err)
	}

	if _, err := uart.Write(cmux.EscapeSequence()); err != nil {
		uart.Close()
		return nil, fmt.Errorf("dte: write escape sequence: %w", err)
	}
	if _, err := uart.Write(cmux.CLDSequence()); err != nil {
		uart.Close()
		return nil, fmt.Errorf("dte: write CLD sequence: %w", err)
	}

	go d.readerLoop()

	return d, nil
}

// Bind attaches dce as the DTE's DCE handle. A nil dce unbinds.
func (d *DTE) Bind(dce *DCE) {
	d.dceMu.Lock()
	d.dce = dce
	d.dceMu.Unlock()
}

func (d *DTE) boundDCE() *DCE {
	d.dceMu.Lock()
	defer d.dceMu.Unlock()
	return d.dce
}

// ProcessCmdDone releases the rendezvous and marks the bound DCE's state
// successful. It is the counterpart to the send surface's rendezvous
// wait: the bound DCE calls it from within HandleLine or HandleCMUXFrame
// once it has recognized the response it was waiting for.
func (d *DTE) ProcessCmdDone() {
	if dce := d.boundDCE(); dce != nil {
		dce.State = DCESuccess
	}
	d.rv.Signal()
}

// SetReceiveFunc registers the PPP payload-delivery callback invoked for
// DLCI 1 UIH data once no one-shot handler is consuming that traffic.
func (d *DTE) SetReceiveFunc(fn func(ctx any, p []byte), ctx any) {
	d.recvMu.Lock()
	d.recvFunc = fn
	d.recvCtx = ctx
	d.recvMu.Unlock()
}

func (d *DTE) receiveFunc() (func(ctx any, p []byte), any) {
	d.recvMu.Lock()
	defer d.recvMu.Unlock()
	return d.recvFunc, d.recvCtx
}

// Events returns the event sink callers may Subscribe to for
// UnknownLine/PPPStart/PPPStop notifications.
func (d *DTE) Events() *EventSink {
	return d.events
}

// Mode returns the DTE's current mode.
func (d *DTE) Mode() Mode {
	d.modeMu.Lock()
	defer d.modeMu.Unlock()
	return d.mode
}

// Close tears down the reader goroutine and releases the UART. A second
// Close returns ErrAlreadyClosed; the other DTE methods do not check
// whether the DTE has been closed.
func (d *DTE) Close() error {
	d.closeMu.Lock()
	if d.closed {
		d.closeMu.Unlock()
		return ErrAlreadyClosed
	}
	d.closed = true
	d.closeMu.Unlock()

	close(d.done)
	return d.uart.Close()
}
