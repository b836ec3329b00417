package dte

// Mode is the driver's working mode: which reception discipline the UART
// is in and which decoding path the reader applies to incoming bytes.
type Mode int

const (
	// ModeCommand is plain, unmultiplexed AT mode: the reader extracts
	// newline-terminated lines and hands them to DCE.HandleLine.
	ModeCommand Mode = iota
	// ModeCMUX is 3GPP TS 27.010 multiplexed mode: the reader deframes
	// CMUX packets and dispatches them per DLCI.
	ModeCMUX
	// ModePPP is raw mode: bytes on DLCI 1 (or, without CMUX, the whole
	// stream) are opaque PPP payload handed to the registered ReceiveFunc.
	ModePPP
)

// String renders a Mode for logging.
func (m Mode) String() string {
	switch m {
	case ModeCommand:
		return "command"
	case ModeCMUX:
		return "cmux"
	case ModePPP:
		return "ppp"
	default:
		return "unknown"
	}
}

// DCEState mirrors the modem's view of its own in-flight command: whether
// a response is still pending, or the last one succeeded or failed. The
// DTE core writes DCEProcessing before a send and DCESuccess in
// ProcessCmdDone; DCEFail is only ever set by the bound DCE itself.
type DCEState int

const (
	DCEProcessing DCEState = iota
	DCESuccess
	DCEFail
)

// DCE is the Data Communication Equipment contract this driver dispatches
// to. It is deliberately a struct of function-valued fields rather than an
// interface: the reference protocol treats handle_line/handle_cmux_frame as
// nullable, swappable function pointers that a caller installs before a
// send and the reader clears after a one-shot dispatch (or the caller
// clears on timeout) — a fixed-method interface can't express "this
// specific field is nil right now" the way this contract requires.
//
// Field access is serialized by DTE's internal lock: callers should only
// read or write these fields through DTE.Bind, DTE's send methods, or from
// inside a handler itself, never directly from another goroutine.
type DCE struct {
	// HandleLine delivers a complete, non-empty, non-CRLF-only text line.
	// In Command mode this is every line from the UART. In CMUX mode it
	// is AT-channel (DLCI 2) output, and (one-shot) the post-dial CONNECT
	// text on DLCI 1.
	HandleLine func(dce *DCE, line string) error

	// HandleCMUXFrame, when non-nil, receives every decoded CMUX frame
	// before any of the DLCI-specific routing below runs. It is used for
	// the CMUX establishment handshake (expecting a UA on DLCI 0) and is
	// cleared after one dispatch.
	HandleCMUXFrame func(dce *DCE, frame []byte) error

	// SetWorkingMode is invoked by ChangeMode whenever the driver's mode
	// changes, before any UART reconfiguration completes.
	SetWorkingMode func(dce *DCE, mode Mode) error

	// SetupCMUX is invoked once CMUX mode has been entered; it is
	// expected to drive DLCI establishment via SendSABM and one-shot
	// HandleCMUXFrame registrations.
	SetupCMUX func(dce *DCE) error

	// HangUp is invoked by StopPPP after the driver has returned to
	// Command mode.
	HangUp func(dce *DCE) error

	// DefinePDPContext is invoked by StartPPP before entering PPP mode.
	DefinePDPContext func(dce *DCE, cid int, pdpType, apn string) error

	// State and Mode are read/written directly by the dte package and
	// may be read by the bound DCE's own handlers.
	State DCEState
	Mode  Mode
}
