package dte

import "errors"

var (
	// ErrNoDialer is returned when a DTE is constructed without a Dialer.
	ErrNoDialer = errors.New("dte: no dialer configured")

	// ErrNoDCE is returned by operations that require a bound DCE
	// (Bind) before they can run.
	ErrNoDCE = errors.New("dte: no DCE bound")

	// ErrAlreadyClosed is returned when Close is called on a DTE that has
	// already been closed.
	ErrAlreadyClosed = errors.New("dte: already closed")

	// ErrBusy is returned when a command send is attempted while another
	// command send is already outstanding; callers must serialize their
	// own commands rather than issue them concurrently.
	ErrBusy = errors.New("dte: command already in flight")

	// ErrCommandTimeout is returned when the rendezvous is not signalled
	// before the caller-supplied timeout elapses.
	ErrCommandTimeout = errors.New("dte: command timed out")

	// ErrAlreadyInMode is returned by ChangeMode when asked to transition
	// to the mode the DTE is already in.
	ErrAlreadyInMode = errors.New("dte: already in requested mode")

	// ErrInvalidTransition is returned by ChangeMode for any from/to pair
	// not in the legal transition table.
	ErrInvalidTransition = errors.New("dte: invalid mode transition")

	// ErrPromptMismatch is returned by SendWait when the bytes read back
	// from the UART don't match the expected prompt.
	ErrPromptMismatch = errors.New("dte: unexpected prompt")
)
