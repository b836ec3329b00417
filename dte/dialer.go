package dte

import (
	"context"
	"errors"

	"go.bug.st/serial"
)

// Dialer opens a UART to a modem. It abstracts how the connection is
// created — a real serial port, or a test double — and is only used
// during DTE construction.
type Dialer interface {
	Dial(ctx context.Context) (UART, error)
}

// SerialDialer opens a real go.bug.st/serial port. Mode, when nil,
// defaults to 115200 8N1.
type SerialDialer struct {
	PortName string
	Mode     *serial.Mode
}

// Dial opens the configured serial port and wraps it as a UART.
func (d SerialDialer) Dial(ctx context.Context) (UART, error) {
	if d.PortName == "" {
		return nil, errors.New("dte: serial port name is required")
	}
	if ctx == nil {
		return nil, errors.New("dte: context is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		mode = &serial.Mode{
			BaudRate: 115200,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		}
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, err
	}
	return newSerialUART(port), nil
}
