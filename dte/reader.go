package dte

import (
	"context"
	"strings"
	"time"

	"i4.energy/across/cmuxdte/cmux"
)

// crlfSkip is the leading-CRLF skip applied to CMUX payload text before
// it reaches HandleLine: the modem always prefixes command-channel text
// with a CRLF before the actual response. Not made configurable.
const crlfSkip = 2

// readerLoop is the single long-running task pinned to this DTE: it pulls
// UART events, dispatches to the line scanner or CMUX deframer depending
// on mode, and ticks the event sink once per iteration. It terminates
// when Close closes d.done or when the UART's event channel is closed
// (which UART.Close does); it has no other exit.
func (d *DTE) readerLoop() {
	for {
		select {
		case <-d.done:
			return
		case evt, ok := <-d.uart.Events():
			if !ok {
				return
			}
			d.handleEvent(evt)
		case <-time.After(eventWaitTimeout):
		}
		d.events.Tick()
	}
}

func (d *DTE) handleEvent(evt UARTEvent) {
	switch evt.Type {
	case EventPatternDetected:
		d.handlePattern()
	case EventData:
		d.handleData(evt)
	case EventFIFOOverflow, EventBufferFull:
		d.logger.Warn("uart queue overflow, flushing", "event", evt.Type)
		if err := d.uart.Flush(); err != nil {
			d.logger.Error("flush after overflow", "err", err)
		}
		d.bufLen = 0
	case EventBreak:
		d.logger.Warn("uart break detected")
	case EventParityErr:
		d.logger.Warn("uart parity error")
	case EventFrameErr:
		d.logger.Error("uart frame error")
	}
}

// handlePattern services a PATTERN_DETECTED event (Command mode): it
// extracts the line ending at the reported pattern offset and, unless it
// is empty or CRLF-only (P6), dispatches it to HandleLine.
func (d *DTE) handlePattern() {
	pos, ok := d.uart.PopPatternPosition()
	if !ok {
		d.logger.Warn("pattern position queue empty, flushing")
		if err := d.uart.Flush(); err != nil {
			d.logger.Error("flush after pattern overflow", "err", err)
		}
		return
	}

	n := pos + 1
	if n > len(d.buf)-1 {
		n = len(d.buf) - 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventWaitTimeout)
	defer cancel()
	nRead, err := d.uart.Read(ctx, d.buf[:n])
	if err != nil {
		d.logger.Error("read line", "err", err)
		return
	}

	line := strings.TrimRight(string(d.buf[:nRead]), "\r\n")
	if line == "" {
		return
	}
	d.dispatchLine(line)
}

func (d *DTE) dispatchLine(line string) {
	dce := d.boundDCE()
	if dce == nil {
		d.events.Publish(UnknownLine, line)
		return
	}
	d.dceMu.Lock()
	handler := dce.HandleLine
	d.dceMu.Unlock()
	if handler == nil {
		d.events.Publish(UnknownLine, line)
		return
	}
	if err := handler(dce, line); err != nil {
		d.events.Publish(UnknownLine, line)
	}
}

// handleData services a DATA event (CMUX/PPP mode): it appends the
// available bytes to the reassembly buffer and, if the buffer starts with
// SOF, hands it to the deframer. A buffer not starting with SOF is left
// in place pending resync.
func (d *DTE) handleData(evt UARTEvent) {
	avail := evt.Size
	if avail <= 0 || d.bufLen+avail > len(d.buf) {
		avail = len(d.buf) - d.bufLen
	}
	if avail <= 0 {
		d.logger.Warn("reassembly buffer full, resetting")
		d.bufLen = 0
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventWaitTimeout)
	defer cancel()
	n, err := d.uart.Read(ctx, d.buf[d.bufLen:d.bufLen+avail])
	if err != nil {
		d.logger.Error("read data", "err", err)
		return
	}
	d.bufLen += n

	if d.bufLen == 0 || d.buf[0] != cmux.SOF {
		return
	}
	d.drainFrames()
}

// drainFrames extracts and dispatches as many complete frames as the
// reassembly buffer currently holds. A bad trailing SOF does not clear
// the buffer outright: it searches the remainder for the next SOF and
// resyncs there, so a well-formed frame arriving afterward is not held
// hostage by one earlier framing error.
func (d *DTE) drainFrames() {
	for d.bufLen >= 5 {
		frame, total, status := cmux.Decode(d.buf[:d.bufLen])
		switch status {
		case cmux.NeedMoreBytes:
			return
		case cmux.BadTrailingSOF:
			d.logger.Warn("bad trailing SOF, resyncing")
			if !d.resyncToNextSOF() {
				return
			}
		case cmux.OK:
			raw := append([]byte{}, d.buf[:total]...)
			d.dispatchFrame(frame, raw)
			copy(d.buf, d.buf[total:d.bufLen])
			d.bufLen -= total
		}
	}
}

// resyncToNextSOF drops bytes up to (but not including) the next SOF
// found after the buffer's current leading byte. It reports whether a
// resync point was found; if not, the buffer is left untouched to await
// more bytes.
func (d *DTE) resyncToNextSOF() bool {
	for i := 1; i < d.bufLen; i++ {
		if d.buf[i] == cmux.SOF {
			copy(d.buf, d.buf[i:d.bufLen])
			d.bufLen -= i
			return true
		}
	}
	return false
}

// dispatchFrame implements the CMUX ingress routing rules: a registered
// one-shot HandleCMUXFrame takes priority (CMUX establishment handshake);
// otherwise DLCI-specific routing to HandleLine or the PPP receive
// callback applies.
func (d *DTE) dispatchFrame(frame cmux.Frame, raw []byte) {
	dce := d.boundDCE()
	if dce == nil {
		return
	}

	d.dceMu.Lock()
	oneShotFrame := dce.HandleCMUXFrame
	d.dceMu.Unlock()
	if oneShotFrame != nil {
		if err := oneShotFrame(dce, raw); err == nil {
			d.dceMu.Lock()
			dce.HandleCMUXFrame = nil
			d.dceMu.Unlock()
		}
		return
	}

	isUIH := frame.Type == cmux.FTUIH || frame.Type == cmux.FTUIH|cmux.PF

	d.dceMu.Lock()
	handleLine := dce.HandleLine
	d.dceMu.Unlock()

	// Post-dial CONNECT text arrives on the data channel, one-shot.
	if isUIH && frame.DLCI == cmux.DLCIData && handleLine != nil {
		if text, ok := textAfterCRLF(frame.Payload); ok {
			if err := handleLine(dce, text); err == nil {
				d.dceMu.Lock()
				dce.HandleLine = nil
				d.dceMu.Unlock()
			} else {
				d.events.Publish(UnknownLine, text)
			}
			return
		}
	}

	// AT-channel text, reusable (not cleared).
	if isUIH && frame.DLCI == cmux.DLCIAT && handleLine != nil {
		if text, ok := textAfterCRLF(frame.Payload); ok {
			if err := handleLine(dce, text); err != nil {
				d.events.Publish(UnknownLine, text)
			}
			return
		}
	}

	// PPP data path.
	if isUIH && frame.DLCI == cmux.DLCIData && len(frame.Payload) > 0 {
		if recv, ctx := d.receiveFunc(); recv != nil {
			recv(ctx, frame.Payload)
			return
		}
	}

	if frame.DLCI != cmux.DLCIControl {
		d.logger.Warn("unknown cmux dispatch state", "dlci", frame.DLCI, "type", frame.Type)
	}
}

// textAfterCRLF returns the payload text after skipping the leading
// CRLF, and whether that remainder is long enough to count as content
// rather than a bare terminator (more than two characters).
func textAfterCRLF(payload []byte) (string, bool) {
	if len(payload) <= crlfSkip {
		return "", false
	}
	text := payload[crlfSkip:]
	if len(text) <= 2 {
		return "", false
	}
	return strings.TrimRight(string(text), "\r\n\x00"), true
}
