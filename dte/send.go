package dte

import (
	"context"
	"time"

	"i4.energy/across/cmuxdte/cmux"
)

// SendCmd writes a raw AT command line (Command mode) and blocks on the
// rendezvous until the bound DCE reports completion or timeout elapses.
func (d *DTE) SendCmd(ctx context.Context, text string, timeout time.Duration) error {
	dce := d.boundDCE()
	if dce == nil {
		return ErrNoDCE
	}
	if !d.sendMu.TryLock() {
		return ErrBusy
	}
	defer d.sendMu.Unlock()
	defer d.clearOneShot()

	d.rv.drain()
	dce.State = DCEProcessing
	if _, err := d.uart.Write([]byte(text)); err != nil {
		return err
	}
	return d.rv.Wait(ctx, timeout)
}

// SendCMUXCmd builds a UIH frame on the DLCI its Config.DialDLCISelector
// picks for text — ordinarily the AT channel, but the configured dial
// string is routed to the data channel instead, since the modem expects
// the dial command framed alongside the PPP payload it's about to carry —
// writes it, and blocks on the rendezvous.
func (d *DTE) SendCMUXCmd(ctx context.Context, text string, timeout time.Duration) error {
	dce := d.boundDCE()
	if dce == nil {
		return ErrNoDCE
	}
	if !d.sendMu.TryLock() {
		return ErrBusy
	}
	defer d.sendMu.Unlock()
	defer d.clearOneShot()

	dlci := d.cfg.DialDLCISelector(text)
	frame, err := cmux.EncodeUIH(dlci, []byte(text))
	if err != nil {
		return err
	}

	d.rv.drain()
	dce.State = DCEProcessing
	if _, err := d.uart.Write(frame); err != nil {
		return err
	}
	time.Sleep(100 * time.Millisecond)
	return d.rv.Wait(ctx, timeout)
}

// SendSABM writes the 6-byte SABM establishment frame for dlci and blocks
// on the rendezvous.
func (d *DTE) SendSABM(ctx context.Context, dlci byte, timeout time.Duration) error {
	dce := d.boundDCE()
	if dce == nil {
		return ErrNoDCE
	}
	if !d.sendMu.TryLock() {
		return ErrBusy
	}
	defer d.sendMu.Unlock()
	defer d.clearOneShot()

	d.rv.drain()
	dce.State = DCEProcessing
	if _, err := d.uart.Write(cmux.EncodeSABM(dlci)); err != nil {
		return err
	}
	return d.rv.Wait(ctx, timeout)
}

// SendData writes raw bytes directly to the UART (PPP mode, no framing)
// and returns the number of bytes written. It does not use the
// rendezvous: PPP payload has no request/response shape.
func (d *DTE) SendData(p []byte) (int, error) {
	return d.uart.Write(p)
}

// SendCMUXData fragments p into UIH frames on DLCI 1 with payload at most
// cmux.MaxPayload bytes each, writes them sequentially, and returns
// len(p) on success.
func (d *DTE) SendCMUXData(p []byte) (int, error) {
	for off := 0; off < len(p); off += cmux.MaxPayload {
		end := off + cmux.MaxPayload
		if end > len(p) {
			end = len(p)
		}
		frame, err := cmux.EncodeUIH(cmux.DLCIData, p[off:end])
		if err != nil {
			return off, err
		}
		if _, err := d.uart.Write(frame); err != nil {
			return off, err
		}
	}
	return len(p), nil
}

// SendWait temporarily disables pattern detection, writes p, then reads
// exactly len(prompt) bytes and compares them to prompt, restoring
// pattern detection on every exit path.
func (d *DTE) SendWait(ctx context.Context, p []byte, prompt []byte, timeout time.Duration) error {
	if err := d.uart.DisablePatternDetection(); err != nil {
		return err
	}
	defer d.uart.EnablePatternDetection()

	if _, err := d.uart.Write(p); err != nil {
		return err
	}

	readCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	got := make([]byte, len(prompt))
	if _, err := d.uart.ReadExact(readCtx, got); err != nil {
		return err
	}
	for i := range prompt {
		if got[i] != prompt[i] {
			return ErrPromptMismatch
		}
	}
	return nil
}

// clearOneShot nulls any one-shot DCE handler pointers on every send exit
// path, so a stale one-shot handler from a prior command can never fire
// against a later, unrelated response.
func (d *DTE) clearOneShot() {
	dce := d.boundDCE()
	if dce == nil {
		return
	}
	d.dceMu.Lock()
	dce.HandleLine = nil
	dce.HandleCMUXFrame = nil
	d.dceMu.Unlock()
}
