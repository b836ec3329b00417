package dte

import "context"

// StartCMUX drives the DTE into CMUX mode: ChangeMode invokes
// DCE.SetupCMUX, which is expected to establish DLCI 0, 1, and 2 on the
// peer via SendSABM and one-shot HandleCMUXFrame registrations.
func (d *DTE) StartCMUX(ctx context.Context) error {
	return d.ChangeMode(ctx, ModeCMUX)
}

// StartPPP defines a PDP context on the bound DCE, switches to PPP mode,
// and publishes PPPStart. Dropped from the distilled ingress/mode-change
// spec but present in the original driver as esp_modem_start_ppp; nothing
// here reaches into the PPP engine itself, only the mode transition and
// event bookkeeping around entering it.
func (d *DTE) StartPPP(ctx context.Context, cid int, pdpType, apn string) error {
	dce := d.boundDCE()
	if dce == nil {
		return ErrNoDCE
	}
	if dce.DefinePDPContext != nil {
		if err := dce.DefinePDPContext(dce, cid, pdpType, apn); err != nil {
			return err
		}
	}
	if err := d.ChangeMode(ctx, ModePPP); err != nil {
		return err
	}
	d.events.Publish(PPPStart, "")
	return nil
}

// StopPPP returns the DTE to Command mode, calls DCE.HangUp, and
// publishes PPPStop. Mirrors esp_modem_stop_ppp.
func (d *DTE) StopPPP(ctx context.Context) error {
	dce := d.boundDCE()
	if dce == nil {
		return ErrNoDCE
	}
	if err := d.ChangeMode(ctx, ModeCommand); err != nil {
		return err
	}
	d.events.Publish(PPPStop, "")
	if dce.HangUp != nil {
		return dce.HangUp(dce)
	}
	return nil
}
