package dte

import "context"

// ChangeMode transitions the DTE to newMode, reconfiguring the UART
// reception discipline and notifying the bound DCE, per the legal
// transition table: Command→PPP, Command→CMUX, PPP→Command, CMUX→Command.
// Any other pair (including X→X) is rejected.
func (d *DTE) ChangeMode(ctx context.Context, newMode Mode) error {
	d.modeMu.Lock()
	defer d.modeMu.Unlock()

	from := d.mode
	if from == newMode {
		return ErrAlreadyInMode
	}

	dce := d.boundDCE()
	if dce == nil {
		return ErrNoDCE
	}

	switch {
	case from == ModeCommand && newMode == ModePPP:
		if err := notifyWorkingMode(dce, newMode); err != nil {
			return err
		}
		if err := d.uart.DisablePatternDetection(); err != nil {
			return err
		}
		d.mode = newMode
		dce.Mode = newMode

	case from == ModeCommand && newMode == ModeCMUX:
		if err := notifyWorkingMode(dce, newMode); err != nil {
			return err
		}
		if err := d.uart.DisablePatternDetection(); err != nil {
			return err
		}
		d.mode = newMode
		dce.Mode = newMode
		if dce.SetupCMUX != nil {
			if err := dce.SetupCMUX(dce); err != nil {
				return err
			}
		}

	case from == ModePPP && newMode == ModeCommand, from == ModeCMUX && newMode == ModeCommand:
		if err := d.uart.Flush(); err != nil {
			return err
		}
		if err := d.uart.EnablePatternDetection(); err != nil {
			return err
		}
		d.mode = newMode
		dce.Mode = newMode
		if err := notifyWorkingMode(dce, newMode); err != nil {
			return err
		}

	default:
		return ErrInvalidTransition
	}

	d.logger.Info("mode changed", "from", from, "to", newMode)
	return nil
}

func notifyWorkingMode(dce *DCE, mode Mode) error {
	if dce.SetWorkingMode == nil {
		return nil
	}
	return dce.SetWorkingMode(dce, mode)
}
