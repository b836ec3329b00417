package dte

import (
	"context"
	"testing"
)

func TestChangeModeCommandToCMUX(t *testing.T) {
	fu := NewFakeUART()
	d := newTestDTE(t, fu)

	var setupCalled, setWorkingCalled bool
	dce := &DCE{
		SetWorkingMode: func(dce *DCE, mode Mode) error {
			setWorkingCalled = true
			if mode != ModeCMUX {
				t.Fatalf("SetWorkingMode(%v), want ModeCMUX", mode)
			}
			return nil
		},
		SetupCMUX: func(dce *DCE) error {
			setupCalled = true
			return nil
		},
	}
	d.Bind(dce)

	if err := d.ChangeMode(context.Background(), ModeCMUX); err != nil {
		t.Fatalf("ChangeMode(CMUX) = %v", err)
	}
	if !setWorkingCalled || !setupCalled {
		t.Fatalf("setWorkingCalled=%v setupCalled=%v, want both true", setWorkingCalled, setupCalled)
	}
	if d.Mode() != ModeCMUX {
		t.Fatalf("Mode() = %v, want ModeCMUX", d.Mode())
	}
	if dce.Mode != ModeCMUX {
		t.Fatalf("dce.Mode = %v, want ModeCMUX", dce.Mode)
	}
}

func TestChangeModeRejectsSameMode(t *testing.T) {
	fu := NewFakeUART()
	d := newTestDTE(t, fu)
	d.Bind(&DCE{})

	if err := d.ChangeMode(context.Background(), ModeCommand); err != ErrAlreadyInMode {
		t.Fatalf("ChangeMode(same mode) = %v, want ErrAlreadyInMode", err)
	}
}

func TestChangeModeCMUXBackToCommand(t *testing.T) {
	fu := NewFakeUART()
	d := newTestDTE(t, fu)
	dce := &DCE{
		SetWorkingMode: func(dce *DCE, mode Mode) error { return nil },
		SetupCMUX:      func(dce *DCE) error { return nil },
	}
	d.Bind(dce)

	if err := d.ChangeMode(context.Background(), ModeCMUX); err != nil {
		t.Fatalf("ChangeMode(CMUX) = %v", err)
	}
	if err := d.ChangeMode(context.Background(), ModeCommand); err != nil {
		t.Fatalf("ChangeMode(Command) = %v", err)
	}
	if d.Mode() != ModeCommand {
		t.Fatalf("Mode() = %v, want ModeCommand", d.Mode())
	}
}

func TestChangeModeNoDCE(t *testing.T) {
	fu := NewFakeUART()
	d := newTestDTE(t, fu)

	if err := d.ChangeMode(context.Background(), ModeCMUX); err != ErrNoDCE {
		t.Fatalf("ChangeMode() with no bound DCE = %v, want ErrNoDCE", err)
	}
}
