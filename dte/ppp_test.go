package dte

import (
	"context"
	"testing"
)

func TestStartStopPPPPublishesEvents(t *testing.T) {
	fu := NewFakeUART()
	d := newTestDTE(t, fu)

	var definedCID int
	var hungUp bool
	dce := &DCE{
		SetWorkingMode:   func(dce *DCE, mode Mode) error { return nil },
		DefinePDPContext: func(dce *DCE, cid int, pdpType, apn string) error { definedCID = cid; return nil },
		HangUp:           func(dce *DCE) error { hungUp = true; return nil },
	}
	d.Bind(dce)

	events := make(chan EventID, 2)
	d.Events().Subscribe(PPPStart, func(ctx any, id EventID, payload string) { events <- id }, nil)
	d.Events().Subscribe(PPPStop, func(ctx any, id EventID, payload string) { events <- id }, nil)

	if err := d.StartPPP(context.Background(), 1, "IP", "internet"); err != nil {
		t.Fatalf("StartPPP(): %v", err)
	}
	if definedCID != 1 {
		t.Fatalf("DefinePDPContext cid = %d, want 1", definedCID)
	}
	if d.Mode() != ModePPP {
		t.Fatalf("Mode() = %v, want ModePPP", d.Mode())
	}

	if err := d.StopPPP(context.Background()); err != nil {
		t.Fatalf("StopPPP(): %v", err)
	}
	if !hungUp {
		t.Fatal("HangUp was not called")
	}
	if d.Mode() != ModeCommand {
		t.Fatalf("Mode() after StopPPP = %v, want ModeCommand", d.Mode())
	}

	d.Events().Tick()
	got := map[EventID]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-events:
			got[id] = true
		default:
			t.Fatalf("missing expected event after %d deliveries", i)
		}
	}
	if !got[PPPStart] || !got[PPPStop] {
		t.Fatalf("events = %v, want PPPStart and PPPStop", got)
	}
}
