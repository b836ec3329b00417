package dte

import "testing"

func TestEventSinkPublishAndTick(t *testing.T) {
	sink := NewEventSink()
	got := make(chan string, 4)
	sink.Subscribe(UnknownLine, func(ctx any, id EventID, payload string) {
		got <- payload
	}, nil)

	sink.Publish(UnknownLine, "first")
	sink.Publish(UnknownLine, "second")

	// Nothing delivered until Tick.
	select {
	case payload := <-got:
		t.Fatalf("delivered %q before Tick", payload)
	default:
	}

	sink.Tick()

	for _, want := range []string{"first", "second"} {
		select {
		case payload := <-got:
			if payload != want {
				t.Fatalf("delivered %q, want %q", payload, want)
			}
		default:
			t.Fatalf("missing expected delivery %q", want)
		}
	}
}

func TestEventSinkUnsubscribe(t *testing.T) {
	sink := NewEventSink()
	got := make(chan string, 1)
	sink.Subscribe(PPPStart, func(ctx any, id EventID, payload string) {
		got <- payload
	}, nil)
	sink.Unsubscribe(PPPStart)

	sink.Publish(PPPStart, "")
	sink.Tick()

	select {
	case <-got:
		t.Fatal("handler invoked after Unsubscribe")
	default:
	}
}

func TestEventSinkMultipleSubscribers(t *testing.T) {
	sink := NewEventSink()
	var calls int
	handler := func(ctx any, id EventID, payload string) { calls++ }
	sink.Subscribe(PPPStop, handler, nil)
	sink.Subscribe(PPPStop, handler, nil)

	sink.Publish(PPPStop, "")
	sink.Tick()

	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}
