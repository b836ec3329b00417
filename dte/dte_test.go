package dte

import (
	"context"
	"testing"

	"i4.energy/across/cmuxdte/cmux"
)

func TestNewRequiresDialer(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err != ErrNoDialer {
		t.Fatalf("New() with no dialer = %v, want ErrNoDialer", err)
	}
}

func TestNewEmitsTeardownSequence(t *testing.T) {
	fu := NewFakeUART()
	d := newTestDTE(t, fu)
	_ = d

	escape := <-fu.Written()
	if string(escape) != "+++" {
		t.Fatalf("first write = %q, want escape sequence", escape)
	}
	cld := <-fu.Written()
	want := cmux.CLDSequence()
	if len(cld) != len(want) {
		t.Fatalf("second write length = %d, want %d", len(cld), len(want))
	}
	for i := range want {
		if cld[i] != want[i] {
			t.Fatalf("CLD sequence mismatch at byte %d: got %#02x want %#02x", i, cld[i], want[i])
		}
	}
}

func TestNewStartsInCommandMode(t *testing.T) {
	fu := NewFakeUART()
	d := newTestDTE(t, fu)
	if d.Mode() != ModeCommand {
		t.Fatalf("Mode() = %v, want ModeCommand", d.Mode())
	}
}

func TestCloseIsIdempotentError(t *testing.T) {
	fu := NewFakeUART()
	d, err := New(context.Background(), Config{Dialer: fakeDialer{fu}})
	if err != nil {
		t.Fatalf("New(): %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("first Close() = %v, want nil", err)
	}
	if err := d.Close(); err != ErrAlreadyClosed {
		t.Fatalf("second Close() = %v, want ErrAlreadyClosed", err)
	}
}

func TestBindAndUnbind(t *testing.T) {
	fu := NewFakeUART()
	d := newTestDTE(t, fu)

	dce := &DCE{}
	d.Bind(dce)
	if d.boundDCE() != dce {
		t.Fatal("boundDCE() did not return the bound DCE")
	}
	d.Bind(nil)
	if d.boundDCE() != nil {
		t.Fatal("boundDCE() returned non-nil after unbind")
	}
}
