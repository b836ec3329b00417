package dte_test

import (
	"testing"

	"i4.energy/across/cmuxdte/cmux"
	"i4.energy/across/cmuxdte/dte"
)

func TestConfigBuilderNoDialer(t *testing.T) {
	_, err := dte.NewConfigBuilder().Build()
	if err != dte.ErrNoDialer {
		t.Fatalf("Build() with no dialer: err = %v, want ErrNoDialer", err)
	}
}

func TestConfigBuilderDefaults(t *testing.T) {
	cfg, err := dte.NewConfigBuilder().WithDialer(dte.SerialDialer{PortName: "/dev/ttyUSB0"}).Build()
	if err != nil {
		t.Fatalf("Build(): %v", err)
	}
	if cfg.BaudRate != 115200 {
		t.Errorf("BaudRate = %d, want 115200", cfg.BaudRate)
	}
	if cfg.LineBufferSize == 0 {
		t.Errorf("LineBufferSize = 0, want a positive default")
	}
	if cfg.DialDLCISelector == nil {
		t.Fatalf("DialDLCISelector is nil, want the default selector")
	}
	if got := cfg.DialDLCISelector("ATD*99***1#\r"); got != cmux.DLCIData {
		t.Errorf("default selector(dial string) = %d, want DLCIData", got)
	}
	if got := cfg.DialDLCISelector("AT+CSQ\r"); got != cmux.DLCIAT {
		t.Errorf("default selector(other) = %d, want DLCIAT", got)
	}
}

func TestConfigBuilderOverrideSelector(t *testing.T) {
	calls := 0
	cfg, err := dte.NewConfigBuilder().
		WithDialer(dte.SerialDialer{PortName: "/dev/ttyUSB0"}).
		WithDialDLCISelector(func(cmd string) byte {
			calls++
			return cmux.DLCIControl
		}).
		Build()
	if err != nil {
		t.Fatalf("Build(): %v", err)
	}
	if got := cfg.DialDLCISelector("anything"); got != cmux.DLCIControl {
		t.Errorf("overridden selector = %d, want DLCIControl", got)
	}
	if calls != 1 {
		t.Errorf("overridden selector called %d times, want 1", calls)
	}
}
