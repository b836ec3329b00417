package dte

import (
	"log/slog"
	"time"

	"i4.energy/across/cmuxdte/cmux"
)

// FlowControl selects the UART flow-control discipline.
type FlowControl int

const (
	FlowControlNone FlowControl = iota
	FlowControlHardware
	FlowControlSoftware
)

// Config collects every tunable this driver exposes. Zero-valued fields
// are filled in by ConfigBuilder.Build so callers only need to set what
// they care about.
type Config struct {
	Dialer Dialer
	Logger *slog.Logger

	// UART framing.
	PortName   string
	BaudRate   int
	DataBits   int
	Parity     string
	StopBits   string
	FlowCtrl   FlowControl

	// Driver resource sizing.
	RXBufferSize      int
	TXBufferSize      int
	EventQueueSize    int
	LineBufferSize    int
	PatternQueueSize  int

	// Timeouts for the operations that block on the rendezvous or a
	// mode transition.
	CommandTimeout  time.Duration
	OperatorTimeout time.Duration
	ModeChangeTimeout time.Duration
	HangupTimeout   time.Duration
	InitTimeout     time.Duration

	// UseCMUX records whether the caller wants CMUX multiplexing. New does
	// not act on it: the DTE always starts in Command mode, and CMUX is
	// entered through StartCMUX once a DCE is bound.
	UseCMUX bool

	// DialDLCISelector overrides which DLCI a SendCMUXCmd command is
	// framed on. The default matches the dial command by exact text and
	// routes it to the data channel, leaving everything else on the AT
	// channel; callers with richer routing needs may replace it.
	DialDLCISelector func(cmd string) byte
}

func defaultDialDLCISelector(cmd string) byte {
	if cmd == "ATD*99***1#\r" {
		return cmux.DLCIData
	}
	return cmux.DLCIAT
}

func (c *Config) setDefaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.BaudRate == 0 {
		c.BaudRate = 115200
	}
	if c.DataBits == 0 {
		c.DataBits = 8
	}
	if c.Parity == "" {
		c.Parity = "none"
	}
	if c.StopBits == "" {
		c.StopBits = "1"
	}
	if c.RXBufferSize == 0 {
		c.RXBufferSize = 16 * 1024
	}
	if c.TXBufferSize == 0 {
		c.TXBufferSize = 4 * 1024
	}
	if c.EventQueueSize == 0 {
		c.EventQueueSize = 32
	}
	if c.LineBufferSize == 0 {
		c.LineBufferSize = 16 * 1024
	}
	if c.PatternQueueSize == 0 {
		c.PatternQueueSize = 16
	}
	if c.CommandTimeout == 0 {
		c.CommandTimeout = 1500 * time.Millisecond
	}
	if c.OperatorTimeout == 0 {
		c.OperatorTimeout = 75 * time.Second
	}
	if c.ModeChangeTimeout == 0 {
		c.ModeChangeTimeout = 5 * time.Second
	}
	if c.HangupTimeout == 0 {
		c.HangupTimeout = 90 * time.Second
	}
	if c.InitTimeout == 0 {
		c.InitTimeout = 30 * time.Second
	}
	if c.DialDLCISelector == nil {
		c.DialDLCISelector = defaultDialDLCISelector
	}
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	return nil
}

// ConfigBuilder assembles a Config fluently, so a caller can set only the
// fields it cares about and let Build fill in the rest.
type ConfigBuilder struct {
	cfg Config
}

// NewConfigBuilder starts a new, empty ConfigBuilder.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.cfg.Dialer = d
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.cfg.Logger = l
	return b
}

func (b *ConfigBuilder) WithPort(name string, baud int) *ConfigBuilder {
	b.cfg.PortName = name
	b.cfg.BaudRate = baud
	return b
}

func (b *ConfigBuilder) WithFraming(dataBits int, parity, stopBits string) *ConfigBuilder {
	b.cfg.DataBits = dataBits
	b.cfg.Parity = parity
	b.cfg.StopBits = stopBits
	return b
}

func (b *ConfigBuilder) WithFlowControl(fc FlowControl) *ConfigBuilder {
	b.cfg.FlowCtrl = fc
	return b
}

func (b *ConfigBuilder) WithBufferSizes(rx, tx, lineBuf int) *ConfigBuilder {
	b.cfg.RXBufferSize = rx
	b.cfg.TXBufferSize = tx
	b.cfg.LineBufferSize = lineBuf
	return b
}

func (b *ConfigBuilder) WithCMUX(enabled bool) *ConfigBuilder {
	b.cfg.UseCMUX = enabled
	return b
}

func (b *ConfigBuilder) WithTimeouts(command, operator, modeChange, hangup time.Duration) *ConfigBuilder {
	b.cfg.CommandTimeout = command
	b.cfg.OperatorTimeout = operator
	b.cfg.ModeChangeTimeout = modeChange
	b.cfg.HangupTimeout = hangup
	return b
}

func (b *ConfigBuilder) WithDialDLCISelector(f func(cmd string) byte) *ConfigBuilder {
	b.cfg.DialDLCISelector = f
	return b
}

// Build validates and returns the assembled Config with defaults applied.
func (b *ConfigBuilder) Build() (Config, error) {
	b.cfg.setDefaults()
	if err := b.cfg.validate(); err != nil {
		return Config{}, err
	}
	return b.cfg, nil
}
