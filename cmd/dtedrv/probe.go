package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.bug.st/serial"

	"i4.energy/across/cmuxdte/dte"
)

var probeTimeout time.Duration

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Send a plain AT command and report whether the modem answers OK",
	RunE:  runProbe,
}

func init() {
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 2*time.Second, "How long to wait for the modem's response")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	modemConfig, err := dte.NewConfigBuilder().
		WithDialer(dte.SerialDialer{PortName: cfg.SerialPort, Mode: &serial.Mode{BaudRate: cfg.BaudRate}}).
		WithLogger(logger).
		WithPort(cfg.SerialPort, cfg.BaudRate).
		Build()
	if err != nil {
		return err
	}

	d, err := dte.New(context.Background(), modemConfig)
	if err != nil {
		return fmt.Errorf("open dte: %w", err)
	}
	defer d.Close()

	result := make(chan string, 1)
	dce := &dte.DCE{
		HandleLine: func(dce *dte.DCE, line string) error {
			if strings.Contains(line, "OK") || strings.Contains(line, "ERROR") {
				result <- line
				d.ProcessCmdDone()
			}
			return nil
		},
	}
	d.Bind(dce)

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	if err := d.SendCmd(ctx, "AT\r", probeTimeout); err != nil {
		if errors.Is(err, dte.ErrCommandTimeout) {
			fmt.Println("no response from modem")
			return err
		}
		return err
	}

	select {
	case line := <-result:
		fmt.Printf("modem responded: %s\n", line)
	default:
		fmt.Println("command acknowledged")
	}
	return nil
}
