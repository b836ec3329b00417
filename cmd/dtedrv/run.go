package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.bug.st/serial"

	"i4.energy/across/cmuxdte/dte"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the modem link and keep the reader task alive until interrupted",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	modemConfig, err := dte.NewConfigBuilder().
		WithDialer(dte.SerialDialer{PortName: cfg.SerialPort, Mode: &serial.Mode{BaudRate: cfg.BaudRate}}).
		WithLogger(logger).
		WithPort(cfg.SerialPort, cfg.BaudRate).
		WithCMUX(cfg.UseCMUX).
		Build()
	if err != nil {
		logger.Error("failed to build dte config", "error", err)
		return err
	}

	d, err := dte.New(context.Background(), modemConfig)
	if err != nil {
		logger.Error("failed to open dte", "error", err)
		return err
	}

	logger.Info("dte opened", "port", cfg.SerialPort, "baud", cfg.BaudRate, "cmux", cfg.UseCMUX)

	d.Events().Subscribe(dte.UnknownLine, func(ctx any, id dte.EventID, payload string) {
		logger.Warn("unknown line", "text", payload)
	}, nil)

	dce := &dte.DCE{
		SetWorkingMode: func(dce *dte.DCE, mode dte.Mode) error {
			logger.Info("working mode notified", "mode", mode)
			return nil
		},
	}
	d.Bind(dce)

	if cfg.UseCMUX {
		if err := d.StartCMUX(context.Background()); err != nil {
			logger.Error("failed to start cmux", "error", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("received shutdown signal", "signal", sig)

	if err := d.Close(); err != nil {
		logger.Error("failed to close dte", "error", err)
		return err
	}
	return nil
}
