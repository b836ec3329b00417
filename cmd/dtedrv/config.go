package main

import (
	"os"
	"strconv"
)

// cliConfig holds the flags/environment this command reads. Precedence is
// built-in default, overridden by environment variable, overridden last
// by an explicit command-line flag.
type cliConfig struct {
	SerialPort string
	BaudRate   int
	LogLevel   string
	UseCMUX    bool
}

var cfg cliConfig

func init() {
	defaultPort := envOr("DTEDRV_SERIAL_PORT", "/dev/ttyUSB0")
	defaultBaud := envOrInt("DTEDRV_BAUD_RATE", 115200)
	defaultLogLevel := envOr("DTEDRV_LOG_LEVEL", "info")
	defaultCMUX := envOrBool("DTEDRV_CMUX", false)

	rootCmd.PersistentFlags().StringVarP(&cfg.SerialPort, "serial-port", "p", defaultPort, "Serial port connected to the modem")
	rootCmd.PersistentFlags().IntVarP(&cfg.BaudRate, "baud-rate", "b", defaultBaud, "Baud rate for serial communication")
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", defaultLogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&cfg.UseCMUX, "cmux", defaultCMUX, "Establish CMUX multiplexing at startup")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
