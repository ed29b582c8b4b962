// Package config loads the bridge's runtime configuration from
// environment variables, grounded on
// punchamoorthee-ledgerops/internal/config/config.go's os.Getenv-with-defaults
// loader shape — the teacher and that donor both use plain env vars, so
// this repo carries no config-file parser.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the bridge's serial, HTTP, and timeout settings.
type Config struct {
	SerialPort     string
	SerialParity   string
	HTTPAddr       string
	SerialBaud     int
	SerialDataBits int
	SerialStopBits int
	TEFTimeout     time.Duration
	MockMode       bool
}

// Load reads TEF_* environment variables, falling back to the line
// defaults for everything but the serial port, which callers must supply
// before Connect.
func Load() Config {
	return Config{
		SerialPort:     os.Getenv("TEF_SERIAL_PORT"),
		SerialBaud:     envInt("TEF_SERIAL_BAUD", 9600),
		SerialDataBits: envInt("TEF_SERIAL_DATA_BITS", 8),
		SerialStopBits: envInt("TEF_SERIAL_STOP_BITS", 1),
		SerialParity:   envString("TEF_SERIAL_PARITY", "N"),
		TEFTimeout:     time.Duration(envInt("TEF_TIMEOUT_MS", 60000)) * time.Millisecond,
		MockMode:       envBool("TEF_MOCK_MODE", false),
		HTTPAddr:       envString("TEF_HTTP_ADDR", ":8080"),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
