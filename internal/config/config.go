// Package config loads the tool configuration file. Command-line flags
// override anything set here.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds connection defaults from ~/.config/ev3-tool/config.toml.
type Config struct {
	// Transport selects the default transport kind: serial, bluetooth
	// or tcp.
	Transport string `toml:"transport"`

	// SerialPort is the serial device node for the serial transport.
	SerialPort string `toml:"serial_port"`

	// BluetoothName is the advertised name scanned for by the
	// bluetooth transport.
	BluetoothName string `toml:"bluetooth_name"`

	// TCPAddress is the host:port for the tcp transport. Empty means
	// discover the brick via its UDP beacon.
	TCPAddress string `toml:"tcp_address"`

	// SerialNumber is the brick serial number used by the tcp unlock
	// handshake when TCPAddress is set explicitly.
	SerialNumber string `toml:"serial_number"`
}

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		Transport:     "serial",
		SerialPort:    "/dev/ttyACM0",
		BluetoothName: "EV3",
	}
}

// Path returns the config file location.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ev3-tool", "config.toml"), nil
}

// Load reads the config file, falling back to Defaults when the file
// does not exist.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Defaults(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a specific config file.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Defaults(), nil
		}
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
