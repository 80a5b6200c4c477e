// Package config loads service settings from the environment and an optional
// escpos-bridge.yaml file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config holds the bridge settings
type Config struct {
	ServerAddress string
	GinMode       string

	// PrintTimeout bounds one print session; 0 disables the bound
	PrintTimeout time.Duration

	// Opt-in fallbacks for network requests without ip or port
	DefaultAddress string
	DefaultPort    int

	USBVendorID      uint16
	USBProductID     uint16
	USBSerial        string
	BluetoothChannel uint8

	LogLevel  string
	LogFormat string
	LogOutput string
}

// Load reads configuration. Environment variables override the file, which
// overrides the defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("escpos-bridge")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	return load(v)
}

// LoadFile reads configuration from the given file plus the environment
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDRESS", "localhost:3000")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("PRINT_TIMEOUT", "10s")
	v.SetDefault("DEFAULT_ADDRESS", "")
	v.SetDefault("DEFAULT_PORT", 0)
	v.SetDefault("USB_VENDOR_ID", 0)
	v.SetDefault("USB_PRODUCT_ID", 0)
	v.SetDefault("USB_SERIAL", "")
	v.SetDefault("BLUETOOTH_CHANNEL", 1)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_OUTPUT", "stdout")
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		ServerAddress:  v.GetString("SERVER_ADDRESS"),
		GinMode:        v.GetString("GIN_MODE"),
		DefaultAddress: v.GetString("DEFAULT_ADDRESS"),
		USBSerial:      v.GetString("USB_SERIAL"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		LogOutput:      v.GetString("LOG_OUTPUT"),
	}

	var err error
	if cfg.PrintTimeout, err = duration(v, "PRINT_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.DefaultPort, err = integer(v, "DEFAULT_PORT"); err != nil {
		return nil, err
	}

	vid, err := usbID(v, "USB_VENDOR_ID")
	if err != nil {
		return nil, err
	}
	pid, err := usbID(v, "USB_PRODUCT_ID")
	if err != nil {
		return nil, err
	}
	cfg.USBVendorID, cfg.USBProductID = vid, pid

	channel, err := integer(v, "BLUETOOTH_CHANNEL")
	if err != nil {
		return nil, err
	}
	if channel < 1 || channel > 30 {
		return nil, fmt.Errorf("invalid BLUETOOTH_CHANNEL %d: want 1..30", channel)
	}
	cfg.BluetoothChannel = uint8(channel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// duration parses key as a Go duration. A bare number is rejected rather than
// read as nanoseconds.
func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw != "0" && strings.Trim(raw, "+-0123456789.") == "" {
		return 0, fmt.Errorf("invalid %s %q: missing unit, e.g. 10s", key, raw)
	}
	d, err := cast.ToDurationE(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func integer(v *viper.Viper, key string) (int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	n, err := cast.ToIntE(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

// usbID parses a 16-bit USB vendor or product id
func usbID(v *viper.Viper, key string) (uint16, error) {
	raw := strings.TrimSpace(v.GetString(key))
	n, err := cast.ToUintE(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if n > 0xFFFF {
		return 0, fmt.Errorf("invalid %s %#x: want 0..0xffff", key, n)
	}
	return uint16(n), nil
}

// Validate checks values that cannot be caught at parse time
func (c *Config) Validate() error {
	if c.ServerAddress == "" {
		return errors.New("SERVER_ADDRESS must not be empty")
	}
	if c.PrintTimeout < 0 {
		return fmt.Errorf("PRINT_TIMEOUT must not be negative, got %s", c.PrintTimeout)
	}
	if c.DefaultPort < 0 || c.DefaultPort > 65535 {
		return fmt.Errorf("DEFAULT_PORT must be in 0..65535, got %d", c.DefaultPort)
	}
	return nil
}
