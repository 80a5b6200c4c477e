package adapter

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultBluetoothChannel is the RFCOMM channel serial-port profile printers
// usually listen on.
const DefaultBluetoothChannel = 1

// rfcommConn is the platform socket behind a BluetoothAdapter
type rfcommConn interface {
	Write(b []byte) (int, error)
	SetWriteDeadline(t time.Time) error
	Close() error
}

// BluetoothAdapter talks to a printer over an RFCOMM (serial port profile) link
type BluetoothAdapter struct {
	address string
	channel uint8
	logger  *zap.Logger
	dial    func(ctx context.Context, addr [6]byte, channel uint8) (rfcommConn, error)
	conn    rfcommConn
	mu      sync.Mutex
}

// NewBluetoothAdapter creates an adapter for the device with the given
// Bluetooth address (AA:BB:CC:DD:EE:FF). A channel of 0 selects
// DefaultBluetoothChannel.
func NewBluetoothAdapter(address string, channel uint8, logger *zap.Logger) *BluetoothAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if channel == 0 {
		channel = DefaultBluetoothChannel
	}
	return &BluetoothAdapter{
		address: address,
		channel: channel,
		logger:  logger,
		dial:    dialRFCOMM,
	}
}

// ParseBluetoothAddress parses a 48-bit device address in the usual
// colon- or dash-separated notation.
func ParseBluetoothAddress(s string) ([6]byte, error) {
	var addr [6]byte
	mac, err := net.ParseMAC(s)
	if err != nil {
		return addr, fmt.Errorf("invalid bluetooth address %q: %w", s, err)
	}
	if len(mac) != len(addr) {
		return addr, fmt.Errorf("invalid bluetooth address %q: want 6 bytes, got %d", s, len(mac))
	}
	copy(addr[:], mac)
	return addr, nil
}

// Open connects to the device's RFCOMM channel
func (a *BluetoothAdapter) Open(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conn != nil {
		return ErrAlreadyOpen
	}

	addr, err := ParseBluetoothAddress(a.address)
	if err != nil {
		return err
	}

	conn, err := a.dial(ctx, addr, a.channel)
	if err != nil {
		return err
	}
	a.conn = conn
	a.logger.Debug("Bluetooth printer connected",
		zap.String("address", a.address),
		zap.Uint8("channel", a.channel),
	)
	return nil
}

// Write sends data to the printer
func (a *BluetoothAdapter) Write(ctx context.Context, data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conn == nil {
		return 0, ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	deadline, _ := ctx.Deadline()
	if err := a.conn.SetWriteDeadline(deadline); err != nil {
		return 0, fmt.Errorf("failed to set write deadline: %w", err)
	}

	n, err := a.conn.Write(data)
	if err != nil {
		return n, fmt.Errorf("write failed: %w", err)
	}
	return n, nil
}

// Close closes the RFCOMM socket
func (a *BluetoothAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conn == nil {
		return nil
	}

	err := a.conn.Close()
	a.conn = nil
	return err
}

// IsOpen returns whether the link is connected
func (a *BluetoothAdapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conn != nil
}
