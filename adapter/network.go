package adapter

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// NetworkAdapter talks to a printer over a raw TCP socket (port 9100 style)
type NetworkAdapter struct {
	address string
	dialer  net.Dialer
	logger  *zap.Logger
	conn    net.Conn
	mu      sync.Mutex
}

// NewNetworkAdapter creates an adapter for host:port. No connection is made
// until Open.
func NewNetworkAdapter(host string, port int, logger *zap.Logger) *NetworkAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NetworkAdapter{
		address: net.JoinHostPort(host, strconv.Itoa(port)),
		logger:  logger,
	}
}

// Address returns the host:port the adapter dials
func (a *NetworkAdapter) Address() string {
	return a.address
}

// Open dials the printer. The context bounds the dial.
func (a *NetworkAdapter) Open(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conn != nil {
		return ErrAlreadyOpen
	}

	conn, err := a.dialer.DialContext(ctx, "tcp", a.address)
	if err != nil {
		return err
	}
	a.conn = conn
	a.logger.Debug("Network printer connected",
		zap.String("address", a.address),
		zap.String("local", conn.LocalAddr().String()),
	)
	return nil
}

// Write sends data to the printer. The context deadline, if any, becomes the
// socket write deadline.
func (a *NetworkAdapter) Write(ctx context.Context, data []byte) (int, error) {
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

// Close closes the socket
func (a *NetworkAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conn == nil {
		return nil
	}

	err := a.conn.Close()
	a.conn = nil
	return err
}

// IsOpen returns whether the socket is connected
func (a *NetworkAdapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conn != nil
}
