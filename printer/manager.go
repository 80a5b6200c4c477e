package printer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nixxel-company-limited/escpos-http-bridge/escpos"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a whole session when no timeout is configured
const DefaultTimeout = 10 * time.Second

// Manager runs print sessions. Sessions for different devices run
// concurrently; sessions for the same device run one at a time.
type Manager struct {
	registry Registry
	logger   *zap.Logger
	timeout  time.Duration
	locks    *deviceLocks
}

// Option configures a Manager
type Option func(*Manager)

// WithTimeout bounds each session, including the wait for the device.
// Zero or negative disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.timeout = d
	}
}

// WithLogger sets the manager's logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a manager that builds devices from registry
func NewManager(registry Registry, opts ...Option) *Manager {
	m := &Manager{
		registry: registry,
		logger:   zap.NewNop(),
		timeout:  DefaultTimeout,
		locks:    newDeviceLocks(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Timeout returns the per-session bound, zero when unbounded
func (m *Manager) Timeout() time.Duration {
	if m.timeout < 0 {
		return 0
	}
	return m.timeout
}

// Print sends job to target in a new session. Failures after validation are
// returned as *PrintError.
func (m *Manager) Print(ctx context.Context, target PrintTarget, job *escpos.Job) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	device, err := m.registry.Device(target)
	if err != nil {
		return &PrintError{Kind: KindConnection, Transport: target.Transport(), Err: err}
	}

	release, err := m.locks.acquire(ctx, target.Key())
	if err != nil {
		return &PrintError{
			Kind:      KindConnection,
			Transport: target.Transport(),
			Err:       fmt.Errorf("printer busy: %w", err),
		}
	}
	defer release()

	session := NewSession(uuid.NewString(), target, device, m.logger)
	return session.Run(ctx, job)
}
