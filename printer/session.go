package printer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nixxel-company-limited/escpos-http-bridge/adapter"
	"github.com/nixxel-company-limited/escpos-http-bridge/escpos"
	"go.uber.org/zap"
)

// State of a printer session
type State int

const (
	StateClosed State = iota
	StateOpen
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is one open-write-close interaction with a printer. It owns its
// device and can be run once.
type Session struct {
	id        string
	target    PrintTarget
	device    adapter.Adapter
	logger    *zap.Logger
	mu        sync.Mutex
	state     State
	used      bool
	bytesSent int
}

// NewSession creates a session in the closed state
func NewSession(id string, target PrintTarget, device adapter.Adapter, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		id:     id,
		target: target,
		device: device,
		logger: logger.With(
			zap.String("session_id", id),
			zap.Stringer("target", target),
		),
	}
}

// ID returns the session identifier
func (s *Session) ID() string { return s.id }

// State returns the current session state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BytesSent returns the number of payload bytes the device accepted
func (s *Session) BytesSent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytesSent
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Run opens the device, writes every command of job in order and closes the
// device. The device is closed on every path once Open has been attempted.
func (s *Session) Run(ctx context.Context, job *escpos.Job) error {
	s.mu.Lock()
	if s.used {
		s.mu.Unlock()
		return ErrSessionUsed
	}
	s.used = true
	s.mu.Unlock()

	if err := job.Err(); err != nil {
		s.setState(StateFailed)
		return fmt.Errorf("invalid print job: %w", err)
	}

	s.logger.Debug("Opening printer")
	if err := s.device.Open(ctx); err != nil {
		s.setState(StateFailed)
		if cerr := s.device.Close(); cerr != nil {
			s.logger.Warn("Error releasing printer after failed open", zap.Error(cerr))
		}
		kind := KindConnection
		if errors.Is(err, adapter.ErrDeviceNotFound) {
			kind = KindDeviceNotFound
		}
		s.logger.Error("Printer connection error", zap.Error(err))
		return &PrintError{Kind: kind, Transport: s.target.Transport(), Err: err}
	}
	s.setState(StateOpen)

	for _, cmd := range job.Commands() {
		if err := s.write(ctx, cmd); err != nil {
			s.setState(StateFailed)
			if cerr := s.device.Close(); cerr != nil {
				s.logger.Warn("Error closing printer after failed write", zap.Error(cerr))
			}
			s.logger.Error("Printer transmission error", zap.String("step", cmd.Name), zap.Error(err))
			return &PrintError{Kind: KindTransmission, Transport: s.target.Transport(), Step: cmd.Name, Err: err}
		}
	}

	if err := s.device.Close(); err != nil {
		s.setState(StateFailed)
		s.logger.Error("Printer close error", zap.Error(err))
		return &PrintError{Kind: KindClose, Transport: s.target.Transport(), Err: err}
	}
	s.setState(StateClosed)

	s.logger.Info("Data sent to printer", zap.Int("bytes", s.BytesSent()))
	return nil
}

// write sends one command, looping over short writes
func (s *Session) write(ctx context.Context, cmd escpos.Command) error {
	data := cmd.Data
	for len(data) > 0 {
		n, err := s.device.Write(ctx, data)
		s.mu.Lock()
		s.bytesSent += n
		s.mu.Unlock()
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("device accepted no data")
		}
		data = data[n:]
	}
	return nil
}
