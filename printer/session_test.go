package printer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nixxel-company-limited/escpos-http-bridge/adapter"
	"github.com/nixxel-company-limited/escpos-http-bridge/escpos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func networkTarget(t *testing.T) PrintTarget {
	t.Helper()
	target, err := NewNetworkTarget("192.168.0.99", 9100)
	require.NoError(t, err)
	return target
}

func TestSessionSuccess(t *testing.T) {
	device := &FakeAdapter{}
	session := NewSession("s1", networkTarget(t), device, nil)
	assert.Equal(t, StateClosed, session.State())
	assert.Equal(t, "s1", session.ID())

	job := escpos.HelloWorld()
	require.NoError(t, session.Run(context.Background(), job))

	assert.Equal(t, StateClosed, session.State())
	assert.Equal(t, job.Bytes(), device.Written())
	assert.Equal(t, job.Len(), session.BytesSent())

	open, write, closeCalls := device.Calls()
	assert.Equal(t, 1, open)
	assert.Equal(t, len(job.Commands()), write)
	assert.Equal(t, 1, closeCalls)
	assert.False(t, device.IsOpen())
}

func TestSessionOpenFailure(t *testing.T) {
	openErr := errors.New("connect: connection refused")
	device := &FakeAdapter{OpenErr: openErr}
	session := NewSession("s1", networkTarget(t), device, nil)

	err := session.Run(context.Background(), escpos.HelloWorld())
	require.Error(t, err)

	var pe *PrintError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindConnection, pe.Kind)
	assert.Equal(t, TransportNetwork, pe.Transport)
	assert.ErrorIs(t, err, openErr)
	assert.Equal(t, "Printer connection error: connect: connection refused", err.Error())

	assert.Equal(t, StateFailed, session.State())
	_, write, _ := device.Calls()
	assert.Zero(t, write, "no write may follow a failed open")
	assert.Empty(t, device.Written())
}

func TestSessionDeviceNotFound(t *testing.T) {
	device := &FakeAdapter{OpenErr: adapter.ErrDeviceNotFound}
	session := NewSession("s1", NewUSBTarget(), device, nil)

	err := session.Run(context.Background(), escpos.HelloWorld())
	assert.Equal(t, KindDeviceNotFound, KindOf(err))
	assert.ErrorIs(t, err, adapter.ErrDeviceNotFound)
	assert.Contains(t, err.Error(), "Printer connection error")
	assert.Equal(t, StateFailed, session.State())
}

func TestSessionWriteFailureClosesOnce(t *testing.T) {
	writeErr := errors.New("broken pipe")
	device := &FakeAdapter{FailWriteAt: 3, WriteErr: writeErr}
	session := NewSession("s1", networkTarget(t), device, nil)

	err := session.Run(context.Background(), escpos.HelloWorld())

	var pe *PrintError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindTransmission, pe.Kind)
	assert.Equal(t, "text", pe.Step)
	assert.ErrorIs(t, err, writeErr)
	assert.Equal(t, "Printer transmission error: text: broken pipe", err.Error())

	_, write, closeCalls := device.Calls()
	assert.Equal(t, 3, write, "sequence aborts at the failing step")
	assert.Equal(t, 1, closeCalls)
	assert.Equal(t, StateFailed, session.State())
}

func TestSessionWriteAndCloseFailure(t *testing.T) {
	device := &FakeAdapter{
		FailWriteAt: 1,
		WriteErr:    errors.New("timeout"),
		CloseErr:    errors.New("close failed"),
	}
	session := NewSession("s1", networkTarget(t), device, nil)

	err := session.Run(context.Background(), escpos.HelloWorld())
	assert.Equal(t, KindTransmission, KindOf(err))

	_, _, closeCalls := device.Calls()
	assert.Equal(t, 1, closeCalls)
}

func TestSessionCloseFailure(t *testing.T) {
	closeErr := errors.New("release interface: busy")
	device := &FakeAdapter{CloseErr: closeErr}
	session := NewSession("s1", NewUSBTarget(), device, nil)

	job := escpos.HelloWorld()
	err := session.Run(context.Background(), job)

	assert.Equal(t, KindClose, KindOf(err))
	assert.ErrorIs(t, err, closeErr)
	assert.Equal(t, "Printer close error: release interface: busy", err.Error())
	assert.Equal(t, StateFailed, session.State())

	// The payload was still sent in full
	assert.Equal(t, job.Bytes(), device.Written())
}

func TestSessionShortWrites(t *testing.T) {
	device := &FakeAdapter{MaxChunk: 2}
	session := NewSession("s1", NewUSBTarget(), device, nil)

	job := escpos.HelloWorld()
	require.NoError(t, session.Run(context.Background(), job))
	assert.Equal(t, job.Bytes(), device.Written())
	assert.Equal(t, job.Len(), session.BytesSent())
}

func TestSessionSingleUse(t *testing.T) {
	device := &FakeAdapter{}
	session := NewSession("s1", NewUSBTarget(), device, nil)

	require.NoError(t, session.Run(context.Background(), escpos.HelloWorld()))
	assert.ErrorIs(t, session.Run(context.Background(), escpos.HelloWorld()), ErrSessionUsed)

	open, _, _ := device.Calls()
	assert.Equal(t, 1, open)
}

func TestSessionInvalidJob(t *testing.T) {
	device := &FakeAdapter{}
	session := NewSession("s1", NewUSBTarget(), device, nil)

	err := session.Run(context.Background(), escpos.NewJob().Size(0, 0))
	require.Error(t, err)
	assert.Zero(t, KindOf(err))

	open, _, _ := device.Calls()
	assert.Zero(t, open)
}

func TestSessionCanceledBeforeOpen(t *testing.T) {
	device := &FakeAdapter{}
	session := NewSession("s1", NewUSBTarget(), device, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := session.Run(ctx, escpos.HelloWorld())
	assert.Equal(t, KindConnection, KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
}

// expiringAdapter cancels the session context on its first write
type expiringAdapter struct {
	FakeAdapter
	cancel context.CancelFunc
}

func (e *expiringAdapter) Write(ctx context.Context, data []byte) (int, error) {
	n, err := e.FakeAdapter.Write(ctx, data)
	e.cancel()
	return n, err
}

func TestSessionClosesAfterDeadline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	device := &expiringAdapter{cancel: cancel}
	device.FailWriteAt = 2
	device.WriteErr = context.Canceled
	session := NewSession("s1", NewUSBTarget(), device, nil)

	err := session.Run(ctx, escpos.HelloWorld())
	assert.Equal(t, KindTransmission, KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
	require.Error(t, ctx.Err())

	_, _, closeCalls := device.Calls()
	assert.Equal(t, 1, closeCalls, "close must run even though the context is done")
	assert.False(t, device.IsOpen())
	assert.Equal(t, StateFailed, session.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "State(9)", fmt.Sprint(State(9)))
}
