package printer

import (
	"bytes"
	"context"
	"sync"

	"github.com/nixxel-company-limited/escpos-http-bridge/adapter"
)

// FakeAdapter is an in-memory Adapter that records calls and fails on demand
type FakeAdapter struct {
	mu sync.Mutex

	OpenErr  error
	CloseErr error
	// FailWriteAt makes the n-th Write call (1-based) fail with WriteErr
	FailWriteAt int
	WriteErr    error
	// MaxChunk limits how many bytes each Write accepts
	MaxChunk int

	open       bool
	openCalls  int
	writeCalls int
	closeCalls int
	written    bytes.Buffer
	// wroteWhileClosed is set if Write is called while the device is not open
	wroteWhileClosed bool
}

var _ adapter.Adapter = (*FakeAdapter)(nil)

func (f *FakeAdapter) Open(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openCalls++
	if f.OpenErr != nil {
		return f.OpenErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.open = true
	return nil
}

func (f *FakeAdapter) Write(ctx context.Context, data []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeCalls++
	if !f.open {
		f.wroteWhileClosed = true
		return 0, adapter.ErrNotOpen
	}
	if f.FailWriteAt > 0 && f.writeCalls == f.FailWriteAt {
		return 0, f.WriteErr
	}
	if f.MaxChunk > 0 && len(data) > f.MaxChunk {
		data = data[:f.MaxChunk]
	}
	f.written.Write(data)
	return len(data), nil
}

func (f *FakeAdapter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	f.open = false
	return f.CloseErr
}

func (f *FakeAdapter) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *FakeAdapter) Calls() (open, write, close int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openCalls, f.writeCalls, f.closeCalls
}

func (f *FakeAdapter) Written() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.written.Bytes()...)
}
