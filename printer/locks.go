package printer

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// deviceLocks serializes sessions per physical device
type deviceLocks struct {
	mu    sync.Mutex
	locks map[string]*deviceLock
}

type deviceLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newDeviceLocks() *deviceLocks {
	return &deviceLocks{locks: make(map[string]*deviceLock)}
}

// acquire blocks until the device identified by key is free or ctx is done.
// The returned function releases the device.
func (d *deviceLocks) acquire(ctx context.Context, key string) (func(), error) {
	d.mu.Lock()
	l, ok := d.locks[key]
	if !ok {
		l = &deviceLock{sem: semaphore.NewWeighted(1)}
		d.locks[key] = l
	}
	l.refs++
	d.mu.Unlock()

	if err := l.sem.Acquire(ctx, 1); err != nil {
		d.unref(key, l)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.sem.Release(1)
			d.unref(key, l)
		})
	}, nil
}

func (d *deviceLocks) unref(key string, l *deviceLock) {
	d.mu.Lock()
	defer d.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(d.locks, key)
	}
}

// len returns the number of devices currently held or waited on
func (d *deviceLocks) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.locks)
}
