package reservation

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

const lockWeight = 1 << 30

// rwLock is a FIFO shared/exclusive lock. Readers take one unit, writers take
// all of them, so a queued writer is not starved by a stream of readers.
type rwLock struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

func newRWLock(timeout time.Duration) *rwLock {
	return &rwLock{
		sem:     semaphore.NewWeighted(lockWeight),
		timeout: timeout,
	}
}

// lock acquires exclusive access, giving up with ErrStoreBusy once the
// timeout elapses.
func (l *rwLock) lock(ctx context.Context, op string) (func(), error) {
	acquireCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.sem.Acquire(acquireCtx, lockWeight); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w", op, ErrStoreBusy)
	}
	return func() { l.sem.Release(lockWeight) }, nil
}

// rlock acquires shared access. It waits for in-flight writers but is bounded
// only by ctx.
func (l *rwLock) rlock(ctx context.Context) (func(), error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { l.sem.Release(1) }, nil
}
