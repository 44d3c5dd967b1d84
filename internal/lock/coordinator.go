// Package lock provides ordered, deadlock-free mutual exclusion over account
// numbers for a single ledger instance. Locks for a transfer are always taken
// in lexicographic account-number order, so two concurrent transfers over the
// same pair can never hold one lock each and wait on the other.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/corebank/ledger-service/internal/commons"
)

// Coordinator hands out per-account-number locks with a bounded acquisition
// wait. Lock slots are created lazily and kept for the life of the process.
type Coordinator struct {
	mu      sync.Mutex
	slots   map[string]chan struct{}
	timeout time.Duration
}

// NewCoordinator creates a Coordinator whose acquisitions time out after the
// given duration.
func NewCoordinator(timeout time.Duration) *Coordinator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Coordinator{
		slots:   make(map[string]chan struct{}),
		timeout: timeout,
	}
}

func (c *Coordinator) slot(key string) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		c.slots[key] = s
	}
	return s
}

func (c *Coordinator) acquire(ctx context.Context, key string) error {
	s := c.slot(key)

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case s <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("account %s: %w", key, commons.ErrLockTimeout)
	case <-ctx.Done():
		return fmt.Errorf("account %s: %w", key, ctx.Err())
	}
}

func (c *Coordinator) release(key string) {
	<-c.slot(key)
}

// WithAccountLock runs work while holding the lock for a single account.
func (c *Coordinator) WithAccountLock(ctx context.Context, accountNumber string, work func() error) error {
	if err := c.acquire(ctx, accountNumber); err != nil {
		return err
	}
	defer c.release(accountNumber)

	return work()
}

// WithTransferLock runs work while holding the locks for both accounts of a
// transfer. Acquisition order is fixed regardless of argument order; if both
// arguments name the same account a single lock is taken. Both locks are
// released on every exit path, and a timeout on the second acquisition
// releases the first before returning.
func (c *Coordinator) WithTransferLock(ctx context.Context, accountA, accountB string, work func() error) error {
	first, second := orderKeys(accountA, accountB)

	if err := c.acquire(ctx, first); err != nil {
		return err
	}
	defer c.release(first)

	if second != first {
		if err := c.acquire(ctx, second); err != nil {
			return err
		}
		defer c.release(second)
	}

	return work()
}

// orderKeys returns the pair in its fixed global locking order.
func orderKeys(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
