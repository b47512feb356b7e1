// Package mempool maintains the bounded pool of transactions waiting to be
// mined. The pool paces block production: producers wait while it is full
// and the miner waits until it is full.
package mempool

import (
	"context"
	"errors"
	"sync"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
)

// ErrClosed is returned by blocking calls once the pool has been shut down.
var ErrClosed = errors.New("mempool closed")

// Mempool represents a fixed capacity buffer of transactions kept in the
// order they were added.
type Mempool struct {
	mu       sync.Mutex
	cond     *sync.Cond
	pool     []database.Tx
	capacity int
	closed   bool
}

// New constructs a new mempool that holds at most capacity transactions.
func New(capacity int) (*Mempool, error) {
	if capacity < 1 {
		return nil, errors.New("capacity must be at least one")
	}

	mp := Mempool{
		pool:     make([]database.Tx, 0, capacity),
		capacity: capacity,
	}
	mp.cond = sync.NewCond(&mp.mu)

	return &mp, nil
}

// Capacity returns the fixed size of the pool.
func (mp *Mempool) Capacity() int {
	return mp.capacity
}

// Put adds the transaction to the pool. The call waits while the pool is
// full and returns early if the context is cancelled or the pool is shut
// down.
func (mp *Mempool) Put(ctx context.Context, tx database.Tx) error {
	stop := context.AfterFunc(ctx, mp.wake)
	defer stop()

	mp.mu.Lock()
	defer mp.mu.Unlock()

	for len(mp.pool) >= mp.capacity {
		if err := mp.interrupted(ctx); err != nil {
			return err
		}
		mp.cond.Wait()
	}

	if err := mp.interrupted(ctx); err != nil {
		return err
	}

	mp.pool = append(mp.pool, tx)
	if len(mp.pool) == mp.capacity {
		mp.cond.Broadcast()
	}

	return nil
}

// DrainAll waits until the pool is full and then removes and returns every
// transaction in the order they were added.
func (mp *Mempool) DrainAll(ctx context.Context) ([]database.Tx, error) {
	stop := context.AfterFunc(ctx, mp.wake)
	defer stop()

	mp.mu.Lock()
	defer mp.mu.Unlock()

	for len(mp.pool) < mp.capacity {
		if err := mp.interrupted(ctx); err != nil {
			return nil, err
		}
		mp.cond.Wait()
	}

	batch := mp.pool
	mp.pool = make([]database.Tx, 0, mp.capacity)
	mp.cond.Broadcast()

	return batch, nil
}

// Shutdown marks the pool closed and wakes every waiting caller.
func (mp *Mempool) Shutdown() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.closed = true
	mp.cond.Broadcast()
}

// IsFull reports whether the pool is at capacity.
func (mp *Mempool) IsFull() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return len(mp.pool) >= mp.capacity
}

// IsEmpty reports whether the pool holds no transactions.
func (mp *Mempool) IsEmpty() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return len(mp.pool) == 0
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return len(mp.pool)
}

// Copy returns a copy of the transactions in the pool.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	cpy := make([]database.Tx, len(mp.pool))
	copy(cpy, mp.pool)

	return cpy
}

// =============================================================================

// interrupted returns the reason a waiting caller must give up. The caller
// must hold the lock.
func (mp *Mempool) interrupted(ctx context.Context) error {
	if mp.closed {
		return ErrClosed
	}

	return ctx.Err()
}

// wake is called when a context is cancelled so waiters re-check.
func (mp *Mempool) wake() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.cond.Broadcast()
}
