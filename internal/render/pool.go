package render

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = errors.New("render pool closed")
	// ErrBusy signals that no render slot freed up in time.
	ErrBusy = errors.New("renderer busy")
)

// Pool bounds the number of renders running at once.
type Pool struct {
	mu     sync.Mutex
	sem    chan struct{}
	closed bool

	rendered atomic.Int64
	failed   atomic.Int64
	timedOut atomic.Int64
}

// Slot is a held render permit.
type Slot struct {
	Acquired time.Time
	released atomic.Bool
}

// PoolStats is a point-in-time view of the pool.
type PoolStats struct {
	Enabled  bool  `json:"enabled"`
	Capacity int   `json:"capacity"`
	Idle     int   `json:"idle"`
	InUse    int   `json:"in_use"`
	Rendered int64 `json:"rendered"`
	Failed   int64 `json:"failed"`
	TimedOut int64 `json:"timed_out"`
}

// NewPool returns a pool with size slots.
func NewPool(size int) (*Pool, error) {
	if size <= 0 {
		return nil, errors.New("render pool size must be positive")
	}
	p := &Pool{sem: make(chan struct{}, size)}
	for i := 0; i < size; i++ {
		p.sem <- struct{}{}
	}
	return p, nil
}

// Acquire blocks until a slot is free, the pool closes, or ctx ends.
func (p *Pool) Acquire(ctx context.Context) (*Slot, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}

	select {
	case <-p.sem:
		return &Slot{Acquired: time.Now()}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns the slot and records the outcome of the render it held.
// Releasing the same slot twice is a no-op.
func (p *Pool) Release(s *Slot, renderErr error) {
	if s == nil || !s.released.CompareAndSwap(false, true) {
		return
	}
	if renderErr != nil {
		p.failed.Add(1)
	} else {
		p.rendered.Add(1)
	}
	select {
	case p.sem <- struct{}{}:
	default:
	}
}

// MarkTimedOut counts a render whose caller gave up waiting for it.
func (p *Pool) MarkTimedOut() {
	p.timedOut.Add(1)
}

// Stats reports capacity and usage.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()

	st := PoolStats{
		Rendered: p.rendered.Load(),
		Failed:   p.failed.Load(),
		TimedOut: p.timedOut.Load(),
	}
	if closed || p.sem == nil {
		return st
	}
	st.Enabled = true
	st.Capacity = cap(p.sem)
	st.Idle = len(p.sem)
	st.InUse = st.Capacity - st.Idle
	return st
}

// Close stops handing out slots. It is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}
