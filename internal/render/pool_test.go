package render

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewPool_RejectsNonPositiveSize(t *testing.T) {
	if _, err := NewPool(0); err == nil {
		t.Fatalf("expected error for zero-size pool")
	}
}

func TestPoolAcquireReleaseAndClose(t *testing.T) {
	p, err := NewPool(1)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}

	slot, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected acquire success, got %v", err)
	}
	if slot == nil {
		t.Fatalf("expected non-nil slot")
	}
	if len(p.sem) != 0 {
		t.Fatalf("expected token consumed after acquire")
	}

	p.Release(slot, nil)
	if len(p.sem) != 1 {
		t.Fatalf("expected token returned after release")
	}
	p.Release(slot, nil) // double release must not add a token
	if len(p.sem) != 1 {
		t.Fatalf("expected double release to be a no-op, got %d tokens", len(p.sem))
	}

	p.Close()
	if _, err := p.Acquire(context.Background()); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected acquire to fail when pool is closed, got %v", err)
	}
}

func TestPoolAcquireContextCanceled(t *testing.T) {
	p := &Pool{sem: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestPoolAcquireTimesOutWhenNoCapacity(t *testing.T) {
	p := &Pool{sem: make(chan struct{}, 1)}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := p.Acquire(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected acquire deadline exceeded, got %v", err)
	}
}

func TestPoolStatsAndClose(t *testing.T) {
	p, _ := NewPool(2)

	st := p.Stats()
	if !st.Enabled || st.Capacity != 2 || st.Idle != 2 || st.InUse != 0 {
		t.Fatalf("unexpected stats before acquire: %+v", st)
	}

	slot, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	st = p.Stats()
	if st.InUse != 1 {
		t.Fatalf("expected one in use, got %+v", st)
	}
	p.Release(slot, errors.New("bad markup"))
	p.MarkTimedOut()

	st = p.Stats()
	if st.Failed != 1 || st.Rendered != 0 || st.TimedOut != 1 {
		t.Fatalf("unexpected counters: %+v", st)
	}

	p.Close()
	p.Close() // idempotent
	st = p.Stats()
	if st.Enabled {
		t.Fatalf("expected stats disabled after close: %+v", st)
	}
}
