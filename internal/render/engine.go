package render

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"latex2png/internal/config"
	"latex2png/internal/domain"
)

// Drawer turns a validated request into an encoded picture. Draw should
// return soon after ctx is done.
type Drawer interface {
	Draw(ctx context.Context, req domain.RenderRequest) ([]byte, error)
}

// Engine runs a Drawer inside a render slot with a time bound.
type Engine struct {
	drawer         Drawer
	pool           *Pool
	timeout        time.Duration
	acquireTimeout time.Duration
}

// NewEngine wires the canvas backend to a pool sized from cfg.
func NewEngine(cfg config.RenderConfig) (*Engine, error) {
	backend, err := NewCanvas(cfg)
	if err != nil {
		return nil, err
	}
	return NewEngineWithDrawer(cfg, backend)
}

// NewEngineWithDrawer is NewEngine with a caller supplied backend.
func NewEngineWithDrawer(cfg config.RenderConfig, d Drawer) (*Engine, error) {
	pool, err := NewPool(cfg.PoolSize)
	if err != nil {
		return nil, err
	}
	return &Engine{
		drawer:         d,
		pool:           pool,
		timeout:        time.Duration(cfg.TimeoutSecs) * time.Second,
		acquireTimeout: time.Duration(cfg.AcquireTimeoutSecs) * time.Second,
	}, nil
}

// Render validates req and draws it. Errors are domain.ErrNoMathDelimiter,
// ErrBusy, ErrPoolClosed or a *domain.RenderError.
func (e *Engine) Render(ctx context.Context, req domain.RenderRequest) (*domain.Image, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	acquireCtx, acquireCancel := context.WithTimeout(ctx, e.acquireTimeout)
	slot, err := e.pool.Acquire(acquireCtx)
	acquireCancel()
	if err != nil {
		if errors.Is(err, ErrPoolClosed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrBusy, err)
	}

	renderCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := e.draw(renderCtx, req)
		// The slot stays held until the backend really returns, even if the
		// caller stopped waiting.
		e.pool.Release(slot, err)
		done <- result{data: data, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if renderCtx.Err() != nil {
				return nil, e.timedOut(renderCtx)
			}
			return nil, res.err
		}
		return &domain.Image{Data: res.data, Format: req.Format}, nil
	case <-renderCtx.Done():
		return nil, e.timedOut(renderCtx)
	}
}

func (e *Engine) timedOut(ctx context.Context) error {
	e.pool.MarkTimedOut()
	return &domain.RenderError{
		Message: fmt.Sprintf("rendering did not finish within %s", e.timeout),
		Err:     ctx.Err(),
	}
}

// draw calls the backend and turns every failure, panics included, into a
// *domain.RenderError.
func (e *Engine) draw(ctx context.Context, req domain.RenderRequest) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = &domain.RenderError{
				Message: fmt.Sprint(r),
				Trace:   string(debug.Stack()),
				Err:     fmt.Errorf("backend panic: %v", r),
			}
		}
	}()

	data, err = e.drawer.Draw(ctx, req)
	if err != nil {
		var re *domain.RenderError
		if !errors.As(err, &re) {
			re = domain.NewRenderError(err)
		}
		return nil, re
	}
	return data, nil
}

// Stats reports the render pool state.
func (e *Engine) Stats() PoolStats {
	return e.pool.Stats()
}

// Close stops accepting renders.
func (e *Engine) Close() {
	e.pool.Close()
}
