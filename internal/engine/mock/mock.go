// Package mock provides an in-memory engine for tests and local development
// without an accelerator.
package mock

import (
	"context"
	"image"
	"sync"
	"sync/atomic"

	"github.com/yungbote/hairsim-backend/internal/engine"
)

// Engine records every call and returns its inputs unchanged (the source as
// the "bald" intermediate, the reference as the "result"). An optional Err
// makes every call fail; an optional Hook lets concurrency tests hold a call
// open.
type Engine struct {
	Err  error
	Hook func(ctx context.Context)

	mu     sync.Mutex
	calls  []engine.Params
	active atomic.Int32
	peak   atomic.Int32
	closed atomic.Bool
}

func New() *Engine { return &Engine{} }

func (e *Engine) Transfer(ctx context.Context, source, reference image.Image, params engine.Params) (image.Image, image.Image, error) {
	n := e.active.Add(1)
	defer e.active.Add(-1)
	for {
		p := e.peak.Load()
		if n <= p || e.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if e.Hook != nil {
		e.Hook(ctx)
	}

	e.mu.Lock()
	e.calls = append(e.calls, params)
	e.mu.Unlock()

	if e.Err != nil {
		return nil, nil, e.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return source, reference, nil
}

func (e *Engine) Close() error {
	e.closed.Store(true)
	return nil
}

func (e *Engine) Calls() []engine.Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]engine.Params, len(e.calls))
	copy(out, e.calls)
	return out
}

// PeakConcurrency reports the maximum number of Transfer calls ever observed
// in flight at once.
func (e *Engine) PeakConcurrency() int { return int(e.peak.Load()) }

func (e *Engine) Closed() bool { return e.closed.Load() }
