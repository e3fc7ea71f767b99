package engine

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/yungbote/hairsim-backend/internal/imaging"
	"github.com/yungbote/hairsim-backend/internal/pkg/logger"
	"github.com/yungbote/hairsim-backend/internal/simerr"
)

// Factory builds the underlying engine. It runs at most once per Session;
// construction is expensive (weight loading on the accelerator side), which
// is the whole reason the Session exists.
type Factory func(ctx context.Context) (Engine, error)

type SessionConfig struct {
	// WorkingWidth/Height is the fixed resolution the engine expects. Both
	// inputs are letterboxed to it before any call.
	WorkingWidth  int
	WorkingHeight int
	// AcquireTimeout bounds the wait for the exclusive engine slot. Zero
	// means wait as long as the caller's context allows.
	AcquireTimeout time.Duration
	// TransferTimeout bounds a single engine invocation. Zero means no
	// per-call deadline beyond the caller's context.
	TransferTimeout time.Duration
}

// Session owns the single engine instance and serializes access to it. Only
// one Transfer is ever in flight against the accelerator; concurrent callers
// queue on the semaphore and time out rather than racing for device memory.
type Session struct {
	log     *logger.Logger
	factory Factory
	cfg     SessionConfig

	initOnce sync.Once
	eng      Engine
	initErr  error

	sem *semaphore.Weighted
}

func NewSession(log *logger.Logger, factory Factory, cfg SessionConfig) *Session {
	if cfg.WorkingWidth <= 0 {
		cfg.WorkingWidth = 512
	}
	if cfg.WorkingHeight <= 0 {
		cfg.WorkingHeight = 512
	}
	return &Session{
		log:     log.With("component", "EngineSession"),
		factory: factory,
		cfg:     cfg,
		sem:     semaphore.NewWeighted(1),
	}
}

// engine constructs the underlying engine on first use. A failed
// construction is terminal for the session; Warmup at startup surfaces it
// before any request traffic does. Callers must hold the semaphore.
func (s *Session) engine(ctx context.Context) (Engine, error) {
	s.initOnce.Do(func() {
		s.log.Info("Initializing inference engine...")
		start := time.Now()
		s.eng, s.initErr = s.factory(ctx)
		if s.initErr != nil {
			s.log.Error("Engine initialization failed", "error", s.initErr)
			return
		}
		s.log.Info("Engine initialized", "duration_ms", time.Since(start).Milliseconds())
	})
	return s.eng, s.initErr
}

// Warmup eagerly constructs the engine so the first request does not pay the
// initialization cost.
func (s *Session) Warmup(ctx context.Context) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.sem.Release(1)
	_, err := s.engine(ctx)
	if err != nil {
		return &simerr.InferenceError{Err: err}
	}
	return nil
}

// Transfer runs one exclusive engine invocation: letterbox both inputs to
// the working resolution, resolve the seed, call the engine under the lock
// with a per-call deadline. The slot is released on every exit path.
func (s *Session) Transfer(ctx context.Context, source, reference image.Image, params Params) (image.Image, image.Image, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, nil, err
	}
	defer s.sem.Release(1)

	eng, err := s.engine(ctx)
	if err != nil {
		return nil, nil, &simerr.InferenceError{Err: err}
	}

	src := imaging.ResizeWithPadding(source, s.cfg.WorkingWidth, s.cfg.WorkingHeight, color.Black)
	ref := imaging.ResizeWithPadding(reference, s.cfg.WorkingWidth, s.cfg.WorkingHeight, color.Black)

	if params.Seed < 0 {
		params.Seed = rand.Int63()
	}

	callCtx := ctx
	if s.cfg.TransferTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.TransferTimeout)
		defer cancel()
	}

	start := time.Now()
	bald, result, err := eng.Transfer(callCtx, src, ref, params)
	if err != nil {
		// Any expired deadline counts, the caller's own bound included.
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, nil, &simerr.TimeoutError{Stage: "transfer", Err: err}
		}
		return nil, nil, &simerr.InferenceError{Err: err}
	}
	s.log.Debug("Transfer complete", "duration_ms", time.Since(start).Milliseconds(), "seed", params.Seed)
	return bald, result, nil
}

func (s *Session) acquire(ctx context.Context) error {
	acquireCtx := ctx
	if s.cfg.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, s.cfg.AcquireTimeout)
		defer cancel()
	}
	if err := s.sem.Acquire(acquireCtx, 1); err != nil {
		if ctx.Err() == nil {
			return &simerr.TimeoutError{Stage: "acquire", Err: err}
		}
		return err
	}
	return nil
}

// Close tears down the engine if it was ever constructed. It waits for any
// in-flight transfer to finish first.
func (s *Session) Close() error {
	_ = s.sem.Acquire(context.Background(), 1)
	defer s.sem.Release(1)
	if s.eng == nil {
		return nil
	}
	return s.eng.Close()
}
