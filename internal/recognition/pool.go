package recognition

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/antonkudrin/docforge/internal/core/domain"
	"github.com/antonkudrin/docforge/internal/observability/metrics"
)

const DefaultPoolSize = 4

// DefaultLanguages is the multilingual set each engine pre-loads at
// construction time.
var DefaultLanguages = []string{"eng", "deu", "fra", "spa", "rus"}

type PoolConfig struct {
	Size      int
	Languages []string
}

// Pool owns a fixed set of long-lived recognition engines and serializes
// access to them. Acquisition blocks on an idle channel, which hands engines
// to waiters in FIFO order; there is no separate busy/idle bookkeeping.
type Pool struct {
	idle      chan Engine
	size      int
	languages []string
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
	metrics   *metrics.PoolMetrics
	logger    *slog.Logger
}

// NewPool eagerly initializes cfg.Size engines via factory. Initialization is
// best-effort: an engine that fails to construct is logged and absent from
// the pool, not retried.
func NewPool(cfg PoolConfig, factory EngineFactory, poolMetrics *metrics.PoolMetrics, logger *slog.Logger) (*Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Size <= 0 {
		cfg.Size = DefaultPoolSize
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = DefaultLanguages
	}
	if factory == nil {
		factory = NewTesseractEngine
	}

	pool := &Pool{
		idle:      make(chan Engine, cfg.Size),
		languages: cfg.Languages,
		done:      make(chan struct{}),
		metrics:   poolMetrics,
		logger:    logger,
	}
	for i := 0; i < cfg.Size; i++ {
		engine, err := factory(cfg.Languages)
		if err != nil {
			logger.Warn("recognition engine init failed", "worker", i, "error", err)
			continue
		}
		pool.idle <- engine
		pool.size++
	}
	if pool.size == 0 {
		return nil, fmt.Errorf("recognition pool: no engine initialized")
	}
	logger.Info("recognition pool ready", "workers", pool.size, "languages", cfg.Languages)
	return pool, nil
}

// Size reports how many engines survived initialization.
func (p *Pool) Size() int { return p.size }

// acquire blocks until an engine is idle. Pending acquisitions fail fast
// once the pool is shut down.
func (p *Pool) acquire(ctx context.Context) (Engine, error) {
	if p.metrics != nil {
		p.metrics.WaiterEnqueued()
		defer p.metrics.WaiterDequeued()
	}
	waitStart := time.Now()
	select {
	case <-p.done:
		return nil, domain.ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case engine := <-p.idle:
		if p.metrics != nil {
			p.metrics.ObserveAcquireWait(time.Since(waitStart))
			p.metrics.WorkerBusy()
		}
		return engine, nil
	}
}

// release returns an engine to the idle set, waking the next FIFO waiter.
// After shutdown the engine is terminated instead. The closed check and the
// re-pool happen under one lock so an engine held across Shutdown is never
// put back: either it lands in idle before Shutdown drains, or release sees
// the closed flag and terminates it.
func (p *Pool) release(engine Engine) {
	if p.metrics != nil {
		p.metrics.WorkerIdle()
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.terminate(engine)
		return
	}
	// Never blocks: idle is sized for every engine the pool owns.
	p.idle <- engine
	p.mu.Unlock()
}

func (p *Pool) terminate(engine Engine) {
	if err := engine.Close(); err != nil {
		p.logger.Warn("terminate recognition engine", "error", err)
	}
}

// ExtractText runs one recognition call. Preprocessing happens on the
// caller's path before an engine is acquired, so an engine is never held
// during image I/O.
func (p *Pool) ExtractText(ctx context.Context, imagePath string, opts domain.RecognitionOptions) (*domain.RecognitionResult, error) {
	path := imagePath
	if opts.Preprocess {
		prepared, cleanup, err := PreprocessImage(imagePath)
		if err != nil {
			p.logger.Warn("image preprocessing failed, using original", "path", imagePath, "error", err)
		} else {
			defer cleanup()
			path = prepared
		}
	}

	engine, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.release(engine)

	result, err := engine.Recognize(ctx, path, opts)
	if p.metrics != nil {
		p.metrics.RecognitionDone(err == nil)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Shutdown terminates every engine. It is idempotent and tolerates
// individual termination failures.
func (p *Pool) Shutdown() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.done)
		for {
			select {
			case engine := <-p.idle:
				p.terminate(engine)
			default:
				p.logger.Info("recognition pool shut down")
				return
			}
		}
	})
}
