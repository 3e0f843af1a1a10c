package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/counselflow/legal-research-agent/pkg/domain"
	"github.com/counselflow/legal-research-agent/pkg/observability"
	"github.com/counselflow/legal-research-agent/pkg/state"
)

// PoolConfig holds configuration for the session pool
type PoolConfig struct {
	MaxWorkers int           `json:"max_workers" yaml:"max_workers"`
	QueueSize  int           `json:"queue_size" yaml:"queue_size"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
}

// PoolMetrics tracks session pool activity
type PoolMetrics struct {
	queued        atomic.Int64
	processing    atomic.Int64
	completed     atomic.Int64
	failed        atomic.Int64
	activeWorkers atomic.Int32
}

// PoolMetricsSnapshot is a point-in-time copy of the pool counters
type PoolMetricsSnapshot struct {
	Queued        int64 `json:"queued"`
	Processing    int64 `json:"processing"`
	Completed     int64 `json:"completed"`
	Failed        int64 `json:"failed"`
	ActiveWorkers int32 `json:"active_workers"`
}

// poolRequest pairs a session with its per-request progress callback
type poolRequest struct {
	session  *state.ResearchState
	progress ProgressFunc
	ctx      context.Context
}

// Pool runs research sessions concurrently on a fixed set of workers. Each
// session still executes its own rounds sequentially.
type Pool struct {
	config       *PoolConfig
	orchestrator *Orchestrator
	requests     chan *poolRequest

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	running atomic.Bool
	metrics *PoolMetrics
	logger  *observability.StructuredLogger
}

// NewPool creates a session pool around an orchestrator
func NewPool(cfg *PoolConfig, orchestrator *Orchestrator) (*Pool, error) {
	if cfg == nil {
		cfg = &PoolConfig{}
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 32
	}
	if orchestrator == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		config:       cfg,
		orchestrator: orchestrator,
		requests:     make(chan *poolRequest, cfg.QueueSize),
		ctx:          ctx,
		cancel:       cancel,
		metrics:      &PoolMetrics{},
		logger:       observability.NewStructuredLogger("session_pool"),
	}, nil
}

// Start launches the worker goroutines
func (p *Pool) Start() error {
	if !p.running.CompareAndSwap(false, true) {
		return fmt.Errorf("pool already running")
	}
	for i := 0; i < p.config.MaxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return nil
}

// Stop drains the queue and waits for in-flight sessions to finish
func (p *Pool) Stop(ctx context.Context) error {
	if !p.running.CompareAndSwap(true, false) {
		return fmt.Errorf("pool is not running")
	}
	close(p.requests)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return fmt.Errorf("pool shutdown timed out: %w", ctx.Err())
	}
}

// Submit enqueues a research session. It fails fast when the queue is full
// rather than blocking the caller.
func (p *Pool) Submit(ctx context.Context, sess *state.ResearchState, progress ProgressFunc) error {
	if !p.running.Load() {
		return fmt.Errorf("pool is not running")
	}
	if sess == nil {
		return fmt.Errorf("session is required")
	}

	req := &poolRequest{session: sess, progress: progress, ctx: ctx}
	select {
	case p.requests <- req:
		p.metrics.queued.Add(1)
		return nil
	default:
		return fmt.Errorf("session queue is full")
	}
}

// Metrics returns a snapshot of the pool counters
func (p *Pool) Metrics() PoolMetricsSnapshot {
	return PoolMetricsSnapshot{
		Queued:        p.metrics.queued.Load(),
		Processing:    p.metrics.processing.Load(),
		Completed:     p.metrics.completed.Load(),
		Failed:        p.metrics.failed.Load(),
		ActiveWorkers: p.metrics.activeWorkers.Load(),
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	p.metrics.activeWorkers.Add(1)
	defer p.metrics.activeWorkers.Add(-1)

	for req := range p.requests {
		p.process(id, req)
	}
}

func (p *Pool) process(workerID int, req *poolRequest) {
	p.metrics.processing.Add(1)
	defer p.metrics.processing.Add(-1)

	ctx := req.ctx
	if ctx == nil {
		ctx = p.ctx
	}
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	query := req.session.Query()
	logger := p.logger.WithSession(query.ID)
	logger.Debug(ctx, "worker picked up session", map[string]interface{}{
		"worker_id": workerID,
	})

	if _, err := p.orchestrator.Run(ctx, req.session, req.progress); err != nil {
		p.metrics.failed.Add(1)
		attrs := map[string]interface{}{"worker_id": workerID}
		var rerr *domain.ResearchError
		if errors.As(err, &rerr) {
			attrs["failure_kind"] = string(rerr.Kind)
		}
		logger.Error(ctx, "session failed", err, attrs)
		return
	}

	p.metrics.completed.Add(1)
}
