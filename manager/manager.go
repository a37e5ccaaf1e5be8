package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/orion-udf/core/errs"
	"github.com/orion-udf/core/frame"
	"github.com/orion-udf/core/queue"
	"github.com/orion-udf/core/threadpool"
	"github.com/orion-udf/core/udf"
)

// Manager owns a constructed UDF chain and runs it against frames pulled
// from a bounded input queue, one chain walk per frame submitted to a
// thread pool, pushing finished frames onto a bounded output queue.
type Manager struct {
	cfg   Config
	chain []udf.Handle

	pool   *threadpool.Pool
	input  *queue.Queue[*frame.Frame]
	output *queue.Queue[*frame.Frame]

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	stats runtimeStats
	enc   encodingTarget
}

// New constructs a Handle for every entry in cfg.Chain (in order) and
// Initializes each one. If any entry fails to load or initialize, every
// Handle constructed so far is destroyed before New returns the error, so
// a failed construction never leaks subprocess or plugin resources.
func New(ctx context.Context, cfg Config) (*Manager, error) {
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	m := &Manager{cfg: cfg}
	m.enc.store(parseEncType(cfg.TargetEncType), cfg.TargetEncLvl)
	m.stats.inFlight.Store(0)

	chain := make([]udf.Handle, 0, len(cfg.Chain))
	for _, spec := range cfg.Chain {
		h, err := udf.Load(spec)
		if err != nil {
			destroyAll(ctx, chain)
			return nil, err
		}
		if err := h.Initialize(ctx, udf.Config(spec.Config)); err != nil {
			destroyAll(ctx, append(chain, h))
			return nil, errs.New(errs.UdfInitFailed, fmt.Sprintf("initialize udf %q", spec.Name), err)
		}
		chain = append(chain, h)
		slog.Info("udf chain entry ready", "name", spec.Name, "type", spec.Type)
	}
	m.chain = chain
	return m, nil
}

func destroyAll(ctx context.Context, chain []udf.Handle) {
	for _, h := range chain {
		if err := h.Destroy(ctx); err != nil {
			slog.Error("error destroying udf during rollback", "name", h.Name(), "error", err)
		}
	}
}

// Start launches the dispatch loop and the thread pool backing it. Start
// is idempotent-guarded: calling it twice without an intervening Stop
// returns an error rather than spawning a second dispatch loop.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errs.New(errs.ConfigInvalid, "manager already started", nil)
	}
	m.running = true
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.pool = threadpool.New(runCtx, m.cfg.Workers, m.cfg.QueueCapacity)
	m.input = queue.New[*frame.Frame](m.cfg.QueueCapacity)
	m.output = queue.New[*frame.Frame](m.cfg.OutputQueueCapacity)
	m.mu.Unlock()

	m.wg.Add(1)
	go m.dispatchLoop(runCtx)

	slog.Info("udf manager started", "workers", m.cfg.Workers, "chain_len", len(m.chain))
	return nil
}

// Stop halts the dispatch loop, drains and stops the thread pool (running
// cleanup instead of the chain walk for any job still queued), destroys
// every chain entry, and releases any frame left sitting in either queue.
// Destroy order: dispatch loop first (stops new submissions), then the
// pool, then the chain, mirroring orion.go's Shutdown ordering of
// "workers first, dependents after."
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	cancel := m.cancel
	pool := m.pool
	input := m.input
	output := m.output
	m.mu.Unlock()

	cancel()
	m.wg.Wait()

	input.Close(nil)
	pool.Stop()
	output.Close(nil)

	destroyAll(ctx, m.chain)

	slog.Info("udf manager stopped",
		"processed", m.stats.processed.Load(),
		"dropped", m.stats.dropped.Load(),
		"errors", m.stats.errors.Load(),
	)
	return nil
}

// Submit enqueues fr for processing without blocking. It reports false if
// the input queue is full.
func (m *Manager) Submit(fr *frame.Frame) bool {
	return m.input.Push(fr)
}

// SubmitWait enqueues fr, blocking while the input queue is full until
// space frees up or ctx is cancelled.
func (m *Manager) SubmitWait(ctx context.Context, fr *frame.Frame) error {
	return m.input.PushWait(ctx, fr)
}

// Next pops the next finished frame off the output queue, or reports
// false if none is available.
func (m *Manager) Next() (*frame.Frame, bool) {
	return m.output.Pop()
}

// NextWait blocks up to d for a finished frame to become available, then
// pops it.
func (m *Manager) NextWait(d time.Duration) (*frame.Frame, bool) {
	if !m.output.WaitFor(d) {
		return nil, false
	}
	return m.output.Pop()
}

// Stats returns a snapshot of the Manager's operational counters.
func (m *Manager) Stats() Stats {
	idle := time.Duration(m.cfg.IdleThresholdS) * time.Second
	return m.stats.snapshot(idle, m.input.Len(), m.output.Len())
}

// dispatchLoop is the Manager's single dispatcher: it pulls one frame at a
// time off the input queue and submits a chain-walk job to the pool,
// applying the max_jobs backpressure cap before popping so a frame stays
// queued (not silently dropped) while the pool is at its soft capacity.
func (m *Manager) dispatchLoop(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !m.input.WaitFor(250 * time.Millisecond) {
			continue
		}
		if m.stats.inFlight.Load() >= int32(m.maxJobs()) {
			continue
		}
		fr, ok := m.input.Pop()
		if !ok {
			continue
		}

		m.stats.inFlight.Add(1)
		accepted := m.pool.Submit(
			func(jobCtx context.Context) { m.runChain(jobCtx, fr) },
			func() {
				m.stats.inFlight.Add(-1)
				m.stats.dispatchDropped.Add(1)
			},
		)
		if !accepted {
			m.stats.inFlight.Add(-1)
			m.stats.dispatchDropped.Add(1)
			slog.Warn("udf manager dropped frame, thread pool queue full")
		}
	}
}

// runChain walks the UDF chain sequentially against fr, applies the
// configured output encoding, and pushes the result to the output queue.
// A DropFrame result or a chain error stops the walk early; neither is
// forwarded to the output queue.
func (m *Manager) runChain(ctx context.Context, fr *frame.Frame) {
	defer m.stats.inFlight.Add(-1)

	for _, h := range m.chain {
		res, err := h.Process(ctx, fr)
		if err != nil || res == udf.Error {
			m.stats.errors.Add(1)
			slog.Error("udf chain entry failed", "name", h.Name(), "error", err)
			return
		}
		if res == udf.DropFrame {
			m.stats.dropped.Add(1)
			return
		}
	}

	if err := m.retarget(fr); err != nil {
		m.stats.errors.Add(1)
		slog.Error("failed to retarget frame encoding", "error", err)
		return
	}

	m.stats.markProcessed()
	if err := m.output.PushWait(ctx, fr); err != nil {
		slog.Warn("udf manager dropped finished frame, output push cancelled", "error", err)
	}
}

func (m *Manager) maxJobs() int {
	return m.enc.maxJobs(m.cfg.MaxJobs)
}
