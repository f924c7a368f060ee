// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package task runs searches asynchronously on a bounded worker pool with a
// FIFO wait queue. Submissions beyond the pool plus queue capacity are
// rejected, callers poll by task ID, and tasks can be cancelled up to the
// point a stage boundary observes the cancellation.
package task

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"github.com/pdiddy/answer-engine/internal/pipeline"
	"github.com/pdiddy/answer-engine/pkg/types"
)

var (
	// ErrOverloaded rejects a submission when running plus queued tasks
	// already fill the configured capacity.
	ErrOverloaded = errors.New("task queue is full")

	// ErrNotFound marks an unknown or already-evicted task ID.
	ErrNotFound = errors.New("task not found")

	// ErrClosed rejects submissions after shutdown began.
	ErrClosed = errors.New("task manager is closed")
)

// Task is the externally visible record of one async search.
type Task struct {
	ID          string                `json:"id"`
	Query       string                `json:"query"`
	State       pipeline.State        `json:"state"`
	SubmittedAt time.Time             `json:"submitted_at"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
	FinishedAt  *time.Time            `json:"finished_at,omitempty"`
	Response    *types.SearchResponse `json:"response,omitempty"`
	Error       string                `json:"error,omitempty"`
}

type taskEntry struct {
	task   Task
	opts   types.QueryOptions
	ctx    context.Context
	cancel context.CancelFunc
}

// Searcher is the pipeline surface the manager drives.
type Searcher interface {
	SearchObserved(ctx context.Context, query string, opts types.QueryOptions, observe pipeline.Observer) (*types.SearchResponse, error)
}

// Manager owns the worker pool, the wait queue, and the task table. All
// methods are safe for concurrent use.
type Manager struct {
	searcher Searcher
	pool     *ants.Pool
	queue    chan string
	log      zerolog.Logger

	maxPending int
	maxHistory int

	mu      sync.Mutex
	pending int // submitted but not yet terminal
	closed  bool
	tasks   map[string]*taskEntry
	order   []string // insertion order, for history eviction

	dispatchWG sync.WaitGroup
}

// NewManager starts the pool and the dispatcher. Close releases both.
func NewManager(searcher Searcher, cfg types.TaskConfig, log zerolog.Logger) (*Manager, error) {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.QueueDepth < 0 {
		cfg.QueueDepth = 0
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 100
	}

	// Blocking submit: the dispatcher stalls on pool.Submit until a worker
	// frees up, so queued tasks start strictly in FIFO order.
	pool, err := ants.NewPool(cfg.MaxConcurrent)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		searcher:   searcher,
		pool:       pool,
		queue:      make(chan string, cfg.MaxConcurrent+cfg.QueueDepth),
		log:        log,
		maxPending: cfg.MaxConcurrent + cfg.QueueDepth,
		maxHistory: cfg.MaxHistory,
		tasks:      make(map[string]*taskEntry),
	}

	m.dispatchWG.Add(1)
	go m.dispatch()
	return m, nil
}

// Submit enqueues a query and returns its task ID immediately. Capacity is
// every task not yet drained by a worker, running or queued or cancelled
// while queued; beyond that the submission is rejected rather than buffered
// without bound.
func (m *Manager) Submit(query string, opts types.QueryOptions) (string, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", ErrClosed
	}
	if m.pending >= m.maxPending {
		m.mu.Unlock()
		return "", ErrOverloaded
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	m.tasks[id] = &taskEntry{
		task: Task{
			ID:          id,
			Query:       query,
			State:       pipeline.StateReceived,
			SubmittedAt: time.Now(),
		},
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}
	m.order = append(m.order, id)
	m.pending++
	m.evictLocked()

	// Send while still holding the lock. Channel occupancy never exceeds
	// pending, which the capacity check bounds by the channel capacity, so
	// the send cannot block. Close sets closed under this same lock before
	// closing the channel, so the send cannot race a close either.
	m.queue <- id
	m.mu.Unlock()

	m.log.Debug().Str("task_id", id).Str("query", query).Msg("task submitted")
	return id, nil
}

// Status returns a copy of the task record.
func (m *Manager) Status(id string) (Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return e.task, nil
}

// Cancel requests cooperative cancellation. A task still waiting in the
// queue goes terminal immediately and never touches the pipeline, but it
// keeps its capacity slot until a worker drains its queued ID; a running
// task stops at the next stage boundary. Cancelling a terminal task is a
// no-op.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	e, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	cancel := e.cancel
	settled := false
	if !e.task.State.Terminal() && e.task.StartedAt == nil {
		now := time.Now()
		e.task.State = pipeline.StateCancelled
		e.task.FinishedAt = &now
		e.task.Error = pipeline.ErrCancelled.Error()
		settled = true
	}
	m.mu.Unlock()

	cancel()
	if settled {
		m.log.Debug().Str("task_id", id).Msg("task cancelled before start")
	} else {
		m.log.Debug().Str("task_id", id).Msg("task cancellation requested")
	}
	return nil
}

// List returns copies of all retained tasks, oldest first.
func (m *Manager) List() []Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Task, 0, len(m.order))
	for _, id := range m.order {
		if e, ok := m.tasks[id]; ok {
			out = append(out, e.task)
		}
	}
	return out
}

// Close stops accepting work, waits for the dispatcher, and releases the
// pool. Running tasks finish; queued tasks still run.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	close(m.queue)
	m.dispatchWG.Wait()
	m.pool.Release()
}

// dispatch feeds queued task IDs to the pool in FIFO order. pool.Submit
// blocks while all workers are busy, which keeps queued tasks from starting
// early.
func (m *Manager) dispatch() {
	defer m.dispatchWG.Done()
	for id := range m.queue {
		if err := m.pool.Submit(func() { m.execute(id) }); err != nil {
			m.finish(id, nil, err)
		}
	}
}

// execute runs one task on a pool worker.
func (m *Manager) execute(id string) {
	m.mu.Lock()
	e, ok := m.tasks[id]
	if !ok || e.task.State.Terminal() {
		// Evicted or cancelled while queued. Its capacity slot frees only
		// now that the stale ID is drained, keeping pending in step with
		// queue occupancy.
		if m.pending > 0 {
			m.pending--
		}
		m.evictLocked()
		m.mu.Unlock()
		return
	}
	now := time.Now()
	e.task.StartedAt = &now
	ctx, opts, query := e.ctx, e.opts, e.task.Query
	m.mu.Unlock()

	resp, err := m.searcher.SearchObserved(ctx, query, opts, func(s pipeline.State) {
		m.update(id, func(t *Task) {
			if !t.State.Terminal() {
				t.State = s
			}
		})
	})
	m.finish(id, resp, err)
}

// finish records the terminal outcome and settles the pending count.
func (m *Manager) finish(id string, resp *types.SearchResponse, err error) {
	now := time.Now()
	m.update(id, func(t *Task) {
		if t.FinishedAt != nil {
			return
		}
		t.FinishedAt = &now
		switch {
		case errors.Is(err, pipeline.ErrCancelled):
			t.State = pipeline.StateCancelled
			t.Error = err.Error()
		case err != nil:
			t.State = pipeline.StateFailed
			t.Error = err.Error()
		default:
			t.Response = resp
			if t.State != pipeline.StateCacheHit {
				t.State = pipeline.StateCompleted
			}
		}
	})

	m.mu.Lock()
	if m.pending > 0 {
		m.pending--
	}
	m.evictLocked()
	state := ""
	if e, ok := m.tasks[id]; ok {
		state = string(e.task.State)
	}
	m.mu.Unlock()

	m.log.Debug().Str("task_id", id).Str("state", state).Msg("task settled")
}

func (m *Manager) update(id string, fn func(*Task)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.tasks[id]; ok {
		fn(&e.task)
	}
}

// evictLocked drops the oldest terminal tasks until the table fits the
// history bound. Non-terminal tasks are never evicted.
func (m *Manager) evictLocked() {
	if len(m.tasks) <= m.maxHistory {
		return
	}
	kept := m.order[:0]
	for _, id := range m.order {
		e, ok := m.tasks[id]
		if !ok {
			continue
		}
		if len(m.tasks) > m.maxHistory && e.task.State.Terminal() {
			delete(m.tasks, id)
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
}
