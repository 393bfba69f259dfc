package workpool

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// Outcome labels how a job finished (used by metrics).
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeError     Outcome = "error"
	OutcomePanic     Outcome = "panic"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeRejected  Outcome = "rejected"
)

// Recorder receives pool events. internal/metrics provides a Prometheus one.
type Recorder interface {
	JobQueued(pool string)
	JobFinished(pool string, outcome Outcome, wait, run time.Duration)
	WorkersChanged(pool string, workers int)
	QueueDepth(pool string, depth int)
}

type nopRecorder struct{}

func (nopRecorder) JobQueued(string)                                          {}
func (nopRecorder) JobFinished(string, Outcome, time.Duration, time.Duration) {}
func (nopRecorder) WorkersChanged(string, int)                                {}
func (nopRecorder) QueueDepth(string, int)                                    {}

// job is one queued unit of work, type-erased.
type job struct {
	queuedAt time.Time
	// run executes the work and resolves the handle; returns how it ended.
	run func() Outcome
	// fail resolves the handle without running the work.
	fail func(error)
}

// Pool runs queued jobs on a fixed set of worker goroutines in FIFO order.
//
// Lifecycle: New → AddWorkers (any number of times) → Complete/Cancel → stopped.
// A stopped pool is restarted by AddWorkers. While Complete/Cancel is in
// progress and until the next AddWorkers, Queue rejects with ErrPoolClosed.
type Pool struct {
	name     string
	recorder Recorder

	// lifecycle сериализует AddWorkers/Complete/Cancel между собой.
	lifecycle sync.Mutex

	mu       sync.Mutex
	cond     *sync.Cond
	pending  []*job
	workers  int
	stopping bool // workers exit once pending is drained
	closed   bool // submissions rejected
	done     chan struct{}

	wg sync.WaitGroup
}

// Option configures a Pool.
type Option func(*Pool)

// WithName sets the pool name used in logs and metric labels.
func WithName(name string) Option {
	return func(p *Pool) { p.name = name }
}

// WithRecorder installs a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Pool) {
		if r != nil {
			p.recorder = r
		}
	}
}

// New creates a pool with no workers. Jobs may be queued right away;
// they start once AddWorkers is called.
func New(opts ...Option) *Pool {
	p := &Pool{
		name:     "default",
		recorder: nopRecorder{},
		done:     make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the pool name.
func (p *Pool) Name() string { return p.name }

// AutoWorkers is the worker count AddWorkers(0) uses: NumCPU-1, at least 1.
func AutoWorkers() int {
	return max(runtime.NumCPU()-1, 1)
}

// AddWorkers spawns n workers (AutoWorkers() when n == 0). Calling it on a
// stopped pool re-opens it for submissions.
func (p *Pool) AddWorkers(n int) {
	if n < 0 {
		panic(fmt.Sprintf("workpool: negative worker count %d", n))
	}
	if n == 0 {
		n = AutoWorkers()
	}

	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.mu.Lock()
	if p.closed {
		p.closed = false
		p.stopping = false
		p.done = make(chan struct{})
	}
	p.workers += n
	workers := p.workers
	p.wg.Add(n)
	for range n {
		go p.worker()
	}
	p.mu.Unlock()

	p.recorder.WorkersChanged(p.name, workers)
	slog.Debug("workpool workers added", "pool", p.name, "added", n, "workers", workers)
}

// Workers returns the number of running workers.
func (p *Pool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}

// Pending returns the number of jobs waiting for a worker.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Done returns a channel closed when the current run of the pool has fully
// stopped (after Complete or Cancel returns).
func (p *Pool) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Queue appends work to the back of the queue and returns its handle.
// Jobs are dequeued in FIFO order; completions may interleave across workers.
// A panic inside work is recovered and delivered as *PanicError.
func Queue[T any](p *Pool, work func() (T, error)) *Future[T] {
	f := newFuture[T]()
	j := &job{
		queuedAt: time.Now(),
		fail:     func(err error) { f.fail(err) },
	}
	j.run = func() (outcome Outcome) {
		defer func() {
			if r := recover(); r != nil {
				f.fail(&PanicError{Value: r})
				outcome = OutcomePanic
			}
		}()
		v, err := work()
		f.resolve(v, err)
		if err != nil {
			return OutcomeError
		}
		return OutcomeOK
	}

	if !p.enqueue(j) {
		f.fail(ErrPoolClosed)
		p.recorder.JobFinished(p.name, OutcomeRejected, 0, 0)
	}
	return f
}

// QueueFunc is Queue for work that produces no value.
func QueueFunc(p *Pool, work func() error) *Future[struct{}] {
	return Queue(p, func() (struct{}, error) {
		return struct{}{}, work()
	})
}

func (p *Pool) enqueue(j *job) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.pending = append(p.pending, j)
	depth := len(p.pending)
	p.mu.Unlock()

	p.cond.Signal()
	p.recorder.JobQueued(p.name)
	p.recorder.QueueDepth(p.name, depth)
	return true
}

// worker blocks while the queue is empty, runs jobs front to back and exits
// once the pool is stopping and nothing is left.
func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.pending) == 0 && !p.stopping {
			p.cond.Wait()
		}
		if len(p.pending) == 0 {
			p.mu.Unlock()
			return
		}
		j := p.pending[0]
		p.pending[0] = nil
		p.pending = p.pending[1:]
		depth := len(p.pending)
		p.mu.Unlock()

		p.recorder.QueueDepth(p.name, depth)
		started := time.Now()
		outcome := j.run()
		p.recorder.JobFinished(p.name, outcome, started.Sub(j.queuedAt), time.Since(started))
	}
}

// Cancel drops every job that has not started yet (their handles resolve
// with ErrCancelled), then performs Complete. Jobs already running finish.
func (p *Pool) Cancel() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	// clear и закрытие приёма в одной критической секции: Queue после неё
	// получает ErrPoolClosed, до неё попадает в dropped.
	p.mu.Lock()
	dropped := p.pending
	p.pending = nil
	p.closed = true
	p.mu.Unlock()

	for _, j := range dropped {
		j.fail(ErrCancelled)
		p.recorder.JobFinished(p.name, OutcomeCancelled, time.Since(j.queuedAt), 0)
	}
	if len(dropped) > 0 {
		slog.Debug("workpool jobs cancelled", "pool", p.name, "dropped", len(dropped))
	}

	p.shutdown()
}

// Complete stops accepting jobs, lets workers drain everything queued before
// the call and waits for all of them to exit. Afterwards Workers() == 0.
func (p *Pool) Complete() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.shutdown()
}

// Close performs Complete. It exists so a Pool can be handed to code that
// manages io.Closer lifetimes.
func (p *Pool) Close() error {
	p.Complete()
	return nil
}

// shutdown signals workers to stop and waits for them. Caller holds lifecycle
// and has already set closed.
func (p *Pool) shutdown() {
	p.mu.Lock()
	if p.stopping && p.workers == 0 {
		// уже остановлен предыдущим Complete
		p.mu.Unlock()
		return
	}
	p.stopping = true
	workers := p.workers
	p.mu.Unlock()

	p.cond.Broadcast()
	p.wg.Wait()

	p.mu.Lock()
	// Без workers никто не разберёт очередь: резолвим оставшееся.
	leftover := p.pending
	p.pending = nil
	p.workers = 0
	close(p.done)
	p.mu.Unlock()

	for _, j := range leftover {
		j.fail(ErrPoolClosed)
		p.recorder.JobFinished(p.name, OutcomeRejected, time.Since(j.queuedAt), 0)
	}

	p.recorder.WorkersChanged(p.name, 0)
	p.recorder.QueueDepth(p.name, 0)
	slog.Debug("workpool stopped", "pool", p.name, "workers", workers, "leftover", len(leftover))
}
