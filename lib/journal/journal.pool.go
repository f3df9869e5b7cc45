package journal

import (
	"battlearena/lib/battles"
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrPoolNotStarted = errors.New("worker pool not started")
	ErrPoolFull       = errors.New("worker pool queue is full")
)

type WorkerPool struct {
	workers      []*OutcomeWorker
	outcome_chan chan *battles.Outcome
	worker_size  int
	processor    Processor
	started      bool
	wg           sync.WaitGroup
	mu           sync.RWMutex
}

// NewWorkerPool creates a pool of worker_size workers sharing one processor.
func NewWorkerPool(worker_size int, processor Processor) *WorkerPool {
	if worker_size <= 0 {
		worker_size = 1
	}

	return &WorkerPool{
		workers:     make([]*OutcomeWorker, worker_size),
		worker_size: worker_size,
		processor:   processor,
	}
}

// SubmitOutcome queues an outcome without blocking.
func (p *WorkerPool) SubmitOutcome(outcome *battles.Outcome) error {
	if outcome == nil {
		return ErrNilOutcome
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.started {
		return ErrPoolNotStarted
	}

	select {
	case p.outcome_chan <- outcome:
		slog.Debug("Outcome queued", "session_id", outcome.SessionID)
		return nil
	default:
		return ErrPoolFull
	}
}

func (p *WorkerPool) Start(ctx context.Context, store Store) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}

	// Buffer is twice the worker count.
	p.outcome_chan = make(chan *battles.Outcome, p.worker_size*2)
	outcome_chan := p.outcome_chan

	slog.Debug("Starting the journal worker pool", "worker_size", p.worker_size)
	for i := 0; i < p.worker_size; i++ {
		worker := NewOutcomeWorker(i, p.processor)
		p.workers[i] = worker
		p.wg.Add(1)
		go func(w *OutcomeWorker) {
			defer p.wg.Done()
			for {
				select {
				case outcome, ok := <-outcome_chan:
					if !ok {
						return
					}
					if err := w.Process(ctx, outcome, store); err != nil {
						slog.Error("Failed to journal outcome", "error", err, "session_id", outcome.SessionID)
					}
				case <-ctx.Done():
					return
				}
			}
		}(worker)
	}

	p.started = true
}

// Stop drains the queue and waits for the workers to return.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	close(p.outcome_chan)
	p.started = false
	p.mu.Unlock()

	slog.Debug("Stopping the journal worker pool")
	p.wg.Wait()
}
