package journal

import (
	"battlearena/lib/services"
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrSupervisorStarted = errors.New("supervisor is already started")

// Supervisor owns the outcome subscriber and the worker pool that journals what it receives.
type Supervisor struct {
	subscriber  *OutcomeSubscriber
	worker_pool *WorkerPool
	is_running  bool
	mu          sync.RWMutex
}

func NewSupervisor(worker_size int, processor Processor) (*Supervisor, error) {
	if worker_size <= 0 {
		return nil, errors.New("worker size must be positive")
	}

	worker_pool := NewWorkerPool(worker_size, processor)
	subscriber, err := NewOutcomeSubscriber(worker_pool)
	if err != nil {
		return nil, err
	}

	return &Supervisor{
		subscriber:  subscriber,
		worker_pool: worker_pool,
	}, nil
}

func (s *Supervisor) Start(ctx context.Context, cache *services.Cache, store Store) error {
	if !cache.Connected() {
		return services.ErrNilCache
	}
	if store == nil {
		return ErrNilStore
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.is_running {
		return ErrSupervisorStarted
	}

	s.worker_pool.Start(ctx, store)
	if err := s.subscriber.Subscribe(ctx, cache); err != nil {
		s.worker_pool.Stop()
		return err
	}
	s.is_running = true
	slog.Info("Outcome journal started")

	go func() {
		<-ctx.Done()
		if err := s.Stop(context.Background()); err != nil {
			slog.Error("Outcome journal shutdown failed", "error", err)
		}
	}()

	return nil
}

// Stop unsubscribes first so nothing is queued on a closed pool.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.is_running {
		return nil
	}

	err := s.subscriber.UnSubscribe(ctx)
	s.worker_pool.Stop()
	s.is_running = false
	slog.Info("Outcome journal stopped")
	return err
}

func (s *Supervisor) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.is_running
}
