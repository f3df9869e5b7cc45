package journal

import (
	"battlearena/lib/battles"
	"battlearena/lib/services"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNilWorkerPool     = errors.New("worker pool cannot be nil")
	ErrAlreadySubscribed = errors.New("subscriber is already active")
	ErrEmptyMessage      = errors.New("empty message received")
)

var OutcomeChannelPattern = services.OUTCOME_CHANNEL_PREFIX + "*"

type OutcomeSubscriber struct {
	worker_pool *WorkerPool
	channel     string
	pubsub      *redis.PubSub
	mu          sync.Mutex
	is_active   bool
}

func NewOutcomeSubscriber(worker_pool *WorkerPool) (*OutcomeSubscriber, error) {
	if worker_pool == nil {
		return nil, ErrNilWorkerPool
	}

	return &OutcomeSubscriber{
		worker_pool: worker_pool,
		channel:     OutcomeChannelPattern,
	}, nil
}

// Subscribe listens for published outcomes until ctx is done.
func (s *OutcomeSubscriber) Subscribe(ctx context.Context, cache *services.Cache) error {
	db := cache.Client()
	if db == nil {
		return services.ErrNilCache
	}
	s.mu.Lock()
	if s.is_active {
		s.mu.Unlock()
		return ErrAlreadySubscribed
	}

	slog.Debug("Subscribing to the outcome channel", "channel", s.channel)
	s.pubsub = db.PSubscribe(ctx, s.channel)
	s.is_active = true
	messages := s.pubsub.Channel()
	s.mu.Unlock()

	go func() {
		for {
			select {
			case msg, ok := <-messages:
				if !ok {
					slog.Info("Outcome channel closed")
					return
				}
				session_id := strings.TrimPrefix(msg.Channel, services.OUTCOME_CHANNEL_PREFIX)
				if err := s.processMessage(msg.Payload, session_id); err != nil {
					slog.Error("Failed to process outcome message", "error", err, "channel", msg.Channel)
				}
			case <-ctx.Done():
				s.UnSubscribe(context.Background())
				return
			}
		}
	}()

	return nil
}

func (s *OutcomeSubscriber) UnSubscribe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.is_active {
		return nil
	}

	slog.Debug("Unsubscribing from the outcome channel", "channel", s.channel)
	s.is_active = false
	if err := s.pubsub.PUnsubscribe(ctx, s.channel); err != nil {
		s.pubsub.Close()
		return err
	}
	return s.pubsub.Close()
}

// processMessage decodes an outcome. The channel suffix names the session when the
// payload does not.
func (s *OutcomeSubscriber) processMessage(message string, session_id string) error {
	if message == "" {
		return ErrEmptyMessage
	}

	var outcome battles.Outcome
	if err := json.Unmarshal([]byte(message), &outcome); err != nil {
		return err
	}
	if outcome.SessionID == "" {
		outcome.SessionID = session_id
	}
	return s.worker_pool.SubmitOutcome(&outcome)
}
