package journal

import (
	"battlearena/lib/battles"
	"context"
	"errors"
	"log/slog"
)

var (
	ErrNilOutcome = errors.New("cannot process nil outcome")
	ErrNilStore   = errors.New("outcome store cannot be nil")
)

// Store persists revealed outcomes. It reports false when the outcome was already journaled.
type Store interface {
	InsertOutcome(ctx context.Context, outcome battles.Outcome) (bool, error)
}

type Processor func(ctx context.Context, outcome *battles.Outcome, store Store) error

// JournalProcessor writes the outcome to the store.
func JournalProcessor(ctx context.Context, outcome *battles.Outcome, store Store) error {
	inserted, err := store.InsertOutcome(ctx, *outcome)
	if err != nil {
		return err
	}
	if !inserted {
		slog.Debug("Outcome already journaled", "session_id", outcome.SessionID)
		return nil
	}
	slog.Info("Outcome journaled", "session_id", outcome.SessionID, "battle_id", outcome.BattleID, "digest", outcome.Digest)
	return nil
}

type OutcomeWorker struct {
	id        int
	processor Processor
}

func NewOutcomeWorker(id int, processor Processor) *OutcomeWorker {
	if processor == nil {
		processor = JournalProcessor
	}
	return &OutcomeWorker{id: id, processor: processor}
}

// Process handles a single outcome.
func (w *OutcomeWorker) Process(ctx context.Context, outcome *battles.Outcome, store Store) error {
	if store == nil {
		return ErrNilStore
	}
	if outcome == nil {
		return ErrNilOutcome
	}
	slog.Debug("Processing outcome", "worker", w.id, "session_id", outcome.SessionID)
	return w.processor(ctx, outcome, store)
}
