package journal

import (
	"battlearena/lib/battles"
	"battlearena/lib/services"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu       sync.Mutex
	outcomes map[string]battles.Outcome
	err      error
	inserted chan string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{outcomes: make(map[string]battles.Outcome), inserted: make(chan string, 16)}
}

func (s *memoryStore) InsertOutcome(ctx context.Context, outcome battles.Outcome) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if _, ok := s.outcomes[outcome.SessionID]; ok {
		return false, nil
	}
	s.outcomes[outcome.SessionID] = outcome
	s.inserted <- outcome.SessionID
	return true, nil
}

func waitInserted(t *testing.T, store *memoryStore) string {
	t.Helper()
	select {
	case id := <-store.inserted:
		return id
	case <-time.After(time.Second):
		t.Fatal("outcome was not journaled")
	}
	return ""
}

func TestWorkerPoolJournalsOutcomes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newMemoryStore()
	pool := NewWorkerPool(2, nil)
	assert.ErrorIs(t, pool.SubmitOutcome(&battles.Outcome{SessionID: "s1"}), ErrPoolNotStarted)

	pool.Start(ctx, store)
	require.NoError(t, pool.SubmitOutcome(&battles.Outcome{SessionID: "s1", Digest: "D1"}))
	assert.Equal(t, "s1", waitInserted(t, store))

	require.NoError(t, pool.SubmitOutcome(&battles.Outcome{SessionID: "s1", Digest: "D1"}))
	assert.ErrorIs(t, pool.SubmitOutcome(nil), ErrNilOutcome)

	pool.Stop()
	assert.ErrorIs(t, pool.SubmitOutcome(&battles.Outcome{SessionID: "s2"}), ErrPoolNotStarted)
	assert.Len(t, store.outcomes, 1)
}

func TestWorkerProcess(t *testing.T) {
	worker := NewOutcomeWorker(0, nil)
	assert.ErrorIs(t, worker.Process(context.Background(), &battles.Outcome{}, nil), ErrNilStore)
	assert.ErrorIs(t, worker.Process(context.Background(), nil, newMemoryStore()), ErrNilOutcome)

	store := newMemoryStore()
	store.err = errors.New("connection reset")
	assert.ErrorIs(t, worker.Process(context.Background(), &battles.Outcome{SessionID: "s"}, store), store.err)
}

func TestSubscriberDecodesMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newMemoryStore()
	pool := NewWorkerPool(1, nil)
	pool.Start(ctx, store)
	defer pool.Stop()

	subscriber, err := NewOutcomeSubscriber(pool)
	require.NoError(t, err)

	assert.ErrorIs(t, subscriber.processMessage("", "s"), ErrEmptyMessage)
	assert.Error(t, subscriber.processMessage("{", "s"))

	require.NoError(t, subscriber.processMessage(`{"battle_id":"0xB","player":"0xA","side":"left","entry_fee":5,"digest":"D","did_win":null}`, "from-channel"))
	assert.Equal(t, "from-channel", waitInserted(t, store))

	store.mu.Lock()
	outcome := store.outcomes["from-channel"]
	store.mu.Unlock()
	assert.Equal(t, battles.SIDE_LEFT, outcome.Side)
	assert.Equal(t, uint64(5), outcome.EntryFee)
	assert.Nil(t, outcome.DidWin)
}

func TestSupervisorRequiresServices(t *testing.T) {
	_, err := NewSupervisor(0, nil)
	assert.Error(t, err)

	supervisor, err := NewSupervisor(1, nil)
	require.NoError(t, err)

	cache := services.DefaultCache()
	assert.ErrorIs(t, supervisor.Start(context.Background(), cache, newMemoryStore()), services.ErrNilCache)
	assert.False(t, supervisor.Running())
	assert.NoError(t, supervisor.Stop(context.Background()))

	_, err = NewOutcomeSubscriber(nil)
	assert.ErrorIs(t, err, ErrNilWorkerPool)
}

func TestOutcomeChannelPattern(t *testing.T) {
	assert.Equal(t, "battle:outcome:*", OutcomeChannelPattern)
}
