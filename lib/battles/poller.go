package battles

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is the battle list as committed by the poller.
type Snapshot struct {
	Battles     []BattleRecord `json:"battles"`
	Sequence    uint64         `json:"sequence"`
	Healthy     bool           `json:"healthy"`
	RefreshedAt time.Time      `json:"refreshed_at"`
}

type Fetcher interface {
	Fetch(ctx context.Context) ([]BattleRecord, error)
}

// Poller refreshes the battle list on a fixed interval. Runs may overlap (a forced
// refresh during a tick); each run is numbered when it starts and only a run newer
// than the committed one may replace the snapshot. Listeners are called one snapshot
// at a time in sequence order.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration

	sequence  atomic.Uint64
	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []func(Snapshot)

	deliver_mu sync.Mutex
	delivered  uint64
}

func NewPoller(fetcher Fetcher, interval time.Duration) *Poller {
	return &Poller{
		fetcher:  fetcher,
		interval: interval,
		snapshot: Snapshot{Battles: []BattleRecord{}},
	}
}

// OnCommit registers a callback invoked after every committed snapshot.
// Register listeners before Run.
func (p *Poller) OnCommit(listener func(Snapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, listener)
}

func (p *Poller) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// Seed installs a previously persisted list before the first refresh. It never
// overrides a committed refresh.
func (p *Poller) Seed(records []BattleRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snapshot.Sequence != 0 || records == nil {
		return
	}
	p.snapshot.Battles = records
	p.snapshot.RefreshedAt = time.Now()
}

// Refresh runs the aggregator once and reports whether its result was committed.
func (p *Poller) Refresh(ctx context.Context) bool {
	sequence := p.sequence.Add(1)
	records, err := p.fetcher.Fetch(ctx)
	if err != nil {
		slog.Error("Battle list refresh failed", "error", err, "sequence", sequence)
		records = []BattleRecord{}
	}
	return p.commit(Snapshot{
		Battles:     records,
		Sequence:    sequence,
		Healthy:     err == nil,
		RefreshedAt: time.Now(),
	})
}

func (p *Poller) commit(snapshot Snapshot) bool {
	p.mu.Lock()
	if snapshot.Sequence <= p.snapshot.Sequence {
		p.mu.Unlock()
		slog.Debug("Discarding superseded battle list", "sequence", snapshot.Sequence, "committed", p.snapshot.Sequence)
		return false
	}
	p.snapshot = snapshot
	p.mu.Unlock()

	p.deliver(snapshot)
	return true
}

// deliver hands snapshot to the listeners unless a newer one already reached them.
func (p *Poller) deliver(snapshot Snapshot) {
	p.deliver_mu.Lock()
	defer p.deliver_mu.Unlock()
	if snapshot.Sequence <= p.delivered {
		slog.Debug("Skipping listeners for superseded battle list", "sequence", snapshot.Sequence, "delivered", p.delivered)
		return
	}
	p.delivered = snapshot.Sequence

	p.mu.RLock()
	listeners := p.listeners
	p.mu.RUnlock()
	for _, listener := range listeners {
		listener(snapshot)
	}
}

// Run refreshes immediately, then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	p.Refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.Refresh(ctx)
		case <-ctx.Done():
			slog.Info("Battle poller stopped")
			return
		}
	}
}
