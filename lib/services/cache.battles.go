package services

import (
	"battlearena/lib/battles"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	BATTLE_LIST_KEY        = "battles:list"
	BATTLE_LIST_TTL        = 10 * time.Minute
	BATTLE_DETAIL_TTL      = 5 * time.Second
	BATTLE_RESULT_TTL      = 24 * time.Hour
	OUTCOME_CHANNEL_PREFIX = "battle:outcome:"
)

func battleDetailKey(id string) string {
	return fmt.Sprintf("battle:detail:%s", id)
}

func battleResultKey(digest string) string {
	return fmt.Sprintf("battle:result:%s", digest)
}

func OutcomeChannel(session_id string) string {
	return OUTCOME_CHANNEL_PREFIX + session_id
}

// StoreSnapshot keeps the last committed battle list so a restarted process can serve
// it before its first refresh completes.
func (cache *Cache) StoreSnapshot(ctx context.Context, snapshot battles.Snapshot) error {
	db := cache.Client()
	if db == nil {
		return ErrNilCache
	}
	snapshot_json, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal battle list: %w", err)
	}
	if err := db.Set(ctx, BATTLE_LIST_KEY, snapshot_json, BATTLE_LIST_TTL).Err(); err != nil {
		return fmt.Errorf("failed to store battle list: %w", err)
	}
	return nil
}

func (cache *Cache) LoadSnapshot(ctx context.Context) (battles.Snapshot, bool, error) {
	db := cache.Client()
	if db == nil {
		return battles.Snapshot{}, false, ErrNilCache
	}
	snapshot_json, err := db.Get(ctx, BATTLE_LIST_KEY).Bytes()
	if errors.Is(err, redis.Nil) {
		return battles.Snapshot{}, false, nil
	} else if err != nil {
		return battles.Snapshot{}, false, fmt.Errorf("failed to load battle list: %w", err)
	}
	var snapshot battles.Snapshot
	if err := json.Unmarshal(snapshot_json, &snapshot); err != nil {
		return battles.Snapshot{}, false, fmt.Errorf("failed to unmarshal battle list: %w", err)
	}
	return snapshot, true, nil
}

func (cache *Cache) StoreBattle(ctx context.Context, record battles.BattleRecord) error {
	db := cache.Client()
	if db == nil {
		return ErrNilCache
	}
	record_json, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal battle: %w", err)
	}
	return db.Set(ctx, battleDetailKey(record.ID), record_json, BATTLE_DETAIL_TTL).Err()
}

func (cache *Cache) GetBattle(ctx context.Context, id string) (battles.BattleRecord, bool) {
	db := cache.Client()
	if db == nil {
		return battles.BattleRecord{}, false
	}
	record_json, err := db.Get(ctx, battleDetailKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("Failed to read cached battle", "error", err, "battle_id", id)
		}
		return battles.BattleRecord{}, false
	}
	var record battles.BattleRecord
	if err := json.Unmarshal(record_json, &record); err != nil {
		return battles.BattleRecord{}, false
	}
	return record, true
}

// GetResult and SetResult let the cache back the result resolver.
func (cache *Cache) GetResult(ctx context.Context, digest string) (*battles.ResultEvent, bool) {
	db := cache.Client()
	if db == nil {
		return nil, false
	}
	result_json, err := db.Get(ctx, battleResultKey(digest)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("Failed to read cached result", "error", err, "digest", digest)
		}
		return nil, false
	}
	var result battles.ResultEvent
	if err := json.Unmarshal(result_json, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (cache *Cache) SetResult(ctx context.Context, digest string, result *battles.ResultEvent) {
	db := cache.Client()
	if db == nil || result == nil {
		return
	}
	result_json, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := db.Set(ctx, battleResultKey(digest), result_json, BATTLE_RESULT_TTL).Err(); err != nil {
		slog.Warn("Failed to cache result", "error", err, "digest", digest)
	}
}

// PublishOutcome announces a revealed session on its outcome channel.
func (cache *Cache) PublishOutcome(ctx context.Context, outcome battles.Outcome) error {
	db := cache.Client()
	if db == nil {
		return ErrNilCache
	}
	outcome_json, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}
	if err := db.Publish(ctx, OutcomeChannel(outcome.SessionID), outcome_json).Err(); err != nil {
		return fmt.Errorf("failed to publish outcome: %w", err)
	}
	return nil
}
