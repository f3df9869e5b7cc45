package battles

import (
	"context"
	"encoding/json"
	"log/slog"
)

// ResultCache keeps resolved results by transaction digest. Results never change
// once a transaction is executed.
type ResultCache interface {
	GetResult(ctx context.Context, digest string) (*ResultEvent, bool)
	SetResult(ctx context.Context, digest string, result *ResultEvent)
}

// Resolver reads the outcome of a join transaction from the events it emitted.
type Resolver struct {
	gateway     Gateway
	result_type string
	cache       ResultCache
}

func NewResolver(gateway Gateway, result_type string) *Resolver {
	return &Resolver{gateway: gateway, result_type: result_type}
}

func (r *Resolver) WithCache(cache ResultCache) *Resolver {
	r.cache = cache
	return r
}

// Resolve returns the first BattleResult event of the transaction. No event, an
// undecodable event and a gateway failure all resolve to absent.
func (r *Resolver) Resolve(ctx context.Context, digest string) (*ResultEvent, bool) {
	if r.cache != nil {
		if result, ok := r.cache.GetResult(ctx, digest); ok {
			return result, true
		}
	}
	block, err := r.gateway.GetTransactionBlock(ctx, digest)
	if err != nil {
		slog.Error("Failed to fetch battle result", "error", err, "digest", digest)
		return nil, false
	}
	for _, event := range block.Events {
		if event.Type != r.result_type {
			continue
		}
		result, ok := DecodeResultEvent(event.ParsedJson)
		if !ok {
			slog.Warn("Undecodable battle result event", "digest", digest)
			return nil, false
		}
		if r.cache != nil {
			r.cache.SetResult(ctx, digest, result)
		}
		return result, true
	}
	slog.Info("No battle result event in transaction", "digest", digest)
	return nil, false
}

// DecodeResultEvent reads a BattleResult payload, accepting snake and camel case keys.
func DecodeResultEvent(payload json.RawMessage) (*ResultEvent, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
		return nil, false
	}

	var result ResultEvent
	json.Unmarshal(firstPresent(fields["winner"], fields["winner_address"], fields["winnerAddress"]), &result.Winner)
	json.Unmarshal(firstPresent(fields["winning_coin_name"], fields["winningCoinName"]), &result.WinningCoinName)
	if swapped := firstPresent(fields["is_swapped"], fields["isSwapped"]); swapped != nil {
		result.IsSwapped = decodeBool(swapped)
	}
	if choice := firstPresent(fields["player_choice"], fields["playerChoice"]); choice != nil {
		value := decodeBool(choice)
		result.PlayerChoice = &value
	}
	return &result, true
}
