package battles

import (
	"battlearena/lib/config"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Aggregator discovers battles through their creation events and resolves them to records.
type Aggregator struct {
	gateway       Gateway
	created_event string
}

func NewAggregator(gateway Gateway, created_event string) *Aggregator {
	return &Aggregator{gateway: gateway, created_event: created_event}
}

// Fetch runs the whole listing pipeline and reports gateway failures.
func (a *Aggregator) Fetch(ctx context.Context) ([]BattleRecord, error) {
	events, err := a.gateway.QueryEvents(ctx, a.created_event, config.EVENTS_PAGE_SIZE, true)
	if err != nil {
		return []BattleRecord{}, fmt.Errorf("failed to query creation events: %w", err)
	}

	payloads := make([]json.RawMessage, 0, len(events))
	for _, event := range events {
		payloads = append(payloads, event.ParsedJson)
	}
	ids := UniqueBattleIDs(payloads)
	if len(ids) == 0 {
		return []BattleRecord{}, nil
	}

	objects, err := a.gateway.MultiGetObjects(ctx, ids)
	if err != nil {
		return []BattleRecord{}, fmt.Errorf("failed to fetch battle objects: %w", err)
	}

	records := make([]BattleRecord, 0, len(objects))
	for _, object := range objects {
		if record, ok := Normalize(object); ok {
			records = append(records, record)
		}
	}
	return OrderOpenFirst(DedupeByContent(records)), nil
}

// List is Fetch with gateway failures logged and turned into an empty list.
func (a *Aggregator) List(ctx context.Context) []BattleRecord {
	records, err := a.Fetch(ctx)
	if err != nil {
		slog.Error("Failed to list battles", "error", err)
		return []BattleRecord{}
	}
	return records
}

// Get fetches a single battle. A missing or malformed object is reported as
// ErrBattleNotFound, gateway failures are returned as is.
func (a *Aggregator) Get(ctx context.Context, id string) (BattleRecord, error) {
	return LoadBattle(ctx, a.gateway, id)
}

func LoadBattle(ctx context.Context, gateway Gateway, id string) (BattleRecord, error) {
	raw, err := gateway.GetObject(ctx, id)
	if err != nil {
		return BattleRecord{}, fmt.Errorf("failed to fetch battle %s: %w", id, err)
	}
	record, ok := Normalize(raw)
	if !ok {
		return BattleRecord{}, ErrBattleNotFound
	}
	return record, nil
}

// ExtractBattleID reads the battle id from a creation event payload. Contract versions
// disagree on the key spelling and on whether the id is wrapped.
func ExtractBattleID(payload json.RawMessage) (string, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return "", false
	}
	raw := firstPresent(fields["battle_id"], fields["battleId"], fields["battleID"])
	if raw == nil {
		return "", false
	}

	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id, id != ""
	}
	var wrapped struct {
		ID    string `json:"id"`
		Bytes string `json:"bytes"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return "", false
	}
	id = firstString(wrapped.ID, wrapped.Bytes)
	return id, id != ""
}

// UniqueBattleIDs extracts ids in event order, dropping repeats.
func UniqueBattleIDs(payloads []json.RawMessage) []string {
	seen := make(map[string]struct{}, len(payloads))
	ids := make([]string, 0, len(payloads))
	for _, payload := range payloads {
		id, ok := ExtractBattleID(payload)
		if !ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func contentKey(record BattleRecord) string {
	return strings.ToLower(record.Left.Name) + "::" + strings.ToLower(record.Right.Name) + "::" + strconv.FormatUint(record.EntryFee, 10)
}

// DedupeByContent keeps the first battle of every (left name, right name, entry fee)
// triple. Names compare case-insensitively.
func DedupeByContent(records []BattleRecord) []BattleRecord {
	seen := make(map[string]struct{}, len(records))
	unique := make([]BattleRecord, 0, len(records))
	for _, record := range records {
		key := contentKey(record)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, record)
	}
	return unique
}

// OrderOpenFirst is a stable partition: open battles, then closed ones.
func OrderOpenFirst(records []BattleRecord) []BattleRecord {
	ordered := make([]BattleRecord, 0, len(records))
	for _, record := range records {
		if record.IsOpen {
			ordered = append(ordered, record)
		}
	}
	for _, record := range records {
		if !record.IsOpen {
			ordered = append(ordered, record)
		}
	}
	return ordered
}
