package battles

import (
	"battlearena/lib/sui"
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

type fakeGateway struct {
	mu          sync.Mutex
	objects     map[string]json.RawMessage
	events      []sui.Event
	blocks      map[string]*sui.TransactionBlock
	events_err  error
	objects_err error
	block_err   error
	block_calls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		objects: make(map[string]json.RawMessage),
		blocks:  make(map[string]*sui.TransactionBlock),
	}
}

func (g *fakeGateway) GetObject(ctx context.Context, id string) (json.RawMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.objects_err != nil {
		return nil, g.objects_err
	}
	object, ok := g.objects[id]
	if !ok {
		return json.RawMessage(`{"error":{"code":"notExists","object_id":"` + id + `"}}`), nil
	}
	return object, nil
}

func (g *fakeGateway) MultiGetObjects(ctx context.Context, ids []string) ([]json.RawMessage, error) {
	if g.objects_err != nil {
		return nil, g.objects_err
	}
	objects := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		object, _ := g.GetObject(ctx, id)
		objects = append(objects, object)
	}
	return objects, nil
}

func (g *fakeGateway) QueryEvents(ctx context.Context, event_type string, limit int, descending bool) ([]sui.Event, error) {
	if g.events_err != nil {
		return nil, g.events_err
	}
	return g.events, nil
}

func (g *fakeGateway) GetTransactionBlock(ctx context.Context, digest string) (*sui.TransactionBlock, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.block_calls++
	if g.block_err != nil {
		return nil, g.block_err
	}
	block, ok := g.blocks[digest]
	if !ok {
		return &sui.TransactionBlock{Digest: digest}, nil
	}
	return block, nil
}

type fakeSubmitter struct {
	mu      sync.Mutex
	digest  string
	err     error
	gate    chan struct{}
	entered chan struct{}
	txs     []*sui.Transaction
}

func (s *fakeSubmitter) Submit(ctx context.Context, tx *sui.Transaction) (string, error) {
	s.mu.Lock()
	s.txs = append(s.txs, tx)
	s.mu.Unlock()
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}
	return s.digest, s.err
}

func rpcBattle(id string, left string, left_power int, right string, right_power int, fee uint64, open bool) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"data": {
			"objectId": %q,
			"version": "12",
			"content": {
				"dataType": "moveObject",
				"type": "0x1::battle_sc::Battle",
				"fields": {
					"id": {"id": %q},
					"coin_Left": {"type": "0x1::battle_sc::Coin", "fields": {"name": %q, "power": %d}},
					"coin_Right": {"type": "0x1::battle_sc::Coin", "fields": {"name": %q, "power": %d}},
					"entry_fee": "%d",
					"is_open": %t
				}
			}
		}
	}`, id, id, left, left_power, right, right_power, fee, open))
}

func transcodedBattle(id string, left string, left_power int, right string, right_power int, fee uint64, open bool) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"object": {
			"objectId": %q,
			"json": {
				"id": %q,
				"coin_left": {"name": %q, "power": %d},
				"coin_right": {"name": %q, "power": %d},
				"entry_fee": %d,
				"is_open": %t
			}
		}
	}`, id, id, left, left_power, right, right_power, fee, open))
}

func createdEvent(battle_id string) sui.Event {
	return sui.Event{
		Type:       "0x1::battle_sc::BattleCreated",
		ParsedJson: json.RawMessage(fmt.Sprintf(`{"battle_id": %q}`, battle_id)),
	}
}

func resultEvent(payload string) sui.Event {
	return sui.Event{
		Type:       "0x1::battle_sc::BattleResult",
		ParsedJson: json.RawMessage(payload),
	}
}
