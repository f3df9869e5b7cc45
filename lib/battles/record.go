package battles

import (
	"battlearena/lib/sui"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrBattleNotFound     = errors.New("battle not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidTransition  = errors.New("invalid session stage transition")
	ErrWalletNotConnected = errors.New("no connected wallet address")
	ErrNoSelection        = errors.New("no side selected")
	ErrSubmissionInFlight = errors.New("a join transaction is already in flight")
	ErrInvalidSide        = errors.New("invalid side")
)

// Gateway is the part of the ledger node this package reads from.
type Gateway interface {
	GetObject(ctx context.Context, id string) (json.RawMessage, error)
	MultiGetObjects(ctx context.Context, ids []string) ([]json.RawMessage, error)
	QueryEvents(ctx context.Context, event_type string, limit int, descending bool) ([]sui.Event, error)
	GetTransactionBlock(ctx context.Context, digest string) (*sui.TransactionBlock, error)
}

// Submitter signs and executes a transaction and returns its digest.
type Submitter interface {
	Submit(ctx context.Context, tx *sui.Transaction) (string, error)
}

type Competitor struct {
	Name  string `json:"name"`
	Power uint8  `json:"power"`
}

// BattleRecord is a read-through projection of a battle object on the ledger.
type BattleRecord struct {
	ID       string     `json:"id"`
	Left     Competitor `json:"left"`
	Right    Competitor `json:"right"`
	EntryFee uint64     `json:"entry_fee"`
	IsOpen   bool       `json:"is_open"`
}

// EntryFeeSui is the entry fee rendered in SUI with two decimals.
func (record BattleRecord) EntryFeeSui() string {
	return sui.FormatSui(record.EntryFee, 2)
}

// ShortID is the last six characters of the object id, for display.
func (record BattleRecord) ShortID() string {
	if len(record.ID) <= 6 {
		return "#" + record.ID
	}
	return "#" + record.ID[len(record.ID)-6:]
}

type Side string

const (
	SIDE_NONE  Side = ""
	SIDE_LEFT  Side = "left"
	SIDE_RIGHT Side = "right"
)

func ParseSide(value string) (Side, error) {
	switch Side(value) {
	case SIDE_LEFT, SIDE_RIGHT:
		return Side(value), nil
	}
	return SIDE_NONE, fmt.Errorf("%w: %q", ErrInvalidSide, value)
}

func (side Side) Opposite() Side {
	switch side {
	case SIDE_LEFT:
		return SIDE_RIGHT
	case SIDE_RIGHT:
		return SIDE_LEFT
	}
	return SIDE_NONE
}

// ResultEvent is the BattleResult event emitted by the join transaction.
type ResultEvent struct {
	Winner          string `json:"winner,omitempty"`
	IsSwapped       bool   `json:"is_swapped"`
	PlayerChoice    *bool  `json:"player_choice,omitempty"`
	WinningCoinName string `json:"winning_coin_name,omitempty"`
}
