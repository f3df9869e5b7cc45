package sui

import (
	"encoding/json"
	"errors"
)

var (
	ErrUnsupported = errors.New("operation not supported by this client")
	ErrNoResult    = errors.New("response carries no result")
)

const SUI_COIN_TYPE = "0x2::sui::SUI"

// EventID identifies an event inside the transaction that emitted it.
type EventID struct {
	TxDigest string `json:"txDigest"`
	EventSeq string `json:"eventSeq"`
}

// Event is a Move event as returned by the ledger. ParsedJson is kept raw because
// its keys drift between contract versions.
type Event struct {
	ID          EventID         `json:"id"`
	PackageID   string          `json:"packageId"`
	Module      string          `json:"transactionModule"`
	Sender      string          `json:"sender"`
	Type        string          `json:"type"`
	ParsedJson  json.RawMessage `json:"parsedJson"`
	TimestampMs string          `json:"timestampMs,omitempty"`
}

type TransactionBlock struct {
	Digest string  `json:"digest"`
	Events []Event `json:"events"`
}

// UnmarshalJSON accepts events either at the top level or nested under data.
func (block *TransactionBlock) UnmarshalJSON(payload []byte) error {
	var raw struct {
		Digest string  `json:"digest"`
		Events []Event `json:"events"`
		Data   *struct {
			Events []Event `json:"events"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return err
	}
	block.Digest = raw.Digest
	block.Events = raw.Events
	if block.Events == nil && raw.Data != nil {
		block.Events = raw.Data.Events
	}
	return nil
}

type eventPage struct {
	Data        []Event         `json:"data"`
	NextCursor  json.RawMessage `json:"nextCursor"`
	HasNextPage bool            `json:"hasNextPage"`
}
