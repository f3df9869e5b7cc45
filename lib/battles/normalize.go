package battles

import (
	"battlearena/lib/sui"
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

type EnvelopeKind int

const (
	ENVELOPE_UNKNOWN EnvelopeKind = iota
	ENVELOPE_RPC                  // {"data": {"objectId", "content"}}
	ENVELOPE_TRANSCODED           // {"object": {"objectId", "json"}}
	ENVELOPE_ERROR                // {"error": {...}} without data
)

var ErrEmptyEnvelope = errors.New("empty object envelope")

// Envelope is a raw object response resolved to one of the known shapes. It never
// leaves this package: callers only see BattleRecord.
type Envelope struct {
	Kind     EnvelopeKind
	ObjectID string
	Content  json.RawMessage
}

type objectData struct {
	ObjectID string          `json:"objectId"`
	Content  json.RawMessage `json:"content"`
	Json     json.RawMessage `json:"json"`
	Data     *struct {
		Content json.RawMessage `json:"content"`
	} `json:"data"`
}

type rawEnvelope struct {
	Error     json.RawMessage `json:"error"`
	ObjectID  string          `json:"objectId"`
	ID        json.RawMessage `json:"id"`
	Reference *struct {
		ObjectID string `json:"objectId"`
	} `json:"reference"`
	Content json.RawMessage `json:"content"`
	Json    json.RawMessage `json:"json"`
	Data    *objectData     `json:"data"`
	Object  *objectData     `json:"object"`
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func firstPresent(candidates ...json.RawMessage) json.RawMessage {
	for _, candidate := range candidates {
		if present(candidate) {
			return candidate
		}
	}
	return nil
}

func firstString(candidates ...string) string {
	for _, candidate := range candidates {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// DecodeEnvelope resolves a raw object payload from either gateway backend.
func DecodeEnvelope(raw json.RawMessage) (Envelope, error) {
	if !present(raw) {
		return Envelope{}, ErrEmptyEnvelope
	}
	var envelope rawEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Envelope{}, err
	}

	if present(envelope.Error) && envelope.Data == nil && envelope.Object == nil {
		return Envelope{Kind: ENVELOPE_ERROR}, nil
	}

	var data, object objectData
	if envelope.Data != nil {
		data = *envelope.Data
	}
	if envelope.Object != nil {
		object = *envelope.Object
	}
	var data_data, object_data json.RawMessage
	if data.Data != nil {
		data_data = data.Data.Content
	}
	if object.Data != nil {
		object_data = object.Data.Content
	}

	var reference_id, plain_id string
	if envelope.Reference != nil {
		reference_id = envelope.Reference.ObjectID
	}
	json.Unmarshal(envelope.ID, &plain_id)

	kind := ENVELOPE_RPC
	if envelope.Object != nil {
		kind = ENVELOPE_TRANSCODED
	}

	return Envelope{
		Kind:     kind,
		ObjectID: firstString(data.ObjectID, object.ObjectID, envelope.ObjectID, reference_id, plain_id),
		Content: firstPresent(
			data.Content,
			object.Content,
			envelope.Content,
			data_data,
			object_data,
			data.Json,
			object.Json,
			envelope.Json,
		),
	}, nil
}

// Fields returns the Move field map carried by the envelope content.
func (envelope Envelope) Fields() (json.RawMessage, bool) {
	if !present(envelope.Content) {
		return nil, false
	}
	var content struct {
		DataType string          `json:"dataType"`
		Fields   json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(envelope.Content, &content); err != nil {
		return nil, false
	}
	if content.DataType == "moveObject" || present(content.Fields) {
		return content.Fields, present(content.Fields)
	}
	return envelope.Content, true
}

type battleFields struct {
	CoinLeft       json.RawMessage `json:"coin_Left"`
	CoinLeftLower  json.RawMessage `json:"coin_left"`
	CoinRight      json.RawMessage `json:"coin_Right"`
	CoinRightLower json.RawMessage `json:"coin_right"`
	EntryFee       json.RawMessage `json:"entry_fee"`
	IsOpen         json.RawMessage `json:"is_open"`
}

func decodeCompetitor(raw json.RawMessage) Competitor {
	var competitor struct {
		Fields json.RawMessage `json:"fields"`
		Name   json.RawMessage `json:"name"`
		Power  json.RawMessage `json:"power"`
	}
	if err := json.Unmarshal(raw, &competitor); err != nil {
		return Competitor{}
	}
	if present(competitor.Fields) {
		return decodeCompetitor(competitor.Fields)
	}

	var name string
	if err := json.Unmarshal(competitor.Name, &name); err != nil && present(competitor.Name) {
		name = strings.Trim(string(competitor.Name), `"`)
	}
	power, _ := sui.ParseU64(competitor.Power)
	if power > 100 {
		power = 100
	}
	return Competitor{Name: strings.TrimSpace(name), Power: uint8(power)}
}

func decodeBool(raw json.RawMessage) bool {
	var value bool
	if err := json.Unmarshal(raw, &value); err == nil {
		return value
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text == "true"
	}
	return false
}

// Normalize turns a raw object response into a BattleRecord. The boolean is false
// when the payload does not describe a usable battle; that is absence, not failure.
func Normalize(raw json.RawMessage) (BattleRecord, bool) {
	envelope, err := DecodeEnvelope(raw)
	if err != nil || envelope.Kind == ENVELOPE_ERROR || envelope.ObjectID == "" {
		return BattleRecord{}, false
	}
	fields_raw, ok := envelope.Fields()
	if !ok {
		return BattleRecord{}, false
	}

	var fields battleFields
	if err := json.Unmarshal(fields_raw, &fields); err != nil {
		return BattleRecord{}, false
	}

	record := BattleRecord{
		ID:     envelope.ObjectID,
		Left:   decodeCompetitor(firstPresent(fields.CoinLeft, fields.CoinLeftLower)),
		Right:  decodeCompetitor(firstPresent(fields.CoinRight, fields.CoinRightLower)),
		IsOpen: decodeBool(fields.IsOpen),
	}
	record.EntryFee, _ = sui.ParseU64(fields.EntryFee)

	if record.Left.Name == "" || record.Right.Name == "" {
		return BattleRecord{}, false
	}
	return record, true
}
