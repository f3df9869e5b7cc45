package wallet

import (
	"battlearena/lib/sui"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	ErrSigningRejected = errors.New("wallet rejected the transaction")
	ErrNoSignature     = errors.New("signed payload carries no signature or bytes")
)

// SignedTransaction is what a wallet hands back from a sign-only request.
type SignedTransaction struct {
	Bytes      string
	Signatures []string
}

// UnmarshalJSON accepts the field spellings used by the different wallet standards.
func (signed *SignedTransaction) UnmarshalJSON(payload []byte) error {
	var raw struct {
		Bytes                 string          `json:"bytes"`
		TransactionBlockBytes string          `json:"transactionBlockBytes"`
		TransactionBlock      string          `json:"transactionBlock"`
		Signature             json.RawMessage `json:"signature"`
		Signatures            []string        `json:"signatures"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return err
	}

	switch {
	case raw.Bytes != "":
		signed.Bytes = raw.Bytes
	case raw.TransactionBlockBytes != "":
		signed.Bytes = raw.TransactionBlockBytes
	default:
		signed.Bytes = raw.TransactionBlock
	}

	signed.Signatures = raw.Signatures
	if len(raw.Signature) > 0 {
		var single string
		var many []string
		var nested struct {
			Signature string `json:"signature"`
		}
		switch {
		case json.Unmarshal(raw.Signature, &single) == nil && single != "":
			signed.Signatures = []string{single}
		case json.Unmarshal(raw.Signature, &many) == nil && len(many) > 0:
			signed.Signatures = many
		case json.Unmarshal(raw.Signature, &nested) == nil && nested.Signature != "":
			signed.Signatures = []string{nested.Signature}
		}
	}
	return nil
}

// Connector is the wallet side of transaction submission.
type Connector interface {
	SignAndExecute(ctx context.Context, tx *sui.Transaction) (json.RawMessage, error)
	Sign(ctx context.Context, tx *sui.Transaction) (*SignedTransaction, error)
}

// HttpConnector forwards transactions to a wallet connector daemon that holds the keys.
// The transaction travels as its serialized JSON string.
type HttpConnector struct {
	url     string
	api_key func() (string, error)
	http    *http.Client
}

func NewHttpConnector(url string, api_key func() (string, error)) *HttpConnector {
	return &HttpConnector{
		url:     url,
		api_key: api_key,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *HttpConnector) post(ctx context.Context, path string, tx *sui.Transaction) (json.RawMessage, error) {
	serialized, err := tx.JSON()
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(map[string]string{"transaction": serialized})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create connector request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.api_key != nil {
		key, err := c.api_key()
		if err != nil {
			return nil, fmt.Errorf("cannot access connector key: %w", err)
		}
		req.Header.Set("X-Connector-Key", key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach wallet connector: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read connector response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusConflict:
		return nil, fmt.Errorf("%w: %s", ErrSigningRejected, string(payload))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("wallet connector %s failed with status %d: %s", path, resp.StatusCode, string(payload))
	}
	return payload, nil
}

func (c *HttpConnector) SignAndExecute(ctx context.Context, tx *sui.Transaction) (json.RawMessage, error) {
	return c.post(ctx, "/sign-and-execute", tx)
}

func (c *HttpConnector) Sign(ctx context.Context, tx *sui.Transaction) (*SignedTransaction, error) {
	payload, err := c.post(ctx, "/sign", tx)
	if err != nil {
		return nil, err
	}
	var signed SignedTransaction
	if err := json.Unmarshal(payload, &signed); err != nil {
		return nil, fmt.Errorf("failed to decode signed transaction: %w", err)
	}
	return &signed, nil
}
