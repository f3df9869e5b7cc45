package sui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// FallbackClient reads from a node exposing the transcoded v2 API. Objects come back
// wrapped as {"object": {...}} with their Move fields under "json", which is the second
// envelope shape the battle normalizer understands. Event queries are not part of that
// API.
type FallbackClient struct {
	base_url string
	http     *http.Client
}

func NewFallbackClient(base_url string) *FallbackClient {
	return &FallbackClient{
		base_url: base_url,
		http:     &http.Client{Timeout: DEFAULT_TIMEOUT},
	}
}

func (c *FallbackClient) do(ctx context.Context, method string, path string, body any, result any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base_url+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s failed with status %d: %s", path, resp.StatusCode, string(payload))
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *FallbackClient) GetObject(ctx context.Context, id string) (json.RawMessage, error) {
	var object json.RawMessage
	path := fmt.Sprintf("/v2/objects/%s?read_mask=object_id,json", url.PathEscape(id))
	if err := c.do(ctx, http.MethodGet, path, nil, &object); err != nil {
		return nil, err
	}
	return object, nil
}

func (c *FallbackClient) MultiGetObjects(ctx context.Context, ids []string) ([]json.RawMessage, error) {
	if len(ids) == 0 {
		return []json.RawMessage{}, nil
	}
	type objectRequest struct {
		ObjectID string `json:"object_id"`
	}
	requests := make([]objectRequest, 0, len(ids))
	for _, id := range ids {
		requests = append(requests, objectRequest{ObjectID: id})
	}

	var response struct {
		Objects []json.RawMessage `json:"objects"`
	}
	body := map[string]any{"requests": requests, "read_mask": "object_id,json"}
	if err := c.do(ctx, http.MethodPost, "/v2/objects:batchGet", body, &response); err != nil {
		return nil, err
	}
	return response.Objects, nil
}

func (c *FallbackClient) QueryEvents(ctx context.Context, event_type string, limit int, descending bool) ([]Event, error) {
	return nil, ErrUnsupported
}

type fallbackEvent struct {
	PackageID string          `json:"packageId"`
	Module    string          `json:"module"`
	Sender    string          `json:"sender"`
	EventType string          `json:"eventType"`
	Json      json.RawMessage `json:"json"`
}

func (c *FallbackClient) GetTransactionBlock(ctx context.Context, digest string) (*TransactionBlock, error) {
	var response struct {
		Transaction struct {
			Digest string `json:"digest"`
			Events struct {
				Events []fallbackEvent `json:"events"`
			} `json:"events"`
		} `json:"transaction"`
	}
	path := fmt.Sprintf("/v2/transactions/%s?read_mask=digest,events", url.PathEscape(digest))
	if err := c.do(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}

	block := &TransactionBlock{Digest: response.Transaction.Digest}
	for i, event := range response.Transaction.Events.Events {
		block.Events = append(block.Events, Event{
			ID:         EventID{TxDigest: response.Transaction.Digest, EventSeq: fmt.Sprint(i)},
			PackageID:  event.PackageID,
			Module:     event.Module,
			Sender:     event.Sender,
			Type:       event.EventType,
			ParsedJson: event.Json,
		})
	}
	return block, nil
}

func (c *FallbackClient) GetBalance(ctx context.Context, owner string) (json.RawMessage, error) {
	var balance json.RawMessage
	query := url.Values{"owner": {owner}, "coin_type": {SUI_COIN_TYPE}}
	if err := c.do(ctx, http.MethodGet, "/v2/balance?"+query.Encode(), nil, &balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// ExecuteTransaction runs signed bytes through the transcoded API. The status there is
// a success flag rather than the JSON-RPC status string.
func (c *FallbackClient) ExecuteTransaction(ctx context.Context, tx_bytes string, signatures []string) (string, error) {
	body := map[string]any{
		"transaction": map[string]any{"bcs": map[string]string{"value": tx_bytes}},
		"signatures":  signatures,
		"read_mask":   "digest,effects.status",
	}
	var response struct {
		Transaction struct {
			Digest  string `json:"digest"`
			Effects struct {
				Status struct {
					Success *bool           `json:"success"`
					Error   json.RawMessage `json:"error"`
				} `json:"status"`
			} `json:"effects"`
		} `json:"transaction"`
	}
	if err := c.do(ctx, http.MethodPost, "/v2/transactions:execute", body, &response); err != nil {
		return "", err
	}

	executed := response.Transaction
	if success := executed.Effects.Status.Success; success != nil && !*success {
		return executed.Digest, fmt.Errorf("%w: %s", ErrExecutionFailed, string(executed.Effects.Status.Error))
	}
	return executed.Digest, nil
}

func (c *FallbackClient) Health(ctx context.Context) bool {
	var info json.RawMessage
	return c.do(ctx, http.MethodGet, "/v2/service_info", nil, &info) == nil
}
