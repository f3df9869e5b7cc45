package sui

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/block-vision/sui-go-sdk/models"
	sdk "github.com/block-vision/sui-go-sdk/sui"
)

const DEFAULT_TIMEOUT = 10 * time.Second

// RPCError is the error object of a JSON-RPC 2.0 response.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Client talks to a Sui fullnode over JSON-RPC through the block-vision SDK. Results
// are kept raw so the battle normalizer sees exactly what the node returned.
type Client struct {
	api sdk.ISuiAPI
}

func NewClient(url string) *Client {
	return &Client{api: sdk.NewSuiClient(url)}
}

func (c *Client) call(ctx context.Context, method string, result any, params ...any) error {
	call_ctx, cancel := context.WithTimeout(ctx, DEFAULT_TIMEOUT)
	defer cancel()

	if params == nil {
		params = []any{}
	}
	response, err := c.api.SuiCall(call_ctx, method, params...)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	raw, err := rpcResult(response)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// rpcResult unwraps the JSON-RPC envelope that SuiCall hands back untouched.
func rpcResult(response any) (json.RawMessage, error) {
	var body []byte
	switch value := response.(type) {
	case []byte:
		body = value
	case json.RawMessage:
		body = value
	case string:
		body = []byte(value)
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode response: %w", err)
		}
		body = encoded
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if envelope.Error != nil {
		return nil, envelope.Error
	}
	if envelope.Result == nil {
		return nil, ErrNoResult
	}
	return envelope.Result, nil
}

var objectOptions = models.SuiObjectDataOptions{ShowContent: true}

func (c *Client) GetObject(ctx context.Context, id string) (json.RawMessage, error) {
	var object json.RawMessage
	if err := c.call(ctx, "sui_getObject", &object, id, objectOptions); err != nil {
		return nil, err
	}
	return object, nil
}

func (c *Client) MultiGetObjects(ctx context.Context, ids []string) ([]json.RawMessage, error) {
	if len(ids) == 0 {
		return []json.RawMessage{}, nil
	}
	var objects []json.RawMessage
	if err := c.call(ctx, "sui_multiGetObjects", &objects, ids, objectOptions); err != nil {
		return nil, err
	}
	return objects, nil
}

func (c *Client) QueryEvents(ctx context.Context, event_type string, limit int, descending bool) ([]Event, error) {
	filter := models.EventFilterByMoveEventType{MoveEventType: event_type}
	var page eventPage
	if err := c.call(ctx, "suix_queryEvents", &page, filter, nil, limit, descending); err != nil {
		return nil, err
	}
	return page.Data, nil
}

func (c *Client) GetTransactionBlock(ctx context.Context, digest string) (*TransactionBlock, error) {
	options := models.SuiTransactionBlockOptions{ShowEvents: true}
	var block TransactionBlock
	if err := c.call(ctx, "sui_getTransactionBlock", &block, digest, options); err != nil {
		return nil, err
	}
	return &block, nil
}

func (c *Client) GetBalance(ctx context.Context, owner string) (json.RawMessage, error) {
	var balance json.RawMessage
	if err := c.call(ctx, "suix_getBalance", &balance, owner, SUI_COIN_TYPE); err != nil {
		return nil, err
	}
	return balance, nil
}

// ExecuteTransaction submits already signed transaction bytes (base64) and returns the
// digest. An aborted execution is returned as ErrExecutionFailed.
func (c *Client) ExecuteTransaction(ctx context.Context, tx_bytes string, signatures []string) (string, error) {
	options := models.SuiTransactionBlockOptions{ShowEffects: true, ShowEvents: true}
	var result json.RawMessage
	err := c.call(ctx, "sui_executeTransactionBlock", &result, tx_bytes, signatures, options, "WaitForLocalExecution")
	if err != nil {
		return "", err
	}
	return ReadExecution(result)
}

func (c *Client) Health(ctx context.Context) bool {
	var checkpoint json.RawMessage
	return c.call(ctx, "sui_getLatestCheckpointSequenceNumber", &checkpoint) == nil
}
