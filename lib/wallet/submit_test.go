package wallet

import (
	"battlearena/lib/sui"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConnector struct {
	execute_result json.RawMessage
	execute_err    error
	signed         *SignedTransaction
	sign_err       error
	sign_calls     int
}

func (f *fakeConnector) SignAndExecute(ctx context.Context, tx *sui.Transaction) (json.RawMessage, error) {
	return f.execute_result, f.execute_err
}

func (f *fakeConnector) Sign(ctx context.Context, tx *sui.Transaction) (*SignedTransaction, error) {
	f.sign_calls++
	return f.signed, f.sign_err
}

type fakeExecutor struct {
	bytes      string
	signatures []string
	digest     string
	err        error
}

func (f *fakeExecutor) ExecuteTransaction(ctx context.Context, tx_bytes string, signatures []string) (string, error) {
	f.bytes = tx_bytes
	f.signatures = signatures
	return f.digest, f.err
}

func TestSubmitPrimaryPath(t *testing.T) {
	connector := &fakeConnector{execute_result: json.RawMessage(`{"Transaction":{"digest":"D1"}}`)}
	digest, err := NewSubmitter(connector, &fakeExecutor{}).Submit(context.Background(), sui.NewTransaction("", 0))
	require.NoError(t, err)
	assert.Equal(t, "D1", digest)
	assert.Zero(t, connector.sign_calls)
}

func TestSubmitFallsBackToSignThenExecute(t *testing.T) {
	connector := &fakeConnector{
		execute_err: errors.New("method not available"),
		signed:      &SignedTransaction{Bytes: "AAEC", Signatures: []string{"sig"}},
	}
	executor := &fakeExecutor{digest: "D2"}

	digest, err := NewSubmitter(connector, executor).Submit(context.Background(), sui.NewTransaction("", 0))
	require.NoError(t, err)
	assert.Equal(t, "D2", digest)
	assert.Equal(t, "AAEC", executor.bytes)
	assert.Equal(t, []string{"sig"}, executor.signatures)
}

func TestSubmitKeepsOriginalErrorWhenFallbackUnusable(t *testing.T) {
	primary := errors.New("user rejected")

	_, err := NewSubmitter(&fakeConnector{execute_err: primary}, nil).Submit(context.Background(), sui.NewTransaction("", 0))
	assert.ErrorIs(t, err, primary)

	connector := &fakeConnector{execute_err: primary, signed: &SignedTransaction{}}
	_, err = NewSubmitter(connector, &fakeExecutor{}).Submit(context.Background(), sui.NewTransaction("", 0))
	assert.ErrorIs(t, err, primary)
}

func TestSubmitReportsAbortedExecution(t *testing.T) {
	connector := &fakeConnector{execute_result: json.RawMessage(`{"digest":"D3","effects":{"status":{"status":"failure","error":"MoveAbort"}}}`)}
	executor := &fakeExecutor{digest: "never"}

	digest, err := NewSubmitter(connector, executor).Submit(context.Background(), sui.NewTransaction("", 0))
	assert.ErrorIs(t, err, sui.ErrExecutionFailed)
	assert.Equal(t, "D3", digest)
	assert.Zero(t, connector.sign_calls)
	assert.Empty(t, executor.bytes)

	connector = &fakeConnector{
		execute_err: errors.New("method not available"),
		signed:      &SignedTransaction{Bytes: "AAEC", Signatures: []string{"sig"}},
	}
	executor = &fakeExecutor{digest: "D4", err: sui.ErrExecutionFailed}
	_, err = NewSubmitter(connector, executor).Submit(context.Background(), sui.NewTransaction("", 0))
	assert.ErrorIs(t, err, sui.ErrExecutionFailed)
}

func TestSubmitExecutedWithoutDigest(t *testing.T) {
	connector := &fakeConnector{execute_result: json.RawMessage(`{"effects":{"status":{"status":"success"}}}`)}

	digest, err := NewSubmitter(connector, &fakeExecutor{}).Submit(context.Background(), sui.NewTransaction("", 0))
	require.NoError(t, err)
	assert.Empty(t, digest)
	assert.Zero(t, connector.sign_calls)
}

func TestSignedTransactionSpellings(t *testing.T) {
	payloads := []string{
		`{"bytes":"AAEC","signature":"sig"}`,
		`{"transactionBlockBytes":"AAEC","signature":{"signature":"sig"}}`,
		`{"transactionBlock":"AAEC","signatures":["sig"]}`,
		`{"bytes":"AAEC","signature":["sig"]}`,
	}
	for _, payload := range payloads {
		var signed SignedTransaction
		require.NoError(t, json.Unmarshal([]byte(payload), &signed), payload)
		assert.Equal(t, "AAEC", signed.Bytes, payload)
		assert.Equal(t, []string{"sig"}, signed.Signatures, payload)
	}
}

func TestHttpConnector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Connector-Key"))
		var body struct {
			Transaction string `json:"transaction"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		var data sui.Transaction
		require.NoError(t, json.Unmarshal([]byte(body.Transaction), &data))
		assert.Equal(t, sui.TRANSACTION_DATA_VERSION, data.Version)
		require.Len(t, data.Commands, 1)
		assert.Equal(t, "f", data.Commands[0].MoveCall.Function)

		switch r.URL.Path {
		case "/sign-and-execute":
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"rejected"}`))
		case "/sign":
			w.Write([]byte(`{"bytes":"AAEC","signature":"sig"}`))
		}
	}))
	defer server.Close()

	connector := NewHttpConnector(server.URL, func() (string, error) { return "secret", nil })
	tx := sui.NewTransaction("0xme", 100)
	tx.MoveCall("0x1::m::f", tx.PureBool(true))

	_, err := connector.SignAndExecute(context.Background(), tx)
	assert.ErrorIs(t, err, ErrSigningRejected)

	signed, err := connector.Sign(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, "AAEC", signed.Bytes)

	broken := sui.NewTransaction("0xme", 100)
	broken.MoveCall("f")
	_, err = connector.SignAndExecute(context.Background(), broken)
	assert.ErrorIs(t, err, sui.ErrInvalidTarget)
}
