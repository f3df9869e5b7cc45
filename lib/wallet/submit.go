package wallet

import (
	"battlearena/lib/sui"
	"context"
	"fmt"
	"log/slog"
)

// Executor runs transactions that were signed but not executed by the wallet.
type Executor interface {
	ExecuteTransaction(ctx context.Context, tx_bytes string, signatures []string) (string, error)
}

type Submitter struct {
	connector Connector
	executor  Executor
}

// NewSubmitter builds a submitter. The executor may be nil, in which case the
// sign-then-execute fallback is disabled.
func NewSubmitter(connector Connector, executor Executor) *Submitter {
	return &Submitter{connector: connector, executor: executor}
}

// Submit signs and executes tx and returns its digest. When the wallet cannot sign and
// execute in one step, the transaction is signed only and executed through the node.
//
// An execution the ledger reports as aborted is an error wrapping sui.ErrExecutionFailed.
// An executed transaction whose digest was not reported returns an empty digest and no
// error: it ran and must not be submitted again.
func (s *Submitter) Submit(ctx context.Context, tx *sui.Transaction) (string, error) {
	result, err := s.connector.SignAndExecute(ctx, tx)
	if err == nil {
		digest, exec_err := sui.ReadExecution(result)
		if exec_err != nil {
			return digest, exec_err
		}
		if digest == "" {
			slog.Warn("Wallet executed the transaction without reporting its digest")
		}
		return digest, nil
	}
	if s.executor == nil {
		return "", err
	}

	slog.Warn("sign and execute failed, falling back to sign then execute", "error", err)
	signed, sign_err := s.connector.Sign(ctx, tx)
	if sign_err != nil {
		return "", fmt.Errorf("%w (fallback signing: %v)", err, sign_err)
	}
	if signed.Bytes == "" || len(signed.Signatures) == 0 {
		return "", fmt.Errorf("%w (fallback signing: %v)", err, ErrNoSignature)
	}

	digest, exec_err := s.executor.ExecuteTransaction(ctx, signed.Bytes, signed.Signatures)
	if exec_err != nil {
		return digest, fmt.Errorf("failed to execute signed transaction: %w", exec_err)
	}
	return digest, nil
}
