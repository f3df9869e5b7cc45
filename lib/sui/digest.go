package sui

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrExecutionFailed = errors.New("transaction execution failed")

const EXECUTION_FAILURE = "failure"

type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type effectsCandidates struct {
	TransactionDigest string           `json:"transactionDigest"`
	Status            *ExecutionStatus `json:"status"`
}

type executionCandidates struct {
	Digest      string `json:"digest"`
	Transaction *struct {
		Digest string `json:"digest"`
	} `json:"Transaction"`
	TransactionLower *struct {
		Digest string `json:"digest"`
	} `json:"transaction"`
	// Wallets following the current standard return effects as base64 BCS, older
	// ones and nodes return the JSON object.
	Effects json.RawMessage `json:"effects"`
}

func (candidates executionCandidates) effects() effectsCandidates {
	var effects effectsCandidates
	if len(candidates.Effects) > 0 && candidates.Effects[0] == '{' {
		json.Unmarshal(candidates.Effects, &effects)
	}
	return effects
}

// ExtractDigest finds the transaction digest in an execution response. Wallets and
// nodes disagree on where they put it.
func ExtractDigest(payload json.RawMessage) (string, bool) {
	var candidates executionCandidates
	if err := json.Unmarshal(payload, &candidates); err != nil {
		return "", false
	}
	switch {
	case candidates.Digest != "":
		return candidates.Digest, true
	case candidates.Transaction != nil && candidates.Transaction.Digest != "":
		return candidates.Transaction.Digest, true
	case candidates.TransactionLower != nil && candidates.TransactionLower.Digest != "":
		return candidates.TransactionLower.Digest, true
	}
	if digest := candidates.effects().TransactionDigest; digest != "" {
		return digest, true
	}
	return "", false
}

// ReadExecution reads the response of an executed transaction. An execution the
// ledger reports as failed returns ErrExecutionFailed along with its digest. A
// response without a digest is not an error: the transaction ran, its digest is
// just unknown.
func ReadExecution(payload json.RawMessage) (string, error) {
	digest, _ := ExtractDigest(payload)

	var candidates executionCandidates
	if err := json.Unmarshal(payload, &candidates); err != nil {
		return digest, nil
	}
	if status := candidates.effects().Status; status != nil && status.Status == EXECUTION_FAILURE {
		return digest, fmt.Errorf("%w: %s", ErrExecutionFailed, status.Error)
	}
	return digest, nil
}
