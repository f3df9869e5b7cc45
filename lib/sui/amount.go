package sui

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

const MIST_DECIMALS = 9

var ErrInvalidAmount = errors.New("invalid amount")

// MistToSui converts an amount in MIST to SUI.
func MistToSui(mist uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(mist), -MIST_DECIMALS)
}

// SuiToMist converts an amount in SUI to MIST, truncating anything below one MIST.
func SuiToMist(sui decimal.Decimal) (uint64, error) {
	if sui.IsNegative() {
		return 0, fmt.Errorf("%w: negative amount %s", ErrInvalidAmount, sui.String())
	}
	mist := sui.Shift(MIST_DECIMALS).Truncate(0)
	if !mist.BigInt().IsUint64() {
		return 0, fmt.Errorf("%w: %s SUI overflows u64", ErrInvalidAmount, sui.String())
	}
	return mist.BigInt().Uint64(), nil
}

// FormatSui renders a MIST amount as SUI with a fixed number of decimals.
func FormatSui(mist uint64, places int32) string {
	return MistToSui(mist).StringFixed(places)
}

// ParseU64 reads a u64 that the ledger may encode either as a JSON string or a number.
func ParseU64(raw json.RawMessage) (uint64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		value, err := strconv.ParseUint(text, 10, 64)
		return value, err == nil
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err != nil {
		return 0, false
	}
	value, err := strconv.ParseUint(number.String(), 10, 64)
	return value, err == nil
}

type balanceCandidates struct {
	TotalBalance   json.RawMessage `json:"totalBalance"`
	Balance        json.RawMessage `json:"balance"`
	CoinBalance    json.RawMessage `json:"coinBalance"`
	AddressBalance json.RawMessage `json:"addressBalance"`
}

// BalanceMist extracts the MIST balance from a balance response of either backend.
func BalanceMist(raw json.RawMessage) (uint64, bool) {
	var candidates balanceCandidates
	if err := json.Unmarshal(raw, &candidates); err != nil {
		return 0, false
	}
	for _, field := range []json.RawMessage{candidates.TotalBalance, candidates.Balance, candidates.CoinBalance, candidates.AddressBalance} {
		if value, ok := ParseU64(field); ok {
			return value, true
		}
	}
	// {"balance": {"balance": "..."}} or {"balance": {"coinBalance": "..."}}
	if len(candidates.Balance) > 0 && candidates.Balance[0] == '{' {
		return BalanceMist(candidates.Balance)
	}
	return 0, false
}
