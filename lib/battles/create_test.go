package battles

import (
	"battlearena/lib/sui"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		request CreateRequest
		fee     uint64
		valid   bool
	}{
		{"valid", CreateRequest{LeftName: " BTCX ", LeftPower: 70, RightName: "SOLX", RightPower: 40, EntryFee: decimal.RequireFromString("0.1")}, 100_000_000, true},
		{"truncates below one mist", CreateRequest{LeftName: "A", RightName: "B", EntryFee: decimal.RequireFromString("1.0000000019")}, 1_000_000_001, true},
		{"blank name", CreateRequest{LeftName: "  ", RightName: "B", EntryFee: decimal.NewFromInt(1)}, 0, false},
		{"power too high", CreateRequest{LeftName: "A", LeftPower: 101, RightName: "B", EntryFee: decimal.NewFromInt(1)}, 0, false},
		{"negative power", CreateRequest{LeftName: "A", RightName: "B", RightPower: -1, EntryFee: decimal.NewFromInt(1)}, 0, false},
		{"zero fee", CreateRequest{LeftName: "A", RightName: "B"}, 0, false},
		{"dust fee", CreateRequest{LeftName: "A", RightName: "B", EntryFee: decimal.RequireFromString("0.0000000001")}, 0, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fee, err := test.request.Validate()
			if !test.valid {
				assert.ErrorIs(t, err, ErrInvalidBattle)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.fee, fee)
		})
	}
}

type countingRefresher struct {
	refreshed chan struct{}
}

func (r *countingRefresher) Refresh(ctx context.Context) bool {
	r.refreshed <- struct{}{}
	return true
}

func TestCreatorSubmitsAndRefreshes(t *testing.T) {
	submitter := &fakeSubmitter{digest: "C1"}
	refresher := &countingRefresher{refreshed: make(chan struct{}, 1)}
	creator := NewCreator(submitter, refresher, "0x1::battle_sc::create_battle", 1000)

	digest, err := creator.Create(context.Background(), testPlayer, CreateRequest{
		LeftName:   "BTCX",
		LeftPower:  70,
		RightName:  "SOLX",
		RightPower: 40,
		EntryFee:   decimal.RequireFromString("0.25"),
	})
	require.NoError(t, err)
	assert.Equal(t, "C1", digest)

	require.Len(t, submitter.txs, 1)
	tx := submitter.txs[0]
	calls := tx.MoveCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "create_battle", calls[0].Function)
	require.Len(t, calls[0].Arguments, 6)
	assert.Equal(t, sui.NestedResultArg(0, 0), calls[0].Arguments[0])

	pure := [][]byte{}
	for _, arg := range calls[0].Arguments[1:] {
		input, ok := tx.Input(arg)
		require.True(t, ok)
		pure = append(pure, input.PureBytes())
	}
	assert.Equal(t, [][]byte{
		sui.BcsString("BTCX"),
		sui.BcsU64(70),
		sui.BcsString("SOLX"),
		sui.BcsU64(40),
		sui.BcsU64(250_000_000),
	}, pure)

	fee, ok := tx.Input(tx.Commands[0].SplitCoins.Amounts[0])
	require.True(t, ok)
	assert.Equal(t, sui.BcsU64(250_000_000), fee.PureBytes())

	select {
	case <-refresher.refreshed:
	case <-time.After(time.Second):
		t.Fatal("battle list was not refreshed")
	}
}

func TestCreatorErrors(t *testing.T) {
	submitter := &fakeSubmitter{err: errors.New("rejected")}
	creator := NewCreator(submitter, nil, "t", 1)
	request := CreateRequest{LeftName: "A", RightName: "B", EntryFee: decimal.NewFromInt(1)}

	_, err := creator.Create(context.Background(), "", request)
	assert.ErrorIs(t, err, ErrWalletNotConnected)

	_, err = creator.Create(context.Background(), testPlayer, request)
	assert.ErrorIs(t, err, submitter.err)

	_, err = creator.Create(context.Background(), testPlayer, CreateRequest{})
	assert.ErrorIs(t, err, ErrInvalidBattle)
	assert.Len(t, submitter.txs, 1)
}
