package battles

import (
	"battlearena/lib/sui"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MAX_POWER               = 100
	REFRESH_AFTER_CREATE_TO = 15 * time.Second
)

var ErrInvalidBattle = errors.New("invalid battle")

// CreateRequest describes a new battle. EntryFee is expressed in SUI.
type CreateRequest struct {
	LeftName   string          `json:"left_name"`
	LeftPower  int             `json:"left_power"`
	RightName  string          `json:"right_name"`
	RightPower int             `json:"right_power"`
	EntryFee   decimal.Decimal `json:"entry_fee"`
}

// Validate trims the names and returns the entry fee in MIST.
func (request *CreateRequest) Validate() (uint64, error) {
	request.LeftName = strings.TrimSpace(request.LeftName)
	request.RightName = strings.TrimSpace(request.RightName)

	if request.LeftName == "" || request.RightName == "" {
		return 0, fmt.Errorf("%w: both competitors need a name", ErrInvalidBattle)
	}
	if request.LeftPower < 0 || request.LeftPower > MAX_POWER || request.RightPower < 0 || request.RightPower > MAX_POWER {
		return 0, fmt.Errorf("%w: power must be between 0 and %d", ErrInvalidBattle, MAX_POWER)
	}
	if !request.EntryFee.IsPositive() {
		return 0, fmt.Errorf("%w: entry fee must be positive", ErrInvalidBattle)
	}
	fee, err := sui.SuiToMist(request.EntryFee)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidBattle, err)
	}
	if fee == 0 {
		return 0, fmt.Errorf("%w: entry fee is below one MIST", ErrInvalidBattle)
	}
	return fee, nil
}

// BuildCreateTransaction builds create_battle(fee coin, left name, left power, right name, right power, fee).
func BuildCreateTransaction(target string, sender string, gas_budget uint64, request CreateRequest, entry_fee uint64) *sui.Transaction {
	tx := sui.NewTransaction(sender, gas_budget)
	fee := tx.SplitCoins(sui.GasCoin(), tx.PureU64(entry_fee))
	tx.MoveCall(target,
		fee,
		tx.PureString(request.LeftName),
		tx.PureU64(uint64(request.LeftPower)),
		tx.PureString(request.RightName),
		tx.PureU64(uint64(request.RightPower)),
		tx.PureU64(entry_fee),
	)
	return tx
}

type Refresher interface {
	Refresh(ctx context.Context) bool
}

// Creator submits new battles and refreshes the listing once they are on the ledger.
type Creator struct {
	submitter  Submitter
	refresher  Refresher
	target     string
	gas_budget uint64
}

func NewCreator(submitter Submitter, refresher Refresher, target string, gas_budget uint64) *Creator {
	return &Creator{
		submitter:  submitter,
		refresher:  refresher,
		target:     target,
		gas_budget: gas_budget,
	}
}

func (c *Creator) Create(ctx context.Context, sender string, request CreateRequest) (string, error) {
	if sender == "" {
		return "", ErrWalletNotConnected
	}
	fee, err := request.Validate()
	if err != nil {
		return "", err
	}

	tx := BuildCreateTransaction(c.target, sender, c.gas_budget, request, fee)
	digest, err := c.submitter.Submit(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("failed to submit create transaction: %w", err)
	}
	slog.Info("Battle created", "digest", digest, "left", request.LeftName, "right", request.RightName, "entry_fee", fee)

	if c.refresher != nil {
		go func() {
			refresh_ctx, cancel := context.WithTimeout(context.Background(), REFRESH_AFTER_CREATE_TO)
			defer cancel()
			c.refresher.Refresh(refresh_ctx)
		}()
	}
	return digest, nil
}
