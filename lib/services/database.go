package services

import (
	"battlearena/lib/battles"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrNilDatabase   = errors.New("database is not connected")
	ErrInvalidAmount = errors.New("stored amount is not a MIST amount")
)

const OUTCOMES_SCHEMA = `
CREATE TABLE IF NOT EXISTS battle_outcomes (
	id                UUID PRIMARY KEY,
	session_id        TEXT NOT NULL UNIQUE,
	battle_id         TEXT NOT NULL,
	player            TEXT NOT NULL,
	side              TEXT NOT NULL,
	entry_fee         NUMERIC(20, 0) NOT NULL,
	digest            TEXT NOT NULL,
	winner            TEXT NOT NULL DEFAULT '',
	winning_coin_name TEXT NOT NULL DEFAULT '',
	did_win           BOOLEAN,
	revealed_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS battle_outcomes_revealed_at_idx ON battle_outcomes (revealed_at DESC);
CREATE INDEX IF NOT EXISTS battle_outcomes_player_idx ON battle_outcomes (lower(player));
`

type Database struct {
	pool atomic.Pointer[pgxpool.Pool]
}

func DefaultDatabase() *Database {
	return &Database{}
}

// Pool is the connection pool, nil until Connect succeeds.
func (db *Database) Pool() *pgxpool.Pool {
	if db == nil {
		return nil
	}
	return db.pool.Load()
}

func DatabaseUri(user string, password string, address string, name string) string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", user, password, address, name)
}

func (db *Database) Connect(uri string) error {
	config, err := pgxpool.ParseConfig(uri)
	if err != nil {
		return fmt.Errorf("failed to parse database uri: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, OUTCOMES_SCHEMA); err != nil {
		pool.Close()
		return fmt.Errorf("failed to create outcome journal: %w", err)
	}

	if previous := db.pool.Swap(pool); previous != nil {
		previous.Close()
	}
	slog.Info("Db connection succeeded")
	return nil
}

func (db *Database) Connected() bool {
	return db.Pool() != nil
}

func (db *Database) Health() bool {
	pool := db.Pool()
	if pool == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	return pool.Ping(ctx) == nil
}

func (db *Database) Close() {
	if db == nil {
		return
	}
	if pool := db.pool.Swap(nil); pool != nil {
		pool.Close()
	}
}

// InsertOutcome journals a revealed session. Replays of the same session are ignored.
func (db *Database) InsertOutcome(ctx context.Context, outcome battles.Outcome) (bool, error) {
	pool := db.Pool()
	if pool == nil {
		return false, ErrNilDatabase
	}
	query_ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tag, err := pool.Exec(query_ctx, `
		INSERT INTO battle_outcomes
			(id, session_id, battle_id, player, side, entry_fee, digest, winner, winning_coin_name, did_win, revealed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (session_id) DO NOTHING`,
		uuid.New(),
		outcome.SessionID,
		outcome.BattleID,
		outcome.Player,
		string(outcome.Side),
		MistNumeric(outcome.EntryFee),
		outcome.Digest,
		outcome.Winner,
		outcome.WinningCoinName,
		outcome.DidWin,
		outcome.RevealedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to store the battle outcome: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// RecentOutcomes lists the latest journaled outcomes, optionally for a single player.
func (db *Database) RecentOutcomes(ctx context.Context, player string, limit int) ([]battles.Outcome, error) {
	pool := db.Pool()
	if pool == nil {
		return nil, ErrNilDatabase
	}
	query_ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := pool.Query(query_ctx, `
		SELECT session_id, battle_id, player, side, entry_fee, digest, winner, winning_coin_name, did_win, revealed_at
		FROM battle_outcomes
		WHERE $1 = '' OR lower(player) = lower($1)
		ORDER BY revealed_at DESC
		LIMIT $2`, player, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}

	outcomes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (battles.Outcome, error) {
		var outcome battles.Outcome
		var side string
		var entry_fee pgtype.Numeric
		err := row.Scan(
			&outcome.SessionID,
			&outcome.BattleID,
			&outcome.Player,
			&side,
			&entry_fee,
			&outcome.Digest,
			&outcome.Winner,
			&outcome.WinningCoinName,
			&outcome.DidWin,
			&outcome.RevealedAt,
		)
		if err != nil {
			return outcome, err
		}
		outcome.Side = battles.Side(side)
		outcome.EntryFee, err = NumericMist(entry_fee)
		return outcome, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read outcomes: %w", err)
	}
	return outcomes, nil
}

func MistNumeric(mist uint64) pgtype.Numeric {
	return pgtype.Numeric{Int: new(big.Int).SetUint64(mist), Valid: true}
}

// NumericMist reads a NUMERIC column back into MIST. Postgres may hand the value back
// with a non zero exponent, e.g. 25e7.
func NumericMist(value pgtype.Numeric) (uint64, error) {
	if !value.Valid || value.NaN || value.InfinityModifier != pgtype.Finite || value.Int == nil {
		return 0, ErrInvalidAmount
	}
	amount := decimal.NewFromBigInt(value.Int, value.Exp)
	if !amount.IsInteger() || amount.IsNegative() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	mist := amount.BigInt()
	if !mist.IsUint64() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	return mist.Uint64(), nil
}
