package services

import (
	"battlearena/lib/battles"
	"context"
	"math"
	"math/big"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
)

func TestDisconnectedCache(t *testing.T) {
	cache := DefaultCache()
	ctx := context.Background()

	assert.False(t, cache.Health())
	assert.ErrorIs(t, cache.StoreSnapshot(ctx, battles.Snapshot{}), ErrNilCache)
	_, _, err := cache.LoadSnapshot(ctx)
	assert.ErrorIs(t, err, ErrNilCache)
	assert.ErrorIs(t, cache.PublishOutcome(ctx, battles.Outcome{SessionID: "s"}), ErrNilCache)

	_, ok := cache.GetBattle(ctx, "0x1")
	assert.False(t, ok)
	_, ok = cache.GetResult(ctx, "D")
	assert.False(t, ok)
	cache.SetResult(ctx, "D", &battles.ResultEvent{})
	assert.NoError(t, cache.Close())

	assert.ErrorIs(t, cache.Connect("", "arena", ""), ErrNilCache)
}

func TestDisconnectedDatabase(t *testing.T) {
	db := DefaultDatabase()
	assert.False(t, db.Health())

	_, err := db.InsertOutcome(context.Background(), battles.Outcome{})
	assert.ErrorIs(t, err, ErrNilDatabase)
	_, err = db.RecentOutcomes(context.Background(), "", 10)
	assert.ErrorIs(t, err, ErrNilDatabase)
	db.Close()
}

func TestMistNumeric(t *testing.T) {
	numeric := MistNumeric(250_000_000)
	assert.True(t, numeric.Valid)
	assert.Zero(t, numeric.Exp)

	mist, err := NumericMist(numeric)
	assert.NoError(t, err)
	assert.Equal(t, uint64(250_000_000), mist)

	mist, err = NumericMist(pgtype.Numeric{Int: big.NewInt(25), Exp: 7, Valid: true})
	assert.NoError(t, err)
	assert.Equal(t, uint64(250_000_000), mist)

	mist, err = NumericMist(MistNumeric(math.MaxUint64))
	assert.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), mist)

	_, err = NumericMist(pgtype.Numeric{Int: big.NewInt(15), Exp: -1, Valid: true})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = NumericMist(pgtype.Numeric{Int: big.NewInt(-1), Valid: true})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = NumericMist(pgtype.Numeric{Int: new(big.Int).Lsh(big.NewInt(1), 64), Valid: true})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = NumericMist(pgtype.Numeric{})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestConcurrentConnectionState(t *testing.T) {
	cache := DefaultCache()
	db := DefaultDatabase()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.False(t, cache.Connected())
			assert.Nil(t, cache.Client())
			assert.False(t, db.Connected())
			assert.Nil(t, db.Pool())
			assert.NoError(t, cache.Close())
			db.Close()
		}()
	}
	wg.Wait()

	var missing *Cache
	assert.False(t, missing.Connected())
	assert.NoError(t, missing.Close())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "battle:outcome:abc", OutcomeChannel("abc"))
	assert.Equal(t, "battle:detail:0x1", battleDetailKey("0x1"))
	assert.Equal(t, "battle:result:D", battleResultKey("D"))
	assert.Equal(t, "postgres://arena:pw@db:5432/arena?sslmode=disable", DatabaseUri("arena", "pw", "db:5432", "arena"))
}

func TestCacheBacksResolver(t *testing.T) {
	var _ battles.ResultCache = &Cache{}
}
