package routes

import (
	"battlearena/lib/battles"
	"battlearena/lib/server/middleware"
	"battlearena/lib/services"
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	OUTCOMES_DEFAULT_LIMIT = 20
	OUTCOMES_MAX_LIMIT     = 100
)

type BattleView struct {
	battles.BattleRecord
	EntryFeeSui string `json:"entry_fee_sui"`
	ShortID     string `json:"short_id"`
}

func NewBattleView(record battles.BattleRecord) BattleView {
	return BattleView{
		BattleRecord: record,
		EntryFeeSui:  record.EntryFeeSui(),
		ShortID:      record.ShortID(),
	}
}

type BattleFetcher interface {
	Get(ctx context.Context, id string) (battles.BattleRecord, error)
}

func ListBattlesHandler(ctx *fiber.Ctx, poller *battles.Poller) error {
	snapshot := poller.Snapshot()
	views := make([]BattleView, 0, len(snapshot.Battles))
	for _, record := range snapshot.Battles {
		views = append(views, NewBattleView(record))
	}
	return ctx.JSON(fiber.Map{
		"battles":      views,
		"sequence":     snapshot.Sequence,
		"healthy":      snapshot.Healthy,
		"refreshed_at": snapshot.RefreshedAt,
	})
}

func GetBattleHandler(ctx *fiber.Ctx, fetcher BattleFetcher, cache *services.Cache) error {
	id := ctx.Params("id")
	if record, ok := cache.GetBattle(ctx.UserContext(), id); ok {
		return ctx.JSON(NewBattleView(record))
	}

	record, err := fetcher.Get(ctx.UserContext(), id)
	if err != nil {
		if errorStatus(err) == fiber.StatusBadGateway {
			slog.Error("Failed to fetch battle", "error", err, "battle_id", id)
		}
		return sendError(ctx, err)
	}
	if cache.Connected() {
		if err := cache.StoreBattle(ctx.UserContext(), record); err != nil {
			slog.Warn("Failed to cache battle", "error", err, "battle_id", id)
		}
	}
	return ctx.JSON(NewBattleView(record))
}

func CreateBattleHandler(ctx *fiber.Ctx, creator *battles.Creator) error {
	var request battles.CreateRequest
	if err := ctx.BodyParser(&request); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	address, err := middleware.GetWalletAddress(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	submit_ctx, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Minute)
	defer cancel()
	digest, err := creator.Create(submit_ctx, address, request)
	if err != nil {
		return sendError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"digest": digest,
	})
}

func RefreshBattlesHandler(ctx *fiber.Ctx, poller *battles.Poller) error {
	committed := poller.Refresh(ctx.UserContext())
	snapshot := poller.Snapshot()
	return ctx.JSON(fiber.Map{
		"committed": committed,
		"sequence":  snapshot.Sequence,
		"healthy":   snapshot.Healthy,
		"count":     len(snapshot.Battles),
	})
}

func RecentOutcomesHandler(ctx *fiber.Ctx, db *services.Database) error {
	if !db.Connected() {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "outcome journal is not available",
		})
	}
	limit := OUTCOMES_DEFAULT_LIMIT
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid limit",
			})
		}
		limit = min(parsed, OUTCOMES_MAX_LIMIT)
	}

	outcomes, err := db.RecentOutcomes(ctx.UserContext(), ctx.Query("player"), limit)
	if err != nil {
		slog.Error("Failed to read outcomes", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "cannot read outcomes",
		})
	}
	return ctx.JSON(fiber.Map{
		"outcomes": outcomes,
	})
}
