package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	apperrors "resume-matcher/internal/errors"
	"resume-matcher/internal/repositories"
	"resume-matcher/internal/services"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

type HistoryHandler struct {
	runs        repositories.MatchRunRepository
	vectorStore services.VectorStoreService
}

func NewHistoryHandler(runs repositories.MatchRunRepository, vectorStore services.VectorStoreService) *HistoryHandler {
	return &HistoryHandler{
		runs:        runs,
		vectorStore: vectorStore,
	}
}

// HandleHistory returns recent match runs, newest first.
func (h *HistoryHandler) HandleHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultHistoryLimit)
	if limit < 1 || limit > maxHistoryLimit {
		return errorResponse(c, apperrors.NewValidation("limit must be within [1,100]"))
	}

	skip := c.QueryInt("skip", 0)
	if skip < 0 {
		return errorResponse(c, apperrors.NewValidation("skip must not be negative"))
	}

	runs, err := h.runs.List(limit, skip)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"runs":  runs,
		"count": len(runs),
	})
}

// HandleStatistics aggregates persisted runs and the vector index state.
func (h *HistoryHandler) HandleStatistics(c *fiber.Ctx) error {
	stats, err := h.runs.Statistics()
	if err != nil {
		return errorResponse(c, err)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 10*time.Second)
	defer cancel()

	// Index stats are best-effort; the run aggregates still answer without
	// the vector store.
	var index *services.IndexStats
	if indexStats, err := h.vectorStore.Stats(ctx); err == nil {
		index = indexStats
	}

	return c.JSON(fiber.Map{
		"runs":  stats,
		"index": index,
	})
}
