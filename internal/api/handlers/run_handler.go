package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/devpulse/backend/internal/engine"
	"github.com/devpulse/backend/internal/model"
	"github.com/devpulse/backend/internal/normalize"
	"github.com/devpulse/backend/internal/storage/sqlite"
	"github.com/devpulse/backend/pkg/logger"
)

const defaultHistoryLimit = 20

type RunHandler struct {
	engine *engine.Engine
	store  *sqlite.Client
	events *RunEventHub
}

func NewRunHandler(eng *engine.Engine, store *sqlite.Client, events *RunEventHub) *RunHandler {
	return &RunHandler{
		engine: eng,
		store:  store,
		events: events,
	}
}

func (h *RunHandler) HandleRun(c *fiber.Ctx) error {
	var req struct {
		Window model.Window    `json:"window"`
		Batch  normalize.Batch `json:"batch"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse run request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	h.events.Publish(RunEvent{Type: "run_started"})

	result, err := h.engine.Run(c.Context(), engine.RunRequest{
		Window: req.Window,
		Batch:  req.Batch,
	})
	if err != nil {
		h.events.Publish(RunEvent{Type: "run_failed", Error: err.Error()})

		switch {
		case errors.Is(err, engine.ErrInvalidWindow), errors.Is(err, engine.ErrNoEngineers):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			logger.Error("Analysis run failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Analysis run failed",
			})
		}
	}

	h.events.Publish(RunEvent{
		Type:     "run_completed",
		RunID:    result.RunID,
		Strategy: result.Strategy,
		Degraded: result.Degraded,
		Summary:  &result.Summary,
	})

	return c.JSON(result)
}

func (h *RunHandler) GetRun(c *fiber.Ctx) error {
	runID := c.Params("id")

	result, err := h.store.GetRun(runID)
	if err != nil {
		logger.Error("Failed to load run", zap.String("run_id", runID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load run",
		})
	}
	if result == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Run not found",
		})
	}

	return c.JSON(result)
}

func (h *RunHandler) GetRunHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultHistoryLimit)
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	listings, err := h.store.ListRuns(limit)
	if err != nil {
		logger.Error("Failed to list runs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list runs",
		})
	}

	return c.JSON(fiber.Map{
		"runs": listings,
	})
}

func (h *RunHandler) GetLatestSummary(c *fiber.Ctx) error {
	summary, err := h.store.LatestSummary()
	if err != nil {
		logger.Error("Failed to load latest summary", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load latest summary",
		})
	}
	if summary == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No runs recorded yet",
		})
	}

	return c.JSON(summary)
}
