package api

import (
	"errors"
	"time"

	"github.com/bobby-s-dev/weather-widget/internal/models"
	"github.com/bobby-s-dev/weather-widget/internal/scheduler"
	"github.com/bobby-s-dev/weather-widget/internal/services"
	"github.com/bobby-s-dev/weather-widget/internal/widget"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Handler struct {
	sessions *services.SessionStore
	janitor  *scheduler.Scheduler
	logger   *zap.Logger
}

type widgetResponse struct {
	ID string `json:"id"`
	models.View
}

type queryRequest struct {
	Text string `json:"text"`
}

type selectRequest struct {
	Index *int `json:"index"`
}

func NewHandler(sessions *services.SessionStore, janitor *scheduler.Scheduler, logger *zap.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		janitor:  janitor,
		logger:   logger,
	}
}

// CreateWidget handles POST /api/v1/widgets
func (h *Handler) CreateWidget(c *fiber.Ctx) error {
	id, w := h.sessions.Create()
	h.logger.Info("Widget session created", zap.String("session", id))

	return c.Status(fiber.StatusCreated).JSON(widgetResponse{ID: id, View: w.Snapshot()})
}

// GetWidget handles GET /api/v1/widgets/:id
func (h *Handler) GetWidget(c *fiber.Ctx) error {
	w, ok := h.sessions.Get(c.Params("id"))
	if !ok {
		return notFound(c)
	}
	return c.JSON(widgetResponse{ID: c.Params("id"), View: w.Snapshot()})
}

// UpdateQuery handles PUT /api/v1/widgets/:id/query
func (h *Handler) UpdateQuery(c *fiber.Ctx) error {
	w, ok := h.sessions.Get(c.Params("id"))
	if !ok {
		return notFound(c)
	}

	var req queryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Body must be JSON with a text field",
		})
	}

	w.Input(req.Text)
	return c.JSON(widgetResponse{ID: c.Params("id"), View: w.Snapshot()})
}

// Search handles POST /api/v1/widgets/:id/search
func (h *Handler) Search(c *fiber.Ctx) error {
	w, ok := h.sessions.Get(c.Params("id"))
	if !ok {
		return notFound(c)
	}

	view, err := w.Submit(c.UserContext())
	if err != nil {
		h.logger.Info("Weather search failed",
			zap.String("session", c.Params("id")),
			zap.String("query", view.Query),
			zap.Error(err))
	}

	// The failure is part of the view, so the request itself succeeded.
	return c.JSON(widgetResponse{ID: c.Params("id"), View: view})
}

// Select handles POST /api/v1/widgets/:id/select
func (h *Handler) Select(c *fiber.Ctx) error {
	w, ok := h.sessions.Get(c.Params("id"))
	if !ok {
		return notFound(c)
	}

	var req selectRequest
	if err := c.BodyParser(&req); err != nil || req.Index == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Body must be JSON with an index field",
		})
	}

	view, err := w.Select(c.UserContext(), *req.Index)
	if errors.Is(err, widget.ErrNoSuchSuggestion) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No suggestion at that index",
			"index": *req.Index,
		})
	}
	if err != nil {
		h.logger.Info("Weather lookup for suggestion failed",
			zap.String("session", c.Params("id")),
			zap.Int("index", *req.Index),
			zap.Error(err))
	}

	return c.JSON(widgetResponse{ID: c.Params("id"), View: view})
}

// DeleteWidget handles DELETE /api/v1/widgets/:id
func (h *Handler) DeleteWidget(c *fiber.Ctx) error {
	if !h.sessions.Delete(c.Params("id")) {
		return notFound(c)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Highlight handles GET /api/v1/highlight
func (h *Handler) Highlight(c *fiber.Ctx) error {
	return c.JSON(widget.Highlight(c.Query("text"), c.Query("q")))
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now(),
		"uptime":    time.Since(startTime).String(),
		"sessions":  h.sessions.Len(),
	})
}

// GetMetrics handles GET /api/v1/metrics
func (h *Handler) GetMetrics(c *fiber.Ctx) error {
	metrics := fiber.Map{
		"sessions": h.sessions.GetStats(),
	}
	if h.janitor != nil {
		metrics["janitor"] = h.janitor.GetStatus()
	}

	return c.JSON(fiber.Map{
		"metrics":   metrics,
		"timestamp": time.Now(),
	})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "Widget session not found",
		"id":    c.Params("id"),
	})
}

var startTime = time.Now()
