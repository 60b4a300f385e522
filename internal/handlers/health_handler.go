package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// HealthHandler reports the state of the service's dependencies. Required
// checks failing make the service unhealthy; optional ones only degrade it.
type HealthHandler struct {
	required map[string]Check
	optional map[string]Check
	timeout  time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(required, optional map[string]Check) *HealthHandler {
	return &HealthHandler{
		required: required,
		optional: optional,
		timeout:  2 * time.Second,
	}
}

// RegisterRoutes registers GET /health.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth runs every check and reports the result.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	status, code := "healthy", fiber.StatusOK
	checks := make(fiber.Map, len(h.required)+len(h.optional))
	for name, check := range h.optional {
		checks[name] = "ok"
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = "degraded"
		}
	}
	for name, check := range h.required {
		checks[name] = "ok"
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status, code = "unhealthy", fiber.StatusServiceUnavailable
		}
	}

	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
		"checks": checks,
	})
}
