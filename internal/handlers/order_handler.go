package handlers

import (
	"catalog/internal/models"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrderHandler accepts placed orders over HTTP, for checkouts that do not
// publish to RabbitMQ.
type OrderHandler struct {
	service *services.OrderService
	logger  *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, logger *zap.Logger) *OrderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", h.HandleOrderPlaced)
}

// HandleOrderPlaced records the purchases of a placed order.
func (h *OrderHandler) HandleOrderPlaced(c *fiber.Ctx) error {
	var order models.OrderPlaced
	if err := c.BodyParser(&order); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if order.OrderID == "" || len(order.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "order_id and at least one item are required",
		})
	}

	if err := h.service.RecordOrder(c.UserContext(), order); err != nil {
		h.logger.Error("failed to record order", zap.String("order_id", order.OrderID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not record order",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"order_id": order.OrderID,
		"recorded": true,
	})
}
