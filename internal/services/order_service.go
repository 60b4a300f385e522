package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"catalog/internal/models"
	"catalog/pkg/rabbitmq"

	"go.uber.org/zap"
)

// OrderService keeps purchase counts in step with orders placed by the
// checkout service.
type OrderService struct {
	products *ProductService
	logger   *zap.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(products *ProductService, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		products: products,
		logger:   logger,
	}
}

// HandleMessage decodes an order.placed message body and records it.
// Undecodable bodies are marked with rabbitmq.ErrDiscard so they are not redelivered.
func (s *OrderService) HandleMessage(ctx context.Context, body []byte) error {
	var order models.OrderPlaced
	if err := json.Unmarshal(body, &order); err != nil {
		return fmt.Errorf("decode order message: %w: %w", rabbitmq.ErrDiscard, err)
	}
	return s.RecordOrder(ctx, order)
}

// RecordOrder adds each line's quantity to its product's purchase count.
// Lines for unknown products or with a non-positive quantity are skipped.
func (s *OrderService) RecordOrder(ctx context.Context, order models.OrderPlaced) error {
	recorded := 0
	for _, item := range order.Items {
		err := s.products.RecordPurchase(ctx, item.ProductID, item.Quantity)
		switch {
		case err == nil:
			recorded++
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation):
			s.logger.Warn("skipping order line",
				zap.String("order_id", order.OrderID),
				zap.Uint("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		default:
			return fmt.Errorf("failed to record order %s: %w", order.OrderID, err)
		}
	}

	s.logger.Info("order recorded",
		zap.String("order_id", order.OrderID),
		zap.Int("lines", len(order.Items)),
		zap.Int("recorded", recorded))
	return nil
}
