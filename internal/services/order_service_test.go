package services_test

import (
	"context"
	"errors"
	"testing"

	"catalog/internal/models"
	"catalog/internal/services"
	"catalog/pkg/rabbitmq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOrderService_HandleMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, _ := f.seedABC(t)
	orders := services.NewOrderService(f.svc, nil)

	body := []byte(`{"order_id":"o-1","items":[
		{"product_id":` + uintStr(a.ID) + `,"quantity":2},
		{"product_id":` + uintStr(b.ID) + `,"quantity":1},
		{"product_id":999,"quantity":4},
		{"product_id":` + uintStr(a.ID) + `,"quantity":0}
	]}`)
	require.NoError(t, orders.HandleMessage(ctx, body))

	got, err := f.svc.GetProductByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.PurchaseCount)
	got, err = f.svc.GetProductByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.PurchaseCount)
}

func TestOrderService_HandleMessage_Malformed(t *testing.T) {
	f := newFixture(t)
	orders := services.NewOrderService(f.svc, nil)

	err := orders.HandleMessage(context.Background(), []byte(`not json`))
	assert.ErrorIs(t, err, rabbitmq.ErrDiscard)
}

func TestOrderService_RecordOrder_StoreFailure(t *testing.T) {
	mockRepo := new(MockProductRepository)
	products := services.NewProductService(mockRepo, nil, nil, nil, nil, services.ProductServiceConfig{})
	orders := services.NewOrderService(products, nil)
	mockRepo.On("IncrementPurchaseCount", mock.Anything, uint(1), 3).Return(errors.New("deadlock detected")).Once()

	err := orders.RecordOrder(context.Background(), models.OrderPlaced{
		OrderID: "o-2",
		Items:   []models.OrderItem{{ProductID: 1, Quantity: 3}},
	})
	assert.ErrorIs(t, err, services.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, rabbitmq.ErrDiscard)
	mockRepo.AssertExpectations(t)
}
