package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judyrop/shop-backend/internal/model"
)

func TestOrderPlaceSnapshotsPrices(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, noopMailer())
	user := seedUser(t, db, "alice", model.RoleCustomer)
	product := seedProduct(t, db, "Widget", 10.00, 50)

	order, err := svc.Place(context.Background(), user.ID, []OrderLine{
		{ProductID: product.ID, Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.InDelta(t, 20.00, order.TotalPrice, 0.001)
	require.Len(t, order.Items, 1)
	assert.InDelta(t, 10.00, order.Items[0].UnitPrice, 0.001)

	// A later price change must not touch the placed order.
	require.NoError(t, db.Model(&model.Product{}).Where("id = ?", product.ID).Update("price", 99.0).Error)
	got, err := svc.Get(context.Background(), order.ID, user.ID, model.RoleCustomer)
	require.NoError(t, err)
	assert.InDelta(t, 20.00, got.TotalPrice, 0.001)
	assert.InDelta(t, 10.00, got.Items[0].UnitPrice, 0.001)
}

func TestOrderPlaceDoesNotDecrementStock(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, noopMailer())
	user := seedUser(t, db, "bob", model.RoleCustomer)
	product := seedProduct(t, db, "Widget", 5, 7)

	_, err := svc.Place(context.Background(), user.ID, []OrderLine{
		{ProductID: product.ID, Quantity: 3},
	})
	require.NoError(t, err)

	var got model.Product
	require.NoError(t, db.First(&got, product.ID).Error)
	assert.Equal(t, 7, got.Stock, "placing an order leaves stock untouched")
}

func TestOrderPlaceRollsBackOnMissingProduct(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, noopMailer())
	user := seedUser(t, db, "carol", model.RoleCustomer)
	product := seedProduct(t, db, "Widget", 5, 10)

	_, err := svc.Place(context.Background(), user.ID, []OrderLine{
		{ProductID: product.ID, Quantity: 1},
		{ProductID: 9999, Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	// Nothing from the failed order survives, including the valid line.
	var orders, lines int64
	db.Model(&model.Order{}).Count(&orders)
	db.Model(&model.OrderItem{}).Count(&lines)
	assert.Equal(t, int64(0), orders)
	assert.Equal(t, int64(0), lines)
}

func TestOrderPlaceValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, noopMailer())
	user := seedUser(t, db, "dave", model.RoleCustomer)
	product := seedProduct(t, db, "Widget", 5, 10)

	_, err := svc.Place(context.Background(), user.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Place(context.Background(), user.ID, []OrderLine{{ProductID: product.ID, Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Place(context.Background(), user.ID, []OrderLine{{ProductID: 0, Quantity: 1}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOrderGetAuthorization(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, noopMailer())
	owner := seedUser(t, db, "erin", model.RoleCustomer)
	stranger := seedUser(t, db, "frank", model.RoleCustomer)
	admin := seedUser(t, db, "root", model.RoleAdmin)
	product := seedProduct(t, db, "Widget", 5, 10)

	order, err := svc.Place(context.Background(), owner.ID, []OrderLine{{ProductID: product.ID, Quantity: 1}})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), order.ID, owner.ID, model.RoleCustomer)
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), order.ID, stranger.ID, model.RoleCustomer)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Get(context.Background(), order.ID, admin.ID, model.RoleAdmin)
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), 9999, owner.ID, model.RoleCustomer)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderListsReportEmptyAsNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, noopMailer())
	user := seedUser(t, db, "grace", model.RoleCustomer)

	_, err := svc.ListByUser(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ListAll(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	product := seedProduct(t, db, "Widget", 5, 10)
	_, err = svc.Place(context.Background(), user.ID, []OrderLine{{ProductID: product.ID, Quantity: 1}})
	require.NoError(t, err)

	mine, err := svc.ListByUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestOrderUpdateStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, noopMailer())
	user := seedUser(t, db, "heidi", model.RoleCustomer)
	product := seedProduct(t, db, "Widget", 5, 10)

	order, err := svc.Place(context.Background(), user.ID, []OrderLine{{ProductID: product.ID, Quantity: 1}})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), order.ID, "teleported")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateStatus(context.Background(), order.ID, model.OrderShipped)
	require.NoError(t, err)

	// No transition graph: moving backward is allowed.
	_, err = svc.UpdateStatus(context.Background(), order.ID, model.OrderPending)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), 9999, model.OrderShipped)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderDeleteRemovesDependents(t *testing.T) {
	db := newTestDB(t)
	svc := NewOrderService(db, noopMailer())
	user := seedUser(t, db, "ivan", model.RoleCustomer)
	product := seedProduct(t, db, "Widget", 5, 10)

	order, err := svc.Place(context.Background(), user.ID, []OrderLine{{ProductID: product.ID, Quantity: 2}})
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.Payment{
		OrderID: order.ID, PaymentMethod: "paypal", Status: model.PaymentPending,
	}).Error)

	require.NoError(t, svc.Delete(context.Background(), order.ID))

	var orders, lines, payments int64
	db.Model(&model.Order{}).Count(&orders)
	db.Model(&model.OrderItem{}).Count(&lines)
	db.Model(&model.Payment{}).Count(&payments)
	assert.Equal(t, int64(0), orders)
	assert.Equal(t, int64(0), lines)
	assert.Equal(t, int64(0), payments)

	assert.ErrorIs(t, svc.Delete(context.Background(), order.ID), ErrNotFound)
}
