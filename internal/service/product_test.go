package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judyrop/shop-backend/internal/model"
)

func TestProductCreateValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)

	_, err := svc.Create(context.Background(), model.Product{Price: 10})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), model.Product{Name: "Mug", Price: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), model.Product{Name: "Mug", Price: 10, Stock: -5})
	assert.ErrorIs(t, err, ErrInvalidInput)

	p, err := svc.Create(context.Background(), model.Product{Name: "Mug", Price: 9.99, Stock: 3})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
}

func TestProductPartialUpdate(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)
	p := seedProduct(t, db, "Mug", 9.99, 3)

	newPrice := 12.50
	got, err := svc.Update(context.Background(), p.ID, ProductUpdate{Price: &newPrice})
	require.NoError(t, err)
	assert.InDelta(t, 12.50, got.Price, 0.001)
	assert.Equal(t, "Mug", got.Name, "untouched fields keep their values")
	assert.Equal(t, 3, got.Stock)

	// An update with no fields set is rejected, not silently accepted.
	_, err = svc.Update(context.Background(), p.ID, ProductUpdate{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	negative := -1.0
	_, err = svc.Update(context.Background(), p.ID, ProductUpdate{Price: &negative})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Update(context.Background(), 9999, ProductUpdate{Price: &newPrice})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductListFilters(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)
	cats := NewCategoryService(db)

	mug := seedProduct(t, db, "Coffee Mug", 9.99, 3)
	seedProduct(t, db, "Desk Lamp", 25, 5)
	seedProduct(t, db, "Mugwort Tea", 4, 50)

	kitchen, err := cats.Create(context.Background(), "Kitchen")
	require.NoError(t, err)
	require.NoError(t, cats.AttachProduct(context.Background(), kitchen.ID, mug.ID))

	all, err := svc.List(context.Background(), ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Substring match is case-insensitive and hits name or description.
	found, err := svc.List(context.Background(), ProductFilter{Search: "mug"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	byCat, err := svc.List(context.Background(), ProductFilter{CategoryID: kitchen.ID})
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	assert.Equal(t, mug.ID, byCat[0].ID)

	paged, err := svc.List(context.Background(), ProductFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, paged, 2)

	none, err := svc.List(context.Background(), ProductFilter{Search: "nonexistent"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestProductDelete(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)
	p := seedProduct(t, db, "Mug", 9.99, 3)

	require.NoError(t, svc.Delete(context.Background(), p.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), p.ID), ErrNotFound)

	_, err := svc.Get(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCategoryCRUDAndMembership(t *testing.T) {
	db := newTestDB(t)
	svc := NewCategoryService(db)
	product := seedProduct(t, db, "Mug", 9.99, 3)

	_, err := svc.Create(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	cat, err := svc.Create(context.Background(), "Kitchen")
	require.NoError(t, err)

	renamed, err := svc.Update(context.Background(), cat.ID, "Kitchenware")
	require.NoError(t, err)
	assert.Equal(t, "Kitchenware", renamed.Name)

	require.NoError(t, svc.AttachProduct(context.Background(), cat.ID, product.ID))
	assert.ErrorIs(t, svc.AttachProduct(context.Background(), cat.ID, 9999), ErrNotFound)
	assert.ErrorIs(t, svc.AttachProduct(context.Background(), 9999, product.ID), ErrNotFound)

	members, err := svc.Products(context.Background(), cat.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, product.ID, members[0].ID)

	require.NoError(t, svc.DetachProduct(context.Background(), cat.ID, product.ID))
	assert.ErrorIs(t, svc.DetachProduct(context.Background(), cat.ID, product.ID), ErrNotFound)

	members, err = svc.Products(context.Background(), cat.ID)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestCategoryDeleteKeepsProducts(t *testing.T) {
	db := newTestDB(t)
	svc := NewCategoryService(db)
	products := NewProductService(db)
	product := seedProduct(t, db, "Mug", 9.99, 3)

	cat, err := svc.Create(context.Background(), "Kitchen")
	require.NoError(t, err)
	require.NoError(t, svc.AttachProduct(context.Background(), cat.ID, product.ID))

	require.NoError(t, svc.Delete(context.Background(), cat.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), cat.ID), ErrNotFound)

	// The product survives; only the join row is gone.
	_, err = products.Get(context.Background(), product.ID)
	assert.NoError(t, err)

	var joins int64
	db.Table("product_categories").Count(&joins)
	assert.Equal(t, int64(0), joins)
}
