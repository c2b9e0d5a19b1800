package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/judyrop/shop-backend/internal/model"
)

// CartService owns the per-user cart: one row per (user, product), merged on
// repeated adds. Stock is validated against the prospective quantity inside a
// transaction, so two adds racing toward the stock limit cannot both pass the
// check before either writes.
type CartService interface {
	Add(ctx context.Context, userID, productID uint, quantity int) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, cartItemID uint, quantity int) error
	Remove(ctx context.Context, userID, cartItemID uint) error
	Clear(ctx context.Context, userID uint) (int64, error)
	Get(ctx context.Context, userID uint) ([]model.CartItem, error)
	Summary(ctx context.Context, userID uint) (CartSummary, error)
}

// CartSummary reflects live product prices, unlike order totals which are
// snapshotted at placement.
type CartSummary struct {
	ItemCount     int     `json:"itemCount"`
	TotalQuantity int     `json:"totalQuantity"`
	TotalAmount   float64 `json:"totalAmount"`
}

type cartService struct{ db *gorm.DB }

func NewCartService(db *gorm.DB) CartService { return &cartService{db: db} }

func (s *cartService) Add(ctx context.Context, userID, productID uint, quantity int) (model.CartItem, error) {
	if quantity <= 0 {
		return model.CartItem{}, fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidInput)
	}

	var item model.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product model.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %d", ErrNotFound, productID)
			}
			return err
		}
		if product.Stock < quantity {
			return ErrInsufficientStock
		}

		err := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = model.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
			return tx.Create(&item).Error
		case err != nil:
			return err
		}

		// Merge: the stock check uses the prospective merged quantity.
		merged := item.Quantity + quantity
		if product.Stock < merged {
			return ErrInsufficientStock
		}
		item.Quantity = merged
		return tx.Save(&item).Error
	})
	if err != nil {
		return model.CartItem{}, err
	}
	return item, nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID, cartItemID uint, quantity int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Ownership is part of the lookup: another user's item is
		// indistinguishable from a missing one.
		var item model.CartItem
		err := tx.Where("id = ? AND user_id = ?", cartItemID, userID).First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: cart item %d", ErrNotFound, cartItemID)
		}
		if err != nil {
			return err
		}

		if quantity <= 0 {
			return tx.Delete(&item).Error
		}

		var product model.Product
		if err := tx.First(&product, item.ProductID).Error; err != nil {
			return err
		}
		if product.Stock < quantity {
			return ErrInsufficientStock
		}
		return tx.Model(&item).Update("quantity", quantity).Error
	})
}

func (s *cartService) Remove(ctx context.Context, userID, cartItemID uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", cartItemID, userID).
		Delete(&model.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: cart item %d", ErrNotFound, cartItemID)
	}
	return nil
}

func (s *cartService) Clear(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.CartItem{})
	return res.RowsAffected, res.Error
}

func (s *cartService) Get(ctx context.Context, userID uint) ([]model.CartItem, error) {
	var items []model.CartItem
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

func (s *cartService) Summary(ctx context.Context, userID uint) (CartSummary, error) {
	var row struct {
		ItemCount     int
		TotalQuantity int
		TotalAmount   float64
	}
	err := s.db.WithContext(ctx).Model(&model.CartItem{}).
		Select("COUNT(cart_items.id) AS item_count, COALESCE(SUM(cart_items.quantity), 0) AS total_quantity, COALESCE(SUM(cart_items.quantity * products.price), 0) AS total_amount").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return CartSummary{}, err
	}
	return CartSummary{
		ItemCount:     row.ItemCount,
		TotalQuantity: row.TotalQuantity,
		TotalAmount:   row.TotalAmount,
	}, nil
}
