package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"gorm.io/gorm"

	"github.com/judyrop/shop-backend/internal/model"
)

// OrderLine is one requested line of a new order.
type OrderLine struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// OrderService converts line items into an immutable order snapshot. Placing
// an order does not decrement product stock: stock is reserved only at the
// cart-mutation boundary. That asymmetry is intentional and load-bearing for
// the cart's stock checks.
type OrderService interface {
	Place(ctx context.Context, userID uint, items []OrderLine) (model.Order, error)
	Get(ctx context.Context, orderID, requesterID uint, requesterRole string) (model.Order, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	UpdateStatus(ctx context.Context, orderID uint, status string) (model.Order, error)
	Delete(ctx context.Context, orderID uint) error
}

type orderService struct {
	db     *gorm.DB
	mailer EmailService
}

func NewOrderService(db *gorm.DB, mailer EmailService) OrderService {
	return &orderService{db: db, mailer: mailer}
}

func (s *orderService) Place(ctx context.Context, userID uint, items []OrderLine) (model.Order, error) {
	if len(items) == 0 {
		return model.Order{}, fmt.Errorf("%w: order items are required", ErrInvalidInput)
	}
	for _, it := range items {
		if it.ProductID == 0 || it.Quantity <= 0 {
			return model.Order{}, fmt.Errorf("%w: each item must have a valid product_id and quantity", ErrInvalidInput)
		}
	}

	var order model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order = model.Order{UserID: userID, Status: model.OrderPending, TotalPrice: 0}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		// Capture each product's price at this instant; any missing product
		// rolls back the whole order.
		var total float64
		for _, it := range items {
			var product model.Product
			if err := tx.First(&product, it.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product %d", ErrNotFound, it.ProductID)
				}
				return err
			}
			line := model.OrderItem{
				OrderID:   order.ID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: product.Price,
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
			order.Items = append(order.Items, line)
			total += product.Price * float64(it.Quantity)
		}

		order.TotalPrice = total
		return tx.Model(&model.Order{}).Where("id = ?", order.ID).
			Update("total_price", total).Error
	})
	if err != nil {
		return model.Order{}, err
	}

	// Confirmation mail is best-effort, outside the transaction.
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err == nil {
		_ = s.mailer.SendOrderConfirmation(user.Email, user.Username, order.ID, order.TotalPrice)
	}
	return order, nil
}

func (s *orderService) Get(ctx context.Context, orderID, requesterID uint, requesterRole string) (model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	if err != nil {
		return model.Order{}, err
	}
	if requesterRole != model.RoleAdmin && order.UserID != requesterID {
		return model.Order{}, fmt.Errorf("%w: not your order", ErrForbidden)
	}
	return order, nil
}

func (s *orderService) ListByUser(ctx context.Context, userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: no orders for this user", ErrNotFound)
	}
	return orders, nil
}

func (s *orderService) ListAll(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: no orders", ErrNotFound)
	}
	return orders, nil
}

// UpdateStatus accepts any member of the closed status set; there is no
// transition graph, so moving backward (delivered -> pending) is allowed.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uint, status string) (model.Order, error) {
	if !slices.Contains(model.OrderStatuses, status) {
		return model.Order{}, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, status)
	}
	var order model.Order
	err := s.db.WithContext(ctx).First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	if err != nil {
		return model.Order{}, err
	}
	if err := s.db.WithContext(ctx).Model(&order).Update("status", status).Error; err != nil {
		return model.Order{}, err
	}
	return order, nil
}

func (s *orderService) Delete(ctx context.Context, orderID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Order{}, orderID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		// sqlite in tests does not enforce the FK cascade, so clean up
		// dependents explicitly.
		if err := tx.Where("order_id = ?", orderID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Where("order_id = ?", orderID).Delete(&model.Payment{}).Error
	})
}
