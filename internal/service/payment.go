package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"gorm.io/gorm"

	"github.com/judyrop/shop-backend/internal/model"
)

// PaymentService manages the payment record bound 1:1 to an order. The
// payment's status lifecycle is independent of the order's. Ownership is
// always derived through the order's user_id.
type PaymentService interface {
	Create(ctx context.Context, orderID uint, method string, requesterID uint, requesterRole string) (model.Payment, error)
	Get(ctx context.Context, paymentID, requesterID uint, requesterRole string) (model.Payment, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Payment, error)
	ListAll(ctx context.Context) ([]model.Payment, error)
	UpdateStatus(ctx context.Context, paymentID uint, status string, requesterID uint, requesterRole string) (model.Payment, error)
}

type paymentService struct{ db *gorm.DB }

func NewPaymentService(db *gorm.DB) PaymentService { return &paymentService{db: db} }

func (s *paymentService) Create(ctx context.Context, orderID uint, method string, requesterID uint, requesterRole string) (model.Payment, error) {
	if !slices.Contains(model.PaymentMethods, method) {
		return model.Payment{}, fmt.Errorf("%w: invalid payment method %q", ErrInvalidInput, method)
	}

	var payment model.Payment
	// The order-existence check and the insert share a transaction so a
	// payment cannot be created for an order deleted mid-request.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}
		if requesterRole != model.RoleAdmin && order.UserID != requesterID {
			return fmt.Errorf("%w: not your order", ErrForbidden)
		}

		var count int64
		if err := tx.Model(&model.Payment{}).Where("order_id = ?", orderID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicatePayment
		}

		payment = model.Payment{
			OrderID:       orderID,
			PaymentMethod: method,
			Status:        model.PaymentPending,
			PaidAt:        nil,
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		return model.Payment{}, err
	}
	return payment, nil
}

func (s *paymentService) Get(ctx context.Context, paymentID, requesterID uint, requesterRole string) (model.Payment, error) {
	var payment model.Payment
	err := s.db.WithContext(ctx).First(&payment, paymentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Payment{}, fmt.Errorf("%w: payment %d", ErrNotFound, paymentID)
	}
	if err != nil {
		return model.Payment{}, err
	}
	if err := s.authorize(ctx, payment.OrderID, requesterID, requesterRole); err != nil {
		return model.Payment{}, err
	}
	return payment, nil
}

func (s *paymentService) ListByUser(ctx context.Context, userID uint) ([]model.Payment, error) {
	var payments []model.Payment
	err := s.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = payments.order_id").
		Where("orders.user_id = ?", userID).
		Order("payments.created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, fmt.Errorf("%w: no payments for this user", ErrNotFound)
	}
	return payments, nil
}

func (s *paymentService) ListAll(ctx context.Context) ([]model.Payment, error) {
	var payments []model.Payment
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&payments).Error; err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, fmt.Errorf("%w: no payments", ErrNotFound)
	}
	return payments, nil
}

// UpdateStatus sets paid_at on every transition, including to failed. That
// matches the system this replaces; treat it as the contract until the
// product owner says otherwise.
func (s *paymentService) UpdateStatus(ctx context.Context, paymentID uint, status string, requesterID uint, requesterRole string) (model.Payment, error) {
	if !slices.Contains(model.PaymentStatuses, status) {
		return model.Payment{}, fmt.Errorf("%w: invalid payment status %q", ErrInvalidInput, status)
	}

	var payment model.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: payment %d", ErrNotFound, paymentID)
			}
			return err
		}

		var order model.Order
		if err := tx.First(&order, payment.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, payment.OrderID)
			}
			return err
		}
		if requesterRole != model.RoleAdmin && order.UserID != requesterID {
			return fmt.Errorf("%w: not your payment", ErrForbidden)
		}

		now := time.Now()
		payment.Status = status
		payment.PaidAt = &now
		return tx.Model(&payment).Updates(map[string]any{
			"payment_status": status,
			"paid_at":        now,
		}).Error
	})
	if err != nil {
		return model.Payment{}, err
	}
	return payment, nil
}

func (s *paymentService) authorize(ctx context.Context, orderID, requesterID uint, requesterRole string) error {
	var order model.Order
	err := s.db.WithContext(ctx).First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	if err != nil {
		return err
	}
	if requesterRole != model.RoleAdmin && order.UserID != requesterID {
		return fmt.Errorf("%w: not your payment", ErrForbidden)
	}
	return nil
}
