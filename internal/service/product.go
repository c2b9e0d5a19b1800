package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/judyrop/shop-backend/internal/model"
)

// ProductFilter narrows List. Search matches name or description
// case-insensitively by substring.
type ProductFilter struct {
	CategoryID uint
	Search     string
	Limit      int
	Offset     int
}

// ProductUpdate carries a partial update; nil fields are left untouched.
type ProductUpdate struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	ImageURL    *string  `json:"image_url"`
}

// ProductService does not mutate stock itself beyond admin edits; the cart's
// transactional checks are the only quantity-driven stock boundary.
type ProductService interface {
	Get(ctx context.Context, id uint) (model.Product, error)
	List(ctx context.Context, f ProductFilter) ([]model.Product, error)
	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, id uint, upd ProductUpdate) (model.Product, error)
	Delete(ctx context.Context, id uint) error
}

type productService struct{ db *gorm.DB }

func NewProductService(db *gorm.DB) ProductService { return &productService{db: db} }

func (s *productService) Get(ctx context.Context, id uint) (model.Product, error) {
	var p model.Product
	err := s.db.WithContext(ctx).Preload("Categories").First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	return p, err
}

func (s *productService) List(ctx context.Context, f ProductFilter) ([]model.Product, error) {
	q := s.db.WithContext(ctx).Model(&model.Product{}).Preload("Categories").Distinct()

	if f.CategoryID != 0 {
		q = q.Joins("JOIN product_categories pc ON pc.product_id = products.id").
			Where("pc.category_id = ?", f.CategoryID)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?", like, like)
	}
	q = q.Order("products.created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var products []model.Product
	return products, q.Find(&products).Error
}

func (s *productService) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if p.Name == "" {
		return model.Product{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if p.Price < 0 || p.Stock < 0 {
		return model.Product{}, fmt.Errorf("%w: price and stock must be non-negative", ErrInvalidInput)
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (s *productService) Update(ctx context.Context, id uint, upd ProductUpdate) (model.Product, error) {
	fields := map[string]any{}
	if upd.Name != nil {
		fields["name"] = *upd.Name
	}
	if upd.Description != nil {
		fields["description"] = *upd.Description
	}
	if upd.Price != nil {
		if *upd.Price < 0 {
			return model.Product{}, fmt.Errorf("%w: price must be non-negative", ErrInvalidInput)
		}
		fields["price"] = *upd.Price
	}
	if upd.Stock != nil {
		if *upd.Stock < 0 {
			return model.Product{}, fmt.Errorf("%w: stock must be non-negative", ErrInvalidInput)
		}
		fields["stock"] = *upd.Stock
	}
	if upd.ImageURL != nil {
		fields["image_url"] = *upd.ImageURL
	}
	if len(fields) == 0 {
		return model.Product{}, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}

	var p model.Product
	err := s.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	if err != nil {
		return model.Product{}, err
	}
	if err := s.db.WithContext(ctx).Model(&p).Updates(fields).Error; err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (s *productService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	return nil
}
