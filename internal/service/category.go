package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/judyrop/shop-backend/internal/model"
)

// CategoryService manages categories and the product/category join. Deleting
// a category never cascades to products; only the join rows go.
type CategoryService interface {
	Get(ctx context.Context, id uint) (model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Create(ctx context.Context, name string) (model.Category, error)
	Update(ctx context.Context, id uint, name string) (model.Category, error)
	Delete(ctx context.Context, id uint) error
	Products(ctx context.Context, id uint) ([]model.Product, error)
	AttachProduct(ctx context.Context, categoryID, productID uint) error
	DetachProduct(ctx context.Context, categoryID, productID uint) error
}

type categoryService struct{ db *gorm.DB }

func NewCategoryService(db *gorm.DB) CategoryService { return &categoryService{db: db} }

func (s *categoryService) Get(ctx context.Context, id uint) (model.Category, error) {
	var c model.Category
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Category{}, fmt.Errorf("%w: category %d", ErrNotFound, id)
	}
	return c, err
}

func (s *categoryService) List(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	return categories, s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
}

func (s *categoryService) Create(ctx context.Context, name string) (model.Category, error) {
	if name == "" {
		return model.Category{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	c := model.Category{Name: name}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.Category{}, err
	}
	return c, nil
}

func (s *categoryService) Update(ctx context.Context, id uint, name string) (model.Category, error) {
	if name == "" {
		return model.Category{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return model.Category{}, err
	}
	if err := s.db.WithContext(ctx).Model(&c).Update("name", name).Error; err != nil {
		return model.Category{}, err
	}
	return c, nil
}

func (s *categoryService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: category %d", ErrNotFound, id)
		}
		return tx.Exec("DELETE FROM product_categories WHERE category_id = ?", id).Error
	})
}

func (s *categoryService) Products(ctx context.Context, id uint) ([]model.Product, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	var products []model.Product
	err := s.db.WithContext(ctx).
		Joins("JOIN product_categories pc ON pc.product_id = products.id").
		Where("pc.category_id = ?", id).
		Find(&products).Error
	return products, err
}

func (s *categoryService) AttachProduct(ctx context.Context, categoryID, productID uint) error {
	category, err := s.Get(ctx, categoryID)
	if err != nil {
		return err
	}
	var product model.Product
	err = s.db.WithContext(ctx).First(&product, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&product).Association("Categories").Append(&category)
}

func (s *categoryService) DetachProduct(ctx context.Context, categoryID, productID uint) error {
	res := s.db.WithContext(ctx).
		Exec("DELETE FROM product_categories WHERE category_id = ? AND product_id = ?", categoryID, productID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product %d is not in category %d", ErrNotFound, productID, categoryID)
	}
	return nil
}
