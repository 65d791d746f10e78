package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Endry199/jpstore/models"
)

type ProductRepository interface {
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
}

type gormProductRepo struct {
	db *gorm.DB
}

func NewGormProductRepo(db *gorm.DB) ProductRepository {
	return &gormProductRepo{db: db}
}

// FindBySlug loads a product with its packages in display order.
func (r *gormProductRepo) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).
		Preload("Packages", func(db *gorm.DB) *gorm.DB {
			return db.Order("orden ASC")
		}).
		Where("slug = ?", slug).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}
