package repository

import (
	"context"

	"github.com/storelens/advisor/internal/model"
	"gorm.io/gorm"
)

// CatalogRepository is the read-only view of the product catalog the advisor
// consults. The catalog subsystem owns the tables; nothing here writes.
type CatalogRepository interface {
	// ActiveByIDs returns only currently active (sellable) products among
	// ids. Missing or inactive ids are silently absent from the result.
	ActiveByIDs(ctx context.Context, ids []uint) ([]model.Product, error)
	FindByIDForStore(ctx context.Context, id, storeID uint) (*model.Product, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ActiveByIDs(ctx context.Context, ids []uint) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("id IN ? AND status = ?", ids, model.ProductStatusActive).
		Find(&products).Error
	return products, err
}

func (r *catalogRepository) FindByIDForStore(ctx context.Context, id, storeID uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND store_id = ?", id, storeID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}
