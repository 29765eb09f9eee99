package repository

import (
	"context"

	"github.com/storelens/advisor/internal/model"
	"gorm.io/gorm"
)

// OrderRepository is the analytics aggregator's read-only view of the order
// ledger.
type OrderRepository interface {
	// TotalsByIDs returns order_id → total_price for the given orders.
	TotalsByIDs(ctx context.Context, ids []uint) (map[uint]float64, error)
	// ProductPurchaseCounts returns product_id → summed line-item quantity
	// across the given orders.
	ProductPurchaseCounts(ctx context.Context, orderIDs []uint) (map[uint]int, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) TotalsByIDs(ctx context.Context, ids []uint) (map[uint]float64, error) {
	totals := make(map[uint]float64, len(ids))
	if len(ids) == 0 {
		return totals, nil
	}
	var rows []struct {
		ID         uint
		TotalPrice float64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("id, total_price").
		Where("id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		totals[row.ID] = row.TotalPrice
	}
	return totals, nil
}

func (r *orderRepository) ProductPurchaseCounts(ctx context.Context, orderIDs []uint) (map[uint]int, error) {
	counts := make(map[uint]int)
	if len(orderIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ProductID uint
		Total     int
	}
	err := r.db.WithContext(ctx).
		Model(&model.OrderLineItem{}).
		Select("product_id, SUM(quantity) as total").
		Where("order_id IN ?", orderIDs).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ProductID] = row.Total
	}
	return counts, nil
}
