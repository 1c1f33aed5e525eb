package repo

import (
	"context"

	"github.com/mkravets/storefront/internal/models"
)

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) SaveOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Save(order).Error
}

func (r *GormRepo) GetOrderByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	order := models.Order{}
	if err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("order_id = ?", orderID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) GetOrderForUser(ctx context.Context, userID uint, orderID string) (*models.Order, error) {
	order := models.Order{}
	if err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("order_id = ? AND user_id = ?", orderID, userID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) CreateReconciliation(ctx context.Context, rec *models.ReconciliationRecord) error {
	return r.DB.WithContext(ctx).Create(rec).Error
}
