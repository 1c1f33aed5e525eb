package repo

import (
	"context"

	"github.com/mkravets/storefront/internal/models"
)

// ReloadLines refreshes cart.Lines in insertion order.
func (r *GormRepo) ReloadLines(ctx context.Context, cart *models.Cart) error {
	cart.Lines = cart.Lines[:0]
	return r.DB.WithContext(ctx).
		Where("cart_id = ?", cart.ID).
		Order("position ASC").
		Find(&cart.Lines).Error
}

// GetOrCreateCart creates the cart record lazily on first access.
func (r *GormRepo) GetOrCreateCart(ctx context.Context, userID uint) (*models.Cart, error) {
	cart := models.Cart{UserID: userID}
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		FirstOrCreate(&cart).Error; err != nil {
		return nil, err
	}
	if err := r.ReloadLines(ctx, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetCart returns gorm.ErrRecordNotFound when no cart record exists,
// which is distinct from an existing cart with zero lines.
func (r *GormRepo) GetCart(ctx context.Context, userID uint) (*models.Cart, error) {
	cart := models.Cart{}
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	if err := r.ReloadLines(ctx, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) FindLine(ctx context.Context, cartID, lineID uint) (*models.CartLine, error) {
	line := models.CartLine{}
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND cart_id = ?", lineID, cartID).
		First(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *GormRepo) FindLineByProduct(ctx context.Context, cartID, productID uint) (*models.CartLine, error) {
	line := models.CartLine{}
	if err := r.DB.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *GormRepo) CreateLine(ctx context.Context, line *models.CartLine) error {
	return r.DB.WithContext(ctx).Create(line).Error
}

func (r *GormRepo) SaveLine(ctx context.Context, line *models.CartLine) error {
	return r.DB.WithContext(ctx).Save(line).Error
}

func (r *GormRepo) DeleteLine(ctx context.Context, line *models.CartLine) error {
	return r.DB.WithContext(ctx).Delete(line).Error
}

func (r *GormRepo) DeleteLines(ctx context.Context, cartID uint) error {
	return r.DB.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartLine{}).Error
}

// UpdateCartTotal recomputes the derived total from the lines in the same
// transaction as the line mutation, so readers never observe a stale sum.
func (r *GormRepo) UpdateCartTotal(ctx context.Context, cartID uint) (float64, error) {
	var total float64
	err := r.DB.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("cart_id = ?", cartID).
		Select("COALESCE(SUM(unit_price * quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	err = r.DB.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		UpdateColumn("total", total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *GormRepo) NextLinePosition(ctx context.Context, cartID uint) (uint, error) {
	var max *uint
	err := r.DB.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("cart_id = ?", cartID).
		Select("MAX(position)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}
