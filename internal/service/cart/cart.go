// Package cart owns the authoritative user -> cart mapping. All mutations
// for one user serialize through a per-user lock around the
// read-modify-write transaction; last-writer-wins is not acceptable here
// because quantity accumulation and total recomputation must see a
// consistent prior state.
package cart

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mkravets/storefront/internal/domain"
	"github.com/mkravets/storefront/internal/locks"
	"github.com/mkravets/storefront/internal/models"
	"github.com/mkravets/storefront/internal/repo"
)

type Service struct {
	Repo  *repo.GormRepo
	Locks *locks.Keyed
}

func New(r *repo.GormRepo, l *locks.Keyed) *Service {
	return &Service{Repo: r, Locks: l}
}

// GetCart lazily creates an empty cart record on first access.
func (s *Service) GetCart(ctx context.Context, userID uint) (*models.Cart, error) {
	s.Locks.Lock(userID)
	defer s.Locks.Unlock(userID)

	return s.Repo.GetOrCreateCart(ctx, userID)
}

func (s *Service) AddItem(ctx context.Context, userID, productID, quantity uint) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be >= 1", domain.ErrInvalidArgument)
	}

	s.Locks.Lock(userID)
	defer s.Locks.Unlock(userID)

	var cart *models.Cart
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		var err error
		cart, err = tx.GetOrCreateCart(ctx, userID)
		if err != nil {
			return err
		}

		product, err := tx.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product %d: %w", productID, domain.ErrNotFound)
			}
			return err
		}
		if quantity > product.Stock {
			return fmt.Errorf("%q has %d in stock: %w", product.Name, product.Stock, domain.ErrInsufficientStock)
		}

		line, err := tx.FindLineByProduct(ctx, cart.ID, productID)
		switch {
		case err == nil:
			// Accumulate quantity, keep the unit price captured at the
			// first add.
			line.Quantity += quantity
			if err := tx.SaveLine(ctx, line); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			pos, err := tx.NextLinePosition(ctx, cart.ID)
			if err != nil {
				return err
			}
			newLine := models.CartLine{
				CartID:    cart.ID,
				ProductID: productID,
				Quantity:  quantity,
				UnitPrice: product.Price,
				Position:  pos,
			}
			if err := tx.CreateLine(ctx, &newLine); err != nil {
				return err
			}
		default:
			return err
		}

		total, err := tx.UpdateCartTotal(ctx, cart.ID)
		if err != nil {
			return err
		}
		cart.Total = total
		return tx.ReloadLines(ctx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) UpdateLineQuantity(ctx context.Context, userID, lineID, quantity uint) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be >= 1", domain.ErrInvalidArgument)
	}

	s.Locks.Lock(userID)
	defer s.Locks.Unlock(userID)

	var cart *models.Cart
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		var err error
		cart, err = tx.GetCart(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("cart: %w", domain.ErrNotFound)
			}
			return err
		}

		line, err := tx.FindLine(ctx, cart.ID, lineID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("cart line %d: %w", lineID, domain.ErrNotFound)
			}
			return err
		}

		// Stock check is against the current catalog value, not anything
		// cached at add time.
		product, err := tx.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product %d: %w", line.ProductID, domain.ErrNotFound)
			}
			return err
		}
		if quantity > product.Stock {
			return fmt.Errorf("%q has %d in stock: %w", product.Name, product.Stock, domain.ErrInsufficientStock)
		}

		line.Quantity = quantity
		if err := tx.SaveLine(ctx, line); err != nil {
			return err
		}

		total, err := tx.UpdateCartTotal(ctx, cart.ID)
		if err != nil {
			return err
		}
		cart.Total = total
		return tx.ReloadLines(ctx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveLine deletes one line. Removing the last line leaves an empty
// cart record behind, it is never deleted here.
func (s *Service) RemoveLine(ctx context.Context, userID, lineID uint) (*models.Cart, error) {
	s.Locks.Lock(userID)
	defer s.Locks.Unlock(userID)

	var cart *models.Cart
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		var err error
		cart, err = tx.GetCart(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("cart: %w", domain.ErrNotFound)
			}
			return err
		}

		line, err := tx.FindLine(ctx, cart.ID, lineID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("cart line %d: %w", lineID, domain.ErrNotFound)
			}
			return err
		}
		if err := tx.DeleteLine(ctx, line); err != nil {
			return err
		}

		total, err := tx.UpdateCartTotal(ctx, cart.ID)
		if err != nil {
			return err
		}
		cart.Total = total
		return tx.ReloadLines(ctx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// ClearCart is idempotent over lines. It fails with NotFound only when no
// cart record exists at all; clearing an already empty cart succeeds.
func (s *Service) ClearCart(ctx context.Context, userID uint) error {
	s.Locks.Lock(userID)
	defer s.Locks.Unlock(userID)

	return s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		cart, err := tx.GetCart(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("cart: %w", domain.ErrNotFound)
			}
			return err
		}
		if err := tx.DeleteLines(ctx, cart.ID); err != nil {
			return err
		}
		_, err = tx.UpdateCartTotal(ctx, cart.ID)
		return err
	})
}
