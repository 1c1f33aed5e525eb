package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mkravets/storefront/internal/domain"
	"github.com/mkravets/storefront/internal/models"
	"github.com/mkravets/storefront/internal/repo"
)

type Service struct {
	Repo *repo.GormRepo
}

func New(r *repo.GormRepo) *Service {
	return &Service{Repo: r}
}

func (s *Service) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return product, nil
}

func (s *Service) ListProducts(ctx context.Context, f repo.ProductFilter) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, f)
}

func (s *Service) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.Price < 0 {
		return fmt.Errorf("%w: price must be >= 0", domain.ErrInvalidArgument)
	}
	if product.Name == "" {
		return fmt.Errorf("%w: name required", domain.ErrInvalidArgument)
	}
	if product.CategoryID != nil {
		if _, err := s.Repo.GetCategory(ctx, *product.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("category %d: %w", *product.CategoryID, domain.ErrNotFound)
			}
			return err
		}
	}
	return s.Repo.CreateProduct(ctx, product)
}

type PatchProduct struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *uint    `json:"stock"`
	Image       *string  `json:"image"`
	Featured    *bool    `json:"featured"`
	CategoryID  *uint    `json:"category_id"`
}

func (s *Service) UpdateProduct(ctx context.Context, id uint, patch PatchProduct) (*models.Product, error) {
	product, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}

	if patch.Price != nil && *patch.Price < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0", domain.ErrInvalidArgument)
	}
	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Stock != nil {
		product.Stock = *patch.Stock
	}
	if patch.Image != nil {
		product.Image = *patch.Image
	}
	if patch.Featured != nil {
		product.Featured = *patch.Featured
	}
	if patch.CategoryID != nil {
		if _, err := s.Repo.GetCategory(ctx, *patch.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("category %d: %w", *patch.CategoryID, domain.ErrNotFound)
			}
			return nil, err
		}
		product.CategoryID = patch.CategoryID
	}

	if err := s.Repo.SaveProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
		}
		return err
	}
	return nil
}
