package catalog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/mkravets/storefront/internal/domain"
	"github.com/mkravets/storefront/internal/models"
	"github.com/mkravets/storefront/internal/repo"
)

var nonWordRuns = regexp.MustCompile(`[^\w]+`)

// Slugify derives the category slug: lowercase name with runs of
// non-word characters replaced by a dash.
func Slugify(name string) string {
	return nonWordRuns.ReplaceAllString(strings.ToLower(name), "-")
}

// CategoryView carries the live productCount; the stored product
// backlink is display-only and never used for counting.
type CategoryView struct {
	models.Category
	ProductCount int64 `json:"product_count"`
}

func (s *Service) ListCategories(ctx context.Context) ([]CategoryView, error) {
	categories, err := s.Repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]CategoryView, 0, len(categories))
	for _, category := range categories {
		count, err := s.Repo.CountProductsInCategory(ctx, category.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, CategoryView{Category: category, ProductCount: count})
	}
	return views, nil
}

func (s *Service) GetCategory(ctx context.Context, id uint, products repo.ProductFilter) (*CategoryView, int64, []models.Product, error) {
	category, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, nil, fmt.Errorf("category %d: %w", id, domain.ErrNotFound)
		}
		return nil, 0, nil, err
	}

	count, err := s.Repo.CountProductsInCategory(ctx, id)
	if err != nil {
		return nil, 0, nil, err
	}

	products.CategoryID = &id
	total, items, err := s.Repo.ListProducts(ctx, products)
	if err != nil {
		return nil, 0, nil, err
	}

	return &CategoryView{Category: *category, ProductCount: count}, total, items, nil
}

// CreateCategory enforces case-sensitive name uniqueness at write time.
// The derived slug is a unique key too, so distinct names that collapse to
// the same slug are also a Conflict.
func (s *Service) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.Name == "" {
		return fmt.Errorf("%w: name required", domain.ErrInvalidArgument)
	}

	if _, err := s.Repo.GetCategoryByName(ctx, category.Name); err == nil {
		return fmt.Errorf("category %q already exists: %w", category.Name, domain.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	category.Slug = Slugify(category.Name)
	if taken, err := s.Repo.GetCategoryBySlug(ctx, category.Slug); err == nil {
		return fmt.Errorf("slug %q already used by category %q: %w", category.Slug, taken.Name, domain.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return s.Repo.CreateCategory(ctx, category)
}

type PatchCategory struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	Featured    *bool   `json:"featured"`
}

func (s *Service) UpdateCategory(ctx context.Context, id uint, patch PatchCategory) (*models.Category, error) {
	category, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}

	if patch.Name != nil && *patch.Name != category.Name {
		if *patch.Name == "" {
			return nil, fmt.Errorf("%w: name required", domain.ErrInvalidArgument)
		}
		if _, err := s.Repo.GetCategoryByName(ctx, *patch.Name); err == nil {
			return nil, fmt.Errorf("category %q already exists: %w", *patch.Name, domain.ErrConflict)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		slug := Slugify(*patch.Name)
		if taken, err := s.Repo.GetCategoryBySlug(ctx, slug); err == nil && taken.ID != category.ID {
			return nil, fmt.Errorf("slug %q already used by category %q: %w", slug, taken.Name, domain.ErrConflict)
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		category.Name = *patch.Name
		category.Slug = slug
	}
	if patch.Description != nil {
		category.Description = *patch.Description
	}
	if patch.Image != nil {
		category.Image = *patch.Image
	}
	if patch.Featured != nil {
		category.Featured = *patch.Featured
	}

	if err := s.Repo.SaveCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory refuses to remove a category any product still
// references.
func (s *Service) DeleteCategory(ctx context.Context, id uint) error {
	if _, err := s.Repo.GetCategory(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("category %d: %w", id, domain.ErrNotFound)
		}
		return err
	}

	count, err := s.Repo.CountProductsInCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("category %d still has %d products: %w", id, count, domain.ErrConflict)
	}

	return s.Repo.DeleteCategory(ctx, id)
}
