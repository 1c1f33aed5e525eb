package main

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/mkravets/storefront/internal/config"
	"github.com/mkravets/storefront/internal/hash"
	"github.com/mkravets/storefront/internal/models"
	"github.com/mkravets/storefront/internal/repo"
	"github.com/mkravets/storefront/internal/service/catalog"
)

type seedProduct struct {
	models.Product
	categoryName string
}

var seedCategories = []models.Category{
	{
		Name:        "Clothing",
		Description: "Sustainable and eco-friendly clothing options",
		Image:       "https://images.unsplash.com/photo-1445205170230-053b83016050?auto=format&fit=crop&w=500&q=60",
		Featured:    true,
	},
	{
		Name:        "Accessories",
		Description: "Sustainable accessories and fashion items",
		Image:       "https://images.unsplash.com/photo-1515562141207-7a88fb7ce338?auto=format&fit=crop&w=500&q=60",
	},
}

var seedProducts = []seedProduct{
	{
		Product: models.Product{
			Name:        "Organic Cotton T-Shirt",
			Description: "Comfortable and eco-friendly t-shirt made from 100% organic cotton.",
			Price:       29.99,
			Stock:       50,
			Image:       "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?auto=format&fit=crop&w=500&q=80",
			Featured:    true,
		},
		categoryName: "Clothing",
	},
	{
		Product: models.Product{
			Name:        "Hemp Hoodie",
			Description: "Warm and sustainable hoodie made from hemp fabric.",
			Price:       79.99,
			Stock:       30,
			Image:       "https://images.unsplash.com/photo-1556906781-2a6f971eb9f8?auto=format&fit=crop&w=500&q=80",
		},
		categoryName: "Clothing",
	},
	{
		Product: models.Product{
			Name:        "Bamboo Socks (3 Pack)",
			Description: "Breathable and antimicrobial socks made from bamboo fiber.",
			Price:       24.99,
			Stock:       100,
			Image:       "https://images.unsplash.com/photo-1589674780055-9eeb3c3d8f9d?auto=format&fit=crop&w=500&q=80",
		},
		categoryName: "Clothing",
	},
	{
		Product: models.Product{
			Name:        "Recycled Leather Wallet",
			Description: "Stylish wallet made from recycled leather and eco-friendly materials.",
			Price:       39.99,
			Stock:       45,
			Image:       "https://images.unsplash.com/photo-1523275335684-37898b6baf30?auto=format&fit=crop&w=500&q=80",
		},
		categoryName: "Accessories",
	},
	{
		Product: models.Product{
			Name:        "Wooden Sunglasses",
			Description: "Handcrafted wooden sunglasses with UV400 protection.",
			Price:       59.99,
			Stock:       25,
			Image:       "https://images.unsplash.com/photo-1511499767150-a48a237ac008?auto=format&fit=crop&w=500&q=80",
			Featured:    true,
		},
		categoryName: "Accessories",
	},
	{
		Product: models.Product{
			Name:        "Cork Backpack",
			Description: "Lightweight and water-resistant backpack made from sustainable cork.",
			Price:       89.99,
			Stock:       20,
			Image:       "https://images.unsplash.com/photo-1553062407-98eeb64c6a62?auto=format&fit=crop&w=500&q=80",
		},
		categoryName: "Accessories",
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmpty(cfg.AdminPassword, "ADMIN_PASSWORD")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := repo.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	if err := seedAdmin(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if err := seedCatalog(db); err != nil {
		log.Fatalf("seed catalog: %v", err)
	}

	log.Println("seed complete")
}

func seedAdmin(db *gorm.DB, username, password string) error {
	passwordHash, err := hash.HashPassword(password)
	if err != nil {
		return err
	}

	var user models.User
	err = db.Where(models.User{Username: username}).
		Attrs(models.User{PasswordHash: passwordHash, Role: "admin"}).
		FirstOrCreate(&user).Error
	if err != nil {
		return err
	}

	log.Printf("admin user %q ready (id=%d)", user.Username, user.ID)
	return nil
}

func seedCatalog(db *gorm.DB) error {
	categoryIDs := make(map[string]uint, len(seedCategories))

	for _, c := range seedCategories {
		c.Slug = catalog.Slugify(c.Name)

		var category models.Category
		err := db.Where(models.Category{Name: c.Name}).
			Attrs(c).
			FirstOrCreate(&category).Error
		if err != nil {
			return err
		}
		categoryIDs[category.Name] = category.ID
	}

	for _, p := range seedProducts {
		if id, ok := categoryIDs[p.categoryName]; ok {
			p.CategoryID = &id
		}

		var product models.Product
		err := db.Where(models.Product{Name: p.Name}).
			Attrs(p.Product).
			FirstOrCreate(&product).Error
		if err != nil {
			return err
		}
		log.Printf("product %q ready (id=%d)", product.Name, product.ID)
	}

	return nil
}
