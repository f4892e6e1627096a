package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"catalog/internal/auth"
	apperrors "catalog/internal/errors"
	"catalog/internal/logging"
	"catalog/internal/model"
	"catalog/internal/repository"
	"catalog/internal/service"
	"catalog/internal/validation"
)

type categoryTemplate struct {
	name        string
	description string
}

type productTemplate struct {
	name        string
	description string
	price       float64
}

var categoryTemplates = []categoryTemplate{
	{"Electronics", "Electronic devices and gadgets"},
	{"Clothing", "Fashion and apparel"},
	{"Books", "Books and literature"},
	{"Home & Garden", "Home improvement and gardening"},
	{"Sports", "Sports equipment and accessories"},
	{"Toys & Games", "Toys and entertainment"},
	{"Health & Beauty", "Health and beauty products"},
	{"Automotive", "Automotive parts and accessories"},
}

// productTemplates[i] belongs to categoryTemplates[i]; later categories get
// generic products.
var productTemplates = [][]productTemplate{
	{
		{"Gaming Laptop", "High-performance gaming laptop with RGB keyboard", 1299.99},
		{"Wireless Headphones", "Noise-cancelling wireless headphones", 199.99},
		{"Smartphone", "Latest smartphone with advanced camera", 899.99},
		{"Tablet", "10-inch tablet for work and entertainment", 399.99},
		{"Smart Watch", "Fitness tracking smartwatch", 299.99},
	},
	{
		{"Cotton T-Shirt", "Comfortable cotton t-shirt", 19.99},
		{"Denim Jeans", "Classic blue denim jeans", 49.99},
		{"Winter Jacket", "Warm winter jacket", 89.99},
		{"Running Shoes", "Lightweight running shoes", 79.99},
		{"Dress Shirt", "Formal dress shirt", 39.99},
	},
	{
		{"Programming Go", "Learn Go programming", 29.99},
		{"Fiction Novel", "Bestselling fiction novel", 14.99},
		{"Cookbook", "Collection of delicious recipes", 24.99},
		{"History Book", "Comprehensive history guide", 19.99},
		{"Science Magazine", "Monthly science magazine", 9.99},
	},
	{
		{"Garden Tool Set", "Complete garden tool set", 59.99},
		{"Kitchen Blender", "High-speed kitchen blender", 79.99},
		{"LED Light Bulbs", "Energy-efficient LED bulbs pack", 19.99},
		{"Coffee Maker", "Automatic coffee maker", 89.99},
		{"Plant Pot Set", "Decorative plant pots", 34.99},
	},
	{
		{"Basketball", "Official size basketball", 29.99},
		{"Yoga Mat", "Non-slip yoga mat", 24.99},
		{"Dumbbells Set", "Adjustable dumbbells", 149.99},
		{"Tennis Racket", "Professional tennis racket", 89.99},
		{"Cycling Helmet", "Safety cycling helmet", 39.99},
	},
}

type seeder struct {
	categoryRepo repository.CategoryRepository
	categories   service.CategoryService
	products     service.ProductService
	users        repository.UserRepository
	hasher       *auth.PasswordHasher
	rand         *rand.Rand
}

type seedReport struct {
	categories        int
	categoriesCreated int
	productsCreated   int
}

func newRand() *rand.Rand {
	now := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(now, now>>1))
}

// seedCatalog creates up to numCategories categories and up to perCategory
// products in each. Records that already exist are left alone, so running it
// twice is safe.
func (s *seeder) seedCatalog(ctx context.Context, numCategories, perCategory int) (seedReport, error) {
	var report seedReport
	if numCategories > len(categoryTemplates) {
		numCategories = len(categoryTemplates)
	}
	for i, tmpl := range categoryTemplates[:max(numCategories, 0)] {
		category, created, err := s.category(ctx, tmpl)
		if err != nil {
			return report, err
		}
		report.categories++
		if created {
			report.categoriesCreated++
		}

		templates := s.productsFor(i)
		if perCategory < len(templates) {
			templates = templates[:max(perCategory, 0)]
		}
		for _, p := range templates {
			created, err := s.product(ctx, category.ID, p)
			if err != nil {
				return report, err
			}
			if created {
				report.productsCreated++
				if report.productsCreated%10 == 0 {
					logging.FromContext(ctx).Info("seeding products", "created", report.productsCreated)
				}
			}
		}
	}
	return report, nil
}

func (s *seeder) productsFor(i int) []productTemplate {
	if i < len(productTemplates) {
		return productTemplates[i]
	}
	out := make([]productTemplate, 5)
	for j := range out {
		out[j] = productTemplate{
			name:        fmt.Sprintf("Product %d", j+1),
			description: fmt.Sprintf("Generic product %d", j+1),
			price:       10 + s.rand.Float64()*90,
		}
	}
	return out
}

func (s *seeder) category(ctx context.Context, tmpl categoryTemplate) (*model.Category, bool, error) {
	existing, err := s.categoryRepo.FindByName(ctx, tmpl.name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, fmt.Errorf("find category %q: %w", tmpl.name, err)
	}
	created, err := s.categories.Create(ctx, validation.CategoryFields{
		Name:        &tmpl.name,
		Description: &tmpl.description,
	})
	if err != nil {
		return nil, false, fmt.Errorf("create category %q: %w", tmpl.name, err)
	}
	logging.FromContext(ctx).Info("created category", "name", created.Name)
	return created, true, nil
}

func (s *seeder) product(ctx context.Context, categoryID uint, tmpl productTemplate) (bool, error) {
	page, err := s.products.List(ctx, service.ProductQuery{
		CategoryID:  &categoryID,
		Search:      tmpl.name,
		PageRequest: service.PageRequest{Page: 1, PageSize: 100},
	})
	if err != nil {
		return false, fmt.Errorf("find product %q: %w", tmpl.name, err)
	}
	for _, p := range page.Items {
		if strings.EqualFold(p.Name, tmpl.name) {
			return false, nil
		}
	}

	// prices vary by up to 20% either way
	price := decimal.NewFromFloat(tmpl.price * (0.8 + 0.4*s.rand.Float64())).Round(2)
	if price.LessThan(decimal.New(1, -2)) {
		price = decimal.New(1, -2)
	}
	stock := s.rand.IntN(51)
	_, err = s.products.Create(ctx, validation.ProductFields{
		Name:        &tmpl.name,
		Description: &tmpl.description,
		Price:       &price,
		Stock:       &stock,
		CategoryID:  &categoryID,
	})
	if err != nil {
		return false, fmt.Errorf("create product %q: %w", tmpl.name, err)
	}
	return true, nil
}

// seedAdmin creates the admin account unless the username is taken. Password
// rules are not applied to it.
func (s *seeder) seedAdmin(ctx context.Context, username, email, password string) (bool, error) {
	exists, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	if exists {
		return false, nil
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, err
	}
	err = s.users.Create(ctx, &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		DateJoined:   time.Now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
