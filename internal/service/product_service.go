package service

import (
	"context"
	"fmt"
	"time"

	"catalog/internal/cache"
	apperrors "catalog/internal/errors"
	"catalog/internal/events"
	"catalog/internal/model"
	"catalog/internal/repository"
	"catalog/internal/validation"
)

const productCacheTTL = 5 * time.Minute

func productCacheKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

// ProductQuery filters, orders and pages a product listing.
type ProductQuery struct {
	CategoryID *uint
	Stock      *int
	Search     string
	Ordering   string
	PageRequest
}

// ProductService handles product operations.
type ProductService interface {
	Create(ctx context.Context, in validation.ProductFields) (*model.Product, error)
	Get(ctx context.Context, id uint) (*model.Product, error)
	List(ctx context.Context, q ProductQuery) (*Page[model.Product], error)
	// Update applies the supplied fields. With partial false every field is required.
	Update(ctx context.Context, id uint, in validation.ProductFields, partial bool) (*model.Product, error)
	Delete(ctx context.Context, id uint) error
}

type productService struct {
	repo       repository.ProductRepository
	categories repository.CategoryRepository
	cache      *cache.Client
	publisher  events.Publisher
}

// NewProductService creates a new product service.
func NewProductService(repo repository.ProductRepository, categories repository.CategoryRepository, cache *cache.Client, publisher events.Publisher) ProductService {
	return &productService{
		repo:       repo,
		categories: categories,
		cache:      cache,
		publisher:  publisher,
	}
}

// Create validates and stores a new product in an existing category.
func (s *productService) Create(ctx context.Context, in validation.ProductFields) (*model.Product, error) {
	if in.CategoryID != nil {
		if err := s.requireCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
	}
	validation.NormalizeProduct(&in)
	if err := validation.Product(in, false).Err(); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        *in.Name,
		Description: *in.Description,
		Price:       *in.Price,
		Stock:       *in.Stock,
		CategoryID:  *in.CategoryID,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	publish(ctx, s.publisher, events.New(events.ProductCreated, product.ID, events.ProductSnapshot(product)))
	return product, nil
}

// Get retrieves a product by ID with caching.
func (s *productService) Get(ctx context.Context, id uint) (*model.Product, error) {
	key := productCacheKey(id)
	var cached model.Product
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	version := s.cache.Version(ctx, key)
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	_ = s.cache.SetJSONAt(ctx, key, version, product, productCacheTTL)
	return product, nil
}

// List returns one page of filtered, ordered products.
func (s *productService) List(ctx context.Context, q ProductQuery) (*Page[model.Product], error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	items, count, err := s.repo.List(ctx, repository.ProductFilter{
		CategoryID: q.CategoryID,
		Stock:      q.Stock,
		Search:     q.Search,
		Ordering:   q.Ordering,
		Limit:      q.PageSize,
		Offset:     q.offset(),
	})
	if err != nil {
		return nil, err
	}
	return newPage(items, count, q.PageRequest)
}

// Update validates the supplied fields and stores them.
func (s *productService) Update(ctx context.Context, id uint, in validation.ProductFields, partial bool) (*model.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.CategoryID != nil && *in.CategoryID != product.CategoryID {
		if err := s.requireCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
	}

	validation.NormalizeProduct(&in)
	if err := validation.Product(in, partial).Err(); err != nil {
		return nil, err
	}

	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.Stock != nil {
		product.Stock = *in.Stock
	}
	if in.CategoryID != nil {
		product.CategoryID = *in.CategoryID
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	_ = s.cache.Invalidate(ctx, productCacheKey(id))

	publish(ctx, s.publisher, events.New(events.ProductUpdated, id, events.ProductSnapshot(product)))
	return product, nil
}

// Delete removes a product.
func (s *productService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.cache.Invalidate(ctx, productCacheKey(id))

	publish(ctx, s.publisher, events.New(events.ProductDeleted, id, nil))
	return nil
}

func (s *productService) requireCategory(ctx context.Context, id uint) error {
	exists, err := s.categories.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if !exists {
		return fmt.Errorf("category %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}
