package service

import (
	"context"
	"fmt"

	"catalog/internal/cache"
	apperrors "catalog/internal/errors"
	"catalog/internal/events"
	"catalog/internal/model"
	"catalog/internal/repository"
	"catalog/internal/validation"
)

const msgCategoryNameTaken = "category with this name already exists."

// CategoryQuery selects a page of categories.
type CategoryQuery struct {
	Search string
	PageRequest
}

// CategoryService handles category operations.
type CategoryService interface {
	Create(ctx context.Context, in validation.CategoryFields) (*model.Category, error)
	Get(ctx context.Context, id uint) (*model.Category, error)
	List(ctx context.Context, q CategoryQuery) (*Page[model.Category], error)
	// Update applies the supplied fields. With partial false every field is required.
	Update(ctx context.Context, id uint, in validation.CategoryFields, partial bool) (*model.Category, error)
	Delete(ctx context.Context, id uint) error
}

type categoryService struct {
	repo      repository.CategoryRepository
	products  repository.ProductRepository
	cache     *cache.Client
	publisher events.Publisher
}

// NewCategoryService creates a new category service.
func NewCategoryService(repo repository.CategoryRepository, products repository.ProductRepository, cache *cache.Client, publisher events.Publisher) CategoryService {
	return &categoryService{
		repo:      repo,
		products:  products,
		cache:     cache,
		publisher: publisher,
	}
}

// Create validates and stores a new category.
func (s *categoryService) Create(ctx context.Context, in validation.CategoryFields) (*model.Category, error) {
	validation.NormalizeCategory(&in)
	checker := validation.Category(in, false)
	if err := s.checkNameFree(ctx, checker, in.Name, 0); err != nil {
		return nil, err
	}
	if err := checker.Err(); err != nil {
		return nil, err
	}

	category := &model.Category{Name: *in.Name}
	if in.Description != nil {
		category.Description = *in.Description
	}
	if err := s.repo.Create(ctx, category); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperrors.FieldError("name", msgCategoryNameTaken)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}

	publish(ctx, s.publisher, events.New(events.CategoryCreated, category.ID, categoryPayload(category, nil)))
	return category, nil
}

// Get returns a category with its product count.
func (s *categoryService) Get(ctx context.Context, id uint) (*model.Category, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns one page of categories ordered by name.
func (s *categoryService) List(ctx context.Context, q CategoryQuery) (*Page[model.Category], error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	items, count, err := s.repo.List(ctx, repository.CategoryFilter{
		Search: q.Search,
		Limit:  q.PageSize,
		Offset: q.offset(),
	})
	if err != nil {
		return nil, err
	}
	return newPage(items, count, q.PageRequest)
}

// Update validates the supplied fields and stores them.
func (s *categoryService) Update(ctx context.Context, id uint, in validation.CategoryFields, partial bool) (*model.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	validation.NormalizeCategory(&in)
	checker := validation.Category(in, partial)
	if err := s.checkNameFree(ctx, checker, in.Name, id); err != nil {
		return nil, err
	}
	if err := checker.Err(); err != nil {
		return nil, err
	}

	if in.Name != nil {
		category.Name = *in.Name
	}
	if in.Description != nil {
		category.Description = *in.Description
	} else if !partial {
		category.Description = ""
	}
	if err := s.repo.Update(ctx, category); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperrors.FieldError("name", msgCategoryNameTaken)
		}
		return nil, fmt.Errorf("update category: %w", err)
	}

	// cached products embed the category name
	productIDs, err := s.products.IDsByCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list category products: %w", err)
	}
	s.invalidateProducts(ctx, productIDs)

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, events.New(events.CategoryUpdated, id, categoryPayload(updated, nil)))
	return updated, nil
}

// Delete removes a category and, with it, all of its products.
func (s *categoryService) Delete(ctx context.Context, id uint) error {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	productIDs, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.invalidateProducts(ctx, productIDs)

	publish(ctx, s.publisher, events.New(events.CategoryDeleted, id, categoryPayload(category, productIDs)))
	return nil
}

// checkNameFree records a uniqueness failure on name unless it already failed.
func (s *categoryService) checkNameFree(ctx context.Context, checker *validation.Checker, name *string, excludeID uint) error {
	if name == nil || checker.Failed("name") {
		return nil
	}
	taken, err := s.repo.NameTaken(ctx, *name, excludeID)
	if err != nil {
		return fmt.Errorf("check category name: %w", err)
	}
	if taken {
		checker.Fail("name", msgCategoryNameTaken)
	}
	return nil
}

func (s *categoryService) invalidateProducts(ctx context.Context, ids []uint) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productCacheKey(id)
	}
	_ = s.cache.Invalidate(ctx, keys...)
}

func categoryPayload(c *model.Category, productIDs []uint) events.CategoryPayload {
	return events.CategoryPayload{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		ProductIDs:  productIDs,
	}
}
