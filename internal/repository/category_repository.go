package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"catalog/internal/model"
)

// CategoryFilter narrows and pages a category listing.
type CategoryFilter struct {
	Search string
	Limit  int
	Offset int
}

// CategoryRepository defines category persistence operations.
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id uint) (*model.Category, error)
	FindByName(ctx context.Context, name string) (*model.Category, error)
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, filter CategoryFilter) ([]model.Category, int64, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id uint) ([]uint, error)
	NameTaken(ctx context.Context, name string, excludeID uint) (bool, error)
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

const productCountColumn = "(SELECT COUNT(*) FROM products WHERE products.category_id = categories.id) AS product_count"

func withProductCount(db *gorm.DB) *gorm.DB {
	return db.Select("categories.*, " + productCountColumn)
}

// Create creates a new category record.
func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// FindByID finds a category by ID together with its product count.
func (r *categoryRepository) FindByID(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Scopes(withProductCount).
		Where("categories.id = ?", id).
		First(&category).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

// FindByName finds a category by name, ignoring case.
func (r *categoryRepository) FindByName(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Scopes(withProductCount).
		Where("LOWER(categories.name) = LOWER(?)", name).
		First(&category).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

// Exists reports whether a category with the given ID exists.
func (r *categoryRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns one page of categories ordered by name, and the total match count.
func (r *categoryRepository) List(ctx context.Context, filter CategoryFilter) ([]model.Category, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Search != "" {
			p := likePattern(filter.Search)
			db = db.Where("("+ilike("categories.name")+" OR "+ilike("categories.description")+")", p, p)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Category{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	var categories []model.Category
	err := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Scopes(scope, withProductCount).
		Order("categories.name ASC, categories.id ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&categories).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	return categories, total, nil
}

// Update persists the name and description of category.
func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	res := r.db.WithContext(ctx).
		Model(category).
		Select("name", "description").
		Updates(category)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return nil
}

// Delete removes a category and every product in it, returning the IDs of the
// removed products.
func (r *categoryRepository) Delete(ctx context.Context, id uint) ([]uint, error) {
	var productIDs []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category model.Category
		if err := tx.Select("id").First(&category, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Model(&model.Product{}).Where("category_id = ?", id).Pluck("id", &productIDs).Error; err != nil {
			return fmt.Errorf("collect products: %w", err)
		}
		if err := tx.Where("category_id = ?", id).Delete(&model.Product{}).Error; err != nil {
			return fmt.Errorf("delete products: %w", err)
		}
		return tx.Delete(&category).Error
	})
	if err != nil {
		return nil, err
	}
	return productIDs, nil
}

// NameTaken reports whether another category already uses name, ignoring case.
func (r *categoryRepository) NameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.Category{}).Where("LOWER(name) = LOWER(?)", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
