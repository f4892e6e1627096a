package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"catalog/internal/model"
)

// DefaultProductOrdering applies when no valid ordering is requested.
const DefaultProductOrdering = "name"

var productOrderColumns = map[string]string{
	"price":      "products.price",
	"name":       "products.name",
	"created_at": "products.created_at",
	"stock":      "products.stock",
}

// ProductFilter narrows, orders and pages a product listing.
type ProductFilter struct {
	CategoryID *uint
	Stock      *int
	Search     string
	// Ordering is a field name, optionally prefixed with "-" for descending.
	Ordering string
	Limit    int
	Offset   int
}

// ProductRepository defines product persistence operations.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uint) error
	IDsByCategory(ctx context.Context, categoryID uint) ([]uint, error)
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// ValidProductOrdering reports whether ordering names a sortable field.
func ValidProductOrdering(ordering string) bool {
	_, ok := productOrderColumns[strings.TrimPrefix(ordering, "-")]
	return ok
}

func productOrder(ordering string) string {
	if !ValidProductOrdering(ordering) {
		ordering = DefaultProductOrdering
	}
	dir := "ASC"
	if strings.HasPrefix(ordering, "-") {
		dir = "DESC"
	}
	return productOrderColumns[strings.TrimPrefix(ordering, "-")] + " " + dir + ", products.id ASC"
}

// Create inserts product and reloads it with its category.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		return err
	}
	return r.reload(ctx, product)
}

// FindByID finds a product by ID with its category.
func (r *productRepository) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

// List returns one page of products and the total match count.
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Joins("JOIN categories ON categories.id = products.category_id")
		if filter.CategoryID != nil {
			db = db.Where("products.category_id = ?", *filter.CategoryID)
		}
		if filter.Stock != nil {
			db = db.Where("products.stock = ?", *filter.Stock)
		}
		if filter.Search != "" {
			p := likePattern(filter.Search)
			db = db.Where("("+ilike("products.name")+" OR "+ilike("products.description")+" OR "+ilike("categories.name")+")", p, p, p)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	var products []model.Product
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Scopes(scope).
		Select("products.*").
		Preload("Category").
		Order(productOrder(filter.Ordering)).
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// Update persists every editable column of product.
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	res := r.db.WithContext(ctx).
		Model(product).
		Omit(clause.Associations).
		Select("name", "description", "price", "stock", "category_id").
		Updates(product)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return r.reload(ctx, product)
}

// Delete removes a product by ID.
func (r *productRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return nil
}

// IDsByCategory returns the IDs of every product in a category.
func (r *productRepository) IDsByCategory(ctx context.Context, categoryID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("category_id = ?", categoryID).Pluck("id", &ids).Error
	return ids, err
}

func (r *productRepository) reload(ctx context.Context, product *model.Product) error {
	fresh, err := r.FindByID(ctx, product.ID)
	if err != nil {
		return err
	}
	*product = *fresh
	return nil
}
