package validation

import (
	"strings"

	"github.com/shopspring/decimal"

	apperrors "catalog/internal/errors"
)

// ProductFields is a candidate product. Nil pointers are fields the caller
// did not supply.
type ProductFields struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	CategoryID  *uint
	// Malformed holds fields the caller could not decode. They are reported
	// as they are and not checked again.
	Malformed *apperrors.ValidationError
}

// CategoryFields is a candidate category.
type CategoryFields struct {
	Name        *string
	Description *string
	Malformed   *apperrors.ValidationError
}

// NormalizeProduct trims the free-text fields in place.
func NormalizeProduct(f *ProductFields) {
	trim(f.Name)
	trim(f.Description)
}

// NormalizeCategory trims the free-text fields in place.
func NormalizeCategory(f *CategoryFields) {
	trim(f.Name)
	trim(f.Description)
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

// Product validates supplied fields; with partial false every field is required.
// Fields must already be normalized.
func Product(f ProductFields, partial bool) *Checker {
	c := New()
	c.Merge(f.Malformed)
	switch {
	case c.Failed("name"):
	case f.Name != nil:
		c.Var("name", *f.Name, "min=3,max=200")
	case !partial:
		c.Required("name")
	}
	switch {
	case c.Failed("description"):
	case f.Description != nil:
		c.Var("description", *f.Description, "min=10")
	case !partial:
		c.Required("description")
	}
	switch {
	case c.Failed("price"):
	case f.Price != nil:
		c.Price("price", *f.Price)
	case !partial:
		c.Required("price")
	}
	switch {
	case c.Failed("stock"):
	case f.Stock != nil:
		c.Var("stock", *f.Stock, "gte=0,lte=999999")
	case !partial:
		c.Required("stock")
	}
	if f.CategoryID == nil && !partial && !c.Failed("category_id") && !c.Failed("category") {
		c.Required("category_id")
	}
	return c
}

// Category validates supplied fields; uniqueness is checked by the caller.
func Category(f CategoryFields, partial bool) *Checker {
	c := New()
	c.Merge(f.Malformed)
	switch {
	case c.Failed("name"):
	case f.Name == nil:
		if !partial {
			c.Required("name")
		}
	case *f.Name == "":
		c.Required("name")
	default:
		c.Var("name", *f.Name, "max=100")
	}
	return c
}
