package handler

import (
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"catalog/internal/model"
	"catalog/internal/service"
)

// CategoryResponse is the public view of a category.
type CategoryResponse struct {
	ID           uint   `json:"id" example:"1"`
	Name         string `json:"name" example:"Electronics"`
	Description  string `json:"description" example:"Phones, laptops and accessories"`
	ProductCount int64  `json:"product_count" example:"3"`
}

// ProductResponse is the detail view of a product.
type ProductResponse struct {
	ID           uint      `json:"id" example:"1"`
	Name         string    `json:"name" example:"Smartphone X"`
	Description  string    `json:"description" example:"A phone with a great camera"`
	Price        string    `json:"price" example:"599.99"`
	Stock        int       `json:"stock" example:"3"`
	Category     uint      `json:"category" example:"1"`
	CategoryName string    `json:"category_name" example:"Electronics"`
	StockStatus  string    `json:"stock_status" example:"Low Stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProductListItem is the compact view used in product listings.
type ProductListItem struct {
	ID           uint   `json:"id" example:"1"`
	Name         string `json:"name" example:"Smartphone X"`
	Price        string `json:"price" example:"599.99"`
	Stock        int    `json:"stock" example:"3"`
	Category     uint   `json:"category" example:"1"`
	CategoryName string `json:"category_name" example:"Electronics"`
	StockStatus  string `json:"stock_status" example:"Low Stock"`
}

// PageResponse is one page of a listing. Next and Previous are absolute URLs.
type PageResponse[T any] struct {
	Count    int64   `json:"count" example:"12"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// CategoryPage is a page of categories.
type CategoryPage = PageResponse[CategoryResponse]

// ProductPage is a page of products.
type ProductPage = PageResponse[ProductListItem]

// UserResponse is the public view of a user. It never carries the password.
type UserResponse struct {
	ID         uint       `json:"id" example:"1"`
	Username   string     `json:"username" example:"john_doe"`
	Email      string     `json:"email" example:"john@example.com"`
	FirstName  string     `json:"first_name" example:"John"`
	LastName   string     `json:"last_name" example:"Doe"`
	DateJoined time.Time  `json:"date_joined"`
	LastLogin  *time.Time `json:"last_login"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	Message string       `json:"message" example:"User created successfully"`
	User    UserResponse `json:"user"`
}

func newCategoryResponse(c *model.Category) CategoryResponse {
	return CategoryResponse{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		ProductCount: c.ProductCount,
	}
}

func newProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price.StringFixed(2),
		Stock:        p.Stock,
		Category:     p.CategoryID,
		CategoryName: p.Category.Name,
		StockStatus:  p.StockStatus(),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func newProductListItem(p *model.Product) ProductListItem {
	return ProductListItem{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price.StringFixed(2),
		Stock:        p.Stock,
		Category:     p.CategoryID,
		CategoryName: p.Category.Name,
		StockStatus:  p.StockStatus(),
	}
}

func newUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		DateJoined: u.DateJoined,
		LastLogin:  u.LastLogin,
	}
}

func newPageResponse[M, T any](c echo.Context, page *service.Page[M], convert func(*M) T) PageResponse[T] {
	out := PageResponse[T]{
		Count:   page.Count,
		Results: make([]T, len(page.Items)),
	}
	for i := range page.Items {
		out.Results[i] = convert(&page.Items[i])
	}
	if page.HasNext() {
		next := pageURL(c, page.Page+1)
		out.Next = &next
	}
	if page.HasPrevious() {
		prev := pageURL(c, page.Page-1)
		out.Previous = &prev
	}
	return out
}

// pageURL rebuilds the request URL pointing at another page. Page 1 drops the
// page parameter.
func pageURL(c echo.Context, page int) string {
	req := c.Request()
	q := req.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u := url.URL{
		Scheme:   c.Scheme(),
		Host:     req.Host,
		Path:     req.URL.Path,
		RawQuery: q.Encode(),
	}
	return u.String()
}
