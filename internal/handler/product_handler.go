package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "catalog/internal/errors"
	"catalog/internal/service"
	"catalog/internal/validation"
)

// ProductHandler serves the product endpoints.
type ProductHandler struct {
	svc   service.ProductService
	pages Pagination
}

// NewProductHandler creates a new product handler.
func NewProductHandler(svc service.ProductService, pages Pagination) *ProductHandler {
	return &ProductHandler{svc: svc, pages: pages}
}

// ProductRequest is the body of a product create or update. category is
// accepted as an alias of category_id.
type ProductRequest struct {
	Name        *string `json:"name" example:"Smartphone X"`
	Description *string `json:"description" example:"A phone with a great camera"`
	Price       Price   `json:"price" swaggertype:"string" example:"599.99"`
	Stock       *int    `json:"stock" example:"3"`
	CategoryID  *uint   `json:"category_id" example:"1"`
	Category    *uint   `json:"category,omitempty" swaggerignore:"true"`
}

func (r ProductRequest) fields(malformed *apperrors.ValidationError) validation.ProductFields {
	categoryID := r.CategoryID
	if categoryID == nil {
		categoryID = r.Category
	}
	return validation.ProductFields{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price.Value,
		Stock:       r.Stock,
		CategoryID:  categoryID,
		Malformed:   malformed,
	}
}

// List godoc
// @Summary List products
// @Description Filter by category or stock, search name, description and category name, order by price, name, created_at or stock.
// @Tags products
// @Produce json
// @Param category query int false "Category ID"
// @Param stock query int false "Exact stock level"
// @Param search query string false "Case-insensitive substring"
// @Param ordering query string false "price, -price, name, -name, created_at, -created_at, stock or -stock" default(name)
// @Param page query int false "Page number"
// @Param page_size query int false "Items per page"
// @Success 200 {object} ProductPage
// @Failure 400 {object} map[string][]string
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/products/ [get]
func (h *ProductHandler) List(c echo.Context) error {
	q := service.ProductQuery{
		Search:   c.QueryParam("search"),
		Ordering: c.QueryParam("ordering"),
	}
	filters := apperrors.NewValidationError()
	if raw := c.QueryParam("category"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			filters.Add("category", "Select a valid choice. That choice is not one of the available choices.")
		} else {
			categoryID := uint(id)
			q.CategoryID = &categoryID
		}
	}
	if raw := c.QueryParam("stock"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			filters.Add("stock", "Enter a number.")
		} else {
			q.Stock = &stock
		}
	}
	if err := filters.OrNil(); err != nil {
		return apperrors.EchoError(err)
	}

	pageReq, err := h.pages.request(c)
	if err != nil {
		return err
	}
	q.PageRequest = pageReq

	page, err := h.svc.List(c.Request().Context(), q)
	if err != nil {
		return apperrors.EchoError(err)
	}
	return c.JSON(http.StatusOK, newPageResponse(c, page, newProductListItem))
}

// Create godoc
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProductRequest true "Product"
// @Success 201 {object} ProductResponse
// @Failure 400 {object} map[string][]string
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/products/ [post]
func (h *ProductHandler) Create(c echo.Context) error {
	var req ProductRequest
	malformed, err := decodeBody(c, &req)
	if err != nil {
		return err
	}
	product, err := h.svc.Create(c.Request().Context(), req.fields(malformed))
	if err != nil {
		return apperrors.EchoError(err)
	}
	return c.JSON(http.StatusCreated, newProductResponse(product))
}

// Get godoc
// @Summary Get a product
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} ProductResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/products/{id}/ [get]
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	product, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperrors.EchoError(err)
	}
	return c.JSON(http.StatusOK, newProductResponse(product))
}

// Update godoc
// @Summary Replace a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param request body ProductRequest true "Product"
// @Success 200 {object} ProductResponse
// @Failure 400 {object} map[string][]string
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/products/{id}/ [put]
func (h *ProductHandler) Update(c echo.Context) error {
	return h.update(c, false)
}

// Patch godoc
// @Summary Partially update a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param request body ProductRequest true "Fields to change"
// @Success 200 {object} ProductResponse
// @Failure 400 {object} map[string][]string
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/products/{id}/ [patch]
func (h *ProductHandler) Patch(c echo.Context) error {
	return h.update(c, true)
}

func (h *ProductHandler) update(c echo.Context, partial bool) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req ProductRequest
	malformed, err := decodeBody(c, &req)
	if err != nil {
		return err
	}
	product, err := h.svc.Update(c.Request().Context(), id, req.fields(malformed), partial)
	if err != nil {
		return apperrors.EchoError(err)
	}
	return c.JSON(http.StatusOK, newProductResponse(product))
}

// Delete godoc
// @Summary Delete a product
// @Tags products
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/products/{id}/ [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return apperrors.EchoError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
