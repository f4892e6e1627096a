package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "catalog/internal/errors"
	"catalog/internal/service"
	"catalog/internal/validation"
)

// CategoryHandler serves the category endpoints.
type CategoryHandler struct {
	svc   service.CategoryService
	pages Pagination
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(svc service.CategoryService, pages Pagination) *CategoryHandler {
	return &CategoryHandler{svc: svc, pages: pages}
}

// CategoryRequest is the body of a category create or update.
type CategoryRequest struct {
	Name        *string `json:"name" example:"Electronics"`
	Description *string `json:"description" example:"Phones, laptops and accessories"`
}

func (r CategoryRequest) fields(malformed *apperrors.ValidationError) validation.CategoryFields {
	return validation.CategoryFields{Name: r.Name, Description: r.Description, Malformed: malformed}
}

// List godoc
// @Summary List categories
// @Description Categories ordered by name. search matches name or description.
// @Tags categories
// @Produce json
// @Param search query string false "Case-insensitive substring"
// @Param page query int false "Page number"
// @Param page_size query int false "Items per page"
// @Success 200 {object} CategoryPage
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/categories/ [get]
func (h *CategoryHandler) List(c echo.Context) error {
	pageReq, err := h.pages.request(c)
	if err != nil {
		return err
	}
	page, err := h.svc.List(c.Request().Context(), service.CategoryQuery{
		Search:      c.QueryParam("search"),
		PageRequest: pageReq,
	})
	if err != nil {
		return apperrors.EchoError(err)
	}
	return c.JSON(http.StatusOK, newPageResponse(c, page, newCategoryResponse))
}

// Create godoc
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryRequest true "Category"
// @Success 201 {object} CategoryResponse
// @Failure 400 {object} map[string][]string
// @Failure 401 {object} errors.ErrorResponse
// @Router /products/categories/ [post]
func (h *CategoryHandler) Create(c echo.Context) error {
	var req CategoryRequest
	malformed, err := decodeBody(c, &req)
	if err != nil {
		return err
	}
	category, err := h.svc.Create(c.Request().Context(), req.fields(malformed))
	if err != nil {
		return apperrors.EchoError(err)
	}
	return c.JSON(http.StatusCreated, newCategoryResponse(category))
}

// Get godoc
// @Summary Get a category
// @Tags categories
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} CategoryResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/categories/{id}/ [get]
func (h *CategoryHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	category, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperrors.EchoError(err)
	}
	return c.JSON(http.StatusOK, newCategoryResponse(category))
}

// Update godoc
// @Summary Replace a category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param request body CategoryRequest true "Category"
// @Success 200 {object} CategoryResponse
// @Failure 400 {object} map[string][]string
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/categories/{id}/ [put]
func (h *CategoryHandler) Update(c echo.Context) error {
	return h.update(c, false)
}

// Patch godoc
// @Summary Partially update a category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param request body CategoryRequest true "Fields to change"
// @Success 200 {object} CategoryResponse
// @Failure 400 {object} map[string][]string
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/categories/{id}/ [patch]
func (h *CategoryHandler) Patch(c echo.Context) error {
	return h.update(c, true)
}

func (h *CategoryHandler) update(c echo.Context, partial bool) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req CategoryRequest
	malformed, err := decodeBody(c, &req)
	if err != nil {
		return err
	}
	category, err := h.svc.Update(c.Request().Context(), id, req.fields(malformed), partial)
	if err != nil {
		return apperrors.EchoError(err)
	}
	return c.JSON(http.StatusOK, newCategoryResponse(category))
}

// Delete godoc
// @Summary Delete a category and all of its products
// @Tags categories
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/categories/{id}/ [delete]
func (h *CategoryHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return apperrors.EchoError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
