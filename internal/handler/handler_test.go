package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog/internal/auth"
	"catalog/internal/cache"
	"catalog/internal/db"
	"catalog/internal/db/dbtest"
	"catalog/internal/events"
	"catalog/internal/handler"
	"catalog/internal/logging"
	"catalog/internal/repository"
	"catalog/internal/router"
	"catalog/internal/service"
)

const testPassword = "Correct-Horse-Battery-9"

type apiClient struct {
	t *testing.T
	e *echo.Echo
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	gdb := dbtest.New(t)
	mr := miniredis.RunT(t)
	cacheClient := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cacheClient.Close() })

	categoryRepo := repository.NewCategoryRepository(gdb)
	productRepo := repository.NewProductRepository(gdb)
	userRepo := repository.NewUserRepository(gdb)

	jwtService := auth.NewJWTService("test-secret", time.Hour, 24*time.Hour)
	tokenStore := auth.NewTokenStore(repository.NewTokenRepository(gdb), cacheClient)
	userService := service.NewUserService(userRepo, cacheClient)
	authService := service.NewAuthService(userRepo, userService, jwtService, tokenStore, auth.NewPasswordHasher(4))
	categoryService := service.NewCategoryService(categoryRepo, productRepo, cacheClient, events.Noop{})
	productService := service.NewProductService(productRepo, categoryRepo, cacheClient, events.Noop{})

	pages := handler.Pagination{DefaultSize: 10, MaxSize: 100}
	e := echo.New()
	router.Register(e, logging.NewWithWriter(io.Discard, "error"), authService, router.Handlers{
		Info:     handler.NewInfoHandler(db.Pinger{DB: gdb}, cacheClient),
		Auth:     handler.NewAuthHandler(authService),
		User:     handler.NewUserHandler(authService),
		Category: handler.NewCategoryHandler(categoryService, pages),
		Product:  handler.NewProductHandler(productService, pages),
	})
	return &apiClient{t: t, e: e}
}

type response struct {
	*httptest.ResponseRecorder
}

func (r response) object(t *testing.T) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(r.Body.Bytes(), &out), r.Body.String())
	return out
}

func (r response) fieldErrors(t *testing.T) map[string][]string {
	t.Helper()
	var out map[string][]string
	require.NoError(t, json.Unmarshal(r.Body.Bytes(), &out), r.Body.String())
	return out
}

func (a *apiClient) do(method, path string, body interface{}, token string) response {
	a.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return response{rec}
}

func (a *apiClient) register(username, email string) response {
	a.t.Helper()
	return a.do(http.MethodPost, "/api/users/register/", map[string]string{
		"username": username,
		"email":    email,
		"password": testPassword,
	}, "")
}

func (a *apiClient) login(username string) service.TokenPair {
	a.t.Helper()
	res := a.do(http.MethodPost, "/api/token/", map[string]string{"username": username, "password": testPassword}, "")
	require.Equal(a.t, http.StatusOK, res.Code, res.Body.String())
	var pair service.TokenPair
	require.NoError(a.t, json.Unmarshal(res.Body.Bytes(), &pair))
	require.NotEmpty(a.t, pair.Access)
	require.NotEmpty(a.t, pair.Refresh)
	return pair
}

// session registers a user and returns its access token.
func (a *apiClient) session() string {
	a.t.Helper()
	require.Equal(a.t, http.StatusCreated, a.register("catalog_admin", "admin@example.com").Code)
	return a.login("catalog_admin").Access
}

func (a *apiClient) createCategory(token, name string) uint {
	a.t.Helper()
	res := a.do(http.MethodPost, "/api/products/categories/", map[string]string{"name": name, "description": name + " department"}, token)
	require.Equal(a.t, http.StatusCreated, res.Code, res.Body.String())
	return uint(res.object(a.t)["id"].(float64))
}

func (a *apiClient) createProduct(token string, categoryID uint, name string, price interface{}, stock int) map[string]interface{} {
	a.t.Helper()
	res := a.do(http.MethodPost, "/api/products/products/", map[string]interface{}{
		"name":        name,
		"description": "Description of " + name,
		"price":       price,
		"stock":       stock,
		"category_id": categoryID,
	}, token)
	require.Equal(a.t, http.StatusCreated, res.Code, res.Body.String())
	return res.object(a.t)
}

func TestInfoAndHealth(t *testing.T) {
	api := newAPI(t)

	res := api.do(http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Welcome to E-Commerce API", res.object(t)["message"])

	res = api.do(http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "ok", res.object(t)["database"])

	res = api.do(http.MethodGet, "/api/nothing-here/", nil, "")
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Not found.", res.object(t)["detail"])
}

func TestRegisterAndProfile(t *testing.T) {
	api := newAPI(t)

	res := api.register("ab", "ab@example.com")
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.fieldErrors(t), "username")

	res = api.register("john_doe", "John@Example.com")
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	body := res.object(t)
	assert.Equal(t, "User created successfully", body["message"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "john@example.com", user["email"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "password_hash")

	res = api.register("jane_doe", "JOHN@example.COM")
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, []string{"A user with this email already exists."}, res.fieldErrors(t)["email"])

	res = api.do(http.MethodGet, "/api/users/profile/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	pair := api.login("john_doe")
	res = api.do(http.MethodGet, "/api/users/profile/", nil, pair.Access)
	require.Equal(t, http.StatusOK, res.Code)
	profile := res.object(t)
	assert.Equal(t, "john_doe", profile["username"])
	assert.NotNil(t, profile["last_login"])
	assert.NotContains(t, res.Body.String(), "$2")

	res = api.do(http.MethodGet, "/api/users/profile/", nil, pair.Refresh)
	assert.Equal(t, http.StatusUnauthorized, res.Code, "a refresh token is not an access token")
}

func TestLoginFailures(t *testing.T) {
	api := newAPI(t)
	require.Equal(t, http.StatusCreated, api.register("john_doe", "john@example.com").Code)

	res := api.do(http.MethodPost, "/api/token/", map[string]string{"username": "john_doe", "password": "wrong-password"}, "")
	require.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "No active account found with the given credentials", res.object(t)["detail"])

	res = api.do(http.MethodPost, "/api/token/", map[string]string{"username": "nobody", "password": testPassword}, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = api.do(http.MethodPost, "/api/token/", map[string]string{"username": "john@example.com", "password": testPassword}, "")
	assert.Equal(t, http.StatusOK, res.Code, "email logins are accepted")

	res = api.do(http.MethodPost, "/api/token/", map[string]string{}, "")
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.fieldErrors(t), "password")

	res = api.do(http.MethodPost, "/api/token/", "{not json", "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestRefreshRotationAndBlacklist(t *testing.T) {
	api := newAPI(t)
	require.Equal(t, http.StatusCreated, api.register("john_doe", "john@example.com").Code)
	pair := api.login("john_doe")

	res := api.do(http.MethodPost, "/api/token/refresh/", map[string]string{"refresh": pair.Refresh}, "")
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var rotated service.TokenPair
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &rotated))
	assert.NotEqual(t, pair.Refresh, rotated.Refresh)

	res = api.do(http.MethodPost, "/api/token/refresh/", map[string]string{"refresh": pair.Refresh}, "")
	require.Equal(t, http.StatusUnauthorized, res.Code, "a rotated refresh token cannot be reused")
	assert.Equal(t, "token_not_valid", res.object(t)["code"])

	res = api.do(http.MethodPost, "/api/token/refresh/", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = api.do(http.MethodPost, "/api/token/blacklist/", map[string]string{"refresh": rotated.Refresh}, rotated.Access)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.JSONEq(t, `{}`, res.Body.String())

	res = api.do(http.MethodGet, "/api/users/profile/", nil, rotated.Access)
	assert.Equal(t, http.StatusUnauthorized, res.Code, "the access token was blacklisted with the refresh token")

	res = api.do(http.MethodPost, "/api/token/refresh/", map[string]string{"refresh": rotated.Refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	// logging out without a bearer token is allowed
	other := api.login("john_doe")
	res = api.do(http.MethodPost, "/api/token/blacklist/", map[string]string{"refresh": other.Refresh}, "")
	assert.Equal(t, http.StatusOK, res.Code)
	res = api.do(http.MethodGet, "/api/users/profile/", nil, other.Access)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestWritesRequireToken(t *testing.T) {
	api := newAPI(t)

	res := api.do(http.MethodPost, "/api/products/categories/", map[string]string{"name": "Electronics"}, "")
	require.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "Authentication credentials were not provided.", res.object(t)["detail"])

	res = api.do(http.MethodPost, "/api/products/categories/", map[string]string{"name": "Electronics"}, "garbage")
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = api.do(http.MethodGet, "/api/products/categories/", nil, "")
	assert.Equal(t, http.StatusOK, res.Code, "reads are public")
}

func TestSmartphoneScenario(t *testing.T) {
	api := newAPI(t)
	token := api.session()
	electronics := api.createCategory(token, "Electronics")

	product := api.createProduct(token, electronics, "Smartphone X", "599.99", 3)
	assert.Equal(t, "599.99", product["price"])
	assert.Equal(t, "Low Stock", product["stock_status"])
	assert.Equal(t, "Electronics", product["category_name"])
	assert.Equal(t, float64(electronics), product["category"])
	id := uint(product["id"].(float64))

	path := fmt.Sprintf("/api/products/products/%d/", id)
	res := api.do(http.MethodPatch, path, map[string]int{"stock": 0}, token)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.Equal(t, "Out of Stock", res.object(t)["stock_status"])

	res = api.do(http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	got := res.object(t)
	assert.Equal(t, float64(0), got["stock"])
	assert.Equal(t, "Smartphone X", got["name"])

	res = api.do(http.MethodGet, fmt.Sprintf("/api/products/categories/%d/", electronics), nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(1), res.object(t)["product_count"])
}

func TestProductValidationOverHTTP(t *testing.T) {
	api := newAPI(t)
	token := api.session()
	c := api.createCategory(token, "Books")

	numeric := api.createProduct(token, c, "Numeric price", 12.5, 1)
	assert.Equal(t, "12.50", numeric["price"])

	res := api.do(http.MethodPost, "/api/products/products/", map[string]interface{}{
		"name": "Bad price", "description": "A long enough description", "price": "abc", "stock": 1, "category_id": c,
	}, token)
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, []string{"A valid number is required."}, res.fieldErrors(t)["price"])

	res = api.do(http.MethodPost, "/api/products/products/", map[string]interface{}{
		"name": "Bad stock", "description": "A long enough description", "price": "1.00", "stock": "many", "category_id": c,
	}, token)
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, []string{"A valid integer is required."}, res.fieldErrors(t)["stock"])

	res = api.do(http.MethodPost, "/api/products/products/", map[string]interface{}{
		"name": "ab", "description": "short", "price": "0", "stock": -1, "category_id": c,
	}, token)
	require.Equal(t, http.StatusBadRequest, res.Code)
	fields := res.fieldErrors(t)
	for _, f := range []string{"name", "description", "price", "stock"} {
		assert.Contains(t, fields, f)
	}

	res = api.do(http.MethodPost, "/api/products/products/", map[string]interface{}{
		"name": "Orphan", "description": "A long enough description", "price": "1.00", "stock": 1, "category_id": 9999,
	}, token)
	assert.Equal(t, http.StatusNotFound, res.Code)

	alias := api.do(http.MethodPost, "/api/products/products/", map[string]interface{}{
		"name": "Alias", "description": "Uses the category field", "price": "3.00", "stock": 7, "category": c,
	}, token)
	require.Equal(t, http.StatusCreated, alias.Code, alias.Body.String())
	assert.Equal(t, "In Stock", alias.object(t)["stock_status"])

	res = api.do(http.MethodGet, "/api/products/products/abc/", nil, "")
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestMalformedFieldsReportedWithTheRest(t *testing.T) {
	api := newAPI(t)
	token := api.session()
	c := api.createCategory(token, "Garden")
	p := api.createProduct(token, c, "Garden hose", "19.99", 4)
	path := fmt.Sprintf("/api/products/products/%v/", p["id"])

	res := api.do(http.MethodPatch, path, map[string]interface{}{"price": "abc", "stock": -1, "name": "ab"}, token)
	require.Equal(t, http.StatusBadRequest, res.Code)
	fields := res.fieldErrors(t)
	assert.Equal(t, []string{"A valid number is required."}, fields["price"])
	assert.Contains(t, fields, "stock")
	assert.Contains(t, fields, "name")

	res = api.do(http.MethodPatch, path, map[string]interface{}{"stock": "x", "name": "ab"}, token)
	require.Equal(t, http.StatusBadRequest, res.Code)
	fields = res.fieldErrors(t)
	assert.Equal(t, []string{"A valid integer is required."}, fields["stock"])
	assert.Contains(t, fields, "name")

	res = api.do(http.MethodPost, "/api/products/products/", map[string]interface{}{
		"name": 42, "stock": "many", "category_id": c,
	}, token)
	require.Equal(t, http.StatusBadRequest, res.Code)
	fields = res.fieldErrors(t)
	assert.Equal(t, []string{"Not a valid string."}, fields["name"])
	assert.Equal(t, []string{"A valid integer is required."}, fields["stock"])
	assert.Equal(t, []string{"This field is required."}, fields["description"])
	assert.Equal(t, []string{"This field is required."}, fields["price"])

	unchanged := api.do(http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, unchanged.Code)
	assert.Equal(t, "Garden hose", unchanged.object(t)["name"])

	res = api.do(http.MethodPost, "/api/products/categories/", map[string]interface{}{"name": 7, "description": true}, token)
	require.Equal(t, http.StatusBadRequest, res.Code)
	fields = res.fieldErrors(t)
	assert.Equal(t, []string{"Not a valid string."}, fields["name"])
	assert.Equal(t, []string{"Not a valid string."}, fields["description"])

	res = api.do(http.MethodPost, "/api/users/register/", map[string]interface{}{
		"username": []string{"x"}, "email": "not-an-email", "password": testPassword,
	}, "")
	require.Equal(t, http.StatusBadRequest, res.Code)
	fields = res.fieldErrors(t)
	assert.Equal(t, []string{"Not a valid string."}, fields["username"])
	assert.Contains(t, fields, "email")

	res = api.do(http.MethodPost, "/api/products/products/", "[1, 2]", token)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "parse_error", res.object(t)["code"])
}

func TestProductListing(t *testing.T) {
	api := newAPI(t)
	token := api.session()
	c := api.createCategory(token, "Bulk")
	other := api.createCategory(token, "Other")
	for i := 1; i <= 12; i++ {
		api.createProduct(token, c, fmt.Sprintf("Item %02d", i), fmt.Sprintf("%d.00", (i*7)%13+1), i)
	}
	api.createProduct(token, other, "Gadget", "5.00", 4)

	res := api.do(http.MethodGet, fmt.Sprintf("/api/products/products/?category=%d&page=2&page_size=5", c), nil, "")
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var page handler.ProductPage
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &page))
	assert.Equal(t, int64(12), page.Count)
	require.Len(t, page.Results, 5)
	for i, item := range page.Results {
		assert.Equal(t, fmt.Sprintf("Item %02d", i+6), item.Name)
	}
	require.NotNil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Contains(t, *page.Next, "page=3")
	assert.True(t, strings.HasPrefix(*page.Next, "http://example.com/api/products/products/"))
	assert.NotContains(t, *page.Previous, "page=1", "the first page drops the page parameter")
	assert.NotContains(t, *page.Previous, "page=2")

	res = api.do(http.MethodGet, "/api/products/products/?page=99", nil, "")
	require.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Invalid page.", res.object(t)["detail"])

	res = api.do(http.MethodGet, "/api/products/products/?page=zero", nil, "")
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = api.do(http.MethodGet, "/api/products/products/?category=abc&stock=x", nil, "")
	require.Equal(t, http.StatusBadRequest, res.Code)
	fields := res.fieldErrors(t)
	assert.Contains(t, fields, "category")
	assert.Contains(t, fields, "stock")

	res = api.do(http.MethodGet, "/api/products/products/?stock=4", nil, "")
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &page))
	assert.Equal(t, int64(2), page.Count)

	res = api.do(http.MethodGet, "/api/products/products/?search=other", nil, "")
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &page))
	require.Equal(t, int64(1), page.Count, "search covers the category name")
	assert.Equal(t, "Gadget", page.Results[0].Name)

	for _, tc := range []struct {
		ordering   string
		descending bool
	}{
		{"price", false},
		{"-price", true},
	} {
		res = api.do(http.MethodGet, "/api/products/products/?page_size=100&ordering="+tc.ordering, nil, "")
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &page))
		require.Len(t, page.Results, 13)
		for i := 1; i < len(page.Results); i++ {
			prev := decimal.RequireFromString(page.Results[i-1].Price)
			cur := decimal.RequireFromString(page.Results[i].Price)
			if tc.descending {
				assert.True(t, prev.GreaterThanOrEqual(cur), tc.ordering)
			} else {
				assert.True(t, prev.LessThanOrEqual(cur), tc.ordering)
			}
		}
	}

	// without a trailing slash the path is rewritten
	res = api.do(http.MethodGet, "/api/products/products?page_size=1", nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &page))
	assert.Equal(t, "Gadget", page.Results[0].Name, "default ordering is by name")
	assert.Nil(t, page.Previous)
}

func TestCategoryLifecycle(t *testing.T) {
	api := newAPI(t)
	token := api.session()
	toys := api.createCategory(token, "Toys")
	robot := api.createProduct(token, toys, "Robot", "19.99", 4)

	res := api.do(http.MethodPost, "/api/products/categories/", map[string]string{"name": "TOYS"}, token)
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.fieldErrors(t), "name")

	path := fmt.Sprintf("/api/products/categories/%d/", toys)
	res = api.do(http.MethodPut, path, map[string]string{"name": "Games"}, token)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.Equal(t, "", res.object(t)["description"], "PUT without description clears it")

	res = api.do(http.MethodPatch, path, map[string]string{"description": "Board games and puzzles"}, token)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Games", res.object(t)["name"])

	productPath := fmt.Sprintf("/api/products/products/%d/", uint(robot["id"].(float64)))
	res = api.do(http.MethodGet, productPath, nil, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Games", res.object(t)["category_name"])

	res = api.do(http.MethodGet, "/api/products/categories/?search=puzzle", nil, "")
	var page handler.CategoryPage
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Count)

	res = api.do(http.MethodDelete, path, nil, token)
	require.Equal(t, http.StatusNoContent, res.Code)
	assert.Empty(t, res.Body.String())

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, productPath, nil, "").Code, "products go with their category")
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, path, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, path, nil, token).Code)
}
