package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"catalog/internal/db/dbtest"
	apperrors "catalog/internal/errors"
	"catalog/internal/model"
)

func seedCategory(t *testing.T, gdb *gorm.DB, name string) *model.Category {
	t.Helper()
	c := &model.Category{Name: name, Description: name + " things"}
	require.NoError(t, NewCategoryRepository(gdb).Create(context.Background(), c))
	return c
}

func seedProduct(t *testing.T, gdb *gorm.DB, categoryID uint, name, price string, stock int) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:        name,
		Description: "A description for " + name,
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		CategoryID:  categoryID,
	}
	require.NoError(t, NewProductRepository(gdb).Create(context.Background(), p))
	return p
}

func TestCategoryRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	repo := NewCategoryRepository(gdb)

	electronics := seedCategory(t, gdb, "Electronics")
	seedProduct(t, gdb, electronics.ID, "Laptop", "999.99", 3)
	seedProduct(t, gdb, electronics.ID, "Phone", "599.99", 8)

	got, err := repo.FindByID(ctx, electronics.ID)
	require.NoError(t, err)
	assert.Equal(t, "Electronics", got.Name)
	assert.Equal(t, int64(2), got.ProductCount)

	got.Description = ""
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.FindByID(ctx, electronics.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Description)

	_, err = repo.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	exists, err := repo.Exists(ctx, electronics.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCategoryRepository_NameTakenIgnoresCase(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	repo := NewCategoryRepository(gdb)
	books := seedCategory(t, gdb, "Books")

	taken, err := repo.NameTaken(ctx, "bOOKS", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.NameTaken(ctx, "books", books.ID)
	require.NoError(t, err)
	assert.False(t, taken, "a category never conflicts with itself")

	found, err := repo.FindByName(ctx, "BOOKS")
	require.NoError(t, err)
	assert.Equal(t, books.ID, found.ID)
	_, err = repo.FindByName(ctx, "Music")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = repo.Create(ctx, &model.Category{Name: "Books"})
	assert.True(t, IsDuplicate(err))
}

func TestCategoryRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	repo := NewCategoryRepository(gdb)
	products := NewProductRepository(gdb)

	toys := seedCategory(t, gdb, "Toys")
	keep := seedCategory(t, gdb, "Garden")
	a := seedProduct(t, gdb, toys.ID, "Robot", "19.99", 4)
	b := seedProduct(t, gdb, toys.ID, "Puzzle", "9.50", 10)
	other := seedProduct(t, gdb, keep.ID, "Shovel", "25.00", 2)

	removed, err := repo.Delete(ctx, toys.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{a.ID, b.ID}, removed)

	_, err = products.FindByID(ctx, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = products.FindByID(ctx, b.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = products.FindByID(ctx, other.ID)
	assert.NoError(t, err)

	_, err = repo.Delete(ctx, toys.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCategoryRepository_ListSearchesAndPages(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	repo := NewCategoryRepository(gdb)
	for _, name := range []string{"Sports", "Books", "Home & Kitchen", "Clothing"} {
		seedCategory(t, gdb, name)
	}

	all, total, err := repo.List(ctx, CategoryFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, all, 4)
	assert.Equal(t, "Books", all[0].Name)
	assert.Equal(t, "Sports", all[3].Name)

	found, total, err := repo.List(ctx, CategoryFilter{Search: "KITCHEN", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, found, 1)
	assert.Equal(t, "Home & Kitchen", found[0].Name)

	page, total, err := repo.List(ctx, CategoryFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, page, 2)
	assert.Equal(t, "Home & Kitchen", page[0].Name)
}

func TestProductRepository_CreateLoadsCategory(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	repo := NewProductRepository(gdb)
	c := seedCategory(t, gdb, "Electronics")

	p := seedProduct(t, gdb, c.ID, "Smartphone X", "599.99", 3)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "Electronics", p.Category.Name)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("599.99")))
	assert.False(t, p.CreatedAt.IsZero())

	err := repo.Create(ctx, &model.Product{
		Name: "Orphan", Description: "no category at all", Price: decimal.NewFromInt(1), CategoryID: 4242,
	})
	assert.Error(t, err, "foreign key must reject a missing category")
}

func TestProductRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	repo := NewProductRepository(gdb)
	c := seedCategory(t, gdb, "Electronics")
	other := seedCategory(t, gdb, "Books")
	p := seedProduct(t, gdb, c.ID, "Smartphone X", "599.99", 3)

	p.Stock = 0
	p.CategoryID = other.ID
	require.NoError(t, repo.Update(ctx, p))
	assert.Equal(t, 0, p.Stock)
	assert.Equal(t, "Books", p.Category.Name)
	assert.Equal(t, model.StockStatusOut, p.StockStatus())

	require.NoError(t, repo.Delete(ctx, p.ID))
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), apperrors.ErrNotFound)
}

func TestProductRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	repo := NewProductRepository(gdb)
	electronics := seedCategory(t, gdb, "Electronics")
	books := seedCategory(t, gdb, "Books")
	seedProduct(t, gdb, electronics.ID, "Laptop Pro", "1299.00", 7)
	seedProduct(t, gdb, electronics.ID, "Headphones", "89.90", 0)
	seedProduct(t, gdb, books.ID, "Go in Action", "39.99", 7)
	seedProduct(t, gdb, books.ID, "100% Cotton Guide", "12.00", 1)

	byCategory, total, err := repo.List(ctx, ProductFilter{CategoryID: &books.ID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, byCategory, 2)

	stock := 7
	byStock, total, err := repo.List(ctx, ProductFilter{Stock: &stock, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, p := range byStock {
		assert.Equal(t, 7, p.Stock)
	}

	// search matches the category name too
	byCategoryName, _, err := repo.List(ctx, ProductFilter{Search: "electro", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, byCategoryName, 2)

	byName, _, err := repo.List(ctx, ProductFilter{Search: "LAPTOP", Limit: 10})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Laptop Pro", byName[0].Name)
	assert.Equal(t, "Electronics", byName[0].Category.Name)

	literal, _, err := repo.List(ctx, ProductFilter{Search: "100%", Limit: 10})
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, "100% Cotton Guide", literal[0].Name)
}

func TestProductRepository_Ordering(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	repo := NewProductRepository(gdb)
	c := seedCategory(t, gdb, "Misc")
	for i, price := range []string{"50.00", "5.25", "1000.00", "75.10", "5.25"} {
		seedProduct(t, gdb, c.ID, fmt.Sprintf("Item %c", 'E'-rune(i)), price, i)
	}

	desc, _, err := repo.List(ctx, ProductFilter{Ordering: "-price", Limit: 10})
	require.NoError(t, err)
	for i := 1; i < len(desc); i++ {
		assert.True(t, desc[i-1].Price.GreaterThanOrEqual(desc[i].Price), "position %d", i)
	}

	asc, _, err := repo.List(ctx, ProductFilter{Ordering: "price", Limit: 10})
	require.NoError(t, err)
	for i := 1; i < len(asc); i++ {
		assert.True(t, asc[i-1].Price.LessThanOrEqual(asc[i].Price), "position %d", i)
	}

	byDefault, _, err := repo.List(ctx, ProductFilter{Ordering: "bogus", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "Item A", byDefault[0].Name)
	assert.Equal(t, "Item E", byDefault[4].Name)

	assert.True(t, ValidProductOrdering("-created_at"))
	assert.False(t, ValidProductOrdering("description"))
}

func TestProductRepository_Pagination(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	repo := NewProductRepository(gdb)
	c := seedCategory(t, gdb, "Bulk")
	for i := 1; i <= 12; i++ {
		seedProduct(t, gdb, c.ID, fmt.Sprintf("Item %02d", i), "1.00", i)
	}

	page, total, err := repo.List(ctx, ProductFilter{Limit: 5, Offset: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, page, 5)
	assert.Equal(t, "Item 06", page[0].Name)
	assert.Equal(t, "Item 10", page[4].Name)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	repo := NewUserRepository(gdb)

	u := &model.User{Username: "alice", Email: "Alice@Example.com", PasswordHash: "x", IsActive: true, DateJoined: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, "alice@example.com", u.Email)

	found, err := repo.FindByEmail(ctx, "ALICE@example.COM")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	exists, err := repo.EmailExists(ctx, "alice@EXAMPLE.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.UsernameExists(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, exists)

	err = repo.Create(ctx, &model.User{Username: "alice2", Email: "ALICE@example.com", PasswordHash: "x", DateJoined: time.Now().UTC()})
	assert.True(t, IsDuplicate(err))

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, u.ID, at))
	found, err = repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, found.LastLogin)
	assert.True(t, found.LastLogin.Equal(at))

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTokenRepository_Rotation(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	repo := NewTokenRepository(gdb)
	now := time.Now().UTC()

	require.NoError(t, repo.CreateRefreshToken(ctx, &model.RefreshToken{JTI: "old", UserID: 1, ExpiresAt: now.Add(time.Hour)}))

	next := &model.RefreshToken{JTI: "new", UserID: 1, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.RotateRefreshToken(ctx, "old", 1, next, now))

	again := &model.RefreshToken{JTI: "newer", UserID: 1, ExpiresAt: now.Add(time.Hour)}
	err := repo.RotateRefreshToken(ctx, "old", 1, again, now)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	err = repo.RotateRefreshToken(ctx, "new", 2, again, now)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked, "token belongs to another user")

	live, err := repo.RevokeRefreshToken(ctx, "new", now)
	require.NoError(t, err)
	assert.True(t, live)
	live, err = repo.RevokeRefreshToken(ctx, "new", now)
	require.NoError(t, err)
	assert.False(t, live)
}

func TestTokenRepository_ExpiredRefreshCannotRotate(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	repo := NewTokenRepository(gdb)
	now := time.Now().UTC()

	require.NoError(t, repo.CreateRefreshToken(ctx, &model.RefreshToken{JTI: "stale", UserID: 1, ExpiresAt: now.Add(-time.Minute)}))
	err := repo.RotateRefreshToken(ctx, "stale", 1, &model.RefreshToken{JTI: "fresh", UserID: 1, ExpiresAt: now.Add(time.Hour)}, now)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	purged, err := repo.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestTokenRepository_AccessRevocation(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	repo := NewTokenRepository(gdb)
	now := time.Now().UTC()

	revoked, err := repo.IsAccessTokenRevoked(ctx, "jti-1", now)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, repo.RevokeAccessToken(ctx, "jti-1", now.Add(time.Hour)))
	require.NoError(t, repo.RevokeAccessToken(ctx, "jti-1", now.Add(time.Hour)), "revoking twice is a no-op")

	revoked, err = repo.IsAccessTokenRevoked(ctx, "jti-1", now)
	require.NoError(t, err)
	assert.True(t, revoked)
}
