package service

import (
	"context"
	"fmt"
	"time"

	"catalog/internal/cache"
	"catalog/internal/model"
	"catalog/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserService exposes read access to user profiles.
type UserService interface {
	GetUser(ctx context.Context, id uint) (*model.User, error)
	Invalidate(ctx context.Context, id uint)
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

// GetUser returns the profile of user id. The password hash never reaches the
// cache because it is excluded from the JSON encoding.
func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	key := s.cacheKey(id)
	var cached model.User
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	version := s.cache.Version(ctx, key)
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	_ = s.cache.SetJSONAt(ctx, key, version, user, userCacheTTL)
	return user, nil
}

// Invalidate drops the cached profile of user id.
func (s *userService) Invalidate(ctx context.Context, id uint) {
	_ = s.cache.Invalidate(ctx, s.cacheKey(id))
}
