package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog/internal/auth"
	apperrors "catalog/internal/errors"
	"catalog/internal/logging"
	"catalog/internal/model"
	"catalog/internal/repository"
	"catalog/internal/validation"
)

const (
	msgUsernameTaken = "A user with this username already exists."
	msgEmailTaken    = "A user with this email already exists."
)

// TokenPair is an access token and the refresh token that renews it.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, in validation.UserFields) (*model.User, error)
	// Login accepts a username, or an email address when identifier contains "@".
	Login(ctx context.Context, identifier, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	// Logout revokes refreshToken and, when access is non-nil, the access token it describes.
	Logout(ctx context.Context, refreshToken string, access *auth.Claims) error
	Profile(ctx context.Context, userID uint) (*model.User, error)
	Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error)
}

type authService struct {
	users      repository.UserRepository
	profiles   UserService
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	hasher     *auth.PasswordHasher
	now        func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, profiles UserService, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, hasher *auth.PasswordHasher) AuthService {
	return &authService{
		users:      users,
		profiles:   profiles,
		jwtService: jwtService,
		tokenStore: tokenStore,
		hasher:     hasher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Register validates and creates a new user with a hashed password.
func (s *authService) Register(ctx context.Context, in validation.UserFields) (*model.User, error) {
	validation.NormalizeUser(&in)
	checker := validation.User(in)
	if !checker.Failed("username") {
		taken, err := s.users.UsernameExists(ctx, in.Username)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if taken {
			checker.Fail("username", msgUsernameTaken)
		}
	}
	if !checker.Failed("email") {
		taken, err := s.users.EmailExists(ctx, in.Email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if taken {
			checker.Fail("email", msgEmailTaken)
		}
	}
	if err := checker.Err(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     true,
		DateJoined:   s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsDuplicate(err) {
			return nil, s.duplicateUser(ctx, in)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logging.FromContext(ctx).Info("user registered", "user_id", user.ID)
	return user, nil
}

// duplicateUser attributes a unique index violation to the offending field.
func (s *authService) duplicateUser(ctx context.Context, in validation.UserFields) error {
	verr := apperrors.NewValidationError()
	if taken, _ := s.users.UsernameExists(ctx, in.Username); taken {
		verr.Add("username", msgUsernameTaken)
	}
	if taken, _ := s.users.EmailExists(ctx, in.Email); taken {
		verr.Add("email", msgEmailTaken)
	}
	if verr.Empty() {
		verr.Add("username", msgUsernameTaken)
	}
	return verr
}

// Login authenticates a user and returns access and refresh tokens.
func (s *authService) Login(ctx context.Context, identifier, password string) (*TokenPair, error) {
	identifier = strings.TrimSpace(identifier)
	verr := apperrors.NewValidationError()
	if identifier == "" {
		verr.Add("username", "This field is required.")
	}
	if password == "" {
		verr.Add("password", "This field is required.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	var (
		user *model.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.users.FindByEmail(ctx, identifier)
	} else {
		user, err = s.users.FindByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrAuthentication
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive || !s.hasher.Verify(user.PasswordHash, password) {
		return nil, apperrors.ErrAuthentication
	}

	pair, refresh, err := s.issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	if err := s.tokenStore.StoreRefreshToken(ctx, refresh, user.ID); err != nil {
		return nil, err
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	s.profiles.Invalidate(ctx, user.ID)

	logging.FromContext(ctx).Info("user logged in", "user_id", user.ID)
	return pair, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. Presenting a rotated token again fails.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.FieldError("refresh", "This field is required.")
	}
	claims, err := s.jwtService.ValidateToken(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", apperrors.ErrTokenInvalid)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrAuthentication
	}

	pair, next, err := s.issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	if err := s.tokenStore.RotateRefreshToken(ctx, claims.ID, user.ID, next); err != nil {
		if errors.Is(err, apperrors.ErrTokenRevoked) {
			logging.FromContext(ctx).Warn("refresh token reuse", "user_id", user.ID, "jti", claims.ID)
		}
		return nil, err
	}
	return pair, nil
}

// Logout blacklists a refresh token and the caller's access token.
func (s *authService) Logout(ctx context.Context, refreshToken string, access *auth.Claims) error {
	if refreshToken == "" {
		return apperrors.FieldError("refresh", "This field is required.")
	}
	claims, err := s.jwtService.ValidateToken(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return err
	}
	if err := s.tokenStore.RevokeRefreshToken(ctx, claims.ID); err != nil {
		return err
	}
	if access != nil && access.ExpiresAt != nil {
		if err := s.tokenStore.BlacklistAccessToken(ctx, access.ID, access.ExpiresAt.Time); err != nil {
			return err
		}
	}
	logging.FromContext(ctx).Info("user logged out", "user_id", claims.UserID)
	return nil
}

// Profile returns the authenticated user.
func (s *authService) Profile(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.profiles.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", apperrors.ErrTokenInvalid)
		}
		return nil, err
	}
	return user, nil
}

// Authenticate verifies an access token and checks it was not revoked.
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error) {
	if accessToken == "" {
		return nil, apperrors.ErrUnauthorized
	}
	claims, err := s.jwtService.ValidateToken(accessToken, auth.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	revoked, err := s.tokenStore.IsAccessTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check access token: %w", err)
	}
	if revoked {
		return nil, apperrors.ErrTokenRevoked
	}
	return claims, nil
}

func (s *authService) issue(userID uint, username string) (*TokenPair, *auth.IssuedToken, error) {
	access, err := s.jwtService.GenerateAccessToken(userID, username)
	if err != nil {
		return nil, nil, fmt.Errorf("generate access token: %w", err)
	}
	refresh, err := s.jwtService.GenerateRefreshToken(userID, username)
	if err != nil {
		return nil, nil, fmt.Errorf("generate refresh token: %w", err)
	}
	return &TokenPair{Access: access.Token, Refresh: refresh.Token}, refresh, nil
}
