package middleware

import (
	"context"
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"catalog/internal/auth"
	apperrors "catalog/internal/errors"
)

// ClaimsKey is the echo context key holding the *auth.Claims of the caller.
const ClaimsKey = "claims"

// Authenticator verifies a bearer access token.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error)
}

// RequireAuth rejects requests without a valid, unrevoked access token.
// Requests for which skipper returns true pass through untouched.
func RequireAuth(a Authenticator, skipper echomw.Skipper) echo.MiddlewareFunc {
	return echojwt.WithConfig(jwtConfig(a, skipper, false))
}

// OptionalAuth authenticates the caller when a bearer token is present. A
// missing token is fine; an invalid one is still rejected.
func OptionalAuth(a Authenticator) echo.MiddlewareFunc {
	return echojwt.WithConfig(jwtConfig(a, nil, true))
}

// SafeMethods skips authentication for read-only requests.
func SafeMethods(c echo.Context) bool {
	switch c.Request().Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// ClaimsFrom returns the authenticated caller, or nil.
func ClaimsFrom(c echo.Context) *auth.Claims {
	claims, _ := c.Get(ClaimsKey).(*auth.Claims)
	return claims
}

func jwtConfig(a Authenticator, skipper echomw.Skipper, optional bool) echojwt.Config {
	return echojwt.Config{
		Skipper:                skipper,
		ContextKey:             ClaimsKey,
		TokenLookup:            "header:" + echo.HeaderAuthorization + ":Bearer ",
		ContinueOnIgnoredError: optional,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return a.Authenticate(c.Request().Context(), token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var missing *echojwt.TokenExtractionError
			switch {
			case errors.Is(err, apperrors.ErrTokenRevoked), errors.Is(err, apperrors.ErrTokenInvalid):
				return apperrors.EchoError(err)
			case optional && errors.As(err, &missing):
				return nil
			default:
				return apperrors.EchoError(apperrors.ErrUnauthorized)
			}
		},
	}
}
