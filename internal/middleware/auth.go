package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CustomClaims contains the custom claims from Auth0 JWT
type CustomClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
	// SubjectKey is the context key for the token subject
	SubjectKey contextKey = "subject"
)

// AuthMiddleware provides JWT validation middleware
type AuthMiddleware struct {
	validator *validator.Validator
}

// NewAuthMiddleware creates a new AuthMiddleware with Auth0 configuration
func NewAuthMiddleware(domain, audience string) (*AuthMiddleware, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &AuthMiddleware{validator: jwtValidator}, nil
}

// Authenticate returns an Echo middleware that validates JWT tokens
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			// Check Bearer prefix
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
			}

			token := parts[1]

			claims, err := m.validator.ValidateToken(c.Request().Context(), token)
			if err != nil {
				log.Debug().Err(err).Msg("Token validation failed")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			validatedClaims, ok := claims.(*validator.ValidatedClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid claims")
			}

			subject := validatedClaims.RegisteredClaims.Subject

			ctx := context.WithValue(c.Request().Context(), ClaimsKey, validatedClaims)
			ctx = context.WithValue(ctx, SubjectKey, subject)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// GetSubject extracts the token subject from the context
func GetSubject(c echo.Context) string {
	if subject, ok := c.Request().Context().Value(SubjectKey).(string); ok {
		return subject
	}
	return ""
}

// GetClaims extracts the validated claims from the context
func GetClaims(c echo.Context) *validator.ValidatedClaims {
	if claims, ok := c.Request().Context().Value(ClaimsKey).(*validator.ValidatedClaims); ok {
		return claims
	}
	return nil
}

// GetCustomClaims extracts the custom claims from the context
func GetCustomClaims(c echo.Context) *CustomClaims {
	claims := GetClaims(c)
	if claims == nil {
		return nil
	}
	if custom, ok := claims.CustomClaims.(*CustomClaims); ok {
		return custom
	}
	return nil
}
