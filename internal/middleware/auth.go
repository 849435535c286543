package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	// SubjectKey is the key used to store the token subject in Fiber's locals.
	SubjectKey = "subject"
	// ClaimsKey is the key used to store JWT claims in Fiber's locals.
	ClaimsKey = "claims"
)

var (
	// ErrMissingToken indicates the Authorization header is missing or malformed.
	ErrMissingToken = errors.New("missing or malformed authorization header")
	// ErrInvalidToken indicates the token is invalid or expired.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// TokenValidator checks a bearer token.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwt.RegisteredClaims, error)
}

// AuthMiddleware creates a middleware that validates JWT bearer tokens.
func AuthMiddleware(tokens TokenValidator, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			logger.Debug("missing Authorization header")
			return unauthorized(c, ErrMissingToken)
		}

		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || scheme != "Bearer" || tokenString == "" {
			logger.Debug("malformed Authorization header")
			return unauthorized(c, ErrMissingToken)
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			logger.Debug("token validation failed", zap.Error(err))
			return unauthorized(c, ErrInvalidToken)
		}

		c.Locals(SubjectKey, claims.Subject)
		c.Locals(ClaimsKey, claims)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// GetSubject retrieves the token subject from Fiber's locals.
func GetSubject(c *fiber.Ctx) (string, bool) {
	subject, ok := c.Locals(SubjectKey).(string)
	return subject, ok
}

// GetClaims retrieves JWT claims from Fiber's locals.
func GetClaims(c *fiber.Ctx) (*jwt.RegisteredClaims, bool) {
	claims, ok := c.Locals(ClaimsKey).(*jwt.RegisteredClaims)
	return claims, ok
}
