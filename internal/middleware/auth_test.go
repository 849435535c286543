package middleware_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap/zaptest"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/middleware"
	"github.com/igtmtakan/pyspiderNx-sub000/pkg/auth"
	"github.com/igtmtakan/pyspiderNx-sub000/pkg/config"
)

func setupApp(t *testing.T) (*fiber.App, *auth.Service) {
	logger := zaptest.NewLogger(t)
	tokens := auth.NewService(config.JWTConfig{Secret: "test-secret", Issuer: "nxwebui", Expiration: time.Hour}, logger)

	app := fiber.New()
	app.Use(middleware.AuthMiddleware(tokens, logger))
	app.Get("/test", func(c *fiber.Ctx) error {
		subject, ok := middleware.GetSubject(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		if _, ok := middleware.GetClaims(c); !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(subject)
	})
	return app, tokens
}

func TestAuthMiddleware(t *testing.T) {
	app, tokens := setupApp(t)

	t.Run("ValidToken", func(t *testing.T) {
		token, err := tokens.GenerateToken("operator")
		if err != nil {
			t.Fatalf("GenerateToken failed: %v", err)
		}
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		if string(body) != "operator" {
			t.Errorf("Expected subject operator, got %q", body)
		}
	})

	for name, header := range map[string]string{
		"MissingHeader": "",
		"WrongScheme":   "Basic abc",
		"EmptyToken":    "Bearer ",
		"InvalidToken":  "Bearer invalid.token.here",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			if resp.StatusCode != fiber.StatusUnauthorized {
				t.Errorf("Expected status 401, got %d", resp.StatusCode)
			}
		})
	}
}
