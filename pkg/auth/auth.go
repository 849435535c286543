package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/igtmtakan/pyspiderNx-sub000/pkg/config"
)

var (
	ErrEmptySubject = errors.New("token subject is required")
	ErrInvalidToken = errors.New("invalid token")
)

// Service issues and validates the bearer tokens that guard /v1.
type Service struct {
	config config.JWTConfig
	logger *zap.Logger
}

// NewService creates a token service from the JWT settings.
func NewService(cfg config.JWTConfig, logger *zap.Logger) *Service {
	return &Service{config: cfg, logger: logger}
}

// GenerateToken signs an HS256 token for subject that expires after the
// configured lifetime.
func (s *Service) GenerateToken(subject string) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiration)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	s.logger.Debug("token issued", zap.String("subject", subject))
	return signed, nil
}

// ValidateToken parses tokenString and checks its signature, expiry and
// issuer.
func (s *Service) ValidateToken(tokenString string) (*jwt.RegisteredClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
