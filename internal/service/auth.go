package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"legalport/config"
	"legalport/internal/domain"
)

// NewAuthService returns the token verifier for the configured identity provider.
func NewAuthService(ctx context.Context, cfg config.AuthConfig, logger *zap.Logger) (AuthService, error) {
	switch cfg.Provider {
	case "firebase":
		return NewFirebaseAuthService(ctx, cfg, logger)
	case "jwt", "":
		return NewJWTAuthService(cfg.JWTSigningKey, logger), nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Provider)
	}
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	EmailVerified bool            `json:"email_verified"`
	Role          domain.UserRole `json:"role"`
}

// JWTAuthService verifies HS256 tokens issued by the identity provider.
type JWTAuthService struct {
	signingKey []byte
	logger     *zap.Logger
}

func NewJWTAuthService(signingKey string, logger *zap.Logger) *JWTAuthService {
	return &JWTAuthService{
		signingKey: []byte(signingKey),
		logger:     logger,
	}
}

func (s *JWTAuthService) ParseToken(ctx context.Context, tokenString string) (*domain.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, domain.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}

	role := claims.Role
	if role == "" {
		role = domain.UserRoleClient
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrUnauthorized, role)
	}

	return &domain.Principal{
		ID:            claims.Subject,
		Name:          claims.Name,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Role:          role,
	}, nil
}
