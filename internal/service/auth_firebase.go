package service

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"legalport/config"
	"legalport/internal/domain"
)

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseAuthService verifies Firebase ID tokens. The role comes from the "role"
// custom claim and defaults to client.
type FirebaseAuthService struct {
	verifier idTokenVerifier
	logger   *zap.Logger
}

func NewFirebaseAuthService(ctx context.Context, cfg config.AuthConfig, logger *zap.Logger) (*FirebaseAuthService, error) {
	var opts []option.ClientOption
	if cfg.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to init firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init firebase auth client: %w", err)
	}

	logger.Info("firebase token verification enabled", zap.String("projectID", cfg.FirebaseProjectID))

	return &FirebaseAuthService{verifier: client, logger: logger}, nil
}

func (s *FirebaseAuthService) ParseToken(ctx context.Context, idToken string) (*domain.Principal, error) {
	token, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		if auth.IsIDTokenExpired(err) {
			return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, domain.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	return principalFromFirebase(token)
}

func principalFromFirebase(token *auth.Token) (*domain.Principal, error) {
	p := &domain.Principal{
		ID:   token.UID,
		Role: domain.UserRoleClient,
	}

	if v, ok := token.Claims["name"].(string); ok {
		p.Name = v
	}
	if v, ok := token.Claims["email"].(string); ok {
		p.Email = v
	}
	if v, ok := token.Claims["email_verified"].(bool); ok {
		p.EmailVerified = v
	}
	if v, ok := token.Claims["role"].(string); ok && v != "" {
		p.Role = domain.UserRole(v)
	}

	if p.ID == "" {
		return nil, fmt.Errorf("%w: token has no uid", domain.ErrUnauthorized)
	}
	if !p.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrUnauthorized, p.Role)
	}

	return p, nil
}
