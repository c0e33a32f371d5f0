package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"legalport/internal/domain"
)

type joinTokenClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
	Channel   string `json:"channel"`
	AppID     string `json:"app_id"`
}

// IssueJoinToken mints a short-lived credential for one participant of one session.
func (s *VideoServiceImpl) IssueJoinToken(ctx context.Context, sessionID, userID string) (*domain.JoinToken, error) {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !session.HasParticipant(userID) {
		return nil, domain.ErrAccessDenied
	}

	if session.Status == domain.VideoSessionStatusEnded {
		return nil, domain.ErrSessionEnded
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.TokenTTL)

	claims := joinTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SessionID: session.ID,
		Channel:   session.ChannelName,
		AppID:     s.cfg.AppID,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.TokenSigningKey))
	if err != nil {
		s.logger.Error("failed to sign join token", zap.String("sessionID", sessionID), zap.Error(err))
		return nil, fmt.Errorf("failed to sign join token: %w", err)
	}

	return &domain.JoinToken{
		AppID:      s.cfg.AppID,
		Channel:    session.ChannelName,
		UID:        userID,
		Token:      token,
		ExpiresAt:  expiresAt,
		RenewAfter: expiresAt.Add(-s.cfg.TokenRenewBefore),
	}, nil
}

func (s *VideoServiceImpl) VerifyJoinToken(tokenString string) (*domain.JoinClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &joinTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.TokenSigningKey), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*joinTokenClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	return &domain.JoinClaims{
		SessionID: claims.SessionID,
		Channel:   claims.Channel,
		UID:       claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
