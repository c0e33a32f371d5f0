package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"legalport/config"
	"legalport/internal/domain"
	"legalport/internal/realtime"
	"legalport/internal/repository"
)

type VideoServiceImpl struct {
	repo        repository.VideoRepository
	requestRepo repository.RequestRepository
	events      *events
	cfg         config.VideoConfig
	logger      *zap.Logger
	now         func() time.Time
}

func NewVideoService(
	repo repository.VideoRepository,
	requestRepo repository.RequestRepository,
	events *events,
	cfg config.VideoConfig,
	logger *zap.Logger,
) *VideoServiceImpl {
	return &VideoServiceImpl{
		repo:        repo,
		requestRepo: requestRepo,
		events:      events,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *VideoServiceImpl) CreateSession(ctx context.Context, lawyerID string, dto domain.CreateVideoSessionDTO) (*domain.VideoCallSession, error) {
	if lawyerID == "" || dto.ClientID == "" || lawyerID == dto.ClientID {
		return nil, domain.ErrMissingParticipants
	}

	var requestID *string
	if dto.RequestID != nil && *dto.RequestID != "" {
		req, err := s.requestRepo.GetByID(ctx, *dto.RequestID)
		if err != nil {
			return nil, err
		}
		if req.LawyerID != lawyerID || req.ClientID != dto.ClientID {
			return nil, fmt.Errorf("%w: request %s belongs to other participants", domain.ErrValidation, req.ID)
		}
		requestID = &req.ID
	}

	session := &domain.VideoCallSession{
		ID:          uuid.NewString(),
		ChannelName: s.channelName(),
		LawyerID:    lawyerID,
		ClientID:    dto.ClientID,
		Status:      domain.VideoSessionStatusWaiting,
		RequestID:   requestID,
	}

	if err := s.repo.Create(ctx, session); err != nil {
		s.logger.Error("failed to create video session", zap.String("lawyerID", lawyerID), zap.Error(err))
		return nil, err
	}

	s.events.publish(ctx, sessionTopics(session)...)

	return session, nil
}

// channelName is "vc" followed by a random UUID in hex, clipped to the SDK limit.
func (s *VideoServiceImpl) channelName() string {
	name := "vc" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if s.cfg.ChannelNameMaxLen > 0 && len(name) > s.cfg.ChannelNameMaxLen {
		name = name[:s.cfg.ChannelNameMaxLen]
	}
	return name
}

// UpdateSessionStatus moves a session forward, stamping started_at on active and
// ended_at on ended.
func (s *VideoServiceImpl) UpdateSessionStatus(ctx context.Context, sessionID, userID string, status domain.VideoSessionStatus) (*domain.VideoCallSession, error) {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !session.HasParticipant(userID) {
		return nil, domain.ErrAccessDenied
	}

	if !session.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, session.Status, status)
	}

	now := s.now()
	upd := domain.VideoStatusUpdate{Status: status}
	switch status {
	case domain.VideoSessionStatusActive:
		upd.StartedAt = &now
	case domain.VideoSessionStatusEnded:
		upd.EndedAt = &now
	}

	updated, err := s.repo.UpdateStatus(ctx, sessionID, session.Status, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: session %s was changed concurrently", domain.ErrInvalidTransition, sessionID)
		}
		s.logger.Error("failed to update video session", zap.String("sessionID", sessionID), zap.Error(err))
		return nil, err
	}

	s.events.publish(ctx, sessionTopics(updated)...)

	return updated, nil
}

func (s *VideoServiceImpl) ListSessions(ctx context.Context, ownerID string) ([]domain.VideoCallSession, error) {
	return s.repo.ListByOwner(ctx, ownerID, s.cfg.RecentSessionLimit)
}

func (s *VideoServiceImpl) ListenSessions(ctx context.Context, ownerID string, onChange func([]domain.VideoCallSession)) (func(), error) {
	return watch(ctx, s.events, []string{realtime.VideoSessionsTopic(ownerID)}, func(ctx context.Context) ([]domain.VideoCallSession, error) {
		return s.repo.ListByOwner(ctx, ownerID, s.cfg.RecentSessionLimit)
	}, onChange)
}

func (s *VideoServiceImpl) ActiveSessions(ctx context.Context, lawyerID string) ([]domain.VideoCallSession, error) {
	return s.repo.ListActiveByLawyer(ctx, lawyerID)
}

func sessionTopics(session *domain.VideoCallSession) []string {
	return []string{
		realtime.VideoSessionsTopic(session.LawyerID),
		realtime.VideoSessionsTopic(session.ClientID),
	}
}
