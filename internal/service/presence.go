package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"legalport/config"
	"legalport/internal/domain"
	"legalport/internal/realtime"
	"legalport/internal/repository"
)

type PresenceServiceImpl struct {
	repo   repository.PresenceRepository
	events *events
	cfg    config.PresenceConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewPresenceService(repo repository.PresenceRepository, events *events, cfg config.PresenceConfig, logger *zap.Logger) *PresenceServiceImpl {
	if cfg.QueryChunkSize <= 0 {
		cfg.QueryChunkSize = 10
	}
	return &PresenceServiceImpl{
		repo:   repo,
		events: events,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// SetPresence records the user's state with last_seen = now. Concurrent writers are
// not ordered; the last one to arrive wins.
func (s *PresenceServiceImpl) SetPresence(ctx context.Context, userID string, isOnline bool) (*domain.Presence, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}

	p, err := s.repo.Upsert(ctx, userID, isOnline)
	if err != nil {
		s.logger.Error("failed to set presence", zap.String("userID", userID), zap.Bool("online", isOnline), zap.Error(err))
		return nil, err
	}

	s.events.publish(ctx, realtime.PresenceTopic(userID))

	return p, nil
}

// GetPresence returns an entry for every distinct id. Ids are queried in chunks and
// any id without a stored record reads as offline, last seen now.
func (s *PresenceServiceImpl) GetPresence(ctx context.Context, userIDs []string) (map[string]domain.Presence, error) {
	ids := uniqueIDs(userIDs)
	result := make(map[string]domain.Presence, len(ids))

	for start := 0; start < len(ids); start += s.cfg.QueryChunkSize {
		end := min(start+s.cfg.QueryChunkSize, len(ids))

		records, err := s.repo.ListByUserIDs(ctx, ids[start:end])
		if err != nil {
			s.logger.Error("failed to load presence", zap.Int("chunkStart", start), zap.Error(err))
			return nil, err
		}
		for _, p := range records {
			result[p.UserID] = p
		}
	}

	now := s.now()
	for _, id := range ids {
		if _, ok := result[id]; !ok {
			result[id] = domain.OfflinePresence(id, now)
		}
	}

	return result, nil
}

func (s *PresenceServiceImpl) SubscribePresence(ctx context.Context, userID string, onChange func(domain.Presence)) (func(), error) {
	return watch(ctx, s.events, []string{realtime.PresenceTopic(userID)}, func(ctx context.Context) (domain.Presence, error) {
		m, err := s.GetPresence(ctx, []string{userID})
		if err != nil {
			return domain.Presence{}, err
		}
		return m[userID], nil
	}, onChange)
}

func (s *PresenceServiceImpl) SubscribeMultiplePresence(ctx context.Context, userIDs []string, onChange func(map[string]domain.Presence)) (func(), error) {
	ids := uniqueIDs(userIDs)
	topics := make([]string, 0, len(ids))
	for _, id := range ids {
		topics = append(topics, realtime.PresenceTopic(id))
	}

	return watch(ctx, s.events, topics, func(ctx context.Context) (map[string]domain.Presence, error) {
		return s.GetPresence(ctx, ids)
	}, onChange)
}

// Touch refreshes last_seen for connected users without announcing a change.
func (s *PresenceServiceImpl) Touch(ctx context.Context, userIDs []string) error {
	ids := uniqueIDs(userIDs)
	if len(ids) == 0 {
		return nil
	}
	return s.repo.Touch(ctx, ids)
}

// SweepStale marks users offline whose last heartbeat is older than StaleAfter.
func (s *PresenceServiceImpl) SweepStale(ctx context.Context) (int, error) {
	ids, err := s.repo.MarkStaleOffline(ctx, s.now().Add(-s.cfg.StaleAfter))
	if err != nil {
		s.logger.Error("failed to sweep stale presence", zap.Error(err))
		return 0, err
	}

	if len(ids) > 0 {
		topics := make([]string, 0, len(ids))
		for _, id := range ids {
			topics = append(topics, realtime.PresenceTopic(id))
		}
		s.events.publish(ctx, topics...)
	}

	return len(ids), nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
