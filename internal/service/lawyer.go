package service

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"legalport/config"
	"legalport/internal/domain"
	"legalport/internal/repository"
)

type LawyerServiceImpl struct {
	repo   repository.LawyerRepository
	cfg    config.LawyersConfig
	logger *zap.Logger
}

func NewLawyerService(repo repository.LawyerRepository, cfg config.LawyersConfig, logger *zap.Logger) *LawyerServiceImpl {
	return &LawyerServiceImpl{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
	}
}

// List returns the directory ordered by rating. Each attempt is bounded by the
// fetch timeout and a timed-out attempt is retried FetchRetries times.
func (s *LawyerServiceImpl) List(ctx context.Context) ([]domain.LawyerProfile, error) {
	var timedOut bool
	attempt := 0

	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(s.cfg.FetchRetries)), ctx)

	lawyers, err := backoff.RetryWithData(func() ([]domain.LawyerProfile, error) {
		attempt++
		actx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()

		lawyers, err := s.repo.List(actx, s.cfg.ListLimit)
		if err == nil {
			timedOut = false
			return lawyers, nil
		}

		if errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			timedOut = true
			s.logger.Warn("lawyer listing timed out", zap.Int("attempt", attempt), zap.Duration("timeout", s.cfg.FetchTimeout))
			return nil, err
		}

		timedOut = false
		return nil, backoff.Permanent(err)
	}, policy)

	if err != nil {
		if timedOut {
			s.logger.Error("lawyer listing failed after retry", zap.Int("attempts", attempt))
			return nil, domain.ErrTimeout
		}
		s.logger.Error("failed to list lawyers", zap.Error(err))
		return nil, err
	}

	return lawyers, nil
}

func (s *LawyerServiceImpl) GetByID(ctx context.Context, id string) (*domain.LawyerProfile, error) {
	lawyer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("failed to get lawyer", zap.String("lawyerID", id), zap.Error(err))
		}
		return nil, err
	}
	return lawyer, nil
}
