package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"legalport/internal/domain"
	"legalport/internal/realtime"
	"legalport/internal/repository"
	"legalport/pkg/validator"
)

// chatProvisioner is the part of the chat service the request lifecycle drives.
type chatProvisioner interface {
	ProvisionChat(ctx context.Context, requestID, clientID, lawyerID string, serviceType domain.ServiceType) (*domain.ProvisionResult, error)
}

type RequestServiceImpl struct {
	repo       repository.RequestRepository
	lawyerRepo repository.LawyerRepository
	chat       chatProvisioner
	events     *events
	logger     *zap.Logger
}

func NewRequestService(
	repo repository.RequestRepository,
	lawyerRepo repository.LawyerRepository,
	chat chatProvisioner,
	events *events,
	logger *zap.Logger,
) *RequestServiceImpl {
	return &RequestServiceImpl{
		repo:       repo,
		lawyerRepo: lawyerRepo,
		chat:       chat,
		events:     events,
		logger:     logger,
	}
}

func (s *RequestServiceImpl) Submit(ctx context.Context, clientID string, dto domain.CreateRequestDTO) (*domain.ConsultationRequest, error) {
	if problems := validateRequest(clientID, dto); len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(problems, "; "))
	}

	lawyer, err := s.lawyerRepo.GetByID(ctx, dto.LawyerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("lawyer %s: %w", dto.LawyerID, domain.ErrNotFound)
		}
		s.logger.Error("failed to load lawyer for request", zap.String("lawyerID", dto.LawyerID), zap.Error(err))
		return nil, err
	}

	req := &domain.ConsultationRequest{
		ID:            uuid.NewString(),
		ClientID:      clientID,
		LawyerID:      lawyer.ID,
		ServiceType:   dto.ServiceType,
		Status:        domain.RequestStatusPending,
		Message:       strings.TrimSpace(dto.Message),
		RequestedTime: dto.RequestedTime,
		Price:         lawyer.PriceFor(dto.ServiceType),
		Contact: domain.ClientContact{
			Name:  validator.FormatName(dto.ContactName),
			Email: strings.ToLower(strings.TrimSpace(dto.ContactEmail)),
			Phone: validator.FormatPhone(dto.ContactPhone),
		},
	}

	if err := s.repo.Create(ctx, req); err != nil {
		s.logger.Error("failed to create consultation request", zap.String("clientID", clientID), zap.Error(err))
		return nil, err
	}

	s.events.publish(ctx, requestTopics(req)...)

	return req, nil
}

func validateRequest(clientID string, dto domain.CreateRequestDTO) []string {
	var problems []string

	if clientID == "" {
		problems = append(problems, "client id is required")
	}
	if dto.LawyerID == "" {
		problems = append(problems, "lawyer id is required")
	} else if dto.LawyerID == clientID {
		problems = append(problems, "cannot request a consultation with yourself")
	}
	if !dto.ServiceType.Valid() {
		problems = append(problems, "unknown service type")
	}
	if strings.TrimSpace(dto.Message) == "" {
		problems = append(problems, "please describe your legal issue")
	}
	if !validator.ValidateName(dto.ContactName) {
		problems = append(problems, "name is required")
	}
	if !validator.ValidateEmail(strings.TrimSpace(dto.ContactEmail)) {
		problems = append(problems, "please enter a valid email address")
	}
	if !validator.ValidatePhone(dto.ContactPhone) {
		problems = append(problems, "please enter a valid phone number")
	}

	return problems
}

func (s *RequestServiceImpl) GetByID(ctx context.Context, id, userID string) (*domain.ConsultationRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ClientID != userID && req.LawyerID != userID {
		return nil, domain.ErrAccessDenied
	}

	return req, nil
}

func (s *RequestServiceImpl) List(ctx context.Context, user domain.Principal, status *domain.RequestStatus, limit, offset int) ([]domain.ConsultationRequest, int, error) {
	filter := domain.RequestFilter{
		Status: status,
		Limit:  limit,
		Offset: offset,
	}
	if user.Role == domain.UserRoleLawyer {
		filter.LawyerID = &user.ID
	} else {
		filter.ClientID = &user.ID
	}

	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list requests", zap.String("userID", user.ID), zap.Error(err))
		return nil, 0, err
	}

	total, err := s.repo.CountByFilter(ctx, filter)
	if err != nil {
		return requests, 0, err
	}

	return requests, total, nil
}

func (s *RequestServiceImpl) Stats(ctx context.Context, lawyerID string) (*domain.RequestStats, error) {
	return s.repo.Stats(ctx, lawyerID)
}

func (s *RequestServiceImpl) SetStatus(ctx context.Context, lawyerID, requestID string, dto domain.UpdateRequestStatusDTO) (*domain.ConsultationRequest, *domain.ProvisionResult, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}

	if req.LawyerID != lawyerID {
		return nil, nil, domain.ErrAccessDenied
	}

	if req.Status.Terminal() {
		return nil, nil, fmt.Errorf("%w: request is already %s", domain.ErrInvalidTransition, req.Status)
	}
	if !req.Status.CanTransitionTo(dto.Status) {
		return nil, nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, req.Status, dto.Status)
	}

	participants := participantsFor(req, dto.Snapshot)
	if dto.Status == domain.RequestStatusAccepted {
		if err := participants.validate(); err != nil {
			return nil, nil, err
		}
		if participants.LawyerID != req.LawyerID || participants.ClientID != req.ClientID {
			return nil, nil, fmt.Errorf("%w: snapshot does not match the request participants", domain.ErrValidation)
		}
		if participants.ServiceType != req.ServiceType {
			return nil, nil, fmt.Errorf("%w: snapshot service type %q does not match the request", domain.ErrValidation, participants.ServiceType)
		}
	}

	updated, err := s.repo.UpdateStatus(ctx, requestID, req.Status, dto.Status)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: request %s was changed concurrently", domain.ErrInvalidTransition, requestID)
		}
		s.logger.Error("failed to update request status",
			zap.String("requestID", requestID),
			zap.String("status", string(dto.Status)),
			zap.Error(err))
		return nil, nil, err
	}

	s.events.publish(ctx, requestTopics(updated)...)

	if dto.Status != domain.RequestStatusAccepted {
		return updated, nil, nil
	}

	result, err := s.chat.ProvisionChat(ctx, requestID, participants.ClientID, participants.LawyerID, participants.ServiceType)
	if err != nil {
		s.logger.Error("request accepted but chat provisioning failed", zap.String("requestID", requestID), zap.Error(err))
		return updated, nil, &domain.ProvisioningError{RequestID: requestID, Err: err}
	}

	return updated, result, nil
}

func (s *RequestServiceImpl) RetryProvisioning(ctx context.Context, lawyerID, requestID string) (*domain.ProvisionResult, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.LawyerID != lawyerID {
		return nil, domain.ErrAccessDenied
	}

	if req.Status != domain.RequestStatusAccepted {
		return nil, fmt.Errorf("%w: chats are provisioned only for accepted requests", domain.ErrInvalidTransition)
	}

	result, err := s.chat.ProvisionChat(ctx, requestID, req.ClientID, req.LawyerID, req.ServiceType)
	if err != nil {
		s.logger.Error("chat provisioning retry failed", zap.String("requestID", requestID), zap.Error(err))
		return nil, &domain.ProvisioningError{RequestID: requestID, Err: err}
	}

	return result, nil
}

func (s *RequestServiceImpl) SubscribeForLawyer(ctx context.Context, lawyerID string, onChange func([]domain.ConsultationRequest)) (func(), error) {
	filter := domain.RequestFilter{LawyerID: &lawyerID}
	return watch(ctx, s.events, []string{realtime.LawyerRequestsTopic(lawyerID)}, s.lister(filter), onChange)
}

func (s *RequestServiceImpl) SubscribeForClient(ctx context.Context, clientID string, onChange func([]domain.ConsultationRequest)) (func(), error) {
	filter := domain.RequestFilter{ClientID: &clientID}
	return watch(ctx, s.events, []string{realtime.ClientRequestsTopic(clientID)}, s.lister(filter), onChange)
}

func (s *RequestServiceImpl) lister(filter domain.RequestFilter) func(context.Context) ([]domain.ConsultationRequest, error) {
	return func(ctx context.Context) ([]domain.ConsultationRequest, error) {
		return s.repo.List(ctx, filter)
	}
}

func requestTopics(req *domain.ConsultationRequest) []string {
	return []string{
		realtime.LawyerRequestsTopic(req.LawyerID),
		realtime.ClientRequestsTopic(req.ClientID),
	}
}

type participants domain.RequestSnapshot

// participantsFor prefers the caller's snapshot and falls back to the stored record
// for anything the snapshot leaves blank.
func participantsFor(req *domain.ConsultationRequest, snapshot *domain.RequestSnapshot) participants {
	p := participants{
		ClientID:    req.ClientID,
		LawyerID:    req.LawyerID,
		ServiceType: req.ServiceType,
	}
	if snapshot == nil {
		return p
	}
	if snapshot.ClientID != "" {
		p.ClientID = snapshot.ClientID
	}
	if snapshot.LawyerID != "" {
		p.LawyerID = snapshot.LawyerID
	}
	if snapshot.ServiceType != "" {
		p.ServiceType = snapshot.ServiceType
	}
	return p
}

func (p participants) validate() error {
	if p.ClientID == "" || p.LawyerID == "" || p.ClientID == p.LawyerID {
		return domain.ErrMissingParticipants
	}
	return nil
}
