package rest

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/mock"

	"legalport/internal/domain"
	"legalport/internal/service"
)

type fakeAuth struct{}

func (fakeAuth) ParseToken(_ context.Context, token string) (*domain.Principal, error) {
	switch token {
	case "client-token":
		return &domain.Principal{ID: "c1", Role: domain.UserRoleClient}, nil
	case "lawyer-token":
		return &domain.Principal{ID: "l1", Role: domain.UserRoleLawyer}, nil
	case "expired-token":
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, domain.ErrTokenExpired)
	}
	return nil, domain.ErrUnauthorized
}

// Mocks embed the service interface so only the methods a test touches need
// an implementation.

type MockRequestService struct {
	service.RequestService
	mock.Mock
}

func (m *MockRequestService) List(ctx context.Context, user domain.Principal, status *domain.RequestStatus, limit, offset int) ([]domain.ConsultationRequest, int, error) {
	args := m.Called(ctx, user, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ConsultationRequest), args.Int(1), args.Error(2)
}

func (m *MockRequestService) SetStatus(ctx context.Context, lawyerID, requestID string, dto domain.UpdateRequestStatusDTO) (*domain.ConsultationRequest, *domain.ProvisionResult, error) {
	args := m.Called(ctx, lawyerID, requestID, dto)
	var req *domain.ConsultationRequest
	if v := args.Get(0); v != nil {
		req = v.(*domain.ConsultationRequest)
	}
	var res *domain.ProvisionResult
	if v := args.Get(1); v != nil {
		res = v.(*domain.ProvisionResult)
	}
	return req, res, args.Error(2)
}

func (m *MockRequestService) RetryProvisioning(ctx context.Context, lawyerID, requestID string) (*domain.ProvisionResult, error) {
	args := m.Called(ctx, lawyerID, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProvisionResult), args.Error(1)
}

type MockChatService struct {
	service.ChatService
	mock.Mock
}

func (m *MockChatService) SendMessage(ctx context.Context, chatID, senderID string, role domain.SenderRole, text string) (*domain.Message, error) {
	args := m.Called(ctx, chatID, senderID, role, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockChatService) SendMessageWithFile(ctx context.Context, chatID, senderID string, role domain.SenderRole, file domain.Attachment, text string) (*domain.Message, error) {
	args := m.Called(ctx, chatID, senderID, role, file, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockChatService) GetSessionByRequest(ctx context.Context, requestID, userID string) (*domain.ChatSession, error) {
	args := m.Called(ctx, requestID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatSession), args.Error(1)
}

type MockPresenceService struct {
	service.PresenceService
	mock.Mock
}

func (m *MockPresenceService) GetPresence(ctx context.Context, userIDs []string) (map[string]domain.Presence, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Presence), args.Error(1)
}

func (m *MockPresenceService) SetPresence(ctx context.Context, userID string, isOnline bool) (*domain.Presence, error) {
	args := m.Called(ctx, userID, isOnline)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Presence), args.Error(1)
}

type MockLawyerService struct {
	service.LawyerService
	mock.Mock
}

func (m *MockLawyerService) List(ctx context.Context) ([]domain.LawyerProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LawyerProfile), args.Error(1)
}

type MockVideoService struct {
	service.VideoService
	mock.Mock
}

func (m *MockVideoService) VerifyJoinToken(token string) (*domain.JoinClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JoinClaims), args.Error(1)
}

func (m *MockVideoService) IssueJoinToken(ctx context.Context, sessionID, userID string) (*domain.JoinToken, error) {
	args := m.Called(ctx, sessionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JoinToken), args.Error(1)
}
