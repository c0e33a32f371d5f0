package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"legalport/internal/domain"
	"legalport/internal/realtime"
)

func testEvents() (*events, *realtime.Broker) {
	broker := realtime.NewBroker()
	return newEvents(broker, broker, zap.NewNop()), broker
}

type MockLawyerRepository struct {
	mock.Mock
}

func (m *MockLawyerRepository) GetByID(ctx context.Context, id string) (*domain.LawyerProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LawyerProfile), args.Error(1)
}

func (m *MockLawyerRepository) List(ctx context.Context, limit int) ([]domain.LawyerProfile, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LawyerProfile), args.Error(1)
}

type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) Create(ctx context.Context, req *domain.ConsultationRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockRequestRepository) GetByID(ctx context.Context, id string) (*domain.ConsultationRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConsultationRequest), args.Error(1)
}

func (m *MockRequestRepository) List(ctx context.Context, filter domain.RequestFilter) ([]domain.ConsultationRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ConsultationRequest), args.Error(1)
}

func (m *MockRequestRepository) CountByFilter(ctx context.Context, filter domain.RequestFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockRequestRepository) UpdateStatus(ctx context.Context, id string, from, to domain.RequestStatus) (*domain.ConsultationRequest, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConsultationRequest), args.Error(1)
}

func (m *MockRequestRepository) Stats(ctx context.Context, lawyerID string) (*domain.RequestStats, error) {
	args := m.Called(ctx, lawyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RequestStats), args.Error(1)
}

type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Provision(ctx context.Context, p domain.ChatProvision) (*domain.ProvisionResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProvisionResult), args.Error(1)
}

func (m *MockChatRepository) GetThreadByID(ctx context.Context, id string) (*domain.ChatThread, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatThread), args.Error(1)
}

func (m *MockChatRepository) GetThreadByRequestID(ctx context.Context, requestID string) (*domain.ChatThread, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatThread), args.Error(1)
}

func (m *MockChatRepository) GetSessionByRequestID(ctx context.Context, requestID string) (*domain.ChatSession, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatSession), args.Error(1)
}

func (m *MockChatRepository) ListThreadsByParticipant(ctx context.Context, userID string) ([]domain.ChatThread, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChatThread), args.Error(1)
}

func (m *MockChatRepository) EndChat(ctx context.Context, chatID string, at time.Time) error {
	args := m.Called(ctx, chatID, at)
	return args.Error(0)
}

func (m *MockChatRepository) AppendMessage(ctx context.Context, msg domain.NewMessage) (*domain.Message, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockChatRepository) UpdatePreview(ctx context.Context, chatID, text, senderID string, at time.Time) error {
	args := m.Called(ctx, chatID, text, senderID, at)
	return args.Error(0)
}

func (m *MockChatRepository) ListMessages(ctx context.Context, chatID string) ([]domain.Message, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

func (m *MockChatRepository) MarkRead(ctx context.Context, chatID, readerID string) (int64, error) {
	args := m.Called(ctx, chatID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChatRepository) UnreadCounts(ctx context.Context, userID string) (map[string]int, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

type MockPresenceRepository struct {
	mock.Mock
}

func (m *MockPresenceRepository) Upsert(ctx context.Context, userID string, isOnline bool) (*domain.Presence, error) {
	args := m.Called(ctx, userID, isOnline)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Presence), args.Error(1)
}

func (m *MockPresenceRepository) ListByUserIDs(ctx context.Context, userIDs []string) ([]domain.Presence, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Presence), args.Error(1)
}

func (m *MockPresenceRepository) Touch(ctx context.Context, userIDs []string) error {
	args := m.Called(ctx, userIDs)
	return args.Error(0)
}

func (m *MockPresenceRepository) MarkStaleOffline(ctx context.Context, seenBefore time.Time) ([]string, error) {
	args := m.Called(ctx, seenBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockVideoRepository struct {
	mock.Mock
}

func (m *MockVideoRepository) Create(ctx context.Context, session *domain.VideoCallSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockVideoRepository) GetByID(ctx context.Context, id string) (*domain.VideoCallSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VideoCallSession), args.Error(1)
}

func (m *MockVideoRepository) UpdateStatus(ctx context.Context, id string, from domain.VideoSessionStatus, upd domain.VideoStatusUpdate) (*domain.VideoCallSession, error) {
	args := m.Called(ctx, id, from, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VideoCallSession), args.Error(1)
}

func (m *MockVideoRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.VideoCallSession, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VideoCallSession), args.Error(1)
}

func (m *MockVideoRepository) ListActiveByLawyer(ctx context.Context, lawyerID string) ([]domain.VideoCallSession, error) {
	args := m.Called(ctx, lawyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VideoCallSession), args.Error(1)
}

type MockFileStorage struct {
	mock.Mock
}

func (m *MockFileStorage) UploadFile(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, objectName, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockFileStorage) DeleteFile(ctx context.Context, fileURL string) error {
	args := m.Called(ctx, fileURL)
	return args.Error(0)
}

type MockChatProvisioner struct {
	mock.Mock
}

func (m *MockChatProvisioner) ProvisionChat(ctx context.Context, requestID, clientID, lawyerID string, serviceType domain.ServiceType) (*domain.ProvisionResult, error) {
	args := m.Called(ctx, requestID, clientID, lawyerID, serviceType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProvisionResult), args.Error(1)
}
