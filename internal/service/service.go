package service

import (
	"context"

	"go.uber.org/zap"

	"legalport/config"
	"legalport/internal/domain"
	"legalport/internal/realtime"
	"legalport/internal/repository"
	"legalport/internal/storage"
)

type Deps struct {
	Repos       *repository.Repositories
	Logger      *zap.Logger
	Config      *config.Config
	FileStorage storage.FileStorage
	Auth        AuthService
	Publisher   realtime.Publisher
	Subscriber  realtime.Subscriber
}

type Services struct {
	Auth     AuthService
	Lawyer   LawyerService
	Request  RequestService
	Chat     ChatService
	Presence PresenceService
	Video    VideoService
}

func NewServices(deps Deps) *Services {
	events := newEvents(deps.Publisher, deps.Subscriber, deps.Logger)
	chat := NewChatService(deps.Repos.Chat, deps.FileStorage, events, deps.Config.Chat, deps.Logger)

	return &Services{
		Auth:     deps.Auth,
		Lawyer:   NewLawyerService(deps.Repos.Lawyer, deps.Config.Lawyers, deps.Logger),
		Request:  NewRequestService(deps.Repos.Request, deps.Repos.Lawyer, chat, events, deps.Logger),
		Chat:     chat,
		Presence: NewPresenceService(deps.Repos.Presence, events, deps.Config.Presence, deps.Logger),
		Video:    NewVideoService(deps.Repos.Video, deps.Repos.Request, events, deps.Config.Video, deps.Logger),
	}
}

type AuthService interface {
	ParseToken(ctx context.Context, token string) (*domain.Principal, error)
}

type LawyerService interface {
	List(ctx context.Context) ([]domain.LawyerProfile, error)
	GetByID(ctx context.Context, id string) (*domain.LawyerProfile, error)
}

type RequestService interface {
	Submit(ctx context.Context, clientID string, dto domain.CreateRequestDTO) (*domain.ConsultationRequest, error)
	GetByID(ctx context.Context, id, userID string) (*domain.ConsultationRequest, error)
	List(ctx context.Context, user domain.Principal, status *domain.RequestStatus, limit, offset int) ([]domain.ConsultationRequest, int, error)
	Stats(ctx context.Context, lawyerID string) (*domain.RequestStats, error)

	// SetStatus applies a status change made by the addressed lawyer. Accepting
	// provisions the chat; a provisioning failure is returned as *domain.ProvisioningError
	// together with the already-updated request.
	SetStatus(ctx context.Context, lawyerID, requestID string, dto domain.UpdateRequestStatusDTO) (*domain.ConsultationRequest, *domain.ProvisionResult, error)
	RetryProvisioning(ctx context.Context, lawyerID, requestID string) (*domain.ProvisionResult, error)

	SubscribeForLawyer(ctx context.Context, lawyerID string, onChange func([]domain.ConsultationRequest)) (func(), error)
	SubscribeForClient(ctx context.Context, clientID string, onChange func([]domain.ConsultationRequest)) (func(), error)
}

type ChatService interface {
	ProvisionChat(ctx context.Context, requestID, clientID, lawyerID string, serviceType domain.ServiceType) (*domain.ProvisionResult, error)

	SendMessage(ctx context.Context, chatID, senderID string, role domain.SenderRole, text string) (*domain.Message, error)
	SendMessageWithFile(ctx context.Context, chatID, senderID string, role domain.SenderRole, file domain.Attachment, text string) (*domain.Message, error)
	ListMessages(ctx context.Context, chatID, userID string) ([]domain.Message, error)
	SubscribeMessages(ctx context.Context, chatID, userID string, onChange func([]domain.Message)) (func(), error)
	MarkRead(ctx context.Context, chatID, readerID string) (int64, error)

	GetChat(ctx context.Context, chatID, userID string) (*domain.ChatThread, error)
	GetChatByRequest(ctx context.Context, requestID, userID string) (*domain.ChatThread, error)
	GetSessionByRequest(ctx context.Context, requestID, userID string) (*domain.ChatSession, error)
	ListUserChats(ctx context.Context, userID string) ([]domain.ChatThread, error)
	SubscribeUserChats(ctx context.Context, userID string, onChange func([]domain.ChatThread)) (func(), error)
	EndChat(ctx context.Context, chatID, userID string) error

	UnreadCounts(ctx context.Context, userID string) (map[string]int, error)
	SubscribeUnreadCounts(ctx context.Context, userID string, onChange func(map[string]int)) (func(), error)
}

type PresenceService interface {
	SetPresence(ctx context.Context, userID string, isOnline bool) (*domain.Presence, error)
	GetPresence(ctx context.Context, userIDs []string) (map[string]domain.Presence, error)
	SubscribePresence(ctx context.Context, userID string, onChange func(domain.Presence)) (func(), error)
	SubscribeMultiplePresence(ctx context.Context, userIDs []string, onChange func(map[string]domain.Presence)) (func(), error)
	Touch(ctx context.Context, userIDs []string) error
	SweepStale(ctx context.Context) (int, error)
}

type VideoService interface {
	CreateSession(ctx context.Context, lawyerID string, dto domain.CreateVideoSessionDTO) (*domain.VideoCallSession, error)
	UpdateSessionStatus(ctx context.Context, sessionID, userID string, status domain.VideoSessionStatus) (*domain.VideoCallSession, error)
	ListSessions(ctx context.Context, ownerID string) ([]domain.VideoCallSession, error)
	ListenSessions(ctx context.Context, ownerID string, onChange func([]domain.VideoCallSession)) (func(), error)
	ActiveSessions(ctx context.Context, lawyerID string) ([]domain.VideoCallSession, error)

	IssueJoinToken(ctx context.Context, sessionID, userID string) (*domain.JoinToken, error)
	VerifyJoinToken(token string) (*domain.JoinClaims, error)
}

func PointerTo[T any](v T) *T {
	return &v
}
