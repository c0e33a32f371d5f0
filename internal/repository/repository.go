package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"legalport/internal/domain"
)

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repositories struct {
	Lawyer   LawyerRepository
	Request  RequestRepository
	Chat     ChatRepository
	Presence PresenceRepository
	Video    VideoRepository
}

func NewRepositories(db DB) *Repositories {
	return &Repositories{
		Lawyer:   NewLawyerRepository(db),
		Request:  NewRequestRepository(db),
		Chat:     NewChatRepository(db),
		Presence: NewPresenceRepository(db),
		Video:    NewVideoRepository(db),
	}
}

type LawyerRepository interface {
	GetByID(ctx context.Context, id string) (*domain.LawyerProfile, error)
	List(ctx context.Context, limit int) ([]domain.LawyerProfile, error)
}

type RequestRepository interface {
	Create(ctx context.Context, req *domain.ConsultationRequest) error
	GetByID(ctx context.Context, id string) (*domain.ConsultationRequest, error)
	List(ctx context.Context, filter domain.RequestFilter) ([]domain.ConsultationRequest, error)
	CountByFilter(ctx context.Context, filter domain.RequestFilter) (int, error)
	// UpdateStatus moves the request from one status to another and returns
	// domain.ErrNotFound when the request is no longer in status from.
	UpdateStatus(ctx context.Context, id string, from, to domain.RequestStatus) (*domain.ConsultationRequest, error)
	Stats(ctx context.Context, lawyerID string) (*domain.RequestStats, error)
}

type ChatRepository interface {
	// Provision writes the session, thread and greeting in one transaction. When a
	// thread already exists for the request its ids are returned instead.
	Provision(ctx context.Context, p domain.ChatProvision) (*domain.ProvisionResult, error)
	GetThreadByID(ctx context.Context, id string) (*domain.ChatThread, error)
	GetThreadByRequestID(ctx context.Context, requestID string) (*domain.ChatThread, error)
	GetSessionByRequestID(ctx context.Context, requestID string) (*domain.ChatSession, error)
	ListThreadsByParticipant(ctx context.Context, userID string) ([]domain.ChatThread, error)
	EndChat(ctx context.Context, chatID string, at time.Time) error

	AppendMessage(ctx context.Context, msg domain.NewMessage) (*domain.Message, error)
	UpdatePreview(ctx context.Context, chatID, text, senderID string, at time.Time) error
	ListMessages(ctx context.Context, chatID string) ([]domain.Message, error)
	MarkRead(ctx context.Context, chatID, readerID string) (int64, error)
	UnreadCounts(ctx context.Context, userID string) (map[string]int, error)
}

type PresenceRepository interface {
	Upsert(ctx context.Context, userID string, isOnline bool) (*domain.Presence, error)
	ListByUserIDs(ctx context.Context, userIDs []string) ([]domain.Presence, error)
	Touch(ctx context.Context, userIDs []string) error
	MarkStaleOffline(ctx context.Context, seenBefore time.Time) ([]string, error)
}

type VideoRepository interface {
	Create(ctx context.Context, session *domain.VideoCallSession) error
	GetByID(ctx context.Context, id string) (*domain.VideoCallSession, error)
	UpdateStatus(ctx context.Context, id string, from domain.VideoSessionStatus, upd domain.VideoStatusUpdate) (*domain.VideoCallSession, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.VideoCallSession, error)
	ListActiveByLawyer(ctx context.Context, lawyerID string) ([]domain.VideoCallSession, error)
}
