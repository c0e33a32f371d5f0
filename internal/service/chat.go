package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"legalport/config"
	"legalport/internal/domain"
	"legalport/internal/realtime"
	"legalport/internal/repository"
	"legalport/internal/storage"
)

var unsafeFileNameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

type ChatServiceImpl struct {
	repo    repository.ChatRepository
	storage storage.FileStorage
	events  *events
	cfg     config.ChatConfig
	logger  *zap.Logger
	now     func() time.Time
}

func NewChatService(
	repo repository.ChatRepository,
	fileStorage storage.FileStorage,
	events *events,
	cfg config.ChatConfig,
	logger *zap.Logger,
) *ChatServiceImpl {
	return &ChatServiceImpl{
		repo:    repo,
		storage: fileStorage,
		events:  events,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Provisioning

// ProvisionChat creates the session, thread and greeting for an accepted request in
// one transaction. Calling it again for the same request returns the existing ids.
func (s *ChatServiceImpl) ProvisionChat(ctx context.Context, requestID, clientID, lawyerID string, serviceType domain.ServiceType) (*domain.ProvisionResult, error) {
	if requestID == "" {
		return nil, fmt.Errorf("%w: request id is required", domain.ErrValidation)
	}
	if clientID == "" || lawyerID == "" || clientID == lawyerID {
		return nil, domain.ErrMissingParticipants
	}

	result, err := s.repo.Provision(ctx, domain.ChatProvision{
		RequestID:   requestID,
		ClientID:    clientID,
		LawyerID:    lawyerID,
		ServiceType: serviceType,
		SessionID:   uuid.NewString(),
		ChatID:      uuid.NewString(),
		MessageID:   uuid.NewString(),
	})
	if err != nil {
		fields := []zap.Field{zap.String("requestID", requestID), zap.Error(err)}
		var perr *domain.PersistenceError
		if errors.As(err, &perr) {
			fields = append(fields, zap.String("step", string(perr.Step)))
		}
		s.logger.Error("failed to provision chat", fields...)
		return nil, err
	}

	if result.Existing {
		s.logger.Info("chat already provisioned", zap.String("requestID", requestID), zap.String("chatID", result.ChatID))
		return result, nil
	}

	s.events.publish(ctx,
		realtime.UserChatsTopic(clientID),
		realtime.UserChatsTopic(lawyerID),
		realtime.MessagesTopic(result.ChatID),
	)

	return result, nil
}

// Messages

func (s *ChatServiceImpl) SendMessage(ctx context.Context, chatID, senderID string, role domain.SenderRole, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message text is empty", domain.ErrValidation)
	}

	thread, err := s.activeThread(ctx, chatID, senderID)
	if err != nil {
		return nil, err
	}

	return s.append(ctx, thread, domain.NewMessage{
		ID:         uuid.NewString(),
		ChatID:     chatID,
		SenderID:   senderID,
		SenderRole: role,
		Type:       domain.MessageTypeText,
		Text:       text,
	}, text)
}

// SendMessageWithFile validates the attachment before touching the chat or storage,
// uploads it under chat-files/{chatID}/ and appends a file message.
func (s *ChatServiceImpl) SendMessageWithFile(ctx context.Context, chatID, senderID string, role domain.SenderRole, file domain.Attachment, text string) (*domain.Message, error) {
	mimeType, err := s.validateAttachment(file)
	if err != nil {
		return nil, err
	}

	thread, err := s.activeThread(ctx, chatID, senderID)
	if err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("chat-files/%s/%d_%s", chatID, s.now().UnixMilli(), sanitizeFileName(file.Name))
	url, err := s.storage.UploadFile(ctx, objectName, file.Data, mimeType)
	if err != nil {
		s.logger.Error("failed to upload chat file", zap.String("chatID", chatID), zap.String("object", objectName), zap.Error(err))
		return nil, err
	}

	text = strings.TrimSpace(text)
	preview := text
	if preview == "" {
		preview = domain.FilePreviewPrefix + file.Name
	}

	msg, err := s.append(ctx, thread, domain.NewMessage{
		ID:         uuid.NewString(),
		ChatID:     chatID,
		SenderID:   senderID,
		SenderRole: role,
		Type:       domain.MessageTypeFile,
		Text:       text,
		File: &domain.FileRef{
			URL:      url,
			Name:     file.Name,
			MimeType: mimeType,
			Size:     file.Size(),
		},
	}, preview)
	if err != nil {
		if derr := s.storage.DeleteFile(context.WithoutCancel(ctx), url); derr != nil {
			s.logger.Warn("failed to remove orphaned chat file", zap.String("url", url), zap.Error(derr))
		}
		return nil, err
	}

	return msg, nil
}

// append stores msg and then refreshes the thread preview. The preview is a
// separate write; if it fails the next message repairs it.
func (s *ChatServiceImpl) append(ctx context.Context, thread *domain.ChatThread, msg domain.NewMessage, preview string) (*domain.Message, error) {
	saved, err := s.repo.AppendMessage(ctx, msg)
	if err != nil {
		s.logger.Error("failed to append message", zap.String("chatID", msg.ChatID), zap.String("senderID", msg.SenderID), zap.Error(err))
		return nil, err
	}

	if err := s.repo.UpdatePreview(ctx, msg.ChatID, preview, msg.SenderID, saved.CreatedAt); err != nil {
		s.logger.Warn("failed to update chat preview", zap.String("chatID", msg.ChatID), zap.Error(err))
	}

	topics := []string{realtime.MessagesTopic(msg.ChatID)}
	for _, p := range thread.Participants {
		topics = append(topics, realtime.UserChatsTopic(p))
	}
	s.events.publish(ctx, topics...)

	return saved, nil
}

func (s *ChatServiceImpl) validateAttachment(file domain.Attachment) (string, error) {
	mimeType, _, err := mime.ParseMediaType(file.MimeType)
	if err != nil || !s.allowedType(mimeType) {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFileType, file.MimeType)
	}

	if file.Size() > s.cfg.MaxFileSize {
		return "", fmt.Errorf("%w: %d bytes, limit is %d", domain.ErrFileTooLarge, file.Size(), s.cfg.MaxFileSize)
	}

	if file.Size() == 0 {
		return "", fmt.Errorf("%w: file is empty", domain.ErrValidation)
	}

	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(file.Data))
	if sniffed != "application/octet-stream" && !sameKind(mimeType, sniffed) {
		return "", fmt.Errorf("%w: declared %s but content is %s", domain.ErrUnsupportedFileType, mimeType, sniffed)
	}

	return mimeType, nil
}

func (s *ChatServiceImpl) allowedType(mimeType string) bool {
	for _, allowed := range s.cfg.AllowedFileTypes {
		if prefix, ok := strings.CutSuffix(allowed, "*"); ok {
			if strings.HasPrefix(mimeType, prefix) {
				return true
			}
		} else if mimeType == allowed {
			return true
		}
	}
	return false
}

func sameKind(declared, sniffed string) bool {
	if strings.HasPrefix(declared, "image/") {
		return strings.HasPrefix(sniffed, "image/")
	}
	return declared == sniffed
}

func sanitizeFileName(name string) string {
	name = unsafeFileNameChars.ReplaceAllString(name, "_")
	if name == "" {
		return "file"
	}
	return name
}

func (s *ChatServiceImpl) ListMessages(ctx context.Context, chatID, userID string) ([]domain.Message, error) {
	if _, err := s.GetChat(ctx, chatID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, chatID)
}

func (s *ChatServiceImpl) SubscribeMessages(ctx context.Context, chatID, userID string, onChange func([]domain.Message)) (func(), error) {
	if _, err := s.GetChat(ctx, chatID, userID); err != nil {
		return nil, err
	}

	return watch(ctx, s.events, []string{realtime.MessagesTopic(chatID)}, func(ctx context.Context) ([]domain.Message, error) {
		return s.repo.ListMessages(ctx, chatID)
	}, onChange)
}

// MarkRead flags every unread message not written by readerID as read and returns
// how many changed.
func (s *ChatServiceImpl) MarkRead(ctx context.Context, chatID, readerID string) (int64, error) {
	if _, err := s.GetChat(ctx, chatID, readerID); err != nil {
		return 0, err
	}

	n, err := s.repo.MarkRead(ctx, chatID, readerID)
	if err != nil {
		s.logger.Error("failed to mark messages read", zap.String("chatID", chatID), zap.String("readerID", readerID), zap.Error(err))
		return 0, err
	}

	if n > 0 {
		s.events.publish(ctx, realtime.MessagesTopic(chatID), realtime.UserChatsTopic(readerID))
	}

	return n, nil
}

// Threads

func (s *ChatServiceImpl) GetChat(ctx context.Context, chatID, userID string) (*domain.ChatThread, error) {
	thread, err := s.repo.GetThreadByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if !thread.HasParticipant(userID) {
		return nil, domain.ErrAccessDenied
	}

	return thread, nil
}

func (s *ChatServiceImpl) GetChatByRequest(ctx context.Context, requestID, userID string) (*domain.ChatThread, error) {
	thread, err := s.repo.GetThreadByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if !thread.HasParticipant(userID) {
		return nil, domain.ErrAccessDenied
	}

	return thread, nil
}

// GetSessionByRequest returns the operational session paired with the request's chat.
func (s *ChatServiceImpl) GetSessionByRequest(ctx context.Context, requestID, userID string) (*domain.ChatSession, error) {
	session, err := s.repo.GetSessionByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if session.ClientID != userID && session.LawyerID != userID {
		return nil, domain.ErrAccessDenied
	}

	return session, nil
}

func (s *ChatServiceImpl) activeThread(ctx context.Context, chatID, userID string) (*domain.ChatThread, error) {
	thread, err := s.GetChat(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}

	if thread.Status != domain.ChatStatusActive {
		return nil, domain.ErrChatEnded
	}

	return thread, nil
}

func (s *ChatServiceImpl) ListUserChats(ctx context.Context, userID string) ([]domain.ChatThread, error) {
	return s.repo.ListThreadsByParticipant(ctx, userID)
}

func (s *ChatServiceImpl) SubscribeUserChats(ctx context.Context, userID string, onChange func([]domain.ChatThread)) (func(), error) {
	return watch(ctx, s.events, []string{realtime.UserChatsTopic(userID)}, func(ctx context.Context) ([]domain.ChatThread, error) {
		return s.repo.ListThreadsByParticipant(ctx, userID)
	}, onChange)
}

// EndChat closes the thread and its session. Ending an ended chat is a no-op.
func (s *ChatServiceImpl) EndChat(ctx context.Context, chatID, userID string) error {
	thread, err := s.GetChat(ctx, chatID, userID)
	if err != nil {
		return err
	}

	if thread.Status == domain.ChatStatusEnded {
		return nil
	}

	if err := s.repo.EndChat(ctx, chatID, s.now()); err != nil {
		s.logger.Error("failed to end chat", zap.String("chatID", chatID), zap.Error(err))
		return err
	}

	topics := []string{realtime.MessagesTopic(chatID)}
	for _, p := range thread.Participants {
		topics = append(topics, realtime.UserChatsTopic(p))
	}
	s.events.publish(ctx, topics...)

	return nil
}

// Unread counters

func (s *ChatServiceImpl) UnreadCounts(ctx context.Context, userID string) (map[string]int, error) {
	return s.repo.UnreadCounts(ctx, userID)
}

func (s *ChatServiceImpl) SubscribeUnreadCounts(ctx context.Context, userID string, onChange func(map[string]int)) (func(), error) {
	return watch(ctx, s.events, []string{realtime.UserChatsTopic(userID)}, func(ctx context.Context) (map[string]int, error) {
		return s.repo.UnreadCounts(ctx, userID)
	}, onChange)
}
