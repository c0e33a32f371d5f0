package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"legalport/internal/domain"
)

type ChatRepo struct {
	db DB
}

func NewChatRepository(db DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// Provisioning

func (r *ChatRepo) Provision(ctx context.Context, p domain.ChatProvision) (*domain.ProvisionResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, stepErr(domain.StepBegin, err)
	}
	defer tx.Rollback(ctx)

	existing, err := findProvision(ctx, tx, p.RequestID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, stepErr(domain.StepLookup, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO chat_sessions (id, request_id, client_id, lawyer_id, service_type, status, created_at, last_activity)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`,
		p.SessionID, p.RequestID, p.ClientID, p.LawyerID, p.ServiceType, domain.ChatStatusActive,
	)
	if err != nil {
		return r.provisionConflict(ctx, tx, p.RequestID, domain.StepChatSession, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO chat_threads (id, request_id, participants, last_message, last_message_sender, last_message_time, status)
		VALUES ($1, $2, $3, $4, $5, NOW(), $6)`,
		p.ChatID, p.RequestID, []string{p.ClientID, p.LawyerID},
		domain.ChatStartedPreview, domain.SystemSenderID, domain.ChatStatusActive,
	)
	if err != nil {
		return r.provisionConflict(ctx, tx, p.RequestID, domain.StepChatThread, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO chat_messages (id, chat_id, sender_id, sender_role, message_type, text)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.MessageID, p.ChatID, domain.SystemSenderID, domain.SenderRoleSystem,
		domain.MessageTypeSystem, domain.ChatStartedGreeting,
	)
	if err != nil {
		return nil, stepErr(domain.StepSystemMessage, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, stepErr(domain.StepCommit, err)
	}

	return &domain.ProvisionResult{ChatID: p.ChatID, SessionID: p.SessionID}, nil
}

// provisionConflict resolves a lost race with a concurrent provisioning of the same
// request into the winner's ids.
func (r *ChatRepo) provisionConflict(ctx context.Context, tx pgx.Tx, requestID string, step domain.ProvisioningStep, err error) (*domain.ProvisionResult, error) {
	if !isUniqueViolation(err) {
		return nil, stepErr(step, err)
	}
	tx.Rollback(ctx)

	existing, lookupErr := findProvision(ctx, r.db, requestID)
	if lookupErr != nil {
		return nil, stepErr(step, err)
	}
	return existing, nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func findProvision(ctx context.Context, q queryRower, requestID string) (*domain.ProvisionResult, error) {
	res := domain.ProvisionResult{Existing: true}
	err := q.QueryRow(ctx, `
		SELECT t.id, COALESCE(s.id, '')
		FROM chat_threads t
		LEFT JOIN chat_sessions s ON s.request_id = t.request_id
		WHERE t.request_id = $1`, requestID,
	).Scan(&res.ChatID, &res.SessionID)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Threads

const threadColumns = `id, request_id, participants, last_message, last_message_sender, last_message_time,
	status, created_at, ended_at`

func scanThread(row pgx.Row) (*domain.ChatThread, error) {
	var t domain.ChatThread
	err := row.Scan(
		&t.ID,
		&t.RequestID,
		&t.Participants,
		&t.LastMessage,
		&t.LastMessageSender,
		&t.LastMessageTime,
		&t.Status,
		&t.CreatedAt,
		&t.EndedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ChatRepo) GetThreadByID(ctx context.Context, id string) (*domain.ChatThread, error) {
	thread, err := scanThread(r.db.QueryRow(ctx, `SELECT `+threadColumns+` FROM chat_threads WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("get chat", err)
	}
	return thread, nil
}

func (r *ChatRepo) GetThreadByRequestID(ctx context.Context, requestID string) (*domain.ChatThread, error) {
	thread, err := scanThread(r.db.QueryRow(ctx, `SELECT `+threadColumns+` FROM chat_threads WHERE request_id = $1`, requestID))
	if err != nil {
		return nil, wrapErr("get chat by request", err)
	}
	return thread, nil
}

func (r *ChatRepo) GetSessionByRequestID(ctx context.Context, requestID string) (*domain.ChatSession, error) {
	query := `
		SELECT id, request_id, client_id, lawyer_id, service_type, status, created_at, last_activity, ended_at
		FROM chat_sessions WHERE request_id = $1`

	var s domain.ChatSession
	err := r.db.QueryRow(ctx, query, requestID).Scan(
		&s.ID,
		&s.RequestID,
		&s.ClientID,
		&s.LawyerID,
		&s.ServiceType,
		&s.Status,
		&s.CreatedAt,
		&s.LastActivity,
		&s.EndedAt,
	)
	if err != nil {
		return nil, wrapErr("get chat session", err)
	}
	return &s, nil
}

func (r *ChatRepo) ListThreadsByParticipant(ctx context.Context, userID string) ([]domain.ChatThread, error) {
	query := `SELECT ` + threadColumns + ` FROM chat_threads
		WHERE participants @> ARRAY[$1]::text[]
		ORDER BY last_message_time DESC, id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, wrapErr("list chats", err)
	}
	defer rows.Close()

	threads := make([]domain.ChatThread, 0)
	for rows.Next() {
		thread, err := scanThread(rows)
		if err != nil {
			return nil, wrapErr("scan chat", err)
		}
		threads = append(threads, *thread)
	}

	return threads, wrapErr("list chats", rows.Err())
}

func (r *ChatRepo) EndChat(ctx context.Context, chatID string, at time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return wrapErr("end chat", err)
	}
	defer tx.Rollback(ctx)

	var requestID string
	err = tx.QueryRow(ctx, `
		UPDATE chat_threads SET status = $1, ended_at = $2
		WHERE id = $3 AND status = $4
		RETURNING request_id`,
		domain.ChatStatusEnded, at, chatID, domain.ChatStatusActive,
	).Scan(&requestID)
	if err != nil {
		return wrapErr("end chat", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE chat_sessions SET status = $1, ended_at = $2, last_activity = $2
		WHERE request_id = $3 AND status = $4`,
		domain.ChatStatusEnded, at, requestID, domain.ChatStatusActive,
	)
	if err != nil {
		return wrapErr("end chat session", err)
	}

	return wrapErr("end chat", tx.Commit(ctx))
}

// Messages

func (r *ChatRepo) AppendMessage(ctx context.Context, msg domain.NewMessage) (*domain.Message, error) {
	var fileURL, fileName, fileType *string
	var fileSize *int64
	if msg.File != nil {
		fileURL, fileName, fileType = &msg.File.URL, &msg.File.Name, &msg.File.MimeType
		fileSize = &msg.File.Size
	}

	query := `
		INSERT INTO chat_messages (id, chat_id, sender_id, sender_role, message_type, text,
			file_url, file_name, file_type, file_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`

	out := domain.Message{
		ID:         msg.ID,
		ChatID:     msg.ChatID,
		SenderID:   msg.SenderID,
		SenderRole: msg.SenderRole,
		Type:       msg.Type,
		Text:       msg.Text,
		File:       msg.File,
		IsRead:     false,
	}

	err := r.db.QueryRow(ctx, query,
		msg.ID, msg.ChatID, msg.SenderID, msg.SenderRole, msg.Type, msg.Text,
		fileURL, fileName, fileType, fileSize,
	).Scan(&out.CreatedAt)
	if err != nil {
		return nil, wrapErr("append message", err)
	}

	return &out, nil
}

func (r *ChatRepo) UpdatePreview(ctx context.Context, chatID, text, senderID string, at time.Time) error {
	var requestID string
	err := r.db.QueryRow(ctx, `
		UPDATE chat_threads
		SET last_message = $1, last_message_sender = $2, last_message_time = $3
		WHERE id = $4
		RETURNING request_id`,
		text, senderID, at, chatID,
	).Scan(&requestID)
	if err != nil {
		return wrapErr("update chat preview", err)
	}

	_, err = r.db.Exec(ctx, `UPDATE chat_sessions SET last_activity = $1 WHERE request_id = $2`, at, requestID)
	return wrapErr("touch chat session", err)
}

func (r *ChatRepo) ListMessages(ctx context.Context, chatID string) ([]domain.Message, error) {
	query := `
		SELECT id, chat_id, sender_id, sender_role, message_type, text,
			file_url, file_name, file_type, file_size, is_read, read_at, created_at
		FROM chat_messages
		WHERE chat_id = $1
		ORDER BY created_at ASC, seq ASC`

	rows, err := r.db.Query(ctx, query, chatID)
	if err != nil {
		return nil, wrapErr("list messages", err)
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		var m domain.Message
		var fileURL, fileName, fileType *string
		var fileSize *int64

		err := rows.Scan(
			&m.ID,
			&m.ChatID,
			&m.SenderID,
			&m.SenderRole,
			&m.Type,
			&m.Text,
			&fileURL,
			&fileName,
			&fileType,
			&fileSize,
			&m.IsRead,
			&m.ReadAt,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, wrapErr("scan message", err)
		}

		if fileURL != nil {
			m.File = &domain.FileRef{URL: *fileURL}
			if fileName != nil {
				m.File.Name = *fileName
			}
			if fileType != nil {
				m.File.MimeType = *fileType
			}
			if fileSize != nil {
				m.File.Size = *fileSize
			}
		}

		messages = append(messages, m)
	}

	return messages, wrapErr("list messages", rows.Err())
}

func (r *ChatRepo) MarkRead(ctx context.Context, chatID, readerID string) (int64, error) {
	query := `
		UPDATE chat_messages
		SET is_read = TRUE, read_at = NOW()
		WHERE chat_id = $1 AND sender_id != $2 AND is_read = FALSE`

	tag, err := r.db.Exec(ctx, query, chatID, readerID)
	if err != nil {
		return 0, wrapErr("mark messages read", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ChatRepo) UnreadCounts(ctx context.Context, userID string) (map[string]int, error) {
	query := `
		SELECT m.chat_id, COUNT(*)
		FROM chat_messages m
		JOIN chat_threads t ON t.id = m.chat_id
		WHERE t.participants @> ARRAY[$1]::text[] AND m.sender_id != $1 AND m.is_read = FALSE
		GROUP BY m.chat_id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, wrapErr("unread counts", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var chatID string
		var count int
		if err := rows.Scan(&chatID, &count); err != nil {
			return nil, wrapErr("scan unread count", err)
		}
		counts[chatID] = count
	}

	return counts, wrapErr("unread counts", rows.Err())
}
