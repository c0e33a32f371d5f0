package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"legalport/internal/domain"
)

type VideoRepo struct {
	db DB
}

func NewVideoRepository(db DB) *VideoRepo {
	return &VideoRepo{db: db}
}

const videoColumns = `id, channel_name, lawyer_id, client_id, status, request_id, created_at, started_at, ended_at`

func scanVideoSession(row pgx.Row) (*domain.VideoCallSession, error) {
	var s domain.VideoCallSession
	err := row.Scan(
		&s.ID,
		&s.ChannelName,
		&s.LawyerID,
		&s.ClientID,
		&s.Status,
		&s.RequestID,
		&s.CreatedAt,
		&s.StartedAt,
		&s.EndedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *VideoRepo) Create(ctx context.Context, session *domain.VideoCallSession) error {
	query := `
		INSERT INTO video_call_sessions (id, channel_name, lawyer_id, client_id, status, request_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		session.ID,
		session.ChannelName,
		session.LawyerID,
		session.ClientID,
		session.Status,
		session.RequestID,
	).Scan(&session.CreatedAt)

	return wrapErr("create video session", err)
}

func (r *VideoRepo) GetByID(ctx context.Context, id string) (*domain.VideoCallSession, error) {
	session, err := scanVideoSession(r.db.QueryRow(ctx,
		`SELECT `+videoColumns+` FROM video_call_sessions WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("get video session", err)
	}
	return session, nil
}

func (r *VideoRepo) UpdateStatus(ctx context.Context, id string, from domain.VideoSessionStatus, upd domain.VideoStatusUpdate) (*domain.VideoCallSession, error) {
	query := `
		UPDATE video_call_sessions
		SET status = $1,
			started_at = COALESCE($2, started_at),
			ended_at = COALESCE($3, ended_at)
		WHERE id = $4 AND status = $5
		RETURNING ` + videoColumns

	session, err := scanVideoSession(r.db.QueryRow(ctx, query, upd.Status, upd.StartedAt, upd.EndedAt, id, from))
	if err != nil {
		return nil, wrapErr("update video session", err)
	}
	return session, nil
}

func (r *VideoRepo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.VideoCallSession, error) {
	query := `SELECT ` + videoColumns + ` FROM video_call_sessions
		WHERE lawyer_id = $1 OR client_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2`

	return r.list(ctx, "list video sessions", query, ownerID, limit)
}

func (r *VideoRepo) ListActiveByLawyer(ctx context.Context, lawyerID string) ([]domain.VideoCallSession, error) {
	query := `SELECT ` + videoColumns + ` FROM video_call_sessions
		WHERE lawyer_id = $1 AND status IN ('waiting', 'active')
		ORDER BY created_at DESC, id`

	return r.list(ctx, "list active video sessions", query, lawyerID)
}

func (r *VideoRepo) list(ctx context.Context, op, query string, args ...any) ([]domain.VideoCallSession, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	sessions := make([]domain.VideoCallSession, 0)
	for rows.Next() {
		session, err := scanVideoSession(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		sessions = append(sessions, *session)
	}

	return sessions, wrapErr(op, rows.Err())
}
