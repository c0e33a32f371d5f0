package repository

import (
	"context"
	"time"

	"legalport/internal/domain"
)

type PresenceRepo struct {
	db DB
}

func NewPresenceRepository(db DB) *PresenceRepo {
	return &PresenceRepo{db: db}
}

// Upsert is last-write-wins by arrival order at the database.
func (r *PresenceRepo) Upsert(ctx context.Context, userID string, isOnline bool) (*domain.Presence, error) {
	query := `
		INSERT INTO presence (user_id, is_online, last_seen)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET is_online = EXCLUDED.is_online,
			last_seen = GREATEST(presence.last_seen, EXCLUDED.last_seen)
		RETURNING user_id, is_online, last_seen`

	var p domain.Presence
	err := r.db.QueryRow(ctx, query, userID, isOnline).Scan(&p.UserID, &p.IsOnline, &p.LastSeen)
	if err != nil {
		return nil, wrapErr("set presence", err)
	}
	return &p, nil
}

func (r *PresenceRepo) ListByUserIDs(ctx context.Context, userIDs []string) ([]domain.Presence, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id, is_online, last_seen FROM presence WHERE user_id = ANY($1)`, userIDs)
	if err != nil {
		return nil, wrapErr("list presence", err)
	}
	defer rows.Close()

	out := make([]domain.Presence, 0, len(userIDs))
	for rows.Next() {
		var p domain.Presence
		if err := rows.Scan(&p.UserID, &p.IsOnline, &p.LastSeen); err != nil {
			return nil, wrapErr("scan presence", err)
		}
		out = append(out, p)
	}

	return out, wrapErr("list presence", rows.Err())
}

func (r *PresenceRepo) Touch(ctx context.Context, userIDs []string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE presence SET last_seen = NOW() WHERE user_id = ANY($1) AND is_online`, userIDs)
	return wrapErr("touch presence", err)
}

func (r *PresenceRepo) MarkStaleOffline(ctx context.Context, seenBefore time.Time) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`UPDATE presence SET is_online = FALSE WHERE is_online AND last_seen < $1 RETURNING user_id`, seenBefore)
	if err != nil {
		return nil, wrapErr("sweep presence", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapErr("scan presence", err)
		}
		ids = append(ids, id)
	}

	return ids, wrapErr("sweep presence", rows.Err())
}
