package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"legalport/internal/domain"
)

type RequestRepo struct {
	db DB
}

func NewRequestRepository(db DB) *RequestRepo {
	return &RequestRepo{db: db}
}

const requestColumns = `id, client_id, lawyer_id, service_type, status, message, requested_time, price::float8,
	contact_name, contact_email, contact_phone, accepted_at, created_at, updated_at`

func scanRequest(row pgx.Row) (*domain.ConsultationRequest, error) {
	var req domain.ConsultationRequest
	err := row.Scan(
		&req.ID,
		&req.ClientID,
		&req.LawyerID,
		&req.ServiceType,
		&req.Status,
		&req.Message,
		&req.RequestedTime,
		&req.Price,
		&req.Contact.Name,
		&req.Contact.Email,
		&req.Contact.Phone,
		&req.AcceptedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepo) Create(ctx context.Context, req *domain.ConsultationRequest) error {
	query := `
		INSERT INTO consultation_requests (id, client_id, lawyer_id, service_type, status, message,
			requested_time, price, contact_name, contact_email, contact_phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		req.ID,
		req.ClientID,
		req.LawyerID,
		req.ServiceType,
		req.Status,
		req.Message,
		req.RequestedTime,
		req.Price,
		req.Contact.Name,
		req.Contact.Email,
		req.Contact.Phone,
	).Scan(&req.CreatedAt, &req.UpdatedAt)

	return wrapErr("create request", err)
}

func (r *RequestRepo) GetByID(ctx context.Context, id string) (*domain.ConsultationRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM consultation_requests WHERE id = $1`

	req, err := scanRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr("get request", err)
	}
	return req, nil
}

func buildRequestConditions(filter domain.RequestFilter) ([]string, []interface{}, int) {
	var conditions []string
	var args []interface{}
	argCount := 1

	if filter.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argCount))
		args = append(args, *filter.ClientID)
		argCount++
	}

	if filter.LawyerID != nil {
		conditions = append(conditions, fmt.Sprintf("lawyer_id = $%d", argCount))
		args = append(args, *filter.LawyerID)
		argCount++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *filter.Status)
		argCount++
	}

	return conditions, args, argCount
}

func (r *RequestRepo) List(ctx context.Context, filter domain.RequestFilter) ([]domain.ConsultationRequest, error) {
	conditions, args, argCount := buildRequestConditions(filter)

	query := `SELECT ` + requestColumns + ` FROM consultation_requests`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filter.Limit)
		argCount++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argCount)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list requests", err)
	}
	defer rows.Close()

	requests := make([]domain.ConsultationRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, wrapErr("scan request", err)
		}
		requests = append(requests, *req)
	}

	return requests, wrapErr("list requests", rows.Err())
}

func (r *RequestRepo) CountByFilter(ctx context.Context, filter domain.RequestFilter) (int, error) {
	conditions, args, _ := buildRequestConditions(filter)

	query := "SELECT COUNT(*) FROM consultation_requests"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	return count, wrapErr("count requests", err)
}

func (r *RequestRepo) UpdateStatus(ctx context.Context, id string, from, to domain.RequestStatus) (*domain.ConsultationRequest, error) {
	query := `
		UPDATE consultation_requests
		SET status = $1,
			updated_at = NOW(),
			accepted_at = CASE WHEN $2 THEN NOW() ELSE accepted_at END
		WHERE id = $3 AND status = $4
		RETURNING ` + requestColumns

	req, err := scanRequest(r.db.QueryRow(ctx, query, to, to == domain.RequestStatusAccepted, id, from))
	if err != nil {
		return nil, wrapErr("update request status", err)
	}
	return req, nil
}

func (r *RequestRepo) Stats(ctx context.Context, lawyerID string) (*domain.RequestStats, error) {
	query := `SELECT status, COUNT(*) FROM consultation_requests WHERE lawyer_id = $1 GROUP BY status`

	rows, err := r.db.Query(ctx, query, lawyerID)
	if err != nil {
		return nil, wrapErr("request stats", err)
	}
	defer rows.Close()

	var stats domain.RequestStats
	for rows.Next() {
		var status domain.RequestStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, wrapErr("scan request stats", err)
		}

		stats.Total += count
		switch status {
		case domain.RequestStatusPending:
			stats.Pending = count
		case domain.RequestStatusAccepted:
			stats.Accepted = count
		case domain.RequestStatusCompleted:
			stats.Completed = count
		case domain.RequestStatusDeclined:
			stats.Declined = count
		case domain.RequestStatusCancelled:
			stats.Cancelled = count
		}
	}

	if err := rows.Err(); err != nil {
		return nil, wrapErr("request stats", err)
	}
	return &stats, nil
}
