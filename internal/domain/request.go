package domain

import (
	"time"
)

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusDeclined  RequestStatus = "declined"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusCancelled RequestStatus = "cancelled"
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending:  {RequestStatusAccepted, RequestStatusDeclined},
	RequestStatusAccepted: {RequestStatusCompleted},
}

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusDeclined,
		RequestStatusCompleted, RequestStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s RequestStatus) Terminal() bool {
	return len(requestTransitions[s]) == 0
}

type ServiceType string

const (
	ServiceTypeAudio ServiceType = "audio"
	ServiceTypeVideo ServiceType = "video"
	ServiceTypeChat  ServiceType = "chat"
)

func (t ServiceType) Valid() bool {
	return t == ServiceTypeAudio || t == ServiceTypeVideo || t == ServiceTypeChat
}

type ClientContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type ConsultationRequest struct {
	ID            string        `json:"id"`
	ClientID      string        `json:"client_id"`
	LawyerID      string        `json:"lawyer_id"`
	ServiceType   ServiceType   `json:"service_type"`
	Status        RequestStatus `json:"status"`
	Message       string        `json:"message"`
	RequestedTime *time.Time    `json:"requested_time,omitempty"`
	Price         float64       `json:"price"`
	Contact       ClientContact `json:"contact"`
	AcceptedAt    *time.Time    `json:"accepted_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type CreateRequestDTO struct {
	LawyerID      string      `json:"lawyer_id" binding:"required"`
	ServiceType   ServiceType `json:"service_type" binding:"required,oneof=audio video chat"`
	Message       string      `json:"message" binding:"required"`
	RequestedTime *time.Time  `json:"requested_time"`
	ContactName   string      `json:"contact_name" binding:"required"`
	ContactEmail  string      `json:"contact_email" binding:"required"`
	ContactPhone  string      `json:"contact_phone" binding:"required"`
}

// RequestSnapshot carries the participants the caller saw when accepting.
type RequestSnapshot struct {
	ClientID    string      `json:"client_id"`
	LawyerID    string      `json:"lawyer_id"`
	ServiceType ServiceType `json:"service_type" binding:"omitempty,oneof=audio video chat"`
}

type UpdateRequestStatusDTO struct {
	Status   RequestStatus    `json:"status" binding:"required,oneof=accepted declined completed"`
	Snapshot *RequestSnapshot `json:"snapshot"`
}

type RequestFilter struct {
	ClientID *string
	LawyerID *string
	Status   *RequestStatus
	Limit    int
	Offset   int
}

type RequestStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Accepted  int `json:"accepted"`
	Completed int `json:"completed"`
	Declined  int `json:"declined"`
	Cancelled int `json:"cancelled"`
}

// ProvisionResult identifies the chat created for an accepted request.
type ProvisionResult struct {
	ChatID    string `json:"chat_id"`
	SessionID string `json:"session_id"`
	Existing  bool   `json:"existing"`
}
