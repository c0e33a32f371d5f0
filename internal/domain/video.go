package domain

import (
	"time"
)

type VideoSessionStatus string

const (
	VideoSessionStatusWaiting VideoSessionStatus = "waiting"
	VideoSessionStatusActive  VideoSessionStatus = "active"
	VideoSessionStatusEnded   VideoSessionStatus = "ended"
)

var videoTransitions = map[VideoSessionStatus][]VideoSessionStatus{
	VideoSessionStatusWaiting: {VideoSessionStatusActive, VideoSessionStatusEnded},
	VideoSessionStatusActive:  {VideoSessionStatusEnded},
}

func (s VideoSessionStatus) CanTransitionTo(next VideoSessionStatus) bool {
	for _, allowed := range videoTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type VideoCallSession struct {
	ID          string             `json:"id"`
	ChannelName string             `json:"channel_name"`
	LawyerID    string             `json:"lawyer_id"`
	ClientID    string             `json:"client_id"`
	Status      VideoSessionStatus `json:"status"`
	RequestID   *string            `json:"request_id,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	StartedAt   *time.Time         `json:"started_at,omitempty"`
	EndedAt     *time.Time         `json:"ended_at,omitempty"`
}

func (s *VideoCallSession) HasParticipant(userID string) bool {
	return s.LawyerID == userID || s.ClientID == userID
}

type CreateVideoSessionDTO struct {
	ClientID  string  `json:"client_id" binding:"required"`
	RequestID *string `json:"request_id"`
}

type UpdateVideoStatusDTO struct {
	Status VideoSessionStatus `json:"status" binding:"required,oneof=active ended"`
}

// VideoStatusUpdate is the persisted form of a status change.
type VideoStatusUpdate struct {
	Status    VideoSessionStatus
	StartedAt *time.Time
	EndedAt   *time.Time
}

// JoinToken is the per-session credential a participant presents to the media SDK.
type JoinToken struct {
	AppID      string    `json:"app_id"`
	Channel    string    `json:"channel"`
	UID        string    `json:"uid"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
	RenewAfter time.Time `json:"renew_after"`
}

type JoinClaims struct {
	SessionID string    `json:"session_id"`
	Channel   string    `json:"channel"`
	UID       string    `json:"uid"`
	ExpiresAt time.Time `json:"expires_at"`
}

type VerifyJoinTokenDTO struct {
	Token string `json:"token" binding:"required"`
}
