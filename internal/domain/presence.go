package domain

import (
	"time"
)

type Presence struct {
	UserID   string    `json:"user_id"`
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
}

// OfflinePresence is what a user without any stored record reads as.
func OfflinePresence(userID string, now time.Time) Presence {
	return Presence{UserID: userID, IsOnline: false, LastSeen: now}
}

type SetPresenceDTO struct {
	IsOnline *bool `json:"is_online" binding:"required"`
}
