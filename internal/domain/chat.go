package domain

import (
	"time"
)

const (
	SystemSenderID      = "system"
	ChatStartedPreview  = "Chat started"
	ChatStartedGreeting = "Chat session started. You can now communicate with each other."
	FilePreviewPrefix   = "📎 "
)

type ChatStatus string

const (
	ChatStatusActive ChatStatus = "active"
	ChatStatusEnded  ChatStatus = "ended"
)

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeFile   MessageType = "file"
	MessageTypeSystem MessageType = "system"
)

type SenderRole string

const (
	SenderRoleClient SenderRole = "client"
	SenderRoleLawyer SenderRole = "lawyer"
	SenderRoleSystem SenderRole = "system"
)

type ChatThread struct {
	ID                string     `json:"id"`
	RequestID         string     `json:"request_id"`
	Participants      []string   `json:"participants"`
	LastMessage       string     `json:"last_message"`
	LastMessageSender string     `json:"last_message_sender"`
	LastMessageTime   time.Time  `json:"last_message_time"`
	Status            ChatStatus `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	EndedAt           *time.Time `json:"ended_at,omitempty"`
}

func (t *ChatThread) HasParticipant(userID string) bool {
	for _, p := range t.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

type ChatSession struct {
	ID           string      `json:"id"`
	RequestID    string      `json:"request_id"`
	ClientID     string      `json:"client_id"`
	LawyerID     string      `json:"lawyer_id"`
	ServiceType  ServiceType `json:"service_type"`
	Status       ChatStatus  `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	LastActivity time.Time   `json:"last_activity"`
	EndedAt      *time.Time  `json:"ended_at,omitempty"`
}

type FileRef struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

type Message struct {
	ID         string      `json:"id"`
	ChatID     string      `json:"chat_id"`
	SenderID   string      `json:"sender_id"`
	SenderRole SenderRole  `json:"sender_role"`
	Type       MessageType `json:"type"`
	Text       string      `json:"text"`
	File       *FileRef    `json:"file,omitempty"`
	IsRead     bool        `json:"is_read"`
	ReadAt     *time.Time  `json:"read_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewMessage is a message about to be appended; ID and timestamps are assigned on insert.
type NewMessage struct {
	ID         string
	ChatID     string
	SenderID   string
	SenderRole SenderRole
	Type       MessageType
	Text       string
	File       *FileRef
}

// ChatProvision is the full set of records written when a request is accepted.
type ChatProvision struct {
	RequestID   string
	ClientID    string
	LawyerID    string
	ServiceType ServiceType
	SessionID   string
	ChatID      string
	MessageID   string
}

type ProvisioningStep string

const (
	StepBegin         ProvisioningStep = "begin"
	StepLookup        ProvisioningStep = "lookup"
	StepChatSession   ProvisioningStep = "chat_session"
	StepChatThread    ProvisioningStep = "chat_thread"
	StepSystemMessage ProvisioningStep = "system_message"
	StepCommit        ProvisioningStep = "commit"
)

type SendMessageDTO struct {
	Text string `json:"text" binding:"required"`
}

// Attachment is an uploaded file before it reaches object storage.
type Attachment struct {
	Name     string
	MimeType string
	Data     []byte
}

func (a Attachment) Size() int64 {
	return int64(len(a.Data))
}
