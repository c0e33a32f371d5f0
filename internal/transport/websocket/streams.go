package websocket

import (
	"fmt"

	"legalport/internal/domain"
)

const (
	frameSubscribe   = "subscribe"
	frameUnsubscribe = "unsubscribe"
	framePresence    = "presence"
	framePing        = "ping"

	frameSnapshot = "snapshot"
	frameError    = "error"
	framePong     = "pong"
)

const (
	StreamMessages      = "messages"
	StreamChats         = "chats"
	StreamUnread        = "unread"
	StreamRequests      = "requests"
	StreamPresence      = "presence"
	StreamPresenceMany  = "presence_many"
	StreamVideoSessions = "video_sessions"
)

type inboundFrame struct {
	Type   string   `json:"type"`
	Stream string   `json:"stream,omitempty"`
	ID     string   `json:"id,omitempty"`
	IDs    []string `json:"ids,omitempty"`
	SubID  string   `json:"sub_id,omitempty"`
	Online *bool    `json:"online,omitempty"`
}

type outboundFrame struct {
	Type    string      `json:"type"`
	Stream  string      `json:"stream,omitempty"`
	SubID   string      `json:"sub_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// snapshotFn turns a service callback into snapshot frames on this connection.
func snapshotFn[T any](c *Client, stream, subID string) func(T) {
	return func(data T) {
		c.enqueue(outboundFrame{Type: frameSnapshot, Stream: stream, SubID: subID, Data: data})
	}
}

// openStream starts the service subscription behind a stream. Streams over the
// caller's own data ignore the id; message streams are checked by the chat service.
func (c *Client) openStream(frame inboundFrame) (func(), error) {
	services := c.hub.services
	ctx := c.ctx
	userID := c.userID()

	switch frame.Stream {
	case StreamMessages:
		if frame.ID == "" {
			return nil, fmt.Errorf("%w: chat id is required", domain.ErrValidation)
		}
		return services.Chat.SubscribeMessages(ctx, frame.ID, userID, snapshotFn[[]domain.Message](c, frame.Stream, frame.SubID))

	case StreamChats:
		return services.Chat.SubscribeUserChats(ctx, userID, snapshotFn[[]domain.ChatThread](c, frame.Stream, frame.SubID))

	case StreamUnread:
		return services.Chat.SubscribeUnreadCounts(ctx, userID, snapshotFn[map[string]int](c, frame.Stream, frame.SubID))

	case StreamRequests:
		deliver := snapshotFn[[]domain.ConsultationRequest](c, frame.Stream, frame.SubID)
		if c.principal.Role == domain.UserRoleLawyer {
			return services.Request.SubscribeForLawyer(ctx, userID, deliver)
		}
		return services.Request.SubscribeForClient(ctx, userID, deliver)

	case StreamPresence:
		if frame.ID == "" {
			return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
		}
		return services.Presence.SubscribePresence(ctx, frame.ID, snapshotFn[domain.Presence](c, frame.Stream, frame.SubID))

	case StreamPresenceMany:
		if len(frame.IDs) == 0 {
			return nil, fmt.Errorf("%w: user ids are required", domain.ErrValidation)
		}
		return services.Presence.SubscribeMultiplePresence(ctx, frame.IDs, snapshotFn[map[string]domain.Presence](c, frame.Stream, frame.SubID))

	case StreamVideoSessions:
		return services.Video.ListenSessions(ctx, userID, snapshotFn[[]domain.VideoCallSession](c, frame.Stream, frame.SubID))
	}

	return nil, fmt.Errorf("%w: unknown stream %q", domain.ErrValidation, frame.Stream)
}
