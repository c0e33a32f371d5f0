package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"legalport/config"
	"legalport/internal/domain"
	"legalport/internal/service"
)

type fakeAuth struct{}

func (fakeAuth) ParseToken(_ context.Context, token string) (*domain.Principal, error) {
	switch token {
	case "client-token":
		return &domain.Principal{ID: "u1", Role: domain.UserRoleClient}, nil
	case "lawyer-token":
		return &domain.Principal{ID: "l1", Role: domain.UserRoleLawyer}, nil
	}
	return nil, domain.ErrUnauthorized
}

type presenceCall struct {
	userID string
	online bool
}

type fakePresence struct {
	service.PresenceService

	mu    sync.Mutex
	calls []presenceCall
}

func (f *fakePresence) SetPresence(_ context.Context, userID string, isOnline bool) (*domain.Presence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, presenceCall{userID: userID, online: isOnline})
	return &domain.Presence{UserID: userID, IsOnline: isOnline}, nil
}

func (f *fakePresence) Touch(context.Context, []string) error {
	return nil
}

func (f *fakePresence) snapshot() []presenceCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]presenceCall(nil), f.calls...)
}

type fakeChat struct {
	service.ChatService

	unsubscribed atomic.Bool
}

func (f *fakeChat) SubscribeUserChats(_ context.Context, userID string, onChange func([]domain.ChatThread)) (func(), error) {
	onChange([]domain.ChatThread{{ID: "c1", Participants: []string{userID, "l1"}}})
	return func() { f.unsubscribed.Store(true) }, nil
}

func (f *fakeChat) SubscribeMessages(_ context.Context, chatID, userID string, _ func([]domain.Message)) (func(), error) {
	return nil, domain.ErrAccessDenied
}

type hubFixture struct {
	server   *httptest.Server
	presence *fakePresence
	chat     *fakeChat
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	presence := &fakePresence{}
	chat := &fakeChat{}
	services := &service.Services{
		Auth:     fakeAuth{},
		Presence: presence,
		Chat:     chat,
	}

	hub := NewHub(services, config.PresenceConfig{StaleAfter: time.Minute}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws", hub.HandleWebSocket)
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	return &hubFixture{server: server, presence: presence, chat: chat}
}

func (f *hubFixture) dial(t *testing.T, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func readFrame(t *testing.T, conn *websocket.Conn) outboundFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame outboundFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestHub_RejectsBadToken(t *testing.T) {
	f := newHubFixture(t)

	_, resp, err := f.dial(t, "nope")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, f.presence.snapshot())
}

func TestHub_PresenceFollowsConnections(t *testing.T) {
	f := newHubFixture(t)

	first, _, err := f.dial(t, "client-token")
	require.NoError(t, err)
	second, _, err := f.dial(t, "client-token")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(f.presence.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, presenceCall{userID: "u1", online: true}, f.presence.snapshot()[0])

	require.NoError(t, first.Close())
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, f.presence.snapshot(), 1, "one connection is still open")

	require.NoError(t, second.Close())
	assert.Eventually(t, func() bool {
		calls := f.presence.snapshot()
		return len(calls) == 2 && calls[1] == presenceCall{userID: "u1", online: false}
	}, time.Second, 10*time.Millisecond)
}

func TestHub_PingPong(t *testing.T) {
	f := newHubFixture(t)

	conn, _, err := f.dial(t, "client-token")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(inboundFrame{Type: framePing}))
	assert.Equal(t, framePong, readFrame(t, conn).Type)
}

func TestHub_SubscribeDeliversSnapshotAndUnsubscribesOnClose(t *testing.T) {
	f := newHubFixture(t)

	conn, _, err := f.dial(t, "client-token")
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(inboundFrame{Type: frameSubscribe, Stream: StreamChats, SubID: "s1"}))

	frame := readFrame(t, conn)
	assert.Equal(t, frameSnapshot, frame.Type)
	assert.Equal(t, StreamChats, frame.Stream)
	assert.Equal(t, "s1", frame.SubID)
	data, ok := frame.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, data, 1)
	assert.Equal(t, "c1", data[0].(map[string]interface{})["id"])

	require.NoError(t, conn.Close())
	assert.Eventually(t, f.chat.unsubscribed.Load, time.Second, 10*time.Millisecond)
}

func TestHub_SubscribeErrors(t *testing.T) {
	f := newHubFixture(t)

	conn, _, err := f.dial(t, "client-token")
	require.NoError(t, err)
	defer conn.Close()

	tests := []struct {
		name  string
		frame inboundFrame
		subID string
		msg   string
	}{
		{
			name:  "unknown stream",
			frame: inboundFrame{Type: frameSubscribe, Stream: "billing", SubID: "a"},
			subID: "a",
			msg:   "unknown stream",
		},
		{
			name:  "missing sub id",
			frame: inboundFrame{Type: frameSubscribe, Stream: StreamChats},
			msg:   "sub_id is required",
		},
		{
			name:  "not a participant",
			frame: inboundFrame{Type: frameSubscribe, Stream: StreamMessages, ID: "c9", SubID: "b"},
			subID: "b",
			msg:   domain.ErrAccessDenied.Error(),
		},
		{
			name:  "unknown frame",
			frame: inboundFrame{Type: "shout"},
			msg:   "unknown frame type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteJSON(tt.frame))
			frame := readFrame(t, conn)
			assert.Equal(t, frameError, frame.Type)
			assert.Equal(t, tt.subID, frame.SubID)
			assert.Contains(t, frame.Message, tt.msg)
		})
	}
}

func TestHub_PresenceFrame(t *testing.T) {
	f := newHubFixture(t)

	conn, _, err := f.dial(t, "lawyer-token")
	require.NoError(t, err)
	defer conn.Close()

	offline := false
	require.NoError(t, conn.WriteJSON(inboundFrame{Type: framePresence, Online: &offline}))

	assert.Eventually(t, func() bool {
		calls := f.presence.snapshot()
		return len(calls) == 2 && calls[1] == presenceCall{userID: "l1", online: false}
	}, time.Second, 10*time.Millisecond)
}
