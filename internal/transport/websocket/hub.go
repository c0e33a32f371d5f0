package websocket

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"legalport/config"
	"legalport/internal/domain"
	"legalport/internal/service"
)

const presenceWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	// Browsers from both portals connect cross-origin; the bearer token is the gate.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

type presenceUpdate struct {
	userID string
	online bool
}

// Hub tracks live connections per user. The first connection of a user marks
// them online, the last disconnection marks them offline. All presence writes
// go through Run so they land in connection order.
type Hub struct {
	clients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	presence   chan presenceUpdate
	done       chan struct{}

	services  *service.Services
	logger    *zap.Logger
	heartbeat time.Duration

	mutex sync.RWMutex
}

func NewHub(services *service.Services, cfg config.PresenceConfig, logger *zap.Logger) *Hub {
	heartbeat := cfg.StaleAfter / 3
	if heartbeat < 10*time.Second {
		heartbeat = 10 * time.Second
	}

	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		presence:   make(chan presenceUpdate),
		done:       make(chan struct{}),
		services:   services,
		logger:     logger,
		heartbeat:  heartbeat,
	}
}

// Run serves registrations until ctx is done, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mutex.Lock()
			conns, ok := h.clients[client.userID()]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.userID()] = conns
			}
			conns[client] = struct{}{}
			first := len(conns) == 1
			h.mutex.Unlock()

			h.logger.Info("websocket client connected",
				zap.String("userID", client.userID()),
				zap.String("role", string(client.principal.Role)))

			if first {
				h.setPresence(client.userID(), true)
			}

		case client := <-h.unregister:
			h.mutex.Lock()
			last := false
			if conns, ok := h.clients[client.userID()]; ok {
				if _, ok := conns[client]; ok {
					delete(conns, client)
					if len(conns) == 0 {
						delete(h.clients, client.userID())
						last = true
					}
				}
			}
			h.mutex.Unlock()

			client.close()
			h.logger.Info("websocket client disconnected", zap.String("userID", client.userID()))

			if last {
				h.setPresence(client.userID(), false)
			}

		case upd := <-h.presence:
			h.setPresence(upd.userID, upd.online)

		case <-ticker.C:
			h.touchConnected(ctx)
		}
	}
}

func (h *Hub) setPresence(userID string, online bool) {
	ctx, cancel := context.WithTimeout(context.Background(), presenceWriteTimeout)
	defer cancel()

	if _, err := h.services.Presence.SetPresence(ctx, userID, online); err != nil {
		h.logger.Warn("failed to update presence",
			zap.String("userID", userID),
			zap.Bool("online", online),
			zap.Error(err))
	}
}

// touchConnected refreshes last_seen for every connected user so the stale
// sweeper leaves them alone.
func (h *Hub) touchConnected(ctx context.Context) {
	ids := h.ConnectedUsers()
	if len(ids) == 0 {
		return
	}

	tctx, cancel := context.WithTimeout(ctx, presenceWriteTimeout)
	defer cancel()

	if err := h.services.Presence.Touch(tctx, ids); err != nil {
		h.logger.Warn("presence heartbeat failed", zap.Int("users", len(ids)), zap.Error(err))
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	var all []*Client
	for _, conns := range h.clients {
		for client := range conns {
			all = append(all, client)
		}
	}
	h.clients = make(map[string]map[*Client]struct{})
	h.mutex.Unlock()

	for _, client := range all {
		client.close()
	}
}

func (h *Hub) ConnectedUsers() []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) IsUserConnected(userID string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.clients[userID]
	return exists
}

// HandleWebSocket authenticates the bearer token from the token query parameter
// (or the Authorization header) and upgrades the connection.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "token required", "code": http.StatusUnauthorized})
		return
	}

	principal, err := h.services.Auth.ParseToken(c.Request.Context(), token)
	if err != nil {
		h.logger.Warn("websocket authentication failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": domain.ErrUnauthorized.Error(), "code": http.StatusUnauthorized})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}

	client := newClient(h, principal, conn)

	select {
	case h.register <- client:
	case <-h.done:
		client.close()
		return
	}

	go client.writePump()
	go client.readPump()
}
