package rest

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"legalport/config"
	"legalport/internal/service"
	"legalport/internal/transport/websocket"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Handler struct {
	services *service.Services
	logger   *zap.Logger
	config   *config.Config
	hub      *websocket.Hub
}

func NewHandler(services *service.Services, logger *zap.Logger, config *config.Config, hub *websocket.Hub) *Handler {
	return &Handler{
		services: services,
		logger:   logger,
		config:   config,
		hub:      hub,
	}
}

func (h *Handler) InitRoutes(router *gin.Engine) {
	router.Use(h.loggerMiddleware())

	router.Use(h.errorMiddleware())

	router.Use(h.corsMiddleware())

	api := router.Group("/api/v1")
	{
		lawyers := api.Group("/lawyers")
		{
			lawyers.GET("", h.listLawyers)
			lawyers.GET("/:id", h.getLawyerByID)
		}

		h.initRequestRoutes(api)
		h.initChatRoutes(api)

		presence := api.Group("/presence", h.authMiddleware())
		{
			presence.PUT("", h.setPresence)
			presence.GET("", h.getPresence)
		}

		h.initVideoRoutes(api)
	}

	// The websocket endpoint authenticates from the query string.
	if h.hub != nil {
		router.GET("/ws", h.hub.HandleWebSocket)
	}
}

func (h *Handler) initRequestRoutes(api *gin.RouterGroup) {
	requests := api.Group("/requests", h.authMiddleware())
	{
		requests.POST("", h.clientMiddleware(), h.submitRequest)
		requests.GET("", h.listRequests)
		requests.GET("/stats", h.lawyerMiddleware(), h.getRequestStats)
		requests.GET("/:id", h.getRequestByID)

		lawyerRoutes := requests.Group("/:id", h.lawyerMiddleware())
		{
			lawyerRoutes.PATCH("/status", h.setRequestStatus)
			lawyerRoutes.POST("/provision", h.retryProvisioning)
		}
	}
}

func (h *Handler) initChatRoutes(api *gin.RouterGroup) {
	chats := api.Group("/chats", h.authMiddleware())
	{
		chats.GET("", h.listChats)
		chats.GET("/unread", h.getUnreadCounts)
		chats.GET("/by-request/:request_id", h.getChatByRequest)
		chats.GET("/by-request/:request_id/session", h.getChatSessionByRequest)
		chats.GET("/:id", h.getChat)
		chats.GET("/:id/messages", h.listMessages)
		chats.POST("/:id/messages", h.sendMessage)
		chats.POST("/:id/files", h.sendFile)
		chats.POST("/:id/read", h.markRead)
		chats.POST("/:id/end", h.endChat)
	}
}

func (h *Handler) initVideoRoutes(api *gin.RouterGroup) {
	sessions := api.Group("/video/sessions", h.authMiddleware())
	{
		sessions.POST("", h.lawyerMiddleware(), h.createVideoSession)
		sessions.GET("", h.listVideoSessions)
		sessions.GET("/active", h.lawyerMiddleware(), h.getActiveVideoSessions)
		sessions.PATCH("/:id/status", h.updateVideoSessionStatus)
		sessions.POST("/:id/token", h.issueJoinToken)
	}

	// Called by the media relay; the join token is the credential.
	api.POST("/video/tokens/verify", h.verifyJoinToken)
}

// pagination reads limit and offset, falling back to defaults on bad input.
func pagination(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	return limit, offset
}
