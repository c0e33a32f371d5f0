package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"legalport/internal/domain"
)

// multipartOverhead is the allowance for form boundaries and the text field on top
// of the file itself.
const multipartOverhead = 1 << 20

type markReadResponse struct {
	Updated int64 `json:"updated"`
}

// @Summary List own chats
// @Tags Chats
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} successResponseBody{data=[]domain.ChatThread}
// @Failure 401 {object} errorResponseBody
// @Router /chats [get]
func (h *Handler) listChats(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	chats, err := h.services.Chat.ListUserChats(c.Request.Context(), principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, chats)
}

// @Summary Unread counts per chat
// @Tags Chats
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} successResponseBody{data=map[string]int}
// @Router /chats/unread [get]
func (h *Handler) getUnreadCounts(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	counts, err := h.services.Chat.UnreadCounts(c.Request.Context(), principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, counts)
}

// @Summary Get chat by request
// @Tags Chats
// @Produce json
// @Security ApiKeyAuth
// @Param request_id path string true "Request ID"
// @Success 200 {object} successResponseBody{data=domain.ChatThread}
// @Failure 403 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Router /chats/by-request/{request_id} [get]
func (h *Handler) getChatByRequest(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	chat, err := h.services.Chat.GetChatByRequest(c.Request.Context(), c.Param("request_id"), principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, chat)
}

// @Summary Get chat session by request
// @Description Operational session record paired with the request's chat
// @Tags Chats
// @Produce json
// @Security ApiKeyAuth
// @Param request_id path string true "Request ID"
// @Success 200 {object} successResponseBody{data=domain.ChatSession}
// @Failure 403 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Router /chats/by-request/{request_id}/session [get]
func (h *Handler) getChatSessionByRequest(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	session, err := h.services.Chat.GetSessionByRequest(c.Request.Context(), c.Param("request_id"), principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, session)
}

// @Summary Get chat
// @Tags Chats
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Chat ID"
// @Success 200 {object} successResponseBody{data=domain.ChatThread}
// @Failure 403 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Router /chats/{id} [get]
func (h *Handler) getChat(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	chat, err := h.services.Chat.GetChat(c.Request.Context(), c.Param("id"), principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, chat)
}

// @Summary List messages
// @Description Full message list of a chat, oldest first
// @Tags Chats
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Chat ID"
// @Success 200 {object} successResponseBody{data=[]domain.Message}
// @Failure 403 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Router /chats/{id}/messages [get]
func (h *Handler) listMessages(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	messages, err := h.services.Chat.ListMessages(c.Request.Context(), c.Param("id"), principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, messages)
}

// @Summary Send text message
// @Tags Chats
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Chat ID"
// @Param request body domain.SendMessageDTO true "Message"
// @Success 201 {object} successResponseBody{data=domain.Message}
// @Failure 400 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody
// @Failure 409 {object} errorResponseBody
// @Router /chats/{id}/messages [post]
func (h *Handler) sendMessage(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var dto domain.SendMessageDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badRequestResponse(c, "invalid request body: "+err.Error())
		return
	}

	msg, err := h.services.Chat.SendMessage(c.Request.Context(), c.Param("id"), principal.ID, principal.Role.SenderRole(), dto.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	createdResponse(c, msg)
}

// @Summary Send file message
// @Description Images and PDF documents up to the configured size
// @Tags Chats
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Chat ID"
// @Param file formData file true "Attachment"
// @Param text formData string false "Caption"
// @Success 201 {object} successResponseBody{data=domain.Message}
// @Failure 400 {object} errorResponseBody
// @Failure 413 {object} errorResponseBody
// @Failure 415 {object} errorResponseBody
// @Router /chats/{id}/files [post]
func (h *Handler) sendFile(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	maxSize := h.config.Chat.MaxFileSize
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+multipartOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, domain.ErrFileTooLarge)
			return
		}
		badRequestResponse(c, "file is required")
		return
	}

	if header.Size > maxSize {
		respondError(c, fmt.Errorf("%w: %d bytes", domain.ErrFileTooLarge, header.Size))
		return
	}

	file, err := header.Open()
	if err != nil {
		h.logger.Error("failed to open uploaded file", zap.Error(err))
		badRequestResponse(c, "failed to read file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		h.logger.Error("failed to read uploaded file", zap.Error(err))
		badRequestResponse(c, "failed to read file")
		return
	}

	attachment := domain.Attachment{
		Name:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	}

	msg, err := h.services.Chat.SendMessageWithFile(
		c.Request.Context(),
		c.Param("id"),
		principal.ID,
		principal.Role.SenderRole(),
		attachment,
		c.PostForm("text"),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	createdResponse(c, msg)
}

// @Summary Mark chat read
// @Description Marks every unread message from the other participant as read
// @Tags Chats
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Chat ID"
// @Success 200 {object} successResponseBody{data=markReadResponse}
// @Failure 403 {object} errorResponseBody
// @Router /chats/{id}/read [post]
func (h *Handler) markRead(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	n, err := h.services.Chat.MarkRead(c.Request.Context(), c.Param("id"), principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, markReadResponse{Updated: n})
}

// @Summary End chat
// @Tags Chats
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Chat ID"
// @Success 200 {object} messageResponseType
// @Failure 403 {object} errorResponseBody
// @Router /chats/{id}/end [post]
func (h *Handler) endChat(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	if err := h.services.Chat.EndChat(c.Request.Context(), c.Param("id"), principal.ID); err != nil {
		respondError(c, err)
		return
	}

	messageResponse(c, http.StatusOK, "chat ended")
}
