package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"legalport/internal/domain"
)

// @Summary Create video session
// @Tags Video
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body domain.CreateVideoSessionDTO true "Participants"
// @Success 201 {object} successResponseBody{data=domain.VideoCallSession}
// @Failure 400 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody
// @Router /video/sessions [post]
func (h *Handler) createVideoSession(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var dto domain.CreateVideoSessionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badRequestResponse(c, "invalid request body: "+err.Error())
		return
	}

	session, err := h.services.Video.CreateSession(c.Request.Context(), principal.ID, dto)
	if err != nil {
		respondError(c, err)
		return
	}

	createdResponse(c, session)
}

// @Summary Recent video sessions
// @Description Sessions the caller takes part in, newest first
// @Tags Video
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} successResponseBody{data=[]domain.VideoCallSession}
// @Router /video/sessions [get]
func (h *Handler) listVideoSessions(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	sessions, err := h.services.Video.ListSessions(c.Request.Context(), principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, sessions)
}

// @Summary Active video sessions
// @Tags Video
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} successResponseBody{data=[]domain.VideoCallSession}
// @Router /video/sessions/active [get]
func (h *Handler) getActiveVideoSessions(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	sessions, err := h.services.Video.ActiveSessions(c.Request.Context(), principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, sessions)
}

// @Summary Update video session status
// @Description Forward-only: waiting to active, waiting or active to ended
// @Tags Video
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Param request body domain.UpdateVideoStatusDTO true "Status"
// @Success 200 {object} successResponseBody{data=domain.VideoCallSession}
// @Failure 403 {object} errorResponseBody
// @Failure 409 {object} errorResponseBody
// @Router /video/sessions/{id}/status [patch]
func (h *Handler) updateVideoSessionStatus(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var dto domain.UpdateVideoStatusDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badRequestResponse(c, "invalid request body: "+err.Error())
		return
	}

	session, err := h.services.Video.UpdateSessionStatus(c.Request.Context(), c.Param("id"), principal.ID, dto.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, session)
}

// @Summary Issue join token
// @Description Mints a media SDK credential for a session participant
// @Tags Video
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} successResponseBody{data=domain.JoinToken}
// @Failure 403 {object} errorResponseBody
// @Failure 409 {object} errorResponseBody
// @Router /video/sessions/{id}/token [post]
func (h *Handler) issueJoinToken(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	token, err := h.services.Video.IssueJoinToken(c.Request.Context(), c.Param("id"), principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, token)
}

// @Summary Verify join token
// @Description Checks a join token presented to the media relay and returns the session it admits
// @Tags Video
// @Accept json
// @Produce json
// @Param request body domain.VerifyJoinTokenDTO true "Join token"
// @Success 200 {object} successResponseBody{data=domain.JoinClaims}
// @Failure 400 {object} errorResponseBody
// @Failure 401 {object} errorResponseBody
// @Router /video/tokens/verify [post]
func (h *Handler) verifyJoinToken(c *gin.Context) {
	var dto domain.VerifyJoinTokenDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badRequestResponse(c, "invalid request body: "+err.Error())
		return
	}

	claims, err := h.services.Video.VerifyJoinToken(dto.Token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			errorResponse(c, http.StatusUnauthorized, domain.ErrTokenExpired.Error())
			return
		}
		errorResponse(c, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
		return
	}

	successResponse(c, http.StatusOK, claims)
}
