package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"legalport/internal/domain"
)

type setStatusResponse struct {
	Request   *domain.ConsultationRequest `json:"request"`
	Provision *domain.ProvisionResult     `json:"provision,omitempty"`
}

type provisioningFailedBody struct {
	errorResponseBody
	Request *domain.ConsultationRequest `json:"request"`
}

// @Summary Submit consultation request
// @Description A client asks a lawyer for an audio, video or chat consultation
// @Tags Requests
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body domain.CreateRequestDTO true "Request data"
// @Success 201 {object} successResponseBody{data=domain.ConsultationRequest}
// @Failure 400 {object} errorResponseBody
// @Failure 401 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Router /requests [post]
func (h *Handler) submitRequest(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var dto domain.CreateRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badRequestResponse(c, "invalid request body: "+err.Error())
		return
	}

	req, err := h.services.Request.Submit(c.Request.Context(), principal.ID, dto)
	if err != nil {
		respondError(c, err)
		return
	}

	createdResponse(c, req)
}

// @Summary List own requests
// @Description Lawyers see requests addressed to them, clients see their own
// @Tags Requests
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "Filter by status" Enums(pending,accepted,declined,completed,cancelled)
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} paginatedResponse{data=[]domain.ConsultationRequest}
// @Failure 400 {object} errorResponseBody
// @Failure 401 {object} errorResponseBody
// @Router /requests [get]
func (h *Handler) listRequests(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var status *domain.RequestStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.RequestStatus(raw)
		if !s.Valid() {
			badRequestResponse(c, "unknown status "+raw)
			return
		}
		status = &s
	}

	limit, offset := pagination(c)

	requests, total, err := h.services.Request.List(c.Request.Context(), *principal, status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	paginatedSuccessResponse(c, requests, total, offset/limit+1, limit)
}

// @Summary Request statistics
// @Tags Requests
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} successResponseBody{data=domain.RequestStats}
// @Failure 403 {object} errorResponseBody
// @Router /requests/stats [get]
func (h *Handler) getRequestStats(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	stats, err := h.services.Request.Stats(c.Request.Context(), principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, stats)
}

// @Summary Get request
// @Tags Requests
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Request ID"
// @Success 200 {object} successResponseBody{data=domain.ConsultationRequest}
// @Failure 403 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Router /requests/{id} [get]
func (h *Handler) getRequestByID(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	req, err := h.services.Request.GetByID(c.Request.Context(), c.Param("id"), principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, req)
}

// @Summary Change request status
// @Description Accepting provisions the chat. If provisioning fails the status change stays and 502 is returned with provisioning=failed
// @Tags Requests
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Request ID"
// @Param request body domain.UpdateRequestStatusDTO true "New status"
// @Success 200 {object} successResponseBody{data=setStatusResponse}
// @Failure 400 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Failure 409 {object} errorResponseBody
// @Failure 502 {object} provisioningFailedBody
// @Router /requests/{id}/status [patch]
func (h *Handler) setRequestStatus(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var dto domain.UpdateRequestStatusDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badRequestResponse(c, "invalid request body: "+err.Error())
		return
	}

	req, provision, err := h.services.Request.SetStatus(c.Request.Context(), principal.ID, c.Param("id"), dto)
	if err != nil {
		var provErr *domain.ProvisioningError
		if errors.As(err, &provErr) && req != nil {
			h.logger.Warn("request accepted without chat",
				zap.String("requestID", req.ID),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusBadGateway, provisioningFailedBody{
				errorResponseBody: errorResponseBody{
					Status:       "error",
					Message:      "request accepted but the chat could not be created, retry provisioning",
					Code:         http.StatusBadGateway,
					Provisioning: "failed",
				},
				Request: req,
			})
			return
		}
		respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, setStatusResponse{Request: req, Provision: provision})
}

// @Summary Retry chat provisioning
// @Description Re-runs chat provisioning for an accepted request. Safe to repeat
// @Tags Requests
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Request ID"
// @Success 200 {object} successResponseBody{data=domain.ProvisionResult}
// @Failure 403 {object} errorResponseBody
// @Failure 409 {object} errorResponseBody
// @Failure 502 {object} errorResponseBody
// @Router /requests/{id}/provision [post]
func (h *Handler) retryProvisioning(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	result, err := h.services.Request.RetryProvisioning(c.Request.Context(), principal.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, result)
}
