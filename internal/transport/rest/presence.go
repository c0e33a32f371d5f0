package rest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"legalport/internal/domain"
)

const maxPresenceIDs = 200

// @Summary Set own presence
// @Tags Presence
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body domain.SetPresenceDTO true "Presence"
// @Success 200 {object} successResponseBody{data=domain.Presence}
// @Failure 400 {object} errorResponseBody
// @Router /presence [put]
func (h *Handler) setPresence(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var dto domain.SetPresenceDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		badRequestResponse(c, "invalid request body: "+err.Error())
		return
	}

	presence, err := h.services.Presence.SetPresence(c.Request.Context(), principal.ID, *dto.IsOnline)
	if err != nil {
		respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, presence)
}

// @Summary Get presence of users
// @Description Users without a record are reported offline
// @Tags Presence
// @Produce json
// @Security ApiKeyAuth
// @Param ids query string true "Comma separated user ids"
// @Success 200 {object} successResponseBody{data=map[string]domain.Presence}
// @Failure 400 {object} errorResponseBody
// @Router /presence [get]
func (h *Handler) getPresence(c *gin.Context) {
	ids := splitIDs(c.Query("ids"))
	if len(ids) == 0 {
		badRequestResponse(c, "ids query parameter is required")
		return
	}
	if len(ids) > maxPresenceIDs {
		badRequestResponse(c, "too many ids")
		return
	}

	presence, err := h.services.Presence.GetPresence(c.Request.Context(), ids)
	if err != nil {
		respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, presence)
}

func splitIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
