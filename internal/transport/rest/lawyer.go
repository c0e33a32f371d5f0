package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary List lawyers
// @Description Lawyer directory ordered by rating
// @Tags Lawyers
// @Produce json
// @Success 200 {object} successResponseBody{data=[]domain.LawyerProfile}
// @Failure 503 {object} errorResponseBody
// @Failure 504 {object} errorResponseBody
// @Router /lawyers [get]
func (h *Handler) listLawyers(c *gin.Context) {
	lawyers, err := h.services.Lawyer.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, lawyers)
}

// @Summary Get lawyer
// @Tags Lawyers
// @Produce json
// @Param id path string true "Lawyer ID"
// @Success 200 {object} successResponseBody{data=domain.LawyerProfile}
// @Failure 404 {object} errorResponseBody
// @Router /lawyers/{id} [get]
func (h *Handler) getLawyerByID(c *gin.Context) {
	lawyer, err := h.services.Lawyer.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, lawyer)
}
