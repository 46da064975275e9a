package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
	"github.com/rumahtahfidz/pesantren-api/internal/service"
	appErrors "github.com/rumahtahfidz/pesantren-api/pkg/errors"
	"github.com/rumahtahfidz/pesantren-api/pkg/response"
)

// SantriHandler exposes santri endpoints.
type SantriHandler struct {
	santri *service.SantriService
}

// NewSantriHandler constructs SantriHandler.
func NewSantriHandler(santri *service.SantriService) *SantriHandler {
	return &SantriHandler{santri: santri}
}

// List godoc
// @Summary List santri
// @Tags Santri
// @Produce json
// @Param search query string false "Search by name or NIS"
// @Param halaqahId query string false "Filter by halaqah"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /santri [get]
func (h *SantriHandler) List(c *gin.Context) {
	var filter models.SantriFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.HalaqahID = c.Query("halaqahId")
	if status := c.Query("status"); status != "" {
		s := models.SantriStatus(status)
		filter.Status = &s
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	santri, pagination, err := h.santri.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, santri, pagination)
}

// Get godoc
// @Summary Get santri detail
// @Tags Santri
// @Produce json
// @Param id path string true "Santri ID"
// @Success 200 {object} response.Envelope
// @Router /santri/{id} [get]
func (h *SantriHandler) Get(c *gin.Context) {
	santri, err := h.santri.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, santri, nil)
}

// Create godoc
// @Summary Register santri
// @Tags Santri
// @Accept json
// @Produce json
// @Param payload body service.CreateSantriRequest true "Santri payload"
// @Success 201 {object} response.Envelope
// @Router /santri [post]
func (h *SantriHandler) Create(c *gin.Context) {
	var req service.CreateSantriRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	santri, err := h.santri.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, santri)
}

// Update godoc
// @Summary Update santri
// @Tags Santri
// @Accept json
// @Produce json
// @Param id path string true "Santri ID"
// @Param payload body service.UpdateSantriRequest true "Santri payload"
// @Success 200 {object} response.Envelope
// @Router /santri/{id} [put]
func (h *SantriHandler) Update(c *gin.Context) {
	var req service.UpdateSantriRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	santri, err := h.santri.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, santri, nil)
}

// Delete godoc
// @Summary Deactivate santri
// @Tags Santri
// @Produce json
// @Param id path string true "Santri ID"
// @Success 204
// @Router /santri/{id} [delete]
func (h *SantriHandler) Delete(c *gin.Context) {
	if err := h.santri.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
