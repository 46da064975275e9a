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

// HalaqahHandler exposes halaqah endpoints.
type HalaqahHandler struct {
	halaqah *service.HalaqahService
}

// NewHalaqahHandler constructs HalaqahHandler.
func NewHalaqahHandler(halaqah *service.HalaqahService) *HalaqahHandler {
	return &HalaqahHandler{halaqah: halaqah}
}

// List godoc
// @Summary List halaqah
// @Tags Halaqah
// @Produce json
// @Param search query string false "Search by name or description"
// @Param level query string false "Filter by level, ALL for none"
// @Param musyrifId query string false "Filter by musyrif (ADMIN only), ALL for none"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /halaqah [get]
func (h *HalaqahHandler) List(c *gin.Context) {
	var filter models.HalaqahFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	// "ALL" is the client sentinel for no filter.
	if raw := c.Query("level"); raw != "" && raw != "ALL" {
		filter.Level = raw
	}
	if raw := c.Query("musyrifId"); raw != "" && raw != "ALL" {
		filter.MusyrifID = raw
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	halaqah, pagination, err := h.halaqah.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, halaqah, pagination)
}

// Get godoc
// @Summary Get halaqah detail with schedules
// @Tags Halaqah
// @Produce json
// @Param id path string true "Halaqah ID"
// @Success 200 {object} response.Envelope
// @Router /halaqah/{id} [get]
func (h *HalaqahHandler) Get(c *gin.Context) {
	halaqah, err := h.halaqah.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, halaqah, nil)
}

// Create godoc
// @Summary Create halaqah
// @Tags Halaqah
// @Accept json
// @Produce json
// @Param payload body service.CreateHalaqahRequest true "Halaqah payload"
// @Success 201 {object} response.Envelope
// @Router /halaqah [post]
func (h *HalaqahHandler) Create(c *gin.Context) {
	var req service.CreateHalaqahRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	halaqah, err := h.halaqah.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, halaqah)
}

// Update godoc
// @Summary Update halaqah
// @Tags Halaqah
// @Accept json
// @Produce json
// @Param id path string true "Halaqah ID"
// @Param payload body service.UpdateHalaqahRequest true "Halaqah payload"
// @Success 200 {object} response.Envelope
// @Router /halaqah/{id} [put]
func (h *HalaqahHandler) Update(c *gin.Context) {
	var req service.UpdateHalaqahRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	halaqah, err := h.halaqah.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, halaqah, nil)
}

// Delete godoc
// @Summary Delete halaqah
// @Tags Halaqah
// @Produce json
// @Param id path string true "Halaqah ID"
// @Success 204
// @Router /halaqah/{id} [delete]
func (h *HalaqahHandler) Delete(c *gin.Context) {
	if err := h.halaqah.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
