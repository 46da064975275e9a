package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
	"github.com/rumahtahfidz/pesantren-api/internal/service"
	appErrors "github.com/rumahtahfidz/pesantren-api/pkg/errors"
	"github.com/rumahtahfidz/pesantren-api/pkg/response"
)

// HafalanHandler exposes hafalan submission and review endpoints.
type HafalanHandler struct {
	hafalan *service.HafalanService
}

// NewHafalanHandler constructs HafalanHandler.
func NewHafalanHandler(hafalan *service.HafalanService) *HafalanHandler {
	return &HafalanHandler{hafalan: hafalan}
}

// List godoc
// @Summary List hafalan submissions
// @Tags Hafalan
// @Produce json
// @Param santriId query string false "Filter by santri"
// @Param status query string false "Filter by status"
// @Param type query string false "Filter by type"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /hafalan [get]
func (h *HafalanHandler) List(c *gin.Context) {
	var filter models.HafalanFilter
	filter.SantriID = c.Query("santriId")
	if status := c.Query("status"); status != "" {
		s := models.HafalanStatus(status)
		filter.Status = &s
	}
	if hafalanType := c.Query("type"); hafalanType != "" {
		t := models.HafalanType(hafalanType)
		filter.Type = &t
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	hafalan, pagination, err := h.hafalan.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hafalan, pagination)
}

// Get godoc
// @Summary Get hafalan detail
// @Tags Hafalan
// @Produce json
// @Param id path string true "Hafalan ID"
// @Success 200 {object} response.Envelope
// @Router /hafalan/{id} [get]
func (h *HafalanHandler) Get(c *gin.Context) {
	hafalan, err := h.hafalan.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hafalan, nil)
}

// Submit godoc
// @Summary Record a hafalan submission
// @Tags Hafalan
// @Accept json
// @Produce json
// @Param payload body service.SubmitHafalanRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Router /hafalan [post]
func (h *HafalanHandler) Submit(c *gin.Context) {
	var req service.SubmitHafalanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	hafalan, err := h.hafalan.Submit(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, hafalan)
}

// Review godoc
// @Summary Review a pending submission
// @Tags Hafalan
// @Accept json
// @Produce json
// @Param id path string true "Hafalan ID"
// @Param payload body service.ReviewHafalanRequest true "Review decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /hafalan/{id}/review [post]
func (h *HafalanHandler) Review(c *gin.Context) {
	var req service.ReviewHafalanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	hafalan, err := h.hafalan.Review(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hafalan, nil)
}

// UploadAudio godoc
// @Summary Attach a recitation recording
// @Tags Hafalan
// @Accept mpfd
// @Produce json
// @Param id path string true "Hafalan ID"
// @Param audio formData file true "Audio file"
// @Success 200 {object} response.Envelope
// @Router /hafalan/{id}/audio [put]
func (h *HafalanHandler) UploadAudio(c *gin.Context) {
	file, err := c.FormFile("audio")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "audio file required"))
		return
	}
	src, err := file.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer src.Close()

	relPath, err := h.hafalan.AttachAudio(c.Request.Context(), claimsFromContext(c), c.Param("id"), src)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"audio_path": relPath}, nil)
}

// AudioURL godoc
// @Summary Get a signed audio download URL
// @Tags Hafalan
// @Produce json
// @Param id path string true "Hafalan ID"
// @Success 200 {object} response.Envelope
// @Router /hafalan/{id}/audio-url [get]
func (h *HafalanHandler) AudioURL(c *gin.Context) {
	token, err := h.hafalan.AudioURL(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"url": "/api/audio/" + token}, nil)
}

// Progress godoc
// @Summary Memorization progress for a santri
// @Tags Hafalan
// @Produce json
// @Param santriId path string true "Santri ID"
// @Success 200 {object} response.Envelope
// @Router /hafalan/progress/{santriId} [get]
func (h *HafalanHandler) Progress(c *gin.Context) {
	progress, err := h.hafalan.Progress(c.Request.Context(), claimsFromContext(c), c.Param("santriId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}
