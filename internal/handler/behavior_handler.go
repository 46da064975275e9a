package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
	"github.com/rumahtahfidz/pesantren-api/internal/service"
	appErrors "github.com/rumahtahfidz/pesantren-api/pkg/errors"
	"github.com/rumahtahfidz/pesantren-api/pkg/response"
)

// BehaviorHandler exposes behaviour assessment endpoints.
type BehaviorHandler struct {
	behavior *service.BehaviorService
}

// NewBehaviorHandler constructs BehaviorHandler.
func NewBehaviorHandler(behavior *service.BehaviorService) *BehaviorHandler {
	return &BehaviorHandler{behavior: behavior}
}

// List godoc
// @Summary List behaviour notes
// @Tags Behavior
// @Produce json
// @Param santriId query string false "Filter by santri"
// @Param types query string false "Comma separated note types (+,-,0)"
// @Param from query string false "Date from (YYYY-MM-DD)"
// @Param to query string false "Date to (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /behavior [get]
func (h *BehaviorHandler) List(c *gin.Context) {
	var filter models.BehaviorNoteFilter
	filter.SantriID = c.Query("santriId")
	if raw := c.Query("types"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				filter.NoteTypes = append(filter.NoteTypes, models.BehaviorNoteType(trimmed))
			}
		}
	}
	if raw := c.Query("from"); raw != "" {
		if from, err := time.Parse("2006-01-02", raw); err == nil {
			filter.DateFrom = &from
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err := time.Parse("2006-01-02", raw); err == nil {
			filter.DateTo = &to
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	notes, pagination, err := h.behavior.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notes, pagination)
}

// Create godoc
// @Summary Record a behaviour note
// @Tags Behavior
// @Accept json
// @Produce json
// @Param payload body service.CreateBehaviorNoteRequest true "Note payload"
// @Success 201 {object} response.Envelope
// @Router /behavior [post]
func (h *BehaviorHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateBehaviorNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	note, err := h.behavior.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, note)
}

// Update godoc
// @Summary Edit a behaviour note
// @Tags Behavior
// @Accept json
// @Produce json
// @Param id path string true "Note ID"
// @Param payload body service.UpdateBehaviorNoteRequest true "Note payload"
// @Success 200 {object} response.Envelope
// @Router /behavior/{id} [put]
func (h *BehaviorHandler) Update(c *gin.Context) {
	var req service.UpdateBehaviorNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	note, err := h.behavior.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, note, nil)
}

// Delete godoc
// @Summary Delete a behaviour note
// @Tags Behavior
// @Produce json
// @Param id path string true "Note ID"
// @Success 204
// @Router /behavior/{id} [delete]
func (h *BehaviorHandler) Delete(c *gin.Context) {
	if err := h.behavior.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Summary godoc
// @Summary Behaviour point summary for a santri
// @Tags Behavior
// @Produce json
// @Param santriId path string true "Santri ID"
// @Success 200 {object} response.Envelope
// @Router /behavior/summary/{santriId} [get]
func (h *BehaviorHandler) Summary(c *gin.Context) {
	summary, err := h.behavior.Summary(c.Request.Context(), c.Param("santriId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
