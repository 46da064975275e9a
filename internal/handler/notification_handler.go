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

// NotificationHandler exposes notification endpoints.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List godoc
// @Summary List notifications for the caller
// @Tags Notifications
// @Produce json
// @Param search query string false "Search title or message"
// @Param type query string false "Filter by type"
// @Param status query string false "Filter by read state"
// @Param priority query string false "Filter by priority"
// @Param channel query string false "Filter by delivery channel"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	var filter models.NotificationFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if raw := c.Query("type"); raw != "" {
		t := models.NotificationType(raw)
		filter.Type = &t
	}
	if raw := c.Query("status"); raw != "" {
		s := models.NotificationStatus(raw)
		filter.Status = &s
	}
	if raw := c.Query("priority"); raw != "" {
		p := models.NotificationPriority(raw)
		filter.Priority = &p
	}
	if raw := c.Query("channel"); raw != "" {
		ch := models.NotificationChannel(raw)
		filter.Channel = &ch
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filter.Offset = offset
	}

	notifications, total, err := h.notifications.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, nil, map[string]interface{}{"total": total})
}

// Create godoc
// @Summary Compose a notification
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body service.CreateNotificationRequest true "Notification payload"
// @Success 201 {object} response.Envelope
// @Router /notifications [post]
func (h *NotificationHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	notification, err := h.notifications.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notification)
}

// CreateFromTemplate godoc
// @Summary Compose a notification from a template
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body service.CreateFromTemplateRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Router /notifications/from-template [post]
func (h *NotificationHandler) CreateFromTemplate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateFromTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	notification, err := h.notifications.CreateFromTemplate(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notification)
}

// Stats godoc
// @Summary Notification counters for the caller
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/stats [get]
func (h *NotificationHandler) Stats(c *gin.Context) {
	stats, err := h.notifications.Stats(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// MarkAsRead godoc
// @Summary Mark one notification as read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	if err := h.notifications.MarkAsRead(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkAllAsRead godoc
// @Summary Mark every unread notification as read
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	updated, err := h.notifications.MarkAllAsRead(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": updated}, nil)
}

// Delete godoc
// @Summary Delete a notification
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) Delete(c *gin.Context) {
	if err := h.notifications.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Templates godoc
// @Summary List notification templates
// @Tags Notifications
// @Produce json
// @Param search query string false "Search by name or title"
// @Param category query string false "Filter predefined templates by category"
// @Success 200 {object} response.Envelope
// @Router /notifications/templates [get]
func (h *NotificationHandler) Templates(c *gin.Context) {
	predefined, stored, err := h.notifications.Templates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	search := strings.ToLower(strings.TrimSpace(c.Query("search")))
	category := strings.TrimSpace(c.Query("category"))
	if search != "" || (category != "" && category != "ALL") {
		filteredPredefined := make([]models.PredefinedTemplate, 0, len(predefined))
		for _, tpl := range predefined {
			if category != "" && category != "ALL" && tpl.Category != category {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(tpl.Name), search) &&
				!strings.Contains(strings.ToLower(tpl.Title), search) {
				continue
			}
			filteredPredefined = append(filteredPredefined, tpl)
		}
		predefined = filteredPredefined

		filteredStored := make([]models.NotificationTemplate, 0, len(stored))
		for _, tpl := range stored {
			if search != "" && !strings.Contains(strings.ToLower(tpl.Name), search) &&
				!strings.Contains(strings.ToLower(tpl.Title), search) {
				continue
			}
			filteredStored = append(filteredStored, tpl)
		}
		stored = filteredStored
	}

	response.JSON(c, http.StatusOK, gin.H{"predefined": predefined, "custom": stored}, nil)
}

// CreateTemplate godoc
// @Summary Store a reusable template
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body service.CreateTemplateRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Router /notifications/templates [post]
func (h *NotificationHandler) CreateTemplate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	template, err := h.notifications.CreateTemplate(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, template)
}
