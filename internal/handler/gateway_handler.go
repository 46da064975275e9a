package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rumahtahfidz/pesantren-api/internal/models"
	"github.com/rumahtahfidz/pesantren-api/internal/service"
	appErrors "github.com/rumahtahfidz/pesantren-api/pkg/errors"
	"github.com/rumahtahfidz/pesantren-api/pkg/response"
)

// GatewayHandler exposes payment gateway configuration endpoints.
type GatewayHandler struct {
	gateways *service.GatewayService
}

// NewGatewayHandler constructs GatewayHandler.
func NewGatewayHandler(gateways *service.GatewayService) *GatewayHandler {
	return &GatewayHandler{gateways: gateways}
}

// List godoc
// @Summary List payment gateways
// @Description Serves placeholder rows with a message when the table
// @Description has not been migrated yet.
// @Tags PaymentGateways
// @Produce json
// @Param active query bool false "Filter by active state"
// @Param type query string false "Filter by type, ALL for none"
// @Success 200 {object} response.Envelope
// @Router /payment-gateways [get]
func (h *GatewayHandler) List(c *gin.Context) {
	var filter models.GatewayFilter
	if active := c.Query("active"); active != "" {
		if active == "true" {
			v := true
			filter.IsActive = &v
		} else if active == "false" {
			v := false
			filter.IsActive = &v
		}
	}
	// "ALL" is the client sentinel for no filter.
	if raw := c.Query("type"); raw != "" && raw != "ALL" {
		filter.Type = raw
	}

	result, err := h.gateways.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.IsDummy {
		response.Message(c, http.StatusOK, result.Message, result.Gateways)
		return
	}
	response.JSON(c, http.StatusOK, result.Gateways, nil)
}

// Get godoc
// @Summary Get gateway detail
// @Tags PaymentGateways
// @Produce json
// @Param id path string true "Gateway ID"
// @Success 200 {object} response.Envelope
// @Router /payment-gateways/{id} [get]
func (h *GatewayHandler) Get(c *gin.Context) {
	gateway, err := h.gateways.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gateway, nil)
}

// Create godoc
// @Summary Create gateway configuration
// @Tags PaymentGateways
// @Accept json
// @Produce json
// @Param payload body service.SaveGatewayRequest true "Gateway payload"
// @Success 201 {object} response.Envelope
// @Router /payment-gateways [post]
func (h *GatewayHandler) Create(c *gin.Context) {
	var req service.SaveGatewayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	gateway, err := h.gateways.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gateway)
}

// Update godoc
// @Summary Update gateway configuration
// @Tags PaymentGateways
// @Accept json
// @Produce json
// @Param id path string true "Gateway ID"
// @Param payload body service.SaveGatewayRequest true "Gateway payload"
// @Success 200 {object} response.Envelope
// @Router /payment-gateways/{id} [put]
func (h *GatewayHandler) Update(c *gin.Context) {
	var req service.SaveGatewayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	gateway, err := h.gateways.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gateway, nil)
}

// SetActive godoc
// @Summary Toggle a gateway
// @Tags PaymentGateways
// @Accept json
// @Produce json
// @Param id path string true "Gateway ID"
// @Success 204
// @Router /payment-gateways/{id}/active [patch]
func (h *GatewayHandler) SetActive(c *gin.Context) {
	var payload struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.gateways.SetActive(c.Request.Context(), c.Param("id"), payload.Active); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
