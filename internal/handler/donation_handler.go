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

// DonationHandler exposes donation endpoints. Create is public, the
// rest serve the admin dashboard.
type DonationHandler struct {
	donations *service.DonationService
}

// NewDonationHandler constructs DonationHandler.
func NewDonationHandler(donations *service.DonationService) *DonationHandler {
	return &DonationHandler{donations: donations}
}

func donationFilterFromQuery(c *gin.Context) models.DonationFilter {
	var filter models.DonationFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Type = c.Query("type")
	if raw := c.Query("status"); raw != "" {
		s := models.DonationStatus(raw)
		filter.Status = &s
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
	return filter
}

// List godoc
// @Summary List donations
// @Tags Donations
// @Produce json
// @Param search query string false "Search by donor or reference"
// @Param status query string false "Filter by status"
// @Param type query string false "Filter by type"
// @Param from query string false "Date from (YYYY-MM-DD)"
// @Param to query string false "Date to (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /donations [get]
func (h *DonationHandler) List(c *gin.Context) {
	donations, pagination, err := h.donations.List(c.Request.Context(), donationFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donations, pagination)
}

// Get godoc
// @Summary Get donation detail
// @Tags Donations
// @Produce json
// @Param id path string true "Donation ID"
// @Success 200 {object} response.Envelope
// @Router /donations/{id} [get]
func (h *DonationHandler) Get(c *gin.Context) {
	donation, err := h.donations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donation, nil)
}

// Create godoc
// @Summary Record a donation
// @Description Public endpoint used by the donation form. ONLINE
// @Description donations receive a snap token for the hosted payment page.
// @Tags Donations
// @Accept json
// @Produce json
// @Param payload body service.CreateDonationRequest true "Donation payload"
// @Success 201 {object} response.Envelope
// @Router /donations [post]
func (h *DonationHandler) Create(c *gin.Context) {
	var req service.CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	checkout, err := h.donations.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, checkout)
}

// Confirm godoc
// @Summary Confirm an offline donation
// @Tags Donations
// @Produce json
// @Param id path string true "Donation ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /donations/{id}/confirm [post]
func (h *DonationHandler) Confirm(c *gin.Context) {
	donation, err := h.donations.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donation, nil)
}

// Cancel godoc
// @Summary Cancel a pending donation
// @Tags Donations
// @Produce json
// @Param id path string true "Donation ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /donations/{id}/cancel [post]
func (h *DonationHandler) Cancel(c *gin.Context) {
	donation, err := h.donations.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donation, nil)
}

// Summary godoc
// @Summary Donation totals for the dashboard
// @Tags Donations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /donations/summary [get]
func (h *DonationHandler) Summary(c *gin.Context) {
	summary, err := h.donations.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Export donations as CSV or PDF
// @Tags Donations
// @Produce octet-stream
// @Param format query string true "csv or pdf"
// @Success 200
// @Router /donations/export [get]
func (h *DonationHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.donations.Export(c.Request.Context(), donationFilterFromQuery(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := "donations-" + time.Now().UTC().Format("20060102") + "." + format
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}

// Webhook godoc
// @Summary Payment gateway settlement callback
// @Tags Donations
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /donations/webhook [post]
func (h *DonationHandler) Webhook(c *gin.Context) {
	var payload struct {
		OrderID           string `json:"order_id"`
		StatusCode        string `json:"status_code"`
		GrossAmount       string `json:"gross_amount"`
		TransactionStatus string `json:"transaction_status"`
		SignatureKey      string `json:"signature_key"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || payload.OrderID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid webhook payload"))
		return
	}
	if !h.donations.VerifyWebhookSignature(payload.OrderID, payload.StatusCode, payload.GrossAmount, payload.SignatureKey) {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid webhook signature"))
		return
	}

	switch payload.TransactionStatus {
	case "settlement", "capture":
		donation, err := h.donations.SettleByReference(c.Request.Context(), payload.OrderID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, donation, nil)
	case "deny", "cancel", "expire":
		donation, err := h.donations.CancelByReference(c.Request.Context(), payload.OrderID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, donation, nil)
	default:
		// Pending states are acknowledged without changes; Midtrans
		// retries the terminal callback separately.
		response.JSON(c, http.StatusOK, gin.H{"status": "ignored"}, nil)
	}
}
