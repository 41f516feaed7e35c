package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tutorcal/tutorcal-api/internal/service"
	appErrors "github.com/tutorcal/tutorcal-api/pkg/errors"
	"github.com/tutorcal/tutorcal-api/pkg/response"
)

// PaymentHandler exposes billing configuration and due date endpoints.
type PaymentHandler struct {
	service *service.PaymentService
}

// NewPaymentHandler constructs a payment handler.
func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: svc}
}

// GetConfig godoc
// @Summary Get payment config for a class
// @Tags Payments
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/payment-config [get]
func (h *PaymentHandler) GetConfig(c *gin.Context) {
	cfg, err := h.service.GetConfig(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// SetConfig godoc
// @Summary Create or replace payment config
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.PaymentConfigRequest true "Payment config payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/payment-config [put]
func (h *PaymentHandler) SetConfig(c *gin.Context) {
	var req service.PaymentConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cfg, err := h.service.SetConfig(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// DeleteConfig godoc
// @Summary Delete payment config
// @Tags Payments
// @Produce json
// @Param id path string true "Class ID"
// @Success 204
// @Router /classes/{id}/payment-config [delete]
func (h *PaymentHandler) DeleteConfig(c *gin.Context) {
	if err := h.service.DeleteConfig(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DueDates godoc
// @Summary List payment due dates for a class in one month
// @Tags Payments
// @Produce json
// @Param id path string true "Class ID"
// @Param year query int false "Year (defaults to current)"
// @Param month query int false "Month 1-12 (defaults to current)"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/payment-dues [get]
func (h *PaymentHandler) DueDates(c *gin.Context) {
	now := time.Now()
	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be an integer"))
		return
	}
	month, err := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month must be an integer"))
		return
	}

	dues, err := h.service.DueDates(c.Request.Context(), c.Param("id"), year, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dues, nil)
}
