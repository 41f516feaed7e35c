package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorcal/tutorcal-api/internal/service"
	appErrors "github.com/tutorcal/tutorcal-api/pkg/errors"
	"github.com/tutorcal/tutorcal-api/pkg/response"
)

// ExceptionHandler exposes per-class exception endpoints.
type ExceptionHandler struct {
	service *service.ExceptionService
}

// NewExceptionHandler constructs an exception handler.
func NewExceptionHandler(svc *service.ExceptionService) *ExceptionHandler {
	return &ExceptionHandler{service: svc}
}

// List godoc
// @Summary List exceptions for a class
// @Tags Exceptions
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/exceptions [get]
func (h *ExceptionHandler) List(c *gin.Context) {
	exceptions, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exceptions, nil)
}

// Create godoc
// @Summary Create exception
// @Tags Exceptions
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.ExceptionRequest true "Exception payload"
// @Success 201 {object} response.Envelope
// @Router /classes/{id}/exceptions [post]
func (h *ExceptionHandler) Create(c *gin.Context) {
	var req service.ExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	exc, err := h.service.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exc)
}

// Update godoc
// @Summary Update exception
// @Tags Exceptions
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param exceptionId path string true "Exception ID"
// @Param payload body service.ExceptionRequest true "Exception payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/exceptions/{exceptionId} [put]
func (h *ExceptionHandler) Update(c *gin.Context) {
	var req service.ExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	exc, err := h.service.Update(c.Request.Context(), c.Param("id"), c.Param("exceptionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exc, nil)
}

// Delete godoc
// @Summary Delete exception
// @Tags Exceptions
// @Produce json
// @Param id path string true "Class ID"
// @Param exceptionId path string true "Exception ID"
// @Success 204
// @Router /classes/{id}/exceptions/{exceptionId} [delete]
func (h *ExceptionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), c.Param("exceptionId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
