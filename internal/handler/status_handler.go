package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bktrung/academic-records-api/internal/service"
	appErrors "github.com/bktrung/academic-records-api/pkg/errors"
	"github.com/bktrung/academic-records-api/pkg/response"
)

// StatusHandler exposes student status and transition graph endpoints.
type StatusHandler struct {
	service *service.StatusService
}

// NewStatusHandler constructs a status handler.
func NewStatusHandler(svc *service.StatusService) *StatusHandler {
	return &StatusHandler{service: svc}
}

// List godoc
// @Summary List student statuses
// @Tags Statuses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /statuses [get]
func (h *StatusHandler) List(c *gin.Context) {
	statuses, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, statuses, nil)
}

// Create godoc
// @Summary Create student status
// @Tags Statuses
// @Accept json
// @Produce json
// @Param payload body service.CreateStatusRequest true "Status payload"
// @Success 201 {object} response.Envelope
// @Router /statuses [post]
func (h *StatusHandler) Create(c *gin.Context) {
	var req service.CreateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	status, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, status)
}

// Rename godoc
// @Summary Rename student status
// @Tags Statuses
// @Accept json
// @Produce json
// @Param id path string true "Status ID"
// @Param payload body service.CreateStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /statuses/{id} [put]
func (h *StatusHandler) Rename(c *gin.Context) {
	var req service.CreateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	status, err := h.service.Rename(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Delete godoc
// @Summary Delete student status
// @Tags Statuses
// @Produce json
// @Param id path string true "Status ID"
// @Success 204
// @Router /statuses/{id} [delete]
func (h *StatusHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListTransitions godoc
// @Summary List status transitions
// @Tags Statuses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /status-transitions [get]
func (h *StatusHandler) ListTransitions(c *gin.Context) {
	transitions, err := h.service.ListTransitions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transitions, nil)
}

// AddTransition godoc
// @Summary Add status transition
// @Tags Statuses
// @Accept json
// @Produce json
// @Param payload body service.TransitionRequest true "Transition payload"
// @Success 201 {object} response.Envelope
// @Router /status-transitions [post]
func (h *StatusHandler) AddTransition(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	transition, err := h.service.AddTransition(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, transition)
}

// RemoveTransition godoc
// @Summary Remove status transition
// @Tags Statuses
// @Accept json
// @Produce json
// @Param payload body service.TransitionRequest true "Transition payload"
// @Success 204
// @Router /status-transitions [delete]
func (h *StatusHandler) RemoveTransition(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.RemoveTransition(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
