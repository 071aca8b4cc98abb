package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bktrung/academic-records-api/internal/service"
	appErrors "github.com/bktrung/academic-records-api/pkg/errors"
	"github.com/bktrung/academic-records-api/pkg/response"
)

// GradeHandler exposes grade endpoints keyed by enrollment.
type GradeHandler struct {
	service *service.GradeService
}

// NewGradeHandler constructs a grade handler.
func NewGradeHandler(svc *service.GradeService) *GradeHandler {
	return &GradeHandler{service: svc}
}

// Get godoc
// @Summary Get grade for an enrollment
// @Tags Grades
// @Produce json
// @Param enrollment_id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{enrollment_id}/grade [get]
func (h *GradeHandler) Get(c *gin.Context) {
	grade, err := h.service.GetByEnrollment(c.Request.Context(), c.Param("enrollment_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// Create godoc
// @Summary Record grade for an enrollment
// @Tags Grades
// @Accept json
// @Produce json
// @Param enrollment_id path string true "Enrollment ID"
// @Param payload body service.GradeScoresRequest true "Scores payload"
// @Success 201 {object} response.Envelope
// @Router /enrollments/{enrollment_id}/grade [post]
func (h *GradeHandler) Create(c *gin.Context) {
	var req service.GradeScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.service.Create(c.Request.Context(), c.Param("enrollment_id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}

// Update godoc
// @Summary Update grade scores for an enrollment
// @Tags Grades
// @Accept json
// @Produce json
// @Param enrollment_id path string true "Enrollment ID"
// @Param payload body service.GradeScoresRequest true "Scores payload"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{enrollment_id}/grade [put]
func (h *GradeHandler) Update(c *gin.Context) {
	var req service.GradeScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.service.UpdateScores(c.Request.Context(), c.Param("enrollment_id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}
