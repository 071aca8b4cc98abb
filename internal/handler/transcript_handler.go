package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bktrung/academic-records-api/internal/service"
	appErrors "github.com/bktrung/academic-records-api/pkg/errors"
	"github.com/bktrung/academic-records-api/pkg/export"
	"github.com/bktrung/academic-records-api/pkg/response"
)

// TranscriptHandler exposes transcript endpoints in JSON and PDF form.
type TranscriptHandler struct {
	service  *service.TranscriptService
	exporter *export.PDFExporter
}

// NewTranscriptHandler constructs a transcript handler.
func NewTranscriptHandler(svc *service.TranscriptService, exporter *export.PDFExporter) *TranscriptHandler {
	return &TranscriptHandler{service: svc, exporter: exporter}
}

// Get godoc
// @Summary Get student transcript
// @Tags Transcripts
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/transcript [get]
func (h *TranscriptHandler) Get(c *gin.Context) {
	transcript, err := h.service.Build(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transcript, nil)
}

// Export godoc
// @Summary Download student transcript as PDF
// @Tags Transcripts
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Success 200 {file} binary
// @Router /students/{id}/transcript/pdf [get]
func (h *TranscriptHandler) Export(c *gin.Context) {
	transcript, err := h.service.Build(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.exporter.RenderTranscript(transcript)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript pdf"))
		return
	}
	filename := fmt.Sprintf("transcript-%s.pdf", transcript.StudentCode)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", payload)
}
