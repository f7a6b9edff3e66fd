package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/service"
	appErrors "github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/errors"
	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/export"
	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/response"
)

// TranscriptHandler exposes transcript retrieval, search and export.
type TranscriptHandler struct {
	transcripts *service.TranscriptService
	identities  *service.IdentityService
	pdf         *export.TranscriptPDF
	csv         *export.TranscriptCSV
}

// NewTranscriptHandler constructs a transcript handler.
func NewTranscriptHandler(transcripts *service.TranscriptService, identities *service.IdentityService) *TranscriptHandler {
	return &TranscriptHandler{
		transcripts: transcripts,
		identities:  identities,
		pdf:         export.NewTranscriptPDF(),
		csv:         export.NewTranscriptCSV(),
	}
}

// Get godoc
// @Summary Get a student transcript
// @Description Resolves the reference across identity stores and composes the transcript from every grade source
// @Tags Transcripts
// @Produce json
// @Param studentId query string true "Student id or registration number"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /transcripts [get]
func (h *TranscriptHandler) Get(c *gin.Context) {
	reference := strings.TrimSpace(c.Query("studentId"))
	if reference == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId query parameter is required"))
		return
	}
	transcript, err := h.transcripts.GetTranscript(c.Request.Context(), reference)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transcript, nil)
}

type searchRequest struct {
	SearchTerm string `json:"searchTerm"`
}

// Search godoc
// @Summary Search students
// @Description Matches students by name, registration number or email across identity stores
// @Tags Transcripts
// @Accept json
// @Produce json
// @Param payload body searchRequest true "Search payload"
// @Success 200 {object} response.Envelope
// @Router /transcripts [post]
func (h *TranscriptHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	matches, err := h.identities.Search(c.Request.Context(), req.SearchTerm)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matches, nil)
}

// Export godoc
// @Summary Export a transcript
// @Tags Transcripts
// @Produce application/pdf
// @Param studentId query string true "Student id or registration number"
// @Param format query string false "Export format: pdf or csv" default(pdf)
// @Success 200 {file} binary
// @Router /transcripts/export [get]
func (h *TranscriptHandler) Export(c *gin.Context) {
	reference := strings.TrimSpace(c.Query("studentId"))
	if reference == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId query parameter is required"))
		return
	}
	transcript, err := h.transcripts.GetTranscript(c.Request.Context(), reference)
	if err != nil {
		response.Error(c, err)
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "pdf"))
	switch format {
	case "pdf":
		data, err := h.pdf.Render(transcript)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=transcript-%s.pdf", transcript.Student.Reference()))
		c.Data(http.StatusOK, "application/pdf", data)
	case "csv":
		data, err := h.csv.Render(transcript)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=transcript-%s.csv", transcript.Student.Reference()))
		c.Data(http.StatusOK, "text/csv", data)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be pdf or csv"))
	}
}
