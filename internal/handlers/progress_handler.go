package handlers

import (
	"fmt"
	"net/http"

	"github.com/edustep/progress-service/internal/services"
	"github.com/edustep/progress-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ProgressHandler serves progress views and report exports.
type ProgressHandler struct {
	BaseHandler
	progressService services.ProgressService
	reportService   services.ReportService
}

func NewProgressHandler(progressService services.ProgressService, reportService services.ReportService, logger utils.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:     NewBaseHandler(logger),
		progressService: progressService,
		reportService:   reportService,
	}
}

// GetUnitProgress returns the resolved progress view for one unit.
// GET /api/v1/answer-records/:student_id/progress/:unit_id
func (h *ProgressHandler) GetUnitProgress(c *gin.Context) {
	studentID := parseStudentIDParam(c, "student_id")
	if studentID == "" {
		return
	}
	unitID := parseUintParam(c, "unit_id")
	if unitID == 0 {
		return
	}

	progress, err := h.progressService.GetUnitProgress(c.Request.Context(), studentID, unitID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(progress))
}

// GetBatchProgress resolves progress for up to 50 units in one call.
// POST /api/v1/answer-records/:student_id/progress/batch
func (h *ProgressHandler) GetBatchProgress(c *gin.Context) {
	studentID := parseStudentIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	var req services.BatchProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondBadRequest(c, "Invalid request payload", err)
		return
	}

	result, err := h.progressService.GetBatchProgress(c.Request.Context(), studentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

// ExportProgress streams the student's progress report as a file download.
// GET /api/v1/answer-records/:student_id/progress/export?format=xlsx|csv
func (h *ProgressHandler) ExportProgress(c *gin.Context) {
	studentID := parseStudentIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	format := c.DefaultQuery("format", "xlsx")
	h.LogRequest(c, "Exporting progress report", "student_id", studentID, "format", format)

	var (
		data        []byte
		contentType string
		err         error
	)
	switch format {
	case "xlsx":
		data, err = h.reportService.ExportProgressExcel(c.Request.Context(), studentID)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "csv":
		data, err = h.reportService.ExportProgressCSV(c.Request.Context(), studentID)
		contentType = "text/csv"
	default:
		h.RespondBadRequest(c, "Unsupported format: "+format, nil)
		return
	}
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("progress-%s.%s", studentID, format)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
