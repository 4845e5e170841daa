package handlers

import (
	"net/http"

	"github.com/edustep/progress-service/internal/services"
	"github.com/edustep/progress-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// AnswerHandler serves answer submission and study/practice activity pings.
type AnswerHandler struct {
	BaseHandler
	progressService services.ProgressService
}

func NewAnswerHandler(progressService services.ProgressService, logger utils.Logger) *AnswerHandler {
	return &AnswerHandler{
		BaseHandler:     NewBaseHandler(logger),
		progressService: progressService,
	}
}

// SubmitAnswer records one answer attempt and returns the mastery delta.
// POST /api/v1/answer-records/:student_id/submit
func (h *AnswerHandler) SubmitAnswer(c *gin.Context) {
	studentID := parseStudentIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	var req services.RecordAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondBadRequest(c, "Invalid request payload", err)
		return
	}

	h.LogRequest(c, "Submitting answer",
		"student_id", studentID,
		"exercise_id", req.ExerciseID,
		"unit_id", req.UnitID)

	result, err := h.progressService.RecordAnswer(c.Request.Context(), studentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

type activityBody struct {
	Action     string `json:"action,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
}

// IncrementStudy records a study session ping.
// POST /api/v1/answer-records/:student_id/increment-study/:unit_id
func (h *AnswerHandler) IncrementStudy(c *gin.Context) {
	h.recordActivity(c, services.ActivityStudy)
}

// IncrementPractice records a practice session ping.
// POST /api/v1/answer-records/:student_id/increment-practice/:unit_id
func (h *AnswerHandler) IncrementPractice(c *gin.Context) {
	h.recordActivity(c, services.ActivityPractice)
}

func (h *AnswerHandler) recordActivity(c *gin.Context, activityType string) {
	studentID := parseStudentIDParam(c, "student_id")
	if studentID == "" {
		return
	}
	unitID := parseUintParam(c, "unit_id")
	if unitID == 0 {
		return
	}

	// The body is optional: a bare ping counts as a session start.
	var body activityBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			h.RespondBadRequest(c, "Invalid request payload", err)
			return
		}
	}
	if body.Action == "" {
		body.Action = services.ActivityActionStart
	}

	progress, err := h.progressService.RecordActivity(c.Request.Context(), studentID, &services.RecordActivityRequest{
		UnitID:     unitID,
		Type:       activityType,
		Action:     body.Action,
		DurationMs: body.DurationMs,
		SessionID:  body.SessionID,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(progress))
}
