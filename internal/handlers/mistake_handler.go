package handlers

import (
	"net/http"

	"github.com/edustep/progress-service/internal/models"
	"github.com/edustep/progress-service/internal/services"
	"github.com/edustep/progress-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// MistakeHandler serves the student's wrong-exercise list.
type MistakeHandler struct {
	BaseHandler
	mistakeService services.MistakeService
}

func NewMistakeHandler(mistakeService services.MistakeService, logger utils.Logger) *MistakeHandler {
	return &MistakeHandler{
		BaseHandler:    NewBaseHandler(logger),
		mistakeService: mistakeService,
	}
}

// ListWrongExercises returns the mistake book, newest mistakes first.
// GET /api/v1/answer-records/:student_id/wrong-exercises
func (h *MistakeHandler) ListWrongExercises(c *gin.Context) {
	studentID := parseStudentIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	req := services.MistakeListRequest{
		SubjectID: parseUintQuery(c, "subject_id"),
		UnitID:    parseUintQuery(c, "unit_id"),
		Limit:     parseIntQuery(c, "limit", 0),
		Offset:    parseIntQuery(c, "offset", 0),
	}
	if kind := c.Query("kind"); kind != "" {
		k := models.ExerciseKind(kind)
		req.ExerciseKind = &k
	}

	result, err := h.mistakeService.ListMistakes(c.Request.Context(), studentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

// RemoveWrongExercise deletes all the student's attempts on one exercise.
// DELETE /api/v1/answer-records/:student_id/wrong-exercises/:exercise_id
func (h *MistakeHandler) RemoveWrongExercise(c *gin.Context) {
	studentID := parseStudentIDParam(c, "student_id")
	if studentID == "" {
		return
	}
	exerciseID := parseUintParam(c, "exercise_id")
	if exerciseID == 0 {
		return
	}

	h.LogRequest(c, "Removing wrong exercise",
		"student_id", studentID,
		"exercise_id", exerciseID)

	if err := h.mistakeService.RemoveMistake(c.Request.Context(), studentID, exerciseID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Message: "removed"})
}
