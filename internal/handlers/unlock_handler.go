package handlers

import (
	"net/http"
	"strings"

	"github.com/edustep/progress-service/internal/services"
	"github.com/edustep/progress-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// UnlockHandler serves unlock status queries and the admin batch unlock.
type UnlockHandler struct {
	BaseHandler
	unlockService services.UnlockService
}

func NewUnlockHandler(unlockService services.UnlockService, logger utils.Logger) *UnlockHandler {
	return &UnlockHandler{
		BaseHandler:   NewBaseHandler(logger),
		unlockService: unlockService,
	}
}

// GetUnlockStatus reports whether a unit is open for a student and why.
// GET /api/v1/units/:unit_id/unlock-status?student_id=
func (h *UnlockHandler) GetUnlockStatus(c *gin.Context) {
	unitID := parseUintParam(c, "unit_id")
	if unitID == 0 {
		return
	}
	studentID := strings.TrimSpace(c.Query("student_id"))
	if studentID == "" {
		h.RespondBadRequest(c, "student_id query parameter is required", nil)
		return
	}

	status, err := h.unlockService.GetUnlockStatus(c.Request.Context(), studentID, unitID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(status))
}

type batchUnlockRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	UnitIDs   []uint `json:"unit_ids" binding:"required,min=1"`
}

// BatchUnlock explicitly unlocks a set of units for a student.
// POST /api/v1/units/batch-unlock
func (h *UnlockHandler) BatchUnlock(c *gin.Context) {
	var req batchUnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondBadRequest(c, "Invalid request payload", err)
		return
	}

	h.LogRequest(c, "Batch unlocking units",
		"student_id", req.StudentID,
		"count", len(req.UnitIDs))

	if err := h.unlockService.ManualUnlock(c.Request.Context(), req.StudentID, req.UnitIDs); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Message: "unlocked"})
}

// ListUnlocked returns a student's explicit unlock records.
// GET /api/v1/units/unlocked?student_id=
func (h *UnlockHandler) ListUnlocked(c *gin.Context) {
	studentID := strings.TrimSpace(c.Query("student_id"))
	if studentID == "" {
		h.RespondBadRequest(c, "student_id query parameter is required", nil)
		return
	}

	unlocks, err := h.unlockService.ListUnlocked(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(unlocks))
}
