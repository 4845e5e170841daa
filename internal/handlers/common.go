package handlers

import (
	"errors"
	"net/http"

	"github.com/edustep/progress-service/internal/services"
	"github.com/edustep/progress-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== COMMON RESPONSE STRUCTURES =====

// Response is the uniform envelope for every endpoint. Success reports the
// business outcome; transport-level failures use the HTTP status code.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func successResponse(data interface{}) Response {
	return Response{Success: true, Data: data}
}

func errorResponse(message string) Response {
	return Response{Success: false, Message: message}
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and error mapping for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"remote_addr", c.ClientIP(),
		"request_id", c.GetHeader("X-Request-ID"),
	}
	fields = append(fields, additionalFields...)
	h.logger.Info(message, fields...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"request_id", c.GetHeader("X-Request-ID"),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	fields = append(fields, additionalFields...)
	h.logger.LogError(err, message, fields...)
}

// RespondBadRequest sends a 400 with the envelope
func (h *BaseHandler) RespondBadRequest(c *gin.Context, message string, err error) {
	if err != nil {
		h.LogError(c, err, message, "status_code", http.StatusBadRequest)
	}
	c.JSON(http.StatusBadRequest, errorResponse(message))
}

// handleServiceError maps service errors onto the HTTP error taxonomy:
// 400 validation, 404 missing resource, 409 conflict, 500 everything else.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Message: "Validation failed",
			Data:    validationErrors,
		})
		return
	}

	switch {
	case services.IsValidation(err):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case services.IsConflict(err):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	default:
		h.LogError(c, err, "Internal service error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal server error"))
	}
}
