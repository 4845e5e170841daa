package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/edustep/progress-service/internal/repositories"
	"github.com/edustep/progress-service/internal/services"
	"github.com/edustep/progress-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	answerHandler   *AnswerHandler
	progressHandler *ProgressHandler
	mistakeHandler  *MistakeHandler
	unlockHandler   *UnlockHandler
	repo            repositories.Repository
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	repo repositories.Repository,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		answerHandler:   NewAnswerHandler(serviceManager.Progress(), logger),
		progressHandler: NewProgressHandler(serviceManager.Progress(), serviceManager.Reports(), logger),
		mistakeHandler:  NewMistakeHandler(serviceManager.Mistakes(), logger),
		unlockHandler:   NewUnlockHandler(serviceManager.Unlocks(), logger),
		repo:            repo,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, requestTimeout time.Duration) {
	router.GET("/health", hm.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(TimeoutMiddleware(requestTimeout))
	{
		records := v1.Group("/answer-records/:student_id")
		{
			records.POST("/submit", hm.answerHandler.SubmitAnswer)
			records.POST("/increment-study/:unit_id", hm.answerHandler.IncrementStudy)
			records.POST("/increment-practice/:unit_id", hm.answerHandler.IncrementPractice)

			records.GET("/progress/:unit_id", hm.progressHandler.GetUnitProgress)
			records.POST("/progress/batch", hm.progressHandler.GetBatchProgress)
			records.GET("/progress/export", hm.progressHandler.ExportProgress)

			records.GET("/wrong-exercises", hm.mistakeHandler.ListWrongExercises)
			records.DELETE("/wrong-exercises/:exercise_id", hm.mistakeHandler.RemoveWrongExercise)
		}

		units := v1.Group("/units")
		{
			units.POST("/batch-unlock", hm.unlockHandler.BatchUnlock)
			units.GET("/unlocked", hm.unlockHandler.ListUnlocked)
			units.GET("/:unit_id/unlock-status", hm.unlockHandler.GetUnlockStatus)
		}
	}
}

// HealthCheck reports service liveness and storage reachability.
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	if err := hm.repo.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "degraded",
			"service": "progress-service",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "progress-service",
	})
}

// TimeoutMiddleware bounds each request's context so a slow storage call
// cannot hold a connection open indefinitely.
func TimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
