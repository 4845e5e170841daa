package services

import (
	"log/slog"
	"time"

	"github.com/edustep/progress-service/internal/cache"
	"github.com/edustep/progress-service/internal/events"
	"github.com/edustep/progress-service/internal/repositories"
	"github.com/edustep/progress-service/internal/validator"
)

type serviceManager struct {
	progress ProgressService
	unlocks  UnlockService
	mistakes MistakeService
	reports  ReportService
}

// NewServiceManager wires the service graph. The unlock service is built
// first because answer recording triggers batch unlocks through it.
func NewServiceManager(
	repo repositories.Repository,
	cacheService cache.CacheService,
	cacheTTL time.Duration,
	publisher events.EventPublisher,
	logger *slog.Logger,
	v *validator.Validator,
) ServiceManager {
	unlocks := NewUnlockService(repo, publisher, logger)

	return &serviceManager{
		progress: NewProgressService(repo, unlocks, cacheService, cacheTTL, publisher, logger, v),
		unlocks:  unlocks,
		mistakes: NewMistakeService(repo, logger, v),
		reports:  NewReportService(repo, logger),
	}
}

func (m *serviceManager) Progress() ProgressService { return m.progress }
func (m *serviceManager) Unlocks() UnlockService    { return m.unlocks }
func (m *serviceManager) Mistakes() MistakeService  { return m.mistakes }
func (m *serviceManager) Reports() ReportService    { return m.reports }
