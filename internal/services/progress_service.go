package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edustep/progress-service/internal/cache"
	"github.com/edustep/progress-service/internal/events"
	"github.com/edustep/progress-service/internal/mastery"
	"github.com/edustep/progress-service/internal/models"
	"github.com/edustep/progress-service/internal/repositories"
	"github.com/edustep/progress-service/internal/validator"
)

type progressService struct {
	repo      repositories.Repository
	unlocks   UnlockService
	cache     cache.CacheService
	cacheTTL  time.Duration
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewProgressService(
	repo repositories.Repository,
	unlocks UnlockService,
	cacheService cache.CacheService,
	cacheTTL time.Duration,
	publisher events.EventPublisher,
	logger *slog.Logger,
	v *validator.Validator,
) ProgressService {
	return &progressService{
		repo:      repo,
		unlocks:   unlocks,
		cache:     cacheService,
		cacheTTL:  cacheTTL,
		publisher: publisher,
		logger:    logger,
		validator: v,
	}
}

// ===== ANSWER RECORDING =====

func (s *progressService) RecordAnswer(ctx context.Context, studentID string, req *RecordAnswerRequest) (*RecordAnswerResponse, error) {
	s.logger.Info("Recording answer",
		"student_id", studentID,
		"exercise_id", req.ExerciseID,
		"unit_id", req.UnitID,
		"mode", req.Mode)

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, wrapValidation(err)
	}
	if req.Mode == "" {
		req.Mode = models.ModeNormal
	}

	exercise, err := s.repo.Catalog().GetExercise(ctx, req.ExerciseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExerciseNotFound
		}
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}

	if _, err := s.repo.Catalog().GetUnit(ctx, req.UnitID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUnitNotFound
		}
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	if exercise.OwnerUnitID != req.UnitID {
		return nil, fmt.Errorf("%w: exercise %d belongs to unit %d", ErrExerciseNotInUnit, exercise.ID, exercise.OwnerUnitID)
	}

	if err := s.validator.Answer().ValidateBody(exercise.Kind, req.UserAnswer); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswerBody, err)
	}

	isCorrect, err := s.resolveCorrectness(req, exercise)
	if err != nil {
		return nil, err
	}

	attempt := &models.AnswerAttempt{
		StudentID:      studentID,
		ExerciseID:     req.ExerciseID,
		UnitID:         req.UnitID,
		IsCorrect:      isCorrect,
		UserAnswer:     req.UserAnswer,
		ResponseTimeMs: req.ResponseTimeMs,
		SessionID:      req.SessionID,
		Mode:           req.Mode,
		DeviceInfo:     req.DeviceInfo,
		SubmittedAt:    time.Now(),
	}
	if err := s.repo.Answers().Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to store attempt: %w", err)
	}

	// Completion is measured against the unit's current membership, scanning
	// the full attempt history including the row just written.
	exerciseIDs, err := s.repo.Catalog().GetUnitExerciseIDs(ctx, req.UnitID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unit exercises: %w", err)
	}
	attempts, err := s.repo.Answers().ListByStudentAndExercises(ctx, studentID, exerciseIDs, repositories.AttemptFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}

	completedExercises := mastery.CompletedFromAttempts(exerciseIDs, attempts)
	completionRate := 0.0
	if len(exerciseIDs) > 0 {
		completionRate = float64(completedExercises) / float64(len(exerciseIDs))
	}
	earnedStars := mastery.Stars(completionRate)

	var (
		prevStars     int
		prevCompleted bool
	)
	now := time.Now()
	snap, err := s.repo.Progress().UpdateWithLock(ctx, studentID, req.UnitID, func(p *models.UnitProgress) error {
		prevStars = p.Stars
		prevCompleted = p.Completed

		p.AnswerCount++
		if isCorrect {
			p.CorrectCount++
		} else {
			p.IncorrectCount++
		}
		p.TotalTimeMs += int64(req.ResponseTimeMs)
		if p.AnswerCount > 0 {
			p.AvgResponseTimeMs += (float64(req.ResponseTimeMs) - p.AvgResponseTimeMs) / float64(p.AnswerCount)
		}
		p.PracticeCount++
		p.LastPracticeAt = &now
		p.TotalExercises = len(exerciseIDs)

		// Stars and completion never go back down.
		if earnedStars > p.Stars {
			p.Stars = earnedStars
		}
		if p.Stars == 3 {
			p.Completed = true
		}
		p.MasteryLevel = mastery.Score(p.CorrectCount, p.AnswerCount)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	s.invalidateView(ctx, studentID, req.UnitID)
	s.publishAnswerEvents(ctx, attempt, snap, prevStars, prevCompleted)

	resp := &RecordAnswerResponse{
		AttemptID:          attempt.ID,
		IsCorrect:          isCorrect,
		Stars:              snap.Stars,
		Completed:          snap.Completed,
		MasteryLevel:       snap.MasteryLevel,
		CompletionRate:     completionRate,
		CompletedExercises: completedExercises,
		TotalExercises:     len(exerciseIDs),
	}

	if req.Mode == models.ModeUnlockTest && mastery.UnlockTestPassed(snap.Stars) {
		unlocked, err := s.unlocks.BatchUnlockBefore(ctx, studentID, req.UnitID)
		if err != nil {
			// The attempt and snapshot are already durable; report but do not
			// fail the submission.
			s.logger.Error("Batch unlock after unlock test failed",
				"student_id", studentID,
				"unit_id", req.UnitID,
				"error", err)
		} else {
			resp.UnlockedUnits = unlocked
		}
	}

	return resp, nil
}

// resolveCorrectness grades the submission. An explicit client verdict wins;
// otherwise the answer is compared against the catalog spec.
func (s *progressService) resolveCorrectness(req *RecordAnswerRequest, exercise *models.Exercise) (bool, error) {
	if req.IsCorrect != nil {
		return *req.IsCorrect, nil
	}

	got, err := models.ParseAnswerPayload(exercise.Kind, req.UserAnswer)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidAnswerBody, err)
	}
	want, err := models.ParseAnswerPayload(exercise.Kind, exercise.CorrectAnswer)
	if err != nil {
		return false, fmt.Errorf("%w: exercise %d has no gradable answer spec", ErrNotGradable, exercise.ID)
	}
	return got.Matches(want), nil
}

func (s *progressService) publishAnswerEvents(ctx context.Context, attempt *models.AnswerAttempt, snap *models.UnitProgress, prevStars int, prevCompleted bool) {
	if s.publisher == nil {
		return
	}

	publish := func(event *events.ProgressEvent) {
		if err := s.publisher.PublishProgressEvent(ctx, event); err != nil {
			s.logger.Warn("Failed to publish progress event",
				"event_type", event.Type,
				"error", err)
		}
	}

	publish(events.NewAnswerRecordedEvent(
		attempt.ID, attempt.StudentID, attempt.ExerciseID, attempt.UnitID,
		attempt.IsCorrect, snap.Stars, snap.MasteryLevel, attempt.SessionID))

	if snap.Stars > prevStars {
		publish(events.NewUnitStarsUpgradedEvent(attempt.StudentID, attempt.UnitID, prevStars, snap.Stars))
	}
	if snap.Completed && !prevCompleted {
		publish(events.NewUnitCompletedEvent(attempt.StudentID, attempt.UnitID, snap.Stars))
	}
}

// ===== PROGRESS VIEWS =====

func (s *progressService) GetUnitProgress(ctx context.Context, studentID string, unitID uint) (*UnitProgressResponse, error) {
	if s.cache != nil {
		var cached UnitProgressResponse
		if err := s.cache.Get(ctx, cache.ProgressKey(studentID, unitID), &cached); err == nil {
			return &cached, nil
		}
	}

	resp, err := s.resolveUnitProgress(ctx, studentID, unitID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.ProgressKey(studentID, unitID), resp, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache progress view",
				"student_id", studentID,
				"unit_id", unitID,
				"error", err)
		}
	}
	return resp, nil
}

// resolveUnitProgress runs the dual-path resolution. A student with no
// history, or a unit with no exercises, yields a zeroed recomputed view; an
// unknown unit is a not-found error, never a zeroed view.
func (s *progressService) resolveUnitProgress(ctx context.Context, studentID string, unitID uint) (*UnitProgressResponse, error) {
	if _, err := s.repo.Catalog().GetUnit(ctx, unitID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUnitNotFound
		}
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}

	exerciseIDs, err := s.repo.Catalog().GetUnitExerciseIDs(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unit exercises: %w", err)
	}

	snap, err := s.repo.Progress().GetByStudentAndUnit(ctx, studentID, unitID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to load progress snapshot: %w", err)
		}
		snap = nil
	}

	attempts, err := s.repo.Answers().ListByStudentAndExercises(ctx, studentID, exerciseIDs, repositories.AttemptFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}

	agg, source := mastery.Resolve(snap, exerciseIDs, attempts)

	resp := &UnitProgressResponse{
		StudentID:          studentID,
		UnitID:             unitID,
		Source:             source,
		TotalExercises:     agg.TotalExercises,
		CompletedExercises: agg.CompletedExercises,
		CompletionRate:     agg.CompletionRate,
		AnswerCount:        agg.AnswerCount,
		CorrectCount:       agg.CorrectCount,
		IncorrectCount:     agg.IncorrectCount,
		TotalTimeMs:        agg.TotalTimeMs,
		AvgResponseTimeMs:  agg.AvgResponseTimeMs,
	}

	resp.Stars = mastery.Stars(agg.CompletionRate)
	resp.MasteryLevel = mastery.Score(agg.CorrectCount, agg.AnswerCount)
	if snap != nil {
		// Earned ratings are monotonic: the live computation can only raise
		// them, never take them back.
		if snap.Stars > resp.Stars {
			resp.Stars = snap.Stars
		}
		if snap.MasteryLevel > resp.MasteryLevel {
			resp.MasteryLevel = snap.MasteryLevel
		}
		resp.Completed = snap.Completed
		resp.StudyCount = snap.StudyCount
		resp.PracticeCount = snap.PracticeCount
		resp.LastStudyAt = snap.LastStudyAt
		resp.LastPracticeAt = snap.LastPracticeAt
	}
	if resp.Stars == 3 {
		resp.Completed = true
	}

	return resp, nil
}

func (s *progressService) GetBatchProgress(ctx context.Context, studentID string, req *BatchProgressRequest) (*BatchProgressResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBatchRequest, err)
	}

	resp := &BatchProgressResponse{
		Results: make(map[uint]*UnitProgressResponse, len(req.UnitIDs)),
	}

	for _, unitID := range req.UnitIDs {
		if _, done := resp.Results[unitID]; done {
			continue
		}

		view, err := s.GetUnitProgress(ctx, studentID, unitID)
		if err != nil {
			// One bad unit gets an isolated error entry; the rest of the
			// batch still resolves.
			s.logger.Warn("Batch progress entry failed",
				"student_id", studentID,
				"unit_id", unitID,
				"error", err)
			if resp.Errors == nil {
				resp.Errors = make(map[uint]string)
			}
			resp.Errors[unitID] = err.Error()
			continue
		}
		resp.Results[unitID] = view
	}

	return resp, nil
}

// ===== ACTIVITY TRACKING =====

func (s *progressService) RecordActivity(ctx context.Context, studentID string, req *RecordActivityRequest) (*UnitProgressResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, wrapValidation(err)
	}

	if _, err := s.repo.Catalog().GetUnit(ctx, req.UnitID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUnitNotFound
		}
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}

	now := time.Now()
	_, err := s.repo.Progress().UpdateWithLock(ctx, studentID, req.UnitID, func(p *models.UnitProgress) error {
		switch req.Action {
		case ActivityActionStart:
			if req.Type == ActivityStudy {
				p.StudyCount++
				p.LastStudyAt = &now
			} else {
				p.PracticeCount++
				p.LastPracticeAt = &now
			}
		case ActivityActionEnd:
			p.TotalTimeMs += req.DurationMs
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}

	s.invalidateView(ctx, studentID, req.UnitID)
	return s.GetUnitProgress(ctx, studentID, req.UnitID)
}

func (s *progressService) invalidateView(ctx context.Context, studentID string, unitID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.ProgressKey(studentID, unitID)); err != nil {
		s.logger.Warn("Failed to invalidate progress view",
			"student_id", studentID,
			"unit_id", unitID,
			"error", err)
	}
}
