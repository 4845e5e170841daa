package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edustep/progress-service/internal/events"
	"github.com/edustep/progress-service/internal/mastery"
	"github.com/edustep/progress-service/internal/models"
	"github.com/edustep/progress-service/internal/repositories"
)

const (
	UnlockSourceTest   = "unlock_test"
	UnlockSourceManual = "manual"
)

const (
	unlockReasonExplicit    = "explicit"
	unlockReasonChallenge   = "challenge"
	unlockReasonNoPrereq    = "no_prerequisite"
	unlockReasonPrereqClear = "prerequisite_cleared"
	unlockReasonLocked      = "locked"
)

type unlockService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewUnlockService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger) UnlockService {
	return &unlockService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// ===== UNLOCK STATUS =====

func (s *unlockService) GetUnlockStatus(ctx context.Context, studentID string, unitID uint) (*UnlockStatusResponse, error) {
	unit, err := s.repo.Catalog().GetUnit(ctx, unitID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUnitNotFound
		}
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}

	// Challenge units are always open.
	if unit.Kind == models.UnitChallenge {
		return &UnlockStatusResponse{UnitID: unitID, Unlocked: true, Reason: unlockReasonChallenge}, nil
	}

	explicit, err := s.repo.Unlocks().IsUnlocked(ctx, studentID, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to check unlock record: %w", err)
	}
	if explicit {
		return &UnlockStatusResponse{UnitID: unitID, Unlocked: true, Reason: unlockReasonExplicit}, nil
	}

	prereq, found, err := s.findPrerequisite(ctx, unit)
	if err != nil {
		return nil, err
	}
	if !found {
		return &UnlockStatusResponse{UnitID: unitID, Unlocked: true, Reason: unlockReasonNoPrereq}, nil
	}

	cleared, err := s.unitCleared(ctx, studentID, prereq.ID)
	if err != nil {
		return nil, err
	}

	resp := &UnlockStatusResponse{
		UnitID:             unitID,
		PrerequisiteUnitID: &prereq.ID,
	}
	if cleared {
		resp.Unlocked = true
		resp.Reason = unlockReasonPrereqClear
	} else {
		resp.Reason = unlockReasonLocked
	}
	return resp, nil
}

// findPrerequisite walks the unit's course for the nearest prior normal
// unit. The first normal unit of a course is gated on the last normal unit
// of the previous course in the same subject, when one exists.
func (s *unlockService) findPrerequisite(ctx context.Context, unit *models.Unit) (mastery.UnitMeta, bool, error) {
	courseUnits, err := s.repo.Catalog().ListCourseUnits(ctx, unit.CourseID)
	if err != nil {
		return mastery.UnitMeta{}, false, fmt.Errorf("failed to list course units: %w", err)
	}

	ordered := toUnitMeta(courseUnits)
	if prereq, found := mastery.Prerequisite(ordered, unit.ID); found {
		return prereq, true, nil
	}

	// Challenge units never gate; only a course's first normal unit reaches
	// the cross-course lookup.
	if unit.Kind == models.UnitChallenge {
		return mastery.UnitMeta{}, false, nil
	}

	prevCourse, err := s.repo.Catalog().PreviousCourse(ctx, unit.SubjectID, unit.CourseID)
	if err != nil {
		return mastery.UnitMeta{}, false, fmt.Errorf("failed to resolve previous course: %w", err)
	}
	if prevCourse == nil {
		return mastery.UnitMeta{}, false, nil
	}

	prevUnits, err := s.repo.Catalog().ListCourseUnits(ctx, *prevCourse)
	if err != nil {
		return mastery.UnitMeta{}, false, fmt.Errorf("failed to list previous course units: %w", err)
	}
	if last, found := mastery.LastNormal(toUnitMeta(prevUnits)); found {
		return last, true, nil
	}
	return mastery.UnitMeta{}, false, nil
}

// unitCleared resolves the prerequisite's aggregates and applies the gate.
func (s *unlockService) unitCleared(ctx context.Context, studentID string, unitID uint) (bool, error) {
	exerciseIDs, err := s.repo.Catalog().GetUnitExerciseIDs(ctx, unitID)
	if err != nil {
		return false, fmt.Errorf("failed to load unit exercises: %w", err)
	}

	snap, err := s.repo.Progress().GetByStudentAndUnit(ctx, studentID, unitID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return false, fmt.Errorf("failed to load progress snapshot: %w", err)
		}
		snap = nil
	}

	attempts, err := s.repo.Answers().ListByStudentAndExercises(ctx, studentID, exerciseIDs, repositories.AttemptFilters{})
	if err != nil {
		return false, fmt.Errorf("failed to load attempts: %w", err)
	}

	agg, _ := mastery.Resolve(snap, exerciseIDs, attempts)
	stars := mastery.Stars(agg.CompletionRate)
	score := mastery.Score(agg.CorrectCount, agg.AnswerCount)
	snapshotCompleted := false
	if snap != nil {
		if snap.Stars > stars {
			stars = snap.Stars
		}
		if snap.MasteryLevel > score {
			score = snap.MasteryLevel
		}
		snapshotCompleted = snap.Completed
	}

	return mastery.Cleared(agg, stars, score, snapshotCompleted), nil
}

// ===== BATCH UNLOCK =====

func (s *unlockService) BatchUnlockBefore(ctx context.Context, studentID string, testUnitID uint) ([]uint, error) {
	unit, err := s.repo.Catalog().GetUnit(ctx, testUnitID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUnitNotFound
		}
		return nil, fmt.Errorf("failed to get test unit: %w", err)
	}

	below, err := s.repo.Catalog().ListSubjectUnitsBelow(ctx, unit.SubjectID, unit.Sequence)
	if err != nil {
		return nil, fmt.Errorf("failed to list units below test: %w", err)
	}
	if len(below) == 0 {
		return nil, nil
	}

	unitIDs := make([]uint, 0, len(below))
	for _, u := range below {
		unitIDs = append(unitIDs, u.ID)
	}

	if err := s.repo.Unlocks().BatchUnlock(ctx, studentID, unitIDs, UnlockSourceTest); err != nil {
		return nil, fmt.Errorf("failed to write batch unlock: %w", err)
	}

	s.logger.Info("Batch unlocked units below unlock test",
		"student_id", studentID,
		"test_unit_id", testUnitID,
		"count", len(unitIDs))

	s.publishBatchUnlocked(ctx, studentID, unitIDs, &testUnitID, UnlockSourceTest)
	return unitIDs, nil
}

func (s *unlockService) ManualUnlock(ctx context.Context, studentID string, unitIDs []uint) error {
	if len(unitIDs) == 0 {
		return ErrInvalidBatchRequest
	}

	for _, unitID := range unitIDs {
		if _, err := s.repo.Catalog().GetUnit(ctx, unitID); err != nil {
			if repositories.IsNotFoundError(err) {
				return fmt.Errorf("%w: unit %d", ErrUnitNotFound, unitID)
			}
			return fmt.Errorf("failed to get unit %d: %w", unitID, err)
		}
	}

	if err := s.repo.Unlocks().BatchUnlock(ctx, studentID, unitIDs, UnlockSourceManual); err != nil {
		return fmt.Errorf("failed to write manual unlock: %w", err)
	}

	s.publishBatchUnlocked(ctx, studentID, unitIDs, nil, UnlockSourceManual)
	return nil
}

func (s *unlockService) ListUnlocked(ctx context.Context, studentID string) ([]*models.UnitUnlock, error) {
	return s.repo.Unlocks().ListByStudent(ctx, studentID)
}

// publishBatchUnlocked emits one unit.unlocked per unit for consumers that
// track single units, plus the batch envelope for consumers that want the
// grant as a whole.
func (s *unlockService) publishBatchUnlocked(ctx context.Context, studentID string, unitIDs []uint, testUnitID *uint, source string) {
	if s.publisher == nil {
		return
	}
	for _, unitID := range unitIDs {
		if err := s.publisher.PublishProgressEvent(ctx, events.NewUnitUnlockedEvent(studentID, unitID, source)); err != nil {
			s.logger.Warn("Failed to publish unlock event",
				"student_id", studentID,
				"unit_id", unitID,
				"error", err)
		}
	}
	event := events.NewUnitBatchUnlockedEvent(studentID, unitIDs, testUnitID, source)
	if err := s.publisher.PublishProgressEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish batch unlock event",
			"student_id", studentID,
			"error", err)
	}
}

func toUnitMeta(units []*models.Unit) []mastery.UnitMeta {
	metas := make([]mastery.UnitMeta, 0, len(units))
	for _, u := range units {
		metas = append(metas, mastery.UnitMeta{ID: u.ID, Kind: u.Kind, Sequence: u.Sequence})
	}
	return metas
}
