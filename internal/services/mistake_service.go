package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edustep/progress-service/internal/models"
	"github.com/edustep/progress-service/internal/repositories"
	"github.com/edustep/progress-service/internal/validator"
)

const defaultMistakeLimit = 50

type mistakeService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewMistakeService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) MistakeService {
	return &mistakeService{
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

// ListMistakes returns the student's mistake book: per exercise with at least
// one wrong answer, the most recent wrong attempt joined with its catalog
// prompt.
func (s *mistakeService) ListMistakes(ctx context.Context, studentID string, req *MistakeListRequest) (*MistakeListResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, wrapValidation(err)
	}
	if req.Limit == 0 {
		req.Limit = defaultMistakeLimit
	}

	attempts, err := s.repo.Answers().ListWrongExercises(ctx, studentID, repositories.WrongExerciseFilters{
		SubjectID:    req.SubjectID,
		UnitID:       req.UnitID,
		ExerciseKind: req.ExerciseKind,
		Limit:        req.Limit,
		Offset:       req.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list wrong exercises: %w", err)
	}

	if len(attempts) == 0 {
		return &MistakeListResponse{Items: []MistakeItem{}}, nil
	}

	exerciseIDs := make([]uint, 0, len(attempts))
	for _, attempt := range attempts {
		exerciseIDs = append(exerciseIDs, attempt.ExerciseID)
	}
	exercises, err := s.repo.Catalog().GetExercises(ctx, exerciseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load exercises: %w", err)
	}
	byID := make(map[uint]*models.Exercise, len(exercises))
	for _, ex := range exercises {
		byID[ex.ID] = ex
	}

	items := make([]MistakeItem, 0, len(attempts))
	for _, attempt := range attempts {
		item := MistakeItem{
			ExerciseID:  attempt.ExerciseID,
			UnitID:      attempt.UnitID,
			WrongAnswer: attempt.UserAnswer,
			LastWrongAt: attempt.SubmittedAt,
		}
		// Exercises deleted from the catalog keep their attempt rows; list
		// them without prompt rather than dropping them.
		if ex, ok := byID[attempt.ExerciseID]; ok {
			item.Kind = ex.Kind
			item.Prompt = ex.Prompt
		}
		items = append(items, item)
	}

	return &MistakeListResponse{Items: items, Total: len(items)}, nil
}

// RemoveMistake deletes every attempt the student made on one exercise. This
// is the only delete path into the attempt store.
func (s *mistakeService) RemoveMistake(ctx context.Context, studentID string, exerciseID uint) error {
	deleted, err := s.repo.Answers().DeleteByStudentAndExercise(ctx, studentID, exerciseID)
	if err != nil {
		return fmt.Errorf("failed to remove mistake: %w", err)
	}
	if deleted == 0 {
		return ErrMistakeNotFound
	}

	s.logger.Info("Removed mistake entries",
		"student_id", studentID,
		"exercise_id", exerciseID,
		"deleted", deleted)
	return nil
}
