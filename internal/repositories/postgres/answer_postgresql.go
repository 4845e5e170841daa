package postgres

import (
	"context"

	"github.com/edustep/progress-service/internal/models"
	"github.com/edustep/progress-service/internal/repositories"
	"gorm.io/gorm"
)

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (a *AnswerPostgreSQL) Create(ctx context.Context, attempt *models.AnswerAttempt) error {
	return a.db.WithContext(ctx).Create(attempt).Error
}

func (a *AnswerPostgreSQL) GetByID(ctx context.Context, id uint) (*models.AnswerAttempt, error) {
	var attempt models.AnswerAttempt
	if err := a.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AnswerPostgreSQL) ListByStudentAndExercises(ctx context.Context, studentID string, exerciseIDs []uint, filters repositories.AttemptFilters) ([]*models.AnswerAttempt, error) {
	if len(exerciseIDs) == 0 {
		return nil, nil
	}

	var attempts []*models.AnswerAttempt
	query := a.db.WithContext(ctx).
		Where("student_id = ? AND exercise_id IN ?", studentID, exerciseIDs)
	query = a.applyAttemptFilters(query, filters)

	if err := query.Order("submitted_at ASC").Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (a *AnswerPostgreSQL) ListWrongExercises(ctx context.Context, studentID string, filters repositories.WrongExerciseFilters) ([]*models.AnswerAttempt, error) {
	// Latest incorrect attempt per exercise, newest first.
	sub := a.db.WithContext(ctx).
		Model(&models.AnswerAttempt{}).
		Select("MAX(id)").
		Where("student_id = ? AND is_correct = false", studentID).
		Group("exercise_id")

	query := a.db.WithContext(ctx).
		Model(&models.AnswerAttempt{}).
		Where("id IN (?)", sub)

	if filters.UnitID != nil {
		query = query.Where("unit_id = ?", *filters.UnitID)
	}
	if filters.SubjectID != nil || filters.ExerciseKind != nil {
		kindQuery := a.db.WithContext(ctx).Model(&models.Exercise{}).Select("id")
		if filters.ExerciseKind != nil {
			kindQuery = kindQuery.Where("kind = ?", *filters.ExerciseKind)
		}
		if filters.SubjectID != nil {
			kindQuery = kindQuery.Where(
				"owner_unit_id IN (?)",
				a.db.WithContext(ctx).Model(&models.Unit{}).Select("id").Where("subject_id = ?", *filters.SubjectID),
			)
		}
		query = query.Where("exercise_id IN (?)", kindQuery)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var attempts []*models.AnswerAttempt
	if err := query.Order("submitted_at DESC").Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (a *AnswerPostgreSQL) DeleteByStudentAndExercise(ctx context.Context, studentID string, exerciseID uint) (int64, error) {
	result := a.db.WithContext(ctx).
		Where("student_id = ? AND exercise_id = ?", studentID, exerciseID).
		Delete(&models.AnswerAttempt{})
	return result.RowsAffected, result.Error
}

func (a *AnswerPostgreSQL) applyAttemptFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.UnitID != nil {
		query = query.Where("unit_id = ?", *filters.UnitID)
	}
	if filters.IsCorrect != nil {
		query = query.Where("is_correct = ?", *filters.IsCorrect)
	}
	if filters.Mode != nil {
		query = query.Where("mode = ?", *filters.Mode)
	}
	if filters.DateFrom != nil {
		query = query.Where("submitted_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("submitted_at <= ?", *filters.DateTo)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
