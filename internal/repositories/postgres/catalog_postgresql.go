package postgres

import (
	"context"

	"github.com/edustep/progress-service/internal/models"
	"github.com/edustep/progress-service/internal/repositories"
	"gorm.io/gorm"
)

// CatalogPostgreSQL reads the content-management tables. Strictly read-only
// from this service's side.
type CatalogPostgreSQL struct {
	db *gorm.DB
}

func NewCatalogPostgreSQL(db *gorm.DB) repositories.CatalogRepository {
	return &CatalogPostgreSQL{db: db}
}

func (c *CatalogPostgreSQL) GetUnit(ctx context.Context, unitID uint) (*models.Unit, error) {
	var unit models.Unit
	if err := c.db.WithContext(ctx).First(&unit, unitID).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (c *CatalogPostgreSQL) GetExercise(ctx context.Context, exerciseID uint) (*models.Exercise, error) {
	var exercise models.Exercise
	if err := c.db.WithContext(ctx).First(&exercise, exerciseID).Error; err != nil {
		return nil, err
	}
	return &exercise, nil
}

func (c *CatalogPostgreSQL) GetExercises(ctx context.Context, exerciseIDs []uint) ([]*models.Exercise, error) {
	if len(exerciseIDs) == 0 {
		return nil, nil
	}
	var exercises []*models.Exercise
	if err := c.db.WithContext(ctx).
		Where("id IN ?", exerciseIDs).
		Find(&exercises).Error; err != nil {
		return nil, err
	}
	return exercises, nil
}

func (c *CatalogPostgreSQL) GetUnitExerciseIDs(ctx context.Context, unitID uint) ([]uint, error) {
	var ids []uint
	if err := c.db.WithContext(ctx).
		Model(&models.Exercise{}).
		Where("owner_unit_id = ?", unitID).
		Order("position ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *CatalogPostgreSQL) ListCourseUnits(ctx context.Context, courseID uint) ([]*models.Unit, error) {
	var units []*models.Unit
	if err := c.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("sequence ASC").
		Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// PreviousCourse orders a subject's courses by their lowest unit sequence
// and returns the course immediately before courseID, nil for the first.
func (c *CatalogPostgreSQL) PreviousCourse(ctx context.Context, subjectID uint, courseID uint) (*uint, error) {
	var prev []uint
	err := c.db.WithContext(ctx).
		Model(&models.Unit{}).
		Where("subject_id = ? AND course_id <> ?", subjectID, courseID).
		Where("sequence < (?)",
			c.db.Model(&models.Unit{}).Select("MIN(sequence)").Where("course_id = ?", courseID)).
		Group("course_id").
		Order("MIN(sequence) DESC").
		Limit(1).
		Pluck("course_id", &prev).Error
	if err != nil {
		return nil, err
	}
	if len(prev) == 0 {
		return nil, nil
	}
	return &prev[0], nil
}

func (c *CatalogPostgreSQL) ListSubjectUnitsBelow(ctx context.Context, subjectID uint, sequence int) ([]*models.Unit, error) {
	var units []*models.Unit
	if err := c.db.WithContext(ctx).
		Where("subject_id = ? AND sequence < ?", subjectID, sequence).
		Order("sequence ASC").
		Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}
