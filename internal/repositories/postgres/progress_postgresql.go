package postgres

import (
	"context"
	"errors"

	"github.com/edustep/progress-service/internal/models"
	"github.com/edustep/progress-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressPostgreSQL struct {
	db *gorm.DB
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{db: db}
}

func (p *ProgressPostgreSQL) GetByStudentAndUnit(ctx context.Context, studentID string, unitID uint) (*models.UnitProgress, error) {
	var progress models.UnitProgress
	if err := p.db.WithContext(ctx).
		Where("student_id = ? AND unit_id = ?", studentID, unitID).
		First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

func (p *ProgressPostgreSQL) GetByStudentAndUnits(ctx context.Context, studentID string, unitIDs []uint) ([]*models.UnitProgress, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}
	var rows []*models.UnitProgress
	if err := p.db.WithContext(ctx).
		Where("student_id = ? AND unit_id IN ?", studentID, unitIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (p *ProgressPostgreSQL) ListByStudent(ctx context.Context, studentID string) ([]*models.UnitProgress, error) {
	var rows []*models.UnitProgress
	if err := p.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("unit_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateWithLock serializes concurrent writers on the (student, unit) row:
// the row is created on first touch, then re-read inside the transaction
// under FOR UPDATE before fn mutates it. Without the lock two concurrent
// submissions read the same counters and one increment is lost.
func (p *ProgressPostgreSQL) UpdateWithLock(ctx context.Context, studentID string, unitID uint, fn func(*models.UnitProgress) error) (*models.UnitProgress, error) {
	var updated *models.UnitProgress

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var progress models.UnitProgress
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("student_id = ? AND unit_id = ?", studentID, unitID).
			First(&progress).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			progress = models.UnitProgress{StudentID: studentID, UnitID: unitID}
			// Insert-or-ignore so two first-touch writers cannot both
			// create the row, then lock whichever row won.
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "student_id"}, {Name: "unit_id"}},
				DoNothing: true,
			}).Create(&progress).Error; err != nil {
				return err
			}
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("student_id = ? AND unit_id = ?", studentID, unitID).
				First(&progress).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if err := fn(&progress); err != nil {
			return err
		}

		if err := tx.Save(&progress).Error; err != nil {
			return err
		}
		updated = &progress
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
