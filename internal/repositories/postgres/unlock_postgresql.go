package postgres

import (
	"context"
	"time"

	"github.com/edustep/progress-service/internal/models"
	"github.com/edustep/progress-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UnlockPostgreSQL struct {
	db *gorm.DB
}

func NewUnlockPostgreSQL(db *gorm.DB) repositories.UnlockRepository {
	return &UnlockPostgreSQL{db: db}
}

func (u *UnlockPostgreSQL) IsUnlocked(ctx context.Context, studentID string, unitID uint) (bool, error) {
	var count int64
	if err := u.db.WithContext(ctx).
		Model(&models.UnitUnlock{}).
		Where("student_id = ? AND unit_id = ?", studentID, unitID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// BatchUnlock writes all rows inside one transaction so a crash cannot
// leave a course half unlocked. Re-running the same batch is a no-op for
// rows that already exist.
func (u *UnlockPostgreSQL) BatchUnlock(ctx context.Context, studentID string, unitIDs []uint, source string) error {
	if len(unitIDs) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]models.UnitUnlock, 0, len(unitIDs))
	for _, unitID := range unitIDs {
		rows = append(rows, models.UnitUnlock{
			StudentID:  studentID,
			UnitID:     unitID,
			Source:     source,
			UnlockedAt: now,
		})
	}

	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "unit_id"}},
			DoNothing: true,
		}).Create(&rows).Error
	})
}

func (u *UnlockPostgreSQL) ListByStudent(ctx context.Context, studentID string) ([]*models.UnitUnlock, error) {
	var rows []*models.UnitUnlock
	if err := u.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("unlocked_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
