package postgres

import (
	"context"

	"github.com/edustep/progress-service/internal/repositories"
	"gorm.io/gorm"
)

// gormRepository bundles the per-store implementations over one *gorm.DB.
// Repositories handed to a WithTransaction callback share the tx handle.
type gormRepository struct {
	db       *gorm.DB
	answers  repositories.AnswerRepository
	progress repositories.ProgressRepository
	catalog  repositories.CatalogRepository
	unlocks  repositories.UnlockRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return newGormRepository(db)
}

func newGormRepository(db *gorm.DB) *gormRepository {
	return &gormRepository{
		db:       db,
		answers:  NewAnswerPostgreSQL(db),
		progress: NewProgressPostgreSQL(db),
		catalog:  NewCatalogPostgreSQL(db),
		unlocks:  NewUnlockPostgreSQL(db),
	}
}

func (r *gormRepository) Answers() repositories.AnswerRepository    { return r.answers }
func (r *gormRepository) Progress() repositories.ProgressRepository { return r.progress }
func (r *gormRepository) Catalog() repositories.CatalogRepository   { return r.catalog }
func (r *gormRepository) Unlocks() repositories.UnlockRepository    { return r.unlocks }

func (r *gormRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newGormRepository(tx))
	})
}

func (r *gormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *gormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
