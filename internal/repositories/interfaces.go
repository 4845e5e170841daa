package repositories

import (
	"context"
	"time"

	"github.com/edustep/progress-service/internal/models"
)

// Repository is the aggregate storage access point. Implementations obtained
// inside WithTransaction share one transaction across all accessors.
type Repository interface {
	Answers() AnswerRepository
	Progress() ProgressRepository
	Catalog() CatalogRepository
	Unlocks() UnlockRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

// ===== ANSWER STORE =====

// AttemptFilters narrows attempt listings. Nil fields are ignored.
type AttemptFilters struct {
	UnitID    *uint                `json:"unit_id"`
	IsCorrect *bool                `json:"is_correct"`
	Mode      *models.PracticeMode `json:"mode"`
	DateFrom  *time.Time           `json:"date_from"`
	DateTo    *time.Time           `json:"date_to"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
}

// WrongExerciseFilters narrows the mistake-book listing.
type WrongExerciseFilters struct {
	SubjectID    *uint                `json:"subject_id"`
	UnitID       *uint                `json:"unit_id"`
	ExerciseKind *models.ExerciseKind `json:"exercise_kind"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
}

type AnswerRepository interface {
	// Create appends an attempt. Attempts are immutable once stored; there
	// is intentionally no update operation.
	Create(ctx context.Context, attempt *models.AnswerAttempt) error

	GetByID(ctx context.Context, id uint) (*models.AnswerAttempt, error)

	// ListByStudentAndExercises returns all attempts the student made on any
	// of the given exercises, regardless of which unit they were answered
	// under.
	ListByStudentAndExercises(ctx context.Context, studentID string, exerciseIDs []uint, filters AttemptFilters) ([]*models.AnswerAttempt, error)

	// ListWrongExercises returns, per exercise with at least one incorrect
	// attempt, the student's most recent incorrect attempt.
	ListWrongExercises(ctx context.Context, studentID string, filters WrongExerciseFilters) ([]*models.AnswerAttempt, error)

	// DeleteByStudentAndExercise removes every attempt for one
	// (student, exercise) pair. Mistake-list curation only.
	DeleteByStudentAndExercise(ctx context.Context, studentID string, exerciseID uint) (int64, error)
}

// ===== PROGRESS SNAPSHOT STORE =====

type ProgressRepository interface {
	GetByStudentAndUnit(ctx context.Context, studentID string, unitID uint) (*models.UnitProgress, error)
	GetByStudentAndUnits(ctx context.Context, studentID string, unitIDs []uint) ([]*models.UnitProgress, error)
	ListByStudent(ctx context.Context, studentID string) ([]*models.UnitProgress, error)

	// UpdateWithLock loads (creating if absent) the row for (student, unit)
	// under a row-level lock, applies fn, persists the result and returns
	// it. Two concurrent submissions for the same pair serialize here so no
	// increment is lost.
	UpdateWithLock(ctx context.Context, studentID string, unitID uint, fn func(*models.UnitProgress) error) (*models.UnitProgress, error)
}

// ===== EXERCISE CATALOG (read-only) =====

type CatalogRepository interface {
	GetUnit(ctx context.Context, unitID uint) (*models.Unit, error)
	GetExercise(ctx context.Context, exerciseID uint) (*models.Exercise, error)
	GetExercises(ctx context.Context, exerciseIDs []uint) ([]*models.Exercise, error)

	// GetUnitExerciseIDs returns the unit's current exercise membership in
	// catalog order.
	GetUnitExerciseIDs(ctx context.Context, unitID uint) ([]uint, error)

	// ListCourseUnits returns a course's units ordered by sequence.
	ListCourseUnits(ctx context.Context, courseID uint) ([]*models.Unit, error)

	// PreviousCourse returns the id of the course immediately preceding
	// courseID within the subject, or nil for the first course.
	PreviousCourse(ctx context.Context, subjectID uint, courseID uint) (*uint, error)

	// ListSubjectUnitsBelow returns units of a subject whose sequence number
	// is strictly less than the given sequence.
	ListSubjectUnitsBelow(ctx context.Context, subjectID uint, sequence int) ([]*models.Unit, error)
}

// ===== UNLOCK STORE =====

type UnlockRepository interface {
	IsUnlocked(ctx context.Context, studentID string, unitID uint) (bool, error)

	// BatchUnlock marks all units unlocked for the student in one
	// transaction; already-unlocked units are skipped, not duplicated. A
	// crash can never leave a partially applied batch visible.
	BatchUnlock(ctx context.Context, studentID string, unitIDs []uint, source string) error

	ListByStudent(ctx context.Context, studentID string) ([]*models.UnitUnlock, error)
}
