package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/edustep/progress-service/internal/cache"
	"github.com/edustep/progress-service/internal/events"
	"github.com/edustep/progress-service/internal/models"
	"github.com/edustep/progress-service/internal/repositories"
	"github.com/edustep/progress-service/internal/validator"
	"gorm.io/gorm"
)

// fakeRepository is a stateful in-memory Repository so service tests can
// exercise full read-modify-write flows without a database.
type fakeRepository struct {
	mu sync.Mutex

	units     map[uint]*models.Unit
	exercises map[uint]*models.Exercise
	attempts  []*models.AnswerAttempt
	progress  map[string]*models.UnitProgress // key studentID:unitID
	unlocks   map[string]*models.UnitUnlock

	nextAttemptID uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		units:         make(map[uint]*models.Unit),
		exercises:     make(map[uint]*models.Exercise),
		progress:      make(map[string]*models.UnitProgress),
		unlocks:       make(map[string]*models.UnitUnlock),
		nextAttemptID: 1,
	}
}

func progressKey(studentID string, unitID uint) string {
	return fmt.Sprintf("%s:%d", studentID, unitID)
}

func (f *fakeRepository) addUnit(id, courseID, subjectID uint, kind models.UnitKind, sequence int) {
	f.units[id] = &models.Unit{
		ID: id, CourseID: courseID, SubjectID: subjectID,
		Name: "Unit", Kind: kind, Sequence: sequence,
	}
}

func (f *fakeRepository) addExercise(id, ownerUnitID uint, kind models.ExerciseKind, correct string) {
	f.exercises[id] = &models.Exercise{
		ID: id, OwnerUnitID: ownerUnitID, Kind: kind,
		Prompt:        "prompt",
		CorrectAnswer: []byte(correct),
		Position:      int(id),
	}
}

// ===== Repository =====

// The two ListByStudent methods return different types, so the progress and
// unlock views get thin wrapper types over the shared state.
type fakeProgressRepo struct{ *fakeRepository }
type fakeUnlockRepo struct{ *fakeRepository }

func (f *fakeRepository) Answers() repositories.AnswerRepository    { return f }
func (f *fakeRepository) Progress() repositories.ProgressRepository { return fakeProgressRepo{f} }
func (f *fakeRepository) Catalog() repositories.CatalogRepository   { return f }
func (f *fakeRepository) Unlocks() repositories.UnlockRepository    { return fakeUnlockRepo{f} }
func (f *fakeRepository) Ping(ctx context.Context) error            { return nil }
func (f *fakeRepository) Close() error                              { return nil }

func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}

// ===== AnswerRepository =====

func (f *fakeRepository) Create(ctx context.Context, attempt *models.AnswerAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempt.ID = f.nextAttemptID
	f.nextAttemptID++
	f.attempts = append(f.attempts, attempt)
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id uint) (*models.AnswerAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListByStudentAndExercises(ctx context.Context, studentID string, exerciseIDs []uint, filters repositories.AttemptFilters) ([]*models.AnswerAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[uint]bool, len(exerciseIDs))
	for _, id := range exerciseIDs {
		wanted[id] = true
	}
	var out []*models.AnswerAttempt
	for _, a := range f.attempts {
		if a.StudentID == studentID && wanted[a.ExerciseID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListWrongExercises(ctx context.Context, studentID string, filters repositories.WrongExerciseFilters) ([]*models.AnswerAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	latest := make(map[uint]*models.AnswerAttempt)
	for _, a := range f.attempts {
		if a.StudentID != studentID || a.IsCorrect {
			continue
		}
		if filters.UnitID != nil && a.UnitID != *filters.UnitID {
			continue
		}
		if prev, ok := latest[a.ExerciseID]; !ok || a.SubmittedAt.After(prev.SubmittedAt) {
			latest[a.ExerciseID] = a
		}
	}
	out := make([]*models.AnswerAttempt, 0, len(latest))
	for _, a := range latest {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (f *fakeRepository) DeleteByStudentAndExercise(ctx context.Context, studentID string, exerciseID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []*models.AnswerAttempt
	var deleted int64
	for _, a := range f.attempts {
		if a.StudentID == studentID && a.ExerciseID == exerciseID {
			deleted++
			continue
		}
		kept = append(kept, a)
	}
	f.attempts = kept
	return deleted, nil
}

// ===== ProgressRepository =====

func (f *fakeRepository) GetByStudentAndUnit(ctx context.Context, studentID string, unitID uint) (*models.UnitProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.progress[progressKey(studentID, unitID)]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetByStudentAndUnits(ctx context.Context, studentID string, unitIDs []uint) ([]*models.UnitProgress, error) {
	var out []*models.UnitProgress
	for _, id := range unitIDs {
		if p, err := f.GetByStudentAndUnit(ctx, studentID, id); err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f fakeProgressRepo) ListByStudent(ctx context.Context, studentID string) ([]*models.UnitProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.UnitProgress
	for _, p := range f.progress {
		if p.StudentID == studentID {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitID < out[j].UnitID })
	return out, nil
}

func (f *fakeRepository) UpdateWithLock(ctx context.Context, studentID string, unitID uint, fn func(*models.UnitProgress) error) (*models.UnitProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := progressKey(studentID, unitID)
	p, ok := f.progress[key]
	if !ok {
		p = &models.UnitProgress{StudentID: studentID, UnitID: unitID, CreatedAt: time.Now()}
		f.progress[key] = p
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now()
	clone := *p
	return &clone, nil
}

// ===== CatalogRepository =====

func (f *fakeRepository) GetUnit(ctx context.Context, unitID uint) (*models.Unit, error) {
	if u, ok := f.units[unitID]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetExercise(ctx context.Context, exerciseID uint) (*models.Exercise, error) {
	if e, ok := f.exercises[exerciseID]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) GetExercises(ctx context.Context, exerciseIDs []uint) ([]*models.Exercise, error) {
	var out []*models.Exercise
	for _, id := range exerciseIDs {
		if e, ok := f.exercises[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepository) GetUnitExerciseIDs(ctx context.Context, unitID uint) ([]uint, error) {
	var ids []uint
	for _, e := range f.exercises {
		if e.OwnerUnitID == unitID {
			ids = append(ids, e.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeRepository) ListCourseUnits(ctx context.Context, courseID uint) ([]*models.Unit, error) {
	var out []*models.Unit
	for _, u := range f.units {
		if u.CourseID == courseID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (f *fakeRepository) PreviousCourse(ctx context.Context, subjectID uint, courseID uint) (*uint, error) {
	minSeq := func(cid uint) int {
		min := -1
		for _, u := range f.units {
			if u.CourseID == cid && (min == -1 || u.Sequence < min) {
				min = u.Sequence
			}
		}
		return min
	}
	target := minSeq(courseID)
	var best *uint
	bestSeq := -1
	for _, u := range f.units {
		if u.SubjectID != subjectID || u.CourseID == courseID {
			continue
		}
		seq := minSeq(u.CourseID)
		if seq < target && seq > bestSeq {
			cid := u.CourseID
			best, bestSeq = &cid, seq
		}
	}
	return best, nil
}

func (f *fakeRepository) ListSubjectUnitsBelow(ctx context.Context, subjectID uint, sequence int) ([]*models.Unit, error) {
	var out []*models.Unit
	for _, u := range f.units {
		if u.SubjectID == subjectID && u.Sequence < sequence {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

// ===== UnlockRepository =====

func (f *fakeRepository) IsUnlocked(ctx context.Context, studentID string, unitID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.unlocks[progressKey(studentID, unitID)]
	return ok, nil
}

func (f *fakeRepository) BatchUnlock(ctx context.Context, studentID string, unitIDs []uint, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, unitID := range unitIDs {
		key := progressKey(studentID, unitID)
		if _, ok := f.unlocks[key]; ok {
			continue
		}
		f.unlocks[key] = &models.UnitUnlock{
			StudentID: studentID, UnitID: unitID,
			Source: source, UnlockedAt: time.Now(),
		}
	}
	return nil
}

func (f fakeUnlockRepo) ListByStudent(ctx context.Context, studentID string) ([]*models.UnitUnlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.UnitUnlock
	for _, u := range f.unlocks {
		if u.StudentID == studentID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitID < out[j].UnitID })
	return out, nil
}

// ===== SHARED TEST FIXTURE =====

type serviceFixture struct {
	repo      *fakeRepository
	publisher *events.MockEventPublisher
	manager   ServiceManager
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	repo := newFakeRepository()
	publisher := events.NewMockEventPublisher(logger)
	manager := NewServiceManager(repo, cache.NewMemoryCache(), time.Minute, publisher, logger, validator.New())
	return &serviceFixture{repo: repo, publisher: publisher, manager: manager}
}
