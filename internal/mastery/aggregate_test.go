package mastery

import (
	"testing"

	"github.com/edustep/progress-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func attempt(exerciseID uint, correct bool, responseMs int) *models.AnswerAttempt {
	return &models.AnswerAttempt{ExerciseID: exerciseID, IsCorrect: correct, ResponseTimeMs: responseMs}
}

func TestFromAttempts_EverCorrect(t *testing.T) {
	exerciseIDs := []uint{1, 2, 3}
	attempts := []*models.AnswerAttempt{
		attempt(1, false, 1000),
		attempt(1, true, 2000),
		attempt(1, false, 1000), // later wrong answer does not un-complete
		attempt(2, true, 3000),
	}

	agg := FromAttempts(exerciseIDs, attempts)
	assert.Equal(t, 3, agg.TotalExercises)
	assert.Equal(t, 2, agg.CompletedExercises)
	assert.Equal(t, 4, agg.AnswerCount)
	assert.Equal(t, 2, agg.CorrectCount)
	assert.Equal(t, 2, agg.IncorrectCount)
	assert.Equal(t, int64(7000), agg.TotalTimeMs)
	assert.InDelta(t, 1750.0, agg.AvgResponseTimeMs, 1e-9)
	assert.InDelta(t, 2.0/3.0, agg.CompletionRate, 1e-9)
}

func TestFromAttempts_IgnoresForeignExercises(t *testing.T) {
	// Attempts on exercises no longer in the unit are filtered out.
	agg := FromAttempts([]uint{1}, []*models.AnswerAttempt{
		attempt(1, true, 1000),
		attempt(99, true, 1000),
	})
	assert.Equal(t, 1, agg.AnswerCount)
	assert.Equal(t, 1, agg.CompletedExercises)
}

func TestFromAttempts_ZeroExerciseUnit(t *testing.T) {
	agg := FromAttempts(nil, nil)
	assert.Zero(t, agg.TotalExercises)
	assert.Zero(t, agg.CompletionRate)
	assert.Zero(t, agg.AvgResponseTimeMs)
}

func TestResolve_RecomputedWithoutSnapshot(t *testing.T) {
	agg, source := Resolve(nil, []uint{1, 2}, []*models.AnswerAttempt{attempt(1, true, 500)})
	assert.Equal(t, SourceRecomputed, source)
	assert.Equal(t, 1, agg.CompletedExercises)
}

func TestResolve_IncompleteSnapshotRecomputes(t *testing.T) {
	snap := &models.UnitProgress{Completed: false, AnswerCount: 999}
	agg, source := Resolve(snap, []uint{1}, []*models.AnswerAttempt{attempt(1, true, 500)})
	assert.Equal(t, SourceRecomputed, source)
	// The stale snapshot counters are ignored on this path.
	assert.Equal(t, 1, agg.AnswerCount)
}

func TestResolve_CompletedSnapshotOverridesAllButCompletedExercises(t *testing.T) {
	snap := &models.UnitProgress{
		Completed:         true,
		AnswerCount:       40,
		CorrectCount:      30,
		IncorrectCount:    10,
		TotalTimeMs:       120_000,
		AvgResponseTimeMs: 3000,
		TotalExercises:    4, // stale: the unit now has 5 exercises
	}
	exerciseIDs := []uint{1, 2, 3, 4, 5}
	attempts := []*models.AnswerAttempt{
		attempt(1, true, 500),
		attempt(2, true, 500),
	}

	agg, source := Resolve(snap, exerciseIDs, attempts)
	assert.Equal(t, SourceSnapshot, source)

	// Snapshot counters are trusted...
	assert.Equal(t, 40, agg.AnswerCount)
	assert.Equal(t, 30, agg.CorrectCount)
	assert.Equal(t, int64(120_000), agg.TotalTimeMs)

	// ...but completed-exercise figures always come from the live scan
	// against current membership.
	assert.Equal(t, 5, agg.TotalExercises)
	assert.Equal(t, 2, agg.CompletedExercises)
	assert.InDelta(t, 0.4, agg.CompletionRate, 1e-9)
}

func TestCompletedFromAttempts(t *testing.T) {
	got := CompletedFromAttempts([]uint{1, 2, 3}, []*models.AnswerAttempt{
		attempt(1, true, 0),
		attempt(1, true, 0), // same exercise counts once
		attempt(2, false, 0),
		attempt(9, true, 0), // not in the unit
	})
	assert.Equal(t, 1, got)
}
