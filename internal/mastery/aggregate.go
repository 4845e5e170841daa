// Package mastery holds the pure progress arithmetic: aggregate resolution,
// star rating, mastery score, and unlock gating. Nothing in this package
// performs I/O; both the single-unit and batch handlers share it so the
// thresholds cannot drift between code paths.
package mastery

import (
	"github.com/edustep/progress-service/internal/models"
)

// Source marks which path produced an aggregate set.
type Source string

const (
	SourceSnapshot   Source = "snapshot"
	SourceRecomputed Source = "recomputed"
)

// Aggregates is the shared aggregate type both resolution paths produce.
type Aggregates struct {
	TotalExercises     int
	CompletedExercises int
	AnswerCount        int
	CorrectCount       int
	IncorrectCount     int
	TotalTimeMs        int64
	AvgResponseTimeMs  float64
	CompletionRate     float64
}

// FromAttempts is the recovery path: it derives all aggregates from the raw
// attempt history against the unit's current catalog membership.
//
// An exercise counts as completed when it has ever been answered correctly;
// later wrong answers do not un-complete it. Attempts are matched by
// exercise id only, so history answered under a previous owning unit still
// counts (catalog reassignment is intentionally not reconciled here).
func FromAttempts(exerciseIDs []uint, attempts []*models.AnswerAttempt) Aggregates {
	inUnit := make(map[uint]bool, len(exerciseIDs))
	for _, id := range exerciseIDs {
		inUnit[id] = true
	}

	everCorrect := make(map[uint]bool)
	agg := Aggregates{TotalExercises: len(exerciseIDs)}

	var responseTimeSum int64
	for _, attempt := range attempts {
		if !inUnit[attempt.ExerciseID] {
			continue
		}
		agg.AnswerCount++
		responseTimeSum += int64(attempt.ResponseTimeMs)
		agg.TotalTimeMs += int64(attempt.ResponseTimeMs)
		if attempt.IsCorrect {
			agg.CorrectCount++
			everCorrect[attempt.ExerciseID] = true
		} else {
			agg.IncorrectCount++
		}
	}

	agg.CompletedExercises = len(everCorrect)
	if agg.AnswerCount > 0 {
		agg.AvgResponseTimeMs = float64(responseTimeSum) / float64(agg.AnswerCount)
	}
	agg.CompletionRate = completionRate(agg.CompletedExercises, agg.TotalExercises)

	return agg
}

// CompletedFromAttempts returns only the ever-correct exercise count for the
// unit's current membership. Used to refresh the live field when the rest of
// the snapshot is trusted.
func CompletedFromAttempts(exerciseIDs []uint, attempts []*models.AnswerAttempt) int {
	inUnit := make(map[uint]bool, len(exerciseIDs))
	for _, id := range exerciseIDs {
		inUnit[id] = true
	}
	everCorrect := make(map[uint]bool)
	for _, attempt := range attempts {
		if attempt.IsCorrect && inUnit[attempt.ExerciseID] {
			everCorrect[attempt.ExerciseID] = true
		}
	}
	return len(everCorrect)
}

// Resolve picks the aggregate source for a (student, unit) pair.
//
// The snapshot is authoritative only when it exists and is marked completed.
// Even then, CompletedExercises is ALWAYS taken from the live attempt scan,
// because the snapshot's own exercise counters go stale when catalog
// membership changes after the fact. This asymmetry is deliberate,
// compatibility-critical behavior; do not "fix" it by trusting the snapshot
// for that one field.
//
// Any other state (no snapshot, or snapshot not completed) falls back to the
// full recovery computation over raw attempts.
func Resolve(snap *models.UnitProgress, exerciseIDs []uint, attempts []*models.AnswerAttempt) (Aggregates, Source) {
	if snap == nil || !snap.Completed {
		return FromAttempts(exerciseIDs, attempts), SourceRecomputed
	}

	completedLive := CompletedFromAttempts(exerciseIDs, attempts)
	agg := Aggregates{
		TotalExercises:     len(exerciseIDs),
		CompletedExercises: completedLive,
		AnswerCount:        snap.AnswerCount,
		CorrectCount:       snap.CorrectCount,
		IncorrectCount:     snap.IncorrectCount,
		TotalTimeMs:        snap.TotalTimeMs,
		AvgResponseTimeMs:  snap.AvgResponseTimeMs,
		CompletionRate:     completionRate(completedLive, len(exerciseIDs)),
	}
	return agg, SourceSnapshot
}

func completionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total)
}
