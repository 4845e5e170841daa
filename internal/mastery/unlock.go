package mastery

import (
	"github.com/edustep/progress-service/internal/models"
)

// Cleared reports whether a unit is fully cleared, i.e. eligible to unlock
// its successor. The conditions are alternatives; any one suffices:
// three stars, a completion rate or mastery score at the three-star
// threshold, or a snapshot already marked completed.
func Cleared(agg Aggregates, stars int, masteryScore float64, snapshotCompleted bool) bool {
	if stars == 3 {
		return true
	}
	if agg.CompletionRate >= threeStarCompletion || masteryScore >= threeStarCompletion {
		return true
	}
	return snapshotCompleted
}

// UnitMeta is the slice element for sequencing decisions: catalog units of
// one course ordered by sequence number.
type UnitMeta struct {
	ID       uint
	Kind     models.UnitKind
	Sequence int
}

// Prerequisite returns the unit whose clearance gates unitID within an
// ordered course, or found=false when the unit has no in-course
// prerequisite.
//
// Exercise-challenge units never have a prerequisite (they are always open)
// and are skipped when searching backwards for a normal unit's gate: the
// gate is the nearest PRIOR normal unit. The first normal unit of a course
// has no in-course prerequisite; whether it is gated on the previous
// course's last normal unit is decided by the caller, which owns course
// ordering.
func Prerequisite(ordered []UnitMeta, unitID uint) (UnitMeta, bool) {
	idx := -1
	for i, u := range ordered {
		if u.ID == unitID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return UnitMeta{}, false
	}

	if ordered[idx].Kind == models.UnitChallenge {
		return UnitMeta{}, false
	}

	for i := idx - 1; i >= 0; i-- {
		if ordered[i].Kind == models.UnitNormal {
			return ordered[i], true
		}
	}
	return UnitMeta{}, false
}

// LastNormal returns the last normal unit of an ordered course, used as the
// cross-course gate for the next course's first normal unit.
func LastNormal(ordered []UnitMeta) (UnitMeta, bool) {
	for i := len(ordered) - 1; i >= 0; i-- {
		if ordered[i].Kind == models.UnitNormal {
			return ordered[i], true
		}
	}
	return UnitMeta{}, false
}

// UnlockTestPassed reports whether an unlock-test submission earns the
// batch unlock: at least one star on the tested unit.
func UnlockTestPassed(stars int) bool {
	return stars >= 1
}
