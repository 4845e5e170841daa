package models

import (
	"time"
)

// UnitProgress is the materialized per-(student, unit) snapshot. It is a
// write-through cache over what can be recomputed from answer_attempts:
// counters are updated incrementally on every submission and activity ping.
//
// Stars and Completed are monotonically non-decreasing: once earned they are
// never revoked by later wrong answers. Rows are created lazily on the first
// study/practice event and never deleted.
type UnitProgress struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	StudentID string `json:"student_id" gorm:"not null;size:64;uniqueIndex:idx_progress_student_unit"`
	UnitID    uint   `json:"unit_id" gorm:"not null;uniqueIndex:idx_progress_student_unit"`

	Completed bool `json:"completed" gorm:"default:false"`
	Stars     int  `json:"stars" gorm:"default:0"`

	StudyCount    int `json:"study_count" gorm:"default:0"`
	PracticeCount int `json:"practice_count" gorm:"default:0"`

	CorrectCount   int `json:"correct_count" gorm:"default:0"`
	IncorrectCount int `json:"incorrect_count" gorm:"default:0"`
	AnswerCount    int `json:"answer_count" gorm:"default:0"`

	// TotalExercises is the catalog exercise count at the time the snapshot
	// was last written. It can go stale as catalog membership changes, which
	// is why completed-exercise counts are always recomputed live.
	TotalExercises int `json:"total_exercises" gorm:"default:0"`

	TotalTimeMs       int64   `json:"total_time_ms" gorm:"default:0"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms" gorm:"default:0"`

	MasteryLevel float64 `json:"mastery_level" gorm:"default:0"` // 0.0 - 1.0

	LastStudyAt    *time.Time `json:"last_study_at,omitempty"`
	LastPracticeAt *time.Time `json:"last_practice_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UnitProgress) TableName() string {
	return "unit_progress"
}
