package models

import (
	"time"

	"gorm.io/datatypes"
)

type PracticeMode string

const (
	ModeNormal     PracticeMode = "normal"
	ModeUnlockTest PracticeMode = "unlock_test"
)

// AnswerAttempt is the append-only record of a single submission. Rows are
// never updated; the only delete path is mistake-list curation, which removes
// all attempts for one (student, exercise) pair.
type AnswerAttempt struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	StudentID  string `json:"student_id" gorm:"not null;size:64;index:idx_attempt_student_exercise;index:idx_attempt_student_unit"`
	ExerciseID uint   `json:"exercise_id" gorm:"not null;index:idx_attempt_student_exercise"`

	// UnitID is the unit the exercise was answered under, which is not
	// necessarily the exercise's current owner unit in the catalog.
	UnitID uint `json:"unit_id" gorm:"not null;index:idx_attempt_student_unit"`

	IsCorrect      bool           `json:"is_correct"`
	UserAnswer     datatypes.JSON `json:"user_answer" gorm:"type:jsonb"`
	ResponseTimeMs int            `json:"response_time_ms"`
	SessionID      string         `json:"session_id" gorm:"size:64;index"`
	Mode           PracticeMode   `json:"mode" gorm:"default:normal;size:16" validate:"omitempty,practice_mode"`
	DeviceInfo     *string        `json:"device_info,omitempty" gorm:"size:255"`
	SubmittedAt    time.Time      `json:"submitted_at" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
}

func (AnswerAttempt) TableName() string {
	return "answer_attempts"
}
