package models

import (
	"time"

	"gorm.io/datatypes"
)

type UnitKind string

const (
	UnitNormal    UnitKind = "normal"
	UnitChallenge UnitKind = "exercise_challenge"
)

// Unit is a catalog row owned by the content-management service. This
// service reads units to resolve exercise membership and unlock sequencing
// and never writes them.
type Unit struct {
	ID        uint     `json:"id" gorm:"primaryKey"`
	CourseID  uint     `json:"course_id" gorm:"not null;index"`
	SubjectID uint     `json:"subject_id" gorm:"not null;index"`
	Name      string   `json:"name" gorm:"not null;size:200"`
	Kind      UnitKind `json:"kind" gorm:"default:normal;index" validate:"omitempty,oneof=normal exercise_challenge"`

	// Position of the unit within its subject. Batch unlock compares against
	// this value, sequential gating walks it within a course.
	Sequence int `json:"sequence" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Unit) TableName() string {
	return "units"
}

// Exercise is the catalog row for a single exercise. OwnerUnitID is the
// unit that currently owns the exercise in the catalog; attempts store the
// unit they were answered under, which can differ when an exercise is
// reused or reassigned.
type Exercise struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	OwnerUnitID uint         `json:"owner_unit_id" gorm:"not null;index"`
	Kind        ExerciseKind `json:"kind" gorm:"not null" validate:"required,exercise_kind"`
	Prompt      string       `json:"prompt" gorm:"type:text"`

	// Correct-answer specification, shape keyed by Kind.
	CorrectAnswer datatypes.JSON `json:"correct_answer" gorm:"type:jsonb"`

	Position  int       `json:"position" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Exercise) TableName() string {
	return "exercises"
}

// UnitUnlock marks a unit as explicitly unlocked for a student, either by a
// passed unlock test or by the admin batch-unlock endpoint.
type UnitUnlock struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	StudentID  string    `json:"student_id" gorm:"not null;size:64;uniqueIndex:idx_unlock_student_unit"`
	UnitID     uint      `json:"unit_id" gorm:"not null;uniqueIndex:idx_unlock_student_unit"`
	Source     string    `json:"source" gorm:"size:32"` // unlock_test | manual
	UnlockedAt time.Time `json:"unlocked_at"`
}

func (UnitUnlock) TableName() string {
	return "unit_unlocks"
}
