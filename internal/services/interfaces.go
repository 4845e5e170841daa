package services

import (
	"context"
	"time"

	"github.com/edustep/progress-service/internal/mastery"
	"github.com/edustep/progress-service/internal/models"
	"gorm.io/datatypes"
)

// ===== REQUEST / RESPONSE TYPES =====

// RecordAnswerRequest is one answer submission. IsCorrect is optional: when
// the client omits it, the service grades the answer against the catalog's
// correct-answer spec.
type RecordAnswerRequest struct {
	ExerciseID     uint                `json:"exercise_id" validate:"required"`
	UnitID         uint                `json:"unit_id" validate:"required"`
	UserAnswer     datatypes.JSON      `json:"user_answer" validate:"required"`
	IsCorrect      *bool               `json:"is_correct,omitempty"`
	ResponseTimeMs int                 `json:"response_time_ms" validate:"min=0,max=3600000"`
	SessionID      string              `json:"session_id" validate:"required,max=128"`
	Mode           models.PracticeMode `json:"mode" validate:"omitempty,practice_mode"`
	DeviceInfo     *string             `json:"device_info,omitempty"`
}

type RecordAnswerResponse struct {
	AttemptID          uint    `json:"attempt_id"`
	IsCorrect          bool    `json:"is_correct"`
	Stars              int     `json:"stars"`
	Completed          bool    `json:"completed"`
	MasteryLevel       float64 `json:"mastery_level"`
	CompletionRate     float64 `json:"completion_rate"`
	CompletedExercises int     `json:"completed_exercises"`
	TotalExercises     int     `json:"total_exercises"`

	// UnlockedUnits is set when an unlock-test submission earned the batch
	// unlock; empty otherwise.
	UnlockedUnits []uint `json:"unlocked_units,omitempty"`
}

// UnitProgressResponse is the resolved progress view for one (student, unit)
// pair. Source says which path produced the aggregates.
type UnitProgressResponse struct {
	StudentID string         `json:"student_id"`
	UnitID    uint           `json:"unit_id"`
	Source    mastery.Source `json:"source"`

	Completed bool `json:"completed"`
	Stars     int  `json:"stars"`

	TotalExercises     int     `json:"total_exercises"`
	CompletedExercises int     `json:"completed_exercises"`
	CompletionRate     float64 `json:"completion_rate"`

	AnswerCount    int `json:"answer_count"`
	CorrectCount   int `json:"correct_count"`
	IncorrectCount int `json:"incorrect_count"`
	StudyCount     int `json:"study_count"`
	PracticeCount  int `json:"practice_count"`

	TotalTimeMs       int64   `json:"total_time_ms"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
	MasteryLevel      float64 `json:"mastery_level"`

	LastStudyAt    *time.Time `json:"last_study_at,omitempty"`
	LastPracticeAt *time.Time `json:"last_practice_at,omitempty"`
}

type BatchProgressRequest struct {
	UnitIDs []uint `json:"unit_ids" validate:"required,min=1,max=50"`
}

// BatchProgressResponse carries one entry per resolvable unit. A unit whose
// resolution failed (unknown id, storage error) gets a message in Errors
// instead of a Results entry; one bad unit never fails the whole batch.
type BatchProgressResponse struct {
	Results map[uint]*UnitProgressResponse `json:"results"`
	Errors  map[uint]string                `json:"errors,omitempty"`
}

const (
	ActivityStudy    = "study"
	ActivityPractice = "practice"

	ActivityActionStart = "start"
	ActivityActionEnd   = "end"
)

// RecordActivityRequest is a study/practice session ping. Start pings bump
// the session counter and timestamp; end pings accumulate elapsed time.
type RecordActivityRequest struct {
	UnitID     uint   `json:"unit_id" validate:"required"`
	Type       string `json:"type" validate:"required,activity_type"`
	Action     string `json:"action" validate:"required,oneof=start end"`
	DurationMs int64  `json:"duration_ms" validate:"min=0"`
	SessionID  string `json:"session_id" validate:"omitempty,max=128"`
}

type UnlockStatusResponse struct {
	UnitID   uint   `json:"unit_id"`
	Unlocked bool   `json:"unlocked"`
	Reason   string `json:"reason"` // explicit | no_prerequisite | challenge | prerequisite_cleared | locked

	// PrerequisiteUnitID is set when the unit is gated on another unit.
	PrerequisiteUnitID *uint `json:"prerequisite_unit_id,omitempty"`
}

type MistakeItem struct {
	ExerciseID  uint                `json:"exercise_id"`
	UnitID      uint                `json:"unit_id"`
	Kind        models.ExerciseKind `json:"kind"`
	Prompt      string              `json:"prompt"`
	WrongAnswer datatypes.JSON      `json:"wrong_answer"`
	LastWrongAt time.Time           `json:"last_wrong_at"`
}

type MistakeListResponse struct {
	Items []MistakeItem `json:"items"`
	Total int           `json:"total"`
}

// ===== SERVICE INTERFACES =====

type ProgressService interface {
	RecordAnswer(ctx context.Context, studentID string, req *RecordAnswerRequest) (*RecordAnswerResponse, error)

	// GetUnitProgress resolves the progress view for one unit. An absent
	// history yields a zeroed recomputed view; an unknown unit is an error.
	GetUnitProgress(ctx context.Context, studentID string, unitID uint) (*UnitProgressResponse, error)

	GetBatchProgress(ctx context.Context, studentID string, req *BatchProgressRequest) (*BatchProgressResponse, error)
	RecordActivity(ctx context.Context, studentID string, req *RecordActivityRequest) (*UnitProgressResponse, error)
}

type UnlockService interface {
	GetUnlockStatus(ctx context.Context, studentID string, unitID uint) (*UnlockStatusResponse, error)
	ListUnlocked(ctx context.Context, studentID string) ([]*models.UnitUnlock, error)

	// BatchUnlockBefore unlocks every same-subject unit with a sequence lower
	// than the test unit's. Returns the ids actually written.
	BatchUnlockBefore(ctx context.Context, studentID string, testUnitID uint) ([]uint, error)

	ManualUnlock(ctx context.Context, studentID string, unitIDs []uint) error
}

type MistakeService interface {
	ListMistakes(ctx context.Context, studentID string, req *MistakeListRequest) (*MistakeListResponse, error)
	RemoveMistake(ctx context.Context, studentID string, exerciseID uint) error
}

type MistakeListRequest struct {
	SubjectID    *uint                `json:"subject_id,omitempty"`
	UnitID       *uint                `json:"unit_id,omitempty"`
	ExerciseKind *models.ExerciseKind `json:"exercise_kind,omitempty" validate:"omitempty,exercise_kind"`
	Limit        int                  `json:"limit" validate:"min=0,max=200"`
	Offset       int                  `json:"offset" validate:"min=0"`
}

type ReportService interface {
	ExportProgressExcel(ctx context.Context, studentID string) ([]byte, error)
	ExportProgressCSV(ctx context.Context, studentID string) ([]byte, error)
}

// ServiceManager bundles all services for handler wiring.
type ServiceManager interface {
	Progress() ProgressService
	Unlocks() UnlockService
	Mistakes() MistakeService
	Reports() ReportService
}
