package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

// EventType identifies progress events on the wire. The rewards subsystem
// consumes these to grant points for completions and unlocks.
type EventType string

const (
	EventAnswerRecorded    EventType = "answer.recorded"
	EventUnitCompleted     EventType = "unit.completed"
	EventUnitStarsUpgraded EventType = "unit.stars_upgraded"
	EventUnitUnlocked      EventType = "unit.unlocked"
	EventUnitBatchUnlocked EventType = "unit.batch_unlocked"
)

const eventSource = "progress-service"

// ProgressEvent is the envelope for all progress events.
type ProgressEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type AnswerRecordedEvent struct {
	AttemptID    uint    `json:"attempt_id"`
	StudentID    string  `json:"student_id"`
	ExerciseID   uint    `json:"exercise_id"`
	UnitID       uint    `json:"unit_id"`
	IsCorrect    bool    `json:"is_correct"`
	Stars        int     `json:"stars"`
	MasteryLevel float64 `json:"mastery_level"`
	SessionID    string  `json:"session_id"`
}

type UnitCompletedEvent struct {
	StudentID   string    `json:"student_id"`
	UnitID      uint      `json:"unit_id"`
	Stars       int       `json:"stars"`
	CompletedAt time.Time `json:"completed_at"`
}

type UnitStarsUpgradedEvent struct {
	StudentID string `json:"student_id"`
	UnitID    uint   `json:"unit_id"`
	FromStars int    `json:"from_stars"`
	ToStars   int    `json:"to_stars"`
}

type UnitUnlockedEvent struct {
	StudentID string `json:"student_id"`
	UnitID    uint   `json:"unit_id"`
	Source    string `json:"source"` // unlock_test | manual
}

type UnitBatchUnlockedEvent struct {
	StudentID  string `json:"student_id"`
	UnitIDs    []uint `json:"unit_ids"`
	TestUnitID *uint  `json:"test_unit_id,omitempty"` // set when triggered by an unlock test
	Source     string `json:"source"`                 // unlock_test | manual
}

// Event factory functions

func newEvent(eventType EventType, data interface{}) *ProgressEvent {
	return &ProgressEvent{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data:      data,
	}
}

func NewAnswerRecordedEvent(attemptID uint, studentID string, exerciseID, unitID uint, isCorrect bool, stars int, masteryLevel float64, sessionID string) *ProgressEvent {
	return newEvent(EventAnswerRecorded, AnswerRecordedEvent{
		AttemptID:    attemptID,
		StudentID:    studentID,
		ExerciseID:   exerciseID,
		UnitID:       unitID,
		IsCorrect:    isCorrect,
		Stars:        stars,
		MasteryLevel: masteryLevel,
		SessionID:    sessionID,
	})
}

func NewUnitCompletedEvent(studentID string, unitID uint, stars int) *ProgressEvent {
	return newEvent(EventUnitCompleted, UnitCompletedEvent{
		StudentID:   studentID,
		UnitID:      unitID,
		Stars:       stars,
		CompletedAt: time.Now(),
	})
}

func NewUnitStarsUpgradedEvent(studentID string, unitID uint, fromStars, toStars int) *ProgressEvent {
	return newEvent(EventUnitStarsUpgraded, UnitStarsUpgradedEvent{
		StudentID: studentID,
		UnitID:    unitID,
		FromStars: fromStars,
		ToStars:   toStars,
	})
}

func NewUnitUnlockedEvent(studentID string, unitID uint, source string) *ProgressEvent {
	return newEvent(EventUnitUnlocked, UnitUnlockedEvent{
		StudentID: studentID,
		UnitID:    unitID,
		Source:    source,
	})
}

func NewUnitBatchUnlockedEvent(studentID string, unitIDs []uint, testUnitID *uint, source string) *ProgressEvent {
	return newEvent(EventUnitBatchUnlocked, UnitBatchUnlockedEvent{
		StudentID:  studentID,
		UnitIDs:    unitIDs,
		TestUnitID: testUnitID,
		Source:     source,
	})
}
