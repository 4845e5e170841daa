package services

import (
	"context"
	"testing"

	"github.com/edustep/progress-service/internal/events"
	"github.com/edustep/progress-service/internal/mastery"
	"github.com/edustep/progress-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedUnitWithExercises registers one normal unit with n choice exercises
// whose correct answer is option 0.
func seedUnitWithExercises(repo *fakeRepository, unitID uint, n int) []uint {
	repo.addUnit(unitID, 1, 1, models.UnitNormal, int(unitID))
	ids := make([]uint, 0, n)
	for i := 0; i < n; i++ {
		id := unitID*100 + uint(i)
		repo.addExercise(id, unitID, models.KindChoice, `{"selected_option":0}`)
		ids = append(ids, id)
	}
	return ids
}

func submitChoice(t *testing.T, f *serviceFixture, studentID string, unitID, exerciseID uint, option int, mode models.PracticeMode) *RecordAnswerResponse {
	t.Helper()
	resp, err := f.manager.Progress().RecordAnswer(context.Background(), studentID, &RecordAnswerRequest{
		ExerciseID:     exerciseID,
		UnitID:         unitID,
		UserAnswer:     []byte(`{"selected_option":` + string(rune('0'+option)) + `}`),
		ResponseTimeMs: 1200,
		SessionID:      "session-1",
		Mode:           mode,
	})
	require.NoError(t, err)
	return resp
}

func TestRecordAnswer_ServerSideGrading(t *testing.T) {
	f := newServiceFixture(t)
	ids := seedUnitWithExercises(f.repo, 10, 5)

	// No is_correct in the request: graded against the catalog spec.
	right := submitChoice(t, f, "stu-1", 10, ids[0], 0, models.ModeNormal)
	assert.True(t, right.IsCorrect)

	wrong := submitChoice(t, f, "stu-1", 10, ids[1], 2, models.ModeNormal)
	assert.False(t, wrong.IsCorrect)

	assert.Equal(t, 5, right.TotalExercises)
	assert.Equal(t, 1, wrong.CompletedExercises)
}

func TestRecordAnswer_ClientVerdictWins(t *testing.T) {
	f := newServiceFixture(t)
	ids := seedUnitWithExercises(f.repo, 10, 2)

	wrong := true
	resp, err := f.manager.Progress().RecordAnswer(context.Background(), "stu-1", &RecordAnswerRequest{
		ExerciseID: ids[0],
		UnitID:     10,
		UserAnswer: []byte(`{"selected_option":3}`),
		IsCorrect:  &wrong,
		SessionID:  "session-1",
	})
	require.NoError(t, err)
	assert.True(t, resp.IsCorrect)
}

func TestRecordAnswer_StarsProgression(t *testing.T) {
	f := newServiceFixture(t)
	ids := seedUnitWithExercises(f.repo, 10, 5)

	// 3 of 5 correct: 0.6 completion is two stars.
	var resp *RecordAnswerResponse
	for i := 0; i < 3; i++ {
		resp = submitChoice(t, f, "stu-1", 10, ids[i], 0, models.ModeNormal)
	}
	assert.Equal(t, 2, resp.Stars)
	assert.False(t, resp.Completed)

	// 4 of 5: 0.8 reaches three stars and completes the unit.
	resp = submitChoice(t, f, "stu-1", 10, ids[3], 0, models.ModeNormal)
	assert.Equal(t, 3, resp.Stars)
	assert.True(t, resp.Completed)
}

func TestRecordAnswer_StarsNeverRevoked(t *testing.T) {
	f := newServiceFixture(t)
	ids := seedUnitWithExercises(f.repo, 10, 5)

	for i := 0; i < 4; i++ {
		submitChoice(t, f, "stu-1", 10, ids[i], 0, models.ModeNormal)
	}

	// A later wrong answer cannot take stars or completion back.
	resp := submitChoice(t, f, "stu-1", 10, ids[4], 2, models.ModeNormal)
	assert.Equal(t, 3, resp.Stars)
	assert.True(t, resp.Completed)
}

func TestRecordAnswer_PublishesEvents(t *testing.T) {
	f := newServiceFixture(t)
	ids := seedUnitWithExercises(f.repo, 10, 1)

	submitChoice(t, f, "stu-1", 10, ids[0], 0, models.ModeNormal)

	published := f.publisher.GetPublishedEvents()
	require.NotEmpty(t, published)

	types := make(map[events.EventType]int)
	for _, e := range published {
		types[e.Type]++
	}
	assert.Equal(t, 1, types[events.EventAnswerRecorded])
	assert.Equal(t, 1, types[events.EventUnitStarsUpgraded])
	assert.Equal(t, 1, types[events.EventUnitCompleted])
}

func TestRecordAnswer_UnknownExercise(t *testing.T) {
	f := newServiceFixture(t)
	f.repo.addUnit(10, 1, 1, models.UnitNormal, 1)

	_, err := f.manager.Progress().RecordAnswer(context.Background(), "stu-1", &RecordAnswerRequest{
		ExerciseID: 999,
		UnitID:     10,
		UserAnswer: []byte(`{"selected_option":0}`),
		SessionID:  "session-1",
	})
	assert.ErrorIs(t, err, ErrExerciseNotFound)
	assert.True(t, IsNotFound(err))
}

func TestRecordAnswer_ExerciseNotInUnit(t *testing.T) {
	f := newServiceFixture(t)
	ids := seedUnitWithExercises(f.repo, 10, 1)
	f.repo.addUnit(20, 1, 1, models.UnitNormal, 2)

	// Unit 20 exists but does not own the exercise.
	_, err := f.manager.Progress().RecordAnswer(context.Background(), "stu-1", &RecordAnswerRequest{
		ExerciseID: ids[0],
		UnitID:     20,
		UserAnswer: []byte(`{"selected_option":0}`),
		SessionID:  "session-1",
	})
	assert.ErrorIs(t, err, ErrExerciseNotInUnit)
	assert.True(t, IsValidation(err))
}

func TestRecordAnswer_UnlockTestTriggersBatchUnlock(t *testing.T) {
	f := newServiceFixture(t)

	// Units 1-4 precede the unlock-test unit 5 in subject order.
	for seq := 1; seq <= 4; seq++ {
		f.repo.addUnit(uint(seq), 1, 1, models.UnitNormal, seq)
	}
	f.repo.addUnit(5, 1, 1, models.UnitNormal, 5)
	f.repo.addExercise(500, 5, models.KindChoice, `{"selected_option":0}`)

	resp := submitChoice(t, f, "stu-1", 5, 500, 0, models.ModeUnlockTest)
	require.GreaterOrEqual(t, resp.Stars, 1)
	assert.ElementsMatch(t, []uint{1, 2, 3, 4}, resp.UnlockedUnits)

	unlocked, err := f.manager.Unlocks().ListUnlocked(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Len(t, unlocked, 4)
	for _, u := range unlocked {
		assert.Equal(t, UnlockSourceTest, u.Source)
	}
}

func TestRecordAnswer_FailedUnlockTestUnlocksNothing(t *testing.T) {
	f := newServiceFixture(t)
	f.repo.addUnit(1, 1, 1, models.UnitNormal, 1)
	f.repo.addUnit(5, 1, 1, models.UnitNormal, 5)
	f.repo.addExercise(500, 5, models.KindChoice, `{"selected_option":0}`)

	resp := submitChoice(t, f, "stu-1", 5, 500, 2, models.ModeUnlockTest)
	assert.Equal(t, 0, resp.Stars)
	assert.Empty(t, resp.UnlockedUnits)

	unlocked, err := f.manager.Unlocks().ListUnlocked(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Empty(t, unlocked)
}

func TestGetUnitProgress_EmptyHistory(t *testing.T) {
	f := newServiceFixture(t)
	seedUnitWithExercises(f.repo, 10, 3)

	view, err := f.manager.Progress().GetUnitProgress(context.Background(), "stu-none", 10)
	require.NoError(t, err)
	assert.Equal(t, mastery.SourceRecomputed, view.Source)
	assert.Equal(t, 3, view.TotalExercises)
	assert.Zero(t, view.AnswerCount)
	assert.Zero(t, view.Stars)
	assert.False(t, view.Completed)
}

func TestGetUnitProgress_SourceMarker(t *testing.T) {
	f := newServiceFixture(t)
	ids := seedUnitWithExercises(f.repo, 10, 5)

	// Incomplete unit resolves through the recovery path.
	submitChoice(t, f, "stu-1", 10, ids[0], 0, models.ModeNormal)
	view, err := f.manager.Progress().GetUnitProgress(context.Background(), "stu-1", 10)
	require.NoError(t, err)
	assert.Equal(t, mastery.SourceRecomputed, view.Source)
	assert.Equal(t, 1, view.Stars)

	// Completed snapshot flips the source to snapshot.
	for i := 1; i < 4; i++ {
		submitChoice(t, f, "stu-1", 10, ids[i], 0, models.ModeNormal)
	}
	view, err = f.manager.Progress().GetUnitProgress(context.Background(), "stu-1", 10)
	require.NoError(t, err)
	assert.Equal(t, mastery.SourceSnapshot, view.Source)
	assert.Equal(t, 3, view.Stars)
	assert.True(t, view.Completed)
	assert.Equal(t, 4, view.CompletedExercises)
}

func TestGetBatchProgress_PerKeyIsolation(t *testing.T) {
	f := newServiceFixture(t)
	ids := seedUnitWithExercises(f.repo, 10, 2)
	seedUnitWithExercises(f.repo, 20, 2)

	submitChoice(t, f, "stu-1", 10, ids[0], 0, models.ModeNormal)

	resp, err := f.manager.Progress().GetBatchProgress(context.Background(), "stu-1", &BatchProgressRequest{
		UnitIDs: []uint{10, 20, 999},
	})
	require.NoError(t, err)

	// Known units resolve normally even though one key failed.
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 1, resp.Results[10].CompletedExercises)
	assert.Zero(t, resp.Results[20].AnswerCount)

	// The unknown unit gets an isolated error entry, not a zeroed view.
	assert.NotContains(t, resp.Results, uint(999))
	require.Contains(t, resp.Errors, uint(999))
	assert.Contains(t, resp.Errors[999], ErrUnitNotFound.Error())
}

func TestGetUnitProgress_UnknownUnit(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.manager.Progress().GetUnitProgress(context.Background(), "stu-1", 999)
	assert.ErrorIs(t, err, ErrUnitNotFound)
	assert.True(t, IsNotFound(err))
}

func TestGetBatchProgress_RejectsEmpty(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.manager.Progress().GetBatchProgress(context.Background(), "stu-1", &BatchProgressRequest{})
	assert.ErrorIs(t, err, ErrInvalidBatchRequest)
	assert.True(t, IsValidation(err))
}

func TestRecordActivity_StartAndEnd(t *testing.T) {
	f := newServiceFixture(t)
	seedUnitWithExercises(f.repo, 10, 2)
	ctx := context.Background()

	view, err := f.manager.Progress().RecordActivity(ctx, "stu-1", &RecordActivityRequest{
		UnitID: 10,
		Type:   ActivityStudy,
		Action: ActivityActionStart,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, view.StudyCount)
	assert.NotNil(t, view.LastStudyAt)
	assert.Zero(t, view.TotalTimeMs)

	view, err = f.manager.Progress().RecordActivity(ctx, "stu-1", &RecordActivityRequest{
		UnitID:     10,
		Type:       ActivityStudy,
		Action:     ActivityActionEnd,
		DurationMs: 90_000,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, view.StudyCount)
	assert.Equal(t, int64(90_000), view.TotalTimeMs)

	view, err = f.manager.Progress().RecordActivity(ctx, "stu-1", &RecordActivityRequest{
		UnitID: 10,
		Type:   ActivityPractice,
		Action: ActivityActionStart,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, view.PracticeCount)
	assert.NotNil(t, view.LastPracticeAt)
}

func TestRecordActivity_UnknownUnit(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.manager.Progress().RecordActivity(context.Background(), "stu-1", &RecordActivityRequest{
		UnitID: 404,
		Type:   ActivityStudy,
		Action: ActivityActionStart,
	})
	assert.ErrorIs(t, err, ErrUnitNotFound)
}

func TestRecordActivity_RejectsUnknownType(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.manager.Progress().RecordActivity(context.Background(), "stu-1", &RecordActivityRequest{
		UnitID: 10,
		Type:   "cramming",
		Action: ActivityActionStart,
	})
	assert.Error(t, err)
}
