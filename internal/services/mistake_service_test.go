package services

import (
	"context"
	"testing"

	"github.com/edustep/progress-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMistakes_LatestWrongPerExercise(t *testing.T) {
	f := newServiceFixture(t)
	ids := seedUnitWithExercises(f.repo, 10, 3)
	ctx := context.Background()

	// Two wrong answers on the same exercise collapse to one entry; a later
	// correct answer does not remove it from the mistake book.
	submitChoice(t, f, "stu-1", 10, ids[0], 1, models.ModeNormal)
	submitChoice(t, f, "stu-1", 10, ids[0], 2, models.ModeNormal)
	submitChoice(t, f, "stu-1", 10, ids[0], 0, models.ModeNormal)
	submitChoice(t, f, "stu-1", 10, ids[1], 0, models.ModeNormal)

	result, err := f.manager.Mistakes().ListMistakes(ctx, "stu-1", &MistakeListRequest{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)

	item := result.Items[0]
	assert.Equal(t, ids[0], item.ExerciseID)
	assert.Equal(t, uint(10), item.UnitID)
	assert.Equal(t, models.KindChoice, item.Kind)
	assert.Equal(t, "prompt", item.Prompt)
	assert.JSONEq(t, `{"selected_option":2}`, string(item.WrongAnswer))
}

func TestListMistakes_EmptyBook(t *testing.T) {
	f := newServiceFixture(t)
	result, err := f.manager.Mistakes().ListMistakes(context.Background(), "stu-none", &MistakeListRequest{})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Zero(t, result.Total)
}

func TestRemoveMistake_ScopedToOneExercise(t *testing.T) {
	f := newServiceFixture(t)
	ids := seedUnitWithExercises(f.repo, 10, 3)
	ctx := context.Background()

	submitChoice(t, f, "stu-1", 10, ids[0], 1, models.ModeNormal)
	submitChoice(t, f, "stu-1", 10, ids[1], 1, models.ModeNormal)
	submitChoice(t, f, "stu-2", 10, ids[0], 1, models.ModeNormal)

	require.NoError(t, f.manager.Mistakes().RemoveMistake(ctx, "stu-1", ids[0]))

	// stu-1 keeps the other exercise's mistake.
	result, err := f.manager.Mistakes().ListMistakes(ctx, "stu-1", &MistakeListRequest{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, ids[1], result.Items[0].ExerciseID)

	// The other student's attempts are untouched.
	other, err := f.manager.Mistakes().ListMistakes(ctx, "stu-2", &MistakeListRequest{})
	require.NoError(t, err)
	assert.Len(t, other.Items, 1)
}

func TestRemoveMistake_NotFound(t *testing.T) {
	f := newServiceFixture(t)
	err := f.manager.Mistakes().RemoveMistake(context.Background(), "stu-1", 999)
	assert.ErrorIs(t, err, ErrMistakeNotFound)
	assert.True(t, IsNotFound(err))
}
