package mastery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStars(t *testing.T) {
	tests := []struct {
		name           string
		completionRate float64
		want           int
	}{
		{"full completion", 1.0, 3},
		{"exactly three-star threshold", 0.8, 3},
		{"just under three stars", 0.79, 2},
		{"exactly two-star threshold", 0.6, 2},
		{"just under two stars", 0.59, 1},
		{"any progress is one star", 0.01, 1},
		{"no progress", 0.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Stars(tt.completionRate))
		})
	}
}

func TestStars_Monotonic(t *testing.T) {
	prev := 0
	for rate := 0.0; rate <= 1.0; rate += 0.01 {
		got := Stars(rate)
		assert.GreaterOrEqual(t, got, prev, "stars dropped at rate %.2f", rate)
		prev = got
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name         string
		correctCount int
		answerCount  int
		want         float64
	}{
		{"no answers", 0, 0, 0},
		{"all correct below saturation", 5, 5, 0.6 + 0.4*0.5},
		{"all correct at saturation", 10, 10, 1.0},
		{"all wrong at saturation", 0, 10, 0.4},
		{"half correct past saturation", 10, 20, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.correctCount, tt.answerCount), 1e-9)
		})
	}
}

func TestScore_Bounded(t *testing.T) {
	for answers := 0; answers <= 50; answers += 5 {
		for correct := 0; correct <= answers; correct += 5 {
			score := Score(correct, answers)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		}
	}
}

// The canonical scenario: 3 of 5 exercises completed is a 0.6 rate, which
// earns exactly two stars.
func TestStars_ThreeOfFive(t *testing.T) {
	assert.Equal(t, 2, Stars(3.0/5.0))
}
