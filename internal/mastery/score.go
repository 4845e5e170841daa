package mastery

// Star thresholds on completion rate. Shared by the submission path, the
// progress views, and the unlock gate.
const (
	threeStarCompletion = 0.8
	twoStarCompletion   = 0.6
)

// Practice volume saturates the effort term after this many answers.
const effortSaturation = 10

// Stars maps a completion rate to the discrete 0-3 rating.
func Stars(completionRate float64) int {
	switch {
	case completionRate >= threeStarCompletion:
		return 3
	case completionRate >= twoStarCompletion:
		return 2
	case completionRate > 0:
		return 1
	default:
		return 0
	}
}

// Score is the continuous mastery level in [0, 1], blending correctness
// rate with practice volume:
//
//	correctRate    = correctCount / answerCount   (0 when answerCount = 0)
//	practiceEffort = min(1, answerCount / 10)
//	mastery        = 0.6*correctRate + 0.4*practiceEffort
func Score(correctCount, answerCount int) float64 {
	if answerCount <= 0 {
		return 0
	}

	correctRate := float64(correctCount) / float64(answerCount)
	practiceEffort := float64(answerCount) / effortSaturation
	if practiceEffort > 1 {
		practiceEffort = 1
	}

	return 0.6*correctRate + 0.4*practiceEffort
}
