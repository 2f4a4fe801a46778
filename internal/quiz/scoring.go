package quiz

// MaxProgress is the ceiling of a user's progress score.
const MaxProgress = 100

// FinalScore is the percentage of correct answers, rounded half up.
func FinalScore(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

// PointsEarned maps a final score to progress points.
func PointsEarned(finalScore int) int {
	switch {
	case finalScore >= 100:
		return 10
	case finalScore >= 60:
		return 3
	default:
		return 0
	}
}

// ApplyPoints adds points to current, clamped to [0, MaxProgress].
func ApplyPoints(current, points int) int {
	n := current + points
	if n > MaxProgress {
		n = MaxProgress
	}
	if n < 0 {
		n = 0
	}
	return n
}

// Level names the band a progress value falls in.
func Level(progress int) string {
	switch {
	case progress >= 100:
		return "Advanced"
	case progress >= 50:
		return "Intermediate"
	default:
		return "Beginner"
	}
}
