package quiz

import "testing"

func TestFinalScore(t *testing.T) {
	tests := []struct {
		correct, total, want int
	}{
		{5, 5, 100},
		{3, 5, 60},
		{0, 5, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13}, // 12.5 rounds up
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := FinalScore(tt.correct, tt.total); got != tt.want {
			t.Errorf("FinalScore(%d, %d) = %d, want %d", tt.correct, tt.total, got, tt.want)
		}
	}
}

func TestPointsEarned(t *testing.T) {
	tests := []struct {
		score, want int
	}{
		{100, 10},
		{99, 3},
		{60, 3},
		{59, 0},
		{0, 0},
	}
	for _, tt := range tests {
		if got := PointsEarned(tt.score); got != tt.want {
			t.Errorf("PointsEarned(%d) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestApplyPoints(t *testing.T) {
	if got := ApplyPoints(95, 10); got != 100 {
		t.Errorf("ApplyPoints(95, 10) = %d, want 100", got)
	}
	if got := ApplyPoints(40, 3); got != 43 {
		t.Errorf("ApplyPoints(40, 3) = %d, want 43", got)
	}
	if got := ApplyPoints(-5, 0); got != 0 {
		t.Errorf("ApplyPoints(-5, 0) = %d, want 0", got)
	}
}

func TestLevel(t *testing.T) {
	tests := map[int]string{0: "Beginner", 49: "Beginner", 50: "Intermediate", 99: "Intermediate", 100: "Advanced"}
	for p, want := range tests {
		if got := Level(p); got != want {
			t.Errorf("Level(%d) = %q, want %q", p, got, want)
		}
	}
}
