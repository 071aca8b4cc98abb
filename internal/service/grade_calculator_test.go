package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateGrade(t *testing.T) {
	tests := []struct {
		score      float64
		wantLetter string
		wantPoints float64
	}{
		{10, "A", 4.0},
		{9.5, "A", 4.0},
		{9, "A", 4.0},
		{8.9, "B+", 3.5},
		{8, "B+", 3.5},
		{7.5, "B", 3.0},
		{7, "B", 3.0},
		{6, "C+", 2.5},
		{5, "C", 2.0},
		{4, "D+", 1.5},
		{3.5, "D", 1.0},
		{3, "D", 1.0},
		{2.9, "F", 0.0},
		{0, "F", 0.0},
	}
	for _, tt := range tests {
		letter, points := CalculateGrade(tt.score)
		assert.Equal(t, tt.wantLetter, letter, "score %.1f", tt.score)
		assert.Equal(t, tt.wantPoints, points, "score %.1f", tt.score)
	}
}
