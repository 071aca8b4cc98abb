package service

import "math"

// gradeBand maps a score threshold to a letter grade and 4-scale points.
type gradeBand struct {
	Threshold float64
	Letter    string
	Points    float64
}

// Bands are evaluated in descending threshold order, first match wins.
var gradeBands = []gradeBand{
	{9, "A", 4.0},
	{8, "B+", 3.5},
	{7, "B", 3.0},
	{6, "C+", 2.5},
	{5, "C", 2.0},
	{4, "D+", 1.5},
	{3, "D", 1.0},
	{0, "F", 0.0},
}

// CalculateGrade maps a 10-scale total score to its letter grade and
// 4-scale grade points.
func CalculateGrade(totalScore float64) (string, float64) {
	for _, band := range gradeBands {
		if totalScore >= band.Threshold {
			return band.Letter, band.Points
		}
	}
	return "F", 0.0
}

// round2 rounds to two decimal places for GPA reporting.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
