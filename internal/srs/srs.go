// Package srs implements a lightweight SM-2 variant. Answer difficulty is
// derived from correctness and response latency, mapped to a 0-5 grade, and
// the grade drives the ease-factor and interval update.
package srs

import (
	"math"
	"time"

	"github.com/example/vocabquiz/pkg/models"
)

// Difficulty is the band an answer falls into based on latency
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

const (
	// Latency thresholds for classifying a correct answer
	easyLatencyMs   = 2500
	mediumLatencyMs = 6000

	// Ease factor bounds
	minEaseFactor = 1.3
	maxEaseFactor = 3.0

	// Default ease factor for new items
	initialEaseFactor = 2.5

	// Rolling accuracy window size in answers
	accuracyWindow = 20
)

// DifficultyFrom classifies an answer by correctness and latency
func DifficultyFrom(correct bool, latencyMs int) Difficulty {
	if !correct {
		return Hard
	}
	if latencyMs <= easyLatencyMs {
		return Easy
	}
	if latencyMs <= mediumLatencyMs {
		return Medium
	}
	return Hard
}

// ToGrade maps correctness and difficulty to an SM-2 grade.
// Incorrect answers grade 2 rather than 0 to keep the ease regression mild.
func ToGrade(correct bool, difficulty Difficulty) int {
	if !correct {
		return 2
	}
	switch difficulty {
	case Easy:
		return 5
	case Medium:
		return 4
	default:
		return 3
	}
}

// InitialStats returns the zero-state statistics for an item. The item is
// immediately due (DueAt = now, interval 0).
func InitialStats(itemID string, now time.Time) models.ItemStats {
	return models.ItemStats{
		ItemID:       itemID,
		Repetitions:  0,
		IntervalDays: 0,
		EaseFactor:   initialEaseFactor,
		DueAt:        now,
	}
}

// Update computes the next schedule for an item from an answer outcome.
// It never mutates prev and is total over its input domain.
func Update(prev models.ItemStats, correct bool, latencyMs int, now time.Time) models.ItemStats {
	difficulty := DifficultyFrom(correct, latencyMs)
	grade := ToGrade(correct, difficulty)

	ease := clamp(prev.EaseFactor+(0.1-float64(5-grade)*(0.08+float64(5-grade)*0.02)), minEaseFactor, maxEaseFactor)

	var intervalDays int
	repetitions := prev.Repetitions
	if grade < 3 {
		repetitions = 0
		intervalDays = 1
	} else {
		repetitions++
		switch {
		case repetitions == 1:
			intervalDays = 1
		case repetitions == 2:
			intervalDays = 3
		default:
			intervalDays = int(math.Round(float64(prev.IntervalDays) * ease))
			if intervalDays == 0 {
				intervalDays = 1
			}
		}
	}

	totalAttempts := prev.TotalAttempts + 1
	totalCorrect := prev.TotalCorrect
	if correct {
		totalCorrect++
	}
	currentStreak := 0
	if correct {
		currentStreak = prev.CurrentStreak + 1
	}
	longestStreak := prev.LongestStreak
	if currentStreak > longestStreak {
		longestStreak = currentStreak
	}

	// Weighted running mean over all attempts
	averageLatency := latencyMs
	if prev.TotalAttempts > 0 {
		averageLatency = int(math.Round(
			(float64(prev.AverageLatency)*float64(prev.TotalAttempts) + float64(latencyMs)) / float64(totalAttempts)))
	}

	// Rolling accuracy over the last 20 answers. Beyond the window this is a
	// bounded approximation using min(totalCorrect, 20), not a true sliding
	// window.
	answersCount := prev.AnswersCount + 1
	var rollingAccuracy int
	if answersCount <= accuracyWindow {
		rollingAccuracy = int(math.Round(float64(totalCorrect) / float64(answersCount) * 100))
	} else {
		correctInWindow := prev.TotalCorrect
		if correctInWindow > accuracyWindow {
			correctInWindow = accuracyWindow
		}
		rollingAccuracy = int(math.Round(float64(correctInWindow) / float64(accuracyWindow) * 100))
	}

	reviewedAt := now
	return models.ItemStats{
		ItemID:          prev.ItemID,
		Repetitions:     repetitions,
		IntervalDays:    intervalDays,
		EaseFactor:      ease,
		LastReviewedAt:  &reviewedAt,
		DueAt:           now.AddDate(0, 0, intervalDays),
		TotalAttempts:   totalAttempts,
		TotalCorrect:    totalCorrect,
		CurrentStreak:   currentStreak,
		LongestStreak:   longestStreak,
		AverageLatency:  averageLatency,
		LastLatency:     latencyMs,
		RollingAccuracy: rollingAccuracy,
		AnswersCount:    answersCount,
	}
}

// IsDue reports whether the item is due for review. An item exactly at its
// due date is not yet due.
func IsDue(stats models.ItemStats, now time.Time) bool {
	return now.After(stats.DueAt)
}

// DueItems filters statistics down to items due for review
func DueItems(stats []models.ItemStats, now time.Time) []models.ItemStats {
	var due []models.ItemStats
	for _, s := range stats {
		if IsDue(s, now) {
			due = append(due, s)
		}
	}
	return due
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
