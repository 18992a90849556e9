package models

import "time"

// ItemStats tracks per-item scheduling state for the SM-2 variant
type ItemStats struct {
	ItemID          string     `json:"item_id" db:"item_id"`
	Repetitions     int        `json:"repetitions" db:"repetitions"`           // consecutive qualifying correct reviews
	IntervalDays    int        `json:"interval_days" db:"interval_days"`       // days until the next due date
	EaseFactor      float64    `json:"ease_factor" db:"ease_factor"`           // clamped to [1.3, 3.0]
	LastReviewedAt  *time.Time `json:"last_reviewed_at" db:"last_reviewed_at"` // nil before the first review
	DueAt           time.Time  `json:"due_at" db:"due_at"`
	TotalAttempts   int        `json:"total_attempts" db:"total_attempts"`
	TotalCorrect    int        `json:"total_correct" db:"total_correct"`
	CurrentStreak   int        `json:"current_streak" db:"current_streak"`
	LongestStreak   int        `json:"longest_streak" db:"longest_streak"`
	AverageLatency  int        `json:"average_latency_ms" db:"average_latency_ms"` // running mean over all attempts, ms
	LastLatency     int        `json:"last_latency_ms" db:"last_latency_ms"`
	RollingAccuracy int        `json:"rolling_accuracy" db:"rolling_accuracy"` // 0-100 over the last 20 answers
	AnswersCount    int        `json:"answers_count" db:"answers_count"`       // total answers, feeds rolling accuracy
}
