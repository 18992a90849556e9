package srs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vocabquiz/pkg/models"
)

func TestDifficultyFrom(t *testing.T) {
	tests := []struct {
		name      string
		correct   bool
		latencyMs int
		want      Difficulty
	}{
		{"incorrect is always hard", false, 100, Hard},
		{"incorrect slow is hard", false, 10000, Hard},
		{"fast correct is easy", true, 1200, Easy},
		{"easy boundary inclusive", true, 2500, Easy},
		{"medium just past easy", true, 2501, Medium},
		{"medium boundary inclusive", true, 6000, Medium},
		{"slow correct is hard", true, 6001, Hard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DifficultyFrom(tt.correct, tt.latencyMs))
		})
	}
}

func TestToGrade(t *testing.T) {
	assert.Equal(t, 2, ToGrade(false, Hard))
	assert.Equal(t, 2, ToGrade(false, Easy)) // correctness wins over band
	assert.Equal(t, 5, ToGrade(true, Easy))
	assert.Equal(t, 4, ToGrade(true, Medium))
	assert.Equal(t, 3, ToGrade(true, Hard))
}

func TestInitialStatsIsImmediatelyDue(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	stats := InitialStats("x", now)

	assert.Equal(t, "x", stats.ItemID)
	assert.Equal(t, 0, stats.Repetitions)
	assert.Equal(t, 2.5, stats.EaseFactor)
	assert.Nil(t, stats.LastReviewedAt)
	// Exactly at the due date is not due; one instant later is.
	assert.False(t, IsDue(stats, now))
	assert.True(t, IsDue(stats, now.Add(time.Nanosecond)))
}

func TestUpdateCorrectSequenceFromInitial(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	stats := InitialStats("x", now)

	stats = Update(stats, true, 1200, now)
	assert.Equal(t, 1, stats.Repetitions)
	assert.Equal(t, 1, stats.IntervalDays)
	assert.Equal(t, now.AddDate(0, 0, 1), stats.DueAt)
	require.NotNil(t, stats.LastReviewedAt)
	assert.Equal(t, now, *stats.LastReviewedAt)

	stats = Update(stats, true, 2200, now.AddDate(0, 0, 1))
	assert.Equal(t, 2, stats.Repetitions)
	assert.Equal(t, 3, stats.IntervalDays)
}

func TestUpdateIncorrectResets(t *testing.T) {
	now := time.Now()
	stats := models.ItemStats{
		ItemID:        "x",
		Repetitions:   7,
		IntervalDays:  45,
		EaseFactor:    2.8,
		CurrentStreak: 7,
		LongestStreak: 7,
	}

	next := Update(stats, false, 3000, now)

	assert.Equal(t, 0, next.Repetitions)
	assert.Equal(t, 1, next.IntervalDays)
	assert.Equal(t, 0, next.CurrentStreak)
	assert.Equal(t, 7, next.LongestStreak, "longest streak survives a failure")
	assert.Less(t, next.EaseFactor, stats.EaseFactor, "ease drops on grade 2")
}

func TestUpdateEaseFactorStaysClamped(t *testing.T) {
	now := time.Now()

	// Hammer with failures: ease must never fall below 1.3.
	stats := InitialStats("x", now)
	for i := 0; i < 50; i++ {
		stats = Update(stats, false, 8000, now)
		assert.GreaterOrEqual(t, stats.EaseFactor, 1.3)
		assert.LessOrEqual(t, stats.EaseFactor, 3.0)
	}
	assert.InDelta(t, 1.3, stats.EaseFactor, 1e-9)

	// Hammer with fast correct answers: ease must never exceed 3.0.
	stats = InitialStats("y", now)
	for i := 0; i < 50; i++ {
		stats = Update(stats, true, 500, now)
		assert.GreaterOrEqual(t, stats.EaseFactor, 1.3)
		assert.LessOrEqual(t, stats.EaseFactor, 3.0)
	}
	assert.InDelta(t, 3.0, stats.EaseFactor, 1e-9)
}

func TestUpdateIntervalGrowsAfterSecondRepetition(t *testing.T) {
	now := time.Now()
	stats := InitialStats("x", now)
	stats = Update(stats, true, 1000, now)
	stats = Update(stats, true, 1000, now)

	prevInterval := stats.IntervalDays
	stats = Update(stats, true, 1000, now)
	assert.Equal(t, 3, stats.Repetitions)
	assert.GreaterOrEqual(t, stats.IntervalDays, prevInterval)
}

func TestUpdateZeroIntervalRoundsUpToOne(t *testing.T) {
	now := time.Now()
	// Interval 0 times any ease rounds to 0 and must be lifted to 1.
	stats := models.ItemStats{ItemID: "x", Repetitions: 2, IntervalDays: 0, EaseFactor: 2.5}
	next := Update(stats, true, 1000, now)
	assert.Equal(t, 3, next.Repetitions)
	assert.Equal(t, 1, next.IntervalDays)
}

func TestUpdateStreakNeverExceedsLongest(t *testing.T) {
	now := time.Now()
	stats := InitialStats("x", now)
	outcomes := []bool{true, true, false, true, true, true, false, true}
	for _, correct := range outcomes {
		stats = Update(stats, correct, 1500, now)
		assert.LessOrEqual(t, stats.CurrentStreak, stats.LongestStreak)
	}
	assert.Equal(t, 3, stats.LongestStreak)
	assert.Equal(t, 1, stats.CurrentStreak)
}

func TestUpdateAverageLatencyRunningMean(t *testing.T) {
	now := time.Now()
	stats := InitialStats("x", now)

	stats = Update(stats, true, 1000, now)
	assert.Equal(t, 1000, stats.AverageLatency)

	stats = Update(stats, true, 3000, now)
	assert.Equal(t, 2000, stats.AverageLatency)

	stats = Update(stats, false, 5000, now)
	assert.Equal(t, 3000, stats.AverageLatency)
	assert.Equal(t, 5000, stats.LastLatency)
}

func TestUpdateRollingAccuracyWithinWindow(t *testing.T) {
	now := time.Now()
	stats := InitialStats("x", now)

	stats = Update(stats, true, 1000, now)
	assert.Equal(t, 100, stats.RollingAccuracy)

	stats = Update(stats, false, 1000, now)
	assert.Equal(t, 50, stats.RollingAccuracy)

	stats = Update(stats, true, 1000, now)
	assert.Equal(t, 67, stats.RollingAccuracy)
}

func TestUpdateRollingAccuracyBeyondWindowIsBounded(t *testing.T) {
	now := time.Now()
	stats := InitialStats("x", now)

	// 25 correct answers: once past the 20-answer window the value is held
	// at min(totalCorrect, 20)/20.
	for i := 0; i < 25; i++ {
		stats = Update(stats, true, 1000, now)
	}
	assert.Equal(t, 25, stats.AnswersCount)
	assert.Equal(t, 100, stats.RollingAccuracy)

	// A failure past the window does not move the held value: the bounded
	// approximation still reports min(totalCorrect, 20)/20.
	stats = Update(stats, false, 1000, now)
	assert.Equal(t, 100, stats.RollingAccuracy)
}

func TestDueItems(t *testing.T) {
	now := time.Now()
	due := models.ItemStats{ItemID: "a", DueAt: now.Add(-time.Hour)}
	notDue := models.ItemStats{ItemID: "b", DueAt: now.Add(time.Hour)}
	exact := models.ItemStats{ItemID: "c", DueAt: now}

	got := DueItems([]models.ItemStats{due, notDue, exact}, now)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ItemID)
}
