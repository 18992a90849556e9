package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vocabquiz/pkg/models"
)

type recordingPersister struct {
	mu     sync.Mutex
	writes map[string]int
	last   map[string]interface{}
}

func (p *recordingPersister) Save(key string, value interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writes == nil {
		p.writes = make(map[string]int)
		p.last = make(map[string]interface{})
	}
	p.writes[key]++
	p.last[key] = value
}

func (p *recordingPersister) count(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes[key]
}

func (p *recordingPersister) lastValue(key string) interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last[key]
}

func newTestController(t *testing.T, items []models.VocabItem) (*Controller, *recordingPersister) {
	t.Helper()
	persist := &recordingPersister{}
	c := NewController(func() ([]models.VocabItem, error) { return items, nil }, persist)
	require.NoError(t, c.LoadItems())
	return c, persist
}

func TestStartSessionBeforeLoadTriggersBackgroundLoad(t *testing.T) {
	loaded := make(chan struct{})
	var once sync.Once
	c := NewController(func() ([]models.VocabItem, error) {
		once.Do(func() { close(loaded) })
		return makeItems(models.TopicNumbers, 5), nil
	}, nil)

	c.StartSession("", 12)
	assert.False(t, c.IsSessionActive(), "no queue without loaded items")

	select {
	case <-loaded:
	case <-time.After(time.Second):
		t.Fatal("background load never ran")
	}
}

func TestFullSessionAllCorrect(t *testing.T) {
	items := makeItems(models.TopicNumbers, 12)
	c, persist := newTestController(t, items)

	c.StartSession(models.TopicNumbers, 12)
	require.True(t, c.IsSessionActive())

	answered := 0
	for {
		current := c.CurrentItem()
		if current == nil {
			break
		}
		c.Answer(current.Item.ID, true, 1200)
		answered++
	}

	assert.Equal(t, 12, answered)
	assert.Equal(t, 100, c.SessionAccuracy())
	assert.Equal(t, 1200, c.SessionAverageLatency())
	assert.False(t, c.IsSessionActive())

	progress := c.Progress()
	assert.Equal(t, 12, progress.Current)
	assert.Equal(t, 12, progress.Total)
	assert.Equal(t, 100, progress.Percentage)

	// Every answer persisted stats and progress snapshots.
	assert.Equal(t, 12, persist.count(KeyStats))
	assert.Equal(t, 12, persist.count(KeyProgress))
}

func TestAnswerForWrongItemIgnored(t *testing.T) {
	items := makeItems(models.TopicNumbers, 3)
	c, _ := newTestController(t, items)
	c.StartSession(models.TopicNumbers, 3)

	current := c.CurrentItem()
	require.NotNil(t, current)

	c.Answer("not-the-current-item", true, 1000)

	after := c.CurrentItem()
	require.NotNil(t, after)
	assert.Equal(t, current.Item.ID, after.Item.ID, "cursor must not advance")
	assert.Equal(t, 0, c.Progress().Current)
}

func TestAnswerWithoutSessionIsNoop(t *testing.T) {
	c, _ := newTestController(t, makeItems(models.TopicNumbers, 3))
	c.Answer("numbers-0", true, 1000) // must not panic
	assert.False(t, c.IsSessionActive())
}

func TestAnswerUpdatesItemSchedule(t *testing.T) {
	items := makeItems(models.TopicNumbers, 2)
	c, _ := newTestController(t, items)
	c.StartSession(models.TopicNumbers, 2)

	first := c.CurrentItem()
	require.NotNil(t, first)
	c.Answer(first.Item.ID, true, 1200)

	stats, ok := c.Stats(first.Item.ID)
	require.True(t, ok)
	assert.Equal(t, 1, stats.Repetitions)
	assert.Equal(t, 1, stats.IntervalDays)
	assert.Equal(t, 1, stats.TotalAttempts)
	assert.Equal(t, 1, stats.TotalCorrect)
}

func TestAwardXPBaseRewards(t *testing.T) {
	c, _ := newTestController(t, nil)

	assert.Equal(t, 10, c.AwardXP(true, 1000, models.TopicNumbers, "x"))
	c.Restore(nil, models.DefaultProgress(), nil)
	assert.Equal(t, 7, c.AwardXP(true, 4000, models.TopicNumbers, "x"))
	c.Restore(nil, models.DefaultProgress(), nil)
	assert.Equal(t, 2, c.AwardXP(false, 1000, models.TopicNumbers, "x"))
}

func TestAwardXPStreakBonus(t *testing.T) {
	c, _ := newTestController(t, nil)
	progress := models.DefaultProgress()
	progress.Streak = 4
	c.Restore(nil, progress, nil)

	// Fifth consecutive correct answer: base 10 plus 2*floor(5/5).
	earned := c.AwardXP(true, 1000, models.TopicNumbers, "x")
	assert.Equal(t, 12, earned)
	assert.Equal(t, 5, c.PlayerProgress().Streak)

	// An incorrect answer resets the streak.
	c.AwardXP(false, 1000, models.TopicNumbers, "x")
	assert.Equal(t, 0, c.PlayerProgress().Streak)
}

func TestAwardXPLevelUp(t *testing.T) {
	c, _ := newTestController(t, nil)
	progress := models.DefaultProgress()
	progress.XP = 95
	c.Restore(nil, progress, nil)

	// 95 + 10 = 105, below the level-1 threshold of 150.
	c.AwardXP(true, 1000, models.TopicNumbers, "x")
	got := c.PlayerProgress()
	assert.Equal(t, 1, got.Level)
	assert.Equal(t, 105, got.XP)
	assert.Equal(t, 150, c.NextLevelXP())

	// 145 + 10 = 155 crosses 150: level 2, 5 xp carried over.
	progress.XP = 145
	c.Restore(nil, progress, nil)
	c.AwardXP(true, 1000, models.TopicNumbers, "x")
	got = c.PlayerProgress()
	assert.Equal(t, 2, got.Level)
	assert.Equal(t, 5, got.XP)
}

func TestAwardXPMultiLevelRollover(t *testing.T) {
	c, _ := newTestController(t, nil)
	progress := models.DefaultProgress()
	progress.XP = 360
	c.Restore(nil, progress, nil)

	// One award crosses two thresholds: 370 >= 150 -> level 2 with 220,
	// 220 >= 200 -> level 3 with 20.
	c.AwardXP(true, 1000, models.TopicNumbers, "x")
	got := c.PlayerProgress()
	assert.Equal(t, 3, got.Level)
	assert.Equal(t, 20, got.XP)
}

func TestAnswerUpdatesTopicMastery(t *testing.T) {
	items := makeItems(models.TopicColors, 2)
	c, _ := newTestController(t, items)
	c.StartSession(models.TopicColors, 2)

	current := c.CurrentItem()
	require.NotNil(t, current)
	c.Answer(current.Item.ID, true, 1000)

	// One answer, all correct: the item's rolling accuracy is 100 and topic
	// mastery mirrors it.
	assert.Equal(t, 100, c.PlayerProgress().TopicMastery[models.TopicColors])
}

func TestStartLevelUnknownID(t *testing.T) {
	c, _ := newTestController(t, makeItems(models.TopicNumbers, 5))
	c.StartLevel("does-not-exist")

	assert.Equal(t, "level not found", c.LevelError())
	assert.Nil(t, c.CurrentLevelQuestion())
}

func TestStartLevelArithmetic(t *testing.T) {
	c, persist := newTestController(t, makeItems(models.TopicNumbers, 5))
	c.StartLevel("numbers-2-math")

	require.Empty(t, c.LevelError())
	first := c.CurrentLevelQuestion()
	require.NotNil(t, first)
	assert.Equal(t, models.KindArithmetic, first.Kind)
	assert.Equal(t, 1, persist.count(KeyLevelQueue))

	c.AdvanceLevel()
	second := c.CurrentLevelQuestion()
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestStartLevelFlashcardsWithoutItems(t *testing.T) {
	c, _ := newTestController(t, makeItems(models.TopicNumbers, 5))
	c.StartLevel("colors-1-flashcards")
	assert.Contains(t, c.LevelError(), "no flashcards available")
	assert.Nil(t, c.CurrentLevelQuestion())
}

func TestMarkLevelResult(t *testing.T) {
	c, _ := newTestController(t, nil)

	c.MarkLevelResult("numbers-1-flashcards", 90)
	progress := c.LevelProgressFor("numbers-1-flashcards")
	assert.True(t, progress.Completed)
	assert.Equal(t, 90, progress.Accuracy)
	assert.Equal(t, 1, progress.Attempts)

	// A weaker later attempt lowers the running average but completion is
	// sticky.
	c.MarkLevelResult("numbers-1-flashcards", 50)
	progress = c.LevelProgressFor("numbers-1-flashcards")
	assert.True(t, progress.Completed)
	assert.Equal(t, 70, progress.Accuracy)
	assert.Equal(t, 2, progress.Attempts)
}

func TestMarkLevelResultBelowThreshold(t *testing.T) {
	c, _ := newTestController(t, nil)
	c.MarkLevelResult("numbers-1-flashcards", 79)
	assert.False(t, c.LevelProgressFor("numbers-1-flashcards").Completed)
}

func TestIsLevelUnlocked(t *testing.T) {
	c, _ := newTestController(t, nil)

	assert.True(t, c.IsLevelUnlocked("numbers-1-flashcards"), "first level always unlocked")
	assert.False(t, c.IsLevelUnlocked("numbers-2-math"), "locked until previous completed")
	assert.False(t, c.IsLevelUnlocked("no-such-level"))

	c.MarkLevelResult("numbers-1-flashcards", 85)
	assert.True(t, c.IsLevelUnlocked("numbers-2-math"))
}

func TestRestoreLevelQueueResumesMidExercise(t *testing.T) {
	c, _ := newTestController(t, makeItems(models.TopicNumbers, 5))

	queue := &LevelQueue{Items: BuildArithmeticItems(3), Size: 3, CurrentIndex: 1}
	c.RestoreLevelQueue(queue)

	current := c.CurrentLevelQuestion()
	require.NotNil(t, current, "mid-exercise queue must survive a restart")
	assert.Equal(t, queue.Items[1].ID, current.ID, "cursor position preserved")

	c.AdvanceLevel()
	next := c.CurrentLevelQuestion()
	require.NotNil(t, next)
	assert.Equal(t, queue.Items[2].ID, next.ID)
}

func TestRestoreLevelQueueDiscardsNilAndExhausted(t *testing.T) {
	c, _ := newTestController(t, nil)

	c.RestoreLevelQueue(nil)
	assert.Nil(t, c.CurrentLevelQuestion())

	done := &LevelQueue{Items: BuildArithmeticItems(2), Size: 2, CurrentIndex: 2}
	c.RestoreLevelQueue(done)
	assert.Nil(t, c.CurrentLevelQuestion())
}

func TestEndSessionClearsPersistedLevelQueue(t *testing.T) {
	c, persist := newTestController(t, makeItems(models.TopicNumbers, 5))
	c.StartLevel("numbers-2-math")
	require.Empty(t, c.LevelError())
	require.Equal(t, 1, persist.count(KeyLevelQueue))

	c.EndSession()
	assert.Equal(t, 2, persist.count(KeyLevelQueue))
	queue, ok := persist.lastValue(KeyLevelQueue).(*LevelQueue)
	require.True(t, ok)
	assert.Nil(t, queue, "snapshot cleared so the exercise is not resurrected")
}

func TestEndSessionIdempotent(t *testing.T) {
	c, _ := newTestController(t, makeItems(models.TopicNumbers, 5))
	c.StartSession(models.TopicNumbers, 5)
	require.True(t, c.IsSessionActive())

	c.EndSession()
	assert.False(t, c.IsSessionActive())
	assert.Nil(t, c.CurrentItem())

	c.EndSession() // second call is harmless
	assert.False(t, c.IsSessionActive())
}

func TestStartSessionDiscardsPriorQueue(t *testing.T) {
	items := append(makeItems(models.TopicNumbers, 6), makeItems(models.TopicColors, 6)...)
	c, _ := newTestController(t, items)

	c.StartSession(models.TopicNumbers, 6)
	first := c.CurrentItem()
	require.NotNil(t, first)
	c.Answer(first.Item.ID, true, 1000)
	require.Equal(t, 1, c.Progress().Current)

	c.StartSession(models.TopicColors, 6)
	assert.Equal(t, 0, c.Progress().Current, "new session starts from the top")
	assert.Equal(t, models.TopicColors, c.CurrentItem().Item.Topic)
}

func TestRestoreMigratesProgress(t *testing.T) {
	c, _ := newTestController(t, nil)
	c.Restore(nil, models.PlayerProgress{XP: 30}, nil)

	got := c.PlayerProgress()
	assert.Equal(t, 1, got.Level, "level lifted to minimum")
	for _, topic := range models.AllTopics() {
		_, ok := got.TopicMastery[topic]
		assert.True(t, ok, "mastery entry for %s", topic)
	}
}

func TestDueCount(t *testing.T) {
	items := makeItems(models.TopicNumbers, 4)
	c, _ := newTestController(t, items)

	now := time.Now()
	stats := map[string]models.ItemStats{
		items[0].ID: {ItemID: items[0].ID, DueAt: now.Add(-time.Hour)},
		items[1].ID: {ItemID: items[1].ID, DueAt: now.Add(time.Hour)},
	}
	c.Restore(stats, models.DefaultProgress(), nil)

	assert.Equal(t, 1, c.DueCount(now))
}
