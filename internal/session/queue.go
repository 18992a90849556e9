// Package session builds quiz queues and orchestrates the active session:
// queue construction with due-first topic balancing, the level registry, and
// the stateful controller that owns statistics and player progress.
package session

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/example/vocabquiz/internal/choices"
	"github.com/example/vocabquiz/internal/srs"
	"github.com/example/vocabquiz/pkg/models"
)

// DefaultSessionSize is the number of questions in a session unless the
// caller asks for a different size
const DefaultSessionSize = 12

// Item is one entry of a session queue: the vocabulary item, a snapshot of
// its scheduling statistics at build time, and the prepared question
type Item struct {
	Item  models.VocabItem
	Stats models.ItemStats
	Quiz  models.QuizItem
}

// Queue is a fixed-order batch of questions with a monotone cursor
type Queue struct {
	ID           string
	Items        []Item
	CurrentIndex int
	Size         int
}

// Current returns the question at the cursor, or nil once the queue is
// exhausted
func (q *Queue) Current() *Item {
	if q == nil || q.CurrentIndex >= len(q.Items) {
		return nil
	}
	return &q.Items[q.CurrentIndex]
}

// Advance moves the cursor forward by one, never past the end
func (q *Queue) Advance() {
	if q.CurrentIndex < len(q.Items) {
		q.CurrentIndex++
	}
}

// Complete reports whether every question has been answered
func (q *Queue) Complete() bool {
	return q == nil || q.CurrentIndex >= len(q.Items)
}

// BuildQuizItem prepares the multiple-choice question for a vocabulary item.
// The distractor pool is the target-language answers of all items sharing
// the item's topic.
func BuildQuizItem(item models.VocabItem, all []models.VocabItem) models.QuizItem {
	pool := make([]string, 0, len(all))
	for _, other := range all {
		if other.Topic == item.Topic {
			pool = append(pool, other.Answer)
		}
	}

	promptTarget := item.Example
	if promptTarget == "" {
		promptTarget = item.Answer
	}

	return models.QuizItem{
		ID:           item.ID,
		Kind:         models.KindFlashcard,
		Prompt:       item.Prompt,
		PromptTarget: promptTarget,
		Answer:       item.Answer,
		Options:      choices.Build(item.Answer, pool, choices.DefaultCount),
		TTSPrompt:    promptTarget,
		TTSOnCorrect: item.Answer,
		Topic:        item.Topic,
		Level:        item.Level,
	}
}

// BuildQueue selects and orders up to size items for a session. Due items are
// preferred, and selection is balanced across topics: each topic gets about
// ceil(size/topics) slots, filled from its due items first. Slots a topic
// cannot fill are not redistributed to other topics.
func BuildQueue(items []models.VocabItem, stats map[string]models.ItemStats, size int, now time.Time) *Queue {
	if size <= 0 {
		size = DefaultSessionSize
	}

	queue := &Queue{ID: uuid.NewString(), Size: size}
	if len(items) == 0 {
		return queue
	}

	// Attach current or freshly initialized stats to every pool item
	withStats := make([]Item, 0, len(items))
	for _, item := range items {
		s, ok := stats[item.ID]
		if !ok {
			s = srs.InitialStats(item.ID, now)
		}
		withStats = append(withStats, Item{Item: item, Stats: s})
	}

	// Group by topic, keeping due and not-due apart
	topicOrder := make([]models.Topic, 0)
	dueByTopic := make(map[models.Topic][]Item)
	restByTopic := make(map[models.Topic][]Item)
	for _, si := range withStats {
		topic := si.Item.Topic
		if _, seen := dueByTopic[topic]; !seen {
			if _, seen := restByTopic[topic]; !seen {
				topicOrder = append(topicOrder, topic)
			}
		}
		if srs.IsDue(si.Stats, now) {
			dueByTopic[topic] = append(dueByTopic[topic], si)
		} else {
			restByTopic[topic] = append(restByTopic[topic], si)
		}
	}

	targetPerTopic := int(math.Ceil(float64(size) / float64(len(topicOrder))))

	selected := make([]Item, 0, size)
	for _, topic := range topicOrder {
		due := dueByTopic[topic]
		if len(due) > targetPerTopic {
			due = due[:targetPerTopic]
		}
		selected = append(selected, due...)

		// Remaining slots use the full due count, so a topic with more due
		// items than slots contributes no not-due items
		remaining := targetPerTopic - len(dueByTopic[topic])
		if remaining > 0 {
			rest := restByTopic[topic]
			if len(rest) > remaining {
				rest = rest[:remaining]
			}
			selected = append(selected, rest...)
		}
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	rnd.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	if len(selected) > size {
		selected = selected[:size]
	}

	// Build options for each selected item from its same-topic answer pool
	for i := range selected {
		selected[i].Quiz = BuildQuizItem(selected[i].Item, items)
	}

	queue.Items = selected
	return queue
}

// LevelQueue is the question queue of a level-mode session
type LevelQueue struct {
	Items        []models.QuizItem
	CurrentIndex int
	Size         int
}

// Current returns the question at the cursor, or nil once exhausted
func (q *LevelQueue) Current() *models.QuizItem {
	if q == nil || q.CurrentIndex >= len(q.Items) {
		return nil
	}
	return &q.Items[q.CurrentIndex]
}

// Advance moves the cursor forward by one, never past the end
func (q *LevelQueue) Advance() {
	if q.CurrentIndex < len(q.Items) {
		q.CurrentIndex++
	}
}

// Complete reports whether every question has been answered
func (q *LevelQueue) Complete() bool {
	return q == nil || q.CurrentIndex >= len(q.Items)
}
