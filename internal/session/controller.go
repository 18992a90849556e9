package session

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/example/vocabquiz/internal/choices"
	"github.com/example/vocabquiz/internal/srs"
	"github.com/example/vocabquiz/pkg/models"
)

// Persisted snapshot keys. Each write carries the full current snapshot, so
// no ordering guarantee is needed between keys.
const (
	KeyStats         = "srs-stats"
	KeyProgress      = "player-progress"
	KeyLevelProgress = "level-progress"
	KeyLevelQueue    = "level-queue"
)

// XP reward constants
const (
	xpFastCorrect   = 10
	xpSlowCorrect   = 7
	xpIncorrect     = 2
	fastAnswerMs    = 2500
	streakBonusStep = 5
)

// Persister receives snapshot writes. Implementations are expected to be
// best-effort and non-blocking; the in-memory state stays authoritative.
type Persister interface {
	Save(key string, value interface{})
}

// Loader supplies the vocabulary pool
type Loader func() ([]models.VocabItem, error)

// Controller owns the active session state: the vocabulary pool, the per-item
// statistics table, player progress, level progress, and the active queue.
// All mutation goes through its methods.
type Controller struct {
	mu      sync.Mutex
	loader  Loader
	persist Persister
	now     func() time.Time

	items         []models.VocabItem
	stats         map[string]models.ItemStats
	progress      models.PlayerProgress
	levelProgress map[string]models.LevelProgress

	queue      *Queue
	levelQueue *LevelQueue
	levelErr   string
}

// NewController creates a controller. persist may be nil to disable
// persistence entirely.
func NewController(loader Loader, persist Persister) *Controller {
	return &Controller{
		loader:        loader,
		persist:       persist,
		now:           time.Now,
		stats:         make(map[string]models.ItemStats),
		progress:      models.DefaultProgress(),
		levelProgress: make(map[string]models.LevelProgress),
	}
}

// Restore installs previously persisted state. Called once at startup before
// the controller is used.
func (c *Controller) Restore(stats map[string]models.ItemStats, progress models.PlayerProgress, levelProgress map[string]models.LevelProgress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if stats != nil {
		c.stats = stats
	}
	c.progress = models.MigrateProgress(progress)
	if levelProgress != nil {
		c.levelProgress = levelProgress
	}
}

// RestoreLevelQueue reinstalls a persisted level-mode queue so an in-flight
// exercise survives a restart. A nil or exhausted queue is discarded.
func (c *Controller) RestoreLevelQueue(queue *LevelQueue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if queue.Complete() {
		return
	}
	c.levelQueue = queue
}

// LoadItems loads the vocabulary pool through the configured loader
func (c *Controller) LoadItems() error {
	items, err := c.loader()
	if err != nil {
		log.Printf("failed to load vocabulary items: %v", err)
		return err
	}
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	return nil
}

// Items returns the loaded vocabulary pool
func (c *Controller) Items() []models.VocabItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items
}

// StartSession builds a new session queue from the full pool, or from a
// single topic when topic is non-empty. If the pool has not been loaded yet
// this is a no-op that triggers a background load. Starting while a session
// is active discards the prior queue.
func (c *Controller) StartSession(topic models.Topic, size int) {
	c.mu.Lock()
	if len(c.items) == 0 {
		c.mu.Unlock()
		log.Printf("no vocabulary items loaded, loading in background")
		go func() {
			if err := c.LoadItems(); err != nil {
				log.Printf("background vocabulary load failed: %v", err)
			}
		}()
		return
	}

	pool := c.items
	if topic != "" {
		pool = make([]models.VocabItem, 0)
		for _, item := range c.items {
			if item.Topic == topic {
				pool = append(pool, item)
			}
		}
	}

	queue := BuildQueue(pool, c.stats, size, c.now())
	c.repairOptions(queue)
	c.queue = queue
	c.mu.Unlock()
}

// repairOptions rebuilds any malformed option set before it can reach the
// presentation layer
func (c *Controller) repairOptions(queue *Queue) {
	for i := range queue.Items {
		quiz := &queue.Items[i].Quiz
		if !choices.Valid(quiz.Options, quiz.Answer) {
			log.Printf("rebuilding malformed option set for item %s", quiz.ID)
			pool := make([]string, 0, len(c.items))
			for _, item := range c.items {
				if item.Topic == quiz.Topic {
					pool = append(pool, item.Answer)
				}
			}
			quiz.Options = choices.Ensure(quiz.Options, quiz.Answer, pool, choices.DefaultCount)
		}
	}
}

// StartLevel builds a level-mode queue. An unknown level identifier or a
// level that cannot produce questions is surfaced through LevelError, never
// as a panic or a broken queue.
func (c *Controller) StartLevel(levelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.levelErr = ""
	c.levelQueue = nil

	def, ok := LevelByID(levelID)
	if !ok {
		c.levelErr = "level not found"
		return
	}

	queue, err := BuildLevelQueue(def, c.items)
	if err != nil {
		c.levelErr = err.Error()
		return
	}

	c.levelQueue = queue
	c.save(KeyLevelQueue, queue)
}

// LevelError returns the error state of the last StartLevel call, empty when
// the level started cleanly
func (c *Controller) LevelError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.levelErr
}

// Answer records the outcome for the current question: it computes the next
// schedule for the item, advances the cursor by exactly one, and awards
// experience. Answers for any item other than the current one are ignored.
func (c *Controller) Answer(itemID string, correct bool, latencyMs int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.queue.Current()
	if current == nil {
		return
	}
	if current.Item.ID != itemID {
		log.Printf("ignoring answer for %s: current question is %s", itemID, current.Item.ID)
		return
	}

	prev, ok := c.stats[itemID]
	if !ok {
		prev = srs.InitialStats(itemID, c.now())
	}
	c.stats[itemID] = srs.Update(prev, correct, latencyMs, c.now())
	c.queue.Advance()

	c.awardXP(correct, latencyMs, current.Item.Topic, itemID)
	c.save(KeyStats, c.statsSnapshot())
}

// AwardXP awards experience for an answer outside the SRS flow, e.g. in
// level-mode sessions. It returns the experience earned.
func (c *Controller) AwardXP(correct bool, latencyMs int, topic models.Topic, itemID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.awardXP(correct, latencyMs, topic, itemID)
}

func (c *Controller) awardXP(correct bool, latencyMs int, topic models.Topic, itemID string) int {
	base := xpIncorrect
	if correct {
		if latencyMs < fastAnswerMs {
			base = xpFastCorrect
		} else {
			base = xpSlowCorrect
		}
	}

	streak := 0
	if correct {
		streak = c.progress.Streak + 1
	}
	bonus := 0
	if streak > 0 {
		bonus = 2 * (streak / streakBonusStep)
	}
	earned := base + bonus

	xp := c.progress.XP + earned
	level := c.progress.Level
	// Loop so a single large award can cross several thresholds
	for xp >= 100+level*50 {
		xp -= 100 + level*50
		level++
	}

	c.progress.XP = xp
	c.progress.Level = level
	c.progress.Streak = streak

	// Topic mastery mirrors the answered item's rolling accuracy. Generated
	// questions have no statistics entry and leave mastery untouched.
	if stats, ok := c.stats[itemID]; ok {
		c.progress.TopicMastery[topic] = stats.RollingAccuracy
	}

	c.save(KeyProgress, c.progress)
	return earned
}

// AdvanceLevel moves the level-mode cursor forward by one
func (c *Controller) AdvanceLevel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.levelQueue != nil && !c.levelQueue.Complete() {
		c.levelQueue.Advance()
		c.save(KeyLevelQueue, c.levelQueue)
	}
}

// MarkLevelResult reports the outcome of a finished level attempt. The
// running accuracy average and attempt count are updated, and the level is
// marked completed once any attempt reaches the completion accuracy.
func (c *Controller) MarkLevelResult(levelID string, accuracy int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.levelProgress[levelID]
	attempts := current.Attempts + 1
	avg := int(math.Round(float64(current.Accuracy*current.Attempts+accuracy) / float64(attempts)))

	c.levelProgress[levelID] = models.LevelProgress{
		Completed: current.Completed || accuracy >= CompletionAccuracy,
		Accuracy:  avg,
		Attempts:  attempts,
	}
	c.save(KeyLevelProgress, c.levelProgressSnapshot())
}

// EndSession discards the active queues and returns to the idle state.
// Calling it with no active session is a no-op.
func (c *Controller) EndSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.levelQueue != nil {
		// Clear the snapshot so the level session is not resurrected on restart
		c.save(KeyLevelQueue, (*LevelQueue)(nil))
	}
	c.queue = nil
	c.levelQueue = nil
	c.levelErr = ""
}

// CurrentItem returns the active question of the topic-mode session, or nil
// when no session is active or the queue is exhausted
func (c *Controller) CurrentItem() *Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Current()
}

// CurrentLevelQuestion returns the active question of the level-mode
// session, or nil
func (c *Controller) CurrentLevelQuestion() *models.QuizItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.levelQueue.Current()
}

// SessionProgress describes how far the session has advanced
type SessionProgress struct {
	Current    int
	Total      int
	Percentage int
}

// Progress returns the session cursor position
func (c *Controller) Progress() SessionProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queue == nil || c.queue.Size == 0 {
		return SessionProgress{}
	}
	return SessionProgress{
		Current:    c.queue.CurrentIndex,
		Total:      c.queue.Size,
		Percentage: int(math.Round(float64(c.queue.CurrentIndex) / float64(c.queue.Size) * 100)),
	}
}

// SessionAccuracy returns the percentage of correct attempts across the
// items answered so far in this session, from their lifetime statistics
func (c *Controller) SessionAccuracy() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queue == nil || c.queue.CurrentIndex == 0 {
		return 0
	}

	totalCorrect, totalAttempts := 0, 0
	for i := 0; i < c.queue.CurrentIndex; i++ {
		if stats, ok := c.stats[c.queue.Items[i].Item.ID]; ok {
			totalCorrect += stats.TotalCorrect
			totalAttempts += stats.TotalAttempts
		}
	}
	if totalAttempts == 0 {
		return 0
	}
	return int(math.Round(float64(totalCorrect) / float64(totalAttempts) * 100))
}

// SessionAverageLatency returns the mean answer latency in milliseconds over
// the items answered so far in this session
func (c *Controller) SessionAverageLatency() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queue == nil || c.queue.CurrentIndex == 0 {
		return 0
	}

	total, count := 0, 0
	for i := 0; i < c.queue.CurrentIndex; i++ {
		if stats, ok := c.stats[c.queue.Items[i].Item.ID]; ok && stats.LastLatency > 0 {
			total += stats.LastLatency
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(count)))
}

// IsSessionActive reports whether a topic-mode session is running and not
// yet exhausted
func (c *Controller) IsSessionActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue != nil && !c.queue.Complete()
}

// PlayerProgress returns a copy of the gamification state
func (c *Controller) PlayerProgress() models.PlayerProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	progress := c.progress
	mastery := make(map[models.Topic]int, len(progress.TopicMastery))
	for k, v := range progress.TopicMastery {
		mastery[k] = v
	}
	progress.TopicMastery = mastery
	return progress
}

// NextLevelXP returns the experience threshold for the next level-up
func (c *Controller) NextLevelXP() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return 100 + c.progress.Level*50
}

// IsLevelUnlocked reports whether a level can be started. The first level of
// a topic is always unlocked; every other level requires the immediately
// preceding level to be completed.
func (c *Controller) IsLevelUnlocked(levelID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	def, ok := LevelByID(levelID)
	if !ok {
		return false
	}
	levels := LevelsForTopic(def.Topic)
	for i, l := range levels {
		if l.ID != levelID {
			continue
		}
		if i == 0 {
			return true
		}
		return c.levelProgress[levels[i-1].ID].Completed
	}
	return false
}

// LevelProgressFor returns the recorded progress for a level
func (c *Controller) LevelProgressFor(levelID string) models.LevelProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.levelProgress[levelID]
}

// Stats returns a copy of the statistics entry for an item
func (c *Controller) Stats(itemID string) (models.ItemStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats, ok := c.stats[itemID]
	return stats, ok
}

// DueCount returns how many reviewed items are due at the given time
func (c *Controller) DueCount(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, item := range c.items {
		if stats, ok := c.stats[item.ID]; ok && srs.IsDue(stats, now) {
			count++
		}
	}
	return count
}

func (c *Controller) save(key string, value interface{}) {
	if c.persist != nil {
		c.persist.Save(key, value)
	}
}

func (c *Controller) statsSnapshot() map[string]models.ItemStats {
	snapshot := make(map[string]models.ItemStats, len(c.stats))
	for k, v := range c.stats {
		snapshot[k] = v
	}
	return snapshot
}

func (c *Controller) levelProgressSnapshot() map[string]models.LevelProgress {
	snapshot := make(map[string]models.LevelProgress, len(c.levelProgress))
	for k, v := range c.levelProgress {
		snapshot[k] = v
	}
	return snapshot
}
