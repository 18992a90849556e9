package models

// PlayerProgress holds the aggregate gamification state
type PlayerProgress struct {
	XP           int           `json:"xp" db:"xp"`
	Level        int           `json:"level" db:"level"`   // integer >= 1
	Streak       int           `json:"streak" db:"streak"` // consecutive correct answers across sessions
	TopicMastery map[Topic]int `json:"topic_mastery" db:"topic_mastery"` // 0-100 mastery per topic
}

// DefaultProgress returns the initial gamification state
func DefaultProgress() PlayerProgress {
	mastery := make(map[Topic]int, len(AllTopics()))
	for _, t := range AllTopics() {
		mastery[t] = 0
	}
	return PlayerProgress{
		XP:           0,
		Level:        1,
		Streak:       0,
		TopicMastery: mastery,
	}
}

// MigrateProgress fills in mastery entries for topics added after the
// snapshot was persisted
func MigrateProgress(progress PlayerProgress) PlayerProgress {
	if progress.TopicMastery == nil {
		progress.TopicMastery = make(map[Topic]int)
	}
	for _, t := range AllTopics() {
		if _, ok := progress.TopicMastery[t]; !ok {
			progress.TopicMastery[t] = 0
		}
	}
	if progress.Level < 1 {
		progress.Level = 1
	}
	return progress
}

// LevelProgress tracks completion of a single named exercise level
type LevelProgress struct {
	Completed bool `json:"completed" db:"completed"`
	Accuracy  int  `json:"accuracy" db:"accuracy"` // running average over attempts
	Attempts  int  `json:"attempts" db:"attempts"`
}
