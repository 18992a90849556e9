package models

// Level tags a vocabulary item with its difficulty band
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
)

// Topic is one of the fixed vocabulary topics
type Topic string

const (
	TopicNumbers  Topic = "numbers"
	TopicColors   Topic = "colors"
	TopicWeekdays Topic = "weekdays"
	TopicSeasons  Topic = "seasons"
	TopicVerbs    Topic = "verbs"
	TopicPhrases  Topic = "phrases"
)

// BasicTopics are the A1 topics available from the start
var BasicTopics = []Topic{TopicNumbers, TopicColors, TopicWeekdays, TopicSeasons}

// AdvancedTopics are the A2 topics
var AdvancedTopics = []Topic{TopicVerbs, TopicPhrases}

// AllTopics returns every topic in the fixed enumeration
func AllTopics() []Topic {
	all := make([]Topic, 0, len(BasicTopics)+len(AdvancedTopics))
	all = append(all, BasicTopics...)
	all = append(all, AdvancedTopics...)
	return all
}

// IsBasicTopic reports whether the topic belongs to the basic set
func IsBasicTopic(topic Topic) bool {
	for _, t := range BasicTopics {
		if t == topic {
			return true
		}
	}
	return false
}

// TopicLevel returns the difficulty band a topic belongs to
func TopicLevel(topic Topic) Level {
	if IsBasicTopic(topic) {
		return LevelA1
	}
	return LevelA2
}

// ValidTopic reports whether the value is part of the topic enumeration
func ValidTopic(topic Topic) bool {
	for _, t := range AllTopics() {
		if t == topic {
			return true
		}
	}
	return false
}

// VocabItem represents a single vocabulary entry to be learned.
// Items are created at data-load time and never mutated.
type VocabItem struct {
	ID              string `json:"id" db:"id"`
	Topic           Topic  `json:"topic" db:"topic"`
	Level           Level  `json:"level" db:"level"`
	Prompt          string `json:"prompt" db:"prompt"`   // native-language prompt text
	Answer          string `json:"answer" db:"answer"`   // target-language answer text
	Example         string `json:"example" db:"example"` // example sentence using the answer
	Transliteration string `json:"transliteration,omitempty" db:"transliteration"`
}
