package session

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/example/vocabquiz/internal/choices"
	"github.com/example/vocabquiz/pkg/models"
)

// CompletionAccuracy is the accuracy required to mark a level completed
const CompletionAccuracy = 80

// numberWords spell out the operands and results of arithmetic questions
var numberWords = []string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"}

// topicLevels is the fixed registry of named exercise levels per topic.
// Identifier ordering within a topic doubles as the unlock order.
var topicLevels = map[models.Topic][]models.LevelDef{
	models.TopicNumbers: {
		{ID: "numbers-1-flashcards", Topic: models.TopicNumbers, Kind: models.KindFlashcard, Title: "Basic recognition", Subtitle: "Recognize the numbers"},
		{ID: "numbers-2-math", Topic: models.TopicNumbers, Kind: models.KindArithmetic, Title: "Simple arithmetic", Subtitle: "Basic calculations with numbers"},
	},
	models.TopicColors: {
		{ID: "colors-1-flashcards", Topic: models.TopicColors, Kind: models.KindFlashcard, Title: "Basic recognition", Subtitle: "Recognize the colors"},
	},
	models.TopicWeekdays: {
		{ID: "weekdays-1-flashcards", Topic: models.TopicWeekdays, Kind: models.KindFlashcard, Title: "Basic recognition", Subtitle: "Recognize the weekdays"},
	},
	models.TopicSeasons: {
		{ID: "seasons-1-flashcards", Topic: models.TopicSeasons, Kind: models.KindFlashcard, Title: "Basic recognition", Subtitle: "Recognize the seasons"},
	},
	models.TopicVerbs: {
		{ID: "verbs-1-flashcards", Topic: models.TopicVerbs, Kind: models.KindFlashcard, Title: "Basic recognition"},
	},
	models.TopicPhrases: {
		{ID: "phrases-1-flashcards", Topic: models.TopicPhrases, Kind: models.KindFlashcard, Title: "Basic recognition"},
	},
}

// LevelByID looks up a level definition in the registry
func LevelByID(id string) (models.LevelDef, bool) {
	for _, defs := range topicLevels {
		for _, def := range defs {
			if def.ID == id {
				return def, true
			}
		}
	}
	return models.LevelDef{}, false
}

// LevelsForTopic returns the topic's levels sorted by identifier
func LevelsForTopic(topic models.Topic) []models.LevelDef {
	defs := make([]models.LevelDef, len(topicLevels[topic]))
	copy(defs, topicLevels[topic])
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// BuildLevelQueue builds the question queue for a level. Flashcard levels
// draw from the level topic's vocabulary; arithmetic levels generate their
// questions.
func BuildLevelQueue(def models.LevelDef, items []models.VocabItem) (*LevelQueue, error) {
	size := def.Size
	if size <= 0 {
		size = DefaultSessionSize
	}

	switch def.Kind {
	case models.KindFlashcard:
		topicItems := make([]models.VocabItem, 0)
		for _, item := range items {
			if item.Topic == def.Topic {
				topicItems = append(topicItems, item)
			}
		}
		if len(topicItems) == 0 {
			return nil, fmt.Errorf("no flashcards available for level %s", def.ID)
		}

		questions := make([]models.QuizItem, 0, len(topicItems))
		for _, item := range topicItems {
			questions = append(questions, BuildQuizItem(item, topicItems))
		}
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		rnd.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
		if len(questions) > size {
			questions = questions[:size]
		}
		return &LevelQueue{Items: questions, Size: size}, nil

	case models.KindArithmetic:
		return &LevelQueue{Items: BuildArithmeticItems(size), Size: size}, nil

	default:
		return nil, fmt.Errorf("level kind %q not implemented", def.Kind)
	}
}

// BuildArithmeticItems generates count subtraction questions over the number
// words, each with a multiple-choice option set
func BuildArithmeticItems(count int) []models.QuizItem {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	items := make([]models.QuizItem, 0, count)

	for i := 0; i < count; i++ {
		a := rnd.Intn(10) + 1 // 1-10
		b := rnd.Intn(a) + 1  // 1-a
		correct := numberWords[a-b]
		prompt := fmt.Sprintf("%s - %s =", numberWords[a], numberWords[b])

		items = append(items, models.QuizItem{
			ID:           fmt.Sprintf("math-%d-%d-%d", i, a, b),
			Kind:         models.KindArithmetic,
			PromptTarget: prompt,
			Answer:       correct,
			Options:      choices.Build(correct, numberWords, choices.DefaultCount),
			TTSPrompt:    prompt,
			TTSOnCorrect: correct,
			Topic:        models.TopicNumbers,
			Level:        models.LevelA1,
		})
	}

	return items
}
