package models

// QuestionKind distinguishes the question variants a level can produce
type QuestionKind string

const (
	// KindFlashcard asks for the translation of a vocabulary prompt
	KindFlashcard QuestionKind = "flashcard"
	// KindArithmetic asks for the result of a small arithmetic exercise
	KindArithmetic QuestionKind = "arithmetic"
)

// QuizItem is a fully built multiple-choice question. All fields are
// resolved at construction time; the presentation layer only reads them.
type QuizItem struct {
	ID           string       `json:"id"`
	Kind         QuestionKind `json:"kind"`
	Prompt       string       `json:"prompt"`              // native-language prompt, empty for arithmetic
	PromptTarget string       `json:"prompt_target"`       // target-language hint or exercise text
	Answer       string       `json:"answer"`              // canonical correct answer
	Options      []string     `json:"options"`             // shuffled multiple-choice options
	TTSPrompt    string       `json:"tts_prompt"`          // text to speak when the question is shown
	TTSOnCorrect string       `json:"tts_on_correct"`      // text to speak after a confirmed correct answer
	Topic        Topic        `json:"topic"`
	Level        Level        `json:"level"`
}

// LevelDef describes a named exercise set within a topic
type LevelDef struct {
	ID       string       `json:"id"` // e.g. "numbers-1-flashcards"
	Topic    Topic        `json:"topic"`
	Kind     QuestionKind `json:"kind"`
	Title    string       `json:"title"`
	Subtitle string       `json:"subtitle,omitempty"`
	Size     int          `json:"size,omitempty"` // default 12
}
