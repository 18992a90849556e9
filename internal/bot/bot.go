// Package bot is the Telegram presentation layer. It renders questions as
// inline keyboards, measures answer latency, and forwards outcomes to the
// session controller. It contains no scheduling logic of its own.
package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/vocabquiz/internal/session"
	"github.com/example/vocabquiz/pkg/models"
)

// chatState tracks the per-chat quiz flow
type chatState struct {
	mode           string // "" | "quiz" | "level"
	levelID        string
	levelCorrect   int
	levelAnswered  int
	questionSentAt time.Time
	lastTTSAt      time.Time
}

// Bot represents the Telegram bot application
type Bot struct {
	api        *tgbotapi.BotAPI
	controller *session.Controller
	config     *Config

	mu     sync.Mutex
	chats  map[int64]*chatState
	chatID int64 // chat of the active session, reminders go here
}

// New creates a new bot instance
func New(token string, controller *session.Controller, config *Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %v", err)
	}
	if config == nil {
		config = DefaultConfig()
	}
	return &Bot{
		api:        api,
		controller: controller,
		config:     config,
		chats:      make(map[int64]*chatState),
	}, nil
}

// Start begins processing updates until the context is cancelled
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update := <-updates:
			if update.Message != nil {
				b.handleMessage(update.Message)
			} else if update.CallbackQuery != nil {
				b.handleCallback(update.CallbackQuery)
			}
		}
	}
}

// SendDueReminder notifies the active chat about due items
func (b *Bot) SendDueReminder(count int) error {
	b.mu.Lock()
	chatID := b.chatID
	b.mu.Unlock()
	if chatID == 0 {
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("You have %d words due for review. Send /quiz to practice.", count))
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	b.mu.Lock()
	b.chatID = message.Chat.ID
	if _, ok := b.chats[message.Chat.ID]; !ok {
		b.chats[message.Chat.ID] = &chatState{}
	}
	b.mu.Unlock()

	switch message.Command() {
	case "start":
		b.send(message.Chat.ID, "Welcome! Send /quiz to start a practice session, /levels to see exercises, or /progress for your stats.")
	case "quiz":
		topic := models.Topic(strings.TrimSpace(message.CommandArguments()))
		if topic != "" && !models.ValidTopic(topic) {
			b.send(message.Chat.ID, fmt.Sprintf("Unknown topic %q. Topics: %s", topic, topicList()))
			return
		}
		b.startQuiz(message.Chat.ID, topic)
	case "levels":
		b.sendLevelMenu(message.Chat.ID)
	case "progress":
		b.sendProgress(message.Chat.ID)
	case "end":
		b.controller.EndSession()
		b.send(message.Chat.ID, "Session ended.")
	default:
		b.send(message.Chat.ID, "Commands: /quiz [topic], /levels, /progress, /end")
	}
}

func (b *Bot) startQuiz(chatID int64, topic models.Topic) {
	b.controller.StartSession(topic, b.config.SessionSize)
	if !b.controller.IsSessionActive() {
		b.send(chatID, "No vocabulary loaded yet, try again in a moment.")
		return
	}

	b.mu.Lock()
	b.chats[chatID].mode = "quiz"
	b.mu.Unlock()
	b.sendCurrentQuestion(chatID)
}

func (b *Bot) sendCurrentQuestion(chatID int64) {
	current := b.controller.CurrentItem()
	if current == nil {
		b.finishQuiz(chatID)
		return
	}
	b.sendQuestion(chatID, current.Quiz)
}

func (b *Bot) sendQuestion(chatID int64, quiz models.QuizItem) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, option := range quiz.Options {
		data := fmt.Sprintf("opt:%s:%d", quiz.ID, i)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(option, data)))
	}

	text := quiz.Prompt
	if text == "" {
		text = quiz.PromptTarget
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("failed to send question: %v", err)
		return
	}

	b.mu.Lock()
	b.chats[chatID].questionSentAt = time.Now()
	b.mu.Unlock()
}

func (b *Bot) handleCallback(query *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Printf("failed to answer callback: %v", err)
	}

	chatID := query.Message.Chat.ID
	b.mu.Lock()
	if _, ok := b.chats[chatID]; !ok {
		b.chats[chatID] = &chatState{}
	}
	b.mu.Unlock()

	parts := strings.Split(query.Data, ":")

	switch parts[0] {
	case "opt":
		if len(parts) != 3 {
			return
		}
		index, err := strconv.Atoi(parts[2])
		if err != nil {
			return
		}
		b.handleAnswer(chatID, parts[1], index)
	case "level":
		if len(parts) == 2 {
			b.startLevel(chatID, parts[1])
		}
	}
}

func (b *Bot) handleAnswer(chatID int64, itemID string, optionIndex int) {
	b.mu.Lock()
	state, ok := b.chats[chatID]
	if !ok {
		b.mu.Unlock()
		return
	}
	latencyMs := int(time.Since(state.questionSentAt).Milliseconds())
	mode := state.mode
	b.mu.Unlock()

	if mode == "level" {
		b.handleLevelAnswer(chatID, itemID, optionIndex, latencyMs)
		return
	}

	current := b.controller.CurrentItem()
	if current == nil || current.Quiz.ID != itemID {
		return
	}
	quiz := current.Quiz
	correct := optionIndex < len(quiz.Options) && quiz.Options[optionIndex] == quiz.Answer

	b.controller.Answer(itemID, correct, latencyMs)
	b.sendFeedback(chatID, quiz, correct)
	b.sendCurrentQuestion(chatID)
}

func (b *Bot) sendFeedback(chatID int64, quiz models.QuizItem, correct bool) {
	if correct {
		b.speak(chatID, quiz.TTSOnCorrect)
		b.send(chatID, fmt.Sprintf("✅ Correct: %s", quiz.Answer))
	} else {
		b.send(chatID, fmt.Sprintf("❌ The answer was: %s", quiz.Answer))
	}
}

func (b *Bot) finishQuiz(chatID int64) {
	accuracy := b.controller.SessionAccuracy()
	latency := b.controller.SessionAverageLatency()
	b.controller.EndSession()

	b.mu.Lock()
	b.chats[chatID].mode = ""
	b.mu.Unlock()

	b.send(chatID, fmt.Sprintf("Session complete! Accuracy %d%%, average answer time %.1fs. Send /quiz for another round.",
		accuracy, float64(latency)/1000))
}

func (b *Bot) sendLevelMenu(chatID int64) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, topic := range models.AllTopics() {
		for _, def := range session.LevelsForTopic(topic) {
			label := fmt.Sprintf("%s — %s", topic, def.Title)
			if !b.controller.IsLevelUnlocked(def.ID) {
				label = "🔒 " + label
			} else if b.controller.LevelProgressFor(def.ID).Completed {
				label = "⭐ " + label
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, "level:"+def.ID)))
		}
	}
	msg := tgbotapi.NewMessage(chatID, "Choose an exercise:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("failed to send level menu: %v", err)
	}
}

func (b *Bot) startLevel(chatID int64, levelID string) {
	if !b.controller.IsLevelUnlocked(levelID) {
		b.send(chatID, "That exercise is still locked. Complete the previous one first.")
		return
	}

	b.controller.StartLevel(levelID)
	if errText := b.controller.LevelError(); errText != "" {
		b.send(chatID, "Could not start exercise: "+errText)
		return
	}

	b.mu.Lock()
	state := b.chats[chatID]
	state.mode = "level"
	state.levelID = levelID
	state.levelCorrect = 0
	state.levelAnswered = 0
	b.mu.Unlock()

	if question := b.controller.CurrentLevelQuestion(); question != nil {
		b.sendQuestion(chatID, *question)
	}
}

func (b *Bot) handleLevelAnswer(chatID int64, itemID string, optionIndex int, latencyMs int) {
	question := b.controller.CurrentLevelQuestion()
	if question == nil || question.ID != itemID {
		return
	}
	correct := optionIndex < len(question.Options) && question.Options[optionIndex] == question.Answer

	b.controller.AwardXP(correct, latencyMs, question.Topic, question.ID)
	b.controller.AdvanceLevel()
	b.sendFeedback(chatID, *question, correct)

	b.mu.Lock()
	state := b.chats[chatID]
	state.levelAnswered++
	if correct {
		state.levelCorrect++
	}
	levelID := state.levelID
	answered, correctCount := state.levelAnswered, state.levelCorrect
	b.mu.Unlock()

	if next := b.controller.CurrentLevelQuestion(); next != nil {
		b.sendQuestion(chatID, *next)
		return
	}

	accuracy := 0
	if answered > 0 {
		accuracy = correctCount * 100 / answered
	}
	b.controller.MarkLevelResult(levelID, accuracy)
	b.controller.EndSession()

	b.mu.Lock()
	b.chats[chatID].mode = ""
	b.mu.Unlock()

	result := fmt.Sprintf("Exercise finished with %d%% accuracy.", accuracy)
	if accuracy >= session.CompletionAccuracy {
		result += " Completed! The next exercise is unlocked."
	}
	b.send(chatID, result)
}

func (b *Bot) sendProgress(chatID int64) {
	progress := b.controller.PlayerProgress()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Level %d — %d/%d XP\n", progress.Level, progress.XP, b.controller.NextLevelXP())
	fmt.Fprintf(&sb, "Streak: %d\n\nTopic mastery:\n", progress.Streak)
	for _, topic := range models.AllTopics() {
		fmt.Fprintf(&sb, "  %s: %d%%\n", topic, progress.TopicMastery[topic])
	}
	b.send(chatID, sb.String())
}

// speak sends the pronunciation text for the chat's TTS client, debounced so
// rapid consecutive answers don't stack audio
func (b *Bot) speak(chatID int64, text string) {
	if text == "" {
		return
	}
	b.mu.Lock()
	state := b.chats[chatID]
	now := time.Now()
	if now.Sub(state.lastTTSAt) < time.Duration(b.config.TTSDebounceMs)*time.Millisecond {
		b.mu.Unlock()
		return
	}
	state.lastTTSAt = now
	b.mu.Unlock()

	b.send(chatID, "🔊 "+text)
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

func topicList() string {
	names := make([]string, 0)
	for _, t := range models.AllTopics() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}
