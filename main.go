package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/example/vocabquiz/internal/bot"
	"github.com/example/vocabquiz/internal/scheduler"
	"github.com/example/vocabquiz/internal/session"
	"github.com/example/vocabquiz/internal/storage"
	"github.com/example/vocabquiz/internal/vocab"
	"github.com/example/vocabquiz/pkg/models"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := storage.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer storage.Close()

	repo := storage.NewSnapshotRepository()
	debouncer := storage.NewDebouncer(repo, storage.DefaultDebounceWindow)

	vocabPath := os.Getenv("VOCAB_PATH")
	if vocabPath == "" {
		vocabPath = "assets/vocab.json"
	}
	controller := session.NewController(func() ([]models.VocabItem, error) {
		items, err := vocab.Load(vocabPath)
		if err != nil {
			return nil, err
		}
		if importPath := os.Getenv("IMPORT_FILE"); importPath != "" {
			imported, result, err := vocab.ImportItems(vocab.DefaultImportConfig(importPath))
			if err != nil {
				log.Printf("import failed: %v", err)
			} else {
				log.Printf("imported %d items from %s (%d skipped)", result.Imported, importPath, result.Skipped)
				items = append(items, imported...)
			}
		}
		return items, nil
	}, debouncer)

	restoreState(repo, controller)
	if err := controller.LoadItems(); err != nil {
		log.Fatalf("Failed to load vocabulary: %v", err)
	}

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	b, err := bot.New(token, controller, bot.DefaultConfig())
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	sched := scheduler.New(b, controller)
	sched.Start()
	defer sched.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v", sig)
		cancel()
	}()

	log.Println("Bot started. Press Ctrl+C to stop.")
	if err := b.Start(ctx); err != nil && err != context.Canceled {
		log.Printf("Bot error: %v", err)
	}

	// Write out anything still inside the debounce window
	debouncer.Flush()
	log.Println("Bot stopped successfully")
}

// restoreState loads persisted snapshots into the controller
func restoreState(repo *storage.SnapshotRepository, controller *session.Controller) {
	var stats map[string]models.ItemStats
	if _, err := repo.Load(session.KeyStats, &stats); err != nil {
		log.Printf("failed to load statistics snapshot: %v", err)
	}

	progress := models.DefaultProgress()
	if _, err := repo.Load(session.KeyProgress, &progress); err != nil {
		log.Printf("failed to load progress snapshot: %v", err)
	}

	var levelProgress map[string]models.LevelProgress
	if _, err := repo.Load(session.KeyLevelProgress, &levelProgress); err != nil {
		log.Printf("failed to load level progress snapshot: %v", err)
	}

	var levelQueue *session.LevelQueue
	if _, err := repo.Load(session.KeyLevelQueue, &levelQueue); err != nil {
		log.Printf("failed to load level queue snapshot: %v", err)
	}

	controller.Restore(stats, progress, levelProgress)
	controller.RestoreLevelQueue(levelQueue)
}
