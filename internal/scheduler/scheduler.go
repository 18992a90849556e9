// Package scheduler runs the background reminder job: a periodic check for
// vocabulary items due for review.
package scheduler

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"
)

// Default quiet-hours window for reminders
const (
	DefaultReminderStartHour = 8
	DefaultReminderEndHour   = 22
)

// Notifier delivers a due-items reminder
type Notifier interface {
	SendDueReminder(count int) error
}

// DueSource reports how many items are due for review
type DueSource interface {
	DueCount(now time.Time) int
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	due       DueSource
}

// New creates a new scheduler instance
func New(notifier Notifier, due DueSource) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		notifier:  notifier,
		due:       due,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	s.scheduler.Every(1).Hour().Do(s.checkAndSendReminder)
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// checkAndSendReminder sends a reminder when due items exist and the current
// hour falls inside the reminder window
func (s *Scheduler) checkAndSendReminder() {
	now := time.Now()
	currentHour := now.Hour()

	startHour := hourFromEnv("REMINDER_START_HOUR", DefaultReminderStartHour)
	endHour := hourFromEnv("REMINDER_END_HOUR", DefaultReminderEndHour)

	if currentHour < startHour || currentHour > endHour {
		log.Printf("current hour %d is outside reminder hours (%d-%d), skipping", currentHour, startHour, endHour)
		return
	}

	count := s.due.DueCount(now)
	if count == 0 {
		return
	}
	if err := s.notifier.SendDueReminder(count); err != nil {
		log.Printf("error sending due reminder: %v", err)
	}
}

// RunManualCheck forces a reminder check regardless of the hour window
func (s *Scheduler) RunManualCheck() error {
	count := s.due.DueCount(time.Now())
	if count == 0 {
		return nil
	}
	return s.notifier.SendDueReminder(count)
}

func hourFromEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			return h
		}
	}
	return fallback
}
