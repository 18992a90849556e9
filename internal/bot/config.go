package bot

// Config represents the configuration for the bot
type Config struct {
	// Number of questions per quiz session
	SessionSize int
	// Minimum milliseconds between text-to-speech triggers
	TTSDebounceMs int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *Config {
	return &Config{
		SessionSize:   12,
		TTSDebounceMs: 400,
	}
}
