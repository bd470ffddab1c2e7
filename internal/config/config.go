package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath string
	SessionDir   string
	UserID       string

	// Session token auth. Optional; when set it takes precedence over UserID.
	AuthToken       string
	AuthTokenSecret string

	// Telegram Config
	TelegramBotToken    string
	TelegramWebhookURL  string
	TelegramAllowUserID int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	databasePath := os.Getenv("DATABASE_PATH")
	if databasePath == "" {
		return nil, fmt.Errorf("DATABASE_PATH environment variable not set")
	}

	sessionDir := os.Getenv("SESSION_DIR")
	if sessionDir == "" {
		return nil, fmt.Errorf("SESSION_DIR environment variable not set")
	}

	authToken := os.Getenv("AUTH_TOKEN")
	authTokenSecret := os.Getenv("AUTH_TOKEN_SECRET")
	if authToken != "" && authTokenSecret == "" {
		return nil, fmt.Errorf("AUTH_TOKEN_SECRET environment variable not set")
	}

	userID := os.Getenv("PLANNER_USER_ID")
	if userID == "" && authToken == "" {
		return nil, fmt.Errorf("PLANNER_USER_ID environment variable not set")
	}

	// Telegram Config (Optional for CLI, required for Bot)
	telegramBotToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	telegramWebhookURL := os.Getenv("TELEGRAM_WEBHOOK_URL")
	var telegramAllowUserID int64
	if raw := os.Getenv("TELEGRAM_ALLOW_USER_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_ALLOW_USER_ID is not a number: %w", err)
		}
		telegramAllowUserID = id
	}

	return &Config{
		DatabasePath:        databasePath,
		SessionDir:          sessionDir,
		UserID:              userID,
		AuthToken:           authToken,
		AuthTokenSecret:     authTokenSecret,
		TelegramBotToken:    telegramBotToken,
		TelegramWebhookURL:  telegramWebhookURL,
		TelegramAllowUserID: telegramAllowUserID,
	}, nil
}
