// Package config assembles process configuration from the environment.
// Required settings (bot token, whitelist) and an unsafe inference URL fail
// the load; everything else falls back to a sane default with a warning.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bowerhall/carydes/internal/backup"
	"github.com/bowerhall/carydes/internal/conversation"
	"github.com/bowerhall/carydes/internal/llm"
	"github.com/bowerhall/carydes/internal/logger"
	"github.com/bowerhall/carydes/internal/ratelimit"
	"github.com/bowerhall/carydes/internal/sanitize"
)

const defaultInferenceURL = "http://127.0.0.1:1234"

func Load() (*Config, error) {
	botConfig, err := loadBotConfig()
	if err != nil {
		return nil, err
	}

	whitelist, err := loadWhitelist()
	if err != nil {
		return nil, err
	}

	llmConfig, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}

	chatlogDir := os.Getenv("CHATLOG_DIR")
	if chatlogDir == "" {
		chatlogDir = "chatlogs"
	}

	var alertChatID int64
	if id, err := strconv.ParseInt(os.Getenv("ALERT_CHAT_ID"), 10, 64); err == nil {
		alertChatID = id
	}

	return &Config{
		Bot:         botConfig,
		Whitelist:   whitelist,
		LLM:         llmConfig,
		Limits:      loadLimitsConfig(),
		Log:         loadLogConfig(),
		ChatlogDir:  chatlogDir,
		FiltersFile: os.Getenv("INJECTION_FILTERS_FILE"),
		AlertChatID: alertChatID,
		Storage:     loadStorageConfig(),
	}, nil
}

func loadBotConfig() (BotConfig, error) {
	provider := os.Getenv("BOT_PROVIDER")
	if provider == "" {
		provider = "telegram"
	}

	var token string
	switch provider {
	case "telegram":
		token = os.Getenv("TELEGRAM_BOT_TOKEN")
		if token == "" {
			return BotConfig{}, fmt.Errorf("TELEGRAM_BOT_TOKEN not set")
		}
	case "discord":
		token = os.Getenv("DISCORD_TOKEN")
		if token == "" {
			return BotConfig{}, fmt.Errorf("DISCORD_TOKEN not set")
		}
	default:
		return BotConfig{}, fmt.Errorf("unknown BOT_PROVIDER: %s", provider)
	}

	return BotConfig{Provider: provider, Token: token}, nil
}

// loadWhitelist parses USER_WHITELIST, the comma-separated user IDs allowed
// to talk to the bot. An empty or malformed whitelist is fatal: better to
// refuse to start than to run a bot nobody (or anybody) can reach.
func loadWhitelist() ([]int64, error) {
	raw := os.Getenv("USER_WHITELIST")

	var ids []int64
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("USER_WHITELIST entry %q is not a user ID", field)
		}
		if id <= 0 {
			return nil, fmt.Errorf("USER_WHITELIST entry %d is not a valid user ID", id)
		}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("USER_WHITELIST is required (comma-separated user IDs)")
	}

	logger.Info("whitelist loaded", "users", len(ids))
	return ids, nil
}

func loadLLMConfig() (LLMConfig, error) {
	baseURL := os.Getenv("LM_STUDIO_URL")
	if baseURL == "" {
		baseURL = defaultInferenceURL
	}

	if err := sanitize.ValidateURL(baseURL); err != nil {
		return LLMConfig{}, fmt.Errorf("LM_STUDIO_URL %q: %w", baseURL, err)
	}

	return LLMConfig{
		BaseURL:      baseURL,
		Model:        os.Getenv("LM_STUDIO_MODEL"),
		MaxTokens:    parseIntEnv("MAX_TOKENS", llm.DefaultMaxTokens),
		Temperature:  parseFloatEnv("TEMPERATURE", llm.DefaultTemperature, 0, 2),
		SystemPrompt: os.Getenv("SYSTEM_PROMPT"),
	}, nil
}

func loadLimitsConfig() LimitsConfig {
	windowSecs := parseIntEnv("RATE_LIMIT_WINDOW", int(ratelimit.DefaultWindow/time.Second))

	return LimitsConfig{
		MaxHistory:       parseIntEnv("MAX_CONVERSATION_HISTORY", conversation.DefaultMaxTurns),
		MaxMessageLength: parseIntEnv("MAX_MESSAGE_LENGTH", sanitize.DefaultMaxMessage),
		RateMessages:     parseIntEnv("RATE_LIMIT_MESSAGES", ratelimit.DefaultLimit),
		RateWindow:       time.Duration(windowSecs) * time.Second,
	}
}

func loadLogConfig() LogConfig {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "INFO"
	}

	filePath := os.Getenv("LOG_FILE_PATH")
	if filePath == "" {
		filePath = "logs/bot.log"
	}

	return LogConfig{
		Level:    level,
		ToFile:   os.Getenv("LOG_TO_FILE") != "false",
		FilePath: filePath,
	}
}

func loadStorageConfig() StorageConfig {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "minio:9000"
	}

	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = backup.DefaultBucket
	}

	schedule := os.Getenv("BACKUP_SCHEDULE")
	if schedule == "" {
		schedule = backup.DefaultSchedule
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")

	return StorageConfig{
		Enabled:   accessKey != "" && secretKey != "",
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		Bucket:    bucket,
		Schedule:  schedule,
	}
}

// parseIntEnv reads a non-negative integer setting, warning and falling
// back to the default on anything malformed.
func parseIntEnv(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		logger.Warn("invalid value, using default", "key", key, "value", value, "default", def)
		return def
	}
	if n < 0 {
		logger.Warn("negative value, using default", "key", key, "default", def)
		return def
	}

	return n
}

// parseFloatEnv reads a bounded float setting, warning and falling back to
// the default when out of range.
func parseFloatEnv(key string, def, min, max float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logger.Warn("invalid value, using default", "key", key, "value", value, "default", def)
		return def
	}
	if f < min || f > max {
		logger.Warn("value out of range, using default", "key", key, "value", f, "min", min, "max", max, "default", def)
		return def
	}

	return f
}
